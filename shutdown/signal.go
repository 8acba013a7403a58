// Package shutdown coordinates a graceful stop between a trigger and a
// consumer of a bounded channel.
//
// [New] returns the two halves of a one-shot signal. The [Trigger] is fired
// once by whoever requests the stop; the [Signal] is handed to a [Gate] that
// guards a bounded.Receiver. When the gate observes the signal it closes the
// receiver, so producers are refused from then on while every item already
// buffered is still handed out before the gate reports io.EOF.
//
//	trigger, signal := shutdown.New()
//	gate := shutdown.NewGate(signal, rx)
//	go func() {
//		<-stop
//		trigger.Fire()
//	}()
//	for {
//		v, err := gate.Recv(ctx)
//		if err != nil {
//			break
//		}
//		handle(v)
//	}
package shutdown

import (
	"context"
	"errors"
	"sync"
)

// ErrTriggerClosed is reported by a Signal whose Trigger was closed without
// firing.
var ErrTriggerClosed = errors.New("shutdown: trigger closed without firing")

type oneshot struct {
	once sync.Once
	done chan struct{}
	err  error
}

func (o *oneshot) resolve(err error) bool {
	resolved := false
	o.once.Do(func() {
		o.err = err
		close(o.done)
		resolved = true
	})
	return resolved
}

// New returns the sending and receiving halves of a one-shot signal.
func New() (*Trigger, *Signal) {
	o := &oneshot{done: make(chan struct{})}
	return &Trigger{o: o}, &Signal{o: o}
}

// Trigger is the sending half of a one-shot signal.
type Trigger struct {
	o *oneshot
}

// Fire resolves the signal. It reports whether this call resolved it; every
// call after the first, or after Close, returns false.
func (t *Trigger) Fire() bool {
	return t.o.resolve(nil)
}

// Close drops the trigger. If it never fired, the signal resolves with
// ErrTriggerClosed so that a waiting gate does not wait forever.
func (t *Trigger) Close() {
	t.o.resolve(ErrTriggerClosed)
}

// Signal is the receiving half of a one-shot signal. A nil *Signal is valid
// and never resolves.
type Signal struct {
	o *oneshot
}

// Done returns a channel that is closed once the signal resolves.
func (s *Signal) Done() <-chan struct{} {
	if s == nil {
		return nil
	}
	return s.o.done
}

// Poll reports whether the signal has resolved without waiting. err is nil
// if it was fired and ErrTriggerClosed if the trigger was closed instead.
func (s *Signal) Poll() (resolved bool, err error) {
	if s == nil {
		return false, nil
	}
	select {
	case <-s.o.done:
		return true, s.o.err
	default:
		return false, nil
	}
}

// Wait blocks until the signal resolves or ctx is done.
func (s *Signal) Wait(ctx context.Context) error {
	select {
	case <-s.Done():
		return s.o.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
