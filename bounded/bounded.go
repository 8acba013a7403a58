// Package bounded provides a capacity-limited FIFO channel between any number
// of Sender handles and exactly one Receiver.
//
// Unlike a Go channel, both halves can end the exchange. Closing the Receiver
// makes every later send fail with [ErrClosed] while buffered items stay
// receivable. Closing the last Sender lets the Receiver drain what is buffered
// and then report [io.EOF].
//
// Both halves offer poll-style operations that never block and return a wake
// channel instead, next to blocking forms that take a context:
//
//	tx, rx := bounded.New[string](16)
//	go func() {
//		defer tx.Close()
//		for _, s := range []string{"a", "b"} {
//			if err := tx.Send(ctx, s); err != nil {
//				return
//			}
//		}
//	}()
//	for {
//		v, err := rx.Recv(ctx)
//		if err != nil {
//			break // io.EOF once tx is closed and everything was received
//		}
//		fmt.Println(v)
//	}
package bounded

import (
	"context"
	"errors"
	"io"
	"iter"
	"sync"
)

type channel[T any] struct {
	mu       sync.Mutex
	buf      *ring[T]
	reserved int
	senders  int
	rxClosed bool

	// Wake channels are created on demand by a waiter and closed on the next
	// relevant state change. readable: item pushed or last sender gone.
	// writable: slot freed or receiver closed.
	readable chan struct{}
	writable chan struct{}
}

func (c *channel[T]) capacity() int {
	return len(c.buf.data)
}

func (c *channel[T]) freeLocked() bool {
	return c.buf.len()+c.reserved < c.capacity()
}

func (c *channel[T]) doneLocked() bool {
	return c.rxClosed || c.senders == 0
}

func waitLocked(ch *chan struct{}) <-chan struct{} {
	if *ch == nil {
		*ch = make(chan struct{})
	}
	return *ch
}

func wakeLocked(ch *chan struct{}) {
	if *ch != nil {
		close(*ch)
		*ch = nil
	}
}

// New creates a channel buffering up to capacity items and returns its first
// Sender handle and its Receiver. A capacity below one is treated as one.
func New[T any](capacity int) (*Sender[T], *Receiver[T]) {
	if capacity <= 0 {
		capacity = 1
	}
	c := &channel[T]{
		buf:     newRing[T](capacity),
		senders: 1,
	}
	return &Sender[T]{c: c}, &Receiver[T]{c: c}
}

// Sender is a handle with the right to enqueue. Use Clone to obtain one
// handle per producer; a handle holds at most one slot reservation, so
// sharing a single handle between goroutines defeats PollReady.
type Sender[T any] struct {
	c *channel[T]

	// guarded by c.mu
	reserved bool
	released bool
}

// PollReady reports whether an item can be sent without waiting. When a slot
// is free it is reserved for this handle until the next send or Close. When
// the channel is full PollReady returns false and a channel that is closed
// once the state changes and PollReady should be called again.
//
// PollReady also reports true when the receiver is closed or the handle is
// released, so that the following send surfaces the condition as an error.
func (s *Sender[T]) PollReady() (bool, <-chan struct{}) {
	c := s.c
	c.mu.Lock()
	defer c.mu.Unlock()

	if s.released || c.rxClosed || s.reserved {
		return true, nil
	}
	if c.freeLocked() {
		c.reserved++
		s.reserved = true
		return true, nil
	}
	return false, waitLocked(&c.writable)
}

// Ready waits until PollReady reports true or ctx is done.
func (s *Sender[T]) Ready(ctx context.Context) error {
	for {
		ready, wake := s.PollReady()
		if ready {
			return nil
		}
		select {
		case <-wake:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// TrySend enqueues item without waiting, consuming the reservation made by
// PollReady if there is one. On failure it returns a *SendError wrapping
// ErrClosed, ErrFull or ErrReleased, and the item stays with the caller.
func (s *Sender[T]) TrySend(item T) error {
	c := s.c
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case s.released:
		return &SendError[T]{Item: item, Err: ErrReleased}
	case c.rxClosed:
		s.unreserveLocked()
		return &SendError[T]{Item: item, Err: ErrClosed}
	case s.reserved:
		s.reserved = false
		c.reserved--
	case !c.freeLocked():
		return &SendError[T]{Item: item, Err: ErrFull}
	}

	c.buf.push(item)
	wakeLocked(&c.readable)
	return nil
}

// Send waits for capacity and enqueues item.
func (s *Sender[T]) Send(ctx context.Context, item T) error {
	for {
		if err := s.Ready(ctx); err != nil {
			return err
		}
		err := s.TrySend(item)
		if !errors.Is(err, ErrFull) {
			return err
		}
	}
}

// Clone returns a new handle to the same channel. The receiver only reports
// end of data after every handle has been closed.
func (s *Sender[T]) Clone() *Sender[T] {
	c := s.c
	c.mu.Lock()
	defer c.mu.Unlock()

	if s.released {
		return &Sender[T]{c: c, released: true}
	}
	c.senders++
	return &Sender[T]{c: c}
}

// Close releases the handle and any reservation it holds. Closing the last
// handle closes the channel for the receiver. Close is idempotent.
func (s *Sender[T]) Close() {
	c := s.c
	c.mu.Lock()
	defer c.mu.Unlock()

	if s.released {
		return
	}
	s.unreserveLocked()
	s.released = true
	c.senders--
	if c.senders == 0 {
		wakeLocked(&c.readable)
	}
}

func (s *Sender[T]) unreserveLocked() {
	if !s.reserved {
		return
	}
	s.reserved = false
	s.c.reserved--
	wakeLocked(&s.c.writable)
}

// IsClosed reports whether the receiver has been closed.
func (s *Sender[T]) IsClosed() bool {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	return s.c.rxClosed
}

// Len returns the number of buffered items.
func (s *Sender[T]) Len() int {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	return s.c.buf.len()
}

// Cap returns the channel capacity.
func (s *Sender[T]) Cap() int {
	return s.c.capacity()
}

// Receiver is the single handle with the right to dequeue.
type Receiver[T any] struct {
	c *channel[T]
}

// PollRecv returns the next item without waiting. It returns io.EOF once the
// channel is closed and drained. When nothing is buffered yet it returns
// ErrEmpty and a channel that is closed once PollRecv should be called again.
func (r *Receiver[T]) PollRecv() (T, <-chan struct{}, error) {
	c := r.c
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	if !c.buf.empty() {
		v := c.buf.pop()
		wakeLocked(&c.writable)
		return v, nil, nil
	}
	if c.doneLocked() {
		return zero, nil, io.EOF
	}
	return zero, waitLocked(&c.readable), ErrEmpty
}

// TryRecv returns the next item without waiting, ErrEmpty if none is
// buffered, or io.EOF once the channel is closed and drained.
func (r *Receiver[T]) TryRecv() (T, error) {
	v, _, err := r.PollRecv()
	return v, err
}

// Recv waits for the next item. It returns io.EOF once the channel is closed
// and drained, or the context error if ctx is done first.
func (r *Receiver[T]) Recv(ctx context.Context) (T, error) {
	for {
		v, wake, err := r.PollRecv()
		if !errors.Is(err, ErrEmpty) {
			return v, err
		}
		select {
		case <-wake:
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
}

// All returns an iterator over received items. Iteration stops at end of
// data or when ctx is done.
func (r *Receiver[T]) All(ctx context.Context) iter.Seq[T] {
	return func(yield func(T) bool) {
		for {
			v, err := r.Recv(ctx)
			if err != nil || !yield(v) {
				return
			}
		}
	}
}

// Close stops the channel from accepting items. Items already buffered can
// still be received. Close is idempotent.
func (r *Receiver[T]) Close() {
	c := r.c
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.rxClosed {
		return
	}
	c.rxClosed = true
	wakeLocked(&c.writable)
	wakeLocked(&c.readable)
}

// IsClosed reports whether no further items can arrive, either because the
// receiver was closed or because every sender handle was released.
func (r *Receiver[T]) IsClosed() bool {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	return r.c.doneLocked()
}

// Len returns the number of buffered items.
func (r *Receiver[T]) Len() int {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	return r.c.buf.len()
}

// Cap returns the channel capacity.
func (r *Receiver[T]) Cap() int {
	return r.c.capacity()
}
