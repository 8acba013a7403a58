// Package sink defines the push side of a chanbridge pipeline and adapts a
// bounded channel to it.
//
// A [Sink] is driven in two steps: PollReady until it reports ready, then
// Submit exactly one item. Flush and Close finish a run. [Adapter] implements
// the contract over a bounded.Sender so that a full channel suspends the
// caller instead of growing a buffer.
//
//	tx, rx := bounded.New[string](100)
//	s := sink.New(tx)
//	defer s.Release()
//	err := sink.Forward(ctx, source.FromValues("a", "b"), s)
//
// [Forward] pulls from a Source until it is exhausted. A downstream that goes
// away while items are still arriving surfaces as [ErrClosed], which callers
// treat as an orderly end rather than a failure.
package sink

import (
	"context"
	"errors"
	"io"

	"github.com/fxsml/chanbridge/source"
)

// Sink is a push-based consumer of items.
type Sink[T any] interface {
	// PollReady reports whether the sink can accept one item now. When it
	// returns false, the returned channel is closed once PollReady should be
	// called again.
	PollReady() (bool, <-chan struct{})

	// Submit hands item to the sink. It must follow a PollReady that reported
	// ready. It does not block.
	Submit(item T) error

	// Flush forces out anything the sink buffers on its own.
	Flush(ctx context.Context) error

	// Close finishes the sink after the last item.
	Close(ctx context.Context) error
}

// Releaser is implemented by sinks that hold a resource which must be
// released when their owner is done with them.
type Releaser interface {
	Release()
}

// Ready waits until s reports ready or ctx is done.
func Ready[T any](ctx context.Context, s Sink[T]) error {
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

// Send waits until s is ready and submits item.
func Send[T any](ctx context.Context, s Sink[T], item T) error {
	if err := Ready(ctx, s); err != nil {
		return err
	}
	return s.Submit(item)
}

// Forward sends every item of src to dst. When src is exhausted dst is
// flushed and closed. Forward returns the first error from either side; a
// downstream that went away is reported as an error matching ErrClosed.
func Forward[T any](ctx context.Context, src source.Source[T], dst Sink[T]) error {
	for {
		v, err := src.Recv(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		if err := Send(ctx, dst, v); err != nil {
			return err
		}
	}
	if err := dst.Flush(ctx); err != nil {
		return err
	}
	return dst.Close(ctx)
}

type funcSink[T any] struct {
	handle func(T) error
}

// FromFunc returns a Sink that is always ready and passes each item to
// handle. An error from handle is returned by Submit.
func FromFunc[T any](handle func(T) error) Sink[T] {
	return &funcSink[T]{handle: handle}
}

func (s *funcSink[T]) PollReady() (bool, <-chan struct{}) {
	return true, nil
}

func (s *funcSink[T]) Submit(item T) error {
	return s.handle(item)
}

func (s *funcSink[T]) Flush(context.Context) error {
	return nil
}

func (s *funcSink[T]) Close(context.Context) error {
	return nil
}
