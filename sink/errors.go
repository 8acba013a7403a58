package sink

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed indicates that the consumer behind a sink is gone and no
	// further items will be accepted.
	ErrClosed = errors.New("sink: closed")
	// ErrNotReady indicates that Submit was called without a preceding
	// PollReady that reported ready.
	ErrNotReady = errors.New("sink: not ready")
	// ErrReleased indicates that the sink itself was released by its owner.
	// Unlike ErrClosed it is not an orderly end seen from downstream.
	ErrReleased = errors.New("sink: released")
)

// SubmitError is returned by Submit when an item could not be accepted.
// The item is handed back to the caller.
type SubmitError[T any] struct {
	Item  T
	kind  error
	cause error
}

func (e *SubmitError[T]) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s", e.kind, e.cause)
	}
	return e.kind.Error()
}

func (e *SubmitError[T]) Unwrap() []error {
	if e.cause != nil {
		return []error{e.kind, e.cause}
	}
	return []error{e.kind}
}

func newSubmitError[T any](item T, kind, cause error) error {
	return &SubmitError[T]{Item: item, kind: kind, cause: cause}
}
