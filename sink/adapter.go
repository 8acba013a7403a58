package sink

import (
	"context"
	"errors"

	"github.com/fxsml/chanbridge/bounded"
)

var (
	_ Sink[any] = (*Adapter[any])(nil)
	_ Releaser  = (*Adapter[any])(nil)
)

// Adapter exposes a bounded.Sender as a Sink. It keeps no buffer of its own:
// readiness is the channel's free capacity.
type Adapter[T any] struct {
	tx *bounded.Sender[T]
}

// New returns an Adapter owning tx. The adapter releases tx on Release.
func New[T any](tx *bounded.Sender[T]) *Adapter[T] {
	return &Adapter[T]{tx: tx}
}

// PollReady reserves a slot in the channel if one is free. It never fails;
// a closed receiver is reported as ready and surfaces on Submit.
func (a *Adapter[T]) PollReady() (bool, <-chan struct{}) {
	return a.tx.PollReady()
}

// Submit enqueues item without blocking. If the receiver was closed since
// PollReady, it returns a *SubmitError matching ErrClosed that carries item.
// After Release it returns one matching ErrReleased.
func (a *Adapter[T]) Submit(item T) error {
	err := a.tx.TrySend(item)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bounded.ErrFull):
		return newSubmitError(item, ErrNotReady, err)
	case errors.Is(err, bounded.ErrReleased):
		return newSubmitError(item, ErrReleased, err)
	default:
		return newSubmitError(item, ErrClosed, err)
	}
}

// Flush returns immediately; every submitted item is already owned by the
// channel.
func (a *Adapter[T]) Flush(context.Context) error {
	return nil
}

// Close returns immediately. The channel is closed for the receiver once the
// sender is released, see Release.
func (a *Adapter[T]) Close(context.Context) error {
	return nil
}

// Release closes the wrapped sender handle. Once every handle of the channel
// is released the receiver observes end of data. Release is idempotent.
func (a *Adapter[T]) Release() {
	a.tx.Close()
}
