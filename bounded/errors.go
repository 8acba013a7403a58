package bounded

import "errors"

var (
	// ErrClosed is returned by send operations once the receiver is closed.
	ErrClosed = errors.New("bounded: receiver closed")
	// ErrFull is returned by TrySend when no slot is free and the sender
	// holds no reservation.
	ErrFull = errors.New("bounded: channel full")
	// ErrEmpty is returned by non-blocking receives when no item is buffered
	// and the channel is still open.
	ErrEmpty = errors.New("bounded: channel empty")
	// ErrReleased is returned by send operations on a closed Sender handle.
	ErrReleased = errors.New("bounded: sender released")
)

// SendError is returned by failed send operations. It hands the rejected
// item back to the caller.
type SendError[T any] struct {
	Item T
	Err  error
}

func (e *SendError[T]) Error() string {
	return e.Err.Error()
}

func (e *SendError[T]) Unwrap() error {
	return e.Err
}
