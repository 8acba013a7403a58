// Package source defines the pull side of a chanbridge pipeline.
//
// A [Source] hands out items one at a time through Recv and reports [io.EOF]
// once it is exhausted. The bounded Receiver and the shutdown Gate are
// Sources; this package adds constructors for slices, functions, Go channels
// and iterators, plus the terminal helpers [ToSlice] and [Drain].
//
// Sources are consumed by a single goroutine. Recv is not safe for
// concurrent use unless an implementation says otherwise.
package source

import (
	"context"
	"io"
	"iter"
)

// Source is a pull-based producer of items.
type Source[T any] interface {
	// Recv returns the next item. It returns io.EOF once the source is
	// exhausted and the context error if ctx is done while waiting.
	Recv(ctx context.Context) (T, error)
}

// Closer is implemented by sources that can stop their upstream, such as a
// bounded.Receiver. An owner that abandons the source calls Close so that
// producers are refused instead of blocking.
type Closer interface {
	Close()
}

// Func adapts a function to a Source.
type Func[T any] func(ctx context.Context) (T, error)

// Recv calls f.
func (f Func[T]) Recv(ctx context.Context) (T, error) {
	return f(ctx)
}

// FromSlice returns a Source yielding the elements of slice in order.
func FromSlice[T any](
	slice []T,
) Source[T] {
	i := 0
	return Func[T](func(context.Context) (T, error) {
		if i >= len(slice) {
			var zero T
			return zero, io.EOF
		}
		v := slice[i]
		i++
		return v, nil
	})
}

// FromValues returns a Source yielding each value in order.
func FromValues[T any](
	values ...T,
) Source[T] {
	return FromSlice(values)
}

// FromRange returns a Source yielding a sequence of integers.
// Usage:
//
//	FromRange(to)              // 0, 1, ..., to-1
//	FromRange(from, to)        // from, from+1, ..., to-1
//	FromRange(from, to, step)  // from, from+step, ... short of to
//
// A negative step counts down. Panics on a zero step or an argument count
// outside one to three.
func FromRange(
	i ...int,
) Source[int] {
	var from, to, step int
	switch len(i) {
	case 1:
		to, step = i[0], 1
	case 2:
		from, to, step = i[0], i[1], 1
	case 3:
		from, to, step = i[0], i[1], i[2]
	default:
		panic("FromRange accepts 1 to 3 integer arguments")
	}
	if step == 0 {
		panic("FromRange step must not be zero")
	}

	next := from
	return Func[int](func(context.Context) (int, error) {
		if (step > 0 && next >= to) || (step < 0 && next <= to) {
			return 0, io.EOF
		}
		v := next
		next += step
		return v, nil
	})
}

// FromFunc yields values by calling handle until it returns false. The value
// returned along with false is discarded.
func FromFunc[T any](
	handle func() (T, bool),
) Source[T] {
	done := false
	return Func[T](func(ctx context.Context) (T, error) {
		var zero T
		if done {
			return zero, io.EOF
		}
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		v, ok := handle()
		if !ok {
			done = true
			return zero, io.EOF
		}
		return v, nil
	})
}

// Repeat yields v forever. Recv only fails once ctx is done.
func Repeat[T any](
	v T,
) Source[T] {
	return Func[T](func(ctx context.Context) (T, error) {
		if err := ctx.Err(); err != nil {
			var zero T
			return zero, err
		}
		return v, nil
	})
}

// FromChan yields values received from in until it is closed.
func FromChan[T any](
	in <-chan T,
) Source[T] {
	return Func[T](func(ctx context.Context) (T, error) {
		select {
		case v, ok := <-in:
			if !ok {
				var zero T
				return zero, io.EOF
			}
			return v, nil
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	})
}

// SeqSource is a Source over an iterator. Close it if it is abandoned before
// the iterator is exhausted.
type SeqSource[T any] struct {
	next func() (T, bool)
	stop func()
}

// FromSeq yields the values of seq.
func FromSeq[T any](
	seq iter.Seq[T],
) *SeqSource[T] {
	next, stop := iter.Pull(seq)
	return &SeqSource[T]{next: next, stop: stop}
}

// Recv returns the next value of the iterator.
func (s *SeqSource[T]) Recv(ctx context.Context) (T, error) {
	if err := ctx.Err(); err != nil {
		var zero T
		return zero, err
	}
	v, ok := s.next()
	if !ok {
		var zero T
		return zero, io.EOF
	}
	return v, nil
}

// Close stops the underlying iterator. Close is idempotent.
func (s *SeqSource[T]) Close() {
	s.stop()
}
