package source

import (
	"context"
	"io"
)

// Transform yields handle applied to each item of src.
func Transform[In, Out any](
	src Source[In],
	handle func(In) Out,
) Source[Out] {
	return Func[Out](func(ctx context.Context) (Out, error) {
		v, err := src.Recv(ctx)
		if err != nil {
			var zero Out
			return zero, err
		}
		return handle(v), nil
	})
}

// Inspect calls fn with each item of src before yielding it.
func Inspect[T any](
	src Source[T],
	fn func(T),
) Source[T] {
	return Func[T](func(ctx context.Context) (T, error) {
		v, err := src.Recv(ctx)
		if err == nil {
			fn(v)
		}
		return v, err
	})
}

// Take yields at most n items of src.
func Take[T any](
	src Source[T],
	n int,
) Source[T] {
	return Func[T](func(ctx context.Context) (T, error) {
		if n <= 0 {
			var zero T
			return zero, io.EOF
		}
		v, err := src.Recv(ctx)
		if err == nil {
			n--
		}
		return v, err
	})
}
