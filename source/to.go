package source

import (
	"context"
	"errors"
	"io"
)

// ToSlice collects every item of src until it is exhausted. On any other
// error it returns the items collected so far along with the error.
func ToSlice[T any](
	ctx context.Context,
	src Source[T],
) ([]T, error) {
	var slice []T
	for {
		v, err := src.Recv(ctx)
		if errors.Is(err, io.EOF) {
			return slice, nil
		}
		if err != nil {
			return slice, err
		}
		slice = append(slice, v)
	}
}

// Drain consumes and discards every item of src and returns how many it saw.
func Drain[T any](
	ctx context.Context,
	src Source[T],
) (int, error) {
	n := 0
	for {
		_, err := src.Recv(ctx)
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		n++
	}
}
