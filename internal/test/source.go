package test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/fxsml/chanbridge/source"
)

// SourceFunc builds a Source that yields values and is then exhausted.
type SourceFunc func(t *testing.T, values []int) source.Source[int]

func recvTimeout(t *testing.T, src source.Source[int]) (int, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	v, err := src.Recv(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		t.Fatal("source blocked instead of yielding a value or io.EOF")
	}
	return v, err
}

func RunSource_PreservesOrder(t *testing.T, f SourceFunc) {
	t.Run("source preserves order", func(t *testing.T) {
		want := []int{5, 3, 8, 1, 9, 2}
		src := f(t, want)

		for i, w := range want {
			v, err := recvTimeout(t, src)
			if err != nil {
				t.Fatalf("item %d: unexpected error: %v", i, err)
			}
			if v != w {
				t.Fatalf("item %d: expected %d, got %d", i, w, v)
			}
		}
		if _, err := recvTimeout(t, src); !errors.Is(err, io.EOF) {
			t.Fatalf("expected io.EOF after last item, got %v", err)
		}
	})
}

func RunSource_EOFIsSticky(t *testing.T, f SourceFunc) {
	t.Run("source EOF is sticky", func(t *testing.T) {
		src := f(t, []int{1})
		if _, err := recvTimeout(t, src); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for range 3 {
			if _, err := recvTimeout(t, src); !errors.Is(err, io.EOF) {
				t.Fatalf("expected io.EOF, got %v", err)
			}
		}
	})
}

func RunSource_Empty(t *testing.T, f SourceFunc) {
	t.Run("source handles empty input", func(t *testing.T) {
		src := f(t, nil)
		if _, err := recvTimeout(t, src); !errors.Is(err, io.EOF) {
			t.Fatalf("expected io.EOF, got %v", err)
		}
	})
}

// RunSource runs every Source conformance check against f.
func RunSource(t *testing.T, f SourceFunc) {
	RunSource_PreservesOrder(t, f)
	RunSource_EOFIsSticky(t, f)
	RunSource_Empty(t, f)
}
