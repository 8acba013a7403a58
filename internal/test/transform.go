package test

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/fxsml/chanbridge/source"
)

// TransformFunc applies handle to every item of src.
type TransformFunc[In, Out any] func(
	t *testing.T,
	src source.Source[In],
	handle func(In) Out,
) source.Source[Out]

func RunTransform_Success(t *testing.T, f TransformFunc[int, string]) {
	t.Run("transform success", func(t *testing.T) {
		handle := func(val int) string {
			return "Number: " + strconv.Itoa(val)
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		got, err := source.ToSlice(ctx, f(t, source.FromRange(1, 6), handle))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(got) != 5 {
			t.Fatalf("expected 5 values, got %d", len(got))
		}
		for i, v := range got {
			want := "Number: " + strconv.Itoa(i+1)
			if v != want {
				t.Errorf("value %d: expected %q, got %q", i, want, v)
			}
		}
	})
}

func RunTransform_Empty(t *testing.T, f TransformFunc[int, string]) {
	t.Run("transform empty source", func(t *testing.T) {
		called := false
		handle := func(val int) string {
			called = true
			return strconv.Itoa(val)
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		got, err := source.ToSlice(ctx, f(t, source.FromValues[int](), handle))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("expected no values, got %v", got)
		}
		if called {
			t.Error("handle called for an empty source")
		}
	})
}

func RunTransform(t *testing.T, f TransformFunc[int, string]) {
	RunTransform_Success(t, f)
	RunTransform_Empty(t, f)
}
