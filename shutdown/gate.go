package shutdown

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/fxsml/chanbridge/bounded"
)

// State is the state of a Gate.
type State int32

const (
	// Armed means the signal has not been observed yet.
	Armed State = iota
	// Fired means the signal was observed and the receiver closed.
	Fired
)

func (s State) String() string {
	switch s {
	case Armed:
		return "armed"
	case Fired:
		return "fired"
	default:
		return "unknown"
	}
}

// GateOption configures a Gate.
type GateOption func(*gateConfig)

type gateConfig struct {
	onFire func(cause error)
}

// WithOnFire registers fn to run once, on the goroutine calling Recv, right
// after the gate closes its receiver. cause is nil for a fired trigger and
// ErrTriggerClosed for a dropped one.
func WithOnFire(fn func(cause error)) GateOption {
	return func(c *gateConfig) {
		c.onFire = fn
	}
}

// Gate is a guarded pull over a bounded.Receiver. Before every pull it checks
// its signal; the first time the signal is seen resolved the gate closes the
// receiver and moves from Armed to Fired. It never moves back.
//
// A Gate with a nil Signal stays Armed and behaves like the receiver itself.
type Gate[T any] struct {
	rx     *bounded.Receiver[T]
	signal *Signal
	cfg    gateConfig
	state  atomic.Int32
}

// NewGate returns an armed Gate guarding rx.
func NewGate[T any](signal *Signal, rx *bounded.Receiver[T], opts ...GateOption) *Gate[T] {
	g := &Gate[T]{rx: rx, signal: signal}
	for _, opt := range opts {
		opt(&g.cfg)
	}
	return g
}

// Recv returns the next item of the guarded receiver. After the gate fires it
// keeps returning buffered items and then io.EOF. While the receiver is empty
// Recv waits for an item, the signal, or ctx, whichever comes first.
func (g *Gate[T]) Recv(ctx context.Context) (T, error) {
	for {
		g.observe()

		v, wake, err := g.rx.PollRecv()
		if !errors.Is(err, bounded.ErrEmpty) {
			return v, err
		}

		var signal <-chan struct{}
		if !g.Fired() {
			signal = g.signal.Done()
		}
		select {
		case <-wake:
		case <-signal:
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
}

func (g *Gate[T]) observe() {
	if g.Fired() {
		return
	}
	resolved, cause := g.signal.Poll()
	if !resolved {
		return
	}
	// close first so that Fired implies a closed receiver
	g.rx.Close()
	if !g.state.CompareAndSwap(int32(Armed), int32(Fired)) {
		return
	}
	if g.cfg.onFire != nil {
		g.cfg.onFire(cause)
	}
}

// State returns the current state.
func (g *Gate[T]) State() State {
	return State(g.state.Load())
}

// Fired reports whether the gate has closed its receiver.
func (g *Gate[T]) Fired() bool {
	return g.State() == Fired
}

// Close closes the guarded receiver without firing the gate. Producers are
// refused from then on and Recv drains what is buffered before io.EOF.
func (g *Gate[T]) Close() {
	g.rx.Close()
}

// Len returns the number of items buffered in the guarded receiver.
func (g *Gate[T]) Len() int {
	return g.rx.Len()
}
