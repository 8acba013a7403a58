// Package soak runs a producer, a shutdown-guarded stage and a consumer
// against each other and reports how many items each of them saw.
package soak

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fxsml/chanbridge/bounded"
	"github.com/fxsml/chanbridge/shutdown"
	"github.com/fxsml/chanbridge/sink"
	"github.com/fxsml/chanbridge/source"
	"github.com/fxsml/chanbridge/stage"
)

// ErrImbalance is returned when the counts of a run differ.
var ErrImbalance = errors.New("soak: counts differ")

// Config configures a soak run.
type Config struct {
	// Name of the forwarding stage. Default is "forward".
	Name string
	// UpstreamCap is the capacity of the channel between producer and stage.
	// Default is 1000.
	UpstreamCap int
	// DownstreamCap is the capacity of the channel between stage and
	// consumer. Default is 2000.
	DownstreamCap int
	// Threshold is the stage count that fires the shutdown trigger.
	// Default is 100.
	Threshold int64
	// Item is the value the producer repeats. Default is "foo bar".
	Item string
	// PollInterval is how often the stage count is checked against
	// Threshold. Default is 1ms.
	PollInterval time.Duration
	// CloseTimeout bounds the stage's final flush and close.
	CloseTimeout time.Duration
}

func (c Config) parse() Config {
	if c.Name == "" {
		c.Name = "forward"
	}
	if c.UpstreamCap <= 0 {
		c.UpstreamCap = 1000
	}
	if c.DownstreamCap <= 0 {
		c.DownstreamCap = 2000
	}
	if c.Threshold <= 0 {
		c.Threshold = 100
	}
	if c.Item == "" {
		c.Item = "foo bar"
	}
	if c.PollInterval <= 0 {
		c.PollInterval = time.Millisecond
	}
	return c
}

// Report holds the counts of a finished run.
type Report struct {
	// Accepted is the number of items the upstream channel accepted.
	Accepted int64
	// Observed is the number of items the stage pulled.
	Observed int64
	// Received is the number of items the consumer drained.
	Received int64
	// Fired reports whether the stage ended through its shutdown gate.
	Fired bool
}

// Balanced reports whether every accepted item was observed and received
// exactly once.
func (r Report) Balanced() bool {
	return r.Accepted == r.Observed && r.Observed == r.Received
}

// accepting counts the items its adapter accepted.
type accepting[T any] struct {
	*sink.Adapter[T]
	n atomic.Int64
}

func (a *accepting[T]) Submit(item T) error {
	if err := a.Adapter.Submit(item); err != nil {
		return err
	}
	a.n.Add(1)
	return nil
}

// Run drives one soak round. The producer repeats cfg.Item into the upstream
// channel until the stage has pulled cfg.Threshold items, then the shutdown
// trigger fires and the run ends once the stage has forwarded what was
// buffered. Run returns ErrImbalance alongside the report when the counts
// differ.
func Run(ctx context.Context, cfg Config, logger stage.Logger) (Report, error) {
	cfg = cfg.parse()

	txIn, rxIn := bounded.New[string](cfg.UpstreamCap)
	txOut, rxOut := bounded.New[string](cfg.DownstreamCap)
	trigger, signal := shutdown.New()

	producer := &accepting[string]{Adapter: sink.New(txIn)}
	gate := shutdown.NewGate(signal, rxIn, shutdown.WithOnFire(func(cause error) {
		args := []any{"stage", cfg.Name, "buffered", rxIn.Len()}
		if cause != nil {
			args = append(args, "cause", cause)
		}
		logger.Info("[CHANBRIDGE] Shutdown gate fired", args...)
	}))
	counter := &stage.Counter{}
	st := stage.New[string](gate, sink.New(txOut), stage.Config{
		Name:         cfg.Name,
		CloseTimeout: cfg.CloseTimeout,
		Logger:       logger,
		Counter:      counter,
	})

	var received atomic.Int64
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer producer.Release()
		err := sink.Forward(gctx, source.Repeat(cfg.Item), producer)
		if errors.Is(err, sink.ErrClosed) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		defer trigger.Close()
		ticker := time.NewTicker(cfg.PollInterval)
		defer ticker.Stop()
		for counter.Load() < cfg.Threshold {
			select {
			case <-ticker.C:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		logger.Debug("[CHANBRIDGE] Threshold reached", "stage", cfg.Name, "count", counter.Load())
		trigger.Fire()
		return nil
	})

	g.Go(func() error {
		_, err := st.Run(gctx)
		return err
	})

	g.Go(func() error {
		n, err := source.Drain(gctx, source.Inspect[string](rxOut, func(string) {
			received.Add(1)
		}))
		if err != nil {
			return err
		}
		logger.Debug("[CHANBRIDGE] Consumer drained", "count", n)
		return nil
	})

	err := g.Wait()
	report := Report{
		Accepted: producer.n.Load(),
		Observed: st.Count(),
		Received: received.Load(),
		Fired:    gate.Fired(),
	}
	if err != nil {
		return report, fmt.Errorf("soak: %w", err)
	}
	if !report.Balanced() {
		return report, fmt.Errorf("%w: accepted=%d observed=%d received=%d",
			ErrImbalance, report.Accepted, report.Observed, report.Received)
	}
	return report, nil
}
