// Package stage moves items from a source to a sink, one hop of a pipeline.
//
// A [Stage] pulls from a source.Source, counts every item it pulls, applies an
// optional transform and pushes the result into a sink.Sink, waiting on the
// sink's readiness so that a full downstream channel holds the stage back.
//
// Guard the source with a shutdown.Gate to stop a stage gracefully: once the
// trigger fires the upstream channel refuses producers, the stage forwards
// whatever was already buffered and then completes.
//
//	trigger, signal := shutdown.New()
//	st := stage.New(
//		shutdown.NewGate(signal, upstream),
//		sink.New(downstreamTx),
//		stage.Config{Name: "forward"},
//	)
//	done, _ := st.Start(ctx)
//	// ...
//	trigger.Fire()
//	res := <-done // res.Count items were forwarded
//
// A downstream receiver that closes while the stage is running ends the stage
// in an orderly way: Run returns the count and no error, and a closable source
// is closed so that upstream producers see the end as well.
package stage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/fxsml/chanbridge/sink"
	"github.com/fxsml/chanbridge/source"
)

// Result is the outcome of a stage run.
type Result struct {
	// Count is the number of items pulled from the source.
	Count int64
	// Err is nil for an orderly completion.
	Err error
}

// Stage forwards items from a source to a sink.
type Stage[In, Out any] struct {
	id     uuid.UUID
	src    source.Source[In]
	dst    sink.Sink[Out]
	handle func(In) Out
	cfg    Config

	mu      sync.Mutex
	started bool
}

// New creates a Stage forwarding items unchanged.
// The stage owns src and dst; see Run.
func New[T any](
	src source.Source[T],
	dst sink.Sink[T],
	cfg Config,
) *Stage[T, T] {
	return NewTransform(src, dst, func(v T) T { return v }, cfg)
}

// NewTransform creates a Stage that forwards handle applied to each item.
// The stage owns src and dst; see Run.
func NewTransform[In, Out any](
	src source.Source[In],
	dst sink.Sink[Out],
	handle func(In) Out,
	cfg Config,
) *Stage[In, Out] {
	return &Stage[In, Out]{
		id:     uuid.New(),
		src:    src,
		dst:    dst,
		handle: handle,
		cfg:    cfg.parse(),
	}
}

// ID returns the identifier attached to the stage's log records.
func (s *Stage[In, Out]) ID() uuid.UUID {
	return s.id
}

// Count returns the number of items pulled from the source so far. It is
// incremented before an item is forwarded, so it is never below the number
// of items the sink accepted.
func (s *Stage[In, Out]) Count() int64 {
	return s.cfg.Counter.Load()
}

// Run forwards items until the source is exhausted, the sink reports
// sink.ErrClosed, or ctx is done, and returns the final count.
//
// An exhausted source flushes and closes the sink. A closed downstream is an
// orderly completion and returns a nil error. If dst implements
// sink.Releaser it is released when Run returns, and if src implements
// source.Closer it is closed, so upstream producers are refused rather than
// left waiting.
// Returns ErrAlreadyStarted if the stage has already been started.
func (s *Stage[In, Out]) Run(ctx context.Context) (int64, error) {
	if err := s.start(); err != nil {
		return 0, err
	}
	return s.run(ctx)
}

// Start runs the stage in a new goroutine. The returned channel receives
// one Result and is then closed.
// Returns ErrAlreadyStarted if the stage has already been started.
func (s *Stage[In, Out]) Start(ctx context.Context) (<-chan Result, error) {
	if err := s.start(); err != nil {
		return nil, err
	}
	done := make(chan Result, 1)
	go func() {
		defer close(done)
		n, err := s.run(ctx)
		done <- Result{Count: n, Err: err}
	}()
	return done, nil
}

func (s *Stage[In, Out]) start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return ErrAlreadyStarted
	}
	s.started = true
	return nil
}

func (s *Stage[In, Out]) run(ctx context.Context) (int64, error) {
	if c, ok := s.src.(source.Closer); ok {
		defer c.Close()
	}
	if r, ok := s.dst.(sink.Releaser); ok {
		defer r.Release()
	}

	log := s.cfg.Logger
	args := []any{"stage", s.cfg.Name, "stage_id", s.id.String()}

	m, err := newMetrics(s.cfg.Meter, s.cfg.Name, s.src)
	if err != nil {
		log.Error("[CHANBRIDGE] Stage setup failed", appendArgs(args, []any{"error", err})...)
		return 0, fmt.Errorf("%w: %w", ErrStage, err)
	}
	defer func() {
		if err := m.close(); err != nil {
			log.Warn("[CHANBRIDGE] Metrics cleanup failed", appendArgs(args, []any{"error", err})...)
		}
	}()

	log.Debug("[CHANBRIDGE] Stage started", args...)
	for {
		v, err := s.src.Recv(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			n := s.Count()
			log.Warn("[CHANBRIDGE] Stage interrupted", appendArgs(args, []any{"count", n, "error", err})...)
			return n, err
		}

		s.cfg.Counter.Inc()
		m.itemObserved(ctx)

		if err := sink.Send(ctx, s.dst, s.handle(v)); err != nil {
			n := s.Count()
			switch {
			case errors.Is(err, sink.ErrClosed):
				log.Info("[CHANBRIDGE] Downstream closed", appendArgs(args, []any{"count", n})...)
				return n, nil
			case ctx.Err() != nil:
				log.Warn("[CHANBRIDGE] Stage interrupted", appendArgs(args, []any{"count", n, "error", err})...)
				return n, err
			default:
				log.Error("[CHANBRIDGE] Stage failed", appendArgs(args, []any{"count", n, "error", err})...)
				return n, fmt.Errorf("%w: %w", ErrStage, err)
			}
		}
		m.itemForwarded(ctx)
	}

	if err := s.finish(ctx); err != nil {
		n := s.Count()
		log.Error("[CHANBRIDGE] Sink close failed", appendArgs(args, []any{"count", n, "error", err})...)
		return n, fmt.Errorf("%w: %w", ErrStage, err)
	}

	n := s.Count()
	log.Info("[CHANBRIDGE] Stage completed", appendArgs(args, []any{"count", n, "shutdown", s.gateFired()})...)
	return n, nil
}

func (s *Stage[In, Out]) finish(ctx context.Context) error {
	if s.cfg.CloseTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.CloseTimeout)
		defer cancel()
	}
	if err := s.dst.Flush(ctx); err != nil {
		return err
	}
	return s.dst.Close(ctx)
}

func (s *Stage[In, Out]) gateFired() bool {
	g, ok := s.src.(interface{ Fired() bool })
	return ok && g.Fired()
}
