package stage

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type lener interface {
	Len() int
}

type metrics struct {
	observed  metric.Int64Counter
	forwarded metric.Int64Counter
	attrs     metric.MeasurementOption
	reg       metric.Registration
}

func newMetrics(meter metric.Meter, name string, src any) (*metrics, error) {
	m := &metrics{
		attrs: metric.WithAttributes(attribute.String("stage", name)),
	}

	var err error
	m.observed, err = meter.Int64Counter(
		"chanbridge.stage.items.observed",
		metric.WithDescription("Items pulled from the stage source"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating observed counter: %w", err)
	}

	m.forwarded, err = meter.Int64Counter(
		"chanbridge.stage.items.forwarded",
		metric.WithDescription("Items accepted by the stage sink"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating forwarded counter: %w", err)
	}

	l, ok := src.(lener)
	if !ok {
		return m, nil
	}
	buffered, err := meter.Int64ObservableGauge(
		"chanbridge.stage.source.buffered",
		metric.WithDescription("Items buffered in the stage source"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating buffered gauge: %w", err)
	}
	m.reg, err = meter.RegisterCallback(
		func(_ context.Context, o metric.Observer) error {
			o.ObserveInt64(buffered, int64(l.Len()), m.attrs)
			return nil
		},
		buffered,
	)
	if err != nil {
		return nil, fmt.Errorf("registering buffered callback: %w", err)
	}
	return m, nil
}

func (m *metrics) itemObserved(ctx context.Context) {
	m.observed.Add(ctx, 1, m.attrs)
}

func (m *metrics) itemForwarded(ctx context.Context) {
	m.forwarded.Add(ctx, 1, m.attrs)
}

func (m *metrics) close() error {
	if m.reg == nil {
		return nil
	}
	return m.reg.Unregister()
}
