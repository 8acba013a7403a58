package stage

import (
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/fxsml/chanbridge/stage"

// Config configures behavior of a Stage.
type Config struct {
	// Name identifies the stage in log records and metric attributes.
	// Default is "stage".
	Name string

	// CloseTimeout bounds flushing and closing the sink once the source is
	// exhausted. If <= 0, the run context is used as is.
	CloseTimeout time.Duration

	// Logger receives lifecycle records.
	// Default is slog.Default().
	Logger Logger

	// Counter counts every item pulled from the source. Pass a Counter to
	// watch progress from outside the stage.
	// Default is a new Counter.
	Counter *Counter

	// Meter creates the stage instruments.
	// Default is the meter of the global OpenTelemetry provider.
	Meter metric.Meter
}

func (c Config) parse() Config {
	if c.Name == "" {
		c.Name = "stage"
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Counter == nil {
		c.Counter = &Counter{}
	}
	if c.Meter == nil {
		c.Meter = otel.Meter(instrumentationName)
	}
	return c
}
