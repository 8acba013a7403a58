package soak

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type messages struct {
	mu   sync.Mutex
	msgs []string
}

func (m *messages) add(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.msgs = append(m.msgs, msg)
}

func (m *messages) Debug(msg string, _ ...any) { m.add(msg) }
func (m *messages) Info(msg string, _ ...any)  { m.add(msg) }
func (m *messages) Warn(msg string, _ ...any)  { m.add(msg) }
func (m *messages) Error(msg string, _ ...any) { m.add(msg) }

func TestConfig_Defaults(t *testing.T) {
	cfg := Config{}.parse()
	assert.Equal(t, "forward", cfg.Name)
	assert.Equal(t, 1000, cfg.UpstreamCap)
	assert.Equal(t, 2000, cfg.DownstreamCap)
	assert.Equal(t, int64(100), cfg.Threshold)
	assert.Equal(t, "foo bar", cfg.Item)
	assert.Equal(t, time.Millisecond, cfg.PollInterval)

	cfg = Config{UpstreamCap: 3, Threshold: 5}.parse()
	assert.Equal(t, 3, cfg.UpstreamCap)
	assert.Equal(t, int64(5), cfg.Threshold)
}

func TestRun_Balanced(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log := &messages{}

	report, err := Run(ctx, Config{}, log)
	require.NoError(t, err)

	assert.True(t, report.Balanced(), "%+v", report)
	assert.True(t, report.Fired)
	assert.GreaterOrEqual(t, report.Observed, int64(100))
	assert.Contains(t, log.msgs, "[CHANBRIDGE] Shutdown gate fired")
	assert.Contains(t, log.msgs, "[CHANBRIDGE] Stage completed")
}

func TestRun_SmallCapacities(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for range 20 {
		report, err := Run(ctx, Config{UpstreamCap: 1, DownstreamCap: 1, Threshold: 10}, &messages{})
		require.NoError(t, err)
		require.True(t, report.Balanced(), "%+v", report)
	}
}

func TestRun_ContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, Config{}, &messages{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrImbalance)
}

func TestReport_Balanced(t *testing.T) {
	assert.True(t, Report{Accepted: 3, Observed: 3, Received: 3}.Balanced())
	assert.False(t, Report{Accepted: 4, Observed: 3, Received: 3}.Balanced())
	assert.False(t, Report{Accepted: 3, Observed: 3, Received: 2}.Balanced())
}
