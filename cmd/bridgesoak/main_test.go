package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fxsml/chanbridge/config"
)

func noEnv() config.Loader {
	return config.Loader{Lookup: func(string) (string, bool) { return "", false }}
}

func TestLoadSettings_Defaults(t *testing.T) {
	s, err := loadSettings(nil, noEnv())
	require.NoError(t, err)

	assert.Equal(t, 1, s.Rounds)
	assert.Equal(t, "info", s.LogLevel)
	assert.Equal(t, "forward", s.Soak.Name)
	assert.Equal(t, 1000, s.Soak.UpstreamCap)
	assert.Equal(t, 2000, s.Soak.DownstreamCap)
	assert.Equal(t, int64(100), s.Soak.Threshold)
	assert.Equal(t, "foo bar", s.Soak.Item)
	assert.Equal(t, time.Millisecond, s.Soak.PollInterval)
	assert.Equal(t, 5*time.Second, s.Soak.CloseTimeout)
}

func TestLoadSettings_Precedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bridgesoak.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
rounds: 4
logLevel: debug
soak:
  upstreamCap: 8
  downstreamCap: 16
  threshold: 50
  item: from file
`), 0o600))
	t.Setenv("BRIDGESOAK_SOAK_DOWNSTREAMCAP", "32")

	env := config.Loader{Lookup: func(key string) (string, bool) {
		if key == "CHANBRIDGE_SOAK_ITEM" {
			return "from overlay", true
		}
		return "", false
	}}

	s, err := loadSettings([]string{"--config", path, "--threshold", "70"}, env)
	require.NoError(t, err)

	assert.Equal(t, 4, s.Rounds)
	assert.Equal(t, "debug", s.LogLevel)
	assert.Equal(t, 8, s.Soak.UpstreamCap)
	assert.Equal(t, 32, s.Soak.DownstreamCap, "environment beats the file")
	assert.Equal(t, int64(70), s.Soak.Threshold, "flag beats the file")
	assert.Equal(t, "from overlay", s.Soak.Item, "overlay is applied last")
}

func TestLoadSettings_Errors(t *testing.T) {
	_, err := loadSettings([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")}, noEnv())
	assert.Error(t, err)

	_, err = loadSettings([]string{"--rounds", "0"}, noEnv())
	assert.Error(t, err)

	_, err = loadSettings([]string{"--bogus"}, noEnv())
	assert.Error(t, err)

	bad := config.Loader{Lookup: func(key string) (string, bool) {
		return "nan", key == "CHANBRIDGE_SOAK_UPSTREAM_CAP"
	}}
	_, err = loadSettings(nil, bad)
	assert.Error(t, err)
}

func TestRun_Passes(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var out bytes.Buffer
	code := run(ctx, []string{"--rounds", "3", "--threshold", "20"}, &out, noEnv())

	assert.Equal(t, 0, code, out.String())
	assert.Contains(t, out.String(), "Soak round finished")
	assert.Contains(t, out.String(), "Soak passed")
}

func TestRun_BadArguments(t *testing.T) {
	var out bytes.Buffer
	assert.Equal(t, 2, run(context.Background(), []string{"--rounds", "x"}, &out, noEnv()))
	assert.NotEmpty(t, out.String())
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	assert.Equal(t, 3, run(ctx, nil, &out, noEnv()))
}

func TestRun_Help(t *testing.T) {
	for _, arg := range []string{"--help", "-h"} {
		var out bytes.Buffer
		assert.Equal(t, 0, run(context.Background(), []string{arg}, &out, noEnv()), arg)
		assert.Contains(t, out.String(), "Usage of bridgesoak")
		assert.Contains(t, out.String(), "--threshold")
	}
}
