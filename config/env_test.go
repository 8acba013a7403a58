package config

import (
	"slices"
	"strings"
	"testing"
	"time"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

type capacities struct {
	Upstream   int
	Downstream int
}

type bridgeConfig struct {
	Name         string
	Threshold    int64
	CloseTimeout time.Duration
	Capacities   capacities
	Logger       interface{ Info(string, ...any) }
	OnFire       func(error)
	Secret       string `env:"-"`
	Item         string `env:"PAYLOAD"`
}

type base struct {
	Verbose bool
}

type withEmbed struct {
	base
	Rate float64
}

type allTypes struct {
	S   string
	B   bool
	I   int
	I8  int8
	I64 int64
	U   uint
	U16 uint16
	F32 float32
	F64 float64
	D   time.Duration
}

func TestLoad_Overlay(t *testing.T) {
	l := Loader{Lookup: envMap(map[string]string{
		"CHANBRIDGE_FORWARD_THRESHOLD":           "250",
		"CHANBRIDGE_FORWARD_CLOSE_TIMEOUT":       "750ms",
		"CHANBRIDGE_FORWARD_CAPACITIES_UPSTREAM": "16",
		"CHANBRIDGE_FORWARD_PAYLOAD":             "baz",
		"CHANBRIDGE_FORWARD_SECRET":              "leaked",
	})}

	cfg := bridgeConfig{
		Name:       "forward",
		Threshold:  100,
		Capacities: capacities{Upstream: 1000, Downstream: 2000},
		Item:       "foo bar",
	}
	if err := l.Load("forward", &cfg); err != nil {
		t.Fatal(err)
	}

	if cfg.Name != "forward" {
		t.Errorf("Name = %q, want default kept", cfg.Name)
	}
	if cfg.Threshold != 250 {
		t.Errorf("Threshold = %d, want 250", cfg.Threshold)
	}
	if cfg.CloseTimeout != 750*time.Millisecond {
		t.Errorf("CloseTimeout = %v, want 750ms", cfg.CloseTimeout)
	}
	if cfg.Capacities.Upstream != 16 || cfg.Capacities.Downstream != 2000 {
		t.Errorf("Capacities = %+v, want {16 2000}", cfg.Capacities)
	}
	if cfg.Item != "baz" {
		t.Errorf("Item = %q, want baz from tagged key", cfg.Item)
	}
	if cfg.Secret != "" {
		t.Errorf("Secret = %q, want skipped field untouched", cfg.Secret)
	}
}

func TestLoad_EmbeddedIsFlattened(t *testing.T) {
	l := Loader{Prefix: "APP", Lookup: envMap(map[string]string{
		"APP_SOAK_VERBOSE": "true",
		"APP_SOAK_RATE":    "0.5",
	})}

	var cfg withEmbed
	if err := l.Load("soak", &cfg); err != nil {
		t.Fatal(err)
	}
	if !cfg.Verbose || cfg.Rate != 0.5 {
		t.Errorf("got %+v, want Verbose and Rate 0.5", cfg)
	}
}

func TestLoad_AllTypes(t *testing.T) {
	l := Loader{Lookup: envMap(map[string]string{
		"CHANBRIDGE_T_S":   "hello",
		"CHANBRIDGE_T_B":   "1",
		"CHANBRIDGE_T_I":   "-42",
		"CHANBRIDGE_T_I8":  "-8",
		"CHANBRIDGE_T_I64": "-64",
		"CHANBRIDGE_T_U":   "42",
		"CHANBRIDGE_T_U16": "16",
		"CHANBRIDGE_T_F32": "1.5",
		"CHANBRIDGE_T_F64": "2.25",
		"CHANBRIDGE_T_D":   "1m",
	})}

	var cfg allTypes
	if err := l.Load("t", &cfg); err != nil {
		t.Fatal(err)
	}
	want := allTypes{S: "hello", B: true, I: -42, I8: -8, I64: -64, U: 42, U16: 16, F32: 1.5, F64: 2.25, D: time.Minute}
	if cfg != want {
		t.Errorf("got %+v, want %+v", cfg, want)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		key  string
	}{
		{"int", map[string]string{"CHANBRIDGE_T_I": "x"}, "CHANBRIDGE_T_I"},
		{"int8 overflow", map[string]string{"CHANBRIDGE_T_I8": "300"}, "CHANBRIDGE_T_I8"},
		{"uint", map[string]string{"CHANBRIDGE_T_U": "-1"}, "CHANBRIDGE_T_U"},
		{"float", map[string]string{"CHANBRIDGE_T_F64": "pi"}, "CHANBRIDGE_T_F64"},
		{"bool", map[string]string{"CHANBRIDGE_T_B": "maybe"}, "CHANBRIDGE_T_B"},
		{"duration", map[string]string{"CHANBRIDGE_T_D": "5"}, "CHANBRIDGE_T_D"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg allTypes
			err := Loader{Lookup: envMap(tt.env)}.Load("t", &cfg)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.key) {
				t.Errorf("error %q does not name %s", err, tt.key)
			}
		})
	}
}

func TestLoad_RejectsNonPointer(t *testing.T) {
	if err := Load("x", bridgeConfig{}); err == nil {
		t.Error("expected error for struct value")
	}
	n := 1
	if err := Load("x", &n); err == nil {
		t.Error("expected error for pointer to int")
	}
}

func TestLoad_UsesProcessEnvironment(t *testing.T) {
	t.Setenv("CHANBRIDGE_ENV_TEST_THRESHOLD", "7")

	var cfg bridgeConfig
	if err := Load("env-test", &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Threshold != 7 {
		t.Errorf("Threshold = %d, want 7", cfg.Threshold)
	}
}

func TestKeys(t *testing.T) {
	want := []string{
		"CHANBRIDGE_FORWARD_NAME",
		"CHANBRIDGE_FORWARD_THRESHOLD",
		"CHANBRIDGE_FORWARD_CLOSE_TIMEOUT",
		"CHANBRIDGE_FORWARD_CAPACITIES_UPSTREAM",
		"CHANBRIDGE_FORWARD_CAPACITIES_DOWNSTREAM",
		"CHANBRIDGE_FORWARD_PAYLOAD",
	}
	if got := Keys("forward", bridgeConfig{}); !slices.Equal(got, want) {
		t.Errorf("Keys = %v, want %v", got, want)
	}
	if got := Keys("forward", &bridgeConfig{}); !slices.Equal(got, want) {
		t.Errorf("Keys(ptr) = %v, want %v", got, want)
	}
	if got := Keys("forward", 3); got != nil {
		t.Errorf("Keys(int) = %v, want nil", got)
	}
}

func TestKeys_EmptyStage(t *testing.T) {
	got := Loader{Prefix: "X"}.Keys("", withEmbed{})
	want := []string{"X_VERBOSE", "X_RATE"}
	if !slices.Equal(got, want) {
		t.Errorf("Keys = %v, want %v", got, want)
	}
}

func TestNormalizeStage(t *testing.T) {
	tests := map[string]string{
		"forward":     "FORWARD",
		"soak-run":    "SOAK_RUN",
		"two words":   "TWO_WORDS",
		"Stage_2":     "STAGE_2",
		"drop.these!": "DROPTHESE",
	}
	for in, want := range tests {
		if got := normalizeStage(in); got != want {
			t.Errorf("normalizeStage(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestToUpperSnake(t *testing.T) {
	tests := map[string]string{
		"Name":         "NAME",
		"CloseTimeout": "CLOSE_TIMEOUT",
		"UpstreamCap":  "UPSTREAM_CAP",
		"URLPath":      "URL_PATH",
		"HTTPClient":   "HTTP_CLIENT",
		"Item2Name":    "ITEM2_NAME",
	}
	for in, want := range tests {
		if got := toUpperSnake(in); got != want {
			t.Errorf("toUpperSnake(%q) = %q, want %q", in, got, want)
		}
	}
}
