// Command bridgesoak repeatedly runs a producer, a shutdown-guarded stage and
// a consumer against each other and fails if an item is lost or duplicated.
//
// Settings come from defaults, an optional config file (--config),
// BRIDGESOAK_* variables and flags, in increasing precedence. The soak
// section can be overridden once more through CHANBRIDGE_SOAK_* variables:
//
//	CHANBRIDGE_SOAK_THRESHOLD=500 bridgesoak --rounds 10
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/fxsml/chanbridge/config"
	"github.com/fxsml/chanbridge/internal/logging"
	"github.com/fxsml/chanbridge/internal/soak"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stderr, config.Loader{}))
}

// settings are the resolved command line settings.
type settings struct {
	Rounds   int
	LogLevel string
	Console  bool
	Soak     soak.Config
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("rounds", 1)
	v.SetDefault("logLevel", "info")
	v.SetDefault("console", true)

	v.SetDefault("soak.name", "forward")
	v.SetDefault("soak.upstreamCap", 1000)
	v.SetDefault("soak.downstreamCap", 2000)
	v.SetDefault("soak.threshold", 100)
	v.SetDefault("soak.item", "foo bar")
	v.SetDefault("soak.pollInterval", time.Millisecond)
	v.SetDefault("soak.closeTimeout", 5*time.Second)

	v.SetEnvPrefix("BRIDGESOAK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("bridgesoak", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.String("config", "", "path to a config file (json, yaml or toml)")
	fs.Int("rounds", 1, "number of soak rounds")
	fs.String("log-level", "info", "trace, debug, info, warn or error")
	fs.Int64("threshold", 100, "stage count that fires the shutdown")
	return fs
}

func loadSettings(args []string, env config.Loader) (settings, error) {
	v := newViper()

	fs := newFlagSet()
	if err := fs.Parse(args); err != nil {
		return settings{}, fmt.Errorf("bridgesoak: %w", err)
	}
	for key, flag := range map[string]string{
		"rounds":         "rounds",
		"logLevel":       "log-level",
		"soak.threshold": "threshold",
	} {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return settings{}, fmt.Errorf("bridgesoak: %w", err)
		}
	}

	if configFile, _ := fs.GetString("config"); configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return settings{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	s := settings{
		Rounds:   v.GetInt("rounds"),
		LogLevel: v.GetString("logLevel"),
		Console:  v.GetBool("console"),
		Soak: soak.Config{
			Name:          v.GetString("soak.name"),
			UpstreamCap:   v.GetInt("soak.upstreamCap"),
			DownstreamCap: v.GetInt("soak.downstreamCap"),
			Threshold:     v.GetInt64("soak.threshold"),
			Item:          v.GetString("soak.item"),
			PollInterval:  v.GetDuration("soak.pollInterval"),
			CloseTimeout:  v.GetDuration("soak.closeTimeout"),
		},
	}
	if err := env.Load("soak", &s.Soak); err != nil {
		return settings{}, err
	}
	if s.Rounds < 1 {
		return settings{}, fmt.Errorf("bridgesoak: rounds must be positive, got %d", s.Rounds)
	}
	return s, nil
}

func run(ctx context.Context, args []string, stderr io.Writer, env config.Loader) int {
	s, err := loadSettings(args, env)
	if errors.Is(err, pflag.ErrHelp) {
		fmt.Fprintf(stderr, "Usage of bridgesoak:\n%s", newFlagSet().FlagUsages())
		return 0
	}
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	zl := logging.New(stderr, s.LogLevel, s.Console)
	logger := logging.NewStageLogger(zl)

	var total soak.Report
	for round := 1; round <= s.Rounds; round++ {
		report, err := soak.Run(ctx, s.Soak, logger)
		total.Accepted += report.Accepted
		total.Observed += report.Observed
		total.Received += report.Received

		ev := zl.Info()
		if err != nil {
			ev = zl.Error().Err(err)
		}
		ev.Int("round", round).
			Int64("accepted", report.Accepted).
			Int64("observed", report.Observed).
			Int64("received", report.Received).
			Bool("fired", report.Fired).
			Msg("[CHANBRIDGE] Soak round finished")

		switch {
		case errors.Is(err, soak.ErrImbalance):
			return 1
		case err != nil:
			return 3
		}
	}

	zl.Info().
		Int("rounds", s.Rounds).
		Int64("accepted", total.Accepted).
		Int64("received", total.Received).
		Msg("[CHANBRIDGE] Soak passed")
	return 0
}
