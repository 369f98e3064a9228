// Command gentrace writes a synthetic invocation trace in the same CSV schema as the
// Azure Functions dataset, so the analysis can run without the real data.
package main

import (
	"errors"
	"flag"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/sanspareilsmyn/tracelens/internal/config"
	"github.com/sanspareilsmyn/tracelens/internal/logging"
	"github.com/sanspareilsmyn/tracelens/internal/trace"
)

var errInvalidOptions = errors.New("invalid generator options")

type options struct {
	Apps         int
	MaxFunctions int
	Rows         int
	Days         int
	Start        int64   // epoch seconds of the first possible invocation end
	DurationMu   float64 // log-normal parameters of duration in seconds
	DurationSig  float64
	Seed         uint64
}

func (o options) validate() error {
	switch {
	case o.Apps < 1:
		return fmt.Errorf("%w: apps must be at least 1", errInvalidOptions)
	case o.MaxFunctions < 1:
		return fmt.Errorf("%w: max functions must be at least 1", errInvalidOptions)
	case o.Rows < 1:
		return fmt.Errorf("%w: rows must be at least 1", errInvalidOptions)
	case o.Days < 1:
		return fmt.Errorf("%w: days must be at least 1", errInvalidOptions)
	case o.DurationSig < 0:
		return fmt.Errorf("%w: duration sigma must not be negative", errInvalidOptions)
	}
	return nil
}

type app struct {
	name      string
	functions []string
}

func hexName(rng *rand.Rand) string {
	return fmt.Sprintf("%016x%016x", rng.Uint64(), rng.Uint64())
}

// generate produces Rows invocations. App popularity follows a Zipf law so a few
// apps dominate, as in the production trace. The same seed gives the same output.
func generate(o options) []trace.Invocation {
	rng := rand.New(rand.NewPCG(o.Seed, o.Seed^0x9e3779b97f4a7c15))

	apps := make([]app, o.Apps)
	for i := range apps {
		apps[i].name = hexName(rng)
		apps[i].functions = make([]string, 1+rng.IntN(o.MaxFunctions))
		for j := range apps[i].functions {
			apps[i].functions[j] = hexName(rng)
		}
	}

	pick := func() int { return 0 }
	if o.Apps > 1 {
		zipf := rand.NewZipf(rng, 1.3, 1, uint64(o.Apps-1))
		pick = func() int { return int(zipf.Uint64()) }
	}

	span := float64(o.Days * 24 * 60 * 60)
	out := make([]trace.Invocation, o.Rows)
	for i := range out {
		a := apps[pick()]
		end := float64(o.Start) + math.Round(rng.Float64()*span*1000)/1000
		duration := math.Exp(o.DurationMu + o.DurationSig*rng.NormFloat64())
		out[i] = trace.Invocation{
			App:      a.name,
			Func:     a.functions[rng.IntN(len(a.functions))],
			EndEpoch: end,
			Duration: math.Round(duration*1000) / 1000,
		}
	}
	return out
}

func main() {
	var (
		out      = flag.String("out", "dataset/azure_functions_invocation_trace.csv", "Output CSV path")
		o        options
		logLevel = flag.String("log-level", "info", "Log level")
	)
	flag.IntVar(&o.Apps, "apps", 50, "Number of applications")
	flag.IntVar(&o.MaxFunctions, "max-functions", 5, "Maximum functions per application")
	flag.IntVar(&o.Rows, "rows", 10000, "Number of invocations")
	flag.IntVar(&o.Days, "days", 14, "Days covered by the trace")
	flag.Int64Var(&o.Start, "start", 1612137600, "Epoch seconds of the trace start")
	flag.Float64Var(&o.DurationMu, "duration-mu", -1.0, "Mean of log(duration)")
	flag.Float64Var(&o.DurationSig, "duration-sigma", 1.5, "Standard deviation of log(duration)")
	flag.Uint64Var(&o.Seed, "seed", 1, "Random seed")
	flag.Parse()

	logger, err := logging.NewLogger(config.LogConfig{Level: *logLevel, Format: "console"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	if err := write(*out, o); err != nil {
		logger.Error("Failed to generate trace", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	logger.Info("Synthetic trace written",
		zap.String("path", *out),
		zap.Int("rows", o.Rows),
		zap.Int("apps", o.Apps),
		zap.Uint64("seed", o.Seed),
	)
}

func write(path string, o options) error {
	if err := o.validate(); err != nil {
		return err
	}
	data, err := trace.WriteCSV(generate(o))
	if err != nil {
		return fmt.Errorf("failed to encode trace: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return os.WriteFile(path, data, 0644)
}
