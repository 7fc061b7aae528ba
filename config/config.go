// Package config holds the liDARPT run configuration as an explicit
// immutable value and the per-run mutable telemetry counters as a separate,
// explicitly threaded value — never process-global mutable state, per
// SPEC_FULL.md 4.9.
package config

import (
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// PlanningConfig is the immutable set of constants a planning run is
// parameterized by (mirrors the distilled spec's utils/Global.py constants).
type PlanningConfig struct {
	AverageKmh             float64
	KmPerUnit              float64
	CapacityPerLine        *int // nil => each line must specify its own capacity
	NumberOfExtraTransfers int
	MaxDelayEquation       *MaxDelayExpr
	TransferSeconds        int64
	TimeWindowSeconds      int64
	Context                string // currently only "static"
	Solver                 string // currently only "eventMILP"
}

// Load reads a JSON config file via viper, with LIDARPT_-prefixed
// environment variable overrides, and validates the two enum-like keys the
// distilled spec calls out (context, solver).
func Load(path string) (PlanningConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	v.SetEnvPrefix("LIDARPT")
	v.AutomaticEnv()

	v.SetDefault("averageKmH", 30.0)
	v.SetDefault("KmPerUnit", 1.0)
	v.SetDefault("numberOfExtraTransfers", 1)
	v.SetDefault("maxDelayEquation", "x/2")
	v.SetDefault("transferMinutes", 2)
	v.SetDefault("timeWindowMinutes", 10)
	v.SetDefault("context", "static")
	v.SetDefault("solver", "eventMILP")

	if err := v.ReadInConfig(); err != nil {
		return PlanningConfig{}, errors.Wrapf(err, "reading config %q", path)
	}

	cfg := PlanningConfig{
		AverageKmh:             v.GetFloat64("averageKmH"),
		KmPerUnit:              v.GetFloat64("KmPerUnit"),
		NumberOfExtraTransfers: v.GetInt("numberOfExtraTransfers"),
		TransferSeconds:        int64(v.GetInt("transferMinutes")) * 60,
		TimeWindowSeconds:      int64(v.GetInt("timeWindowMinutes")) * 60,
		Context:                v.GetString("context"),
		Solver:                 v.GetString("solver"),
	}

	if v.IsSet("capacityPerLine") && v.Get("capacityPerLine") != nil {
		c := v.GetInt("capacityPerLine")
		cfg.CapacityPerLine = &c
	}

	expr, err := ParseMaxDelayExpr(v.GetString("maxDelayEquation"))
	if err != nil {
		return PlanningConfig{}, errors.Wrap(err, "parsing maxDelayEquation")
	}
	cfg.MaxDelayEquation = expr

	if cfg.Context != "static" {
		return PlanningConfig{}, errors.Errorf("unknown context %q: only \"static\" is registered", cfg.Context)
	}
	if cfg.Solver != "eventMILP" {
		return PlanningConfig{}, errors.Errorf("unknown solver %q: only \"eventMILP\" is registered", cfg.Solver)
	}

	return cfg, nil
}

// Telemetry is a plain mutable value carrying per-run counters and phase
// timings. Callers instantiate one per run and thread it explicitly through
// the pipeline; it is never a package-level variable.
type Telemetry struct {
	EventGraphNodes     int
	EventGraphEdges     int
	NumberOfSplits      int
	IntegralityGapFirst  float64
	IntegralityGapSecond float64
	PhaseTimings         map[string]time.Duration
}

// NewTelemetry returns a zeroed Telemetry ready for one run.
func NewTelemetry() *Telemetry {
	return &Telemetry{PhaseTimings: map[string]time.Duration{}}
}

// RecordPhase stores how long a named pipeline phase took.
func (t *Telemetry) RecordPhase(name string, d time.Duration) {
	if t.PhaseTimings == nil {
		t.PhaseTimings = map[string]time.Duration{}
	}
	t.PhaseTimings[name] = d
}
