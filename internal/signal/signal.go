// Package signal implements the pluggable detectors that turn a candle
// window into a buy-signal verdict.
package signal

import (
	"github.com/rs/zerolog"

	"crypto-signal-bot/internal/exchange"
)

// Verdict is the outcome of one detector evaluation. Metadata always carries
// the detector's diagnostic values so thresholds can be tuned from logs even
// when no signal fires.
type Verdict struct {
	Signal   bool               `json:"signal"`
	Detector string             `json:"detector"`
	Reason   string             `json:"reason,omitempty"`
	Metadata map[string]float64 `json:"metadata"`
}

// Detector evaluates a candle window for a buy signal. Implementations are
// pure functions of their input and safe for concurrent use.
type Detector interface {
	Name() string
	Evaluate(candles []exchange.Candle) Verdict
}

// Config holds the thresholds shared by the built-in detectors.
type Config struct {
	VolumeSpikeFactor float64 // last volume vs mean of prior volumes, e.g. 2.0
	PriceSpikeFactor  float64 // close vs open of last candle, e.g. 1.01
	TrendMinSlope     float64 // fractional return per candle, e.g. 0.0005
	TrendMinR2        float64 // regression fit quality, 0..1
}

// registry maps detector names to constructors. The set is small and known
// at build time, so it stays a static map rather than anything reflective.
var registry = map[string]func(Config) Detector{
	SpikeName:         func(cfg Config) Detector { return NewSpikeDetector(cfg.VolumeSpikeFactor, cfg.PriceSpikeFactor) },
	TrendName:         func(cfg Config) Detector { return NewTrendDetector(cfg.TrendMinSlope, cfg.TrendMinR2) },
	WeightedTrendName: func(cfg Config) Detector { return NewWeightedTrendDetector(cfg.TrendMinSlope, cfg.TrendMinR2) },
}

// Build constructs the detector chain for the given ordered name list.
// Unknown names are skipped with a warning; the chain order is preserved.
func Build(cfg Config, names []string, logger zerolog.Logger) []Detector {
	detectors := make([]Detector, 0, len(names))
	for _, name := range names {
		ctor, ok := registry[name]
		if !ok {
			logger.Warn().Str("detector", name).Msg("unknown detector name, skipping")
			continue
		}
		detectors = append(detectors, ctor(cfg))
	}
	return detectors
}

func negative(name string) Verdict {
	return Verdict{Detector: name, Metadata: map[string]float64{}}
}
