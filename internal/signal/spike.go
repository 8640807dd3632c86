package signal

import (
	"fmt"

	"crypto-signal-bot/internal/exchange"
)

// SpikeName identifies the volume/price spike detector in configuration.
const SpikeName = "SpikeVolumeAndPrice"

// SpikeDetector signals when the latest candle's volume spikes above the
// window average while its close also jumped above its open. Both conditions
// must hold.
type SpikeDetector struct {
	volumeSpikeFactor float64
	priceSpikeFactor  float64
}

// NewSpikeDetector creates a spike detector. volumeSpikeFactor is the
// multiple of the average prior volume the last candle must reach;
// priceSpikeFactor is the close/open ratio threshold (1.01 = +1%).
func NewSpikeDetector(volumeSpikeFactor, priceSpikeFactor float64) *SpikeDetector {
	return &SpikeDetector{
		volumeSpikeFactor: volumeSpikeFactor,
		priceSpikeFactor:  priceSpikeFactor,
	}
}

func (d *SpikeDetector) Name() string {
	return SpikeName
}

func (d *SpikeDetector) Evaluate(candles []exchange.Candle) Verdict {
	if len(candles) < 2 {
		return negative(SpikeName)
	}

	last := candles[len(candles)-1]
	if last.Open == 0 {
		return negative(SpikeName)
	}

	var sum float64
	prior := candles[:len(candles)-1]
	for _, c := range prior {
		sum += c.Volume
	}
	avgVolume := sum / float64(len(prior))
	if avgVolume == 0 {
		return negative(SpikeName)
	}

	volumeSpike := last.Volume / avgVolume
	priceChange := (last.Close - last.Open) / last.Open

	isSignal := volumeSpike >= d.volumeSpikeFactor && priceChange >= d.priceSpikeFactor-1

	verdict := Verdict{
		Signal:   isSignal,
		Detector: SpikeName,
		Metadata: map[string]float64{
			"volume_spike": volumeSpike,
			"price_change": priceChange,
		},
	}
	if isSignal {
		verdict.Reason = fmt.Sprintf("volume spike x%.2f, price change %.2f%%", volumeSpike, priceChange*100)
	}
	return verdict
}
