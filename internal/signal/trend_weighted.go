package signal

import (
	"fmt"
	"math"

	"crypto-signal-bot/internal/exchange"
)

// WeightedTrendName identifies the exponentially weighted trend detector.
const WeightedTrendName = "UpsideTrendWeighted"

// Weighting and window constants for the weighted trend fit. The window is
// kept short so the detector reacts to the recent move, and the exponential
// weights make the newest candles dominate the regression.
const (
	weightedTrendWindow = 20
	weightedTrendAlpha  = 0.6
)

// WeightedTrendDetector is a stricter variant of TrendDetector: it fits a
// weighted regression over a short trailing window and additionally requires
// the last close to sit above the fitted line, above the window SMA, and
// above the previous close.
type WeightedTrendDetector struct {
	minSlope float64
	minR2    float64
}

// NewWeightedTrendDetector creates a weighted trend detector using the same
// threshold units as NewTrendDetector.
func NewWeightedTrendDetector(minSlope, minR2 float64) *WeightedTrendDetector {
	return &WeightedTrendDetector{minSlope: minSlope, minR2: minR2}
}

func (d *WeightedTrendDetector) Name() string {
	return WeightedTrendName
}

func (d *WeightedTrendDetector) Evaluate(candles []exchange.Candle) Verdict {
	if len(candles) > weightedTrendWindow {
		candles = candles[len(candles)-weightedTrendWindow:]
	}
	if len(candles) < 3 {
		return negative(WeightedTrendName)
	}

	first := candles[0].Close
	if !(first > 0) || math.IsInf(first, 0) {
		return negative(WeightedTrendName)
	}

	n := len(candles)
	var sumW, sumWX, sumWY, sumWXX, sumWXY float64
	for i, c := range candles {
		w := math.Pow(weightedTrendAlpha, float64(n-1-i))
		x := float64(i)
		y := c.Close/first - 1
		sumW += w
		sumWX += w * x
		sumWY += w * y
		sumWXX += w * x * x
		sumWXY += w * x * y
	}

	denom := sumW*sumWXX - sumWX*sumWX
	if denom == 0 {
		return negative(WeightedTrendName)
	}
	slope := (sumW*sumWXY - sumWX*sumWY) / denom
	intercept := (sumWY - slope*sumWX) / sumW

	yMean := sumWY / sumW
	var ssRes, ssTot, smaSum float64
	for i, c := range candles {
		w := math.Pow(weightedTrendAlpha, float64(n-1-i))
		y := c.Close/first - 1
		pred := slope*float64(i) + intercept
		ssRes += w * (y - pred) * (y - pred)
		ssTot += w * (y - yMean) * (y - yMean)
		smaSum += c.Close
	}

	r2 := 0.0
	if ssTot != 0 {
		r2 = 1 - ssRes/ssTot
	}

	lastClose := candles[n-1].Close
	prevClose := candles[n-2].Close
	sma := smaSum / float64(n)

	lastAbovePred := lastClose/first-1 >= slope*float64(n-1)+intercept
	lastAboveSMA := lastClose > sma
	momentumUp := lastClose > prevClose

	isSignal := slope > d.minSlope && r2 > d.minR2 && lastAbovePred && lastAboveSMA && momentumUp

	verdict := Verdict{
		Signal:   isSignal,
		Detector: WeightedTrendName,
		Metadata: map[string]float64{
			"slope":      slope,
			"r2":         r2,
			"sma":        sma,
			"last_close": lastClose,
			"min_slope":  d.minSlope,
			"min_r2":     d.minR2,
		},
	}
	if isSignal {
		verdict.Reason = fmt.Sprintf("weighted upside trend: slope=%.3f%%/candle r2=%.3f", slope*100, r2)
	}
	return verdict
}
