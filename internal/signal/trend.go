package signal

import (
	"fmt"

	"crypto-signal-bot/internal/exchange"
)

// TrendName identifies the linear-regression trend detector in configuration.
const TrendName = "UpsideTrend"

// TrendDetector signals on a statistically sustained upward drift over the
// whole candle window rather than a single-candle move. Closes are
// normalized to fractional return from the first candle so the regression
// slope is comparable across assets of very different nominal price.
type TrendDetector struct {
	minSlope float64
	minR2    float64
}

// NewTrendDetector creates a trend detector. minSlope is expressed in
// fractional return per candle; minR2 is the minimum fit quality (0..1).
func NewTrendDetector(minSlope, minR2 float64) *TrendDetector {
	return &TrendDetector{minSlope: minSlope, minR2: minR2}
}

func (d *TrendDetector) Name() string {
	return TrendName
}

func (d *TrendDetector) Evaluate(candles []exchange.Candle) Verdict {
	if len(candles) < 2 {
		return negative(TrendName)
	}

	first := candles[0].Close
	if first <= 0 {
		return negative(TrendName)
	}

	n := float64(len(candles))
	var sumX, sumY, sumXY, sumXX float64
	for i, c := range candles {
		x := float64(i)
		y := c.Close/first - 1
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return negative(TrendName)
	}
	slope := (n*sumXY - sumX*sumY) / denom
	intercept := (sumY - slope*sumX) / n

	yMean := sumY / n
	var ssRes, ssTot float64
	for i, c := range candles {
		y := c.Close/first - 1
		pred := slope*float64(i) + intercept
		ssRes += (y - pred) * (y - pred)
		ssTot += (y - yMean) * (y - yMean)
	}

	r2 := 0.0
	if ssTot != 0 {
		r2 = 1 - ssRes/ssTot
	}

	isSignal := slope > d.minSlope && r2 > d.minR2

	verdict := Verdict{
		Signal:   isSignal,
		Detector: TrendName,
		Metadata: map[string]float64{
			"slope":     slope,
			"r2":        r2,
			"min_slope": d.minSlope,
			"min_r2":    d.minR2,
		},
	}
	if isSignal {
		verdict.Reason = fmt.Sprintf("upside trend: slope=%.6f r2=%.4f", slope, r2)
	}
	return verdict
}
