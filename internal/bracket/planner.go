// Package bracket computes and submits the take-profit/stop-loss order pair
// that protects a filled market buy.
package bracket

import (
	"fmt"

	"crypto-signal-bot/internal/exchange"
)

// stopLimitOffset places the resting stop-limit price slightly below the
// stop trigger so the limit leg has a realistic chance of filling once
// triggered in a falling market. Fixed, not configurable.
const stopLimitOffset = 0.995

// InvalidFillError reports a bracket plan requested for a fill that violates
// the contract: average price and filled quantity must both be strictly
// positive.
type InvalidFillError struct {
	Symbol         string
	AveragePrice   float64
	FilledQuantity float64
}

func (e *InvalidFillError) Error() string {
	return fmt.Sprintf(
		"invalid fill for %s: average price %v, filled quantity %v (both must be positive)",
		e.Symbol, e.AveragePrice, e.FilledQuantity,
	)
}

// Plan derives the bracket order prices from a filled buy and formats them
// to the symbol's precision rule. takeProfitFactor is expected > 1 and
// stopLossFactor < 1, both relative to the average fill price. Rounding
// happens only after all arithmetic so rounding error never compounds.
func Plan(fill exchange.FilledOrder, rule exchange.PrecisionRule, takeProfitFactor, stopLossFactor float64) (exchange.BracketPlan, error) {
	if fill.AveragePrice <= 0 || fill.FilledQuantity <= 0 {
		return exchange.BracketPlan{}, &InvalidFillError{
			Symbol:         fill.Symbol,
			AveragePrice:   fill.AveragePrice,
			FilledQuantity: fill.FilledQuantity,
		}
	}

	takeProfitPrice := fill.AveragePrice * takeProfitFactor
	stopTriggerPrice := fill.AveragePrice * stopLossFactor
	stopLimitPrice := stopTriggerPrice * stopLimitOffset

	return exchange.BracketPlan{
		Symbol:           fill.Symbol,
		Quantity:         exchange.FormatToStep(fill.FilledQuantity, rule.AmountStep),
		TakeProfitPrice:  exchange.FormatToStep(takeProfitPrice, rule.PriceStep),
		StopTriggerPrice: exchange.FormatToStep(stopTriggerPrice, rule.PriceStep),
		StopLimitPrice:   exchange.FormatToStep(stopLimitPrice, rule.PriceStep),
	}, nil
}
