package bracket

import (
	"errors"
	"testing"

	"crypto-signal-bot/internal/exchange"
)

func TestPlanComputesBracketPrices(t *testing.T) {
	fill := exchange.FilledOrder{
		Symbol:         "BTC/USDC",
		AveragePrice:   100,
		FilledQuantity: 1,
	}
	rule := exchange.PrecisionRule{
		Symbol:     "BTC/USDC",
		AmountStep: "0.00100000",
		PriceStep:  "0.01000000",
	}

	plan, err := Plan(fill, rule, 1.025, 0.9875)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if plan.TakeProfitPrice != "102.50" {
		t.Errorf("take profit = %s, want 102.50", plan.TakeProfitPrice)
	}
	if plan.StopTriggerPrice != "98.75" {
		t.Errorf("stop trigger = %s, want 98.75", plan.StopTriggerPrice)
	}
	// 98.75 * 0.995 = 98.25625, truncated to the price step.
	if plan.StopLimitPrice != "98.25" {
		t.Errorf("stop limit = %s, want 98.25", plan.StopLimitPrice)
	}
	if plan.Quantity != "1.000" {
		t.Errorf("quantity = %s, want 1.000", plan.Quantity)
	}
}

func TestPlanRoundsAfterArithmetic(t *testing.T) {
	// A coarse price step must not distort the intermediate prices: the
	// stop limit derives from the exact trigger, not the rounded one.
	fill := exchange.FilledOrder{Symbol: "ETH/USDC", AveragePrice: 3333.33, FilledQuantity: 0.015}
	rule := exchange.PrecisionRule{AmountStep: "0.00100000", PriceStep: "1.00000000"}

	plan, err := Plan(fill, rule, 1.025, 0.9875)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 3333.33 * 0.9875 = 3291.663..., * 0.995 = 3275.205...
	if plan.StopTriggerPrice != "3291" {
		t.Errorf("stop trigger = %s, want 3291", plan.StopTriggerPrice)
	}
	if plan.StopLimitPrice != "3275" {
		t.Errorf("stop limit = %s, want 3275", plan.StopLimitPrice)
	}
}

func TestPlanRejectsInvalidFill(t *testing.T) {
	rule := exchange.PrecisionRule{AmountStep: "0.001", PriceStep: "0.01"}

	cases := []exchange.FilledOrder{
		{Symbol: "BTC/USDC", AveragePrice: 0, FilledQuantity: 5},
		{Symbol: "BTC/USDC", AveragePrice: 10, FilledQuantity: 0},
		{Symbol: "BTC/USDC", AveragePrice: -1, FilledQuantity: 1},
	}
	for _, fill := range cases {
		_, err := Plan(fill, rule, 1.025, 0.9875)
		if err == nil {
			t.Fatalf("fill %+v: expected an error", fill)
		}
		var invalid *InvalidFillError
		if !errors.As(err, &invalid) {
			t.Errorf("fill %+v: got %T, want *InvalidFillError", fill, err)
		}
	}
}

func TestPlanIsDeterministic(t *testing.T) {
	fill := exchange.FilledOrder{Symbol: "SOL/USDC", AveragePrice: 142.7113, FilledQuantity: 0.3503}
	rule := exchange.PrecisionRule{AmountStep: "0.01000000", PriceStep: "0.01000000"}

	first, err := Plan(fill, rule, 1.025, 0.9875)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, _ := Plan(fill, rule, 1.025, 0.9875)
	if first != second {
		t.Errorf("identical inputs produced different plans: %+v vs %+v", first, second)
	}
}
