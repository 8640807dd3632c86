package exchange

import "context"

// Candle represents a single OHLCV sample. Candle slices are ordered oldest
// first and are never mutated after fetch.
type Candle struct {
	OpenTime int64   `json:"open_time"`
	Open     float64 `json:"open"`
	High     float64 `json:"high"`
	Low      float64 `json:"low"`
	Close    float64 `json:"close"`
	Volume   float64 `json:"volume"`
}

// MarketSummary holds the 24h ticker statistics used for market selection.
// Symbol is in unified "BASE/QUOTE" form, e.g. "BTC/USDC".
type MarketSummary struct {
	Symbol             string  `json:"symbol"`
	QuoteVolume        float64 `json:"quote_volume"`
	PriceChangePercent float64 `json:"price_change_percent"`
}

// FilledOrder is the result of an executed market buy.
type FilledOrder struct {
	Symbol         string  `json:"symbol"`
	OrderID        int64   `json:"order_id"`
	AveragePrice   float64 `json:"average_price"`
	FilledQuantity float64 `json:"filled_quantity"`
	QuoteSpent     float64 `json:"quote_spent"`
}

// PrecisionRule carries the exchange-mandated step sizes for a symbol.
// Steps are decimal strings as reported by the exchange, e.g. "0.00100000".
type PrecisionRule struct {
	Symbol     string `json:"symbol"`
	AmountStep string `json:"amount_step"`
	PriceStep  string `json:"price_step"`
}

// BracketPlan is a fully formatted take-profit/stop-loss order pair, ready
// for submission. All numeric fields are pre-rounded strings so no further
// float arithmetic happens between planning and submission.
type BracketPlan struct {
	Symbol           string `json:"symbol"`
	Quantity         string `json:"quantity"`
	TakeProfitPrice  string `json:"take_profit_price"`
	StopTriggerPrice string `json:"stop_trigger_price"`
	StopLimitPrice   string `json:"stop_limit_price"`
}

// BracketOrder identifies a submitted bracket order pair on the exchange.
type BracketOrder struct {
	Symbol      string `json:"symbol"`
	OrderListID int64  `json:"order_list_id"`
}

// Exchange is the market-data and order-placement capability consumed by the
// scanner and the executor. Implementations must be safe for concurrent use.
type Exchange interface {
	// ListMarkets returns 24h summaries for all tradable spot pairs.
	ListMarkets(ctx context.Context) ([]MarketSummary, error)

	// FetchCandles returns up to limit candles for the symbol, oldest first.
	// Fewer candles than requested is not an error.
	FetchCandles(ctx context.Context, symbol, interval string, limit int) ([]Candle, error)

	// MarketBuy executes a market buy sized by quote-currency notional amount.
	MarketBuy(ctx context.Context, symbol string, quoteAmount float64) (FilledOrder, error)

	// PrecisionFor returns the rounding rule for a symbol.
	PrecisionFor(ctx context.Context, symbol string) (PrecisionRule, error)

	// SubmitBracket submits the take-profit and stop-loss legs as a single
	// conditional pair.
	SubmitBracket(ctx context.Context, plan BracketPlan) (BracketOrder, error)
}
