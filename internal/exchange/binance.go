package exchange

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/adshao/go-binance/v2"
	"github.com/rs/zerolog"
)

// Binance implements Exchange against the Binance spot REST API.
type Binance struct {
	api    *binance.Client
	logger zerolog.Logger

	mu      sync.RWMutex
	symbols map[string]binance.Symbol // raw symbol -> exchange info
}

// NewBinance creates a Binance-backed exchange.
func NewBinance(apiKey, secretKey string, logger zerolog.Logger) *Binance {
	return &Binance{
		api:    binance.NewClient(apiKey, secretKey),
		logger: logger.With().Str("component", "binance").Logger(),
	}
}

// ensureInfo loads and caches exchange info on first use. Symbol filters
// change rarely enough that one load per process lifetime is sufficient.
func (b *Binance) ensureInfo(ctx context.Context) (map[string]binance.Symbol, error) {
	b.mu.RLock()
	cached := b.symbols
	b.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	info, err := b.api.NewExchangeInfoService().Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not get exchange info: %w", err)
	}

	symbols := make(map[string]binance.Symbol, len(info.Symbols))
	for _, s := range info.Symbols {
		symbols[s.Symbol] = s
	}

	b.mu.Lock()
	b.symbols = symbols
	b.mu.Unlock()

	b.logger.Info().Int("pairs", len(symbols)).Msg("exchange info loaded")
	return symbols, nil
}

// ListMarkets returns 24h summaries for all spot pairs currently trading.
func (b *Binance) ListMarkets(ctx context.Context) ([]MarketSummary, error) {
	symbols, err := b.ensureInfo(ctx)
	if err != nil {
		return nil, err
	}

	stats, err := b.api.NewListPriceChangeStatsService().Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not fetch 24h tickers: %w", err)
	}

	markets := make([]MarketSummary, 0, len(stats))
	for _, st := range stats {
		info, ok := symbols[st.Symbol]
		if !ok || info.Status != "TRADING" || !info.IsSpotTradingAllowed {
			continue
		}
		quoteVolume, err := strconv.ParseFloat(st.QuoteVolume, 64)
		if err != nil {
			continue
		}
		change, _ := strconv.ParseFloat(st.PriceChangePercent, 64)
		markets = append(markets, MarketSummary{
			Symbol:             info.BaseAsset + "/" + info.QuoteAsset,
			QuoteVolume:        quoteVolume,
			PriceChangePercent: change,
		})
	}
	return markets, nil
}

// FetchCandles returns up to limit klines for the symbol, oldest first.
func (b *Binance) FetchCandles(ctx context.Context, symbol, interval string, limit int) ([]Candle, error) {
	klines, err := b.api.NewKlinesService().
		Symbol(rawSymbol(symbol)).
		Interval(interval).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not fetch klines for %s: %w", symbol, err)
	}

	candles := make([]Candle, 0, len(klines))
	for _, k := range klines {
		candles = append(candles, toCandle(k))
	}
	return candles, nil
}

// toCandle converts one exchange kline to the internal OHLCV form.
func toCandle(k *binance.Kline) Candle {
	return Candle{
		OpenTime: k.OpenTime,
		Open:     parseFloat(k.Open),
		High:     parseFloat(k.High),
		Low:      parseFloat(k.Low),
		Close:    parseFloat(k.Close),
		Volume:   parseFloat(k.Volume),
	}
}

// MarketBuy executes a market buy for the given quote-currency notional.
func (b *Binance) MarketBuy(ctx context.Context, symbol string, quoteAmount float64) (FilledOrder, error) {
	resp, err := b.api.NewCreateOrderService().
		Symbol(rawSymbol(symbol)).
		Side(binance.SideTypeBuy).
		Type(binance.OrderTypeMarket).
		QuoteOrderQty(strconv.FormatFloat(quoteAmount, 'f', -1, 64)).
		Do(ctx)
	if err != nil {
		return FilledOrder{}, fmt.Errorf("market buy failed for %s: %w", symbol, err)
	}

	filled := parseFloat(resp.ExecutedQuantity)
	spent := parseFloat(resp.CummulativeQuoteQuantity)

	avg := 0.0
	if filled > 0 {
		avg = spent / filled
	}
	// Fall back to the individual fills when the cumulative fields are empty.
	if avg == 0 && len(resp.Fills) > 0 {
		var qty, cost float64
		for _, fill := range resp.Fills {
			p := parseFloat(fill.Price)
			q := parseFloat(fill.Quantity)
			qty += q
			cost += p * q
		}
		if qty > 0 {
			filled = qty
			avg = cost / qty
		}
	}

	b.logger.Info().
		Str("symbol", symbol).
		Int64("order_id", resp.OrderID).
		Float64("avg_price", avg).
		Float64("filled", filled).
		Msg("market buy executed")

	return FilledOrder{
		Symbol:         symbol,
		OrderID:        resp.OrderID,
		AveragePrice:   avg,
		FilledQuantity: filled,
		QuoteSpent:     spent,
	}, nil
}

// PrecisionFor returns the LOT_SIZE and PRICE_FILTER steps for a symbol.
func (b *Binance) PrecisionFor(ctx context.Context, symbol string) (PrecisionRule, error) {
	symbols, err := b.ensureInfo(ctx)
	if err != nil {
		return PrecisionRule{}, err
	}

	info, ok := symbols[rawSymbol(symbol)]
	if !ok {
		return PrecisionRule{}, fmt.Errorf("no exchange info for %s", symbol)
	}

	rule := PrecisionRule{Symbol: symbol}
	if f := info.LotSizeFilter(); f != nil {
		rule.AmountStep = f.StepSize
	}
	if f := info.PriceFilter(); f != nil {
		rule.PriceStep = f.TickSize
	}
	return rule, nil
}

// SubmitBracket places the take-profit and stop-loss legs as one OCO pair.
// Rejections are returned verbatim, never retried or split into legs.
func (b *Binance) SubmitBracket(ctx context.Context, plan BracketPlan) (BracketOrder, error) {
	resp, err := b.api.NewCreateOCOService().
		Symbol(rawSymbol(plan.Symbol)).
		Side(binance.SideTypeSell).
		Quantity(plan.Quantity).
		Price(plan.TakeProfitPrice).
		StopPrice(plan.StopTriggerPrice).
		StopLimitPrice(plan.StopLimitPrice).
		StopLimitTimeInForce(binance.TimeInForceTypeGTC).
		Do(ctx)
	if err != nil {
		return BracketOrder{}, fmt.Errorf("bracket submission rejected for %s: %w", plan.Symbol, err)
	}

	b.logger.Info().
		Str("symbol", plan.Symbol).
		Int64("order_list_id", resp.OrderListID).
		Str("take_profit", plan.TakeProfitPrice).
		Str("stop_trigger", plan.StopTriggerPrice).
		Str("stop_limit", plan.StopLimitPrice).
		Msg("bracket order placed")

	return BracketOrder{Symbol: plan.Symbol, OrderListID: resp.OrderListID}, nil
}

// rawSymbol converts a unified "BASE/QUOTE" pair to the exchange form.
func rawSymbol(symbol string) string {
	return strings.ReplaceAll(symbol, "/", "")
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
