package bracket

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"crypto-signal-bot/internal/exchange"
)

type scriptedExchange struct {
	buyFill    exchange.FilledOrder
	buyErr     error
	buyStarted chan struct{}
	buyRelease chan struct{}

	rule    exchange.PrecisionRule
	ruleErr error

	bracket    exchange.BracketOrder
	bracketErr error

	submitted []exchange.BracketPlan
}

func (f *scriptedExchange) ListMarkets(ctx context.Context) ([]exchange.MarketSummary, error) {
	return nil, nil
}

func (f *scriptedExchange) FetchCandles(ctx context.Context, symbol, interval string, limit int) ([]exchange.Candle, error) {
	return nil, nil
}

func (f *scriptedExchange) MarketBuy(ctx context.Context, symbol string, quoteAmount float64) (exchange.FilledOrder, error) {
	if f.buyStarted != nil {
		close(f.buyStarted)
	}
	if f.buyRelease != nil {
		<-f.buyRelease
	}
	return f.buyFill, f.buyErr
}

func (f *scriptedExchange) PrecisionFor(ctx context.Context, symbol string) (exchange.PrecisionRule, error) {
	return f.rule, f.ruleErr
}

func (f *scriptedExchange) SubmitBracket(ctx context.Context, plan exchange.BracketPlan) (exchange.BracketOrder, error) {
	f.submitted = append(f.submitted, plan)
	return f.bracket, f.bracketErr
}

var testExecutorConfig = ExecutorConfig{
	OrderAmount:      50,
	TakeProfitFactor: 1.025,
	StopLossFactor:   0.9875,
}

func goodFill() exchange.FilledOrder {
	return exchange.FilledOrder{
		Symbol:         "BTC/USDC",
		OrderID:        42,
		AveragePrice:   100,
		FilledQuantity: 0.5,
		QuoteSpent:     50,
	}
}

func TestExecuteHappyPath(t *testing.T) {
	ex := &scriptedExchange{
		buyFill: goodFill(),
		rule:    exchange.PrecisionRule{AmountStep: "0.00100000", PriceStep: "0.01000000"},
		bracket: exchange.BracketOrder{Symbol: "BTC/USDC", OrderListID: 7},
	}
	e := NewExecutor(ex, nil, testExecutorConfig, zerolog.Nop())

	result, err := e.Execute(context.Background(), "BTC/USDC")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.RequestID == "" {
		t.Error("expected a request id")
	}
	if result.Bracket.OrderListID != 7 {
		t.Errorf("order list id = %d, want 7", result.Bracket.OrderListID)
	}
	if len(ex.submitted) != 1 {
		t.Fatalf("submitted %d brackets, want 1", len(ex.submitted))
	}
	if ex.submitted[0].TakeProfitPrice != "102.50" {
		t.Errorf("take profit = %s, want 102.50", ex.submitted[0].TakeProfitPrice)
	}
}

func TestExecuteBuyFailure(t *testing.T) {
	ex := &scriptedExchange{buyErr: errors.New("insufficient balance")}
	e := NewExecutor(ex, nil, testExecutorConfig, zerolog.Nop())

	_, err := e.Execute(context.Background(), "BTC/USDC")
	if err == nil {
		t.Fatal("expected an error")
	}
	var unprotected *UnprotectedPositionError
	if errors.As(err, &unprotected) {
		t.Errorf("a failed buy leaves nothing unprotected, got %T", err)
	}
	if len(ex.submitted) != 0 {
		t.Errorf("no bracket may be submitted after a failed buy")
	}
}

func TestExecuteBracketFailureIsUnprotected(t *testing.T) {
	ex := &scriptedExchange{
		buyFill:    goodFill(),
		rule:       exchange.PrecisionRule{AmountStep: "0.001", PriceStep: "0.01"},
		bracketErr: errors.New("exchange rejected OCO"),
	}
	e := NewExecutor(ex, nil, testExecutorConfig, zerolog.Nop())

	_, err := e.Execute(context.Background(), "BTC/USDC")
	var unprotected *UnprotectedPositionError
	if !errors.As(err, &unprotected) {
		t.Fatalf("got %T, want *UnprotectedPositionError", err)
	}
	if unprotected.Fill.FilledQuantity != 0.5 {
		t.Errorf("error must carry the fill, got %+v", unprotected.Fill)
	}
	if !errors.Is(err, ex.bracketErr) {
		t.Error("the underlying cause must be wrapped")
	}
}

func TestExecutePrecisionFailureIsUnprotected(t *testing.T) {
	ex := &scriptedExchange{
		buyFill: goodFill(),
		ruleErr: errors.New("exchange info unavailable"),
	}
	e := NewExecutor(ex, nil, testExecutorConfig, zerolog.Nop())

	_, err := e.Execute(context.Background(), "BTC/USDC")
	var unprotected *UnprotectedPositionError
	if !errors.As(err, &unprotected) {
		t.Fatalf("got %T, want *UnprotectedPositionError", err)
	}
}

func TestExecuteEmptyFillIsNotUnprotected(t *testing.T) {
	// A "fill" with no price or quantity put nothing on the book, so the
	// invalid-fill rejection must not masquerade as an unprotected position.
	ex := &scriptedExchange{
		buyFill: exchange.FilledOrder{Symbol: "BTC/USDC"},
		rule:    exchange.PrecisionRule{AmountStep: "0.001", PriceStep: "0.01"},
	}
	e := NewExecutor(ex, nil, testExecutorConfig, zerolog.Nop())

	_, err := e.Execute(context.Background(), "BTC/USDC")
	var invalid *InvalidFillError
	if !errors.As(err, &invalid) {
		t.Fatalf("got %T, want *InvalidFillError", err)
	}
	var unprotected *UnprotectedPositionError
	if errors.As(err, &unprotected) {
		t.Error("invalid fill must not be reported as unprotected")
	}
}

func TestExecuteRejectsConcurrentSameSymbol(t *testing.T) {
	ex := &scriptedExchange{
		buyFill:    goodFill(),
		rule:       exchange.PrecisionRule{AmountStep: "0.001", PriceStep: "0.01"},
		buyStarted: make(chan struct{}),
		buyRelease: make(chan struct{}),
	}
	e := NewExecutor(ex, nil, testExecutorConfig, zerolog.Nop())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = e.Execute(context.Background(), "BTC/USDC")
	}()

	<-ex.buyStarted
	_, err := e.Execute(context.Background(), "BTC/USDC")
	if !errors.Is(err, ErrExecutionInFlight) {
		t.Errorf("got %v, want ErrExecutionInFlight", err)
	}

	close(ex.buyRelease)
	wg.Wait()

	// The lock is released once the first request finishes.
	ex.buyStarted, ex.buyRelease = nil, nil
	if _, err := e.Execute(context.Background(), "BTC/USDC"); err != nil {
		t.Errorf("sequential execution after release failed: %v", err)
	}
}
