package bracket

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"crypto-signal-bot/internal/database"
	"crypto-signal-bot/internal/exchange"
)

// ErrExecutionInFlight is returned when an execution request arrives for a
// symbol whose previous request has not finished yet.
var ErrExecutionInFlight = errors.New("an execution for this symbol is already in flight")

// UnprotectedPositionError reports the most dangerous failure mode in the
// system: the market buy filled but the bracket submission failed, leaving
// an open position with no take-profit or stop-loss. Recovery requires
// human intervention.
type UnprotectedPositionError struct {
	Fill exchange.FilledOrder
	Err  error
}

func (e *UnprotectedPositionError) Error() string {
	return fmt.Sprintf(
		"OPEN POSITION UNPROTECTED: bought %v %s at %v but bracket placement failed: %v",
		e.Fill.FilledQuantity, e.Fill.Symbol, e.Fill.AveragePrice, e.Err,
	)
}

func (e *UnprotectedPositionError) Unwrap() error {
	return e.Err
}

// ExecutorConfig holds the fixed trade sizing and bracket factors.
type ExecutorConfig struct {
	OrderAmount      float64 // quote-currency notional per buy
	TakeProfitFactor float64 // e.g. 1.025 = +2.5%
	StopLossFactor   float64 // e.g. 0.9875 = -1.25%
}

// Result is the outcome of one successful execution.
type Result struct {
	RequestID string                `json:"request_id"`
	Symbol    string                `json:"symbol"`
	Buy       exchange.FilledOrder  `json:"buy_order"`
	Plan      exchange.BracketPlan  `json:"bracket_plan"`
	Bracket   exchange.BracketOrder `json:"bracket_order"`
}

// Executor runs the buy-then-bracket sequence for a confirmed signal.
// Requests for distinct symbols may run concurrently; requests for the same
// symbol are rejected while one is in flight.
type Executor struct {
	ex     exchange.Exchange
	repo   *database.Repository
	cfg    ExecutorConfig
	logger zerolog.Logger

	locks sync.Map // symbol -> *sync.Mutex
}

// NewExecutor creates an executor. repo may wrap a nil database.
func NewExecutor(ex exchange.Exchange, repo *database.Repository, cfg ExecutorConfig, logger zerolog.Logger) *Executor {
	return &Executor{
		ex:     ex,
		repo:   repo,
		cfg:    cfg,
		logger: logger.With().Str("component", "executor").Logger(),
	}
}

// Execute buys the symbol for the configured notional amount and immediately
// submits the protecting bracket. The buy is never rolled back: any failure
// after the fill surfaces as UnprotectedPositionError.
func (e *Executor) Execute(ctx context.Context, symbol string) (*Result, error) {
	lock := e.symbolLock(symbol)
	if !lock.TryLock() {
		return nil, ErrExecutionInFlight
	}
	defer lock.Unlock()

	requestID := uuid.New().String()
	logger := e.logger.With().Str("request_id", requestID).Str("symbol", symbol).Logger()

	logger.Info().Float64("quote_amount", e.cfg.OrderAmount).Msg("executing market buy")

	fill, err := e.ex.MarketBuy(ctx, symbol, e.cfg.OrderAmount)
	if err != nil {
		e.journal(requestID, symbol, exchange.FilledOrder{}, exchange.BracketPlan{}, 0,
			database.ExecutionStatusBuyFailed, err)
		return nil, fmt.Errorf("market buy failed: %w", err)
	}

	plan, bracketOrder, err := e.protect(ctx, fill)
	if err != nil {
		var invalid *InvalidFillError
		if errors.As(err, &invalid) {
			// The "fill" carried no price or quantity; there is nothing on
			// the book to protect, so this is a plain execution failure.
			e.journal(requestID, symbol, fill, exchange.BracketPlan{}, 0,
				database.ExecutionStatusBuyFailed, err)
			return nil, err
		}

		unprotected := &UnprotectedPositionError{Fill: fill, Err: err}
		logger.Error().
			Float64("avg_price", fill.AveragePrice).
			Float64("filled", fill.FilledQuantity).
			Err(err).
			Msg("UNPROTECTED POSITION: bracket placement failed after buy")
		e.journal(requestID, symbol, fill, plan, 0, database.ExecutionStatusUnprotected, err)
		return nil, unprotected
	}

	logger.Info().
		Int64("order_list_id", bracketOrder.OrderListID).
		Str("take_profit", plan.TakeProfitPrice).
		Str("stop_trigger", plan.StopTriggerPrice).
		Msg("execution completed")
	e.journal(requestID, symbol, fill, plan, bracketOrder.OrderListID,
		database.ExecutionStatusCompleted, nil)

	return &Result{
		RequestID: requestID,
		Symbol:    symbol,
		Buy:       fill,
		Plan:      plan,
		Bracket:   bracketOrder,
	}, nil
}

// protect plans and submits the bracket for a fill.
func (e *Executor) protect(ctx context.Context, fill exchange.FilledOrder) (exchange.BracketPlan, exchange.BracketOrder, error) {
	rule, err := e.ex.PrecisionFor(ctx, fill.Symbol)
	if err != nil {
		return exchange.BracketPlan{}, exchange.BracketOrder{}, fmt.Errorf("could not load precision rule: %w", err)
	}

	plan, err := Plan(fill, rule, e.cfg.TakeProfitFactor, e.cfg.StopLossFactor)
	if err != nil {
		return exchange.BracketPlan{}, exchange.BracketOrder{}, err
	}

	bracketOrder, err := e.ex.SubmitBracket(ctx, plan)
	if err != nil {
		return plan, exchange.BracketOrder{}, err
	}
	return plan, bracketOrder, nil
}

// journal records the attempt best effort; journal failures are only logged.
func (e *Executor) journal(requestID, symbol string, fill exchange.FilledOrder, plan exchange.BracketPlan, orderListID int64, status string, execErr error) {
	record := &database.Execution{
		RequestID:        requestID,
		Symbol:           symbol,
		QuoteAmount:      e.cfg.OrderAmount,
		AveragePrice:     fill.AveragePrice,
		FilledQuantity:   fill.FilledQuantity,
		TakeProfitPrice:  plan.TakeProfitPrice,
		StopTriggerPrice: plan.StopTriggerPrice,
		StopLimitPrice:   plan.StopLimitPrice,
		OrderListID:      orderListID,
		Status:           status,
	}
	if execErr != nil {
		record.Error = execErr.Error()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.repo.RecordExecution(ctx, record); err != nil {
		e.logger.Warn().Err(err).Str("symbol", symbol).Msg("failed to journal execution")
	}
}

func (e *Executor) symbolLock(symbol string) *sync.Mutex {
	lock, _ := e.locks.LoadOrStore(symbol, &sync.Mutex{})
	return lock.(*sync.Mutex)
}
