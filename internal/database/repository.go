package database

import (
	"context"
	"fmt"
	"time"
)

// ExecutionStatus values recorded in the journal.
const (
	ExecutionStatusCompleted   = "COMPLETED"
	ExecutionStatusBuyFailed   = "BUY_FAILED"
	ExecutionStatusUnprotected = "UNPROTECTED" // buy filled, bracket rejected
)

// Execution is one journal row for a webhook-triggered trade.
type Execution struct {
	ID               int64     `json:"id"`
	RequestID        string    `json:"request_id"`
	Symbol           string    `json:"symbol"`
	QuoteAmount      float64   `json:"quote_amount"`
	AveragePrice     float64   `json:"average_price"`
	FilledQuantity   float64   `json:"filled_quantity"`
	TakeProfitPrice  string    `json:"take_profit_price"`
	StopTriggerPrice string    `json:"stop_trigger_price"`
	StopLimitPrice   string    `json:"stop_limit_price"`
	OrderListID      int64     `json:"order_list_id"`
	Status           string    `json:"status"`
	Error            string    `json:"error,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// Repository provides data access methods. A nil receiver or nil pool turns
// every method into a no-op so callers never branch on whether the journal
// is configured.
type Repository struct {
	db *DB
}

// NewRepository creates a new repository. db may be nil.
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) enabled() bool {
	return r != nil && r.db != nil && r.db.Pool != nil
}

// HealthCheck performs a database health check.
func (r *Repository) HealthCheck(ctx context.Context) error {
	if !r.enabled() {
		return nil
	}
	return r.db.Pool.Ping(ctx)
}

// RecordExecution inserts a journal row for one execution attempt.
func (r *Repository) RecordExecution(ctx context.Context, exec *Execution) error {
	if !r.enabled() {
		return nil
	}

	query := `
		INSERT INTO executions (
			request_id, symbol, quote_amount, average_price, filled_quantity,
			take_profit_price, stop_trigger_price, stop_limit_price,
			order_list_id, status, error
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at`

	err := r.db.Pool.QueryRow(ctx, query,
		exec.RequestID,
		exec.Symbol,
		exec.QuoteAmount,
		exec.AveragePrice,
		exec.FilledQuantity,
		exec.TakeProfitPrice,
		exec.StopTriggerPrice,
		exec.StopLimitPrice,
		exec.OrderListID,
		exec.Status,
		exec.Error,
	).Scan(&exec.ID, &exec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record execution: %w", err)
	}
	return nil
}

// GetRecentExecutions returns the most recent journal rows, newest first.
func (r *Repository) GetRecentExecutions(ctx context.Context, limit int) ([]*Execution, error) {
	if !r.enabled() {
		return nil, nil
	}

	query := `
		SELECT id, request_id, symbol, quote_amount, average_price, filled_quantity,
			take_profit_price, stop_trigger_price, stop_limit_price,
			order_list_id, status, error, created_at
		FROM executions
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.db.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query executions: %w", err)
	}
	defer rows.Close()

	executions := make([]*Execution, 0, limit)
	for rows.Next() {
		var e Execution
		if err := rows.Scan(
			&e.ID, &e.RequestID, &e.Symbol, &e.QuoteAmount, &e.AveragePrice,
			&e.FilledQuantity, &e.TakeProfitPrice, &e.StopTriggerPrice,
			&e.StopLimitPrice, &e.OrderListID, &e.Status, &e.Error, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan execution: %w", err)
		}
		executions = append(executions, &e)
	}
	return executions, rows.Err()
}
