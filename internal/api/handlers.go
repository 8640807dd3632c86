package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"crypto-signal-bot/internal/bracket"
)

// errorCode values returned in execution failure responses so callers can
// distinguish an ordinary failure from an unprotected open position.
const (
	errCodeExecutionFailed     = "EXECUTION_FAILED"
	errCodeUnprotectedPosition = "UNPROTECTED_POSITION"
)

func (s *Server) handleHealth(c *gin.Context) {
	successResponse(c, gin.H{"status": "ok"})
}

// handleExecute validates the webhook request and runs the buy-then-bracket
// sequence for the confirmed symbol.
func (s *Server) handleExecute(c *gin.Context) {
	if c.Param("token") != s.config.WebhookToken {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "unauthorized"})
		return
	}

	action := c.Query("action")
	symbol := c.Query("symbol")
	if symbol == "" || !strings.HasPrefix(action, "BUY_") {
		errorResponse(c, http.StatusBadRequest, "missing or invalid action/symbol")
		return
	}

	s.logger.Info().Str("symbol", symbol).Msg("execution request received")

	// The trade outlives the request: a client disconnect after the buy
	// fills must not cancel the bracket submission and strand the position.
	result, err := s.executor.Execute(context.WithoutCancel(c.Request.Context()), symbol)
	if err != nil {
		s.renderExecutionError(c, symbol, err)
		return
	}

	successResponse(c, gin.H{
		"message":      "successfully placed market buy and bracket orders for " + symbol,
		"buyOrder":     result.Buy,
		"bracketOrder": result.Bracket,
	})
}

func (s *Server) renderExecutionError(c *gin.Context, symbol string, err error) {
	if errors.Is(err, bracket.ErrExecutionInFlight) {
		c.JSON(http.StatusConflict, gin.H{
			"message": "an execution for " + symbol + " is already in flight",
		})
		return
	}

	var unprotected *bracket.UnprotectedPositionError
	if errors.As(err, &unprotected) {
		// The buy filled but the position has no bracket. This needs a
		// human, so it gets its own error code on top of the 500.
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "failed to execute trade for " + symbol,
			"code":    errCodeUnprotectedPosition,
			"error":   unprotected.Error(),
			"fill":    unprotected.Fill,
		})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{
		"message": "failed to execute trade for " + symbol,
		"code":    errCodeExecutionFailed,
		"error":   err.Error(),
	})
}

// handleScannerStatus returns the summary of the most recent scan cycle.
func (s *Server) handleScannerStatus(c *gin.Context) {
	last := s.scanner.LastResult()
	if last == nil {
		successResponse(c, gin.H{"scanned": false})
		return
	}
	successResponse(c, gin.H{"scanned": true, "last_cycle": last})
}

// handleScanTrigger starts a scan cycle outside the schedule.
func (s *Server) handleScanTrigger(c *gin.Context) {
	if !s.scanner.TryStartCycle() {
		c.JSON(http.StatusConflict, gin.H{"message": "a scan cycle is already running"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "scan cycle triggered"})
}

// handleRecentExecutions returns the newest execution journal rows.
func (s *Server) handleRecentExecutions(c *gin.Context) {
	limit := 20
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 200 {
			limit = parsed
		}
	}

	executions, err := s.repo.GetRecentExecutions(c.Request.Context(), limit)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to fetch executions")
		return
	}
	successResponse(c, gin.H{"executions": executions})
}
