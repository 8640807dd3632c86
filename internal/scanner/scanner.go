// Package scanner orchestrates the periodic market scan: screen candidates,
// fetch their candle history and run the detector chain, notifying the
// operator on the first positive verdict per market.
package scanner

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"crypto-signal-bot/internal/exchange"
	"crypto-signal-bot/internal/notification"
	"crypto-signal-bot/internal/screener"
	"crypto-signal-bot/internal/signal"
)

// Scanner runs scan cycles on a fixed interval. Cycles are synchronous end
// to end, so two cycles never overlap; a manual trigger while a cycle runs
// is rejected.
type Scanner struct {
	ex        exchange.Exchange
	detectors []signal.Detector
	notifier  *notification.Manager
	cache     *CandleCache
	cfg       Config
	logger    zerolog.Logger

	stopChan chan struct{}
	wg       sync.WaitGroup
	cycleMu  sync.Mutex

	mu         sync.RWMutex
	lastResult *CycleResult
}

// NewScanner creates a scanner. The detector chain order is the evaluation
// order: first positive verdict wins.
func NewScanner(
	ex exchange.Exchange,
	detectors []signal.Detector,
	notifier *notification.Manager,
	cache *CandleCache,
	cfg Config,
	logger zerolog.Logger,
) *Scanner {
	return &Scanner{
		ex:        ex,
		detectors: detectors,
		notifier:  notifier,
		cache:     cache,
		cfg:       cfg,
		logger:    logger.With().Str("component", "scanner").Logger(),
		stopChan:  make(chan struct{}),
	}
}

// Start begins the background scan loop with one eager cycle.
func (s *Scanner) Start() {
	if !s.cfg.Enabled {
		s.logger.Info().Msg("scanner is disabled")
		return
	}

	s.wg.Add(1)
	go s.runLoop()
	s.logger.Info().Dur("interval", s.cfg.ScanInterval).Msg("scanner started")
}

func (s *Scanner) runLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.ScanInterval)
	defer ticker.Stop()

	// Run immediately on start.
	s.RunCycle()

	for {
		select {
		case <-ticker.C:
			s.RunCycle()
		case <-s.stopChan:
			s.logger.Info().Msg("scanner stopped")
			return
		}
	}
}

// RunCycle executes a single scan cycle. It returns false without scanning
// when another cycle is already in progress.
func (s *Scanner) RunCycle() bool {
	if !s.cycleMu.TryLock() {
		s.logger.Warn().Msg("previous scan cycle still running, skipping")
		return false
	}
	defer s.cycleMu.Unlock()

	s.scan()
	return true
}

// TryStartCycle starts a cycle in the background. It returns false without
// starting anything when a cycle is already in flight.
func (s *Scanner) TryStartCycle() bool {
	if !s.cycleMu.TryLock() {
		return false
	}
	go func() {
		defer s.cycleMu.Unlock()
		s.scan()
	}()
	return true
}

func (s *Scanner) scan() {
	result := &CycleResult{
		CycleID:   uuid.New().String(),
		StartTime: time.Now(),
		Signals:   []SignalRecord{},
	}
	logger := s.logger.With().Str("cycle_id", result.CycleID).Logger()

	if len(s.detectors) == 0 {
		logger.Warn().Msg("no detectors configured, scan cycle is a no-op")
		s.finish(result)
		return
	}

	ctx := context.Background()

	markets, err := s.ex.ListMarkets(ctx)
	if err != nil {
		// A failed ticker fetch means zero candidates this cycle, not an
		// aborted scanner.
		logger.Error().Err(err).Msg("could not list markets")
		markets = nil
	}
	result.MarketsListed = len(markets)

	candidates := screener.Select(markets, s.cfg.QuoteCurrency, s.cfg.MinVolume, s.cfg.TopMarkets, s.cfg.RankBy)
	result.Candidates = len(candidates)
	logger.Info().
		Int("markets", len(markets)).
		Int("candidates", len(candidates)).
		Msg("scan cycle started")

	for _, market := range candidates {
		record, ok := s.analyzeMarket(ctx, logger, market)
		if !ok {
			result.MarketsSkipped++
			continue
		}
		if record != nil {
			result.Signals = append(result.Signals, *record)
		}
	}

	s.finish(result)
	logger.Info().
		Dur("duration", result.Duration).
		Int("signals", len(result.Signals)).
		Int("skipped", result.MarketsSkipped).
		Msg("scan cycle completed")
}

// analyzeMarket evaluates one candidate. ok is false when the market was
// skipped (fetch failure or short history); record is non-nil when a
// detector fired. Failures here never propagate to the rest of the cycle.
func (s *Scanner) analyzeMarket(ctx context.Context, logger zerolog.Logger, market exchange.MarketSummary) (record *SignalRecord, ok bool) {
	candles := s.cache.Get(ctx, market.Symbol, s.cfg.Interval, s.cfg.HistoryLimit)
	if candles == nil {
		var err error
		candles, err = s.ex.FetchCandles(ctx, market.Symbol, s.cfg.Interval, s.cfg.HistoryLimit)
		if err != nil {
			logger.Warn().Err(err).Str("symbol", market.Symbol).Msg("candle fetch failed, skipping market")
			return nil, false
		}
		s.cache.Set(ctx, market.Symbol, s.cfg.Interval, s.cfg.HistoryLimit, candles)
	}

	if len(candles) < s.cfg.HistoryLimit {
		logger.Debug().
			Str("symbol", market.Symbol).
			Int("candles", len(candles)).
			Int("required", s.cfg.HistoryLimit).
			Msg("insufficient history, skipping market")
		return nil, false
	}

	// First positive verdict wins; later detectors are not consulted.
	for _, detector := range s.detectors {
		verdict := detector.Evaluate(candles)
		if !verdict.Signal {
			continue
		}

		logger.Info().
			Str("symbol", market.Symbol).
			Str("detector", verdict.Detector).
			Str("reason", verdict.Reason).
			Msg("signal detected")
		s.notify(market.Symbol, verdict)

		return &SignalRecord{
			Symbol:   market.Symbol,
			Detector: verdict.Detector,
			Reason:   verdict.Reason,
			Metadata: verdict.Metadata,
		}, true
	}
	return nil, true
}

func (s *Scanner) notify(symbol string, verdict signal.Verdict) {
	sig := &notification.Signal{
		Symbol:    symbol,
		Detector:  verdict.Detector,
		Reason:    verdict.Reason,
		Metadata:  verdict.Metadata,
		ActionURL: s.actionURL(symbol),
		Timestamp: time.Now(),
	}
	if err := s.notifier.Send(sig); err != nil {
		s.logger.Warn().Err(err).Str("symbol", symbol).Msg("notification delivery failed")
	}
}

// actionURL builds the one-click execution link for a symbol.
func (s *Scanner) actionURL(symbol string) string {
	if s.cfg.WebhookBaseURL == "" || s.cfg.WebhookToken == "" {
		return ""
	}
	return fmt.Sprintf("%s/webhook/%s?action=BUY_%s&symbol=%s",
		s.cfg.WebhookBaseURL, s.cfg.WebhookToken,
		url.QueryEscape(symbol), url.QueryEscape(symbol))
}

func (s *Scanner) finish(result *CycleResult) {
	result.Duration = time.Since(result.StartTime)
	s.mu.Lock()
	s.lastResult = result
	s.mu.Unlock()
}

// LastResult returns the most recent cycle summary, or nil before the first
// cycle completes.
func (s *Scanner) LastResult() *CycleResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastResult
}

// Stop gracefully shuts down the scan loop.
func (s *Scanner) Stop() {
	if !s.cfg.Enabled {
		return
	}
	close(s.stopChan)
	s.wg.Wait()
}
