package scanner

import (
	"time"

	"crypto-signal-bot/internal/screener"
)

// Config holds scanner configuration. All values come from the process
// configuration at composition time; the scanner keeps no other state.
type Config struct {
	Enabled       bool
	ScanInterval  time.Duration
	QuoteCurrency string
	MinVolume     float64
	TopMarkets    int
	RankBy        screener.RankBy
	Interval      string // candle timeframe, e.g. "5m"
	HistoryLimit  int    // candle window length

	// Webhook link embedded in notifications so the operator can confirm
	// the buy with one click.
	WebhookBaseURL string
	WebhookToken   string
}

// SignalRecord summarizes one positive verdict raised during a cycle.
type SignalRecord struct {
	Symbol   string             `json:"symbol"`
	Detector string             `json:"detector"`
	Reason   string             `json:"reason"`
	Metadata map[string]float64 `json:"metadata"`
}

// CycleResult aggregates the outcome of one scan cycle.
type CycleResult struct {
	CycleID        string         `json:"cycle_id"`
	StartTime      time.Time      `json:"start_time"`
	Duration       time.Duration  `json:"duration"`
	MarketsListed  int            `json:"markets_listed"`
	Candidates     int            `json:"candidates"`
	MarketsSkipped int            `json:"markets_skipped"`
	Signals        []SignalRecord `json:"signals"`
}
