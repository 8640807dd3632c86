// Package screener narrows the exchange's tradable markets down to a
// bounded candidate set for the scanner.
package screener

import (
	"sort"
	"strings"

	"crypto-signal-bot/internal/exchange"
)

// RankBy selects the ordering applied to qualifying markets. The two keys
// surface materially different candidates, so the choice is an explicit
// configuration value rather than an implicit default.
type RankBy string

const (
	// RankByVolume orders descending by 24h quote volume.
	RankByVolume RankBy = "volume"
	// RankByChange orders descending by 24h percentage price change.
	RankByChange RankBy = "change"
)

// ParseRankBy maps a configured string to a ranking key, defaulting to
// volume for anything unrecognized.
func ParseRankBy(s string) RankBy {
	if RankBy(strings.ToLower(s)) == RankByChange {
		return RankByChange
	}
	return RankByVolume
}

// Select filters markets to pairs quoted in quoteCurrency with 24h quote
// volume above minVolume, orders them by rankBy descending and returns at
// most topN. An empty result is normal, never an error.
func Select(markets []exchange.MarketSummary, quoteCurrency string, minVolume float64, topN int, rankBy RankBy) []exchange.MarketSummary {
	suffix := "/" + quoteCurrency

	selected := make([]exchange.MarketSummary, 0)
	for _, m := range markets {
		if !strings.HasSuffix(m.Symbol, suffix) {
			continue
		}
		if m.QuoteVolume <= minVolume {
			continue
		}
		selected = append(selected, m)
	}

	sort.SliceStable(selected, func(i, j int) bool {
		if rankBy == RankByChange {
			return selected[i].PriceChangePercent > selected[j].PriceChangePercent
		}
		return selected[i].QuoteVolume > selected[j].QuoteVolume
	})

	if topN >= 0 && len(selected) > topN {
		selected = selected[:topN]
	}
	return selected
}
