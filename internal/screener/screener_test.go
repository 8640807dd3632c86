package screener

import (
	"testing"

	"crypto-signal-bot/internal/exchange"
)

var testMarkets = []exchange.MarketSummary{
	{Symbol: "BTC/USDC", QuoteVolume: 500_000_000, PriceChangePercent: 1.2},
	{Symbol: "ETH/USDC", QuoteVolume: 200_000_000, PriceChangePercent: 4.5},
	{Symbol: "SOL/USDC", QuoteVolume: 50_000_000, PriceChangePercent: -2.1},
	{Symbol: "DOGE/USDC", QuoteVolume: 5_000_000, PriceChangePercent: 9.9},
	{Symbol: "BTC/USDT", QuoteVolume: 900_000_000, PriceChangePercent: 1.3},
}

func symbols(ms []exchange.MarketSummary) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.Symbol
	}
	return out
}

func TestSelectFiltersQuoteAndVolume(t *testing.T) {
	got := Select(testMarkets, "USDC", 10_000_000, 10, RankByVolume)

	want := []string{"BTC/USDC", "ETH/USDC", "SOL/USDC"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", symbols(got), want)
	}
	for i, sym := range want {
		if got[i].Symbol != sym {
			t.Errorf("position %d: got %s, want %s", i, got[i].Symbol, sym)
		}
	}
}

func TestSelectRankByChange(t *testing.T) {
	got := Select(testMarkets, "USDC", 10_000_000, 10, RankByChange)

	want := []string{"ETH/USDC", "BTC/USDC", "SOL/USDC"}
	for i, sym := range want {
		if got[i].Symbol != sym {
			t.Errorf("position %d: got %s, want %s", i, got[i].Symbol, sym)
		}
	}
}

func TestSelectTruncatesToTopN(t *testing.T) {
	got := Select(testMarkets, "USDC", 0, 2, RankByVolume)
	if len(got) != 2 {
		t.Fatalf("got %d markets, want 2", len(got))
	}
	if got[0].Symbol != "BTC/USDC" || got[1].Symbol != "ETH/USDC" {
		t.Errorf("unexpected top markets: %v", symbols(got))
	}
}

func TestSelectEmptyResultIsNotAnError(t *testing.T) {
	got := Select(testMarkets, "USDC", 1_000_000_000, 10, RankByVolume)
	if len(got) != 0 {
		t.Errorf("expected no markets above the volume floor, got %v", symbols(got))
	}

	got = Select(nil, "USDC", 0, 10, RankByVolume)
	if len(got) != 0 {
		t.Errorf("expected no markets from nil input, got %v", symbols(got))
	}
}

func TestSelectVolumeFloorIsExclusive(t *testing.T) {
	markets := []exchange.MarketSummary{{Symbol: "AAA/USDC", QuoteVolume: 100}}
	if got := Select(markets, "USDC", 100, 10, RankByVolume); len(got) != 0 {
		t.Errorf("volume equal to the floor must not qualify, got %v", symbols(got))
	}
}

func TestParseRankBy(t *testing.T) {
	cases := map[string]RankBy{
		"change":  RankByChange,
		"CHANGE":  RankByChange,
		"volume":  RankByVolume,
		"":        RankByVolume,
		"bogus":   RankByVolume,
		"Volume ": RankByVolume,
	}
	for in, want := range cases {
		if got := ParseRankBy(in); got != want {
			t.Errorf("ParseRankBy(%q) = %q, want %q", in, got, want)
		}
	}
}
