package exchange

import (
	"testing"

	"github.com/adshao/go-binance/v2"
)

func TestRawSymbol(t *testing.T) {
	cases := map[string]string{
		"BTC/USDC":  "BTCUSDC",
		"ETH/USDT":  "ETHUSDT",
		"PEPE/USDC": "PEPEUSDC",
		"BTCUSDC":   "BTCUSDC",
	}
	for unified, raw := range cases {
		if got := rawSymbol(unified); got != raw {
			t.Errorf("rawSymbol(%q) = %q, want %q", unified, got, raw)
		}
	}
}

func TestToCandle(t *testing.T) {
	k := &binance.Kline{
		OpenTime: 1700000000000,
		Open:     "100.50",
		High:     "105.00",
		Low:      "99.25",
		Close:    "104.75",
		Volume:   "1234.5678",
	}

	got := toCandle(k)
	want := Candle{
		OpenTime: 1700000000000,
		Open:     100.50,
		High:     105.00,
		Low:      99.25,
		Close:    104.75,
		Volume:   1234.5678,
	}
	if got != want {
		t.Errorf("toCandle = %+v, want %+v", got, want)
	}
}

func TestToCandleUnparsableFieldsAreZero(t *testing.T) {
	got := toCandle(&binance.Kline{OpenTime: 1, Open: "garbage", Close: ""})
	if got.Open != 0 || got.Close != 0 {
		t.Errorf("unparsable fields must map to zero, got %+v", got)
	}
	if got.OpenTime != 1 {
		t.Errorf("open time = %d, want 1", got.OpenTime)
	}
}
