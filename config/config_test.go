package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("WEBHOOK_TOKEN", "test-token")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.ScreenerConfig.QuoteCurrency != "USDC" {
		t.Errorf("quote currency = %s, want USDC", cfg.ScreenerConfig.QuoteCurrency)
	}
	if cfg.ScreenerConfig.MinVolume24h != 10_000_000 {
		t.Errorf("min volume = %v, want 1e7", cfg.ScreenerConfig.MinVolume24h)
	}
	if cfg.ScannerConfig.ScanInterval != time.Minute {
		t.Errorf("scan interval = %v, want 1m", cfg.ScannerConfig.ScanInterval)
	}
	if len(cfg.ScannerConfig.Detectors) != 1 || cfg.ScannerConfig.Detectors[0] != "SpikeVolumeAndPrice" {
		t.Errorf("unexpected default detectors: %v", cfg.ScannerConfig.Detectors)
	}
	if cfg.ExecutorConfig.TakeProfitFactor != 1.025 || cfg.ExecutorConfig.StopLossFactor != 0.9875 {
		t.Errorf("unexpected bracket factors: %v / %v",
			cfg.ExecutorConfig.TakeProfitFactor, cfg.ExecutorConfig.StopLossFactor)
	}
}

func TestLoadRequiresWebhookToken(t *testing.T) {
	t.Setenv("WEBHOOK_TOKEN", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected an error without WEBHOOK_TOKEN")
	}
}

func TestLoadRejectsInvalidFactors(t *testing.T) {
	cases := map[string]string{
		"TAKE_PROFIT_FACTOR":   "0.99",
		"STOP_LOSS_FACTOR":     "1.1",
		"ORDER_AMOUNT":         "-5",
		"CANDLE_HISTORY_COUNT": "1",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv("WEBHOOK_TOKEN", "test-token")
			t.Setenv(key, value)
			if _, err := Load(); err == nil {
				t.Errorf("%s=%s: expected a validation error", key, value)
			}
		})
	}
}

func TestDetectorListParsing(t *testing.T) {
	t.Setenv("WEBHOOK_TOKEN", "test-token")
	t.Setenv("ACTIVE_DETECTORS", "UpsideTrend, SpikeVolumeAndPrice ,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"UpsideTrend", "SpikeVolumeAndPrice"}
	if len(cfg.ScannerConfig.Detectors) != len(want) {
		t.Fatalf("detectors = %v, want %v", cfg.ScannerConfig.Detectors, want)
	}
	for i, name := range want {
		if cfg.ScannerConfig.Detectors[i] != name {
			t.Errorf("detector %d = %s, want %s", i, cfg.ScannerConfig.Detectors[i], name)
		}
	}
}
