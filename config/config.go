// Package config loads the process configuration from the environment.
// Every component receives its sub-config explicitly at composition time;
// nothing reads the environment after Load returns.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	BinanceConfig      BinanceConfig
	ScreenerConfig     ScreenerConfig
	ScannerConfig      ScannerConfig
	SignalConfig       SignalConfig
	ExecutorConfig     ExecutorConfig
	NotificationConfig NotificationConfig
	ServerConfig       ServerConfig
	RedisConfig        RedisConfig
	DatabaseConfig     DatabaseConfig
	VaultConfig        VaultConfig
	LoggingConfig      LoggingConfig
}

type BinanceConfig struct {
	APIKey    string
	SecretKey string
}

type ScreenerConfig struct {
	QuoteCurrency string  // "USDC", "USDT", ...
	MinVolume24h  float64 // minimum 24h quote volume
	TopMarkets    int     // max candidates per cycle
	RankBy        string  // "volume" or "change"
}

type ScannerConfig struct {
	Enabled      bool
	ScanInterval time.Duration
	Interval     string // candle timeframe, e.g. "5m"
	HistoryLimit int    // candle window length
	Detectors    []string
}

type SignalConfig struct {
	VolumeSpikeFactor float64
	PriceSpikeFactor  float64
	TrendMinSlope     float64
	TrendMinR2        float64
}

type ExecutorConfig struct {
	OrderAmount      float64 // quote-currency notional per buy
	TakeProfitFactor float64
	StopLossFactor   float64
	WebhookToken     string // shared secret in the webhook path
	WebhookBaseURL   string // public base URL embedded in notifications
}

type NotificationConfig struct {
	TelegramEnabled  bool
	TelegramBotToken string
	TelegramChatID   string
	DiscordEnabled   bool
	DiscordWebhook   string
}

type ServerConfig struct {
	Host string
	Port int
}

type RedisConfig struct {
	Enabled   bool
	Address   string
	Password  string
	DB        int
	CandleTTL time.Duration
}

type DatabaseConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

type VaultConfig struct {
	Enabled    bool
	Address    string
	Token      string
	MountPath  string
	SecretPath string
}

type LoggingConfig struct {
	Level      string // debug, info, warn, error
	JSONFormat bool   // false = console writer
}

// Load reads configuration from the environment, with a best-effort .env
// file first. It fails only on values that make the process unusable.
func Load() (*Config, error) {
	// Missing .env is fine; real deployments export the environment.
	_ = godotenv.Load()

	cfg := &Config{
		BinanceConfig: BinanceConfig{
			APIKey:    getEnvOrDefault("BINANCE_API_KEY", ""),
			SecretKey: getEnvOrDefault("BINANCE_SECRET_KEY", ""),
		},
		ScreenerConfig: ScreenerConfig{
			QuoteCurrency: getEnvOrDefault("QUOTE_CURRENCY", "USDC"),
			MinVolume24h:  getEnvFloatOrDefault("MIN_VOLUME_24H", 10_000_000),
			TopMarkets:    getEnvIntOrDefault("TOP_N_MARKETS", 20),
			RankBy:        getEnvOrDefault("SCREENER_RANK_BY", "volume"),
		},
		ScannerConfig: ScannerConfig{
			Enabled:      getEnvOrDefault("SCANNER_ENABLED", "true") == "true",
			ScanInterval: getEnvDurationOrDefault("SCAN_INTERVAL", time.Minute),
			Interval:     getEnvOrDefault("CANDLE_TIMEFRAME", "5m"),
			HistoryLimit: getEnvIntOrDefault("CANDLE_HISTORY_COUNT", 100),
			Detectors:    splitList(getEnvOrDefault("ACTIVE_DETECTORS", "SpikeVolumeAndPrice")),
		},
		SignalConfig: SignalConfig{
			VolumeSpikeFactor: getEnvFloatOrDefault("VOLUME_SPIKE_FACTOR", 2.0),
			PriceSpikeFactor:  getEnvFloatOrDefault("PRICE_SPIKE_FACTOR", 1.01),
			TrendMinSlope:     getEnvFloatOrDefault("UPSIDE_TREND_MIN_SLOPE", 0.0005),
			TrendMinR2:        getEnvFloatOrDefault("UPSIDE_TREND_MIN_R2", 0.5),
		},
		ExecutorConfig: ExecutorConfig{
			OrderAmount:      getEnvFloatOrDefault("ORDER_AMOUNT", 50),
			TakeProfitFactor: getEnvFloatOrDefault("TAKE_PROFIT_FACTOR", 1.025),
			StopLossFactor:   getEnvFloatOrDefault("STOP_LOSS_FACTOR", 0.9875),
			WebhookToken:     getEnvOrDefault("WEBHOOK_TOKEN", ""),
			WebhookBaseURL:   strings.TrimRight(getEnvOrDefault("WEBHOOK_BASE_URL", "http://localhost:3000"), "/"),
		},
		NotificationConfig: NotificationConfig{
			TelegramEnabled:  getEnvOrDefault("TELEGRAM_ENABLED", "true") == "true",
			TelegramBotToken: getEnvOrDefault("TELEGRAM_BOT_TOKEN", ""),
			TelegramChatID:   getEnvOrDefault("TELEGRAM_CHAT_ID", ""),
			DiscordEnabled:   getEnvOrDefault("DISCORD_ENABLED", "false") == "true",
			DiscordWebhook:   getEnvOrDefault("DISCORD_WEBHOOK_URL", ""),
		},
		ServerConfig: ServerConfig{
			Host: getEnvOrDefault("SERVER_HOST", "0.0.0.0"),
			Port: getEnvIntOrDefault("SERVER_PORT", 3000),
		},
		RedisConfig: RedisConfig{
			Enabled:   getEnvOrDefault("REDIS_ENABLED", "false") == "true",
			Address:   getEnvOrDefault("REDIS_ADDRESS", "localhost:6379"),
			Password:  getEnvOrDefault("REDIS_PASSWORD", ""),
			DB:        getEnvIntOrDefault("REDIS_DB", 0),
			CandleTTL: getEnvDurationOrDefault("REDIS_CANDLE_TTL", 30*time.Second),
		},
		DatabaseConfig: DatabaseConfig{
			Enabled:  getEnvOrDefault("DATABASE_ENABLED", "false") == "true",
			Host:     getEnvOrDefault("DATABASE_HOST", "localhost"),
			Port:     getEnvIntOrDefault("DATABASE_PORT", 5432),
			User:     getEnvOrDefault("DATABASE_USER", "postgres"),
			Password: getEnvOrDefault("DATABASE_PASSWORD", ""),
			Database: getEnvOrDefault("DATABASE_NAME", "signalbot"),
			SSLMode:  getEnvOrDefault("DATABASE_SSLMODE", "disable"),
		},
		VaultConfig: VaultConfig{
			Enabled:    getEnvOrDefault("VAULT_ENABLED", "false") == "true",
			Address:    getEnvOrDefault("VAULT_ADDR", "http://localhost:8200"),
			Token:      getEnvOrDefault("VAULT_TOKEN", ""),
			MountPath:  getEnvOrDefault("VAULT_MOUNT_PATH", "secret"),
			SecretPath: getEnvOrDefault("VAULT_SECRET_PATH", "signal-bot/binance"),
		},
		LoggingConfig: LoggingConfig{
			Level:      getEnvOrDefault("LOG_LEVEL", "info"),
			JSONFormat: getEnvOrDefault("LOG_JSON", "true") == "true",
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.ExecutorConfig.WebhookToken == "" {
		return fmt.Errorf("WEBHOOK_TOKEN must be set")
	}
	if c.ExecutorConfig.OrderAmount <= 0 {
		return fmt.Errorf("ORDER_AMOUNT must be positive, got %v", c.ExecutorConfig.OrderAmount)
	}
	if c.ExecutorConfig.TakeProfitFactor <= 1 {
		return fmt.Errorf("TAKE_PROFIT_FACTOR must be greater than 1, got %v", c.ExecutorConfig.TakeProfitFactor)
	}
	if sl := c.ExecutorConfig.StopLossFactor; sl <= 0 || sl >= 1 {
		return fmt.Errorf("STOP_LOSS_FACTOR must be between 0 and 1, got %v", sl)
	}
	if c.ScannerConfig.HistoryLimit < 2 {
		return fmt.Errorf("CANDLE_HISTORY_COUNT must be at least 2, got %d", c.ScannerConfig.HistoryLimit)
	}
	return nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
