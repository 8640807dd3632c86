package main

import (
	"context"
	"os"
	ossignal "os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"crypto-signal-bot/config"
	"crypto-signal-bot/internal/api"
	"crypto-signal-bot/internal/bracket"
	"crypto-signal-bot/internal/database"
	"crypto-signal-bot/internal/exchange"
	"crypto-signal-bot/internal/notification"
	"crypto-signal-bot/internal/scanner"
	"crypto-signal-bot/internal/screener"
	"crypto-signal-bot/internal/signal"
	"crypto-signal-bot/internal/vault"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		l := zerolog.New(os.Stderr)
		l.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger := newLogger(cfg.LoggingConfig)
	logger.Info().Msg("starting crypto signal bot")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Vault, when enabled, overrides the environment-provided credentials.
	apiKey, secretKey := cfg.BinanceConfig.APIKey, cfg.BinanceConfig.SecretKey
	if cfg.VaultConfig.Enabled {
		vc, err := vault.NewClient(vault.Config{
			Enabled:    true,
			Address:    cfg.VaultConfig.Address,
			Token:      cfg.VaultConfig.Token,
			MountPath:  cfg.VaultConfig.MountPath,
			SecretPath: cfg.VaultConfig.SecretPath,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create vault client")
		}
		apiKey, secretKey, err = vc.ReadAPIKey(ctx)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to read exchange credentials from vault")
		}
		logger.Info().Msg("exchange credentials loaded from vault")
	}

	ex := exchange.NewBinance(apiKey, secretKey, logger)

	var redisClient *redis.Client
	if cfg.RedisConfig.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisConfig.Address,
			Password: cfg.RedisConfig.Password,
			DB:       cfg.RedisConfig.DB,
		})
		pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			logger.Warn().Err(err).Msg("redis unreachable, candle caching disabled")
			redisClient = nil
		}
		pingCancel()
	}
	candleCache := scanner.NewCandleCache(redisClient, cfg.RedisConfig.CandleTTL, logger)

	var repo *database.Repository
	var db *database.DB
	if cfg.DatabaseConfig.Enabled {
		db, err = database.NewDB(ctx, database.Config{
			Enabled:  true,
			Host:     cfg.DatabaseConfig.Host,
			Port:     cfg.DatabaseConfig.Port,
			User:     cfg.DatabaseConfig.User,
			Password: cfg.DatabaseConfig.Password,
			Database: cfg.DatabaseConfig.Database,
			SSLMode:  cfg.DatabaseConfig.SSLMode,
		}, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("database unreachable, execution journal disabled")
		} else {
			repo = database.NewRepository(db)
		}
	}

	notifier := notification.NewManager()
	telegram, err := notification.NewTelegramNotifier(notification.TelegramConfig{
		Enabled:  cfg.NotificationConfig.TelegramEnabled,
		BotToken: cfg.NotificationConfig.TelegramBotToken,
		ChatID:   cfg.NotificationConfig.TelegramChatID,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create telegram notifier")
	}
	discord := notification.NewDiscordNotifier(notification.DiscordConfig{
		Enabled:    cfg.NotificationConfig.DiscordEnabled,
		WebhookURL: cfg.NotificationConfig.DiscordWebhook,
	})
	for _, n := range []notification.Notifier{telegram, discord} {
		notifier.AddNotifier(n)
		if n.IsEnabled() {
			logger.Info().Str("notifier", n.Name()).Msg("notifier enabled")
		}
	}

	detectors := signal.Build(signal.Config{
		VolumeSpikeFactor: cfg.SignalConfig.VolumeSpikeFactor,
		PriceSpikeFactor:  cfg.SignalConfig.PriceSpikeFactor,
		TrendMinSlope:     cfg.SignalConfig.TrendMinSlope,
		TrendMinR2:        cfg.SignalConfig.TrendMinR2,
	}, cfg.ScannerConfig.Detectors, logger)
	logger.Info().
		Strs("detectors", cfg.ScannerConfig.Detectors).
		Msg("detector chain built")

	scan := scanner.NewScanner(ex, detectors, notifier, candleCache, scanner.Config{
		Enabled:        cfg.ScannerConfig.Enabled,
		ScanInterval:   cfg.ScannerConfig.ScanInterval,
		QuoteCurrency:  cfg.ScreenerConfig.QuoteCurrency,
		MinVolume:      cfg.ScreenerConfig.MinVolume24h,
		TopMarkets:     cfg.ScreenerConfig.TopMarkets,
		RankBy:         screener.ParseRankBy(cfg.ScreenerConfig.RankBy),
		Interval:       cfg.ScannerConfig.Interval,
		HistoryLimit:   cfg.ScannerConfig.HistoryLimit,
		WebhookBaseURL: cfg.ExecutorConfig.WebhookBaseURL,
		WebhookToken:   cfg.ExecutorConfig.WebhookToken,
	}, logger)
	scan.Start()

	executor := bracket.NewExecutor(ex, repo, bracket.ExecutorConfig{
		OrderAmount:      cfg.ExecutorConfig.OrderAmount,
		TakeProfitFactor: cfg.ExecutorConfig.TakeProfitFactor,
		StopLossFactor:   cfg.ExecutorConfig.StopLossFactor,
	}, logger)

	server := api.NewServer(api.ServerConfig{
		Host:           cfg.ServerConfig.Host,
		Port:           cfg.ServerConfig.Port,
		WebhookToken:   cfg.ExecutorConfig.WebhookToken,
		ProductionMode: !strings.EqualFold(cfg.LoggingConfig.Level, "debug"),
	}, scan, executor, repo, logger)
	if err := server.Start(); err != nil {
		logger.Fatal().Err(err).Msg("failed to start api server")
	}

	quit := make(chan os.Signal, 1)
	ossignal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("api server shutdown error")
	}
	scan.Stop()
	if db != nil {
		db.Close()
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	logger.Info().Msg("shutdown complete")
}

func newLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.JSONFormat {
		logger = zerolog.New(os.Stdout)
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}
	return logger.Level(level).With().Timestamp().Logger()
}
