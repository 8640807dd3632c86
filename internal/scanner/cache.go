package scanner

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"crypto-signal-bot/internal/exchange"
)

// CandleCache caches fetched candle windows in Redis so back-to-back cycles
// within the same timeframe bucket do not refetch unchanged history. The
// cache degrades gracefully: with no Redis client, or on any Redis error,
// lookups miss and the caller fetches from the exchange directly.
type CandleCache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewCandleCache creates a candle cache. client may be nil to disable
// caching entirely.
func NewCandleCache(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *CandleCache {
	return &CandleCache{
		client: client,
		ttl:    ttl,
		logger: logger.With().Str("component", "candle_cache").Logger(),
	}
}

// Get returns a cached window, or nil on miss.
func (c *CandleCache) Get(ctx context.Context, symbol, interval string, limit int) []exchange.Candle {
	if c == nil || c.client == nil {
		return nil
	}

	raw, err := c.client.Get(ctx, candleKey(symbol, interval, limit)).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Debug().Err(err).Str("symbol", symbol).Msg("cache lookup failed")
		}
		return nil
	}

	var candles []exchange.Candle
	if err := json.Unmarshal([]byte(raw), &candles); err != nil {
		return nil
	}
	return candles
}

// Set stores a window best effort.
func (c *CandleCache) Set(ctx context.Context, symbol, interval string, limit int, candles []exchange.Candle) {
	if c == nil || c.client == nil {
		return
	}

	raw, err := json.Marshal(candles)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, candleKey(symbol, interval, limit), raw, c.ttl).Err(); err != nil {
		c.logger.Debug().Err(err).Str("symbol", symbol).Msg("cache store failed")
	}
}

func candleKey(symbol, interval string, limit int) string {
	return fmt.Sprintf("candles:%s:%s:%d", symbol, interval, limit)
}
