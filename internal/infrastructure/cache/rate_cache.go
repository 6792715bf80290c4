package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/tradeledger/backend/internal/domain/shared/valueobject"
	"go.uber.org/zap"
)

const rateKeyPrefix = "ledger:rate:"

// RateFetcher is the upstream the cache fronts.
type RateFetcher interface {
	FetchRate(ctx context.Context, currency valueobject.CurrencyCode, date time.Time) (decimal.Decimal, bool, error)
}

// RateCache memoizes published rates per (currency, date). Misses and
// upstream failures are never stored, so a rate that appears later is
// picked up on the next lookup. Redis errors degrade to an uncached call.
type RateCache struct {
	next   RateFetcher
	client redis.Cmdable
	ttl    time.Duration
	logger *zap.Logger
}

func NewRateCache(next RateFetcher, client redis.Cmdable, ttl time.Duration, logger *zap.Logger) *RateCache {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateCache{next: next, client: client, ttl: ttl, logger: logger}
}

func rateKey(currency valueobject.CurrencyCode, date time.Time) string {
	day := "latest"
	if !date.IsZero() {
		day = date.Format(time.DateOnly)
	}
	return fmt.Sprintf("%s%s:%s", rateKeyPrefix, currency, day)
}

func (c *RateCache) FetchRate(ctx context.Context, currency valueobject.CurrencyCode, date time.Time) (decimal.Decimal, bool, error) {
	if currency.IsBase() {
		return decimal.NewFromInt(1), true, nil
	}
	key := rateKey(currency, date)

	cached, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		if rate, perr := decimal.NewFromString(cached); perr == nil {
			return rate, true, nil
		}
		c.logger.Warn("discarding unparsable cached rate", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("rate cache read failed", zap.String("key", key), zap.Error(err))
	}

	rate, ok, err := c.next.FetchRate(ctx, currency, date)
	if err != nil || !ok {
		return rate, ok, err
	}

	// latest moves during the day, so it lives for at most an hour
	ttl := c.ttl
	if date.IsZero() && ttl > time.Hour {
		ttl = time.Hour
	}
	if err := c.client.Set(ctx, key, rate.String(), ttl).Err(); err != nil {
		c.logger.Warn("rate cache write failed", zap.String("key", key), zap.Error(err))
	}
	return rate, true, nil
}
