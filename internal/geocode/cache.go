package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "geocode:v1:"

// Cache is the subset of the go-redis API the decorator needs.
type Cache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// CachedGeocoder serves repeated lookups from Redis. Only successful lookups
// are cached; cache failures degrade to a direct provider call.
type CachedGeocoder struct {
	next    Geocoder
	cache   Cache
	ttl     time.Duration
	logger  *slog.Logger
	metrics *Metrics
}

// CacheOption configures a CachedGeocoder.
type CacheOption func(*CachedGeocoder)

func WithCacheLogger(logger *slog.Logger) CacheOption {
	return func(c *CachedGeocoder) {
		c.logger = logger
	}
}

func WithCacheMetrics(m *Metrics) CacheOption {
	return func(c *CachedGeocoder) {
		c.metrics = m
	}
}

// NewCachedGeocoder wraps next with a Redis cache.
func NewCachedGeocoder(next Geocoder, cache Cache, ttl time.Duration, opts ...CacheOption) *CachedGeocoder {
	c := &CachedGeocoder{next: next, cache: cache, ttl: ttl}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *CachedGeocoder) Geocode(ctx context.Context, address string) ([]Result, error) {
	key := cacheKeyPrefix + normalizeAddress(address)

	raw, err := c.cache.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var results []Result
		if jsonErr := json.Unmarshal(raw, &results); jsonErr == nil && len(results) > 0 {
			c.observe(true)
			return results, nil
		}
		c.warn(ctx, "discarding undecodable geocode cache entry", key, nil)
	case !errors.Is(err, redis.Nil):
		c.warn(ctx, "geocode cache read failed", key, err)
	}
	c.observe(false)

	results, err := c.next.Geocode(ctx, address)
	if err != nil {
		return nil, err
	}

	if encoded, jsonErr := json.Marshal(results); jsonErr == nil {
		if setErr := c.cache.Set(ctx, key, encoded, c.ttl).Err(); setErr != nil {
			c.warn(ctx, "geocode cache write failed", key, setErr)
		}
	}
	return results, nil
}

func (c *CachedGeocoder) observe(hit bool) {
	if c.metrics == nil {
		return
	}
	if hit {
		c.metrics.CacheHits.Inc()
	} else {
		c.metrics.CacheMisses.Inc()
	}
}

func (c *CachedGeocoder) warn(ctx context.Context, msg, key string, err error) {
	if c.logger == nil {
		return
	}
	attrs := []any{"key", key}
	if err != nil {
		attrs = append(attrs, "error", err)
	}
	c.logger.WarnContext(ctx, msg, attrs...)
}
