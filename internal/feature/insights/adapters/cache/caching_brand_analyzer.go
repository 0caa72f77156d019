// Package cache provides caching implementations for insights interfaces.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"inimage_backend/internal/feature/insights/usecase"
)

// CachingBrandAnalyzer decorates a BrandAnalyzer with Redis caching.
// Summaries for the same prompt are served from Redis until the TTL expires.
type CachingBrandAnalyzer struct {
	inner     usecase.BrandAnalyzer
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

var _ usecase.BrandAnalyzer = (*CachingBrandAnalyzer)(nil)

// NewCachingBrandAnalyzer decorates a BrandAnalyzer with Redis caching.
// If ttl is 0, it defaults to 24 hours. If namespace is empty, it uses "brand_analysis".
func NewCachingBrandAnalyzer(rdb *redis.Client, ttl time.Duration, inner usecase.BrandAnalyzer, namespace string) *CachingBrandAnalyzer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if namespace == "" {
		namespace = "brand_analysis"
	}
	return &CachingBrandAnalyzer{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

// Analyze returns the cached summary for the prompt, or generates and caches a new one.
func (c *CachingBrandAnalyzer) Analyze(ctx context.Context, prompt string) (string, error) {
	// Bypass cache if Redis is not configured
	if c.rdb == nil {
		return c.inner.Analyze(ctx, prompt)
	}

	key := c.cacheKey(prompt)

	// 1) Check cache
	if s, err := c.rdb.Get(ctx, key).Result(); err == nil && s != "" {
		return s, nil
	} else if err != nil && !errors.Is(err, redis.Nil) {
		slog.Warn("brand analysis cache read failed", "key", key, "error", err)
	}

	// 2) Fallback to the analyzer
	summary, err := c.inner.Analyze(ctx, prompt)
	if err != nil {
		return "", err
	}

	// 3) Store in cache (best effort)
	if err := c.rdb.Set(ctx, key, summary, c.ttl).Err(); err != nil {
		slog.Warn("brand analysis cache write failed", "key", key, "error", err)
	}

	return summary, nil
}

// cacheKey generates a cache key for a prompt.
func (c *CachingBrandAnalyzer) cacheKey(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return c.namespace + ":" + hex.EncodeToString(sum[:16])
}
