// Package cache is a Redis read-through decorator for search backends.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"query-planner/internal/common/logger"
	"query-planner/internal/common/metrics"
	"query-planner/internal/models"
	"query-planner/internal/search"

	"github.com/redis/go-redis/v9"
)

const (
	modeKeyword   = "keyword"
	modeEmbedding = "embedding"
)

// Backend caches successful results of the wrapped backend. Failures are
// never cached, and Redis trouble only costs a cache miss.
type Backend struct {
	inner  search.Backend
	redis  redis.Cmdable
	ttl    time.Duration
	logger logger.Logger
}

func New(inner search.Backend, rdb redis.Cmdable, ttl time.Duration, log logger.Logger) *Backend {
	return &Backend{
		inner:  inner,
		redis:  rdb,
		ttl:    ttl,
		logger: log.With(map[string]interface{}{"backend": inner.Name(), "component": "search-cache"}),
	}
}

func (b *Backend) Name() string { return b.inner.Name() }

func (b *Backend) Search(ctx context.Context, query string, ds models.DataSource) ([]string, error) {
	return b.lookup(ctx, modeKeyword, query, ds, b.inner.Search)
}

func (b *Backend) SearchWithEmbedding(ctx context.Context, query string, ds models.DataSource) ([]string, error) {
	return b.lookup(ctx, modeEmbedding, query, ds, b.inner.SearchWithEmbedding)
}

type searchFunc func(ctx context.Context, query string, ds models.DataSource) ([]string, error)

func (b *Backend) lookup(ctx context.Context, mode, query string, ds models.DataSource, fetch searchFunc) ([]string, error) {
	key := Key(b.inner.Name(), mode, ds, query)

	val, err := b.redis.Get(ctx, key).Result()
	switch {
	case err == nil:
		var cached []string
		if jsonErr := json.Unmarshal([]byte(val), &cached); jsonErr == nil {
			metrics.SearchCacheRequests.WithLabelValues("hit").Inc()
			return cached, nil
		}
		metrics.SearchCacheRequests.WithLabelValues("error").Inc()
	case errors.Is(err, redis.Nil):
		metrics.SearchCacheRequests.WithLabelValues("miss").Inc()
	default:
		metrics.SearchCacheRequests.WithLabelValues("error").Inc()
		b.logger.Warn("cache read failed", map[string]interface{}{"error": err})
	}

	results, err := fetch(ctx, query, ds)
	if err != nil {
		return nil, err
	}

	data, _ := json.Marshal(results)
	if err := b.redis.Set(ctx, key, data, b.ttl).Err(); err != nil {
		b.logger.Warn("cache write failed", map[string]interface{}{"error": err})
	}
	return results, nil
}

// Key builds the cache key; the query is hashed to bound key length.
func Key(backend, mode string, ds models.DataSource, query string) string {
	sum := sha256.Sum256([]byte(query))
	return "planner:search:" + backend + ":" + mode + ":" + string(ds.OrDefault()) + ":" + hex.EncodeToString(sum[:])
}
