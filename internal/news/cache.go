package news

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/pkg/redis"
)

const keyPrefix = "news:"

// KV is the subset of the redis client the cache uses.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

// Cache stores unscored feed results per normalized query. Scores are never
// cached, so a promotion is visible on the next search without invalidation.
// Concurrent misses for one query share a single upstream fetch.
type Cache struct {
	next    Fetcher
	kv      KV
	ttl     time.Duration
	group   singleflight.Group
	metrics *metrics.Metrics
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
}

func NewCache(next Fetcher, kv KV, ttl time.Duration, m *metrics.Metrics) *Cache {
	return &Cache{
		next:    next,
		kv:      kv,
		ttl:     ttl,
		metrics: m,
		logger:  slog.Default().With("component", "news-cache"),
	}
}

func (c *Cache) get(ctx context.Context, key string) ([]Article, bool) {
	data, err := c.kv.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, pkgredis.ErrMiss) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		return nil, false
	}
	var articles []Article
	if err := json.Unmarshal(data, &articles); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		return nil, false
	}
	return articles, true
}

func (c *Cache) set(ctx context.Context, key string, articles []Article) {
	data, err := json.Marshal(articles)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.kv.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

func (c *Cache) recordHit(hit bool) {
	if hit {
		c.hits.Add(1)
		if c.metrics != nil {
			c.metrics.CacheHitsTotal.Inc()
		}
		return
	}
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
}

// Search serves query from the cache, falling back to the wrapped Fetcher.
// Cache failures degrade to a direct fetch.
func (c *Cache) Search(ctx context.Context, query string) ([]Article, error) {
	key := buildKey(query)
	if articles, ok := c.get(ctx, key); ok {
		c.recordHit(true)
		return articles, nil
	}
	c.recordHit(false)
	val, err, _ := c.group.Do(key, func() (any, error) {
		if articles, ok := c.get(ctx, key); ok {
			return articles, nil
		}
		articles, err := c.next.Search(ctx, query)
		if err != nil {
			return nil, err
		}
		c.set(ctx, key, articles)
		return articles, nil
	})
	if err != nil {
		return nil, err
	}
	articles := val.([]Article)
	// Callers may rewrite fields; never hand out the shared slice.
	return append([]Article(nil), articles...), nil
}

// Invalidate drops every cached feed.
func (c *Cache) Invalidate(ctx context.Context) (int64, error) {
	deleted, err := c.kv.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return deleted, fmt.Errorf("invalidating news cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return deleted, nil
}

func (c *Cache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func buildKey(query string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(query)), " ")
	hash := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}
