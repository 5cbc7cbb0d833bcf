package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quiz-progression-service/internal/catalog"
	"quiz-progression-service/internal/domain"
)

// CatalogCache caches the quiz catalog in Redis and falls back to the wrapped
// source on a miss. The catalog is stored as one JSON string:
//
//	SET {prefix}catalog {json} EX ttl
type CatalogCache struct {
	client *redis.Client
	source catalog.Source
	prefix string
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewCatalogCache(client *redis.Client, source catalog.Source, prefix string, ttl time.Duration) *CatalogCache {
	return &CatalogCache{
		client: client,
		source: source,
		prefix: prefix,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *CatalogCache) LoadQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	if quizzes, ok := c.cached(ctx); ok {
		return quizzes, nil
	}

	result, err, _ := c.sf.Do("catalog", func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if quizzes, ok := c.cached(ctx); ok {
			return quizzes, nil
		}

		quizzes, err := c.source.LoadQuizzes(ctx)
		if err != nil {
			return nil, err
		}
		if raw, err := json.Marshal(quizzes); err == nil {
			_ = c.client.Set(ctx, c.key(), raw, c.ttlWithJitter()).Err()
		}
		return quizzes, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Quiz), nil
}

// Invalidate drops the cached catalog so the next load hits the source.
func (c *CatalogCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, c.key()).Err()
}

func (c *CatalogCache) cached(ctx context.Context) ([]domain.Quiz, bool) {
	raw, err := c.client.Get(ctx, c.key()).Bytes()
	if err != nil {
		return nil, false
	}
	var quizzes []domain.Quiz
	if err := json.Unmarshal(raw, &quizzes); err != nil {
		return nil, false
	}
	return quizzes, true
}

func (c *CatalogCache) key() string {
	return c.prefix + "catalog"
}

func (c *CatalogCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
