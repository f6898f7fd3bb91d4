package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"brainbuster-service/internal/app"
	"brainbuster-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const versionKey = "sp:pool:version"

// QuestionCache caches sampling pools in Redis and falls back to a source on cache miss.
// Pools are stored as JSON under sp:pool:{version}:{query}; Invalidate bumps the version so
// every instance sharing the Redis stops reading old pools, which then expire on their own.
type QuestionCache struct {
	client *redis.Client
	source app.QuestionSource
	ttl    time.Duration
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewQuestionCache(client *redis.Client, source app.QuestionSource, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		client: client,
		source: source,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuestionCache) Search(ctx context.Context, filter domain.QuestionFilter, page domain.PageRequest) (domain.Page[domain.Question], error) {
	version, err := c.version(ctx)
	if err != nil {
		// Redis down: serve from the source.
		log.Printf("question cache version: %v", err)
		return c.source.Search(ctx, filter, page)
	}
	key := c.poolKey(version, filter, page)

	if p, ok := c.read(ctx, key); ok {
		return p, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if p, ok := c.read(ctx, key); ok {
			return p, nil
		}

		p, err := c.source.Search(ctx, filter, page)
		if err != nil {
			return domain.Page[domain.Question]{}, fmt.Errorf("load questions: %w", err)
		}
		if c.ttl > 0 {
			c.write(ctx, key, p)
		}
		return p, nil
	})
	if err != nil {
		return domain.Page[domain.Question]{}, err
	}
	return result.(domain.Page[domain.Question]), nil
}

// Invalidate makes every cached pool unreachable.
func (c *QuestionCache) Invalidate(ctx context.Context) error {
	return c.client.Incr(ctx, versionKey).Err()
}

func (c *QuestionCache) version(ctx context.Context) (int64, error) {
	v, err := c.client.Get(ctx, versionKey).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(v, 10, 64)
}

func (c *QuestionCache) read(ctx context.Context, key string) (domain.Page[domain.Question], bool) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return domain.Page[domain.Question]{}, false
	}
	var p domain.Page[domain.Question]
	if err := json.Unmarshal(raw, &p); err != nil {
		log.Printf("question cache: drop corrupt entry %s: %v", key, err)
		_ = c.client.Del(ctx, key).Err()
		return domain.Page[domain.Question]{}, false
	}
	return p, true
}

func (c *QuestionCache) write(ctx context.Context, key string, p domain.Page[domain.Question]) {
	raw, err := json.Marshal(p)
	if err != nil {
		log.Printf("question cache: encode %s: %v", key, err)
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttlWithJitter()).Err(); err != nil {
		log.Printf("question cache: write %s: %v", key, err)
	}
}

func (c *QuestionCache) poolKey(version int64, f domain.QuestionFilter, p domain.PageRequest) string {
	return fmt.Sprintf("sp:pool:%d:%q|%q|%q|%q|%d|%d|%q", version, f.Category, f.Difficulty, f.Type, f.Text, p.Page, p.Size, p.Sort)
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
