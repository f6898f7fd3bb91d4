package memory

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"brainbuster-service/internal/app"
	"brainbuster-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// QuestionCache caches search results of a slower source with TTL to avoid repeated DB
// hits while sampling. Concurrent misses for the same query share one load.
type QuestionCache struct {
	source app.QuestionSource
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand

	mu    sync.RWMutex
	gen   uint64
	cache map[string]cachedPage
}

type cachedPage struct {
	page      domain.Page[domain.Question]
	expiresAt time.Time
}

func NewQuestionCache(source app.QuestionSource, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		source: source,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedPage),
	}
}

// WithClock is test-only.
func (c *QuestionCache) WithClock(clock func() time.Time) *QuestionCache {
	c.clock = clock
	return c
}

func (c *QuestionCache) Search(ctx context.Context, filter domain.QuestionFilter, page domain.PageRequest) (domain.Page[domain.Question], error) {
	key := cacheKey(filter, page)
	if p, ok := c.lookup(key); ok {
		return p, nil
	}

	c.mu.RLock()
	gen := c.gen
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(fmt.Sprintf("%d|%s", gen, key), func() (interface{}, error) {
		// Re-check in case another goroutine filled it.
		if p, ok := c.lookup(key); ok {
			return p, nil
		}

		p, err := c.source.Search(ctx, filter, page)
		if err != nil {
			return domain.Page[domain.Question]{}, err
		}

		c.mu.Lock()
		// an Invalidate during the load means p may be stale; serve it but do not keep it
		if c.gen == gen && c.ttl > 0 {
			c.cache[key] = cachedPage{page: p, expiresAt: c.clock().Add(c.ttlWithJitter())}
		}
		c.mu.Unlock()
		return p, nil
	})
	if err != nil {
		return domain.Page[domain.Question]{}, err
	}
	return result.(domain.Page[domain.Question]), nil
}

// Invalidate drops every cached page.
func (c *QuestionCache) Invalidate(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.cache = make(map[string]cachedPage)
	return nil
}

func (c *QuestionCache) lookup(key string) (domain.Page[domain.Question], bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.cache[key]
	if !ok || !entry.expiresAt.After(c.clock()) {
		return domain.Page[domain.Question]{}, false
	}
	return entry.page, true
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

func cacheKey(f domain.QuestionFilter, p domain.PageRequest) string {
	return fmt.Sprintf("%q|%q|%q|%q|%d|%d|%q", f.Category, f.Difficulty, f.Type, f.Text, p.Page, p.Size, p.Sort)
}
