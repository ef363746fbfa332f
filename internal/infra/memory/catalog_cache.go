package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"smart-board-game/internal/app"
	"smart-board-game/internal/domain"
)

// CatalogCache caches round and question listings with a TTL to avoid
// repeated backing-store hits. Writes go straight through and drop the
// affected listing.
type CatalogCache struct {
	app.CatalogRepository

	ttl   time.Duration
	clock func() time.Time
	sf    singleflight.Group
	rnd   *rand.Rand

	mu        sync.Mutex
	rounds    cachedList[domain.Round]
	questions cachedList[domain.Question]
}

type cachedList[T any] struct {
	items     []T
	expiresAt time.Time
}

func NewCatalogCache(inner app.CatalogRepository, ttl time.Duration) *CatalogCache {
	return &CatalogCache{
		CatalogRepository: inner,
		ttl:               ttl,
		clock:             time.Now,
		rnd:               rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *CatalogCache) ListRounds(ctx context.Context) ([]domain.Round, error) {
	return cachedLoad(c, ctx, "rounds", &c.rounds, c.CatalogRepository.ListRounds)
}

func (c *CatalogCache) ListQuestions(ctx context.Context) ([]domain.Question, error) {
	return cachedLoad(c, ctx, "questions", &c.questions, c.CatalogRepository.ListQuestions)
}

func (c *CatalogCache) CreateRound(ctx context.Context, round domain.Round) (domain.Round, error) {
	defer c.dropRounds()
	return c.CatalogRepository.CreateRound(ctx, round)
}

func (c *CatalogCache) DeleteRound(ctx context.Context, roundID string) error {
	defer c.dropRounds()
	return c.CatalogRepository.DeleteRound(ctx, roundID)
}

func (c *CatalogCache) CreateQuestion(ctx context.Context, question domain.Question) (domain.Question, error) {
	defer c.dropQuestions()
	return c.CatalogRepository.CreateQuestion(ctx, question)
}

func (c *CatalogCache) DeleteQuestion(ctx context.Context, questionID string) error {
	defer c.dropQuestions()
	return c.CatalogRepository.DeleteQuestion(ctx, questionID)
}

func cachedLoad[T any](c *CatalogCache, ctx context.Context, key string, entry *cachedList[T], load func(context.Context) ([]T, error)) ([]T, error) {
	c.mu.Lock()
	if entry.items != nil && entry.expiresAt.After(c.clock()) {
		items := append([]T{}, entry.items...)
		c.mu.Unlock()
		return items, nil
	}
	c.mu.Unlock()

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		items, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if items == nil {
			items = []T{}
		}
		c.mu.Lock()
		entry.items = items
		entry.expiresAt = c.clock().Add(c.ttlWithJitter())
		c.mu.Unlock()
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return append([]T{}, result.([]T)...), nil
}

func (c *CatalogCache) dropRounds() {
	c.mu.Lock()
	c.rounds = cachedList[domain.Round]{}
	c.mu.Unlock()
}

func (c *CatalogCache) dropQuestions() {
	c.mu.Lock()
	c.questions = cachedList[domain.Question]{}
	c.mu.Unlock()
}

// ttlWithJitter adds up to 10% jitter to spread expirations. Callers hold c.mu.
func (c *CatalogCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
