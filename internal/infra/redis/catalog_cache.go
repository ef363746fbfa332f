package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"smart-board-game/internal/app"
	"smart-board-game/internal/domain"
)

const (
	roundsKey    = "catalog:rounds"
	questionsKey = "catalog:questions"
)

// CatalogCache keeps round and question listings in Redis as JSON blobs and
// falls back to the wrapped repository on a miss. Writes go through and
// delete the affected key.
type CatalogCache struct {
	app.CatalogRepository

	client *redis.Client
	ttl    time.Duration
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewCatalogCache(client *redis.Client, inner app.CatalogRepository, ttl time.Duration) *CatalogCache {
	return &CatalogCache{
		CatalogRepository: inner,
		client:            client,
		ttl:               ttl,
		rnd:               rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *CatalogCache) ListRounds(ctx context.Context) ([]domain.Round, error) {
	return cachedList(c, ctx, roundsKey, c.CatalogRepository.ListRounds)
}

func (c *CatalogCache) ListQuestions(ctx context.Context) ([]domain.Question, error) {
	return cachedList(c, ctx, questionsKey, c.CatalogRepository.ListQuestions)
}

func (c *CatalogCache) CreateRound(ctx context.Context, round domain.Round) (domain.Round, error) {
	defer c.drop(ctx, roundsKey)
	return c.CatalogRepository.CreateRound(ctx, round)
}

func (c *CatalogCache) DeleteRound(ctx context.Context, roundID string) error {
	defer c.drop(ctx, roundsKey)
	return c.CatalogRepository.DeleteRound(ctx, roundID)
}

func (c *CatalogCache) CreateQuestion(ctx context.Context, question domain.Question) (domain.Question, error) {
	defer c.drop(ctx, questionsKey)
	return c.CatalogRepository.CreateQuestion(ctx, question)
}

func (c *CatalogCache) DeleteQuestion(ctx context.Context, questionID string) error {
	defer c.drop(ctx, questionsKey)
	return c.CatalogRepository.DeleteQuestion(ctx, questionID)
}

func cachedList[T any](c *CatalogCache, ctx context.Context, key string, load func(context.Context) ([]T, error)) ([]T, error) {
	if items, ok := readList[T](ctx, c.client, key); ok {
		return items, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another caller filled it.
		if items, ok := readList[T](ctx, c.client, key); ok {
			return items, nil
		}
		items, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if items == nil {
			items = []T{}
		}
		if raw, err := json.Marshal(items); err == nil {
			_ = c.client.Set(ctx, key, raw, c.ttlWithJitter()).Err()
		}
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return append([]T{}, result.([]T)...), nil
}

// readList treats any Redis or decode failure as a miss.
func readList[T any](ctx context.Context, client *redis.Client, key string) ([]T, bool) {
	raw, err := client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}
	return items, true
}

func (c *CatalogCache) drop(ctx context.Context, key string) {
	_ = c.client.Del(ctx, key).Err()
}

func (c *CatalogCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
