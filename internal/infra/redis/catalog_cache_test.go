package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"smart-board-game/internal/domain"
	"smart-board-game/internal/infra/memory"
)

func TestCatalogCacheStoresListingsInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	repo := &countingRepository{CatalogRepository: memory.NewCatalogRepository(sampleRounds(), nil)}
	cache := NewCatalogCache(newClient(mr), repo, time.Minute)
	ctx := context.Background()

	if _, err := cache.ListRounds(ctx); err != nil {
		t.Fatalf("list rounds: %v", err)
	}
	if repo.roundLists != 1 {
		t.Fatalf("expected loader called once, got %d", repo.roundLists)
	}
	if !mr.Exists(roundsKey) {
		t.Fatalf("expected %s to be cached", roundsKey)
	}

	// Second call should hit cache, loader not incremented.
	rounds, err := cache.ListRounds(ctx)
	if err != nil {
		t.Fatalf("list rounds 2: %v", err)
	}
	if repo.roundLists != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", repo.roundLists)
	}
	if len(rounds) != 1 || rounds[0].QuestionCounts[domain.C1] != 2 {
		t.Fatalf("unexpected cached rounds %+v", rounds)
	}

	mr.FastForward(2 * time.Minute)
	_, _ = cache.ListRounds(ctx)
	if repo.roundLists != 2 {
		t.Fatalf("expected reload after ttl, loader calls=%d", repo.roundLists)
	}
}

func TestCatalogCacheDropsKeyOnWrite(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	repo := memory.NewCatalogRepository(nil, nil)
	cache := NewCatalogCache(newClient(mr), repo, time.Minute)
	ctx := context.Background()

	if _, err := cache.ListQuestions(ctx); err != nil {
		t.Fatalf("list questions: %v", err)
	}
	created, err := cache.CreateQuestion(ctx, domain.Question{
		Category:    domain.C3,
		Type:        domain.TypeEssay,
		Prompt:      "Kas bertambah dicatat di sisi?",
		EssayAnswer: "debit",
		TimeLimit:   60,
		Points:      150,
	})
	if err != nil {
		t.Fatalf("create question: %v", err)
	}
	if mr.Exists(questionsKey) {
		t.Fatalf("expected %s to be dropped after write", questionsKey)
	}

	questions, err := cache.ListQuestions(ctx)
	if err != nil {
		t.Fatalf("list questions 2: %v", err)
	}
	if len(questions) != 1 || questions[0].ID != created.ID {
		t.Fatalf("expected the new question, got %+v", questions)
	}
}

func TestCatalogCacheFallsBackWhenRedisIsDown(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	client := newClient(mr)
	mr.Close()

	cache := NewCatalogCache(client, memory.NewCatalogRepository(sampleRounds(), nil), time.Minute)
	rounds, err := cache.ListRounds(context.Background())
	if err != nil {
		t.Fatalf("list rounds: %v", err)
	}
	if len(rounds) != 1 {
		t.Fatalf("expected rounds from the repository, got %d", len(rounds))
	}
}

type countingRepository struct {
	*memory.CatalogRepository
	roundLists int
}

func (r *countingRepository) ListRounds(ctx context.Context) ([]domain.Round, error) {
	r.roundLists++
	return r.CatalogRepository.ListRounds(ctx)
}

func sampleRounds() []domain.Round {
	return []domain.Round{{
		ID:             "round1",
		Name:           "Babak 1 - Dasar Akuntansi",
		QuestionCounts: map[domain.Category]int{domain.C1: 2, domain.C2: 2, domain.C3: 2},
		TotalQuestions: 6,
	}}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
