package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"smart-board-game/internal/domain"
)

// CatalogRepository keeps rounds and questions in memory and assigns UUIDs on
// create, like the database does. Useful for tests and demos.
type CatalogRepository struct {
	mu        sync.RWMutex
	rounds    []domain.Round
	questions []domain.Question
}

func NewCatalogRepository(rounds []domain.Round, questions []domain.Question) *CatalogRepository {
	return &CatalogRepository{
		rounds:    append([]domain.Round(nil), rounds...),
		questions: append([]domain.Question(nil), questions...),
	}
}

func (r *CatalogRepository) ListRounds(_ context.Context) ([]domain.Round, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.Round{}, r.rounds...), nil
}

func (r *CatalogRepository) CreateRound(_ context.Context, round domain.Round) (domain.Round, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	round.ID = uuid.NewString()
	r.rounds = append(r.rounds, round)
	return round, nil
}

func (r *CatalogRepository) DeleteRound(_ context.Context, roundID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, round := range r.rounds {
		if round.ID == roundID {
			r.rounds = append(r.rounds[:i:i], r.rounds[i+1:]...)
			return nil
		}
	}
	return domain.ErrRoundNotFound
}

func (r *CatalogRepository) ListQuestions(_ context.Context) ([]domain.Question, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.Question{}, r.questions...), nil
}

func (r *CatalogRepository) CreateQuestion(_ context.Context, question domain.Question) (domain.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	question.ID = uuid.NewString()
	r.questions = append(r.questions, question)
	return question, nil
}

func (r *CatalogRepository) DeleteQuestion(_ context.Context, questionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, q := range r.questions {
		if q.ID == questionID {
			r.questions = append(r.questions[:i:i], r.questions[i+1:]...)
			return nil
		}
	}
	return domain.ErrQuestionNotFound
}
