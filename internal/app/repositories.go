package app

import (
	"context"

	"smart-board-game/internal/domain"
)

// CatalogRepository persists rounds and questions. Create calls may assign a
// new id; callers must use the returned value.
type CatalogRepository interface {
	ListRounds(ctx context.Context) ([]domain.Round, error)
	CreateRound(ctx context.Context, round domain.Round) (domain.Round, error)
	DeleteRound(ctx context.Context, roundID string) error
	ListQuestions(ctx context.Context) ([]domain.Question, error)
	CreateQuestion(ctx context.Context, question domain.Question) (domain.Question, error)
	DeleteQuestion(ctx context.Context, questionID string) error
}

// LeaderboardRepository persists completed players.
type LeaderboardRepository interface {
	ListPlayers(ctx context.Context) ([]domain.Player, error)
	CreatePlayer(ctx context.Context, player domain.Player) (domain.Player, error)
	ClearAll(ctx context.Context) error
}

// AdminRepository stores the admin PIN.
type AdminRepository interface {
	GetPin(ctx context.Context) (string, error)
	UpdatePin(ctx context.Context, pin string) error
}

// SnapshotStore keeps a local copy of the catalog for when the repositories
// cannot be reached.
type SnapshotStore interface {
	Load(ctx context.Context) (domain.Snapshot, error)
	Save(ctx context.Context, snapshot domain.Snapshot) error
}

// SessionRepository tracks live game sessions (in-memory, Redis, etc).
type SessionRepository interface {
	Put(sessionID string, engine *Engine)
	Get(sessionID string) (*Engine, bool)
	Delete(sessionID string)
}
