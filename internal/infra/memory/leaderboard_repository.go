package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"smart-board-game/internal/domain"
)

// LeaderboardRepository stores completed players in memory.
type LeaderboardRepository struct {
	mu      sync.RWMutex
	players []domain.Player
}

func NewLeaderboardRepository() *LeaderboardRepository {
	return &LeaderboardRepository{}
}

// ListPlayers returns players highest score first.
func (r *LeaderboardRepository) ListPlayers(_ context.Context) ([]domain.Player, error) {
	r.mu.RLock()
	players := append([]domain.Player{}, r.players...)
	r.mu.RUnlock()
	sort.SliceStable(players, func(i, j int) bool {
		return players[i].Score > players[j].Score
	})
	return players, nil
}

func (r *LeaderboardRepository) CreatePlayer(_ context.Context, player domain.Player) (domain.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	player.ID = uuid.NewString()
	r.players = append(r.players, player)
	return player, nil
}

func (r *LeaderboardRepository) ClearAll(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.players = nil
	return nil
}
