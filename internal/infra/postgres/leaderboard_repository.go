package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"smart-board-game/internal/domain"
)

type playerRow struct {
	bun.BaseModel `bun:"table:players,alias:p"`

	ID             string    `bun:"id,pk,nullzero"`
	Name           string    `bun:"name,notnull"`
	Score          int       `bun:"score,notnull"`
	CorrectAnswers int       `bun:"correct_answers,notnull"`
	WrongAnswers   int       `bun:"wrong_answers,notnull"`
	RoundID        *string   `bun:"round_id"`
	CompletedAt    time.Time `bun:"completed_at,nullzero,notnull,default:current_timestamp"`
}

// LeaderboardRepository stores completed players.
type LeaderboardRepository struct {
	db *bun.DB
}

func NewLeaderboardRepository(db *bun.DB) *LeaderboardRepository {
	return &LeaderboardRepository{db: db}
}

func (r *LeaderboardRepository) ListPlayers(ctx context.Context) ([]domain.Player, error) {
	var rows []playerRow
	if err := r.db.NewSelect().Model(&rows).Order("score DESC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	players := make([]domain.Player, 0, len(rows))
	for _, row := range rows {
		players = append(players, row.toDomain())
	}
	return players, nil
}

// CreatePlayer inserts a leaderboard entry. A round id that is not a UUID,
// such as one of the built-in rounds, is stored as NULL.
func (r *LeaderboardRepository) CreatePlayer(ctx context.Context, player domain.Player) (domain.Player, error) {
	row := playerRow{
		Name:           player.Name,
		Score:          player.Score,
		CorrectAnswers: player.CorrectAnswers,
		WrongAnswers:   player.WrongAnswers,
	}
	if domain.IsUUID(player.RoundID) {
		roundID := player.RoundID
		row.RoundID = &roundID
	}
	if player.CompletedAt != nil {
		row.CompletedAt = *player.CompletedAt
	}
	if _, err := r.db.NewInsert().Model(&row).Returning("id, completed_at").Exec(ctx); err != nil {
		return domain.Player{}, fmt.Errorf("insert player: %w", err)
	}
	return row.toDomain(), nil
}

func (r *LeaderboardRepository) ClearAll(ctx context.Context) error {
	if _, err := r.db.NewDelete().Model((*playerRow)(nil)).Where("TRUE").Exec(ctx); err != nil {
		return fmt.Errorf("clear players: %w", err)
	}
	return nil
}

func (row playerRow) toDomain() domain.Player {
	p := domain.Player{
		ID:             row.ID,
		Name:           row.Name,
		Score:          row.Score,
		CorrectAnswers: row.CorrectAnswers,
		WrongAnswers:   row.WrongAnswers,
	}
	if row.RoundID != nil {
		p.RoundID = *row.RoundID
	}
	if !row.CompletedAt.IsZero() {
		completedAt := row.CompletedAt
		p.CompletedAt = &completedAt
	}
	return p
}
