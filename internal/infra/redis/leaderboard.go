package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"smart-board-game/internal/app"
	"smart-board-game/internal/domain"
)

// Leaderboard mirrors completed players into Redis so listings are served
// from a sorted set instead of the database.
//
//	ZADD leaderboard:scores {score} {playerID}
//	HSET leaderboard:players {playerID} {player json}
//
// leaderboard:loaded marks the mirror as complete; without it the next
// listing reloads from the wrapped repository.
type Leaderboard struct {
	app.LeaderboardRepository

	client *redis.Client
	ttl    time.Duration
}

const (
	scoresKey  = "leaderboard:scores"
	playersKey = "leaderboard:players"
	loadedKey  = "leaderboard:loaded"
)

func NewLeaderboard(client *redis.Client, inner app.LeaderboardRepository, ttl time.Duration) *Leaderboard {
	return &Leaderboard{LeaderboardRepository: inner, client: client, ttl: ttl}
}

// ListPlayers returns players highest score first. Equal scores come back
// in reverse player id order.
func (l *Leaderboard) ListPlayers(ctx context.Context) ([]domain.Player, error) {
	if players, err := l.cached(ctx); err == nil {
		return players, nil
	}

	players, err := l.LeaderboardRepository.ListPlayers(ctx)
	if err != nil {
		return nil, err
	}
	pipe := l.client.TxPipeline()
	pipe.Del(ctx, scoresKey, playersKey)
	for _, p := range players {
		l.queue(ctx, pipe, p)
	}
	pipe.Set(ctx, loadedKey, "1", l.ttl)
	_, _ = pipe.Exec(ctx)
	return players, nil
}

func (l *Leaderboard) CreatePlayer(ctx context.Context, player domain.Player) (domain.Player, error) {
	created, err := l.LeaderboardRepository.CreatePlayer(ctx, player)
	if err != nil {
		return domain.Player{}, err
	}
	pipe := l.client.Pipeline()
	l.queue(ctx, pipe, created)
	_, _ = pipe.Exec(ctx)
	return created, nil
}

func (l *Leaderboard) ClearAll(ctx context.Context) error {
	if err := l.LeaderboardRepository.ClearAll(ctx); err != nil {
		return err
	}
	return l.client.Del(ctx, scoresKey, playersKey, loadedKey).Err()
}

func (l *Leaderboard) queue(ctx context.Context, pipe redis.Pipeliner, p domain.Player) {
	raw, err := json.Marshal(p)
	if err != nil {
		return
	}
	pipe.ZAdd(ctx, scoresKey, redis.Z{Score: float64(p.Score), Member: p.ID})
	pipe.HSet(ctx, playersKey, p.ID, raw)
}

func (l *Leaderboard) cached(ctx context.Context) ([]domain.Player, error) {
	n, err := l.client.Exists(ctx, loadedKey).Result()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, redis.Nil
	}
	ids, err := l.client.ZRevRange(ctx, scoresKey, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []domain.Player{}, nil
	}
	values, err := l.client.HMGet(ctx, playersKey, ids...).Result()
	if err != nil {
		return nil, err
	}
	players := make([]domain.Player, 0, len(values))
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("player %s missing from %s", ids[i], playersKey)
		}
		var p domain.Player
		if err := json.Unmarshal([]byte(s), &p); err != nil {
			return nil, fmt.Errorf("decode player %s: %w", ids[i], err)
		}
		players = append(players, p)
	}
	return players, nil
}
