package app

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"smart-board-game/internal/domain"
)

// DefaultAdminPin is used when no PIN has been stored yet.
const DefaultAdminPin = "1234"

// CatalogDeps are the repositories behind a Catalog. Snapshots may be nil.
type CatalogDeps struct {
	Questions   CatalogRepository
	Leaderboard LeaderboardRepository
	Admin       AdminRepository
	Snapshots   SnapshotStore
}

// Catalog is the process-wide view of rounds, questions, leaderboard and the
// admin PIN. Writes apply locally first and are persisted in the background.
type Catalog struct {
	deps       CatalogDeps
	tasks      *Tasks
	onError    ErrorHook
	now        func() time.Time
	defaultPin string
	seq        atomic.Uint64

	snapVersion atomic.Uint64
	snapMu      sync.Mutex
	snapSaved   uint64

	mu          sync.RWMutex
	rounds      []domain.Round
	questions   []domain.Question
	leaderboard []domain.Player
	pin         string
}

// CatalogOption customizes a Catalog.
type CatalogOption func(*Catalog)

// WithCatalogClock overrides time.Now, for deterministic ids and timestamps.
func WithCatalogClock(now func() time.Time) CatalogOption {
	return func(c *Catalog) { c.now = now }
}

// WithDefaultPin sets the PIN used when the admin repository has none.
func WithDefaultPin(pin string) CatalogOption {
	return func(c *Catalog) {
		if pin != "" {
			c.defaultPin = pin
		}
	}
}

// WithPersistTimeout bounds each background repository call.
func WithPersistTimeout(d time.Duration) CatalogOption {
	return func(c *Catalog) { c.tasks.timeout = d }
}

// WithErrorHook routes background failures somewhere other than the log.
func WithErrorHook(hook ErrorHook) CatalogOption {
	return func(c *Catalog) {
		if hook != nil {
			c.onError = hook
			c.tasks.onError = hook
		}
	}
}

// WithSeed replaces the built-in sample rounds and questions used before
// Initialize, or when nothing else can be loaded.
func WithSeed(rounds []domain.Round, questions []domain.Question) CatalogOption {
	return func(c *Catalog) {
		c.rounds = append([]domain.Round(nil), rounds...)
		c.questions = append([]domain.Question(nil), questions...)
	}
}

func NewCatalog(deps CatalogDeps, opts ...CatalogOption) *Catalog {
	c := &Catalog{
		deps:       deps,
		tasks:      NewTasks(10*time.Second, LogErrors),
		onError:    LogErrors,
		now:        time.Now,
		defaultPin: DefaultAdminPin,
		rounds:     SampleRounds(),
		questions:  SampleQuestions(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.pin = c.defaultPin
	return c
}

// Initialize loads every collection from its repository. A collection whose
// repository fails falls back to the local snapshot, then to what the catalog
// already holds. The returned error lists the failures; the catalog is usable
// either way.
func (c *Catalog) Initialize(ctx context.Context) error {
	var snap domain.Snapshot
	if c.deps.Snapshots != nil {
		loaded, err := c.deps.Snapshots.Load(ctx)
		if err != nil {
			c.onError("load snapshot", err)
		} else {
			snap = loaded
		}
	}

	var errs []error
	rounds, err := c.deps.Questions.ListRounds(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("list rounds: %w", err))
		rounds = snap.Rounds
	}
	questions, err := c.deps.Questions.ListQuestions(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("list questions: %w", err))
		questions = snap.Questions
	}
	players, err := c.deps.Leaderboard.ListPlayers(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("list players: %w", err))
		players = snap.Leaderboard
	}
	pin, err := c.deps.Admin.GetPin(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("get pin: %w", err))
	}
	if pin == "" {
		pin = snap.AdminPin
	}

	c.mu.Lock()
	if rounds != nil {
		c.rounds = rounds
	}
	if questions != nil {
		c.questions = questions
	}
	if players != nil {
		c.leaderboard = sortByScore(players)
	}
	if pin != "" {
		c.pin = pin
	}
	c.mu.Unlock()

	c.saveSnapshot()
	return errors.Join(errs...)
}

// Wait blocks until background persistence has finished.
func (c *Catalog) Wait() {
	c.tasks.Wait()
}

func (c *Catalog) Rounds() []domain.Round {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]domain.Round(nil), c.rounds...)
}

// Round looks a round up by id.
func (c *Catalog) Round(roundID string) (domain.Round, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, r := range c.rounds {
		if r.ID == roundID {
			return r, true
		}
	}
	return domain.Round{}, false
}

func (c *Catalog) Questions() []domain.Question {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]domain.Question(nil), c.questions...)
}

// Leaderboard returns completed players, highest score first.
func (c *Catalog) Leaderboard() []domain.Player {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]domain.Player(nil), c.leaderboard...)
}

// LeaderboardForRound filters the leaderboard to one round.
func (c *Catalog) LeaderboardForRound(roundID string) []domain.Player {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []domain.Player
	for _, p := range c.leaderboard {
		if p.RoundID == roundID {
			out = append(out, p)
		}
	}
	return out
}

// Stats summarizes the leaderboard.
func (c *Catalog) Stats() domain.GameStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	stats := domain.GameStats{TotalGames: len(c.leaderboard)}
	if stats.TotalGames == 0 {
		return stats
	}
	sum := 0
	top := c.leaderboard[0]
	for _, p := range c.leaderboard {
		sum += p.Score
		if p.Score > top.Score {
			top = p
		}
	}
	stats.AverageScore = int(math.Round(float64(sum) / float64(stats.TotalGames)))
	stats.HighestScore = top.Score
	stats.TopPlayer = top.Name
	return stats
}

// AddRound creates a round with a local placeholder id, then swaps in the id
// the repository assigns.
func (c *Catalog) AddRound(name string, counts map[domain.Category]int) (domain.Round, error) {
	round, err := domain.NewRound(c.localID("round"), name, counts)
	if err != nil {
		return domain.Round{}, err
	}

	c.mu.Lock()
	c.rounds = append(c.rounds, round)
	c.mu.Unlock()

	localID := round.ID
	c.tasks.Go("create round", func(ctx context.Context) error {
		created, err := c.deps.Questions.CreateRound(ctx, round)
		if err != nil {
			return err
		}
		if !c.replaceRoundID(localID, created.ID) {
			// deleted locally while the create was in flight
			return c.deps.Questions.DeleteRound(ctx, created.ID)
		}
		c.saveSnapshot()
		return nil
	})
	c.saveSnapshot()
	return round, nil
}

// DeleteRound removes a round locally and in the repository.
func (c *Catalog) DeleteRound(roundID string) error {
	c.mu.Lock()
	idx := -1
	for i, r := range c.rounds {
		if r.ID == roundID {
			idx = i
			break
		}
	}
	if idx < 0 {
		c.mu.Unlock()
		return domain.ErrRoundNotFound
	}
	c.rounds = append(c.rounds[:idx:idx], c.rounds[idx+1:]...)
	c.mu.Unlock()

	c.tasks.Go("delete round", func(ctx context.Context) error {
		return c.deps.Questions.DeleteRound(ctx, roundID)
	})
	c.saveSnapshot()
	return nil
}

// AddQuestion validates and stores a question; its id is replaced once the
// repository assigns one.
func (c *Catalog) AddQuestion(q domain.Question) (domain.Question, error) {
	q = q.Normalize()
	if err := q.Validate(); err != nil {
		return domain.Question{}, err
	}
	q.ID = c.localID("q")

	c.mu.Lock()
	c.questions = append(c.questions, q)
	c.mu.Unlock()

	localID := q.ID
	c.tasks.Go("create question", func(ctx context.Context) error {
		created, err := c.deps.Questions.CreateQuestion(ctx, q)
		if err != nil {
			return err
		}
		if !c.replaceQuestionID(localID, created.ID) {
			return c.deps.Questions.DeleteQuestion(ctx, created.ID)
		}
		c.saveSnapshot()
		return nil
	})
	c.saveSnapshot()
	return q, nil
}

func (c *Catalog) DeleteQuestion(questionID string) error {
	c.mu.Lock()
	idx := -1
	for i, q := range c.questions {
		if q.ID == questionID {
			idx = i
			break
		}
	}
	if idx < 0 {
		c.mu.Unlock()
		return domain.ErrQuestionNotFound
	}
	c.questions = append(c.questions[:idx:idx], c.questions[idx+1:]...)
	c.mu.Unlock()

	c.tasks.Go("delete question", func(ctx context.Context) error {
		return c.deps.Questions.DeleteQuestion(ctx, questionID)
	})
	c.saveSnapshot()
	return nil
}

// ClearLeaderboard empties the leaderboard locally and in the repository.
func (c *Catalog) ClearLeaderboard() {
	c.mu.Lock()
	c.leaderboard = nil
	c.mu.Unlock()

	c.tasks.Go("clear leaderboard", c.deps.Leaderboard.ClearAll)
	c.saveSnapshot()
}

// VerifyPin is a plain string comparison.
func (c *Catalog) VerifyPin(pin string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pin == pin
}

// UpdatePin replaces the PIN when oldPin matches.
func (c *Catalog) UpdatePin(oldPin, newPin string) bool {
	c.mu.Lock()
	if c.pin != oldPin {
		c.mu.Unlock()
		return false
	}
	c.pin = newPin
	c.mu.Unlock()

	c.tasks.Go("update pin", func(ctx context.Context) error {
		return c.deps.Admin.UpdatePin(ctx, newPin)
	})
	c.saveSnapshot()
	return true
}

// recordResult adds a completed player to the leaderboard and persists it in
// the background.
func (c *Catalog) recordResult(player domain.Player) {
	c.mu.Lock()
	c.leaderboard = sortByScore(append(c.leaderboard, player))
	c.mu.Unlock()

	c.tasks.Go("create player", func(ctx context.Context) error {
		_, err := c.deps.Leaderboard.CreatePlayer(ctx, player)
		return err
	})
	c.saveSnapshot()
}

func (c *Catalog) replaceRoundID(localID, id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.rounds {
		if c.rounds[i].ID == localID {
			c.rounds[i].ID = id
			return true
		}
	}
	return false
}

func (c *Catalog) replaceQuestionID(localID, id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.questions {
		if c.questions[i].ID == localID {
			c.questions[i].ID = id
			return true
		}
	}
	return false
}

func (c *Catalog) saveSnapshot() {
	if c.deps.Snapshots == nil {
		return
	}
	c.mu.RLock()
	snap := domain.Snapshot{
		Rounds:      append([]domain.Round(nil), c.rounds...),
		Questions:   append([]domain.Question(nil), c.questions...),
		Leaderboard: append([]domain.Player(nil), c.leaderboard...),
		AdminPin:    c.pin,
		SavedAt:     c.now(),
	}
	version := c.snapVersion.Add(1)
	c.mu.RUnlock()
	c.tasks.Go("save snapshot", func(ctx context.Context) error {
		c.snapMu.Lock()
		defer c.snapMu.Unlock()
		if version < c.snapSaved {
			return nil
		}
		if err := c.deps.Snapshots.Save(ctx, snap); err != nil {
			return err
		}
		c.snapSaved = version
		return nil
	})
}

// localID builds a placeholder id that is deliberately not a UUID.
func (c *Catalog) localID(prefix string) string {
	return fmt.Sprintf("%s_%d_%d", prefix, c.now().UnixMilli(), c.seq.Add(1))
}

// sortByScore orders players by descending score; equal scores keep their order.
func sortByScore(players []domain.Player) []domain.Player {
	sort.SliceStable(players, func(i, j int) bool {
		return players[i].Score > players[j].Score
	})
	return players
}
