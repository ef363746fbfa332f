package app

import (
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"smart-board-game/internal/domain"
)

// Stopper cancels a scheduled countdown. *time.Timer satisfies it.
type Stopper interface {
	Stop() bool
}

// TimerFunc schedules f to run once after d.
type TimerFunc func(d time.Duration, f func()) Stopper

func afterFunc(d time.Duration, f func()) Stopper {
	return time.AfterFunc(d, f)
}

// Engine runs a single play-through. Every operation completes synchronously
// and reports whether it changed the session; operations whose preconditions
// are not met do nothing.
type Engine struct {
	catalog   *Catalog
	rnd       *rand.Rand
	now       func() time.Time
	afterFunc TimerFunc
	logf      func(format string, args ...any)

	mu          sync.Mutex
	player      *domain.Player
	round       *domain.Round
	questions   []domain.Question
	current     *domain.Question
	index       int
	answered    map[string]domain.Outcome
	playing     bool
	feedback    bool
	lastCorrect *bool
	complete    bool

	timer       Stopper
	timerGen    uint64
	subscribers map[chan domain.GameState]struct{}
}

// EngineOption customizes an Engine.
type EngineOption func(*Engine)

// WithRand makes question draws reproducible.
func WithRand(rnd *rand.Rand) EngineOption {
	return func(e *Engine) { e.rnd = rnd }
}

// WithClock overrides time.Now for player ids and completion timestamps.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// WithTimerFunc replaces time.AfterFunc for the question countdown.
func WithTimerFunc(fn TimerFunc) EngineOption {
	return func(e *Engine) { e.afterFunc = fn }
}

// WithLogger replaces log.Printf.
func WithLogger(logf func(format string, args ...any)) EngineOption {
	return func(e *Engine) { e.logf = logf }
}

func NewEngine(catalog *Catalog, opts ...EngineOption) *Engine {
	e := &Engine{
		catalog:     catalog,
		rnd:         rand.New(rand.NewSource(time.Now().UnixNano())),
		now:         time.Now,
		afterFunc:   afterFunc,
		logf:        log.Printf,
		answered:    make(map[string]domain.Outcome),
		subscribers: make(map[chan domain.GameState]struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetPlayer starts over with a fresh player. The name is stored as given.
func (e *Engine) SetPlayer(name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.resetLocked()
	e.player = &domain.Player{
		ID:   fmt.Sprintf("player_%d", e.now().UnixMilli()),
		Name: name,
	}
	e.broadcastLocked()
	return true
}

// SelectRound attaches a catalog round to the session before the game starts.
func (e *Engine) SelectRound(roundID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.player == nil || e.playing || e.complete {
		return false
	}
	round, ok := e.catalog.Round(roundID)
	if !ok {
		return false
	}
	e.round = &round
	e.player.RoundID = round.ID
	e.broadcastLocked()
	return true
}

// StartGame draws the round's questions. A draw that yields nothing
// completes the game at once.
func (e *Engine) StartGame() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.round == nil || e.playing || e.complete {
		return false
	}
	drawn, shortfall := drawQuestions(e.rnd, *e.round, e.catalog.Questions())
	for _, category := range domain.Categories {
		if n := shortfall[category]; n > 0 {
			e.logf("round %s: category %s is short by %d question(s)", e.round.ID, category, n)
		}
	}

	e.questions = drawn
	e.answered = make(map[string]domain.Outcome)
	e.index = 0
	e.current = nil
	e.feedback = false
	e.lastCorrect = nil
	e.complete = false
	e.playing = true
	if len(e.questions) == 0 {
		e.endGameLocked()
	}
	e.broadcastLocked()
	return true
}

// SelectQuestion presents an unanswered question from the drawn list and
// starts its countdown.
func (e *Engine) SelectQuestion(questionID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.playing {
		return false
	}
	if _, done := e.answered[questionID]; done {
		return false
	}
	for i := range e.questions {
		if e.questions[i].ID == questionID {
			q := e.questions[i]
			e.current = &q
			e.feedback = false
			e.lastCorrect = nil
			e.armTimerLocked(q)
			e.broadcastLocked()
			return true
		}
	}
	return false
}

// AnswerQuestion grades the answer to the current question. A question that
// already has an outcome is not graded again.
func (e *Engine) AnswerQuestion(answer domain.Answer) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current == nil || e.player == nil || e.complete {
		return false
	}
	if _, done := e.answered[e.current.ID]; done {
		return false
	}
	e.stopTimerLocked()

	correct := grade(*e.current, answer)
	e.lastCorrect = &correct
	e.feedback = true
	if correct {
		e.answered[e.current.ID] = domain.OutcomeCorrect
		e.player.Score += e.current.Points
		e.player.CorrectAnswers++
	} else {
		e.answered[e.current.ID] = domain.OutcomeWrong
		e.player.WrongAnswers++
	}
	e.broadcastLocked()
	return true
}

// SkipQuestion counts the current question as wrong and closes it. The
// question countdown ends here too.
func (e *Engine) SkipQuestion() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.skipLocked()
}

// NextQuestion leaves the feedback screen, completing the game once every
// question has an outcome.
func (e *Engine) NextQuestion() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.playing {
		return false
	}
	if e.allAnsweredLocked() {
		e.endGameLocked()
	} else {
		e.stopTimerLocked()
		e.index++
		e.current = nil
		e.feedback = false
		e.lastCorrect = nil
	}
	e.broadcastLocked()
	return true
}

// EndGame records the player on the leaderboard. Persistence happens in the
// background; a failure there does not undo completion.
func (e *Engine) EndGame() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.endGameLocked() {
		return false
	}
	e.broadcastLocked()
	return true
}

// ResetGame returns the session to idle. The catalog is left alone.
func (e *Engine) ResetGame() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.resetLocked()
	e.broadcastLocked()
	return true
}

// State returns a copy of the session.
func (e *Engine) State() domain.GameState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Subscribe returns a channel that receives the state after every change,
// starting with the current one. The caller must invoke cancel to avoid leaks.
func (e *Engine) Subscribe() (<-chan domain.GameState, func()) {
	ch := make(chan domain.GameState, 8)

	e.mu.Lock()
	e.subscribers[ch] = struct{}{}
	ch <- e.snapshotLocked()
	e.mu.Unlock()

	cancel := func() {
		e.mu.Lock()
		if _, ok := e.subscribers[ch]; ok {
			delete(e.subscribers, ch)
			close(ch)
		}
		e.mu.Unlock()
	}
	return ch, cancel
}

// Close stops any pending countdown and closes every subscription.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopTimerLocked()
	for ch := range e.subscribers {
		delete(e.subscribers, ch)
		close(ch)
	}
}

func (e *Engine) skipLocked() bool {
	if e.player == nil || e.complete {
		return false
	}
	if e.current != nil {
		if _, done := e.answered[e.current.ID]; !done {
			e.answered[e.current.ID] = domain.OutcomeWrong
			e.player.WrongAnswers++
		}
	}
	e.stopTimerLocked()
	e.current = nil
	e.feedback = false
	e.lastCorrect = nil
	if e.playing && e.allAnsweredLocked() {
		e.endGameLocked()
	}
	e.broadcastLocked()
	return true
}

func (e *Engine) endGameLocked() bool {
	if e.player == nil || e.complete {
		return false
	}
	e.stopTimerLocked()
	e.current = nil
	e.feedback = false
	e.lastCorrect = nil
	completedAt := e.now()
	e.player.CompletedAt = &completedAt
	e.complete = true
	e.playing = false
	e.catalog.recordResult(*e.player)
	return true
}

func (e *Engine) allAnsweredLocked() bool {
	return len(e.answered) == len(e.questions)
}

func (e *Engine) resetLocked() {
	e.stopTimerLocked()
	e.player = nil
	e.round = nil
	e.questions = nil
	e.current = nil
	e.index = 0
	e.answered = make(map[string]domain.Outcome)
	e.playing = false
	e.feedback = false
	e.lastCorrect = nil
	e.complete = false
}

// armTimerLocked schedules the countdown for q. When it fires it behaves as
// SkipQuestion, unless something invalidated it first.
func (e *Engine) armTimerLocked(q domain.Question) {
	e.stopTimerLocked()
	gen := e.timerGen
	e.timer = e.afterFunc(q.Seconds(), func() {
		e.expire(gen)
	})
}

// stopTimerLocked cancels the countdown. The generation bump also covers a
// callback that has already started and is waiting for the lock.
func (e *Engine) stopTimerLocked() {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.timerGen++
}

func (e *Engine) expire(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.timerGen || e.current == nil {
		return
	}
	e.timer = nil
	e.skipLocked()
}

func (e *Engine) phaseLocked() domain.Phase {
	switch {
	case e.complete:
		return domain.PhaseComplete
	case e.playing && e.feedback:
		return domain.PhaseFeedback
	case e.playing && e.current != nil:
		return domain.PhaseQuestionPresented
	case e.playing:
		return domain.PhaseAwaitingSelection
	case e.round != nil:
		return domain.PhaseRoundSelected
	default:
		return domain.PhaseIdle
	}
}

func (e *Engine) snapshotLocked() domain.GameState {
	state := domain.GameState{
		Phase:                e.phaseLocked(),
		CurrentQuestionIndex: e.index,
		Questions:            append([]domain.Question(nil), e.questions...),
		AnsweredQuestions:    make(map[string]domain.Outcome, len(e.answered)),
		IsPlaying:            e.playing,
		ShowFeedback:         e.feedback,
		GameComplete:         e.complete,
	}
	for id, outcome := range e.answered {
		state.AnsweredQuestions[id] = outcome
	}
	if e.player != nil {
		p := *e.player
		state.Player = &p
	}
	if e.round != nil {
		r := *e.round
		state.CurrentRound = &r
	}
	if e.current != nil {
		q := *e.current
		state.CurrentQuestion = &q
	}
	if e.lastCorrect != nil {
		v := *e.lastCorrect
		state.LastAnswerCorrect = &v
	}
	return state
}

func (e *Engine) broadcastLocked() {
	if len(e.subscribers) == 0 {
		return
	}
	state := e.snapshotLocked()
	for ch := range e.subscribers {
		select {
		case ch <- state:
		default:
			// drop the oldest pending state so a slow reader sees the latest
			select {
			case <-ch:
			default:
			}
			ch <- state
		}
	}
}
