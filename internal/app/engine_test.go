package app_test

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smart-board-game/internal/app"
	"smart-board-game/internal/domain"
	"smart-board-game/internal/infra/memory"
)

func TestFullPlayThrough(t *testing.T) {
	h := newHarness(t, nil)
	e := h.engine

	require.True(t, e.SetPlayer("Siti"))
	require.True(t, e.SelectRound("round-tf"))
	require.True(t, e.StartGame())

	state := e.State()
	require.Len(t, state.Questions, 3)
	assert.Equal(t, domain.PhaseAwaitingSelection, state.Phase)
	assert.Equal(t, "round-tf", state.Player.RoundID)

	for i, q := range state.Questions {
		require.True(t, e.SelectQuestion(q.ID))
		assert.Equal(t, domain.PhaseQuestionPresented, e.State().Phase)

		require.True(t, e.AnswerQuestion(*q.CorrectAnswer))
		fb := e.State()
		assert.Equal(t, domain.PhaseFeedback, fb.Phase)
		require.NotNil(t, fb.LastAnswerCorrect)
		assert.True(t, *fb.LastAnswerCorrect)
		assert.False(t, fb.GameComplete, "must not complete before every question has an outcome")

		require.True(t, e.NextQuestion())
		if i < len(state.Questions)-1 {
			assert.False(t, e.State().GameComplete)
			assert.Equal(t, i+1, e.State().CurrentQuestionIndex)
		}
	}

	final := e.State()
	assert.True(t, final.GameComplete)
	assert.False(t, final.IsPlaying)
	assert.Equal(t, domain.PhaseComplete, final.Phase)
	assert.Equal(t, 300, final.Player.Score)
	assert.Equal(t, 3, final.Player.CorrectAnswers)
	require.NotNil(t, final.Player.CompletedAt)

	board := h.catalog.Leaderboard()
	require.Len(t, board, 1)
	assert.Equal(t, "Siti", board[0].Name)

	h.catalog.Wait()
	persisted, err := h.players.ListPlayers(context.Background())
	require.NoError(t, err)
	require.Len(t, persisted, 1)
	assert.Equal(t, 300, persisted[0].Score)
}

func TestAnswerIsNotGradedTwice(t *testing.T) {
	h := newHarness(t, nil)
	e := startedGame(t, h, "round-tf")

	q := e.State().Questions[0]
	require.True(t, e.SelectQuestion(q.ID))
	require.True(t, e.AnswerQuestion(*q.CorrectAnswer))
	assert.False(t, e.AnswerQuestion(*q.CorrectAnswer))

	state := e.State()
	assert.Equal(t, q.Points, state.Player.Score)
	assert.Equal(t, 1, state.Player.CorrectAnswers)
	assert.Len(t, state.AnsweredQuestions, 1)

	// an answered question cannot be presented again
	require.True(t, e.NextQuestion())
	assert.False(t, e.SelectQuestion(q.ID))
}

func TestWrongAnswerAddsNothing(t *testing.T) {
	h := newHarness(t, nil)
	e := startedGame(t, h, "round-tf")

	q := e.State().Questions[0]
	require.True(t, e.SelectQuestion(q.ID))
	require.True(t, e.AnswerQuestion(domain.BoolAnswer(!q.CorrectAnswer.Bool())))

	state := e.State()
	assert.Equal(t, 0, state.Player.Score)
	assert.Equal(t, 1, state.Player.WrongAnswers)
	assert.Equal(t, domain.OutcomeWrong, state.AnsweredQuestions[q.ID])
	require.NotNil(t, state.LastAnswerCorrect)
	assert.False(t, *state.LastAnswerCorrect)
}

func TestCountersMatchAnsweredQuestions(t *testing.T) {
	for seed := int64(1); seed <= 25; seed++ {
		h := newHarness(t, nil)
		e := startedGame(t, h, "round-mixed")
		rnd := rand.New(rand.NewSource(seed))

		for step := 0; step < 40; step++ {
			state := e.State()
			switch rnd.Intn(5) {
			case 0:
				if len(state.Questions) > 0 {
					e.SelectQuestion(state.Questions[rnd.Intn(len(state.Questions))].ID)
				}
			case 1:
				e.AnswerQuestion(domain.TextAnswer("debit"))
			case 2:
				e.AnswerQuestion(domain.BoolAnswer(rnd.Intn(2) == 0))
			case 3:
				e.SkipQuestion()
			case 4:
				e.NextQuestion()
			}

			state = e.State()
			assert.Equal(t, len(state.AnsweredQuestions), state.Player.CorrectAnswers+state.Player.WrongAnswers)
			assert.LessOrEqual(t, len(state.AnsweredQuestions), len(state.Questions))
			if state.GameComplete {
				assert.Len(t, state.AnsweredQuestions, len(state.Questions))
			}
		}
	}
}

func TestSkipCompletesGame(t *testing.T) {
	h := newHarness(t, nil)
	e := startedGame(t, h, "round-tf")

	for _, q := range e.State().Questions {
		assert.False(t, e.State().GameComplete)
		require.True(t, e.SelectQuestion(q.ID))
		require.True(t, e.SkipQuestion())
	}

	state := e.State()
	assert.True(t, state.GameComplete)
	assert.Equal(t, 3, state.Player.WrongAnswers)
	assert.Equal(t, 0, state.Player.Score)
	assert.Nil(t, state.CurrentQuestion)
}

func TestSkipWithoutQuestionCountsNothing(t *testing.T) {
	h := newHarness(t, nil)
	e := startedGame(t, h, "round-tf")

	require.True(t, e.SkipQuestion())
	state := e.State()
	assert.Equal(t, 0, state.Player.WrongAnswers)
	assert.Empty(t, state.AnsweredQuestions)
}

func TestPreconditionsAreSilentNoOps(t *testing.T) {
	h := newHarness(t, nil)
	e := h.engine

	assert.False(t, e.SelectRound("round-tf"), "no player yet")
	assert.False(t, e.StartGame(), "no round yet")
	assert.False(t, e.SelectQuestion("tf-1"))
	assert.False(t, e.AnswerQuestion(domain.BoolAnswer(true)))
	assert.False(t, e.SkipQuestion())
	assert.False(t, e.NextQuestion())
	assert.False(t, e.EndGame())
	assert.Equal(t, domain.PhaseIdle, e.State().Phase)

	require.True(t, e.SetPlayer(""))
	assert.Equal(t, "", e.State().Player.Name)
	assert.False(t, e.SelectRound("missing"))
	assert.Nil(t, e.State().CurrentRound)

	require.True(t, e.SelectRound("round-tf"))
	assert.Equal(t, domain.PhaseRoundSelected, e.State().Phase)
	assert.False(t, e.SelectQuestion("tf-1"), "questions are not drawn yet")

	require.True(t, e.StartGame())
	assert.False(t, e.StartGame(), "already playing")
	assert.False(t, e.SelectRound("round-mixed"), "round is fixed once playing")
	assert.False(t, e.SelectQuestion("unknown"))
	assert.False(t, e.AnswerQuestion(domain.BoolAnswer(true)), "no current question")
}

func TestEndGameOnlyOnce(t *testing.T) {
	h := newHarness(t, nil)
	e := startedGame(t, h, "round-tf")

	require.True(t, e.EndGame())
	assert.False(t, e.EndGame())
	assert.Len(t, h.catalog.Leaderboard(), 1)

	// complete is terminal until reset
	assert.False(t, e.StartGame())
	assert.False(t, e.NextQuestion())
	assert.False(t, e.SelectRound("round-tf"))

	require.True(t, e.ResetGame())
	state := e.State()
	assert.Equal(t, domain.PhaseIdle, state.Phase)
	assert.Nil(t, state.Player)
	assert.Empty(t, state.Questions)
	assert.Len(t, h.catalog.Leaderboard(), 1, "reset leaves the leaderboard alone")
}

func TestAnswerAndSkipAfterEndGameChangeNothing(t *testing.T) {
	h := newHarness(t, nil)
	e := startedGame(t, h, "round-tf")
	q := e.State().Questions[0]
	require.True(t, e.SelectQuestion(q.ID))
	timer := h.timers.last()

	require.True(t, e.EndGame())
	state := e.State()
	assert.True(t, state.GameComplete)
	assert.Nil(t, state.CurrentQuestion)
	assert.False(t, state.ShowFeedback)
	assert.Nil(t, state.LastAnswerCorrect)
	assert.True(t, timer.stopped())

	assert.False(t, e.AnswerQuestion(*q.CorrectAnswer))
	assert.False(t, e.SkipQuestion())
	timer.fire()

	state = e.State()
	assert.Equal(t, 0, state.Player.Score)
	assert.Equal(t, 0, state.Player.CorrectAnswers)
	assert.Equal(t, 0, state.Player.WrongAnswers)
	assert.Empty(t, state.AnsweredQuestions)

	board := h.catalog.Leaderboard()
	require.Len(t, board, 1)
	assert.Equal(t, state.Player.Score, board[0].Score)
}

func TestLeaderboardSortedByScore(t *testing.T) {
	h := newHarness(t, nil)

	play := func(name string, correct int) {
		e := app.NewEngine(h.catalog, app.WithRand(rand.New(rand.NewSource(3))), app.WithTimerFunc(h.timers.after))
		require.True(t, e.SetPlayer(name))
		require.True(t, e.SelectRound("round-tf"))
		require.True(t, e.StartGame())
		for i, q := range e.State().Questions {
			require.True(t, e.SelectQuestion(q.ID))
			if i < correct {
				require.True(t, e.AnswerQuestion(*q.CorrectAnswer))
			} else {
				require.True(t, e.AnswerQuestion(domain.BoolAnswer(!q.CorrectAnswer.Bool())))
			}
			require.True(t, e.NextQuestion())
		}
		require.True(t, e.State().GameComplete)
	}
	play("Budi", 1)
	play("Ahmad", 3)
	play("Siti", 2)

	board := h.catalog.Leaderboard()
	require.Len(t, board, 3)
	assert.Equal(t, []string{"Ahmad", "Siti", "Budi"}, []string{board[0].Name, board[1].Name, board[2].Name})
}

func TestPersistenceFailureKeepsCompletion(t *testing.T) {
	var mu sync.Mutex
	var failures []string
	hook := func(op string, err error) {
		mu.Lock()
		failures = append(failures, op)
		mu.Unlock()
	}
	h := newHarness(t, &failingLeaderboard{}, app.WithErrorHook(hook))
	e := startedGame(t, h, "round-tf")

	require.True(t, e.EndGame())
	h.catalog.Wait()

	assert.True(t, e.State().GameComplete)
	assert.Len(t, h.catalog.Leaderboard(), 1)
	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, failures, "create player")
}

func TestEmptyDrawCompletesImmediately(t *testing.T) {
	h := newHarness(t, nil)
	e := startedGame(t, h, "round-empty")

	state := e.State()
	assert.Empty(t, state.Questions)
	assert.True(t, state.GameComplete)
}

func TestTimerExpiryActsAsSkip(t *testing.T) {
	h := newHarness(t, nil)
	e := startedGame(t, h, "round-tf")

	q := e.State().Questions[0]
	require.True(t, e.SelectQuestion(q.ID))
	timer := h.timers.last()
	assert.Equal(t, 30*time.Second, timer.d)

	timer.fire()
	state := e.State()
	assert.Nil(t, state.CurrentQuestion)
	assert.Equal(t, domain.OutcomeWrong, state.AnsweredQuestions[q.ID])
	assert.Equal(t, 1, state.Player.WrongAnswers)
}

func TestStaleTimerIsIgnored(t *testing.T) {
	h := newHarness(t, nil)
	e := startedGame(t, h, "round-tf")
	questions := e.State().Questions

	require.True(t, e.SelectQuestion(questions[0].ID))
	first := h.timers.last()
	require.True(t, e.SelectQuestion(questions[1].ID))
	assert.True(t, first.stopped())

	// a late callback from the first countdown must not skip the second question
	first.fire()
	state := e.State()
	require.NotNil(t, state.CurrentQuestion)
	assert.Equal(t, questions[1].ID, state.CurrentQuestion.ID)
	assert.Empty(t, state.AnsweredQuestions)

	require.True(t, e.AnswerQuestion(*questions[1].CorrectAnswer))
	second := h.timers.last()
	assert.True(t, second.stopped())
	second.fire()
	assert.Equal(t, 0, e.State().Player.WrongAnswers)

	require.True(t, e.NextQuestion())
	require.True(t, e.SelectQuestion(questions[2].ID))
	third := h.timers.last()
	require.True(t, e.ResetGame())
	third.fire()
	assert.Equal(t, domain.PhaseIdle, e.State().Phase)
}

func TestSubscribeReceivesUpdates(t *testing.T) {
	h := newHarness(t, nil)
	ch, cancel := h.engine.Subscribe()
	defer cancel()

	initial := <-ch
	assert.Equal(t, domain.PhaseIdle, initial.Phase)

	h.engine.SetPlayer("Budi")
	update := <-ch
	require.NotNil(t, update.Player)
	assert.Equal(t, "Budi", update.Player.Name)

	// no-ops do not publish
	h.engine.StartGame()
	select {
	case s := <-ch:
		t.Fatalf("unexpected update %+v", s)
	default:
	}
}

func TestSetPlayerDiscardsSession(t *testing.T) {
	h := newHarness(t, nil)
	e := startedGame(t, h, "round-tf")
	q := e.State().Questions[0]
	require.True(t, e.SelectQuestion(q.ID))
	timer := h.timers.last()

	require.True(t, e.SetPlayer("Another"))
	state := e.State()
	assert.Equal(t, domain.PhaseIdle, state.Phase)
	assert.Empty(t, state.Questions)
	assert.Equal(t, 0, state.Player.Score)
	assert.Equal(t, "", state.Player.RoundID)
	assert.True(t, timer.stopped())
}

// harness wires an engine to in-memory repositories with a deterministic
// shuffle and manual timers.
type harness struct {
	catalog *app.Catalog
	players app.LeaderboardRepository
	engine  *app.Engine
	timers  *fakeTimers
}

func newHarness(t *testing.T, players app.LeaderboardRepository, opts ...app.CatalogOption) *harness {
	t.Helper()
	if players == nil {
		players = memory.NewLeaderboardRepository()
	}
	catalog := app.NewCatalog(app.CatalogDeps{
		Questions:   memory.NewCatalogRepository(testRounds(), testQuestions()),
		Leaderboard: players,
		Admin:       memory.NewAdminRepository(""),
	}, opts...)
	require.NoError(t, catalog.Initialize(context.Background()))

	timers := &fakeTimers{}
	clock := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	engine := app.NewEngine(catalog,
		app.WithRand(rand.New(rand.NewSource(42))),
		app.WithClock(func() time.Time { return clock }),
		app.WithTimerFunc(timers.after),
		app.WithLogger(t.Logf),
	)
	return &harness{catalog: catalog, players: players, engine: engine, timers: timers}
}

func startedGame(t *testing.T, h *harness, roundID string) *app.Engine {
	t.Helper()
	require.True(t, h.engine.SetPlayer("Ahmad"))
	require.True(t, h.engine.SelectRound(roundID))
	require.True(t, h.engine.StartGame())
	return h.engine
}

func testRounds() []domain.Round {
	return []domain.Round{
		{ID: "round-tf", Name: "True/False", QuestionCounts: map[domain.Category]int{domain.C1: 2, domain.C2: 1}, TotalQuestions: 3},
		{ID: "round-mixed", Name: "Mixed", QuestionCounts: map[domain.Category]int{domain.C1: 1, domain.C3: 2, domain.C4: 5}, TotalQuestions: 8},
		{ID: "round-empty", Name: "Empty", QuestionCounts: map[domain.Category]int{domain.C6: 2}, TotalQuestions: 2},
	}
}

func testQuestions() []domain.Question {
	yes, no := domain.BoolAnswer(true), domain.BoolAnswer(false)
	labelB := domain.TextAnswer("B")
	return []domain.Question{
		{ID: "tf-1", Category: domain.C1, Type: domain.TypeTrueFalse, Prompt: "Aset adalah sumber daya.", CorrectAnswer: &yes, TimeLimit: 30, Points: 100},
		{ID: "tf-2", Category: domain.C1, Type: domain.TypeTrueFalse, Prompt: "Liabilitas adalah ekuitas.", CorrectAnswer: &no, TimeLimit: 30, Points: 100},
		{ID: "tf-3", Category: domain.C2, Type: domain.TypeTrueFalse, Prompt: "Pendapatan menambah ekuitas.", CorrectAnswer: &yes, TimeLimit: 0, Points: 100},
		{ID: "essay-1", Category: domain.C3, Type: domain.TypeEssay, Prompt: "Kas bertambah dicatat di sisi?", EssayAnswer: "Debit", TimeLimit: 60, Points: 150},
		{ID: "mc-1", Category: domain.C3, Type: domain.TypeMultipleChoice, Prompt: "Pilih akun riil.", Options: []string{"A. Beban", "B. Kas"}, CorrectAnswer: &labelB, TimeLimit: 45, Points: 120},
		{ID: "match-1", Category: domain.C4, Type: domain.TypeMatching, Prompt: "Pasangkan.", MatchingPairs: []domain.MatchingPair{{Left: "1", Right: "A"}}, MatchingAnswer: "1A-2B-3C", TimeLimit: 90, Points: 200},
	}
}

type fakeTimers struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (f *fakeTimers) after(d time.Duration, fn func()) app.Stopper {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &fakeTimer{d: d, fn: fn}
	f.timers = append(f.timers, t)
	return t
}

func (f *fakeTimers) last() *fakeTimer {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.timers[len(f.timers)-1]
}

type fakeTimer struct {
	mu      sync.Mutex
	d       time.Duration
	fn      func()
	halted  bool
}

func (t *fakeTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	was := !t.halted
	t.halted = true
	return was
}

func (t *fakeTimer) stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.halted
}

// fire runs the callback even when stopped, as a late timer would.
func (t *fakeTimer) fire() {
	t.fn()
}

type failingLeaderboard struct{}

func (failingLeaderboard) ListPlayers(context.Context) ([]domain.Player, error) {
	return nil, nil
}

func (failingLeaderboard) CreatePlayer(context.Context, domain.Player) (domain.Player, error) {
	return domain.Player{}, errors.New("connection refused")
}

func (failingLeaderboard) ClearAll(context.Context) error {
	return errors.New("connection refused")
}
