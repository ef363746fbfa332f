package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Category is one of the six topic tiers, ordered from foundational to advanced.
type Category string

const (
	C1 Category = "C1"
	C2 Category = "C2"
	C3 Category = "C3"
	C4 Category = "C4"
	C5 Category = "C5"
	C6 Category = "C6"
)

// Categories lists every category in draw order.
var Categories = []Category{C1, C2, C3, C4, C5, C6}

var categoryLabels = map[Category]string{
	C1: "Konsep Dasar",
	C2: "Pengakuan",
	C3: "Pencatatan",
	C4: "Penyesuaian",
	C5: "Pelaporan",
	C6: "Penutupan",
}

// Valid reports whether c is one of C1..C6.
func (c Category) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// Label returns the display name of the category.
func (c Category) Label() string {
	return categoryLabels[c]
}

// QuestionType selects the answer shape and the grading rule of a question.
type QuestionType string

const (
	TypeEssay          QuestionType = "essay"
	TypeMultipleChoice QuestionType = "multiple_choice"
	TypeTrueFalse      QuestionType = "true_false"
	TypeMatching       QuestionType = "matching"
)

// Answer is either a string or a boolean. It encodes to JSON as the bare value.
type Answer struct {
	text   string
	value  bool
	isBool bool
}

// TextAnswer wraps a string answer.
func TextAnswer(s string) Answer { return Answer{text: s} }

// BoolAnswer wraps a boolean answer.
func BoolAnswer(b bool) Answer { return Answer{value: b, isBool: true} }

// IsBool reports whether the answer holds a boolean.
func (a Answer) IsBool() bool { return a.isBool }

// Bool returns the boolean value; false for text answers.
func (a Answer) Bool() bool { return a.isBool && a.value }

// String renders the answer as text; booleans become "true" or "false".
func (a Answer) String() string {
	if a.isBool {
		return strconv.FormatBool(a.value)
	}
	return a.text
}

// Equal is strict: both kind and value must match.
func (a Answer) Equal(other Answer) bool {
	if a.isBool != other.isBool {
		return false
	}
	if a.isBool {
		return a.value == other.value
	}
	return a.text == other.text
}

func (a Answer) MarshalJSON() ([]byte, error) {
	if a.isBool {
		return json.Marshal(a.value)
	}
	return json.Marshal(a.text)
}

func (a *Answer) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*a = BoolAnswer(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("answer must be a string or boolean: %w", err)
	}
	*a = TextAnswer(s)
	return nil
}

// MatchingPair is one left/right row of a matching question.
type MatchingPair struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

// DefaultTimeLimit applies to questions stored without a time limit, in seconds.
const DefaultTimeLimit = 30

// Question is a single quiz item. Only the answer fields of its Type are set.
type Question struct {
	ID             string         `json:"id"`
	Category       Category       `json:"category"`
	Type           QuestionType   `json:"type"`
	Prompt         string         `json:"question"`
	ImageURL       string         `json:"imageUrl,omitempty"`
	Options        []string       `json:"options,omitempty"`
	CorrectAnswer  *Answer        `json:"correctAnswer,omitempty"`
	EssayAnswer    string         `json:"essayAnswer,omitempty"`
	MatchingPairs  []MatchingPair `json:"matchingPairs,omitempty"`
	MatchingAnswer string         `json:"matchingAnswer,omitempty"`
	TimeLimit      int            `json:"timeLimit"`
	Points         int            `json:"points"`
}

// Normalize clears the answer fields that do not belong to the question type.
func (q Question) Normalize() Question {
	switch q.Type {
	case TypeEssay:
		q.Options, q.CorrectAnswer, q.MatchingPairs, q.MatchingAnswer = nil, nil, nil, ""
	case TypeMultipleChoice:
		q.EssayAnswer, q.MatchingPairs, q.MatchingAnswer = "", nil, ""
	case TypeTrueFalse:
		q.Options, q.EssayAnswer, q.MatchingPairs, q.MatchingAnswer = nil, "", nil, ""
	case TypeMatching:
		q.Options, q.CorrectAnswer, q.EssayAnswer = nil, nil, ""
	}
	return q
}

// Validate checks that the question carries the answer key its type needs.
func (q Question) Validate() error {
	if strings.TrimSpace(q.Prompt) == "" {
		return fmt.Errorf("%w: prompt is required", ErrInvalidQuestion)
	}
	if !q.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidQuestion, q.Category)
	}
	if q.Points < 0 || q.TimeLimit < 0 {
		return fmt.Errorf("%w: points and time limit must not be negative", ErrInvalidQuestion)
	}
	switch q.Type {
	case TypeEssay:
		if strings.TrimSpace(q.EssayAnswer) == "" {
			return fmt.Errorf("%w: essay answer is required", ErrInvalidQuestion)
		}
	case TypeMultipleChoice:
		if len(q.Options) < 2 {
			return fmt.Errorf("%w: multiple choice needs at least two options", ErrInvalidQuestion)
		}
		if q.CorrectAnswer == nil || q.CorrectAnswer.IsBool() || q.CorrectAnswer.String() == "" {
			return fmt.Errorf("%w: multiple choice needs a correct option label", ErrInvalidQuestion)
		}
	case TypeTrueFalse:
		if q.CorrectAnswer == nil || !q.CorrectAnswer.IsBool() {
			return fmt.Errorf("%w: true/false needs a boolean correct answer", ErrInvalidQuestion)
		}
	case TypeMatching:
		if len(q.MatchingPairs) == 0 || strings.TrimSpace(q.MatchingAnswer) == "" {
			return fmt.Errorf("%w: matching needs pairs and an answer key", ErrInvalidQuestion)
		}
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidQuestion, q.Type)
	}
	return nil
}

// Public strips the answer key so the question can be shown to a player.
func (q Question) Public() Question {
	q.CorrectAnswer = nil
	q.EssayAnswer = ""
	q.MatchingAnswer = ""
	return q
}

// Seconds returns the countdown for the question.
func (q Question) Seconds() time.Duration {
	if q.TimeLimit <= 0 {
		return DefaultTimeLimit * time.Second
	}
	return time.Duration(q.TimeLimit) * time.Second
}

// Round is an admin-configured bundle of per-category question counts.
type Round struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	QuestionCounts map[Category]int `json:"questionCounts"`
	TotalQuestions int              `json:"totalQuestions"`
}

// NewRound builds a round and computes its total. Negative counts and unknown
// categories are rejected.
func NewRound(id, name string, counts map[Category]int) (Round, error) {
	if strings.TrimSpace(name) == "" {
		return Round{}, fmt.Errorf("%w: name is required", ErrInvalidRound)
	}
	normalized := make(map[Category]int, len(Categories))
	for _, c := range Categories {
		normalized[c] = 0
	}
	total := 0
	for c, n := range counts {
		if !c.Valid() {
			return Round{}, fmt.Errorf("%w: unknown category %q", ErrInvalidRound, c)
		}
		if n < 0 {
			return Round{}, fmt.Errorf("%w: negative count for %s", ErrInvalidRound, c)
		}
		normalized[c] = n
		total += n
	}
	if total == 0 {
		return Round{}, fmt.Errorf("%w: round has no questions", ErrInvalidRound)
	}
	return Round{ID: id, Name: name, QuestionCounts: normalized, TotalQuestions: total}, nil
}

// Player is both the in-session player and, once CompletedAt is set, a leaderboard entry.
type Player struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Score          int        `json:"score"`
	CorrectAnswers int        `json:"correctAnswers"`
	WrongAnswers   int        `json:"wrongAnswers"`
	RoundID        string     `json:"roundId"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
}

// Outcome is the recorded result of a question in a session.
type Outcome string

const (
	OutcomeCorrect Outcome = "correct"
	OutcomeWrong   Outcome = "wrong"
)

// Phase names where a session is in its lifecycle.
type Phase string

const (
	PhaseIdle              Phase = "idle"
	PhaseRoundSelected     Phase = "round_selected"
	PhaseAwaitingSelection Phase = "awaiting_selection"
	PhaseQuestionPresented Phase = "question_presented"
	PhaseFeedback          Phase = "feedback"
	PhaseComplete          Phase = "complete"
)

// GameState is a point-in-time copy of a session.
type GameState struct {
	Phase                Phase              `json:"phase"`
	Player               *Player            `json:"player"`
	CurrentRound         *Round             `json:"currentRound"`
	CurrentQuestion      *Question          `json:"currentQuestion"`
	CurrentQuestionIndex int                `json:"currentQuestionIndex"`
	Questions            []Question         `json:"questions"`
	AnsweredQuestions    map[string]Outcome `json:"answeredQuestions"`
	IsPlaying            bool               `json:"isPlaying"`
	ShowFeedback         bool               `json:"showFeedback"`
	LastAnswerCorrect    *bool              `json:"lastAnswerCorrect"`
	GameComplete         bool               `json:"gameComplete"`
}

// GameStats summarizes the leaderboard for the admin analytics view.
type GameStats struct {
	TotalGames   int    `json:"totalGames"`
	AverageScore int    `json:"averageScore"`
	HighestScore int    `json:"highestScore"`
	TopPlayer    string `json:"topPlayer"`
}

// Snapshot is the locally cached copy of the catalog.
type Snapshot struct {
	Rounds      []Round    `json:"rounds"`
	Questions   []Question `json:"questions"`
	Leaderboard []Player   `json:"leaderboard"`
	AdminPin    string     `json:"adminPin"`
	SavedAt     time.Time  `json:"savedAt"`
}

// Empty reports whether the snapshot carries no catalog data.
func (s Snapshot) Empty() bool {
	return len(s.Rounds) == 0 && len(s.Questions) == 0 && len(s.Leaderboard) == 0 && s.AdminPin == ""
}
