package domain

import "errors"

var (
	// ErrRoundNotFound is returned when a round id does not match the catalog.
	ErrRoundNotFound = errors.New("round not found")
	// ErrQuestionNotFound indicates a question id is not in the catalog.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrInvalidRound is returned for rounds with no name or no questions.
	ErrInvalidRound = errors.New("invalid round")
	// ErrInvalidQuestion is returned when a question's fields do not fit its type.
	ErrInvalidQuestion = errors.New("invalid question")
	// ErrInvalidPin indicates the supplied admin PIN did not match.
	ErrInvalidPin = errors.New("invalid admin pin")
	// ErrSessionNotFound is returned when a game session is not tracked.
	ErrSessionNotFound = errors.New("game session not found")
)
