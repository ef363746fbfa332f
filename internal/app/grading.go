package app

import (
	"strings"
	"unicode"

	"smart-board-game/internal/domain"
)

// grade reports whether answer is correct for q. Only the answer key of the
// question's own type is read.
func grade(q domain.Question, answer domain.Answer) bool {
	switch q.Type {
	case domain.TypeTrueFalse, domain.TypeMultipleChoice:
		return q.CorrectAnswer != nil && answer.Equal(*q.CorrectAnswer)
	case domain.TypeEssay:
		return normalizeEssay(answer.String()) == normalizeEssay(q.EssayAnswer)
	case domain.TypeMatching:
		// The key is compared as a single token; there is no partial credit.
		return normalizeMatching(answer.String()) == normalizeMatching(q.MatchingAnswer)
	default:
		return false
	}
}

func normalizeEssay(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func normalizeMatching(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToUpper(r)
	}, s)
}
