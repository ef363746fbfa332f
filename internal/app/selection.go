package app

import (
	"math/rand"

	"smart-board-game/internal/domain"
)

// drawQuestions picks each category's quota from the catalog, then shuffles
// the combined list so category order is lost. Categories with fewer
// questions than requested contribute what they have; shortfall reports how
// many were missing per category.
func drawQuestions(rnd *rand.Rand, round domain.Round, catalog []domain.Question) (drawn []domain.Question, shortfall map[domain.Category]int) {
	for _, category := range domain.Categories {
		want := round.QuestionCounts[category]
		if want <= 0 {
			continue
		}
		var pool []domain.Question
		for _, q := range catalog {
			if q.Category == category {
				pool = append(pool, q)
			}
		}
		shuffle(rnd, pool)
		take := want
		if len(pool) < want {
			take = len(pool)
			if shortfall == nil {
				shortfall = make(map[domain.Category]int)
			}
			shortfall[category] = want - len(pool)
		}
		drawn = append(drawn, pool[:take]...)
	}
	shuffle(rnd, drawn)
	return drawn, shortfall
}

// shuffle is an unbiased Fisher-Yates shuffle driven by rnd.
func shuffle(rnd *rand.Rand, questions []domain.Question) {
	rnd.Shuffle(len(questions), func(i, j int) {
		questions[i], questions[j] = questions[j], questions[i]
	})
}
