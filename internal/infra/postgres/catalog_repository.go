package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"smart-board-game/internal/domain"
)

// CatalogRepository stores rounds and questions. Question counts, options and
// matching pairs live in JSONB columns; correct_answer is text, with
// true/false questions stored as "true" or "false".
type CatalogRepository struct {
	pool *pgxpool.Pool
}

func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

func (r *CatalogRepository) ListRounds(ctx context.Context) ([]domain.Round, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, question_counts, total_questions FROM rounds ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list rounds: %w", err)
	}
	defer rows.Close()

	rounds := []domain.Round{}
	for rows.Next() {
		var (
			round  domain.Round
			counts []byte
		)
		if err := rows.Scan(&round.ID, &round.Name, &counts, &round.TotalQuestions); err != nil {
			return nil, fmt.Errorf("scan round: %w", err)
		}
		if err := json.Unmarshal(counts, &round.QuestionCounts); err != nil {
			return nil, fmt.Errorf("unmarshal question counts of round %s: %w", round.ID, err)
		}
		rounds = append(rounds, round)
	}
	return rounds, rows.Err()
}

func (r *CatalogRepository) CreateRound(ctx context.Context, round domain.Round) (domain.Round, error) {
	counts, err := json.Marshal(round.QuestionCounts)
	if err != nil {
		return domain.Round{}, fmt.Errorf("marshal question counts: %w", err)
	}
	err = r.pool.QueryRow(ctx,
		`INSERT INTO rounds (name, question_counts, total_questions) VALUES ($1, $2, $3) RETURNING id`,
		round.Name, counts, round.TotalQuestions,
	).Scan(&round.ID)
	if err != nil {
		return domain.Round{}, fmt.Errorf("insert round: %w", err)
	}
	return round, nil
}

func (r *CatalogRepository) DeleteRound(ctx context.Context, roundID string) error {
	if !domain.IsUUID(roundID) {
		return domain.ErrRoundNotFound
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM rounds WHERE id = $1`, roundID)
	if err != nil {
		return fmt.Errorf("delete round: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRoundNotFound
	}
	return nil
}

func (r *CatalogRepository) ListQuestions(ctx context.Context) ([]domain.Question, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, category, type, question, image_url, options, correct_answer,
		       essay_answer, matching_pairs, matching_answer, time_limit, points
		FROM questions ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	questions := []domain.Question{}
	for rows.Next() {
		var row questionRow
		if err := rows.Scan(&row.ID, &row.Category, &row.Type, &row.Prompt, &row.ImageURL, &row.Options,
			&row.CorrectAnswer, &row.EssayAnswer, &row.MatchingPairs, &row.MatchingAnswer, &row.TimeLimit, &row.Points); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		q, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

func (r *CatalogRepository) CreateQuestion(ctx context.Context, q domain.Question) (domain.Question, error) {
	row, err := questionToRow(q)
	if err != nil {
		return domain.Question{}, err
	}
	err = r.pool.QueryRow(ctx, `
		INSERT INTO questions (category, type, question, image_url, options, correct_answer,
		                       essay_answer, matching_pairs, matching_answer, time_limit, points)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`,
		row.Category, row.Type, row.Prompt, row.ImageURL, row.Options, row.CorrectAnswer,
		row.EssayAnswer, row.MatchingPairs, row.MatchingAnswer, row.TimeLimit, row.Points,
	).Scan(&q.ID)
	if err != nil {
		return domain.Question{}, fmt.Errorf("insert question: %w", err)
	}
	return q, nil
}

func (r *CatalogRepository) DeleteQuestion(ctx context.Context, questionID string) error {
	if !domain.IsUUID(questionID) {
		return domain.ErrQuestionNotFound
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM questions WHERE id = $1`, questionID)
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuestionNotFound
	}
	return nil
}

// CountQuestions reports how many questions are stored, so seeding can skip
// a populated database.
func (r *CatalogRepository) CountQuestions(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM questions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count questions: %w", err)
	}
	return n, nil
}

// questionRow mirrors a questions row; nullable columns are pointers.
type questionRow struct {
	ID             string
	Category       string
	Type           string
	Prompt         string
	ImageURL       *string
	Options        []byte
	CorrectAnswer  *string
	EssayAnswer    *string
	MatchingPairs  []byte
	MatchingAnswer *string
	TimeLimit      int
	Points         int
}

func (row questionRow) toDomain() (domain.Question, error) {
	q := domain.Question{
		ID:             row.ID,
		Category:       domain.Category(row.Category),
		Type:           domain.QuestionType(row.Type),
		Prompt:         row.Prompt,
		ImageURL:       deref(row.ImageURL),
		EssayAnswer:    deref(row.EssayAnswer),
		MatchingAnswer: deref(row.MatchingAnswer),
		TimeLimit:      row.TimeLimit,
		Points:         row.Points,
	}
	if len(row.Options) > 0 {
		if err := json.Unmarshal(row.Options, &q.Options); err != nil {
			return domain.Question{}, fmt.Errorf("unmarshal options of question %s: %w", row.ID, err)
		}
	}
	if len(row.MatchingPairs) > 0 {
		if err := json.Unmarshal(row.MatchingPairs, &q.MatchingPairs); err != nil {
			return domain.Question{}, fmt.Errorf("unmarshal matching pairs of question %s: %w", row.ID, err)
		}
	}
	if row.CorrectAnswer != nil {
		var answer domain.Answer
		if q.Type == domain.TypeTrueFalse {
			answer = domain.BoolAnswer(*row.CorrectAnswer == "true")
		} else {
			answer = domain.TextAnswer(*row.CorrectAnswer)
		}
		q.CorrectAnswer = &answer
	}
	return q, nil
}

func questionToRow(q domain.Question) (questionRow, error) {
	row := questionRow{
		Category:       string(q.Category),
		Type:           string(q.Type),
		Prompt:         q.Prompt,
		ImageURL:       optional(q.ImageURL),
		EssayAnswer:    optional(q.EssayAnswer),
		MatchingAnswer: optional(q.MatchingAnswer),
		TimeLimit:      q.TimeLimit,
		Points:         q.Points,
	}
	if q.Options != nil {
		raw, err := json.Marshal(q.Options)
		if err != nil {
			return questionRow{}, fmt.Errorf("marshal options: %w", err)
		}
		row.Options = raw
	}
	if q.MatchingPairs != nil {
		raw, err := json.Marshal(q.MatchingPairs)
		if err != nil {
			return questionRow{}, fmt.Errorf("marshal matching pairs: %w", err)
		}
		row.MatchingPairs = raw
	}
	if q.CorrectAnswer != nil {
		s := q.CorrectAnswer.String()
		row.CorrectAnswer = &s
	}
	return row, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
