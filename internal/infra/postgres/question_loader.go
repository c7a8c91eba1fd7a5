package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"email-quiz-service/internal/domain"
)

// QuestionLoader reads question rows straight from Postgres over a pgx pool,
// bypassing the ORM on the latency-sensitive read path. Caching repositories
// sit in front of it.
type QuestionLoader struct {
	pool *pgxpool.Pool
}

func NewQuestionLoader(pool *pgxpool.Pool) *QuestionLoader {
	return &QuestionLoader{pool: pool}
}

func (l *QuestionLoader) LoadQuestion(ctx context.Context, id int64) (domain.Question, error) {
	q := domain.Question{}
	err := l.pool.QueryRow(ctx,
		`SELECT id, question, option1, option2, option3, correct_option, active, created_at
		 FROM questions WHERE id=$1`, id).
		Scan(&q.ID, &q.Text, &q.Options[0], &q.Options[1], &q.Options[2], &q.CorrectOption, &q.Active, &q.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	if err != nil {
		return domain.Question{}, fmt.Errorf("load question: %w", err)
	}
	return q, nil
}
