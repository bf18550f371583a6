package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"trivia-service/internal/domain"
)

// QuestionRepository persists trivia questions in Postgres.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

const questionColumns = `id, community_id, author_id, question_type, prompt, answer, difficulty, created_at, asked_at, expires_at, closed`

func (r *QuestionRepository) Insert(ctx context.Context, q domain.Question) (domain.Question, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO trivia_questions (community_id, author_id, question_type, prompt, answer, difficulty, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		q.CommunityID, q.AuthorID, string(q.Type), q.Prompt, q.Answer, q.Difficulty, q.CreatedAt,
	).Scan(&q.ID)
	if err != nil {
		return domain.Question{}, fmt.Errorf("insert question: %w", err)
	}
	return q, nil
}

// PullRandomUnasked selects a random never-asked question and stamps
// its submission window inside one transaction.
func (r *QuestionRepository) PullRandomUnasked(ctx context.Context, communityID int64, askedAt, expiresAt time.Time) (domain.Question, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.Question{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var q domain.Question
	err = scanQuestion(tx.QueryRow(ctx, `
		SELECT `+questionColumns+`
		FROM trivia_questions
		WHERE asked_at IS NULL AND community_id = $1
		ORDER BY RANDOM() LIMIT 1
		FOR UPDATE SKIP LOCKED`, communityID), &q)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Question{}, domain.ErrQuestionNotFound
		}
		return domain.Question{}, fmt.Errorf("pull random question: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE trivia_questions SET asked_at = $1, expires_at = $2 WHERE id = $3`,
		askedAt, expiresAt, q.ID); err != nil {
		return domain.Question{}, fmt.Errorf("mark question asked: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.Question{}, fmt.Errorf("commit: %w", err)
	}

	q.AskedAt = &askedAt
	q.ExpiresAt = &expiresAt
	return q, nil
}

func (r *QuestionRepository) Active(ctx context.Context, communityID int64, now time.Time) (domain.Question, error) {
	var q domain.Question
	err := scanQuestion(r.pool.QueryRow(ctx, `
		SELECT `+questionColumns+`
		FROM trivia_questions
		WHERE community_id = $1 AND asked_at IS NOT NULL
		  AND closed = FALSE AND expires_at > $2
		ORDER BY asked_at DESC LIMIT 1`, communityID, now), &q)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Question{}, domain.ErrNoActiveQuestion
		}
		return domain.Question{}, fmt.Errorf("active question: %w", err)
	}
	return q, nil
}

func (r *QuestionRepository) Expired(ctx context.Context, now time.Time) ([]domain.Question, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+questionColumns+`
		FROM trivia_questions
		WHERE expires_at <= $1 AND closed = FALSE
		ORDER BY expires_at`, now)
	if err != nil {
		return nil, fmt.Errorf("expired questions: %w", err)
	}
	defer rows.Close()

	questions := make([]domain.Question, 0)
	for rows.Next() {
		var q domain.Question
		if err := scanQuestion(rows, &q); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

func (r *QuestionRepository) Close(ctx context.Context, questionID int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE trivia_questions SET closed = TRUE WHERE id = $1`, questionID)
	if err != nil {
		return fmt.Errorf("close question: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuestionNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanQuestion(row rowScanner, q *domain.Question) error {
	var questionType string
	if err := row.Scan(
		&q.ID, &q.CommunityID, &q.AuthorID, &questionType, &q.Prompt, &q.Answer,
		&q.Difficulty, &q.CreatedAt, &q.AskedAt, &q.ExpiresAt, &q.Closed,
	); err != nil {
		return err
	}
	q.Type = domain.QuestionType(questionType)
	return nil
}
