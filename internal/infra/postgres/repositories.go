package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"trivia-service/internal/domain"
)

// AnswerRepository persists member submissions in Postgres.
type AnswerRepository struct {
	pool *pgxpool.Pool
}

func NewAnswerRepository(pool *pgxpool.Pool) *AnswerRepository {
	return &AnswerRepository{pool: pool}
}

func (r *AnswerRepository) Upsert(ctx context.Context, a domain.Answer) (domain.Answer, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO user_answers (question_id, community_id, user_id, answer, submitted_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (question_id, user_id) DO UPDATE SET
			answer = excluded.answer,
			submitted_at = excluded.submitted_at
		RETURNING id`,
		a.QuestionID, a.CommunityID, a.UserID, a.Text, a.SubmittedAt,
	).Scan(&a.ID)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("upsert answer: %w", err)
	}
	return a, nil
}

func (r *AnswerRepository) ForQuestion(ctx context.Context, questionID int64) ([]domain.Answer, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, question_id, community_id, user_id, answer, is_correct, submitted_at
		FROM user_answers WHERE question_id = $1 ORDER BY id`, questionID)
	if err != nil {
		return nil, fmt.Errorf("answers for question: %w", err)
	}
	defer rows.Close()

	answers := make([]domain.Answer, 0)
	for rows.Next() {
		var a domain.Answer
		if err := rows.Scan(&a.ID, &a.QuestionID, &a.CommunityID, &a.UserID, &a.Text, &a.Correct, &a.SubmittedAt); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

func (r *AnswerRepository) MarkCorrect(ctx context.Context, answerID int64) error {
	if _, err := r.pool.Exec(ctx, `UPDATE user_answers SET is_correct = TRUE WHERE id = $1`, answerID); err != nil {
		return fmt.Errorf("mark answer correct: %w", err)
	}
	return nil
}

// LeaderboardRepository accumulates points per community member.
type LeaderboardRepository struct {
	pool *pgxpool.Pool
}

func NewLeaderboardRepository(pool *pgxpool.Pool) *LeaderboardRepository {
	return &LeaderboardRepository{pool: pool}
}

func (r *LeaderboardRepository) AddPoints(ctx context.Context, communityID, userID int64, points int) error {
	if _, err := r.pool.Exec(ctx, `
		INSERT INTO leaderboard (community_id, user_id, points) VALUES ($1, $2, $3)
		ON CONFLICT (user_id, community_id) DO UPDATE SET points = leaderboard.points + excluded.points`,
		communityID, userID, points); err != nil {
		return fmt.Errorf("add points: %w", err)
	}
	return nil
}

func (r *LeaderboardRepository) Top(ctx context.Context, communityID int64, limit int) ([]domain.LeaderboardEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT user_id, points FROM leaderboard
		WHERE community_id = $1 ORDER BY points DESC, user_id LIMIT $2`, communityID, limit)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.LeaderboardEntry, 0, limit)
	for rows.Next() {
		var e domain.LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.Points); err != nil {
			return nil, fmt.Errorf("scan leaderboard entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CommunityConfigRepository stores trivia channel configuration.
type CommunityConfigRepository struct {
	pool *pgxpool.Pool
}

func NewCommunityConfigRepository(pool *pgxpool.Pool) *CommunityConfigRepository {
	return &CommunityConfigRepository{pool: pool}
}

func (r *CommunityConfigRepository) SetChannel(ctx context.Context, communityID, channelID int64) error {
	if _, err := r.pool.Exec(ctx, `
		INSERT INTO community_config (community_id, channel_id) VALUES ($1, $2)
		ON CONFLICT (community_id) DO UPDATE SET channel_id = excluded.channel_id`,
		communityID, channelID); err != nil {
		return fmt.Errorf("set channel: %w", err)
	}
	return nil
}

func (r *CommunityConfigRepository) SetMentionRole(ctx context.Context, communityID int64, roleID *int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE community_config SET mention_role_id = $1 WHERE community_id = $2`,
		roleID, communityID)
	if err != nil {
		return fmt.Errorf("set mention role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCommunityNotConfigured
	}
	return nil
}

func (r *CommunityConfigRepository) Get(ctx context.Context, communityID int64) (domain.CommunityConfig, error) {
	var cfg domain.CommunityConfig
	err := r.pool.QueryRow(ctx, `
		SELECT community_id, channel_id, mention_role_id
		FROM community_config WHERE community_id = $1`, communityID,
	).Scan(&cfg.CommunityID, &cfg.ChannelID, &cfg.MentionRoleID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.CommunityConfig{}, domain.ErrCommunityNotConfigured
		}
		return domain.CommunityConfig{}, fmt.Errorf("get community config: %w", err)
	}
	return cfg, nil
}

func (r *CommunityConfigRepository) All(ctx context.Context) ([]domain.CommunityConfig, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT community_id, channel_id, mention_role_id FROM community_config ORDER BY community_id`)
	if err != nil {
		return nil, fmt.Errorf("all community configs: %w", err)
	}
	defer rows.Close()

	configs := make([]domain.CommunityConfig, 0)
	for rows.Next() {
		var cfg domain.CommunityConfig
		if err := rows.Scan(&cfg.CommunityID, &cfg.ChannelID, &cfg.MentionRoleID); err != nil {
			return nil, fmt.Errorf("scan community config: %w", err)
		}
		configs = append(configs, cfg)
	}
	return configs, rows.Err()
}
