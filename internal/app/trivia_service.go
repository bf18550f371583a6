package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"trivia-service/internal/domain"
	"trivia-service/internal/grading"
)

// QuestionRepository persists trivia questions and their lifecycle
// (unasked -> asked -> closed).
type QuestionRepository interface {
	Insert(ctx context.Context, q domain.Question) (domain.Question, error)
	// PullRandomUnasked picks a random never-asked question for the
	// community and stamps it asked/expiring in one step.
	PullRandomUnasked(ctx context.Context, communityID int64, askedAt, expiresAt time.Time) (domain.Question, error)
	// Active returns the most recent open, unexpired question.
	Active(ctx context.Context, communityID int64, now time.Time) (domain.Question, error)
	// Expired returns open questions whose submission window has passed.
	Expired(ctx context.Context, now time.Time) ([]domain.Question, error)
	Close(ctx context.Context, questionID int64) error
}

// AnswerRepository persists member submissions, one per (question, user).
type AnswerRepository interface {
	Upsert(ctx context.Context, a domain.Answer) (domain.Answer, error)
	ForQuestion(ctx context.Context, questionID int64) ([]domain.Answer, error)
	MarkCorrect(ctx context.Context, answerID int64) error
}

// LeaderboardRepository accumulates points per community member.
type LeaderboardRepository interface {
	AddPoints(ctx context.Context, communityID, userID int64, points int) error
	Top(ctx context.Context, communityID int64, limit int) ([]domain.LeaderboardEntry, error)
}

// CommunityConfigRepository stores where trivia is posted per community.
type CommunityConfigRepository interface {
	SetChannel(ctx context.Context, communityID, channelID int64) error
	SetMentionRole(ctx context.Context, communityID int64, roleID *int64) error
	Get(ctx context.Context, communityID int64) (domain.CommunityConfig, error)
	All(ctx context.Context) ([]domain.CommunityConfig, error)
}

// ActiveQuestionCache fronts QuestionRepository.Active (in-memory, Redis, etc).
type ActiveQuestionCache interface {
	Active(ctx context.Context, communityID int64) (domain.Question, error)
	Invalidate(ctx context.Context, communityID int64) error
}

// TriviaService contains the trivia use cases.
type TriviaService struct {
	questions   QuestionRepository
	answers     AnswerRepository
	leaderboard LeaderboardRepository
	configs     CommunityConfigRepository
	active      ActiveQuestionCache

	questionTTL     time.Duration
	leaderboardSize int
	now             func() time.Time
	log             *zap.Logger
}

func NewTriviaService(
	questions QuestionRepository,
	answers AnswerRepository,
	leaderboard LeaderboardRepository,
	configs CommunityConfigRepository,
	active ActiveQuestionCache,
	questionTTL time.Duration,
	leaderboardSize int,
	log *zap.Logger,
) *TriviaService {
	if leaderboardSize <= 0 {
		leaderboardSize = 10
	}
	return &TriviaService{
		questions:       questions,
		answers:         answers,
		leaderboard:     leaderboard,
		configs:         configs,
		active:          active,
		questionTTL:     questionTTL,
		leaderboardSize: leaderboardSize,
		now:             time.Now,
		log:             log,
	}
}

// WithClock is test-only for deterministic timestamps.
func (s *TriviaService) WithClock(now func() time.Time) *TriviaService {
	s.now = now
	return s
}

// SetChannel configures (or moves) the trivia channel for a community.
func (s *TriviaService) SetChannel(ctx context.Context, communityID, channelID int64) error {
	if err := s.configs.SetChannel(ctx, communityID, channelID); err != nil {
		return fmt.Errorf("set channel: %w", err)
	}
	return nil
}

// SetMentionRole sets or clears the role mentioned when a question is
// posted. The community must already have a channel configured.
func (s *TriviaService) SetMentionRole(ctx context.Context, communityID int64, roleID *int64) error {
	if err := s.configs.SetMentionRole(ctx, communityID, roleID); err != nil {
		return fmt.Errorf("set mention role: %w", err)
	}
	return nil
}

// Communities lists every configured community.
func (s *TriviaService) Communities(ctx context.Context) ([]domain.CommunityConfig, error) {
	return s.configs.All(ctx)
}

// Config returns one community's trivia configuration.
func (s *TriviaService) Config(ctx context.Context, communityID int64) (domain.CommunityConfig, error) {
	return s.configs.Get(ctx, communityID)
}

// SubmitQuestion validates and stores a member-authored question.
func (s *TriviaService) SubmitQuestion(ctx context.Context, communityID, authorID int64, rawType, prompt, answer string, difficulty int) (domain.Question, error) {
	questionType, err := domain.ParseQuestionType(rawType)
	if err != nil {
		return domain.Question{}, err
	}
	if difficulty < 1 || difficulty > 5 {
		return domain.Question{}, domain.ErrInvalidDifficulty
	}
	if strings.TrimSpace(prompt) == "" {
		return domain.Question{}, domain.ErrEmptyQuestion
	}
	if strings.TrimSpace(answer) == "" {
		return domain.Question{}, domain.ErrEmptyAnswer
	}

	q := domain.Question{
		CommunityID: communityID,
		AuthorID:    authorID,
		Type:        questionType,
		Prompt:      strings.TrimSpace(prompt),
		Answer:      strings.TrimSpace(answer),
		Difficulty:  difficulty,
		CreatedAt:   s.now(),
	}
	stored, err := s.questions.Insert(ctx, q)
	if err != nil {
		return domain.Question{}, fmt.Errorf("store question: %w", err)
	}
	return stored, nil
}

// ActiveQuestion returns the currently open question for a community.
func (s *TriviaService) ActiveQuestion(ctx context.Context, communityID int64) (domain.Question, error) {
	return s.active.Active(ctx, communityID)
}

// SubmitAnswer records a member's answer against the active question.
// Resubmitting replaces the previous text.
func (s *TriviaService) SubmitAnswer(ctx context.Context, communityID, userID int64, text string) (domain.Answer, error) {
	if strings.TrimSpace(text) == "" {
		return domain.Answer{}, domain.ErrEmptyAnswer
	}
	question, err := s.active.Active(ctx, communityID)
	if err != nil {
		return domain.Answer{}, err
	}
	answer := domain.Answer{
		QuestionID:  question.ID,
		CommunityID: communityID,
		UserID:      userID,
		Text:        text,
		SubmittedAt: s.now(),
	}
	stored, err := s.answers.Upsert(ctx, answer)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("store answer: %w", err)
	}
	return stored, nil
}

// Leaderboard returns the community's top scorers.
func (s *TriviaService) Leaderboard(ctx context.Context, communityID int64) ([]domain.LeaderboardEntry, error) {
	entries, err := s.leaderboard.Top(ctx, communityID, s.leaderboardSize)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	return entries, nil
}

// PostQuestion opens a submission window on a random unasked question.
// Returns ErrQuestionNotFound when the community's pool is exhausted.
func (s *TriviaService) PostQuestion(ctx context.Context, communityID int64) (domain.Question, error) {
	now := s.now()
	question, err := s.questions.PullRandomUnasked(ctx, communityID, now, now.Add(s.questionTTL))
	if err != nil {
		return domain.Question{}, err
	}
	if err := s.active.Invalidate(ctx, communityID); err != nil {
		s.log.Warn("invalidate active question cache",
			zap.Int64("communityId", communityID), zap.Error(err))
	}
	return question, nil
}

// GradeExpired closes every question whose window has passed: each
// submission is evaluated, points land on the leaderboard, correct
// answers are flagged, and the question is closed so a second pass
// cannot double-award. Failures on one question are logged and do not
// stop the pass.
func (s *TriviaService) GradeExpired(ctx context.Context) ([]domain.QuestionResults, error) {
	expired, err := s.questions.Expired(ctx, s.now())
	if err != nil {
		return nil, fmt.Errorf("fetch expired questions: %w", err)
	}

	results := make([]domain.QuestionResults, 0, len(expired))
	for _, question := range expired {
		graded, err := s.gradeQuestion(ctx, question)
		if err != nil {
			s.log.Error("grading question failed",
				zap.Int64("questionId", question.ID),
				zap.Int64("communityId", question.CommunityID),
				zap.Error(err))
			continue
		}
		results = append(results, domain.QuestionResults{Question: question, Graded: graded})
	}
	return results, nil
}

func (s *TriviaService) gradeQuestion(ctx context.Context, question domain.Question) ([]domain.GradedAnswer, error) {
	submissions, err := s.answers.ForQuestion(ctx, question.ID)
	if err != nil {
		return nil, fmt.Errorf("fetch answers: %w", err)
	}

	graded := make([]domain.GradedAnswer, 0, len(submissions))
	for _, submission := range submissions {
		correct, points := grading.Evaluate(question.Answer, submission.Text, question.Type, question.Difficulty)
		if points > 0 {
			if err := s.leaderboard.AddPoints(ctx, question.CommunityID, submission.UserID, points); err != nil {
				return nil, fmt.Errorf("award points to user %d: %w", submission.UserID, err)
			}
		}
		if correct {
			if err := s.answers.MarkCorrect(ctx, submission.ID); err != nil {
				return nil, fmt.Errorf("mark answer %d correct: %w", submission.ID, err)
			}
		}
		graded = append(graded, domain.GradedAnswer{UserID: submission.UserID, Correct: correct, Points: points})
	}

	if err := s.questions.Close(ctx, question.ID); err != nil {
		return nil, fmt.Errorf("close question: %w", err)
	}
	if err := s.active.Invalidate(ctx, question.CommunityID); err != nil {
		s.log.Warn("invalidate active question cache",
			zap.Int64("communityId", question.CommunityID), zap.Error(err))
	}
	return graded, nil
}

// IsNotFound reports whether err is one of the domain lookup misses.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrNoActiveQuestion) ||
		errors.Is(err, domain.ErrQuestionNotFound) ||
		errors.Is(err, domain.ErrCommunityNotConfigured)
}
