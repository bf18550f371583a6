package scheduler

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"trivia-service/internal/app"
	"trivia-service/internal/domain"
)

// Announcer is the chat-platform boundary: it delivers posted
// questions and grading results to a community's configured channel.
type Announcer interface {
	AnnounceQuestion(ctx context.Context, cfg domain.CommunityConfig, q domain.Question)
	AnnounceResults(ctx context.Context, cfg domain.CommunityConfig, results domain.QuestionResults)
}

// Scheduler drives the two periodic passes: posting one question per
// community and grading questions whose window has closed.
type Scheduler struct {
	service   *app.TriviaService
	announcer Announcer

	postInterval  time.Duration
	gradeInterval time.Duration
	log           *zap.Logger
}

func New(service *app.TriviaService, announcer Announcer, postInterval, gradeInterval time.Duration, log *zap.Logger) *Scheduler {
	return &Scheduler{
		service:       service,
		announcer:     announcer,
		postInterval:  postInterval,
		gradeInterval: gradeInterval,
		log:           log,
	}
}

// Run blocks until ctx is cancelled. Pass failures are logged and the
// loops keep ticking; nothing inside a pass is retried.
func (s *Scheduler) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.loop(ctx, s.postInterval, s.postPass) })
	g.Go(func() error { return s.loop(ctx, s.gradeInterval, s.gradePass) })
	return g.Wait()
}

func (s *Scheduler) loop(ctx context.Context, interval time.Duration, pass func(context.Context)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			pass(ctx)
		}
	}
}

// postPass posts a question to every configured community that has no
// open question and an unasked pool to draw from.
func (s *Scheduler) postPass(ctx context.Context) {
	configs, err := s.service.Communities(ctx)
	if err != nil {
		s.log.Error("list communities", zap.Error(err))
		return
	}

	for _, cfg := range configs {
		if _, err := s.service.ActiveQuestion(ctx, cfg.CommunityID); err == nil {
			continue // submission window still open
		} else if !errors.Is(err, domain.ErrNoActiveQuestion) {
			s.log.Error("check active question",
				zap.Int64("communityId", cfg.CommunityID), zap.Error(err))
			continue
		}

		question, err := s.service.PostQuestion(ctx, cfg.CommunityID)
		if err != nil {
			if errors.Is(err, domain.ErrQuestionNotFound) {
				s.log.Debug("no unasked questions left",
					zap.Int64("communityId", cfg.CommunityID))
			} else {
				s.log.Error("post question",
					zap.Int64("communityId", cfg.CommunityID), zap.Error(err))
			}
			continue
		}

		s.log.Info("question posted",
			zap.Int64("communityId", cfg.CommunityID),
			zap.Int64("questionId", question.ID),
			zap.String("type", string(question.Type)),
			zap.Timep("expiresAt", question.ExpiresAt))
		s.announcer.AnnounceQuestion(ctx, cfg, question)
	}
}

// gradePass grades every expired question and announces the results.
func (s *Scheduler) gradePass(ctx context.Context) {
	results, err := s.service.GradeExpired(ctx)
	if err != nil {
		s.log.Error("grade expired questions", zap.Error(err))
		return
	}

	for _, result := range results {
		cfg, err := s.service.Config(ctx, result.Question.CommunityID)
		if err != nil {
			s.log.Warn("results for unconfigured community",
				zap.Int64("communityId", result.Question.CommunityID), zap.Error(err))
			continue
		}
		s.log.Info("question graded",
			zap.Int64("communityId", result.Question.CommunityID),
			zap.Int64("questionId", result.Question.ID),
			zap.Int("submissions", len(result.Graded)))
		s.announcer.AnnounceResults(ctx, cfg, result)
	}
}
