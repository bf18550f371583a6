package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"trivia-service/internal/domain"
)

func TestQuestionLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewQuestionRepository()
	now := time.Now()

	if _, err := repo.Active(ctx, 1, now); !errors.Is(err, domain.ErrNoActiveQuestion) {
		t.Fatalf("expected ErrNoActiveQuestion, got %v", err)
	}
	if _, err := repo.PullRandomUnasked(ctx, 1, now, now.Add(time.Minute)); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected ErrQuestionNotFound on empty pool, got %v", err)
	}

	stored, err := repo.Insert(ctx, domain.Question{
		CommunityID: 1, AuthorID: 2, Type: domain.QuestionAnswer,
		Prompt: "Capital of France?", Answer: "Paris", Difficulty: 3, CreatedAt: now,
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if stored.ID == 0 {
		t.Fatalf("insert should assign an ID")
	}

	pulled, err := repo.PullRandomUnasked(ctx, 1, now, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("pull: %v", err)
	}
	if pulled.ID != stored.ID || pulled.AskedAt == nil || pulled.ExpiresAt == nil {
		t.Fatalf("pulled question not stamped: %+v", pulled)
	}

	// A pulled question leaves the unasked pool.
	if _, err := repo.PullRandomUnasked(ctx, 1, now, now.Add(time.Minute)); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected empty pool after pull, got %v", err)
	}

	active, err := repo.Active(ctx, 1, now)
	if err != nil {
		t.Fatalf("active: %v", err)
	}
	if active.ID != stored.ID {
		t.Fatalf("expected question %d active, got %d", stored.ID, active.ID)
	}

	expired, err := repo.Expired(ctx, now.Add(2*time.Minute))
	if err != nil {
		t.Fatalf("expired: %v", err)
	}
	if len(expired) != 1 {
		t.Fatalf("expected 1 expired question, got %d", len(expired))
	}

	if err := repo.Close(ctx, stored.ID); err != nil {
		t.Fatalf("close: %v", err)
	}
	expired, _ = repo.Expired(ctx, now.Add(2*time.Minute))
	if len(expired) != 0 {
		t.Fatalf("closed questions must not show as expired, got %d", len(expired))
	}
	if _, err := repo.Active(ctx, 1, now); !errors.Is(err, domain.ErrNoActiveQuestion) {
		t.Fatalf("closed question must not be active, got %v", err)
	}
}

func TestQuestionsAreScopedPerCommunity(t *testing.T) {
	ctx := context.Background()
	repo := NewQuestionRepository()
	now := time.Now()

	if _, err := repo.Insert(ctx, domain.Question{CommunityID: 1, Type: domain.TrueFalse, Prompt: "p", Answer: "true", Difficulty: 1, CreatedAt: now}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := repo.PullRandomUnasked(ctx, 2, now, now.Add(time.Minute)); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("community 2 should have no questions, got %v", err)
	}
}

func TestAnswerUpsertReplacesText(t *testing.T) {
	ctx := context.Background()
	repo := NewAnswerRepository()
	now := time.Now()

	first, err := repo.Upsert(ctx, domain.Answer{QuestionID: 1, CommunityID: 1, UserID: 42, Text: "London", SubmittedAt: now})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	second, err := repo.Upsert(ctx, domain.Answer{QuestionID: 1, CommunityID: 1, UserID: 42, Text: "Paris", SubmittedAt: now.Add(time.Second)})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("resubmission must keep the same row, got ids %d and %d", first.ID, second.ID)
	}

	answers, err := repo.ForQuestion(ctx, 1)
	if err != nil {
		t.Fatalf("for question: %v", err)
	}
	if len(answers) != 1 || answers[0].Text != "Paris" {
		t.Fatalf("expected single answer with latest text, got %+v", answers)
	}

	if err := repo.MarkCorrect(ctx, first.ID); err != nil {
		t.Fatalf("mark correct: %v", err)
	}
	answers, _ = repo.ForQuestion(ctx, 1)
	if !answers[0].Correct {
		t.Fatalf("answer should be flagged correct")
	}
}

func TestLeaderboardAccumulatesAndOrders(t *testing.T) {
	ctx := context.Background()
	repo := NewLeaderboardRepository()

	_ = repo.AddPoints(ctx, 1, 42, 10)
	_ = repo.AddPoints(ctx, 1, 42, 20)
	_ = repo.AddPoints(ctx, 1, 43, 25)
	_ = repo.AddPoints(ctx, 2, 44, 99) // other community

	entries, err := repo.Top(ctx, 1, 10)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].UserID != 42 || entries[0].Points != 30 {
		t.Fatalf("expected user 42 leading with 30, got %+v", entries[0])
	}
	if entries[1].UserID != 43 || entries[1].Points != 25 {
		t.Fatalf("expected user 43 with 25, got %+v", entries[1])
	}

	top1, _ := repo.Top(ctx, 1, 1)
	if len(top1) != 1 {
		t.Fatalf("limit should trim entries, got %d", len(top1))
	}
}

func TestCommunityConfig(t *testing.T) {
	ctx := context.Background()
	repo := NewCommunityConfigRepository()

	role := int64(9)
	if err := repo.SetMentionRole(ctx, 1, &role); !errors.Is(err, domain.ErrCommunityNotConfigured) {
		t.Fatalf("expected ErrCommunityNotConfigured, got %v", err)
	}

	if err := repo.SetChannel(ctx, 1, 100); err != nil {
		t.Fatalf("set channel: %v", err)
	}
	if err := repo.SetChannel(ctx, 1, 200); err != nil {
		t.Fatalf("move channel: %v", err)
	}
	if err := repo.SetMentionRole(ctx, 1, &role); err != nil {
		t.Fatalf("set mention role: %v", err)
	}

	cfg, err := repo.Get(ctx, 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if cfg.ChannelID != 200 || cfg.MentionRoleID == nil || *cfg.MentionRoleID != role {
		t.Fatalf("unexpected config %+v", cfg)
	}

	all, err := repo.All(ctx)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 config, got %d", len(all))
	}
}
