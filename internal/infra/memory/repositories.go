package memory

import (
	"context"
	"sort"
	"sync"

	"trivia-service/internal/domain"
)

// AnswerRepository keeps one submission per (question, user) in memory.
type AnswerRepository struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]*domain.Answer
	byKey  map[answerKey]*domain.Answer
}

type answerKey struct {
	questionID int64
	userID     int64
}

func NewAnswerRepository() *AnswerRepository {
	return &AnswerRepository{
		byID:  make(map[int64]*domain.Answer),
		byKey: make(map[answerKey]*domain.Answer),
	}
}

func (r *AnswerRepository) Upsert(_ context.Context, a domain.Answer) (domain.Answer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := answerKey{questionID: a.QuestionID, userID: a.UserID}
	if existing, ok := r.byKey[key]; ok {
		existing.Text = a.Text
		existing.SubmittedAt = a.SubmittedAt
		return *existing, nil
	}
	r.nextID++
	a.ID = r.nextID
	stored := a
	r.byID[a.ID] = &stored
	r.byKey[key] = &stored
	return a, nil
}

func (r *AnswerRepository) ForQuestion(_ context.Context, questionID int64) ([]domain.Answer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	answers := make([]domain.Answer, 0)
	for _, a := range r.byID {
		if a.QuestionID == questionID {
			answers = append(answers, *a)
		}
	}
	sort.Slice(answers, func(i, j int) bool { return answers[i].ID < answers[j].ID })
	return answers, nil
}

func (r *AnswerRepository) MarkCorrect(_ context.Context, answerID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[answerID]
	if !ok {
		return domain.ErrQuestionNotFound
	}
	a.Correct = true
	return nil
}

// LeaderboardRepository accumulates points in memory.
type LeaderboardRepository struct {
	mu     sync.RWMutex
	points map[int64]map[int64]int // communityID -> userID -> points
}

func NewLeaderboardRepository() *LeaderboardRepository {
	return &LeaderboardRepository{points: make(map[int64]map[int64]int)}
}

func (r *LeaderboardRepository) AddPoints(_ context.Context, communityID, userID int64, points int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.points[communityID] == nil {
		r.points[communityID] = make(map[int64]int)
	}
	r.points[communityID][userID] += points
	return nil
}

func (r *LeaderboardRepository) Top(_ context.Context, communityID int64, limit int) ([]domain.LeaderboardEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]domain.LeaderboardEntry, 0, len(r.points[communityID]))
	for userID, points := range r.points[communityID] {
		entries = append(entries, domain.LeaderboardEntry{UserID: userID, Points: points})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Points != entries[j].Points {
			return entries[i].Points > entries[j].Points
		}
		return entries[i].UserID < entries[j].UserID
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// CommunityConfigRepository stores community channel configuration in memory.
type CommunityConfigRepository struct {
	mu      sync.RWMutex
	configs map[int64]*domain.CommunityConfig
}

func NewCommunityConfigRepository() *CommunityConfigRepository {
	return &CommunityConfigRepository{configs: make(map[int64]*domain.CommunityConfig)}
}

func (r *CommunityConfigRepository) SetChannel(_ context.Context, communityID, channelID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cfg, ok := r.configs[communityID]; ok {
		cfg.ChannelID = channelID
		return nil
	}
	r.configs[communityID] = &domain.CommunityConfig{CommunityID: communityID, ChannelID: channelID}
	return nil
}

func (r *CommunityConfigRepository) SetMentionRole(_ context.Context, communityID int64, roleID *int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cfg, ok := r.configs[communityID]
	if !ok {
		return domain.ErrCommunityNotConfigured
	}
	cfg.MentionRoleID = roleID
	return nil
}

func (r *CommunityConfigRepository) Get(_ context.Context, communityID int64) (domain.CommunityConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.configs[communityID]
	if !ok {
		return domain.CommunityConfig{}, domain.ErrCommunityNotConfigured
	}
	return *cfg, nil
}

func (r *CommunityConfigRepository) All(_ context.Context) ([]domain.CommunityConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	configs := make([]domain.CommunityConfig, 0, len(r.configs))
	for _, cfg := range r.configs {
		configs = append(configs, *cfg)
	}
	sort.Slice(configs, func(i, j int) bool { return configs[i].CommunityID < configs[j].CommunityID })
	return configs, nil
}
