package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"trivia-service/internal/domain"
)

// QuestionRepository is an in-memory implementation of
// app.QuestionRepository (useful for tests and redis/postgres-less dev
// runs).
type QuestionRepository struct {
	mu        sync.RWMutex
	nextID    int64
	questions map[int64]*domain.Question
	rnd       *rand.Rand
}

func NewQuestionRepository() *QuestionRepository {
	return &QuestionRepository{
		questions: make(map[int64]*domain.Question),
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuestionRepository) Insert(_ context.Context, q domain.Question) (domain.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	q.ID = r.nextID
	stored := q
	r.questions[q.ID] = &stored
	return q, nil
}

func (r *QuestionRepository) PullRandomUnasked(_ context.Context, communityID int64, askedAt, expiresAt time.Time) (domain.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	candidates := make([]*domain.Question, 0)
	for _, q := range r.questions {
		if q.CommunityID == communityID && q.AskedAt == nil {
			candidates = append(candidates, q)
		}
	}
	if len(candidates) == 0 {
		return domain.Question{}, domain.ErrQuestionNotFound
	}

	picked := candidates[r.rnd.Intn(len(candidates))]
	asked := askedAt
	expires := expiresAt
	picked.AskedAt = &asked
	picked.ExpiresAt = &expires
	return *picked, nil
}

func (r *QuestionRepository) Active(_ context.Context, communityID int64, now time.Time) (domain.Question, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest *domain.Question
	for _, q := range r.questions {
		if q.CommunityID != communityID || !q.Active(now) {
			continue
		}
		if latest == nil || q.AskedAt.After(*latest.AskedAt) {
			latest = q
		}
	}
	if latest == nil {
		return domain.Question{}, domain.ErrNoActiveQuestion
	}
	return *latest, nil
}

func (r *QuestionRepository) Expired(_ context.Context, now time.Time) ([]domain.Question, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	expired := make([]domain.Question, 0)
	for _, q := range r.questions {
		if q.AskedAt != nil && !q.Closed && q.ExpiresAt != nil && !q.ExpiresAt.After(now) {
			expired = append(expired, *q)
		}
	}
	return expired, nil
}

func (r *QuestionRepository) Close(_ context.Context, questionID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.questions[questionID]
	if !ok {
		return domain.ErrQuestionNotFound
	}
	q.Closed = true
	return nil
}
