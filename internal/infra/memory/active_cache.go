package memory

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"trivia-service/internal/domain"
)

// ActiveLoader fetches the current open question from a backing store.
type ActiveLoader interface {
	Active(ctx context.Context, communityID int64, now time.Time) (domain.Question, error)
}

// ActiveQuestionCache caches the open question per community with TTL
// to avoid repeated store hits on every submission.
type ActiveQuestionCache struct {
	loader ActiveLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[int64]cachedQuestion
}

type cachedQuestion struct {
	question  domain.Question
	expiresAt time.Time
}

func NewActiveQuestionCache(loader ActiveLoader, ttl time.Duration) *ActiveQuestionCache {
	return &ActiveQuestionCache{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[int64]cachedQuestion),
	}
}

func (c *ActiveQuestionCache) Active(ctx context.Context, communityID int64) (domain.Question, error) {
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.cache[communityID]; ok && entry.expiresAt.After(now) && entry.question.Active(now) {
		c.mu.RUnlock()
		return entry.question, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(cacheKey(communityID), func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.cache[communityID]; ok && entry.expiresAt.After(now) && entry.question.Active(now) {
			c.mu.RUnlock()
			return entry.question, nil
		}
		c.mu.RUnlock()

		question, err := c.loader.Active(ctx, communityID, now)
		if err != nil {
			return domain.Question{}, err
		}

		c.mu.Lock()
		c.cache[communityID] = cachedQuestion{
			question:  question,
			expiresAt: cacheDeadline(now, c.ttlWithJitter(), question),
		}
		c.mu.Unlock()
		return question, nil
	})
	if err != nil {
		return domain.Question{}, err
	}
	return result.(domain.Question), nil
}

func (c *ActiveQuestionCache) Invalidate(_ context.Context, communityID int64) error {
	c.mu.Lock()
	delete(c.cache, communityID)
	c.mu.Unlock()
	return nil
}

func (c *ActiveQuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

// cacheDeadline never caches past the question's own expiry.
func cacheDeadline(now time.Time, ttl time.Duration, q domain.Question) time.Time {
	deadline := now.Add(ttl)
	if q.ExpiresAt != nil && q.ExpiresAt.Before(deadline) {
		return *q.ExpiresAt
	}
	return deadline
}

func cacheKey(communityID int64) string {
	return "active:" + strconv.FormatInt(communityID, 10)
}
