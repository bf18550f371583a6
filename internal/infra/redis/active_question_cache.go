package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"trivia-service/internal/domain"
)

// ActiveLoader fetches the current open question from a backing store.
type ActiveLoader interface {
	Active(ctx context.Context, communityID int64, now time.Time) (domain.Question, error)
}

// ActiveQuestionCache caches the open question per community in Redis
// (JSON per key) and falls back to a loader on cache miss.
// Keys look like: trivia:active:{communityID}
type ActiveQuestionCache struct {
	client *redis.Client
	loader ActiveLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewActiveQuestionCache(client *redis.Client, loader ActiveLoader, ttl time.Duration) *ActiveQuestionCache {
	return &ActiveQuestionCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *ActiveQuestionCache) Active(ctx context.Context, communityID int64) (domain.Question, error) {
	key := c.key(communityID)
	now := c.clock()

	if question, ok := c.cached(ctx, key, now); ok {
		return question, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if question, ok := c.cached(ctx, key, c.clock()); ok {
			return question, nil
		}

		question, err := c.loader.Active(ctx, communityID, c.clock())
		if err != nil {
			return domain.Question{}, err
		}

		if data, err := json.Marshal(question); err == nil {
			// best-effort fill; a miss next time just reloads
			_ = c.client.Set(ctx, key, data, c.entryTTL(question)).Err()
		}
		return question, nil
	})
	if err != nil {
		return domain.Question{}, err
	}
	return result.(domain.Question), nil
}

// Invalidate drops the cached question after a post or close.
func (c *ActiveQuestionCache) Invalidate(ctx context.Context, communityID int64) error {
	return c.client.Del(ctx, c.key(communityID)).Err()
}

func (c *ActiveQuestionCache) cached(ctx context.Context, key string, now time.Time) (domain.Question, bool) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return domain.Question{}, false
	}
	var question domain.Question
	if err := json.Unmarshal(raw, &question); err != nil {
		return domain.Question{}, false
	}
	// The key may outlive the submission window by a jitter margin.
	if !question.Active(now) {
		return domain.Question{}, false
	}
	return question, true
}

// entryTTL caps the cache lifetime at the question's own expiry.
func (c *ActiveQuestionCache) entryTTL(q domain.Question) time.Duration {
	ttl := c.ttlWithJitter()
	if q.ExpiresAt != nil {
		if until := time.Until(*q.ExpiresAt); until > 0 && (ttl <= 0 || until < ttl) {
			ttl = until
		}
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return ttl
}

func (c *ActiveQuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

func (c *ActiveQuestionCache) key(communityID int64) string {
	return "trivia:active:" + strconv.FormatInt(communityID, 10)
}
