package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"quiz-bot/internal/app"
	"quiz-bot/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const corpusField = "questions"

// QuestionCache keeps the question corpus in Redis and falls back to the
// wrapped loader on a miss. The corpus is stored as one JSON array under
// {namespace}:questions so every bot process sees the same snapshot.
type QuestionCache struct {
	client    *redis.Client
	loader    app.QuestionLoader
	namespace string
	ttl       time.Duration
	sf        singleflight.Group
	rnd       *rand.Rand
}

func NewQuestionCache(client *redis.Client, loader app.QuestionLoader, namespace string, ttl time.Duration) *QuestionCache {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &QuestionCache{
		client:    client,
		loader:    loader,
		namespace: namespace,
		ttl:       ttl,
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuestionCache) LoadQuestions(ctx context.Context) ([]domain.Question, error) {
	if qs, ok := c.cached(ctx); ok {
		return qs, nil
	}

	result, err, _ := c.sf.Do(corpusField, func() (interface{}, error) {
		// Another caller may have filled it while we waited.
		if qs, ok := c.cached(ctx); ok {
			return qs, nil
		}
		qs, err := c.loader.LoadQuestions(ctx)
		if err != nil {
			return nil, err
		}
		if len(qs) == 0 {
			return qs, nil
		}
		if data, err := json.Marshal(qs); err == nil {
			// A failed write only costs a reload next time.
			_ = c.client.Set(ctx, c.key(), data, c.ttlWithJitter()).Err()
		}
		return qs, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

// Invalidate drops the cached corpus, e.g. after an import.
func (c *QuestionCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, c.key()).Err(); err != nil {
		return unavailable("del "+corpusField, err)
	}
	return nil
}

func (c *QuestionCache) cached(ctx context.Context) ([]domain.Question, bool) {
	raw, err := c.client.Get(ctx, c.key()).Bytes()
	if err != nil {
		return nil, false
	}
	var qs []domain.Question
	if err := json.Unmarshal(raw, &qs); err != nil || len(qs) == 0 {
		return nil, false
	}
	return qs, true
}

func (c *QuestionCache) key() string {
	return c.namespace + ":" + corpusField
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
