package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"quiz-bot/internal/domain"
	"github.com/redis/go-redis/v9"
)

// DefaultNamespace prefixes every session key.
const DefaultNamespace = "quiz"

const (
	fieldQuestion = "current_question"
	fieldAttempts = "attempts"
	fieldScore    = "score"
	fieldTotal    = "total"
)

// SessionStore is the Redis implementation of app.SessionRepository.
// Keys are laid out as {namespace}:{userKey}:{field}:
//
//	quiz:tg-42:current_question  JSON {"question": ..., "answer": ...}
//	quiz:tg-42:attempts          integer
//	quiz:tg-42:score             integer
//	quiz:tg-42:total             integer
//
// Counters are mutated with INCR so concurrent submissions never lose updates.
type SessionStore struct {
	client    *redis.Client
	namespace string
}

func NewSessionStore(client *redis.Client, namespace string) *SessionStore {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &SessionStore{client: client, namespace: namespace}
}

func (s *SessionStore) GetCurrentQuestion(ctx context.Context, userKey string) (domain.Question, bool, error) {
	raw, err := s.client.Get(ctx, s.key(userKey, fieldQuestion)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Question{}, false, nil
	}
	if err != nil {
		return domain.Question{}, false, unavailable("get "+fieldQuestion, err)
	}
	var q domain.Question
	if err := json.Unmarshal(raw, &q); err != nil {
		return domain.Question{}, false, fmt.Errorf("%w: %s: %w", domain.ErrMalformedSession, fieldQuestion, err)
	}
	if q.Answer == "" {
		return domain.Question{}, false, fmt.Errorf("%w: %s: no answer", domain.ErrMalformedSession, fieldQuestion)
	}
	return q, true, nil
}

// SetCurrentQuestion writes the question and a zero attempt counter in one MULTI block.
func (s *SessionStore) SetCurrentQuestion(ctx context.Context, userKey string, q domain.Question) error {
	data, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("marshal question: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(userKey, fieldQuestion), data, 0)
		pipe.Set(ctx, s.key(userKey, fieldAttempts), 0, 0)
		return nil
	})
	if err != nil {
		return unavailable("set "+fieldQuestion, err)
	}
	return nil
}

// ClearCurrentQuestion deletes the question and attempt keys rather than zeroing them.
// The question DEL count decides whether this call removed it.
func (s *SessionStore) ClearCurrentQuestion(ctx context.Context, userKey string) (bool, error) {
	var removed *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		removed = pipe.Del(ctx, s.key(userKey, fieldQuestion))
		pipe.Del(ctx, s.key(userKey, fieldAttempts))
		return nil
	})
	if err != nil {
		return false, unavailable("clear "+fieldQuestion, err)
	}
	return removed.Val() == 1, nil
}

func (s *SessionStore) GetAttempts(ctx context.Context, userKey string) (int, error) {
	return s.getInt(ctx, userKey, fieldAttempts)
}

func (s *SessionStore) SetAttempts(ctx context.Context, userKey string, attempts int) error {
	if err := s.client.Set(ctx, s.key(userKey, fieldAttempts), attempts, 0).Err(); err != nil {
		return unavailable("set "+fieldAttempts, err)
	}
	return nil
}

func (s *SessionStore) IncrementAttempts(ctx context.Context, userKey string) (int, error) {
	return s.incr(ctx, userKey, fieldAttempts)
}

func (s *SessionStore) GetScore(ctx context.Context, userKey string) (int, error) {
	return s.getInt(ctx, userKey, fieldScore)
}

func (s *SessionStore) IncrementScore(ctx context.Context, userKey string) (int, error) {
	return s.incr(ctx, userKey, fieldScore)
}

func (s *SessionStore) GetTotal(ctx context.Context, userKey string) (int, error) {
	return s.getInt(ctx, userKey, fieldTotal)
}

func (s *SessionStore) IncrementTotal(ctx context.Context, userKey string) (int, error) {
	return s.incr(ctx, userKey, fieldTotal)
}

func (s *SessionStore) getInt(ctx context.Context, userKey, field string) (int, error) {
	raw, err := s.client.Get(ctx, s.key(userKey, field)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, unavailable("get "+field, err)
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s=%q", domain.ErrMalformedSession, field, raw)
	}
	return n, nil
}

// incr bumps a counter atomically. A counter holding garbage is treated as
// absent and restarted at 1.
func (s *SessionStore) incr(ctx context.Context, userKey, field string) (int, error) {
	key := s.key(userKey, field)
	n, err := s.client.Incr(ctx, key).Result()
	if err == nil {
		return int(n), nil
	}
	if !notAnInteger(err) {
		return 0, unavailable("incr "+field, err)
	}
	if err := s.client.Set(ctx, key, 1, 0).Err(); err != nil {
		return 0, unavailable("reset "+field, err)
	}
	return 1, nil
}

func (s *SessionStore) key(userKey, field string) string {
	return s.namespace + ":" + userKey + ":" + field
}

func notAnInteger(err error) bool {
	var rerr redis.Error
	return errors.As(err, &rerr) && strings.Contains(rerr.Error(), "not an integer")
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrStoreUnavailable, op, err)
}
