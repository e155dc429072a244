package memory

import (
	"context"
	"sync"

	"quiz-bot/internal/domain"
)

type session struct {
	question    *domain.Question
	attempts    int
	hasAttempts bool
	score       int
	total       int
}

// SessionStore is an in-memory implementation of app.SessionRepository,
// used when no Redis address is configured and in tests.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*session),
	}
}

func (s *SessionStore) GetCurrentQuestion(_ context.Context, userKey string) (domain.Question, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[userKey]
	if !ok || sess.question == nil {
		return domain.Question{}, false, nil
	}
	return *sess.question, true, nil
}

func (s *SessionStore) SetCurrentQuestion(_ context.Context, userKey string, q domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.getOrCreateLocked(userKey)
	sess.question = &q
	sess.attempts = 0
	sess.hasAttempts = true
	return nil
}

func (s *SessionStore) ClearCurrentQuestion(_ context.Context, userKey string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userKey]
	if !ok {
		return false, nil
	}
	had := sess.question != nil
	sess.question = nil
	sess.attempts = 0
	sess.hasAttempts = false
	return had, nil
}

func (s *SessionStore) GetAttempts(_ context.Context, userKey string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sess, ok := s.sessions[userKey]; ok {
		return sess.attempts, nil
	}
	return 0, nil
}

func (s *SessionStore) SetAttempts(_ context.Context, userKey string, attempts int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.getOrCreateLocked(userKey)
	sess.attempts = attempts
	sess.hasAttempts = true
	return nil
}

func (s *SessionStore) IncrementAttempts(_ context.Context, userKey string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.getOrCreateLocked(userKey)
	sess.attempts++
	sess.hasAttempts = true
	return sess.attempts, nil
}

func (s *SessionStore) GetScore(_ context.Context, userKey string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sess, ok := s.sessions[userKey]; ok {
		return sess.score, nil
	}
	return 0, nil
}

func (s *SessionStore) IncrementScore(_ context.Context, userKey string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.getOrCreateLocked(userKey)
	sess.score++
	return sess.score, nil
}

func (s *SessionStore) GetTotal(_ context.Context, userKey string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sess, ok := s.sessions[userKey]; ok {
		return sess.total, nil
	}
	return 0, nil
}

func (s *SessionStore) IncrementTotal(_ context.Context, userKey string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.getOrCreateLocked(userKey)
	sess.total++
	return sess.total, nil
}

// HasAttempts reports whether an attempt counter is stored for userKey.
// Tests use it to check that resolving a question deletes the counter.
func (s *SessionStore) HasAttempts(userKey string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[userKey]
	return ok && sess.hasAttempts
}

func (s *SessionStore) getOrCreateLocked(userKey string) *session {
	sess, ok := s.sessions[userKey]
	if !ok {
		sess = &session{}
		s.sessions[userKey] = sess
	}
	return sess
}
