package app

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"quiz-bot/internal/domain"
)

// QuestionLoader fetches the question corpus from a backing source (JSON file, Postgres).
type QuestionLoader interface {
	LoadQuestions(ctx context.Context) ([]domain.Question, error)
}

// QuestionBank is an immutable set of questions loaded once at startup.
type QuestionBank struct {
	questions []domain.Question

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewQuestionBank copies questions into a bank. It fails with domain.ErrEmptyBank
// so an empty corpus is caught before the first Pick.
func NewQuestionBank(questions []domain.Question) (*QuestionBank, error) {
	return NewQuestionBankWithRand(questions, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewQuestionBankWithRand is test-only for deterministic picks.
func NewQuestionBankWithRand(questions []domain.Question, rnd *rand.Rand) (*QuestionBank, error) {
	if len(questions) == 0 {
		return nil, domain.ErrEmptyBank
	}
	owned := make([]domain.Question, len(questions))
	copy(owned, questions)
	return &QuestionBank{questions: owned, rnd: rnd}, nil
}

// LoadQuestionBank pulls the corpus from loader and builds a bank from it.
func LoadQuestionBank(ctx context.Context, loader QuestionLoader) (*QuestionBank, error) {
	questions, err := loader.LoadQuestions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	return NewQuestionBank(questions)
}

// Pick returns a uniformly random question. Repeats are possible.
func (b *QuestionBank) Pick() domain.Question {
	b.mu.Lock()
	i := b.rnd.Intn(len(b.questions))
	b.mu.Unlock()
	return b.questions[i]
}

// Len reports the number of questions in the bank.
func (b *QuestionBank) Len() int {
	return len(b.questions)
}
