package app_test

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"quiz-bot/internal/app"
	"quiz-bot/internal/domain"
	"quiz-bot/internal/infra/memory"
)

func TestEmptyBankFailsAtLoad(t *testing.T) {
	if _, err := app.NewQuestionBank(nil); !errors.Is(err, domain.ErrEmptyBank) {
		t.Fatalf("expected empty bank error, got %v", err)
	}
	_, err := app.LoadQuestionBank(context.Background(), memory.NewStaticQuestionLoader(nil))
	if !errors.Is(err, domain.ErrEmptyBank) {
		t.Fatalf("expected empty bank error from loader, got %v", err)
	}
}

func TestPickCoversBank(t *testing.T) {
	questions := []domain.Question{
		{Question: "a", Answer: "1"},
		{Question: "b", Answer: "2"},
		{Question: "c", Answer: "3"},
	}
	bank, err := app.NewQuestionBankWithRand(questions, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("bank: %v", err)
	}
	if bank.Len() != 3 {
		t.Fatalf("expected 3 questions, got %d", bank.Len())
	}

	seen := map[string]int{}
	for i := 0; i < 300; i++ {
		seen[bank.Pick().Question]++
	}
	for _, q := range questions {
		if seen[q.Question] == 0 {
			t.Fatalf("question %q never picked: %v", q.Question, seen)
		}
	}
}

func TestBankIsDetachedFromInput(t *testing.T) {
	questions := []domain.Question{{Question: "a", Answer: "1"}}
	bank, err := app.NewQuestionBank(questions)
	if err != nil {
		t.Fatalf("bank: %v", err)
	}
	questions[0].Answer = "changed"
	if got := bank.Pick().Answer; got != "1" {
		t.Fatalf("bank mutated through caller slice: %q", got)
	}
}
