// Package file reads and writes the questions.json corpus.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"quiz-bot/internal/domain"
)

// QuestionLoader reads a JSON array of {"question", "answer"} records.
type QuestionLoader struct {
	path string
}

func NewQuestionLoader(path string) *QuestionLoader {
	return &QuestionLoader{path: path}
}

func (l *QuestionLoader) LoadQuestions(_ context.Context) ([]domain.Question, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, err
	}
	var questions []domain.Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, fmt.Errorf("decode %s: %w", l.path, err)
	}
	valid := questions[:0]
	for _, q := range questions {
		if q.Question == "" || q.Answer == "" {
			continue
		}
		valid = append(valid, q)
	}
	return valid, nil
}

// WriteQuestions stores questions as indented UTF-8 JSON.
func WriteQuestions(path string, questions []domain.Question) error {
	if questions == nil {
		questions = []domain.Question{}
	}
	data, err := json.MarshalIndent(questions, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
