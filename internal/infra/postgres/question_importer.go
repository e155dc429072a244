package postgres

import (
	"context"
	"fmt"

	"quiz-bot/internal/domain"
	"github.com/uptrace/bun"
)

type questionRow struct {
	bun.BaseModel `bun:"table:questions"`

	ID       int64  `bun:"id,pk,autoincrement"`
	Question string `bun:"question,notnull"`
	Answer   string `bun:"answer,notnull"`
}

// ImportQuestions replaces the contents of the questions table with questions.
func ImportQuestions(ctx context.Context, db *bun.DB, questions []domain.Question) (int, error) {
	if len(questions) == 0 {
		return 0, domain.ErrEmptyBank
	}
	rows := make([]questionRow, 0, len(questions))
	for _, q := range questions {
		rows = append(rows, questionRow{Question: q.Question, Answer: q.Answer})
	}

	err := db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewTruncateTable().Model((*questionRow)(nil)).Exec(ctx); err != nil {
			return fmt.Errorf("truncate questions: %w", err)
		}
		if _, err := tx.NewInsert().Model(&rows).Exec(ctx); err != nil {
			return fmt.Errorf("insert questions: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}
