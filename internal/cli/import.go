package cli

import (
	"os"

	"quiz-bot/internal/config"
	"quiz-bot/internal/infra/file"
	pgloader "quiz-bot/internal/infra/postgres"
	redisstore "quiz-bot/internal/infra/redis"
	"github.com/spf13/cobra"
)

// NewImportCmd loads a questions.json file into the Postgres questions table.
func NewImportCmd(configPath *string) *cobra.Command {
	var source string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Replace the Postgres question corpus with a JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			logger := newLogger(cfg, os.Stderr)
			if source == "" {
				source = cfg.Quiz.QuestionsPath
			}

			questions, err := file.NewQuestionLoader(source).LoadQuestions(ctx)
			if err != nil {
				return err
			}

			db, err := openBun(cfg)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := migrateDB(ctx, db, logger); err != nil {
				return err
			}

			n, err := pgloader.ImportQuestions(ctx, db, questions)
			if err != nil {
				return err
			}
			logger.Info("questions imported", "source", source, "questions", n)

			if cfg.Redis.Addr == "" {
				return nil
			}
			client, err := openRedis(ctx, cfg)
			if err != nil {
				return err
			}
			defer client.Close()
			// Running bots pick up the new corpus on their next start.
			return redisstore.NewQuestionCache(client, nil, cfg.Quiz.Namespace, 0).Invalidate(ctx)
		},
	}
	cmd.Flags().StringVar(&source, "file", "", "JSON corpus to import (defaults to quiz.questions_path)")
	return cmd
}
