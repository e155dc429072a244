package cli

import (
	"log/slog"
	"os"

	"quiz-bot/internal/corpus"
	"quiz-bot/internal/infra/file"
	"github.com/spf13/cobra"
)

// NewConvertCmd turns a directory of KOI8-R quiz files into questions.json.
func NewConvertCmd() *cobra.Command {
	var (
		inputDir   string
		outputFile string
		limit      int
	)
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Build questions.json from a directory of KOI8-R quiz files",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
			questions, err := corpus.ParseDir(inputDir, limit, logger)
			if err != nil {
				return err
			}
			if err := file.WriteQuestions(outputFile, questions); err != nil {
				return err
			}
			logger.Info("questions written", "path", outputFile, "questions", len(questions))
			return nil
		},
	}
	cmd.Flags().StringVar(&inputDir, "input-dir", "quiz-questions", "directory with source quiz files")
	cmd.Flags().StringVar(&outputFile, "output-file", "questions.json", "where to write the JSON corpus")
	cmd.Flags().IntVar(&limit, "limit", corpus.DefaultLimit, "maximum number of questions to keep (0 for all)")
	return cmd
}
