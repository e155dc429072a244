// Package corpus converts KOI8-R encoded quiz files into question records.
//
// A source file is a sequence of blocks separated by blank lines. A block whose
// first line starts with "Вопрос" opens a question; the following block
// starting with "Ответ" supplies its answer. Other blocks (authors, sources,
// comments) are ignored.
package corpus

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"quiz-bot/internal/answer"
	"quiz-bot/internal/domain"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// DefaultLimit caps the number of questions written by the converter.
const DefaultLimit = 1000

const (
	questionMarker = "Вопрос"
	answerMarker   = "Ответ"
)

// Parse decodes KOI8-R text from r and extracts question/answer pairs.
func Parse(r io.Reader) ([]domain.Question, error) {
	data, err := io.ReadAll(transform.NewReader(r, charmap.KOI8R.NewDecoder()))
	if err != nil {
		return nil, fmt.Errorf("decode koi8-r: %w", err)
	}
	return parseText(string(data)), nil
}

// ParseFile parses a single corpus file.
func ParseFile(path string) ([]domain.Question, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// ParseDir parses every regular file in dir in name order. Files that fail
// to parse are logged and skipped. A positive limit truncates the result.
func ParseDir(dir string, limit int, logger *slog.Logger) ([]domain.Question, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var questions []domain.Question
	parsed := 0
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		qs, err := ParseFile(path)
		if err != nil {
			logger.Warn("skipping corpus file", "path", path, "err", err)
			continue
		}
		questions = append(questions, qs...)
		parsed++
		if parsed%500 == 0 {
			logger.Info("corpus progress", "files", parsed, "questions", len(questions))
		}
	}

	if limit > 0 && len(questions) > limit {
		logger.Info("truncating corpus", "found", len(questions), "limit", limit)
		questions = questions[:limit]
	}
	return questions, nil
}

func parseText(text string) []domain.Question {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var (
		out      []domain.Question
		question string
		answerTx string
	)
	flush := func() {
		if question != "" && answerTx != "" {
			out = append(out, domain.Question{
				Question: answer.Clean(question),
				Answer:   answer.Clean(answerTx),
			})
		}
	}

	for _, block := range strings.Split(text, "\n\n") {
		lines := nonEmptyLines(block)
		if len(lines) == 0 {
			continue
		}
		switch {
		case strings.HasPrefix(lines[0], questionMarker):
			flush()
			question = strings.Join(lines[1:], " ")
			answerTx = ""
		case strings.HasPrefix(lines[0], answerMarker):
			if question != "" {
				answerTx = strings.Join(lines[1:], " ")
			}
		}
	}
	flush()
	return out
}

func nonEmptyLines(block string) []string {
	var lines []string
	for _, line := range strings.Split(block, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
