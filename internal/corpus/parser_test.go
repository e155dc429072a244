package corpus

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/text/encoding/charmap"
)

const sample = `Чемпионат:
Кубок Москвы

Вопрос 1:
Какой город
является столицей России?

Ответ:
Москва.

Автор:
Иван Иванов

Вопрос 2:
Сколько будет 2+2?

Вопрос 3:
Самое глубокое озеро?

Ответ:
Байкал (озеро).
`

func TestParseKOI8R(t *testing.T) {
	questions, err := Parse(bytes.NewReader(koi8(t, sample)))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %d: %+v", len(questions), questions)
	}
	if questions[0].Question != "Какой город является столицей России" || questions[0].Answer != "Москва" {
		t.Fatalf("unexpected first question %+v", questions[0])
	}
	if questions[1].Question != "Самое глубокое озеро" || questions[1].Answer != "Байкал озеро" {
		t.Fatalf("unexpected second question %+v", questions[1])
	}
}

func TestParseDirOrderAndLimit(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		if err := os.WriteFile(filepath.Join(dir, name), koi8(t, body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	write("b.txt", "Вопрос 1:\nВторой\n\nОтвет:\nДва\n")
	write("a.txt", "Вопрос 1:\nПервый\n\nОтвет:\nОдин\n")
	write("c.txt", "Вопрос 1:\nТретий\n\nОтвет:\nТри\n")
	if err := os.Mkdir(filepath.Join(dir, "nested"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	questions, err := ParseDir(dir, 2, logger)
	if err != nil {
		t.Fatalf("parse dir: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("expected limit applied, got %d", len(questions))
	}
	if questions[0].Answer != "Один" || questions[1].Answer != "Два" {
		t.Fatalf("expected name order, got %+v", questions)
	}
}

func koi8(t *testing.T, s string) []byte {
	t.Helper()
	out, err := charmap.KOI8R.NewEncoder().Bytes([]byte(s))
	if err != nil {
		t.Fatalf("encode koi8-r: %v", err)
	}
	return out
}
