package telegram

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"quiz-bot/internal/app"
	"quiz-bot/internal/domain"
	"quiz-bot/internal/infra/memory"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func TestHandleMessageSendsQuestionWithKeyboard(t *testing.T) {
	api, sent := newFakeAPI(t)
	bot := NewWithAPI(api, newEngine(t), discardLogger())

	bot.HandleMessage(context.Background(), textMessage(42, "Новый вопрос"))
	bot.HandleMessage(context.Background(), textMessage(42, "Сдаться"))

	msgs := sent()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].chatID != "42" || msgs[0].text != "Вопрос:\n\n2+2?" {
		t.Fatalf("unexpected question message %+v", msgs[0])
	}
	if !strings.Contains(msgs[0].markup, "Сдаться") {
		t.Fatalf("active keyboard must include surrender: %s", msgs[0].markup)
	}
	if !strings.Contains(msgs[1].text, "Правильный ответ: Четыре (4).") {
		t.Fatalf("unexpected surrender text %q", msgs[1].text)
	}
	if strings.Contains(msgs[1].markup, "Сдаться") {
		t.Fatalf("after-answer keyboard must not include surrender: %s", msgs[1].markup)
	}
}

func TestReplyKeyboardLayout(t *testing.T) {
	kb := replyKeyboard(domain.KeyboardActive)
	if len(kb.Keyboard) != 2 || len(kb.Keyboard[0]) != 2 || kb.Keyboard[1][0].Text != "Мой счёт" {
		t.Fatalf("unexpected layout %+v", kb.Keyboard)
	}
	if !kb.ResizeKeyboard {
		t.Fatalf("expected resized keyboard")
	}
}

type sentMessage struct {
	chatID string
	text   string
	markup string
}

// newFakeAPI serves just enough of the Bot API for getMe and sendMessage.
func newFakeAPI(t *testing.T) (*tgbotapi.BotAPI, func() []sentMessage) {
	t.Helper()
	var (
		mu   sync.Mutex
		sent []sentMessage
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			writeResult(w, map[string]any{"id": 1, "is_bot": true, "first_name": "Quiz", "username": "quiz_bot"})
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			mu.Lock()
			sent = append(sent, sentMessage{
				chatID: r.Form.Get("chat_id"),
				text:   r.Form.Get("text"),
				markup: r.Form.Get("reply_markup"),
			})
			mu.Unlock()
			writeResult(w, map[string]any{"message_id": 1, "date": 0, "chat": map[string]any{"id": 42, "type": "private"}})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	api, err := tgbotapi.NewBotAPIWithAPIEndpoint("test-token", server.URL+"/bot%s/%s")
	if err != nil {
		t.Fatalf("create api: %v", err)
	}
	return api, func() []sentMessage {
		mu.Lock()
		defer mu.Unlock()
		return append([]sentMessage(nil), sent...)
	}
}

func writeResult(w http.ResponseWriter, result any) {
	_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "result": result})
}

func textMessage(userID int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		Text: text,
		From: &tgbotapi.User{ID: userID},
		Chat: &tgbotapi.Chat{ID: userID, Type: "private"},
	}
}

func newEngine(t *testing.T) *app.QuizService {
	t.Helper()
	bank, err := app.NewQuestionBank([]domain.Question{{Question: "2+2?", Answer: "Четыре (4)."}})
	if err != nil {
		t.Fatalf("bank: %v", err)
	}
	return app.NewQuizService(memory.NewSessionStore(), bank, discardLogger())
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
