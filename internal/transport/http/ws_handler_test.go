package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"quiz-bot/internal/app"
	"quiz-bot/internal/domain"
	"quiz-bot/internal/infra/memory"
	"github.com/gorilla/websocket"
)

func TestWebSocketQuizFlow(t *testing.T) {
	server := newTestServer(t, nil)

	conn := dial(t, server, "/ws?userId=5")

	send(t, conn, "Новый вопрос")
	reply := readReply(t, conn)
	if reply.Text != "Вопрос:\n\n2+2?" {
		t.Fatalf("unexpected question %q", reply.Text)
	}
	if len(reply.Keyboard) != 2 || len(reply.Keyboard[0]) != 2 {
		t.Fatalf("expected active keyboard, got %+v", reply.Keyboard)
	}

	send(t, conn, "три")
	if reply := readReply(t, conn); reply.Hint {
		t.Fatalf("no hint expected on first miss")
	}

	send(t, conn, "пять")
	reply = readReply(t, conn)
	if !reply.Hint || reply.HintText != "Четыре" {
		t.Fatalf("expected hint, got %+v", reply)
	}

	send(t, conn, "Четыре!")
	reply = readReply(t, conn)
	if !strings.HasPrefix(reply.Text, "Правильно!") || len(reply.Keyboard[0]) != 1 {
		t.Fatalf("expected success with after-answer keyboard, got %+v", reply)
	}

	send(t, conn, "Мой счёт")
	if reply := readReply(t, conn); reply.Text != "Ваш счёт: 1 из 2 (50%)" {
		t.Fatalf("unexpected score %q", reply.Text)
	}
}

func TestWebSocketRejectsBadFrames(t *testing.T) {
	server := newTestServer(t, nil)
	conn := dial(t, server, "/ws?userId=6")

	if err := conn.WriteJSON(map[string]any{"type": "ping"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	msg := readNext(t, conn)
	if msg.Type != "error" {
		t.Fatalf("expected error frame, got %s", msg.Type)
	}
}

func TestWebSocketRequiresUserID(t *testing.T) {
	server := newTestServer(t, nil)
	resp, err := http.Get(server.URL + "/ws?userId=abc")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestHealthz(t *testing.T) {
	healthy := newTestServer(t, map[string]Checker{"redis": checkerFunc(func(context.Context) error { return nil })})
	resp, err := http.Get(healthy.URL + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	broken := newTestServer(t, map[string]Checker{"redis": checkerFunc(func(context.Context) error { return errors.New("down") })})
	resp, err = http.Get(broken.URL + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
}

type checkerFunc func(context.Context) error

func (f checkerFunc) Check(ctx context.Context) error { return f(ctx) }

type frame struct {
	Type    string       `json:"type"`
	Payload replyPayload `json:"payload"`
}

func newTestServer(t *testing.T, checkers map[string]Checker) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bank, err := app.NewQuestionBank([]domain.Question{{Question: "2+2?", Answer: "Четыре (4)."}})
	if err != nil {
		t.Fatalf("bank: %v", err)
	}
	service := app.NewQuizService(memory.NewSessionStore(), bank, logger)
	server := httptest.NewServer(NewRouter(NewWSHandler(service, logger), checkers, logger))
	t.Cleanup(server.Close)
	return server
}

func dial(t *testing.T, server *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	u := "ws" + server.URL[len("http"):] + path
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, text string) {
	t.Helper()
	msg := map[string]any{"type": "message", "payload": map[string]any{"text": text}}
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func readNext(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	var msg frame
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	return msg
}

func readReply(t *testing.T, conn *websocket.Conn) replyPayload {
	t.Helper()
	msg := readNext(t, conn)
	if msg.Type != "reply" {
		t.Fatalf("expected reply, got %s", msg.Type)
	}
	return msg.Payload
}
