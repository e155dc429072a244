// Package chat is the platform-neutral half of every chat adapter: it maps
// raw user text onto quiz events, runs them through the engine and hands the
// response to a platform Deliverer.
package chat

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"quiz-bot/internal/domain"
)

// Button labels shared by every platform keyboard.
const (
	ButtonNewQuestion = "Новый вопрос"
	ButtonSurrender   = "Сдаться"
	ButtonScore       = "Мой счёт"
)

// MsgRetry is sent when the engine could not complete an interaction.
const MsgRetry = "Что-то пошло не так, попробуйте ещё раз."

// Engine is the quiz state machine as seen by transports.
type Engine interface {
	Handle(ctx context.Context, userKey string, ev domain.Event) (domain.Response, error)
}

// Deliverer renders a response with the matching keyboard and sends it to
// one chat on a single platform.
type Deliverer interface {
	Deliver(ctx context.Context, chatID int64, resp domain.Response) error
}

// Button is one key of a rendered keyboard.
type Button struct {
	Label string `json:"label"`
	Style string `json:"style"`
}

// Keyboard returns the button rows for a keyboard variant. Styles follow the
// VK palette; platforms without colors ignore them.
func Keyboard(kb domain.Keyboard) [][]Button {
	if kb == domain.KeyboardAfterAnswer {
		return [][]Button{
			{{Label: ButtonNewQuestion, Style: "primary"}},
			{{Label: ButtonScore, Style: "secondary"}},
		}
	}
	return [][]Button{
		{{Label: ButtonNewQuestion, Style: "primary"}, {Label: ButtonSurrender, Style: "negative"}},
		{{Label: ButtonScore, Style: "secondary"}},
	}
}

// ParseEvent maps raw inbound text to an event. Anything that is not a
// button or the /start command is a free-text answer.
func ParseEvent(text string) domain.Event {
	switch trimmed := strings.TrimSpace(text); {
	case trimmed == ButtonNewQuestion:
		return domain.Event{Kind: domain.EventNewQuestion}
	case trimmed == ButtonSurrender:
		return domain.Event{Kind: domain.EventSurrender}
	case trimmed == ButtonScore:
		return domain.Event{Kind: domain.EventViewScore}
	case trimmed == "/start" || strings.HasPrefix(trimmed, "/start "):
		return domain.Event{Kind: domain.EventStart}
	}
	return domain.Event{Kind: domain.EventAnswer, Text: text}
}

// Dispatcher routes inbound messages for one platform.
type Dispatcher struct {
	platform string
	engine   Engine
	out      Deliverer
	logger   *slog.Logger
}

func NewDispatcher(platform string, engine Engine, out Deliverer, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		platform: platform,
		engine:   engine,
		out:      out,
		logger:   logger,
	}
}

// UserKey namespaces a platform-native id, e.g. "tg-42".
func UserKey(platform string, userID int64) string {
	return platform + "-" + strconv.FormatInt(userID, 10)
}

// Dispatch handles one message from userID in chatID. Engine failures are
// logged and answered with a retry message; only delivery errors are returned.
func (d *Dispatcher) Dispatch(ctx context.Context, chatID, userID int64, text string) error {
	key := UserKey(d.platform, userID)
	ev := ParseEvent(text)

	resp, err := d.engine.Handle(ctx, key, ev)
	if err != nil {
		d.logger.Error("quiz engine failed", "user", key, "event", ev.Kind.String(), "err", err)
		resp = domain.Response{Text: MsgRetry, Keyboard: domain.KeyboardActive}
	}
	if resp.Text == "" {
		return nil
	}
	return d.out.Deliver(ctx, chatID, resp)
}
