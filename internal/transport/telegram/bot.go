// Package telegram serves the quiz over the Telegram Bot API using long polling.
package telegram

import (
	"context"
	"fmt"
	"log/slog"

	"quiz-bot/internal/domain"
	"quiz-bot/internal/transport/chat"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Platform prefixes Telegram user keys in the session store.
const Platform = "tg"

// Bot receives Telegram updates and answers them through the quiz engine.
type Bot struct {
	api        *tgbotapi.BotAPI
	dispatcher *chat.Dispatcher
	logger     *slog.Logger
}

// New connects to the Bot API with token.
func New(token string, debug bool, engine chat.Engine, logger *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot api: %w", err)
	}
	api.Debug = debug
	return NewWithAPI(api, engine, logger), nil
}

// NewWithAPI wraps an already authorized client (tests point it at a fake endpoint).
func NewWithAPI(api *tgbotapi.BotAPI, engine chat.Engine, logger *slog.Logger) *Bot {
	b := &Bot{api: api, logger: logger.With("platform", Platform)}
	b.dispatcher = chat.NewDispatcher(Platform, engine, b, b.logger)
	return b
}

// Run polls for updates until ctx is canceled. Messages from one user are
// handled in order; different users are served concurrently. Run waits for
// in-flight handlers before returning.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)
	b.logger.Info("telegram polling started", "bot", b.api.Self.UserName)

	var queue chat.UserQueue
	defer queue.Wait()
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil || update.Message.Text == "" {
				continue
			}
			msg := update.Message
			queue.Submit(chat.UserKey(Platform, senderID(msg)), func() {
				b.HandleMessage(ctx, msg)
			})
		}
	}
}

// HandleMessage dispatches a single inbound text message.
func (b *Bot) HandleMessage(ctx context.Context, msg *tgbotapi.Message) {
	userID := senderID(msg)
	b.logger.Debug("message received", "user", userID, "chat", msg.Chat.ID)
	if err := b.dispatcher.Dispatch(ctx, msg.Chat.ID, userID, msg.Text); err != nil {
		b.logger.Error("telegram delivery failed", "chat", msg.Chat.ID, "err", err)
	}
}

// Deliver sends resp with the reply keyboard for its variant.
func (b *Bot) Deliver(_ context.Context, chatID int64, resp domain.Response) error {
	msg := tgbotapi.NewMessage(chatID, resp.Text)
	msg.ReplyMarkup = replyKeyboard(resp.Keyboard)
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}

func senderID(msg *tgbotapi.Message) int64 {
	if msg.From != nil {
		return msg.From.ID
	}
	return msg.Chat.ID
}

func replyKeyboard(kb domain.Keyboard) tgbotapi.ReplyKeyboardMarkup {
	var rows [][]tgbotapi.KeyboardButton
	for _, row := range chat.Keyboard(kb) {
		buttons := make([]tgbotapi.KeyboardButton, 0, len(row))
		for _, button := range row {
			buttons = append(buttons, tgbotapi.NewKeyboardButton(button.Label))
		}
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(buttons...))
	}
	markup := tgbotapi.NewReplyKeyboard(rows...)
	markup.ResizeKeyboard = true
	return markup
}
