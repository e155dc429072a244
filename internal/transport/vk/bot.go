// Package vk serves the quiz as a VK community bot over Bots Long Poll.
package vk

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"quiz-bot/internal/domain"
	"quiz-bot/internal/transport/chat"
	"github.com/SevereCloud/vksdk/v2/api"
	"github.com/SevereCloud/vksdk/v2/api/params"
	"github.com/SevereCloud/vksdk/v2/events"
	longpoll "github.com/SevereCloud/vksdk/v2/longpoll-bot"
	"github.com/SevereCloud/vksdk/v2/object"
)

// Platform prefixes VK user keys in the session store.
const Platform = "vk"

// MessageSender is the part of the VK API the bot writes through.
type MessageSender interface {
	MessagesSend(b api.Params) (int, error)
}

// Bot answers VK community messages through the quiz engine.
type Bot struct {
	vk         *api.VK
	sender     MessageSender
	dispatcher *chat.Dispatcher
	logger     *slog.Logger

	mu  sync.Mutex
	rnd *rand.Rand
}

// New builds a bot for the community owning token.
func New(token string, engine chat.Engine, logger *slog.Logger) *Bot {
	vk := api.NewVK(token)
	b := NewWithSender(vk, engine, logger)
	b.vk = vk
	return b
}

// NewWithSender builds a bot that only sends; Run is unavailable. Used in tests.
func NewWithSender(sender MessageSender, engine chat.Engine, logger *slog.Logger) *Bot {
	b := &Bot{
		sender: sender,
		logger: logger.With("platform", Platform),
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	b.dispatcher = chat.NewDispatcher(Platform, engine, b, b.logger)
	return b
}

// Run listens on the community long poll server until ctx is canceled.
func (b *Bot) Run(ctx context.Context) error {
	if b.vk == nil {
		return fmt.Errorf("vk bot has no api client")
	}
	groups, err := b.vk.GroupsGetByID(nil)
	if err != nil {
		return fmt.Errorf("resolve vk community: %w", err)
	}
	if len(groups) == 0 {
		return fmt.Errorf("token is not bound to a vk community")
	}

	lp, err := longpoll.NewLongPoll(b.vk, groups[0].ID)
	if err != nil {
		return fmt.Errorf("start vk long poll: %w", err)
	}

	var queue chat.UserQueue
	defer queue.Wait()
	lp.MessageNew(func(_ context.Context, obj events.MessageNewObject) {
		queue.Submit(chat.UserKey(Platform, int64(obj.Message.FromID)), func() {
			b.HandleMessage(ctx, obj)
		})
	})

	b.logger.Info("vk long poll started", "group", groups[0].ID)
	return lp.RunWithContext(ctx)
}

// HandleMessage dispatches a single inbound message.
func (b *Bot) HandleMessage(ctx context.Context, obj events.MessageNewObject) {
	msg := obj.Message
	if msg.Text == "" {
		return
	}
	b.logger.Debug("message received", "user", msg.FromID, "peer", msg.PeerID)
	if err := b.dispatcher.Dispatch(ctx, int64(msg.PeerID), int64(msg.FromID), msg.Text); err != nil {
		b.logger.Error("vk delivery failed", "peer", msg.PeerID, "err", err)
	}
}

// Deliver sends resp to peer chatID with the keyboard for its variant.
func (b *Bot) Deliver(_ context.Context, chatID int64, resp domain.Response) error {
	msg := params.NewMessagesSendBuilder()
	msg.PeerID(int(chatID))
	msg.RandomID(b.randomID())
	msg.Message(resp.Text)
	msg.Keyboard(keyboard(resp.Keyboard))
	if _, err := b.sender.MessagesSend(msg.Params); err != nil {
		return fmt.Errorf("send vk message: %w", err)
	}
	return nil
}

func (b *Bot) randomID() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rnd.Intn(1_000_000) + 1
}

func keyboard(kb domain.Keyboard) *object.MessagesKeyboard {
	out := object.NewMessagesKeyboard(false)
	for _, row := range chat.Keyboard(kb) {
		out.AddRow()
		for _, button := range row {
			out.AddTextButton(button.Label, "", button.Style)
		}
	}
	return out
}
