package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"quiz-bot/internal/domain"
	"quiz-bot/internal/transport/chat"
	"github.com/gorilla/websocket"
)

// Platform prefixes WebSocket user keys in the session store.
const Platform = "ws"

type WSHandler struct {
	engine   chat.Engine
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(engine chat.Engine, logger *slog.Logger) *WSHandler {
	return &WSHandler{
		engine: engine,
		logger: logger.With("platform", Platform),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type textPayload struct {
	Text string `json:"text"`
}

type replyPayload struct {
	Text     string          `json:"text"`
	Hint     bool            `json:"hint"`
	HintText string          `json:"hintText,omitempty"`
	Keyboard [][]chat.Button `json:"keyboard"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// connDeliverer queues replies for the connection's single writer goroutine.
type connDeliverer struct {
	send chan<- outboundMessage[any]
	done <-chan struct{}
}

func (d connDeliverer) Deliver(ctx context.Context, _ int64, resp domain.Response) error {
	msg := outboundMessage[any]{Type: "reply", Payload: replyPayload{
		Text:     resp.Text,
		Hint:     resp.Hint,
		HintText: resp.HintText,
		Keyboard: chat.Keyboard(resp.Keyboard),
	}}
	select {
	case d.send <- msg:
		return nil
	case <-d.done:
		return websocket.ErrCloseSent
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ServeWS upgrades HTTP requests to websockets and feeds text frames to the quiz engine.
// Clients identify themselves with a numeric userId query parameter.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.URL.Query().Get("userId"), 10, 64)
	if err != nil {
		http.Error(w, "missing or invalid userId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage[any], 16)
	writerDone := make(chan struct{})
	dispatcher := chat.NewDispatcher(Platform, h.engine, connDeliverer{send: send, done: writerDone}, h.logger)

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Warn("ws write error", "user", userID, "err", err)
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if inbound.Type != "message" {
			h.queueError(send, writerDone, "unsupported message type")
			continue
		}
		var payload textPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.Text == "" {
			h.queueError(send, writerDone, "invalid message payload")
			continue
		}
		if err := dispatcher.Dispatch(r.Context(), userID, userID, payload.Text); err != nil {
			break
		}
	}

	close(send)
	<-writerDone
}

func (h *WSHandler) queueError(send chan<- outboundMessage[any], done <-chan struct{}, message string) {
	select {
	case send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: message}}:
	case <-done:
	}
}
