package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"trivia-quiz-service/internal/app"
)

const wsWriteTimeout = 10 * time.Second

// WSHandler streams leaderboard snapshots to websocket clients.
type WSHandler struct {
	results  *app.ResultService
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(results *app.ResultService, logger *slog.Logger) *WSHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WSHandler{
		results: results,
		logger:  logger,
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

type refreshPayload struct {
	Limit int `json:"limit"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades an authenticated request and pushes a "leaderboard" message
// for the current ranking and again after every save or delete. Clients may
// send {"type":"refresh","payload":{"limit":N}} for an ad hoc ranking of a
// different size, or {"type":"ping"}.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	updates, cancel, err := h.results.SubscribeLeaderboard(r.Context())
	if err != nil {
		h.logger.Error("subscribe leaderboard", "err", err)
		http.Error(w, "leaderboard stream unavailable", http.StatusServiceUnavailable)
		return
	}
	defer cancel()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", "remote", clientIP(r), "err", err)
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// Only the writer goroutine touches the connection for writes.
	go func() {
		defer close(writerDone)
		for msg := range send {
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Debug("ws write failed", "err", err)
				// unblocks the read loop
				_ = conn.Close()
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case lb, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "leaderboard", Payload: lb}:
				case <-closeSignals:
					return
				case <-writerDone:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

read:
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		var reply outboundMessage[any]
		switch inbound.Type {
		case "ping":
			reply = outboundMessage[any]{Type: "pong", Payload: struct{}{}}
		case "refresh":
			var payload refreshPayload
			if len(inbound.Payload) > 0 {
				if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
					reply = outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid refresh payload"}}
					break
				}
			}
			lb, err := h.results.Leaderboard(r.Context(), payload.Limit)
			if err != nil {
				h.logger.Error("ws leaderboard refresh", "err", err)
				reply = outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "leaderboard unavailable"}}
				break
			}
			reply = outboundMessage[any]{Type: "leaderboard", Payload: lb}
		default:
			reply = outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		}
		if !enqueue(send, writerDone, reply) {
			break read
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

// enqueue hands msg to the writer. It reports false once the writer has
// stopped instead of blocking on a full buffer.
func enqueue(send chan<- outboundMessage[any], writerDone <-chan struct{}, msg outboundMessage[any]) bool {
	select {
	case send <- msg:
		return true
	case <-writerDone:
		return false
	}
}
