package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"brainbuster-service/internal/app"
	"brainbuster-service/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

// maxMessageSize bounds a single inbound websocket frame.
const maxMessageSize = 4096

// WSHandler lets a client play one session over a websocket instead of REST calls.
type WSHandler struct {
	games    *app.GameService
	upgrader websocket.Upgrader
}

func NewWSHandler(games *app.GameService) *WSHandler {
	return &WSHandler{
		games: games,
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

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type wsError struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and wires them into the game use cases.
// Unknown sessions are rejected with 404 before the upgrade.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if _, err := h.games.Summary(r.Context(), sessionID); err != nil {
		writeError(w, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxMessageSize)

	send := make(chan outboundMessage[any], 16)
	writerDone := make(chan struct{})

	// single writer; gorilla connections do not support concurrent writes
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				// keep draining so the reader never blocks on send
				for range send {
				}
				return
			}
		}
	}()

	ctx := r.Context()
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		for _, msg := range h.handle(ctx, sessionID, inbound) {
			send <- msg
		}
	}

	close(send)
	<-writerDone
}

func (h *WSHandler) handle(ctx context.Context, sessionID string, in inboundMessage) []outboundMessage[any] {
	fail := func(err error) []outboundMessage[any] {
		body := errorBody(err)
		return []outboundMessage[any]{{Type: "error", Payload: wsError{Status: body.Status, Message: body.Message}}}
	}

	switch in.Type {
	case "start":
		res, err := h.games.Start(ctx, sessionID)
		if err != nil {
			return fail(err)
		}
		return []outboundMessage[any]{{Type: "question", Payload: res.Current}}
	case "current":
		q, err := h.games.Current(ctx, sessionID)
		if err != nil {
			return fail(err)
		}
		return []outboundMessage[any]{{Type: "question", Payload: q}}
	case "answer":
		var payload answerRequest
		if err := json.Unmarshal(in.Payload, &payload); err != nil || strings.TrimSpace(payload.ChoiceID) == "" {
			return fail(domain.Invalid("choiceId", "invalid answer payload"))
		}
		res, err := h.games.Answer(ctx, sessionID, payload.ChoiceID)
		if err != nil {
			return fail(err)
		}
		out := []outboundMessage[any]{{Type: "answerResult", Payload: res}}
		if res.State == domain.StateFinished {
			if s, err := h.games.Summary(ctx, sessionID); err == nil {
				out = append(out, outboundMessage[any]{Type: "summary", Payload: s})
			}
		}
		return out
	case "summary":
		s, err := h.games.Summary(ctx, sessionID)
		if err != nil {
			return fail(err)
		}
		return []outboundMessage[any]{{Type: "summary", Payload: s}}
	default:
		return fail(domain.Invalid("type", "unsupported message type"))
	}
}
