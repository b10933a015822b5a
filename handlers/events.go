// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/danielhkuo/gatherfun/middleware"
	"github.com/danielhkuo/gatherfun/models"
	"github.com/danielhkuo/gatherfun/session"
)

// EventsConfig holds the WebSocket timings for the events stream.
type EventsConfig struct {
	WriteTimeout   time.Duration
	PongTimeout    time.Duration
	PingInterval   time.Duration
	MaxMessageSize int64
}

func DefaultEventsConfig() EventsConfig {
	return EventsConfig{
		WriteTimeout:   10 * time.Second,
		PongTimeout:    60 * time.Second,
		PingInterval:   30 * time.Second,
		MaxMessageSize: 512,
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origins are enforced by the CORS layer for the JSON API; the stream is read-only.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Events handles GET /sessions/{id}/events
// It pushes the current session and then every committed version. Browsers
// cannot set headers on a WebSocket, so the participant token may come in the
// "token" query parameter.
func (h *SessionHandler) Events(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	pid, err := h.participant(r, id)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid participant token")
		return
	}
	if _, err := h.svc.Get(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client
		slog.Warn("websocket upgrade failed", "session_id", id, "error", err)
		return
	}
	defer conn.Close()
	h.track(id)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	updates, err := h.svc.Subscribe(ctx, id)
	if err != nil {
		slog.Error("failed to subscribe to session", "session_id", id, "error", err)
		h.closeWith(conn, websocket.CloseInternalServerErr, "subscribe failed")
		return
	}

	slog.Info("event stream opened", "session_id", id, "participant_id", pid)
	go h.readPump(conn, cancel)
	h.writePump(ctx, conn, updates, pid)
	slog.Info("event stream closed", "session_id", id, "participant_id", pid)
}

// readPump discards client messages and keeps the read deadline fresh. It
// cancels the stream when the client goes away.
func (h *SessionHandler) readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()

	conn.SetReadLimit(h.events.MaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(h.events.PongTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(h.events.PongTimeout))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("unexpected websocket close", "error", err)
			}
			return
		}
	}
}

func (h *SessionHandler) writePump(ctx context.Context, conn *websocket.Conn, updates <-chan *models.Session, pid string) {
	ticker := time.NewTicker(h.events.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.closeWith(conn, websocket.CloseNormalClosure, "")
			return

		case s, ok := <-updates:
			if !ok {
				h.closeWith(conn, websocket.CloseNormalClosure, "")
				return
			}
			ev := models.SessionEvent{Type: models.EventSnapshot, Session: s}
			if pid != "" {
				p := session.Progress(s, pid, h.svc.Clock().Now())
				ev.Progress = &p
			}

			conn.SetWriteDeadline(time.Now().Add(h.events.WriteTimeout))
			if err := conn.WriteJSON(ev); err != nil {
				slog.Debug("failed to write session event", "session_id", s.ID, "error", err)
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(h.events.WriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *SessionHandler) closeWith(conn *websocket.Conn, code int, text string) {
	msg := websocket.FormatCloseMessage(code, text)
	conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(h.events.WriteTimeout))
}
