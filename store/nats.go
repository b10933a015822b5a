// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
)

// SubjectPrefix is prepended to the session ID for change notifications.
const SubjectPrefix = "gatherfun.sessions."

// Refresher reloads a session and pushes it to local subscribers.
type Refresher interface {
	Refresh(ctx context.Context, id string) error
}

type changeMessage struct {
	Origin  string `json:"origin"`
	ID      string `json:"id"`
	Version int64  `json:"version"`
}

// Bridge relays change notifications between server processes that share one
// database. It only carries IDs and versions; the database is the source of truth.
type Bridge struct {
	nc     *nats.Conn
	origin string
	sub    *nats.Subscription
}

// NewBridge connects to NATS at url. origin identifies this process so it can
// ignore its own messages.
func NewBridge(url, origin string) (*Bridge, error) {
	nc, err := nats.Connect(url,
		nats.Name("gatherfun-"+origin),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return &Bridge{nc: nc, origin: origin}, nil
}

// Changed publishes a change notification. Failures are logged; subscribers
// on other processes will catch up on their next write or reconnect.
func (b *Bridge) Changed(id string, version int64) {
	data, err := json.Marshal(changeMessage{Origin: b.origin, ID: id, Version: version})
	if err != nil {
		slog.Error("failed to encode change message", "error", err)
		return
	}
	if err := b.nc.Publish(SubjectPrefix+id, data); err != nil {
		slog.Warn("failed to publish session change", "session_id", id, "error", err)
	}
}

// Start subscribes to changes from other processes and refreshes r for each.
func (b *Bridge) Start(ctx context.Context, r Refresher) error {
	sub, err := b.nc.Subscribe(SubjectPrefix+"*", func(msg *nats.Msg) {
		var m changeMessage
		if err := json.Unmarshal(msg.Data, &m); err != nil {
			slog.Warn("dropping malformed change message", "subject", msg.Subject, "error", err)
			return
		}
		if m.Origin == b.origin {
			return
		}
		if m.ID == "" {
			m.ID = strings.TrimPrefix(msg.Subject, SubjectPrefix)
		}
		if err := r.Refresh(ctx, m.ID); err != nil {
			slog.Warn("failed to refresh session", "session_id", m.ID, "version", m.Version, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe to session changes: %w", err)
	}
	b.sub = sub
	slog.Info("session change bridge started", "subject", SubjectPrefix+"*", "origin", b.origin)
	return nil
}

// Close unsubscribes and drains the connection.
func (b *Bridge) Close() {
	if b.sub != nil {
		if err := b.sub.Unsubscribe(); err != nil {
			slog.Warn("failed to unsubscribe", "error", err)
		}
	}
	if err := b.nc.Drain(); err != nil {
		b.nc.Close()
	}
}
