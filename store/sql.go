// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/danielhkuo/gatherfun/db"
	"github.com/danielhkuo/gatherfun/models"
)

const (
	maxUpdateAttempts = 5
	conflictBaseDelay = 5 * time.Millisecond
)

// SQL stores sessions as JSON documents in gathering_session and serializes
// writers with a version check.
type SQL struct {
	db       *sql.DB
	dialect  string
	hub      *Hub
	clock    clockwork.Clock
	notifier Notifier
}

type SQLOption func(*SQL)

// WithClock sets the clock used for timestamps.
func WithClock(c clockwork.Clock) SQLOption {
	return func(s *SQL) { s.clock = c }
}

// WithNotifier reports every committed write to n, e.g. to fan out to other processes.
func WithNotifier(n Notifier) SQLOption {
	return func(s *SQL) { s.notifier = n }
}

func NewSQL(conn *sql.DB, dialect string, opts ...SQLOption) *SQL {
	s := &SQL{
		db:      conn,
		dialect: dialect,
		hub:     NewHub(),
		clock:   clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SQL) q(query string) string {
	return db.Rebind(s.dialect, query)
}

func (s *SQL) Create(ctx context.Context, sess *models.Session) (*models.Session, error) {
	stored := sess.Clone()
	stored.ID = uuid.NewString()
	stored.Version = 1
	now := s.clock.Now().UTC()
	stored.CreatedAt = now
	stored.UpdatedAt = now

	doc, err := json.Marshal(stored)
	if err != nil {
		return nil, fmt.Errorf("failed to encode session: %w", err)
	}

	_, err = s.db.ExecContext(ctx, s.q(`
		INSERT INTO gathering_session (id, host_id, status, version, doc, wait_deadline, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`), stored.ID, stored.HostID, string(stored.Status), stored.Version, string(doc), nullTime(stored.WaitDeadline), now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert session: %w", err)
	}

	return stored, nil
}

func (s *SQL) Get(ctx context.Context, id string) (*models.Session, error) {
	return s.load(ctx, s.db, id)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQL) load(ctx context.Context, q queryer, id string) (*models.Session, error) {
	var (
		version int64
		doc     string
	)
	err := q.QueryRowContext(ctx, s.q("SELECT version, doc FROM gathering_session WHERE id = ?"), id).Scan(&version, &doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}

	var sess models.Session
	if err := json.Unmarshal([]byte(doc), &sess); err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", id, err)
	}
	// The column is authoritative
	sess.Version = version
	return sess.Clone(), nil
}

func (s *SQL) Update(ctx context.Context, id string, fn Mutator) (*models.Session, error) {
	for attempt := 1; attempt <= maxUpdateAttempts; attempt++ {
		next, written, err := s.tryUpdate(ctx, id, fn)
		if errors.Is(err, ErrConflict) {
			if attempt == maxUpdateAttempts {
				break
			}
			delay := conflictBackoff(attempt, rand.Int64N)
			slog.Debug("session update conflict, retrying", "session_id", id, "attempt", attempt, "retry_in", delay)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-s.clock.After(delay):
			}
			continue
		}
		if err != nil {
			return nil, err
		}

		if written {
			s.hub.Publish(next)
			if s.notifier != nil {
				s.notifier.Changed(next.ID, next.Version)
			}
		}
		return next, nil
	}
	return nil, ErrConflict
}

// conflictBackoff spreads retrying writers apart: the window doubles per
// attempt and jitter picks a point in its upper half.
func conflictBackoff(attempt int, jitter func(int64) int64) time.Duration {
	window := conflictBaseDelay << (attempt - 1)
	half := int64(window / 2)
	return time.Duration(half + jitter(half+1))
}

// tryUpdate runs one read-modify-write. It returns ErrConflict when another
// writer committed in between.
func (s *SQL) tryUpdate(ctx context.Context, id string, fn Mutator) (*models.Session, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	cur, err := s.load(ctx, tx, id)
	if err != nil {
		return nil, false, err
	}

	patch, err := fn(cur.Clone())
	if err != nil {
		return nil, false, err
	}

	next := cur.Clone()
	if patch.Empty() || !next.Apply(patch) {
		return next, false, nil
	}
	next.Version = cur.Version + 1
	next.UpdatedAt = s.clock.Now().UTC()

	doc, err := json.Marshal(next)
	if err != nil {
		return nil, false, fmt.Errorf("failed to encode session: %w", err)
	}

	res, err := tx.ExecContext(ctx, s.q(`
		UPDATE gathering_session
		SET status = ?, version = ?, doc = ?, wait_deadline = ?, updated_at = ?
		WHERE id = ? AND version = ?
	`), string(next.Status), next.Version, string(doc), nullTime(next.WaitDeadline), next.UpdatedAt, id, cur.Version)
	if err != nil {
		return nil, false, fmt.Errorf("failed to update session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("failed to check update: %w", err)
	}
	if n == 0 {
		return nil, false, ErrConflict
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("failed to commit session update: %w", err)
	}
	return next, true, nil
}

func (s *SQL) Subscribe(ctx context.Context, id string) (<-chan *models.Session, error) {
	return subscribe(ctx, s.hub, id, func() (*models.Session, error) {
		return s.Get(ctx, id)
	})
}

// Refresh reloads a session and pushes it to local subscribers. It is called
// when another process reports a write.
func (s *SQL) Refresh(ctx context.Context, id string) error {
	if s.hub.Subscribers(id) == 0 {
		return nil
	}
	sess, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	s.hub.Publish(sess)
	return nil
}

func (s *SQL) Hub() *Hub {
	return s.hub
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
