// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/danielhkuo/gatherfun/models"
)

// Memory is an in-process Store. It is used for tests and single-node demos.
type Memory struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
	hub      *Hub
	clock    clockwork.Clock
}

func NewMemory(clock clockwork.Clock) *Memory {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Memory{
		sessions: make(map[string]*models.Session),
		hub:      NewHub(),
		clock:    clock,
	}
}

func (m *Memory) Create(ctx context.Context, s *models.Session) (*models.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stored := s.Clone()
	stored.ID = uuid.NewString()
	stored.Version = 1
	now := m.clock.Now()
	stored.CreatedAt = now
	stored.UpdatedAt = now

	m.mu.Lock()
	m.sessions[stored.ID] = stored
	m.mu.Unlock()

	return stored.Clone(), nil
}

func (m *Memory) Get(ctx context.Context, id string) (*models.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s.Clone(), nil
}

func (m *Memory) Update(ctx context.Context, id string, fn Mutator) (*models.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}

	patch, err := fn(cur.Clone())
	if err != nil {
		return nil, err
	}

	next := cur.Clone()
	if patch.Empty() || !next.Apply(patch) {
		return next, nil
	}
	next.Version = cur.Version + 1
	next.UpdatedAt = m.clock.Now()
	m.sessions[id] = next

	m.hub.Publish(next)
	return next.Clone(), nil
}

func (m *Memory) Subscribe(ctx context.Context, id string) (<-chan *models.Session, error) {
	return subscribe(ctx, m.hub, id, func() (*models.Session, error) {
		return m.Get(ctx, id)
	})
}

// Hub exposes the subscription hub, for watcher counts.
func (m *Memory) Hub() *Hub {
	return m.hub
}
