// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"sync"

	"github.com/danielhkuo/gatherfun/models"
)

type subscriber struct {
	ch   chan *models.Session
	last int64
}

// Hub fans session snapshots out to in-process subscribers. A slow subscriber
// only ever holds the newest snapshot; older ones are replaced, never queued.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[*subscriber]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[*subscriber]struct{})}
}

// add registers a subscriber for id. It is removed by remove or when ctx is done.
func (h *Hub) add(ctx context.Context, id string) *subscriber {
	sub := &subscriber{ch: make(chan *models.Session, 1)}

	h.mu.Lock()
	if h.subs[id] == nil {
		h.subs[id] = make(map[*subscriber]struct{})
	}
	h.subs[id][sub] = struct{}{}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.remove(id, sub)
	}()

	return sub
}

func (h *Hub) remove(id string, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[id][sub]; !ok {
		return
	}
	delete(h.subs[id], sub)
	if len(h.subs[id]) == 0 {
		delete(h.subs, id)
	}
	close(sub.ch)
}

// Publish offers s to every subscriber of s.ID.
func (h *Hub) Publish(s *models.Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs[s.ID] {
		h.offerLocked(sub, s)
	}
}

func (h *Hub) offer(sub *subscriber, s *models.Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[s.ID][sub]; !ok {
		return
	}
	h.offerLocked(sub, s)
}

// offerLocked drops snapshots that are not newer than the last one delivered.
func (h *Hub) offerLocked(sub *subscriber, s *models.Session) {
	if s.Version <= sub.last {
		return
	}
	sub.last = s.Version
	snap := s.Clone()

	select {
	case sub.ch <- snap:
		return
	default:
	}
	// Buffer full: replace the stale snapshot
	select {
	case <-sub.ch:
	default:
	}
	sub.ch <- snap
}

// Subscribers reports how many subscribers are registered for id.
func (h *Hub) Subscribers(id string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[id])
}

// subscribe registers first and then offers the current snapshot, so a write
// that lands in between is never lost.
func subscribe(ctx context.Context, h *Hub, id string, get func() (*models.Session, error)) (<-chan *models.Session, error) {
	sub := h.add(ctx, id)

	cur, err := get()
	if err != nil {
		h.remove(id, sub)
		return nil, err
	}
	h.offer(sub, cur)
	return sub.ch, nil
}
