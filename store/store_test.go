// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/danielhkuo/gatherfun/db"
	"github.com/danielhkuo/gatherfun/models"
)

type storeFactory func(t *testing.T) Store

func factories() map[string]storeFactory {
	return map[string]storeFactory{
		"memory": func(t *testing.T) Store {
			return NewMemory(clockwork.NewFakeClock())
		},
		"sqlite": func(t *testing.T) Store {
			conn, err := db.Open(db.DialectSQLite, ":memory:")
			if err != nil {
				t.Fatalf("failed to open sqlite: %v", err)
			}
			t.Cleanup(func() { conn.Close() })
			if err := db.CreateSchema(conn); err != nil {
				t.Fatalf("failed to create schema: %v", err)
			}
			return NewSQL(conn, db.DialectSQLite, WithClock(clockwork.NewFakeClock()))
		},
	}
}

func seed() *models.Session {
	return &models.Session{
		Name:         "Friday dinner",
		HostID:       "host",
		Status:       models.StatusRecruiting,
		StartDate:    "2026-10-20",
		EndDate:      "2026-10-22",
		Participants: []string{"host"},
		Candidates:   []models.Candidate{{ID: "A", Name: "Alpha"}, {ID: "B", Name: "Bravo"}},
		WaitDeadline: time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC),
	}
}

func forEachStore(t *testing.T, fn func(t *testing.T, st Store)) {
	for name, mk := range factories() {
		t.Run(name, func(t *testing.T) {
			fn(t, mk(t))
		})
	}
}

func TestCreateAndGet(t *testing.T) {
	forEachStore(t, func(t *testing.T, st Store) {
		ctx := context.Background()
		created, err := st.Create(ctx, seed())
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if created.ID == "" || created.Version != 1 {
			t.Fatalf("unexpected id/version: %q/%d", created.ID, created.Version)
		}

		got, err := st.Get(ctx, created.ID)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got.Name != "Friday dinner" || len(got.Candidates) != 2 {
			t.Errorf("unexpected session: %+v", got)
		}
		if !got.WaitDeadline.Equal(created.WaitDeadline) {
			t.Errorf("deadline = %v, want %v", got.WaitDeadline, created.WaitDeadline)
		}
	})
}

func TestGetMissing(t *testing.T) {
	forEachStore(t, func(t *testing.T, st Store) {
		if _, err := st.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		_, err := st.Update(context.Background(), "nope", func(*models.Session) (models.Patch, error) {
			return models.Patch{}, nil
		})
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound from Update, got %v", err)
		}
	})
}

func TestUpdateBumpsVersionOnlyOnChange(t *testing.T) {
	forEachStore(t, func(t *testing.T, st Store) {
		ctx := context.Background()
		created, _ := st.Create(ctx, seed())

		join := func(*models.Session) (models.Patch, error) {
			return models.Patch{Participants: []string{"bob"}}, nil
		}

		first, err := st.Update(ctx, created.ID, join)
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		if first.Version != 2 || !first.IsParticipant("bob") {
			t.Fatalf("unexpected session after join: v%d %v", first.Version, first.Participants)
		}

		again, err := st.Update(ctx, created.ID, join)
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		if again.Version != 2 {
			t.Errorf("no-op update bumped version to %d", again.Version)
		}
	})
}

func TestUpdateMutatorErrorAborts(t *testing.T) {
	forEachStore(t, func(t *testing.T, st Store) {
		ctx := context.Background()
		created, _ := st.Create(ctx, seed())
		boom := errors.New("boom")

		_, err := st.Update(ctx, created.ID, func(*models.Session) (models.Patch, error) {
			return models.Patch{Participants: []string{"bob"}}, boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("expected mutator error, got %v", err)
		}

		got, _ := st.Get(ctx, created.ID)
		if got.IsParticipant("bob") || got.Version != 1 {
			t.Error("aborted update was written")
		}
	})
}

func TestConcurrentPreferencesMerge(t *testing.T) {
	forEachStore(t, func(t *testing.T, st Store) {
		ctx := context.Background()
		created, _ := st.Create(ctx, seed())

		const n = 12
		var wg sync.WaitGroup
		errs := make(chan error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				pid := fmt.Sprintf("p%02d", i)
				_, err := st.Update(ctx, created.ID, func(*models.Session) (models.Patch, error) {
					return models.Patch{
						Participants: []string{pid},
						Preferences:  map[string]models.Preferences{pid: {Nickname: pid}},
					}, nil
				})
				errs <- err
			}(i)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			if err != nil {
				t.Fatalf("concurrent update failed: %v", err)
			}
		}

		got, _ := st.Get(ctx, created.ID)
		if len(got.Preferences) != n {
			t.Errorf("expected %d preference entries, got %d", n, len(got.Preferences))
		}
		if len(got.Participants) != n+1 {
			t.Errorf("expected %d participants, got %d", n+1, len(got.Participants))
		}
		if got.Version != n+1 {
			t.Errorf("version = %d, want %d", got.Version, n+1)
		}
	})
}

func TestSubscribeDeliversCurrentThenUpdates(t *testing.T) {
	forEachStore(t, func(t *testing.T, st Store) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		created, _ := st.Create(ctx, seed())

		ch, err := st.Subscribe(ctx, created.ID)
		if err != nil {
			t.Fatalf("Subscribe failed: %v", err)
		}

		first := receive(t, ch)
		if first.Version != 1 {
			t.Fatalf("first snapshot version = %d, want 1", first.Version)
		}

		st.Update(ctx, created.ID, func(*models.Session) (models.Patch, error) {
			return models.Patch{Participants: []string{"bob"}}, nil
		})

		next := receive(t, ch)
		if next.Version != 2 || !next.IsParticipant("bob") {
			t.Errorf("unexpected snapshot: v%d %v", next.Version, next.Participants)
		}

		cancel()
		select {
		case _, ok := <-ch:
			if ok {
				// A buffered snapshot may still be pending; the next read must close
				if _, ok := <-ch; ok {
					t.Error("channel still open after cancel")
				}
			}
		case <-time.After(time.Second):
			t.Error("channel not closed after cancel")
		}
	})
}

func TestSubscribeMissing(t *testing.T) {
	forEachStore(t, func(t *testing.T, st Store) {
		if _, err := st.Subscribe(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestHubLatestWins(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := h.add(ctx, "s1")
	for v := int64(1); v <= 5; v++ {
		h.Publish(&models.Session{ID: "s1", Version: v})
	}
	// Older versions are never delivered after a newer one
	h.Publish(&models.Session{ID: "s1", Version: 3})

	got := receive(t, sub.ch)
	if got.Version != 5 {
		t.Errorf("slow subscriber got version %d, want 5", got.Version)
	}
	select {
	case s := <-sub.ch:
		t.Errorf("unexpected extra snapshot v%d", s.Version)
	default:
	}

	if h.Subscribers("s1") != 1 {
		t.Errorf("expected 1 subscriber, got %d", h.Subscribers("s1"))
	}
}

func receive(t *testing.T, ch <-chan *models.Session) *models.Session {
	t.Helper()
	select {
	case s, ok := <-ch:
		if !ok {
			t.Fatal("channel closed")
		}
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
	}
	return nil
}

func TestConflictBackoff(t *testing.T) {
	low := func(int64) int64 { return 0 }
	high := func(n int64) int64 { return n - 1 }

	var prevHigh time.Duration
	for attempt := 1; attempt < maxUpdateAttempts; attempt++ {
		window := conflictBaseDelay << (attempt - 1)
		lo, hi := conflictBackoff(attempt, low), conflictBackoff(attempt, high)

		if lo != window/2 {
			t.Errorf("attempt %d: shortest delay %v, want %v", attempt, lo, window/2)
		}
		if hi != window {
			t.Errorf("attempt %d: longest delay %v, want %v", attempt, hi, window)
		}
		if hi <= prevHigh {
			t.Errorf("attempt %d: window did not grow (%v after %v)", attempt, hi, prevHigh)
		}
		prevHigh = hi
	}
}
