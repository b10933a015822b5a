// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/danielhkuo/gatherfun/metrics"
	"github.com/danielhkuo/gatherfun/models"
)

const (
	defaultRetryDelay = time.Second
	maxRetryDelay     = time.Minute
)

// DeadlineHandler applies the deadline trigger to a session.
type DeadlineHandler interface {
	HandleDeadline(ctx context.Context, id string) (*models.Session, error)
	Subscribe(ctx context.Context, id string) (<-chan *models.Session, error)
}

// Monitor keeps one timer per tracked session and fires HandleDeadline when
// the session's wait deadline passes. It is the only timer in the system, so
// the deadline is applied by a single authoritative trigger.
type Monitor struct {
	handler DeadlineHandler
	clock   clockwork.Clock
	metrics *metrics.Recorder
	retry   time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	watches map[string]struct{}
}

type MonitorOption func(*Monitor)

func WithMonitorClock(c clockwork.Clock) MonitorOption {
	return func(m *Monitor) { m.clock = c }
}

func WithMonitorMetrics(r *metrics.Recorder) MonitorOption {
	return func(m *Monitor) { m.metrics = r }
}

// WithRetryDelay sets how long to wait before retrying a failed deadline write.
func WithRetryDelay(d time.Duration) MonitorOption {
	return func(m *Monitor) { m.retry = d }
}

func NewMonitor(parent context.Context, h DeadlineHandler, opts ...MonitorOption) *Monitor {
	ctx, cancel := context.WithCancel(parent)
	m := &Monitor{
		handler: h,
		clock:   clockwork.NewRealClock(),
		retry:   defaultRetryDelay,
		ctx:     ctx,
		cancel:  cancel,
		watches: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Track starts watching id. Tracking an already tracked or finished session is
// a no-op. It reports whether a new watch was started.
func (m *Monitor) Track(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ctx.Err() != nil {
		return false
	}
	if _, ok := m.watches[id]; ok {
		return false
	}
	m.watches[id] = struct{}{}
	m.metrics.WatchStarted()

	m.wg.Add(1)
	go m.watch(id)
	return true
}

// Tracking reports whether id currently has a watch.
func (m *Monitor) Tracking(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.watches[id]
	return ok
}

// Close stops all watches and waits for them to exit.
func (m *Monitor) Close() {
	m.cancel()
	m.wg.Wait()
}

func (m *Monitor) untrack(id string) {
	m.mu.Lock()
	delete(m.watches, id)
	m.mu.Unlock()
	m.metrics.WatchStopped()
}

func (m *Monitor) watch(id string) {
	defer m.wg.Done()
	defer m.untrack(id)

	ctx, cancel := context.WithCancel(m.ctx)
	defer cancel()

	updates, err := m.handler.Subscribe(ctx, id)
	if err != nil {
		slog.Warn("deadline monitor could not subscribe", "session_id", id, "error", err)
		return
	}

	var (
		timer    clockwork.Timer
		timerC   <-chan time.Time
		deadline time.Time
		failures int
	)
	arm := func(d time.Duration) {
		if timer != nil {
			stopAndDrainTimer(timer)
		}
		timer = m.clock.NewTimer(d)
		timerC = timer.Chan()
	}
	defer func() {
		if timer != nil {
			stopAndDrainTimer(timer)
		}
	}()

	// observe re-arms when the deadline moves and reports whether to keep watching.
	observe := func(s *models.Session) bool {
		if s.Status == models.StatusFinished {
			return false
		}
		if s.WaitDeadline.Equal(deadline) {
			return true
		}
		deadline = s.WaitDeadline
		if deadline.IsZero() {
			if timer != nil {
				stopAndDrainTimer(timer)
			}
			timer, timerC = nil, nil
			return true
		}
		arm(Remaining(deadline, m.clock.Now()))
		slog.Debug("deadline armed", "session_id", id, "deadline", deadline, "status", s.Status.String())
		return true
	}

	for {
		select {
		case <-ctx.Done():
			return

		case s, ok := <-updates:
			if !ok || !observe(s) {
				return
			}

		case <-timerC:
			timerC = nil
			m.metrics.DeadlineFired()

			s, err := m.handler.HandleDeadline(ctx, id)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				if errors.Is(err, ErrNotFound) {
					slog.Warn("tracked session disappeared", "session_id", id)
					return
				}
				delay := retryBackoff(m.retry, failures)
				failures++
				slog.Warn("deadline handling failed, retrying",
					"session_id", id, "error", err, "attempt", failures, "retry_in", delay)
				arm(delay)
				continue
			}
			failures = 0
			// A changed deadline arrives through updates as well; observing the
			// result here keeps the loop correct if that snapshot was skipped.
			deadline = time.Time{}
			if !observe(s) {
				return
			}
		}
	}
}

// retryBackoff doubles base for every consecutive failure, capped at maxRetryDelay.
func retryBackoff(base time.Duration, failures int) time.Duration {
	d := base
	for i := 0; i < failures && d < maxRetryDelay; i++ {
		d *= 2
	}
	return min(d, maxRetryDelay)
}

// stopAndDrainTimer stops the timer and drains a pending fire.
func stopAndDrainTimer(t clockwork.Timer) {
	if !t.Stop() {
		select {
		case <-t.Chan():
		default:
		}
	}
}
