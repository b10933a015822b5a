// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/danielhkuo/gatherfun/amidakuji"
	"github.com/danielhkuo/gatherfun/metrics"
	"github.com/danielhkuo/gatherfun/models"
	"github.com/danielhkuo/gatherfun/places"
	"github.com/danielhkuo/gatherfun/regions"
	"github.com/danielhkuo/gatherfun/store"
)

var epoch = time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

type fixture struct {
	svc   *Service
	st    *store.Memory
	clock *clockwork.FakeClock
	rec   *metrics.Recorder
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	clock := clockwork.NewFakeClockAt(epoch)
	st := store.NewMemory(clock)
	rec := metrics.NewForTest()

	base := []Option{
		WithClock(clock),
		WithMetrics(rec),
		WithRand(func() amidakuji.Source { return rand.New(rand.NewPCG(1, 2)) }),
	}
	svc := New(st, places.NewSearcher(nil, places.NewStatic(), rec), append(base, opts...)...)
	return &fixture{svc: svc, st: st, clock: clock, rec: rec}
}

func setup() models.CreateSessionRequest {
	return models.CreateSessionRequest{
		Name:        "Friday dinner",
		StartDate:   "2026-10-20",
		EndDate:     "2026-10-22",
		Locations:   []string{"Xinyi", "Daan"},
		Cuisines:    []string{"Taiwanese", "Malay"},
		Price:       models.PriceRange{Min: 0, Max: 1000},
		WaitMinutes: 10,
	}
}

func prefs() models.SubmitPreferencesRequest {
	return models.SubmitPreferencesRequest{
		Nickname:    "Pat",
		Dates:       []string{"2026-10-21"},
		TimePeriods: []string{models.PeriodEvening},
		Locations:   []string{"Xinyi"},
		Cuisines:    []string{"Taiwanese"},
	}
}

func (f *fixture) create(t *testing.T) *models.Session {
	t.Helper()
	sess, err := f.svc.CreateSession(context.Background(), "host", setup())
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	return sess
}

// swipe joins pid (if needed), submits preferences and votes.
func (f *fixture) swipe(t *testing.T, id, pid string, liked ...string) *models.Session {
	t.Helper()
	ctx := context.Background()
	if _, err := f.svc.SubmitPreferences(ctx, id, pid, prefs()); err != nil {
		t.Fatalf("SubmitPreferences(%s) failed: %v", pid, err)
	}
	sess, err := f.svc.SubmitVotes(ctx, id, pid, liked)
	if err != nil {
		t.Fatalf("SubmitVotes(%s) failed: %v", pid, err)
	}
	return sess
}

func TestCreateSession(t *testing.T) {
	f := newFixture(t)
	sess := f.create(t)

	if sess.Status != models.StatusRecruiting {
		t.Errorf("status = %s, want recruiting", sess.Status)
	}
	if len(sess.Participants) != 1 || sess.Participants[0] != "host" {
		t.Errorf("participants = %v", sess.Participants)
	}
	if len(sess.Candidates) != 3 || sess.Candidates[0].ID != "m1" {
		t.Errorf("unexpected pool: %+v", sess.Candidates)
	}
	if want := epoch.Add(10 * time.Minute); !sess.WaitDeadline.Equal(want) {
		t.Errorf("deadline = %v, want %v", sess.WaitDeadline, want)
	}
}

func TestCreateSessionValidation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		mutate func(*models.CreateSessionRequest)
		field  string
	}{
		{"missing name", func(r *models.CreateSessionRequest) { r.Name = " " }, "name"},
		{"bad start", func(r *models.CreateSessionRequest) { r.StartDate = "20/10/2026" }, "start_date"},
		{"end before start", func(r *models.CreateSessionRequest) { r.EndDate = "2026-10-01" }, "end_date"},
		{"no locations", func(r *models.CreateSessionRequest) { r.Locations = nil }, "locations"},
		{"inverted price", func(r *models.CreateSessionRequest) { r.Price = models.PriceRange{Min: 500, Max: 100} }, "price"},
		{"wait too long", func(r *models.CreateSessionRequest) { r.WaitMinutes = 100000 }, "wait_minutes"},
		{"unsupported country", func(r *models.CreateSessionRequest) { r.Country = "Japan" }, "country"},
		{"location outside country", func(r *models.CreateSessionRequest) {
			r.Country = "Malaysia"
			r.Locations = []string{"Penang - George Town", "Xinyi"}
		}, "locations"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := setup()
			tt.mutate(&req)
			_, err := f.svc.CreateSession(context.Background(), "host", req)

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Field != tt.field {
				t.Errorf("field = %s, want %s", verr.Field, tt.field)
			}
		})
	}
}

func TestCreateSessionWithCatalogLocations(t *testing.T) {
	f := newFixture(t)
	req := setup()
	req.Country = "Malaysia"
	req.Locations = []string{"Kuala Lumpur - Bangsar", "Penang - George Town"}

	sess, err := f.svc.CreateSession(context.Background(), "host", req)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if sess.Country != "Malaysia" || len(sess.Locations) != 2 {
		t.Errorf("unexpected setup stored: %s %v", sess.Country, sess.Locations)
	}
}

func TestCreateSessionCustomRegions(t *testing.T) {
	cat := regions.New(regions.Country{Name: "Japan", Cities: []regions.City{
		{Name: "Tokyo", Districts: []string{"Shibuya"}},
	}})
	f := newFixture(t, WithRegions(cat))

	req := setup()
	req.Country = "Japan"
	req.Locations = []string{"Tokyo - Shibuya"}
	if _, err := f.svc.CreateSession(context.Background(), "host", req); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	req.Country = "Malaysia"
	req.Locations = []string{"Penang - George Town"}
	var verr *ValidationError
	if _, err := f.svc.CreateSession(context.Background(), "host", req); !errors.As(err, &verr) || verr.Field != "country" {
		t.Errorf("expected country rejection, got %v", err)
	}
}

func TestCreateSessionDefaults(t *testing.T) {
	f := newFixture(t)
	req := setup()
	req.EndDate = ""
	req.WaitMinutes = 0

	sess, err := f.svc.CreateSession(context.Background(), "host", req)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if sess.EndDate != req.StartDate {
		t.Errorf("end date = %q, want start date", sess.EndDate)
	}
	if sess.WaitMinutes != DefaultPolicy().DefaultWaitMinutes {
		t.Errorf("wait minutes = %d", sess.WaitMinutes)
	}
}

func TestJoin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess := f.create(t)

	got, err := f.svc.Join(ctx, sess.ID, "bob")
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if !got.IsParticipant("bob") {
		t.Fatal("bob not joined")
	}

	// Idempotent
	again, err := f.svc.Join(ctx, sess.ID, "bob")
	if err != nil || again.Version != got.Version {
		t.Errorf("second join changed the session: v%d -> v%d, err %v", got.Version, again.Version, err)
	}

	if _, err := f.svc.Join(ctx, "missing", "bob"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestJoinClosedAfterTieBreak(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess := f.create(t)
	f.svc.Join(ctx, sess.ID, "bob")
	f.swipe(t, sess.ID, "host", "m1")

	if _, err := f.svc.StartTieBreak(ctx, sess.ID, "host"); err != nil {
		t.Fatalf("StartTieBreak failed: %v", err)
	}
	if _, err := f.svc.Join(ctx, sess.ID, "late"); !errors.Is(err, ErrPhaseClosed) {
		t.Errorf("expected ErrPhaseClosed, got %v", err)
	}
}

func TestSubmitPreferencesValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess := f.create(t)

	tests := []struct {
		name   string
		mutate func(*models.SubmitPreferencesRequest)
		field  string
	}{
		{"no dates", func(r *models.SubmitPreferencesRequest) { r.Dates = nil }, "dates"},
		{"date outside range", func(r *models.SubmitPreferencesRequest) { r.Dates = []string{"2026-11-01"} }, "dates"},
		{"no locations", func(r *models.SubmitPreferencesRequest) { r.Locations = []string{" "} }, "locations"},
		{"unknown location", func(r *models.SubmitPreferencesRequest) { r.Locations = []string{"Mars"} }, "locations"},
		{"unknown cuisine", func(r *models.SubmitPreferencesRequest) { r.Cuisines = []string{"Martian"} }, "cuisines"},
		{"unknown period", func(r *models.SubmitPreferencesRequest) { r.TimePeriods = []string{"Brunch"} }, "time_periods"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := prefs()
			tt.mutate(&req)
			_, err := f.svc.SubmitPreferences(ctx, sess.ID, "bob", req)

			var verr *ValidationError
			if !errors.As(err, &verr) || verr.Field != tt.field {
				t.Fatalf("expected ValidationError on %s, got %v", tt.field, err)
			}
		})
	}

	// Nothing was written
	got, _ := f.svc.Get(ctx, sess.ID)
	if got.Version != sess.Version || got.IsParticipant("bob") {
		t.Errorf("rejected preferences changed the session")
	}
}

func TestSubmitPreferencesJoinsImplicitly(t *testing.T) {
	f := newFixture(t)
	sess := f.create(t)

	got, err := f.svc.SubmitPreferences(context.Background(), sess.ID, "bob", prefs())
	if err != nil {
		t.Fatalf("SubmitPreferences failed: %v", err)
	}
	if !got.IsParticipant("bob") {
		t.Error("bob not joined")
	}
	if got.Preferences["bob"].SubmittedAt.IsZero() {
		t.Error("submission time not set")
	}
}

func TestSubmitVotes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess := f.create(t)

	if _, err := f.svc.SubmitVotes(ctx, sess.ID, "stranger", []string{"m1"}); !errors.Is(err, ErrNotParticipant) {
		t.Errorf("expected ErrNotParticipant, got %v", err)
	}
	if _, err := f.svc.SubmitVotes(ctx, sess.ID, "host", []string{"m1"}); !errors.Is(err, ErrPreferencesRequired) {
		t.Errorf("expected ErrPreferencesRequired, got %v", err)
	}

	f.svc.Join(ctx, sess.ID, "bob")
	f.svc.SubmitPreferences(ctx, sess.ID, "host", prefs())

	var verr *ValidationError
	if _, err := f.svc.SubmitVotes(ctx, sess.ID, "host", []string{"zz"}); !errors.As(err, &verr) {
		t.Errorf("expected ValidationError, got %v", err)
	}

	got, err := f.svc.SubmitVotes(ctx, sess.ID, "host", []string{"m2", "m2", "m1"})
	if err != nil {
		t.Fatalf("SubmitVotes failed: %v", err)
	}
	if v := got.Votes["host"]; len(v) != 2 || v[0] != "m2" || v[1] != "m1" {
		t.Errorf("votes = %v, want [m2 m1]", v)
	}
	// bob has not swiped, so no auto-advance
	if got.Status != models.StatusRecruiting {
		t.Errorf("status = %s, want recruiting", got.Status)
	}
}

func TestAutoAdvanceWhenEveryoneSwiped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess := f.create(t)
	f.svc.Join(ctx, sess.ID, "bob")

	f.swipe(t, sess.ID, "host", "m2")
	got := f.swipe(t, sess.ID, "bob", "m2", "m3")

	if got.Status != models.StatusTieBreak {
		t.Fatalf("status = %s, want tiebreak", got.Status)
	}
	if got.TieBreak == nil || len(got.TieBreak.Lanes) != 5 {
		t.Fatalf("tie-break not configured: %+v", got.TieBreak)
	}
	if got.TieBreak.Lanes[0] != "m2" {
		t.Errorf("top lane = %s, want m2", got.TieBreak.Lanes[0])
	}
	if want := epoch.Add(3 * time.Minute); !got.WaitDeadline.Equal(want) {
		t.Errorf("deadline = %v, want %v", got.WaitDeadline, want)
	}
}

func TestAutoAdvanceDisabled(t *testing.T) {
	p := DefaultPolicy()
	p.AutoAdvance = false
	f := newFixture(t, WithPolicy(p))
	sess := f.create(t)

	got := f.swipe(t, sess.ID, "host", "m1")
	if got.Status != models.StatusRecruiting {
		t.Errorf("status = %s, want recruiting", got.Status)
	}
}

func TestAdvance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess := f.create(t)
	f.svc.Join(ctx, sess.ID, "bob")

	if _, err := f.svc.Advance(ctx, sess.ID, "bob"); !errors.Is(err, ErrNotHost) {
		t.Errorf("expected ErrNotHost, got %v", err)
	}

	f.clock.Advance(time.Minute)
	got, err := f.svc.Advance(ctx, sess.ID, "host")
	if err != nil {
		t.Fatalf("Advance failed: %v", err)
	}
	if got.Status != models.StatusSwiping {
		t.Fatalf("status = %s, want swiping", got.Status)
	}
	if want := epoch.Add(11 * time.Minute); !got.WaitDeadline.Equal(want) {
		t.Errorf("deadline = %v, want %v", got.WaitDeadline, want)
	}

	if _, err := f.svc.Advance(ctx, sess.ID, "host"); !errors.Is(err, ErrNoVotes) {
		t.Errorf("expected ErrNoVotes, got %v", err)
	}

	f.swipe(t, sess.ID, "host", "m3")
	got, err = f.svc.Advance(ctx, sess.ID, "host")
	if err != nil {
		t.Fatalf("Advance failed: %v", err)
	}
	if got.Status != models.StatusTieBreak || got.TieBreak == nil {
		t.Errorf("status = %s, want tiebreak with config", got.Status)
	}

	if _, err := f.svc.Advance(ctx, sess.ID, "host"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition from tiebreak, got %v", err)
	}
}

func TestStartTieBreakRequiresVotes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess := f.create(t)

	if _, err := f.svc.StartTieBreak(ctx, sess.ID, "host"); !errors.Is(err, ErrNoVotes) {
		t.Errorf("expected ErrNoVotes, got %v", err)
	}

	f.svc.Join(ctx, sess.ID, "bob")
	f.swipe(t, sess.ID, "host", "m1")
	if _, err := f.svc.StartTieBreak(ctx, sess.ID, "bob"); !errors.Is(err, ErrNotHost) {
		t.Errorf("expected ErrNotHost, got %v", err)
	}
	got, err := f.svc.StartTieBreak(ctx, sess.ID, "host")
	if err != nil {
		t.Fatalf("StartTieBreak failed: %v", err)
	}
	if got.Status != models.StatusTieBreak {
		t.Errorf("status = %s, want tiebreak", got.Status)
	}
}

func TestStatusNeverRegresses(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess := f.create(t)
	f.svc.Join(ctx, sess.ID, "bob")
	f.swipe(t, sess.ID, "host", "m1")

	seen := []models.Status{models.StatusRecruiting}
	steps := []func() (*models.Session, error){
		func() (*models.Session, error) { return f.svc.StartTieBreak(ctx, sess.ID, "host") },
		func() (*models.Session, error) { return f.svc.Advance(ctx, sess.ID, "host") },
		func() (*models.Session, error) {
			f.clock.Advance(time.Hour)
			return f.svc.HandleDeadline(ctx, sess.ID)
		},
		func() (*models.Session, error) { return f.svc.HandleDeadline(ctx, sess.ID) },
	}
	for _, step := range steps {
		step()
		got, _ := f.svc.Get(ctx, sess.ID)
		last := seen[len(seen)-1]
		if got.Status.Before(last) {
			t.Fatalf("status regressed from %s to %s", last, got.Status)
		}
		seen = append(seen, got.Status)
	}
	if seen[len(seen)-1] != models.StatusFinished {
		t.Errorf("final status = %s, want finished", seen[len(seen)-1])
	}
}
