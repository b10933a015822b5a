// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/danielhkuo/gatherfun/amidakuji"
	"github.com/danielhkuo/gatherfun/auth"
	"github.com/danielhkuo/gatherfun/cliparse"
	"github.com/danielhkuo/gatherfun/db"
	"github.com/danielhkuo/gatherfun/metrics"
	"github.com/danielhkuo/gatherfun/models"
	"github.com/danielhkuo/gatherfun/places"
	"github.com/danielhkuo/gatherfun/session"
	"github.com/danielhkuo/gatherfun/store"
)

// Epoch is the fake clock's starting instant.
var Epoch = time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

// Env bundles a service on a fake clock with its dependencies.
type Env struct {
	Service *session.Service
	Store   store.Store
	Clock   *clockwork.FakeClock
	Metrics *metrics.Recorder
	Config  cliparse.Config
}

// NewEnv builds a service on an in-memory store and the static place pool.
func NewEnv(t *testing.T, opts ...session.Option) *Env {
	t.Helper()
	clock := clockwork.NewFakeClockAt(Epoch)
	return newEnv(clock, store.NewMemory(clock), opts)
}

// NewSQLEnv is NewEnv on an in-memory sqlite database.
func NewSQLEnv(t *testing.T, opts ...session.Option) *Env {
	t.Helper()
	conn := SetupTestDB(t)
	clock := clockwork.NewFakeClockAt(Epoch)
	return newEnv(clock, store.NewSQL(conn, db.DialectSQLite, store.WithClock(clock)), opts)
}

func newEnv(clock *clockwork.FakeClock, st store.Store, opts []session.Option) *Env {
	rec := metrics.NewForTest()
	base := []session.Option{
		session.WithClock(clock),
		session.WithMetrics(rec),
		session.WithRand(func() amidakuji.Source { return rand.New(rand.NewPCG(7, 11)) }),
	}
	svc := session.New(st, places.NewSearcher(nil, places.NewStatic(), rec), append(base, opts...)...)
	return &Env{Service: svc, Store: st, Clock: clock, Metrics: rec, Config: GetTestConfig()}
}

// SetupTestDB opens a fresh in-memory sqlite database with the schema applied.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.Open(db.DialectSQLite, ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:             3318,
		DatabaseType:     cliparse.DatabaseMemory,
		IdentitySalt:     "test-identity-salt",
		BaseURL:          "https://gather.example/",
		TieBreakMinutes:  3,
		TieBreakLanes:    5,
		SharedConnectors: true,
		FreeLaneChoice:   true,
	}
}

// SessionSetup is a valid host setup over the static pool.
func SessionSetup() models.CreateSessionRequest {
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

// Preferences is a valid submission for SessionSetup.
func Preferences(nickname string) models.SubmitPreferencesRequest {
	return models.SubmitPreferencesRequest{
		Nickname:    nickname,
		Dates:       []string{"2026-10-21"},
		TimePeriods: []string{models.PeriodEvening},
		Locations:   []string{"Xinyi"},
		Cuisines:    []string{"Taiwanese"},
	}
}

// CreateTestSession creates a session hosted by a fresh participant and
// returns it with the host's token.
func (e *Env) CreateTestSession(t *testing.T) (*models.Session, string) {
	t.Helper()

	hostID, _ := auth.GenerateID(8)
	sess, err := e.Service.CreateSession(context.Background(), hostID, SessionSetup())
	if err != nil {
		t.Fatalf("Failed to create test session: %v", err)
	}
	return sess, auth.ParticipantToken(sess.ID, hostID, e.Config.IdentitySalt)
}

// JoinTestParticipant joins a fresh participant and returns its ID and token.
func (e *Env) JoinTestParticipant(t *testing.T, sessionID string) (string, string) {
	t.Helper()

	id, token, _ := auth.NewParticipant(sessionID, e.Config.IdentitySalt)
	if _, err := e.Service.Join(context.Background(), sessionID, id); err != nil {
		t.Fatalf("Failed to join test participant: %v", err)
	}
	return id, token
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body any, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AsParticipant is the header map carrying token.
func AsParticipant(token string) map[string]string {
	return map[string]string{auth.ParticipantHeader: token}
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
