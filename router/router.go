// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/danielhkuo/gatherfun/cliparse"
	"github.com/danielhkuo/gatherfun/handlers"
	"github.com/danielhkuo/gatherfun/metrics"
	"github.com/danielhkuo/gatherfun/middleware"
	"github.com/danielhkuo/gatherfun/session"
)

func NewRouter(svc *session.Service, monitor *session.Monitor, rec *metrics.Recorder, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	sessionHandler := handlers.NewSessionHandler(svc, monitor, cfg)

	// handle registers fn with request logging and metrics labelled by pattern.
	handle := func(pattern string, fn http.HandlerFunc) {
		mux.HandleFunc(pattern, middleware.WithLogging(middleware.WithMetrics(rec, pattern, fn)))
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("GET /metrics", rec.Handler())

	// Location catalog
	handle("GET /regions", sessionHandler.GetRegions)

	// Session lifecycle
	handle("POST /sessions", sessionHandler.CreateSession)
	handle("GET /sessions/{id}", sessionHandler.GetSession)
	handle("POST /sessions/{id}/join", sessionHandler.Join)
	handle("POST /sessions/{id}/advance", sessionHandler.Advance)

	// Participant submissions
	handle("POST /sessions/{id}/preferences", sessionHandler.SubmitPreferences)
	handle("POST /sessions/{id}/votes", sessionHandler.SubmitVotes)
	handle("GET /sessions/{id}/me", sessionHandler.GetProgress)

	// Tie-break
	handle("POST /sessions/{id}/tiebreak", sessionHandler.StartTieBreak)
	handle("POST /sessions/{id}/tiebreak/play", sessionHandler.PlayTieBreak)

	// Results and sharing (result sealed until finished)
	handle("GET /sessions/{id}/result", sessionHandler.GetResult)
	handle("GET /sessions/{id}/share", sessionHandler.GetShare)

	// Live updates
	handle("GET /sessions/{id}/events", sessionHandler.Events)

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("gatherfun API v1"))
	})

	return mux
}
