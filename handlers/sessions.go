// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/gatherfun/auth"
	"github.com/danielhkuo/gatherfun/cliparse"
	"github.com/danielhkuo/gatherfun/messaging"
	"github.com/danielhkuo/gatherfun/middleware"
	"github.com/danielhkuo/gatherfun/models"
	"github.com/danielhkuo/gatherfun/session"
	"github.com/danielhkuo/gatherfun/store"
)

type SessionHandler struct {
	svc     *session.Service
	monitor *session.Monitor
	cfg     cliparse.Config
	events  EventsConfig
}

// NewSessionHandler wires the HTTP surface to svc. monitor may be nil, in
// which case deadlines are only applied by explicit calls.
func NewSessionHandler(svc *session.Service, monitor *session.Monitor, cfg cliparse.Config) *SessionHandler {
	return &SessionHandler{svc: svc, monitor: monitor, cfg: cfg, events: DefaultEventsConfig()}
}

// WithEventsConfig replaces the WebSocket timings.
func (h *SessionHandler) WithEventsConfig(c EventsConfig) *SessionHandler {
	h.events = c
	return h
}

func (h *SessionHandler) track(id string) {
	if h.monitor != nil {
		h.monitor.Track(id)
	}
}

// participant returns the caller named by the token header, or "" when no
// token was sent.
func (h *SessionHandler) participant(r *http.Request, sessionID string) (string, error) {
	token := r.Header.Get(auth.ParticipantHeader)
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		return "", nil
	}
	return auth.VerifyParticipantToken(sessionID, token, h.cfg.IdentitySalt)
}

// requireParticipant is participant, but a missing token is an error.
func (h *SessionHandler) requireParticipant(w http.ResponseWriter, r *http.Request, sessionID string) (string, bool) {
	pid, err := h.participant(r, sessionID)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid participant token")
		return "", false
	}
	if pid == "" {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Participant token required")
		return "", false
	}
	return pid, true
}

// writeError maps session errors onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	var verr *session.ValidationError
	switch {
	case errors.As(err, &verr):
		middleware.ErrorResponse(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, session.ErrNotFound):
		middleware.ErrorResponse(w, http.StatusNotFound, "Session not found")
	case errors.Is(err, session.ErrNotHost),
		errors.Is(err, session.ErrNotParticipant),
		errors.Is(err, session.ErrNotFinished):
		middleware.ErrorResponse(w, http.StatusForbidden, err.Error())
	case errors.Is(err, session.ErrInvalidTransition),
		errors.Is(err, session.ErrPhaseClosed),
		errors.Is(err, session.ErrPreferencesRequired),
		errors.Is(err, session.ErrNoVotes),
		errors.Is(err, session.ErrAlreadyPlayed),
		errors.Is(err, session.ErrAlreadyFinished),
		errors.Is(err, session.ErrCandidatesNotLoaded):
		middleware.ErrorResponse(w, http.StatusConflict, err.Error())
	case errors.Is(err, store.ErrConflict), errors.Is(err, context.DeadlineExceeded):
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, "Session is busy, retry")
	default:
		slog.Error("session operation failed", "error", err)
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, "Storage unavailable, retry")
	}
}

// CreateSession handles POST /sessions
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req models.CreateSessionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	hostID, err := auth.GenerateID(8)
	if err != nil {
		slog.Error("failed to generate host ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	sess, err := h.svc.CreateSession(r.Context(), hostID, req)
	if err != nil {
		writeError(w, err)
		return
	}
	h.track(sess.ID)

	middleware.JSONResponse(w, http.StatusCreated, models.CreateSessionResponse{
		SessionID:        sess.ID,
		ParticipantToken: auth.ParticipantToken(sess.ID, hostID, h.cfg.IdentitySalt),
		ShareURL:         messaging.ShareLink(h.cfg.BaseURL, sess.ID),
		WaitDeadline:     sess.WaitDeadline,
	})
}

// GetSession handles GET /sessions/{id}
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	sess, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	h.track(id)
	middleware.JSONResponse(w, http.StatusOK, sess)
}

// Join handles POST /sessions/{id}/join. A caller with a valid token rejoins
// as the same participant; anyone else gets a fresh identity.
func (h *SessionHandler) Join(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	pid, err := h.participant(r, id)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid participant token")
		return
	}
	var token string
	if pid == "" {
		pid, token, err = auth.NewParticipant(id, h.cfg.IdentitySalt)
		if err != nil {
			slog.Error("failed to generate participant ID", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to join session")
			return
		}
	} else {
		token = auth.ParticipantToken(id, pid, h.cfg.IdentitySalt)
	}

	if _, err := h.svc.Join(r.Context(), id, pid); err != nil {
		writeError(w, err)
		return
	}
	h.track(id)

	middleware.JSONResponse(w, http.StatusOK, models.JoinSessionResponse{
		SessionID:        id,
		ParticipantID:    pid,
		ParticipantToken: token,
	})
}

// SubmitPreferences handles POST /sessions/{id}/preferences
func (h *SessionHandler) SubmitPreferences(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	pid, ok := h.requireParticipant(w, r, id)
	if !ok {
		return
	}

	var req models.SubmitPreferencesRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	sess, err := h.svc.SubmitPreferences(r.Context(), id, pid, req)
	if err != nil {
		writeError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, session.Progress(sess, pid, h.svc.Clock().Now()))
}

// SubmitVotes handles POST /sessions/{id}/votes
func (h *SessionHandler) SubmitVotes(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	pid, ok := h.requireParticipant(w, r, id)
	if !ok {
		return
	}

	var req models.SubmitVotesRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	sess, err := h.svc.SubmitVotes(r.Context(), id, pid, req.Liked)
	if err != nil {
		writeError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, session.Progress(sess, pid, h.svc.Clock().Now()))
}

// Advance handles POST /sessions/{id}/advance (host only)
func (h *SessionHandler) Advance(w http.ResponseWriter, r *http.Request) {
	h.hostAction(w, r, h.svc.Advance)
}

// StartTieBreak handles POST /sessions/{id}/tiebreak (host only)
func (h *SessionHandler) StartTieBreak(w http.ResponseWriter, r *http.Request) {
	h.hostAction(w, r, h.svc.StartTieBreak)
}

func (h *SessionHandler) hostAction(w http.ResponseWriter, r *http.Request, act func(context.Context, string, string) (*models.Session, error)) {
	id := r.PathValue("id")
	pid, ok := h.requireParticipant(w, r, id)
	if !ok {
		return
	}

	sess, err := act(r.Context(), id, pid)
	if err != nil {
		writeError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, sess)
}

// PlayTieBreak handles POST /sessions/{id}/tiebreak/play
func (h *SessionHandler) PlayTieBreak(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	pid, ok := h.requireParticipant(w, r, id)
	if !ok {
		return
	}

	var req models.PlayTieBreakRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	res, _, err := h.svc.PlayTieBreak(r.Context(), id, pid, req)
	if err != nil {
		writeError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.PlayTieBreakResponse{
		StartLane:   res.StartLane,
		EndLane:     res.EndLane,
		CandidateID: res.Candidate.ID,
		Candidate:   res.Candidate,
		Rungs:       res.Rungs,
		Crossings:   res.Crossings,
	})
}

// GetProgress handles GET /sessions/{id}/me
func (h *SessionHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	pid, err := h.participant(r, id)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid participant token")
		return
	}

	sess, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, session.Progress(sess, pid, h.svc.Clock().Now()))
}

// GetResult handles GET /sessions/{id}/result
// The outcome stays sealed until the session is finished.
func (h *SessionHandler) GetResult(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	sess, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if sess.Status != models.StatusFinished {
		writeError(w, session.ErrNotFinished)
		return
	}

	resp := models.ResultResponse{
		SessionID: sess.ID,
		Name:      sess.Name,
		Choice:    sess.FinalChoice,
		Ranking:   sess.FinalRanking,
		Date:      sess.FinalDate,
		Time:      sess.FinalTime,
		Rule:      sess.FinalRule,
		Calendar:  messaging.CalendarLink(sess),
	}
	if resp.Ranking == nil {
		resp.Ranking = []models.RankEntry{}
	}
	if sess.FinalChoice != nil {
		resp.MapsURL = messaging.MapsLink(*sess.FinalChoice)
	}
	middleware.JSONResponse(w, http.StatusOK, resp)
}

// GetShare handles GET /sessions/{id}/share
func (h *SessionHandler) GetShare(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	sess, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	kind := r.URL.Query().Get("kind")
	if kind == "" {
		kind = messaging.KindFor(sess.Status)
	}
	msg := messaging.Message(kind, sess, h.cfg.BaseURL, h.svc.Clock().Now())

	middleware.JSONResponse(w, http.StatusOK, models.ShareResponse{
		Kind:     kind,
		Message:  msg,
		ShareURL: messaging.ShareLink(h.cfg.BaseURL, sess.ID),
		WhatsApp: messaging.WhatsAppLink(msg),
		Line:     messaging.LineLink(msg),
	})
}
