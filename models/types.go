// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"time"

	"github.com/danielhkuo/gatherfun/regions"
)

// Progress stages for a single participant. These are local to one participant
// and never stored on the session.
const (
	StageJoin            = "join"
	StagePreferences     = "preferences"
	StageSwiping         = "swiping"
	StageWaitingTieBreak = "waiting_tiebreak"
	StageTieBreak        = "tiebreak"
	StageWaitingResult   = "waiting_result"
	StageFinished        = "finished"
)

// Finalizer rules
const (
	RuleTieBreak = "tiebreak"
	RuleSwipe    = "swipe_ranking"
	RulePool     = "pool_fallback"
	RuleNone     = "no_candidates"
)

// Share message kinds
const (
	MessageWaiting = "waiting"
	MessageVoting  = "voting"
	MessageResult  = "result"
)

// Request types

type CreateSessionRequest struct {
	Name        string     `json:"name"`
	StartDate   string     `json:"start_date"`
	EndDate     string     `json:"end_date"`
	Country     string     `json:"country"`
	Locations   []string   `json:"locations"`
	Cuisines    []string   `json:"cuisines"`
	Price       PriceRange `json:"price"`
	WaitMinutes int        `json:"wait_minutes"`
}

type SubmitPreferencesRequest struct {
	Nickname    string   `json:"nickname"`
	Dates       []string `json:"dates"`
	TimePeriods []string `json:"time_periods"`
	Locations   []string `json:"locations"`
	Cuisines    []string `json:"cuisines"`
}

type SubmitVotesRequest struct {
	Liked []string `json:"liked"`
}

// PlayTieBreakRequest picks a starting lane. Lane is ignored when lanes are assigned.
type PlayTieBreakRequest struct {
	Lane       *int   `json:"lane,omitempty"`
	ExtraRungs []Rung `json:"extra_rungs,omitempty"`
}

// Response types

type CreateSessionResponse struct {
	SessionID        string    `json:"session_id"`
	ParticipantToken string    `json:"participant_token"`
	ShareURL         string    `json:"share_url"`
	WaitDeadline     time.Time `json:"wait_deadline"`
}

type JoinSessionResponse struct {
	SessionID        string `json:"session_id"`
	ParticipantID    string `json:"participant_id"`
	ParticipantToken string `json:"participant_token,omitempty"`
}

type PlayTieBreakResponse struct {
	StartLane   int       `json:"start_lane"`
	EndLane     int       `json:"end_lane"`
	CandidateID string    `json:"candidate_id"`
	Candidate   Candidate `json:"candidate"`
	Rungs       []Rung    `json:"rungs"`
	Crossings   []Rung    `json:"crossings"`
}

type ProgressResponse struct {
	ParticipantID string        `json:"participant_id"`
	Stage         string        `json:"stage"`
	Status        Status        `json:"status"`
	TimeLeft      string        `json:"time_left"`
	Remaining     time.Duration `json:"remaining_ns"`
	IsHost        bool          `json:"is_host"`
}

type ResultResponse struct {
	SessionID string      `json:"session_id"`
	Name      string      `json:"name"`
	Choice    *Candidate  `json:"choice,omitempty"`
	Ranking   []RankEntry `json:"ranking"`
	Date      string      `json:"date"`
	Time      string      `json:"time"`
	Rule      string      `json:"rule"`
	MapsURL   string      `json:"maps_url,omitempty"`
	Calendar  string      `json:"calendar_url,omitempty"`
}

type ShareResponse struct {
	Kind     string `json:"kind"`
	Message  string `json:"message"`
	ShareURL string `json:"share_url"`
	WhatsApp string `json:"whatsapp_url"`
	Line     string `json:"line_url"`
}

type RegionsResponse struct {
	Countries []regions.Country `json:"countries"`
}

// CountryResponse is one catalog country with its selectable location labels.
type CountryResponse struct {
	regions.Country
	Locations []string `json:"locations"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// EventSnapshot carries a full session version.
const EventSnapshot = "snapshot"

// SessionEvent is pushed over the events stream on every committed version.
// Progress is present when the stream was opened with a participant token.
type SessionEvent struct {
	Type     string            `json:"type"`
	Session  *Session          `json:"session"`
	Progress *ProgressResponse `json:"progress,omitempty"`
}
