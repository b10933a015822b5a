// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"encoding/json"
	"time"
)

// Status is the session's global phase. Phases form a total order and only move forward.
type Status string

const (
	StatusRecruiting Status = "recruiting"
	StatusSwiping    Status = "swiping"
	StatusTieBreak   Status = "tiebreak"
	StatusFinished   Status = "finished"
)

// Rank returns the position of the status in the lifecycle, or -1 if unknown.
func (s Status) Rank() int {
	switch s {
	case StatusRecruiting:
		return 0
	case StatusSwiping:
		return 1
	case StatusTieBreak:
		return 2
	case StatusFinished:
		return 3
	}
	return -1
}

func (s Status) Valid() bool {
	return s.Rank() >= 0
}

// Before reports whether s comes strictly before other in the lifecycle.
func (s Status) Before(other Status) bool {
	return s.Rank() < other.Rank()
}

func (s Status) String() string {
	return string(s)
}

// Time periods offered to participants
const (
	PeriodMorning   = "Morning"
	PeriodAfternoon = "Afternoon"
	PeriodEvening   = "Evening"
	PeriodNight     = "Night"
)

// TimePeriods lists the selectable periods in display order.
var TimePeriods = []string{PeriodMorning, PeriodAfternoon, PeriodEvening, PeriodNight}

// PriceRange is an inclusive numeric range. The scale (1-4 tiers, 100-1000 amounts)
// is chosen by configuration and the place provider, never by the core.
type PriceRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Contains reports whether v lies inside the range. A zero Max means unbounded.
func (p PriceRange) Contains(v int) bool {
	if v < p.Min {
		return false
	}
	return p.Max == 0 || v <= p.Max
}

type Preferences struct {
	Nickname    string    `json:"nickname"`
	Dates       []string  `json:"dates"`
	TimePeriods []string  `json:"time_periods"`
	Locations   []string  `json:"locations"`
	Cuisines    []string  `json:"cuisines"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Candidate is a venue under consideration.
type Candidate struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Address    string   `json:"address"`
	Rating     float64  `json:"rating"`
	PriceLevel int      `json:"price_level"`
	Cuisine    string   `json:"cuisine,omitempty"`
	Location   string   `json:"location,omitempty"`
	MapsURL    string   `json:"maps_url,omitempty"`
	PhotoURL   string   `json:"photo_url,omitempty"`
	Images     []string `json:"images,omitempty"`
}

// RankEntry is one row of a vote ranking.
type RankEntry struct {
	CandidateID string `json:"id"`
	Name        string `json:"name"`
	Votes       int    `json:"votes"`
}

// Rung connects lane Lane to lane Lane+1 at a normalized vertical Position in (0, 1).
type Rung struct {
	Lane     int     `json:"lane"`
	Position float64 `json:"position"`
}

type TieBreakConfig struct {
	Lanes       []string    `json:"lanes"`
	Rungs       []Rung      `json:"rungs"`
	Ranking     []RankEntry `json:"ranking"`
	SharedRungs bool        `json:"shared_rungs"`
	StartedAt   time.Time   `json:"started_at"`
}

// Session is the shared aggregate for one gathering.
type Session struct {
	ID      string `json:"id"`
	Version int64  `json:"version"`

	Name        string     `json:"name"`
	HostID      string     `json:"host_id"`
	Status      Status     `json:"status"`
	StartDate   string     `json:"start_date"`
	EndDate     string     `json:"end_date"`
	Country     string     `json:"country,omitempty"`
	Locations   []string   `json:"locations"`
	Cuisines    []string   `json:"cuisines"`
	Price       PriceRange `json:"price"`
	WaitMinutes int        `json:"wait_minutes"`

	Participants    []string               `json:"participants"`
	Preferences     map[string]Preferences `json:"participant_preferences"`
	Votes           map[string][]string    `json:"restaurant_votes"`
	Candidates      []Candidate            `json:"candidates"`
	TieBreak        *TieBreakConfig        `json:"tie_break,omitempty"`
	TieBreakResults map[string]string      `json:"tie_break_results"`

	WaitDeadline time.Time `json:"wait_deadline"`

	FinalChoice  *Candidate  `json:"final_choice,omitempty"`
	FinalRanking []RankEntry `json:"final_ranking,omitempty"`
	FinalDate    string      `json:"final_date,omitempty"`
	FinalTime    string      `json:"final_time,omitempty"`
	FinalRule    string      `json:"final_rule,omitempty"`
	FinishedAt   *time.Time  `json:"finished_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsParticipant reports whether id has joined the session.
func (s *Session) IsParticipant(id string) bool {
	for _, p := range s.Participants {
		if p == id {
			return true
		}
	}
	return false
}

func (s *Session) IsHost(id string) bool {
	return id != "" && s.HostID == id
}

// HasVotes reports whether at least one participant has recorded swipe votes.
func (s *Session) HasVotes() bool {
	return len(s.Votes) > 0
}

// Candidate looks up a pool candidate by ID.
func (s *Session) Candidate(id string) (Candidate, bool) {
	for _, c := range s.Candidates {
		if c.ID == id {
			return c, true
		}
	}
	return Candidate{}, false
}

// CandidateNames maps candidate IDs to display names.
func (s *Session) CandidateNames() map[string]string {
	names := make(map[string]string, len(s.Candidates))
	for _, c := range s.Candidates {
		names[c.ID] = c.Name
	}
	return names
}

// Nickname returns the participant's chosen nickname, or a short placeholder.
func (s *Session) Nickname(id string) string {
	if p, ok := s.Preferences[id]; ok && p.Nickname != "" {
		return p.Nickname
	}
	if len(id) > 4 {
		return "Player " + id[:4]
	}
	return "Player " + id
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	b, err := json.Marshal(s)
	if err != nil {
		// Session only holds JSON-safe values
		panic(err)
	}
	var out Session
	if err := json.Unmarshal(b, &out); err != nil {
		panic(err)
	}
	out.ensureMaps()
	return &out
}

func (s *Session) ensureMaps() {
	if s.Preferences == nil {
		s.Preferences = map[string]Preferences{}
	}
	if s.Votes == nil {
		s.Votes = map[string][]string{}
	}
	if s.TieBreakResults == nil {
		s.TieBreakResults = map[string]string{}
	}
}
