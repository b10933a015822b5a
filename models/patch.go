// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "time"

// Patch is a partial, field-level update to a Session. Nil fields are left alone,
// map fields are upserted key by key, and Participants is union-merged.
type Patch struct {
	Status          *Status
	Participants    []string
	Preferences     map[string]Preferences
	Votes           map[string][]string
	Candidates      []Candidate
	TieBreak        *TieBreakConfig
	TieBreakResults map[string]string
	WaitDeadline    *time.Time
	Final           *Outcome
}

// Outcome is the terminal record written by the finalizer.
type Outcome struct {
	Choice  *Candidate  `json:"choice,omitempty"`
	Ranking []RankEntry `json:"ranking"`
	Date    string      `json:"date"`
	Time    string      `json:"time"`
	Rule    string      `json:"rule"`
	At      time.Time   `json:"at"`
}

// Empty reports whether applying the patch could change anything.
func (p Patch) Empty() bool {
	return p.Status == nil && len(p.Participants) == 0 && len(p.Preferences) == 0 &&
		len(p.Votes) == 0 && p.Candidates == nil && p.TieBreak == nil &&
		len(p.TieBreakResults) == 0 && p.WaitDeadline == nil && p.Final == nil
}

// Apply merges p into s. It reports whether s changed.
//
// Apply is the last line of the session invariants: status never regresses,
// a finished session keeps its votes and results, votes require preferences,
// and tie-break results are written once per participant.
func (s *Session) Apply(p Patch) bool {
	s.ensureMaps()
	wasFinished := s.Status == StatusFinished
	changed := false

	for _, id := range p.Participants {
		if id != "" && !s.IsParticipant(id) {
			s.Participants = append(s.Participants, id)
			changed = true
		}
	}

	if !wasFinished {
		for id, pref := range p.Preferences {
			if !s.IsParticipant(id) {
				continue
			}
			s.Preferences[id] = pref
			changed = true
		}

		for id, liked := range p.Votes {
			if _, ok := s.Preferences[id]; !ok {
				continue
			}
			s.Votes[id] = append([]string{}, liked...)
			changed = true
		}

		if p.Candidates != nil && len(s.Candidates) == 0 {
			s.Candidates = append([]Candidate{}, p.Candidates...)
			changed = true
		}

		if p.TieBreak != nil && s.TieBreak == nil {
			tb := *p.TieBreak
			s.TieBreak = &tb
			changed = true
		}

		for id, choice := range p.TieBreakResults {
			if !s.IsParticipant(id) {
				continue
			}
			if _, done := s.TieBreakResults[id]; done {
				continue
			}
			s.TieBreakResults[id] = choice
			changed = true
		}

		if p.WaitDeadline != nil && !s.WaitDeadline.Equal(*p.WaitDeadline) {
			s.WaitDeadline = *p.WaitDeadline
			changed = true
		}

		if p.Status != nil && s.Status.Before(*p.Status) {
			s.Status = *p.Status
			changed = true
		}

		if p.Final != nil && s.Status == StatusFinished {
			s.FinalChoice = p.Final.Choice
			s.FinalRanking = append([]RankEntry{}, p.Final.Ranking...)
			s.FinalDate = p.Final.Date
			s.FinalTime = p.Final.Time
			s.FinalRule = p.Final.Rule
			at := p.Final.At
			s.FinishedAt = &at
			s.WaitDeadline = time.Time{}
			changed = true
		}
	}

	return changed
}
