// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/danielhkuo/gatherfun/amidakuji"
	"github.com/danielhkuo/gatherfun/models"
	"github.com/danielhkuo/gatherfun/tally"
)

// Trigger names the event that asks for a transition.
type Trigger string

const (
	TriggerHostAdvance       Trigger = "host_advance"
	TriggerHostStartTieBreak Trigger = "host_start_tiebreak"
	TriggerAllSwiped         Trigger = "all_swiped"
	TriggerAllPlayed         Trigger = "all_played"
	TriggerDeadline          Trigger = "deadline"
)

// nextStatus returns the status trig leads to from the session's current
// status, or why it may not fire.
//
//	recruiting --host_advance--> swiping
//	swiping --host_advance--> tiebreak            (votes required)
//	recruiting|swiping --host_start_tiebreak--> tiebreak (votes required)
//	recruiting|swiping --all_swiped--> tiebreak
//	recruiting|swiping --deadline--> tiebreak     (with votes)
//	recruiting|swiping --deadline--> finished     (without votes)
//	tiebreak --all_played|deadline--> finished
func nextStatus(s *models.Session, trig Trigger, actor string) (models.Status, error) {
	if s.Status == models.StatusFinished {
		return "", ErrAlreadyFinished
	}

	switch trig {
	case TriggerHostAdvance:
		if !s.IsHost(actor) {
			return "", ErrNotHost
		}
		switch s.Status {
		case models.StatusRecruiting:
			return models.StatusSwiping, nil
		case models.StatusSwiping:
			if !s.HasVotes() {
				return "", ErrNoVotes
			}
			return models.StatusTieBreak, nil
		}

	case TriggerHostStartTieBreak:
		if !s.IsHost(actor) {
			return "", ErrNotHost
		}
		if preTieBreak(s.Status) {
			if !s.HasVotes() {
				return "", ErrNoVotes
			}
			return models.StatusTieBreak, nil
		}

	case TriggerAllSwiped:
		if preTieBreak(s.Status) && allSwiped(s) {
			return models.StatusTieBreak, nil
		}

	case TriggerAllPlayed:
		if s.Status == models.StatusTieBreak && allPlayed(s) {
			return models.StatusFinished, nil
		}

	case TriggerDeadline:
		if preTieBreak(s.Status) {
			if s.HasVotes() {
				return models.StatusTieBreak, nil
			}
			return models.StatusFinished, nil
		}
		if s.Status == models.StatusTieBreak {
			return models.StatusFinished, nil
		}
	}

	return "", fmt.Errorf("%w: %s on %s", ErrInvalidTransition, trig, s.Status)
}

func preTieBreak(st models.Status) bool {
	return st == models.StatusRecruiting || st == models.StatusSwiping
}

// allSwiped reports whether every participant has both preferences and votes.
func allSwiped(s *models.Session) bool {
	if len(s.Participants) == 0 {
		return false
	}
	for _, p := range s.Participants {
		if _, ok := s.Preferences[p]; !ok {
			return false
		}
		if _, ok := s.Votes[p]; !ok {
			return false
		}
	}
	return true
}

func allPlayed(s *models.Session) bool {
	if len(s.Participants) == 0 {
		return false
	}
	for _, p := range s.Participants {
		if _, ok := s.TieBreakResults[p]; !ok {
			return false
		}
	}
	return true
}

// enter builds the patch that moves s into status to.
func (s *Service) enter(cur *models.Session, to models.Status) (models.Patch, error) {
	now := s.clock.Now().UTC()

	switch to {
	case models.StatusSwiping:
		deadline := now.Add(time.Duration(cur.WaitMinutes) * time.Minute)
		return models.Patch{Status: &to, WaitDeadline: &deadline}, nil

	case models.StatusTieBreak:
		cfg, err := s.buildTieBreak(cur, now)
		if err != nil {
			return models.Patch{}, err
		}
		deadline := now.Add(s.policy.TieBreakWindow)
		return models.Patch{Status: &to, TieBreak: cfg, WaitDeadline: &deadline}, nil

	case models.StatusFinished:
		return Finalize(cur, now)
	}
	return models.Patch{}, fmt.Errorf("%w: cannot enter %s", ErrInvalidTransition, to)
}

// buildTieBreak fixes the lanes from the swipe ranking and, for shared boards,
// draws the rungs everyone will walk.
func (s *Service) buildTieBreak(cur *models.Session, now time.Time) (*models.TieBreakConfig, error) {
	ranking := tally.RankLikes(cur.Votes, cur.CandidateNames())

	lanes, err := amidakuji.BuildLanes(ranking, cur.Candidates, s.policy.Lanes)
	if errors.Is(err, amidakuji.ErrNoCandidates) {
		return nil, ErrCandidatesNotLoaded
	}
	if err != nil {
		return nil, err
	}

	cfg := &models.TieBreakConfig{
		Lanes:       lanes,
		Ranking:     ranking,
		SharedRungs: s.policy.SharedConnectors,
		StartedAt:   now,
	}
	if s.policy.SharedConnectors {
		rungs, err := amidakuji.Generate(s.newRand(), s.policy.rungOptions())
		if err != nil {
			return nil, err
		}
		cfg.Rungs = rungs
	}
	return cfg, nil
}
