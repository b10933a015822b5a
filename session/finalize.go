// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import (
	"time"

	"github.com/danielhkuo/gatherfun/models"
	"github.com/danielhkuo/gatherfun/tally"
)

// Finalize computes the terminal patch for s. It is a pure function of the
// session, so running it twice on the same input yields the same outcome, and
// applying that outcome to an already finished session changes nothing.
//
// The winner is the first rule that applies:
//
//  1. the most common tie-break result
//  2. the top swipe-ranked candidate
//  3. the first candidate in the pool
//
// With an empty pool there is nothing to pick and ErrCandidatesNotLoaded is
// returned so the caller can retry after the pool loads.
func Finalize(s *models.Session, now time.Time) (models.Patch, error) {
	if s.Status == models.StatusFinished {
		return models.Patch{}, nil
	}
	if len(s.Candidates) == 0 {
		return models.Patch{}, ErrCandidatesNotLoaded
	}

	names := s.CandidateNames()
	ranking := tally.RankLikes(s.Votes, names)

	var (
		choice models.Candidate
		rule   string
		found  bool
	)
	if top, ok := tally.Top(tally.RankChoices(s.TieBreakResults, names)); ok {
		choice, found = s.Candidate(top.CandidateID)
		rule = models.RuleTieBreak
	}
	if !found {
		if top, ok := tally.Top(ranking); ok {
			choice, found = s.Candidate(top.CandidateID)
			rule = models.RuleSwipe
		}
	}
	if !found {
		choice, rule = s.Candidates[0], models.RulePool
	}

	date, tod := finalSlot(s)

	finished := models.StatusFinished
	return models.Patch{
		Status: &finished,
		Final: &models.Outcome{
			Choice:  &choice,
			Ranking: ranking,
			Date:    date,
			Time:    tod,
			Rule:    rule,
			At:      now,
		},
	}, nil
}

// finalSlot picks the most common date and time period from preferences.
// Without preference data the date falls back to the session's start date and
// the time stays empty.
func finalSlot(s *models.Session) (string, string) {
	dates := make(map[string][]string, len(s.Preferences))
	periods := make(map[string][]string, len(s.Preferences))
	for id, p := range s.Preferences {
		dates[id] = p.Dates
		periods[id] = p.TimePeriods
	}

	date, ok := tally.Plurality(dates)
	if !ok {
		date = s.StartDate
	}
	tod, _ := tally.Plurality(periods)
	return date, tod
}
