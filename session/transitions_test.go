// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import (
	"errors"
	"testing"

	"github.com/danielhkuo/gatherfun/models"
)

func TestNextStatus(t *testing.T) {
	withVotes := func(st models.Status) *models.Session {
		return &models.Session{
			HostID:       "host",
			Status:       st,
			Participants: []string{"host", "bob"},
			Preferences:  map[string]models.Preferences{"host": {}},
			Votes:        map[string][]string{"host": {"A"}},
		}
	}
	noVotes := func(st models.Status) *models.Session {
		return &models.Session{HostID: "host", Status: st, Participants: []string{"host"}}
	}
	everyone := func(st models.Status) *models.Session {
		s := withVotes(st)
		s.Preferences["bob"] = models.Preferences{}
		s.Votes["bob"] = []string{}
		s.TieBreakResults = map[string]string{"host": "A", "bob": "A"}
		return s
	}

	tests := []struct {
		name  string
		s     *models.Session
		trig  Trigger
		actor string
		want  models.Status
		err   error
	}{
		{"advance to swiping", noVotes(models.StatusRecruiting), TriggerHostAdvance, "host", models.StatusSwiping, nil},
		{"advance needs host", noVotes(models.StatusRecruiting), TriggerHostAdvance, "bob", "", ErrNotHost},
		{"advance needs votes", noVotes(models.StatusSwiping), TriggerHostAdvance, "host", "", ErrNoVotes},
		{"advance to tiebreak", withVotes(models.StatusSwiping), TriggerHostAdvance, "host", models.StatusTieBreak, nil},
		{"advance from tiebreak", withVotes(models.StatusTieBreak), TriggerHostAdvance, "host", "", ErrInvalidTransition},
		{"start tiebreak from recruiting", withVotes(models.StatusRecruiting), TriggerHostStartTieBreak, "host", models.StatusTieBreak, nil},
		{"start tiebreak needs votes", noVotes(models.StatusRecruiting), TriggerHostStartTieBreak, "host", "", ErrNoVotes},
		{"all swiped incomplete", withVotes(models.StatusRecruiting), TriggerAllSwiped, "", "", ErrInvalidTransition},
		{"all swiped", everyone(models.StatusSwiping), TriggerAllSwiped, "", models.StatusTieBreak, nil},
		{"all played", everyone(models.StatusTieBreak), TriggerAllPlayed, "", models.StatusFinished, nil},
		{"all played incomplete", withVotes(models.StatusTieBreak), TriggerAllPlayed, "", "", ErrInvalidTransition},
		{"deadline with votes", withVotes(models.StatusRecruiting), TriggerDeadline, "", models.StatusTieBreak, nil},
		{"deadline without votes", noVotes(models.StatusSwiping), TriggerDeadline, "", models.StatusFinished, nil},
		{"deadline in tiebreak", withVotes(models.StatusTieBreak), TriggerDeadline, "", models.StatusFinished, nil},
		{"finished is terminal", withVotes(models.StatusFinished), TriggerDeadline, "", "", ErrAlreadyFinished},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := nextStatus(tt.s, tt.trig, tt.actor)
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Fatalf("expected %v, got %v", tt.err, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}
