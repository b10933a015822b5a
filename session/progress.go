// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import (
	"time"

	"github.com/danielhkuo/gatherfun/models"
)

// Progress derives where one participant is in the flow. It looks only at that
// participant's own submissions and the global status, so nobody waits on
// anyone else to move from preferences to swiping.
func Progress(s *models.Session, participant string, now time.Time) models.ProgressResponse {
	left := Remaining(s.WaitDeadline, now)
	return models.ProgressResponse{
		ParticipantID: participant,
		Stage:         stage(s, participant),
		Status:        s.Status,
		TimeLeft:      Countdown(left),
		Remaining:     left,
		IsHost:        s.IsHost(participant),
	}
}

func stage(s *models.Session, participant string) string {
	if s.Status == models.StatusFinished {
		return models.StageFinished
	}
	if participant == "" || !s.IsParticipant(participant) {
		return models.StageJoin
	}

	if s.Status == models.StatusTieBreak {
		if _, played := s.TieBreakResults[participant]; played {
			return models.StageWaitingResult
		}
		return models.StageTieBreak
	}

	if _, ok := s.Preferences[participant]; !ok {
		return models.StagePreferences
	}
	if _, ok := s.Votes[participant]; !ok {
		return models.StageSwiping
	}
	return models.StageWaitingTieBreak
}
