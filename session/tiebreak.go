// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import (
	"context"
	"log/slog"
	"slices"

	"github.com/danielhkuo/gatherfun/amidakuji"
	"github.com/danielhkuo/gatherfun/models"
)

// PlayResult is one participant's walk down the ladder.
type PlayResult struct {
	StartLane int
	EndLane   int
	Candidate models.Candidate
	Rungs     []models.Rung
	Crossings []models.Rung
}

// AssignedLane is the start lane for participant when lanes are not chosen freely.
func AssignedLane(s *models.Session, participant string, lanes int) int {
	idx := slices.Index(s.Participants, participant)
	if idx < 0 || lanes <= 0 {
		return 0
	}
	return idx % lanes
}

// PlayTieBreak resolves the participant's path and records the candidate it
// lands on. Each participant plays once. When the last participant plays, the
// session is finalized in the same write.
func (s *Service) PlayTieBreak(ctx context.Context, id, participant string, req models.PlayTieBreakRequest) (PlayResult, *models.Session, error) {
	var (
		res PlayResult
		mv  *move
	)
	sess, err := s.store.Update(ctx, id, func(cur *models.Session) (models.Patch, error) {
		mv = nil
		switch cur.Status {
		case models.StatusTieBreak:
		case models.StatusFinished:
			return models.Patch{}, ErrAlreadyFinished
		default:
			return models.Patch{}, ErrPhaseClosed
		}
		if !cur.IsParticipant(participant) {
			return models.Patch{}, ErrNotParticipant
		}
		if _, done := cur.TieBreakResults[participant]; done {
			return models.Patch{}, ErrAlreadyPlayed
		}
		cfg := cur.TieBreak
		if cfg == nil || len(cfg.Lanes) == 0 {
			return models.Patch{}, ErrCandidatesNotLoaded
		}
		n := len(cfg.Lanes)

		start := AssignedLane(cur, participant, n)
		if s.policy.FreeLaneChoice {
			if req.Lane == nil {
				return models.Patch{}, invalid("lane", "is required")
			}
			start = *req.Lane
		}
		if start < 0 || start >= n {
			return models.Patch{}, invalid("lane", "out of range")
		}

		rungs := cfg.Rungs
		if !cfg.SharedRungs {
			private, err := amidakuji.Generate(s.newRand(), s.rungOptionsFor(n))
			if err != nil {
				return models.Patch{}, err
			}
			rungs = private
		}
		if len(req.ExtraRungs) > 0 {
			if !s.policy.AllowCustomRungs {
				return models.Patch{}, invalid("extra_rungs", "custom rungs are disabled")
			}
			if err := amidakuji.ValidateRungs(req.ExtraRungs, n); err != nil {
				return models.Patch{}, invalid("extra_rungs", err.Error())
			}
			rungs = amidakuji.Merge(rungs, req.ExtraRungs)
		}

		end, crossed, err := amidakuji.Trace(rungs, n, start)
		if err != nil {
			return models.Patch{}, err
		}
		cand, ok := cur.Candidate(cfg.Lanes[end])
		if !ok {
			return models.Patch{}, ErrCandidatesNotLoaded
		}
		res = PlayResult{StartLane: start, EndLane: end, Candidate: cand, Rungs: rungs, Crossings: crossed}

		patch := models.Patch{TieBreakResults: map[string]string{participant: cand.ID}}
		next := cur.Clone()
		next.Apply(patch)
		if to, err := nextStatus(next, TriggerAllPlayed, ""); err == nil {
			p, err := s.enter(next, to)
			if err != nil {
				return models.Patch{}, err
			}
			mv = &move{from: cur.Status, to: to, trigger: TriggerAllPlayed}
			mergeInto(&patch, p)
		}
		return patch, nil
	})
	if err != nil {
		return PlayResult{}, nil, err
	}

	slog.Info("tie-break played",
		"session_id", id,
		"participant_id", participant,
		"start_lane", res.StartLane,
		"end_lane", res.EndLane,
		"candidate_id", res.Candidate.ID,
	)
	s.record(id, sess, mv)
	return res, sess, nil
}

func (s *Service) rungOptionsFor(lanes int) amidakuji.Options {
	opts := s.policy.rungOptions()
	opts.Lanes = lanes
	return opts
}
