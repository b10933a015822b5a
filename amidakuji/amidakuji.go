// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package amidakuji

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/danielhkuo/gatherfun/models"
)

var (
	ErrTooFewLanes  = errors.New("ladder needs at least two lanes")
	ErrLaneRange    = errors.New("start lane out of range")
	ErrInvalidRung  = errors.New("invalid rung")
	ErrNoCandidates = errors.New("no candidates to place on lanes")
)

// Source is the randomness Generate draws from. *rand.Rand from math/rand/v2 satisfies it.
type Source interface {
	IntN(n int) int
}

// Options bounds rung generation.
type Options struct {
	Lanes       int
	MinRungs    int
	MaxRungs    int
	Slots       int
	MaxAttempts int
}

// DefaultOptions returns the board used by the game: five lanes and 8 to 20 rungs on a 16-slot grid.
func DefaultOptions() Options {
	return Options{
		Lanes:       5,
		MinRungs:    8,
		MaxRungs:    20,
		Slots:       16,
		MaxAttempts: 400,
	}
}

// SlotPosition maps a grid slot to its normalized position in (0, 1).
func SlotPosition(slot, slots int) float64 {
	return float64(slot+1) / float64(slots+1)
}

// Generate places a random set of rungs. A candidate rung is rejected when it
// shares a grid slot with an existing rung on the same or a neighbouring lane,
// so no two rungs ever meet at the same point. The result is sorted.
func Generate(rng Source, opts Options) ([]models.Rung, error) {
	if opts.Lanes < 2 {
		return nil, ErrTooFewLanes
	}
	if opts.Slots <= 0 {
		opts.Slots = DefaultOptions().Slots
	}
	if opts.MaxRungs < opts.MinRungs {
		opts.MaxRungs = opts.MinRungs
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultOptions().MaxAttempts
	}

	target := opts.MinRungs
	if span := opts.MaxRungs - opts.MinRungs; span > 0 {
		target += rng.IntN(span + 1)
	}

	gaps := opts.Lanes - 1
	taken := make(map[[2]int]bool)
	rungs := make([]models.Rung, 0, target)

	for attempt := 0; attempt < opts.MaxAttempts && len(rungs) < target; attempt++ {
		lane := rng.IntN(gaps)
		slot := rng.IntN(opts.Slots)

		if taken[[2]int{lane, slot}] || taken[[2]int{lane - 1, slot}] || taken[[2]int{lane + 1, slot}] {
			continue
		}
		taken[[2]int{lane, slot}] = true
		rungs = append(rungs, models.Rung{Lane: lane, Position: SlotPosition(slot, opts.Slots)})
	}

	Sort(rungs)
	return rungs, nil
}

// Sort orders rungs by position and then by lane.
func Sort(rungs []models.Rung) {
	sort.SliceStable(rungs, func(i, j int) bool {
		if rungs[i].Position != rungs[j].Position {
			return rungs[i].Position < rungs[j].Position
		}
		return rungs[i].Lane < rungs[j].Lane
	})
}

// ValidateRungs checks every rung joins two existing lanes at a position inside (0, 1).
func ValidateRungs(rungs []models.Rung, lanes int) error {
	for i, r := range rungs {
		if r.Lane < 0 || r.Lane > lanes-2 {
			return fmt.Errorf("%w: rung %d lane %d outside 0..%d", ErrInvalidRung, i, r.Lane, lanes-2)
		}
		if math.IsNaN(r.Position) || r.Position <= 0 || r.Position >= 1 {
			return fmt.Errorf("%w: rung %d position %v outside (0, 1)", ErrInvalidRung, i, r.Position)
		}
	}
	return nil
}

// Merge returns the sorted union of shared and extra rungs. A rung identical to
// one already present is dropped.
func Merge(shared, extra []models.Rung) []models.Rung {
	out := make([]models.Rung, 0, len(shared)+len(extra))
	seen := make(map[models.Rung]bool, len(shared)+len(extra))
	for _, list := range [][]models.Rung{shared, extra} {
		for _, r := range list {
			if seen[r] {
				continue
			}
			seen[r] = true
			out = append(out, r)
		}
	}
	Sort(out)
	return out
}

// Resolve walks from start down the ladder and returns the terminal lane.
func Resolve(rungs []models.Rung, lanes, start int) (int, error) {
	end, _, err := Trace(rungs, lanes, start)
	return end, err
}

// Trace is Resolve plus the rungs crossed on the way, in crossing order.
func Trace(rungs []models.Rung, lanes, start int) (int, []models.Rung, error) {
	if lanes < 1 {
		return 0, nil, ErrTooFewLanes
	}
	if start < 0 || start >= lanes {
		return 0, nil, fmt.Errorf("%w: %d not in 0..%d", ErrLaneRange, start, lanes-1)
	}

	sorted := append([]models.Rung{}, rungs...)
	Sort(sorted)

	cur := start
	var crossed []models.Rung
	for _, r := range sorted {
		switch {
		case r.Lane == cur && cur+1 < lanes:
			cur++
			crossed = append(crossed, r)
		case r.Lane == cur-1 && cur-1 >= 0:
			cur--
			crossed = append(crossed, r)
		}
	}
	return cur, crossed, nil
}

// BuildLanes fills k lanes with candidate IDs: the ranking order first, then
// unranked pool candidates in pool order. When fewer than k distinct candidates
// exist the list is repeated cyclically.
func BuildLanes(ranking []models.RankEntry, pool []models.Candidate, k int) ([]string, error) {
	if k < 1 {
		return nil, ErrTooFewLanes
	}

	distinct := make([]string, 0, k)
	seen := make(map[string]bool)
	add := func(id string) {
		if id == "" || seen[id] || len(distinct) >= k {
			return
		}
		seen[id] = true
		distinct = append(distinct, id)
	}
	for _, e := range ranking {
		add(e.CandidateID)
	}
	for _, c := range pool {
		add(c.ID)
	}

	if len(distinct) == 0 {
		return nil, ErrNoCandidates
	}

	lanes := make([]string, k)
	for i := range lanes {
		lanes[i] = distinct[i%len(distinct)]
	}
	return lanes, nil
}
