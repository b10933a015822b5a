// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

import (
	"sort"

	"github.com/danielhkuo/gatherfun/models"
)

// RankLikes counts swipe likes per candidate. A participant counts at most once
// per candidate even if the same ID appears twice in their list.
func RankLikes(votes map[string][]string, names map[string]string) []models.RankEntry {
	counts := make(map[string]int)
	for _, liked := range votes {
		seen := make(map[string]bool, len(liked))
		for _, id := range liked {
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			counts[id]++
		}
	}
	return rank(counts, names)
}

// RankChoices counts one choice per participant, as produced by the tie-break game.
func RankChoices(choices map[string]string, names map[string]string) []models.RankEntry {
	counts := make(map[string]int)
	for _, id := range choices {
		if id != "" {
			counts[id]++
		}
	}
	return rank(counts, names)
}

// Top returns the first ranking entry, if any.
func Top(ranking []models.RankEntry) (models.RankEntry, bool) {
	if len(ranking) == 0 {
		return models.RankEntry{}, false
	}
	return ranking[0], true
}

// Plurality returns the most frequent value over all participants' lists. Each
// participant contributes a value at most once. Ties go to the lexically smallest value.
func Plurality(values map[string][]string) (string, bool) {
	counts := make(map[string]int)
	for _, list := range values {
		seen := make(map[string]bool, len(list))
		for _, v := range list {
			if v == "" || seen[v] {
				continue
			}
			seen[v] = true
			counts[v]++
		}
	}

	best, bestCount := "", 0
	for v, n := range counts {
		if n > bestCount || (n == bestCount && v < best) {
			best, bestCount = v, n
		}
	}
	return best, bestCount > 0
}

func rank(counts map[string]int, names map[string]string) []models.RankEntry {
	ranking := make([]models.RankEntry, 0, len(counts))
	for id, n := range counts {
		name := names[id]
		if name == "" {
			name = id
		}
		ranking = append(ranking, models.RankEntry{CandidateID: id, Name: name, Votes: n})
	}

	// Votes descending, then candidate ID ascending for a stable order
	sort.Slice(ranking, func(i, j int) bool {
		a, b := ranking[i], ranking[j]
		if a.Votes != b.Votes {
			return a.Votes > b.Votes
		}
		return a.CandidateID < b.CandidateID
	})

	return ranking
}
