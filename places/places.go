// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package places

import (
	"context"
	"errors"

	"github.com/danielhkuo/gatherfun/models"
)

const (
	// MaxLocations caps the number of locations searched per request.
	MaxLocations = 3
	// MaxResults caps the candidate pool.
	MaxResults = 20
	// MinRating is the lowest rating kept by Refine.
	MinRating = 4.0
)

var ErrNoResults = errors.New("place search returned no results")

// Filter is the host's search setup.
type Filter struct {
	Locations []string
	Cuisines  []string
	Price     models.PriceRange
}

// Provider searches for candidate venues.
type Provider interface {
	Search(ctx context.Context, f Filter) ([]models.Candidate, error)
}

// Dedupe keeps the first candidate for each ID.
func Dedupe(in []models.Candidate) []models.Candidate {
	seen := make(map[string]bool, len(in))
	out := make([]models.Candidate, 0, len(in))
	for _, c := range in {
		if c.ID == "" || seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		out = append(out, c)
	}
	return out
}

// Refine keeps well-rated candidates inside the price range. If that leaves
// nothing, the unfiltered list is returned instead. The result is capped at MaxResults.
func Refine(in []models.Candidate, price models.PriceRange) []models.Candidate {
	filtered := make([]models.Candidate, 0, len(in))
	for _, c := range in {
		if c.Rating >= MinRating && price.Contains(c.PriceLevel) {
			filtered = append(filtered, c)
		}
	}
	if len(filtered) == 0 {
		filtered = in
	}
	if len(filtered) > MaxResults {
		filtered = filtered[:MaxResults]
	}
	return filtered
}

func searchLocations(f Filter) []string {
	locs := f.Locations
	if len(locs) == 0 {
		return []string{"Taiwan"}
	}
	if len(locs) > MaxLocations {
		locs = locs[:MaxLocations]
	}
	return locs
}
