// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package places

import (
	"context"

	"github.com/danielhkuo/gatherfun/models"
)

// Static serves a fixed pool. It never returns an empty result.
type Static struct {
	Pool []models.Candidate
}

// NewStatic returns the built-in demo pool.
func NewStatic() *Static {
	return &Static{Pool: []models.Candidate{
		{
			ID: "m1", Name: "Tasty Taiwan", Rating: 4.5, PriceLevel: 200,
			Address: "Xinyi District, Taipei", Cuisine: "Taiwanese", Location: "Taipei City - Xinyi",
		},
		{
			ID: "m2", Name: "Malay Feast", Rating: 4.2, PriceLevel: 150,
			Address: "Bukit Bintang, KL", Cuisine: "Malay", Location: "Kuala Lumpur - Bukit Bintang",
		},
		{
			ID: "m3", Name: "Ipoh Bean Chicken", Rating: 4.9, PriceLevel: 100,
			Address: "Ipoh, Perak", Cuisine: "Chinese", Location: "Perak - Ipoh",
		},
	}}
}

func (s *Static) Search(ctx context.Context, f Filter) ([]models.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pool := append([]models.Candidate{}, s.Pool...)
	return Refine(pool, f.Price), nil
}
