// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package places

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/danielhkuo/gatherfun/models"
)

const (
	DefaultGoogleBaseURL = "https://places.googleapis.com"
	searchTextPath       = "/v1/places:searchText"
	fieldMask            = "places.id,places.displayName,places.formattedAddress,places.rating,places.priceLevel,places.photos,places.googleMapsUri"
)

// DefaultPriceLevels maps Google's price enum onto the 0-1000 amount scale.
var DefaultPriceLevels = map[string]int{
	"PRICE_LEVEL_FREE":           0,
	"PRICE_LEVEL_INEXPENSIVE":    200,
	"PRICE_LEVEL_MODERATE":       400,
	"PRICE_LEVEL_EXPENSIVE":      700,
	"PRICE_LEVEL_VERY_EXPENSIVE": 1000,
}

// Google searches the Places API (New) text search endpoint.
type Google struct {
	baseURL     string
	apiKey      string
	client      *http.Client
	priceLevels map[string]int
	unknownTier int
}

type GoogleOption func(*Google)

func WithBaseURL(u string) GoogleOption {
	return func(g *Google) { g.baseURL = strings.TrimRight(u, "/") }
}

func WithHTTPClient(c *http.Client) GoogleOption {
	return func(g *Google) { g.client = c }
}

// WithPriceLevels replaces the price enum mapping. unknown is used for places
// without a price level.
func WithPriceLevels(levels map[string]int, unknown int) GoogleOption {
	return func(g *Google) {
		g.priceLevels = levels
		g.unknownTier = unknown
	}
}

func NewGoogle(apiKey string, opts ...GoogleOption) *Google {
	g := &Google{
		baseURL:     DefaultGoogleBaseURL,
		apiKey:      apiKey,
		client:      &http.Client{Timeout: 10 * time.Second},
		priceLevels: DefaultPriceLevels,
		unknownTier: 400,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type searchTextRequest struct {
	TextQuery      string `json:"textQuery"`
	MaxResultCount int    `json:"maxResultCount"`
}

type searchTextResponse struct {
	Places []struct {
		ID          string `json:"id"`
		DisplayName struct {
			Text string `json:"text"`
		} `json:"displayName"`
		FormattedAddress string  `json:"formattedAddress"`
		Rating           float64 `json:"rating"`
		PriceLevel       string  `json:"priceLevel"`
		GoogleMapsURI    string  `json:"googleMapsUri"`
		Photos           []struct {
			Name string `json:"name"`
		} `json:"photos"`
	} `json:"places"`
}

// Search runs one text search per location (at most MaxLocations), merges the
// results and applies Refine. A failure on one location is logged and skipped;
// the search only fails when nothing came back at all.
func (g *Google) Search(ctx context.Context, f Filter) ([]models.Candidate, error) {
	query := "restaurant"
	if len(f.Cuisines) > 0 {
		query = strings.Join(f.Cuisines, " ")
	}

	var all []models.Candidate
	var lastErr error
	for _, loc := range searchLocations(f) {
		found, err := g.searchOne(ctx, query+" in "+loc, loc, f)
		if err != nil {
			slog.Warn("place search failed", "location", loc, "error", err)
			lastErr = err
			continue
		}
		all = append(all, found...)
	}

	unique := Dedupe(all)
	if len(unique) == 0 {
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, ErrNoResults
	}

	slog.Info("place search complete", "unique", len(unique), "locations", len(searchLocations(f)))
	return Refine(unique, f.Price), nil
}

func (g *Google) searchOne(ctx context.Context, textQuery, location string, f Filter) ([]models.Candidate, error) {
	body, err := json.Marshal(searchTextRequest{TextQuery: textQuery, MaxResultCount: MaxResults})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+searchTextPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", g.apiKey)
	req.Header.Set("X-Goog-FieldMask", fieldMask)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("places API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out searchTextResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	cuisine := "Restaurant"
	if len(f.Cuisines) > 0 {
		cuisine = f.Cuisines[0]
	}

	candidates := make([]models.Candidate, 0, len(out.Places))
	for _, p := range out.Places {
		name := p.DisplayName.Text
		if name == "" {
			name = "Unnamed Restaurant"
		}
		addr := p.FormattedAddress
		if addr == "" {
			addr = "Address not available"
		}
		price, ok := g.priceLevels[p.PriceLevel]
		if !ok {
			price = g.unknownTier
		}
		mapsURL := p.GoogleMapsURI
		if mapsURL == "" {
			mapsURL = "https://www.google.com/maps/search/?api=1&query=google_place_id:" + url.QueryEscape(p.ID)
		}

		c := models.Candidate{
			ID:         p.ID,
			Name:       name,
			Address:    addr,
			Rating:     p.Rating,
			PriceLevel: price,
			Cuisine:    cuisine,
			Location:   location,
			MapsURL:    mapsURL,
		}
		for i, ph := range p.Photos {
			if i == 3 {
				break
			}
			c.Images = append(c.Images, g.photoURL(ph.Name))
		}
		if len(c.Images) > 0 {
			c.PhotoURL = c.Images[0]
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}

func (g *Google) photoURL(name string) string {
	q := url.Values{}
	q.Set("maxWidthPx", "800")
	q.Set("key", g.apiKey)
	return g.baseURL + "/v1/" + name + "/media?" + q.Encode()
}
