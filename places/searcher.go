// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package places

import (
	"context"
	"log/slog"

	"github.com/danielhkuo/gatherfun/metrics"
	"github.com/danielhkuo/gatherfun/models"
)

// Searcher tries the primary provider and falls back to a static pool on error
// or empty results. Its Search never fails unless ctx is done.
type Searcher struct {
	primary  Provider
	fallback Provider
	metrics  *metrics.Recorder
}

// NewSearcher builds a Searcher. A nil primary means the fallback is always used.
func NewSearcher(primary Provider, fallback Provider, rec *metrics.Recorder) *Searcher {
	if fallback == nil {
		fallback = NewStatic()
	}
	return &Searcher{primary: primary, fallback: fallback, metrics: rec}
}

func (s *Searcher) Search(ctx context.Context, f Filter) ([]models.Candidate, error) {
	if s.primary != nil {
		found, err := s.primary.Search(ctx, f)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			slog.Warn("place provider failed, using fallback pool", "error", err)
			s.metrics.ProviderFallback("error")
		case len(found) == 0:
			slog.Warn("place provider returned nothing, using fallback pool")
			s.metrics.ProviderFallback("empty")
		default:
			return found, nil
		}
	} else {
		s.metrics.ProviderFallback("disabled")
	}

	return s.fallback.Search(ctx, f)
}
