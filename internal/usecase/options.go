// Package usecase contains the offer pipeline: fan-out across providers, dedup and
// fare-family grouping, the separate-ticket combiner, pricing, routing, scoring and caching.
package usecase

import "github.com/flight-search/offer-aggregation-engine/internal/domain"

// SearchOptions contains per-request parameters that do not change the result set.
type SearchOptions struct {
	// SortBy specifies how to order the results (default: best)
	SortBy domain.SortOption
}

// DefaultSearchOptions returns SearchOptions with sensible defaults.
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{
		SortBy: domain.SortByBest,
	}
}
