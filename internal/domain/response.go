package domain

import "time"

// SearchResult is the outcome of one search as produced by the pipeline and stored in cache.
type SearchResult struct {
	// Offers is the ranked offer list
	Offers []Offer `json:"offers"`

	// Metadata describes how the result was produced
	Metadata SearchMetadata `json:"metadata"`

	// Mixed summarizes the separate-ticket analysis for round trips
	Mixed *MixedSearchSummary `json:"mixed,omitempty"`

	// RoutingSessionID keys the internal routing decisions of this result
	RoutingSessionID string `json:"routingSessionId"`

	// Diagnostic explains an empty result in plain words
	Diagnostic string `json:"diagnostic,omitempty"`
}

// SearchMetadata contains metadata about the search execution.
type SearchMetadata struct {
	// TotalResults is the number of offers returned
	TotalResults int `json:"totalResults"`

	// Criteria echoes the normalized search parameters
	Criteria SearchCriteria `json:"criteria"`

	// SubSearches is the number of route/date combinations searched
	SubSearches int `json:"subSearches"`

	// ProvidersQueried lists every provider asked
	ProvidersQueried []string `json:"providersQueried"`

	// ProvidersSucceeded lists providers that answered at least one sub-search
	ProvidersSucceeded []string `json:"providersSucceeded"`

	// ProvidersFailed lists providers that failed every sub-search
	ProvidersFailed []string `json:"providersFailed"`

	// SearchTimeMs is the pipeline duration in milliseconds
	SearchTimeMs int64 `json:"searchTimeMs"`

	// CacheHit indicates whether the result came from cache
	CacheHit bool `json:"cacheHit"`

	// CachedAt is when the cached entry was created
	CachedAt time.Time `json:"cachedAt"`

	// TTLSeconds is the lifetime the entry was stored with
	TTLSeconds int64 `json:"ttlSeconds"`
}

// MixedSearchSummary reports whether the separate-ticket search ran, why, and what it found.
type MixedSearchSummary struct {
	Executed          bool    `json:"executed"`
	Reason            string  `json:"reason"`
	Confidence        float64 `json:"confidence"`
	OneWaySearches    int     `json:"oneWaySearches"`
	CombinationsAdded int     `json:"combinationsAdded"`
	CheapestRoundTrip float64 `json:"cheapestRoundTrip,omitempty"`
	CheapestMixed     float64 `json:"cheapestMixed,omitempty"`
	BestSavings       float64 `json:"bestSavings,omitempty"`
}

// ProviderResult is the outcome of one provider call for one sub-search.
type ProviderResult struct {
	Provider string
	Search   SubSearch
	Offers   []Offer
	Err      error
	Duration time.Duration
}

// IsSuccess returns true if the provider call succeeded.
func (pr *ProviderResult) IsSuccess() bool {
	return pr.Err == nil
}

// LowestPrice is the cheapest observed customer price for a route on one date.
type LowestPrice struct {
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	Date        string    `json:"date"`
	Price       float64   `json:"price"`
	Currency    string    `json:"currency"`
	OfferID     string    `json:"offerId"`
	ObservedAt  time.Time `json:"observedAt"`
}
