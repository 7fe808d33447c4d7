package usecase

import (
	"time"

	"github.com/flight-search/offer-aggregation-engine/internal/domain"
)

// ApplyFilters applies the given filter options to a list of offers.
// It returns a new slice containing only offers that match all filter criteria.
//
// Behavior:
//   - Returns the original slice if opts is nil or empty (no filtering)
//   - Price bounds compare against the customer price, so offers must be priced first
//   - Nil/empty filter values are skipped (no filtering on that criterion)
//   - Does NOT mutate the original offers slice
//
// Example usage:
//
//	maxPrice := float64(500)
//	opts := &domain.FilterOptions{MaxPrice: &maxPrice}
//	filtered := ApplyFilters(offers, opts)
func ApplyFilters(offers []domain.Offer, opts *domain.FilterOptions) []domain.Offer {
	if opts.IsEmpty() {
		return offers
	}

	result := make([]domain.Offer, 0, len(offers))
	for i := range offers {
		if opts.MatchesOffer(&offers[i]) {
			result = append(result, offers[i])
		}
	}
	return result
}

// FilterByMaxStops keeps offers with at most maxStops connections in every direction.
// Returns all offers if maxStops is nil.
// Common values: 0 (direct only), 1 (max 1 stop), 2 (max 2 stops)
func FilterByMaxStops(offers []domain.Offer, maxStops *int) []domain.Offer {
	if maxStops == nil {
		return offers
	}
	return ApplyFilters(offers, &domain.FilterOptions{MaxStops: maxStops})
}

// FilterValid drops offers whose itineraries contain impossible connections.
func FilterValid(offers []domain.Offer, minConnection time.Duration) []domain.Offer {
	result := make([]domain.Offer, 0, len(offers))
	for i := range offers {
		valid := len(offers[i].Itineraries) > 0
		for _, it := range offers[i].Itineraries {
			if !it.Valid(minConnection) {
				valid = false
				break
			}
		}
		if valid {
			result = append(result, offers[i])
		}
	}
	return result
}
