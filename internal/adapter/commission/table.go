// Package commission provides commission-rate sources for the routing engine:
// a static table (optionally loaded from YAML) and a PostgreSQL-backed table.
package commission

import (
	"context"

	"github.com/flight-search/offer-aggregation-engine/internal/domain"
)

// best returns the most specific rate matching q, or nil.
// Equal specificity prefers the higher percentage so the result is order-independent.
func best(rates []domain.CommissionRate, q domain.CommissionQuery) *domain.CommissionRate {
	var found *domain.CommissionRate
	for i := range rates {
		r := rates[i]
		if !r.Matches(q) {
			continue
		}
		if found == nil ||
			r.Specificity() > found.Specificity() ||
			(r.Specificity() == found.Specificity() && r.Percent > found.Percent) {
			rc := r
			found = &rc
		}
	}
	return found
}

// StaticSource resolves rates from an in-memory table.
type StaticSource struct {
	rates []domain.CommissionRate
}

// NewStaticSource creates a source over rates.
func NewStaticSource(rates []domain.CommissionRate) *StaticSource {
	return &StaticSource{rates: append([]domain.CommissionRate(nil), rates...)}
}

// Lookup implements domain.CommissionRateSource.
func (s *StaticSource) Lookup(_ context.Context, q domain.CommissionQuery) (*domain.CommissionRate, error) {
	return best(s.rates, q), nil
}

// Len returns the number of rows.
func (s *StaticSource) Len() int {
	return len(s.rates)
}
