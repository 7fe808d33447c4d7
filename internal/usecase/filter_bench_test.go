package usecase

import (
	"fmt"
	"testing"
	"time"

	"github.com/flight-search/offer-aggregation-engine/internal/domain"
)

// BenchmarkApplyFilters benchmarks the filter application with various filter combinations
func BenchmarkApplyFilters(b *testing.B) {
	carriers := []string{"AA", "DL", "UA", "B6"}
	offers := make([]domain.Offer, 100)
	for i := 0; i < 100; i++ {
		dep := at(travelDay, 6, i*10)
		carrier := carriers[i%len(carriers)]
		if i%2 == 0 {
			offers[i] = testOffer(fmt.Sprintf("bench-%d", i), "amadeus", float64(150+i*5),
				itin(seg(carrier, fmt.Sprint(100+i), "JFK", "MIA", dep, 180)))
			continue
		}
		offers[i] = testOffer(fmt.Sprintf("bench-%d", i), "duffel", float64(150+i*5),
			itin(
				seg(carrier, fmt.Sprint(100+i), "JFK", "ATL", dep, 150),
				seg(carrier, fmt.Sprint(200+i), "ATL", "MIA", dep.Add(4*time.Hour), 110),
			))
	}

	b.Run("no_filters", func(b *testing.B) {
		filters := &domain.FilterOptions{}
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			ApplyFilters(offers, filters)
		}
	})

	b.Run("price_filter", func(b *testing.B) {
		maxPrice := 400.0
		filters := &domain.FilterOptions{MaxPrice: &maxPrice}
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			ApplyFilters(offers, filters)
		}
	})

	b.Run("duration_filter", func(b *testing.B) {
		minDuration := 60
		maxDuration := 240
		filters := &domain.FilterOptions{
			DurationRange: &domain.DurationRange{
				MinMinutes: &minDuration,
				MaxMinutes: &maxDuration,
			},
		}
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			ApplyFilters(offers, filters)
		}
	})

	b.Run("all_filters", func(b *testing.B) {
		maxPrice := 500.0
		maxStops := 0
		filters := &domain.FilterOptions{
			MaxPrice: &maxPrice,
			MaxStops: &maxStops,
			Airlines: []string{"AA", "DL"},
			DepartureTimeRange: &domain.TimeRange{
				Start: at(travelDay, 7, 0),
				End:   at(travelDay, 18, 0),
			},
		}
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			ApplyFilters(offers, filters)
		}
	})
}
