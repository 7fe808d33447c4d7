package http

import (
	"strings"
	"time"

	"github.com/flight-search/offer-aggregation-engine/internal/domain"
	"github.com/flight-search/offer-aggregation-engine/internal/usecase"
)

// ToDomainCriteria converts a validated SearchOffersRequest to domain.SearchCriteria.
// Validate must have been called first; it resolves the airport and date lists.
func ToDomainCriteria(req *SearchOffersRequest) domain.SearchCriteria {
	return domain.SearchCriteria{
		Origins:                req.origins,
		Destinations:           req.destinations,
		DepartureDates:         req.departureDates,
		ReturnDates:            req.returnDates,
		Adults:                 req.adults(),
		Children:               req.Children,
		Infants:                req.Infants,
		CabinClass:             domain.CabinClass(strings.ToLower(req.TravelClass)),
		NonStop:                req.NonStop,
		Currency:               strings.ToUpper(req.CurrencyCode),
		MaxResults:             req.Max,
		DepartureFlex:          req.DepartureFlex,
		TripDuration:           req.TripDuration,
		UseMultiDate:           req.UseMultiDate,
		IncludeSeparateTickets: req.IncludeSeparateTickets,
		ForceRefresh:           req.ForceRefresh || req.NoCache,
		Filters:                ToDomainFilters(req.Filters),
	}
}

// ToDomainFilters converts a FilterDTO to domain.FilterOptions.
func ToDomainFilters(dto *FilterDTO) *domain.FilterOptions {
	if dto == nil {
		return nil
	}

	opts := &domain.FilterOptions{
		MinPrice: dto.MinPrice,
		MaxPrice: dto.MaxPrice,
		MaxStops: dto.MaxStops,
		Airlines: dto.Airlines,
	}

	if dto.DepartureTimeRange != nil {
		opts.DepartureTimeRange = toDomainTimeRange(dto.DepartureTimeRange)
	}
	if dto.DurationRange != nil {
		opts.DurationRange = toDomainDurationRange(dto.DurationRange)
	}

	if opts.IsEmpty() {
		return nil
	}
	return opts
}

// toDomainTimeRange converts a TimeRangeDTO to domain.TimeRange.
func toDomainTimeRange(dto *TimeRangeDTO) *domain.TimeRange {
	if dto == nil || dto.Start == "" || dto.End == "" {
		return nil
	}

	startTime, err := time.Parse("15:04", dto.Start)
	if err != nil {
		return nil
	}
	endTime, err := time.Parse("15:04", dto.End)
	if err != nil {
		return nil
	}

	return &domain.TimeRange{
		Start: startTime,
		End:   endTime,
	}
}

// toDomainDurationRange converts a DurationRangeDTO to domain.DurationRange.
func toDomainDurationRange(dto *DurationRangeDTO) *domain.DurationRange {
	if dto == nil {
		return nil
	}

	// Return nil if both fields are nil (no filter)
	if dto.MinMinutes == nil && dto.MaxMinutes == nil {
		return nil
	}

	return &domain.DurationRange{
		MinMinutes: dto.MinMinutes,
		MaxMinutes: dto.MaxMinutes,
	}
}

// ToSearchOptions converts request fields to usecase.SearchOptions.
func ToSearchOptions(req *SearchOffersRequest) usecase.SearchOptions {
	return usecase.SearchOptions{
		SortBy: domain.ParseSortOption(req.SortBy),
	}
}
