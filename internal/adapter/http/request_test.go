package http

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flight-search/offer-aggregation-engine/internal/domain"
)

func TestIsValidTimeFormat(t *testing.T) {
	tests := []struct {
		name     string
		timeStr  string
		expected bool
	}{
		{name: "morning", timeStr: "08:00", expected: true},
		{name: "midnight", timeStr: "00:00", expected: true},
		{name: "end of day", timeStr: "23:59", expected: true},
		{name: "hour out of range", timeStr: "24:00", expected: false},
		{name: "minute out of range", timeStr: "10:60", expected: false},
		{name: "single digit hour", timeStr: "8:00", expected: false},
		{name: "with seconds", timeStr: "08:00:00", expected: false},
		{name: "empty", timeStr: "", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, isValidTimeFormat(tt.timeStr))
		})
	}
}

func validRequest() SearchOffersRequest {
	return SearchOffersRequest{
		Origin:        "JFK",
		Destination:   "MIA",
		DepartureDate: "2026-12-01",
	}
}

func TestSearchOffersRequest_Validate(t *testing.T) {
	intPtr := func(i int) *int { return &i }
	floatPtr := func(f float64) *float64 { return &f }

	tests := []struct {
		name       string
		modify     func(*SearchOffersRequest)
		wantFields []string
	}{
		{
			name:   "minimal request",
			modify: func(r *SearchOffersRequest) {},
		},
		{
			name: "multi-airport multi-date round trip",
			modify: func(r *SearchOffersRequest) {
				r.Origin = "JFK,EWR"
				r.DepartureDate = "2026-12-01,2026-12-02"
				r.ReturnDate = "2026-12-09"
				r.UseMultiDate = true
			},
		},
		{
			name:       "missing everything",
			modify:     func(r *SearchOffersRequest) { *r = SearchOffersRequest{} },
			wantFields: []string{"origin", "destination", "departureDate"},
		},
		{
			name:       "city name without code",
			modify:     func(r *SearchOffersRequest) { r.Origin = "New York" },
			wantFields: []string{"origin"},
		},
		{
			name:       "date list without multi-date",
			modify:     func(r *SearchOffersRequest) { r.DepartureDate = "2026-12-01,2026-12-02" },
			wantFields: []string{"departureDate"},
		},
		{
			name:       "flex and duration out of range",
			modify:     func(r *SearchOffersRequest) { r.DepartureFlex = 4; r.TripDuration = 31 },
			wantFields: []string{"departureFlex", "tripDuration"},
		},
		{
			name:       "too many adults",
			modify:     func(r *SearchOffersRequest) { r.Adults = intPtr(10) },
			wantFields: []string{"adults"},
		},
		{
			name:       "more infants than adults",
			modify:     func(r *SearchOffersRequest) { r.Infants = 2 },
			wantFields: []string{"infants"},
		},
		{
			name:       "unknown class and currency",
			modify:     func(r *SearchOffersRequest) { r.TravelClass = "coach"; r.CurrencyCode = "US" },
			wantFields: []string{"travelClass", "currencyCode"},
		},
		{
			name:       "max above limit",
			modify:     func(r *SearchOffersRequest) { r.Max = domain.MaxResultsLimit + 1 },
			wantFields: []string{"max"},
		},
		{
			name: "inverted price range",
			modify: func(r *SearchOffersRequest) {
				r.Filters = &FilterDTO{MinPrice: floatPtr(500), MaxPrice: floatPtr(100)}
			},
			wantFields: []string{"filters.minPrice"},
		},
		{
			name: "bad airline and time range",
			modify: func(r *SearchOffersRequest) {
				r.Filters = &FilterDTO{
					Airlines:           []string{"AMERICAN"},
					DepartureTimeRange: &TimeRangeDTO{Start: "25:00"},
				}
			},
			wantFields: []string{"filters.airlines[0]", "filters.departureTimeRange.start", "filters.departureTimeRange.end"},
		},
		{
			name: "inverted duration range",
			modify: func(r *SearchOffersRequest) {
				r.Filters = &FilterDTO{DurationRange: &DurationRangeDTO{MinMinutes: intPtr(300), MaxMinutes: intPtr(60)}}
			},
			wantFields: []string{"filters.durationRange"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.modify(&req)

			err := req.Validate()
			if len(tt.wantFields) == 0 {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			verrs, ok := err.(*ValidationErrors)
			require.True(t, ok)
			details := verrs.ToMap()
			for _, f := range tt.wantFields {
				assert.Contains(t, details, f)
			}
		})
	}
}

func TestSearchOffersRequest_ValidateNormalizes(t *testing.T) {
	req := SearchOffersRequest{
		Origin:        "New York (JFK), ewr",
		Destination:   " mia ",
		DepartureDate: "2026-12-01",
		Filters:       &FilterDTO{Airlines: []string{" aa ", "b6"}},
	}

	require.NoError(t, req.Validate())

	crit := ToDomainCriteria(&req)
	assert.Equal(t, []string{"JFK", "EWR"}, crit.Origins)
	assert.Equal(t, []string{"MIA"}, crit.Destinations)
	assert.Equal(t, 1, crit.Adults)
	require.NotNil(t, crit.Filters)
	assert.Equal(t, []string{"AA", "B6"}, crit.Filters.Airlines)
}

func TestToDomainFilters(t *testing.T) {
	assert.Nil(t, ToDomainFilters(nil))
	assert.Nil(t, ToDomainFilters(&FilterDTO{}))

	minutes := 120
	f := ToDomainFilters(&FilterDTO{
		DepartureTimeRange: &TimeRangeDTO{Start: "06:00", End: "12:30"},
		DurationRange:      &DurationRangeDTO{MaxMinutes: &minutes},
	})
	require.NotNil(t, f)
	require.NotNil(t, f.DepartureTimeRange)
	assert.Equal(t, 12, f.DepartureTimeRange.End.Hour())
	assert.Equal(t, 30, f.DepartureTimeRange.End.Minute())
	require.NotNil(t, f.DurationRange)
	assert.Equal(t, &minutes, f.DurationRange.MaxMinutes)
	assert.Nil(t, f.DurationRange.MinMinutes)
}

func TestToSearchOptions(t *testing.T) {
	tests := []struct {
		sortBy string
		want   domain.SortOption
	}{
		{"", domain.SortByBest},
		{"cheapest", domain.SortByCheapest},
		{"FASTEST", domain.SortByFastest},
		{"overall", domain.SortByOverall},
	}

	for _, tt := range tests {
		t.Run(tt.sortBy, func(t *testing.T) {
			assert.Equal(t, tt.want, ToSearchOptions(&SearchOffersRequest{SortBy: tt.sortBy}).SortBy)
		})
	}
}

func TestCalendarRequest_Validate(t *testing.T) {
	req := CalendarRequest{Origin: "JFK", Destination: "MIA", From: "2026-12-01", To: "2026-12-31"}
	assert.NoError(t, req.Validate())

	req.To = ""
	err := req.Validate()
	require.Error(t, err)
	assert.Contains(t, err.(*ValidationErrors).ToMap(), "to")
}

func TestValidationErrorsError(t *testing.T) {
	errs := &ValidationErrors{}
	assert.Equal(t, "validation failed", errs.Error())
	assert.False(t, errs.HasErrors())

	errs.Add("origin", "origin is required")
	errs.Add("adults", "adults must be at least 1")
	assert.Equal(t, "origin is required", errs.Error())
	assert.Equal(t, map[string]string{
		"origin": "origin is required",
		"adults": "adults must be at least 1",
	}, errs.ToMap())
}
