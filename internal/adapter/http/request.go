// Package http provides the HTTP handler layer for the offer search API.
// It handles request parsing, validation, and response formatting.
package http

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/flight-search/offer-aggregation-engine/internal/domain"
)

// SearchOffersRequest represents the request body for an offer search.
type SearchOffersRequest struct {
	// Origin is one or more departure airports, comma separated (e.g., "JFK,EWR" or "New York (JFK)")
	Origin string `json:"origin" example:"JFK"`

	// Destination is one or more arrival airports, comma separated
	Destination string `json:"destination" example:"MIA"`

	// DepartureDate is the departure date in YYYY-MM-DD format; a comma separated list with useMultiDate
	DepartureDate string `json:"departureDate" example:"2026-12-01"`

	// ReturnDate makes the search a round trip (optional)
	ReturnDate string `json:"returnDate,omitempty" example:"2026-12-08"`

	// Adults is the number of adult travelers (1-9, default 1)
	Adults *int `json:"adults,omitempty" example:"1"`

	Children int `json:"children,omitempty" example:"0"`
	Infants  int `json:"infants,omitempty" example:"0"`

	// TravelClass is economy, premium_economy, business or first (default economy)
	TravelClass string `json:"travelClass,omitempty" example:"economy"`

	// NonStop restricts results to direct flights
	NonStop bool `json:"nonStop,omitempty"`

	// CurrencyCode is the ISO 4217 currency of returned prices (default USD)
	CurrencyCode string `json:"currencyCode,omitempty" example:"USD"`

	// Max caps the number of returned offers (default 50)
	Max int `json:"max,omitempty" example:"50"`

	// SortBy is best, cheapest, fastest or overall (default best)
	SortBy string `json:"sortBy,omitempty" example:"best"`

	// DepartureFlex searches ±N days around each departure date (0-3)
	DepartureFlex int `json:"departureFlex,omitempty" example:"0"`

	// TripDuration derives the return date as departure + N nights
	TripDuration int `json:"tripDuration,omitempty" example:"0"`

	// UseMultiDate allows comma separated date lists
	UseMultiDate bool `json:"useMultiDate,omitempty"`

	// IncludeSeparateTickets forces the separate-ticket search on or off; omitted means automatic
	IncludeSeparateTickets *bool `json:"includeSeparateTickets,omitempty"`

	// ForceRefresh and NoCache both bypass the cached result
	ForceRefresh bool `json:"forceRefresh,omitempty"`
	NoCache      bool `json:"noCache,omitempty"`

	// Filters contains optional filtering criteria
	Filters *FilterDTO `json:"filters,omitempty"`

	origins, destinations       []string
	departureDates, returnDates []string
}

// FilterDTO represents optional filters for an offer search.
// Example: {"maxPrice": 600, "maxStops": 0, "departureTimeRange": {"start": "06:00", "end": "12:00"}}
type FilterDTO struct {
	// MinPrice filters out offers priced below this amount
	MinPrice *float64 `json:"minPrice,omitempty" example:"100"`

	// MaxPrice filters out offers priced above this amount
	MaxPrice *float64 `json:"maxPrice,omitempty" example:"600"`

	// MaxStops filters offers with more stops than this value (0 = direct only)
	MaxStops *int `json:"maxStops,omitempty" example:"0"`

	// Airlines keeps only offers from these airline codes
	Airlines []string `json:"airlines,omitempty" example:"AA,DL"`

	// DepartureTimeRange filters offers departing within a time window
	DepartureTimeRange *TimeRangeDTO `json:"departureTimeRange,omitempty"`

	// DurationRange filters offers by total duration in minutes
	DurationRange *DurationRangeDTO `json:"durationRange,omitempty"`
}

// TimeRangeDTO represents a time window for filtering.
type TimeRangeDTO struct {
	// Start is the beginning of the time range (HH:MM format, e.g., "06:00")
	Start string `json:"start"`

	// End is the end of the time range (HH:MM format, e.g., "12:00")
	End string `json:"end"`
}

// DurationRangeDTO represents a duration range filter in minutes.
// Example: {"minMinutes": 60, "maxMinutes": 180} filters flights between 1-3 hours.
type DurationRangeDTO struct {
	MinMinutes *int `json:"minMinutes,omitempty" example:"60"`
	MaxMinutes *int `json:"maxMinutes,omitempty" example:"180"`
}

// CalendarRequest holds the query parameters of the lowest-price calendar.
type CalendarRequest struct {
	Origin      string `query:"origin"`
	Destination string `query:"destination"`
	From        string `query:"from"`
	To          string `query:"to"`
}

var timePattern = regexp.MustCompile(`^\d{2}:\d{2}$`)

var currencyPattern = regexp.MustCompile(`^[A-Za-z]{3}$`)

// Valid travel classes.
var validClasses = map[string]bool{
	"economy":         true,
	"premium_economy": true,
	"business":        true,
	"first":           true,
	"":                true, // Empty is valid (defaults to economy)
}

// ValidationError represents a field-level validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors holds multiple validation errors.
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

// Error implements the error interface.
func (v *ValidationErrors) Error() string {
	if len(v.Errors) == 0 {
		return "validation failed"
	}
	return v.Errors[0].Message
}

// Add adds a validation error.
func (v *ValidationErrors) Add(field, message string) {
	v.Errors = append(v.Errors, ValidationError{
		Field:   field,
		Message: message,
	})
}

// addDomain records a domain validation error under its own field.
func (v *ValidationErrors) addDomain(field string, err error) {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		v.Add(ve.Field, ve.Error())
		return
	}
	v.Add(field, err.Error())
}

// HasErrors returns true if there are validation errors.
func (v *ValidationErrors) HasErrors() bool {
	return len(v.Errors) > 0
}

// ToMap converts validation errors to a map for API response.
func (v *ValidationErrors) ToMap() map[string]string {
	result := make(map[string]string, len(v.Errors))
	for _, e := range v.Errors {
		result[e.Field] = e.Message
	}
	return result
}

// Validate validates the search request, normalizing airport and date lists.
// Cross-field rules (seat limits, route overlap) are checked again by the use case.
func (r *SearchOffersRequest) Validate() error {
	errs := &ValidationErrors{}

	r.validateAirports(errs)
	r.validateDates(errs)
	r.validatePassengers(errs)
	r.validateOptions(errs)
	r.validateFilters(errs)

	if errs.HasErrors() {
		return errs
	}
	return nil
}

func (r *SearchOffersRequest) validateAirports(errs *ValidationErrors) {
	var err error
	if r.origins, err = domain.ParseAirportCodes("origin", r.Origin); err != nil {
		errs.addDomain("origin", err)
	}
	if r.destinations, err = domain.ParseAirportCodes("destination", r.Destination); err != nil {
		errs.addDomain("destination", err)
	}
	if len(r.origins) == 1 && len(r.destinations) == 1 && r.origins[0] == r.destinations[0] {
		errs.Add("destination", "origin and destination must be different")
	}
}

func (r *SearchOffersRequest) validateDates(errs *ValidationErrors) {
	if strings.TrimSpace(r.DepartureDate) == "" {
		errs.Add("departureDate", "departureDate is required")
	} else {
		dates, err := domain.ParseDateList("departureDate", r.DepartureDate, r.UseMultiDate)
		if err != nil {
			errs.addDomain("departureDate", err)
		}
		r.departureDates = dates
	}

	dates, err := domain.ParseDateList("returnDate", r.ReturnDate, r.UseMultiDate)
	if err != nil {
		errs.addDomain("returnDate", err)
	}
	r.returnDates = dates

	if r.DepartureFlex < 0 || r.DepartureFlex > domain.MaxDepartureFlex {
		errs.Add("departureFlex", fmt.Sprintf("departureFlex must be between 0 and %d", domain.MaxDepartureFlex))
	}
	if r.TripDuration < 0 || r.TripDuration > domain.MaxTripDuration {
		errs.Add("tripDuration", fmt.Sprintf("tripDuration must be between 0 and %d", domain.MaxTripDuration))
	}
}

func (r *SearchOffersRequest) validatePassengers(errs *ValidationErrors) {
	adults := r.adults()
	if adults < 1 {
		errs.Add("adults", "adults must be at least 1")
	} else if adults > domain.MaxPassengers {
		errs.Add("adults", fmt.Sprintf("adults cannot exceed %d", domain.MaxPassengers))
	}
	if r.Children < 0 {
		errs.Add("children", "children must be a non-negative number")
	}
	if r.Infants < 0 {
		errs.Add("infants", "infants must be a non-negative number")
	} else if r.Infants > adults {
		errs.Add("infants", "infants cannot exceed the number of adults")
	}
}

func (r *SearchOffersRequest) validateOptions(errs *ValidationErrors) {
	if !validClasses[strings.ToLower(r.TravelClass)] {
		errs.Add("travelClass", "travelClass must be one of: economy, premium_economy, business, first")
	}
	if r.SortBy != "" && !domain.SortOption(strings.ToLower(r.SortBy)).IsValid() {
		errs.Add("sortBy", "sortBy must be one of: best, cheapest, fastest, overall")
	}
	if r.CurrencyCode != "" && !currencyPattern.MatchString(r.CurrencyCode) {
		errs.Add("currencyCode", "currencyCode must be a 3-letter ISO 4217 code")
	}
	if r.Max < 0 || r.Max > domain.MaxResultsLimit {
		errs.Add("max", fmt.Sprintf("max must be between 1 and %d", domain.MaxResultsLimit))
	}
}

func (r *SearchOffersRequest) validateFilters(errs *ValidationErrors) {
	if r.Filters == nil {
		return
	}

	if r.Filters.MinPrice != nil && *r.Filters.MinPrice < 0 {
		errs.Add("filters.minPrice", "minPrice must be a positive number")
	}
	if r.Filters.MaxPrice != nil && *r.Filters.MaxPrice < 0 {
		errs.Add("filters.maxPrice", "maxPrice must be a positive number")
	}
	if r.Filters.MinPrice != nil && r.Filters.MaxPrice != nil && *r.Filters.MinPrice > *r.Filters.MaxPrice {
		errs.Add("filters.minPrice", "minPrice must be less than or equal to maxPrice")
	}

	if r.Filters.MaxStops != nil && *r.Filters.MaxStops < 0 {
		errs.Add("filters.maxStops", "maxStops must be a non-negative number")
	}

	for i, airline := range r.Filters.Airlines {
		normalized := strings.ToUpper(strings.TrimSpace(airline))
		if len(normalized) != 2 && len(normalized) != 3 {
			errs.Add(fmt.Sprintf("filters.airlines[%d]", i),
				"airline code must be 2 or 3 characters")
		}
		r.Filters.Airlines[i] = normalized
	}

	if tr := r.Filters.DepartureTimeRange; tr != nil {
		if tr.Start == "" {
			errs.Add("filters.departureTimeRange.start", "start time is required when departureTimeRange is specified")
		} else if !isValidTimeFormat(tr.Start) {
			errs.Add("filters.departureTimeRange.start", "start must be in HH:MM format with valid hours (00-23) and minutes (00-59)")
		}
		if tr.End == "" {
			errs.Add("filters.departureTimeRange.end", "end time is required when departureTimeRange is specified")
		} else if !isValidTimeFormat(tr.End) {
			errs.Add("filters.departureTimeRange.end", "end must be in HH:MM format with valid hours (00-23) and minutes (00-59)")
		}
	}

	if dr := r.Filters.DurationRange; dr != nil {
		if dr.MinMinutes != nil && *dr.MinMinutes < 0 {
			errs.Add("filters.durationRange.minMinutes", "minMinutes must be a non-negative number")
		}
		if dr.MaxMinutes != nil && *dr.MaxMinutes < 0 {
			errs.Add("filters.durationRange.maxMinutes", "maxMinutes must be a non-negative number")
		}
		if dr.MinMinutes != nil && dr.MaxMinutes != nil && *dr.MinMinutes > *dr.MaxMinutes {
			errs.Add("filters.durationRange", "minMinutes must be less than or equal to maxMinutes")
		}
	}
}

func (r *SearchOffersRequest) adults() int {
	if r.Adults == nil {
		return 1
	}
	return *r.Adults
}

// Validate validates the calendar query.
func (r *CalendarRequest) Validate() error {
	errs := &ValidationErrors{}
	if r.Origin == "" {
		errs.Add("origin", "origin is required")
	}
	if r.Destination == "" {
		errs.Add("destination", "destination is required")
	}
	if r.From == "" {
		errs.Add("from", "from is required")
	}
	if r.To == "" {
		errs.Add("to", "to is required")
	}
	if errs.HasErrors() {
		return errs
	}
	return nil
}

// isValidTimeFormat validates that a time string is in HH:MM format with valid values.
func isValidTimeFormat(timeStr string) bool {
	if !timePattern.MatchString(timeStr) {
		return false
	}
	_, err := time.Parse("15:04", timeStr)
	return err == nil
}
