package domain

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

// DateLayout is the ISO date format used for every date parameter.
const DateLayout = "2006-01-02"

// Search limits.
const (
	MaxPassengers    = 9
	MaxDepartureFlex = 3
	MaxTripDuration  = 30
	MaxResultsLimit  = 250
	DefaultMaxResult = 50
	DefaultCurrency  = "USD"
)

// SearchCriteria defines the parameters of an offer search after request parsing.
// Airport and date lists are already split; free-text airport forms are resolved
// by ParseAirportCodes before they reach this struct.
type SearchCriteria struct {
	// Origins are IATA codes of candidate departure airports
	Origins []string `json:"origins"`

	// Destinations are IATA codes of candidate arrival airports
	Destinations []string `json:"destinations"`

	// DepartureDates are candidate departure dates in YYYY-MM-DD format
	DepartureDates []string `json:"departureDates"`

	// ReturnDates are candidate return dates; empty for one-way unless TripDuration is set
	ReturnDates []string `json:"returnDates,omitempty"`

	Adults   int `json:"adults"`
	Children int `json:"children"`
	Infants  int `json:"infants"`

	// CabinClass is the requested cabin (default: economy)
	CabinClass CabinClass `json:"cabinClass"`

	// NonStop restricts results to direct flights
	NonStop bool `json:"nonStop"`

	// Currency is the ISO 4217 code prices are requested in (default: USD)
	Currency string `json:"currency"`

	// MaxResults caps the number of offers returned (default: 50)
	MaxResults int `json:"maxResults"`

	// DepartureFlex widens every departure date by ±N days
	DepartureFlex int `json:"departureFlex,omitempty"`

	// TripDuration derives the return date as departure + N nights when no return date is given
	TripDuration int `json:"tripDuration,omitempty"`

	// UseMultiDate allows more than one explicit departure or return date
	UseMultiDate bool `json:"useMultiDate,omitempty"`

	// IncludeSeparateTickets toggles the separate-ticket combiner; nil means automatic
	IncludeSeparateTickets *bool `json:"includeSeparateTickets,omitempty"`

	// ForceRefresh bypasses the cache lookup (results are still stored)
	ForceRefresh bool `json:"-"`

	// Filters are applied to the merged offer set
	Filters *FilterOptions `json:"filters,omitempty"`
}

// SubSearch is one route with one departure/return date pair: the unit a provider searches.
type SubSearch struct {
	Origin        string     `json:"origin"`
	Destination   string     `json:"destination"`
	DepartureDate string     `json:"departureDate"`
	ReturnDate    string     `json:"returnDate,omitempty"`
	Adults        int        `json:"adults"`
	Children      int        `json:"children"`
	Infants       int        `json:"infants"`
	CabinClass    CabinClass `json:"cabinClass"`
	NonStop       bool       `json:"nonStop"`
	Currency      string     `json:"currency"`
	MaxResults    int        `json:"maxResults"`
}

// airportCodeRegex matches valid IATA airport codes (3 uppercase letters).
var airportCodeRegex = regexp.MustCompile(`^[A-Z]{3}$`)

// embeddedCodeRegex finds a code in free-text forms such as "Miami (MIA)".
var embeddedCodeRegex = regexp.MustCompile(`\(([A-Za-z]{3})\)`)

// dateRegex matches dates in YYYY-MM-DD format.
var dateRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ExtractAirportCode normalizes one airport input to a 3-letter code.
// Accepts "jfk", "JFK" and free text like "New York (JFK)".
func ExtractAirportCode(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if m := embeddedCodeRegex.FindStringSubmatch(s); m != nil {
		return strings.ToUpper(m[1]), true
	}
	upper := strings.ToUpper(s)
	if airportCodeRegex.MatchString(upper) {
		return upper, true
	}
	return "", false
}

// ParseAirportCodes splits a comma-separated airport field into unique codes, keeping input order.
func ParseAirportCodes(field, raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, NewValidationError(field, "is required")
	}
	seen := make(map[string]bool)
	var codes []string
	for _, part := range strings.Split(raw, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		code, ok := ExtractAirportCode(part)
		if !ok {
			return nil, NewValidationError(field, fmt.Sprintf("must be a valid 3-letter IATA code, got %q", strings.TrimSpace(part)))
		}
		if !seen[code] {
			seen[code] = true
			codes = append(codes, code)
		}
	}
	if len(codes) == 0 {
		return nil, NewValidationError(field, "is required")
	}
	return codes, nil
}

// ParseDateList splits a comma-separated date field. More than one date requires multi.
func ParseDateList(field, raw string, multi bool) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var dates []string
	for _, part := range strings.Split(raw, ",") {
		d := strings.TrimSpace(part)
		if d == "" {
			continue
		}
		if err := validateDate(field, d); err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	if len(dates) > 1 && !multi {
		return nil, NewValidationError(field, "multiple dates require useMultiDate")
	}
	return dates, nil
}

func validateDate(field, d string) error {
	if !dateRegex.MatchString(d) {
		return NewValidationError(field, fmt.Sprintf("must be in YYYY-MM-DD format, got %q", d))
	}
	if _, err := time.Parse(DateLayout, d); err != nil {
		return NewValidationError(field, fmt.Sprintf("is not a valid date: %s", d))
	}
	return nil
}

// Validate checks the criteria. Every failure wraps ErrInvalidRequest.
func (s *SearchCriteria) Validate() error {
	if len(s.Origins) == 0 {
		return NewValidationError("origin", "is required")
	}
	for _, code := range s.Origins {
		if !airportCodeRegex.MatchString(code) {
			return NewValidationError("origin", fmt.Sprintf("must be a valid 3-letter IATA code, got %q", code))
		}
	}
	if len(s.Destinations) == 0 {
		return NewValidationError("destination", "is required")
	}
	for _, code := range s.Destinations {
		if !airportCodeRegex.MatchString(code) {
			return NewValidationError("destination", fmt.Sprintf("must be a valid 3-letter IATA code, got %q", code))
		}
	}
	if len(s.routes()) == 0 {
		return NewValidationError("destination", "origin and destination must be different")
	}

	if len(s.DepartureDates) == 0 {
		return NewValidationError("departureDate", "is required")
	}
	for _, d := range s.DepartureDates {
		if err := validateDate("departureDate", d); err != nil {
			return err
		}
	}
	for _, d := range s.ReturnDates {
		if err := validateDate("returnDate", d); err != nil {
			return err
		}
	}
	if !s.UseMultiDate && (len(s.DepartureDates) > 1 || len(s.ReturnDates) > 1) {
		return NewValidationError("departureDate", "multiple dates require useMultiDate")
	}

	if s.Adults < 1 {
		return NewValidationError("adults", "must be at least 1")
	}
	if s.Adults > MaxPassengers {
		return NewValidationError("adults", fmt.Sprintf("cannot exceed %d", MaxPassengers))
	}
	if s.Children < 0 || s.Infants < 0 {
		return NewValidationError("children", "passenger counts cannot be negative")
	}
	if s.Adults+s.Children > MaxPassengers {
		return NewValidationError("children", fmt.Sprintf("adults and children cannot exceed %d seats", MaxPassengers))
	}
	if s.Infants > s.Adults {
		return NewValidationError("infants", "cannot exceed the number of adults")
	}

	if s.CabinClass != "" && !s.CabinClass.IsValid() {
		return NewValidationError("travelClass", fmt.Sprintf("must be one of: economy, premium_economy, business, first; got %q", s.CabinClass))
	}
	if s.DepartureFlex < 0 || s.DepartureFlex > MaxDepartureFlex {
		return NewValidationError("departureFlex", fmt.Sprintf("must be between 0 and %d", MaxDepartureFlex))
	}
	if s.TripDuration < 0 || s.TripDuration > MaxTripDuration {
		return NewValidationError("tripDuration", fmt.Sprintf("must be between 0 and %d", MaxTripDuration))
	}
	if s.MaxResults < 0 || s.MaxResults > MaxResultsLimit {
		return NewValidationError("max", fmt.Sprintf("must be between 1 and %d", MaxResultsLimit))
	}
	if s.Filters != nil && !s.Filters.DurationRange.IsValid() {
		return NewValidationError("filters", "invalid duration range")
	}

	return nil
}

// SetDefaults applies default values to empty optional fields.
func (s *SearchCriteria) SetDefaults() {
	if s.Adults == 0 {
		s.Adults = 1
	}
	if s.CabinClass == "" {
		s.CabinClass = CabinEconomy
	}
	if s.Currency == "" {
		s.Currency = DefaultCurrency
	}
	s.Currency = strings.ToUpper(s.Currency)
	if s.MaxResults == 0 {
		s.MaxResults = DefaultMaxResult
	}
}

// PassengerCount returns the total number of travelers including infants.
func (s *SearchCriteria) PassengerCount() int {
	return s.Adults + s.Children + s.Infants
}

// IsRoundTrip reports whether any return leg is requested.
func (s *SearchCriteria) IsRoundTrip() bool {
	return len(s.ReturnDates) > 0 || s.TripDuration > 0
}

// SeparateTicketsEnabled resolves the combiner toggle against the automatic default.
func (s *SearchCriteria) SeparateTicketsEnabled(autoDefault bool) bool {
	if s.IncludeSeparateTickets == nil {
		return autoDefault
	}
	return *s.IncludeSeparateTickets
}

// EarliestDeparture returns the earliest requested departure date.
func (s *SearchCriteria) EarliestDeparture() time.Time {
	var earliest time.Time
	for _, d := range s.departureCandidates() {
		t, err := time.Parse(DateLayout, d)
		if err != nil {
			continue
		}
		if earliest.IsZero() || t.Before(earliest) {
			earliest = t
		}
	}
	return earliest
}

type route struct{ origin, destination string }

func (s *SearchCriteria) routes() []route {
	var rs []route
	for _, o := range s.Origins {
		for _, d := range s.Destinations {
			if o != d {
				rs = append(rs, route{o, d})
			}
		}
	}
	return rs
}

// departureCandidates widens the explicit dates by DepartureFlex, sorted and unique.
func (s *SearchCriteria) departureCandidates() []string {
	set := make(map[string]bool)
	for _, d := range s.DepartureDates {
		base, err := time.Parse(DateLayout, d)
		if err != nil {
			continue
		}
		for off := -s.DepartureFlex; off <= s.DepartureFlex; off++ {
			set[base.AddDate(0, 0, off).Format(DateLayout)] = true
		}
	}
	dates := make([]string, 0, len(set))
	for d := range set {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

// datePairs builds departure/return pairs. Explicit return dates are crossed with
// every departure; TripDuration pairs each departure with its derived return.
func (s *SearchCriteria) datePairs() [][2]string {
	deps := s.departureCandidates()
	var pairs [][2]string
	for _, dep := range deps {
		switch {
		case len(s.ReturnDates) > 0:
			for _, ret := range s.ReturnDates {
				if ret >= dep {
					pairs = append(pairs, [2]string{dep, ret})
				}
			}
		case s.TripDuration > 0:
			t, _ := time.Parse(DateLayout, dep)
			pairs = append(pairs, [2]string{dep, t.AddDate(0, 0, s.TripDuration).Format(DateLayout)})
		default:
			pairs = append(pairs, [2]string{dep, ""})
		}
	}
	return pairs
}

// Expand builds the cross-product of routes and date pairs.
// Returns a validation error when the product is empty or exceeds limit.
func (s *SearchCriteria) Expand(limit int) ([]SubSearch, error) {
	routes := s.routes()
	pairs := s.datePairs()
	if len(pairs) == 0 {
		return nil, NewValidationError("returnDate", "must not be before the departure date")
	}
	if limit > 0 && len(routes)*len(pairs) > limit {
		return nil, NewValidationError("departureDate",
			fmt.Sprintf("search expands to %d route/date combinations, limit is %d", len(routes)*len(pairs), limit))
	}

	subs := make([]SubSearch, 0, len(routes)*len(pairs))
	for _, r := range routes {
		for _, p := range pairs {
			subs = append(subs, SubSearch{
				Origin:        r.origin,
				Destination:   r.destination,
				DepartureDate: p[0],
				ReturnDate:    p[1],
				Adults:        s.Adults,
				Children:      s.Children,
				Infants:       s.Infants,
				CabinClass:    s.CabinClass,
				NonStop:       s.NonStop,
				Currency:      s.Currency,
				MaxResults:    s.MaxResults,
			})
		}
	}
	return subs, nil
}

// Key is the canonical identity of the sub-search, used for coalescing and caching.
func (s SubSearch) Key() string {
	return fmt.Sprintf("%s-%s:%s:%s:%d-%d-%d:%s:%t:%s:%d",
		s.Origin, s.Destination, s.DepartureDate, s.ReturnDate,
		s.Adults, s.Children, s.Infants, s.CabinClass, s.NonStop, s.Currency, s.MaxResults)
}

// IsRoundTrip reports whether the sub-search has a return date.
func (s SubSearch) IsRoundTrip() bool {
	return s.ReturnDate != ""
}

// PassengerCount returns the total number of travelers including infants.
func (s SubSearch) PassengerCount() int {
	return s.Adults + s.Children + s.Infants
}

// OutboundLeg returns the one-way search for the outbound direction.
func (s SubSearch) OutboundLeg() SubSearch {
	leg := s
	leg.ReturnDate = ""
	return leg
}

// InboundLeg returns the one-way search for the return direction.
func (s SubSearch) InboundLeg() SubSearch {
	leg := s
	leg.Origin, leg.Destination = s.Destination, s.Origin
	leg.DepartureDate, leg.ReturnDate = s.ReturnDate, ""
	return leg
}
