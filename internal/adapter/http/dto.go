package http

import (
	"time"

	"github.com/flight-search/offer-aggregation-engine/internal/domain"
	"github.com/flight-search/offer-aggregation-engine/internal/usecase"
)

// dateTimeLayout renders local airport times with their offset.
const dateTimeLayout = "2006-01-02T15:04:05-07:00"

// SearchResponseDTO is the customer-facing search response.
// Net fares, markup and settlement routing never appear in it.
type SearchResponseDTO struct {
	Offers           []OfferDTO      `json:"offers"`
	Metadata         MetadataDTO     `json:"metadata"`
	MixedSearch      *MixedSearchDTO `json:"mixedSearch,omitempty"`
	RoutingSessionID string          `json:"routingSessionId"`
	Diagnostic       string          `json:"diagnostic,omitempty"`
}

// MetadataDTO contains metadata about the search execution.
type MetadataDTO struct {
	TotalResults       int             `json:"totalResults" example:"15"`
	SearchParams       SearchParamsDTO `json:"searchParams"`
	SubSearches        int             `json:"subSearches" example:"1"`
	ProvidersQueried   []string        `json:"providersQueried" example:"amadeus,duffel"`
	ProvidersSucceeded []string        `json:"providersSucceeded" example:"amadeus,duffel"`
	ProvidersFailed    []string        `json:"providersFailed"`
	SearchTimeMs       int64           `json:"searchTimeMs" example:"840"`
	CacheHit           bool            `json:"cacheHit"`
	CachedAt           string          `json:"cachedAt,omitempty"`
}

// SearchParamsDTO echoes the normalized search parameters.
type SearchParamsDTO struct {
	Origins        []string `json:"origins"`
	Destinations   []string `json:"destinations"`
	DepartureDates []string `json:"departureDates"`
	ReturnDates    []string `json:"returnDates,omitempty"`
	Adults         int      `json:"adults"`
	Children       int      `json:"children"`
	Infants        int      `json:"infants"`
	TravelClass    string   `json:"travelClass"`
	NonStop        bool     `json:"nonStop"`
	CurrencyCode   string   `json:"currencyCode"`
	Max            int      `json:"max"`
	SortBy         string   `json:"sortBy"`
	DepartureFlex  int      `json:"departureFlex,omitempty"`
	TripDuration   int      `json:"tripDuration,omitempty"`
}

// MixedSearchDTO summarizes the separate-ticket search.
type MixedSearchDTO struct {
	Executed          bool    `json:"executed"`
	Reason            string  `json:"reason" example:"strong_savings_signal"`
	Confidence        float64 `json:"confidence"`
	CombinationsAdded int     `json:"combinationsAdded"`
	CheapestRoundTrip float64 `json:"cheapestRoundTrip,omitempty"`
	CheapestMixed     float64 `json:"cheapestMixed,omitempty"`
	BestSavings       float64 `json:"bestSavings,omitempty"`
}

// OfferDTO is one bookable offer.
type OfferDTO struct {
	ID                string              `json:"id"`
	Source            string              `json:"source" example:"amadeus"`
	ValidatingCarrier string              `json:"validatingCarrier" example:"AA"`
	Itineraries       []ItineraryDTO      `json:"itineraries"`
	Price             PriceDTO            `json:"price"`
	PricePerPassenger float64             `json:"pricePerPassenger"`
	PassengerPrices   []PassengerPriceDTO `json:"passengerPrices,omitempty"`
	BrandName         string              `json:"brandName,omitempty" example:"MAIN CABIN"`
	Conditions        *ConditionsDTO      `json:"conditions,omitempty"`
	FareVariants      []FareVariantDTO    `json:"fareVariants,omitempty"`
	SeatsAvailable    *int                `json:"seatsAvailable,omitempty"`
	SeparateTickets   *SeparateTicketsDTO `json:"separateTickets,omitempty"`
	Score             float64             `json:"score"`
	DealTier          string              `json:"dealTier,omitempty" example:"great"`
	Badges            []string            `json:"badges"`
}

// ItineraryDTO is one direction of travel.
type ItineraryDTO struct {
	Duration    DurationDTO     `json:"duration"`
	Stops       int             `json:"stops"`
	Segments    []SegmentDTO    `json:"segments"`
	Connections []ConnectionDTO `json:"connections,omitempty"`
}

// SegmentDTO is a single flight.
type SegmentDTO struct {
	FlightNumber     string         `json:"flightNumber" example:"AA1234"`
	MarketingCarrier string         `json:"marketingCarrier" example:"AA"`
	OperatingCarrier string         `json:"operatingCarrier,omitempty"`
	Departure        FlightPointDTO `json:"departure"`
	Arrival          FlightPointDTO `json:"arrival"`
	Cabin            string         `json:"cabin" example:"economy"`
	Aircraft         string         `json:"aircraft,omitempty"`
	DurationMinutes  int            `json:"durationMinutes"`
}

// FlightPointDTO represents a departure or arrival point.
type FlightPointDTO struct {
	Airport   string `json:"airport" example:"JFK"`
	DateTime  string `json:"datetime" example:"2026-12-01T08:00:00-05:00"`
	Timestamp int64  `json:"timestamp"`
}

// ConnectionDTO is the ground time at a connecting airport.
type ConnectionDTO struct {
	Airport string `json:"airport"`
	Minutes int    `json:"minutes"`
	Quality string `json:"quality" example:"comfortable"`
}

// DurationDTO represents a duration.
type DurationDTO struct {
	TotalMinutes int    `json:"totalMinutes"`
	Formatted    string `json:"formatted" example:"3h 5m"`
}

// PriceDTO represents the customer price.
type PriceDTO struct {
	Base     float64 `json:"base"`
	Taxes    float64 `json:"taxes"`
	Total    float64 `json:"total"`
	Currency string  `json:"currency" example:"USD"`
}

// PassengerPriceDTO is the per-traveler price of one passenger type.
type PassengerPriceDTO struct {
	Type  string   `json:"type" example:"adult"`
	Count int      `json:"count"`
	Price PriceDTO `json:"price"`
}

// ConditionsDTO reports change and refund rules supplied by the provider.
type ConditionsDTO struct {
	Changeable    bool    `json:"changeable"`
	ChangePenalty float64 `json:"changePenalty,omitempty"`
	Refundable    bool    `json:"refundable"`
	RefundPenalty float64 `json:"refundPenalty,omitempty"`
}

// FareVariantDTO is one fare brand of the same flights.
type FareVariantDTO struct {
	OfferID      string   `json:"offerId"`
	BrandName    string   `json:"brandName,omitempty"`
	Tier         string   `json:"tier" example:"standard"`
	Price        PriceDTO `json:"price"`
	Changeable   bool     `json:"changeable"`
	ChangeFee    bool     `json:"changeFee"`
	Refundable   bool     `json:"refundable"`
	Features     []string `json:"features,omitempty"`
	Restrictions []string `json:"restrictions,omitempty"`
}

// SeparateTicketsDTO describes a combination of two one-way tickets.
type SeparateTicketsDTO struct {
	OutboundOfferID string  `json:"outboundOfferId"`
	InboundOfferID  string  `json:"inboundOfferId"`
	OutboundCarrier string  `json:"outboundCarrier"`
	InboundCarrier  string  `json:"inboundCarrier"`
	RoundTripFloor  float64 `json:"roundTripFloor"`
	Savings         float64 `json:"savings"`
	SavingsPercent  float64 `json:"savingsPercent"`
}

// CalendarResponseDTO lists the lowest observed price per date of a route.
type CalendarResponseDTO struct {
	Origin      string             `json:"origin" example:"JFK"`
	Destination string             `json:"destination" example:"MIA"`
	Prices      []CalendarPriceDTO `json:"prices"`
}

// CalendarPriceDTO is the lowest price seen for one date.
type CalendarPriceDTO struct {
	Date       string  `json:"date" example:"2026-12-01"`
	Price      float64 `json:"price"`
	Currency   string  `json:"currency"`
	OfferID    string  `json:"offerId"`
	ObservedAt string  `json:"observedAt"`
}

// ToSearchResponseDTO converts a domain SearchResult to a SearchResponseDTO.
func ToSearchResponseDTO(res *domain.SearchResult, opts usecase.SearchOptions) *SearchResponseDTO {
	if res == nil {
		return nil
	}

	crit := res.Metadata.Criteria
	dto := &SearchResponseDTO{
		Offers: make([]OfferDTO, len(res.Offers)),
		Metadata: MetadataDTO{
			TotalResults: res.Metadata.TotalResults,
			SearchParams: SearchParamsDTO{
				Origins:        crit.Origins,
				Destinations:   crit.Destinations,
				DepartureDates: crit.DepartureDates,
				ReturnDates:    crit.ReturnDates,
				Adults:         crit.Adults,
				Children:       crit.Children,
				Infants:        crit.Infants,
				TravelClass:    string(crit.CabinClass),
				NonStop:        crit.NonStop,
				CurrencyCode:   crit.Currency,
				Max:            crit.MaxResults,
				SortBy:         string(opts.SortBy),
				DepartureFlex:  crit.DepartureFlex,
				TripDuration:   crit.TripDuration,
			},
			SubSearches:        res.Metadata.SubSearches,
			ProvidersQueried:   nonNil(res.Metadata.ProvidersQueried),
			ProvidersSucceeded: nonNil(res.Metadata.ProvidersSucceeded),
			ProvidersFailed:    nonNil(res.Metadata.ProvidersFailed),
			SearchTimeMs:       res.Metadata.SearchTimeMs,
			CacheHit:           res.Metadata.CacheHit,
		},
		RoutingSessionID: res.RoutingSessionID,
		Diagnostic:       res.Diagnostic,
	}
	if !res.Metadata.CachedAt.IsZero() {
		dto.Metadata.CachedAt = res.Metadata.CachedAt.UTC().Format(time.RFC3339)
	}
	if m := res.Mixed; m != nil {
		dto.MixedSearch = &MixedSearchDTO{
			Executed:          m.Executed,
			Reason:            m.Reason,
			Confidence:        m.Confidence,
			CombinationsAdded: m.CombinationsAdded,
			CheapestRoundTrip: m.CheapestRoundTrip,
			CheapestMixed:     m.CheapestMixed,
			BestSavings:       m.BestSavings,
		}
	}

	for i := range res.Offers {
		dto.Offers[i] = ToOfferDTO(&res.Offers[i])
	}
	return dto
}

// ToOfferDTO converts a domain Offer to an OfferDTO.
func ToOfferDTO(o *domain.Offer) OfferDTO {
	dto := OfferDTO{
		ID:                o.ID,
		Source:            o.Source,
		ValidatingCarrier: o.Carrier(),
		Itineraries:       make([]ItineraryDTO, len(o.Itineraries)),
		Price:             toPriceDTO(o.Price),
		PricePerPassenger: o.PricePerPassenger,
		BrandName:         o.BrandName,
		Score:             o.Score,
		DealTier:          o.DealTier,
		Badges:            nonNil(o.Badges),
	}

	for i, it := range o.Itineraries {
		dto.Itineraries[i] = toItineraryDTO(it)
	}
	for _, pp := range o.PassengerPrices {
		dto.PassengerPrices = append(dto.PassengerPrices, PassengerPriceDTO{
			Type:  string(pp.Type),
			Count: pp.Count,
			Price: toPriceDTO(pp.Price),
		})
	}
	if c := o.Conditions; c != nil {
		dto.Conditions = &ConditionsDTO{
			Changeable:    c.Changeable,
			ChangePenalty: c.ChangePenalty,
			Refundable:    c.Refundable,
			RefundPenalty: c.RefundPenalty,
		}
	}
	for _, v := range o.FareVariants {
		dto.FareVariants = append(dto.FareVariants, FareVariantDTO{
			OfferID:      v.OfferID,
			BrandName:    v.BrandName,
			Tier:         string(v.Tier),
			Price:        toPriceDTO(v.Price),
			Changeable:   v.Policy.Changeable,
			ChangeFee:    v.Policy.ChangeFee,
			Refundable:   v.Policy.Refundable,
			Features:     v.Features,
			Restrictions: v.Restrictions,
		})
	}
	if o.SeatsAvailable > 0 {
		seats := o.SeatsAvailable
		dto.SeatsAvailable = &seats
	}
	if m := o.Mixed; m != nil {
		dto.SeparateTickets = &SeparateTicketsDTO{
			OutboundOfferID: m.OutboundOfferID,
			InboundOfferID:  m.InboundOfferID,
			OutboundCarrier: m.OutboundCarrier,
			InboundCarrier:  m.InboundCarrier,
			RoundTripFloor:  m.RoundTripFloor,
			Savings:         m.Savings,
			SavingsPercent:  m.SavingsPercent,
		}
	}
	return dto
}

func toItineraryDTO(it domain.Itinerary) ItineraryDTO {
	dto := ItineraryDTO{
		Duration: DurationDTO{
			TotalMinutes: it.Duration.TotalMinutes,
			Formatted:    it.Duration.Formatted,
		},
		Stops:    it.Stops(),
		Segments: make([]SegmentDTO, len(it.Segments)),
	}
	for i, s := range it.Segments {
		dto.Segments[i] = SegmentDTO{
			FlightNumber:     s.MarketingCarrier + s.FlightNumber,
			MarketingCarrier: s.MarketingCarrier,
			OperatingCarrier: s.OperatingCarrier,
			Departure:        toFlightPointDTO(s.Origin, s.DepartureAt),
			Arrival:          toFlightPointDTO(s.Destination, s.ArrivalAt),
			Cabin:            string(s.Cabin),
			Aircraft:         s.Aircraft,
			DurationMinutes:  s.DurationMinutes,
		}
	}
	for _, c := range it.Connections(usecase.DefaultMinConnection) {
		dto.Connections = append(dto.Connections, ConnectionDTO{
			Airport: c.Airport,
			Minutes: c.Minutes,
			Quality: string(c.Quality),
		})
	}
	return dto
}

func toFlightPointDTO(airport string, at time.Time) FlightPointDTO {
	return FlightPointDTO{
		Airport:   airport,
		DateTime:  at.Format(dateTimeLayout),
		Timestamp: at.Unix(),
	}
}

func toPriceDTO(p domain.Price) PriceDTO {
	return PriceDTO{
		Base:     p.Base,
		Taxes:    p.Taxes,
		Total:    p.Total,
		Currency: p.Currency,
	}
}

// ToCalendarResponseDTO converts stored lowest prices to a CalendarResponseDTO.
func ToCalendarResponseDTO(origin, destination string, prices []domain.LowestPrice) *CalendarResponseDTO {
	dto := &CalendarResponseDTO{
		Origin:      origin,
		Destination: destination,
		Prices:      make([]CalendarPriceDTO, len(prices)),
	}
	for i, p := range prices {
		dto.Prices[i] = CalendarPriceDTO{
			Date:       p.Date,
			Price:      p.Price,
			Currency:   p.Currency,
			OfferID:    p.OfferID,
			ObservedAt: p.ObservedAt.UTC().Format(time.RFC3339),
		}
	}
	return dto
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
