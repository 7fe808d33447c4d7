// Package domain contains the core entities of the offer aggregation engine.
// Entities are provider-agnostic: adapters convert every upstream shape into them
// at the boundary, and pipeline stages enrich them copy-on-write.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// CabinClass is the normalized cabin vocabulary shared by all providers.
type CabinClass string

const (
	CabinEconomy        CabinClass = "economy"
	CabinPremiumEconomy CabinClass = "premium_economy"
	CabinBusiness       CabinClass = "business"
	CabinFirst          CabinClass = "first"
)

// IsValid reports whether c is part of the cabin vocabulary.
func (c CabinClass) IsValid() bool {
	switch c {
	case CabinEconomy, CabinPremiumEconomy, CabinBusiness, CabinFirst:
		return true
	}
	return false
}

// PassengerType identifies the age band of a traveler.
type PassengerType string

const (
	PassengerAdult  PassengerType = "adult"
	PassengerChild  PassengerType = "child"
	PassengerInfant PassengerType = "infant"
)

// Offer is one priced itinerary returned by a provider, or synthesized by the combiner.
type Offer struct {
	// ID is the provider's opaque offer identifier
	ID string `json:"id"`

	// Source is the provider tag ("amadeus", "duffel", "mixed")
	Source string `json:"source"`

	// Itineraries holds the outbound and, for round trips, the inbound direction
	Itineraries []Itinerary `json:"itineraries"`

	// Price is the total for all passengers. Once priced, Total == Net + Markup.Amount.
	Price Price `json:"price"`

	// PassengerPrices is the per-passenger breakdown by passenger type
	PassengerPrices []PassengerPrice `json:"passengerPrices,omitempty"`

	// PassengerCount is the number of seated and lap passengers the price covers
	PassengerCount int `json:"passengerCount"`

	// PricePerPassenger is Price.Total divided evenly across PassengerCount
	PricePerPassenger float64 `json:"pricePerPassenger"`

	// Net is the provider's pre-markup total; authoritative for commission math
	Net float64 `json:"-"`

	// Markup records how the customer price was derived from Net (nil until priced)
	Markup *MarkupInfo `json:"-"`

	// ValidatingCarrier is the airline that issues the ticket
	ValidatingCarrier string `json:"validatingCarrier"`

	// CommissionEmbedded marks fares settled through a commission-paying consolidator
	CommissionEmbedded bool `json:"-"`

	// BrandName is the provider's fare brand (e.g., "Basic Economy", "Main Cabin Flex")
	BrandName string `json:"brandName,omitempty"`

	// FareBasis is the fare basis code of the first segment
	FareBasis string `json:"fareBasis,omitempty"`

	// Conditions are explicit change/refund flags supplied by the provider, if any
	Conditions *FareConditions `json:"conditions,omitempty"`

	// FareVariants lists every price point of the same physical flight, cheapest first
	FareVariants []FareVariant `json:"fareVariants,omitempty"`

	// SeatsAvailable is the bookable seat count reported by the provider (0 = unknown)
	SeatsAvailable int `json:"seatsAvailable,omitempty"`

	// Mixed is set on synthetic separate-ticket offers
	Mixed *MixedDetails `json:"mixed,omitempty"`

	// Score is the composite deal score (0-100, higher is better)
	Score float64 `json:"score"`

	// DealTier classifies Score ("excellent", "great", "good", "fair")
	DealTier string `json:"dealTier,omitempty"`

	// Badges are persuasion labels derived from standing within the result set
	Badges []string `json:"badges,omitempty"`
}

// Price is a monetary breakdown in a single currency.
type Price struct {
	Base     float64 `json:"base"`
	Taxes    float64 `json:"taxes"`
	Total    float64 `json:"total"`
	Currency string  `json:"currency"`
}

// PassengerPrice is the price of one passenger of the given type.
type PassengerPrice struct {
	Type  PassengerType `json:"type"`
	Count int           `json:"count"`
	Price Price         `json:"price"`
}

// MarkupInfo is the result of applying a markup policy to a net price.
type MarkupInfo struct {
	Net        float64 `json:"net"`
	Customer   float64 `json:"customer"`
	Amount     float64 `json:"amount"`
	Percentage float64 `json:"percentage"`
}

// FareConditions carries provider-supplied change and refund rules.
type FareConditions struct {
	Changeable    bool    `json:"changeable"`
	ChangePenalty float64 `json:"changePenalty,omitempty"`
	Refundable    bool    `json:"refundable"`
	RefundPenalty float64 `json:"refundPenalty,omitempty"`
}

// MixedDetails describes how a separate-ticket offer was assembled.
type MixedDetails struct {
	OutboundOfferID string  `json:"outboundOfferId"`
	InboundOfferID  string  `json:"inboundOfferId"`
	OutboundCarrier string  `json:"outboundCarrier"`
	InboundCarrier  string  `json:"inboundCarrier"`
	RoundTripFloor  float64 `json:"roundTripFloor"`
	Savings         float64 `json:"savings"`
	SavingsPercent  float64 `json:"savingsPercent"`
}

// Segment is one flown leg.
type Segment struct {
	// MarketingCarrier is the IATA code of the selling airline
	MarketingCarrier string `json:"marketingCarrier"`

	// FlightNumber is the marketing flight number without carrier prefix (e.g., "1234")
	FlightNumber string `json:"flightNumber"`

	// OperatingCarrier is the airline flying the aircraft (equals MarketingCarrier unless codeshare)
	OperatingCarrier string `json:"operatingCarrier"`

	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	DepartureAt time.Time `json:"departureAt"`
	ArrivalAt   time.Time `json:"arrivalAt"`

	Cabin        CabinClass `json:"cabin"`
	BookingClass string     `json:"bookingClass,omitempty"`
	FareBasis    string     `json:"fareBasis,omitempty"`
	Aircraft     string     `json:"aircraft,omitempty"`

	DurationMinutes int `json:"durationMinutes"`
}

// Itinerary is the ordered list of segments for one direction of travel.
type Itinerary struct {
	Segments []Segment    `json:"segments"`
	Duration DurationInfo `json:"duration"`
}

// DurationInfo contains a duration in minutes and its display form.
type DurationInfo struct {
	// TotalMinutes is the elapsed time in minutes
	TotalMinutes int `json:"totalMinutes"`

	// Formatted is a human-readable duration string (e.g., "2h 30m")
	Formatted string `json:"formatted"`
}

// NewDurationInfo creates a DurationInfo from total minutes and formats it.
func NewDurationInfo(totalMinutes int) DurationInfo {
	hours, mins := totalMinutes/60, totalMinutes%60

	var formatted string
	switch {
	case hours > 0 && mins > 0:
		formatted = fmt.Sprintf("%dh %dm", hours, mins)
	case hours > 0:
		formatted = fmt.Sprintf("%dh", hours)
	default:
		formatted = fmt.Sprintf("%dm", mins)
	}

	return DurationInfo{TotalMinutes: totalMinutes, Formatted: formatted}
}

// Stops returns the number of intermediate connections.
func (it Itinerary) Stops() int {
	if len(it.Segments) == 0 {
		return 0
	}
	return len(it.Segments) - 1
}

// Origin returns the first departure airport.
func (it Itinerary) Origin() string {
	if len(it.Segments) == 0 {
		return ""
	}
	return it.Segments[0].Origin
}

// Destination returns the final arrival airport.
func (it Itinerary) Destination() string {
	if len(it.Segments) == 0 {
		return ""
	}
	return it.Segments[len(it.Segments)-1].Destination
}

// Departure returns the scheduled departure of the first segment.
func (it Itinerary) Departure() time.Time {
	if len(it.Segments) == 0 {
		return time.Time{}
	}
	return it.Segments[0].DepartureAt
}

// Arrival returns the scheduled arrival of the last segment.
func (it Itinerary) Arrival() time.Time {
	if len(it.Segments) == 0 {
		return time.Time{}
	}
	return it.Segments[len(it.Segments)-1].ArrivalAt
}

// Carrier returns the marketing carrier of the first segment.
func (it Itinerary) Carrier() string {
	if len(it.Segments) == 0 {
		return ""
	}
	return it.Segments[0].MarketingCarrier
}

// ConnectionQuality classifies the ground time between two segments.
type ConnectionQuality string

const (
	ConnectionInvalid     ConnectionQuality = "invalid"
	ConnectionTight       ConnectionQuality = "tight"
	ConnectionComfortable ConnectionQuality = "comfortable"
	ConnectionLong        ConnectionQuality = "long"
	ConnectionVeryLong    ConnectionQuality = "very_long"
)

// Layover thresholds in minutes.
const (
	layoverShort       = 90
	layoverComfortable = 180
	layoverLong        = 240
)

// Connection is the ground time at one connecting airport.
type Connection struct {
	Airport string            `json:"airport"`
	Minutes int               `json:"minutes"`
	Quality ConnectionQuality `json:"quality"`
}

// ClassifyConnection maps a layover to its quality given the minimum connection time.
func ClassifyConnection(layover, minConnection time.Duration) ConnectionQuality {
	minutes := int(layover.Minutes())
	switch {
	case layover < minConnection:
		return ConnectionInvalid
	case minutes < layoverShort:
		return ConnectionTight
	case minutes < layoverComfortable:
		return ConnectionComfortable
	case minutes < layoverLong:
		return ConnectionLong
	default:
		return ConnectionVeryLong
	}
}

// Connections lists the layovers of the itinerary in order.
func (it Itinerary) Connections(minConnection time.Duration) []Connection {
	if len(it.Segments) < 2 {
		return nil
	}
	conns := make([]Connection, 0, len(it.Segments)-1)
	for i := 0; i < len(it.Segments)-1; i++ {
		layover := it.Segments[i+1].DepartureAt.Sub(it.Segments[i].ArrivalAt)
		conns = append(conns, Connection{
			Airport: it.Segments[i].Destination,
			Minutes: int(layover.Minutes()),
			Quality: ClassifyConnection(layover, minConnection),
		})
	}
	return conns
}

// Valid reports whether no segment departs before the previous one arrives plus minConnection.
func (it Itinerary) Valid(minConnection time.Duration) bool {
	for _, c := range it.Connections(minConnection) {
		if c.Quality == ConnectionInvalid {
			return false
		}
	}
	return len(it.Segments) > 0
}

// TotalDuration returns the summed elapsed minutes across all itineraries.
func (o *Offer) TotalDuration() int {
	total := 0
	for _, it := range o.Itineraries {
		total += it.Duration.TotalMinutes
	}
	return total
}

// TotalStops returns the summed connection count across all itineraries.
func (o *Offer) TotalStops() int {
	stops := 0
	for _, it := range o.Itineraries {
		stops += it.Stops()
	}
	return stops
}

// IsDirect reports whether every direction is non-stop.
func (o *Offer) IsDirect() bool {
	for _, it := range o.Itineraries {
		if it.Stops() > 0 {
			return false
		}
	}
	return len(o.Itineraries) > 0
}

// IsRoundTrip reports whether the offer covers both directions.
func (o *Offer) IsRoundTrip() bool {
	return len(o.Itineraries) == 2
}

// Cabin returns the cabin of the first segment, defaulting to economy.
func (o *Offer) Cabin() CabinClass {
	if len(o.Itineraries) == 0 || len(o.Itineraries[0].Segments) == 0 {
		return CabinEconomy
	}
	if c := o.Itineraries[0].Segments[0].Cabin; c != "" {
		return c
	}
	return CabinEconomy
}

// Carrier returns the validating carrier, falling back to the first marketing carrier.
func (o *Offer) Carrier() string {
	if o.ValidatingCarrier != "" {
		return o.ValidatingCarrier
	}
	if len(o.Itineraries) == 0 {
		return ""
	}
	return o.Itineraries[0].Carrier()
}

// Signature identifies the physical flight: ordered carrier, flight number and
// departure time of every segment across all itineraries.
func (o *Offer) Signature() string {
	var b strings.Builder
	for i, it := range o.Itineraries {
		if i > 0 {
			b.WriteString("/")
		}
		for j, s := range it.Segments {
			if j > 0 {
				b.WriteString("|")
			}
			b.WriteString(s.MarketingCarrier)
			b.WriteString(s.FlightNumber)
			b.WriteString("@")
			b.WriteString(s.DepartureAt.UTC().Format(time.RFC3339))
		}
	}
	return b.String()
}

// Clone returns a copy that can be enriched without affecting the receiver.
func (o *Offer) Clone() Offer {
	c := *o
	c.Itineraries = make([]Itinerary, len(o.Itineraries))
	for i, it := range o.Itineraries {
		c.Itineraries[i] = Itinerary{
			Segments: append([]Segment(nil), it.Segments...),
			Duration: it.Duration,
		}
	}
	c.PassengerPrices = append([]PassengerPrice(nil), o.PassengerPrices...)
	c.FareVariants = append([]FareVariant(nil), o.FareVariants...)
	c.Badges = append([]string(nil), o.Badges...)
	if o.Markup != nil {
		m := *o.Markup
		c.Markup = &m
	}
	if o.Conditions != nil {
		cond := *o.Conditions
		c.Conditions = &cond
	}
	if o.Mixed != nil {
		mx := *o.Mixed
		c.Mixed = &mx
	}
	return c
}
