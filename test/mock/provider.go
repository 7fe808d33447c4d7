// Package mock provides test doubles for the offer aggregation service.
// These mocks are designed for integration testing where we need
// configurable behavior (delays, errors, per-leg responses).
package mock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/flight-search/offer-aggregation-engine/internal/domain"
)

// Provider is a configurable implementation of domain.OfferProvider.
// Round-trip searches return the round-trip offers; one-way searches return
// the offers registered for the leg's origin, falling back to the default set.
type Provider struct {
	name       string
	offers     []domain.Offer
	roundTrips []domain.Offer
	legs       map[string][]domain.Offer
	err        error
	delay      time.Duration

	mu       sync.Mutex
	searches []domain.SubSearch
}

// NewProvider creates a new mock provider with the given name.
func NewProvider(name string) *Provider {
	return &Provider{
		name: name,
		legs: make(map[string][]domain.Offer),
	}
}

// WithOffers sets the offers returned for any search without a more specific match.
func (p *Provider) WithOffers(offers []domain.Offer) *Provider {
	p.offers = offers
	return p
}

// WithRoundTrips sets the offers returned for round-trip searches.
func (p *Provider) WithRoundTrips(offers []domain.Offer) *Provider {
	p.roundTrips = offers
	return p
}

// WithLeg sets the offers returned for one-way searches departing origin.
func (p *Provider) WithLeg(origin string, offers []domain.Offer) *Provider {
	p.legs[origin] = offers
	return p
}

// WithError configures the provider to fail every search.
func (p *Provider) WithError(err error) *Provider {
	p.err = err
	return p
}

// WithDelay configures the provider to wait before responding.
func (p *Provider) WithDelay(d time.Duration) *Provider {
	p.delay = d
	return p
}

// Name implements domain.OfferProvider.
func (p *Provider) Name() string {
	return p.name
}

// Search implements domain.OfferProvider.
// It respects context cancellation and stamps every offer with the provider name.
func (p *Provider) Search(ctx context.Context, s domain.SubSearch) ([]domain.Offer, error) {
	p.mu.Lock()
	p.searches = append(p.searches, s)
	p.mu.Unlock()

	if p.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, domain.NewProviderError(p.name, ctx.Err())
		case <-time.After(p.delay):
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, domain.NewProviderError(p.name, err)
	}
	if p.err != nil {
		return nil, p.err
	}

	offers := p.offers
	switch {
	case s.IsRoundTrip() && p.roundTrips != nil:
		offers = p.roundTrips
	case !s.IsRoundTrip() && p.legs[s.Origin] != nil:
		offers = p.legs[s.Origin]
	}

	out := make([]domain.Offer, len(offers))
	for i := range offers {
		out[i] = offers[i].Clone()
		out[i].Source = p.name
	}
	return out, nil
}

// CallCount returns the number of times Search was called.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.searches)
}

// Searches returns a copy of every sub-search received.
func (p *Provider) Searches() []domain.SubSearch {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.SubSearch(nil), p.searches...)
}

// Reset forgets recorded calls.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.searches = nil
}

var _ domain.OfferProvider = (*Provider)(nil)

// Leg describes one direct flight of a sample offer.
type Leg struct {
	Carrier string
	Number  string
	From    string
	To      string
	Depart  time.Time
	Minutes int
}

// Offer builds a single-adult offer with one direct itinerary per leg.
// The price is the net fare; base and taxes split it 80/20.
func Offer(id string, price float64, legs ...Leg) domain.Offer {
	its := make([]domain.Itinerary, len(legs))
	for i, l := range legs {
		its[i] = domain.Itinerary{
			Segments: []domain.Segment{{
				MarketingCarrier: l.Carrier,
				OperatingCarrier: l.Carrier,
				FlightNumber:     l.Number,
				Origin:           l.From,
				Destination:      l.To,
				DepartureAt:      l.Depart,
				ArrivalAt:        l.Depart.Add(time.Duration(l.Minutes) * time.Minute),
				Cabin:            domain.CabinEconomy,
				DurationMinutes:  l.Minutes,
			}},
			Duration: domain.NewDurationInfo(l.Minutes),
		}
	}

	base, taxes := price*0.8, price*0.2
	return domain.Offer{
		ID:          id,
		Itineraries: its,
		Price:       domain.Price{Base: base, Taxes: taxes, Total: price, Currency: "USD"},
		PassengerPrices: []domain.PassengerPrice{{
			Type:  domain.PassengerAdult,
			Count: 1,
			Price: domain.Price{Base: base, Taxes: taxes, Total: price, Currency: "USD"},
		}},
		PassengerCount:    1,
		PricePerPassenger: price,
		Net:               price,
		ValidatingCarrier: legs[0].Carrier,
	}
}

// SampleOffers returns count direct JFK-MIA offers on day, two hours apart
// and 50 dollars apart starting at 200.
func SampleOffers(prefix string, day time.Time, count int) []domain.Offer {
	carriers := []string{"AA", "DL", "B6", "UA"}
	offers := make([]domain.Offer, count)
	for i := 0; i < count; i++ {
		carrier := carriers[i%len(carriers)]
		offers[i] = Offer(
			fmt.Sprintf("%s-%d", prefix, i+1),
			200+float64(i*50),
			Leg{
				Carrier: carrier,
				Number:  fmt.Sprintf("%d", 100+i),
				From:    "JFK",
				To:      "MIA",
				Depart:  day.Add(time.Duration(6+i*2) * time.Hour),
				Minutes: 180,
			},
		)
	}
	return offers
}
