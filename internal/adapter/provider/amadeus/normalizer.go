package amadeus

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/flight-search/offer-aggregation-engine/internal/adapter/provider"
	"github.com/flight-search/offer-aggregation-engine/internal/domain"
)

// offerNamespace scopes deterministic offer ids. Amadeus numbers offers per
// response ("1", "2", ...), so raw ids collide across sub-searches.
var offerNamespace = uuid.MustParse("6f1d3c2a-8b4e-4f7a-9c21-5d0e3b7a1f64")

// normalize converts raw offers, skipping the ones that cannot be read.
func normalize(raw []FlightOffer, s domain.SubSearch) ([]domain.Offer, int) {
	result := make([]domain.Offer, 0, len(raw))
	skipped := 0
	for _, r := range raw {
		o, err := normalizeOffer(r, s)
		if err != nil {
			skipped++
			continue
		}
		result = append(result, o)
	}
	return result, skipped
}

func normalizeOffer(r FlightOffer, s domain.SubSearch) (domain.Offer, error) {
	if len(r.Itineraries) == 0 {
		return domain.Offer{}, fmt.Errorf("offer %s has no itineraries", r.ID)
	}

	details := fareDetailsBySegment(r.TravelerPricings)

	itineraries := make([]domain.Itinerary, 0, len(r.Itineraries))
	for _, it := range r.Itineraries {
		segments := make([]domain.Segment, 0, len(it.Segments))
		for _, seg := range it.Segments {
			ns, err := normalizeSegment(seg, details[seg.ID])
			if err != nil {
				return domain.Offer{}, err
			}
			segments = append(segments, ns)
		}
		if len(segments) == 0 {
			return domain.Offer{}, fmt.Errorf("offer %s has an empty itinerary", r.ID)
		}
		minutes, _ := provider.ParseISODuration(it.Duration)
		itineraries = append(itineraries, provider.BuildItinerary(segments, minutes))
	}

	price, err := normalizePrice(r.Price)
	if err != nil {
		return domain.Offer{}, err
	}

	o := domain.Offer{
		ID:                 uuid.NewSHA1(offerNamespace, []byte(s.Key()+"|"+r.ID)).String(),
		Source:             ProviderName,
		Itineraries:        itineraries,
		Price:              price,
		PassengerPrices:    passengerPrices(r.TravelerPricings),
		PassengerCount:     s.PassengerCount(),
		Net:                price.Total,
		CommissionEmbedded: hasFareType(r.PricingOptions.FareType, "NEGOTIATED"),
		SeatsAvailable:     r.NumberOfBookableSeats,
	}
	if len(r.ValidatingAirlineCodes) > 0 {
		o.ValidatingCarrier = r.ValidatingAirlineCodes[0]
	}
	if o.PassengerCount == 0 {
		o.PassengerCount = len(r.TravelerPricings)
	}
	first := itineraries[0].Segments[0]
	o.FareBasis = first.FareBasis
	if d, ok := details[r.Itineraries[0].Segments[0].ID]; ok {
		o.BrandName = d.BrandedFare
	}
	return o, nil
}

func normalizeSegment(seg Segment, fare FareDetailSegment) (domain.Segment, error) {
	dep, err := provider.ParseDateTime(seg.Departure.At)
	if err != nil {
		return domain.Segment{}, fmt.Errorf("failed to parse departure time: %w", err)
	}
	arr, err := provider.ParseDateTime(seg.Arrival.At)
	if err != nil {
		return domain.Segment{}, fmt.Errorf("failed to parse arrival time: %w", err)
	}

	operating := seg.CarrierCode
	if seg.Operating != nil && seg.Operating.CarrierCode != "" {
		operating = seg.Operating.CarrierCode
	}

	return domain.Segment{
		MarketingCarrier: seg.CarrierCode,
		FlightNumber:     seg.Number,
		OperatingCarrier: operating,
		Origin:           seg.Departure.IATACode,
		Destination:      seg.Arrival.IATACode,
		DepartureAt:      dep,
		ArrivalAt:        arr,
		Cabin:            provider.NormalizeCabin(fare.Cabin),
		BookingClass:     fare.Class,
		FareBasis:        fare.FareBasis,
		Aircraft:         seg.Aircraft.Code,
		DurationMinutes:  provider.SegmentMinutes(seg.Duration, dep, arr),
	}, nil
}

func normalizePrice(p OfferPrice) (domain.Price, error) {
	total, err := provider.ParseAmount(p.GrandTotal)
	if err != nil {
		return domain.Price{}, err
	}
	if total == 0 {
		if total, err = provider.ParseAmount(p.Total); err != nil {
			return domain.Price{}, err
		}
	}
	if total <= 0 {
		return domain.Price{}, fmt.Errorf("offer has no price")
	}
	base, err := provider.ParseAmount(p.Base)
	if err != nil {
		return domain.Price{}, err
	}
	return domain.Price{Base: base, Taxes: total - base, Total: total, Currency: p.Currency}, nil
}

// fareDetailsBySegment indexes the first traveler's fare details by segment id.
func fareDetailsBySegment(pricings []TravelerPricing) map[string]FareDetailSegment {
	out := make(map[string]FareDetailSegment)
	if len(pricings) == 0 {
		return out
	}
	for _, d := range pricings[0].FareDetailsBySegment {
		out[d.SegmentID] = d
	}
	return out
}

// passengerPrices groups traveler pricings by passenger type, keeping one traveler's price per type.
func passengerPrices(pricings []TravelerPricing) []domain.PassengerPrice {
	var out []domain.PassengerPrice
	index := make(map[domain.PassengerType]int)
	for _, tp := range pricings {
		pt := passengerType(tp.TravelerType)
		if i, ok := index[pt]; ok {
			out[i].Count++
			continue
		}
		total, _ := provider.ParseAmount(tp.Price.Total)
		base, _ := provider.ParseAmount(tp.Price.Base)
		index[pt] = len(out)
		out = append(out, domain.PassengerPrice{
			Type:  pt,
			Count: 1,
			Price: domain.Price{Base: base, Taxes: total - base, Total: total, Currency: tp.Price.Currency},
		})
	}
	return out
}

func passengerType(t string) domain.PassengerType {
	switch strings.ToUpper(t) {
	case "CHILD":
		return domain.PassengerChild
	case "HELD_INFANT", "SEATED_INFANT":
		return domain.PassengerInfant
	default:
		return domain.PassengerAdult
	}
}

func hasFareType(types []string, want string) bool {
	for _, t := range types {
		if strings.Contains(strings.ToUpper(t), want) {
			return true
		}
	}
	return false
}

// travelClass maps the shared cabin vocabulary onto the Amadeus enum.
func travelClass(c domain.CabinClass) string {
	switch c {
	case domain.CabinPremiumEconomy:
		return "PREMIUM_ECONOMY"
	case domain.CabinBusiness:
		return "BUSINESS"
	case domain.CabinFirst:
		return "FIRST"
	default:
		return "ECONOMY"
	}
}
