package duffel

import (
	"fmt"
	"strings"

	"github.com/flight-search/offer-aggregation-engine/internal/adapter/provider"
	"github.com/flight-search/offer-aggregation-engine/internal/domain"
)

// normalize converts raw offers, skipping the ones that cannot be read.
func normalize(raw []Offer, s domain.SubSearch) ([]domain.Offer, int) {
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

func normalizeOffer(r Offer, s domain.SubSearch) (domain.Offer, error) {
	if len(r.Slices) == 0 {
		return domain.Offer{}, fmt.Errorf("offer %s has no slices", r.ID)
	}

	itineraries := make([]domain.Itinerary, 0, len(r.Slices))
	for _, sl := range r.Slices {
		segments := make([]domain.Segment, 0, len(sl.Segments))
		for _, seg := range sl.Segments {
			ns, err := normalizeSegment(seg)
			if err != nil {
				return domain.Offer{}, err
			}
			segments = append(segments, ns)
		}
		if len(segments) == 0 {
			return domain.Offer{}, fmt.Errorf("offer %s has an empty slice", r.ID)
		}
		minutes, _ := provider.ParseISODuration(sl.Duration)
		itineraries = append(itineraries, provider.BuildItinerary(segments, minutes))
	}

	total, err := provider.ParseAmount(r.TotalAmount)
	if err != nil {
		return domain.Offer{}, err
	}
	if total <= 0 {
		return domain.Offer{}, fmt.Errorf("offer %s has no price", r.ID)
	}
	base, err := provider.ParseAmount(r.BaseAmount)
	if err != nil {
		return domain.Offer{}, err
	}
	taxes, err := provider.ParseAmount(r.TaxAmount)
	if err != nil {
		return domain.Offer{}, err
	}
	if base == 0 && taxes == 0 {
		base = total
	}
	price := domain.Price{Base: base, Taxes: taxes, Total: total, Currency: r.TotalCurrency}

	adults, children, infants := countPassengers(r.Passengers, s)
	o := domain.Offer{
		ID:                r.ID,
		Source:            ProviderName,
		Itineraries:       itineraries,
		Price:             price,
		PassengerPrices:   provider.SplitPassengerPrices(price, adults, children, infants),
		PassengerCount:    adults + children + infants,
		Net:               total,
		ValidatingCarrier: r.Owner.IATACode,
		BrandName:         r.Slices[0].FareBrandName,
		FareBasis:         itineraries[0].Segments[0].FareBasis,
		Conditions:        normalizeConditions(r.Conditions),
	}
	if r.AvailableSeats != nil {
		o.SeatsAvailable = *r.AvailableSeats
	}
	return o, nil
}

func normalizeSegment(seg Segment) (domain.Segment, error) {
	dep, err := provider.ParseDateTime(seg.DepartingAt)
	if err != nil {
		return domain.Segment{}, fmt.Errorf("failed to parse departure time: %w", err)
	}
	arr, err := provider.ParseDateTime(seg.ArrivingAt)
	if err != nil {
		return domain.Segment{}, fmt.Errorf("failed to parse arrival time: %w", err)
	}

	out := domain.Segment{
		MarketingCarrier: seg.MarketingCarrier.IATACode,
		FlightNumber:     seg.MarketingCarrierFlightNumber,
		OperatingCarrier: seg.MarketingCarrier.IATACode,
		Origin:           seg.Origin.IATACode,
		Destination:      seg.Destination.IATACode,
		DepartureAt:      dep,
		ArrivalAt:        arr,
		Cabin:            domain.CabinEconomy,
		DurationMinutes:  provider.SegmentMinutes(seg.Duration, dep, arr),
	}
	if seg.OperatingCarrier != nil && seg.OperatingCarrier.IATACode != "" {
		out.OperatingCarrier = seg.OperatingCarrier.IATACode
	}
	if seg.Aircraft != nil {
		out.Aircraft = seg.Aircraft.IATACode
	}
	if len(seg.Passengers) > 0 {
		p := seg.Passengers[0]
		out.Cabin = provider.NormalizeCabin(p.CabinClass)
		out.FareBasis = p.FareBasisCode
		out.BookingClass = p.BookingClass
	}
	return out, nil
}

func normalizeConditions(c *Conditions) *domain.FareConditions {
	if c == nil || (c.RefundBeforeDeparture == nil && c.ChangeBeforeDeparture == nil) {
		return nil
	}
	out := &domain.FareConditions{}
	if ch := c.ChangeBeforeDeparture; ch != nil {
		out.Changeable = ch.Allowed
		out.ChangePenalty = penalty(ch)
	}
	if rf := c.RefundBeforeDeparture; rf != nil {
		out.Refundable = rf.Allowed
		out.RefundPenalty = penalty(rf)
	}
	return out
}

func penalty(c *Condition) float64 {
	if c.PenaltyAmount == nil {
		return 0
	}
	v, _ := provider.ParseAmount(*c.PenaltyAmount)
	return v
}

// countPassengers prefers the offer's passenger list and falls back to the request.
func countPassengers(ps []OfferPassenger, s domain.SubSearch) (int, int, int) {
	if len(ps) == 0 {
		return s.Adults, s.Children, s.Infants
	}
	var adults, children, infants int
	for _, p := range ps {
		switch {
		case strings.HasPrefix(p.Type, "infant"):
			infants++
		case p.Type == "child":
			children++
		default:
			adults++
		}
	}
	return adults, children, infants
}

// requestBody builds the offer request for a sub-search.
func requestBody(s domain.SubSearch) offerRequestBody {
	slices := []requestSlice{{Origin: s.Origin, Destination: s.Destination, DepartureDate: s.DepartureDate}}
	if s.ReturnDate != "" {
		slices = append(slices, requestSlice{Origin: s.Destination, Destination: s.Origin, DepartureDate: s.ReturnDate})
	}

	passengers := make([]requestPassenger, 0, s.PassengerCount())
	for i := 0; i < s.Adults; i++ {
		passengers = append(passengers, requestPassenger{Type: "adult"})
	}
	for i := 0; i < s.Children; i++ {
		age := childAge
		passengers = append(passengers, requestPassenger{Age: &age})
	}
	for i := 0; i < s.Infants; i++ {
		passengers = append(passengers, requestPassenger{Type: "infant_without_seat"})
	}

	req := offerRequest{
		Slices:     slices,
		Passengers: passengers,
		CabinClass: string(s.CabinClass),
	}
	if req.CabinClass == "" {
		req.CabinClass = string(domain.CabinEconomy)
	}
	if s.NonStop {
		zero := 0
		req.MaxConnections = &zero
	}
	return offerRequestBody{Data: req}
}
