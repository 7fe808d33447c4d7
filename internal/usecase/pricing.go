package usecase

import (
	"math"

	"github.com/flight-search/offer-aggregation-engine/internal/domain"
)

// MarkupPolicy turns a net fare into a customer price:
// customer = net + min(max(MinFee, Rate*net), Cap).
type MarkupPolicy struct {
	// MinFee is the floor of the markup amount
	MinFee float64

	// Rate is the proportional markup (0.07 = 7%)
	Rate float64

	// Cap is the ceiling of the markup amount; 0 disables the ceiling
	Cap float64
}

// DefaultMarkupPolicy returns the standard retail policy.
func DefaultMarkupPolicy() MarkupPolicy {
	return MarkupPolicy{MinFee: 22, Rate: 0.07, Cap: 250}
}

// Apply computes the markup for a net amount, rounded to cents.
func (p MarkupPolicy) Apply(net float64) domain.MarkupInfo {
	amount := math.Max(p.MinFee, p.Rate*net)
	if p.Cap > 0 && amount > p.Cap {
		amount = p.Cap
	}
	amount = roundCents(amount)

	info := domain.MarkupInfo{
		Net:      roundCents(net),
		Customer: roundCents(net + amount),
		Amount:   amount,
	}
	if net > 0 {
		info.Percentage = roundCents(amount / net * 100)
	}
	return info
}

// PriceOffer returns a priced copy of o. Commission-embedded fares are sold at net.
// The markup is carried in the base fare; taxes are passed through untouched.
func (p MarkupPolicy) PriceOffer(o *domain.Offer) domain.Offer {
	priced := o.Clone()

	net := o.Net
	if net == 0 {
		net = o.Price.Total
	}

	var info domain.MarkupInfo
	if o.CommissionEmbedded {
		info = domain.MarkupInfo{Net: net, Customer: net}
	} else {
		info = p.Apply(net)
	}

	priced.Net = net
	priced.Markup = &info
	priced.Price.Total = info.Customer
	priced.Price.Base = roundCents(info.Customer - o.Price.Taxes)

	if net > 0 {
		factor := info.Customer / net
		for i := range priced.PassengerPrices {
			pp := &priced.PassengerPrices[i].Price
			pp.Total = roundCents(pp.Total * factor)
			pp.Base = roundCents(pp.Total - pp.Taxes)
		}
	}

	if priced.PassengerCount > 0 {
		priced.PricePerPassenger = roundCents(priced.Price.Total / float64(priced.PassengerCount))
	}

	for i := range priced.FareVariants {
		v := &priced.FareVariants[i].Price
		customer := v.Total
		if !o.CommissionEmbedded {
			customer = p.Apply(v.Total).Customer
		}
		v.Total = customer
		v.Base = roundCents(customer - v.Taxes)
	}

	return priced
}

// PriceAll prices every offer. The input is not modified.
func (p MarkupPolicy) PriceAll(offers []domain.Offer) []domain.Offer {
	out := make([]domain.Offer, len(offers))
	for i := range offers {
		out[i] = p.PriceOffer(&offers[i])
	}
	return out
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
