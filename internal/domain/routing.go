package domain

import (
	"context"
	"time"
)

//go:generate mockgen -source=routing.go -destination=mock_commission.go -package=domain

// Channel is the settlement path of a booked offer.
type Channel string

const (
	// ChannelConsolidator settles through a commission-paying consolidator
	ChannelConsolidator Channel = "consolidator"

	// ChannelProviderDirect settles directly with the provider; margin comes from markup
	ChannelProviderDirect Channel = "provider_direct"
)

// RoutingDecision is the internal settlement verdict for one offer.
// It is never sent to the client; the booking step looks it up by session id.
type RoutingDecision struct {
	OfferID string  `json:"offerId"`
	Channel Channel `json:"channel"`

	// CommissionPercent is the consolidator commission rate applied to the base fare
	CommissionPercent float64 `json:"commissionPercent"`

	// CommissionAmount is the estimated consolidator commission
	CommissionAmount float64 `json:"commissionAmount"`

	// EstimatedProfit is the profit of the chosen channel
	EstimatedProfit float64 `json:"estimatedProfit"`

	DirectProfit       float64 `json:"directProfit"`
	ConsolidatorProfit float64 `json:"consolidatorProfit"`

	// Excluded marks offers no channel can settle profitably; they remain visible
	Excluded        bool   `json:"excluded"`
	ExclusionReason string `json:"exclusionReason,omitempty"`

	// Reason is a machine-readable decision code (e.g., "over_500_has_commission")
	Reason string `json:"reason"`

	// Justification is a human-readable explanation for operators
	Justification string `json:"justification"`
}

// CommissionRate is one row of the commission table.
type CommissionRate struct {
	// Carrier is the validating airline code, or "*" for any
	Carrier string `json:"carrier" yaml:"carrier"`

	// Market is "ORIGIN-DESTINATION"; either side may be "*"
	Market string `json:"market" yaml:"market"`

	// Cabin is the cabin class, or "*" for any
	Cabin string `json:"cabin" yaml:"cabin"`

	// Percent is the commission percentage of the base fare (e.g., 5 for 5%)
	Percent float64 `json:"percent" yaml:"percent"`

	// ValidFrom and ValidTo bound seasonal rates by travel date; zero means open-ended
	ValidFrom time.Time `json:"validFrom,omitempty" yaml:"valid_from,omitempty"`
	ValidTo   time.Time `json:"validTo,omitempty" yaml:"valid_to,omitempty"`
}

// CommissionQuery identifies what a commission lookup is for.
type CommissionQuery struct {
	Carrier     string
	Origin      string
	Destination string
	Cabin       CabinClass
	TravelDate  time.Time
}

// CommissionRateSource resolves the most specific commission rate for a query.
// Returns nil and no error when no row matches.
type CommissionRateSource interface {
	Lookup(ctx context.Context, q CommissionQuery) (*CommissionRate, error)
}

// Specificity ranks how precisely the rate matches: carrier, then market sides, then cabin.
func (r CommissionRate) Specificity() int {
	score := 0
	if r.Carrier != "*" && r.Carrier != "" {
		score += 8
	}
	origin, destination := SplitMarket(r.Market)
	if origin != "*" {
		score += 2
	}
	if destination != "*" {
		score += 2
	}
	if r.Cabin != "*" && r.Cabin != "" {
		score++
	}
	return score
}

// Matches reports whether the rate applies to the query.
func (r CommissionRate) Matches(q CommissionQuery) bool {
	if r.Carrier != "*" && r.Carrier != "" && r.Carrier != q.Carrier {
		return false
	}
	origin, destination := SplitMarket(r.Market)
	if origin != "*" && origin != q.Origin {
		return false
	}
	if destination != "*" && destination != q.Destination {
		return false
	}
	if r.Cabin != "*" && r.Cabin != "" && CabinClass(r.Cabin) != q.Cabin {
		return false
	}
	if !q.TravelDate.IsZero() {
		if !r.ValidFrom.IsZero() && q.TravelDate.Before(r.ValidFrom) {
			return false
		}
		if !r.ValidTo.IsZero() && q.TravelDate.After(r.ValidTo) {
			return false
		}
	}
	return true
}

// SplitMarket splits "JFK-MIA" into its sides; empty or malformed markets are wildcards.
func SplitMarket(market string) (string, string) {
	if len(market) == 7 && market[3] == '-' {
		return market[:3], market[4:]
	}
	if market == "" || market == "*" {
		return "*", "*"
	}
	for i := 0; i < len(market); i++ {
		if market[i] == '-' {
			return market[:i], market[i+1:]
		}
	}
	return "*", "*"
}
