package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/flight-search/offer-aggregation-engine/internal/domain"
	"github.com/flight-search/offer-aggregation-engine/internal/infrastructure/logger"
	"github.com/flight-search/offer-aggregation-engine/internal/infrastructure/metrics"
)

// Routing reason codes.
const (
	ReasonLCCAirline           = "lcc_airline"
	ReasonFareExcluded         = "fare_excluded"
	ReasonCommissionEmbedded   = "commission_embedded"
	ReasonUnder500Direct       = "under_500_provider_direct"
	ReasonOver500Commission    = "over_500_has_commission"
	ReasonOver500NoCommission  = "over_500_no_commission"
	exclusionNoProfitableRoute = "neither markup nor commission covers settlement costs"
)

// lowCostCarriers sell direct only and pay no consolidator commission.
var lowCostCarriers = map[string]bool{
	"NK": true, "F9": true, "G4": true, "WN": true, "B6": true,
	"VY": true, "FR": true, "U2": true, "W6": true,
}

// RoutingConfig holds the settlement economics and the enrichment bounds.
type RoutingConfig struct {
	// BatchSize is the number of offers routed per batch
	BatchSize int

	// Concurrency bounds parallel lookups inside a batch
	Concurrency int

	// OfferTimeout bounds the routing of a single offer
	OfferTimeout time.Duration

	// DefaultCommissionPercent applies when no commission row matches
	DefaultCommissionPercent float64

	// DirectFeeFixed and DirectFeeRate are the card processing cost of direct settlement
	DirectFeeFixed float64
	DirectFeeRate  float64

	// ConsolidatorFee is the fixed cost of consolidator ticketing
	ConsolidatorFee float64

	// HighFareThreshold is the customer total at which consolidator settlement is considered
	HighFareThreshold float64

	// GroupSize is the traveler count at which commission no longer applies
	GroupSize int
}

// DefaultRoutingConfig returns the standard settlement economics.
func DefaultRoutingConfig() RoutingConfig {
	return RoutingConfig{
		BatchSize:                10,
		Concurrency:              3,
		OfferTimeout:             2 * time.Second,
		DefaultCommissionPercent: 0,
		DirectFeeFixed:           3,
		DirectFeeRate:            0.039,
		ConsolidatorFee:          5,
		HighFareThreshold:        500,
		GroupSize:                10,
	}
}

// RoutingEngine decides the settlement channel of every offer.
type RoutingEngine struct {
	cfg      RoutingConfig
	rates    domain.CommissionRateSource
	recorder *metrics.Recorder
	log      zerolog.Logger
}

// NewRoutingEngine creates a RoutingEngine backed by the given commission table.
func NewRoutingEngine(cfg RoutingConfig, rates domain.CommissionRateSource, recorder *metrics.Recorder, log zerolog.Logger) *RoutingEngine {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 3
	}
	return &RoutingEngine{cfg: cfg, rates: rates, recorder: recorder, log: log}
}

// RouteAll routes offers in fixed-size batches with bounded concurrency.
// An offer whose routing fails or times out is logged and left without a decision;
// it stays in the result set.
func (e *RoutingEngine) RouteAll(ctx context.Context, offers []domain.Offer, travelers Travelers) map[string]domain.RoutingDecision {
	log := logger.FromContext(ctx, e.log)
	decisions := make(map[string]domain.RoutingDecision, len(offers))
	var mu sync.Mutex

	for start := 0; start < len(offers); start += e.cfg.BatchSize {
		end := start + e.cfg.BatchSize
		if end > len(offers) {
			end = len(offers)
		}

		var g errgroup.Group
		g.SetLimit(e.cfg.Concurrency)
		for i := start; i < end; i++ {
			o := &offers[i]
			g.Go(func() error {
				d, err := e.routeWithTimeout(ctx, o, travelers)
				if err != nil {
					log.Warn().Err(err).Str("offer_id", o.ID).Msg("routing skipped for offer")
					return nil
				}
				e.recorder.RoutingDecision(string(d.Channel), d.Excluded)
				mu.Lock()
				decisions[o.ID] = d
				mu.Unlock()
				return nil
			})
		}
		_ = g.Wait()
	}
	return decisions
}

func (e *RoutingEngine) routeWithTimeout(ctx context.Context, o *domain.Offer, travelers Travelers) (domain.RoutingDecision, error) {
	if e.cfg.OfferTimeout <= 0 {
		return e.Route(ctx, o, travelers)
	}
	ctx, cancel := context.WithTimeout(ctx, e.cfg.OfferTimeout)
	defer cancel()

	type outcome struct {
		d   domain.RoutingDecision
		err error
	}
	ch := make(chan outcome, 1)
	go func() {
		d, err := e.Route(ctx, o, travelers)
		ch <- outcome{d, err}
	}()

	select {
	case <-ctx.Done():
		return domain.RoutingDecision{}, fmt.Errorf("route offer %s: %w", o.ID, ctx.Err())
	case out := <-ch:
		return out.d, out.err
	}
}

// Travelers is the party composition a routing decision depends on.
type Travelers struct {
	Adults   int
	Children int
	Infants  int
}

// Count returns every traveler including infants.
func (t Travelers) Count() int {
	return t.Adults + t.Children + t.Infants
}

// Route decides the channel of one priced offer.
func (e *RoutingEngine) Route(ctx context.Context, o *domain.Offer, travelers Travelers) (domain.RoutingDecision, error) {
	carrier := strings.ToUpper(o.Carrier())
	customer := o.Price.Total

	var markupAmount float64
	if o.Markup != nil {
		markupAmount = o.Markup.Amount
	}
	baseFare := o.Price.Base - markupAmount
	if baseFare < 0 {
		baseFare = 0
	}

	d := domain.RoutingDecision{OfferID: o.ID}
	d.DirectProfit = roundCents(markupAmount - (e.cfg.DirectFeeFixed + e.cfg.DirectFeeRate*customer))

	lcc := lowCostCarriers[carrier]
	excluded, exclusion := e.fareExcluded(o, travelers)

	if !lcc && !excluded {
		percent, err := e.commissionPercent(ctx, o, carrier)
		if err != nil {
			return domain.RoutingDecision{}, err
		}
		d.CommissionPercent = percent
		d.CommissionAmount = roundCents(baseFare * percent / 100)
	}
	d.ConsolidatorProfit = roundCents(d.CommissionAmount - e.cfg.ConsolidatorFee)

	switch {
	case lcc:
		d.Channel = domain.ChannelProviderDirect
		d.Reason = ReasonLCCAirline
		d.Justification = fmt.Sprintf("%s is a low-cost carrier that sells direct only", carrier)
	case excluded:
		d.Channel = domain.ChannelProviderDirect
		d.Reason = ReasonFareExcluded
		d.Justification = fmt.Sprintf("commission does not apply: %s", exclusion)
	case o.CommissionEmbedded && d.CommissionAmount > 0:
		d.Channel = domain.ChannelConsolidator
		d.Reason = ReasonCommissionEmbedded
		d.Justification = fmt.Sprintf("net fare sold without markup; %.2f%% commission on %.2f base", d.CommissionPercent, baseFare)
	case customer < e.cfg.HighFareThreshold:
		d.Channel = domain.ChannelProviderDirect
		d.Reason = ReasonUnder500Direct
		d.Justification = fmt.Sprintf("fare %.2f is under %.0f; markup settles direct", customer, e.cfg.HighFareThreshold)
	case d.CommissionAmount > 0:
		d.Channel = domain.ChannelConsolidator
		d.Reason = ReasonOver500Commission
		d.Justification = fmt.Sprintf("fare %.2f with %.2f%% commission (%.2f) via consolidator", customer, d.CommissionPercent, d.CommissionAmount)
	default:
		d.Channel = domain.ChannelProviderDirect
		d.Reason = ReasonOver500NoCommission
		d.Justification = fmt.Sprintf("fare %.2f has no commission for %s", customer, carrier)
	}

	if d.Channel == domain.ChannelConsolidator {
		d.EstimatedProfit = d.ConsolidatorProfit
	} else {
		d.EstimatedProfit = d.DirectProfit
	}

	if d.DirectProfit <= 0 && d.ConsolidatorProfit <= 0 {
		d.Excluded = true
		d.ExclusionReason = exclusionNoProfitableRoute
	}
	return d, nil
}

// fareExcluded reports fares that never earn commission regardless of carrier.
func (e *RoutingEngine) fareExcluded(o *domain.Offer, t Travelers) (bool, string) {
	if isBasicEconomyBasis(o.FareBasis) {
		return true, "basic economy fare basis " + o.FareBasis
	}
	if e.cfg.GroupSize > 0 && t.Count() >= e.cfg.GroupSize {
		return true, fmt.Sprintf("group of %d travelers", t.Count())
	}
	if t.Infants > 0 && t.Adults == 0 && t.Children == 0 {
		return true, "infant-only booking"
	}
	return false, ""
}

// isBasicEconomyBasis reports a 'B' in the seventh position of the fare basis.
func isBasicEconomyBasis(basis string) bool {
	return len(basis) >= 7 && (basis[6] == 'B' || basis[6] == 'b')
}

func (e *RoutingEngine) commissionPercent(ctx context.Context, o *domain.Offer, carrier string) (float64, error) {
	if e.rates == nil {
		return e.cfg.DefaultCommissionPercent, nil
	}
	q := domain.CommissionQuery{Carrier: carrier, Cabin: o.Cabin()}
	if len(o.Itineraries) > 0 {
		q.Origin = o.Itineraries[0].Origin()
		q.Destination = o.Itineraries[0].Destination()
		q.TravelDate = o.Itineraries[0].Departure()
	}
	rate, err := e.rates.Lookup(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("commission lookup for %s: %w", carrier, err)
	}
	if rate == nil {
		return e.cfg.DefaultCommissionPercent, nil
	}
	return rate.Percent, nil
}
