package usecase

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/flight-search/offer-aggregation-engine/internal/domain"
	"github.com/flight-search/offer-aggregation-engine/internal/infrastructure/logger"
	"github.com/flight-search/offer-aggregation-engine/internal/infrastructure/metrics"
)

// MixedSource tags synthetic separate-ticket offers.
const MixedSource = "mixed"

// Combiner decision reasons.
const (
	ReasonNotRoundTrip        = "not_round_trip"
	ReasonDisabled            = "disabled"
	ReasonCabinNotEligible    = "cabin_not_eligible"
	ReasonNoRoundTrips        = "no_round_trip_offers"
	ReasonStrongSavings       = "strong_savings_signal"
	ReasonPriceSpread         = "price_spread"
	ReasonDifferentCarriers   = "different_cheapest_airlines"
	ReasonHighVariance        = "high_price_variance"
	ReasonNoSignal            = "no_savings_signal"
	ReasonSavingsBelowMinimum = "estimated_savings_below_minimum"
	ReasonOneWayFailed        = "one_way_search_failed"
	ReasonNoCombinations      = "no_cheaper_combinations"
	ReasonCombined            = "combinations_added"
)

// CombinerConfig controls when separate tickets are searched and what qualifies.
type CombinerConfig struct {
	// AutoEnabled is the behavior when the request does not say
	AutoEnabled bool

	// Cabins lists the cabins separate tickets are considered for
	Cabins []domain.CabinClass

	// MinSavingsAmount and MinSavingsPercent gate both the search and each combination
	MinSavingsAmount  float64
	MinSavingsPercent float64

	// CandidatesPerLeg is the number of cheapest one-way offers combined per direction
	CandidatesPerLeg int

	// MaxCombinations caps the synthetic offers added per route and date pair
	MaxCombinations int

	// MinConnection is the minimum gap between outbound arrival and inbound departure
	MinConnection time.Duration
}

// DefaultCombinerConfig returns the standard separate-ticket settings.
func DefaultCombinerConfig() CombinerConfig {
	return CombinerConfig{
		AutoEnabled:       true,
		Cabins:            []domain.CabinClass{domain.CabinEconomy, domain.CabinPremiumEconomy},
		MinSavingsAmount:  20,
		MinSavingsPercent: 5,
		CandidatesPerLeg:  5,
		MaxCombinations:   15,
		MinConnection:     30 * time.Minute,
	}
}

// OneWaySource answers one-way searches for the combiner.
type OneWaySource interface {
	// Cached reports whether the leg can be answered without a provider call
	Cached(ctx context.Context, leg domain.SubSearch) bool

	// Search returns the unpriced one-way offers of the leg
	Search(ctx context.Context, leg domain.SubSearch) ([]domain.Offer, error)
}

// Estimate is the zero-cost verdict drawn from round-trip prices alone.
type Estimate struct {
	Worthwhile       bool
	Reason           string
	Confidence       float64
	Floor            float64
	EstimatedSavings float64
	SavingsPercent   float64
}

// Combiner searches outbound and inbound legs separately and adds combinations
// cheaper than the round-trip floor.
type Combiner struct {
	cfg      CombinerConfig
	recorder *metrics.Recorder
	log      zerolog.Logger
}

// NewCombiner creates a Combiner.
func NewCombiner(cfg CombinerConfig, recorder *metrics.Recorder, log zerolog.Logger) *Combiner {
	return &Combiner{cfg: cfg, recorder: recorder, log: log}
}

func (c *Combiner) cabinEligible(cabin domain.CabinClass) bool {
	for _, allowed := range c.cfg.Cabins {
		if allowed == cabin {
			return true
		}
	}
	return false
}

// legEstimate is the average share of a round-trip price attributed to one direction.
type legEstimate struct {
	sum   float64
	count int
}

func (l legEstimate) avg() float64 {
	if l.count == 0 {
		return 0
	}
	return l.sum / float64(l.count)
}

// Analyze estimates whether separate tickets could beat the cheapest round trip.
// Each round-trip price is split across directions by duration share, averaged
// per airline, and the cheapest estimates per direction are compared to the floor.
func (c *Combiner) Analyze(roundTrips []domain.Offer) Estimate {
	outbound := make(map[string]legEstimate)
	inbound := make(map[string]legEstimate)
	floor, ceiling := math.Inf(1), 0.0
	n := 0

	for i := range roundTrips {
		o := &roundTrips[i]
		if !o.IsRoundTrip() || o.Price.Total <= 0 {
			continue
		}
		n++
		price := o.Price.Total
		floor = math.Min(floor, price)
		ceiling = math.Max(ceiling, price)

		outDur := float64(o.Itineraries[0].Duration.TotalMinutes)
		total := outDur + float64(o.Itineraries[1].Duration.TotalMinutes)
		ratio := 0.5
		if total > 0 {
			ratio = outDur/total*0.9 + 0.05
		}

		outCarrier := o.Itineraries[0].Carrier()
		inCarrier := o.Itineraries[1].Carrier()
		oe := outbound[outCarrier]
		oe.sum += price * ratio
		oe.count++
		outbound[outCarrier] = oe
		ie := inbound[inCarrier]
		ie.sum += price * (1 - ratio)
		ie.count++
		inbound[inCarrier] = ie
	}

	if n == 0 {
		return Estimate{Reason: ReasonNoRoundTrips}
	}

	outAirline, outBest := cheapestLeg(outbound)
	inAirline, inBest := cheapestLeg(inbound)

	est := Estimate{Floor: floor}
	est.EstimatedSavings = roundCents(floor - (outBest + inBest))
	est.SavingsPercent = roundCents(est.EstimatedSavings / floor * 100)
	spread := (ceiling - floor) / floor * 100

	switch {
	case est.SavingsPercent >= 8 && est.EstimatedSavings >= 30:
		est.Worthwhile, est.Reason, est.Confidence = true, ReasonStrongSavings, 0.85
	case est.SavingsPercent >= 5 && spread >= 30:
		est.Worthwhile, est.Reason, est.Confidence = true, ReasonPriceSpread, 0.7
	case outAirline != inAirline:
		est.Worthwhile, est.Reason, est.Confidence = true, ReasonDifferentCarriers, 0.6
	case spread >= 50 && n >= 5:
		est.Worthwhile, est.Reason, est.Confidence = true, ReasonHighVariance, 0.5
	default:
		est.Reason = ReasonNoSignal
	}
	return est
}

// cheapestLeg returns the airline with the lowest average estimate, smaller code on a tie.
func cheapestLeg(legs map[string]legEstimate) (string, float64) {
	airlines := make([]string, 0, len(legs))
	for a := range legs {
		airlines = append(airlines, a)
	}
	sort.Strings(airlines)

	best, bestAvg := "", math.Inf(1)
	for _, a := range airlines {
		if avg := legs[a].avg(); avg < bestAvg {
			best, bestAvg = a, avg
		}
	}
	return best, bestAvg
}

// Run adds separate-ticket combinations to baseline for every round-trip
// sub-search worth exploring. It never returns fewer offers than baseline.
// The summary is nil for one-way searches.
func (c *Combiner) Run(ctx context.Context, criteria *domain.SearchCriteria, subs []domain.SubSearch, baseline []domain.Offer, source OneWaySource) ([]domain.Offer, *domain.MixedSearchSummary) {
	if !criteria.IsRoundTrip() {
		return baseline, nil
	}
	summary := &domain.MixedSearchSummary{}
	if !criteria.SeparateTicketsEnabled(c.cfg.AutoEnabled) {
		summary.Reason = ReasonDisabled
		c.recorder.CombinerRun("skipped")
		return baseline, summary
	}
	if !c.cabinEligible(criteria.CabinClass) {
		summary.Reason = ReasonCabinNotEligible
		c.recorder.CombinerRun("skipped")
		return baseline, summary
	}

	log := logger.FromContext(ctx, c.log)
	var added []domain.Offer
	bestConfidence := -1.0

	for _, s := range subs {
		if !s.IsRoundTrip() {
			continue
		}
		mixed, sub := c.runPair(ctx, s, offersForSubSearch(baseline, s), source)
		added = append(added, mixed...)
		mergeSummary(summary, sub, &bestConfidence)
	}

	if len(added) == 0 {
		c.recorder.CombinerRun("no_combinations")
		return baseline, summary
	}

	merged := make([]domain.Offer, 0, len(baseline)+len(added))
	merged = append(merged, baseline...)
	merged = append(merged, added...)
	summary.CombinationsAdded = len(added)
	summary.Reason = ReasonCombined
	log.Debug().Int("baseline", len(baseline)).Int("added", len(added)).Msg("separate-ticket combinations merged")
	c.recorder.CombinerRun("combined")
	return merged, summary
}

func mergeSummary(total, sub *domain.MixedSearchSummary, bestConfidence *float64) {
	total.Executed = total.Executed || sub.Executed
	total.OneWaySearches += sub.OneWaySearches
	if sub.Confidence > *bestConfidence {
		*bestConfidence = sub.Confidence
		total.Reason = sub.Reason
		total.Confidence = sub.Confidence
	}
	if sub.CheapestRoundTrip > 0 && (total.CheapestRoundTrip == 0 || sub.CheapestRoundTrip < total.CheapestRoundTrip) {
		total.CheapestRoundTrip = sub.CheapestRoundTrip
	}
	if sub.CheapestMixed > 0 && (total.CheapestMixed == 0 || sub.CheapestMixed < total.CheapestMixed) {
		total.CheapestMixed = sub.CheapestMixed
	}
	total.BestSavings = math.Max(total.BestSavings, sub.BestSavings)
}

// offersForSubSearch selects the round trips answering s.
func offersForSubSearch(offers []domain.Offer, s domain.SubSearch) []domain.Offer {
	var out []domain.Offer
	for i := range offers {
		o := &offers[i]
		if !o.IsRoundTrip() || o.Mixed != nil {
			continue
		}
		out0, in0 := o.Itineraries[0], o.Itineraries[1]
		if out0.Origin() == s.Origin && out0.Destination() == s.Destination &&
			out0.Departure().Format(domain.DateLayout) == s.DepartureDate &&
			in0.Departure().Format(domain.DateLayout) == s.ReturnDate {
			out = append(out, *o)
		}
	}
	return out
}

func (c *Combiner) runPair(ctx context.Context, s domain.SubSearch, roundTrips []domain.Offer, source OneWaySource) ([]domain.Offer, *domain.MixedSearchSummary) {
	log := logger.FromContext(ctx, c.log).With().Str("sub_search", s.Key()).Logger()
	est := c.Analyze(roundTrips)
	summary := &domain.MixedSearchSummary{
		Reason:            est.Reason,
		Confidence:        est.Confidence,
		CheapestRoundTrip: est.Floor,
	}
	if !est.Worthwhile {
		return nil, summary
	}

	outLeg, inLeg := s.OutboundLeg(), s.InboundLeg()
	cached := source.Cached(ctx, outLeg) && source.Cached(ctx, inLeg)
	if !cached && (est.EstimatedSavings < c.cfg.MinSavingsAmount || est.SavingsPercent < c.cfg.MinSavingsPercent) {
		summary.Reason = ReasonSavingsBelowMinimum
		return nil, summary
	}

	outOffers, inOffers, err := c.fetchLegs(ctx, source, outLeg, inLeg)
	summary.Executed = true
	if !cached {
		summary.OneWaySearches = 2
	}
	if err != nil {
		log.Warn().Err(err).Msg("separate-ticket search failed, keeping round trips only")
		summary.Reason = ReasonOneWayFailed
		return nil, summary
	}

	mixed := dropPublishedPairs(c.combine(outOffers, inOffers, est.Floor), roundTrips)
	if len(mixed) == 0 {
		summary.Reason = ReasonNoCombinations
		return nil, summary
	}
	summary.CheapestMixed = mixed[0].Price.Total
	summary.BestSavings = mixed[0].Mixed.Savings
	log.Debug().
		Int("combinations", len(mixed)).
		Float64("floor", est.Floor).
		Float64("cheapest_mixed", summary.CheapestMixed).
		Msg("separate-ticket combinations found")
	return mixed, summary
}

func (c *Combiner) fetchLegs(ctx context.Context, source OneWaySource, outLeg, inLeg domain.SubSearch) ([]domain.Offer, []domain.Offer, error) {
	var (
		wg            sync.WaitGroup
		outOffers     []domain.Offer
		inOffers      []domain.Offer
		outErr, inErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		outOffers, outErr = source.Search(ctx, outLeg)
	}()
	go func() {
		defer wg.Done()
		inOffers, inErr = source.Search(ctx, inLeg)
	}()
	wg.Wait()

	if outErr != nil {
		return nil, nil, fmt.Errorf("outbound %s: %w", outLeg.Key(), outErr)
	}
	if inErr != nil {
		return nil, nil, fmt.Errorf("inbound %s: %w", inLeg.Key(), inErr)
	}
	return outOffers, inOffers, nil
}

// combine pairs the cheapest candidates of each direction into mixed offers
// strictly cheaper than floor by both savings margins, cheapest first.
func (c *Combiner) combine(outOffers, inOffers []domain.Offer, floor float64) []domain.Offer {
	outs := cheapestCandidates(outOffers, c.cfg.CandidatesPerLeg)
	ins := cheapestCandidates(inOffers, c.cfg.CandidatesPerLeg)

	var mixed []domain.Offer
	for i := range outs {
		for j := range ins {
			out, in := &outs[i], &ins[j]
			if out.Price.Currency != in.Price.Currency {
				continue
			}
			if in.Itineraries[0].Departure().Before(out.Itineraries[0].Arrival().Add(c.cfg.MinConnection)) {
				continue
			}
			price := roundCents(out.Price.Total + in.Price.Total)
			savings := roundCents(floor - price)
			if price >= floor || savings < c.cfg.MinSavingsAmount || savings/floor*100 < c.cfg.MinSavingsPercent {
				continue
			}
			mixed = append(mixed, buildMixedOffer(out, in, floor))
		}
	}

	sortByPrice(mixed)
	if c.cfg.MaxCombinations > 0 && len(mixed) > c.cfg.MaxCombinations {
		mixed = mixed[:c.cfg.MaxCombinations]
	}
	return mixed
}

// dropPublishedPairs removes combinations whose flights are already sold
// together as one of roundTrips. The single-ticket fare is kept.
func dropPublishedPairs(mixed, roundTrips []domain.Offer) []domain.Offer {
	if len(mixed) == 0 || len(roundTrips) == 0 {
		return mixed
	}
	published := make(map[string]struct{}, len(roundTrips))
	for i := range roundTrips {
		published[roundTrips[i].Signature()] = struct{}{}
	}
	kept := mixed[:0]
	for i := range mixed {
		if _, ok := published[mixed[i].Signature()]; ok {
			continue
		}
		kept = append(kept, mixed[i])
	}
	return kept
}

func cheapestCandidates(offers []domain.Offer, limit int) []domain.Offer {
	var out []domain.Offer
	for i := range offers {
		if len(offers[i].Itineraries) == 1 && offers[i].Price.Total > 0 {
			out = append(out, offers[i])
		}
	}
	sortByPrice(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func buildMixedOffer(out, in *domain.Offer, floor float64) domain.Offer {
	total := roundCents(out.Price.Total + in.Price.Total)
	savings := roundCents(floor - total)

	return domain.Offer{
		ID:     fmt.Sprintf("%s:%s+%s", MixedSource, out.ID, in.ID),
		Source: MixedSource,
		Itineraries: []domain.Itinerary{
			out.Clone().Itineraries[0],
			in.Clone().Itineraries[0],
		},
		Price: domain.Price{
			Base:     roundCents(out.Price.Base + in.Price.Base),
			Taxes:    roundCents(out.Price.Taxes + in.Price.Taxes),
			Total:    total,
			Currency: out.Price.Currency,
		},
		PassengerPrices:   mergePassengerPrices(out.PassengerPrices, in.PassengerPrices),
		PassengerCount:    out.PassengerCount,
		Net:               total,
		ValidatingCarrier: out.Carrier(),
		FareBasis:         out.FareBasis,
		SeatsAvailable:    minKnown(out.SeatsAvailable, in.SeatsAvailable),
		Mixed: &domain.MixedDetails{
			OutboundOfferID: out.ID,
			InboundOfferID:  in.ID,
			OutboundCarrier: out.Carrier(),
			InboundCarrier:  in.Carrier(),
			RoundTripFloor:  floor,
			Savings:         savings,
			SavingsPercent:  roundCents(savings / floor * 100),
		},
	}
}

func mergePassengerPrices(a, b []domain.PassengerPrice) []domain.PassengerPrice {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	byType := make(map[domain.PassengerType]domain.PassengerPrice, len(a))
	for _, pp := range a {
		byType[pp.Type] = pp
	}
	out := make([]domain.PassengerPrice, 0, len(a))
	for _, pp := range b {
		cur, ok := byType[pp.Type]
		if !ok {
			return nil
		}
		cur.Price.Base = roundCents(cur.Price.Base + pp.Price.Base)
		cur.Price.Taxes = roundCents(cur.Price.Taxes + pp.Price.Taxes)
		cur.Price.Total = roundCents(cur.Price.Total + pp.Price.Total)
		out = append(out, cur)
	}
	return out
}

func minKnown(a, b int) int {
	switch {
	case a == 0:
		return b
	case b == 0:
		return a
	case a < b:
		return a
	default:
		return b
	}
}
