package usecase

import (
	"math"
	"sort"
	"time"

	"github.com/flight-search/offer-aggregation-engine/internal/domain"
)

// Overall ranking weights. The sum of weights equals 1.0 for normalized scoring.
const (
	// weightPrice is the weight for price in the overall ordering (50%).
	weightPrice = 0.5

	// weightDuration is the weight for total duration in the overall ordering (30%).
	weightDuration = 0.3

	// weightStops is the weight for number of stops in the overall ordering (20%).
	weightStops = 0.2
)

// Deal score component ceilings; they add up to 100.
const (
	maxPricePoints       = 40.0
	maxDurationPoints    = 15.0
	minDurationPoints    = 3.0
	maxTimeOfDayPoints   = 10.0
	reliabilityPoints    = 5.0
	maxConnectionPoints  = 10.0
	unknownSeatPoints    = 3.0
	neutralPricePoints   = 20.0
	durationPenaltySlope = 12.0
)

// Badge labels.
const (
	BadgeBestValue       = "Best Value"
	BadgeLowestPrice     = "Lowest Price"
	BadgeFastest         = "Fastest Flight"
	BadgeDirect          = "Direct Flight"
	BadgeSeparateTickets = "Separate Tickets"
	BadgeConvenientTime  = "Convenient Time"
)

// Deal tiers.
const (
	TierExcellent = "excellent"
	TierGreat     = "great"
	TierGood      = "good"
	TierFair      = "fair"
)

// stopPoints is indexed by the worst direction's stop count.
var stopPoints = []float64{15, 8, 3, 1}

// ScoreOffers computes the deal score, tier and badges of every offer relative
// to the rest of the set.
//
// Score components (0-100, higher is better):
//   - Price vs the set average: 40 at 20% below, 20 at average, 0 at 20% above
//   - Duration vs the shortest: 15 for the shortest, falling to 3 at twice as long
//   - Stops in the worst direction: 15 / 8 / 3 / 1
//   - Outbound time of day: up to 10, red-eyes lowest
//   - Reliability: 5 until on-time data is available
//   - Connection comfort: 10 for direct, by the worst layover otherwise
//   - Seats left: 1 to 5
//
// Does NOT mutate the original offers slice.
func ScoreOffers(offers []domain.Offer, minConnection time.Duration) []domain.Offer {
	result := make([]domain.Offer, len(offers))
	if len(offers) == 0 {
		return result
	}

	avgPrice := 0.0
	shortest := math.MaxInt
	for i := range offers {
		avgPrice += offers[i].Price.Total
		if d := offers[i].TotalDuration(); d > 0 && d < shortest {
			shortest = d
		}
	}
	avgPrice /= float64(len(offers))

	for i := range offers {
		o := offers[i].Clone()
		score := pricePoints(o.Price.Total, avgPrice) +
			durationPoints(o.TotalDuration(), shortest) +
			stopsPoints(&o) +
			timeOfDayPoints(&o) +
			reliabilityPoints +
			connectionPoints(&o, minConnection) +
			seatPoints(o.SeatsAvailable)
		o.Score = math.Round(score*10) / 10
		o.DealTier = dealTier(o.Score)
		o.Badges = nil
		result[i] = o
	}

	assignBadges(result)
	return result
}

func pricePoints(price, avg float64) float64 {
	if avg <= 0 {
		return neutralPricePoints
	}
	pct := (price - avg) / avg * 100
	return clamp(neutralPricePoints-pct, 0, maxPricePoints)
}

func durationPoints(minutes, shortest int) float64 {
	if minutes <= 0 || shortest <= 0 || shortest == math.MaxInt {
		return minDurationPoints
	}
	ratio := float64(minutes) / float64(shortest)
	return clamp(maxDurationPoints-(ratio-1)*durationPenaltySlope, minDurationPoints, maxDurationPoints)
}

func stopsPoints(o *domain.Offer) float64 {
	worst := 0
	for _, it := range o.Itineraries {
		if s := it.Stops(); s > worst {
			worst = s
		}
	}
	if worst >= len(stopPoints) {
		worst = len(stopPoints) - 1
	}
	return stopPoints[worst]
}

func timeOfDayPoints(o *domain.Offer) float64 {
	if len(o.Itineraries) == 0 {
		return 0
	}
	h := o.Itineraries[0].Departure().Hour()
	switch {
	case h >= 6 && h < 12:
		return maxTimeOfDayPoints
	case h >= 12 && h < 18:
		return 8
	case h >= 18 && h < 22:
		return 6
	default:
		return 3
	}
}

var connectionQualityPoints = map[domain.ConnectionQuality]float64{
	domain.ConnectionComfortable: 10,
	domain.ConnectionLong:        7,
	domain.ConnectionTight:       5,
	domain.ConnectionVeryLong:    4,
	domain.ConnectionInvalid:     0,
}

func connectionPoints(o *domain.Offer, minConnection time.Duration) float64 {
	points := maxConnectionPoints
	for _, it := range o.Itineraries {
		for _, c := range it.Connections(minConnection) {
			points = math.Min(points, connectionQualityPoints[c.Quality])
		}
	}
	return points
}

func seatPoints(seats int) float64 {
	switch {
	case seats >= 20:
		return 5
	case seats >= 10:
		return 4
	case seats >= 5:
		return 3
	case seats >= 2:
		return 2
	case seats == 1:
		return 1
	default:
		return unknownSeatPoints
	}
}

func dealTier(score float64) string {
	switch {
	case score >= 90:
		return TierExcellent
	case score >= 75:
		return TierGreat
	case score >= 60:
		return TierGood
	default:
		return TierFair
	}
}

// assignBadges labels offers by their standing in the set. Single-winner
// badges go to one offer, ties broken by price then ID.
func assignBadges(offers []domain.Offer) {
	best, cheapest, fastest := 0, 0, 0
	for i := 1; i < len(offers); i++ {
		if offers[i].Score > offers[best].Score ||
			(offers[i].Score == offers[best].Score && cheaperThan(&offers[i], &offers[best])) {
			best = i
		}
		if cheaperThan(&offers[i], &offers[cheapest]) {
			cheapest = i
		}
		di, df := offers[i].TotalDuration(), offers[fastest].TotalDuration()
		if di < df || (di == df && cheaperThan(&offers[i], &offers[fastest])) {
			fastest = i
		}
	}

	offers[best].Badges = append(offers[best].Badges, BadgeBestValue)
	offers[cheapest].Badges = append(offers[cheapest].Badges, BadgeLowestPrice)
	offers[fastest].Badges = append(offers[fastest].Badges, BadgeFastest)

	for i := range offers {
		o := &offers[i]
		if o.IsDirect() {
			o.Badges = append(o.Badges, BadgeDirect)
		}
		if o.Mixed != nil {
			o.Badges = append(o.Badges, BadgeSeparateTickets)
		}
		if len(o.Itineraries) > 0 {
			if h := o.Itineraries[0].Departure().Hour(); h >= 6 && h < 12 {
				o.Badges = append(o.Badges, BadgeConvenientTime)
			}
		}
	}
}

func cheaperThan(a, b *domain.Offer) bool {
	if a.Price.Total != b.Price.Total {
		return a.Price.Total < b.Price.Total
	}
	return a.ID < b.ID
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// overallScores computes the normalized weighted score of every offer:
//
//	Score = (0.5 × NormalizedPrice) + (0.3 × NormalizedDuration) + (0.2 × NormalizedStops)
//
// Normalized values are in [0, 1] with 0 as best, so lower is better.
func overallScores(offers []domain.Offer) map[string]float64 {
	scores := make(map[string]float64, len(offers))
	if len(offers) == 0 {
		return scores
	}

	minPrice, maxPrice := math.MaxFloat64, 0.0
	minDuration, maxDuration := math.MaxInt, 0
	minStops, maxStops := math.MaxInt, 0
	for i := range offers {
		p, d, s := offers[i].Price.Total, offers[i].TotalDuration(), offers[i].TotalStops()
		minPrice, maxPrice = math.Min(minPrice, p), math.Max(maxPrice, p)
		minDuration, maxDuration = min(minDuration, d), max(maxDuration, d)
		minStops, maxStops = min(minStops, s), max(maxStops, s)
	}

	for i := range offers {
		o := &offers[i]
		scores[o.ID] = weightPrice*normalizeValue(o.Price.Total, minPrice, maxPrice) +
			weightDuration*normalizeValue(float64(o.TotalDuration()), float64(minDuration), float64(maxDuration)) +
			weightStops*normalizeValue(float64(o.TotalStops()), float64(minStops), float64(maxStops))
	}
	return scores
}

// normalizeValue normalizes a value to the range [0, 1] based on min and max.
// Returns 0 when min == max (all values equal = all optimal).
func normalizeValue(value, min, max float64) float64 {
	if max == min {
		return 0
	}
	return (value - min) / (max - min)
}

// SortOffers returns a sorted copy of offers. Scores must already be computed.
//
// Sort options:
//   - SortByBest (default): descending by deal score
//   - SortByCheapest: ascending by customer price
//   - SortByFastest: ascending by total duration
//   - SortByOverall: ascending by the weighted price/duration/stops balance
//
// Ties fall back to price, then ID, so the order is deterministic.
func SortOffers(offers []domain.Offer, sortBy domain.SortOption) []domain.Offer {
	result := make([]domain.Offer, len(offers))
	copy(result, offers)
	if len(result) < 2 {
		return result
	}

	if !sortBy.IsValid() {
		sortBy = domain.SortByBest
	}

	var primary func(a, b *domain.Offer) int
	switch sortBy {
	case domain.SortByBest:
		primary = func(a, b *domain.Offer) int { return compareFloat(b.Score, a.Score) }
	case domain.SortByCheapest:
		primary = func(a, b *domain.Offer) int { return 0 }
	case domain.SortByFastest:
		primary = func(a, b *domain.Offer) int { return a.TotalDuration() - b.TotalDuration() }
	case domain.SortByOverall:
		scores := overallScores(result)
		primary = func(a, b *domain.Offer) int { return compareFloat(scores[a.ID], scores[b.ID]) }
	}

	sort.SliceStable(result, func(i, j int) bool {
		if c := primary(&result[i], &result[j]); c != 0 {
			return c < 0
		}
		return cheaperThan(&result[i], &result[j])
	})
	return result
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
