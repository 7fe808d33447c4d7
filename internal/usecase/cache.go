package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/flight-search/offer-aggregation-engine/internal/domain"
	"github.com/flight-search/offer-aggregation-engine/internal/infrastructure/cache"
	"github.com/flight-search/offer-aggregation-engine/internal/infrastructure/logger"
	"github.com/flight-search/offer-aggregation-engine/internal/infrastructure/metrics"
	"github.com/flight-search/offer-aggregation-engine/internal/infrastructure/timeutil"
)

// Cache key namespaces. The version segment is bumped when a payload shape changes.
const (
	searchKeyPrefix     = "search:v2:"
	oneWayKeyPrefix     = "oneway:v1:"
	popularityKeyPrefix = "popularity:v1:"
	lowPriceKeyPrefix   = "lowprice:v2:"
	routingKeyPrefix    = "routing:v1:"

	popularityWindow = 48 * time.Hour
)

// canonicalSearch is the cache identity of a search. Sort order is absent on
// purpose: every ordering is served from the same entry.
type canonicalSearch struct {
	Origins         []string              `json:"o"`
	Destinations    []string              `json:"d"`
	DepartureDates  []string              `json:"dd"`
	ReturnDates     []string              `json:"rd,omitempty"`
	Adults          int                   `json:"a"`
	Children        int                   `json:"c"`
	Infants         int                   `json:"i"`
	Cabin           domain.CabinClass     `json:"cab"`
	NonStop         bool                  `json:"ns"`
	Currency        string                `json:"cur"`
	MaxResults      int                   `json:"max"`
	DepartureFlex   int                   `json:"flex,omitempty"`
	TripDuration    int                   `json:"dur,omitempty"`
	SeparateTickets *bool                 `json:"sep,omitempty"`
	Filters         *domain.FilterOptions `json:"f,omitempty"`
}

// SearchKey derives the cache key of normalized criteria.
// Airport and date lists are order-insensitive.
func SearchKey(c domain.SearchCriteria) string {
	canon := canonicalSearch{
		Origins:         sortedCopy(c.Origins),
		Destinations:    sortedCopy(c.Destinations),
		DepartureDates:  sortedCopy(c.DepartureDates),
		ReturnDates:     sortedCopy(c.ReturnDates),
		Adults:          c.Adults,
		Children:        c.Children,
		Infants:         c.Infants,
		Cabin:           c.CabinClass,
		NonStop:         c.NonStop,
		Currency:        strings.ToUpper(c.Currency),
		MaxResults:      c.MaxResults,
		DepartureFlex:   c.DepartureFlex,
		TripDuration:    c.TripDuration,
		SeparateTickets: c.IncludeSeparateTickets,
	}
	if !c.Filters.IsEmpty() {
		f := *c.Filters
		f.Airlines = sortedCopy(upperAll(f.Airlines))
		canon.Filters = &f
	}

	// marshal of a plain struct cannot fail
	raw, _ := json.Marshal(canon)
	sum := sha256.Sum256(raw)
	return searchKeyPrefix + hex.EncodeToString(sum[:])
}

func sortedCopy(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}

func upperAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToUpper(s)
	}
	return out
}

func routeKey(prefix, origin, destination, date string) string {
	return fmt.Sprintf("%s%s-%s:%s", prefix, origin, destination, date)
}

// CacheManager owns every cached artifact of the pipeline. Store failures
// degrade to a miss: the cache never fails a search.
type CacheManager struct {
	store    cache.Store
	ttl      TTLPolicy
	calendar *timeutil.Calendar
	recorder *metrics.Recorder
	log      zerolog.Logger
}

// NewCacheManager creates a CacheManager over store.
func NewCacheManager(store cache.Store, ttl TTLPolicy, calendar *timeutil.Calendar, recorder *metrics.Recorder, log zerolog.Logger) *CacheManager {
	return &CacheManager{store: store, ttl: ttl, calendar: calendar, recorder: recorder, log: log}
}

func (m *CacheManager) getJSON(ctx context.Context, name, key string, v interface{}) bool {
	raw, err := m.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			log := logger.FromContext(ctx, m.log)
			log.Warn().Err(err).Str("key", key).Msg("cache read failed, treating as miss")
		}
		m.recorder.CacheLookup(name, "miss")
		return false
	}
	if err := json.Unmarshal(raw, v); err != nil {
		log := logger.FromContext(ctx, m.log)
		log.Warn().Err(err).Str("key", key).Msg("cache entry undecodable, treating as miss")
		m.recorder.CacheLookup(name, "miss")
		return false
	}
	m.recorder.CacheLookup(name, "hit")
	return true
}

func (m *CacheManager) setJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) {
	raw, err := json.Marshal(v)
	if err != nil {
		log := logger.FromContext(ctx, m.log)
		log.Error().Err(err).Str("key", key).Msg("cache encode failed")
		return
	}
	if err := m.store.Set(ctx, key, raw, ttl); err != nil {
		log := logger.FromContext(ctx, m.log)
		log.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}

// searchEntry is the stored form of a SearchResult. Offers go through
// cachedOffer so a hit still satisfies total == net + markup.
type searchEntry struct {
	domain.SearchResult
	Offers []cachedOffer `json:"offers"`
}

// GetSearch returns the cached result of a search key.
func (m *CacheManager) GetSearch(ctx context.Context, key string) (*domain.SearchResult, bool) {
	var entry searchEntry
	if !m.getJSON(ctx, "search", key, &entry) {
		return nil, false
	}
	res := entry.SearchResult
	res.Offers = fromCachedOffers(entry.Offers)
	return &res, true
}

// StoreSearch caches a result for ttl.
func (m *CacheManager) StoreSearch(ctx context.Context, key string, res *domain.SearchResult, ttl time.Duration) {
	m.setJSON(ctx, key, searchEntry{SearchResult: *res, Offers: toCachedOffers(res.Offers)}, ttl)
}

// oneWayEntry is the stored form of the unpriced offers of one leg.
type oneWayEntry struct {
	Offers []cachedOffer `json:"offers"`
}

// cachedOffer keeps the internal pricing fields the client payload omits.
type cachedOffer struct {
	domain.Offer
	Net                float64            `json:"net"`
	Markup             *domain.MarkupInfo `json:"markup,omitempty"`
	CommissionEmbedded bool               `json:"commissionEmbedded"`
}

func toCachedOffers(offers []domain.Offer) []cachedOffer {
	out := make([]cachedOffer, len(offers))
	for i, o := range offers {
		out[i] = cachedOffer{Offer: o, Net: o.Net, Markup: o.Markup, CommissionEmbedded: o.CommissionEmbedded}
	}
	return out
}

func fromCachedOffers(entries []cachedOffer) []domain.Offer {
	out := make([]domain.Offer, len(entries))
	for i, c := range entries {
		out[i] = c.Offer
		out[i].Net = c.Net
		out[i].Markup = c.Markup
		out[i].CommissionEmbedded = c.CommissionEmbedded
	}
	return out
}

// GetOneWay returns cached one-way offers for a leg.
func (m *CacheManager) GetOneWay(ctx context.Context, leg domain.SubSearch) ([]domain.Offer, bool) {
	var entry oneWayEntry
	if !m.getJSON(ctx, "oneway", oneWayKeyPrefix+leg.Key(), &entry) {
		return nil, false
	}
	return fromCachedOffers(entry.Offers), true
}

// StoreOneWay caches the unpriced one-way offers of a leg.
func (m *CacheManager) StoreOneWay(ctx context.Context, leg domain.SubSearch, offers []domain.Offer, ttl time.Duration) {
	m.setJSON(ctx, oneWayKeyPrefix+leg.Key(), oneWayEntry{Offers: toCachedOffers(offers)}, ttl)
}

// TrackPopularity counts a search of the route on date within a rolling window
// and returns the count so far. Failures count as zero.
func (m *CacheManager) TrackPopularity(ctx context.Context, origin, destination, date string) int64 {
	n, err := m.store.Incr(ctx, routeKey(popularityKeyPrefix, origin, destination, date), popularityWindow)
	if err != nil {
		log := logger.FromContext(ctx, m.log)
		log.Warn().Err(err).Msg("popularity counter failed")
		return 0
	}
	return n
}

// UpdateLowestPrices records the cheapest one-way offer per route and date,
// replacing a stored price only when strictly lower. Round-trip totals cover
// two flights and are skipped so the calendar compares like with like.
func (m *CacheManager) UpdateLowestPrices(ctx context.Context, offers []domain.Offer) {
	now := m.calendar.Now()
	best := make(map[string]domain.LowestPrice)
	for i := range offers {
		o := &offers[i]
		if len(o.Itineraries) != 1 {
			continue
		}
		out := o.Itineraries[0]
		lp := domain.LowestPrice{
			Origin:      out.Origin(),
			Destination: out.Destination(),
			Date:        out.Departure().Format(domain.DateLayout),
			Price:       o.Price.Total,
			Currency:    o.Price.Currency,
			OfferID:     o.ID,
			ObservedAt:  now,
		}
		key := routeKey(lowPriceKeyPrefix, lp.Origin, lp.Destination, lp.Date)
		if cur, ok := best[key]; !ok || lp.Price < cur.Price {
			best[key] = lp
		}
	}

	for key, lp := range best {
		var stored domain.LowestPrice
		if m.getJSON(ctx, "lowprice", key, &stored) && stored.Price <= lp.Price {
			continue
		}
		days, err := m.calendar.DaysUntil(lp.Date)
		if err != nil {
			continue
		}
		m.setJSON(ctx, key, lp, m.ttl.Seasonal(days))
	}
}

// LowestPrice returns the stored lowest price of a route on date.
func (m *CacheManager) LowestPrice(ctx context.Context, origin, destination, date string) (domain.LowestPrice, bool) {
	var lp domain.LowestPrice
	ok := m.getJSON(ctx, "lowprice", routeKey(lowPriceKeyPrefix, origin, destination, date), &lp)
	return lp, ok
}

// StoreRouting saves the routing decisions of a search session.
func (m *CacheManager) StoreRouting(ctx context.Context, sessionID string, decisions map[string]domain.RoutingDecision, ttl time.Duration) {
	m.setJSON(ctx, routingKeyPrefix+sessionID, decisions, ttl)
}

// LookupRouting returns the decision for one offer of a session.
func (m *CacheManager) LookupRouting(ctx context.Context, sessionID, offerID string) (*domain.RoutingDecision, error) {
	var decisions map[string]domain.RoutingDecision
	if !m.getJSON(ctx, "routing", routingKeyPrefix+sessionID, &decisions) {
		return nil, domain.ErrRoutingNotFound
	}
	d, ok := decisions[offerID]
	if !ok {
		return nil, domain.ErrRoutingNotFound
	}
	return &d, nil
}
