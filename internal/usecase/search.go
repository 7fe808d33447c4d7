package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/flight-search/offer-aggregation-engine/internal/domain"
	"github.com/flight-search/offer-aggregation-engine/internal/infrastructure/cache"
	"github.com/flight-search/offer-aggregation-engine/internal/infrastructure/logger"
	"github.com/flight-search/offer-aggregation-engine/internal/infrastructure/metrics"
	"github.com/flight-search/offer-aggregation-engine/internal/infrastructure/timeutil"
	"github.com/flight-search/offer-aggregation-engine/internal/infrastructure/tracing"
)

// Default pipeline limits.
const (
	DefaultGlobalTimeout   = 5 * time.Second
	DefaultProviderTimeout = 2 * time.Second
	DefaultMaxSubSearches  = 36
	DefaultFarFutureDays   = 330
	DefaultOneWayTTL       = 30 * time.Minute
	DefaultMinConnection   = 30 * time.Minute

	// MaxCalendarDays bounds the lowest-price calendar range
	MaxCalendarDays = 62
)

//go:generate mockgen -source=search.go -destination=mock_search.go -package=usecase

// OfferSearchUseCase defines the offer search operations.
type OfferSearchUseCase interface {
	// Search runs the full pipeline, or serves a cached result, and returns
	// offers ordered by opts.SortBy.
	Search(ctx context.Context, criteria domain.SearchCriteria, opts SearchOptions) (*domain.SearchResult, error)

	// LookupRouting returns the internal routing decision of an offer from a search session.
	LookupRouting(ctx context.Context, sessionID, offerID string) (*domain.RoutingDecision, error)

	// LowestPrices returns the cheapest observed price per date of a route within [from, to].
	LowestPrices(ctx context.Context, origin, destination, from, to string) ([]domain.LowestPrice, error)
}

// Config contains configuration options for the use case.
type Config struct {
	GlobalTimeout   time.Duration
	ProviderTimeout time.Duration

	// MaxSubSearches caps the route/date cross-product of one request
	MaxSubSearches int

	// FarFutureDays is the horizon past which empty results are blamed on unpublished schedules
	FarFutureDays int

	// OneWayTTL is the lifetime of cached one-way legs used by the combiner
	OneWayTTL time.Duration

	// MinConnection is the shortest legal layover
	MinConnection time.Duration

	// MultiVariantSources return one offer per fare brand of the same flight
	MultiVariantSources []string

	Markup   MarkupPolicy
	Routing  RoutingConfig
	Combiner CombinerConfig
	TTL      TTLPolicy
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		GlobalTimeout:       DefaultGlobalTimeout,
		ProviderTimeout:     DefaultProviderTimeout,
		MaxSubSearches:      DefaultMaxSubSearches,
		FarFutureDays:       DefaultFarFutureDays,
		OneWayTTL:           DefaultOneWayTTL,
		MinConnection:       DefaultMinConnection,
		MultiVariantSources: []string{"duffel"},
		Markup:              DefaultMarkupPolicy(),
		Routing:             DefaultRoutingConfig(),
		Combiner:            DefaultCombinerConfig(),
		TTL:                 DefaultTTLPolicy(),
	}
}

// Dependencies are the collaborators of the use case.
type Dependencies struct {
	Providers []domain.OfferProvider

	// Store backs every cache; nil uses an in-process store
	Store cache.Store

	// Rates is the commission table; nil applies the default commission everywhere
	Rates domain.CommissionRateSource

	// Calendar answers "days until departure"; nil uses UTC wall time
	Calendar *timeutil.Calendar

	Recorder *metrics.Recorder
	Logger   zerolog.Logger
}

type offerSearchUseCase struct {
	cfg          Config
	providers    []domain.OfferProvider
	multiVariant map[string]bool
	calendar     *timeutil.Calendar
	recorder     *metrics.Recorder
	log          zerolog.Logger

	cache    *CacheManager
	fanout   *FanOut
	combiner *Combiner
	routing  *RoutingEngine
	searches *Coalescer[*domain.SearchResult]
}

// NewOfferSearchUseCase creates an OfferSearchUseCase.
// If config is nil, DefaultConfig is used; zero timeouts and limits in a given
// config fall back to their defaults.
func NewOfferSearchUseCase(deps Dependencies, config *Config) OfferSearchUseCase {
	cfg := DefaultConfig()
	if config != nil {
		cfg = *config
		def := DefaultConfig()
		if cfg.GlobalTimeout <= 0 {
			cfg.GlobalTimeout = def.GlobalTimeout
		}
		if cfg.ProviderTimeout <= 0 {
			cfg.ProviderTimeout = def.ProviderTimeout
		}
		if cfg.MaxSubSearches <= 0 {
			cfg.MaxSubSearches = def.MaxSubSearches
		}
		if cfg.FarFutureDays <= 0 {
			cfg.FarFutureDays = def.FarFutureDays
		}
		if cfg.OneWayTTL <= 0 {
			cfg.OneWayTTL = def.OneWayTTL
		}
		if cfg.MinConnection <= 0 {
			cfg.MinConnection = def.MinConnection
		}
		if cfg.TTL.Base <= 0 {
			cfg.TTL = def.TTL
		}
	}

	calendar := deps.Calendar
	if calendar == nil {
		calendar = timeutil.NewCalendar(timeutil.NewRealClock(), "UTC")
	}
	store := deps.Store
	if store == nil {
		store = cache.NewMemoryStore(timeutil.NewRealClock())
	}

	multiVariant := make(map[string]bool, len(cfg.MultiVariantSources))
	for _, src := range cfg.MultiVariantSources {
		multiVariant[src] = true
	}

	log := deps.Logger
	return &offerSearchUseCase{
		cfg:          cfg,
		providers:    deps.Providers,
		multiVariant: multiVariant,
		calendar:     calendar,
		recorder:     deps.Recorder,
		log:          log,
		cache:        NewCacheManager(store, cfg.TTL, calendar, deps.Recorder, log),
		fanout:       NewFanOut(deps.Providers, cfg.ProviderTimeout, cfg.GlobalTimeout, deps.Recorder, log),
		combiner:     NewCombiner(cfg.Combiner, deps.Recorder, log),
		routing:      NewRoutingEngine(cfg.Routing, deps.Rates, deps.Recorder, log),
		searches:     NewCoalescer[*domain.SearchResult](cfg.GlobalTimeout),
	}
}

// Search implements OfferSearchUseCase.Search.
func (uc *offerSearchUseCase) Search(ctx context.Context, criteria domain.SearchCriteria, opts SearchOptions) (*domain.SearchResult, error) {
	startTime := time.Now()

	criteria.SetDefaults()
	if err := criteria.Validate(); err != nil {
		return nil, err
	}
	subs, err := criteria.Expand(uc.cfg.MaxSubSearches)
	if err != nil {
		return nil, err
	}

	key := SearchKey(criteria)
	log := logger.FromContext(ctx, uc.log).With().Str("search_key", shortKey(key)).Logger()
	ctx = logger.IntoContext(ctx, log)

	popularity := uc.trackPopularity(ctx, subs)

	if !criteria.ForceRefresh {
		if cached, ok := uc.cache.GetSearch(ctx, key); ok {
			cached.Metadata.CacheHit = true
			cached.Metadata.SearchTimeMs = time.Since(startTime).Milliseconds()
			uc.recorder.SearchDuration("hit", time.Since(startTime))
			log.Debug().Int("offers", len(cached.Offers)).Msg("search served from cache")
			return present(cached, opts.SortBy, criteria.MaxResults), nil
		}
	}

	res, shared, err := uc.searches.Do(ctx, key, func(callCtx context.Context) (*domain.SearchResult, error) {
		return uc.runPipeline(callCtx, key, criteria, subs, popularity)
	})
	if shared {
		uc.recorder.Coalesced("search")
	}
	if err != nil {
		log.Warn().Err(err).Msg("search failed")
		return nil, err
	}

	out := *res
	out.Metadata.SearchTimeMs = time.Since(startTime).Milliseconds()
	uc.recorder.SearchDuration("miss", time.Since(startTime))
	return present(&out, opts.SortBy, criteria.MaxResults), nil
}

// runPipeline produces, caches and returns the canonical result of a search.
// Offers are stored ranked by deal score; callers re-sort a copy.
func (uc *offerSearchUseCase) runPipeline(ctx context.Context, key string, criteria domain.SearchCriteria, subs []domain.SubSearch, popularity int64) (res *domain.SearchResult, err error) {
	ctx, span := tracing.Start(ctx, "search.pipeline", attribute.Int("sub_searches", len(subs)))
	defer func() { tracing.End(span, err) }()
	log := logger.FromContext(ctx, uc.log)

	fan, err := uc.fanout.Run(ctx, subs)
	if err != nil {
		return nil, err
	}

	offers := FilterValid(fan.Offers, uc.cfg.MinConnection)
	offers = Deduplicate(GroupFareFamilies(offers, uc.multiVariant))

	offers, mixed := uc.combiner.Run(ctx, &criteria, subs, offers, oneWaySource{uc: uc})

	offers = uc.cfg.Markup.PriceAll(offers)
	if criteria.NonStop {
		direct := 0
		offers = FilterByMaxStops(offers, &direct)
	}
	offers = ApplyFilters(offers, criteria.Filters)
	offers = SortOffers(ScoreOffers(offers, uc.cfg.MinConnection), domain.SortByBest)

	decisions := uc.routing.RouteAll(ctx, offers, Travelers{
		Adults:   criteria.Adults,
		Children: criteria.Children,
		Infants:  criteria.Infants,
	})

	days := uc.daysUntilDeparture(criteria)
	providerFactor := uc.cfg.TTL.ProviderMultiplier(fan.ProvidersSucceeded, uc.providerLatency)
	ttl := uc.cfg.TTL.Compute(days, popularity, providerFactor)

	res = &domain.SearchResult{
		Offers: offers,
		Metadata: domain.SearchMetadata{
			TotalResults:       len(offers),
			Criteria:           criteria,
			SubSearches:        len(subs),
			ProvidersQueried:   fan.ProvidersQueried,
			ProvidersSucceeded: fan.ProvidersSucceeded,
			ProvidersFailed:    fan.ProvidersFailed,
			CachedAt:           uc.calendar.Now(),
			TTLSeconds:         int64(ttl.Seconds()),
		},
		Mixed:            mixed,
		RoutingSessionID: uuid.NewString(),
	}
	if len(offers) == 0 {
		res.Diagnostic = uc.diagnose(criteria, days)
	}

	uc.cache.StoreSearch(ctx, key, res, ttl)
	uc.cache.StoreRouting(ctx, res.RoutingSessionID, decisions, ttl)
	uc.cache.UpdateLowestPrices(ctx, offers)

	log.Info().
		Int("offers", len(offers)).
		Int("routed", len(decisions)).
		Strs("providers_failed", fan.ProvidersFailed).
		Dur("ttl", ttl).
		Msg("search completed")
	return res, nil
}

// present returns a sorted, truncated copy of a stored result.
func present(res *domain.SearchResult, sortBy domain.SortOption, limit int) *domain.SearchResult {
	out := *res
	out.Offers = SortOffers(res.Offers, sortBy)
	if limit > 0 && len(out.Offers) > limit {
		out.Offers = out.Offers[:limit]
	}
	out.Metadata.TotalResults = len(out.Offers)
	return &out
}

func shortKey(key string) string {
	k := key[len(searchKeyPrefix):]
	if len(k) > 12 {
		return k[:12]
	}
	return k
}

// trackPopularity counts the search against every route and date it covers and
// returns the busiest count.
func (uc *offerSearchUseCase) trackPopularity(ctx context.Context, subs []domain.SubSearch) int64 {
	seen := make(map[string]bool, len(subs))
	var busiest int64
	for _, s := range subs {
		id := s.Origin + s.Destination + s.DepartureDate
		if seen[id] {
			continue
		}
		seen[id] = true
		if n := uc.cache.TrackPopularity(ctx, s.Origin, s.Destination, s.DepartureDate); n > busiest {
			busiest = n
		}
	}
	return busiest
}

func (uc *offerSearchUseCase) daysUntilDeparture(criteria domain.SearchCriteria) int {
	earliest := criteria.EarliestDeparture()
	if earliest.IsZero() {
		return 0
	}
	days, err := uc.calendar.DaysUntil(earliest.Format(domain.DateLayout))
	if err != nil {
		return 0
	}
	return days
}

func (uc *offerSearchUseCase) providerLatency(provider string) (time.Duration, bool) {
	stats, ok := uc.recorder.ProviderStats(provider)
	if !ok || stats.Calls == 0 {
		return 0, false
	}
	return stats.LatencyEWMA, true
}

// diagnose explains an empty result.
func (uc *offerSearchUseCase) diagnose(criteria domain.SearchCriteria, days int) string {
	switch {
	case days > uc.cfg.FarFutureDays:
		return fmt.Sprintf("Departure is %d days out; airlines usually publish schedules about %d days ahead.", days, uc.cfg.FarFutureDays)
	case criteria.NonStop:
		return "No non-stop flights found for this route; try allowing connections."
	case !criteria.Filters.IsEmpty():
		return "No offers match the selected filters; try relaxing them."
	default:
		return "No offers found; the route likely has limited airline inventory on these dates."
	}
}

// LookupRouting implements OfferSearchUseCase.LookupRouting.
func (uc *offerSearchUseCase) LookupRouting(ctx context.Context, sessionID, offerID string) (*domain.RoutingDecision, error) {
	if sessionID == "" {
		return nil, domain.NewValidationError("sessionId", "is required")
	}
	if offerID == "" {
		return nil, domain.NewValidationError("offerId", "is required")
	}
	return uc.cache.LookupRouting(ctx, sessionID, offerID)
}

// LowestPrices implements OfferSearchUseCase.LowestPrices.
func (uc *offerSearchUseCase) LowestPrices(ctx context.Context, origin, destination, from, to string) ([]domain.LowestPrice, error) {
	o, ok := domain.ExtractAirportCode(origin)
	if !ok {
		return nil, domain.NewValidationError("origin", "must be a valid 3-letter IATA code")
	}
	d, ok := domain.ExtractAirportCode(destination)
	if !ok {
		return nil, domain.NewValidationError("destination", "must be a valid 3-letter IATA code")
	}
	start, err := time.Parse(domain.DateLayout, from)
	if err != nil {
		return nil, domain.NewValidationError("from", "must be in YYYY-MM-DD format")
	}
	end, err := time.Parse(domain.DateLayout, to)
	if err != nil {
		return nil, domain.NewValidationError("to", "must be in YYYY-MM-DD format")
	}
	if end.Before(start) {
		return nil, domain.NewValidationError("to", "must not be before from")
	}
	if int(end.Sub(start).Hours()/24) >= MaxCalendarDays {
		return nil, domain.NewValidationError("to", fmt.Sprintf("range cannot exceed %d days", MaxCalendarDays))
	}

	prices := []domain.LowestPrice{}
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		if lp, found := uc.cache.LowestPrice(ctx, o, d, day.Format(domain.DateLayout)); found {
			prices = append(prices, lp)
		}
	}
	return prices, nil
}

// oneWaySource serves combiner legs from the one-way cache, falling back to a fan-out.
type oneWaySource struct {
	uc *offerSearchUseCase
}

func (s oneWaySource) Cached(ctx context.Context, leg domain.SubSearch) bool {
	_, ok := s.uc.cache.GetOneWay(ctx, leg)
	return ok
}

func (s oneWaySource) Search(ctx context.Context, leg domain.SubSearch) ([]domain.Offer, error) {
	if offers, ok := s.uc.cache.GetOneWay(ctx, leg); ok {
		return offers, nil
	}
	fan, err := s.uc.fanout.Run(ctx, []domain.SubSearch{leg})
	if err != nil {
		return nil, err
	}
	offers := FilterValid(fan.Offers, s.uc.cfg.MinConnection)
	offers = Deduplicate(GroupFareFamilies(offers, s.uc.multiVariant))
	s.uc.cache.StoreOneWay(ctx, leg, offers, s.uc.cfg.OneWayTTL)
	return offers, nil
}
