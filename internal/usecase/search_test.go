package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/flight-search/offer-aggregation-engine/internal/domain"
	"github.com/flight-search/offer-aggregation-engine/internal/infrastructure/cache"
	"github.com/flight-search/offer-aggregation-engine/internal/infrastructure/metrics"
	"github.com/flight-search/offer-aggregation-engine/internal/infrastructure/timeutil"
)

func newTestUseCase(t *testing.T, providers []domain.OfferProvider, cfg *Config) OfferSearchUseCase {
	t.Helper()
	clock := timeutil.NewMockClock(time.Date(2026, 11, 1, 12, 0, 0, 0, time.UTC))
	return NewOfferSearchUseCase(Dependencies{
		Providers: providers,
		Store:     cache.NewMemoryStore(clock),
		Calendar:  timeutil.NewCalendar(clock, "UTC"),
		Recorder:  metrics.NewRecorder(prometheus.NewRegistry()),
		Logger:    zerolog.Nop(),
	}, cfg)
}

func oneWayCriteria() domain.SearchCriteria {
	return domain.SearchCriteria{
		Origins:        []string{"JFK"},
		Destinations:   []string{"MIA"},
		DepartureDates: []string{"2026-12-01"},
		Adults:         1,
	}
}

func TestNewOfferSearchUseCase_Defaults(t *testing.T) {
	uc := NewOfferSearchUseCase(Dependencies{Logger: zerolog.Nop()}, nil).(*offerSearchUseCase)
	assert.Equal(t, DefaultGlobalTimeout, uc.cfg.GlobalTimeout)
	assert.Equal(t, DefaultProviderTimeout, uc.cfg.ProviderTimeout)
	assert.True(t, uc.multiVariant["duffel"])

	custom := Config{GlobalTimeout: 10 * time.Second}
	uc = NewOfferSearchUseCase(Dependencies{Logger: zerolog.Nop()}, &custom).(*offerSearchUseCase)
	assert.Equal(t, 10*time.Second, uc.cfg.GlobalTimeout)
	assert.Equal(t, DefaultProviderTimeout, uc.cfg.ProviderTimeout)
	assert.Equal(t, DefaultMaxSubSearches, uc.cfg.MaxSubSearches)
}

func TestDefaultSearchOptions(t *testing.T) {
	assert.Equal(t, domain.SortByBest, DefaultSearchOptions().SortBy)
}

func TestSearch_PricesAndSortsCheapest(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := setupMockProvider(ctrl, "amadeus", []domain.Offer{
		oneWay("dl", "DL", "2", 300, 12),
		oneWay("aa", "AA", "1", 200, 8),
	}, nil)

	uc := newTestUseCase(t, []domain.OfferProvider{p}, nil)
	res, err := uc.Search(context.Background(), oneWayCriteria(), SearchOptions{SortBy: domain.SortByCheapest})

	require.NoError(t, err)
	require.Len(t, res.Offers, 2)
	assert.Equal(t, []string{"aa", "dl"}, idsOf(res.Offers))
	assert.Equal(t, 222.0, res.Offers[0].Price.Total)
	assert.Equal(t, 322.0, res.Offers[1].Price.Total)
	for _, o := range res.Offers {
		require.NotNil(t, o.Markup)
		assert.Equal(t, o.Net+o.Markup.Amount, o.Price.Total)
	}

	assert.False(t, res.Metadata.CacheHit)
	assert.Equal(t, 2, res.Metadata.TotalResults)
	assert.Equal(t, 1, res.Metadata.SubSearches)
	assert.Equal(t, []string{"amadeus"}, res.Metadata.ProvidersSucceeded)
	assert.Nil(t, res.Mixed)
	assert.Empty(t, res.Diagnostic)
	assert.NotEmpty(t, res.RoutingSessionID)

	d, err := uc.LookupRouting(context.Background(), res.RoutingSessionID, "aa")
	require.NoError(t, err)
	assert.Equal(t, domain.ChannelProviderDirect, d.Channel)
	assert.Equal(t, ReasonUnder500Direct, d.Reason)
}

func TestSearch_DeduplicatesAcrossProviders(t *testing.T) {
	ctrl := gomock.NewController(t)
	fromAmadeus := oneWay("am-1", "AA", "100", 395, 8)
	fromDuffel := oneWay("off_1", "AA", "100", 410, 8)
	fromDuffel.Source = "duffel"

	a := setupMockProvider(ctrl, "amadeus", []domain.Offer{fromAmadeus}, nil)
	d := setupMockProvider(ctrl, "duffel", []domain.Offer{fromDuffel}, nil)

	uc := newTestUseCase(t, []domain.OfferProvider{a, d}, nil)
	res, err := uc.Search(context.Background(), oneWayCriteria(), DefaultSearchOptions())

	require.NoError(t, err)
	require.Len(t, res.Offers, 1)
	assert.Equal(t, "am-1", res.Offers[0].ID)
	assert.Equal(t, 395.0, res.Offers[0].Net)
	assert.Equal(t, 422.65, res.Offers[0].Price.Total)
}

func TestSearch_CacheHitServesEverySort(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := domain.NewMockOfferProvider(ctrl)
	p.EXPECT().Name().Return("amadeus").AnyTimes()
	p.EXPECT().Search(gomock.Any(), gomock.Any()).Return([]domain.Offer{
		oneWay("dl", "DL", "2", 300, 12),
		oneWay("aa", "AA", "1", 200, 8),
	}, nil).Times(1)

	uc := newTestUseCase(t, []domain.OfferProvider{p}, nil)
	ctx := context.Background()

	first, err := uc.Search(ctx, oneWayCriteria(), SearchOptions{SortBy: domain.SortByCheapest})
	require.NoError(t, err)

	second, err := uc.Search(ctx, oneWayCriteria(), SearchOptions{SortBy: domain.SortByCheapest})
	require.NoError(t, err)
	assert.True(t, second.Metadata.CacheHit)
	assert.Equal(t, idsOf(first.Offers), idsOf(second.Offers))
	assert.Equal(t, first.Offers[0].Price, second.Offers[0].Price)
	assert.Equal(t, first.RoutingSessionID, second.RoutingSessionID)
	for i, o := range second.Offers {
		assert.Equal(t, first.Offers[i].Net, o.Net, o.ID)
		require.NotNil(t, o.Markup, o.ID)
		assert.Equal(t, *first.Offers[i].Markup, *o.Markup, o.ID)
		assert.InDelta(t, o.Net+o.Markup.Amount, o.Price.Total, 0.001, "total == net + markup on a hit")
	}
	assert.Equal(t, 200.0, second.Offers[0].Net)

	fastest, err := uc.Search(ctx, oneWayCriteria(), SearchOptions{SortBy: domain.SortByFastest})
	require.NoError(t, err)
	assert.True(t, fastest.Metadata.CacheHit)
	assert.Len(t, fastest.Offers, 2)
}

func TestSearch_ForceRefreshBypassesCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := domain.NewMockOfferProvider(ctrl)
	p.EXPECT().Name().Return("amadeus").AnyTimes()
	p.EXPECT().Search(gomock.Any(), gomock.Any()).Return([]domain.Offer{oneWay("aa", "AA", "1", 200, 8)}, nil).Times(2)

	uc := newTestUseCase(t, []domain.OfferProvider{p}, nil)
	crit := oneWayCriteria()

	_, err := uc.Search(context.Background(), crit, DefaultSearchOptions())
	require.NoError(t, err)

	crit.ForceRefresh = true
	res, err := uc.Search(context.Background(), crit, DefaultSearchOptions())
	require.NoError(t, err)
	assert.False(t, res.Metadata.CacheHit)
}

func TestSearch_ConcurrentIdenticalSearchesCoalesce(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := domain.NewMockOfferProvider(ctrl)
	p.EXPECT().Name().Return("amadeus").AnyTimes()
	p.EXPECT().Search(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ domain.SubSearch) ([]domain.Offer, error) {
			time.Sleep(150 * time.Millisecond)
			return []domain.Offer{oneWay("aa", "AA", "1", 200, 8)}, nil
		},
	).Times(1)

	uc := newTestUseCase(t, []domain.OfferProvider{p}, nil)

	const callers = 4
	var wg sync.WaitGroup
	results := make([]*domain.SearchResult, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = uc.Search(context.Background(), oneWayCriteria(), DefaultSearchOptions())
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		require.Len(t, results[i].Offers, 1)
		assert.Equal(t, "aa", results[i].Offers[0].ID)
	}
}

func TestSearch_AllProvidersFail(t *testing.T) {
	ctrl := gomock.NewController(t)
	a := setupMockProvider(ctrl, "amadeus", nil, domain.NewProviderUnavailableError("amadeus"))
	d := setupMockProvider(ctrl, "duffel", nil, domain.NewProviderTimeoutError("duffel"))

	uc := newTestUseCase(t, []domain.OfferProvider{a, d}, nil)
	res, err := uc.Search(context.Background(), oneWayCriteria(), DefaultSearchOptions())

	assert.Nil(t, res)
	assert.True(t, domain.IsAllProvidersFailed(err))
}

func TestSearch_InvalidCriteriaNeverCallsProviders(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := domain.NewMockOfferProvider(ctrl)
	p.EXPECT().Name().Return("amadeus").AnyTimes()
	p.EXPECT().Search(gomock.Any(), gomock.Any()).Times(0)

	uc := newTestUseCase(t, []domain.OfferProvider{p}, nil)
	crit := oneWayCriteria()
	crit.Destinations = []string{"JFK"}

	_, err := uc.Search(context.Background(), crit, DefaultSearchOptions())
	assert.True(t, domain.IsInvalidRequest(err))
}

func TestSearch_EmptyResultDiagnostics(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*domain.SearchCriteria)
		want   string
	}{
		{
			name:   "far future date",
			modify: func(c *domain.SearchCriteria) { c.DepartureDates = []string{"2027-11-01"} },
			want:   "days out",
		},
		{
			name:   "non-stop requested",
			modify: func(c *domain.SearchCriteria) { c.NonStop = true },
			want:   "non-stop",
		},
		{
			name:   "otherwise limited inventory",
			modify: func(c *domain.SearchCriteria) {},
			want:   "limited airline inventory",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			p := setupMockProvider(ctrl, "amadeus", []domain.Offer{}, nil)
			uc := newTestUseCase(t, []domain.OfferProvider{p}, nil)

			crit := oneWayCriteria()
			tt.modify(&crit)
			res, err := uc.Search(context.Background(), crit, DefaultSearchOptions())

			require.NoError(t, err)
			assert.Empty(t, res.Offers)
			assert.Contains(t, res.Diagnostic, tt.want)
		})
	}
}

func TestSearch_NonStopDropsConnections(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := setupMockProvider(ctrl, "amadeus", []domain.Offer{
		oneWay("direct", "AA", "1", 300, 8),
		oneStop("connecting", 200, 9, 60),
	}, nil)

	uc := newTestUseCase(t, []domain.OfferProvider{p}, nil)
	crit := oneWayCriteria()
	crit.NonStop = true

	res, err := uc.Search(context.Background(), crit, DefaultSearchOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{"direct"}, idsOf(res.Offers))
}

func TestSearch_MaxResultsTruncates(t *testing.T) {
	ctrl := gomock.NewController(t)
	var offers []domain.Offer
	for i := 0; i < 5; i++ {
		offers = append(offers, oneWay(string(rune('a'+i)), "AA", string(rune('a'+i)), 200+float64(i*10), 8+i))
	}
	p := setupMockProvider(ctrl, "amadeus", offers, nil)

	uc := newTestUseCase(t, []domain.OfferProvider{p}, nil)
	crit := oneWayCriteria()
	crit.MaxResults = 3

	res, err := uc.Search(context.Background(), crit, SearchOptions{SortBy: domain.SortByCheapest})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, idsOf(res.Offers))
	assert.Equal(t, 3, res.Metadata.TotalResults)
}

func TestSearch_SeparateTicketsBeatRoundTripFloor(t *testing.T) {
	ctrl := gomock.NewController(t)
	legs := cheapLegs()
	p := domain.NewMockOfferProvider(ctrl)
	p.EXPECT().Name().Return("amadeus").AnyTimes()
	p.EXPECT().Search(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, s domain.SubSearch) ([]domain.Offer, error) {
			if s.IsRoundTrip() {
				return strongSignalRoundTrips(), nil
			}
			return legs[s.Origin], nil
		},
	).Times(3)

	cfg := DefaultConfig()
	cfg.Markup = MarkupPolicy{}
	uc := newTestUseCase(t, []domain.OfferProvider{p}, &cfg)

	crit := oneWayCriteria()
	crit.ReturnDates = []string{"2026-12-08"}
	res, err := uc.Search(context.Background(), crit, SearchOptions{SortBy: domain.SortByCheapest})

	require.NoError(t, err)
	require.NotNil(t, res.Mixed)
	assert.True(t, res.Mixed.Executed)
	assert.Equal(t, 1, res.Mixed.CombinationsAdded)
	assert.Equal(t, 400.0, res.Mixed.CheapestRoundTrip)
	assert.Equal(t, 300.0, res.Mixed.CheapestMixed)

	require.Len(t, res.Offers, 3)
	cheapest := res.Offers[0]
	assert.Equal(t, MixedSource, cheapest.Source)
	assert.Equal(t, 300.0, cheapest.Price.Total)
	assert.Contains(t, cheapest.Badges, BadgeSeparateTickets)
	assert.Contains(t, cheapest.Badges, BadgeLowestPrice)
}

func TestLowestPrices(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := setupMockProvider(ctrl, "amadeus", []domain.Offer{
		oneWay("aa", "AA", "1", 200, 8),
		oneWay("dl", "DL", "2", 300, 12),
	}, nil)
	uc := newTestUseCase(t, []domain.OfferProvider{p}, nil)
	ctx := context.Background()

	_, err := uc.Search(ctx, oneWayCriteria(), DefaultSearchOptions())
	require.NoError(t, err)

	prices, err := uc.LowestPrices(ctx, "jfk", "MIA", "2026-11-30", "2026-12-02")
	require.NoError(t, err)
	require.Len(t, prices, 1)
	assert.Equal(t, "2026-12-01", prices[0].Date)
	assert.Equal(t, 222.0, prices[0].Price)
	assert.Equal(t, "aa", prices[0].OfferID)

	_, err = uc.LowestPrices(ctx, "JFK", "MIA", "2026-12-02", "2026-12-01")
	assert.True(t, domain.IsInvalidRequest(err))

	_, err = uc.LowestPrices(ctx, "JFK", "MIA", "2026-01-01", "2026-12-31")
	assert.True(t, domain.IsInvalidRequest(err))

	_, err = uc.LowestPrices(ctx, "Miami", "MIA", "2026-12-01", "2026-12-02")
	assert.True(t, domain.IsInvalidRequest(err))
}

func TestLookupRouting_Errors(t *testing.T) {
	uc := newTestUseCase(t, nil, nil)
	ctx := context.Background()

	_, err := uc.LookupRouting(ctx, "", "o1")
	assert.True(t, domain.IsInvalidRequest(err))

	_, err = uc.LookupRouting(ctx, "unknown", "o1")
	assert.ErrorIs(t, err, domain.ErrRoutingNotFound)
}
