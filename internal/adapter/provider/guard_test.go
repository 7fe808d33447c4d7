package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/flight-search/offer-aggregation-engine/internal/domain"
	"github.com/flight-search/offer-aggregation-engine/internal/infrastructure/metrics"
	"github.com/flight-search/offer-aggregation-engine/internal/infrastructure/ratelimit"
	"github.com/flight-search/offer-aggregation-engine/internal/infrastructure/retry"
)

var fastRetry = retry.Config{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2}

func search() domain.SubSearch {
	return domain.SubSearch{Origin: "JFK", Destination: "MIA", DepartureDate: "2025-12-01", Adults: 1}
}

func TestGuard_RetriesRetryableFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := domain.NewMockOfferProvider(ctrl)
	p.EXPECT().Name().Return("amadeus").AnyTimes()
	gomock.InOrder(
		p.EXPECT().Search(gomock.Any(), search()).Return(nil, domain.NewProviderUnavailableError("amadeus")),
		p.EXPECT().Search(gomock.Any(), search()).Return([]domain.Offer{{ID: "a"}, {ID: "b"}}, nil),
	)

	rec := metrics.NewRecorder(prometheus.NewRegistry())
	g := Guard(p, WithRetry(fastRetry), WithRecorder(rec))

	offers, err := g.Search(context.Background(), search())
	require.NoError(t, err)
	assert.Len(t, offers, 2)
	assert.Equal(t, "amadeus", g.Name())

	stats, ok := rec.ProviderStats("amadeus")
	require.True(t, ok)
	assert.Equal(t, int64(1), stats.Calls)
	assert.Equal(t, 2, stats.LastOffers)
}

func TestGuard_DoesNotRetryPermanentFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := domain.NewMockOfferProvider(ctrl)
	p.EXPECT().Name().Return("duffel").AnyTimes()
	authErr := domain.NewProviderError("duffel", domain.ErrProviderAuth)
	p.EXPECT().Search(gomock.Any(), gomock.Any()).Return(nil, authErr).Times(1)

	g := Guard(p, WithRetry(fastRetry))
	offers, err := g.Search(context.Background(), search())
	assert.Nil(t, offers)
	assert.ErrorIs(t, err, domain.ErrProviderAuth)
}

func TestGuard_RateLimitPenalizesProvider(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := domain.NewMockOfferProvider(ctrl)
	p.EXPECT().Name().Return("amadeus").AnyTimes()
	p.EXPECT().Search(gomock.Any(), gomock.Any()).Return(nil, domain.NewRateLimitedError("amadeus", time.Minute)).Times(1)

	limiter := ratelimit.NewProviderLimiter(ratelimit.Limit{RequestsPerSecond: 100, Burst: 10})
	g := Guard(p, WithRetry(fastRetry), WithLimiter(limiter))

	_, err := g.Search(context.Background(), search())
	assert.ErrorIs(t, err, domain.ErrProviderRateLimited)
	assert.Greater(t, limiter.BlockedFor("amadeus"), 50*time.Second)

	// the next call waits for the penalty and gives up when the deadline is shorter
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = g.Search(ctx, search())
	require.Error(t, err)
	assert.True(t, domain.IsProviderTimeout(err))
}

func TestGuard_WrapsBareErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := domain.NewMockOfferProvider(ctrl)
	p.EXPECT().Name().Return("amadeus").AnyTimes()
	p.EXPECT().Search(gomock.Any(), gomock.Any()).Return(nil, errors.New("boom")).Times(1)

	_, err := Guard(p, WithRetry(fastRetry)).Search(context.Background(), search())
	var pe *domain.ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "amadeus", pe.Provider)
}
