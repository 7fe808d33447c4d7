package provider

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/flight-search/offer-aggregation-engine/internal/domain"
	"github.com/flight-search/offer-aggregation-engine/internal/infrastructure/metrics"
	"github.com/flight-search/offer-aggregation-engine/internal/infrastructure/ratelimit"
	"github.com/flight-search/offer-aggregation-engine/internal/infrastructure/retry"
	"github.com/flight-search/offer-aggregation-engine/internal/infrastructure/tracing"
)

// Guarded decorates an OfferProvider with pacing, retries, telemetry and tracing.
type Guarded struct {
	inner    domain.OfferProvider
	limiter  *ratelimit.ProviderLimiter
	retry    retry.Config
	recorder *metrics.Recorder
	log      zerolog.Logger
}

// Option configures a Guarded provider.
type Option func(*Guarded)

// WithLimiter paces calls through l.
func WithLimiter(l *ratelimit.ProviderLimiter) Option {
	return func(g *Guarded) { g.limiter = l }
}

// WithRetry sets the retry policy for retryable failures.
func WithRetry(cfg retry.Config) Option {
	return func(g *Guarded) { g.retry = cfg }
}

// WithRecorder records latency and offer counts to r.
func WithRecorder(r *metrics.Recorder) Option {
	return func(g *Guarded) { g.recorder = r }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(g *Guarded) { g.log = l }
}

// Guard wraps p.
func Guard(p domain.OfferProvider, opts ...Option) *Guarded {
	g := &Guarded{
		inner: p,
		retry: retry.ProviderConfig,
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.log = g.log.With().Str("provider", p.Name()).Logger()
	return g
}

// Name implements domain.OfferProvider.
func (g *Guarded) Name() string {
	return g.inner.Name()
}

// Search implements domain.OfferProvider.
func (g *Guarded) Search(ctx context.Context, s domain.SubSearch) ([]domain.Offer, error) {
	name := g.inner.Name()
	ctx, span := tracing.Start(ctx, "provider.search",
		attribute.String("provider", name),
		attribute.String("route", s.Origin+"-"+s.Destination),
		attribute.String("departure_date", s.DepartureDate),
	)

	cfg := g.retry.
		WithRetryIf(domain.IsRetryable).
		WithDelayHint(retryAfterHint).
		WithOnRetry(func(attempt int, err error, wait time.Duration) {
			g.log.Warn().Err(err).Int("attempt", attempt).Dur("wait", wait).Msg("retrying provider call")
		})

	start := time.Now()
	offers, err := retry.DoWithResult(ctx, func() ([]domain.Offer, error) {
		if g.limiter != nil {
			if err := g.limiter.Wait(ctx, name); err != nil {
				return nil, TransportError(name, err)
			}
		}
		offers, err := g.inner.Search(ctx, s)
		if err != nil && errors.Is(err, domain.ErrProviderRateLimited) && g.limiter != nil {
			var pe *domain.ProviderError
			if errors.As(err, &pe) {
				g.limiter.Penalize(name, pe.RetryAfter)
			}
		}
		return offers, err
	}, cfg)
	if err != nil {
		var pe *domain.ProviderError
		if !errors.As(err, &pe) {
			err = TransportError(name, err)
		}
		offers = nil
	}

	g.recorder.ObserveProviderCall(name, time.Since(start), len(offers), err)
	span.SetAttributes(attribute.Int("offers", len(offers)))
	tracing.End(span, err)
	return offers, err
}

func retryAfterHint(err error) time.Duration {
	var pe *domain.ProviderError
	if errors.As(err, &pe) {
		return pe.RetryAfter
	}
	return 0
}
