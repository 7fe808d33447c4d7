package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/flight-search/offer-aggregation-engine/internal/domain"
	"github.com/flight-search/offer-aggregation-engine/internal/infrastructure/logger"
	"github.com/flight-search/offer-aggregation-engine/internal/infrastructure/metrics"
	"github.com/flight-search/offer-aggregation-engine/internal/infrastructure/tracing"
)

// FanOutResult is the merged outcome of every (sub-search, provider) call.
type FanOutResult struct {
	Offers             []domain.Offer
	Results            []domain.ProviderResult
	ProvidersQueried   []string
	ProvidersSucceeded []string
	ProvidersFailed    []string
}

// FanOut runs every sub-search against every provider concurrently.
type FanOut struct {
	providers       []domain.OfferProvider
	providerTimeout time.Duration
	calls           *Coalescer[[]domain.Offer]
	recorder        *metrics.Recorder
	log             zerolog.Logger
}

// NewFanOut creates a FanOut. Identical (provider, sub-search) calls in flight at
// the same time are coalesced, including across concurrent searches.
func NewFanOut(providers []domain.OfferProvider, providerTimeout, callTimeout time.Duration, recorder *metrics.Recorder, log zerolog.Logger) *FanOut {
	return &FanOut{
		providers:       providers,
		providerTimeout: providerTimeout,
		calls:           NewCoalescer[[]domain.Offer](callTimeout),
		recorder:        recorder,
		log:             log,
	}
}

// Run executes the cross-product and returns once every call has finished.
// A failed call counts as zero offers; only when every call failed is an
// *domain.AllProvidersFailedError returned.
func (f *FanOut) Run(ctx context.Context, subs []domain.SubSearch) (*FanOutResult, error) {
	if len(f.providers) == 0 {
		return nil, &domain.AllProvidersFailedError{}
	}

	ctx, span := tracing.Start(ctx, "search.fanout",
		attribute.Int("sub_searches", len(subs)),
		attribute.Int("providers", len(f.providers)),
	)

	results := make([]domain.ProviderResult, len(subs)*len(f.providers))
	var wg sync.WaitGroup
	for i, s := range subs {
		for j, p := range f.providers {
			wg.Add(1)
			go func(slot int, p domain.OfferProvider, s domain.SubSearch) {
				defer wg.Done()
				results[slot] = f.query(ctx, p, s)
			}(i*len(f.providers)+j, p, s)
		}
	}
	wg.Wait()

	out, err := f.classify(ctx, results)
	tracing.End(span, err)
	return out, err
}

// query calls one provider for one sub-search with timeout and panic recovery.
func (f *FanOut) query(ctx context.Context, p domain.OfferProvider, s domain.SubSearch) (res domain.ProviderResult) {
	name := p.Name()
	start := time.Now()
	res = domain.ProviderResult{Provider: name, Search: s}

	defer func() {
		if r := recover(); r != nil {
			res.Offers = nil
			res.Err = domain.NewProviderError(name, fmt.Errorf("provider panic: %v", r))
			res.Duration = time.Since(start)
		}
	}()

	offers, shared, err := f.calls.Do(ctx, name+"|"+s.Key(), func(callCtx context.Context) ([]domain.Offer, error) {
		callCtx, cancel := context.WithTimeout(callCtx, f.providerTimeout)
		defer cancel()
		return p.Search(callCtx, s)
	})
	if shared {
		f.recorder.Coalesced("provider")
	}
	res.Offers = offers
	res.Err = err
	res.Duration = time.Since(start)
	return res
}

func (f *FanOut) classify(ctx context.Context, results []domain.ProviderResult) (*FanOutResult, error) {
	log := logger.FromContext(ctx, f.log)

	succeeded := make(map[string]bool)
	failed := make(map[string]bool)
	var failures []error
	var offers []domain.Offer

	for _, r := range results {
		if !r.IsSuccess() {
			failed[r.Provider] = true
			failures = append(failures, r.Err)
			log.Warn().Err(r.Err).
				Str("provider", r.Provider).
				Str("sub_search", r.Search.Key()).
				Dur("took", r.Duration).
				Msg("provider call failed, treating as zero offers")
			continue
		}
		succeeded[r.Provider] = true
		offers = append(offers, r.Offers...)
	}

	out := &FanOutResult{Offers: offers, Results: results}
	for _, p := range f.providers {
		name := p.Name()
		out.ProvidersQueried = append(out.ProvidersQueried, name)
		if succeeded[name] {
			out.ProvidersSucceeded = append(out.ProvidersSucceeded, name)
		} else if failed[name] {
			out.ProvidersFailed = append(out.ProvidersFailed, name)
		}
	}
	sort.Strings(out.ProvidersQueried)
	sort.Strings(out.ProvidersSucceeded)
	sort.Strings(out.ProvidersFailed)

	if len(succeeded) == 0 && len(failures) > 0 {
		return out, &domain.AllProvidersFailedError{Failures: failures}
	}
	return out, nil
}
