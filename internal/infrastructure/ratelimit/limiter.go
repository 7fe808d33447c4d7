// Package ratelimit paces calls to each upstream provider with token buckets.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limit is the token-bucket setting for one provider.
type Limit struct {
	RequestsPerSecond float64
	Burst             int
}

// ProviderLimiter holds one token bucket per provider and honors Retry-After
// back-off signals reported by a provider.
type ProviderLimiter struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	blocked  map[string]time.Time
	defaults Limit
	now      func() time.Time
}

// NewProviderLimiter creates a limiter; providers without an explicit limit use defaults.
func NewProviderLimiter(defaults Limit) *ProviderLimiter {
	if defaults.RequestsPerSecond <= 0 {
		defaults.RequestsPerSecond = 10
	}
	if defaults.Burst <= 0 {
		defaults.Burst = 20
	}
	return &ProviderLimiter{
		limiters: make(map[string]*rate.Limiter),
		blocked:  make(map[string]time.Time),
		defaults: defaults,
		now:      time.Now,
	}
}

// SetProviderLimit overrides the bucket of one provider.
func (p *ProviderLimiter) SetProviderLimit(provider string, limit Limit) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.limiters[provider] = rate.NewLimiter(rate.Limit(limit.RequestsPerSecond), limit.Burst)
}

// GetLimiter returns the bucket of provider, creating it with defaults on first use.
func (p *ProviderLimiter) GetLimiter(provider string) *rate.Limiter {
	p.mu.RLock()
	limiter, ok := p.limiters[provider]
	p.mu.RUnlock()
	if ok {
		return limiter
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if limiter, ok = p.limiters[provider]; ok {
		return limiter
	}
	limiter = rate.NewLimiter(rate.Limit(p.defaults.RequestsPerSecond), p.defaults.Burst)
	p.limiters[provider] = limiter
	return limiter
}

// Penalize blocks provider until retryAfter has elapsed, typically after an upstream 429.
func (p *ProviderLimiter) Penalize(provider string, retryAfter time.Duration) {
	if retryAfter <= 0 {
		return
	}
	until := p.now().Add(retryAfter)

	p.mu.Lock()
	defer p.mu.Unlock()
	if until.After(p.blocked[provider]) {
		p.blocked[provider] = until
	}
}

// BlockedFor returns how long provider remains penalized.
func (p *ProviderLimiter) BlockedFor(provider string) time.Duration {
	p.mu.RLock()
	until := p.blocked[provider]
	p.mu.RUnlock()

	if d := until.Sub(p.now()); d > 0 {
		return d
	}
	return 0
}

// Wait blocks until provider may be called or ctx ends.
func (p *ProviderLimiter) Wait(ctx context.Context, provider string) error {
	if d := p.BlockedFor(provider); d > 0 {
		timer := time.NewTimer(d)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return p.GetLimiter(provider).Wait(ctx)
}
