package domain

import (
	"context"
	"sort"
	"sync"
)

//go:generate mockgen -source=provider.go -destination=mock_provider.go -package=domain

// OfferProvider is an upstream source of offers.
// Implementations hide authentication, payload layout and cabin vocabulary,
// returning offers already converted to the canonical model.
type OfferProvider interface {
	// Name returns the provider tag used in Offer.Source, logs and metrics
	Name() string

	// Search returns the offers for one route and date pair.
	// A provider 404-equivalent is an empty slice with a nil error.
	Search(ctx context.Context, search SubSearch) ([]Offer, error)
}

// ProviderRegistry holds the configured providers keyed by name.
type ProviderRegistry struct {
	mu        sync.RWMutex
	providers map[string]OfferProvider
}

// NewProviderRegistry creates an empty registry.
func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{providers: make(map[string]OfferProvider)}
}

// Register adds a provider, replacing any provider with the same name. Nil is ignored.
func (r *ProviderRegistry) Register(p OfferProvider) {
	if p == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
}

// GetAll returns all providers ordered by name.
func (r *ProviderRegistry) GetAll() []OfferProvider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)

	all := make([]OfferProvider, 0, len(names))
	for _, name := range names {
		all = append(all, r.providers[name])
	}
	return all
}

// Names returns the registered provider names in sorted order.
func (r *ProviderRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns the provider with the given name, or nil.
func (r *ProviderRegistry) Get(name string) OfferProvider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.providers[name]
}
