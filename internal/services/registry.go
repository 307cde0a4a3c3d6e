package services

import (
	"context"
	"sort"
	"sync"
)

// Registry holds the providers a playground session can request by name.
// Providers are registered once at startup; lookups are concurrent.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register installs a provider under the name practice resources refer to it
// by. Registering the same name twice replaces the earlier provider.
func (r *Registry) Register(name string, provider Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[name] = provider
}

// Get returns the provider for name, or nil when none is registered.
func (r *Registry) Get(name string) Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.providers[name]
}

// List returns the registered provider names in stable order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HealthCheckAll pings every provider and reports per-provider results.
func (r *Registry) HealthCheckAll(ctx context.Context) map[string]error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	results := make(map[string]error, len(r.providers))
	for name, provider := range r.providers {
		results[name] = provider.HealthCheck(ctx)
	}
	return results
}
