package device

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Provider reads a user's daily step total from a wearable vendor.
type Provider interface {
	Name() string
	// NeedsToken reports whether linking requires OAuth tokens.
	NeedsToken() bool
	// DailySteps returns the step count for date and the token to keep,
	// which differs from tok when the provider refreshed it.
	DailySteps(ctx context.Context, tok Token, date string) (int, Token, error)
}

// Registry manages all registered providers
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
}

func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("unknown device provider: %s", name)
	}
	return p, nil
}

// Names lists registered providers in order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for n := range r.providers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ProviderConfig selects which vendors are available.
type ProviderConfig struct {
	FitbitClientID     string
	FitbitClientSecret string
	GarminEnabled      bool
	GarminBaseURL      string
}

// NewProviders always registers the virtual device, adds Fitbit when its
// client credentials are configured and Garmin when it is switched on.
func NewProviders(cfg ProviderConfig) *Registry {
	r := NewRegistry()
	r.Register(NewVirtualProvider())
	if cfg.FitbitClientID != "" && cfg.FitbitClientSecret != "" {
		r.Register(NewFitbitProvider(cfg.FitbitClientID, cfg.FitbitClientSecret))
	}
	if cfg.GarminEnabled {
		r.Register(NewGarminProvider(cfg.GarminBaseURL))
	}
	return r
}
