package provider

import (
	"fmt"
	"sort"
	"sync"

	"github.com/mcoot/idgateway/internal/config"
	"github.com/mcoot/idgateway/internal/model"
)

// Constructor builds a provider adapter from options
type Constructor func(Options) Strategy

// Constructors maps provider names to their adapter constructors
var Constructors = map[string]Constructor{
	config.ProviderTwitter:  NewTwitter,
	config.ProviderGoogle:   NewGoogle,
	config.ProviderDiscord:  NewDiscord,
	config.ProviderFacebook: NewFacebook,
}

// Registry holds the providers the gateway serves
type Registry struct {
	mu         sync.RWMutex
	strategies map[string]Strategy
}

// NewRegistry creates a registry holding the given strategies
func NewRegistry(strategies ...Strategy) *Registry {
	r := &Registry{strategies: make(map[string]Strategy)}
	for _, s := range strategies {
		r.Register(s)
	}
	return r
}

// FromConfig registers every provider whose credentials are configured.
// endpoints optionally overrides provider URLs by name.
func FromConfig(cfg config.Config, endpoints map[string]Endpoints) *Registry {
	r := NewRegistry()
	for name, creds := range cfg.ProviderCredentials() {
		if !creds.Configured() {
			continue
		}
		r.Register(Constructors[name](Options{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			RedirectURL:  cfg.CallbackURL(name),
			Endpoints:    endpoints[name],
		}))
	}
	return r
}

// Register adds or replaces a strategy under its name
func (r *Registry) Register(s Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies[s.Name()] = s
}

// Get returns the strategy registered under name
func (r *Registry) Get(name string) (Strategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.strategies[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrProviderNotFound, name)
	}
	return s, nil
}

// Names returns the registered provider names, sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.strategies))
	for name := range r.strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
