package oauth

import (
	"context"
	"fmt"
	"sort"
)

// Profile is the normalized identity returned by a provider after a
// successful code exchange.
type Profile struct {
	Provider   string
	ExternalID string
	Login      string
	Email      string
	Location   string
}

// Provider is an external OAuth2 identity provider. Implementations return
// identity facts only; user creation and token issuance happen elsewhere.
type Provider interface {
	// Name returns the provider identifier used in routes, e.g. "github".
	Name() string
	// AuthCodeURL returns the provider's authorization URL for state.
	AuthCodeURL(state string) string
	// Exchange trades an authorization code for the user's profile.
	Exchange(ctx context.Context, code string) (*Profile, error)
}

// Registry holds the configured providers by name.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry registers the given providers. A later provider replaces an
// earlier one with the same name.
func NewRegistry(list ...Provider) *Registry {
	m := make(map[string]Provider, len(list))
	for _, p := range list {
		m[p.Name()] = p
	}
	return &Registry{providers: m}
}

// Get returns the provider registered under name.
func (r *Registry) Get(name string) (Provider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("unknown oauth provider: %s", name)
	}
	return p, nil
}

// Names lists the registered provider names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
