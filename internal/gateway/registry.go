// Package gateway resolves provider names to adapter implementations.
// Adding a provider means registering one factory, not editing a switch.
package gateway

import (
	"fmt"
	"sync"

	"github.com/luizlenomoraes/saas-completo-sub000/internal/core/domain"
	"github.com/luizlenomoraes/saas-completo-sub000/internal/core/ports"
)

// Factory builds a gateway adapter from a seller's validated credentials.
type Factory func(creds *domain.Credentials) (ports.Gateway, error)

// Registry maps gateway names to adapter factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register associates a gateway name with its factory.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

// Resolve validates the credentials and builds the adapter for their
// gateway. Unknown providers and incomplete credentials both surface as
// ErrGatewayNotConfigured.
func (r *Registry) Resolve(creds *domain.Credentials) (ports.Gateway, error) {
	if creds == nil {
		return nil, domain.ErrGatewayNotConfigured
	}
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	f, ok := r.factories[creds.Gateway]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: unknown gateway %q", domain.ErrGatewayNotConfigured, creds.Gateway)
	}
	return f(creds)
}

// Names returns the registered gateway names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	return names
}
