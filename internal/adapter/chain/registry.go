package chain

import (
	"sync"

	"chainpay-gateway/internal/core/domain"
	"chainpay-gateway/internal/core/ports"
	"chainpay-gateway/pkg/apperror"
)

// Registry maps chain families to their adapters. Resolution goes
// network -> family -> adapter; a network without a registered family
// adapter is rejected, never silently mapped to a default chain.
type Registry struct {
	mu       sync.RWMutex
	adapters map[domain.ChainFamily]ports.ChainAdapter
}

// NewRegistry creates an empty adapter registry.
func NewRegistry() *Registry {
	return &Registry{
		adapters: make(map[domain.ChainFamily]ports.ChainAdapter),
	}
}

// Register adds an adapter for its family, replacing any previous one.
func (r *Registry) Register(adapter ports.ChainAdapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[adapter.Family()] = adapter
}

// ForNetwork resolves the adapter serving the given network.
func (r *Registry) ForNetwork(network domain.Network) (ports.ChainAdapter, error) {
	family, ok := domain.FamilyOf(network)
	if !ok {
		return nil, apperror.ErrUnsupportedNetwork(string(network))
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	adapter, ok := r.adapters[family]
	if !ok {
		return nil, apperror.ErrUnsupportedNetwork(string(network))
	}
	return adapter, nil
}

// Families returns the chain families with a registered adapter.
func (r *Registry) Families() []domain.ChainFamily {
	r.mu.RLock()
	defer r.mu.RUnlock()

	families := make([]domain.ChainFamily, 0, len(r.adapters))
	for f := range r.adapters {
		families = append(families, f)
	}
	return families
}
