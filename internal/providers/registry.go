package providers

import (
	"sync"

	"github.com/pagelens/pagelens-backend/internal/models"
)

// Registry manages all available providers
type Registry struct {
	providers map[models.Provider]Provider
	mu        sync.RWMutex
}

// NewRegistry creates a new provider registry
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[models.Provider]Provider),
	}
}

// Register adds a provider to the registry
func (r *Registry) Register(id models.Provider, provider Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[id] = provider
}

// Get retrieves a provider by ID
func (r *Registry) Get(id models.Provider) Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.providers[id]
}

// List returns all registered provider IDs
func (r *Registry) List() []models.Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]models.Provider, 0, len(r.providers))
	for id := range r.providers {
		ids = append(ids, id)
	}
	return ids
}

// Has checks if a provider is registered
func (r *Registry) Has(id models.Provider) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.providers[id]
	return exists
}
