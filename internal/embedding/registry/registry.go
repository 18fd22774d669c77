package registry

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/davidbz/precedent/internal/domain"
)

// Registry holds the configured embedding backends by name.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]domain.EmbeddingProvider
}

// NewRegistry creates a new embedding backend registry.
func NewRegistry() *Registry {
	return &Registry{
		mu:        sync.RWMutex{},
		providers: make(map[string]domain.EmbeddingProvider),
	}
}

// Register adds a backend to the registry.
func (r *Registry) Register(provider domain.EmbeddingProvider) error {
	if provider == nil {
		return errors.New("provider cannot be nil")
	}

	name := provider.Name()
	if name == "" {
		return errors.New("provider name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[name]; exists {
		return fmt.Errorf("provider %s already registered", name)
	}

	r.providers[name] = provider

	return nil
}

// Get retrieves a backend by name.
func (r *Registry) Get(name string) (domain.EmbeddingProvider, error) {
	if name == "" {
		return nil, errors.New("provider name cannot be empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, exists := r.providers[name]
	if !exists {
		return nil, fmt.Errorf("provider %s not found", name)
	}

	return provider, nil
}

// List returns the registered backend names in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	slices.Sort(names)

	return names
}

// Select returns the named backend if it produces vectors of the given dimension.
func (r *Registry) Select(name string, dimension int) (domain.EmbeddingProvider, error) {
	provider, err := r.Get(name)
	if err != nil {
		return nil, fmt.Errorf("%w (registered: %v)", err, r.List())
	}

	if provider.Dimension() != dimension {
		return nil, fmt.Errorf("%w: provider %s produces %d dimensions, index expects %d",
			domain.ErrDimensionMismatch, name, provider.Dimension(), dimension)
	}

	return provider, nil
}
