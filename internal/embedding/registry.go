package embedding

import (
	"sort"
	"sync"
)

// Factory creates provider instances of one type
type Factory interface {
	// Create creates a new provider instance with the given config
	Create(config *ProviderConfig) (Provider, error)

	// Type returns the provider type this factory creates
	Type() string

	// ValidateConfig validates configuration for this provider type
	ValidateConfig(config *ProviderConfig) error

	// DefaultConfig returns a default configuration
	DefaultConfig() *ProviderConfig
}

// Registry maps provider types to their factories
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty provider registry
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Register adds a factory under its type
func (r *Registry) Register(factory Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := factory.Type()
	if _, exists := r.factories[name]; exists {
		return &ProviderError{
			Type:     ErrTypeRegistration,
			Message:  "provider already registered",
			Provider: name,
		}
	}

	r.factories[name] = factory
	return nil
}

// Unregister removes a factory
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.factories, name)
}

// Create validates config and builds a provider of config.Type
func (r *Registry) Create(config *ProviderConfig) (Provider, error) {
	if config == nil || config.Type == "" {
		return nil, NewConfigurationError("", "type", "provider type is required")
	}

	factory, err := r.factory(config.Type)
	if err != nil {
		return nil, err
	}

	if err := factory.ValidateConfig(config); err != nil {
		return nil, err
	}

	return factory.Create(config)
}

// DefaultConfig returns the default configuration of a registered type
func (r *Registry) DefaultConfig(name string) (*ProviderConfig, error) {
	factory, err := r.factory(name)
	if err != nil {
		return nil, err
	}
	return factory.DefaultConfig(), nil
}

// List returns all registered provider types, sorted
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered checks if a provider type is registered
func (r *Registry) IsRegistered(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.factories[name]
	return exists
}

func (r *Registry) factory(name string) (Factory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, exists := r.factories[name]
	if !exists {
		return nil, &ProviderError{
			Type:     ErrTypeNotFound,
			Message:  "provider not registered",
			Provider: name,
		}
	}
	return factory, nil
}
