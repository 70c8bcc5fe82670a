package ollama

import (
	"github.com/yildizm/docvec/internal/embedding"
)

// Factory implements embedding.Factory for Ollama
type Factory struct{}

// NewFactory creates a new Ollama provider factory
func NewFactory() *Factory {
	return &Factory{}
}

// Create creates a new Ollama provider instance with the given config
func (f *Factory) Create(config *embedding.ProviderConfig) (embedding.Provider, error) {
	if config == nil {
		config = f.DefaultConfig()
	}

	return New(FromProviderConfig(config))
}

// Type returns the provider type this factory creates
func (f *Factory) Type() string {
	return "ollama"
}

// ValidateConfig validates configuration for this provider type
func (f *Factory) ValidateConfig(config *embedding.ProviderConfig) error {
	if config == nil {
		return embedding.NewConfigurationError("ollama", "config", "configuration is required")
	}

	if config.Type != "" && config.Type != "ollama" {
		return embedding.NewConfigurationError("ollama", "type", "invalid provider type: expected 'ollama'")
	}

	return FromProviderConfig(config).Validate()
}

// DefaultConfig returns a default configuration
func (f *Factory) DefaultConfig() *embedding.ProviderConfig {
	return DefaultConfig().ToProviderConfig()
}

// Register adds the Ollama factory to r
func Register(r *embedding.Registry) error {
	return r.Register(NewFactory())
}
