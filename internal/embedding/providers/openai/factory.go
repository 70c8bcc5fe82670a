package openai

import (
	"github.com/yildizm/docvec/internal/embedding"
)

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Create(config *embedding.ProviderConfig) (embedding.Provider, error) {
	return New(FromProviderConfig(config))
}

func (f *Factory) Type() string {
	return "openai"
}

func (f *Factory) ValidateConfig(config *embedding.ProviderConfig) error {
	if config == nil {
		return embedding.NewConfigurationError("openai", "config", "configuration is required")
	}

	if config.Type != "" && config.Type != "openai" {
		return embedding.NewConfigurationError("openai", "type", "invalid provider type: expected 'openai'")
	}

	return FromProviderConfig(config).Validate()
}

func (f *Factory) DefaultConfig() *embedding.ProviderConfig {
	return DefaultConfig().ToProviderConfig()
}

// Register adds the OpenAI factory to r
func Register(r *embedding.Registry) error {
	return r.Register(NewFactory())
}
