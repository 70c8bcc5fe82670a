package ollama

import (
	"time"

	"github.com/yildizm/docvec/internal/embedding"
)

// Config holds Ollama-specific configuration
type Config struct {
	// BaseURL is the Ollama API endpoint
	BaseURL string `json:"base_url"`

	// Model is the embedding model to use
	Model string `json:"model"`

	// Dimension of the model output. Zero means the known default for Model.
	Dimension int `json:"dimension"`

	// Timeout for HTTP requests
	Timeout time.Duration `json:"timeout"`

	// MaxRetries bounds the retries of network failures and 5xx responses
	MaxRetries   int           `json:"max_retries"`
	InitialDelay time.Duration `json:"initial_delay"`
	MaxDelay     time.Duration `json:"max_delay"`
}

// DefaultConfig returns a default Ollama configuration
func DefaultConfig() *Config {
	return &Config{
		BaseURL:      "http://localhost:11434",
		Model:        "nomic-embed-text",
		Timeout:      30 * time.Second,
		MaxRetries:   3,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     10 * time.Second,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return embedding.NewConfigurationError("ollama", "base_url", "base URL is required")
	}

	if c.Model == "" {
		return embedding.NewConfigurationError("ollama", "model", "model is required")
	}

	if c.Timeout <= 0 {
		return embedding.NewConfigurationError("ollama", "timeout", "timeout must be positive")
	}

	if c.MaxRetries < 0 {
		return embedding.NewConfigurationError("ollama", "max_retries", "max retries cannot be negative")
	}

	if _, err := embedding.ResolveDimension("ollama", c.Model, c.Dimension); err != nil {
		return err
	}

	return nil
}

// ToProviderConfig converts Ollama config to generic provider config
func (c *Config) ToProviderConfig() *embedding.ProviderConfig {
	return &embedding.ProviderConfig{
		Type:      "ollama",
		BaseURL:   c.BaseURL,
		Model:     c.Model,
		Dimension: c.Dimension,
		Timeout:   c.Timeout,
		RetryConfig: &embedding.RetryConfig{
			MaxRetries:        c.MaxRetries,
			InitialDelay:      c.InitialDelay,
			MaxDelay:          c.MaxDelay,
			BackoffMultiplier: 2,
		},
	}
}

// FromProviderConfig creates Ollama config from generic provider config
func FromProviderConfig(pc *embedding.ProviderConfig) *Config {
	config := DefaultConfig()

	if pc.BaseURL != "" {
		config.BaseURL = pc.BaseURL
	}

	if pc.Model != "" {
		config.Model = pc.Model
	}

	if pc.Dimension != 0 {
		config.Dimension = pc.Dimension
	}

	if pc.Timeout > 0 {
		config.Timeout = pc.Timeout
	}

	if rc := pc.RetryConfig; rc != nil {
		config.MaxRetries = rc.MaxRetries
		if rc.InitialDelay > 0 {
			config.InitialDelay = rc.InitialDelay
		}
		if rc.MaxDelay > 0 {
			config.MaxDelay = rc.MaxDelay
		}
	}

	return config
}
