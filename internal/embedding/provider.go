package embedding

import (
	"context"
	"strings"
	"time"
)

// Provider turns text into a fixed-length vector.
// Implementations are deterministic for a fixed model and safe for concurrent use.
type Provider interface {
	// Name returns the provider name (e.g., "hash", "ollama", "openai")
	Name() string

	// Embed returns the embedding of text. The result always has Dimension() entries.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimension returns the length of every vector this provider produces
	Dimension() int

	// Close cleans up provider resources
	Close() error
}

// HealthChecker is implemented by providers that talk to a remote service
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// ProviderConfig is the provider-independent configuration handed to a Factory
type ProviderConfig struct {
	// Type selects the factory (hash, ollama, openai)
	Type string `json:"type" yaml:"type"`

	// APIKey for authentication
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// BaseURL for the API endpoint
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// Model is the embedding model name
	Model string `json:"model,omitempty" yaml:"model,omitempty"`

	// Dimension of produced vectors. Zero means the model's known default.
	Dimension int `json:"dimension,omitempty" yaml:"dimension,omitempty"`

	// Timeout for requests
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`

	// RateLimit configuration
	RateLimit *RateLimitConfig `json:"rate_limit,omitempty" yaml:"rate_limit,omitempty"`

	// RetryConfig for handling failures
	RetryConfig *RetryConfig `json:"retry_config,omitempty" yaml:"retry_config,omitempty"`

	// Custom headers for requests
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
}

// RateLimitConfig defines client-side rate limiting parameters
type RateLimitConfig struct {
	// RequestsPerMinute limits requests per minute
	RequestsPerMinute int `json:"requests_per_minute" yaml:"requests_per_minute"`

	// BurstSize allows burst requests
	BurstSize int `json:"burst_size" yaml:"burst_size"`
}

// RetryConfig defines retry behavior
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// InitialDelay is the initial delay between retries
	InitialDelay time.Duration `json:"initial_delay" yaml:"initial_delay"`

	// MaxDelay is the maximum delay between retries
	MaxDelay time.Duration `json:"max_delay" yaml:"max_delay"`

	// BackoffMultiplier for exponential backoff
	BackoffMultiplier float64 `json:"backoff_multiplier" yaml:"backoff_multiplier"`
}

var knownDimensions = map[string]int{
	"nomic-embed-text":       768,
	"all-minilm":             384,
	"mxbai-embed-large":      1024,
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// KnownDimension returns the output dimension of well-known embedding models.
// Tags such as "nomic-embed-text:latest" resolve to their base model.
func KnownDimension(model string) (int, bool) {
	name := strings.ToLower(strings.TrimSpace(model))
	if i := strings.Index(name, ":"); i >= 0 {
		name = name[:i]
	}
	dim, ok := knownDimensions[name]
	return dim, ok
}

// ResolveDimension picks the configured dimension or falls back to the model default
func ResolveDimension(provider, model string, configured int) (int, error) {
	if configured > 0 {
		return configured, nil
	}
	if configured < 0 {
		return 0, NewConfigurationError(provider, "dimension", "dimension cannot be negative")
	}
	if dim, ok := KnownDimension(model); ok {
		return dim, nil
	}
	return 0, NewConfigurationError(provider, "dimension", "dimension is required for model "+model)
}

// CheckDimension verifies a provider response has the expected length
func CheckDimension(provider string, vec []float32, want int) error {
	if len(vec) != want {
		return NewDimensionError(provider, len(vec), want)
	}
	return nil
}

// ToFloat32 narrows a JSON-decoded embedding
func ToFloat32(values []float64) []float32 {
	out := make([]float32, len(values))
	for i, v := range values {
		out[i] = float32(v)
	}
	return out
}
