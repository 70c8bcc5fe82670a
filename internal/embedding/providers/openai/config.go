package openai

import (
	"fmt"
	"net/url"
	"time"

	"github.com/yildizm/docvec/internal/embedding"
)

const (
	DefaultBaseURL      = "https://api.openai.com"
	DefaultModel        = "text-embedding-3-small"
	DefaultTimeout      = 30 * time.Second
	DefaultMaxRetries   = 3
	DefaultInitialDelay = time.Second
	DefaultMaxDelay     = 30 * time.Second
)

type Config struct {
	APIKey            string        `json:"api_key"`
	BaseURL           string        `json:"base_url"`
	Model             string        `json:"model"`
	Dimension         int           `json:"dimension"`
	Timeout           time.Duration `json:"timeout"`
	OrganizationID    string        `json:"organization_id,omitempty"`
	MaxRetries        int           `json:"max_retries"`
	InitialDelay      time.Duration `json:"initial_delay"`
	MaxDelay          time.Duration `json:"max_delay"`
	RequestsPerMinute int           `json:"requests_per_minute"`
	BurstSize         int           `json:"burst_size"`
}

func DefaultConfig() *Config {
	return &Config{
		BaseURL:      DefaultBaseURL,
		Model:        DefaultModel,
		Timeout:      DefaultTimeout,
		MaxRetries:   DefaultMaxRetries,
		InitialDelay: DefaultInitialDelay,
		MaxDelay:     DefaultMaxDelay,
	}
}

func (c *Config) Validate() error {
	if c.APIKey == "" {
		return embedding.NewConfigurationError("openai", "api_key", "API key is required")
	}

	if c.BaseURL == "" {
		return embedding.NewConfigurationError("openai", "base_url", "base URL is required")
	}

	if _, err := url.Parse(c.BaseURL); err != nil {
		return embedding.NewConfigurationError("openai", "base_url", fmt.Sprintf("invalid base URL: %v", err))
	}

	if c.Model == "" {
		return embedding.NewConfigurationError("openai", "model", "model is required")
	}

	if c.Timeout <= 0 {
		return embedding.NewConfigurationError("openai", "timeout", "timeout must be positive")
	}

	if c.MaxRetries < 0 {
		return embedding.NewConfigurationError("openai", "max_retries", "max retries cannot be negative")
	}

	if c.RequestsPerMinute < 0 || c.BurstSize < 0 {
		return embedding.NewConfigurationError("openai", "rate_limit", "rate limit values cannot be negative")
	}

	if _, err := embedding.ResolveDimension("openai", c.Model, c.Dimension); err != nil {
		return err
	}

	return nil
}

func (c *Config) ToProviderConfig() *embedding.ProviderConfig {
	headers := map[string]string{}
	if c.OrganizationID != "" {
		headers["OpenAI-Organization"] = c.OrganizationID
	}

	return &embedding.ProviderConfig{
		Type:      "openai",
		APIKey:    c.APIKey,
		BaseURL:   c.BaseURL,
		Model:     c.Model,
		Dimension: c.Dimension,
		Timeout:   c.Timeout,
		Headers:   headers,
		RateLimit: &embedding.RateLimitConfig{
			RequestsPerMinute: c.RequestsPerMinute,
			BurstSize:         c.BurstSize,
		},
		RetryConfig: &embedding.RetryConfig{
			MaxRetries:        c.MaxRetries,
			InitialDelay:      c.InitialDelay,
			MaxDelay:          c.MaxDelay,
			BackoffMultiplier: 2,
		},
	}
}

func FromProviderConfig(config *embedding.ProviderConfig) *Config {
	c := DefaultConfig()
	if config == nil {
		return c
	}

	c.APIKey = config.APIKey
	c.Dimension = config.Dimension

	if config.BaseURL != "" {
		c.BaseURL = config.BaseURL
	}
	if config.Model != "" {
		c.Model = config.Model
	}
	if config.Timeout > 0 {
		c.Timeout = config.Timeout
	}
	if orgID, ok := config.Headers["OpenAI-Organization"]; ok {
		c.OrganizationID = orgID
	}

	if rc := config.RetryConfig; rc != nil {
		c.MaxRetries = rc.MaxRetries
		if rc.InitialDelay > 0 {
			c.InitialDelay = rc.InitialDelay
		}
		if rc.MaxDelay > 0 {
			c.MaxDelay = rc.MaxDelay
		}
	}

	if rl := config.RateLimit; rl != nil {
		c.RequestsPerMinute = rl.RequestsPerMinute
		c.BurstSize = rl.BurstSize
	}

	return c
}
