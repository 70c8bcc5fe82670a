package config

import (
	"fmt"
	"time"
)

// Config holds the complete application configuration
type Config struct {
	Version   string          `yaml:"version" json:"version"`
	Embedding EmbeddingConfig `yaml:"embedding" json:"embedding"`
	Index     IndexConfig     `yaml:"index" json:"index"`
	Query     QueryConfig     `yaml:"query" json:"query"`
	Import    ImportConfig    `yaml:"import" json:"import"`
	Output    OutputConfig    `yaml:"output" json:"output"`
}

// EmbeddingConfig configures the embedding provider
type EmbeddingConfig struct {
	Provider          string        `yaml:"provider" json:"provider"`                       // hash|ollama|openai
	Model             string        `yaml:"model" json:"model"`                             // model name, unused by hash
	Endpoint          string        `yaml:"endpoint" json:"endpoint"`                       // API base URL
	APIKey            string        `yaml:"api_key" json:"api_key"`                         // openai only
	Dimension         int           `yaml:"dimension" json:"dimension"`                     // 0 uses the model's known size
	Timeout           time.Duration `yaml:"timeout" json:"timeout"`                         // per-request timeout
	MaxRetries        int           `yaml:"max_retries" json:"max_retries"`                 // openai retry count
	RequestsPerMinute int           `yaml:"requests_per_minute" json:"requests_per_minute"` // 0 disables client-side limiting
}

// IndexConfig configures the vector index backend
type IndexConfig struct {
	Backend    string `yaml:"backend" json:"backend"`         // memory|sqlite
	Path       string `yaml:"path" json:"path"`               // sqlite database file
	Metric     string `yaml:"metric" json:"metric"`           // cosine|l2|ip
	MaxEntries int    `yaml:"max_entries" json:"max_entries"` // memory backend only, 0 is unbounded
}

// QueryConfig configures query defaults
type QueryConfig struct {
	TopK        int     `yaml:"top_k" json:"top_k"`
	MinScore    float64 `yaml:"min_score" json:"min_score"`
	CategoryKey string  `yaml:"category_key" json:"category_key"`
}

// ImportConfig configures bulk imports
type ImportConfig struct {
	Workers  int           `yaml:"workers" json:"workers"`
	Debounce time.Duration `yaml:"debounce" json:"debounce"`
}

// OutputConfig configures output formatting and display
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format" json:"default_format"` // json|text|markdown|csv
	ColorMode     string `yaml:"color_mode" json:"color_mode"`         // auto|always|never
	Emoji         bool   `yaml:"emoji" json:"emoji"`
	Verbose       bool   `yaml:"verbose" json:"verbose"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Version: "1.0",
		Embedding: EmbeddingConfig{
			Provider:   "hash",
			Timeout:    30 * time.Second,
			MaxRetries: 3,
		},
		Index: IndexConfig{
			Backend: "sqlite",
			Path:    "~/.cache/docvec/documents.db",
			Metric:  "cosine",
		},
		Query: QueryConfig{
			TopK:        5,
			CategoryKey: "categoria",
		},
		Import: ImportConfig{
			Workers:  4,
			Debounce: 500 * time.Millisecond,
		},
		Output: OutputConfig{
			DefaultFormat: "text",
			ColorMode:     "auto",
			Emoji:         true,
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.validateEmbeddingConfig(); err != nil {
		return err
	}
	if err := c.validateIndexConfig(); err != nil {
		return err
	}
	if err := c.validateQueryConfig(); err != nil {
		return err
	}
	if err := c.validateImportConfig(); err != nil {
		return err
	}
	return c.validateOutputConfig()
}

func (c *Config) validateEmbeddingConfig() error {
	validProviders := map[string]bool{
		"hash":   true,
		"ollama": true,
		"openai": true,
	}
	if !validProviders[c.Embedding.Provider] {
		return fmt.Errorf("invalid embedding provider: %q (must be one of: hash, ollama, openai)", c.Embedding.Provider)
	}
	if c.Embedding.Dimension < 0 {
		return fmt.Errorf("dimension must be non-negative")
	}
	if c.Embedding.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative")
	}
	if c.Embedding.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be non-negative")
	}
	if c.Embedding.RequestsPerMinute < 0 {
		return fmt.Errorf("requests_per_minute must be non-negative")
	}
	return nil
}

func (c *Config) validateIndexConfig() error {
	switch c.Index.Backend {
	case "memory":
	case "sqlite":
		if c.Index.Path == "" {
			return fmt.Errorf("index path is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("invalid index backend: %q (must be one of: memory, sqlite)", c.Index.Backend)
	}

	validMetrics := map[string]bool{
		"cosine": true,
		"l2":     true,
		"ip":     true,
	}
	if !validMetrics[c.Index.Metric] {
		return fmt.Errorf("invalid metric: %q (must be one of: cosine, l2, ip)", c.Index.Metric)
	}
	if c.Index.MaxEntries < 0 {
		return fmt.Errorf("max_entries must be non-negative")
	}
	return nil
}

func (c *Config) validateQueryConfig() error {
	if c.Query.TopK < 1 {
		return fmt.Errorf("top_k must be greater than 0")
	}
	if c.Query.MinScore < 0 {
		return fmt.Errorf("min_score must be non-negative")
	}
	if c.Query.CategoryKey == "" {
		return fmt.Errorf("category_key must not be empty")
	}
	return nil
}

func (c *Config) validateImportConfig() error {
	if c.Import.Workers < 1 {
		return fmt.Errorf("import workers must be greater than 0")
	}
	if c.Import.Debounce < 0 {
		return fmt.Errorf("debounce must be non-negative")
	}
	return nil
}

func (c *Config) validateOutputConfig() error {
	if c.Output.DefaultFormat != "" {
		validFormats := map[string]bool{
			"json":     true,
			"text":     true,
			"markdown": true,
			"csv":      true,
		}
		if !validFormats[c.Output.DefaultFormat] {
			return fmt.Errorf("invalid output format: %s (must be one of: json, text, markdown, csv)", c.Output.DefaultFormat)
		}
	}
	if c.Output.ColorMode != "" {
		validColorModes := map[string]bool{
			"auto":   true,
			"always": true,
			"never":  true,
		}
		if !validColorModes[c.Output.ColorMode] {
			return fmt.Errorf("invalid color mode: %s (must be one of: auto, always, never)", c.Output.ColorMode)
		}
	}
	return nil
}

// IndexPath returns the index path with ~ expanded
func (c *Config) IndexPath() string {
	return expandPath(c.Index.Path)
}
