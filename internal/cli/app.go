package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/yildizm/docvec/internal/config"
	"github.com/yildizm/docvec/internal/docstore"
	"github.com/yildizm/docvec/internal/embedding"
	"github.com/yildizm/docvec/internal/embedding/providers/ollama"
	"github.com/yildizm/docvec/internal/embedding/providers/openai"
	"github.com/yildizm/docvec/internal/formatter"
	"github.com/yildizm/docvec/internal/index"
	"github.com/yildizm/docvec/internal/logger"
)

// newRegistry returns a registry holding every built-in provider
func newRegistry() (*embedding.Registry, error) {
	registry := embedding.NewRegistry()
	if err := registry.Register(embedding.NewHashFactory()); err != nil {
		return nil, err
	}
	if err := ollama.Register(registry); err != nil {
		return nil, err
	}
	if err := openai.Register(registry); err != nil {
		return nil, err
	}
	return registry, nil
}

// providerConfig maps the embedding section onto a provider configuration
func providerConfig(cfg *config.EmbeddingConfig) *embedding.ProviderConfig {
	pc := &embedding.ProviderConfig{
		Type:      cfg.Provider,
		APIKey:    cfg.APIKey,
		BaseURL:   cfg.Endpoint,
		Model:     cfg.Model,
		Dimension: cfg.Dimension,
		Timeout:   cfg.Timeout,
		RetryConfig: &embedding.RetryConfig{
			MaxRetries: cfg.MaxRetries,
		},
	}
	if cfg.RequestsPerMinute > 0 {
		pc.RateLimit = &embedding.RateLimitConfig{RequestsPerMinute: cfg.RequestsPerMinute}
	}
	return pc
}

// newProvider builds the configured embedding provider
func newProvider(cfg *config.Config) (embedding.Provider, error) {
	registry, err := newRegistry()
	if err != nil {
		return nil, err
	}
	provider, err := registry.Create(providerConfig(&cfg.Embedding))
	if err != nil {
		return nil, fmt.Errorf("failed to create %s embedding provider: %w", cfg.Embedding.Provider, err)
	}
	return provider, nil
}

// newIndex opens the configured index backend for vectors of dimension
func newIndex(ctx context.Context, cfg *config.Config, dimension int) (index.Index, error) {
	metric, err := index.ParseMetric(cfg.Index.Metric)
	if err != nil {
		return nil, err
	}

	switch cfg.Index.Backend {
	case "memory":
		idx, err := index.NewMemoryIndex(dimension, index.WithMetric(metric), index.WithMaxEntries(cfg.Index.MaxEntries))
		if err != nil {
			return nil, err
		}
		return idx, nil
	case "sqlite":
		path := cfg.IndexPath()
		if path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
				return nil, fmt.Errorf("failed to create index directory: %w", err)
			}
		}
		idx, err := index.OpenSQLite(ctx, path, dimension, metric)
		if err != nil {
			return nil, fmt.Errorf("failed to open index %s: %w", path, err)
		}
		return idx, nil
	default:
		return nil, fmt.Errorf("unsupported index backend: %s", cfg.Index.Backend)
	}
}

// openStore wires provider, index and logging into a document store
func openStore(ctx context.Context, cfg *config.Config) (*docstore.Store, error) {
	provider, err := newProvider(cfg)
	if err != nil {
		return nil, err
	}

	idx, err := newIndex(ctx, cfg, provider.Dimension())
	if err != nil {
		_ = provider.Close()
		return nil, err
	}

	options := []docstore.Option{
		docstore.WithLogger(newLogger("docstore")),
		docstore.WithDefaultTopK(cfg.Query.TopK),
	}
	if recorder != nil {
		options = append(options, docstore.WithObserver(recorder))
	}

	store, err := docstore.New(provider, idx, options...)
	if err != nil {
		_ = idx.Close()
		_ = provider.Close()
		return nil, err
	}
	return store, nil
}

// closeStore closes store and reports failures in verbose mode
func closeStore(store *docstore.Store) {
	if err := store.Close(); err != nil && isVerbose() {
		fmt.Fprintf(os.Stderr, "Warning: failed to close store: %v\n", err)
	}
}

func newLogger(component string) *logger.Logger {
	return logger.NewWithCallback(component, isVerbose)
}

func getFormatter() (formatter.Formatter, error) {
	return formatter.New(getOutputFormat(), useColor(), !isEmojiDisabled())
}

// writeOutput writes output, ending it with a newline
func writeOutput(w io.Writer, output []byte) error {
	if len(output) > 0 && output[len(output)-1] != '\n' {
		output = append(output, '\n')
	}
	if _, err := w.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
