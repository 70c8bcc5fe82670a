package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigPaths defines the config file search paths in priority order
var ConfigPaths = []string{
	"./.docvec.yaml",               // Project-specific config (highest priority)
	"~/.config/docvec/config.yaml", // User config
	"/etc/docvec/config.yaml",      // System config (lowest priority)
}

// Loader handles configuration loading with priority merging
type Loader struct {
	configPaths []string
	warn        func(format string, args ...any)
}

// NewLoader creates a new config loader
func NewLoader() *Loader {
	return &Loader{
		configPaths: ConfigPaths,
		warn: func(format string, args ...any) {
			fmt.Fprintf(os.Stderr, "Warning: "+format+"\n", args...)
		},
	}
}

// WithPaths replaces the search paths, highest priority first
func (l *Loader) WithPaths(paths ...string) *Loader {
	l.configPaths = paths
	return l
}

// LoadConfig loads configuration from multiple sources with priority order:
// 1. Command line flags (handled by caller)
// 2. DOCVEC_* environment variables
// 3. ./.docvec.yaml
// 4. ~/.config/docvec/config.yaml
// 5. /etc/docvec/config.yaml
// 6. Built-in defaults
func (l *Loader) LoadConfig(customPath string) (*Config, error) {
	config := DefaultConfig()

	if customPath != "" {
		if err := validateConfigPath(customPath); err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		if err := l.loadFromFile(config, expandPath(customPath)); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", customPath, err)
		}
	} else {
		// Lowest priority first so later files win.
		for i := len(l.configPaths) - 1; i >= 0; i-- {
			expandedPath := expandPath(l.configPaths[i])
			if !fileExists(expandedPath) {
				continue
			}
			if err := l.loadFromFile(config, expandedPath); err != nil {
				l.warn("failed to load config from %s: %v", expandedPath, err)
			}
		}
	}

	if err := l.applyEnvOverrides(config); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// loadFromFile decodes a YAML file on top of config. Keys absent from the
// file keep their current values, so booleans can be turned off explicitly.
func (l *Loader) loadFromFile(config *Config, path string) error {
	// #nosec G304 - path is validated by validateConfigPath() or comes from ConfigPaths
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	merged := *config
	if err := yaml.Unmarshal(data, &merged); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	*config = merged
	return nil
}

// applyEnvOverrides applies environment variable overrides to the config
func (l *Loader) applyEnvOverrides(config *Config) error {
	envMappings := map[string]func(string) error{
		// Embedding Config
		"DOCVEC_EMBEDDING_PROVIDER":            func(v string) error { config.Embedding.Provider = v; return nil },
		"DOCVEC_EMBEDDING_MODEL":               func(v string) error { config.Embedding.Model = v; return nil },
		"DOCVEC_EMBEDDING_ENDPOINT":            func(v string) error { config.Embedding.Endpoint = v; return nil },
		"DOCVEC_EMBEDDING_API_KEY":             func(v string) error { config.Embedding.APIKey = v; return nil },
		"DOCVEC_EMBEDDING_DIMENSION":           func(v string) error { return parseInt(v, &config.Embedding.Dimension) },
		"DOCVEC_EMBEDDING_TIMEOUT":             func(v string) error { return parseDuration(v, &config.Embedding.Timeout) },
		"DOCVEC_EMBEDDING_MAX_RETRIES":         func(v string) error { return parseInt(v, &config.Embedding.MaxRetries) },
		"DOCVEC_EMBEDDING_REQUESTS_PER_MINUTE": func(v string) error { return parseInt(v, &config.Embedding.RequestsPerMinute) },

		// Index Config
		"DOCVEC_INDEX_BACKEND":     func(v string) error { config.Index.Backend = v; return nil },
		"DOCVEC_INDEX_PATH":        func(v string) error { config.Index.Path = v; return nil },
		"DOCVEC_INDEX_METRIC":      func(v string) error { config.Index.Metric = v; return nil },
		"DOCVEC_INDEX_MAX_ENTRIES": func(v string) error { return parseInt(v, &config.Index.MaxEntries) },

		// Query Config
		"DOCVEC_QUERY_TOP_K":        func(v string) error { return parseInt(v, &config.Query.TopK) },
		"DOCVEC_QUERY_MIN_SCORE":    func(v string) error { return parseFloat(v, &config.Query.MinScore) },
		"DOCVEC_QUERY_CATEGORY_KEY": func(v string) error { config.Query.CategoryKey = v; return nil },

		// Import Config
		"DOCVEC_IMPORT_WORKERS":  func(v string) error { return parseInt(v, &config.Import.Workers) },
		"DOCVEC_IMPORT_DEBOUNCE": func(v string) error { return parseDuration(v, &config.Import.Debounce) },

		// Output Config
		"DOCVEC_OUTPUT_DEFAULT_FORMAT": func(v string) error { config.Output.DefaultFormat = v; return nil },
		"DOCVEC_OUTPUT_COLOR_MODE":     func(v string) error { config.Output.ColorMode = v; return nil },
		"DOCVEC_OUTPUT_EMOJI":          func(v string) error { return parseBool(v, &config.Output.Emoji) },
		"DOCVEC_OUTPUT_VERBOSE":        func(v string) error { return parseBool(v, &config.Output.Verbose) },
	}

	for envVar, setter := range envMappings {
		if value := os.Getenv(envVar); value != "" {
			if err := setter(value); err != nil {
				return fmt.Errorf("invalid value for %s: %w", envVar, err)
			}
		}
	}

	// The conventional OpenAI variable is honored when no key is configured.
	if config.Embedding.Provider == "openai" && config.Embedding.APIKey == "" {
		config.Embedding.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	return nil
}

// GetConfigPaths returns the list of configuration file paths that will be searched
func GetConfigPaths() []string {
	paths := make([]string, 0, len(ConfigPaths))
	for _, path := range ConfigPaths {
		paths = append(paths, expandPath(path))
	}
	return paths
}

// FindConfigFile finds the first existing config file in the search paths
func FindConfigFile() (string, bool) {
	for _, path := range GetConfigPaths() {
		if fileExists(path) {
			return path, true
		}
	}
	return "", false
}

// validateConfigPath validates that a config path is safe to read
func validateConfigPath(path string) error {
	cleanPath := filepath.Clean(path)

	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("path traversal not allowed")
	}

	ext := strings.ToLower(filepath.Ext(cleanPath))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("config file must have .yaml or .yml extension")
	}

	absPath, err := filepath.Abs(expandPath(cleanPath))
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	if strings.HasPrefix(absPath, "/proc/") || strings.HasPrefix(absPath, "/sys/") {
		return fmt.Errorf("access to system files not allowed")
	}

	return nil
}

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

// fileExists checks if a file exists
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Type conversion helpers

func parseInt(s string, dst *int) error {
	val, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*dst = val
	return nil
}

func parseFloat(s string, dst *float64) error {
	val, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*dst = val
	return nil
}

func parseBool(s string, dst *bool) error {
	val, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	*dst = val
	return nil
}

func parseDuration(s string, dst *time.Duration) error {
	val, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*dst = val
	return nil
}
