package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"regexp"
	"strings"
)

const (
	// HashProviderType is the registry key of the offline embedder
	HashProviderType = "hash"

	// DefaultHashDimension is used when no dimension is configured
	DefaultHashDimension = 384

	wordWeight    = 1.0
	trigramWeight = 0.5
	minWordLength = 2
	maxWordLength = 50
)

var tokenPattern = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// HashProvider embeds text offline by feature hashing. Each word and each
// character trigram of a word is hashed to a signed bucket; the result is
// L2-normalized. It needs no model and is fully deterministic.
type HashProvider struct {
	dimension int
	stopWords map[string]bool
}

// NewHashProvider creates a hashing embedder with the given dimension
func NewHashProvider(dimension int) (*HashProvider, error) {
	if dimension <= 0 {
		return nil, NewConfigurationError(HashProviderType, "dimension", "dimension must be positive")
	}
	return &HashProvider{
		dimension: dimension,
		stopWords: defaultStopWords(),
	}, nil
}

func (h *HashProvider) Name() string { return HashProviderType }

func (h *HashProvider) Dimension() int { return h.dimension }

func (h *HashProvider) Close() error { return nil }

// Embed hashes the features of text into a unit vector. Text without usable
// tokens yields the zero vector.
func (h *HashProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, NewProviderErrorWithCause(ErrTypeTimeout, "embedding cancelled", HashProviderType, err)
	}

	vec := make([]float64, h.dimension)
	for _, word := range h.tokenize(text) {
		h.add(vec, "w:"+word, wordWeight)
		for _, gram := range trigrams(word) {
			h.add(vec, "g:"+gram, trigramWeight)
		}
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)

	out := make([]float32, h.dimension)
	if norm == 0 {
		return out, nil
	}
	for i, v := range vec {
		out[i] = float32(v / norm)
	}
	return out, nil
}

func (h *HashProvider) add(vec []float64, feature string, weight float64) {
	hasher := fnv.New64a()
	_, _ = hasher.Write([]byte(feature))
	sum := hasher.Sum64()

	bucket := int(sum % uint64(h.dimension))
	if sum>>63 == 1 {
		weight = -weight
	}
	vec[bucket] += weight
}

// tokenize lowercases text, splits on non letter/digit runs and drops stop words
func (h *HashProvider) tokenize(text string) []string {
	text = tokenPattern.ReplaceAllString(strings.ToLower(text), " ")

	var words []string
	for _, word := range strings.Fields(text) {
		if len(word) < minWordLength || len(word) > maxWordLength {
			continue
		}
		if h.stopWords[word] {
			continue
		}
		words = append(words, word)
	}
	return words
}

func trigrams(word string) []string {
	runes := []rune("^" + word + "$")
	if len(runes) < 3 {
		return nil
	}
	grams := make([]string, 0, len(runes)-2)
	for i := 0; i+3 <= len(runes); i++ {
		grams = append(grams, string(runes[i:i+3]))
	}
	return grams
}

func defaultStopWords() map[string]bool {
	words := []string{
		"a", "an", "and", "are", "as", "at", "be", "by", "for", "from",
		"has", "he", "in", "is", "it", "its", "of", "on", "that", "the",
		"to", "was", "were", "will", "with", "this", "but", "they", "have",
		"had", "what", "when", "where", "who", "which", "why", "how", "or",
		"not", "no", "so", "if", "then", "than", "too", "very", "can", "just",
		"el", "la", "los", "las", "de", "del", "en", "un", "una", "y", "que",
	}
	stopWords := make(map[string]bool, len(words))
	for _, w := range words {
		stopWords[w] = true
	}
	return stopWords
}

// HashFactory creates HashProvider instances
type HashFactory struct{}

// NewHashFactory creates a new hash provider factory
func NewHashFactory() *HashFactory {
	return &HashFactory{}
}

func (f *HashFactory) Type() string { return HashProviderType }

// Create builds a HashProvider; a zero dimension selects DefaultHashDimension
func (f *HashFactory) Create(config *ProviderConfig) (Provider, error) {
	if config == nil {
		config = f.DefaultConfig()
	}
	dimension := config.Dimension
	if dimension == 0 {
		dimension = DefaultHashDimension
	}
	return NewHashProvider(dimension)
}

// ValidateConfig validates configuration for this provider type
func (f *HashFactory) ValidateConfig(config *ProviderConfig) error {
	if config == nil {
		return NewConfigurationError(HashProviderType, "config", "configuration is required")
	}
	if config.Type != "" && config.Type != HashProviderType {
		return NewConfigurationError(HashProviderType, "type", "invalid provider type: expected 'hash'")
	}
	if config.Dimension < 0 {
		return NewConfigurationError(HashProviderType, "dimension", "dimension cannot be negative")
	}
	return nil
}

// DefaultConfig returns a default configuration
func (f *HashFactory) DefaultConfig() *ProviderConfig {
	return &ProviderConfig{
		Type:      HashProviderType,
		Dimension: DefaultHashDimension,
	}
}
