package index

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yildizm/docvec/internal/common"
)

var (
	ErrNotFound          = errors.New("entry not found")
	ErrDuplicateID       = errors.New("entry id already exists")
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	ErrClosed            = errors.New("index is closed")
	ErrCapacity          = errors.New("index capacity exceeded")
)

// Entry is a single stored document with its embedding
type Entry struct {
	ID       string
	Text     string
	Metadata common.Metadata
	Vector   []float32
}

// Match is a query hit together with its distance to the query vector
type Match struct {
	Entry    Entry
	Distance float64
}

// Index stores embeddings keyed by id and answers filtered nearest-neighbor queries.
// Implementations must be safe for concurrent use.
type Index interface {
	// Insert adds a new entry. It fails with ErrDuplicateID when the id is
	// already present; the check and the insert are atomic.
	Insert(ctx context.Context, entry Entry) error

	Get(ctx context.Context, id string) (Entry, error)

	// Update replaces the text, metadata and vector of an existing entry,
	// keeping its insertion position.
	Update(ctx context.Context, entry Entry) error

	Delete(ctx context.Context, id string) error

	// Query returns up to k entries matching filter, ordered by ascending
	// distance. Ties keep insertion order.
	Query(ctx context.Context, vector []float32, k int, filter common.Filter) ([]Match, error)

	// List returns every entry in insertion order.
	List(ctx context.Context) ([]Entry, error)

	Count(ctx context.Context) (int, error)
	Dimension() int
	Metric() Metric
	Close() error
}

// Metric selects the distance function used for ranking
type Metric string

const (
	MetricCosine       Metric = "cosine"
	MetricL2           Metric = "l2"
	MetricInnerProduct Metric = "ip"
)

// ParseMetric converts a configuration value into a Metric
func ParseMetric(s string) (Metric, error) {
	switch Metric(strings.ToLower(strings.TrimSpace(s))) {
	case MetricCosine, "":
		return MetricCosine, nil
	case MetricL2:
		return MetricL2, nil
	case MetricInnerProduct:
		return MetricInnerProduct, nil
	default:
		return "", fmt.Errorf("unknown metric %q (valid: cosine, l2, ip)", s)
	}
}

// Distance computes the metric's distance between two vectors of equal length
func (m Metric) Distance(a, b []float32) float64 {
	switch m {
	case MetricL2:
		return SquaredL2(a, b)
	case MetricInnerProduct:
		return 1 - DotProduct(a, b)
	default:
		return 1 - CosineSimilarity(a, b)
	}
}

func (m Metric) String() string {
	return string(m)
}

func checkEntry(entry Entry, dimension int) error {
	if entry.ID == "" {
		return fmt.Errorf("entry id must not be empty")
	}
	return checkVector(entry.Vector, dimension)
}

func checkVector(vector []float32, dimension int) error {
	if len(vector) != dimension {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vector), dimension)
	}
	return nil
}

func cloneEntry(e Entry) Entry {
	out := Entry{
		ID:       e.ID,
		Text:     e.Text,
		Metadata: e.Metadata.Clone(),
	}
	if e.Vector != nil {
		out.Vector = make([]float32, len(e.Vector))
		copy(out.Vector, e.Vector)
	}
	return out
}
