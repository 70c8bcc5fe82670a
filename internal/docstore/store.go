package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yildizm/docvec/internal/common"
	"github.com/yildizm/docvec/internal/embedding"
	"github.com/yildizm/docvec/internal/index"
	"github.com/yildizm/docvec/internal/logger"
)

// Store is the embedding-indexed document store. It holds no locks of its
// own; consistency under concurrent callers comes from the index.
type Store struct {
	provider    embedding.Provider
	index       index.Index
	log         *logger.Logger
	observer    Observer
	defaultTopK int
}

// Observer receives the outcome and latency of every store operation.
// Embedding calls are reported under the "embed" operation.
type Observer interface {
	Observe(op string, elapsed time.Duration, err error)
}

// Option configures a Store
type Option func(*Store)

// WithLogger sets the logger used for operation tracing
func WithLogger(l *logger.Logger) Option {
	return func(s *Store) {
		s.log = l.WithComponent("docstore")
	}
}

// WithObserver reports operation timings to o
func WithObserver(o Observer) Option {
	return func(s *Store) {
		s.observer = o
	}
}

// WithDefaultTopK overrides the result count used when a query leaves TopK at zero
func WithDefaultTopK(k int) Option {
	return func(s *Store) {
		if k > 0 {
			s.defaultTopK = k
		}
	}
}

// New creates a store over provider and idx. Both must agree on the vector dimension.
func New(provider embedding.Provider, idx index.Index, options ...Option) (*Store, error) {
	if provider == nil {
		return nil, errors.New("embedding provider is required")
	}
	if idx == nil {
		return nil, errors.New("index is required")
	}
	if provider.Dimension() != idx.Dimension() {
		return nil, fmt.Errorf("%w: provider %s produces %d dimensions, index expects %d",
			index.ErrDimensionMismatch, provider.Name(), provider.Dimension(), idx.Dimension())
	}

	s := &Store{
		provider:    provider,
		index:       idx,
		log:         logger.Nop(),
		defaultTopK: DefaultTopK,
	}
	for _, option := range options {
		option(s)
	}
	return s, nil
}

// Create stores a new document. The id must not exist yet.
func (s *Store) Create(ctx context.Context, id, text string, metadata common.Metadata) error {
	const op = "create"
	start := time.Now()

	err := s.create(ctx, op, id, text, metadata)
	s.trace(op, id, start, err)
	return err
}

func (s *Store) create(ctx context.Context, op, id, text string, metadata common.Metadata) error {
	if id == "" {
		return newError(KindInvalidInput, op, id, "id must not be empty")
	}

	// Point lookup first so a duplicate never pays for an embedding call.
	if _, err := s.index.Get(ctx, id); err == nil {
		return newError(KindAlreadyExists, op, id, "document already exists")
	} else if !errors.Is(err, index.ErrNotFound) {
		return unavailable(op, id, "lookup failed", err)
	}

	md, err := validateContent(op, id, text, metadata)
	if err != nil {
		return err
	}

	vec, err := s.embed(ctx, op, id, text)
	if err != nil {
		return err
	}

	err = s.index.Insert(ctx, index.Entry{ID: id, Text: text, Metadata: md, Vector: vec})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, index.ErrDuplicateID):
		return newError(KindAlreadyExists, op, id, "document already exists")
	default:
		return unavailable(op, id, "insert failed", err)
	}
}

// Read returns the document stored under id
func (s *Store) Read(ctx context.Context, id string) (*Record, error) {
	const op = "read"
	start := time.Now()

	rec, err := s.read(ctx, op, id)
	s.trace(op, id, start, err)
	return rec, err
}

func (s *Store) read(ctx context.Context, op, id string) (*Record, error) {
	if id == "" {
		return nil, newError(KindNotFound, op, id, "document not found")
	}

	entry, err := s.index.Get(ctx, id)
	if err != nil {
		return nil, s.mapLookupError(op, id, err)
	}
	return toRecord(entry), nil
}

// Update replaces the text and metadata of an existing document and
// recomputes its embedding. Metadata is replaced, not merged.
func (s *Store) Update(ctx context.Context, id, text string, metadata common.Metadata) error {
	const op = "update"
	start := time.Now()

	err := s.update(ctx, op, id, text, metadata)
	s.trace(op, id, start, err)
	return err
}

func (s *Store) update(ctx context.Context, op, id, text string, metadata common.Metadata) error {
	if id == "" {
		return newError(KindNotFound, op, id, "document not found")
	}
	if _, err := s.index.Get(ctx, id); err != nil {
		return s.mapLookupError(op, id, err)
	}

	md, err := validateContent(op, id, text, metadata)
	if err != nil {
		return err
	}

	vec, err := s.embed(ctx, op, id, text)
	if err != nil {
		return err
	}

	if err := s.index.Update(ctx, index.Entry{ID: id, Text: text, Metadata: md, Vector: vec}); err != nil {
		return s.mapLookupError(op, id, err)
	}
	return nil
}

// Delete removes a document
func (s *Store) Delete(ctx context.Context, id string) error {
	const op = "delete"
	start := time.Now()

	var err error
	if id == "" {
		err = newError(KindNotFound, op, id, "document not found")
	} else if derr := s.index.Delete(ctx, id); derr != nil {
		err = s.mapLookupError(op, id, derr)
	}

	s.trace(op, id, start, err)
	return err
}

// Query embeds req.Text and returns the nearest documents that match every filter pair
func (s *Store) Query(ctx context.Context, req QueryRequest) (*QueryResult, error) {
	const op = "query"
	start := time.Now()

	result, err := s.query(ctx, op, req)
	if err == nil {
		s.observe(op, start, nil)
		s.log.DebugWithFields("query matched", []logger.Field{
			logger.Op(op), logger.Count(len(result.Matches)), logger.Duration(time.Since(start)),
		})
		return result, nil
	}
	s.trace(op, "", start, err)
	return nil, err
}

func (s *Store) query(ctx context.Context, op string, req QueryRequest) (*QueryResult, error) {
	if req.Text == "" {
		return nil, newError(KindInvalidInput, op, "", "query text must not be empty")
	}
	if req.TopK < 0 {
		return nil, newError(KindInvalidInput, op, "", fmt.Sprintf("top_k must not be negative, got %d", req.TopK))
	}
	if req.MinScore < 0 {
		return nil, newError(KindInvalidInput, op, "", "min_score must not be negative")
	}

	topK := req.TopK
	if topK == 0 {
		topK = s.defaultTopK
	}

	filters, err := req.Filters.Normalize()
	if err != nil {
		return nil, &Error{Kind: KindInvalidInput, Op: op, Message: "invalid filter", Cause: err}
	}

	vec, err := s.embed(ctx, op, "", req.Text)
	if err != nil {
		return nil, err
	}

	hits, err := s.index.Query(ctx, vec, topK, filters)
	if err != nil {
		return nil, unavailable(op, "", "index query failed", err)
	}

	result := &QueryResult{
		Query:   req.Text,
		Filters: filters,
		TopK:    topK,
		Matches: make([]Match, 0, len(hits)),
	}
	for _, hit := range hits {
		score := 1 - hit.Distance
		if req.MinScore > 0 && score < req.MinScore {
			continue
		}
		result.Matches = append(result.Matches, Match{
			Record:   toRecord(hit.Entry),
			Distance: hit.Distance,
			Score:    score,
		})
	}
	return result, nil
}

// ListAll returns every document in insertion order
func (s *Store) ListAll(ctx context.Context) ([]*Record, error) {
	const op = "list"
	start := time.Now()

	entries, err := s.index.List(ctx)
	if err != nil {
		uerr := unavailable(op, "", "list failed", err)
		s.trace(op, "", start, uerr)
		return nil, uerr
	}

	records := make([]*Record, 0, len(entries))
	for _, entry := range entries {
		records = append(records, toRecord(entry))
	}
	s.observe(op, start, nil)
	s.log.DebugWithFields("listed documents", []logger.Field{
		logger.Op(op), logger.Count(len(records)), logger.Duration(time.Since(start)),
	})
	return records, nil
}

// Count returns the number of stored documents
func (s *Store) Count(ctx context.Context) (int, error) {
	n, err := s.index.Count(ctx)
	if err != nil {
		return 0, unavailable("count", "", "count failed", err)
	}
	return n, nil
}

// Dimension returns the embedding length shared by provider and index
func (s *Store) Dimension() int {
	return s.index.Dimension()
}

// ProviderName returns the name of the embedding provider
func (s *Store) ProviderName() string {
	return s.provider.Name()
}

// Close releases the index and the provider
func (s *Store) Close() error {
	return errors.Join(s.index.Close(), s.provider.Close())
}

func (s *Store) embed(ctx context.Context, op, id, text string) ([]float32, error) {
	start := time.Now()
	vec, err := s.provider.Embed(ctx, text)
	s.observe("embed", start, err)
	if err != nil {
		return nil, unavailable(op, id, "embedding failed", err)
	}
	if err := embedding.CheckDimension(s.provider.Name(), vec, s.index.Dimension()); err != nil {
		return nil, unavailable(op, id, "embedding failed", err)
	}
	return vec, nil
}

func (s *Store) mapLookupError(op, id string, err error) error {
	if errors.Is(err, index.ErrNotFound) {
		return newError(KindNotFound, op, id, "document not found")
	}
	return unavailable(op, id, "index operation failed", err)
}

// trace logs caller mistakes at debug level and store faults as warnings
func (s *Store) trace(op, id string, start time.Time, err error) {
	s.observe(op, start, err)

	fields := []logger.Field{logger.Op(op), logger.Duration(time.Since(start))}
	if id != "" {
		fields = append(fields, logger.ID(id))
	}

	switch {
	case err == nil:
		s.log.DebugWithFields("operation succeeded", fields)
	case errors.Is(err, ErrStoreUnavailable):
		s.log.WarnWithFields("operation failed", append(fields, logger.Err(err)))
	default:
		s.log.DebugWithFields("operation rejected", append(fields, logger.Err(err)))
	}
}

func (s *Store) observe(op string, start time.Time, err error) {
	if s.observer != nil {
		s.observer.Observe(op, time.Since(start), err)
	}
}

func validateContent(op, id, text string, metadata common.Metadata) (common.Metadata, error) {
	if text == "" {
		return nil, newError(KindInvalidInput, op, id, "text must not be empty")
	}
	if len(metadata) == 0 {
		return nil, newError(KindInvalidInput, op, id, "metadata must not be empty")
	}
	md, err := metadata.Normalize()
	if err != nil {
		return nil, &Error{Kind: KindInvalidInput, Op: op, ID: id, Message: "invalid metadata", Cause: err}
	}
	return md, nil
}

func toRecord(entry index.Entry) *Record {
	return &Record{
		ID:       entry.ID,
		Text:     entry.Text,
		Metadata: entry.Metadata,
	}
}
