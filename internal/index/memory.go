package index

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/yildizm/docvec/internal/common"
)

// MemoryOptions configures the in-memory index
type MemoryOptions struct {
	Metric     Metric
	MaxEntries int
}

// MemoryOption is a function type for configuring MemoryIndex
type MemoryOption func(*MemoryOptions)

// WithMetric sets the distance metric used for ranking
func WithMetric(metric Metric) MemoryOption {
	return func(opts *MemoryOptions) {
		opts.Metric = metric
	}
}

// WithMaxEntries limits the number of entries stored. Zero means unlimited.
func WithMaxEntries(maxEntries int) MemoryOption {
	return func(opts *MemoryOptions) {
		opts.MaxEntries = maxEntries
	}
}

type memoryEntry struct {
	entry Entry
	keys  map[string]string
}

// MemoryIndex implements Index in process memory. Every entry gets a
// monotonically increasing sequence number; metadata equality lookups go
// through roaring posting lists keyed by field and canonical value.
type MemoryIndex struct {
	mu        sync.RWMutex
	dimension int
	options   MemoryOptions
	nextSeq   uint32
	seqByID   map[string]uint32
	entries   map[uint32]*memoryEntry
	all       *roaring.Bitmap
	postings  map[string]map[string]*roaring.Bitmap
	closed    bool
}

// NewMemoryIndex creates an empty in-memory index for vectors of the given dimension
func NewMemoryIndex(dimension int, options ...MemoryOption) (*MemoryIndex, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("dimension must be positive, got %d", dimension)
	}

	opts := MemoryOptions{Metric: MetricCosine}
	for _, option := range options {
		option(&opts)
	}
	if _, err := ParseMetric(string(opts.Metric)); err != nil {
		return nil, err
	}
	if opts.MaxEntries < 0 {
		return nil, fmt.Errorf("max entries cannot be negative")
	}

	return &MemoryIndex{
		dimension: dimension,
		options:   opts,
		seqByID:   make(map[string]uint32),
		entries:   make(map[uint32]*memoryEntry),
		all:       roaring.New(),
		postings:  make(map[string]map[string]*roaring.Bitmap),
	}, nil
}

// Insert adds a new entry under the write lock
func (mi *MemoryIndex) Insert(ctx context.Context, entry Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkEntry(entry, mi.dimension); err != nil {
		return err
	}

	mi.mu.Lock()
	defer mi.mu.Unlock()

	if mi.closed {
		return ErrClosed
	}
	if _, exists := mi.seqByID[entry.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateID, entry.ID)
	}
	if mi.options.MaxEntries > 0 && len(mi.entries) >= mi.options.MaxEntries {
		return fmt.Errorf("%w: max %d entries", ErrCapacity, mi.options.MaxEntries)
	}
	if mi.nextSeq == math.MaxUint32 {
		return fmt.Errorf("%w: sequence space exhausted", ErrCapacity)
	}

	seq := mi.nextSeq
	mi.nextSeq++

	me := &memoryEntry{entry: cloneEntry(entry)}
	mi.entries[seq] = me
	mi.seqByID[entry.ID] = seq
	mi.all.Add(seq)
	mi.addPostings(seq, me)
	return nil
}

// Get returns a copy of the entry stored under id
func (mi *MemoryIndex) Get(ctx context.Context, id string) (Entry, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}

	mi.mu.RLock()
	defer mi.mu.RUnlock()

	if mi.closed {
		return Entry{}, ErrClosed
	}
	seq, exists := mi.seqByID[id]
	if !exists {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return cloneEntry(mi.entries[seq].entry), nil
}

// Update replaces an existing entry in place
func (mi *MemoryIndex) Update(ctx context.Context, entry Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkEntry(entry, mi.dimension); err != nil {
		return err
	}

	mi.mu.Lock()
	defer mi.mu.Unlock()

	if mi.closed {
		return ErrClosed
	}
	seq, exists := mi.seqByID[entry.ID]
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, entry.ID)
	}

	mi.removePostings(seq, mi.entries[seq])
	me := &memoryEntry{entry: cloneEntry(entry)}
	mi.entries[seq] = me
	mi.addPostings(seq, me)
	return nil
}

// Delete removes the entry stored under id
func (mi *MemoryIndex) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	mi.mu.Lock()
	defer mi.mu.Unlock()

	if mi.closed {
		return ErrClosed
	}
	seq, exists := mi.seqByID[id]
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	mi.removePostings(seq, mi.entries[seq])
	mi.all.Remove(seq)
	delete(mi.entries, seq)
	delete(mi.seqByID, id)
	return nil
}

// Query ranks the entries that pass filter by distance to vector
func (mi *MemoryIndex) Query(ctx context.Context, vector []float32, k int, filter common.Filter) ([]Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkVector(vector, mi.dimension); err != nil {
		return nil, err
	}
	if k < 0 {
		return nil, fmt.Errorf("k cannot be negative")
	}

	mi.mu.RLock()
	defer mi.mu.RUnlock()

	if mi.closed {
		return nil, ErrClosed
	}

	candidates := mi.compileFilter(filter)
	cands := make([]candidate, 0, candidates.GetCardinality())
	it := candidates.Iterator()
	for it.HasNext() {
		seq := it.Next()
		entry := mi.entries[seq].entry
		cands = append(cands, candidate{
			seq: uint64(seq),
			match: Match{
				Entry:    cloneEntry(entry),
				Distance: mi.options.Metric.Distance(vector, entry.Vector),
			},
		})
	}

	return rank(cands, k), nil
}

// List returns every entry in insertion order
func (mi *MemoryIndex) List(ctx context.Context) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mi.mu.RLock()
	defer mi.mu.RUnlock()

	if mi.closed {
		return nil, ErrClosed
	}

	entries := make([]Entry, 0, len(mi.entries))
	it := mi.all.Iterator()
	for it.HasNext() {
		entries = append(entries, cloneEntry(mi.entries[it.Next()].entry))
	}
	return entries, nil
}

// Count returns the number of stored entries
func (mi *MemoryIndex) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	mi.mu.RLock()
	defer mi.mu.RUnlock()

	if mi.closed {
		return 0, ErrClosed
	}
	return len(mi.entries), nil
}

func (mi *MemoryIndex) Dimension() int { return mi.dimension }

func (mi *MemoryIndex) Metric() Metric { return mi.options.Metric }

// Close releases the stored entries. Further calls return ErrClosed.
func (mi *MemoryIndex) Close() error {
	mi.mu.Lock()
	defer mi.mu.Unlock()

	mi.closed = true
	mi.entries = nil
	mi.seqByID = nil
	mi.postings = nil
	mi.all.Clear()
	return nil
}

// compileFilter intersects the posting lists of every filter pair.
// Callers must hold the read lock.
func (mi *MemoryIndex) compileFilter(filter common.Filter) *roaring.Bitmap {
	if len(filter) == 0 {
		return mi.all
	}

	var result *roaring.Bitmap
	for _, key := range filter.Keys() {
		bitmap, ok := mi.postings[key][common.ValueKey(filter[key])]
		if !ok || bitmap.IsEmpty() {
			return roaring.New()
		}
		if result == nil {
			result = bitmap.Clone()
		} else {
			result.And(bitmap)
		}
		if result.IsEmpty() {
			return result
		}
	}
	return result
}

func (mi *MemoryIndex) addPostings(seq uint32, me *memoryEntry) {
	me.keys = make(map[string]string, len(me.entry.Metadata))
	for key, value := range me.entry.Metadata {
		valueKey := common.ValueKey(value)
		me.keys[key] = valueKey

		values, ok := mi.postings[key]
		if !ok {
			values = make(map[string]*roaring.Bitmap)
			mi.postings[key] = values
		}
		bitmap, ok := values[valueKey]
		if !ok {
			bitmap = roaring.New()
			values[valueKey] = bitmap
		}
		bitmap.Add(seq)
	}
}

func (mi *MemoryIndex) removePostings(seq uint32, me *memoryEntry) {
	for key, valueKey := range me.keys {
		values := mi.postings[key]
		bitmap, ok := values[valueKey]
		if !ok {
			continue
		}
		bitmap.Remove(seq)
		if bitmap.IsEmpty() {
			delete(values, valueKey)
		}
		if len(values) == 0 {
			delete(mi.postings, key)
		}
	}
}
