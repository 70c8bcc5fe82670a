package docstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/yildizm/docvec/internal/common"
	"github.com/yildizm/docvec/internal/embedding"
	"github.com/yildizm/docvec/internal/index"
	"github.com/yildizm/docvec/internal/logger"
	"github.com/yildizm/docvec/internal/monitor"
)

// conceptEmbedder maps words onto three axes: animals, finance and everything else.
type conceptEmbedder struct {
	calls atomic.Int32
	err   error
}

var concepts = map[string]int{
	"cat": 0, "cats": 0, "feline": 0, "pet": 0, "kitten": 0, "dog": 0,
	"stock": 1, "stocks": 1, "market": 1, "markets": 1, "finance": 1,
}

func (c *conceptEmbedder) Name() string   { return "concept" }
func (c *conceptEmbedder) Dimension() int { return 3 }
func (c *conceptEmbedder) Close() error   { return nil }

func (c *conceptEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	vec := make([]float32, 3)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,!?")
		if axis, ok := concepts[word]; ok {
			vec[axis]++
		} else {
			vec[2] += 0.1
		}
	}
	return vec, nil
}

// faultyIndex fails every call after the wrapped index has been populated
type faultyIndex struct {
	index.Index
	fail bool
}

var errDisk = errors.New("disk on fire")

func (f *faultyIndex) Get(ctx context.Context, id string) (index.Entry, error) {
	if f.fail {
		return index.Entry{}, errDisk
	}
	return f.Index.Get(ctx, id)
}

func (f *faultyIndex) Insert(ctx context.Context, e index.Entry) error {
	if f.fail {
		return errDisk
	}
	return f.Index.Insert(ctx, e)
}

func (f *faultyIndex) Query(ctx context.Context, v []float32, k int, filter common.Filter) ([]index.Match, error) {
	if f.fail {
		return nil, errDisk
	}
	return f.Index.Query(ctx, v, k, filter)
}

func (f *faultyIndex) List(ctx context.Context) ([]index.Entry, error) {
	if f.fail {
		return nil, errDisk
	}
	return f.Index.List(ctx)
}

func (f *faultyIndex) Delete(ctx context.Context, id string) error {
	if f.fail {
		return errDisk
	}
	return f.Index.Delete(ctx, id)
}

func newTestStore(t *testing.T) (*Store, *conceptEmbedder) {
	t.Helper()
	provider := &conceptEmbedder{}
	idx, err := index.NewMemoryIndex(3)
	if err != nil {
		t.Fatalf("NewMemoryIndex failed: %v", err)
	}
	store, err := New(provider, idx)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store, provider
}

func seed(t *testing.T, store *Store) {
	t.Helper()
	ctx := context.Background()
	if err := store.Create(ctx, "doc1", "The cat sat on the mat", common.Metadata{"categoria": "animals"}); err != nil {
		t.Fatalf("Create doc1 failed: %v", err)
	}
	if err := store.Create(ctx, "doc2", "Stock markets rose today", common.Metadata{"categoria": "finance"}); err != nil {
		t.Fatalf("Create doc2 failed: %v", err)
	}
}

func assertKind(t *testing.T, err error, want *Error) {
	t.Helper()
	if !errors.Is(err, want) {
		t.Fatalf("Expected %s error, got %v", want.Kind, err)
	}
}

func TestNew_DimensionMismatch(t *testing.T) {
	idx, _ := index.NewMemoryIndex(4)
	if _, err := New(&conceptEmbedder{}, idx); !errors.Is(err, index.ErrDimensionMismatch) {
		t.Errorf("Expected ErrDimensionMismatch, got %v", err)
	}
}

func TestStore_CreateRead(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	md := common.Metadata{"categoria": "animals", "year": 2024, "draft": false}
	if err := store.Create(ctx, "doc1", "The cat sat on the mat", md); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	rec, err := store.Read(ctx, "doc1")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if rec.ID != "doc1" || rec.Text != "The cat sat on the mat" {
		t.Errorf("Read() = %+v", rec)
	}
	if !rec.Metadata.Equal(md) {
		t.Errorf("Metadata = %v, want %v", rec.Metadata, md)
	}
}

func TestStore_CreateValidation(t *testing.T) {
	store, provider := newTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		id, text string
		metadata common.Metadata
	}{
		{name: "empty id", id: "", text: "text", metadata: common.Metadata{"k": "v"}},
		{name: "empty text", id: "a", text: "", metadata: common.Metadata{"k": "v"}},
		{name: "nil metadata", id: "a", text: "text", metadata: nil},
		{name: "empty metadata", id: "a", text: "text", metadata: common.Metadata{}},
		{name: "nested metadata", id: "a", text: "text", metadata: common.Metadata{"k": map[string]any{"x": 1}}},
		{name: "empty key", id: "a", text: "text", metadata: common.Metadata{"": "v"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.Create(ctx, tt.id, tt.text, tt.metadata)
			assertKind(t, err, ErrInvalidInput)
		})
	}

	if n, _ := store.Count(ctx); n != 0 {
		t.Errorf("Invalid creates stored %d records", n)
	}
	if provider.calls.Load() != 0 {
		t.Errorf("Invalid creates called the embedder %d times", provider.calls.Load())
	}
}

func TestStore_CreateDuplicate(t *testing.T) {
	store, provider := newTestStore(t)
	ctx := context.Background()
	seed(t, store)
	callsBefore := provider.calls.Load()

	err := store.Create(ctx, "doc1", "Something else entirely", common.Metadata{"categoria": "other"})
	assertKind(t, err, ErrAlreadyExists)

	// Existence is checked before content validation.
	err = store.Create(ctx, "doc1", "", nil)
	assertKind(t, err, ErrAlreadyExists)

	rec, _ := store.Read(ctx, "doc1")
	if rec.Text != "The cat sat on the mat" || rec.Metadata["categoria"] != "animals" {
		t.Errorf("Duplicate create modified the original: %+v", rec)
	}
	if provider.calls.Load() != callsBefore {
		t.Error("Duplicate create should not embed")
	}
}

func TestStore_ConcurrentCreateSameID(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	const workers = 10
	var wg sync.WaitGroup
	var created, duplicates atomic.Int32
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := store.Create(ctx, "race", fmt.Sprintf("cat number %d", i), common.Metadata{"n": i})
			switch {
			case err == nil:
				created.Add(1)
			case errors.Is(err, ErrAlreadyExists):
				duplicates.Add(1)
			default:
				t.Errorf("Unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if created.Load() != 1 || duplicates.Load() != workers-1 {
		t.Errorf("created=%d duplicates=%d", created.Load(), duplicates.Load())
	}
}

func TestStore_ReadNotFound(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.Read(ctx, "missing")
	assertKind(t, err, ErrNotFound)

	_, err = store.Read(ctx, "")
	assertKind(t, err, ErrNotFound)
}

func TestStore_Update(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	seed(t, store)

	newMD := common.Metadata{"topic": "pets"}
	if err := store.Update(ctx, "doc1", "A feline pet", newMD); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	rec, _ := store.Read(ctx, "doc1")
	if rec.Text != "A feline pet" {
		t.Errorf("Text = %q", rec.Text)
	}
	if !rec.Metadata.Equal(newMD) {
		t.Errorf("Expected metadata replaced, got %v", rec.Metadata)
	}
	if _, ok := rec.Metadata["categoria"]; ok {
		t.Error("Update merged metadata instead of replacing it")
	}

	// Filters follow the new metadata.
	result, err := store.Query(ctx, QueryRequest{Text: "cat", Filters: common.Filter{"topic": "pets"}})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(result.Matches) != 1 || result.Matches[0].Record.ID != "doc1" {
		t.Errorf("Expected doc1 under new metadata, got %+v", result.Matches)
	}

	old, _ := store.Query(ctx, QueryRequest{Text: "cat", Filters: common.Filter{"categoria": "animals"}})
	if len(old.Matches) != 0 {
		t.Errorf("Old metadata still matches: %+v", old.Matches)
	}

	records, _ := store.ListAll(ctx)
	if records[0].ID != "doc1" {
		t.Errorf("Update moved doc1 from first position: %v", records[0].ID)
	}
}

func TestStore_UpdateErrors(t *testing.T) {
	store, provider := newTestStore(t)
	ctx := context.Background()
	seed(t, store)

	err := store.Update(ctx, "missing", "text", common.Metadata{"k": "v"})
	assertKind(t, err, ErrNotFound)

	// NotFound takes precedence over invalid content.
	err = store.Update(ctx, "missing", "", nil)
	assertKind(t, err, ErrNotFound)

	if _, err := store.Read(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Error("Update of an absent id created a record")
	}

	calls := provider.calls.Load()
	err = store.Update(ctx, "doc1", "", common.Metadata{"k": "v"})
	assertKind(t, err, ErrInvalidInput)
	err = store.Update(ctx, "doc1", "text", common.Metadata{})
	assertKind(t, err, ErrInvalidInput)
	if provider.calls.Load() != calls {
		t.Error("Rejected updates should not embed")
	}

	rec, _ := store.Read(ctx, "doc1")
	if rec.Text != "The cat sat on the mat" {
		t.Errorf("Rejected update changed the record: %+v", rec)
	}
}

func TestStore_Delete(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	seed(t, store)

	if err := store.Delete(ctx, "doc1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	_, err := store.Read(ctx, "doc1")
	assertKind(t, err, ErrNotFound)

	assertKind(t, store.Delete(ctx, "doc1"), ErrNotFound)
	assertKind(t, store.Delete(ctx, ""), ErrNotFound)

	result, _ := store.Query(ctx, QueryRequest{Text: "cat", TopK: 10})
	for _, m := range result.Matches {
		if m.Record.ID == "doc1" {
			t.Error("Deleted record still returned by query")
		}
	}
}

func TestStore_QueryRanking(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	seed(t, store)

	result, err := store.Query(ctx, QueryRequest{Text: "feline pet", TopK: 2})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(result.Matches) != 2 {
		t.Fatalf("Expected 2 matches, got %d", len(result.Matches))
	}
	if result.Matches[0].Record.ID != "doc1" || result.Matches[1].Record.ID != "doc2" {
		t.Errorf("Expected doc1 before doc2, got %s, %s", result.Matches[0].Record.ID, result.Matches[1].Record.ID)
	}
	if result.Matches[0].Distance > result.Matches[1].Distance {
		t.Error("Distances not non-decreasing")
	}
	for _, m := range result.Matches {
		if m.Score != 1-m.Distance {
			t.Errorf("Score %v does not equal 1 - distance %v", m.Score, m.Distance)
		}
	}
}

func TestStore_QueryTopK(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 8; i++ {
		id := fmt.Sprintf("doc%d", i)
		if err := store.Create(ctx, id, strings.Repeat("cat ", i+1)+"mat", common.Metadata{"n": i}); err != nil {
			t.Fatalf("Create %s failed: %v", id, err)
		}
	}

	tests := []struct {
		topK int
		want int
	}{
		{topK: 0, want: DefaultTopK},
		{topK: 1, want: 1},
		{topK: 3, want: 3},
		{topK: 100, want: 8},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("k=%d", tt.topK), func(t *testing.T) {
			result, err := store.Query(ctx, QueryRequest{Text: "cat", TopK: tt.topK})
			if err != nil {
				t.Fatalf("Query failed: %v", err)
			}
			if len(result.Matches) != tt.want {
				t.Errorf("Expected %d matches, got %d", tt.want, len(result.Matches))
			}
			for i := 1; i < len(result.Matches); i++ {
				if result.Matches[i].Distance < result.Matches[i-1].Distance {
					t.Errorf("Distances decrease at %d", i)
				}
			}
		})
	}
}

func TestStore_QueryFilter(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	seed(t, store)
	_ = store.Create(ctx, "doc3", "A kitten and a dog", common.Metadata{"categoria": "animals", "year": 2023})

	result, err := store.Query(ctx, QueryRequest{Text: "stock", Filters: common.Filter{"categoria": "animals"}, TopK: 10})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(result.Matches) != 2 {
		t.Errorf("Expected 2 animal matches, got %d", len(result.Matches))
	}
	for _, m := range result.Matches {
		if m.Record.Metadata["categoria"] != "animals" {
			t.Errorf("Filter leaked %s", m.Record.ID)
		}
	}

	both, _ := store.Query(ctx, QueryRequest{Text: "cat", Filters: common.Filter{"categoria": "animals", "year": 2023}})
	if len(both.Matches) != 1 || both.Matches[0].Record.ID != "doc3" {
		t.Errorf("Conjunctive filter = %+v", both.Matches)
	}

	none, _ := store.Query(ctx, QueryRequest{Text: "cat", Filters: common.Filter{"categoria": "sports"}})
	if len(none.Matches) != 0 {
		t.Errorf("Expected no matches, got %d", len(none.Matches))
	}
}

func TestStore_QueryMarketsInAnimals(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	seed(t, store)

	result, err := store.Query(ctx, QueryRequest{Text: "markets", Filters: common.Filter{"categoria": "animals"}})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	for _, m := range result.Matches {
		if m.Record.ID == "doc2" {
			t.Error("doc2 returned despite the animals filter")
		}
	}

	cut, err := store.Query(ctx, QueryRequest{Text: "markets", Filters: common.Filter{"categoria": "animals"}, MinScore: 0.5})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(cut.Matches) != 0 {
		t.Errorf("Expected empty result with relevance cutoff, got %+v", cut.Matches)
	}
}

func TestStore_QueryValidation(t *testing.T) {
	store, provider := newTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  QueryRequest
	}{
		{name: "empty text", req: QueryRequest{Text: ""}},
		{name: "negative top k", req: QueryRequest{Text: "cat", TopK: -1}},
		{name: "negative min score", req: QueryRequest{Text: "cat", MinScore: -0.5}},
		{name: "nested filter", req: QueryRequest{Text: "cat", Filters: common.Filter{"k": []int{1}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.Query(ctx, tt.req)
			assertKind(t, err, ErrInvalidInput)
		})
	}
	if provider.calls.Load() != 0 {
		t.Error("Invalid queries should not embed")
	}
}

func TestStore_WhitespaceTextIsAccepted(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	if err := store.Create(ctx, "blank", "   ", common.Metadata{"k": "v"}); err != nil {
		t.Fatalf("Expected whitespace text to be stored, got %v", err)
	}
	rec, err := store.Read(ctx, "blank")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if rec.Text != "   " {
		t.Errorf("Expected text to round-trip unchanged, got %q", rec.Text)
	}

	if _, err := store.Query(ctx, QueryRequest{Text: " "}); err != nil {
		t.Errorf("Expected whitespace query to run, got %v", err)
	}
}

func TestStore_QueryTiesKeepInsertionOrder(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"c", "a", "b"} {
		if err := store.Create(ctx, id, "cat", common.Metadata{"k": "v"}); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	result, _ := store.Query(ctx, QueryRequest{Text: "cat"})
	got := make([]string, 0, len(result.Matches))
	for _, m := range result.Matches {
		got = append(got, m.Record.ID)
	}
	if strings.Join(got, ",") != "c,a,b" {
		t.Errorf("Expected insertion order c,a,b, got %v", got)
	}
}

func TestStore_ReadsAreStable(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	seed(t, store)

	first, _ := store.Query(ctx, QueryRequest{Text: "feline pet"})
	second, _ := store.Query(ctx, QueryRequest{Text: "feline pet"})
	if len(first.Matches) != len(second.Matches) {
		t.Fatal("Repeated query returned different counts")
	}
	for i := range first.Matches {
		a, b := first.Matches[i], second.Matches[i]
		if a.Record.ID != b.Record.ID || a.Distance != b.Distance {
			t.Errorf("Repeated query differs at %d", i)
		}
	}

	r1, _ := store.Read(ctx, "doc2")
	r2, _ := store.Read(ctx, "doc2")
	if r1.Text != r2.Text || !r1.Metadata.Equal(r2.Metadata) {
		t.Error("Repeated read differs")
	}
}

func TestStore_ListAll(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	records, err := store.ListAll(ctx)
	if err != nil || len(records) != 0 {
		t.Fatalf("Expected empty list, got %v, %v", records, err)
	}

	seed(t, store)
	records, _ = store.ListAll(ctx)
	if len(records) != 2 || records[0].ID != "doc1" || records[1].ID != "doc2" {
		t.Errorf("ListAll() = %+v", records)
	}
}

func TestStore_IndexFaults(t *testing.T) {
	provider := &conceptEmbedder{}
	mem, _ := index.NewMemoryIndex(3)
	faulty := &faultyIndex{Index: mem}
	store, err := New(provider, faulty)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	ctx := context.Background()
	seed(t, store)
	faulty.fail = true

	checks := map[string]error{
		"create": store.Create(ctx, "doc3", "text", common.Metadata{"k": "v"}),
		"update": store.Update(ctx, "doc1", "text", common.Metadata{"k": "v"}),
		"delete": store.Delete(ctx, "doc1"),
	}
	_, checks["read"] = store.Read(ctx, "doc1")
	_, checks["query"] = store.Query(ctx, QueryRequest{Text: "cat"})
	_, checks["list"] = store.ListAll(ctx)

	for op, err := range checks {
		if !errors.Is(err, ErrStoreUnavailable) {
			t.Errorf("%s: expected store_unavailable, got %v", op, err)
		}
		if !errors.Is(err, errDisk) {
			t.Errorf("%s: expected cause to be wrapped, got %v", op, err)
		}
	}
}

func TestStore_ProviderFaults(t *testing.T) {
	store, provider := newTestStore(t)
	ctx := context.Background()
	seed(t, store)
	provider.err = embedding.NewProviderError(embedding.ErrTypeNetwork, "connection refused", "concept")

	err := store.Create(ctx, "doc3", "text", common.Metadata{"k": "v"})
	assertKind(t, err, ErrStoreUnavailable)
	if !errors.Is(err, &embedding.ProviderError{Type: embedding.ErrTypeNetwork}) {
		t.Errorf("Expected provider error in chain, got %v", err)
	}
	if _, err := store.Read(ctx, "doc3"); !errors.Is(err, ErrNotFound) {
		t.Error("Failed create left a partial record")
	}

	err = store.Update(ctx, "doc1", "A feline", common.Metadata{"k": "v"})
	assertKind(t, err, ErrStoreUnavailable)
	rec, _ := store.Read(ctx, "doc1")
	if rec.Text != "The cat sat on the mat" {
		t.Error("Failed update modified the record")
	}

	_, err = store.Query(ctx, QueryRequest{Text: "cat"})
	assertKind(t, err, ErrStoreUnavailable)
}

func TestStore_CancelledContext(t *testing.T) {
	store, _ := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Read(ctx, "doc1")
	assertKind(t, err, ErrStoreUnavailable)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled in chain, got %v", err)
	}
}

func TestStore_WithSQLiteIndex(t *testing.T) {
	ctx := context.Background()
	idx, err := index.OpenSQLite(ctx, ":memory:", 3, index.MetricCosine)
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	store, err := New(&conceptEmbedder{}, idx)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer func() { _ = store.Close() }()

	seed(t, store)
	assertKind(t, store.Create(ctx, "doc1", "dup", common.Metadata{"k": "v"}), ErrAlreadyExists)

	result, err := store.Query(ctx, QueryRequest{Text: "feline pet", Filters: common.Filter{"categoria": "animals"}})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(result.Matches) != 1 || result.Matches[0].Record.ID != "doc1" {
		t.Errorf("Unexpected matches %+v", result.Matches)
	}
}

func TestStore_Logging(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithCallback("test", func() bool { return true }).WithWriter(&buf)

	idx, _ := index.NewMemoryIndex(3)
	store, _ := New(&conceptEmbedder{}, idx, WithLogger(log))
	ctx := context.Background()

	_ = store.Create(ctx, "doc1", "cat", common.Metadata{"k": "v"})
	if !strings.Contains(buf.String(), "[docstore] operation succeeded [op=create") {
		t.Errorf("Expected create trace, got %q", buf.String())
	}
	if !strings.Contains(buf.String(), "id=doc1") {
		t.Errorf("Expected id field, got %q", buf.String())
	}
}

func TestStore_Observer(t *testing.T) {
	recorder := monitor.NewRecorder()
	idx, _ := index.NewMemoryIndex(3)
	store, _ := New(&conceptEmbedder{}, idx, WithObserver(recorder))
	ctx := context.Background()

	seed(t, store)
	_ = store.Create(ctx, "doc1", "dup", common.Metadata{"k": "v"})
	_, _ = store.Read(ctx, "missing")
	_, _ = store.Query(ctx, QueryRequest{Text: "cat"})
	_, _ = store.ListAll(ctx)

	counts := map[string][2]int64{}
	for _, op := range recorder.Snapshot() {
		counts[op.Operation] = [2]int64{op.Count, op.Errors}
	}

	want := map[string][2]int64{
		"create": {3, 1},
		"read":   {1, 1},
		"query":  {1, 0},
		"list":   {1, 0},
		"embed":  {3, 0},
	}
	for op, w := range want {
		if counts[op] != w {
			t.Errorf("Expected %s count/errors %v, got %v", op, w, counts[op])
		}
	}
}

func TestQueryResult_Columns(t *testing.T) {
	result := &QueryResult{Matches: []Match{
		{Record: &Record{ID: "a", Text: "ta", Metadata: common.Metadata{"k": "v"}}, Distance: 0.1, Score: 0.9},
		{Record: &Record{ID: "b", Text: "tb", Metadata: common.Metadata{"k": "w"}}, Distance: 1.5, Score: -0.5},
	}}

	cols := result.Columns()
	if strings.Join(cols.IDs, ",") != "a,b" || strings.Join(cols.Documents, ",") != "ta,tb" {
		t.Errorf("Columns() = %+v", cols)
	}
	if cols.Distances[1] != 1.5 || cols.Metadatas[1]["k"] != "w" {
		t.Errorf("Columns() = %+v", cols)
	}

	if result.Matches[1].Relevance() != 0 {
		t.Errorf("Expected negative score clamped to 0")
	}
	if (Match{Score: 1.7}).Relevance() != 1 {
		t.Errorf("Expected score above 1 clamped to 1")
	}

	empty := (&QueryResult{}).Columns()
	if empty.IDs == nil || len(empty.IDs) != 0 {
		t.Errorf("Expected empty non-nil columns")
	}
}

func TestError_Format(t *testing.T) {
	err := &Error{Kind: KindNotFound, Op: "read", ID: "doc9", Message: "document not found"}
	if got := err.Error(); got != `read "doc9": not_found: document not found` {
		t.Errorf("Error() = %q", got)
	}
	if KindOf(fmt.Errorf("wrapped: %w", err)) != KindNotFound {
		t.Error("KindOf failed through wrapping")
	}
	if KindOf(errors.New("plain")) != "" {
		t.Error("KindOf should be empty for foreign errors")
	}
}
