package ui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/yildizm/docvec/internal/common"
	"github.com/yildizm/docvec/internal/docstore"
)

type fakeStore struct {
	records  []*docstore.Record
	listErr  error
	queryErr error
	requests []docstore.QueryRequest
}

func (f *fakeStore) ListAll(ctx context.Context) ([]*docstore.Record, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.records, nil
}

// Query returns the records matching the filters in stored order with falling scores
func (f *fakeStore) Query(ctx context.Context, req docstore.QueryRequest) (*docstore.QueryResult, error) {
	f.requests = append(f.requests, req)
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	result := &docstore.QueryResult{Query: req.Text, Filters: req.Filters, TopK: req.TopK}
	score := 0.9
	for _, rec := range f.records {
		if !req.Filters.Matches(rec.Metadata) {
			continue
		}
		result.Matches = append(result.Matches, docstore.Match{Record: rec, Distance: 1 - score, Score: score})
		score -= 0.2
	}
	return result, nil
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: []*docstore.Record{
		{ID: "doc1", Text: "cats and dogs are pets", Metadata: common.Metadata{"categoria": "animals"}},
		{ID: "doc2", Text: "stock markets fell", Metadata: common.Metadata{"categoria": "finance"}},
		{ID: "doc3", Text: "parrots can talk", Metadata: common.Metadata{"categoria": "animals"}},
	}}
}

// run executes cmd and feeds the resulting message back, as the tea runtime would
func run(t *testing.T, m *BrowserModel, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		return
	}
	m.Update(cmd())
}

func press(t *testing.T, m *BrowserModel, key string) {
	t.Helper()
	var msg tea.KeyMsg
	switch key {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "backspace":
		msg = tea.KeyMsg{Type: tea.KeyBackspace}
	case "down":
		msg = tea.KeyMsg{Type: tea.KeyDown}
	case "ctrl+c":
		msg = tea.KeyMsg{Type: tea.KeyCtrlC}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	_, cmd := m.Update(msg)
	run(t, m, cmd)
}

func typeText(t *testing.T, m *BrowserModel, text string) {
	t.Helper()
	for _, r := range text {
		if r == ' ' {
			m.Update(tea.KeyMsg{Type: tea.KeySpace})
			continue
		}
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func newLoadedBrowser(t *testing.T, store *fakeStore) *BrowserModel {
	t.Helper()
	m := NewBrowser(store, Options{TopK: 3})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	run(t, m, m.Init())
	return m
}

func TestBrowser_ListsDocuments(t *testing.T) {
	m := newLoadedBrowser(t, newFakeStore())

	if m.view != ViewList {
		t.Errorf("Expected list view, got %v", m.view)
	}
	if len(m.list.Items) != 3 {
		t.Fatalf("Expected 3 items, got %d", len(m.list.Items))
	}

	out := m.View()
	for _, want := range []string{"doc1", "doc2", "doc3", "categoria=all"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected view to contain %q, got:\n%s", want, out)
		}
	}
}

func TestBrowser_QueryShowsResults(t *testing.T) {
	store := newFakeStore()
	m := newLoadedBrowser(t, store)

	press(t, m, "/")
	if m.input != inputQuery {
		t.Fatalf("Expected query prompt, got %v", m.input)
	}
	typeText(t, m, "feline pet")
	if !strings.Contains(m.View(), "feline pet") {
		t.Error("Expected prompt to echo typed text")
	}
	press(t, m, "enter")

	if m.view != ViewResults {
		t.Fatalf("Expected results view, got %v", m.view)
	}
	if len(store.requests) != 1 {
		t.Fatalf("Expected 1 query, got %d", len(store.requests))
	}
	req := store.requests[0]
	if req.Text != "feline pet" || req.TopK != 3 || len(req.Filters) != 0 {
		t.Errorf("Unexpected request %+v", req)
	}
	if !strings.Contains(m.View(), "90%") {
		t.Errorf("Expected relevance bar in results, got:\n%s", m.View())
	}
}

func TestBrowser_EmptyQueryIsRejected(t *testing.T) {
	store := newFakeStore()
	m := newLoadedBrowser(t, store)

	press(t, m, "/")
	typeText(t, m, "   ")
	press(t, m, "enter")

	if len(store.requests) != 0 {
		t.Errorf("Expected no query, got %d", len(store.requests))
	}
	if m.view != ViewList {
		t.Errorf("Expected list view, got %v", m.view)
	}
	if !strings.Contains(m.View(), "must not be empty") {
		t.Error("Expected empty query status")
	}
}

func TestBrowser_CategoryFiltersList(t *testing.T) {
	m := newLoadedBrowser(t, newFakeStore())

	press(t, m, "c")
	typeText(t, m, "animals")
	press(t, m, "enter")

	if len(m.list.Items) != 2 {
		t.Fatalf("Expected 2 animal documents, got %d", len(m.list.Items))
	}
	for _, item := range m.list.Items {
		if item.ID == "doc2" {
			t.Error("Expected finance document to be filtered out")
		}
	}
	if !strings.Contains(m.View(), "categoria=animals") {
		t.Error("Expected active category in view")
	}

	// An empty category clears the filter.
	press(t, m, "c")
	for range "animals" {
		press(t, m, "backspace")
	}
	press(t, m, "enter")
	if len(m.list.Items) != 3 {
		t.Errorf("Expected all documents after clearing, got %d", len(m.list.Items))
	}
}

func TestBrowser_CategoryRerunsQuery(t *testing.T) {
	store := newFakeStore()
	m := newLoadedBrowser(t, store)

	press(t, m, "/")
	typeText(t, m, "markets")
	press(t, m, "enter")
	press(t, m, "c")
	typeText(t, m, "finance")
	press(t, m, "enter")

	if len(store.requests) != 2 {
		t.Fatalf("Expected query to rerun, got %d requests", len(store.requests))
	}
	last := store.requests[1]
	if last.Text != "markets" || last.Filters["categoria"] != "finance" {
		t.Errorf("Unexpected rerun request %+v", last)
	}
	if len(m.list.Items) != 1 || m.list.Items[0].ID != "doc2" {
		t.Errorf("Expected only doc2, got %+v", m.list.Items)
	}
}

func TestBrowser_DetailsAndBack(t *testing.T) {
	m := newLoadedBrowser(t, newFakeStore())

	press(t, m, "down")
	press(t, m, "enter")
	if m.view != ViewDetails {
		t.Fatalf("Expected details view, got %v", m.view)
	}
	out := m.View()
	if !strings.Contains(out, "stock markets fell") || !strings.Contains(out, "finance") {
		t.Errorf("Expected doc2 details, got:\n%s", out)
	}

	press(t, m, "?")
	if m.view != ViewHelp {
		t.Fatalf("Expected help view, got %v", m.view)
	}
	press(t, m, "esc")
	if m.view != ViewDetails {
		t.Errorf("Expected help to return to details, got %v", m.view)
	}
	press(t, m, "esc")
	if m.view != ViewList {
		t.Errorf("Expected details to return to list, got %v", m.view)
	}
}

func TestBrowser_ResultDetailsShowDistance(t *testing.T) {
	m := newLoadedBrowser(t, newFakeStore())

	press(t, m, "/")
	typeText(t, m, "pets")
	press(t, m, "enter")
	press(t, m, "enter")

	if !strings.Contains(m.View(), "distance 0.1000") {
		t.Errorf("Expected match distance in details, got:\n%s", m.View())
	}

	press(t, m, "esc")
	press(t, m, "esc")
	if m.view != ViewList || m.result != nil {
		t.Errorf("Expected esc from results to return to the list, got view %v", m.view)
	}
}

func TestBrowser_Errors(t *testing.T) {
	store := newFakeStore()
	store.queryErr = errors.New("store unavailable")
	m := newLoadedBrowser(t, store)

	press(t, m, "/")
	typeText(t, m, "pets")
	press(t, m, "enter")

	if m.err == nil {
		t.Fatal("Expected error to be recorded")
	}
	if !strings.Contains(m.View(), "store unavailable") {
		t.Errorf("Expected error in footer, got:\n%s", m.View())
	}
}

func TestBrowser_Quit(t *testing.T) {
	tests := []struct {
		name  string
		setup func(m *BrowserModel)
		key   tea.KeyMsg
	}{
		{name: "q", key: tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")}},
		{name: "ctrl+c", key: tea.KeyMsg{Type: tea.KeyCtrlC}},
		{
			name:  "ctrl+c while typing",
			setup: func(m *BrowserModel) { m.startInput(inputQuery, "") },
			key:   tea.KeyMsg{Type: tea.KeyCtrlC},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newLoadedBrowser(t, newFakeStore())
			if tt.setup != nil {
				tt.setup(m)
			}
			_, cmd := m.Update(tt.key)
			if cmd == nil {
				t.Fatal("Expected quit command")
			}
			if _, ok := cmd().(tea.QuitMsg); !ok {
				t.Error("Expected tea.QuitMsg")
			}
			if !m.quitting {
				t.Error("Expected quitting state")
			}
		})
	}

	// q while typing is text, not a quit.
	m := newLoadedBrowser(t, newFakeStore())
	press(t, m, "/")
	press(t, m, "q")
	if m.quitting || m.buffer != "q" {
		t.Errorf("Expected q to be typed, got buffer %q quitting=%v", m.buffer, m.quitting)
	}
}

func TestPreview(t *testing.T) {
	if got := preview("a\n  b\tc", 10); got != "a b c" {
		t.Errorf("Expected flattened text, got %q", got)
	}
	if got := preview("ñññññññññññ", 8); got != "ñññññ..." {
		t.Errorf("Expected rune-safe cut, got %q", got)
	}
}

func TestThemeByName(t *testing.T) {
	for _, name := range GetAvailableThemes() {
		if _, ok := ThemeByName(name); !ok {
			t.Errorf("Expected theme %q to exist", name)
		}
	}
	if _, ok := ThemeByName("neon"); ok {
		t.Error("Expected unknown theme to be rejected")
	}
}
