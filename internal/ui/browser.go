package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/yildizm/docvec/internal/common"
	"github.com/yildizm/docvec/internal/docstore"
	"github.com/yildizm/docvec/internal/emoji"
	"github.com/yildizm/docvec/internal/ui/components"
)

// BrowserModel is an interactive document browser. It lists stored
// documents, runs similarity queries and narrows both by category.
type BrowserModel struct {
	store  Store
	opts   Options
	styles *Styles
	list   *components.List

	width    int
	height   int
	ready    bool
	loading  bool
	quitting bool

	view     View
	backView View
	helpBack View

	records []*docstore.Record
	result  *docstore.QueryResult
	query   string

	category string
	input    inputMode
	buffer   string

	status string
	err    error
}

// NewBrowser creates a browser over store
func NewBrowser(store Store, opts Options) *BrowserModel {
	if opts.TopK <= 0 {
		opts.TopK = docstore.DefaultTopK
	}
	if opts.CategoryKey == "" {
		opts.CategoryKey = "categoria"
	}
	if opts.Theme.Name == "" {
		opts.Theme = DefaultTheme
	}

	styles := NewStyles(opts.Theme, opts.Color)
	list := components.NewList("Documents", 80, 24)
	list.Colors = components.ListColors{
		Primary:   opts.Theme.Primary,
		Secondary: opts.Theme.Secondary,
		Selected:  opts.Theme.Selected,
		Bar:       opts.Theme.Relevance,
	}

	return &BrowserModel{
		store:   store,
		opts:    opts,
		styles:  styles,
		list:    list,
		view:    ViewList,
		loading: true,
	}
}

// Init loads the document list
func (m *BrowserModel) Init() tea.Cmd {
	return loadRecordsCmd(m.store)
}

// Update handles messages and navigation
func (m *BrowserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.list.Width = msg.Width
		m.list.Height = max(5, msg.Height-6)
		return m, nil
	case tea.KeyMsg:
		if m.input != inputNone {
			return m.handleInputKey(msg)
		}
		return m.handleKeyPress(msg)
	case recordsLoadedMsg:
		m.loading = false
		m.err = nil
		m.records = msg.records
		m.showList()
		return m, nil
	case queryResultMsg:
		m.loading = false
		m.err = nil
		m.result = msg.result
		m.showResults()
		return m, nil
	case errMsg:
		m.loading = false
		m.err = msg.err
		return m, nil
	}
	return m, nil
}

// handleKeyPress handles keyboard input outside of prompts
func (m *BrowserModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "esc":
		return m.handleEscape()
	case "?", "h":
		if m.view != ViewHelp {
			m.helpBack = m.view
			m.view = ViewHelp
		}
	case "up", "k":
		m.list.MoveUp()
	case "down", "j":
		m.list.MoveDown()
	case "enter":
		if m.list.SelectedItem() != nil && (m.view == ViewList || m.view == ViewResults) {
			m.backView = m.view
			m.view = ViewDetails
		}
	case "/":
		m.startInput(inputQuery, m.query)
	case "c":
		m.startInput(inputCategory, m.category)
	case "l":
		m.result = nil
		m.query = ""
		m.loading = true
		return m, loadRecordsCmd(m.store)
	}
	return m, nil
}

func (m *BrowserModel) handleEscape() (tea.Model, tea.Cmd) {
	switch m.view {
	case ViewDetails:
		m.view = m.backView
	case ViewHelp:
		m.view = m.helpBack
	case ViewResults:
		m.result = nil
		m.query = ""
		m.showList()
	}
	m.err = nil
	return m, nil
}

func (m *BrowserModel) startInput(mode inputMode, initial string) {
	m.input = mode
	m.buffer = initial
	m.status = ""
}

// handleInputKey edits the active prompt
func (m *BrowserModel) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		m.quitting = true
		return m, tea.Quit
	case tea.KeyEsc:
		m.input = inputNone
		m.buffer = ""
	case tea.KeyEnter:
		return m.submitInput()
	case tea.KeyBackspace:
		if runes := []rune(m.buffer); len(runes) > 0 {
			m.buffer = string(runes[:len(runes)-1])
		}
	case tea.KeySpace:
		m.buffer += " "
	case tea.KeyRunes:
		m.buffer += string(msg.Runes)
	}
	return m, nil
}

func (m *BrowserModel) submitInput() (tea.Model, tea.Cmd) {
	mode := m.input
	value := strings.TrimSpace(m.buffer)
	m.input = inputNone
	m.buffer = ""

	switch mode {
	case inputQuery:
		if value == "" {
			m.status = "Query text must not be empty"
			return m, nil
		}
		m.query = value
		return m, m.runQuery()
	case inputCategory:
		m.category = value
		if m.view == ViewResults && m.query != "" {
			return m, m.runQuery()
		}
		m.showList()
	}
	return m, nil
}

func (m *BrowserModel) runQuery() tea.Cmd {
	m.loading = true
	return queryCmd(m.store, docstore.QueryRequest{
		Text:     m.query,
		Filters:  m.filter(),
		TopK:     m.opts.TopK,
		MinScore: m.opts.MinScore,
	})
}

// filter returns the active category predicate, empty when no category is set
func (m *BrowserModel) filter() common.Filter {
	if m.category == "" {
		return nil
	}
	return common.Filter{m.opts.CategoryKey: m.category}
}

// showList fills the list with stored documents in the active category
func (m *BrowserModel) showList() {
	filter := m.filter()
	items := make([]components.ListItem, 0, len(m.records))
	for _, rec := range m.records {
		if !filter.Matches(rec.Metadata) {
			continue
		}
		items = append(items, components.ListItem{
			ID:          rec.ID,
			Title:       rec.ID,
			Description: preview(rec.Text, 60),
			Icon:        m.symbol("document"),
		})
	}

	m.view = ViewList
	m.list.Title = m.symbol("document") + " Documents"
	m.list.ShowRelevance = false
	m.list.SetItems(items)
}

// showResults fills the list with query matches, best first
func (m *BrowserModel) showResults() {
	items := make([]components.ListItem, 0, len(m.result.Matches))
	for _, match := range m.result.Matches {
		items = append(items, components.ListItem{
			ID:          match.Record.ID,
			Title:       match.Record.ID,
			Description: preview(match.Record.Text, 50),
			Relevance:   match.Relevance(),
		})
	}

	m.view = ViewResults
	m.list.Title = fmt.Sprintf("%s Results for %q", m.symbol("search"), m.result.Query)
	m.list.ShowRelevance = true
	m.list.SetItems(items)
}

// View renders the browser
func (m *BrowserModel) View() string {
	if m.quitting {
		return ""
	}

	var body string
	switch m.view {
	case ViewDetails:
		body = m.renderDetails()
	case ViewHelp:
		body = m.renderHelp()
	default:
		body = m.list.Render()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.styles.Title.Render("docvec"),
		m.renderFilterLine(),
		"",
		body,
		"",
		m.renderFooter(),
	)
}

func (m *BrowserModel) renderFilterLine() string {
	category := "all"
	if m.category != "" {
		category = m.category
	}
	return m.styles.Muted.Render(fmt.Sprintf("%s %s=%s", m.symbol("category"), m.opts.CategoryKey, category))
}

func (m *BrowserModel) renderDetails() string {
	item := m.list.SelectedItem()
	if item == nil {
		return m.styles.Muted.Render("Nothing selected")
	}

	rec, match := m.lookup(item.ID)
	if rec == nil {
		return m.styles.Muted.Render("Document no longer listed")
	}

	lines := []string{
		m.styles.Header.Render(m.symbol("document") + " " + rec.ID),
		"",
		m.styles.Body.Render(rec.Text),
		"",
		m.styles.Key.Render(m.symbol("metadata") + " Metadata"),
	}
	for _, key := range rec.Metadata.Keys() {
		lines = append(lines, fmt.Sprintf("  %s: %s", m.styles.Key.Render(key), m.styles.Value.Render(fmt.Sprint(rec.Metadata[key]))))
	}
	if match != nil {
		lines = append(lines, "",
			m.styles.Key.Render(m.symbol("score")+" Relevance ")+components.RelevanceBar(match.Relevance(), 20, m.opts.Theme.Relevance),
			m.styles.Muted.Render(fmt.Sprintf("  distance %.4f", match.Distance)),
		)
	}

	box := m.styles.Box
	if m.width > 4 {
		box = box.Width(m.width - 4)
	}
	return box.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// lookup finds the record behind a list item and, in results view, its match
func (m *BrowserModel) lookup(id string) (*docstore.Record, *docstore.Match) {
	if m.backView == ViewResults && m.result != nil {
		for i := range m.result.Matches {
			if m.result.Matches[i].Record.ID == id {
				return m.result.Matches[i].Record, &m.result.Matches[i]
			}
		}
	}
	for _, rec := range m.records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return nil, nil
}

func (m *BrowserModel) renderHelp() string {
	keys := [][2]string{
		{"↑/k ↓/j", "move selection"},
		{"enter", "show document details"},
		{"/", "run a similarity query"},
		{"c", "set the category filter (empty clears it)"},
		{"l", "reload the document list"},
		{"esc", "go back"},
		{"?", "this help"},
		{"q", "quit"},
	}

	lines := []string{m.styles.Header.Render(m.symbol("help") + " Keys"), ""}
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("  %-10s %s", m.styles.Key.Render(k[0]), k[1]))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m *BrowserModel) renderFooter() string {
	switch {
	case m.input == inputQuery:
		return m.styles.Prompt.Render(m.symbol("search")+" Query: ") + m.buffer + "█"
	case m.input == inputCategory:
		return m.styles.Prompt.Render(m.symbol("category")+" Category: ") + m.buffer + "█"
	case m.err != nil:
		return m.styles.Error.Render(m.symbol("error") + " " + m.err.Error())
	case m.loading:
		return m.styles.Status.Render("Loading...")
	case m.status != "":
		return m.styles.Status.Render(m.status)
	default:
		return m.styles.Status.Render("/ query • c category • enter details • ? help • q quit")
	}
}

func (m *BrowserModel) symbol(key string) string {
	return emoji.Symbol(key, m.opts.Emoji)
}

// preview flattens text onto one line and cuts it to limit runes
func preview(text string, limit int) string {
	flat := strings.Join(strings.Fields(text), " ")
	runes := []rune(flat)
	if len(runes) <= limit {
		return flat
	}
	return string(runes[:limit-3]) + "..."
}

// Run starts the browser on the alternate screen and blocks until it exits
func Run(store Store, opts Options) error {
	p := tea.NewProgram(NewBrowser(store, opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
