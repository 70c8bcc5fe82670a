package formatter

import (
	"fmt"
	"strings"

	"github.com/yildizm/docvec/internal/docstore"
	"github.com/yildizm/docvec/internal/emoji"
	"github.com/yildizm/go-termfmt"
)

const textWidth = 72

// terminalFormatter formats output as tree views for terminal display using go-termfmt
type terminalFormatter struct {
	opts *termfmt.TerminalOptions
}

// NewTerminal creates a new terminal formatter
func NewTerminal(color, showEmoji bool) Formatter {
	opts := termfmt.DefaultOptions()
	opts.Color = color
	opts.Emoji = showEmoji
	return &terminalFormatter{opts: opts}
}

func (f *terminalFormatter) FormatRecords(records []*docstore.Record) ([]byte, error) {
	var b strings.Builder
	f.writeHeader(&b, "Documents")

	if len(records) == 0 {
		b.WriteString("No documents stored\n")
		return []byte(b.String()), nil
	}

	items := make([]termfmt.TreeItem, 0, len(records))
	for i, rec := range records {
		items = append(items, termfmt.TreeItem{
			Label:    f.symbol("document") + " " + rec.ID,
			Value:    flatten(rec.Text, textWidth),
			Children: f.metadataItems(rec),
			Last:     i == len(records)-1,
		})
	}
	b.WriteString(termfmt.TreeViewWithOptions(items, f.opts) + "\n\n")

	fmt.Fprintf(&b, "%s %s\n", termfmt.GetEmoji("statistics", f.opts), plural(len(records), "document"))
	return []byte(b.String()), nil
}

func (f *terminalFormatter) FormatRecord(rec *docstore.Record) ([]byte, error) {
	var b strings.Builder
	f.writeHeader(&b, "Document "+rec.ID)

	items := []termfmt.TreeItem{
		{Label: "ID", Value: rec.ID},
		{Label: "Text", Value: rec.Text},
		{Label: f.symbol("metadata") + " Metadata", Value: "", Children: f.metadataItems(rec), Last: true},
	}
	b.WriteString(termfmt.TreeViewWithOptions(items, f.opts) + "\n")
	return []byte(b.String()), nil
}

// FormatQuery renders ranked matches with a relevance bar per document
func (f *terminalFormatter) FormatQuery(result *docstore.QueryResult) ([]byte, error) {
	var b strings.Builder
	f.writeHeader(&b, "Query Results")

	fmt.Fprintf(&b, "%s Query: %s\n", f.symbol("search"), result.Query)
	if len(result.Filters) > 0 {
		fmt.Fprintf(&b, "%s Filters: %s\n", f.symbol("category"), formatFilters(result))
	}
	b.WriteString("\n")

	if len(result.Matches) == 0 {
		b.WriteString("No matching documents\n")
		return []byte(b.String()), nil
	}

	items := make([]termfmt.TreeItem, 0, len(result.Matches))
	for i, m := range result.Matches {
		bar := termfmt.CreateConfidenceBar(m.Relevance(), f.opts)
		items = append(items, termfmt.TreeItem{
			Label: fmt.Sprintf("%d. %s", i+1, m.Record.ID),
			Value: fmt.Sprintf("(%.0f%% relevance)", m.Relevance()*100),
			Children: []termfmt.TreeItem{
				{Label: bar + " " + flatten(m.Record.Text, textWidth), Value: ""},
				{Label: "Distance", Value: fmt.Sprintf("%.4f", m.Distance)},
				{Label: "Metadata", Value: m.Record.Metadata.String(), Last: true},
			},
			Last: i == len(result.Matches)-1,
		})
	}
	b.WriteString(termfmt.TreeViewWithOptions(items, f.opts) + "\n\n")

	fmt.Fprintf(&b, "%s %s of top %d\n", termfmt.GetEmoji("target", f.opts), plural(len(result.Matches), "match"), result.TopK)
	return []byte(b.String()), nil
}

func (f *terminalFormatter) metadataItems(rec *docstore.Record) []termfmt.TreeItem {
	keys := rec.Metadata.Keys()
	items := make([]termfmt.TreeItem, 0, len(keys))
	for i, k := range keys {
		items = append(items, termfmt.TreeItem{
			Label: k,
			Value: fmt.Sprintf("%v", rec.Metadata[k]),
			Last:  i == len(keys)-1,
		})
	}
	return items
}

func (f *terminalFormatter) symbol(key string) string {
	return emoji.Symbol(key, f.opts.Emoji)
}

// writeHeader writes a boxed title
func (f *terminalFormatter) writeHeader(b *strings.Builder, title string) {
	width := len([]rune(title))

	b.WriteString("╔" + strings.Repeat("═", width+2) + "╗\n")
	b.WriteString("║ " + title + " ║\n")
	b.WriteString("╚" + strings.Repeat("═", width+2) + "╝\n\n")
}

func formatFilters(result *docstore.QueryResult) string {
	parts := make([]string, 0, len(result.Filters))
	for _, k := range result.Filters.Keys() {
		parts = append(parts, fmt.Sprintf("%s=%v", k, result.Filters[k]))
	}
	return strings.Join(parts, ", ")
}
