package formatter

import (
	"fmt"
	"strings"

	"github.com/yildizm/docvec/internal/docstore"
)

// markdownFormatter formats output as Markdown tables
type markdownFormatter struct{}

// NewMarkdown creates a new Markdown formatter
func NewMarkdown() Formatter {
	return &markdownFormatter{}
}

func (f *markdownFormatter) FormatRecords(records []*docstore.Record) ([]byte, error) {
	var b strings.Builder
	b.WriteString("# Documents\n\n")

	if len(records) == 0 {
		b.WriteString("_No documents stored._\n")
		return []byte(b.String()), nil
	}

	b.WriteString("| ID | Text | Metadata |\n")
	b.WriteString("|----|------|----------|\n")
	for _, rec := range records {
		fmt.Fprintf(&b, "| %s | %s | %s |\n", cell(rec.ID), cell(rec.Text), cell(rec.Metadata.String()))
	}
	fmt.Fprintf(&b, "\n%s\n", plural(len(records), "document"))

	return []byte(b.String()), nil
}

func (f *markdownFormatter) FormatRecord(rec *docstore.Record) ([]byte, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", rec.ID)
	b.WriteString(rec.Text + "\n\n")

	b.WriteString("## Metadata\n\n")
	b.WriteString("| Key | Value |\n")
	b.WriteString("|-----|-------|\n")
	for _, k := range rec.Metadata.Keys() {
		fmt.Fprintf(&b, "| %s | %s |\n", cell(k), cell(fmt.Sprintf("%v", rec.Metadata[k])))
	}

	return []byte(b.String()), nil
}

func (f *markdownFormatter) FormatQuery(result *docstore.QueryResult) ([]byte, error) {
	var b strings.Builder
	b.WriteString("# Query Results\n\n")
	fmt.Fprintf(&b, "**Query:** %s\n\n", result.Query)
	if len(result.Filters) > 0 {
		fmt.Fprintf(&b, "**Filters:** %s\n\n", formatFilters(result))
	}

	if len(result.Matches) == 0 {
		b.WriteString("_No matching documents._\n")
		return []byte(b.String()), nil
	}

	b.WriteString("| Rank | ID | Relevance | Distance | Text | Metadata |\n")
	b.WriteString("|------|----|-----------|----------|------|----------|\n")
	for i, m := range result.Matches {
		fmt.Fprintf(&b, "| %d | %s | %.0f%% | %.4f | %s | %s |\n",
			i+1, cell(m.Record.ID), m.Relevance()*100, m.Distance,
			cell(m.Record.Text), cell(m.Record.Metadata.String()))
	}

	return []byte(b.String()), nil
}

// cell escapes a value for use inside a Markdown table
func cell(s string) string {
	return strings.ReplaceAll(flatten(s, 0), "|", "\\|")
}
