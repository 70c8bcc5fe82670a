package formatter

import (
	"fmt"

	"github.com/yildizm/docvec/internal/docstore"
)

// Formatter defines the interface for output formatting
type Formatter interface {
	FormatRecords(records []*docstore.Record) ([]byte, error)
	FormatRecord(record *docstore.Record) ([]byte, error)
	FormatQuery(result *docstore.QueryResult) ([]byte, error)
}

// New returns the formatter for format. Color and emoji only affect text output.
func New(format string, color, emoji bool) (Formatter, error) {
	switch format {
	case "", "text":
		return NewTerminal(color, emoji), nil
	case "json":
		return NewJSON(), nil
	case "markdown", "md":
		return NewMarkdown(), nil
	case "csv":
		return NewCSV(), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s (use text, json, markdown or csv)", format)
	}
}
