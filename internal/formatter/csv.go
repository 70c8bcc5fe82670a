package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/yildizm/docvec/internal/docstore"
)

// csvFormatter formats documents and matches as CSV
type csvFormatter struct{}

// NewCSV creates a new CSV formatter
func NewCSV() Formatter {
	return &csvFormatter{}
}

func (f *csvFormatter) FormatRecords(records []*docstore.Record) ([]byte, error) {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []string{rec.ID, flatten(rec.Text, 0), rec.Metadata.String()})
	}
	return writeCSV([]string{"ID", "Text", "Metadata"}, rows)
}

func (f *csvFormatter) FormatRecord(rec *docstore.Record) ([]byte, error) {
	return f.FormatRecords([]*docstore.Record{rec})
}

func (f *csvFormatter) FormatQuery(result *docstore.QueryResult) ([]byte, error) {
	rows := make([][]string, 0, len(result.Matches))
	for i, m := range result.Matches {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			m.Record.ID,
			fmt.Sprintf("%.4f", m.Score),
			fmt.Sprintf("%.4f", m.Distance),
			flatten(m.Record.Text, 0),
			m.Record.Metadata.String(),
		})
	}
	return writeCSV([]string{"Rank", "ID", "Score", "Distance", "Text", "Metadata"}, rows)
}

func writeCSV(headers []string, rows [][]string) ([]byte, error) {
	var b bytes.Buffer
	writer := csv.NewWriter(&b)

	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return b.Bytes(), nil
}
