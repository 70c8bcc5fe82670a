package formatter

import (
	"encoding/json"

	"github.com/yildizm/docvec/internal/common"
	"github.com/yildizm/docvec/internal/docstore"
)

// jsonFormatter formats output as JSON
type jsonFormatter struct{}

// NewJSON creates a new JSON formatter
func NewJSON() Formatter {
	return &jsonFormatter{}
}

// RecordsOutput is the JSON shape of a document listing
type RecordsOutput struct {
	Count     int                `json:"count"`
	Documents []*docstore.Record `json:"documents"`
}

// QueryOutput is the JSON shape of a query: the parallel arrays plus the request echo
type QueryOutput struct {
	Query   string        `json:"query"`
	Filters common.Filter `json:"filters,omitempty"`
	TopK    int           `json:"top_k"`
	docstore.Columns
}

func (f *jsonFormatter) FormatRecords(records []*docstore.Record) ([]byte, error) {
	if records == nil {
		records = []*docstore.Record{}
	}
	return json.MarshalIndent(&RecordsOutput{Count: len(records), Documents: records}, "", "  ")
}

func (f *jsonFormatter) FormatRecord(record *docstore.Record) ([]byte, error) {
	return json.MarshalIndent(record, "", "  ")
}

func (f *jsonFormatter) FormatQuery(result *docstore.QueryResult) ([]byte, error) {
	output := &QueryOutput{
		Query:   result.Query,
		Filters: result.Filters,
		TopK:    result.TopK,
		Columns: result.Columns(),
	}
	return json.MarshalIndent(output, "", "  ")
}
