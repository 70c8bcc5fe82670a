package docstore

import (
	"github.com/yildizm/docvec/internal/common"
)

// DefaultTopK is the result count used when a query leaves TopK at zero
const DefaultTopK = 5

// Record is a stored document. Its embedding stays inside the index.
type Record struct {
	ID       string          `json:"id"`
	Text     string          `json:"text"`
	Metadata common.Metadata `json:"metadata"`
}

// QueryRequest describes a filtered similarity query
type QueryRequest struct {
	Text    string        `json:"text"`
	Filters common.Filter `json:"filters,omitempty"`
	TopK    int           `json:"top_k,omitempty"`

	// MinScore drops matches scoring below it. Zero disables the cutoff.
	MinScore float64 `json:"min_score,omitempty"`
}

// Match is a single query hit
type Match struct {
	Record   *Record `json:"record"`
	Distance float64 `json:"distance"`
	Score    float64 `json:"score"`
}

// Relevance returns the score clamped to [0,1] for display
func (m Match) Relevance() float64 {
	switch {
	case m.Score < 0:
		return 0
	case m.Score > 1:
		return 1
	default:
		return m.Score
	}
}

// QueryResult holds the matches of a query, best first
type QueryResult struct {
	Query   string        `json:"query"`
	Filters common.Filter `json:"filters,omitempty"`
	TopK    int           `json:"top_k"`
	Matches []Match       `json:"matches"`
}

// Columns is the parallel-array form of a query result
type Columns struct {
	IDs       []string          `json:"ids"`
	Documents []string          `json:"documents"`
	Metadatas []common.Metadata `json:"metadatas"`
	Distances []float64         `json:"distances"`
	Scores    []float64         `json:"scores"`
}

// Columns converts the matches into parallel arrays
func (r *QueryResult) Columns() Columns {
	n := len(r.Matches)
	cols := Columns{
		IDs:       make([]string, 0, n),
		Documents: make([]string, 0, n),
		Metadatas: make([]common.Metadata, 0, n),
		Distances: make([]float64, 0, n),
		Scores:    make([]float64, 0, n),
	}
	for _, m := range r.Matches {
		cols.IDs = append(cols.IDs, m.Record.ID)
		cols.Documents = append(cols.Documents, m.Record.Text)
		cols.Metadatas = append(cols.Metadatas, m.Record.Metadata)
		cols.Distances = append(cols.Distances, m.Distance)
		cols.Scores = append(cols.Scores, m.Score)
	}
	return cols
}
