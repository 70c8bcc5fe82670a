package ui

import (
	"context"

	"github.com/yildizm/docvec/internal/docstore"
)

// View represents different browser views
type View int

const (
	ViewList View = iota
	ViewResults
	ViewDetails
	ViewHelp
)

// inputMode tells which prompt, if any, is capturing keystrokes
type inputMode int

const (
	inputNone inputMode = iota
	inputQuery
	inputCategory
)

// Store is the subset of the document store the browser reads from
type Store interface {
	ListAll(ctx context.Context) ([]*docstore.Record, error)
	Query(ctx context.Context, req docstore.QueryRequest) (*docstore.QueryResult, error)
}

// Options configures a browser
type Options struct {
	TopK        int
	MinScore    float64
	CategoryKey string
	Theme       Theme
	Color       bool
	Emoji       bool
}
