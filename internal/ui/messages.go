package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/yildizm/docvec/internal/docstore"
)

type recordsLoadedMsg struct {
	records []*docstore.Record
}

type queryResultMsg struct {
	result *docstore.QueryResult
}

type errMsg struct {
	err error
}

// loadRecordsCmd lists every stored document
func loadRecordsCmd(store Store) tea.Cmd {
	return func() tea.Msg {
		records, err := store.ListAll(context.Background())
		if err != nil {
			return errMsg{err: err}
		}
		return recordsLoadedMsg{records: records}
	}
}

// queryCmd runs a similarity query
func queryCmd(store Store, req docstore.QueryRequest) tea.Cmd {
	return func() tea.Msg {
		result, err := store.Query(context.Background(), req)
		if err != nil {
			return errMsg{err: err}
		}
		return queryResultMsg{result: result}
	}
}
