package index

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/yildizm/docvec/internal/common"
)

const schemaVersion = "1"

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS index_info (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS documents (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	text TEXT NOT NULL,
	metadata TEXT NOT NULL,
	embedding BLOB NOT NULL
);

CREATE TABLE IF NOT EXISTS document_metadata (
	seq INTEGER NOT NULL,
	key TEXT NOT NULL,
	value TEXT NOT NULL,
	PRIMARY KEY (seq, key)
);

CREATE INDEX IF NOT EXISTS idx_document_metadata_kv ON document_metadata(key, value);
`

// SQLiteIndex is a persistent Index backed by a SQLite database file.
// Distances are computed in Go over the rows that pass the metadata filter.
type SQLiteIndex struct {
	db        *sql.DB
	path      string
	dimension int
	metric    Metric

	mu     sync.RWMutex
	closed bool
}

// OpenSQLite opens or creates the index database at path. The special path
// ":memory:" creates a transient database. An existing database must have been
// created with the same dimension and metric.
func OpenSQLite(ctx context.Context, path string, dimension int, metric Metric) (*SQLiteIndex, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("dimension must be positive, got %d", dimension)
	}
	metric, err := ParseMetric(string(metric))
	if err != nil {
		return nil, err
	}

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection serializes writers and keeps :memory: databases alive.
	db.SetMaxOpenConns(1)

	idx := &SQLiteIndex{
		db:        db,
		path:      path,
		dimension: dimension,
		metric:    metric,
	}

	if err := idx.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if err := idx.checkInfo(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return idx, nil
}

func (s *SQLiteIndex) initSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteSchema)
	return err
}

// checkInfo records dimension and metric on first open and verifies them afterwards
func (s *SQLiteIndex) checkInfo(ctx context.Context) error {
	want := map[string]string{
		"version":   schemaVersion,
		"dimension": strconv.Itoa(s.dimension),
		"metric":    string(s.metric),
	}

	for _, key := range []string{"version", "dimension", "metric"} {
		stored, err := s.getInfo(ctx, key)
		if errors.Is(err, sql.ErrNoRows) {
			if err := s.setInfo(ctx, key, want[key]); err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to read index info %q: %w", key, err)
		}
		if stored == want[key] {
			continue
		}
		if key == "dimension" {
			return fmt.Errorf("%w: database has %s, requested %d", ErrDimensionMismatch, stored, s.dimension)
		}
		return fmt.Errorf("index %s mismatch: database has %q, requested %q", key, stored, want[key])
	}
	return nil
}

func (s *SQLiteIndex) getInfo(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM index_info WHERE key = ?`, key).Scan(&value)
	return value, err
}

func (s *SQLiteIndex) setInfo(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO index_info (key, value) VALUES (?, ?)`, key, value)
	return err
}

// Insert adds a new entry. The id uniqueness check is part of the INSERT itself.
func (s *SQLiteIndex) Insert(ctx context.Context, entry Entry) error {
	if err := checkEntry(entry, s.dimension); err != nil {
		return err
	}
	metadataJSON, err := encodeMetadata(entry.Metadata)
	if err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO documents (id, text, metadata, embedding)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, entry.ID, entry.Text, string(metadataJSON), EncodeVector(entry.Vector))
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateID, entry.ID)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return err
	}

	if err := insertMetadataRows(ctx, tx, seq, entry.Metadata); err != nil {
		return err
	}
	return tx.Commit()
}

// Get loads the entry stored under id
func (s *SQLiteIndex) Get(ctx context.Context, id string) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return Entry{}, ErrClosed
	}

	row := s.db.QueryRowContext(ctx, `SELECT seq, id, text, metadata, embedding FROM documents WHERE id = ?`, id)
	_, entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// Update rewrites an entry in place; its seq, and so its insertion position, is kept
func (s *SQLiteIndex) Update(ctx context.Context, entry Entry) error {
	if err := checkEntry(entry, s.dimension); err != nil {
		return err
	}
	metadataJSON, err := encodeMetadata(entry.Metadata)
	if err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	seq, err := lookupSeq(ctx, tx, entry.ID)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE documents SET text = ?, metadata = ?, embedding = ? WHERE seq = ?
	`, entry.Text, string(metadataJSON), EncodeVector(entry.Vector), seq); err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM document_metadata WHERE seq = ?`, seq); err != nil {
		return fmt.Errorf("failed to clear metadata: %w", err)
	}
	if err := insertMetadataRows(ctx, tx, seq, entry.Metadata); err != nil {
		return err
	}
	return tx.Commit()
}

// Delete removes the entry and its metadata rows
func (s *SQLiteIndex) Delete(ctx context.Context, id string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	seq, err := lookupSeq(ctx, tx, id)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM document_metadata WHERE seq = ?`, seq); err != nil {
		return fmt.Errorf("failed to delete metadata: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE seq = ?`, seq); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return tx.Commit()
}

// Query scans the rows that pass filter and ranks them by distance to vector
func (s *SQLiteIndex) Query(ctx context.Context, vector []float32, k int, filter common.Filter) ([]Match, error) {
	if err := checkVector(vector, s.dimension); err != nil {
		return nil, err
	}
	if k < 0 {
		return nil, fmt.Errorf("k cannot be negative")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	query, args := buildFilterQuery(filter)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var cands []candidate
	for rows.Next() {
		seq, entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		cands = append(cands, candidate{
			seq:   uint64(seq),
			match: Match{Entry: entry, Distance: s.metric.Distance(vector, entry.Vector)},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return rank(cands, k), nil
}

// List returns every entry ordered by seq
func (s *SQLiteIndex) List(ctx context.Context) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	rows, err := s.db.QueryContext(ctx, `SELECT seq, id, text, metadata, embedding FROM documents ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := []Entry{}
	for rows.Next() {
		_, entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Count returns the number of stored documents
func (s *SQLiteIndex) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, ErrClosed
	}

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (s *SQLiteIndex) Dimension() int { return s.dimension }

func (s *SQLiteIndex) Metric() Metric { return s.metric }

// Path returns the database location
func (s *SQLiteIndex) Path() string { return s.path }

// Close closes the database connection
func (s *SQLiteIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (int64, Entry, error) {
	var (
		seq          int64
		entry        Entry
		metadataJSON string
		blob         []byte
	)
	if err := row.Scan(&seq, &entry.ID, &entry.Text, &metadataJSON, &blob); err != nil {
		return 0, Entry{}, err
	}

	metadata, err := decodeMetadata(metadataJSON)
	if err != nil {
		return 0, Entry{}, fmt.Errorf("document %s: %w", entry.ID, err)
	}
	entry.Metadata = metadata

	entry.Vector, err = DecodeVector(blob)
	if err != nil {
		return 0, Entry{}, fmt.Errorf("document %s: %w", entry.ID, err)
	}
	return seq, entry, nil
}

// typedValue keeps the kind of a metadata value through JSON, which
// would otherwise turn float64(2) into an integer on the way back
type typedValue struct {
	Type  string `json:"t"`
	Value any    `json:"v"`
}

const (
	typeString = "s"
	typeBool   = "b"
	typeInt    = "i"
	typeFloat  = "f"
)

func encodeMetadata(metadata common.Metadata) ([]byte, error) {
	typed := make(map[string]typedValue, len(metadata))
	for key, raw := range metadata {
		value, err := common.NormalizeValue(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to encode metadata key %q: %w", key, err)
		}

		var kind string
		switch value.(type) {
		case string:
			kind = typeString
		case bool:
			kind = typeBool
		case int64:
			kind = typeInt
		case float64:
			kind = typeFloat
		default:
			return nil, fmt.Errorf("failed to encode metadata key %q: %w", key, common.ErrUnsupportedValue)
		}
		typed[key] = typedValue{Type: kind, Value: value}
	}

	data, err := json.Marshal(typed)
	if err != nil {
		return nil, fmt.Errorf("failed to encode metadata: %w", err)
	}
	return data, nil
}

// decodeMetadata reads typed values. Untyped values from older databases
// fall back to integral numbers as int64 and the rest as float64.
func decodeMetadata(data string) (common.Metadata, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(data)))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}

	metadata := make(common.Metadata, len(raw))
	for key, value := range raw {
		v, err := decodeValue(value)
		if err != nil {
			return nil, fmt.Errorf("metadata key %q: %w", key, err)
		}
		metadata[key] = v
	}
	return metadata, nil
}

func decodeValue(value any) (any, error) {
	obj, ok := value.(map[string]any)
	if !ok {
		return decodeUntyped(value)
	}

	kind, _ := obj["t"].(string)
	switch kind {
	case typeString:
		if s, ok := obj["v"].(string); ok {
			return s, nil
		}
	case typeBool:
		if b, ok := obj["v"].(bool); ok {
			return b, nil
		}
	case typeInt:
		if num, ok := obj["v"].(json.Number); ok {
			return num.Int64()
		}
	case typeFloat:
		if num, ok := obj["v"].(json.Number); ok {
			return num.Float64()
		}
	}
	return nil, fmt.Errorf("malformed typed value %v", obj)
}

func decodeUntyped(value any) (any, error) {
	num, ok := value.(json.Number)
	if !ok {
		return value, nil
	}
	if i, err := num.Int64(); err == nil {
		return i, nil
	}
	return num.Float64()
}

func lookupSeq(ctx context.Context, tx *sql.Tx, id string) (int64, error) {
	var seq int64
	err := tx.QueryRowContext(ctx, `SELECT seq FROM documents WHERE id = ?`, id).Scan(&seq)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return seq, err
}

func insertMetadataRows(ctx context.Context, tx *sql.Tx, seq int64, metadata common.Metadata) error {
	if len(metadata) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO document_metadata (seq, key, value) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for _, key := range metadata.Keys() {
		if _, err := stmt.ExecContext(ctx, seq, key, common.ValueKey(metadata[key])); err != nil {
			return fmt.Errorf("failed to insert metadata %q: %w", key, err)
		}
	}
	return nil
}

// buildFilterQuery turns each filter pair into a seq IN (...) subquery
func buildFilterQuery(filter common.Filter) (string, []any) {
	var b strings.Builder
	b.WriteString(`SELECT seq, id, text, metadata, embedding FROM documents`)

	args := make([]any, 0, len(filter)*2)
	for i, key := range filter.Keys() {
		if i == 0 {
			b.WriteString(` WHERE `)
		} else {
			b.WriteString(` AND `)
		}
		b.WriteString(`seq IN (SELECT seq FROM document_metadata WHERE key = ? AND value = ?)`)
		args = append(args, key, common.ValueKey(filter[key]))
	}

	b.WriteString(` ORDER BY seq`)
	return b.String(), args
}
