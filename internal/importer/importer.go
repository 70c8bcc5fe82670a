package importer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/yildizm/docvec/internal/common"
	"github.com/yildizm/docvec/internal/docstore"
	"github.com/yildizm/docvec/internal/logger"
)

// DefaultWorkers bounds concurrent document writes when no option is given
const DefaultWorkers = 4

// ErrDuplicateID is returned when a file lists the same id twice
var ErrDuplicateID = errors.New("duplicate document id")

// Document is one entry of an import file
type Document struct {
	ID       string          `yaml:"id" json:"id"`
	Text     string          `yaml:"text" json:"text"`
	Metadata common.Metadata `yaml:"metadata" json:"metadata"`
}

// File is the top-level shape of an import file
type File struct {
	Documents []Document `yaml:"documents" json:"documents"`
}

// Action describes what an import did with a document
type Action string

const (
	ActionCreated   Action = "created"
	ActionUpdated   Action = "updated"
	ActionUnchanged Action = "unchanged"
	ActionFailed    Action = "failed"
)

// Result is the outcome for a single document
type Result struct {
	ID     string `json:"id"`
	Action Action `json:"action"`
	Err    error  `json:"-"`
}

// Summary collects the results of one import run, in file order
type Summary struct {
	Results   []Result      `json:"results"`
	Created   int           `json:"created"`
	Updated   int           `json:"updated"`
	Unchanged int           `json:"unchanged"`
	Failed    int           `json:"failed"`
	Duration  time.Duration `json:"duration"`
}

// Store is the subset of docstore.Store an import needs
type Store interface {
	Create(ctx context.Context, id, text string, metadata common.Metadata) error
	Read(ctx context.Context, id string) (*docstore.Record, error)
	Update(ctx context.Context, id, text string, metadata common.Metadata) error
}

// Importer applies import files to a store
type Importer struct {
	store   Store
	workers int
	log     *logger.Logger
}

// Option configures an Importer
type Option func(*Importer)

// WithWorkers sets how many documents are applied concurrently
func WithWorkers(n int) Option {
	return func(im *Importer) {
		if n > 0 {
			im.workers = n
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *logger.Logger) Option {
	return func(im *Importer) {
		im.log = l.WithComponent("importer")
	}
}

// New creates an importer writing to store
func New(store Store, options ...Option) *Importer {
	im := &Importer{
		store:   store,
		workers: DefaultWorkers,
		log:     logger.Nop(),
	}
	for _, option := range options {
		option(im)
	}
	return im
}

// Load reads and parses an import file. JSON files parse as YAML.
func Load(path string) (*File, error) {
	// #nosec G304 - path is supplied by the user on the command line
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read import file: %w", err)
	}
	return Parse(data)
}

// Parse decodes an import document and rejects blank or repeated ids
func Parse(data []byte) (*File, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse import file: %w", err)
	}

	seen := make(map[string]int, len(file.Documents))
	for i, doc := range file.Documents {
		if doc.ID == "" {
			return nil, fmt.Errorf("document %d: id must not be empty", i+1)
		}
		if first, ok := seen[doc.ID]; ok {
			return nil, fmt.Errorf("%w %q (entries %d and %d)", ErrDuplicateID, doc.ID, first+1, i+1)
		}
		seen[doc.ID] = i
	}
	return &file, nil
}

// ImportFile loads path and applies its documents
func (im *Importer) ImportFile(ctx context.Context, path string) (*Summary, error) {
	file, err := Load(path)
	if err != nil {
		return nil, err
	}
	return im.Apply(ctx, file.Documents)
}

// Apply creates absent documents, updates changed ones and skips identical ones.
// Per-document failures are reported in the summary; only cancellation aborts.
func (im *Importer) Apply(ctx context.Context, docs []Document) (*Summary, error) {
	start := time.Now()
	results := make([]Result, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(im.workers)

	for i, doc := range docs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = im.apply(gctx, doc)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("import cancelled: %w", err)
	}

	summary := &Summary{Results: results, Duration: time.Since(start)}
	for _, r := range results {
		switch r.Action {
		case ActionCreated:
			summary.Created++
		case ActionUpdated:
			summary.Updated++
		case ActionUnchanged:
			summary.Unchanged++
		case ActionFailed:
			summary.Failed++
		}
	}

	im.log.InfoWithFields("import applied", []logger.Field{
		logger.Count(len(docs)),
		logger.F("created", summary.Created),
		logger.F("updated", summary.Updated),
		logger.F("unchanged", summary.Unchanged),
		logger.F("failed", summary.Failed),
		logger.Duration(summary.Duration),
	})
	return summary, nil
}

func (im *Importer) apply(ctx context.Context, doc Document) Result {
	existing, err := im.store.Read(ctx, doc.ID)
	switch {
	case errors.Is(err, docstore.ErrNotFound):
		return im.result(doc.ID, ActionCreated, im.store.Create(ctx, doc.ID, doc.Text, doc.Metadata))
	case err != nil:
		return im.result(doc.ID, ActionFailed, err)
	}

	if unchanged(existing, doc) {
		return Result{ID: doc.ID, Action: ActionUnchanged}
	}
	return im.result(doc.ID, ActionUpdated, im.store.Update(ctx, doc.ID, doc.Text, doc.Metadata))
}

func (im *Importer) result(id string, action Action, err error) Result {
	if err != nil {
		im.log.WarnWithFields("document not imported", []logger.Field{logger.ID(id), logger.Err(err)})
		return Result{ID: id, Action: ActionFailed, Err: err}
	}
	return Result{ID: id, Action: action}
}

func unchanged(existing *docstore.Record, doc Document) bool {
	if existing.Text != doc.Text {
		return false
	}
	md, err := doc.Metadata.Normalize()
	if err != nil {
		return false
	}
	return existing.Metadata.Equal(md)
}
