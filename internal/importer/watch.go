package importer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/yildizm/docvec/internal/logger"
)

// DefaultDebounce is the quiet period after the last change before re-applying
const DefaultDebounce = 500 * time.Millisecond

// Watcher re-applies an import file whenever it changes
type Watcher struct {
	importer *Importer
	path     string
	debounce time.Duration
	fs       *fsnotify.Watcher
}

// NewWatcher starts watching path. The parent directory is watched so
// editors that replace the file on save are still seen.
func (im *Importer) NewWatcher(path string, debounce time.Duration) (*Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("cannot access file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("cannot watch directory, must be a file")
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fs.Add(filepath.Dir(absPath)); err != nil {
		_ = fs.Close()
		return nil, fmt.Errorf("failed to watch file: %w", err)
	}

	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	return &Watcher{
		importer: im,
		path:     absPath,
		debounce: debounce,
		fs:       fs,
	}, nil
}

// Run blocks until ctx is done, calling onApply after each debounced change
func (w *Watcher) Run(ctx context.Context, onApply func(*Summary, error)) error {
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fs.Events:
			if !ok {
				return errors.New("watcher events channel closed")
			}
			if !w.relevant(event) {
				continue
			}
			w.importer.log.DebugWithFields("import file changed", []logger.Field{logger.F("op", event.Op.String())})
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			summary, err := w.importer.ImportFile(ctx, w.path)
			onApply(summary, err)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return errors.New("watcher errors channel closed")
			}
			w.importer.log.Warn("watcher error: %v", err)
		}
	}
}

// Path returns the absolute path being watched
func (w *Watcher) Path() string {
	return w.path
}

// Close stops the underlying file system watcher
func (w *Watcher) Close() error {
	return w.fs.Close()
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create)
}
