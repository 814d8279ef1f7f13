package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/j-veylop/oee-dashboard-tui/internal/logger"
	"github.com/j-veylop/oee-dashboard-tui/internal/models"
)

const watchDebounce = 100 * time.Millisecond

// FileSource reads a CSV export from disk.
type FileSource struct {
	path string
}

// NewFileSource returns a source for the CSV file at path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Path returns the file path.
func (f *FileSource) Path() string {
	return f.path
}

// Name implements Source.
func (f *FileSource) Name() string {
	return "file:" + filepath.Base(f.path)
}

// Fetch implements Source.
func (f *FileSource) Fetch(ctx context.Context) (*models.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	file, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("open source file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.Error("failed to close source file", "error", err)
		}
	}()

	tbl, err := ParseCSV(file)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", f.path, err)
	}
	return tbl, nil
}

// Watch calls onChange after the file is written or replaced, debounced so
// an editor's burst of events triggers one reload. It blocks until ctx is
// cancelled. The parent directory is watched so atomic saves that swap the
// inode are still seen.
func (f *FileSource) Watch(ctx context.Context, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	dir := filepath.Dir(f.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	logger.Info("watching source file", "path", f.path)

	base := filepath.Base(f.path)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(watchDebounce, onChange)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("source watcher error", "error", err)
		}
	}
}
