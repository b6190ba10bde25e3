package router

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/hupe1980/modelmesh/logging"
)

// Watch reloads the classification table whenever the file at path changes,
// until ctx is cancelled. The watch runs on its own goroutine; a reload
// failure keeps the previous table active and is logged, never fatal.
//
// The parent directory is watched rather than the file itself so that
// editors and config-management tools that replace the file via rename are
// picked up.
func (t *ClassificationTable) Watch(ctx context.Context, path string, logger logging.Logger) error {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create table watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	target := filepath.Clean(path)

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				reloaded, err := LoadClassificationTable(path)
				if err != nil {
					logger.Warn("classification table reload failed, keeping previous table", "path", path, "error", err)
					continue
				}
				t.mu.Lock()
				t.version = reloaded.version
				t.quota = reloaded.quota
				t.auth = reloaded.auth
				t.proto = reloaded.proto
				t.mu.Unlock()
				logger.Info("classification table reloaded", "path", path, "version", reloaded.version)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("classification table watcher error", "error", err)
			}
		}
	}()

	return nil
}
