package store

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/crazyserver/homeassistant-core/internal/infrastructure/logging"
)

const watchDebounce = 100 * time.Millisecond

// Watch observes the backing file and invokes onChange when it is written
// outside the API (hand edits, sync tools). Events are debounced because a
// single save often produces several filesystem events.
//
// The watch runs until ctx is cancelled. The parent directory must exist.
func (s *Store) Watch(ctx context.Context, logger *logging.Logger, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	// Watch the directory, not the file: editors replace files via rename,
	// which drops a direct file watch.
	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	go func() {
		defer watcher.Close()

		var timer *time.Timer
		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(s.path) {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(watchDebounce, onChange)

			case werr, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("Document watcher error", zap.String("path", s.path), zap.Error(werr))
			}
		}
	}()

	return nil
}
