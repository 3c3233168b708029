package watch

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const DefaultDebounce = 500 * time.Millisecond

// Database watches the directory of a SQLite file and calls onChange once
// writes to the database or its journal have been quiet for debounce.
func Database(ctx context.Context, dbPath string, debounce time.Duration, logger *slog.Logger, onChange func(ctx context.Context)) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	abs, err := filepath.Abs(dbPath)
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	dir := filepath.Dir(abs)
	if err := w.Add(dir); err != nil {
		return err
	}
	logger.Info("watcher: started", slog.String("path", abs))

	base := filepath.Base(abs)
	relevant := map[string]bool{
		base:              true,
		base + "-wal":     true,
		base + "-journal": true,
	}

	var timer *time.Timer
	var fireCh <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-fireCh:
			fireCh = nil
			logger.Debug("watcher: database changed")
			onChange(ctx)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !relevant[filepath.Base(ev.Name)] {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fireCh = timer.C

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
