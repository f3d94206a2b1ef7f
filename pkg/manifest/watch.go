package manifest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 150 * time.Millisecond

// WatchOption customises Watch.
type WatchOption func(*watchConfig)

type watchConfig struct {
	debounce time.Duration
	logger   *slog.Logger
}

// WithDebounce sets how long Watch waits for writes to settle before
// reloading.
func WithDebounce(d time.Duration) WatchOption {
	return func(cfg *watchConfig) {
		if d > 0 {
			cfg.debounce = d
		}
	}
}

// WithWatchLogger sets the structured logger.
func WithWatchLogger(logger *slog.Logger) WatchOption {
	return func(cfg *watchConfig) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// Watch reloads the manifest at path whenever it changes and reports each
// outcome to fn. The parent directory is watched so editors that replace the
// file through a rename are picked up. Watch blocks until ctx is done.
func Watch(ctx context.Context, path string, fn func(*Manifest, error), options ...WatchOption) error {
	if fn == nil {
		return errors.New("manifest: watch callback is required")
	}
	cfg := watchConfig{
		debounce: defaultDebounce,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("manifest: resolve %s: %w", path, err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("manifest: create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("manifest: watch %s: %w", filepath.Dir(abs), err)
	}
	cfg.logger.Info("watching manifest", slog.String("path", abs))

	timer := time.NewTimer(cfg.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			cfg.logger.Debug("manifest changed", slog.String("op", event.Op.String()))
			timer.Reset(cfg.debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			cfg.logger.Warn("manifest watcher error", slog.Any("error", err))
		case <-timer.C:
			m, err := Load(abs)
			if err != nil {
				cfg.logger.Warn("manifest reload failed", slog.Any("error", err))
			} else {
				cfg.logger.Info("manifest reloaded", slog.Int("pages", len(m.Pages)))
			}
			fn(m, err)
		}
	}
}
