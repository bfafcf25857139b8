package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/nmolargik/setdeck/internal/logging"
)

// Watcher reloads the config file on change and hands the fresh Config to a
// callback. Used by serve for hot log-level changes.
type Watcher struct {
	loader   *Loader
	path     string
	logger   *logging.Logger
	onReload func(*Config)
}

// NewWatcher creates a watcher for the config file the loader resolved. The
// callback runs on the watcher goroutine; keep it short.
func NewWatcher(loader *Loader, logger *logging.Logger, onReload func(*Config)) (*Watcher, error) {
	path := loader.ConfigFile()
	if path == "" {
		return nil, fmt.Errorf("no config file in use")
	}
	return &Watcher{
		loader:   loader,
		path:     path,
		logger:   logger,
		onReload: onReload,
	}, nil
}

// Watch blocks until ctx is done, reloading on every write to the config
// file. Editors often replace the file, so the parent directory is watched
// and events are filtered by name.
func (w *Watcher) Watch(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating config watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watching config directory: %w", err)
	}
	w.logger.Debug("watching config file", "path", w.path)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			cfg, err := w.loader.Load()
			if err != nil {
				w.logger.Warn("config reload failed", "error", err)
				continue
			}
			w.logger.Info("config reloaded", "path", w.path)
			w.onReload(cfg)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("config watcher error", "error", err)
		}
	}
}
