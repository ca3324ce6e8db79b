package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultReloadDelay debounces bursts of writes from editors.
const DefaultReloadDelay = 500 * time.Millisecond

// ReloadFunc receives every successfully loaded and validated config.
type ReloadFunc func(*Config) error

// Watcher reloads a config file when it changes on disk.
type Watcher struct {
	path     string
	reloadFn ReloadFunc
	logger   zerolog.Logger

	// Delay is the debounce interval. It must be set before Start.
	Delay time.Duration

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	timer   *time.Timer
	done    chan struct{}
}

// NewWatcher creates a watcher for the config file at path.
func NewWatcher(path string, logger zerolog.Logger, reloadFn ReloadFunc) *Watcher {
	return &Watcher{
		path:     filepath.Clean(path),
		reloadFn: reloadFn,
		logger:   logger.With().Str("component", "config-watcher").Logger(),
		Delay:    DefaultReloadDelay,
	}
}

// Start begins watching in the background until ctx is done or Stop is called.
// The parent directory is watched so that editors that replace the file by
// rename are still noticed.
func (w *Watcher) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", w.path, err)
	}

	w.mu.Lock()
	w.watcher = watcher
	w.done = make(chan struct{})
	w.mu.Unlock()

	go w.processEvents(ctx, watcher)

	w.logger.Info().Str("path", w.path).Msg("Started watching config")
	return nil
}

// processEvents processes file system events and triggers reloads.
func (w *Watcher) processEvents(ctx context.Context, watcher *fsnotify.Watcher) {
	defer close(w.done)

	for {
		select {
		case <-ctx.Done():
			w.stopTimer()
			_ = watcher.Close()
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}

			w.logger.Debug().
				Str("file", event.Name).
				Str("op", event.Op.String()).
				Msg("Config file changed")

			w.mu.Lock()
			if w.timer != nil {
				w.timer.Stop()
			}
			w.timer = time.AfterFunc(w.Delay, func() {
				if err := w.reload(); err != nil {
					w.logger.Error().Err(err).Msg("Failed to reload config")
				}
			})
			w.mu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error().Err(err).Msg("Watcher error")
		}
	}
}

// reload loads the file and hands it to the callback. An invalid file is
// reported and the previous config stays in effect.
func (w *Watcher) reload() error {
	cfg, err := Load(w.path)
	if err != nil {
		return err
	}

	if err := w.reloadFn(cfg); err != nil {
		return fmt.Errorf("failed to apply reloaded config: %w", err)
	}

	w.logger.Info().Str("path", w.path).Msg("Config reloaded")
	return nil
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

// Stop stops watching and waits for the event loop to exit.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	watcher, done := w.watcher, w.done
	w.watcher = nil
	w.mu.Unlock()

	if watcher == nil {
		return nil
	}

	w.stopTimer()
	err := watcher.Close()
	<-done
	return err
}
