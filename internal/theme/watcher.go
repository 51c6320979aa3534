package theme

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a theme file when it changes and passes the new CSS on.
type Watcher struct {
	mu     sync.RWMutex
	logger *slog.Logger

	theme    *Theme
	debounce time.Duration

	onChangeCallback func(css string)
	onErrorCallback  func(err error)

	watcher *fsnotify.Watcher
	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

// NewWatcher creates a new theme watcher.
func NewWatcher(theme *Theme, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		logger:   logger,
		theme:    theme,
		debounce: 100 * time.Millisecond,
	}
}

// SetDebounce sets how long the watcher waits for events to settle.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.debounce = d
}

// SetChangeCallback sets the callback invoked with the new CSS content.
func (w *Watcher) SetChangeCallback(callback func(css string)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChangeCallback = callback
}

// SetErrorCallback sets the callback invoked when the file cannot be reloaded.
func (w *Watcher) SetErrorCallback(callback func(err error)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onErrorCallback = callback
}

// Start begins watching. Bundled themes have no file and are not watched.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}
	if w.theme == nil || w.theme.IsBundled {
		w.logger.Debug("not watching bundled theme")
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create theme watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(w.theme.Path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch theme: %w", err)
	}

	w.watcher = watcher
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.running = true

	go w.watchLoop(ctx, watcher, filepath.Clean(w.theme.Path), w.stopCh, w.doneCh)

	w.logger.Debug("theme watcher started", "path", w.theme.Path)
	return nil
}

// Stop stops watching the theme file.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	close(w.stopCh)
	doneCh := w.doneCh
	watcher := w.watcher
	w.mu.Unlock()

	<-doneCh
	_ = watcher.Close()
	w.logger.Debug("theme watcher stopped")
}

// IsRunning returns whether the watcher is currently running.
func (w *Watcher) IsRunning() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

func (w *Watcher) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, name string, stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	var settle <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != name || !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			w.mu.RLock()
			settle = time.After(w.debounce)
			w.mu.RUnlock()
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.logger.Debug("theme watcher error", "error", err)
		case <-settle:
			settle = nil
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	w.mu.RLock()
	theme := w.theme
	onChange := w.onChangeCallback
	onError := w.onErrorCallback
	w.mu.RUnlock()

	changed, err := theme.Reload()
	if err != nil {
		w.logger.Warn("failed to reload theme", "path", theme.Path, "error", err)
		if onError != nil {
			onError(err)
		}
		return
	}
	if !changed {
		return
	}

	w.logger.Info("theme file changed, reloading", "path", theme.Path)
	if onChange != nil {
		onChange(theme.CSS)
	}
}
