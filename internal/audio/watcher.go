package audio

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Invalidator drops cached decodes of a file.
type Invalidator interface {
	InvalidateCache(path string)
}

// Watcher invalidates cached sounds when their files change on disk.
// Directories are watched so replaced files are noticed too.
type Watcher struct {
	mu     sync.Mutex
	logger *slog.Logger
	cache  Invalidator

	watcher *fsnotify.Watcher
	paths   map[string]struct{} // cleaned sound file paths
	dirs    map[string]int      // watched directory -> number of sounds in it

	stopCh chan struct{}
	doneCh chan struct{}

	running bool
}

// NewWatcher creates a new sound file watcher.
func NewWatcher(cache Invalidator, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}

	return &Watcher{
		logger: logger,
		cache:  cache,
		paths:  make(map[string]struct{}),
		dirs:   make(map[string]int),
	}
}

// Start begins watching. Paths added before Start are picked up.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create sound watcher: %w", err)
	}
	for dir := range w.dirs {
		if err := watcher.Add(dir); err != nil {
			w.logger.Warn("failed to watch sound directory", "dir", dir, "error", err)
		}
	}

	w.watcher = watcher
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.running = true

	go w.watchLoop(ctx, watcher, w.stopCh, w.doneCh)

	w.logger.Debug("sound watcher started", "dirs", len(w.dirs))
	return nil
}

// Stop stops watching.
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
	w.watcher = nil
	w.mu.Unlock()

	<-doneCh
	_ = watcher.Close()
	w.logger.Debug("sound watcher stopped")
}

// Watch adds a sound file.
func (w *Watcher) Watch(path string) {
	if path == "" {
		return
	}
	path = filepath.Clean(path)

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.paths[path]; ok {
		return
	}
	w.paths[path] = struct{}{}

	dir := filepath.Dir(path)
	w.dirs[dir]++
	if w.dirs[dir] == 1 && w.watcher != nil {
		if err := w.watcher.Add(dir); err != nil {
			w.logger.Warn("failed to watch sound directory", "dir", dir, "error", err)
		}
	}
}

// Unwatch removes a sound file.
func (w *Watcher) Unwatch(path string) {
	path = filepath.Clean(path)

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.paths[path]; !ok {
		return
	}
	delete(w.paths, path)

	dir := filepath.Dir(path)
	w.dirs[dir]--
	if w.dirs[dir] > 0 {
		return
	}
	delete(w.dirs, dir)
	if w.watcher != nil {
		_ = w.watcher.Remove(dir)
	}
}

// UnwatchAll removes every sound file.
func (w *Watcher) UnwatchAll() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.watcher != nil {
		for dir := range w.dirs {
			_ = w.watcher.Remove(dir)
		}
	}
	w.paths = make(map[string]struct{})
	w.dirs = make(map[string]int)
}

// IsRunning returns whether the watcher is currently running.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Watcher) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, stopCh, doneCh chan struct{}) {
	defer close(doneCh)

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
			w.handle(event)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.logger.Debug("sound watcher error", "error", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
		return
	}

	path := filepath.Clean(event.Name)
	w.mu.Lock()
	_, watched := w.paths[path]
	w.mu.Unlock()

	if !watched {
		return
	}
	w.logger.Debug("sound file changed, invalidating cache", "path", path, "op", event.Op.String())
	w.cache.InvalidateCache(path)
}
