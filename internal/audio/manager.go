package audio

import (
	"context"
	"log/slog"
	"maps"
	"os"
	"sync"

	"github.com/jmylchreest/toastkit/internal/config"
	"github.com/jmylchreest/toastkit/internal/model"
)

// backend is the part of Player the Manager drives.
type backend interface {
	Invalidator
	Play(path string) error
	Preload(path string) error
	SetVolume(volume float64)
	ClearCache()
	Close()
}

// Manager plays the configured sound when a toast of a given style is shown.
type Manager struct {
	mu      sync.RWMutex
	logger  *slog.Logger
	player  backend
	watcher *Watcher
	config  *config.DaemonConfig

	// Style to sound path mapping
	sounds map[model.Style]string
}

// NewManager creates a new audio manager backed by the speaker.
func NewManager(cfg *config.DaemonConfig, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return newManager(cfg, NewPlayer(logger), logger)
}

func newManager(cfg *config.DaemonConfig, player backend, logger *slog.Logger) *Manager {
	if cfg == nil {
		cfg = config.DefaultDaemonConfig()
	}

	m := &Manager{
		logger:  logger,
		player:  player,
		watcher: NewWatcher(player, logger),
		config:  cfg,
		sounds:  make(map[model.Style]string),
	}
	m.loadSoundConfig()
	return m
}

// loadSoundConfig resolves the per-style sound files. Missing files are skipped.
func (m *Manager) loadSoundConfig() {
	m.mu.Lock()
	defer m.mu.Unlock()

	// config uses 0-100, the player 0.0-1.0
	m.player.SetVolume(float64(m.config.Audio.Volume) / 100.0)

	m.sounds = make(map[model.Style]string)
	for _, style := range []model.Style{model.StylePlain, model.StyleSuccess, model.StyleError, model.StyleWarning} {
		path := m.config.SoundForStyle(style)
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			m.logger.Warn("sound file not found", "style", style, "path", path)
			continue
		}
		m.sounds[style] = path
		m.logger.Debug("loaded sound", "style", style, "path", path)
	}
}

func (m *Manager) soundPaths() map[model.Style]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return maps.Clone(m.sounds)
}

// Start preloads the configured sounds and watches them for changes.
func (m *Manager) Start(ctx context.Context) error {
	m.preloadAndWatch()
	if err := m.watcher.Start(ctx); err != nil {
		return err
	}

	m.logger.Info("audio manager started", "sounds", len(m.soundPaths()), "enabled", m.Enabled())
	return nil
}

// Stop shuts down the audio manager.
func (m *Manager) Stop() {
	m.watcher.Stop()
	m.player.Close()
	m.logger.Debug("audio manager stopped")
}

func (m *Manager) preloadAndWatch() {
	if !m.Enabled() {
		return
	}
	for _, path := range m.soundPaths() {
		if err := m.player.Preload(path); err != nil {
			m.logger.Warn("failed to preload sound", "path", path, "error", err)
		}
		m.watcher.Watch(path)
	}
}

// Enabled reports whether sounds are switched on in the config.
func (m *Manager) Enabled() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config.Audio.Enabled
}

// SoundFor returns the sound file configured for a style, if any.
func (m *Manager) SoundFor(style model.Style) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	path, ok := m.sounds[style]
	return path, ok
}

// PlayForStyle plays the sound configured for the style.
// It is a no-op when audio is disabled or no sound is configured.
func (m *Manager) PlayForStyle(style model.Style) error {
	if !m.Enabled() {
		return nil
	}

	path, ok := m.SoundFor(style)
	if !ok {
		m.logger.Debug("no sound configured for style", "style", style)
		return nil
	}
	return m.player.Play(path)
}

// UpdateConfig swaps in a reloaded configuration and reloads sounds.
func (m *Manager) UpdateConfig(cfg *config.DaemonConfig) {
	if cfg == nil {
		return
	}

	m.mu.Lock()
	m.config = cfg
	m.mu.Unlock()

	m.player.ClearCache()
	m.watcher.UnwatchAll()
	m.loadSoundConfig()
	m.preloadAndWatch()

	m.logger.Debug("audio manager config updated", "sounds", len(m.soundPaths()))
}
