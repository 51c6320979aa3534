package daemon

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/jmylchreest/toastkit/internal/config"
	"github.com/jmylchreest/toastkit/internal/dbus"
	"github.com/jmylchreest/toastkit/internal/model"
	"github.com/jmylchreest/toastkit/internal/toast"
)

// SignalEmitter publishes toast lifecycle signals on the bus.
type SignalEmitter interface {
	EmitToastClosed(id, outcome string) error
	EmitAnnounce(text string) error
}

// SoundPlayer plays the sound configured for a toast style.
type SoundPlayer interface {
	PlayForStyle(style model.Style) error
	UpdateConfig(cfg *config.DaemonConfig)
}

// Daemon connects the toast center to the bus, the config file and audio.
// It implements dbus.ToastHandler.
type Daemon struct {
	center   *toast.Center
	logger   *slog.Logger
	states   *DisplayStateManager
	notifier *InternalNotifier

	mu      sync.RWMutex
	cfg     *config.DaemonConfig
	signals SignalEmitter
	sounds  SoundPlayer
	applied []func(cfg *config.DaemonConfig)
}

var _ dbus.ToastHandler = (*Daemon)(nil)

// New creates a Daemon around center and applies cfg to it.
// A nil cfg uses the defaults.
func New(center *toast.Center, cfg *config.DaemonConfig, logger *slog.Logger) *Daemon {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg == nil {
		cfg = config.DefaultDaemonConfig()
	}

	d := &Daemon{
		center:   center,
		logger:   logger,
		states:   NewDisplayStateManager(),
		notifier: NewInternalNotifier(logger),
	}
	d.notifier.SetNotifyHandler(d.notify)
	center.OnShown(d.handleShown)
	d.ApplyConfig(cfg)

	return d
}

// SetSignalEmitter sets where ToastClosed and Announce signals go.
func (d *Daemon) SetSignalEmitter(s SignalEmitter) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.signals = s
}

// SetSoundPlayer sets the audio backend and hands it the current config.
func (d *Daemon) SetSoundPlayer(p SoundPlayer) {
	d.mu.Lock()
	d.sounds = p
	cfg := d.cfg
	d.mu.Unlock()

	if p != nil {
		p.UpdateConfig(cfg)
	}
}

// OnConfigApplied registers fn to run after each ApplyConfig, for settings
// the daemon does not own itself such as the display and theme.
func (d *Daemon) OnConfigApplied(fn func(cfg *config.DaemonConfig)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.applied = append(d.applied, fn)
}

// Notifier returns the daemon's internal notifier.
func (d *Daemon) Notifier() *InternalNotifier {
	return d.notifier
}

// States returns the registry of toasts submitted through the daemon.
func (d *Daemon) States() *DisplayStateManager {
	return d.states
}

// Config returns the configuration currently applied.
func (d *Daemon) Config() *config.DaemonConfig {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cfg
}

// ApplyConfig pushes appearance, accessibility and audio settings to their owners.
// Toasts already queued keep the appearance they were created with.
func (d *Daemon) ApplyConfig(cfg *config.DaemonConfig) {
	d.mu.Lock()
	d.cfg = cfg
	sounds := d.sounds
	applied := append([](func(*config.DaemonConfig))(nil), d.applied...)
	d.mu.Unlock()

	d.center.SetDefaultAppearance(cfg.Appearance.Model())
	d.center.SetAccessibilityEnabled(cfg.Accessibility.Announce)
	if sounds != nil {
		sounds.UpdateConfig(cfg)
	}
	for _, fn := range applied {
		fn(cfg)
	}

	d.logger.Debug("config applied",
		"position", cfg.Appearance.Position,
		"announce", cfg.Accessibility.Announce,
		"audio", cfg.Audio.Enabled)
}

// AttachConfigWatcher applies every valid reload and reports failed ones as a toast.
func (d *Daemon) AttachConfigWatcher(w *ConfigWatcher) {
	w.SetReloadCallback(func(cfg *config.DaemonConfig) {
		d.ApplyConfig(cfg)
		d.notifier.NotifyConfigReloaded()
	})
	w.SetErrorCallback(d.notifier.NotifyConfigError)
}

// Show queues a toast built from a bus request and returns its ID.
func (d *Daemon) Show(req dbus.ShowRequest) (string, error) {
	style, err := model.ParseStyle(req.Style)
	if err != nil {
		return "", err
	}

	opts := []toast.Option{
		toast.WithStyle(style),
		toast.WithDuration(d.Config().DurationOrDefault(req.Duration)),
		toast.WithDelay(req.Delay),
		toast.WithCompletion(d.handleComplete),
	}
	if req.Position != "" {
		pos, err := model.ParsePosition(req.Position)
		if err != nil {
			return "", err
		}
		opts = append(opts, toast.WithPosition(pos))
	}

	var t *toast.Toast
	if req.Markup {
		t, err = toast.NewStyled(d.center, req.Text, opts...)
	} else {
		t, err = toast.NewText(d.center, req.Text, opts...)
	}
	if err != nil {
		return "", fmt.Errorf("failed to create toast: %w", err)
	}

	d.states.Register(t, 0)
	d.logger.Debug("toast queued", "toast_id", t.ID(), "style", style, "position", t.Position())
	return t.ID(), nil
}

// Cancel cancels a toast by ID. It reports whether the toast was known.
func (d *Daemon) Cancel(id string) bool {
	state := d.states.Get(id)
	if state == nil {
		return false
	}
	state.Toast.Cancel()
	return true
}

// CancelCurrent dismisses the visible toast.
func (d *Daemon) CancelCurrent() bool {
	return d.center.CancelCurrent()
}

// CancelAll cancels every queued and visible toast.
func (d *Daemon) CancelAll() {
	d.center.CancelAll()
}

// SetAccessibility toggles screen reader announcements until the next config reload.
func (d *Daemon) SetAccessibility(enabled bool) {
	d.center.SetAccessibilityEnabled(enabled)
}

// Status reports the center's state.
func (d *Daemon) Status() dbus.StatusInfo {
	s := d.center.Status()
	return dbus.StatusInfo{
		Ready:         s.Ready,
		Queued:        uint32(s.Queued),
		CurrentID:     s.CurrentID,
		CurrentText:   s.CurrentText,
		ShownAt:       s.ShownAt,
		Accessibility: s.Accessibility,
	}
}

// Announce forwards a screen reader announcement to the bus.
func (d *Daemon) Announce(text string) {
	d.mu.RLock()
	signals := d.signals
	d.mu.RUnlock()

	if signals == nil {
		return
	}
	if err := signals.EmitAnnounce(text); err != nil {
		d.logger.Debug("failed to emit announce", "error", err)
	}
}

// MirrorStyle returns the preset used for a mirrored notification of the given urgency.
func MirrorStyle(urgency byte) model.Style {
	if urgency == dbus.UrgencyCritical {
		return model.StyleError
	}
	return model.StylePlain
}

// Mirror shows an observed desktop notification as a toast.
// The toast is keyed by the server-assigned ID, so a later notification that
// replaces it cancels the earlier toast.
func (d *Daemon) Mirror(n *dbus.DBusNotification) {
	text := strings.TrimSpace(n.Text())
	if text == "" {
		return
	}

	if n.ReplacesID != 0 {
		if prev := d.states.GetByMirrorID(n.ReplacesID); prev != nil {
			prev.Toast.Cancel()
		}
	}

	urgency := n.Urgency()
	t, err := toast.NewText(d.center, text,
		toast.WithStyle(MirrorStyle(urgency)),
		toast.WithDuration(d.Config().MirrorTimeout(urgency, n.ExpireTimeout)),
		toast.WithCompletion(d.handleComplete),
	)
	if err != nil {
		d.logger.Warn("failed to mirror notification", "app", n.AppName, "error", err)
		return
	}

	mirrorID := n.ID
	if mirrorID == 0 {
		mirrorID = n.ReplacesID
	}
	d.states.Register(t, mirrorID)
	d.logger.Debug("notification mirrored", "toast_id", t.ID(), "app", n.AppName, "urgency", urgency)
}

// notify posts a toast for the internal notifier.
func (d *Daemon) notify(text string, style model.Style) {
	t, err := toast.NewText(d.center, text,
		toast.WithStyle(style),
		toast.WithDuration(model.DurationLong),
		toast.WithCompletion(d.handleComplete),
	)
	if err != nil {
		d.logger.Warn("failed to post internal toast", "error", err)
		return
	}
	d.states.Register(t, 0)
}

func (d *Daemon) handleShown(t *toast.Toast) {
	d.states.SetStatus(t.ID(), DisplayStatusActive)

	d.mu.RLock()
	sounds := d.sounds
	d.mu.RUnlock()

	if sounds == nil {
		return
	}
	if err := sounds.PlayForStyle(t.Style()); err != nil {
		d.logger.Warn("failed to play sound", "toast_id", t.ID(), "style", t.Style(), "error", err)
		d.notifier.NotifyAudioError(err)
	}
}

func (d *Daemon) handleComplete(t *toast.Toast, outcome toast.Outcome) {
	d.states.SetStatus(t.ID(), StatusForOutcome(outcome))
	d.states.Remove(t.ID())

	d.mu.RLock()
	signals := d.signals
	d.mu.RUnlock()

	if signals != nil {
		if err := signals.EmitToastClosed(t.ID(), outcome.String()); err != nil {
			d.logger.Debug("failed to emit toast closed", "toast_id", t.ID(), "error", err)
		}
	}
	d.logger.Debug("toast completed", "toast_id", t.ID(), "outcome", outcome)
}
