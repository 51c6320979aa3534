package gtkhost

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/diamondburned/gotk4/pkg/core/glib"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/toastkit/internal/config"
	"github.com/jmylchreest/toastkit/internal/surface"
	"github.com/jmylchreest/toastkit/internal/theme"
)

// Host presents toasts as layer-shell windows on a Wayland compositor.
type Host struct {
	app    *gtk.Application
	loader *theme.Loader
	logger *slog.Logger

	mu        sync.RWMutex
	display   config.DisplayConfig
	announcer func(text string)

	nextID atomic.Uint64
}

var _ surface.Host = (*Host)(nil)

// New creates a host for app. Views are styled through loader.
func New(app *gtk.Application, loader *theme.Loader, cfg config.DisplayConfig, logger *slog.Logger) *Host {
	if logger == nil {
		logger = slog.Default()
	}
	return &Host{
		app:     app,
		loader:  loader,
		logger:  logger,
		display: cfg,
	}
}

// SetDisplayConfig replaces the monitor and window settings used for new views.
func (h *Host) SetDisplayConfig(cfg config.DisplayConfig) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.display = cfg
}

// SetAnnouncer sets the function that receives accessibility announcements.
func (h *Host) SetAnnouncer(fn func(text string)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.announcer = fn
}

func (h *Host) options() config.DisplayConfig {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.display
}

// ActiveDisplay resolves the configured monitor. Called on the GTK main loop.
func (h *Host) ActiveDisplay() (surface.Display, bool) {
	monitor, index, found := selectMonitor(gdk.DisplayGetDefault(), h.options().Monitor, h.logger)
	if !found {
		return nil, false
	}
	d := newDisplay(monitor, index)
	if d.bounds.Empty() {
		h.logger.Debug("monitor has no geometry", "monitor", d.name)
		return nil, false
	}
	return d, true
}

// AddView opens a toast window on d.
func (h *Host) AddView(d surface.Display, spec surface.ViewSpec) (surface.View, error) {
	display, ok := d.(*Display)
	if !ok {
		return nil, &surface.DisplayError{
			Message: "unsupported display",
			Cause:   errors.New(d.Name()),
		}
	}
	if h.app == nil {
		return nil, &surface.DisplayError{Message: "no application to attach the window to"}
	}

	id := h.nextID.Add(1)
	v := newView(h, display, id, spec)
	h.logger.Debug("opened toast window",
		"view", id,
		"monitor", display.name,
		"position", spec.Position.String(),
	)
	return v, nil
}

// Dispatch runs fn on the GTK main loop.
func (h *Host) Dispatch(fn func()) {
	glib.IdleAdd(fn)
}

// Announce forwards text to the announcer, if one is set.
func (h *Host) Announce(text string) {
	h.mu.RLock()
	fn := h.announcer
	h.mu.RUnlock()

	if fn == nil {
		h.logger.Debug("no announcer, dropping announcement", "text", text)
		return
	}
	fn(text)
}
