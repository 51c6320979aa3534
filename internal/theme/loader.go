package theme

import (
	"context"
	"log/slog"
	"sync"

	"github.com/diamondburned/gotk4-adwaita/pkg/adw"
	"github.com/diamondburned/gotk4/pkg/core/glib"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/toastkit/internal/config"
	"github.com/jmylchreest/toastkit/internal/model"
)

// Loader owns the GTK CSS providers: one for the theme and one per visible toast.
// Methods other than StartHotReload and StopHotReload must run on the GTK main loop.
type Loader struct {
	mu        sync.RWMutex
	logger    *slog.Logger
	provider  *gtk.CSSProvider
	themesDir string
	theme     *Theme
	watcher   *Watcher
	display   *gdk.Display
	onError   func(err error)
}

// NewLoader creates a new theme loader reading user themes from dir.
func NewLoader(dir string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		logger:    logger,
		provider:  gtk.NewCSSProvider(),
		themesDir: dir,
		theme:     NewDefaultTheme(),
	}
}

// SetErrorCallback sets the callback invoked when a theme fails to load or reload.
func (l *Loader) SetErrorCallback(callback func(err error)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onError = callback
}

// LoadTheme loads a theme by name, falling back to the default theme.
// User themes in the themes directory override bundled ones.
func (l *Loader) LoadTheme(name string) error {
	theme, err := Resolve(name, l.themesDir)
	if err != nil {
		l.logger.Warn("theme not found, using default", "theme", name, "error", err)
		theme = NewDefaultTheme()
	}

	l.mu.Lock()
	l.theme = theme
	l.mu.Unlock()

	l.provider.LoadFromString(theme.CSS)
	l.logger.Info("loaded theme", "name", theme.Name, "path", theme.Path, "bundled", theme.IsBundled)
	return err
}

// Theme returns the currently loaded theme.
func (l *Loader) Theme() *Theme {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.theme
}

// Apply installs the theme provider on a display; nil means the default display.
func (l *Loader) Apply(display *gdk.Display) {
	if display == nil {
		display = gdk.DisplayGetDefault()
	}
	if display == nil {
		l.logger.Warn("no display available, cannot apply theme")
		return
	}

	l.mu.Lock()
	l.display = display
	l.mu.Unlock()

	gtk.StyleContextAddProviderForDisplay(display, l.provider, gtk.STYLE_PROVIDER_PRIORITY_APPLICATION)
	l.logger.Debug("applied theme to display", "name", l.Theme().Name)
}

// ApplyColorScheme forces libadwaita's light or dark variant, or follows the system.
func (l *Loader) ApplyColorScheme(scheme config.ColorScheme) {
	manager := adw.StyleManagerGetDefault()
	switch scheme {
	case config.ColorSchemeLight:
		manager.SetColorScheme(adw.ColorSchemeForceLight)
	case config.ColorSchemeDark:
		manager.SetColorScheme(adw.ColorSchemeForceDark)
	default:
		manager.SetColorScheme(adw.ColorSchemeDefault)
	}
}

// SchemeClass returns "dark" or "light" for the effective colour scheme.
func SchemeClass() string {
	if adw.StyleManagerGetDefault().Dark() {
		return "dark"
	}
	return "light"
}

// AddViewStyle installs the generated rules for one toast above the theme.
// The returned provider must be passed to RemoveViewStyle when the toast goes away.
func (l *Loader) AddViewStyle(class string, a model.Appearance) *gtk.CSSProvider {
	provider := gtk.NewCSSProvider()
	provider.LoadFromString(ViewCSS(class, a))

	l.mu.RLock()
	display := l.display
	l.mu.RUnlock()
	if display == nil {
		display = gdk.DisplayGetDefault()
	}
	if display != nil {
		gtk.StyleContextAddProviderForDisplay(display, provider, gtk.STYLE_PROVIDER_PRIORITY_USER)
	}
	return provider
}

// RemoveViewStyle uninstalls a provider returned by AddViewStyle.
func (l *Loader) RemoveViewStyle(provider *gtk.CSSProvider) {
	l.mu.RLock()
	display := l.display
	l.mu.RUnlock()
	if display == nil {
		display = gdk.DisplayGetDefault()
	}
	if display != nil && provider != nil {
		gtk.StyleContextRemoveProviderForDisplay(display, provider)
	}
}

// StartHotReload watches the current theme file and reapplies it on change.
func (l *Loader) StartHotReload(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.watcher != nil {
		l.watcher.Stop()
		l.watcher = nil
	}
	if l.theme == nil || l.theme.IsBundled {
		l.logger.Debug("not starting hot-reload for bundled theme")
		return
	}

	w := NewWatcher(l.theme, l.logger)
	w.SetChangeCallback(func(css string) {
		glib.IdleAdd(func() {
			l.provider.LoadFromString(css)
			l.logger.Info("hot-reloaded theme", "name", l.Theme().Name)
		})
	})
	w.SetErrorCallback(func(err error) {
		l.mu.RLock()
		onError := l.onError
		l.mu.RUnlock()
		if onError != nil {
			onError(err)
		}
	})

	if err := w.Start(ctx); err != nil {
		l.logger.Warn("failed to start theme watcher", "error", err)
		return
	}
	l.watcher = w
}

// StopHotReload stops watching the theme file.
func (l *Loader) StopHotReload() {
	l.mu.Lock()
	w := l.watcher
	l.watcher = nil
	l.mu.Unlock()

	if w != nil {
		w.Stop()
	}
}
