package daemon

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/toastkit/internal/model"
)

// NotificationLevel indicates the severity of an internal notification.
type NotificationLevel int

const (
	// NotificationLevelInfo is for informational messages.
	NotificationLevelInfo NotificationLevel = iota
	// NotificationLevelWarning is for warning messages.
	NotificationLevelWarning
	// NotificationLevelError is for error messages.
	NotificationLevelError
)

// Style returns the toast preset used for the level.
func (l NotificationLevel) Style() model.Style {
	switch l {
	case NotificationLevelWarning:
		return model.StyleWarning
	case NotificationLevelError:
		return model.StyleError
	default:
		return model.StyleSuccess
	}
}

// NotifyFunc posts a toast on behalf of the daemon.
type NotifyFunc func(text string, style model.Style)

// InternalNotifier shows toasts about internal toastd events.
// It rate limits by key to prevent toast floods.
type InternalNotifier struct {
	mu     sync.Mutex
	logger *slog.Logger

	notifyHandler NotifyFunc

	// Rate limiting
	lastNotifyTime map[string]time.Time // key -> last notification time
	minInterval    time.Duration        // minimum time between same notifications
	now            func() time.Time

	enabled bool
}

// NewInternalNotifier creates a new InternalNotifier.
func NewInternalNotifier(logger *slog.Logger) *InternalNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &InternalNotifier{
		logger:         logger,
		lastNotifyTime: make(map[string]time.Time),
		minInterval:    5 * time.Second,
		now:            time.Now,
		enabled:        true,
	}
}

// SetNotifyHandler sets the function that posts the toast.
func (n *InternalNotifier) SetNotifyHandler(handler NotifyFunc) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notifyHandler = handler
}

// SetEnabled enables or disables internal notifications.
func (n *InternalNotifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// SetMinInterval sets the minimum interval between notifications sharing a key.
func (n *InternalNotifier) SetMinInterval(interval time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.minInterval = interval
}

// Notify posts an internal toast unless the key was used within the minimum interval.
// It reports whether the toast was posted.
func (n *InternalNotifier) Notify(key, text string, level NotificationLevel) bool {
	n.mu.Lock()

	if !n.enabled {
		n.mu.Unlock()
		return false
	}

	handler := n.notifyHandler
	if handler == nil {
		n.mu.Unlock()
		n.logger.Debug("internal notification skipped: no handler", "text", text)
		return false
	}

	now := n.now()
	if lastTime, ok := n.lastNotifyTime[key]; ok && now.Sub(lastTime) < n.minInterval {
		n.mu.Unlock()
		n.logger.Debug("internal notification rate-limited", "key", key)
		return false
	}
	n.lastNotifyTime[key] = now
	n.mu.Unlock()

	n.logger.Debug("sending internal notification", "key", key, "text", text, "style", level.Style())
	handler(text, level.Style())
	return true
}

// NotifyStartup announces that the daemon is ready.
func (n *InternalNotifier) NotifyStartup() {
	n.Notify("startup", "toastd started", NotificationLevelInfo)
}

// NotifyConfigReloaded announces a successful config reload.
func (n *InternalNotifier) NotifyConfigReloaded() {
	n.Notify("config-reload", "Configuration reloaded", NotificationLevelInfo)
}

// NotifyConfigError reports a config file that failed to load or validate.
func (n *InternalNotifier) NotifyConfigError(err error) {
	n.Notify("config-error", "Configuration error: "+err.Error(), NotificationLevelWarning)
}

// NotifyThemeError reports a stylesheet that could not be applied.
func (n *InternalNotifier) NotifyThemeError(err error) {
	n.Notify("theme-error", "Theme error: "+err.Error(), NotificationLevelWarning)
}

// NotifyAudioError reports a sound that could not be played.
func (n *InternalNotifier) NotifyAudioError(err error) {
	n.Notify("audio-error", "Audio error: "+err.Error(), NotificationLevelError)
}
