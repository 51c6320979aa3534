package dbus

import (
	"errors"
	"fmt"
	"time"

	"github.com/godbus/dbus/v5"
)

const (
	// ToasterInterface is the toast service interface name.
	ToasterInterface = "io.github.jmylchreest.Toaster"
	// ToasterPath is the toast service object path.
	ToasterPath = "/io/github/jmylchreest/Toaster"
	// ToasterBusName is the bus name claimed by toastd.
	ToasterBusName = "io.github.jmylchreest.Toaster"

	// NotificationsInterface is the freedesktop notification interface.
	NotificationsInterface = "org.freedesktop.Notifications"
)

// Urgency levels from the freedesktop.org notification specification.
const (
	UrgencyLow      byte = 0
	UrgencyNormal   byte = 1
	UrgencyCritical byte = 2
)

// ErrNotRunning is returned when emitting on a server that has not started.
var ErrNotRunning = errors.New("not connected to D-Bus")

// ShowRequest carries the arguments of a Show call.
type ShowRequest struct {
	Text     string
	Markup   bool   // Text is Pango-style markup
	Style    string // plain, success, error, warning; empty = plain
	Position string // empty = daemon default
	Duration time.Duration
	Delay    time.Duration
}

// ToastHandler performs the operations requested over the bus.
type ToastHandler interface {
	Show(req ShowRequest) (string, error)
	Cancel(id string) bool
	CancelCurrent() bool
	CancelAll()
	SetAccessibility(enabled bool)
	Status() StatusInfo
}

// StatusInfo is the payload of GetStatus.
type StatusInfo struct {
	Ready         bool      `json:"ready" yaml:"ready"`
	Queued        uint32    `json:"queued" yaml:"queued"`
	CurrentID     string    `json:"current_id,omitempty" yaml:"current_id,omitempty"`
	CurrentText   string    `json:"current_text,omitempty" yaml:"current_text,omitempty"`
	ShownAt       time.Time `json:"shown_at,omitzero" yaml:"shown_at,omitempty"`
	Accessibility bool      `json:"accessibility" yaml:"accessibility"`
}

// Variants encodes the status as an a{sv} dictionary.
func (s StatusInfo) Variants() map[string]dbus.Variant {
	var shownAt int64
	if !s.ShownAt.IsZero() {
		shownAt = s.ShownAt.UnixMilli()
	}
	return map[string]dbus.Variant{
		"ready":         dbus.MakeVariant(s.Ready),
		"queued":        dbus.MakeVariant(s.Queued),
		"current-id":    dbus.MakeVariant(s.CurrentID),
		"current-text":  dbus.MakeVariant(s.CurrentText),
		"shown-at":      dbus.MakeVariant(shownAt),
		"accessibility": dbus.MakeVariant(s.Accessibility),
	}
}

// ParseStatus decodes an a{sv} dictionary produced by Variants.
// Unknown keys are ignored; mistyped known keys are an error.
func ParseStatus(v map[string]dbus.Variant) (StatusInfo, error) {
	var s StatusInfo
	var err error

	if s.Ready, err = variantValue[bool](v, "ready"); err != nil {
		return s, err
	}
	if s.Queued, err = variantValue[uint32](v, "queued"); err != nil {
		return s, err
	}
	if s.CurrentID, err = variantValue[string](v, "current-id"); err != nil {
		return s, err
	}
	if s.CurrentText, err = variantValue[string](v, "current-text"); err != nil {
		return s, err
	}
	if s.Accessibility, err = variantValue[bool](v, "accessibility"); err != nil {
		return s, err
	}

	shownAt, err := variantValue[int64](v, "shown-at")
	if err != nil {
		return s, err
	}
	if shownAt > 0 {
		s.ShownAt = time.UnixMilli(shownAt)
	}
	return s, nil
}

func variantValue[T any](v map[string]dbus.Variant, key string) (T, error) {
	var zero T
	variant, ok := v[key]
	if !ok {
		return zero, nil
	}
	val, ok := variant.Value().(T)
	if !ok {
		return zero, fmt.Errorf("status key %q has type %s", key, variant.Signature())
	}
	return val, nil
}

// DBusNotification represents an observed org.freedesktop.Notifications Notify call.
type DBusNotification struct {
	ID            uint32 // assigned by the notification server, 0 if the reply was not seen
	AppName       string
	ReplacesID    uint32
	AppIcon       string
	Summary       string
	Body          string
	Actions       []string // Alternating key, label pairs
	Hints         map[string]dbus.Variant
	ExpireTimeout int32 // -1 = server default, 0 = never expire
}

// Urgency extracts the urgency hint from the notification.
// Returns UrgencyNormal if not specified.
func (n *DBusNotification) Urgency() byte {
	if v, ok := n.Hints["urgency"]; ok {
		if b, ok := v.Value().(byte); ok {
			return b
		}
	}
	return UrgencyNormal
}

// Category extracts the category hint from the notification.
// Returns empty string if not specified.
func (n *DBusNotification) Category() string {
	if v, ok := n.Hints["category"]; ok {
		if s, ok := v.Value().(string); ok {
			return s
		}
	}
	return ""
}

// Transient returns true if the transient hint is set.
func (n *DBusNotification) Transient() bool {
	if v, ok := n.Hints["transient"]; ok {
		if b, ok := v.Value().(bool); ok {
			return b
		}
	}
	return false
}

// Text joins summary and body into a single toast line.
func (n *DBusNotification) Text() string {
	switch {
	case n.Body == "":
		return n.Summary
	case n.Summary == "":
		return n.Body
	default:
		return n.Summary + ": " + n.Body
	}
}

// ParseNotifyCall decodes the body of a Notify method call:
// Notify(app_name, replaces_id, app_icon, summary, body, actions, hints, expire_timeout).
func ParseNotifyCall(body []any) (*DBusNotification, error) {
	if len(body) < 8 {
		return nil, fmt.Errorf("malformed Notify call: %d arguments", len(body))
	}

	n := &DBusNotification{}
	var ok bool
	if n.AppName, ok = body[0].(string); !ok {
		return nil, errors.New("invalid app_name type")
	}
	if n.ReplacesID, ok = body[1].(uint32); !ok {
		return nil, errors.New("invalid replaces_id type")
	}
	if n.AppIcon, ok = body[2].(string); !ok {
		return nil, errors.New("invalid app_icon type")
	}
	if n.Summary, ok = body[3].(string); !ok {
		return nil, errors.New("invalid summary type")
	}
	if n.Body, ok = body[4].(string); !ok {
		return nil, errors.New("invalid body type")
	}

	if actions, ok := body[5].([]string); ok {
		n.Actions = actions
	}
	if hints, ok := body[6].(map[string]dbus.Variant); ok {
		n.Hints = hints
	}
	if timeout, ok := body[7].(int32); ok {
		n.ExpireTimeout = timeout
	}

	return n, nil
}
