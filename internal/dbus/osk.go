package dbus

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/toastkit/internal/model"
	"github.com/jmylchreest/toastkit/internal/obstruction"
)

const (
	// OSKBusName is the on-screen keyboard service (squeekboard).
	OSKBusName = "sm.puri.OSK0"
	// OSKPath is the on-screen keyboard object path.
	OSKPath = "/sm/puri/OSK0"
	// OSKInterface carries the Visible property.
	OSKInterface = "sm.puri.OSK0"

	propertiesInterface = "org.freedesktop.DBus.Properties"
)

// OSKWatcher turns the on-screen keyboard's Visible property into
// obstruction events. The keyboard does not publish its size, so a fixed
// height is reported while it is visible.
type OSKWatcher struct {
	conn   *dbus.Conn
	logger *slog.Logger
	height float64
}

// NewOSKWatcher creates a watcher reporting height while the keyboard is shown.
func NewOSKWatcher(conn *dbus.Conn, height float64, logger *slog.Logger) *OSKWatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &OSKWatcher{conn: conn, height: height, logger: logger}
}

// Watch subscribes to visibility changes and returns the event stream. The
// current state is sent first when the keyboard service is reachable. The
// channel is closed when ctx is done.
func (w *OSKWatcher) Watch(ctx context.Context) (<-chan obstruction.Event, error) {
	opts := []dbus.MatchOption{
		dbus.WithMatchObjectPath(OSKPath),
		dbus.WithMatchInterface(propertiesInterface),
		dbus.WithMatchMember("PropertiesChanged"),
		dbus.WithMatchArg(0, OSKInterface),
	}
	if err := w.conn.AddMatchSignalContext(ctx, opts...); err != nil {
		return nil, fmt.Errorf("failed to watch on-screen keyboard: %w", err)
	}

	signals := make(chan *dbus.Signal, 16)
	w.conn.Signal(signals)

	events := make(chan obstruction.Event, 4)

	go func() {
		defer close(events)
		defer w.conn.RemoveSignal(signals)
		defer func() { _ = w.conn.RemoveMatchSignal(opts...) }()

		if visible, err := w.visible(); err == nil {
			w.send(ctx, events, visible)
		} else {
			w.logger.Debug("on-screen keyboard not available", "error", err)
		}

		for {
			select {
			case <-ctx.Done():
				return
			case sig, ok := <-signals:
				if !ok {
					return
				}
				if visible, ok := parseVisibleChange(sig); ok {
					w.send(ctx, events, visible)
				}
			}
		}
	}()

	w.logger.Info("watching on-screen keyboard", "bus_name", OSKBusName, "height", w.height)
	return events, nil
}

func (w *OSKWatcher) visible() (bool, error) {
	v, err := w.conn.Object(OSKBusName, OSKPath).GetProperty(OSKInterface + ".Visible")
	if err != nil {
		return false, err
	}
	visible, ok := v.Value().(bool)
	if !ok {
		return false, fmt.Errorf("unexpected Visible type %s", v.Signature())
	}
	return visible, nil
}

func (w *OSKWatcher) send(ctx context.Context, events chan<- obstruction.Event, visible bool) {
	ev := obstruction.Hidden()
	if visible {
		ev = obstruction.Shown(model.Rect{H: w.height})
	}
	w.logger.Debug("on-screen keyboard visibility changed", "visible", visible)

	select {
	case events <- ev:
	case <-ctx.Done():
	}
}

// parseVisibleChange extracts the Visible property from a PropertiesChanged
// signal. ok is false when the signal does not carry it.
func parseVisibleChange(sig *dbus.Signal) (visible, ok bool) {
	if sig == nil || sig.Path != OSKPath || sig.Name != propertiesInterface+".PropertiesChanged" {
		return false, false
	}
	if len(sig.Body) < 2 {
		return false, false
	}
	if iface, _ := sig.Body[0].(string); iface != OSKInterface {
		return false, false
	}
	changed, isMap := sig.Body[1].(map[string]dbus.Variant)
	if !isMap {
		return false, false
	}
	v, found := changed["Visible"]
	if !found {
		return false, false
	}
	visible, ok = v.Value().(bool)
	return visible, ok
}
