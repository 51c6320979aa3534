package gtkhost

import (
	"fmt"
	"log/slog"
	"unsafe"

	"github.com/diamondburned/gotk4/pkg/core/glib"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"

	"github.com/jmylchreest/toastkit/internal/model"
)

// Display is a monitor toasts can be shown on.
type Display struct {
	monitor *gdk.Monitor
	name    string
	bounds  model.Rect
}

func (d *Display) Name() string { return d.name }

// SafeBounds is the monitor area in monitor-local coordinates, which is
// what layer-shell margins are measured in.
func (d *Display) SafeBounds() model.Rect { return d.bounds }

// Monitor returns the underlying GDK monitor.
func (d *Display) Monitor() *gdk.Monitor { return d.monitor }

func newDisplay(monitor *gdk.Monitor, index uint) *Display {
	name := monitor.Connector()
	if name == "" {
		name = fmt.Sprintf("monitor-%d", index)
	}

	var bounds model.Rect
	if geom := monitor.Geometry(); geom != nil {
		bounds = model.Rect{W: float64(geom.Width()), H: float64(geom.Height())}
	}
	return &Display{monitor: monitor, name: name, bounds: bounds}
}

// selectMonitor returns the monitor configured by index:
// 0 = first monitor, 1+ = specific monitor (1-indexed).
// An unavailable index falls back to the first monitor.
func selectMonitor(display *gdk.Display, index int, logger *slog.Logger) (*gdk.Monitor, uint, bool) {
	if display == nil {
		return nil, 0, false
	}
	monitors := display.Monitors()
	if monitors == nil || monitors.NItems() == 0 {
		return nil, 0, false
	}

	var i uint
	if index > 0 {
		i = uint(index - 1)
		if i >= monitors.NItems() {
			logger.Warn("configured monitor not available, using first",
				"configured", index,
				"available", monitors.NItems(),
			)
			i = 0
		}
	}

	obj := monitors.Item(i)
	if obj == nil {
		return nil, 0, false
	}
	return wrapMonitor(obj), i, true
}

// wrapMonitor wraps a list item as a gdk.Monitor.
// gotk4 does not export its wrapper, but gdk.Monitor only embeds *glib.Object.
func wrapMonitor(obj *glib.Object) *gdk.Monitor {
	type monitor struct {
		_ [0]func()
		*glib.Object
	}
	m := &monitor{Object: obj}
	return (*gdk.Monitor)(unsafe.Pointer(m))
}
