package surface

import (
	"errors"
	"time"

	"github.com/jmylchreest/toastkit/internal/model"
)

// ErrNoDisplay is returned by Render when the host has no active display.
var ErrNoDisplay = errors.New("no active display")

// Display is a resolved target surface, such as a monitor or a terminal.
type Display interface {
	// Name identifies the display in logs.
	Name() string
	// SafeBounds returns the area that content may occupy.
	SafeBounds() model.Rect
}

// ViewSpec describes the box a host must create for a toast.
type ViewSpec struct {
	Content     model.Content
	Appearance  model.Appearance
	Position    model.Position
	Constraints Constraints
	Opacity     float64
}

// View is a rendered toast box owned by the host.
// Methods are only called on the host's UI context.
type View interface {
	// FadeTo animates the opacity over d and calls done on the UI context
	// once the animation has finished.
	FadeTo(opacity float64, d time.Duration, done func())
	// MoveTo animates the box to new constraints over d.
	MoveTo(c Constraints, d time.Duration)
	// Remove detaches the box from its display. Calling it twice is a no-op.
	Remove()
}

// Host is the capability the toast engine needs from its environment.
type Host interface {
	// ActiveDisplay resolves the current foreground display, if any.
	ActiveDisplay() (Display, bool)
	// AddView attaches a new toast box to d.
	AddView(d Display, spec ViewSpec) (View, error)
	// Dispatch schedules fn on the UI context. It must not block.
	Dispatch(fn func())
	// Announce hands text to the accessibility layer.
	Announce(text string)
}

// DisplayError represents a host failure while presenting a toast.
type DisplayError struct {
	Message string
	Cause   error
}

func (e *DisplayError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *DisplayError) Unwrap() error {
	return e.Cause
}
