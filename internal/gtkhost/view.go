package gtkhost

import (
	"math"
	"time"

	layershell "github.com/diamondburned/gotk4-layer-shell/pkg/gtk4layershell"
	"github.com/diamondburned/gotk4/pkg/core/glib"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"
	"github.com/diamondburned/gotk4/pkg/pango"

	"github.com/jmylchreest/toastkit/internal/surface"
	"github.com/jmylchreest/toastkit/internal/theme"
)

// frameInterval is the animation step, roughly 60fps.
const frameInterval = 16 * time.Millisecond

// View is one toast window.
type View struct {
	host     *Host
	window   *gtk.Window
	provider *gtk.CSSProvider

	placement placement
	opacity   float64

	fade    *animation
	move    *animation
	removed bool
}

func newView(h *Host, d *Display, id uint64, spec surface.ViewSpec) *View {
	opts := h.options()
	class := theme.ViewClass(id)

	window := gtk.NewWindow()
	window.SetApplication(h.app)
	window.SetDecorated(false)
	window.SetResizable(false)
	window.SetCanTarget(false)
	window.SetTitle("toast")
	window.AddCSSClass(theme.WindowClass)
	window.AddCSSClass(class)

	layershell.InitForWindow(window)
	layershell.SetLayer(window, layershell.LayerShellLayerOverlay)
	layershell.SetExclusiveZone(window, 0)
	layershell.SetKeyboardMode(window, layershell.LayerShellKeyboardModeNone)
	layershell.SetNamespace(window, opts.Namespace)
	if d.monitor != nil {
		layershell.SetMonitor(window, d.monitor)
	}

	box := gtk.NewBox(gtk.OrientationVertical, 0)
	box.AddCSSClass(theme.BoxClass)
	box.AddCSSClass(theme.SchemeClass())

	label := gtk.NewLabel("")
	label.AddCSSClass(theme.LabelClass)
	label.SetWrap(true)
	label.SetWrapMode(pango.WrapWordChar)
	label.SetJustify(gtk.JustifyCenter)
	label.SetMaxWidthChars(maxWidthChars(opts.MaxWidth, spec.Appearance.Font.Size))
	if spec.Content.IsStyled() {
		label.SetMarkup(spec.Content.Markup())
	} else {
		label.SetText(spec.Content.Text())
	}
	box.Append(label)
	window.SetChild(box)

	v := &View{
		host:      h,
		window:    window,
		provider:  h.loader.AddViewStyle(class, spec.Appearance),
		placement: placementFor(spec.Constraints),
		opacity:   spec.Opacity,
	}
	v.placement.apply(window)
	window.SetOpacity(spec.Opacity)
	window.Present()
	return v
}

// maxWidthChars converts a pixel width to the label's character limit.
func maxWidthChars(maxWidth int, fontSize float64) int {
	if fontSize <= 0 {
		fontSize = 13
	}
	// Average glyph width is a little over half the point size at 96dpi.
	chars := int(float64(maxWidth) / (fontSize * 0.75))
	return max(chars, 10)
}

func (v *View) FadeTo(opacity float64, d time.Duration, done func()) {
	if v.removed {
		if done != nil {
			done()
		}
		return
	}
	v.fade.stop()

	from := v.opacity
	v.fade = animate(d, func(t float64) {
		v.opacity = from + (opacity-from)*t
		v.window.SetOpacity(v.opacity)
	}, done)
}

func (v *View) MoveTo(c surface.Constraints, d time.Duration) {
	if v.removed {
		return
	}
	v.move.stop()

	target := placementFor(c)
	if !v.placement.sameAnchors(target) {
		v.placement = target
		target.apply(v.window)
		return
	}

	from := v.placement
	v.move = animate(d, func(t float64) {
		v.placement = from.lerp(target, t)
		v.placement.apply(v.window)
	}, nil)
}

func (v *View) Remove() {
	if v.removed {
		return
	}
	v.removed = true
	v.fade.stop()
	v.move.stop()
	v.window.Destroy()
	v.host.loader.RemoveViewStyle(v.provider)
}

// animation drives step on the GTK main loop until d has elapsed.
type animation struct {
	source glib.SourceHandle
	active bool
}

func animate(d time.Duration, step func(t float64), done func()) *animation {
	if d <= 0 {
		step(1)
		if done != nil {
			done()
		}
		return nil
	}

	a := &animation{active: true}
	start := time.Now()
	a.source = glib.TimeoutAdd(uint(frameInterval.Milliseconds()), func() bool {
		if !a.active {
			return false
		}
		t := math.Min(float64(time.Since(start))/float64(d), 1)
		step(easeInOut(t))
		if t < 1 {
			return true
		}
		a.active = false
		if done != nil {
			done()
		}
		return false
	})
	return a
}

func (a *animation) stop() {
	if a == nil || !a.active {
		return
	}
	a.active = false
	glib.SourceRemove(a.source)
}

func easeInOut(t float64) float64 {
	return t * t * (3 - 2*t)
}
