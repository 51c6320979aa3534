package tuihost

import (
	"log/slog"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jmylchreest/toastkit/internal/model"
	"github.com/jmylchreest/toastkit/internal/surface"
)

// Terminal cells are mapped to layout units so that the engine's margins
// and obstruction heights keep roughly the same proportions as on screen.
const (
	CellWidth  = 10.0
	CellHeight = 20.0
)

// dispatchMsg carries queued functions into the bubbletea event loop.
type dispatchMsg struct {
	fns []func()
}

// Host renders toasts inside a bubbletea program. The screen is the only
// display; it becomes available once the terminal size is known.
type Host struct {
	logger *slog.Logger

	mu       sync.Mutex
	program  *tea.Program
	queue    []func()
	wakeCh   chan struct{}
	views    []*View
	nextID   uint64
	cols     int
	rows     int
	announce []string
}

var _ surface.Host = (*Host)(nil)

// NewHost creates a host with no program attached.
func NewHost(logger *slog.Logger) *Host {
	if logger == nil {
		logger = slog.Default()
	}
	return &Host{
		logger: logger,
		wakeCh: make(chan struct{}, 1),
	}
}

// Attach connects the host to the program that owns the screen and starts
// forwarding dispatched work to it until done is closed.
func (h *Host) Attach(p *tea.Program, done <-chan struct{}) {
	h.mu.Lock()
	h.program = p
	h.mu.Unlock()

	go h.pump(done)
	h.wake()
}

// pump forwards the queue in order. Send blocks while Update is running,
// so it must never happen on the caller of Dispatch.
func (h *Host) pump(done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case <-h.wakeCh:
		}

		h.mu.Lock()
		p := h.program
		fns := h.queue
		h.queue = nil
		h.mu.Unlock()

		if p == nil || len(fns) == 0 {
			continue
		}
		p.Send(dispatchMsg{fns: fns})
	}
}

func (h *Host) wake() {
	select {
	case h.wakeCh <- struct{}{}:
	default:
	}
}

// Dispatch queues fn for the event loop.
func (h *Host) Dispatch(fn func()) {
	h.mu.Lock()
	h.queue = append(h.queue, fn)
	h.mu.Unlock()
	h.wake()
}

// Resize records the usable screen area in cells.
func (h *Host) Resize(cols, rows int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cols, h.rows = cols, rows
}

// Bounds returns the screen area in layout units.
func (h *Host) Bounds() model.Rect {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.bounds()
}

func (h *Host) bounds() model.Rect {
	return model.Rect{W: float64(h.cols) * CellWidth, H: float64(h.rows) * CellHeight}
}

// ActiveDisplay returns the terminal once it has a size.
func (h *Host) ActiveDisplay() (surface.Display, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	b := h.bounds()
	if b.Empty() {
		return nil, false
	}
	return screen{bounds: b}, true
}

// AddView places a new box on the screen.
func (h *Host) AddView(d surface.Display, spec surface.ViewSpec) (surface.View, error) {
	if _, ok := d.(screen); !ok {
		return nil, &surface.DisplayError{Message: "unsupported display " + d.Name()}
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	v := &View{
		host:        h,
		id:          h.nextID,
		content:     spec.Content,
		appearance:  spec.Appearance,
		constraints: spec.Constraints,
		opacity:     spec.Opacity,
	}
	h.views = append(h.views, v)
	h.logger.Debug("added view", "view", v.id, "position", spec.Position.String())
	return v, nil
}

// Announce records text for the status line.
func (h *Host) Announce(text string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.announce = append(h.announce, text)
}

// Announcements returns everything announced so far.
func (h *Host) Announcements() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.announce...)
}

// Views returns the boxes currently on screen, oldest first.
func (h *Host) Views() []*View {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*View(nil), h.views...)
}

// Advance steps running animations to now. Completion callbacks run after
// the lock is released, on the caller, which must be the event loop.
func (h *Host) Advance(now time.Time) {
	h.mu.Lock()
	var done []func()
	for _, v := range h.views {
		if fn := v.step(now); fn != nil {
			done = append(done, fn)
		}
	}
	h.mu.Unlock()

	for _, fn := range done {
		fn()
	}
}

// Animating reports whether any view is mid-fade.
func (h *Host) Animating() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, v := range h.views {
		if v.fade != nil {
			return true
		}
	}
	return false
}

func (h *Host) remove(v *View) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, other := range h.views {
		if other == v {
			h.views = append(h.views[:i], h.views[i+1:]...)
			return
		}
	}
}

// screen is the terminal as a surface.Display.
type screen struct {
	bounds model.Rect
}

func (s screen) Name() string           { return "terminal" }
func (s screen) SafeBounds() model.Rect { return s.bounds }

// View is a toast box drawn on the terminal.
type View struct {
	host *Host
	id   uint64

	// Guarded by host.mu.
	content     model.Content
	appearance  model.Appearance
	constraints surface.Constraints
	opacity     float64
	fade        *fade
	removed     bool
}

type fade struct {
	from, to float64
	start    time.Time
	d        time.Duration
	done     func()
}

func (v *View) FadeTo(opacity float64, d time.Duration, done func()) {
	v.host.mu.Lock()
	if v.removed {
		v.host.mu.Unlock()
		if done != nil {
			done()
		}
		return
	}
	if d <= 0 {
		v.opacity = opacity
		v.fade = nil
		v.host.mu.Unlock()
		if done != nil {
			done()
		}
		return
	}
	v.fade = &fade{from: v.opacity, to: opacity, start: time.Now(), d: d, done: done}
	v.host.mu.Unlock()
}

// MoveTo jumps to the new constraints; a terminal has no sub-cell motion.
func (v *View) MoveTo(c surface.Constraints, _ time.Duration) {
	v.host.mu.Lock()
	defer v.host.mu.Unlock()
	v.constraints = c
}

func (v *View) Remove() {
	v.host.mu.Lock()
	if v.removed {
		v.host.mu.Unlock()
		return
	}
	v.removed = true
	v.fade = nil
	v.host.mu.Unlock()

	v.host.remove(v)
}

// Opacity returns the current opacity.
func (v *View) Opacity() float64 {
	v.host.mu.Lock()
	defer v.host.mu.Unlock()
	return v.opacity
}

// Constraints returns the constraints the view is drawn with.
func (v *View) Constraints() surface.Constraints {
	v.host.mu.Lock()
	defer v.host.mu.Unlock()
	return v.constraints
}

// Text returns the plain text of the box.
func (v *View) Text() string {
	return v.content.Text()
}

// step advances the fade; host.mu is held.
func (v *View) step(now time.Time) func() {
	f := v.fade
	if f == nil {
		return nil
	}
	t := float64(now.Sub(f.start)) / float64(f.d)
	if t < 1 {
		v.opacity = f.from + (f.to-f.from)*max(t, 0)
		return nil
	}
	v.opacity = f.to
	v.fade = nil
	return f.done
}
