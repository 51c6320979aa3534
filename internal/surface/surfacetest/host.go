// Package surfacetest provides an in-memory surface.Host for tests.
package surfacetest

import (
	"errors"
	"sync"
	"time"

	"github.com/jmylchreest/toastkit/internal/model"
	"github.com/jmylchreest/toastkit/internal/surface"
)

// DefaultBounds is the safe area of the fake display.
var DefaultBounds = model.Rect{W: 400, H: 800}

// Display is a fixed-size fake display.
type Display struct {
	DisplayName string
	Bounds      model.Rect
}

func (d *Display) Name() string           { return d.DisplayName }
func (d *Display) SafeBounds() model.Rect { return d.Bounds }

// Host runs dispatched functions on a single goroutine, standing in for a
// UI main loop, and records every view it creates.
type Host struct {
	mu         sync.Mutex
	display    *Display
	views      []*View
	announced  []string
	active     int
	maxActive  int
	failAdd    error
	dispatchCh chan func()
	stopCh     chan struct{}
	stopOnce   sync.Once
}

// NewHost creates a host with an active display. Call Close when done.
func NewHost() *Host {
	h := &Host{
		display:    &Display{DisplayName: "fake-0", Bounds: DefaultBounds},
		dispatchCh: make(chan func(), 256),
		stopCh:     make(chan struct{}),
	}
	go h.loop()
	return h
}

func (h *Host) loop() {
	for {
		select {
		case fn := <-h.dispatchCh:
			fn()
		case <-h.stopCh:
			return
		}
	}
}

// Close stops the UI loop.
func (h *Host) Close() {
	h.stopOnce.Do(func() { close(h.stopCh) })
}

// SetDisplay replaces the active display. nil means no display.
func (h *Host) SetDisplay(d *Display) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.display = d
}

// FailAdd makes subsequent AddView calls return err.
func (h *Host) FailAdd(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.failAdd = err
}

func (h *Host) ActiveDisplay() (surface.Display, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.display == nil {
		return nil, false
	}
	return h.display, true
}

func (h *Host) AddView(d surface.Display, spec surface.ViewSpec) (surface.View, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.failAdd != nil {
		return nil, h.failAdd
	}
	if d == nil {
		return nil, errors.New("nil display")
	}

	v := &View{
		host:        h,
		Spec:        spec,
		opacity:     spec.Opacity,
		constraints: spec.Constraints,
		AddedAt:     time.Now(),
	}
	h.views = append(h.views, v)
	h.active++
	h.maxActive = max(h.maxActive, h.active)
	return v, nil
}

func (h *Host) Dispatch(fn func()) {
	select {
	case h.dispatchCh <- fn:
	case <-h.stopCh:
	}
}

func (h *Host) Announce(text string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.announced = append(h.announced, text)
}

// Views returns the views created so far, in creation order.
func (h *Host) Views() []*View {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*View(nil), h.views...)
}

// Rendered returns the plain text of every view created so far.
func (h *Host) Rendered() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	texts := make([]string, len(h.views))
	for i, v := range h.views {
		texts[i] = v.Spec.Content.Text()
	}
	return texts
}

// Announced returns the announced strings.
func (h *Host) Announced() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.announced...)
}

// MaxActive returns the largest number of views that were attached at once.
func (h *Host) MaxActive() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.maxActive
}

// Active returns the number of views currently attached.
func (h *Host) Active() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.active
}

// View records the calls made on one toast box.
type View struct {
	host *Host
	Spec surface.ViewSpec

	AddedAt time.Time

	// guarded by host.mu
	opacity     float64
	constraints surface.Constraints
	moves       int
	removed     bool
	removedAt   time.Time
	fadedInAt   time.Time
}

func (v *View) FadeTo(opacity float64, d time.Duration, done func()) {
	time.AfterFunc(d, func() {
		v.host.Dispatch(func() {
			v.host.mu.Lock()
			v.opacity = opacity
			if opacity == 1 {
				v.fadedInAt = time.Now()
			}
			v.host.mu.Unlock()
			done()
		})
	})
}

func (v *View) MoveTo(c surface.Constraints, _ time.Duration) {
	v.host.mu.Lock()
	defer v.host.mu.Unlock()
	v.constraints = c
	v.moves++
}

func (v *View) Remove() {
	v.host.mu.Lock()
	defer v.host.mu.Unlock()
	if v.removed {
		return
	}
	v.removed = true
	v.removedAt = time.Now()
	v.host.active--
}

// Opacity returns the opacity after the last completed fade.
func (v *View) Opacity() float64 {
	v.host.mu.Lock()
	defer v.host.mu.Unlock()
	return v.opacity
}

// Constraints returns the last applied constraints.
func (v *View) Constraints() surface.Constraints {
	v.host.mu.Lock()
	defer v.host.mu.Unlock()
	return v.constraints
}

// Moves returns the number of MoveTo calls.
func (v *View) Moves() int {
	v.host.mu.Lock()
	defer v.host.mu.Unlock()
	return v.moves
}

// Removed reports whether the view was removed.
func (v *View) Removed() bool {
	v.host.mu.Lock()
	defer v.host.mu.Unlock()
	return v.removed
}

// Lifetime returns the time from creation to removal, or 0 if still attached.
func (v *View) Lifetime() time.Duration {
	v.host.mu.Lock()
	defer v.host.mu.Unlock()
	if !v.removed {
		return 0
	}
	return v.removedAt.Sub(v.AddedAt)
}

// FadedIn reports whether the fade-in animation finished.
func (v *View) FadedIn() bool {
	v.host.mu.Lock()
	defer v.host.mu.Unlock()
	return !v.fadedInAt.IsZero()
}
