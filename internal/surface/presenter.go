package surface

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jmylchreest/toastkit/internal/model"
	"github.com/jmylchreest/toastkit/internal/obstruction"
)

// Presenter renders toasts through a Host.
type Presenter struct {
	host     Host
	tracker  *obstruction.Tracker
	logger   *slog.Logger
	fade     time.Duration
	announce func() bool
}

// Option configures a Presenter.
type Option func(*Presenter)

// WithLogger sets the presenter's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Presenter) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithFadeDuration overrides model.FadeDuration for fades and moves.
func WithFadeDuration(d time.Duration) Option {
	return func(p *Presenter) {
		if d >= 0 {
			p.fade = d
		}
	}
}

// WithAnnouncements sets the function consulted after each fade-in to decide
// whether the toast text is announced. Announcements are on by default.
func WithAnnouncements(enabled func() bool) Option {
	return func(p *Presenter) {
		if enabled != nil {
			p.announce = enabled
		}
	}
}

// NewPresenter creates a presenter. A nil tracker disables obstruction avoidance.
func NewPresenter(host Host, tracker *obstruction.Tracker, opts ...Option) *Presenter {
	p := &Presenter{
		host:     host,
		tracker:  tracker,
		logger:   slog.Default(),
		fade:     model.FadeDuration,
		announce: func() bool { return true },
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Host returns the host the presenter draws through.
func (p *Presenter) Host() Host {
	return p.host
}

// FadeDuration returns the duration used for fades and moves.
func (p *Presenter) FadeDuration() time.Duration {
	return p.fade
}

// Render creates an invisible toast box on the active display.
// It must be called on the host's UI context.
func (p *Presenter) Render(content model.Content, appearance model.Appearance, pos model.Position) (*Handle, error) {
	display, ok := p.host.ActiveDisplay()
	if !ok || display == nil {
		return nil, ErrNoDisplay
	}

	// Subscribe before reading the height so a change published while the
	// view is being built is still delivered to followObstruction.
	var (
		sub    *obstruction.Subscription
		height float64
	)
	if p.tracker != nil {
		sub = p.tracker.Subscribe(context.Background())
		height = p.tracker.CurrentHeight()
	}

	bounds := display.SafeBounds()
	constraints := Layout(pos, bounds, height)

	view, err := p.host.AddView(display, ViewSpec{
		Content:     content,
		Appearance:  appearance,
		Position:    pos,
		Constraints: constraints,
		Opacity:     0,
	})
	if err != nil {
		if sub != nil {
			_ = sub.Close()
		}
		return nil, &DisplayError{Message: "failed to add toast view", Cause: err}
	}

	h := &Handle{
		presenter:   p,
		view:        view,
		display:     display,
		position:    pos,
		text:        content.Text(),
		constraints: constraints,
		done:        make(chan struct{}),
	}

	if sub != nil {
		h.sub = sub
		go h.followObstruction()
	}

	p.logger.Debug("toast rendered",
		"display", display.Name(),
		"position", pos.String(),
		"avoiding", constraints.Avoiding,
	)

	return h, nil
}

// Show runs the fade-in, hold and fade-out sequence and returns a channel that
// is closed once the view has been removed. It resolves early if the handle is
// dismissed. It must be called on the host's UI context.
func (p *Presenter) Show(h *Handle, hold time.Duration) <-chan struct{} {
	if h.dismissed.Load() {
		return h.done
	}

	h.view.FadeTo(1, p.fade, func() {
		h.afterFadeIn(hold)
	})
	return h.done
}

// Handle is a rendered toast. Dismiss may be called from any goroutine.
type Handle struct {
	presenter *Presenter
	view      View
	display   Display
	position  model.Position
	text      string
	sub       *obstruction.Subscription
	done      chan struct{}

	dismissed   atomic.Bool
	interrupted atomic.Bool

	mu          sync.Mutex
	hold        *time.Timer
	constraints Constraints
}

// Done returns a channel closed when the toast is gone.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Display returns the display the toast was rendered on.
func (h *Handle) Display() Display {
	return h.display
}

// Position returns the slot the toast was rendered in.
func (h *Handle) Position() model.Position {
	return h.position
}

// Constraints returns the constraints most recently applied to the view.
func (h *Handle) Constraints() Constraints {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.constraints
}

// Interrupted reports whether the toast was torn down by Dismiss rather than
// running its full sequence.
func (h *Handle) Interrupted() bool {
	return h.interrupted.Load()
}

// Dismiss removes the toast immediately and resolves its Show channel.
// It is idempotent.
func (h *Handle) Dismiss() {
	if !h.dismissed.CompareAndSwap(false, true) {
		return
	}
	h.interrupted.Store(true)
	h.release()

	// Removal is queued ahead of anything the resolved waiter dispatches next.
	h.presenter.host.Dispatch(h.view.Remove)
	close(h.done)
}

func (h *Handle) afterFadeIn(hold time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.dismissed.Load() {
		return
	}

	if h.presenter.announce() {
		h.presenter.host.Announce(h.text)
	}

	h.hold = time.AfterFunc(hold, func() {
		h.presenter.host.Dispatch(h.fadeOut)
	})
}

func (h *Handle) fadeOut() {
	if h.dismissed.Load() {
		return
	}
	h.view.FadeTo(0, h.presenter.fade, h.complete)
}

// complete runs on the UI context after the fade-out.
func (h *Handle) complete() {
	if !h.dismissed.CompareAndSwap(false, true) {
		return
	}
	h.release()
	h.view.Remove()
	close(h.done)
}

func (h *Handle) release() {
	h.mu.Lock()
	if h.hold != nil {
		h.hold.Stop()
	}
	h.mu.Unlock()

	if h.sub != nil {
		_ = h.sub.Close()
	}
}

// followObstruction repositions the view on every height change until the
// subscription is closed. The hold timer is left untouched.
func (h *Handle) followObstruction() {
	for height := range h.sub.Receive() {
		if !h.position.IsNearObstruction() {
			continue
		}

		c := Layout(h.position, h.display.SafeBounds(), height)
		h.presenter.host.Dispatch(func() {
			if h.dismissed.Load() {
				return
			}
			h.mu.Lock()
			if h.constraints == c {
				h.mu.Unlock()
				return
			}
			h.constraints = c
			h.mu.Unlock()

			h.view.MoveTo(c, h.presenter.fade)
			h.presenter.logger.Debug("toast repositioned",
				"position", h.position.String(),
				"obstruction", height,
			)
		})
	}
}
