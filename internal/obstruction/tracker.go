package obstruction

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jmylchreest/toastkit/internal/model"
)

// Event is an obstruction lifecycle notification from an external source.
type Event struct {
	// Visible is true for "will show" and false for "will hide".
	Visible bool
	// Frame is the obstruction's frame. Only meaningful when Visible is true.
	Frame model.Rect
}

// Shown returns a "will show" event for an obstruction of the given frame.
func Shown(frame model.Rect) Event {
	return Event{Visible: true, Frame: frame}
}

// Hidden returns a "will hide" event.
func Hidden() Event {
	return Event{}
}

// Tracker holds the last known obstruction height and publishes changes.
// All methods are safe for concurrent use.
type Tracker struct {
	mu     sync.Mutex
	height float64
	subs   map[*Subscription]struct{}
	logger *slog.Logger
}

// NewTracker creates a tracker with height 0.
func NewTracker(logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		subs:   make(map[*Subscription]struct{}),
		logger: logger,
	}
}

// CurrentHeight returns the last known obstruction height.
func (t *Tracker) CurrentHeight() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.height
}

// WillShow records the height of frame and publishes it.
func (t *Tracker) WillShow(frame model.Rect) {
	h := frame.H
	if h < 0 {
		h = 0
	}
	t.publish(h)
}

// WillHide records a height of 0 and publishes it.
func (t *Tracker) WillHide() {
	t.publish(0)
}

// Apply feeds a single event into the tracker.
func (t *Tracker) Apply(ev Event) {
	if ev.Visible {
		t.WillShow(ev.Frame)
		return
	}
	t.WillHide()
}

// Run applies events until ctx is done or the channel is closed.
func (t *Tracker) Run(ctx context.Context, events <-chan Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			t.Apply(ev)
		}
	}
}

func (t *Tracker) publish(h float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.height = h
	t.logger.Debug("obstruction height changed", "height", h, "subscribers", len(t.subs))

	for sub := range t.subs {
		sub.deliver(h)
	}
}

// Subscribe registers a listener for height changes. The subscription is
// closed automatically when ctx is done; Close may also be called directly.
func (t *Tracker) Subscribe(ctx context.Context) *Subscription {
	sub := &Subscription{
		ch:      make(chan float64, 1),
		done:    make(chan struct{}),
		tracker: t,
	}

	t.mu.Lock()
	t.subs[sub] = struct{}{}
	t.mu.Unlock()

	if ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				_ = sub.Close()
			case <-sub.done:
			}
		}()
	}

	return sub
}

// Subscribers returns the number of live subscriptions.
func (t *Tracker) Subscribers() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.subs)
}

// Subscription receives obstruction heights. Only the most recent undelivered
// height is buffered.
type Subscription struct {
	ch      chan float64
	done    chan struct{}
	closed  bool // guarded by tracker.mu
	tracker *Tracker
}

// Receive returns the channel of heights. It is closed when the subscription is.
func (s *Subscription) Receive() <-chan float64 {
	return s.ch
}

// Close unregisters the subscription. It is safe to call more than once.
func (s *Subscription) Close() error {
	t := s.tracker
	t.mu.Lock()
	defer t.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	delete(t.subs, s)
	close(s.done)
	close(s.ch)
	return nil
}

// deliver replaces any stale buffered height with h. Caller holds tracker.mu.
func (s *Subscription) deliver(h float64) {
	if s.closed {
		return
	}
	select {
	case <-s.ch:
	default:
	}
	select {
	case s.ch <- h:
	default:
	}
}
