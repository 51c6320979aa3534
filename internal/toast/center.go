package toast

import (
	"container/list"
	"context"
	"log/slog"
	"sync"
	"time"
	"weak"

	"github.com/jmylchreest/toastkit/internal/model"
	"github.com/jmylchreest/toastkit/internal/obstruction"
	"github.com/jmylchreest/toastkit/internal/surface"
)

// ShownCallback is called from the worker goroutine once a toast is visible.
type ShownCallback func(t *Toast)

// Status is a snapshot of the Center's state.
type Status struct {
	Ready         bool
	Queued        int
	Running       bool
	CurrentID     string
	CurrentText   string
	ShownAt       time.Time
	Accessibility bool
}

// Center serializes toasts: operations run strictly one at a time in the
// order they were added, and only after the host has become ready.
type Center struct {
	host      surface.Host
	presenter *surface.Presenter
	logger    *slog.Logger
	fade      time.Duration

	mu         sync.Mutex
	queue      *list.List                  // List of Operation, FIFO
	queueIndex map[Operation]*list.Element // Fast removal of cancelled entries
	ready      bool
	closed     bool
	running    Operation

	// current does not keep the handle alive past its own lifecycle.
	current     weak.Pointer[surface.Handle]
	currentID   string
	currentText string
	shownAt     time.Time

	appearance    model.Appearance
	accessibility bool
	onShown       []ShownCallback

	wakeCh    chan struct{}
	ctx       context.Context
	cancel    context.CancelFunc
	doneCh    chan struct{}
	closeOnce sync.Once
}

// CenterOption configures a Center.
type CenterOption func(*Center)

// WithLogger sets the Center's logger.
func WithLogger(logger *slog.Logger) CenterOption {
	return func(c *Center) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithFadeDuration overrides model.FadeDuration for every toast.
func WithFadeDuration(d time.Duration) CenterOption {
	return func(c *Center) {
		c.fade = d
	}
}

// WithDefaultAppearance sets the initial default appearance.
func WithDefaultAppearance(a model.Appearance) CenterOption {
	return func(c *Center) {
		c.appearance = a
	}
}

// WithAccessibility sets the initial announcement flag.
func WithAccessibility(enabled bool) CenterOption {
	return func(c *Center) {
		c.accessibility = enabled
	}
}

// NewCenter creates a Center that presents through host and starts its worker.
// The queue is held until Activate succeeds. A nil tracker disables
// obstruction avoidance.
func NewCenter(host surface.Host, tracker *obstruction.Tracker, opts ...CenterOption) *Center {
	ctx, cancel := context.WithCancel(context.Background())

	c := &Center{
		host:          host,
		logger:        slog.Default(),
		fade:          model.FadeDuration,
		queue:         list.New(),
		queueIndex:    make(map[Operation]*list.Element),
		appearance:    model.DefaultAppearance(),
		accessibility: true,
		wakeCh:        make(chan struct{}, 1),
		ctx:           ctx,
		cancel:        cancel,
		doneCh:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.presenter = surface.NewPresenter(host, tracker,
		surface.WithLogger(c.logger),
		surface.WithFadeDuration(c.fade),
		surface.WithAnnouncements(c.AccessibilityEnabled),
	)

	go c.run()
	return c
}

// Activate is called when the host becomes active. The Center becomes ready
// if a display can be resolved at that moment; once ready it stays ready.
// It reports whether the Center is ready.
func (c *Center) Activate() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ready {
		return true
	}
	if c.closed {
		return false
	}

	display, ok := c.host.ActiveDisplay()
	if !ok || display == nil {
		c.logger.Debug("host active without a display, queue stays held")
		return false
	}

	c.ready = true
	c.logger.Info("toast center ready", "display", display.Name(), "queued", c.queue.Len())
	c.wake()
	return true
}

// Ready reports whether the queue is runnable.
func (c *Center) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready
}

// Add appends op to the queue.
func (c *Center) Add(op Operation) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrCenterClosed
	}

	c.queueIndex[op] = c.queue.PushBack(op)
	c.wake()
	return nil
}

// remove drops a pending op. It reports whether op was still queued.
func (c *Center) remove(op Operation) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.queueIndex[op]
	if !ok {
		return false
	}
	c.queue.Remove(elem)
	delete(c.queueIndex, op)
	return true
}

// CancelCurrent tears down the visible toast, if any. The running toast
// observes the teardown and the queue advances. It reports whether a toast
// was visible.
func (c *Center) CancelCurrent() bool {
	c.mu.Lock()
	h := c.current.Value()
	id := c.currentID
	c.mu.Unlock()

	if h == nil {
		return false
	}

	c.logger.Debug("cancelling current toast", "toast_id", id)
	h.Dismiss()
	return true
}

// CancelAll cancels every pending operation and the running one.
// Operations added after CancelAll returns are unaffected.
func (c *Center) CancelAll() {
	c.mu.Lock()
	pending := make([]Operation, 0, c.queue.Len())
	for e := c.queue.Front(); e != nil; e = e.Next() {
		pending = append(pending, e.Value.(Operation))
	}
	c.queue.Init()
	clear(c.queueIndex)
	running := c.running
	c.mu.Unlock()

	for _, op := range pending {
		op.Cancel()
	}
	if running != nil {
		running.Cancel()
	}

	if len(pending) > 0 || running != nil {
		c.logger.Debug("cancelled all toasts", "pending", len(pending), "running", running != nil)
	}
}

// DefaultAppearance returns the appearance snapshotted by new toasts.
func (c *Center) DefaultAppearance() model.Appearance {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.appearance
}

// SetDefaultAppearance replaces the default appearance. Existing toasts keep
// the appearance they were built with.
func (c *Center) SetDefaultAppearance(a model.Appearance) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.appearance = a
}

// AccessibilityEnabled reports whether toast text is announced.
func (c *Center) AccessibilityEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessibility
}

// SetAccessibilityEnabled turns announcements on or off.
func (c *Center) SetAccessibilityEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessibility = enabled
}

// OnShown registers a callback run each time a toast becomes visible.
func (c *Center) OnShown(cb ShownCallback) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onShown = append(c.onShown, cb)
}

// Status returns a snapshot of the Center's state.
func (c *Center) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Status{
		Ready:         c.ready,
		Queued:        c.queue.Len(),
		Running:       c.running != nil,
		CurrentID:     c.currentID,
		CurrentText:   c.currentText,
		ShownAt:       c.shownAt,
		Accessibility: c.accessibility,
	}
}

// Close cancels everything and stops the worker. It is safe to call more than once.
func (c *Center) Close() {
	c.closeOnce.Do(func() {
		c.CancelAll()

		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()

		c.cancel()
		c.wake()
		<-c.doneCh
		c.logger.Debug("toast center stopped")
	})
}

func (c *Center) wake() {
	select {
	case c.wakeCh <- struct{}{}:
	default:
	}
}

func (c *Center) run() {
	defer close(c.doneCh)

	for {
		op := c.next()
		if op == nil {
			return
		}

		op.Run(c.ctx)

		c.mu.Lock()
		c.running = nil
		c.mu.Unlock()
	}
}

// next blocks until an operation may run, or returns nil once closed.
func (c *Center) next() Operation {
	for {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return nil
		}
		if c.ready && c.queue.Len() > 0 {
			elem := c.queue.Front()
			op := elem.Value.(Operation)
			c.queue.Remove(elem)
			delete(c.queueIndex, op)
			c.running = op
			c.mu.Unlock()
			return op
		}
		c.mu.Unlock()

		select {
		case <-c.wakeCh:
		case <-c.ctx.Done():
		}
	}
}

func (c *Center) setCurrent(t *Toast, h *surface.Handle) {
	c.mu.Lock()
	c.current = weak.Make(h)
	c.currentID = t.id
	c.currentText = t.content.Text()
	c.shownAt = time.Now()
	callbacks := append([]ShownCallback(nil), c.onShown...)
	c.mu.Unlock()

	for _, cb := range callbacks {
		cb(t)
	}
}

func (c *Center) clearCurrent(h *surface.Handle) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current.Value() != h {
		return
	}
	c.current = weak.Pointer[surface.Handle]{}
	c.currentID = ""
	c.currentText = ""
	c.shownAt = time.Time{}
}
