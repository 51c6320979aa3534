package toast

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jmylchreest/toastkit/internal/model"
	"github.com/jmylchreest/toastkit/internal/surface"
)

// CompletionFunc is called exactly once when a toast finishes, however it ends.
type CompletionFunc func(t *Toast, outcome Outcome)

type state int

const (
	statePending state = iota
	stateRunning
	stateFinished
)

// Toast is a queued message. Its content, appearance and timing are fixed at
// construction.
type Toast struct {
	id         string
	content    model.Content
	appearance model.Appearance
	style      model.Style
	position   model.Position
	duration   time.Duration
	delay      time.Duration
	createdAt  time.Time
	center     *Center
	onComplete CompletionFunc

	mu         sync.Mutex
	state      state
	cancelled  bool
	handle     *surface.Handle
	outcome    Outcome
	cancelCh   chan struct{}
	doneCh     chan struct{}
	finishOnce sync.Once
}

// Option configures a Toast.
type Option func(*options)

type options struct {
	position   *model.Position
	duration   time.Duration
	delay      time.Duration
	appearance *model.Appearance
	style      model.Style
	onComplete CompletionFunc
}

// WithPosition places the toast. Defaults to the Center's default
// appearance's DefaultPosition.
func WithPosition(p model.Position) Option {
	return func(o *options) { o.position = &p }
}

// WithDuration sets how long the toast stays fully visible.
// Defaults to model.DurationShort.
func WithDuration(d time.Duration) Option {
	return func(o *options) { o.duration = d }
}

// WithDelay sets a wait before the toast is rendered.
func WithDelay(d time.Duration) Option {
	return func(o *options) { o.delay = d }
}

// WithAppearance sets an explicit appearance, overriding WithStyle.
func WithAppearance(a model.Appearance) Option {
	return func(o *options) { o.appearance = &a }
}

// WithStyle selects an appearance preset.
func WithStyle(s model.Style) Option {
	return func(o *options) { o.style = s }
}

// WithCompletion registers a callback fired once when the toast finishes.
func WithCompletion(fn CompletionFunc) Option {
	return func(o *options) { o.onComplete = fn }
}

// NewText builds a plain text toast and submits it to c.
func NewText(c *Center, text string, opts ...Option) (*Toast, error) {
	content, err := model.PlainContent(text)
	if err != nil {
		return nil, err
	}
	return newToast(c, content, opts)
}

// NewStyled builds a toast from markup and submits it to c.
func NewStyled(c *Center, markup string, opts ...Option) (*Toast, error) {
	content, err := model.StyledContent(markup)
	if err != nil {
		return nil, err
	}
	return newToast(c, content, opts)
}

// Success submits a plain text toast using the success preset.
func Success(c *Center, text string, opts ...Option) (*Toast, error) {
	return NewText(c, text, withPreset(model.StyleSuccess, opts)...)
}

// Error submits a plain text toast using the error preset.
func Error(c *Center, text string, opts ...Option) (*Toast, error) {
	return NewText(c, text, withPreset(model.StyleError, opts)...)
}

// Warning submits a plain text toast using the warning preset.
func Warning(c *Center, text string, opts ...Option) (*Toast, error) {
	return NewText(c, text, withPreset(model.StyleWarning, opts)...)
}

func withPreset(style model.Style, opts []Option) []Option {
	return append([]Option{WithStyle(style)}, opts...)
}

func newToast(c *Center, content model.Content, opts []Option) (*Toast, error) {
	if content.IsEmpty() {
		return nil, model.ErrEmptyContent
	}

	o := options{duration: model.DurationShort}
	for _, opt := range opts {
		opt(&o)
	}

	if o.duration < 0 {
		return nil, fmt.Errorf("invalid toast duration %v: must not be negative", o.duration)
	}
	if o.delay < 0 {
		return nil, fmt.Errorf("invalid toast delay %v: must not be negative", o.delay)
	}

	base := c.DefaultAppearance()
	appearance := model.AppearanceFor(o.style, base)
	if o.appearance != nil {
		appearance = *o.appearance
	}

	position := base.DefaultPosition
	if o.position != nil {
		position = *o.position
	}
	if !position.Valid() {
		return nil, fmt.Errorf("%w: %d", model.ErrInvalidPosition, int(position))
	}

	id, err := model.NewID()
	if err != nil {
		return nil, err
	}

	t := &Toast{
		id:         id,
		content:    content,
		appearance: appearance,
		style:      o.style,
		position:   position,
		duration:   o.duration,
		delay:      o.delay,
		createdAt:  time.Now(),
		center:     c,
		onComplete: o.onComplete,
		cancelCh:   make(chan struct{}),
		doneCh:     make(chan struct{}),
	}

	if err := c.Add(t); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Toast) ID() string                   { return t.id }
func (t *Toast) Content() model.Content       { return t.content }
func (t *Toast) Appearance() model.Appearance { return t.appearance }
func (t *Toast) Style() model.Style           { return t.style }
func (t *Toast) Position() model.Position     { return t.position }
func (t *Toast) Duration() time.Duration      { return t.duration }
func (t *Toast) Delay() time.Duration         { return t.delay }
func (t *Toast) CreatedAt() time.Time         { return t.createdAt }

// Done returns a channel closed once the toast has finished.
func (t *Toast) Done() <-chan struct{} {
	return t.doneCh
}

// Outcome returns how the toast ended. Only meaningful after Done is closed.
func (t *Toast) Outcome() Outcome {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.outcome
}

// IsCancelled reports whether Cancel has been called.
func (t *Toast) IsCancelled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancelled
}

// IsFinished reports whether the toast has completed.
func (t *Toast) IsFinished() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state == stateFinished
}

// Cancel stops the toast. A pending toast is dropped from the queue and
// completes immediately; a running toast stops waiting for its delay or has
// its view torn down. Cancel is idempotent.
func (t *Toast) Cancel() {
	t.mu.Lock()
	if t.cancelled {
		t.mu.Unlock()
		return
	}
	t.cancelled = true
	close(t.cancelCh)
	st := t.state
	h := t.handle
	t.mu.Unlock()

	switch {
	case st == statePending:
		t.center.remove(t)
		t.finish(OutcomeCancelled)
	case h != nil:
		h.Dismiss()
	}
}

// Run executes the toast. It is called by the Center worker.
func (t *Toast) Run(ctx context.Context) {
	t.mu.Lock()
	if t.state != statePending {
		t.mu.Unlock()
		return
	}
	t.state = stateRunning
	cancelled := t.cancelled
	t.mu.Unlock()

	outcome := OutcomeCancelled
	defer func() { t.finish(outcome) }()

	if cancelled {
		return
	}

	if t.delay > 0 {
		timer := time.NewTimer(t.delay)
		select {
		case <-timer.C:
		case <-t.cancelCh:
			timer.Stop()
			return
		case <-ctx.Done():
			timer.Stop()
			return
		}
	}

	if t.IsCancelled() || ctx.Err() != nil {
		return
	}

	res, ok := t.present(ctx)
	if !ok {
		return
	}
	if res.err != nil {
		t.center.logger.Warn("toast not shown", "toast_id", t.id, "error", res.err)
		outcome = OutcomeFailed
		return
	}
	if res.handle == nil {
		return
	}

	h := res.handle
	if !t.setHandle(h) {
		h.Dismiss()
		return
	}
	t.center.setCurrent(t, h)

	select {
	case <-res.done:
	case <-ctx.Done():
		h.Dismiss()
	}

	t.center.clearCurrent(h)

	if !h.Interrupted() && !t.IsCancelled() {
		outcome = OutcomeShown
	}
}

type presentResult struct {
	handle *surface.Handle
	done   <-chan struct{}
	err    error
}

// present hands rendering to the UI context and waits for the handle.
// If ctx ends first the dispatched work is abandoned: it renders nothing if
// it has not started, and a handle it already produced is dismissed.
// Nothing waits on a UI loop that has stopped.
func (t *Toast) present(ctx context.Context) (presentResult, bool) {
	p := t.center.presenter
	resCh := make(chan presentResult, 1)

	var (
		mu        sync.Mutex
		abandoned bool
	)

	p.Host().Dispatch(func() {
		mu.Lock()
		defer mu.Unlock()

		if abandoned {
			return
		}
		if t.IsCancelled() {
			resCh <- presentResult{}
			return
		}
		h, err := p.Render(t.content, t.appearance, t.position)
		if err != nil {
			resCh <- presentResult{err: err}
			return
		}
		resCh <- presentResult{handle: h, done: p.Show(h, t.duration)}
	})

	select {
	case res := <-resCh:
		return res, true
	case <-ctx.Done():
	}

	mu.Lock()
	abandoned = true
	select {
	case res := <-resCh:
		if res.handle != nil {
			res.handle.Dismiss()
		}
	default:
	}
	mu.Unlock()
	return presentResult{}, false
}

// setHandle records h unless the toast was cancelled meanwhile.
func (t *Toast) setHandle(h *surface.Handle) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancelled {
		return false
	}
	t.handle = h
	return true
}

func (t *Toast) finish(outcome Outcome) {
	t.finishOnce.Do(func() {
		t.mu.Lock()
		t.state = stateFinished
		t.outcome = outcome
		t.handle = nil
		t.mu.Unlock()

		close(t.doneCh)

		if t.onComplete != nil {
			t.onComplete(t, outcome)
		}
	})
}
