package toast

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/toastkit/internal/model"
	"github.com/jmylchreest/toastkit/internal/obstruction"
	"github.com/jmylchreest/toastkit/internal/surface"
	"github.com/jmylchreest/toastkit/internal/surface/surfacetest"
)

const testFade = 10 * time.Millisecond

func newTestCenter(t *testing.T, opts ...CenterOption) (*Center, *surfacetest.Host) {
	t.Helper()
	host := surfacetest.NewHost()
	opts = append([]CenterOption{WithFadeDuration(testFade)}, opts...)
	c := NewCenter(host, obstruction.NewTracker(nil), opts...)
	t.Cleanup(func() {
		c.Close()
		host.Close()
	})
	return c, host
}

func waitDone(t *testing.T, toast *Toast) {
	t.Helper()
	select {
	case <-toast.Done():
	case <-time.After(3 * time.Second):
		t.Fatalf("toast %q did not finish", toast.Content().Text())
	}
}

func TestCenter_FIFOOneAtATime(t *testing.T) {
	c, host := newTestCenter(t)
	require.True(t, c.Activate())

	var toasts []*Toast
	var want []string
	for i := range 5 {
		text := fmt.Sprintf("toast %d", i)
		tt, err := NewText(c, text, WithDuration(20*time.Millisecond))
		require.NoError(t, err)
		toasts = append(toasts, tt)
		want = append(want, text)
	}

	for _, tt := range toasts {
		waitDone(t, tt)
		assert.Equal(t, OutcomeShown, tt.Outcome())
	}

	assert.Equal(t, want, host.Rendered())
	assert.Equal(t, 1, host.MaxActive())
}

func TestCenter_ReadinessGate(t *testing.T) {
	c, host := newTestCenter(t)
	display := &surfacetest.Display{DisplayName: "late", Bounds: surfacetest.DefaultBounds}
	host.SetDisplay(nil)

	var toasts []*Toast
	for _, text := range []string{"first", "second", "third"} {
		tt, err := NewText(c, text, WithDuration(10*time.Millisecond))
		require.NoError(t, err)
		toasts = append(toasts, tt)
	}

	// Becoming active without a display keeps the queue held.
	assert.False(t, c.Activate())
	assert.False(t, c.Ready())

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, host.Rendered())
	assert.Equal(t, 3, c.Status().Queued)

	host.SetDisplay(display)
	require.True(t, c.Activate())
	assert.True(t, c.Activate(), "activation is sticky")

	for _, tt := range toasts {
		waitDone(t, tt)
	}
	assert.Equal(t, []string{"first", "second", "third"}, host.Rendered())
}

func TestCenter_CancelPending(t *testing.T) {
	c, host := newTestCenter(t)
	require.True(t, c.Activate())

	var completions atomic.Int32
	count := WithCompletion(func(*Toast, Outcome) { completions.Add(1) })

	first, err := NewText(c, "first", WithDuration(100*time.Millisecond), count)
	require.NoError(t, err)
	second, err := NewText(c, "second", count)
	require.NoError(t, err)
	third, err := NewText(c, "third", WithDuration(10*time.Millisecond), count)
	require.NoError(t, err)

	second.Cancel()
	second.Cancel()

	waitDone(t, second)
	assert.Equal(t, OutcomeCancelled, second.Outcome())
	assert.True(t, second.IsCancelled())
	assert.True(t, second.IsFinished())

	waitDone(t, first)
	waitDone(t, third)

	assert.Equal(t, []string{"first", "third"}, host.Rendered())
	assert.Equal(t, int32(3), completions.Load())
}

func TestCenter_CancelCurrent(t *testing.T) {
	c, host := newTestCenter(t)
	require.True(t, c.Activate())

	assert.False(t, c.CancelCurrent(), "nothing visible yet")

	long, err := NewText(c, "long", WithDuration(time.Hour))
	require.NoError(t, err)
	next, err := NewText(c, "next", WithDuration(10*time.Millisecond))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return c.Status().CurrentID == long.ID()
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, "long", c.Status().CurrentText)

	start := time.Now()
	require.True(t, c.CancelCurrent())
	waitDone(t, long)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, OutcomeCancelled, long.Outcome())

	waitDone(t, next)
	views := host.Views()
	require.Len(t, views, 2)
	assert.True(t, views[0].Removed())
	assert.Equal(t, 1, host.MaxActive())
	assert.Empty(t, c.Status().CurrentID)
}

func TestCenter_CancelAllBeforeStart(t *testing.T) {
	c, host := newTestCenter(t)

	var completions atomic.Int32
	var toasts []*Toast
	for i := range 5 {
		tt, err := NewText(c, fmt.Sprintf("doomed %d", i),
			WithCompletion(func(_ *Toast, o Outcome) {
				if o == OutcomeCancelled {
					completions.Add(1)
				}
			}))
		require.NoError(t, err)
		toasts = append(toasts, tt)
	}

	c.CancelAll()
	assert.Zero(t, c.Status().Queued)

	require.True(t, c.Activate())
	after, err := NewText(c, "after", WithDuration(10*time.Millisecond))
	require.NoError(t, err)
	waitDone(t, after)

	for _, tt := range toasts {
		waitDone(t, tt)
		assert.Equal(t, OutcomeCancelled, tt.Outcome())
	}
	assert.Equal(t, []string{"after"}, host.Rendered())
	assert.Equal(t, int32(5), completions.Load())
}

func TestCenter_CancelAllWhileRunning(t *testing.T) {
	c, host := newTestCenter(t)
	require.True(t, c.Activate())

	running, err := NewText(c, "running", WithDuration(time.Hour))
	require.NoError(t, err)
	pending, err := NewText(c, "pending")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return c.Status().CurrentID == running.ID()
	}, time.Second, 5*time.Millisecond)

	c.CancelAll()
	waitDone(t, running)
	waitDone(t, pending)

	assert.Equal(t, OutcomeCancelled, running.Outcome())
	assert.Equal(t, []string{"running"}, host.Rendered())
	assert.Eventually(t, func() bool {
		return host.Active() == 0
	}, time.Second, 5*time.Millisecond)
}

func TestToast_CancelDuringDelay(t *testing.T) {
	c, host := newTestCenter(t)
	require.True(t, c.Activate())

	delayed, err := NewText(c, "delayed", WithDelay(time.Hour))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return c.Status().Running
	}, time.Second, 5*time.Millisecond)

	delayed.Cancel()
	waitDone(t, delayed)

	assert.Equal(t, OutcomeCancelled, delayed.Outcome())
	assert.Empty(t, host.Rendered())
}

func TestToast_Lifetime(t *testing.T) {
	c, host := newTestCenter(t)
	require.True(t, c.Activate())

	var completions atomic.Int32
	hold := 200 * time.Millisecond
	tt, err := NewText(c, "timed", WithDuration(hold),
		WithCompletion(func(*Toast, Outcome) { completions.Add(1) }))
	require.NoError(t, err)

	waitDone(t, tt)
	// Give a stray second completion a chance to show up.
	time.Sleep(30 * time.Millisecond)
	tt.Cancel()

	views := host.Views()
	require.Len(t, views, 1)
	want := 2*testFade + hold
	assert.GreaterOrEqual(t, views[0].Lifetime(), want)
	assert.Less(t, views[0].Lifetime(), want+300*time.Millisecond)
	assert.Equal(t, int32(1), completions.Load())
	assert.Equal(t, OutcomeShown, tt.Outcome())
}

func TestToast_DelayBeforeRender(t *testing.T) {
	c, host := newTestCenter(t)
	require.True(t, c.Activate())

	delay := 80 * time.Millisecond
	start := time.Now()
	tt, err := NewText(c, "later", WithDelay(delay), WithDuration(10*time.Millisecond))
	require.NoError(t, err)
	waitDone(t, tt)

	views := host.Views()
	require.Len(t, views, 1)
	assert.GreaterOrEqual(t, views[0].AddedAt.Sub(start), delay)
}

func TestToast_NoDisplayFails(t *testing.T) {
	c, host := newTestCenter(t)
	require.True(t, c.Activate())
	host.SetDisplay(nil)

	var got Outcome = -1
	var mu sync.Mutex
	failed, err := NewText(c, "lost", WithCompletion(func(_ *Toast, o Outcome) {
		mu.Lock()
		got = o
		mu.Unlock()
	}))
	require.NoError(t, err)
	waitDone(t, failed)

	mu.Lock()
	assert.Equal(t, OutcomeFailed, got)
	mu.Unlock()

	// The queue keeps going once a display is back.
	host.SetDisplay(&surfacetest.Display{DisplayName: "back", Bounds: surfacetest.DefaultBounds})
	found, err := NewText(c, "found", WithDuration(10*time.Millisecond))
	require.NoError(t, err)
	waitDone(t, found)
	assert.Equal(t, []string{"found"}, host.Rendered())
}

func TestToast_Construction(t *testing.T) {
	c, _ := newTestCenter(t)

	_, err := NewText(c, "")
	assert.ErrorIs(t, err, model.ErrEmptyContent)

	_, err = NewStyled(c, "<i></i>")
	assert.ErrorIs(t, err, model.ErrEmptyContent)

	_, err = NewText(c, "x", WithPosition(model.Position(99)))
	assert.ErrorIs(t, err, model.ErrInvalidPosition)

	_, err = NewText(c, "x", WithDuration(-time.Second))
	assert.Error(t, err)

	styled, err := NewStyled(c, "<b>bold</b> move")
	require.NoError(t, err)
	assert.True(t, styled.Content().IsStyled())
	assert.Equal(t, "bold move", styled.Content().Text())
	assert.NotEmpty(t, styled.ID())
}

func TestToast_Defaults(t *testing.T) {
	custom := model.DefaultAppearance()
	custom.DefaultPosition = model.PositionTopRight
	custom.CornerRadius = 4
	c, _ := newTestCenter(t, WithDefaultAppearance(custom))

	tt, err := NewText(c, "defaults")
	require.NoError(t, err)

	assert.Equal(t, model.PositionTopRight, tt.Position())
	assert.Equal(t, model.DurationShort, tt.Duration())
	assert.Zero(t, tt.Delay())
	assert.Equal(t, custom, tt.Appearance())

	// The default is read at construction only.
	c.SetDefaultAppearance(model.DefaultAppearance())
	assert.Equal(t, custom, tt.Appearance())

	after, err := NewText(c, "after")
	require.NoError(t, err)
	assert.Equal(t, model.PositionBottomCenter, after.Position())
}

func TestToast_Presets(t *testing.T) {
	c, _ := newTestCenter(t)

	tests := []struct {
		name string
		fn   func(*Center, string, ...Option) (*Toast, error)
		want model.Appearance
	}{
		{"success", Success, model.SuccessAppearance()},
		{"error", Error, model.ErrorAppearance()},
		{"warning", Warning, model.WarningAppearance()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toast, err := tt.fn(c, tt.name, WithPosition(model.PositionMiddleCenter))
			require.NoError(t, err)
			assert.Equal(t, tt.want, toast.Appearance())
			assert.Equal(t, tt.name, toast.Style().String())
			assert.Equal(t, model.PositionMiddleCenter, toast.Position())
		})
	}
}

func TestCenter_Accessibility(t *testing.T) {
	c, host := newTestCenter(t)
	require.True(t, c.Activate())
	assert.True(t, c.AccessibilityEnabled())

	spoken, err := NewStyled(c, "<b>Hello</b> there", WithDuration(10*time.Millisecond))
	require.NoError(t, err)
	waitDone(t, spoken)

	c.SetAccessibilityEnabled(false)
	silent, err := NewText(c, "shh", WithDuration(10*time.Millisecond))
	require.NoError(t, err)
	waitDone(t, silent)

	assert.Equal(t, []string{"Hello there"}, host.Announced())
}

func TestCenter_OnShown(t *testing.T) {
	c, _ := newTestCenter(t)
	require.True(t, c.Activate())

	shown := make(chan string, 1)
	c.OnShown(func(tt *Toast) { shown <- tt.ID() })

	tt, err := Success(c, "done", WithDuration(10*time.Millisecond))
	require.NoError(t, err)

	select {
	case id := <-shown:
		assert.Equal(t, tt.ID(), id)
	case <-time.After(time.Second):
		t.Fatal("OnShown not called")
	}
	waitDone(t, tt)
}

func TestCenter_Close(t *testing.T) {
	c, _ := newTestCenter(t)

	pending, err := NewText(c, "never")
	require.NoError(t, err)

	c.Close()
	c.Close()

	waitDone(t, pending)
	assert.Equal(t, OutcomeCancelled, pending.Outcome())

	_, err = NewText(c, "late")
	assert.ErrorIs(t, err, ErrCenterClosed)
	assert.False(t, c.Activate())
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "shown", OutcomeShown.String())
	assert.Equal(t, "cancelled", OutcomeCancelled.String())
	assert.Equal(t, "failed", OutcomeFailed.String())
	assert.Equal(t, "unknown", Outcome(7).String())
}

// heldHost queues dispatched work until release is called, standing in for
// a UI loop that is busy or has stopped.
type heldHost struct {
	*surfacetest.Host

	mu   sync.Mutex
	held []func()
}

func (h *heldHost) Dispatch(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.held = append(h.held, fn)
}

func (h *heldHost) pending() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.held)
}

func (h *heldHost) release() {
	h.mu.Lock()
	fns := h.held
	h.held = nil
	h.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func TestToast_CloseWhileRenderPending(t *testing.T) {
	inner := surfacetest.NewHost()
	t.Cleanup(inner.Close)
	host := &heldHost{Host: inner}

	c := NewCenter(host, obstruction.NewTracker(nil), WithFadeDuration(testFade))
	require.True(t, c.Activate())

	tt, err := NewText(c, "stuck")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return host.pending() == 1
	}, time.Second, 5*time.Millisecond)

	closed := make(chan struct{})
	go func() {
		c.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(3 * time.Second):
		t.Fatal("Close blocked on the UI loop")
	}
	waitDone(t, tt)
	assert.Equal(t, OutcomeCancelled, tt.Outcome())

	// The loop catches up after the toast was abandoned.
	host.release()
	assert.Empty(t, inner.Rendered())
	assert.Zero(t, inner.Active())
}

// cancelOnAdd cancels every toast while the view is being built.
type cancelOnAdd struct {
	*surfacetest.Host
	center atomic.Pointer[Center]
}

func (h *cancelOnAdd) AddView(d surface.Display, spec surface.ViewSpec) (surface.View, error) {
	v, err := h.Host.AddView(d, spec)
	if c := h.center.Load(); c != nil {
		c.CancelAll()
	}
	return v, err
}

func TestToast_CancelledDuringRenderIsNotShown(t *testing.T) {
	inner := surfacetest.NewHost()
	t.Cleanup(inner.Close)
	host := &cancelOnAdd{Host: inner}

	c := NewCenter(host, obstruction.NewTracker(nil), WithFadeDuration(testFade))
	t.Cleanup(c.Close)
	host.center.Store(c)

	var shown atomic.Int32
	c.OnShown(func(*Toast) { shown.Add(1) })
	require.True(t, c.Activate())

	tt, err := NewText(c, "gone", WithDuration(time.Hour))
	require.NoError(t, err)
	waitDone(t, tt)

	assert.Equal(t, OutcomeCancelled, tt.Outcome())
	assert.Zero(t, shown.Load())

	require.Eventually(t, func() bool {
		return inner.Active() == 0 && !c.Status().Running
	}, time.Second, 5*time.Millisecond)
	assert.Empty(t, c.Status().CurrentID)
}
