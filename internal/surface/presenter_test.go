package surface_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/toastkit/internal/model"
	"github.com/jmylchreest/toastkit/internal/obstruction"
	"github.com/jmylchreest/toastkit/internal/surface"
	"github.com/jmylchreest/toastkit/internal/surface/surfacetest"
)

const testFade = 20 * time.Millisecond

func newPresenter(t *testing.T, opts ...surface.Option) (*surface.Presenter, *surfacetest.Host, *obstruction.Tracker) {
	t.Helper()
	host := surfacetest.NewHost()
	t.Cleanup(host.Close)
	tracker := obstruction.NewTracker(nil)
	opts = append([]surface.Option{surface.WithFadeDuration(testFade)}, opts...)
	return surface.NewPresenter(host, tracker, opts...), host, tracker
}

// onUI runs fn on the host's UI loop and waits for it.
func onUI(host surface.Host, fn func()) {
	done := make(chan struct{})
	host.Dispatch(func() {
		fn()
		close(done)
	})
	<-done
}

func render(t *testing.T, p *surface.Presenter, text string, pos model.Position, hold time.Duration) (*surface.Handle, <-chan struct{}) {
	t.Helper()
	content, err := model.PlainContent(text)
	require.NoError(t, err)

	var (
		h      *surface.Handle
		done   <-chan struct{}
		renErr error
	)
	onUI(p.Host(), func() {
		h, renErr = p.Render(content, model.DefaultAppearance(), pos)
		if renErr == nil {
			done = p.Show(h, hold)
		}
	})
	require.NoError(t, renErr)
	return h, done
}

func TestPresenter_FullSequence(t *testing.T) {
	p, host, _ := newPresenter(t)
	hold := 100 * time.Millisecond

	h, done := render(t, p, "Saved", model.PositionBottomCenter, hold)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("show did not resolve")
	}

	views := host.Views()
	require.Len(t, views, 1)
	v := views[0]

	assert.True(t, v.Removed())
	assert.True(t, v.FadedIn())
	assert.Zero(t, v.Opacity())
	assert.False(t, h.Interrupted())
	assert.Equal(t, []string{"Saved"}, host.Announced())

	want := 2*testFade + hold
	assert.GreaterOrEqual(t, v.Lifetime(), want)
	assert.Less(t, v.Lifetime(), want+500*time.Millisecond)
}

func TestPresenter_AnnouncementsDisabled(t *testing.T) {
	p, host, _ := newPresenter(t, surface.WithAnnouncements(func() bool { return false }))

	_, done := render(t, p, "quiet", model.PositionTopCenter, 10*time.Millisecond)
	<-done

	assert.Empty(t, host.Announced())
}

func TestPresenter_AnnouncesStyledAsPlain(t *testing.T) {
	p, host, _ := newPresenter(t)

	content, err := model.StyledContent("<b>Upload</b> failed")
	require.NoError(t, err)

	var done <-chan struct{}
	onUI(host, func() {
		h, err := p.Render(content, model.ErrorAppearance(), model.PositionTopCenter)
		require.NoError(t, err)
		done = p.Show(h, 10*time.Millisecond)
	})
	<-done

	assert.Equal(t, []string{"Upload failed"}, host.Announced())
}

func TestPresenter_NoDisplay(t *testing.T) {
	p, host, _ := newPresenter(t)
	host.SetDisplay(nil)

	content, err := model.PlainContent("nowhere")
	require.NoError(t, err)

	var renErr error
	onUI(host, func() {
		_, renErr = p.Render(content, model.DefaultAppearance(), model.PositionBottomCenter)
	})

	assert.ErrorIs(t, renErr, surface.ErrNoDisplay)
	assert.Empty(t, host.Views())
}

func TestPresenter_AddViewFailure(t *testing.T) {
	p, host, tracker := newPresenter(t)
	boom := errors.New("compositor went away")
	host.FailAdd(boom)

	content, err := model.PlainContent("x")
	require.NoError(t, err)

	var renErr error
	onUI(host, func() {
		_, renErr = p.Render(content, model.DefaultAppearance(), model.PositionBottomCenter)
	})

	var displayErr *surface.DisplayError
	require.ErrorAs(t, renErr, &displayErr)
	assert.ErrorIs(t, renErr, boom)
	assert.Zero(t, tracker.Subscribers())
}

func TestHandle_DismissResolvesEarly(t *testing.T) {
	p, host, tracker := newPresenter(t)

	h, done := render(t, p, "long one", model.PositionBottomCenter, time.Hour)
	require.Equal(t, 1, tracker.Subscribers())

	h.Dismiss()
	h.Dismiss()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dismiss did not resolve show")
	}

	assert.True(t, h.Interrupted())
	assert.Eventually(t, func() bool {
		return host.Views()[0].Removed()
	}, time.Second, 5*time.Millisecond)
	assert.Zero(t, tracker.Subscribers())
}

func TestHandle_DismissBeforeShow(t *testing.T) {
	p, host, _ := newPresenter(t)

	content, err := model.PlainContent("gone")
	require.NoError(t, err)

	var done <-chan struct{}
	onUI(host, func() {
		h, err := p.Render(content, model.DefaultAppearance(), model.PositionTopLeft)
		require.NoError(t, err)
		h.Dismiss()
		done = p.Show(h, time.Hour)
	})

	select {
	case <-done:
	default:
		t.Fatal("show on a dismissed handle should be resolved")
	}
	assert.Empty(t, host.Announced())
}

func TestHandle_FollowsObstruction(t *testing.T) {
	p, host, tracker := newPresenter(t)
	hold := 300 * time.Millisecond

	bottom, bottomDone := render(t, p, "bottom", model.PositionBottomRight, hold)
	top, topDone := render(t, p, "top", model.PositionTopRight, hold)

	const keyboard = 280.0
	tracker.WillShow(model.Rect{Y: surfacetest.DefaultBounds.H - keyboard, W: surfacetest.DefaultBounds.W, H: keyboard})

	views := host.Views()
	require.Len(t, views, 2)

	assert.Eventually(t, func() bool {
		return views[0].Moves() == 1
	}, time.Second, 5*time.Millisecond)

	c := bottom.Constraints()
	assert.True(t, c.Avoiding)
	assert.Equal(t, surface.AnchorCenter, c.Horizontal)
	assert.Equal(t, keyboard+model.EdgeMargin, c.MarginY)
	assert.Equal(t, c, views[0].Constraints())
	assert.Zero(t, views[1].Moves())
	assert.False(t, top.Constraints().Avoiding)

	<-bottomDone
	<-topDone

	// Repositioning must not restart the hold timer.
	want := 2*testFade + hold
	assert.Less(t, views[0].Lifetime(), want+250*time.Millisecond)
	assert.False(t, bottom.Interrupted())
}

func TestPresenter_RenderUsesCurrentObstruction(t *testing.T) {
	p, host, tracker := newPresenter(t)
	tracker.WillShow(model.Rect{H: 200})

	h, _ := render(t, p, "above keyboard", model.PositionMiddleLeft, time.Hour)
	defer h.Dismiss()

	c := host.Views()[0].Spec.Constraints
	assert.True(t, c.Avoiding)
	assert.Equal(t, 220.0, c.MarginY)
	assert.Zero(t, host.Views()[0].Spec.Opacity)
}

// keyboardDuringAdd raises the keyboard while the view is being built.
type keyboardDuringAdd struct {
	*surfacetest.Host
	tracker *obstruction.Tracker
	frame   model.Rect
}

func (h *keyboardDuringAdd) AddView(d surface.Display, spec surface.ViewSpec) (surface.View, error) {
	v, err := h.Host.AddView(d, spec)
	h.tracker.WillShow(h.frame)
	return v, err
}

func TestPresenter_ObstructionChangeDuringRender(t *testing.T) {
	inner := surfacetest.NewHost()
	t.Cleanup(inner.Close)
	tracker := obstruction.NewTracker(nil)

	const keyboard = 280.0
	host := &keyboardDuringAdd{
		Host:    inner,
		tracker: tracker,
		frame:   model.Rect{Y: surfacetest.DefaultBounds.H - keyboard, W: surfacetest.DefaultBounds.W, H: keyboard},
	}
	p := surface.NewPresenter(host, tracker, surface.WithFadeDuration(testFade))

	h, _ := render(t, p, "typing", model.PositionBottomCenter, time.Hour)
	defer h.Dismiss()

	views := inner.Views()
	require.Len(t, views, 1)
	assert.False(t, views[0].Spec.Constraints.Avoiding)

	assert.Eventually(t, func() bool {
		return h.Constraints().Avoiding
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, keyboard+model.EdgeMargin, h.Constraints().MarginY)
	assert.Eventually(t, func() bool {
		return views[0].Constraints() == h.Constraints()
	}, time.Second, 5*time.Millisecond)
}
