package daemon

import (
	"errors"
	"sync"
	"testing"
	"time"

	godbus "github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/toastkit/internal/config"
	"github.com/jmylchreest/toastkit/internal/dbus"
	"github.com/jmylchreest/toastkit/internal/model"
	"github.com/jmylchreest/toastkit/internal/obstruction"
	"github.com/jmylchreest/toastkit/internal/surface/surfacetest"
	"github.com/jmylchreest/toastkit/internal/toast"
)

type closedSignal struct {
	id      string
	outcome string
}

type fakeEmitter struct {
	mu        sync.Mutex
	closed    []closedSignal
	announced []string
}

func (e *fakeEmitter) EmitToastClosed(id, outcome string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = append(e.closed, closedSignal{id, outcome})
	return nil
}

func (e *fakeEmitter) EmitAnnounce(text string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.announced = append(e.announced, text)
	return nil
}

func (e *fakeEmitter) closedFor(id string) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, c := range e.closed {
		if c.id == id {
			return c.outcome, true
		}
	}
	return "", false
}

type fakeSounds struct {
	mu      sync.Mutex
	played  []model.Style
	configs int
	err     error
}

func (s *fakeSounds) PlayForStyle(style model.Style) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.played = append(s.played, style)
	return s.err
}

func (s *fakeSounds) UpdateConfig(*config.DaemonConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configs++
}

func (s *fakeSounds) snapshot() ([]model.Style, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Style(nil), s.played...), s.configs
}

func newTestDaemon(t *testing.T) (*Daemon, *toast.Center, *surfacetest.Host) {
	t.Helper()
	host := surfacetest.NewHost()
	center := toast.NewCenter(host, obstruction.NewTracker(nil), toast.WithFadeDuration(5*time.Millisecond))
	t.Cleanup(func() {
		center.Close()
		host.Close()
	})
	return New(center, nil, nil), center, host
}

func TestDaemon_ShowQueuesToast(t *testing.T) {
	d, center, host := newTestDaemon(t)
	emitter := &fakeEmitter{}
	d.SetSignalEmitter(emitter)
	require.True(t, center.Activate())

	id, err := d.Show(dbus.ShowRequest{
		Text:     "saved",
		Style:    "success",
		Position: "top-right",
		Duration: 20 * time.Millisecond,
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	require.Eventually(t, func() bool {
		_, ok := emitter.closedFor(id)
		return ok
	}, 2*time.Second, 5*time.Millisecond)

	outcome, _ := emitter.closedFor(id)
	assert.Equal(t, "shown", outcome)
	assert.Equal(t, []string{"saved"}, host.Rendered())
	assert.Nil(t, d.States().Get(id), "completed toasts are forgotten")

	views := host.Views()
	require.Len(t, views, 1)
	assert.Equal(t, model.PositionTopRight, views[0].Spec.Position)
	assert.Equal(t, model.SuccessAppearance(), views[0].Spec.Appearance)
}

func TestDaemon_ShowRejectsBadRequests(t *testing.T) {
	d, _, _ := newTestDaemon(t)

	tests := []struct {
		name string
		req  dbus.ShowRequest
	}{
		{"empty text", dbus.ShowRequest{Text: "  "}},
		{"bad style", dbus.ShowRequest{Text: "x", Style: "loud"}},
		{"bad position", dbus.ShowRequest{Text: "x", Position: "upstairs"}},
		{"bad markup", dbus.ShowRequest{Text: "<b>x", Markup: true}},
		{"negative delay", dbus.ShowRequest{Text: "x", Delay: -time.Second}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := d.Show(tt.req)
			assert.Error(t, err)
			assert.Empty(t, id)
		})
	}
	assert.Equal(t, 0, d.States().Count())
}

func TestDaemon_ShowUsesConfiguredDuration(t *testing.T) {
	d, center, _ := newTestDaemon(t)

	cfg := config.DefaultDaemonConfig()
	cfg.Timing.Duration = config.Duration(7 * time.Second)
	d.ApplyConfig(cfg)

	id, err := d.Show(dbus.ShowRequest{Text: "default hold"})
	require.NoError(t, err)

	state := d.States().Get(id)
	require.NotNil(t, state)
	assert.Equal(t, 7*time.Second, state.Toast.Duration())
	assert.Equal(t, DisplayStatusPending, state.Status)
	assert.Equal(t, 1, center.Status().Queued)
}

func TestDaemon_Cancel(t *testing.T) {
	d, _, _ := newTestDaemon(t)
	emitter := &fakeEmitter{}
	d.SetSignalEmitter(emitter)

	id, err := d.Show(dbus.ShowRequest{Text: "pending"})
	require.NoError(t, err)

	assert.False(t, d.Cancel("unknown"))
	assert.True(t, d.Cancel(id))

	outcome, ok := emitter.closedFor(id)
	require.True(t, ok, "pending toasts complete on cancel")
	assert.Equal(t, "cancelled", outcome)
	assert.False(t, d.Cancel(id), "a completed toast is no longer known")
}

func TestDaemon_CancelAllAndCurrent(t *testing.T) {
	d, center, _ := newTestDaemon(t)
	require.True(t, center.Activate())

	first, err := d.Show(dbus.ShowRequest{Text: "first", Duration: time.Hour})
	require.NoError(t, err)
	_, err = d.Show(dbus.ShowRequest{Text: "second", Duration: time.Hour})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return d.Status().CurrentID == first
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, uint32(1), d.Status().Queued)

	d.CancelAll()
	require.Eventually(t, func() bool {
		return d.States().Count() == 0
	}, 2*time.Second, 5*time.Millisecond)
	assert.False(t, d.CancelCurrent())
}

func TestDaemon_StatusAndAccessibility(t *testing.T) {
	d, center, _ := newTestDaemon(t)
	require.True(t, center.Activate())

	s := d.Status()
	assert.True(t, s.Ready)
	assert.True(t, s.Accessibility)

	d.SetAccessibility(false)
	assert.False(t, d.Status().Accessibility)
	assert.False(t, center.AccessibilityEnabled())
}

func TestDaemon_ApplyConfig(t *testing.T) {
	d, center, _ := newTestDaemon(t)
	sounds := &fakeSounds{}
	d.SetSoundPlayer(sounds)

	var applied []*config.DaemonConfig
	d.OnConfigApplied(func(cfg *config.DaemonConfig) {
		applied = append(applied, cfg)
	})

	cfg := config.DefaultDaemonConfig()
	cfg.Appearance.Position = model.PositionTopLeft
	cfg.Appearance.Background = model.RGB(1, 2, 3)
	cfg.Accessibility.Announce = false
	d.ApplyConfig(cfg)

	assert.Equal(t, model.PositionTopLeft, center.DefaultAppearance().DefaultPosition)
	assert.Equal(t, model.RGB(1, 2, 3), center.DefaultAppearance().BackgroundColor)
	assert.False(t, center.AccessibilityEnabled())
	assert.Same(t, cfg, d.Config())

	_, configs := sounds.snapshot()
	assert.Equal(t, 2, configs, "once on attach, once on apply")
	assert.Equal(t, []*config.DaemonConfig{cfg}, applied)
}

func TestDaemon_PlaysSoundWhenShown(t *testing.T) {
	d, center, _ := newTestDaemon(t)
	sounds := &fakeSounds{}
	d.SetSoundPlayer(sounds)
	require.True(t, center.Activate())

	_, err := d.Show(dbus.ShowRequest{Text: "broken", Style: "error", Duration: 10 * time.Millisecond})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		played, _ := sounds.snapshot()
		return len(played) == 1
	}, 2*time.Second, 5*time.Millisecond)

	played, _ := sounds.snapshot()
	assert.Equal(t, model.StyleError, played[0])
}

func TestDaemon_AudioErrorIsReported(t *testing.T) {
	d, center, host := newTestDaemon(t)
	d.SetSoundPlayer(&fakeSounds{err: errors.New("no output device")})
	require.True(t, center.Activate())

	_, err := d.Show(dbus.ShowRequest{Text: "ding", Duration: 10 * time.Millisecond})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		for _, text := range host.Rendered() {
			if text == "Audio error: no output device" {
				return true
			}
		}
		return false
	}, 5*time.Second, 10*time.Millisecond)
}

func TestDaemon_Announce(t *testing.T) {
	d, _, _ := newTestDaemon(t)
	d.Announce("dropped without an emitter")

	emitter := &fakeEmitter{}
	d.SetSignalEmitter(emitter)
	d.Announce("hello")

	assert.Equal(t, []string{"hello"}, emitter.announced)
}

func TestMirrorStyle(t *testing.T) {
	assert.Equal(t, model.StylePlain, MirrorStyle(dbus.UrgencyLow))
	assert.Equal(t, model.StylePlain, MirrorStyle(dbus.UrgencyNormal))
	assert.Equal(t, model.StyleError, MirrorStyle(dbus.UrgencyCritical))
}

func TestDaemon_Mirror(t *testing.T) {
	d, _, _ := newTestDaemon(t)

	d.Mirror(&dbus.DBusNotification{AppName: "mail", Summary: " ", Body: ""})
	assert.Equal(t, 0, d.States().Count(), "blank notifications are ignored")

	d.Mirror(&dbus.DBusNotification{
		AppName:       "battery",
		Summary:       "Battery low",
		Body:          "5% remaining",
		Hints:         map[string]godbus.Variant{"urgency": godbus.MakeVariant(dbus.UrgencyCritical)},
		ExpireTimeout: -1,
	})
	require.Equal(t, 1, d.States().Count())

	var state *DisplayState
	for _, id := range allIDs(d) {
		state = d.States().Get(id)
	}
	require.NotNil(t, state)
	assert.Equal(t, "Battery low: 5% remaining", state.Toast.Content().Text())
	assert.Equal(t, model.StyleError, state.Toast.Style())
	assert.Equal(t, 5*time.Second, state.Toast.Duration())
}

func TestDaemon_MirrorReplacesEarlierToast(t *testing.T) {
	d, _, _ := newTestDaemon(t)

	volume := func(level string) *dbus.DBusNotification {
		return &dbus.DBusNotification{AppName: "volume", ReplacesID: 42, Summary: "Volume " + level, ExpireTimeout: 1000}
	}

	d.Mirror(volume("40%"))
	first := d.States().GetByMirrorID(42)
	require.NotNil(t, first)

	d.Mirror(volume("50%"))
	second := d.States().GetByMirrorID(42)
	require.NotNil(t, second)

	assert.NotEqual(t, first.Toast.ID(), second.Toast.ID())
	assert.True(t, first.Toast.IsCancelled())
	assert.Equal(t, time.Second, second.Toast.Duration())
	assert.Equal(t, 1, d.States().Count())
}

func TestDaemon_MirrorReplacesByServerID(t *testing.T) {
	d, _, _ := newTestDaemon(t)

	d.Mirror(&dbus.DBusNotification{ID: 17, AppName: "mail", Summary: "1 new message"})
	first := d.States().GetByMirrorID(17)
	require.NotNil(t, first)
	assert.Nil(t, d.States().GetByMirrorID(0))

	d.Mirror(&dbus.DBusNotification{ID: 17, ReplacesID: 17, AppName: "mail", Summary: "2 new messages"})
	second := d.States().GetByMirrorID(17)
	require.NotNil(t, second)

	assert.True(t, first.Toast.IsCancelled())
	assert.NotEqual(t, first.Toast.ID(), second.Toast.ID())
}

func TestDaemon_ConfigWatcherCallbacks(t *testing.T) {
	d, center, host := newTestDaemon(t)
	d.Notifier().SetMinInterval(0)
	require.True(t, center.Activate())

	w := NewConfigWatcher(t.TempDir()+"/toastd.toml", nil)
	d.AttachConfigWatcher(w)

	cfg := config.DefaultDaemonConfig()
	cfg.Appearance.Position = model.PositionMiddleCenter
	w.onReloadCallback(cfg)
	assert.Equal(t, model.PositionMiddleCenter, center.DefaultAppearance().DefaultPosition)

	w.onErrorCallback(errors.New("bad toml"))
	require.Eventually(t, func() bool {
		return len(host.Rendered()) == 2
	}, 10*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"Configuration reloaded", "Configuration error: bad toml"}, host.Rendered())
}

func allIDs(d *Daemon) []string {
	d.states.mu.RLock()
	defer d.states.mu.RUnlock()
	ids := make([]string, 0, len(d.states.byID))
	for id := range d.states.byID {
		ids = append(ids, id)
	}
	return ids
}
