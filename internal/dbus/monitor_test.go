package dbus

import (
	"fmt"
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifyCalls_ReplyAssignsID(t *testing.T) {
	calls := newNotifyCalls()

	n := &DBusNotification{AppName: "mail", Summary: "hi"}
	assert.Nil(t, calls.call(":1.20", 5, n))

	// Replies to other calls are ignored.
	assert.Nil(t, calls.reply(":1.21", 5, false, []any{uint32(9)}))
	assert.Nil(t, calls.reply(":1.20", 6, false, []any{uint32(9)}))

	got := calls.reply(":1.20", 5, false, []any{uint32(31)})
	require.NotNil(t, got)
	assert.Equal(t, uint32(31), got.ID)
	assert.Empty(t, calls.pending)

	// A second reply for the same call finds nothing.
	assert.Nil(t, calls.reply(":1.20", 5, false, []any{uint32(31)}))
}

func TestNotifyCalls_ErrorReplyDrops(t *testing.T) {
	calls := newNotifyCalls()
	calls.call(":1.20", 5, &DBusNotification{Summary: "rejected"})

	assert.Nil(t, calls.reply(":1.20", 5, true, []any{"org.freedesktop.DBus.Error.Failed"}))
	assert.Empty(t, calls.pending)
	assert.Empty(t, calls.order)
}

func TestNotifyCalls_EvictsOldest(t *testing.T) {
	calls := newNotifyCalls()
	for i := range maxPendingCalls {
		require.Nil(t, calls.call(":1.20", uint32(i+1), &DBusNotification{Summary: fmt.Sprint(i)}))
	}

	evicted := calls.call(":1.20", 1000, &DBusNotification{Summary: "newest"})
	require.NotNil(t, evicted)
	assert.Equal(t, "0", evicted.Summary)
	assert.Zero(t, evicted.ID)
	assert.Len(t, calls.pending, maxPendingCalls)
}

func TestMonitor_ObserveCallThenReply(t *testing.T) {
	m := NewMonitor(nil)

	call := &dbus.Message{
		Type: dbus.TypeMethodCall,
		Headers: map[dbus.HeaderField]dbus.Variant{
			dbus.FieldInterface: dbus.MakeVariant(NotificationsInterface),
			dbus.FieldMember:    dbus.MakeVariant("Notify"),
			dbus.FieldSender:    dbus.MakeVariant(":1.42"),
		},
		Body: []any{"volume", uint32(0), "", "Volume 40%", "", []string{}, map[string]dbus.Variant{}, int32(1000)},
	}
	assert.Nil(t, m.observe(call))

	reply := &dbus.Message{
		Type: dbus.TypeMethodReply,
		Headers: map[dbus.HeaderField]dbus.Variant{
			dbus.FieldReplySerial: dbus.MakeVariant(call.Serial()),
			dbus.FieldDestination: dbus.MakeVariant(":1.42"),
		},
		Body: []any{uint32(12)},
	}
	n := m.observe(reply)
	require.NotNil(t, n)
	assert.Equal(t, uint32(12), n.ID)
	assert.Equal(t, "Volume 40%", n.Summary)

	signal := &dbus.Message{Type: dbus.TypeSignal}
	assert.Nil(t, m.observe(signal))
	assert.Nil(t, m.observe(nil))
}
