package dbus

import (
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"
)

// NotificationHandler is called for each observed notification.
type NotificationHandler func(notification *DBusNotification)

// Monitor passively observes D-Bus notification traffic without claiming ownership.
// This allows toastd to mirror notifications while another daemon (like dunst)
// owns org.freedesktop.Notifications.
//
// A Notify call is reported once the server's reply is seen, so the handler
// receives the ID the server assigned. Calls whose reply never arrives are
// reported without an ID when the pending set overflows.
type Monitor struct {
	conn   *dbus.Conn
	logger *slog.Logger

	onNotify NotificationHandler
	calls    *notifyCalls
}

// maxPendingCalls bounds the Notify calls waiting for a reply.
const maxPendingCalls = 64

type callKey struct {
	sender string
	serial uint32
}

// notifyCalls pairs Notify calls with their replies. It is used only by the
// message loop goroutine.
type notifyCalls struct {
	pending map[callKey]*DBusNotification
	order   []callKey
}

func newNotifyCalls() *notifyCalls {
	return &notifyCalls{pending: make(map[callKey]*DBusNotification)}
}

// call records n until its reply arrives. It returns a notification that had
// to be evicted to make room, or nil.
func (c *notifyCalls) call(sender string, serial uint32, n *DBusNotification) *DBusNotification {
	var evicted *DBusNotification
	if len(c.order) >= maxPendingCalls {
		oldest := c.order[0]
		c.order = c.order[1:]
		evicted = c.pending[oldest]
		delete(c.pending, oldest)
	}

	key := callKey{sender: sender, serial: serial}
	c.pending[key] = n
	c.order = append(c.order, key)
	return evicted
}

// reply completes the call that replySerial answers. The returned
// notification is nil if the reply is not for a recorded call, or if the
// server rejected it.
func (c *notifyCalls) reply(destination string, replySerial uint32, isErr bool, body []any) *DBusNotification {
	key := callKey{sender: destination, serial: replySerial}
	n, ok := c.pending[key]
	if !ok {
		return nil
	}
	delete(c.pending, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}

	if isErr {
		return nil
	}
	if len(body) > 0 {
		if id, ok := body[0].(uint32); ok {
			n.ID = id
		}
	}
	return n
}

// NewMonitor creates a new notification monitor.
func NewMonitor(logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		logger: logger,
		calls:  newNotifyCalls(),
	}
}

// SetNotifyHandler sets the callback for received notifications.
func (m *Monitor) SetNotifyHandler(handler NotificationHandler) {
	m.onNotify = handler
}

// Start begins monitoring D-Bus for notification traffic.
// A private connection is used because a monitoring connection cannot send.
func (m *Monitor) Start() error {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}
	m.conn = conn

	rules := []string{
		"type='method_call',interface='" + NotificationsInterface + "',member='Notify'",
		"type='method_return'",
		"type='error'",
	}

	err = conn.BusObject().Call(
		"org.freedesktop.DBus.Monitoring.BecomeMonitor",
		0,
		rules,
		uint32(0),
	).Err
	if err != nil {
		// BecomeMonitor might not be available (older D-Bus versions)
		m.logger.Warn("BecomeMonitor not available, trying AddMatch", "error", err)
		return m.startWithAddMatch()
	}

	m.logger.Info("started D-Bus monitor using BecomeMonitor")
	go m.processMessages()
	return nil
}

// startWithAddMatch uses the older AddMatch API for eavesdropping.
func (m *Monitor) startWithAddMatch() error {
	rules := []string{
		"type='method_call',interface='" + NotificationsInterface + "',member='Notify',eavesdrop='true'",
		"type='method_return',eavesdrop='true'",
		"type='error',eavesdrop='true'",
	}

	for _, rule := range rules {
		err := m.conn.BusObject().Call("org.freedesktop.DBus.AddMatch", 0, rule).Err
		if err != nil {
			return fmt.Errorf("failed to add match rule (eavesdrop may require permissions): %w", err)
		}
	}

	m.logger.Info("started D-Bus monitor using AddMatch with eavesdrop")
	go m.processMessages()
	return nil
}

// processMessages reads and processes D-Bus messages.
func (m *Monitor) processMessages() {
	ch := make(chan *dbus.Message, 100)
	m.conn.Eavesdrop(ch)

	for msg := range ch {
		if n := m.observe(msg); n != nil {
			m.dispatch(n)
		}
	}
}

// observe feeds msg into the call tracker and returns a notification that is
// ready to be reported.
func (m *Monitor) observe(msg *dbus.Message) *DBusNotification {
	if msg == nil {
		return nil
	}

	switch msg.Type {
	case dbus.TypeMethodCall:
		if !isNotifyCall(msg) {
			return nil
		}
		notification, err := ParseNotifyCall(msg.Body)
		if err != nil {
			m.logger.Warn("ignoring Notify call", "error", err)
			return nil
		}
		return m.calls.call(headerString(msg, dbus.FieldSender), msg.Serial(), notification)

	case dbus.TypeMethodReply, dbus.TypeError:
		serial, ok := msg.Headers[dbus.FieldReplySerial].Value().(uint32)
		if !ok {
			return nil
		}
		return m.calls.reply(headerString(msg, dbus.FieldDestination), serial, msg.Type == dbus.TypeError, msg.Body)
	}
	return nil
}

func (m *Monitor) dispatch(notification *DBusNotification) {
	m.logger.Debug("captured notification",
		"id", notification.ID,
		"app", notification.AppName,
		"summary", notification.Summary,
		"urgency", notification.Urgency(),
	)

	if m.onNotify != nil {
		m.onNotify(notification)
	}
}

func headerString(msg *dbus.Message, field dbus.HeaderField) string {
	s, _ := msg.Headers[field].Value().(string)
	return s
}

func isNotifyCall(msg *dbus.Message) bool {
	if msg == nil || msg.Type != dbus.TypeMethodCall {
		return false
	}
	iface, ok := msg.Headers[dbus.FieldInterface]
	if !ok || iface.Value() != NotificationsInterface {
		return false
	}
	member, ok := msg.Headers[dbus.FieldMember]
	return ok && member.Value() == "Notify"
}

// Stop stops the monitor.
func (m *Monitor) Stop() error {
	if m.conn != nil {
		return m.conn.Close()
	}
	return nil
}
