package dbus

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"
)

// Client calls a running toastd over the session bus.
type Client struct {
	conn *dbus.Conn
	obj  dbus.BusObject
}

// NewClient connects to the session bus.
func NewClient() (*Client, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return NewClientOn(conn), nil
}

// NewClientOn uses an existing connection.
func NewClientOn(conn *dbus.Conn) *Client {
	return &Client{
		conn: conn,
		obj:  conn.Object(ToasterBusName, ToasterPath),
	}
}

func (c *Client) call(ctx context.Context, method string, args ...any) *dbus.Call {
	return c.obj.CallWithContext(ctx, ToasterInterface+"."+method, 0, args...)
}

// Show queues a toast and returns its ID.
func (c *Client) Show(ctx context.Context, req ShowRequest) (string, error) {
	var id string
	err := c.call(ctx, "Show",
		req.Text,
		req.Markup,
		req.Style,
		req.Position,
		uint32(req.Duration.Milliseconds()),
		uint32(req.Delay.Milliseconds()),
	).Store(&id)
	if err != nil {
		return "", fmt.Errorf("show failed: %w", err)
	}
	return id, nil
}

// Cancel cancels a toast by ID. It reports whether the toast was known.
func (c *Client) Cancel(ctx context.Context, id string) (bool, error) {
	var found bool
	if err := c.call(ctx, "Cancel", id).Store(&found); err != nil {
		return false, fmt.Errorf("cancel failed: %w", err)
	}
	return found, nil
}

// CancelCurrent dismisses the visible toast. It reports whether one was visible.
func (c *Client) CancelCurrent(ctx context.Context) (bool, error) {
	var visible bool
	if err := c.call(ctx, "CancelCurrent").Store(&visible); err != nil {
		return false, fmt.Errorf("cancel current failed: %w", err)
	}
	return visible, nil
}

// CancelAll cancels every queued toast and the visible one.
func (c *Client) CancelAll(ctx context.Context) error {
	if err := c.call(ctx, "CancelAll").Err; err != nil {
		return fmt.Errorf("cancel all failed: %w", err)
	}
	return nil
}

// SetAccessibility turns announcements on or off.
func (c *Client) SetAccessibility(ctx context.Context, enabled bool) error {
	if err := c.call(ctx, "SetAccessibility", enabled).Err; err != nil {
		return fmt.Errorf("set accessibility failed: %w", err)
	}
	return nil
}

// Status returns the daemon's scheduler state.
func (c *Client) Status(ctx context.Context) (StatusInfo, error) {
	var v map[string]dbus.Variant
	if err := c.call(ctx, "GetStatus").Store(&v); err != nil {
		return StatusInfo{}, fmt.Errorf("get status failed: %w", err)
	}
	return ParseStatus(v)
}

// WaitClosed blocks until the ToastClosed signal for id arrives and returns
// its outcome. Call it right after Show; signals emitted earlier are missed.
func (c *Client) WaitClosed(ctx context.Context, id string) (string, error) {
	opts := []dbus.MatchOption{
		dbus.WithMatchObjectPath(ToasterPath),
		dbus.WithMatchInterface(ToasterInterface),
		dbus.WithMatchMember("ToastClosed"),
		dbus.WithMatchArg(0, id),
	}
	if err := c.conn.AddMatchSignalContext(ctx, opts...); err != nil {
		return "", fmt.Errorf("failed to add match rule: %w", err)
	}
	defer func() { _ = c.conn.RemoveMatchSignal(opts...) }()

	ch := make(chan *dbus.Signal, 8)
	c.conn.Signal(ch)
	defer c.conn.RemoveSignal(ch)

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case sig, ok := <-ch:
			if !ok {
				return "", fmt.Errorf("connection closed")
			}
			if gotID, outcome, ok := parseToastClosed(sig); ok && gotID == id {
				return outcome, nil
			}
		}
	}
}

func parseToastClosed(sig *dbus.Signal) (id, outcome string, ok bool) {
	if sig == nil || sig.Name != ToasterInterface+".ToastClosed" || len(sig.Body) < 2 {
		return "", "", false
	}
	id, ok1 := sig.Body[0].(string)
	outcome, ok2 := sig.Body[1].(string)
	return id, outcome, ok1 && ok2
}
