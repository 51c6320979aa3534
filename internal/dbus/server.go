package dbus

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
)

// ToastServer implements the io.github.jmylchreest.Toaster D-Bus interface.
type ToastServer struct {
	conn    *dbus.Conn
	logger  *slog.Logger
	handler ToastHandler

	mu      sync.RWMutex
	running bool
}

// NewToastServer creates a new ToastServer backed by handler.
func NewToastServer(handler ToastHandler, logger *slog.Logger) *ToastServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &ToastServer{
		logger:  logger,
		handler: handler,
	}
}

// Start connects to the session bus and exports the toast service.
func (s *ToastServer) Start() error {
	conn, err := dbus.SessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return s.StartOn(conn)
}

// StartOn exports the toast service on an existing connection.
func (s *ToastServer) StartOn(conn *dbus.Conn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("server already running")
	}

	if err := conn.Export(s, ToasterPath, ToasterInterface); err != nil {
		return fmt.Errorf("failed to export object: %w", err)
	}

	node := &introspect.Node{
		Name: ToasterPath,
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name:    ToasterInterface,
				Methods: toasterMethods(),
				Signals: toasterSignals(),
			},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), ToasterPath,
		"org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("failed to export introspectable: %w", err)
	}

	reply, err := conn.RequestName(ToasterBusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("failed to request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("bus name %s already taken", ToasterBusName)
	}

	s.conn = conn
	s.running = true
	s.logger.Info("D-Bus toast server started", "interface", ToasterInterface, "path", ToasterPath)
	return nil
}

// Stop releases the bus name.
func (s *ToastServer) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false

	if _, err := s.conn.ReleaseName(ToasterBusName); err != nil {
		s.logger.Warn("failed to release bus name", "error", err)
	}
	// The session bus connection is shared and stays open.

	s.logger.Info("D-Bus toast server stopped")
	return nil
}

// Show queues a toast and returns its ID.
// D-Bus method: Show(sbssuu) -> s
func (s *ToastServer) Show(text string, markup bool, style, position string, durationMs, delayMs uint32) (string, *dbus.Error) {
	s.logger.Debug("Show called", "markup", markup, "style", style, "position", position, "duration_ms", durationMs)

	id, err := s.handler.Show(ShowRequest{
		Text:     text,
		Markup:   markup,
		Style:    style,
		Position: position,
		Duration: time.Duration(durationMs) * time.Millisecond,
		Delay:    time.Duration(delayMs) * time.Millisecond,
	})
	if err != nil {
		return "", dbus.MakeFailedError(err)
	}
	return id, nil
}

// Cancel cancels a queued or visible toast by ID.
// D-Bus method: Cancel(s) -> b
func (s *ToastServer) Cancel(id string) (bool, *dbus.Error) {
	s.logger.Debug("Cancel called", "toast_id", id)
	return s.handler.Cancel(id), nil
}

// CancelCurrent dismisses the visible toast.
// D-Bus method: CancelCurrent() -> b
func (s *ToastServer) CancelCurrent() (bool, *dbus.Error) {
	s.logger.Debug("CancelCurrent called")
	return s.handler.CancelCurrent(), nil
}

// CancelAll cancels every queued toast and the visible one.
// D-Bus method: CancelAll()
func (s *ToastServer) CancelAll() *dbus.Error {
	s.logger.Debug("CancelAll called")
	s.handler.CancelAll()
	return nil
}

// SetAccessibility turns announcements on or off.
// D-Bus method: SetAccessibility(b)
func (s *ToastServer) SetAccessibility(enabled bool) *dbus.Error {
	s.logger.Debug("SetAccessibility called", "enabled", enabled)
	s.handler.SetAccessibility(enabled)
	return nil
}

// GetStatus returns the scheduler state.
// D-Bus method: GetStatus() -> a{sv}
func (s *ToastServer) GetStatus() (map[string]dbus.Variant, *dbus.Error) {
	return s.handler.Status().Variants(), nil
}

// toasterMethods returns the D-Bus method introspection data.
func toasterMethods() []introspect.Method {
	return []introspect.Method{
		{
			Name: "Show",
			Args: []introspect.Arg{
				{Name: "text", Type: "s", Direction: "in"},
				{Name: "markup", Type: "b", Direction: "in"},
				{Name: "style", Type: "s", Direction: "in"},
				{Name: "position", Type: "s", Direction: "in"},
				{Name: "duration_ms", Type: "u", Direction: "in"},
				{Name: "delay_ms", Type: "u", Direction: "in"},
				{Name: "id", Type: "s", Direction: "out"},
			},
		},
		{
			Name: "Cancel",
			Args: []introspect.Arg{
				{Name: "id", Type: "s", Direction: "in"},
				{Name: "found", Type: "b", Direction: "out"},
			},
		},
		{
			Name: "CancelCurrent",
			Args: []introspect.Arg{
				{Name: "visible", Type: "b", Direction: "out"},
			},
		},
		{Name: "CancelAll"},
		{
			Name: "SetAccessibility",
			Args: []introspect.Arg{
				{Name: "enabled", Type: "b", Direction: "in"},
			},
		},
		{
			Name: "GetStatus",
			Args: []introspect.Arg{
				{Name: "status", Type: "a{sv}", Direction: "out"},
			},
		},
	}
}

// toasterSignals returns the D-Bus signal introspection data.
func toasterSignals() []introspect.Signal {
	return []introspect.Signal{
		{
			Name: "ToastClosed",
			Args: []introspect.Arg{
				{Name: "id", Type: "s"},
				{Name: "outcome", Type: "s"},
			},
		},
		{
			Name: "Announce",
			Args: []introspect.Arg{
				{Name: "text", Type: "s"},
			},
		},
	}
}
