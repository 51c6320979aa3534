package dbus

import (
	"fmt"

	"github.com/godbus/dbus/v5"
)

// EmitToastClosed emits the ToastClosed signal once a toast has finished.
// outcome is "shown", "cancelled" or "failed".
func (s *ToastServer) EmitToastClosed(id, outcome string) error {
	conn := s.Connection()
	if conn == nil {
		return ErrNotRunning
	}

	if err := conn.Emit(ToasterPath, ToasterInterface+".ToastClosed", id, outcome); err != nil {
		return fmt.Errorf("failed to emit ToastClosed signal: %w", err)
	}

	s.logger.Debug("emitted ToastClosed signal", "toast_id", id, "outcome", outcome)
	return nil
}

// EmitAnnounce emits the Announce signal for screen readers listening on the bus.
func (s *ToastServer) EmitAnnounce(text string) error {
	conn := s.Connection()
	if conn == nil {
		return ErrNotRunning
	}

	if err := conn.Emit(ToasterPath, ToasterInterface+".Announce", text); err != nil {
		return fmt.Errorf("failed to emit Announce signal: %w", err)
	}
	return nil
}

// Connection returns the underlying D-Bus connection, or nil before Start.
func (s *ToastServer) Connection() *dbus.Conn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.running {
		return nil
	}
	return s.conn
}
