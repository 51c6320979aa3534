// Package surface renders a single toast onto the active display and drives
// its fade-in, hold and fade-out sequence.
//
// Windowing, drawing and animation belong to the host environment and are
// reached through the Host, Display and View interfaces. All View methods are
// invoked on the host's UI context, entered through Host.Dispatch. The GTK
// daemon and the terminal demo each provide a Host.
package surface
