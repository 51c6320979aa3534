// Package gtkhost presents toasts as GTK4 windows on Wayland layer-shell.
// Each toast gets its own overlay window, anchored and offset from the
// edges of the configured monitor, with per-toast CSS from the theme loader.
package gtkhost
