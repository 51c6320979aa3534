// Package tuihost runs the toast engine inside a terminal. It implements the
// engine's host interface on top of bubbletea and draws toast boxes with
// lipgloss, with a keyboard band standing in for an on-screen keyboard.
package tuihost
