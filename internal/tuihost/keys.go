package tuihost

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines the key bindings for the demo.
type KeyMap struct {
	// Toasts
	Plain   key.Binding
	Success key.Binding
	Error   key.Binding
	Warning key.Binding
	Styled  key.Binding
	Burst   key.Binding

	// Control
	Position      key.Binding
	CancelCurrent key.Binding
	CancelAll     key.Binding
	Keyboard      key.Binding
	Accessibility key.Binding

	// Global
	Quit key.Binding
	Help key.Binding
}

// ShortHelp returns a short help message.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Plain, k.Position, k.Keyboard, k.Help, k.Quit}
}

// FullHelp returns a full help message.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Plain, k.Success, k.Error, k.Warning},
		{k.Styled, k.Burst, k.Position},
		{k.CancelCurrent, k.CancelAll, k.Keyboard, k.Accessibility},
		{k.Help, k.Quit},
	}
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Plain: key.NewBinding(
			key.WithKeys("t", "enter"),
			key.WithHelp("t", "toast"),
		),
		Success: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "success"),
		),
		Error: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "error"),
		),
		Warning: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "warning"),
		),
		Styled: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "markup"),
		),
		Burst: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "queue three"),
		),
		Position: key.NewBinding(
			key.WithKeys("p", "tab"),
			key.WithHelp("p", "next position"),
		),
		CancelCurrent: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "cancel current"),
		),
		CancelAll: key.NewBinding(
			key.WithKeys("X", "esc"),
			key.WithHelp("X", "cancel all"),
		),
		Keyboard: key.NewBinding(
			key.WithKeys("k"),
			key.WithHelp("k", "toggle keyboard"),
		),
		Accessibility: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "announcements"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
	}
}
