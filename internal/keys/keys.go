package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the global keybindings for the application.
type KeyMap struct {
	// Navigation
	Down    key.Binding
	Up      key.Binding
	NextTab key.Binding
	PrevTab key.Binding

	// Item actions
	Advance key.Binding
	Open    key.Binding
	Edit    key.Binding
	Delete  key.Binding
	Remind  key.Binding
	Noted   key.Binding

	// List
	New      key.Binding
	Refresh  key.Binding
	NextView key.Binding

	// Back / Quit
	Back key.Binding
	Quit key.Binding

	// Account
	Password key.Binding
	Summary  key.Binding
	SignOut  key.Binding

	Command key.Binding
	Help    key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		NextTab: key.NewBinding(
			key.WithKeys("tab", "l", "right"),
			key.WithHelp("tab", "next tab"),
		),
		PrevTab: key.NewBinding(
			key.WithKeys("shift+tab", "h", "left"),
			key.WithHelp("shift+tab", "previous tab"),
		),
		Advance: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "advance status"),
		),
		Open: key.NewBinding(
			key.WithKeys("o", " "),
			key.WithHelp("o", "open"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		Remind: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "send reminder"),
		),
		Noted: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "noted"),
		),
		New: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		NextView: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "cycle view"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		Password: key.NewBinding(
			key.WithKeys("P"),
			key.WithHelp("P", "change password"),
		),
		Summary: key.NewBinding(
			key.WithKeys("S"),
			key.WithHelp("S", "summary time"),
		),
		SignOut: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "sign out"),
		),
		Command: key.NewBinding(
			key.WithKeys(":"),
			key.WithHelp(":", "command palette"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
	}
}

// ShortHelp returns the most essential keybindings for the compact help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.NextTab, k.Up, k.Down, k.Advance,
		k.New, k.Refresh, k.Quit, k.Help,
	}
}

// FullHelp returns all keybindings grouped by category for the expanded
// help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.NextTab, k.PrevTab, k.Back, k.Quit},
		{k.Advance, k.Open, k.Edit, k.Delete, k.Remind, k.Noted},
		{k.New, k.Refresh, k.NextView, k.Command, k.Help},
		{k.Password, k.Summary, k.SignOut},
	}
}
