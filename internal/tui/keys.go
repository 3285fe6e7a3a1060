package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Open     key.Binding
	Close    key.Binding
	Expand   key.Binding
	Send     key.Binding
	Focus    key.Binding
	Prev     key.Binding
	Next     key.Binding
	ScrollUp key.Binding
	ScrollDn key.Binding
	Quit     key.Binding
	QuitIdle key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Open:     key.NewBinding(key.WithKeys("o", "enter"), key.WithHelp("o", "open chat")),
		Close:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),
		Expand:   key.NewBinding(key.WithKeys("ctrl+e"), key.WithHelp("ctrl+e", "expand")),
		Send:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send")),
		Focus:    key.NewBinding(key.WithKeys("tab", "shift+tab"), key.WithHelp("tab", "suggestions")),
		Prev:     key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←", "prev")),
		Next:     key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→", "next")),
		ScrollUp: key.NewBinding(key.WithKeys("pgup", "up"), key.WithHelp("pgup", "scroll up")),
		ScrollDn: key.NewBinding(key.WithKeys("pgdown", "down"), key.WithHelp("pgdn", "scroll down")),
		Quit:     key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
		QuitIdle: key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
	}
}
