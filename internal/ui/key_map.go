package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	enter   key.Binding
	back    key.Binding
	more    key.Binding
	refresh key.Binding
	like    key.Binding
	connect key.Binding
	cancel  key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		enter:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open/stream")),
		back:    key.NewBinding(key.WithKeys("esc", "backspace"), key.WithHelp("esc", "back")),
		more:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next page")),
		refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		like:    key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "like")),
		connect: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "connect")),
		cancel:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "hide")),
		quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.enter, k.back},
		{k.more, k.refresh, k.like},
		{k.connect, k.quit},
	}
}
