package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the monitor's key bindings.
type keyMap struct {
	Pause  key.Binding
	Export key.Binding
	Quit   key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Pause, k.Export, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Pause, k.Export, k.Quit}}
}

func defaultKeyMap() keyMap {
	return keyMap{
		Pause: key.NewBinding(
			key.WithKeys("p", " "),
			key.WithHelp("p", "pause/resume"),
		),
		Export: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "export snapshot"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "stop run"),
		),
	}
}
