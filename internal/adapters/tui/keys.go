package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up         key.Binding
	Down       key.Binding
	Select     key.Binding
	Filter     key.Binding
	OpenTimer  key.Binding
	Toggle     key.Binding
	Back       key.Binding
	Presets    key.Binding
	AddMinute  key.Binding
	Reset      key.Binding
	Main       key.Binding
	Supplement key.Binding
	Theme      key.Binding
	Background key.Binding
	Quit       key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Select:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "play")),
		Filter:     key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
		OpenTimer:  key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "timer")),
		Toggle:     key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "play/pause")),
		Back:       key.NewBinding(key.WithKeys("esc", "h"), key.WithHelp("esc", "home")),
		Presets:    key.NewBinding(key.WithKeys("1", "2", "3", "4"), key.WithHelp("1-4", "presets")),
		AddMinute:  key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "1 min")),
		Reset:      key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset")),
		Main:       key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "main")),
		Supplement: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "supplement")),
		Theme:      key.NewBinding(key.WithKeys("T"), key.WithHelp("T", "theme")),
		Background: key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "mood")),
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// homeHelp is shown under the track list.
func (k keyMap) homeHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Select, k.Filter, k.OpenTimer, k.Theme, k.Quit}
}

func (k keyMap) playerHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Back, k.Background, k.Theme, k.Quit}
}

func (k keyMap) timerHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Presets, k.AddMinute, k.Reset, k.Main, k.Supplement, k.Back, k.Quit}
}
