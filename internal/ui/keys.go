package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit key.Binding
	Help key.Binding

	// View changes
	WorkWeek key.Binding
	Day      key.Binding
	Cycle    key.Binding

	// Navigation
	Next   key.Binding
	Prev   key.Binding
	Today  key.Binding
	Goto   key.Binding
	Reload key.Binding

	// Prompt
	Confirm key.Binding
	Cancel  key.Binding
}

// newKeyMap applies configured bindings (action -> key) over the defaults.
// Arrow keys, tab and ctrl+c stay bound whatever the config says.
func newKeyMap(bindings map[string]string) keyMap {
	bind := func(action, def, desc string, extra ...string) key.Binding {
		primary := def
		if k, ok := bindings[action]; ok && k != "" {
			primary = k
		}
		keys := append([]string{primary}, extra...)
		return key.NewBinding(
			key.WithKeys(keys...),
			key.WithHelp(primary, desc),
		)
	}

	return keyMap{
		Quit: bind("quit", "q", "quit", "ctrl+c"),
		Help: bind("help", "?", "help"),

		WorkWeek: bind("work_week", "w", "work week"),
		Day:      bind("day", "d", "day"),
		Cycle:    bind("cycle", "v", "cycle view", "tab"),

		Next:   bind("next", "l", "next", "right"),
		Prev:   bind("prev", "h", "previous", "left"),
		Today:  bind("today", "t", "today"),
		Goto:   bind("goto_date", "g", "go to date"),
		Reload: bind("reload", "r", "reload"),

		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "confirm"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.WorkWeek, k.Day, k.Prev, k.Next, k.Today, k.Goto, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.WorkWeek, k.Day, k.Cycle},
		{k.Prev, k.Next, k.Today, k.Goto},
		{k.Reload, k.Help, k.Quit},
	}
}
