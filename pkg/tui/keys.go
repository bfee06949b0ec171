package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all key bindings for the TUI.
type KeyMap struct {
	Up            key.Binding
	Down          key.Binding
	Left          key.Binding
	Right         key.Binding
	Enter         key.Binding
	Tab           key.Binding
	ToggleExpand  key.Binding
	FilterTodo    key.Binding
	FilterDoing   key.Binding
	FilterDone    key.Binding
	FilterDelayed key.Binding
	DateRange     key.Binding
	DateMode      key.Binding
	Search        key.Binding
	ClearFilters  key.Binding
	Rollup        key.Binding
	Reload        key.Binding
	Help          key.Binding
	Quit          key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Left: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "collapse"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "expand"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "toggle expand"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "switch pane"),
		),
		ToggleExpand: key.NewBinding(
			key.WithKeys("C"),
			key.WithHelp("C", "toggle expand/collapse all"),
		),
		FilterTodo: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "filter todo"),
		),
		FilterDoing: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "filter in progress"),
		),
		FilterDone: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "filter done"),
		),
		FilterDelayed: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "delayed only"),
		),
		DateRange: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "date range"),
		),
		DateMode: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "date mode"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		ClearFilters: key.NewBinding(
			key.WithKeys("0"),
			key.WithHelp("0", "clear filters"),
		),
		Rollup: key.NewBinding(
			key.WithKeys("$"),
			key.WithHelp("$", "roll up costs"),
		),
		Reload: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "refetch"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp returns the footer help text.
func (k KeyMap) ShortHelp() string {
	return "↑↓ nav  enter expand  1/2/3 status  x delayed  f dates  / search  0 clear  R refetch  ? help"
}

// FullHelp returns all key bindings for the help modal.
func (k KeyMap) FullHelp() [][]string {
	return [][]string{
		{"↑/k", "Move up"},
		{"↓/j", "Move down"},
		{"←/h", "Collapse / go to parent"},
		{"→/l", "Expand"},
		{"enter", "Toggle expand/collapse"},
		{"C", "Toggle expand/collapse all"},
		{"tab", "Switch pane (tree / details)"},
		{"1/2/3", "Filter: todo / in progress / done"},
		{"x", "Filter: delayed only"},
		{"f", "Filter: planned date range"},
		{"m", "Date range: overlap / within"},
		{"/", "Search task names"},
		{"0", "Clear all filters"},
		{"$", "Toggle cost roll-up"},
		{"R", "Refetch tasks"},
		{"?", "Toggle help"},
		{"q", "Quit"},
	}
}
