package dashboard

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"

	"github.com/rileyhilliard/statemon/internal/config"
)

// Fixed bindings that are not configurable.
const (
	KeyQuit       = "q"
	KeyQuitAlt    = "ctrl+c"
	KeyToggleHelp = "?"
)

// keyMap is the dashboard's bindings. It satisfies help.KeyMap.
type keyMap struct {
	Next  key.Binding
	Prev  key.Binding
	Reset key.Binding
	Help  key.Binding
	Quit  key.Binding
}

func newKeyMap(cfg config.KeysConfig) keyMap {
	return keyMap{
		Next: key.NewBinding(
			key.WithKeys(cfg.Next...),
			key.WithHelp(strings.Join(cfg.Next, "/"), "next node"),
		),
		Prev: key.NewBinding(
			key.WithKeys(cfg.Prev...),
			key.WithHelp(strings.Join(cfg.Prev, "/"), "prev node"),
		),
		Reset: key.NewBinding(
			key.WithKeys(cfg.Reset...),
			key.WithHelp(strings.Join(cfg.Reset, "/"), "reset estimator"),
		),
		Help: key.NewBinding(
			key.WithKeys(KeyToggleHelp),
			key.WithHelp(KeyToggleHelp, "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys(KeyQuit, KeyQuitAlt),
			key.WithHelp("q/ctrl+c", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Prev, k.Reset, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Prev},
		{k.Reset},
		{k.Help, k.Quit},
	}
}

// bound reports whether k is one of b's keys. Draw ticks see keys as plain
// strings read back from the surface, not as tea.KeyMsg values.
func bound(b key.Binding, k string) bool {
	if k == "" || !b.Enabled() {
		return false
	}
	for _, bk := range b.Keys() {
		if bk == k {
			return true
		}
	}
	return false
}
