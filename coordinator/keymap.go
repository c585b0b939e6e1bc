package coordinator

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the suggestion key bindings. Keys use bubbletea names.
type KeyMap struct {
	Accept  key.Binding
	Dismiss key.Binding
}

func DefaultKeyMap() KeyMap {
	return NewKeyMap([]string{"tab"}, []string{"esc"})
}

// NewKeyMap builds a key map from key names, e.g. from configuration.
func NewKeyMap(accept, dismiss []string) KeyMap {
	return KeyMap{
		Accept:  key.NewBinding(key.WithKeys(accept...), key.WithHelp(helpKey(accept), "accept suggestion")),
		Dismiss: key.NewBinding(key.WithKeys(dismiss...), key.WithHelp(helpKey(dismiss), "dismiss suggestion")),
	}
}

func helpKey(keys []string) string {
	if len(keys) == 0 {
		return ""
	}
	return keys[0]
}
