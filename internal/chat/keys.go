// ============================================================================
// aichat - Voice Chat Client
// ============================================================================
//
// Package:     chat
// Description: Key bindings
// Author:      aichat contributors
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package chat

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Listen   key.Binding
	Accept   key.Binding
	Speak    key.Binding
	Cancel   key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Quit     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Listen: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("F1", "listen"),
		),
		Accept: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "accept"),
		),
		Speak: key.NewBinding(
			key.WithKeys("f2"),
			key.WithHelp("F2", "speak"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "cancel"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("PgUp", "scroll up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("PgDn", "scroll down"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("Ctrl+C", "quit"),
		),
	}
}

// hints lists the bindings shown in the help bar, disabled ones included
func (k keyMap) hints() []key.Binding {
	return []key.Binding{k.Listen, k.Accept, k.Speak, k.Cancel, k.PageUp, k.PageDown, k.Quit}
}
