// SPDX-License-Identifier: Apache-2.0
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// KeyBinding represents a single key action
type KeyBinding struct {
	Key         string   // Display name: "ESC", "CTRL+C"
	Keys        []string // Key strings to match, as reported by tea.KeyMsg
	Description string
}

// KeyBindingSet is a collection of related key bindings
type KeyBindingSet struct {
	Bindings []KeyBinding
}

// Contains returns the binding matching key, or nil
func (kbs KeyBindingSet) Contains(key string) *KeyBinding {
	for i := range kbs.Bindings {
		for _, k := range kbs.Bindings[i].Keys {
			if k == key {
				return &kbs.Bindings[i]
			}
		}
	}
	return nil
}

// Render formats the set as "[KEY] Action  •  [KEY] Action"
func (kbs KeyBindingSet) Render(style lipgloss.Style) string {
	if len(kbs.Bindings) == 0 {
		return ""
	}

	parts := make([]string, len(kbs.Bindings))
	for i, binding := range kbs.Bindings {
		parts[i] = fmt.Sprintf("[%s] %s", binding.Key, binding.Description)
	}
	return style.Render(strings.Join(parts, "  •  "))
}

// RenderInline formats the set as "Key: action | Key: action"
func (kbs KeyBindingSet) RenderInline(style lipgloss.Style) string {
	if len(kbs.Bindings) == 0 {
		return ""
	}

	parts := make([]string, len(kbs.Bindings))
	caser := cases.Title(language.Und, cases.NoLower)
	for i, binding := range kbs.Bindings {
		parts[i] = fmt.Sprintf("%s: %s", caser.String(binding.Keys[0]), strings.ToLower(binding.Description))
	}
	return style.Render(strings.Join(parts, " | "))
}

// CancelKeyBindings are the keys that abort a running gpg operation
func CancelKeyBindings() KeyBindingSet {
	return KeyBindingSet{
		Bindings: []KeyBinding{
			{Key: "CTRL+C", Keys: []string{"ctrl+c"}, Description: "Cancel"},
			{Key: "ESC", Keys: []string{"esc"}, Description: "Cancel"},
		},
	}
}
