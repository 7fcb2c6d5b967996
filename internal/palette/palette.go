// Package palette shows tiling actions in an external dmenu-style launcher
// (rofi, fuzzel, wofi or dmenu) and returns the one the user picked.
package palette

import (
	"fmt"
	"os/exec"
	"strings"
)

// Item is a single row in a palette.
type Item struct {
	Label    string // Display text
	Action   string // Action string returned on selection
	Icon     string // Icon name for backends that show icons
	Meta     string // Hidden search keywords
	IsHeader bool   // Non-selectable section header
	IsActive bool   // Highlighted as the current choice
}

// Capabilities describes what a backend can render.
type Capabilities struct {
	Icons         bool
	Markup        bool
	NonSelectable bool
	IndexOutput   bool // selection comes back as a row index
	RowStates     bool // active rows can be highlighted
}

// Backend shows a palette and returns the selected item.
type Backend interface {
	Show(prompt string, items []Item) (Item, error)
	Capabilities() Capabilities
}

var backendOrder = []string{"rofi", "fuzzel", "wofi", "dmenu"}

// DetectBackend returns the first launcher found in PATH.
func DetectBackend() (string, error) {
	for _, name := range backendOrder {
		if _, err := exec.LookPath(name); err == nil {
			return name, nil
		}
	}
	return "", fmt.Errorf("no palette backend found in PATH (looked for: %s)", strings.Join(backendOrder, ", "))
}

// NewBackend creates a backend by name. "auto" or "" picks the first one
// installed.
func NewBackend(name string) (Backend, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == "auto" {
		detected, err := DetectBackend()
		if err != nil {
			return nil, err
		}
		name = detected
	}

	var b *launcher
	switch name {
	case "rofi":
		b = newRofi()
	case "fuzzel":
		b = newFuzzel()
	case "wofi":
		b = newWofi()
	case "dmenu":
		b = newDmenu()
	default:
		return nil, fmt.Errorf("unknown palette backend: %q (expected: auto, %s)", name, strings.Join(backendOrder, ", "))
	}
	if _, err := exec.LookPath(b.command); err != nil {
		return nil, fmt.Errorf("palette backend %q not found in PATH", b.command)
	}
	return b, nil
}
