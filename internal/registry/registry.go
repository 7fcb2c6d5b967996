// Package registry tracks every window the daemon manages together with
// its tiling state and workspace.
package registry

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/1broseidon/tilewm/internal/platform"
)

// ErrUnknownWindow is returned when an operation names a window that is not
// registered.
var ErrUnknownWindow = errors.New("window not registered")

// State is how a managed window participates in layout.
type State int

const (
	Tiled State = iota
	Floating
	Fullscreen
	Minimized
)

func (s State) String() string {
	switch s {
	case Tiled:
		return "tiled"
	case Floating:
		return "floating"
	case Fullscreen:
		return "fullscreen"
	case Minimized:
		return "minimized"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ParseState parses the lowercase name produced by String.
func ParseState(s string) (State, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tiled":
		return Tiled, nil
	case "floating":
		return Floating, nil
	case "fullscreen":
		return Fullscreen, nil
	case "minimized":
		return Minimized, nil
	default:
		return 0, fmt.Errorf("unknown window state %q", s)
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	parsed, err := ParseState(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ManagedWindow is a registered window.
type ManagedWindow struct {
	ID        platform.WindowID `json:"id"`
	State     State             `json:"state"`
	Workspace int               `json:"workspace"`
	Monitor   int               `json:"monitor"`
	Title     string            `json:"title,omitempty"`
	Class     string            `json:"class,omitempty"`

	// userFloating remembers an explicit float so leaving fullscreen or
	// minimized returns the window to floating rather than tiled.
	userFloating bool
}

// Registry is a concurrency-safe set of managed windows kept in
// registration order.
type Registry struct {
	mu      sync.RWMutex
	windows map[platform.WindowID]*ManagedWindow
	order   []platform.WindowID
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{windows: make(map[platform.WindowID]*ManagedWindow)}
}

// Register adds w. Registering an existing id replaces its entry but keeps
// its position in the registration order.
func (r *Registry) Register(w ManagedWindow) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.put(w)
}

// put stores w; callers hold mu.
func (r *Registry) put(w ManagedWindow) {
	if w.State == Floating {
		w.userFloating = true
	}
	if _, ok := r.windows[w.ID]; !ok {
		r.order = append(r.order, w.ID)
	}
	r.windows[w.ID] = &w
}

// Unregister removes a window and returns what was stored for it.
func (r *Registry) Unregister(id platform.WindowID) (ManagedWindow, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.windows[id]
	if !ok {
		return ManagedWindow{}, false
	}
	delete(r.windows, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return *w, true
}

// Get returns a copy of the entry for id.
func (r *Registry) Get(id platform.WindowID) (ManagedWindow, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	w, ok := r.windows[id]
	if !ok {
		return ManagedWindow{}, false
	}
	return *w, true
}

// Contains reports whether id is registered.
func (r *Registry) Contains(id platform.WindowID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.windows[id]
	return ok
}

// SetState moves a window into state. Leaving Fullscreen or Minimized for
// Tiled restores a user-chosen float instead.
func (r *Registry) SetState(id platform.WindowID, state State) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.windows[id]
	if !ok {
		return fmt.Errorf("set state of window %d: %w", id, ErrUnknownWindow)
	}

	switch state {
	case Floating:
		w.userFloating = true
	case Tiled:
		if (w.State == Fullscreen || w.State == Minimized) && w.userFloating {
			state = Floating
		} else {
			w.userFloating = false
		}
	}
	w.State = state
	return nil
}

// ToggleFloating flips a window between Tiled and Floating and returns the
// new state. Fullscreen and minimized windows are left alone.
func (r *Registry) ToggleFloating(id platform.WindowID) (State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.windows[id]
	if !ok {
		return 0, fmt.Errorf("toggle floating of window %d: %w", id, ErrUnknownWindow)
	}

	switch w.State {
	case Tiled:
		w.State = Floating
		w.userFloating = true
	case Floating:
		w.State = Tiled
		w.userFloating = false
	}
	return w.State, nil
}

// MoveToWorkspace reassigns a window to workspace.
func (r *Registry) MoveToWorkspace(id platform.WindowID, workspace int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.windows[id]
	if !ok {
		return fmt.Errorf("move window %d: %w", id, ErrUnknownWindow)
	}
	w.Workspace = workspace
	return nil
}

// Refresh updates the cached monitor and metadata of a window.
func (r *Registry) Refresh(id platform.WindowID, monitor int, title, class string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.windows[id]
	if !ok {
		return false
	}
	w.Monitor = monitor
	w.Title = title
	w.Class = class
	return true
}

// TiledInWorkspace returns the ids of tiled windows on workspace in
// registration order.
func (r *Registry) TiledInWorkspace(workspace int) []platform.WindowID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ids []platform.WindowID
	for _, id := range r.order {
		w := r.windows[id]
		if w.Workspace == workspace && w.State == Tiled {
			ids = append(ids, id)
		}
	}
	return ids
}

// InWorkspace returns every window on workspace regardless of state.
func (r *Registry) InWorkspace(workspace int) []ManagedWindow {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []ManagedWindow
	for _, id := range r.order {
		if w := r.windows[id]; w.Workspace == workspace {
			out = append(out, *w)
		}
	}
	return out
}

// All returns every registered window.
func (r *Registry) All() []ManagedWindow {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ManagedWindow, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.windows[id])
	}
	return out
}

// Len returns the number of registered windows.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.windows)
}
