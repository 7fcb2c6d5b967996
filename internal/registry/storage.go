package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/1broseidon/tilewm/internal/platform"
)

// SavedWindow is the part of a ManagedWindow that survives a daemon restart.
type SavedWindow struct {
	State        State `json:"state"`
	Workspace    int   `json:"workspace"`
	UserFloating bool  `json:"user_floating,omitempty"`
}

type stateFile struct {
	ActiveWorkspace int                               `json:"active_workspace"`
	Windows         map[platform.WindowID]SavedWindow `json:"windows"`
}

// Snapshot is the persisted registry together with the active workspace.
type Snapshot struct {
	ActiveWorkspace int
	Windows         map[platform.WindowID]SavedWindow
}

// Save writes the state and workspace of every registered window to path.
func (r *Registry) Save(path string, activeWorkspace int) error {
	r.mu.RLock()
	state := stateFile{
		ActiveWorkspace: activeWorkspace,
		Windows:         make(map[platform.WindowID]SavedWindow, len(r.windows)),
	}
	for id, w := range r.windows {
		state.Windows[id] = SavedWindow{
			State:        w.State,
			Workspace:    w.Workspace,
			UserFloating: w.userFloating,
		}
	}
	r.mu.RUnlock()

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode window state: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	// Write-then-rename so a crash never leaves a truncated file behind.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0600); err != nil {
		return fmt.Errorf("failed to write window state: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace window state: %w", err)
	}
	return nil
}

// Load reads a snapshot written by Save. A missing file yields an empty
// snapshot on workspace 1.
func Load(path string) (Snapshot, error) {
	empty := Snapshot{ActiveWorkspace: 1, Windows: map[platform.WindowID]SavedWindow{}}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return empty, nil
		}
		return empty, fmt.Errorf("failed to read window state: %w", err)
	}

	var state stateFile
	if err := json.Unmarshal(data, &state); err != nil {
		return empty, fmt.Errorf("failed to parse window state: %w", err)
	}
	if state.Windows == nil {
		state.Windows = map[platform.WindowID]SavedWindow{}
	}
	if state.ActiveWorkspace < 1 {
		state.ActiveWorkspace = 1
	}
	return Snapshot{ActiveWorkspace: state.ActiveWorkspace, Windows: state.Windows}, nil
}

// Restore registers w using the state and workspace remembered in saved,
// falling back to w as given when the window is not in the snapshot.
func (r *Registry) Restore(w ManagedWindow, saved Snapshot) {
	if s, ok := saved.Windows[w.ID]; ok {
		w.State = s.State
		w.Workspace = s.Workspace
		w.userFloating = s.UserFloating
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.put(w)
}
