package daemon

import (
	"slices"

	"github.com/1broseidon/tilewm/internal/platform"
	"github.com/1broseidon/tilewm/internal/registry"
	"github.com/1broseidon/tilewm/internal/tiling"
)

// screen adapts the backend to the coordinator's Monitors and WindowOps.
// Monitor assignments come from the registry, which Sync keeps current
// using the window-centre rule.
type screen struct {
	backend  platform.Backend
	registry *registry.Registry
	displays []platform.Display
}

// setDisplays caches displays and reports whether any work area changed.
func (s *screen) setDisplays(displays []platform.Display) bool {
	changed := !slices.EqualFunc(s.displays, displays, func(a, b platform.Display) bool {
		return a.Usable == b.Usable
	})
	s.displays = displays
	return changed
}

func (s *screen) displayName(index int) string {
	if index < 0 || index >= len(s.displays) {
		return ""
	}
	return s.displays[index].Name
}

func (s *screen) MonitorForWindow(id tiling.WindowID) int {
	w, ok := s.registry.Get(id)
	if !ok || w.Monitor < 0 || w.Monitor >= len(s.displays) {
		return 0
	}
	return w.Monitor
}

func (s *screen) WorkAreas() []tiling.Rect {
	areas := make([]tiling.Rect, len(s.displays))
	for i, d := range s.displays {
		areas[i] = tiling.RectFromPlatform(d.Usable)
	}
	return areas
}

func (s *screen) Position(id tiling.WindowID, rect tiling.Rect) error {
	return s.backend.MoveResize(id, rect.Platform())
}

func (s *screen) Show(id tiling.WindowID) error { return s.backend.Show(id) }

func (s *screen) Hide(id tiling.WindowID) error { return s.backend.Hide(id) }
