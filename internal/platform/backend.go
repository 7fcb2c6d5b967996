package platform

// WindowID is a platform-neutral window identifier.
type WindowID uint32

// Rect describes a rectangular region in screen coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Center returns the midpoint of r.
func (r Rect) Center() (int, int) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Contains reports whether the point lies inside r.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// Display describes a physical display and its usable work area.
type Display struct {
	ID     int
	Name   string
	Bounds Rect
	Usable Rect
}

// Window contains metadata and geometry for a top-level window.
type Window struct {
	ID         WindowID
	AppID      string
	Title      string
	Bounds     Rect
	Hidden     bool
	Fullscreen bool
}

// Backend abstracts window-system operations across platforms.
type Backend interface {
	Displays() ([]Display, error)
	// ClientWindows lists managed top-level windows on the current
	// desktop in stacking-independent client-list order.
	ClientWindows() ([]Window, error)
	// ActiveWindow returns the focused window, or 0 when none is.
	ActiveWindow() (WindowID, error)
	MoveResize(windowID WindowID, bounds Rect) error
	Show(windowID WindowID) error
	Hide(windowID WindowID) error
	// Focus activates and raises a window.
	Focus(windowID WindowID) error
	SetFullscreen(windowID WindowID, fullscreen bool) error
}

// DisplayIndexFor returns the index in displays of the display containing
// the centre of bounds, or 0 when none does.
func DisplayIndexFor(displays []Display, bounds Rect) int {
	x, y := bounds.Center()
	for i, d := range displays {
		if d.Bounds.Contains(x, y) {
			return i
		}
	}
	return 0
}
