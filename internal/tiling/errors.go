package tiling

import (
	"errors"
	"fmt"
)

var (
	// ErrGeometry reports an operation that would break a geometric
	// invariant, such as splitting a rect too small to hold two windows.
	ErrGeometry = errors.New("geometry invariant violation")

	// ErrReservedWindowID is returned when window 0 is inserted.
	ErrReservedWindowID = errors.New("window id 0 is reserved")

	// ErrDuplicateWindow is returned when a window is inserted into a tree
	// that already holds it.
	ErrDuplicateWindow = errors.New("window already tiled")
)

// PositionError wraps a failure of the positioning backend for one window.
type PositionError struct {
	Window WindowID
	Rect   Rect
	Err    error
}

func (e *PositionError) Error() string {
	return fmt.Sprintf("position window %d at %s: %v", e.Window, e.Rect, e.Err)
}

func (e *PositionError) Unwrap() error {
	return e.Err
}

// MonitorNotFoundError is returned when a monitor index has no work area,
// usually because the display was unplugged between events.
type MonitorNotFoundError struct {
	Index int
}

func (e *MonitorNotFoundError) Error() string {
	return fmt.Sprintf("monitor %d not found", e.Index)
}
