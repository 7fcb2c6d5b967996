package tiling

import (
	"fmt"
	"math"

	"github.com/1broseidon/tilewm/internal/platform"
)

// WindowID identifies a managed window. Zero is reserved and never tiled.
type WindowID = platform.WindowID

// Rect represents a window position and size
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// NewRect is a shorthand used heavily by layout code and tests.
func NewRect(x, y, width, height int) Rect {
	return Rect{X: x, Y: y, Width: width, Height: height}
}

func (r Rect) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Width, r.Height, r.X, r.Y)
}

// Area returns width*height.
func (r Rect) Area() int {
	return r.Width * r.Height
}

// Empty reports whether the rect has no usable area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// ContainsPoint reports whether (x, y) lies inside r. The right and bottom
// edges are exclusive.
func (r Rect) ContainsPoint(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// Intersects reports whether r and o share any area.
func (r Rect) Intersects(o Rect) bool {
	return r.X < o.X+o.Width && o.X < r.X+r.Width &&
		r.Y < o.Y+o.Height && o.Y < r.Y+r.Height
}

// SplitHorizontal divides r into a left and right part. The left part gets
// round(width*ratio) columns and the right part the remainder.
func (r Rect) SplitHorizontal(ratio float64) (Rect, Rect) {
	leftWidth := int(math.Round(float64(r.Width) * ratio))
	left := Rect{X: r.X, Y: r.Y, Width: leftWidth, Height: r.Height}
	right := Rect{X: r.X + leftWidth, Y: r.Y, Width: r.Width - leftWidth, Height: r.Height}
	return left, right
}

// SplitVertical divides r into a top and bottom part.
func (r Rect) SplitVertical(ratio float64) (Rect, Rect) {
	topHeight := int(math.Round(float64(r.Height) * ratio))
	top := Rect{X: r.X, Y: r.Y, Width: r.Width, Height: topHeight}
	bottom := Rect{X: r.X, Y: r.Y + topHeight, Width: r.Width, Height: r.Height - topHeight}
	return top, bottom
}

// Split divides r along dir.
func (r Rect) Split(dir Split, ratio float64) (Rect, Rect) {
	if dir == Horizontal {
		return r.SplitHorizontal(ratio)
	}
	return r.SplitVertical(ratio)
}

// ApplyGaps offsets the rect by the outer gap and subtracts one inner gap
// per axis, no matter how many neighbours share an edge.
func (r Rect) ApplyGaps(inner, outer int) Rect {
	return Rect{
		X:      r.X + outer,
		Y:      r.Y + outer,
		Width:  r.Width - 2*outer - inner,
		Height: r.Height - 2*outer - inner,
	}
}

// Shrink insets every edge by n.
func (r Rect) Shrink(n int) Rect {
	return Rect{X: r.X + n, Y: r.Y + n, Width: r.Width - 2*n, Height: r.Height - 2*n}
}

// Expand outsets every edge by n.
func (r Rect) Expand(n int) Rect {
	return r.Shrink(-n)
}

// Platform converts r into backend coordinates.
func (r Rect) Platform() platform.Rect {
	return platform.Rect{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
}

// RectFromPlatform converts a backend rect into engine coordinates.
func RectFromPlatform(r platform.Rect) Rect {
	return Rect{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
}

// Split is the axis along which a container divides its area.
type Split int

const (
	// Horizontal places children side by side (left | right).
	Horizontal Split = iota
	// Vertical stacks children (top / bottom).
	Vertical
)

// Opposite returns the other axis.
func (s Split) Opposite() Split {
	if s == Horizontal {
		return Vertical
	}
	return Horizontal
}

func (s Split) String() string {
	switch s {
	case Horizontal:
		return "horizontal"
	case Vertical:
		return "vertical"
	default:
		return fmt.Sprintf("split(%d)", int(s))
	}
}
