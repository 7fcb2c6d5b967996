package tiling

import (
	"fmt"
	"strings"
)

// Direction is a screen direction for spatial focus.
type Direction int

const (
	DirLeft Direction = iota
	DirRight
	DirUp
	DirDown
)

func (d Direction) String() string {
	switch d {
	case DirLeft:
		return "left"
	case DirRight:
		return "right"
	case DirUp:
		return "up"
	case DirDown:
		return "down"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// ParseDirection parses left, right, up or down.
func ParseDirection(name string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "left":
		return DirLeft, nil
	case "right":
		return DirRight, nil
	case "up":
		return DirUp, nil
	case "down":
		return DirDown, nil
	}
	return 0, fmt.Errorf("unknown direction %q (expected: left, right, up, down)", name)
}

// Neighbor returns the window whose centre lies in dir from the centre of
// from and is closest to it. Nothing wraps around the screen edge.
func Neighbor(placements []Placement, from WindowID, dir Direction) (WindowID, bool) {
	var current Rect
	found := false
	for _, p := range placements {
		if p.ID == from {
			current, found = p.Rect, true
			break
		}
	}
	if !found {
		return 0, false
	}
	cx, cy := center(current)

	var best WindowID
	bestDist := -1
	for _, p := range placements {
		if p.ID == from {
			continue
		}
		px, py := center(p.Rect)

		var inDirection bool
		switch dir {
		case DirLeft:
			inDirection = px < cx
		case DirRight:
			inDirection = px > cx
		case DirUp:
			inDirection = py < cy
		case DirDown:
			inDirection = py > cy
		}
		if !inDirection {
			continue
		}

		// Manhattan distance between centres.
		dist := abs(px-cx) + abs(py-cy)
		if bestDist == -1 || dist < bestDist {
			best, bestDist = p.ID, dist
		}
	}
	return best, bestDist != -1
}

// Cycle returns the window delta steps after from in order, wrapping at
// both ends. When from is not in order, stepping forward starts at the
// first window and stepping back at the last.
func Cycle(order []WindowID, from WindowID, delta int) (WindowID, bool) {
	n := len(order)
	if n == 0 || delta == 0 {
		return 0, false
	}
	idx := -1
	for i, id := range order {
		if id == from {
			idx = i
			break
		}
	}
	if idx == -1 {
		if delta > 0 {
			return order[0], true
		}
		return order[n-1], true
	}
	next := ((idx+delta)%n + n) % n
	if next == idx {
		return 0, false
	}
	return order[next], true
}

func center(r Rect) (int, int) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
