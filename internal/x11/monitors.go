package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
)

// Monitor represents a physical display
type Monitor struct {
	ID     int
	Name   string
	X      int
	Y      int
	Width  int
	Height int
}

// GetMonitors retrieves all active monitors using XRandR
func (c *Connection) GetMonitors() ([]Monitor, error) {
	if err := randr.Init(c.XUtil.Conn()); err != nil {
		return nil, fmt.Errorf("randr init failed: %w", err)
	}

	resources, err := randr.GetScreenResources(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	var monitors []Monitor
	for i, crtc := range resources.Crtcs {
		info, err := randr.GetCrtcInfo(c.XUtil.Conn(), crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}
		// Disabled CRTC.
		if info.Width == 0 || info.Height == 0 || len(info.Outputs) == 0 {
			continue
		}

		name := fmt.Sprintf("Monitor%d", i)
		if out, err := randr.GetOutputInfo(c.XUtil.Conn(), info.Outputs[0], resources.ConfigTimestamp).Reply(); err == nil {
			name = string(out.Name)
		}

		monitors = append(monitors, Monitor{
			ID:     i,
			Name:   name,
			X:      int(info.X),
			Y:      int(info.Y),
			Width:  int(info.Width),
			Height: int(info.Height),
		})
	}

	return monitors, nil
}

// box is a half-open screen rectangle [x1,x2) x [y1,y2).
type box struct {
	x1, y1, x2, y2 int
}

func (b box) intersect(o box) box {
	return box{
		x1: max(b.x1, o.x1),
		y1: max(b.y1, o.y1),
		x2: min(b.x2, o.x2),
		y2: min(b.y2, o.y2),
	}
}

func (b box) empty() bool {
	return b.x2 <= b.x1 || b.y2 <= b.y1
}

type edge int

const (
	edgeLeft edge = iota
	edgeRight
	edgeTop
	edgeBottom
)

// reservation is screen space a dock claims along one edge of the root.
type reservation struct {
	edge edge
	area box
}

// WorkAreas returns a copy of monitors with each one reduced to the area not
// reserved by docks and panels.
func (c *Connection) WorkAreas(monitors []Monitor) []Monitor {
	out := make([]Monitor, len(monitors))
	copy(out, monitors)

	reserved, ok := c.dockReservations()
	for i := range out {
		if ok && applyReservations(&out[i], reserved) {
			continue
		}
		c.clipToDesktopWorkArea(&out[i])
	}
	return out
}

// dockReservations reads the struts of every dock window.
func (c *Connection) dockReservations() ([]reservation, bool) {
	rootGeom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(c.Root)).Reply()
	if err != nil {
		return nil, false
	}
	rootW, rootH := int(rootGeom.Width), int(rootGeom.Height)

	clients, err := ewmh.ClientListGet(c.XUtil)
	if err != nil {
		return nil, false
	}

	var out []reservation
	for _, win := range clients {
		if !c.isDock(win) {
			continue
		}
		sp, err := ewmh.WmStrutPartialGet(c.XUtil, win)
		if err != nil {
			// Docks that only set _NET_WM_STRUT span the whole edge.
			s, err := ewmh.WmStrutGet(c.XUtil, win)
			if err != nil {
				continue
			}
			sp = &ewmh.WmStrutPartial{
				Left: s.Left, Right: s.Right, Top: s.Top, Bottom: s.Bottom,
				LeftEndY: uint(rootH - 1), RightEndY: uint(rootH - 1),
				TopEndX: uint(rootW - 1), BottomEndX: uint(rootW - 1),
			}
		}
		out = append(out, strutReservations(sp, rootW, rootH)...)
	}
	return out, true
}

func (c *Connection) isDock(win xproto.Window) bool {
	types, err := ewmh.WmWindowTypeGet(c.XUtil, win)
	if err != nil {
		return false
	}
	for _, t := range types {
		if t == "_NET_WM_WINDOW_TYPE_DOCK" {
			return true
		}
	}
	return false
}

func strutReservations(sp *ewmh.WmStrutPartial, rootW, rootH int) []reservation {
	var out []reservation
	if sp.Left > 0 {
		out = append(out, reservation{edgeLeft, box{0, int(sp.LeftStartY), int(sp.Left), int(sp.LeftEndY) + 1}})
	}
	if sp.Right > 0 {
		out = append(out, reservation{edgeRight, box{rootW - int(sp.Right), int(sp.RightStartY), rootW, int(sp.RightEndY) + 1}})
	}
	if sp.Top > 0 {
		out = append(out, reservation{edgeTop, box{int(sp.TopStartX), 0, int(sp.TopEndX) + 1, int(sp.Top)}})
	}
	if sp.Bottom > 0 {
		out = append(out, reservation{edgeBottom, box{int(sp.BottomStartX), rootH - int(sp.Bottom), int(sp.BottomEndX) + 1, rootH}})
	}
	return out
}

// applyReservations shrinks m by the reservations overlapping it and
// reports whether any did.
func applyReservations(m *Monitor, reserved []reservation) bool {
	mon := box{m.X, m.Y, m.X + m.Width, m.Y + m.Height}
	var left, right, top, bottom int
	for _, r := range reserved {
		isect := mon.intersect(r.area)
		if isect.empty() {
			continue
		}
		switch r.edge {
		case edgeLeft:
			left = max(left, isect.x2-isect.x1)
		case edgeRight:
			right = max(right, isect.x2-isect.x1)
		case edgeTop:
			top = max(top, isect.y2-isect.y1)
		case edgeBottom:
			bottom = max(bottom, isect.y2-isect.y1)
		}
	}
	if left == 0 && right == 0 && top == 0 && bottom == 0 {
		return false
	}

	m.X += left
	m.Y += top
	m.Width = max(m.Width-left-right, 1)
	m.Height = max(m.Height-top-bottom, 1)
	return true
}

func (c *Connection) clipToDesktopWorkArea(m *Monitor) {
	areas, err := ewmh.WorkareaGet(c.XUtil)
	if err != nil || len(areas) == 0 {
		return
	}
	index := 0
	if current, err := c.CurrentDesktop(); err == nil && current < len(areas) {
		index = current
	}
	wa := areas[index]

	mon := box{m.X, m.Y, m.X + m.Width, m.Y + m.Height}
	isect := mon.intersect(box{int(wa.X), int(wa.Y), int(wa.X) + int(wa.Width), int(wa.Y) + int(wa.Height)})
	if isect.empty() {
		return
	}
	m.X, m.Y = isect.x1, isect.y1
	m.Width, m.Height = isect.x2-isect.x1, isect.y2-isect.y1
}
