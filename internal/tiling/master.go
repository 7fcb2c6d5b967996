package tiling

import "errors"

// MasterLayout splits an area into a master column on the left and a stack
// column on the right. It keeps no state between calls: the first
// MasterCount windows of the list passed in are the masters.
type MasterLayout struct {
	MasterFactor float64
	MasterCount  int
	GapsIn       int
	GapsOut      int
}

// NewMasterLayout returns a master layout with default settings.
func NewMasterLayout() *MasterLayout {
	return &MasterLayout{
		MasterFactor: 0.55,
		MasterCount:  1,
		GapsIn:       5,
		GapsOut:      10,
	}
}

// WithMasterFactor sets the master width share, clamped to [0.1, 0.9].
func (m *MasterLayout) WithMasterFactor(factor float64) *MasterLayout {
	m.MasterFactor = clampFactor(factor)
	return m
}

// WithMasterCount sets the number of master windows, floored at 1.
func (m *MasterLayout) WithMasterCount(count int) *MasterLayout {
	m.MasterCount = max(count, 1)
	return m
}

// IncreaseMasterCount adds one master slot.
func (m *MasterLayout) IncreaseMasterCount() {
	m.MasterCount++
}

// DecreaseMasterCount removes one master slot, keeping at least one.
func (m *MasterLayout) DecreaseMasterCount() {
	m.MasterCount = max(m.MasterCount-1, 1)
}

// AdjustMasterFactor shifts the master width share by delta.
func (m *MasterLayout) AdjustMasterFactor(delta float64) {
	m.MasterFactor = clampFactor(m.MasterFactor + delta)
}

// Arrange computes the rect of every window without touching the windows.
func (m *MasterLayout) Arrange(windows []WindowID, area Rect) []Placement {
	switch len(windows) {
	case 0:
		return nil
	case 1:
		return []Placement{{ID: windows[0], Rect: clampSize(area.Shrink(m.GapsOut))}}
	}

	masterCount := min(max(m.MasterCount, 1), len(windows))
	if masterCount == len(windows) {
		return m.tileColumn(nil, windows, area)
	}

	masterArea, stackArea := area.SplitHorizontal(m.MasterFactor)
	masterArea.Width = max(masterArea.Width, 1)
	stackArea.Width = max(stackArea.Width, 1)

	out := make([]Placement, 0, len(windows))
	out = m.tileColumn(out, windows[:masterCount], masterArea)
	return m.tileColumn(out, windows[masterCount:], stackArea)
}

// Apply positions windows inside area. Positioning failures are collected
// and the remaining windows are still placed.
func (m *MasterLayout) Apply(windows []WindowID, area Rect, pos Positioner) error {
	return place(m.Arrange(windows, area), pos)
}

func place(placements []Placement, pos Positioner) error {
	var errs []error
	for _, p := range placements {
		if err := pos.Position(p.ID, p.Rect); err != nil {
			errs = append(errs, &PositionError{Window: p.ID, Rect: p.Rect, Err: err})
		}
	}
	return errors.Join(errs...)
}

// tileColumn stacks windows top to bottom in equal slices; the last slice
// absorbs the rounding remainder. Slices lose half an inner gap rather
// than the full gap dwindle subtracts.
func (m *MasterLayout) tileColumn(out []Placement, windows []WindowID, region Rect) []Placement {
	n := len(windows)
	if n == 0 {
		return out
	}
	sliceHeight := region.Height / n
	trim := 2*m.GapsOut + m.GapsIn/2
	for i, id := range windows {
		height := sliceHeight
		if i == n-1 {
			height = region.Height - sliceHeight*(n-1)
		}
		r := Rect{
			X:      region.X + m.GapsOut,
			Y:      region.Y + i*sliceHeight + m.GapsOut,
			Width:  region.Width - trim,
			Height: height - trim,
		}
		out = append(out, Placement{ID: id, Rect: clampSize(r)})
	}
	return out
}
