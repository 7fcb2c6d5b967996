package tiling

// DwindleLayout tiles windows by repeatedly halving the most recent
// window's area.
type DwindleLayout struct {
	Ratio          float64
	SmartSplit     bool
	NoGapsWhenOnly bool
	GapsIn         int
	GapsOut        int
}

// NewDwindleLayout returns a dwindle layout with default settings.
func NewDwindleLayout() *DwindleLayout {
	return &DwindleLayout{
		Ratio:      0.5,
		SmartSplit: true,
		GapsIn:     5,
		GapsOut:    10,
	}
}

// WithRatio sets the split ratio, clamped to [0.1, 0.9].
func (d *DwindleLayout) WithRatio(ratio float64) *DwindleLayout {
	d.Ratio = clampFactor(ratio)
	return d
}

// SplitDirection picks the axis for splitting r: wide rects split side by
// side, tall or square ones top to bottom. Without smart split every split
// is vertical.
func (d *DwindleLayout) SplitDirection(r Rect) Split {
	if d.SmartSplit && r.Width > r.Height {
		return Horizontal
	}
	return Vertical
}

// SplitRatio returns the ratio for a split at the given tree depth, biased
// toward the golden ratio past depth 2. Insertion does not consult it yet;
// every split is made at 0.5.
func (d *DwindleLayout) SplitRatio(depth int) float64 {
	if depth > 2 {
		return 0.618
	}
	return d.Ratio
}

// InsertWindow adds id to t. An empty tree becomes a single leaf over its
// area; otherwise the rightmost leaf is split along the axis chosen for
// that leaf's own rect.
func (d *DwindleLayout) InsertWindow(t *Tree, id WindowID) error {
	if id == 0 {
		return ErrReservedWindowID
	}
	if t.Empty() {
		t.Root = NewLeaf(id, t.Area)
		return nil
	}
	root, err := t.Root.InsertWithFunc(id, d.SplitDirection)
	if err != nil {
		return err
	}
	t.Root = root
	return nil
}

// RemoveWindow removes id from t and reports whether it was present.
// Removing the last window leaves t empty with its area intact.
func (d *DwindleLayout) RemoveWindow(t *Tree, id WindowID) bool {
	if !Contains(t.Root, id) {
		return false
	}
	t.Root = t.Root.Remove(id)
	return true
}

// Apply positions every window of t.
func (d *DwindleLayout) Apply(t *Tree, pos Positioner) error {
	if t.Empty() {
		return nil
	}
	if d.NoGapsWhenOnly {
		if _, only := t.Root.(*Leaf); only {
			return ApplyLayout(t.Root, pos, 0, 0)
		}
	}
	return ApplyLayout(t.Root, pos, d.GapsIn, d.GapsOut)
}

func clampFactor(f float64) float64 {
	if f < 0.1 {
		return 0.1
	}
	if f > 0.9 {
		return 0.9
	}
	return f
}
