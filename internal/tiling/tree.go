package tiling

import (
	"errors"
	"fmt"
)

// Positioner moves a window to an absolute rect.
type Positioner interface {
	Position(id WindowID, r Rect) error
}

// Placement is one leaf of a tree: a window and the rect it owns.
type Placement struct {
	ID   WindowID
	Rect Rect
}

// Node is a binary space partition: either a *Leaf or a *Container.
//
// Nodes are immutable. Every mutating operation returns a new root and
// shares the subtrees it did not touch.
type Node interface {
	Rect() Rect
	// InsertWithFunc splits the rightmost leaf and places id in its second
	// half. splitFn is evaluated on the rect of the leaf being split.
	InsertWithFunc(id WindowID, splitFn func(Rect) Split) (Node, error)
	// Remove drops id and promotes its sibling into the parent's rect.
	// It returns nil when the tree becomes empty and the receiver itself
	// when id is absent.
	Remove(id WindowID) Node
	// Rebalance resets every container ratio to 0.5.
	Rebalance() Node
	// Collect lists leaves left to right, depth first.
	Collect() []Placement

	insert(id WindowID, splitFn func(Rect) Split) (Node, error)
	remove(id WindowID) (Node, bool)
	withRect(r Rect) Node
	appendTo(out []Placement) []Placement
}

// Leaf holds a single window.
type Leaf struct {
	Window WindowID
	rect   Rect
}

var (
	_ Node = (*Leaf)(nil)
	_ Node = (*Container)(nil)
)

// NewLeaf returns a leaf covering r.
func NewLeaf(id WindowID, r Rect) *Leaf {
	return &Leaf{Window: id, rect: r}
}

func (l *Leaf) Rect() Rect { return l.rect }

func (l *Leaf) InsertWithFunc(id WindowID, splitFn func(Rect) Split) (Node, error) {
	if err := checkInsert(l, id); err != nil {
		return l, err
	}
	return l.insert(id, splitFn)
}

func (l *Leaf) insert(id WindowID, splitFn func(Rect) Split) (Node, error) {
	dir := splitFn(l.rect)
	first, second := l.rect.Split(dir, 0.5)
	if first.Empty() || second.Empty() {
		return l, fmt.Errorf("%w: cannot split %s %s for window %d", ErrGeometry, l.rect, dir, id)
	}
	return &Container{
		Split: dir,
		Ratio: 0.5,
		Left:  NewLeaf(l.Window, first),
		Right: NewLeaf(id, second),
		rect:  l.rect,
	}, nil
}

func (l *Leaf) Remove(id WindowID) Node {
	n, _ := l.remove(id)
	return n
}

func (l *Leaf) remove(id WindowID) (Node, bool) {
	if l.Window == id {
		return nil, true
	}
	return l, false
}

func (l *Leaf) Rebalance() Node { return l }

func (l *Leaf) Collect() []Placement {
	return l.appendTo(nil)
}

func (l *Leaf) withRect(r Rect) Node {
	return &Leaf{Window: l.Window, rect: r}
}

func (l *Leaf) appendTo(out []Placement) []Placement {
	return append(out, Placement{ID: l.Window, Rect: l.rect})
}

// Container divides its rect between two children along Split. Left is the
// left or top child and receives Ratio of the space.
type Container struct {
	Split Split
	Ratio float64
	Left  Node
	Right Node
	rect  Rect
}

// NewContainer builds a container over r and lays its children out
// according to split and ratio.
func NewContainer(split Split, left, right Node, r Rect, ratio float64) *Container {
	first, second := r.Split(split, ratio)
	return &Container{
		Split: split,
		Ratio: ratio,
		Left:  left.withRect(first),
		Right: right.withRect(second),
		rect:  r,
	}
}

func (c *Container) Rect() Rect { return c.rect }

func (c *Container) InsertWithFunc(id WindowID, splitFn func(Rect) Split) (Node, error) {
	if err := checkInsert(c, id); err != nil {
		return c, err
	}
	return c.insert(id, splitFn)
}

func (c *Container) insert(id WindowID, splitFn func(Rect) Split) (Node, error) {
	right, err := c.Right.insert(id, splitFn)
	if err != nil {
		return c, err
	}
	return &Container{Split: c.Split, Ratio: c.Ratio, Left: c.Left, Right: right, rect: c.rect}, nil
}

func (c *Container) Remove(id WindowID) Node {
	n, _ := c.remove(id)
	return n
}

func (c *Container) remove(id WindowID) (Node, bool) {
	if left, found := c.Left.remove(id); found {
		if left == nil {
			return c.Right.withRect(c.rect), true
		}
		return &Container{Split: c.Split, Ratio: c.Ratio, Left: left, Right: c.Right, rect: c.rect}, true
	}
	if right, found := c.Right.remove(id); found {
		if right == nil {
			return c.Left.withRect(c.rect), true
		}
		return &Container{Split: c.Split, Ratio: c.Ratio, Left: c.Left, Right: right, rect: c.rect}, true
	}
	return c, false
}

func (c *Container) Rebalance() Node {
	return NewContainer(c.Split, c.Left.Rebalance(), c.Right.Rebalance(), c.rect, 0.5)
}

func (c *Container) Collect() []Placement {
	return c.appendTo(nil)
}

func (c *Container) withRect(r Rect) Node {
	return NewContainer(c.Split, c.Left, c.Right, r, c.Ratio)
}

func (c *Container) appendTo(out []Placement) []Placement {
	out = c.Left.appendTo(out)
	return c.Right.appendTo(out)
}

// Insert splits the rightmost leaf of n along dir.
func Insert(n Node, id WindowID, dir Split) (Node, error) {
	return n.InsertWithFunc(id, func(Rect) Split { return dir })
}

// Contains reports whether id is a leaf of n.
func Contains(n Node, id WindowID) bool {
	if n == nil {
		return false
	}
	for _, p := range n.Collect() {
		if p.ID == id {
			return true
		}
	}
	return false
}

// ApplyLayout positions every window of n at its leaf rect with gaps
// applied. A failure for one window does not stop the others; all failures
// are returned joined.
func ApplyLayout(n Node, pos Positioner, gapsIn, gapsOut int) error {
	if n == nil {
		return nil
	}
	var errs []error
	for _, p := range n.Collect() {
		if p.ID == 0 {
			continue
		}
		r := clampSize(p.Rect.ApplyGaps(gapsIn, gapsOut))
		if err := pos.Position(p.ID, r); err != nil {
			errs = append(errs, &PositionError{Window: p.ID, Rect: r, Err: err})
		}
	}
	return errors.Join(errs...)
}

func checkInsert(n Node, id WindowID) error {
	if id == 0 {
		return ErrReservedWindowID
	}
	if Contains(n, id) {
		return fmt.Errorf("%w: %d", ErrDuplicateWindow, id)
	}
	return nil
}

func clampSize(r Rect) Rect {
	if r.Width < 1 {
		r.Width = 1
	}
	if r.Height < 1 {
		r.Height = 1
	}
	return r
}

// Tree is the layout of one (workspace, monitor) slot. A nil Root marks an
// empty slot; Area is kept so the first window fills it.
type Tree struct {
	Area Rect
	Root Node
}

// NewTree returns an empty tree over area.
func NewTree(area Rect) *Tree {
	return &Tree{Area: area}
}

// Empty reports whether the tree holds no windows.
func (t *Tree) Empty() bool {
	return t == nil || t.Root == nil
}

// Windows lists the tree's windows in layout order.
func (t *Tree) Windows() []WindowID {
	if t.Empty() {
		return nil
	}
	placements := t.Root.Collect()
	ids := make([]WindowID, len(placements))
	for i, p := range placements {
		ids[i] = p.ID
	}
	return ids
}

// Placements returns the leaf rects of the tree, or nil when empty.
func (t *Tree) Placements() []Placement {
	if t.Empty() {
		return nil
	}
	return t.Root.Collect()
}
