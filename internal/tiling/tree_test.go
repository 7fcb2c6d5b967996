package tiling

import (
	"errors"
	"fmt"
	"testing"
)

type recordingPositioner struct {
	positions map[WindowID]Rect
	fail      map[WindowID]bool
	calls     int
}

func newRecordingPositioner() *recordingPositioner {
	return &recordingPositioner{
		positions: make(map[WindowID]Rect),
		fail:      make(map[WindowID]bool),
	}
}

func (p *recordingPositioner) Position(id WindowID, r Rect) error {
	p.calls++
	if p.fail[id] {
		return fmt.Errorf("window %d is gone", id)
	}
	p.positions[id] = r
	return nil
}

// assertTiles checks that placements cover root exactly with no overlap.
func assertTiles(t *testing.T, placements []Placement, root Rect) {
	t.Helper()
	total := 0
	for i, a := range placements {
		if a.Rect.Empty() {
			t.Fatalf("window %d has empty rect %s", a.ID, a.Rect)
		}
		if a.Rect.X < root.X || a.Rect.Y < root.Y ||
			a.Rect.X+a.Rect.Width > root.X+root.Width ||
			a.Rect.Y+a.Rect.Height > root.Y+root.Height {
			t.Fatalf("window %d rect %s escapes %s", a.ID, a.Rect, root)
		}
		for _, b := range placements[i+1:] {
			if a.Rect.Intersects(b.Rect) {
				t.Fatalf("windows %d (%s) and %d (%s) overlap", a.ID, a.Rect, b.ID, b.Rect)
			}
			if a.ID == b.ID {
				t.Fatalf("window %d appears twice", a.ID)
			}
		}
		total += a.Rect.Area()
	}
	if total != root.Area() {
		t.Fatalf("expected leaves to cover area %d, got %d", root.Area(), total)
	}
}

func ids(placements []Placement) []WindowID {
	out := make([]WindowID, len(placements))
	for i, p := range placements {
		out[i] = p.ID
	}
	return out
}

func equalIDs(a, b []WindowID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func mustInsert(t *testing.T, n Node, id WindowID, dir Split) Node {
	t.Helper()
	out, err := Insert(n, id, dir)
	if err != nil {
		t.Fatalf("insert %d: %v", id, err)
	}
	return out
}

func TestInsert_PreservesInsertionOrder(t *testing.T) {
	root := NewRect(0, 0, 1920, 1080)
	var n Node = NewLeaf(1, root)
	for id := WindowID(2); id <= 5; id++ {
		n = mustInsert(t, n, id, Horizontal)
	}

	got := ids(n.Collect())
	want := []WindowID{1, 2, 3, 4, 5}
	if !equalIDs(got, want) {
		t.Fatalf("expected order %v, got %v", want, got)
	}
	assertTiles(t, n.Collect(), root)
}

func TestInsert_SplitsRightmostLeaf(t *testing.T) {
	var n Node = NewLeaf(1, NewRect(0, 0, 1000, 1000))
	n = mustInsert(t, n, 2, Horizontal)
	n = mustInsert(t, n, 3, Vertical)

	got := n.Collect()
	want := []Placement{
		{ID: 1, Rect: NewRect(0, 0, 500, 1000)},
		{ID: 2, Rect: NewRect(500, 0, 500, 500)},
		{ID: 3, Rect: NewRect(500, 500, 500, 500)},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d leaves, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("leaf %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestInsert_SplitFuncSeesLeafRect(t *testing.T) {
	var seen []Rect
	splitFn := func(r Rect) Split {
		seen = append(seen, r)
		return Horizontal
	}
	var n Node = NewLeaf(1, NewRect(0, 0, 800, 400))
	var err error
	if n, err = n.InsertWithFunc(2, splitFn); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err = n.InsertWithFunc(3, splitFn); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if len(seen) != 2 || seen[1] != NewRect(400, 0, 400, 400) {
		t.Fatalf("expected second split to see the rightmost leaf rect, got %v", seen)
	}
}

func TestInsert_RejectsDuplicateAndReserved(t *testing.T) {
	var n Node = NewLeaf(1, NewRect(0, 0, 100, 100))
	n = mustInsert(t, n, 2, Vertical)

	if _, err := Insert(n, 1, Vertical); !errors.Is(err, ErrDuplicateWindow) {
		t.Fatalf("expected ErrDuplicateWindow, got %v", err)
	}
	if _, err := Insert(n, 0, Vertical); !errors.Is(err, ErrReservedWindowID) {
		t.Fatalf("expected ErrReservedWindowID, got %v", err)
	}
}

func TestInsert_RejectsUnsplittableRect(t *testing.T) {
	leaf := NewLeaf(1, NewRect(0, 0, 1, 1))
	n, err := Insert(leaf, 2, Horizontal)
	if !errors.Is(err, ErrGeometry) {
		t.Fatalf("expected ErrGeometry, got %v", err)
	}
	if n != Node(leaf) {
		t.Fatalf("expected tree to be unchanged on failure")
	}
}

func TestRemove_SoleLeafReturnsNil(t *testing.T) {
	if got := NewLeaf(7, NewRect(0, 0, 10, 10)).Remove(7); got != nil {
		t.Fatalf("expected nil, got %#v", got)
	}
}

func TestRemove_MissingWindowLeavesTreeUnchanged(t *testing.T) {
	var n Node = NewLeaf(1, NewRect(0, 0, 1000, 1000))
	n = mustInsert(t, n, 2, Horizontal)
	n = mustInsert(t, n, 3, Vertical)

	before := n.Collect()
	got := n.Remove(42)
	if got != n {
		t.Fatalf("expected the same root on miss")
	}
	after := got.Collect()
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("leaf %d changed: %+v -> %+v", i, before[i], after[i])
		}
	}
}

func TestRemove_PromotesSiblingIntoParentRect(t *testing.T) {
	root := NewRect(0, 0, 1000, 1000)
	var n Node = NewLeaf(1, root)
	n = mustInsert(t, n, 2, Horizontal)

	n = n.Remove(1)
	leaf, ok := n.(*Leaf)
	if !ok {
		t.Fatalf("expected a leaf after removal, got %T", n)
	}
	if leaf.Window != 2 || leaf.Rect() != root {
		t.Fatalf("expected window 2 to fill %s, got window %d at %s", root, leaf.Window, leaf.Rect())
	}
}

func TestRemove_PromotedContainerRelaysChildren(t *testing.T) {
	root := NewRect(0, 0, 1000, 1000)
	var n Node = NewLeaf(1, root)
	n = mustInsert(t, n, 2, Horizontal)
	n = mustInsert(t, n, 3, Vertical)

	n = n.Remove(1)
	want := []Placement{
		{ID: 2, Rect: NewRect(0, 0, 1000, 500)},
		{ID: 3, Rect: NewRect(0, 500, 1000, 500)},
	}
	got := n.Collect()
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestRemove_DoesNotMutateOriginal(t *testing.T) {
	var n Node = NewLeaf(1, NewRect(0, 0, 1000, 1000))
	n = mustInsert(t, n, 2, Horizontal)
	n = mustInsert(t, n, 3, Horizontal)

	_ = n.Remove(2)
	if got := ids(n.Collect()); !equalIDs(got, []WindowID{1, 2, 3}) {
		t.Fatalf("expected original tree intact, got %v", got)
	}
}

func TestRebalance_ResetsRatio(t *testing.T) {
	root := NewRect(0, 0, 1000, 1000)
	c := NewContainer(Horizontal, NewLeaf(1, Rect{}), NewLeaf(2, Rect{}), root, 0.3)
	if w := c.Left.Rect().Width; w != 300 {
		t.Fatalf("expected left width 300 before rebalance, got %d", w)
	}

	n := c.Rebalance()
	got := n.Collect()
	if got[0].Rect.Width != 500 || got[1].Rect.Width != 500 {
		t.Fatalf("expected 500/500 after rebalance, got %d/%d", got[0].Rect.Width, got[1].Rect.Width)
	}
	if n.(*Container).Ratio != 0.5 {
		t.Fatalf("expected ratio 0.5, got %v", n.(*Container).Ratio)
	}
}

func TestRebalance_Nested(t *testing.T) {
	root := NewRect(0, 0, 1000, 1000)
	inner := NewContainer(Vertical, NewLeaf(2, Rect{}), NewLeaf(3, Rect{}), Rect{}, 0.2)
	outer := NewContainer(Horizontal, NewLeaf(1, Rect{}), inner, root, 0.7)

	got := outer.Rebalance().Collect()
	want := []Placement{
		{ID: 1, Rect: NewRect(0, 0, 500, 1000)},
		{ID: 2, Rect: NewRect(500, 0, 500, 500)},
		{ID: 3, Rect: NewRect(500, 500, 500, 500)},
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("leaf %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestInsertRemoveSequence_KeepsTiling(t *testing.T) {
	root := NewRect(0, 0, 1920, 1080)
	d := NewDwindleLayout()
	tree := NewTree(root)

	live := map[WindowID]bool{}
	steps := []struct {
		insert bool
		id     WindowID
	}{
		{true, 1}, {true, 2}, {true, 3}, {true, 4}, {false, 2},
		{true, 5}, {true, 6}, {false, 1}, {false, 6}, {true, 7},
		{false, 99}, {true, 8}, {false, 4},
	}
	for _, step := range steps {
		if step.insert {
			if err := d.InsertWindow(tree, step.id); err != nil {
				t.Fatalf("insert %d: %v", step.id, err)
			}
			live[step.id] = true
		} else {
			found := d.RemoveWindow(tree, step.id)
			if found != live[step.id] {
				t.Fatalf("remove %d: expected found=%v, got %v", step.id, live[step.id], found)
			}
			delete(live, step.id)
		}

		placements := tree.Placements()
		if len(placements) != len(live) {
			t.Fatalf("expected %d leaves, got %d", len(live), len(placements))
		}
		for _, p := range placements {
			if !live[p.ID] {
				t.Fatalf("unexpected window %d in tree", p.ID)
			}
		}
		assertTiles(t, placements, root)
	}
}

func TestApplyLayout_ContinuesAfterFailure(t *testing.T) {
	var n Node = NewLeaf(1, NewRect(0, 0, 1000, 1000))
	n = mustInsert(t, n, 2, Horizontal)
	n = mustInsert(t, n, 3, Vertical)

	pos := newRecordingPositioner()
	pos.fail[2] = true

	err := ApplyLayout(n, pos, 5, 10)
	var perr *PositionError
	if !errors.As(err, &perr) || perr.Window != 2 {
		t.Fatalf("expected PositionError for window 2, got %v", err)
	}
	if pos.calls != 3 {
		t.Fatalf("expected 3 positioning attempts, got %d", pos.calls)
	}
	want := NewRect(0, 0, 500, 1000).ApplyGaps(5, 10)
	if got := pos.positions[1]; got != want {
		t.Fatalf("expected window 1 at %s, got %s", want, got)
	}
	if _, ok := pos.positions[3]; !ok {
		t.Fatalf("expected window 3 to be positioned after the failure")
	}
}
