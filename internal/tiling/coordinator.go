package tiling

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

const (
	// refreshGapsIn and refreshGapsOut are used by TileWorkspace, which
	// refreshes geometry without consulting the configured gaps.
	refreshGapsIn  = 5
	refreshGapsOut = 10

	// workAreaGap insets each monitor's work area before layout.
	workAreaGap = 10
)

// LayoutType selects the algorithm used for every workspace.
type LayoutType int

const (
	LayoutDwindle LayoutType = iota
	LayoutMaster
)

func (l LayoutType) String() string {
	switch l {
	case LayoutDwindle:
		return "dwindle"
	case LayoutMaster:
		return "master"
	default:
		return fmt.Sprintf("layout(%d)", int(l))
	}
}

// ParseLayoutType parses "dwindle" or "master".
func ParseLayoutType(name string) (LayoutType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "dwindle":
		return LayoutDwindle, nil
	case "master":
		return LayoutMaster, nil
	default:
		return 0, fmt.Errorf("unknown layout %q (want dwindle or master)", name)
	}
}

// WindowRegistry lists the tiled windows of a workspace in registry order.
type WindowRegistry interface {
	TiledInWorkspace(workspace int) []WindowID
}

// Monitors resolves windows to monitors and reports monitor work areas.
type Monitors interface {
	MonitorForWindow(id WindowID) int
	WorkAreas() []Rect
}

// WindowOps performs the window-system side effects of layout.
type WindowOps interface {
	Positioner
	Show(id WindowID) error
	Hide(id WindowID) error
}

// Settings is the configuration snapshot copied into the coordinator.
type Settings struct {
	GapsIn         int
	GapsOut        int
	SplitRatio     float64
	SmartSplit     bool
	NoGapsWhenOnly bool
	MasterFactor   float64
	MasterCount    int
}

// DefaultSettings mirrors NewDwindleLayout and NewMasterLayout.
func DefaultSettings() Settings {
	return Settings{
		GapsIn:       5,
		GapsOut:      10,
		SplitRatio:   0.5,
		SmartSplit:   true,
		MasterFactor: 0.55,
		MasterCount:  1,
	}
}

// SlotKey addresses the layout of one monitor within one workspace.
type SlotKey struct {
	Workspace int
	Monitor   int
}

type slot struct {
	layout LayoutType
	area   Rect
	// tree is set for dwindle slots, order for master slots.
	tree  *Tree
	order []WindowID
	// placed is the geometry last handed to a master slot's windows.
	placed []Placement
}

func (s *slot) empty() bool {
	if s.tree != nil {
		return s.tree.Empty()
	}
	return len(s.order) == 0
}

func (s *slot) windows() []WindowID {
	if s.tree != nil {
		return s.tree.Windows()
	}
	return append([]WindowID(nil), s.order...)
}

// SlotSnapshot is a read-only view of one slot, used for status output.
type SlotSnapshot struct {
	Monitor    int
	Layout     LayoutType
	Area       Rect
	Placements []Placement
}

// Coordinator owns the per-(workspace, monitor) layouts and drives the
// window system through its collaborators.
//
// It is not safe for concurrent use. Callers running on several goroutines
// must serialize access to the whole coordinator.
type Coordinator struct {
	registry WindowRegistry
	monitors Monitors
	ops      WindowOps
	logger   *slog.Logger

	slots   map[SlotKey]*slot
	current LayoutType
	dwindle *DwindleLayout
	master  *MasterLayout
	active  int

	tiling   bool
	followUp bool
	pending  map[int]struct{}
}

// NewCoordinator creates a coordinator with default layouts. Workspace 1 is
// active.
func NewCoordinator(registry WindowRegistry, monitors Monitors, ops WindowOps, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Coordinator{
		registry: registry,
		monitors: monitors,
		ops:      ops,
		logger:   logger,
		slots:    make(map[SlotKey]*slot),
		current:  LayoutDwindle,
		dwindle:  NewDwindleLayout(),
		master:   NewMasterLayout(),
		active:   1,
		pending:  make(map[int]struct{}),
	}
}

// ActiveWorkspace returns the visible workspace.
func (c *Coordinator) ActiveWorkspace() int { return c.active }

// CurrentLayout returns the layout used by the next retile.
func (c *Coordinator) CurrentLayout() LayoutType { return c.current }

// IsTiling reports whether a retile is in progress.
func (c *Coordinator) IsTiling() bool { return c.tiling }

// SetLayout selects the layout algorithm. It does not retile.
func (c *Coordinator) SetLayout(layout LayoutType) {
	c.current = layout
}

// IncreaseMasterCount adds a master slot. It does not retile.
func (c *Coordinator) IncreaseMasterCount() {
	c.master.IncreaseMasterCount()
}

// DecreaseMasterCount removes a master slot. It does not retile.
func (c *Coordinator) DecreaseMasterCount() {
	c.master.DecreaseMasterCount()
}

// AdjustMasterFactor shifts the master width share. It does not retile.
func (c *Coordinator) AdjustMasterFactor(delta float64) {
	c.master.AdjustMasterFactor(delta)
}

// UpdateConfig copies s into the layouts. Existing slots keep their
// geometry until the next retile.
func (c *Coordinator) UpdateConfig(s Settings) {
	c.dwindle = &DwindleLayout{
		SmartSplit:     s.SmartSplit,
		NoGapsWhenOnly: s.NoGapsWhenOnly,
		GapsIn:         s.GapsIn,
		GapsOut:        s.GapsOut,
	}
	c.dwindle.WithRatio(s.SplitRatio)

	c.master = (&MasterLayout{GapsIn: s.GapsIn, GapsOut: s.GapsOut}).
		WithMasterFactor(s.MasterFactor).
		WithMasterCount(s.MasterCount)
}

// Settings returns the snapshot currently in effect.
func (c *Coordinator) Settings() Settings {
	return Settings{
		GapsIn:         c.dwindle.GapsIn,
		GapsOut:        c.dwindle.GapsOut,
		SplitRatio:     c.dwindle.Ratio,
		SmartSplit:     c.dwindle.SmartSplit,
		NoGapsWhenOnly: c.dwindle.NoGapsWhenOnly,
		MasterFactor:   c.master.MasterFactor,
		MasterCount:    c.master.MasterCount,
	}
}

// TileWorkspace re-applies the stored geometry of a workspace with the
// fixed refresh gaps. Nothing is rebuilt.
func (c *Coordinator) TileWorkspace(workspace int) error {
	var errs []error
	for _, key := range c.slotKeys(workspace) {
		s := c.slots[key]
		if s.empty() {
			continue
		}
		if s.tree != nil {
			errs = append(errs, ApplyLayout(s.tree.Root, c.ops, refreshGapsIn, refreshGapsOut))
			continue
		}
		refresh := *c.master
		refresh.GapsIn, refresh.GapsOut = refreshGapsIn, refreshGapsOut
		s.placed = refresh.Arrange(s.order, s.area)
		errs = append(errs, place(s.placed, c.ops))
	}
	return errors.Join(errs...)
}

// RetileWorkspace rebuilds every slot of a workspace from the registry and
// positions the windows.
//
// A call made while a retile is running (for example from an event raised
// by the window system in response to a move) is deferred: once the running
// retile finishes, each deferred workspace is retiled exactly once more.
// Requests raised during that follow-up are dropped.
func (c *Coordinator) RetileWorkspace(workspace int) error {
	if c.tiling {
		if c.followUp {
			c.logger.Debug("retile request dropped during follow-up", "workspace", workspace)
			return nil
		}
		c.pending[workspace] = struct{}{}
		c.logger.Debug("retile deferred", "workspace", workspace)
		return nil
	}

	c.tiling = true
	defer func() {
		c.tiling = false
		c.followUp = false
		clear(c.pending)
	}()

	err := c.retile(workspace)
	if len(c.pending) == 0 {
		return err
	}

	deferred := make([]int, 0, len(c.pending))
	for ws := range c.pending {
		deferred = append(deferred, ws)
	}
	sort.Ints(deferred)
	clear(c.pending)

	c.followUp = true
	errs := []error{err}
	for _, ws := range deferred {
		c.logger.Debug("running deferred retile", "workspace", ws)
		errs = append(errs, c.retile(ws))
	}
	return errors.Join(errs...)
}

func (c *Coordinator) retile(workspace int) error {
	windows := c.registry.TiledInWorkspace(workspace)
	areas := c.monitors.WorkAreas()

	if len(windows) == 0 {
		// Without monitor 0 there is nowhere to put the empty slot, so the
		// previous slots stay.
		if len(areas) == 0 {
			return &MonitorNotFoundError{Index: 0}
		}
		for key := range c.slots {
			if key.Workspace == workspace {
				delete(c.slots, key)
			}
		}
		c.slots[SlotKey{Workspace: workspace}] = c.emptySlot(areas[0].Shrink(workAreaGap))
		c.logger.Debug("workspace empty", "workspace", workspace)
		return nil
	}

	groups := make(map[int][]WindowID)
	for _, id := range windows {
		monitor := c.monitors.MonitorForWindow(id)
		groups[monitor] = append(groups[monitor], id)
	}
	monitors := make([]int, 0, len(groups))
	for m := range groups {
		monitors = append(monitors, m)
	}
	sort.Ints(monitors)

	var errs []error
	for _, m := range monitors {
		key := SlotKey{Workspace: workspace, Monitor: m}
		if m < 0 || m >= len(areas) {
			err := &MonitorNotFoundError{Index: m}
			c.logger.Warn("skipping monitor", "workspace", workspace, "monitor", m, "error", err)
			errs = append(errs, err)
			continue
		}

		s, err := c.rebuild(areas[m].Shrink(workAreaGap), groups[m])
		c.slots[key] = s
		if err != nil {
			c.logger.Warn("retile incomplete", "workspace", workspace, "monitor", m, "error", err)
			errs = append(errs, err)
		}
		c.logger.Debug("monitor retiled",
			"workspace", workspace,
			"monitor", m,
			"layout", c.current,
			"windows", len(groups[m]))
	}

	// Monitors whose windows all moved away keep no stale geometry.
	for key, s := range c.slots {
		if key.Workspace != workspace || groups[key.Monitor] != nil || s.empty() {
			continue
		}
		if key.Monitor < len(areas) {
			c.slots[key] = c.emptySlot(areas[key.Monitor].Shrink(workAreaGap))
		}
	}

	return errors.Join(errs...)
}

func (c *Coordinator) rebuild(area Rect, windows []WindowID) (*slot, error) {
	if c.current == LayoutMaster {
		s := &slot{layout: LayoutMaster, area: area, order: append([]WindowID(nil), windows...)}
		s.placed = c.master.Arrange(s.order, area)
		return s, place(s.placed, c.ops)
	}

	var errs []error
	tree := NewTree(area)
	for _, id := range windows {
		if err := c.dwindle.InsertWindow(tree, id); err != nil {
			errs = append(errs, err)
		}
	}
	errs = append(errs, c.dwindle.Apply(tree, c.ops))
	return &slot{layout: LayoutDwindle, area: area, tree: tree}, errors.Join(errs...)
}

func (c *Coordinator) emptySlot(area Rect) *slot {
	return &slot{layout: c.current, area: area, tree: NewTree(area)}
}

// SwitchWorkspace hides the windows of the active workspace, shows those of
// target and refreshes target's geometry.
func (c *Coordinator) SwitchWorkspace(target int) error {
	if target < 1 {
		return fmt.Errorf("invalid workspace %d", target)
	}
	if target == c.active {
		return nil
	}

	var errs []error
	for _, id := range c.workspaceWindows(c.active) {
		if err := c.ops.Hide(id); err != nil {
			c.logger.Warn("failed to hide window", "window", id, "error", err)
			errs = append(errs, fmt.Errorf("hide window %d: %w", id, err))
		}
	}
	for _, id := range c.workspaceWindows(target) {
		if err := c.ops.Show(id); err != nil {
			c.logger.Warn("failed to show window", "window", id, "error", err)
			errs = append(errs, fmt.Errorf("show window %d: %w", id, err))
		}
	}

	c.logger.Info("workspace switched", "from", c.active, "to", target)
	c.active = target
	errs = append(errs, c.TileWorkspace(target))
	return errors.Join(errs...)
}

// BalanceWorkspace resets every split of a workspace's dwindle trees to an
// even ratio and positions the windows again.
func (c *Coordinator) BalanceWorkspace(workspace int) error {
	var errs []error
	for _, key := range c.slotKeys(workspace) {
		s := c.slots[key]
		if s.tree == nil || s.tree.Empty() {
			continue
		}
		s.tree.Root = s.tree.Root.Rebalance()
		errs = append(errs, c.dwindle.Apply(s.tree, c.ops))
	}
	return errors.Join(errs...)
}

// Snapshot describes every slot of a workspace ordered by monitor.
func (c *Coordinator) Snapshot(workspace int) []SlotSnapshot {
	keys := c.slotKeys(workspace)
	out := make([]SlotSnapshot, 0, len(keys))
	for _, key := range keys {
		s := c.slots[key]
		snap := SlotSnapshot{Monitor: key.Monitor, Layout: s.layout, Area: s.area}
		if s.tree != nil {
			snap.Placements = s.tree.Placements()
		} else {
			snap.Placements = append([]Placement(nil), s.placed...)
		}
		out = append(out, snap)
	}
	return out
}

// Tree returns the dwindle tree stored for key, or nil.
func (c *Coordinator) Tree(key SlotKey) *Tree {
	if s, ok := c.slots[key]; ok {
		return s.tree
	}
	return nil
}

func (c *Coordinator) workspaceWindows(workspace int) []WindowID {
	var ids []WindowID
	for _, key := range c.slotKeys(workspace) {
		ids = append(ids, c.slots[key].windows()...)
	}
	return ids
}

func (c *Coordinator) slotKeys(workspace int) []SlotKey {
	var keys []SlotKey
	for key := range c.slots {
		if key.Workspace == workspace {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Monitor < keys[j].Monitor })
	return keys
}
