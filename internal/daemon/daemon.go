// Package daemon ties the tiling coordinator to the window system. It keeps
// the window registry in step with the client list and serves the commands
// issued over IPC and hotkeys.
package daemon

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/1broseidon/tilewm/internal/config"
	"github.com/1broseidon/tilewm/internal/ipc"
	"github.com/1broseidon/tilewm/internal/platform"
	"github.com/1broseidon/tilewm/internal/registry"
	"github.com/1broseidon/tilewm/internal/tiling"
)

// Options configures New.
type Options struct {
	// ConfigPath is re-read by Reload. Empty uses the default path.
	ConfigPath string
	// StatePath receives the window state after every change. Empty
	// disables persistence.
	StatePath string
	Logger    *slog.Logger
	// LoadConfig overrides config.Load, mainly for tests.
	LoadConfig func(path string) (*config.Config, error)
	// OnReload runs after a successful Reload with the new configuration.
	OnReload func(*config.Config)
}

// Daemon serializes every entry point behind one mutex; the coordinator it
// owns is not safe for concurrent use.
type Daemon struct {
	mu sync.Mutex

	backend  platform.Backend
	registry *registry.Registry
	screen   *screen
	coord    *tiling.Coordinator
	cfg      *config.Config

	configPath string
	statePath  string
	saved      registry.Snapshot
	loadConfig func(string) (*config.Config, error)
	onReload   func(*config.Config)

	// dirty holds workspaces whose tiled set changed while they were not
	// visible; they are rebuilt on the next switch.
	dirty   map[int]struct{}
	started time.Time
	logger  *slog.Logger
}

var _ ipc.Controller = (*Daemon)(nil)

// New builds a daemon from an already validated configuration.
func New(backend platform.Backend, cfg *config.Config, opts Options) *Daemon {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	loadConfig := opts.LoadConfig
	if loadConfig == nil {
		loadConfig = config.Load
	}

	reg := registry.New()
	scr := &screen{backend: backend, registry: reg}
	coord := tiling.NewCoordinator(reg, scr, scr, logger.With("component", "coordinator"))
	coord.UpdateConfig(cfg.Settings())
	coord.SetLayout(cfg.Layout())

	return &Daemon{
		backend:    backend,
		registry:   reg,
		screen:     scr,
		coord:      coord,
		cfg:        cfg,
		configPath: opts.ConfigPath,
		statePath:  opts.StatePath,
		saved:      registry.Snapshot{ActiveWorkspace: 1},
		loadConfig: loadConfig,
		onReload:   opts.OnReload,
		dirty:      make(map[int]struct{}),
		started:    time.Now(),
		logger:     logger,
	}
}

// Start restores the persisted window state, registers the current client
// windows and tiles the active workspace.
func (d *Daemon) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.statePath != "" {
		saved, err := registry.Load(d.statePath)
		if err != nil {
			d.logger.Warn("ignoring saved window state", "path", d.statePath, "error", err)
		} else {
			d.saved = saved
		}
	}
	if ws := d.saved.ActiveWorkspace; ws > 1 && ws <= d.cfg.Workspaces {
		// Nothing is shown or hidden yet, so this only moves the marker.
		if err := d.coord.SwitchWorkspace(ws); err != nil {
			d.logger.Warn("failed to restore active workspace", "workspace", ws, "error", err)
		}
	}

	if _, err := d.sync(); err != nil {
		return err
	}
	return d.coord.RetileWorkspace(d.coord.ActiveWorkspace())
}

// Sync reconciles the registry with the window system and retiles the
// active workspace when its tiled windows changed.
func (d *Daemon) Sync() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	changed, err := d.sync()
	if err != nil || !changed {
		return err
	}
	return d.coord.RetileWorkspace(d.coord.ActiveWorkspace())
}

// sync updates the registry and reports whether the active workspace needs
// a retile. Callers hold mu.
func (d *Daemon) sync() (bool, error) {
	displays, err := d.backend.Displays()
	if err != nil {
		return false, fmt.Errorf("failed to list displays: %w", err)
	}
	windows, err := d.backend.ClientWindows()
	if err != nil {
		return false, fmt.Errorf("failed to list client windows: %w", err)
	}

	active := d.coord.ActiveWorkspace()
	before := d.tiledLayout(active)
	areasChanged := d.screen.setDisplays(displays)
	persist := false

	seen := make(map[platform.WindowID]struct{}, len(windows))
	for _, w := range windows {
		seen[w.ID] = struct{}{}
		monitor := platform.DisplayIndexFor(displays, w.Bounds)
		observed := observedState(w)

		existing, ok := d.registry.Get(w.ID)
		if !ok {
			d.registry.Restore(registry.ManagedWindow{
				ID:        w.ID,
				State:     observed,
				Workspace: active,
				Monitor:   monitor,
				Title:     w.Title,
				Class:     w.AppID,
			}, d.saved)
			persist = true

			added, _ := d.registry.Get(w.ID)
			d.logger.Debug("window registered", "window", w.ID, "class", w.AppID, "state", added.State, "workspace", added.Workspace)
			if added.Workspace != active {
				if added.State == registry.Tiled {
					d.dirty[added.Workspace] = struct{}{}
				}
				if !w.Hidden {
					if err := d.backend.Hide(w.ID); err != nil {
						d.logger.Warn("failed to hide window", "window", w.ID, "error", err)
					}
				}
			}
			continue
		}

		d.registry.Refresh(w.ID, monitor, w.Title, w.AppID)

		// Windows on hidden workspaces are iconified by us; their observed
		// state says nothing about the user's intent.
		if existing.Workspace != active {
			continue
		}
		if existing.State == registry.Floating && observed == registry.Tiled {
			continue
		}
		if existing.State != observed {
			if err := d.registry.SetState(w.ID, observed); err == nil {
				persist = true
				d.logger.Debug("window state changed", "window", w.ID, "from", existing.State, "to", observed)
			}
		}
	}

	for _, w := range d.registry.All() {
		if _, ok := seen[w.ID]; ok {
			continue
		}
		d.registry.Unregister(w.ID)
		persist = true
		d.logger.Debug("window unregistered", "window", w.ID)
		if w.Workspace != active && w.State == registry.Tiled {
			d.dirty[w.Workspace] = struct{}{}
		}
	}

	if persist {
		d.persist()
	}
	return areasChanged || !slices.Equal(before, d.tiledLayout(active)), nil
}

type placedWindow struct {
	id      platform.WindowID
	monitor int
}

func (d *Daemon) tiledLayout(workspace int) []placedWindow {
	ids := d.registry.TiledInWorkspace(workspace)
	out := make([]placedWindow, 0, len(ids))
	for _, id := range ids {
		w, _ := d.registry.Get(id)
		out = append(out, placedWindow{id: id, monitor: w.Monitor})
	}
	return out
}

func observedState(w platform.Window) registry.State {
	switch {
	case w.Hidden:
		return registry.Minimized
	case w.Fullscreen:
		return registry.Fullscreen
	default:
		return registry.Tiled
	}
}

func (d *Daemon) persist() {
	if d.statePath == "" {
		return
	}
	if err := d.registry.Save(d.statePath, d.coord.ActiveWorkspace()); err != nil {
		d.logger.Warn("failed to save window state", "path", d.statePath, "error", err)
	}
}

// resolveWindow maps 0 onto the focused window.
func (d *Daemon) resolveWindow(window uint32) (platform.WindowID, error) {
	if window != 0 {
		return platform.WindowID(window), nil
	}
	id, err := d.backend.ActiveWindow()
	if err != nil {
		return 0, fmt.Errorf("failed to get active window: %w", err)
	}
	if id == 0 {
		return 0, errors.New("no active window")
	}
	return id, nil
}

func (d *Daemon) checkWorkspace(workspace int) error {
	if workspace < 1 || workspace > d.cfg.Workspaces {
		return fmt.Errorf("workspace %d out of range 1-%d", workspace, d.cfg.Workspaces)
	}
	return nil
}

// SetLayout selects the layout used by the next retile.
func (d *Daemon) SetLayout(layout tiling.LayoutType) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.coord.SetLayout(layout)
	d.logger.Info("layout changed", "layout", layout)
	return nil
}

// AdjustMasterCount adds or removes one master slot.
func (d *Daemon) AdjustMasterCount(delta int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch {
	case delta > 0:
		d.coord.IncreaseMasterCount()
	case delta < 0:
		d.coord.DecreaseMasterCount()
	default:
		return errors.New("master count delta must be non-zero")
	}
	d.logger.Info("master count changed", "count", d.coord.Settings().MasterCount)
	return nil
}

// AdjustMasterFactor shifts the master width share.
func (d *Daemon) AdjustMasterFactor(delta float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.coord.AdjustMasterFactor(delta)
	d.logger.Info("master factor changed", "factor", d.coord.Settings().MasterFactor)
	return nil
}

// SwitchWorkspace makes workspace visible. A workspace whose windows
// changed while it was hidden is rebuilt before it is shown.
func (d *Daemon) SwitchWorkspace(workspace int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.switchWorkspace(workspace)
}

func (d *Daemon) switchWorkspace(workspace int) error {
	if err := d.checkWorkspace(workspace); err != nil {
		return err
	}
	previous := d.coord.ActiveWorkspace()
	if previous == workspace {
		return nil
	}

	// The coordinator only knows tiled windows.
	for _, w := range d.registry.InWorkspace(previous) {
		if w.State == registry.Floating || w.State == registry.Fullscreen {
			if err := d.backend.Hide(w.ID); err != nil {
				d.logger.Warn("failed to hide window", "window", w.ID, "error", err)
			}
		}
	}
	for _, w := range d.registry.InWorkspace(workspace) {
		if w.State == registry.Floating || w.State == registry.Fullscreen {
			if err := d.backend.Show(w.ID); err != nil {
				d.logger.Warn("failed to show window", "window", w.ID, "error", err)
			}
		}
	}

	var err error
	if _, ok := d.dirty[workspace]; ok {
		delete(d.dirty, workspace)
		err = d.coord.RetileWorkspace(workspace)
	}
	err = errors.Join(err, d.coord.SwitchWorkspace(workspace))
	d.persist()
	return err
}

// MoveToWorkspace assigns window (0 for the focused one) to workspace and
// hides it when that workspace is not visible. With follow the target
// workspace becomes the active one instead.
func (d *Daemon) MoveToWorkspace(window uint32, workspace int, follow bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkWorkspace(workspace); err != nil {
		return err
	}
	id, err := d.resolveWindow(window)
	if err != nil {
		return err
	}
	if err := d.moveToWorkspace(id, workspace, follow); err != nil {
		return err
	}
	if !follow {
		return nil
	}
	// The visible workspace drops the window before switching away from it.
	if err := d.coord.RetileWorkspace(d.coord.ActiveWorkspace()); err != nil {
		return err
	}
	if err := d.switchWorkspace(workspace); err != nil {
		return err
	}
	if err := d.backend.Focus(id); err != nil {
		d.logger.Warn("failed to focus window", "window", id, "error", err)
	}
	return nil
}

func (d *Daemon) moveToWorkspace(id platform.WindowID, workspace int, follow bool) error {
	w, ok := d.registry.Get(id)
	if !ok {
		return fmt.Errorf("window %d: %w", id, registry.ErrUnknownWindow)
	}
	if w.Workspace == workspace {
		return nil
	}
	if err := d.registry.MoveToWorkspace(id, workspace); err != nil {
		return err
	}

	active := d.coord.ActiveWorkspace()
	if w.State == registry.Tiled {
		for _, ws := range []int{w.Workspace, workspace} {
			if ws != active {
				d.dirty[ws] = struct{}{}
			}
		}
	}
	switch {
	case workspace == active:
		if err := d.backend.Show(id); err != nil {
			d.logger.Warn("failed to show window", "window", id, "error", err)
		}
	case follow:
		// switchWorkspace shows it with the rest of the workspace.
	default:
		if err := d.backend.Hide(id); err != nil {
			d.logger.Warn("failed to hide window", "window", id, "error", err)
		}
	}

	d.logger.Info("window moved", "window", id, "from", w.Workspace, "to", workspace)
	d.persist()
	return nil
}

// ToggleFloating flips window (0 for the focused one) between tiled and
// floating.
func (d *Daemon) ToggleFloating(window uint32) (*ipc.FloatingData, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	id, err := d.resolveWindow(window)
	if err != nil {
		return nil, err
	}
	state, err := d.registry.ToggleFloating(id)
	if err != nil {
		return nil, fmt.Errorf("window %d: %w", id, err)
	}
	d.logger.Info("window floating toggled", "window", id, "state", state)
	d.persist()
	return &ipc.FloatingData{Window: uint32(id), State: state.String()}, nil
}

// ToggleFullscreen puts window (0 for the focused one) into fullscreen, or
// takes it out again. Leaving fullscreen restores a user float.
func (d *Daemon) ToggleFullscreen(window uint32) (*ipc.FloatingData, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	id, err := d.resolveWindow(window)
	if err != nil {
		return nil, err
	}
	w, ok := d.registry.Get(id)
	if !ok {
		return nil, fmt.Errorf("window %d: %w", id, registry.ErrUnknownWindow)
	}
	if w.State == registry.Minimized {
		return nil, fmt.Errorf("window %d is minimized", id)
	}

	enter := w.State != registry.Fullscreen
	if err := d.backend.SetFullscreen(id, enter); err != nil {
		return nil, fmt.Errorf("failed to set fullscreen on window %d: %w", id, err)
	}
	target := registry.Tiled
	if enter {
		target = registry.Fullscreen
	}
	if err := d.registry.SetState(id, target); err != nil {
		return nil, err
	}

	state, _ := d.registry.Get(id)
	d.logger.Info("window fullscreen toggled", "window", id, "state", state.State)
	d.persist()
	return &ipc.FloatingData{Window: uint32(id), State: state.State.String()}, nil
}

// FocusDirection focuses the tiled window next to the focused one in dir.
// An untiled focus jumps to the first tiled window. Nothing happens at the
// edge of the layout.
func (d *Daemon) FocusDirection(dir tiling.Direction) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.focusTiled(func(placements []tiling.Placement, from platform.WindowID) (platform.WindowID, bool) {
		return tiling.Neighbor(placements, from, dir)
	})
}

// FocusCycle focuses the tiled window delta steps away in layout order,
// wrapping at either end.
func (d *Daemon) FocusCycle(delta int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.focusTiled(func(placements []tiling.Placement, from platform.WindowID) (platform.WindowID, bool) {
		order := make([]platform.WindowID, len(placements))
		for i, p := range placements {
			order[i] = p.ID
		}
		return tiling.Cycle(order, from, delta)
	})
}

// focusTiled focuses the window pick selects among the active workspace's
// placements on every monitor. Callers hold mu.
func (d *Daemon) focusTiled(pick func([]tiling.Placement, platform.WindowID) (platform.WindowID, bool)) error {
	var placements []tiling.Placement
	for _, slot := range d.coord.Snapshot(d.coord.ActiveWorkspace()) {
		placements = append(placements, slot.Placements...)
	}
	if len(placements) == 0 {
		return nil
	}

	current, err := d.backend.ActiveWindow()
	if err != nil {
		return fmt.Errorf("failed to get active window: %w", err)
	}

	target, ok := placements[0].ID, true
	if slices.ContainsFunc(placements, func(p tiling.Placement) bool { return p.ID == current }) {
		target, ok = pick(placements, current)
	}
	if !ok {
		return nil
	}
	if err := d.backend.Focus(target); err != nil {
		return fmt.Errorf("failed to focus window %d: %w", target, err)
	}
	d.logger.Debug("focus moved", "from", current, "to", target)
	return nil
}

// Retile rebuilds the active workspace.
func (d *Daemon) Retile() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.coord.RetileWorkspace(d.coord.ActiveWorkspace())
}

// Balance evens every split on the active workspace.
func (d *Daemon) Balance() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.coord.BalanceWorkspace(d.coord.ActiveWorkspace())
}

// Reload re-reads the configuration and copies its settings into the
// coordinator. The active layout is kept.
func (d *Daemon) Reload() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	cfg, err := d.loadConfig(d.configPath)
	if err != nil {
		return fmt.Errorf("failed to reload config: %w", err)
	}
	d.cfg = cfg
	d.coord.UpdateConfig(cfg.Settings())
	d.logger.Info("config reloaded", "path", d.configPath)

	if d.onReload != nil {
		d.onReload(cfg)
	}
	return nil
}

// Status describes the active workspace.
func (d *Daemon) Status() (*ipc.StatusData, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	active := d.coord.ActiveWorkspace()
	settings := d.coord.Settings()
	status := &ipc.StatusData{
		ActiveWorkspace: active,
		Workspaces:      d.cfg.Workspaces,
		Layout:          d.coord.CurrentLayout().String(),
		Tiling:          d.coord.IsTiling(),
		WindowCount:     d.registry.Len(),
		TiledCount:      len(d.registry.TiledInWorkspace(active)),
		GapsIn:          settings.GapsIn,
		GapsOut:         settings.GapsOut,
		MasterFactor:    settings.MasterFactor,
		MasterCount:     settings.MasterCount,
		UptimeSeconds:   int64(time.Since(d.started).Seconds()),
		DaemonRunning:   true,
	}

	for _, slot := range d.coord.Snapshot(active) {
		mon := ipc.MonitorStatus{
			Index:      slot.Monitor,
			Name:       d.screen.displayName(slot.Monitor),
			Layout:     slot.Layout.String(),
			X:          slot.Area.X,
			Y:          slot.Area.Y,
			Width:      slot.Area.Width,
			Height:     slot.Area.Height,
			Placements: make([]ipc.PlacementInfo, 0, len(slot.Placements)),
		}
		for _, p := range slot.Placements {
			mon.Placements = append(mon.Placements, ipc.PlacementInfo{
				Window: uint32(p.ID),
				X:      p.Rect.X,
				Y:      p.Rect.Y,
				Width:  p.Rect.Width,
				Height: p.Rect.Height,
			})
		}
		status.Monitors = append(status.Monitors, mon)
	}
	return status, nil
}

// Windows lists every managed window in registration order.
func (d *Daemon) Windows() (*ipc.WindowsData, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	all := d.registry.All()
	data := &ipc.WindowsData{Windows: make([]ipc.WindowInfo, 0, len(all))}
	for _, w := range all {
		data.Windows = append(data.Windows, ipc.WindowInfo{
			ID:        uint32(w.ID),
			State:     w.State.String(),
			Workspace: w.Workspace,
			Monitor:   w.Monitor,
			Title:     w.Title,
			Class:     w.Class,
		})
	}
	return data, nil
}

// Shutdown persists the window state and shows every window hidden on an
// inactive workspace so nothing is left iconified.
func (d *Daemon) Shutdown() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.persist()
	active := d.coord.ActiveWorkspace()
	for _, w := range d.registry.All() {
		if w.Workspace == active || w.State == registry.Minimized {
			continue
		}
		if err := d.backend.Show(w.ID); err != nil {
			d.logger.Warn("failed to show window", "window", w.ID, "error", err)
		}
	}
}
