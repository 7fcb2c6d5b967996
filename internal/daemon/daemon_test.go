package daemon

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/1broseidon/tilewm/internal/config"
	"github.com/1broseidon/tilewm/internal/platform"
	"github.com/1broseidon/tilewm/internal/tiling"
)

type fakeBackend struct {
	displays []platform.Display
	windows  []platform.Window
	active   platform.WindowID
	moves    map[platform.WindowID]platform.Rect
	shown    []platform.WindowID
	hidden   []platform.WindowID
	focused  []platform.WindowID
}

func newFakeBackend(ids ...platform.WindowID) *fakeBackend {
	screen := platform.Rect{Width: 1920, Height: 1080}
	b := &fakeBackend{
		displays: []platform.Display{{ID: 0, Name: "eDP-1", Bounds: screen, Usable: screen}},
		moves:    map[platform.WindowID]platform.Rect{},
	}
	for _, id := range ids {
		b.windows = append(b.windows, platform.Window{
			ID:     id,
			AppID:  "xterm",
			Bounds: platform.Rect{X: 100, Y: 100, Width: 400, Height: 300},
		})
	}
	return b
}

func (b *fakeBackend) Displays() ([]platform.Display, error)   { return b.displays, nil }
func (b *fakeBackend) ClientWindows() ([]platform.Window, error) { return slices.Clone(b.windows), nil }
func (b *fakeBackend) ActiveWindow() (platform.WindowID, error) { return b.active, nil }

func (b *fakeBackend) MoveResize(id platform.WindowID, r platform.Rect) error {
	b.moves[id] = r
	return nil
}

func (b *fakeBackend) Show(id platform.WindowID) error {
	b.shown = append(b.shown, id)
	b.setHidden(id, false)
	return nil
}

func (b *fakeBackend) Hide(id platform.WindowID) error {
	b.hidden = append(b.hidden, id)
	b.setHidden(id, true)
	return nil
}

func (b *fakeBackend) Focus(id platform.WindowID) error {
	b.focused = append(b.focused, id)
	b.active = id
	return nil
}

func (b *fakeBackend) SetFullscreen(id platform.WindowID, fullscreen bool) error {
	for i := range b.windows {
		if b.windows[i].ID == id {
			b.windows[i].Fullscreen = fullscreen
		}
	}
	return nil
}

func (b *fakeBackend) setHidden(id platform.WindowID, hidden bool) {
	for i := range b.windows {
		if b.windows[i].ID == id {
			b.windows[i].Hidden = hidden
		}
	}
}

func (b *fakeBackend) remove(id platform.WindowID) {
	b.windows = slices.DeleteFunc(b.windows, func(w platform.Window) bool { return w.ID == id })
}

func startDaemon(t *testing.T, b *fakeBackend, opts Options) *Daemon {
	t.Helper()
	d := New(b, config.DefaultConfig(), opts)
	if err := d.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	return d
}

func windowState(t *testing.T, d *Daemon, id uint32) (string, int) {
	t.Helper()
	data, err := d.Windows()
	if err != nil {
		t.Fatalf("windows: %v", err)
	}
	for _, w := range data.Windows {
		if w.ID == id {
			return w.State, w.Workspace
		}
	}
	t.Fatalf("window %d not registered", id)
	return "", 0
}

func TestStartTilesClientWindows(t *testing.T) {
	b := newFakeBackend(1, 2)
	d := startDaemon(t, b, Options{})

	if len(b.moves) != 2 {
		t.Fatalf("expected both windows positioned, got %v", b.moves)
	}

	status, err := d.Status()
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.TiledCount != 2 || status.WindowCount != 2 || status.Layout != "dwindle" {
		t.Fatalf("unexpected status %+v", status)
	}
	if len(status.Monitors) != 1 || len(status.Monitors[0].Placements) != 2 {
		t.Fatalf("expected one monitor with two placements, got %+v", status.Monitors)
	}
	if status.Monitors[0].Name != "eDP-1" {
		t.Fatalf("expected monitor name eDP-1, got %q", status.Monitors[0].Name)
	}
}

func TestSyncRegistersObservedStates(t *testing.T) {
	b := newFakeBackend(1, 2, 3)
	b.windows[1].Fullscreen = true
	b.windows[2].Hidden = true
	d := startDaemon(t, b, Options{})

	tests := []struct {
		id   uint32
		want string
	}{
		{id: 1, want: "tiled"},
		{id: 2, want: "fullscreen"},
		{id: 3, want: "minimized"},
	}
	for _, tt := range tests {
		if state, _ := windowState(t, d, tt.id); state != tt.want {
			t.Fatalf("window %d: expected %s, got %s", tt.id, tt.want, state)
		}
	}
	if len(b.moves) != 1 {
		t.Fatalf("expected only the tiled window positioned, got %v", b.moves)
	}
}

func TestSyncRemovesClosedWindowsAndRetiles(t *testing.T) {
	b := newFakeBackend(1, 2)
	d := startDaemon(t, b, Options{})
	halfWidth := b.moves[1].Width

	b.remove(2)
	if err := d.Sync(); err != nil {
		t.Fatalf("sync: %v", err)
	}

	data, _ := d.Windows()
	if len(data.Windows) != 1 || data.Windows[0].ID != 1 {
		t.Fatalf("expected only window 1 left, got %+v", data.Windows)
	}
	if b.moves[1].Width <= halfWidth {
		t.Fatalf("expected window 1 to grow past %d, got %d", halfWidth, b.moves[1].Width)
	}
}

func TestSyncWithoutChangesDoesNotRetile(t *testing.T) {
	b := newFakeBackend(1, 2)
	d := startDaemon(t, b, Options{})

	clear(b.moves)
	if err := d.Sync(); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if len(b.moves) != 0 {
		t.Fatalf("expected no positioning, got %v", b.moves)
	}
}

func TestSyncKeepsFloatingWindows(t *testing.T) {
	b := newFakeBackend(1, 2)
	d := startDaemon(t, b, Options{})

	data, err := d.ToggleFloating(1)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if data.State != "floating" {
		t.Fatalf("expected floating, got %s", data.State)
	}
	if err := d.Sync(); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if state, _ := windowState(t, d, 1); state != "floating" {
		t.Fatalf("expected window 1 to stay floating, got %s", state)
	}
}

func TestFloatingWindowComesBackFloatingAfterMinimize(t *testing.T) {
	b := newFakeBackend(1, 2)
	d := startDaemon(t, b, Options{})
	if _, err := d.ToggleFloating(1); err != nil {
		t.Fatalf("toggle: %v", err)
	}

	b.setHidden(1, true)
	if err := d.Sync(); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if state, _ := windowState(t, d, 1); state != "minimized" {
		t.Fatalf("expected window 1 minimized, got %s", state)
	}

	b.setHidden(1, false)
	clear(b.moves)
	if err := d.Sync(); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if state, _ := windowState(t, d, 1); state != "floating" {
		t.Fatalf("expected window 1 floating after restore, got %s", state)
	}
	if _, ok := b.moves[1]; ok {
		t.Fatalf("expected restored floating window left unpositioned")
	}
}

func TestToggleFullscreen(t *testing.T) {
	b := newFakeBackend(1, 2)
	b.active = 2
	d := startDaemon(t, b, Options{})

	data, err := d.ToggleFullscreen(0)
	if err != nil {
		t.Fatalf("fullscreen: %v", err)
	}
	if data.Window != 2 || data.State != "fullscreen" {
		t.Fatalf("expected window 2 fullscreen, got %+v", data)
	}
	if !b.windows[1].Fullscreen {
		t.Fatalf("expected backend fullscreen on window 2")
	}
	// The backend now reports it fullscreen too; a sync must agree.
	if err := d.Sync(); err != nil {
		t.Fatalf("sync: %v", err)
	}
	status, _ := d.Status()
	if status.TiledCount != 1 {
		t.Fatalf("expected only window 1 tiled, got %d", status.TiledCount)
	}

	data, err = d.ToggleFullscreen(2)
	if err != nil {
		t.Fatalf("leave fullscreen: %v", err)
	}
	if data.State != "tiled" || b.windows[1].Fullscreen {
		t.Fatalf("expected window 2 tiled again, got %+v", data)
	}
}

func TestToggleFullscreenRestoresFloat(t *testing.T) {
	b := newFakeBackend(1)
	d := startDaemon(t, b, Options{})
	if _, err := d.ToggleFloating(1); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	for _, want := range []string{"fullscreen", "floating"} {
		data, err := d.ToggleFullscreen(1)
		if err != nil {
			t.Fatalf("fullscreen: %v", err)
		}
		if data.State != want {
			t.Fatalf("expected %s, got %s", want, data.State)
		}
	}
}

func TestToggleFullscreenRejectsMinimized(t *testing.T) {
	b := newFakeBackend(1)
	b.windows[0].Hidden = true
	d := startDaemon(t, b, Options{})
	if _, err := d.ToggleFullscreen(1); err == nil {
		t.Fatalf("expected error for a minimized window")
	}
}

func TestFocusDirection(t *testing.T) {
	b := newFakeBackend(1, 2, 3)
	b.active = 1
	d := startDaemon(t, b, Options{})

	// 1 fills the left half, 2 and 3 stack on the right.
	steps := []struct {
		dir  tiling.Direction
		want platform.WindowID
	}{
		{tiling.DirRight, 2},
		{tiling.DirDown, 3},
		{tiling.DirLeft, 1},
	}
	for _, step := range steps {
		if err := d.FocusDirection(step.dir); err != nil {
			t.Fatalf("focus %s: %v", step.dir, err)
		}
		if b.active != step.want {
			t.Fatalf("focus %s: expected window %d, got %d", step.dir, step.want, b.active)
		}
	}

	before := len(b.focused)
	if err := d.FocusDirection(tiling.DirLeft); err != nil {
		t.Fatalf("focus at edge: %v", err)
	}
	if len(b.focused) != before {
		t.Fatalf("expected no focus change at the left edge, got %v", b.focused[before:])
	}
}

func TestFocusDirectionFromUntiledWindow(t *testing.T) {
	b := newFakeBackend(1, 2)
	d := startDaemon(t, b, Options{})
	if _, err := d.ToggleFloating(2); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if err := d.Retile(); err != nil {
		t.Fatalf("retile: %v", err)
	}
	b.active = 2

	if err := d.FocusDirection(tiling.DirRight); err != nil {
		t.Fatalf("focus: %v", err)
	}
	if b.active != 1 {
		t.Fatalf("expected focus to land on tiled window 1, got %d", b.active)
	}
}

func TestFocusCycle(t *testing.T) {
	b := newFakeBackend(1, 2, 3)
	b.active = 3
	d := startDaemon(t, b, Options{})

	if err := d.FocusCycle(1); err != nil {
		t.Fatalf("next: %v", err)
	}
	if b.active != 1 {
		t.Fatalf("expected next to wrap to 1, got %d", b.active)
	}
	if err := d.FocusCycle(-1); err != nil {
		t.Fatalf("prev: %v", err)
	}
	if b.active != 3 {
		t.Fatalf("expected prev to wrap to 3, got %d", b.active)
	}
}

func TestMoveToWorkspaceFollow(t *testing.T) {
	b := newFakeBackend(1, 2)
	d := startDaemon(t, b, Options{})

	if err := d.MoveToWorkspace(2, 3, true); err != nil {
		t.Fatalf("move: %v", err)
	}
	status, _ := d.Status()
	if status.ActiveWorkspace != 3 || status.TiledCount != 1 {
		t.Fatalf("expected workspace 3 active with one tiled window, got %+v", status)
	}
	if slices.Contains(b.hidden, 2) {
		t.Fatalf("expected moved window never hidden, got %v", b.hidden)
	}
	if !slices.Contains(b.hidden, 1) {
		t.Fatalf("expected window 1 hidden with workspace 1, got %v", b.hidden)
	}
	if b.active != 2 {
		t.Fatalf("expected moved window focused, got %d", b.active)
	}
	if _, ws := windowState(t, d, 2); ws != 3 {
		t.Fatalf("expected window 2 on workspace 3, got %d", ws)
	}

	// Workspace 1 dropped window 2 before it was hidden.
	clear(b.moves)
	if err := d.SwitchWorkspace(1); err != nil {
		t.Fatalf("switch back: %v", err)
	}
	status, _ = d.Status()
	if len(status.Monitors) != 1 || len(status.Monitors[0].Placements) != 1 || status.Monitors[0].Placements[0].Window != 1 {
		t.Fatalf("expected only window 1 on workspace 1, got %+v", status.Monitors)
	}
}

func TestToggleFloatingUsesActiveWindow(t *testing.T) {
	b := newFakeBackend(1, 2)
	b.active = 2
	d := startDaemon(t, b, Options{})

	data, err := d.ToggleFloating(0)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if data.Window != 2 {
		t.Fatalf("expected active window 2, got %d", data.Window)
	}

	b.active = 0
	if _, err := d.ToggleFloating(0); err == nil {
		t.Fatalf("expected error without an active window")
	}
	if _, err := d.ToggleFloating(99); err == nil {
		t.Fatalf("expected error for unknown window")
	}
}

func TestMoveAndSwitchWorkspace(t *testing.T) {
	b := newFakeBackend(1, 2)
	d := startDaemon(t, b, Options{})

	if err := d.MoveToWorkspace(2, 2, false); err != nil {
		t.Fatalf("move: %v", err)
	}
	if !slices.Contains(b.hidden, 2) {
		t.Fatalf("expected window 2 hidden, got %v", b.hidden)
	}
	if err := d.Retile(); err != nil {
		t.Fatalf("retile: %v", err)
	}

	clear(b.moves)
	if err := d.SwitchWorkspace(2); err != nil {
		t.Fatalf("switch: %v", err)
	}
	if !slices.Contains(b.hidden, 1) {
		t.Fatalf("expected window 1 hidden, got %v", b.hidden)
	}
	if !slices.Contains(b.shown, 2) {
		t.Fatalf("expected window 2 shown, got %v", b.shown)
	}
	if _, ok := b.moves[2]; !ok {
		t.Fatalf("expected window 2 positioned on its new workspace")
	}

	status, _ := d.Status()
	if status.ActiveWorkspace != 2 || status.TiledCount != 1 {
		t.Fatalf("unexpected status %+v", status)
	}

	// Window 1 is iconified on the hidden workspace; a sync must not mark
	// it minimized.
	if err := d.Sync(); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if state, ws := windowState(t, d, 1); state != "tiled" || ws != 1 {
		t.Fatalf("expected window 1 tiled on workspace 1, got %s on %d", state, ws)
	}
}

func TestSwitchWorkspaceHidesFloatingWindows(t *testing.T) {
	b := newFakeBackend(1, 2)
	d := startDaemon(t, b, Options{})

	if _, err := d.ToggleFloating(2); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if err := d.SwitchWorkspace(3); err != nil {
		t.Fatalf("switch: %v", err)
	}
	if !slices.Contains(b.hidden, 2) {
		t.Fatalf("expected floating window hidden, got %v", b.hidden)
	}
	if err := d.SwitchWorkspace(1); err != nil {
		t.Fatalf("switch back: %v", err)
	}
	if !slices.Contains(b.shown, 2) {
		t.Fatalf("expected floating window shown, got %v", b.shown)
	}
}

func TestWorkspaceRange(t *testing.T) {
	d := startDaemon(t, newFakeBackend(1), Options{})

	for _, ws := range []int{0, -1, 11} {
		if err := d.SwitchWorkspace(ws); err == nil {
			t.Fatalf("expected error switching to %d", ws)
		}
		if err := d.MoveToWorkspace(1, ws, false); err == nil {
			t.Fatalf("expected error moving to %d", ws)
		}
	}
}

func TestLayoutCommands(t *testing.T) {
	d := startDaemon(t, newFakeBackend(1, 2, 3), Options{})

	if err := d.SetLayout(tiling.LayoutMaster); err != nil {
		t.Fatalf("set layout: %v", err)
	}
	if err := d.AdjustMasterCount(1); err != nil {
		t.Fatalf("master count: %v", err)
	}
	if err := d.AdjustMasterFactor(0.05); err != nil {
		t.Fatalf("master factor: %v", err)
	}
	if err := d.AdjustMasterCount(0); err == nil {
		t.Fatalf("expected error for zero delta")
	}
	if err := d.Retile(); err != nil {
		t.Fatalf("retile: %v", err)
	}

	status, _ := d.Status()
	if status.Layout != "master" || status.MasterCount != 2 {
		t.Fatalf("unexpected status %+v", status)
	}
	if status.MasterFactor < 0.599 || status.MasterFactor > 0.601 {
		t.Fatalf("expected master factor 0.6, got %v", status.MasterFactor)
	}
	if status.Monitors[0].Layout != "master" {
		t.Fatalf("expected master slot, got %s", status.Monitors[0].Layout)
	}
}

func TestReloadAppliesSettings(t *testing.T) {
	reloaded := config.DefaultConfig()
	reloaded.GapsIn = 0
	reloaded.GapsOut = 2

	var hooked *config.Config
	d := startDaemon(t, newFakeBackend(1), Options{
		LoadConfig: func(string) (*config.Config, error) { return reloaded, nil },
		OnReload:   func(cfg *config.Config) { hooked = cfg },
	})

	if err := d.Reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	status, _ := d.Status()
	if status.GapsIn != 0 || status.GapsOut != 2 {
		t.Fatalf("expected reloaded gaps, got %d/%d", status.GapsIn, status.GapsOut)
	}
	if hooked != reloaded {
		t.Fatalf("expected reload hook to receive the new config")
	}
}

func TestReloadKeepsSettingsOnError(t *testing.T) {
	d := startDaemon(t, newFakeBackend(1), Options{
		LoadConfig: func(string) (*config.Config, error) { return nil, errors.New("bad yaml") },
	})

	if err := d.Reload(); err == nil {
		t.Fatalf("expected reload error")
	}
	status, _ := d.Status()
	if status.GapsIn != 5 || status.GapsOut != 10 {
		t.Fatalf("expected default gaps kept, got %d/%d", status.GapsIn, status.GapsOut)
	}
}

func TestStatePersistsAcrossRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	first := startDaemon(t, newFakeBackend(1, 2), Options{StatePath: path})
	if _, err := first.ToggleFloating(1); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if err := first.MoveToWorkspace(2, 3, false); err != nil {
		t.Fatalf("move: %v", err)
	}

	b := newFakeBackend(1, 2)
	second := startDaemon(t, b, Options{StatePath: path})

	if state, _ := windowState(t, second, 1); state != "floating" {
		t.Fatalf("expected window 1 floating after restart, got %s", state)
	}
	if _, ws := windowState(t, second, 2); ws != 3 {
		t.Fatalf("expected window 2 on workspace 3 after restart, got %d", ws)
	}
	if !slices.Contains(b.hidden, 2) {
		t.Fatalf("expected window 2 hidden after restart, got %v", b.hidden)
	}
}

func TestShutdownShowsHiddenWorkspaces(t *testing.T) {
	b := newFakeBackend(1, 2)
	d := startDaemon(t, b, Options{})
	if err := d.MoveToWorkspace(2, 4, false); err != nil {
		t.Fatalf("move: %v", err)
	}

	d.Shutdown()
	if !slices.Contains(b.shown, 2) {
		t.Fatalf("expected window 2 shown on shutdown, got %v", b.shown)
	}
}

type countingSyncer struct {
	calls chan struct{}
	panic bool
}

func (s *countingSyncer) Sync() error {
	if s.panic {
		panic("boom")
	}
	select {
	case s.calls <- struct{}{}:
	default:
	}
	return nil
}

func TestReconcilerRunsPeriodically(t *testing.T) {
	syncer := &countingSyncer{calls: make(chan struct{}, 1)}
	r := NewReconciler(ReconcilerConfig{Interval: 5 * time.Millisecond}, syncer)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	select {
	case <-syncer.calls:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected a sync within 2s")
	}
	cancel()
	<-done
}

func TestReconcilerRecoversFromPanic(t *testing.T) {
	r := NewReconciler(ReconcilerConfig{}, &countingSyncer{panic: true})
	r.ReconcileNow()

	if r.interval != 10*time.Second {
		t.Fatalf("expected default interval, got %v", r.interval)
	}
}
