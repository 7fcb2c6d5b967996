// Package hotkeys binds configured X11 key sequences to daemon commands.
package hotkeys

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/1broseidon/tilewm/internal/ipc"
	"github.com/1broseidon/tilewm/internal/platform"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"
)

// x11Accessor is an optional interface for backends that expose X11 internals.
type x11Accessor interface {
	XUtil() *xgbutil.XUtil
	RootWindow() xproto.Window
}

// Binding is one key sequence and the command it issues.
type Binding struct {
	Keys    string
	Action  string
	Request *ipc.Request
}

// Handler manages global keyboard shortcuts
type Handler struct {
	xu     *xgbutil.XUtil
	root   xproto.Window
	ctrl   ipc.Controller
	logger *slog.Logger

	mu    sync.Mutex
	bound []Binding
}

var ignoreModsOnce sync.Once

// NewHandler creates a hotkey handler dispatching to ctrl. The backend must
// be X11.
func NewHandler(backend platform.Backend, ctrl ipc.Controller, logger *slog.Logger) (*Handler, error) {
	accessor, ok := backend.(x11Accessor)
	if !ok {
		return nil, errors.New("hotkeys require an X11 backend")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	xu := accessor.XUtil()

	ignoreModsOnce.Do(func() {
		configureIgnoreMods(xu)
	})

	return &Handler{
		xu:     xu,
		root:   accessor.RootWindow(),
		ctrl:   ctrl,
		logger: logger,
	}, nil
}

// Bindings parses every action, sorted by key sequence. Keys whose action
// does not parse are reported together.
func Bindings(keybinds map[string]string) ([]Binding, error) {
	keys := make([]string, 0, len(keybinds))
	for k := range keybinds {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var errs []error
	out := make([]Binding, 0, len(keys))
	for _, k := range keys {
		req, err := ipc.ParseAction(keybinds[k])
		if err != nil {
			errs = append(errs, fmt.Errorf("keybind %s: %w", k, err))
			continue
		}
		out = append(out, Binding{Keys: k, Action: keybinds[k], Request: req})
	}
	return out, errors.Join(errs...)
}

// Bind replaces every registered hotkey with keybinds. Sequences X cannot
// grab are skipped and reported; the rest stay bound.
func (h *Handler) Bind(keybinds map[string]string) error {
	bindings, parseErr := Bindings(keybinds)

	h.mu.Lock()
	defer h.mu.Unlock()

	keybind.Detach(h.xu, h.root)
	h.bound = h.bound[:0]

	errs := []error{parseErr}
	for _, b := range bindings {
		if err := h.register(b); err != nil {
			errs = append(errs, fmt.Errorf("keybind %s: %w", b.Keys, err))
			continue
		}
		h.bound = append(h.bound, b)
	}
	h.logger.Info("hotkeys bound", "count", len(h.bound))
	return errors.Join(errs...)
}

// Bound returns the bindings currently grabbed.
func (h *Handler) Bound() []Binding {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Binding(nil), h.bound...)
}

func (h *Handler) register(b Binding) error {
	return keybind.KeyPressFun(func(xu *xgbutil.XUtil, ev xevent.KeyPressEvent) {
		h.logger.Debug("hotkey pressed", "keys", b.Keys, "action", b.Action)
		if resp := ipc.Dispatch(h.ctrl, b.Request); resp.Status != "OK" {
			h.logger.Warn("hotkey action failed", "keys", b.Keys, "action", b.Action, "error", resp.Error)
		}
	}).Connect(h.xu, h.root, b.Keys, true)
}

func configureIgnoreMods(xu *xgbutil.XUtil) {
	// Always ignore CapsLock.
	caps := uint16(xproto.ModMaskLock)

	numLock := modMaskForKeysym(xu, "Num_Lock")
	scrollLock := modMaskForKeysym(xu, "Scroll_Lock")

	unique := make(map[uint16]struct{})
	add := func(mask uint16) {
		unique[mask] = struct{}{}
	}

	add(0)
	base := []uint16{caps}
	if numLock != 0 && numLock != caps {
		base = append(base, numLock)
	}
	if scrollLock != 0 && scrollLock != caps && scrollLock != numLock {
		base = append(base, scrollLock)
	}

	for subset := 1; subset < (1 << len(base)); subset++ {
		var mask uint16
		for bit := range base {
			if subset&(1<<bit) != 0 {
				mask |= base[bit]
			}
		}
		add(mask)
	}

	ignore := make([]uint16, 0, len(unique))
	for mask := range unique {
		ignore = append(ignore, mask)
	}

	xevent.IgnoreMods = ignore
}

func modMaskForKeysym(xu *xgbutil.XUtil, keysym string) uint16 {
	for _, keycode := range keybind.StrToKeycodes(xu, keysym) {
		if mask := keybind.ModGet(xu, keycode); mask != 0 {
			return mask
		}
	}
	return 0
}
