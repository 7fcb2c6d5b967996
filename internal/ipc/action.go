package ipc

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/1broseidon/tilewm/internal/tiling"
)

var bareActions = map[string]CommandType{
	"retile":  CommandRetile,
	"balance": CommandBalance,
	"reload":  CommandReload,
}

// windowActions act on the active window.
var windowActions = map[string]CommandType{
	"float":      CommandToggleFloating,
	"fullscreen": CommandToggleFullscreen,
}

// ParseAction turns a keybind action such as "layout master" or
// "master-factor +0.05" into a request.
func ParseAction(action string) (*Request, error) {
	fields := strings.Fields(strings.ToLower(action))
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty action")
	}
	name, args := fields[0], fields[1:]

	if cmd, ok := bareActions[name]; ok {
		if len(args) != 0 {
			return nil, fmt.Errorf("%s takes no arguments", name)
		}
		return mustRequest(cmd, nil), nil
	}
	if cmd, ok := windowActions[name]; ok {
		if len(args) != 0 {
			return nil, fmt.Errorf("%s takes no arguments", name)
		}
		return mustRequest(cmd, WindowPayload{}), nil
	}

	if len(args) != 1 {
		return nil, fmt.Errorf("%s takes exactly one argument", name)
	}
	arg := args[0]

	switch name {
	case "layout":
		layout, err := tiling.ParseLayoutType(arg)
		if err != nil {
			return nil, err
		}
		return mustRequest(CommandSetLayout, SetLayoutPayload{Layout: layout.String()}), nil

	case "master-count":
		delta, err := strconv.Atoi(arg)
		if err != nil || (delta != 1 && delta != -1) {
			return nil, fmt.Errorf("master-count expects +1 or -1, got %q", arg)
		}
		return mustRequest(CommandMasterCount, MasterCountPayload{Delta: delta}), nil

	case "master-factor":
		delta, err := strconv.ParseFloat(arg, 64)
		if err != nil || delta == 0 || math.Abs(delta) > 0.8 || math.IsNaN(delta) {
			return nil, fmt.Errorf("master-factor expects a non-zero delta within ±0.8, got %q", arg)
		}
		return mustRequest(CommandMasterFactor, MasterFactorPayload{Delta: delta}), nil

	case "workspace", "move-to-workspace", "move-to-workspace-follow":
		n, err := strconv.Atoi(arg)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("%s expects a workspace number >= 1, got %q", name, arg)
		}
		if name == "workspace" {
			return mustRequest(CommandSwitchWorkspace, WorkspacePayload{Workspace: n}), nil
		}
		return mustRequest(CommandMoveToWorkspace, WorkspacePayload{
			Workspace: n,
			Follow:    name == "move-to-workspace-follow",
		}), nil

	case "focus":
		if err := validateFocusTarget(arg); err != nil {
			return nil, err
		}
		return mustRequest(CommandFocus, FocusPayload{Direction: arg}), nil
	}

	return nil, fmt.Errorf("unknown action %q", name)
}

func validateFocusTarget(target string) error {
	if target == "next" || target == "prev" {
		return nil
	}
	_, err := tiling.ParseDirection(target)
	return err
}
