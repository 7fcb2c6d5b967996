package palette

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/1broseidon/tilewm/internal/ipc"
)

// Actions builds the palette rows for the daemon's current state. Bound
// keys, keyed by action, are shown next to their action and indexed for
// search.
func Actions(status *ipc.StatusData, keysByAction map[string]string) []Item {
	row := func(label, action, icon string, active bool) Item {
		item := Item{Label: label, Action: action, Icon: icon, Meta: action, IsActive: active}
		if key, ok := keysByAction[action]; ok {
			item.Label = fmt.Sprintf("%s  [%s]", label, key)
			item.Meta = action + " " + key
		}
		return item
	}

	items := []Item{
		{Label: "Layout", IsHeader: true},
		row("Dwindle", "layout dwindle", "view-grid", status.Layout == "dwindle"),
		row("Master", "layout master", "view-split-left-right", status.Layout == "master"),
		row("Balance splits", "balance", "zoom-fit-best", false),
		row("Retile", "retile", "view-refresh", false),

		{Label: "Master", IsHeader: true},
		row("Add master window", "master-count +1", "list-add", false),
		row("Remove master window", "master-count -1", "list-remove", false),
		row("Grow master area", "master-factor +0.05", "go-next", false),
		row("Shrink master area", "master-factor -0.05", "go-previous", false),

		{Label: "Window", IsHeader: true},
		row("Toggle floating", "float", "window-new", false),
		row("Toggle fullscreen", "fullscreen", "view-fullscreen", false),
		row("Focus left", "focus left", "go-previous", false),
		row("Focus right", "focus right", "go-next", false),
		row("Focus up", "focus up", "go-up", false),
		row("Focus down", "focus down", "go-down", false),
		row("Focus next window", "focus next", "go-last", false),
		row("Focus previous window", "focus prev", "go-first", false),
	}

	items = append(items, Item{Label: "Workspace", IsHeader: true})
	for n := 1; n <= status.Workspaces; n++ {
		ws := strconv.Itoa(n)
		items = append(items, row("Switch to workspace "+ws, "workspace "+ws, "go-jump", n == status.ActiveWorkspace))
	}
	for n := 1; n <= status.Workspaces; n++ {
		if n == status.ActiveWorkspace {
			continue
		}
		ws := strconv.Itoa(n)
		items = append(items, row("Move window to workspace "+ws, "move-to-workspace "+ws, "go-jump", false))
	}
	for n := 1; n <= status.Workspaces; n++ {
		if n == status.ActiveWorkspace {
			continue
		}
		ws := strconv.Itoa(n)
		items = append(items, row("Move window and follow to workspace "+ws, "move-to-workspace-follow "+ws, "go-jump", false))
	}

	items = append(items,
		Item{Label: "Daemon", IsHeader: true},
		row("Reload configuration", "reload", "document-revert", false),
	)
	return items
}

// KeysByAction inverts a key to action binding map. When several keys share
// an action the alphabetically first one wins.
func KeysByAction(bindings map[string]string) map[string]string {
	keys := make([]string, 0, len(bindings))
	for key := range bindings {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make(map[string]string, len(bindings))
	for _, key := range keys {
		action := bindings[key]
		if _, ok := out[action]; !ok {
			out[action] = key
		}
	}
	return out
}

// Pick shows items until a selectable row is chosen and returns its action.
// Some launchers cannot block header rows, so picking one re-shows the list.
func Pick(b Backend, prompt string, items []Item) (string, error) {
	for {
		item, err := b.Show(prompt, items)
		if err != nil {
			return "", err
		}
		if item.IsHeader || item.Action == "" {
			continue
		}
		return item.Action, nil
	}
}

// IsCancelled reports whether err means the user dismissed the palette.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}
