package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/1broseidon/tilewm/internal/ipc"
)

// do sends the command an action string describes, the same strings used
// for keybinds.
func (c *cli) do(action string) error {
	req, err := ipc.ParseAction(action)
	if err != nil {
		return err
	}
	_, err = c.client().Do(req)
	return err
}

func (c *cli) layoutCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Change the layout of the active workspace",
	}

	cmd.AddCommand(&cobra.Command{
		Use:       "set <dwindle|master>",
		Short:     "Switch the layout algorithm and retile",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"dwindle", "master"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.do("layout " + args[0])
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "balance",
		Short: "Reset every split ratio to an even share",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.do("balance")
		},
	})

	return cmd
}

// countArg maps the friendly spellings of a master count change onto the
// action argument. Negative numbers must follow "--".
func countArg(arg string) string {
	switch strings.ToLower(arg) {
	case "inc", "up", "1":
		return "+1"
	case "dec", "down":
		return "-1"
	}
	return arg
}

// factorArg does the same for master factor changes.
func factorArg(arg string) string {
	switch strings.ToLower(arg) {
	case "grow":
		return "+0.05"
	case "shrink":
		return "-0.05"
	}
	return arg
}

func (c *cli) masterCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "master",
		Short: "Adjust the master layout",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "count <inc|dec|+1|-- -1>",
		Short: "Add or remove a master window",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.do("master-count " + countArg(args[0]))
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "factor <grow|shrink|+DELTA|-- -DELTA>",
		Short: "Shift the master width share",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.do("master-factor " + factorArg(args[0]))
		},
	})

	return cmd
}

func (c *cli) workspaceCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workspace",
		Short: "Switch workspaces and move windows between them",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "switch <N>",
		Short: "Show workspace N",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.do("workspace " + args[0])
		},
	})

	var (
		window uint32
		follow bool
	)
	move := &cobra.Command{
		Use:   "move <N>",
		Short: "Move a window (the focused one by default) to workspace N",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 1 {
				return fmt.Errorf("invalid workspace %q", args[0])
			}
			return c.client().MoveToWorkspace(window, n, follow)
		},
	}
	move.Flags().Uint32VarP(&window, "window", "w", 0, "window id (default: focused window)")
	move.Flags().BoolVarP(&follow, "follow", "f", false, "switch to workspace N as well")
	cmd.AddCommand(move)

	return cmd
}

func (c *cli) floatCommand() *cobra.Command {
	return c.toggleCommand("float", "Toggle a window (the focused one by default) between tiled and floating",
		func(client *ipc.Client, window uint32) (*ipc.FloatingData, error) {
			return client.ToggleFloating(window)
		})
}

func (c *cli) fullscreenCommand() *cobra.Command {
	return c.toggleCommand("fullscreen", "Toggle fullscreen on a window (the focused one by default)",
		func(client *ipc.Client, window uint32) (*ipc.FloatingData, error) {
			return client.ToggleFullscreen(window)
		})
}

func (c *cli) toggleCommand(use, short string, toggle func(*ipc.Client, uint32) (*ipc.FloatingData, error)) *cobra.Command {
	var window uint32
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := toggle(c.client(), window)
			if err != nil {
				return err
			}
			c.printf("window %d: %s\n", data.Window, data.State)
			return nil
		},
	}
	cmd.Flags().Uint32VarP(&window, "window", "w", 0, "window id (default: focused window)")
	return cmd
}

func (c *cli) focusCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "focus <left|right|up|down|next|prev>",
		Short:     "Move focus between the tiled windows of the active workspace",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"left", "right", "up", "down", "next", "prev"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.do("focus " + args[0])
		},
	}
}

func (c *cli) windowsCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "windows",
		Short: "List managed windows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := c.client().ListWindows()
			if err != nil {
				return err
			}
			if asJSON || !isTerminal(c.stdout) {
				return writeJSON(c.stdout, data)
			}
			c.printf("%s", renderWindows(data))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON even on a terminal")
	return cmd
}

func (c *cli) retileCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "retile",
		Short: "Rebuild the layout of the active workspace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.do("retile")
		},
	}
}

func (c *cli) reloadCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Make the daemon re-read its configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.do("reload")
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}
