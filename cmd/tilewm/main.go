package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/1broseidon/tilewm/internal/ipc"
	"github.com/1broseidon/tilewm/internal/logging"
)

var version = "dev"

// cli holds the state shared by every command.
type cli struct {
	configPath string
	socketPath string
	verbose    bool

	logger *slog.Logger
	stdout io.Writer
}

func main() {
	if err := newRootCommand(&cli{stdout: os.Stdout}).ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCommand(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:          "tilewm",
		Short:        "Dwindle and master tiling for X11 window managers",
		Long:         "tilewm tiles the windows of an EWMH window manager using a dwindle (binary split) or master/stack layout, per workspace and per monitor.",
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, _, err := logging.New(logging.Options{Verbose: c.verbose, Output: cmd.ErrOrStderr()})
			if err != nil {
				return err
			}
			c.logger = logger
			return nil
		},
	}
	root.SetOut(c.stdout)

	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "config file (default ~/.config/tilewm/config.yaml)")
	root.PersistentFlags().StringVar(&c.socketPath, "socket", "", "daemon socket path (default $XDG_RUNTIME_DIR/tilewm.sock)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(c.daemonCommand())
	root.AddCommand(c.statusCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.masterCommand())
	root.AddCommand(c.workspaceCommand())
	root.AddCommand(c.floatCommand())
	root.AddCommand(c.fullscreenCommand())
	root.AddCommand(c.focusCommand())
	root.AddCommand(c.windowsCommand())
	root.AddCommand(c.retileCommand())
	root.AddCommand(c.reloadCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.paletteCommand())
	root.AddCommand(c.mcpCommand())

	return root
}

func (c *cli) client() *ipc.Client {
	if c.socketPath != "" {
		return ipc.NewClientAt(c.socketPath)
	}
	return ipc.NewClient()
}

func (c *cli) printf(format string, args ...any) {
	fmt.Fprintf(c.stdout, format, args...)
}
