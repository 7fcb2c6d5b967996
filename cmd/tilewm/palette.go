package main

import (
	"github.com/spf13/cobra"

	"github.com/1broseidon/tilewm/internal/config"
	"github.com/1broseidon/tilewm/internal/palette"
)

func (c *cli) paletteCommand() *cobra.Command {
	var backendName string
	var fuzzy bool
	cmd := &cobra.Command{
		Use:   "palette",
		Short: "Pick a tiling action from rofi, fuzzel, wofi or dmenu",
		Long: `Pick a tiling action from an external launcher and send it to the daemon.
Bind it to a key in your window manager for a searchable command menu.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := palette.NewBackend(backendName)
			if err != nil {
				return err
			}
			if f, ok := backend.(interface{ SetFuzzyMatching(bool) }); ok {
				f.SetFuzzyMatching(fuzzy)
			}
			return c.runPalette(backend)
		},
	}
	cmd.Flags().StringVar(&backendName, "backend", "auto", "launcher: auto, rofi, fuzzel, wofi or dmenu")
	cmd.Flags().BoolVar(&fuzzy, "fuzzy", false, "use fuzzy matching (rofi only)")
	return cmd
}

func (c *cli) runPalette(backend palette.Backend) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	status, err := c.client().GetStatus()
	if err != nil {
		return err
	}

	items := palette.Actions(status, palette.KeysByAction(cfg.Bindings()))
	action, err := palette.Pick(backend, "tilewm", items)
	if palette.IsCancelled(err) {
		return nil
	}
	if err != nil {
		return err
	}
	c.logger.Debug("palette action", "action", action)
	return c.do(action)
}
