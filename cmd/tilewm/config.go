package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/1broseidon/tilewm/internal/config"
)

func (c *cli) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and validate the configuration file",
	}

	cmd.AddCommand(c.configValidateCommand())
	cmd.AddCommand(c.configPrintCommand())
	cmd.AddCommand(c.configPathCommand())
	cmd.AddCommand(c.configExplainCommand())

	return cmd
}

func (c *cli) configValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load the configuration and report the first problem",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := config.LoadWithSources(c.configPath)
			if err != nil {
				return err
			}
			if !res.Exists {
				c.printf("config: %s not found, using defaults\n", res.Path)
				return nil
			}
			c.printf("config: ok (%s)\n", res.Path)
			return nil
		},
	}
}

func (c *cli) configPrintCommand() *cobra.Command {
	var defaults bool
	var format string
	cmd := &cobra.Command{
		Use:   "print",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.DefaultConfig()
			if !defaults {
				loaded, err := config.Load(c.configPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}

			var f config.Format
			switch format {
			case "yaml":
				f = config.FormatYAML
			case "toml":
				f = config.FormatTOML
			default:
				return fmt.Errorf("unknown format %q (want yaml or toml)", format)
			}

			data, err := cfg.Marshal(f)
			if err != nil {
				return err
			}
			c.printf("%s", data)
			return nil
		},
	}
	cmd.Flags().BoolVar(&defaults, "defaults", false, "print built-in defaults instead of the loaded file")
	cmd.Flags().StringVar(&format, "format", "yaml", "output format: yaml or toml")
	return cmd
}

func (c *cli) configPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := c.configPath
			if path == "" {
				def, err := config.DefaultConfigPath()
				if err != nil {
					return err
				}
				path = def
			}
			c.printf("%s\n", path)
			return nil
		},
	}
}

func (c *cli) configExplainCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "explain <key.path>",
		Short: "Show a setting's effective value and where it was set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := config.LoadWithSources(c.configPath)
			if err != nil {
				return err
			}
			value, src, err := config.Explain(res, args[0])
			if err != nil {
				return err
			}
			out, err := yaml.Marshal(value)
			if err != nil {
				return err
			}
			c.printf("path: %s\n", args[0])
			c.printf("source: %s\n", src)
			c.printf("value: %s", out)
			return nil
		},
	}
}
