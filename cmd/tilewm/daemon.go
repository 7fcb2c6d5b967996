package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/1broseidon/tilewm/internal/config"
	"github.com/1broseidon/tilewm/internal/daemon"
	"github.com/1broseidon/tilewm/internal/hotkeys"
	"github.com/1broseidon/tilewm/internal/ipc"
	"github.com/1broseidon/tilewm/internal/logging"
	"github.com/1broseidon/tilewm/internal/platform"
	"github.com/1broseidon/tilewm/internal/runtimepath"
)

func (c *cli) daemonCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run the tiling daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDaemon(cmd.Context())
		},
	}
}

func (c *cli) runDaemon(ctx context.Context) error {
	res, err := config.LoadWithSources(c.configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg := res.Config

	logCfg := cfg.GetLoggingConfig()
	logger, closeLog, err := logging.New(logging.Options{
		Level:     logCfg.Level,
		Verbose:   c.verbose,
		File:      logCfg.File,
		MaxSizeMB: logCfg.MaxSizeMB,
		MaxFiles:  logCfg.MaxFiles,
	})
	if err != nil {
		return err
	}
	defer closeLog()
	logger.Info("configuration loaded", "path", res.Path, "exists", res.Exists, "layout", cfg.DefaultLayout, "workspaces", cfg.Workspaces)

	backend, err := platform.NewLinuxBackendFromDisplay()
	if err != nil {
		return fmt.Errorf("failed to connect to display: %w", err)
	}
	defer backend.Disconnect()

	statePath, err := runtimepath.StatePath()
	if err != nil {
		logger.Warn("window state will not persist", "error", err)
		statePath = ""
	}

	var keys *hotkeys.Handler
	d := daemon.New(backend, cfg, daemon.Options{
		ConfigPath: res.Path,
		StatePath:  statePath,
		Logger:     logger,
		OnReload: func(newCfg *config.Config) {
			if keys == nil {
				return
			}
			// Reload may run on the event loop; grab keys off it.
			go func() {
				if err := keys.Bind(newCfg.Bindings()); err != nil {
					logger.Warn("some hotkeys were not bound", "error", err)
				}
			}()
		},
	})

	keys, err = hotkeys.NewHandler(backend, d, logger.With("component", "hotkeys"))
	if err != nil {
		return err
	}
	if err := keys.Bind(cfg.Bindings()); err != nil {
		logger.Warn("some hotkeys were not bound", "error", err)
	}

	if err := d.Start(); err != nil {
		return fmt.Errorf("failed to start daemon: %w", err)
	}
	defer d.Shutdown()

	var server *ipc.Server
	if c.socketPath != "" {
		server = ipc.NewServerAt(c.socketPath, d, logger)
	} else if server, err = ipc.NewServer(d, logger); err != nil {
		return fmt.Errorf("failed to create IPC server: %w", err)
	}
	if err := server.Start(); err != nil {
		return fmt.Errorf("failed to start IPC server: %w", err)
	}
	defer server.Stop()

	if err := backend.WatchClientList(func() {
		if err := d.Sync(); err != nil {
			logger.Warn("sync failed", "error", err)
		}
	}); err != nil {
		logger.Warn("client list changes not watched; relying on the reconciler", "error", err)
	}

	reconciler := daemon.NewReconciler(daemon.ReconcilerConfig{
		Interval: cfg.ReconcileInterval(),
		Logger:   logger.With("component", "reconciler"),
	}, d)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go reconciler.Run(ctx)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case sig := <-sigCh:
				if sig == syscall.SIGHUP {
					logger.Info("received SIGHUP, reloading config")
					if err := d.Reload(); err != nil {
						logger.Error("config reload failed", "error", err)
						continue
					}
					if err := d.Retile(); err != nil {
						logger.Warn("retile after reload failed", "error", err)
					}
					continue
				}
				logger.Info("shutting down", "signal", sig.String())
				cancel()
				backend.StopEventLoop()
				return
			}
		}
	}()

	logger.Info("entering event loop")
	backend.EventLoop()
	return nil
}
