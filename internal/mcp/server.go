// Package mcp exposes the tiling daemon to MCP clients over stdio.
package mcp

import (
	"context"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/tilewm/internal/ipc"
)

const (
	ServerName    = "tilewm"
	ServerVersion = "0.1.0"
)

// Daemon is the part of the IPC client the tools forward to.
type Daemon interface {
	GetStatus() (*ipc.StatusData, error)
	SetLayout(layout string) error
	AdjustMasterCount(delta int) error
	AdjustMasterFactor(delta float64) error
	SwitchWorkspace(workspace int) error
	Focus(target string) error
	Retile() error
	Balance() error
}

var _ Daemon = (*ipc.Client)(nil)

// Server is the MCP server for layout control.
type Server struct {
	mcpServer *mcpsdk.Server
	daemon    Daemon
	logger    *slog.Logger
}

// NewServer creates an MCP server forwarding tool calls to daemon.
func NewServer(daemon Daemon, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{daemon: daemon, logger: logger}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_layout_status",
		Description: "Report the active workspace, the current layout algorithm, gap and master settings, and the rectangle assigned to every tiled window on each monitor.",
	}, s.handleGetLayoutStatus)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "set_layout",
		Description: "Switch the tiling algorithm to dwindle (recursive binary splits) or master (master column plus stack) and retile the active workspace.",
	}, s.handleSetLayout)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "adjust_master",
		Description: "Change the master layout: count_delta adds or removes one master window (+1 or -1), factor_delta shifts the master width share (for example 0.05). At least one must be non-zero.",
	}, s.handleAdjustMaster)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "switch_workspace",
		Description: "Hide the windows of the active workspace and show those of the given workspace.",
	}, s.handleSwitchWorkspace)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "focus_window",
		Description: "Move keyboard focus among the tiled windows of the active workspace: left, right, up or down to the nearest neighbour, or next and prev in layout order.",
	}, s.handleFocusWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "retile",
		Description: "Rebuild the layout of the active workspace from the current window list.",
	}, s.handleRetile)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "balance",
		Description: "Reset every split on the active workspace to an even ratio.",
	}, s.handleBalance)
}
