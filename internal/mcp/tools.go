package mcp

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/tilewm/internal/ipc"
	"github.com/1broseidon/tilewm/internal/tiling"
)

func (s *Server) handleGetLayoutStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, ipc.StatusData, error) {
	status, err := s.daemon.GetStatus()
	if err != nil {
		return nil, ipc.StatusData{}, err
	}
	return nil, *status, nil
}

func (s *Server) handleSetLayout(_ context.Context, _ *mcpsdk.CallToolRequest, args SetLayoutInput) (*mcpsdk.CallToolResult, SetLayoutOutput, error) {
	layout, err := tiling.ParseLayoutType(args.Layout)
	if err != nil {
		return nil, SetLayoutOutput{}, err
	}
	if err := s.daemon.SetLayout(layout.String()); err != nil {
		return nil, SetLayoutOutput{}, err
	}
	s.logger.Info("mcp: layout set", "layout", layout)
	return nil, SetLayoutOutput{Layout: layout.String()}, nil
}

func (s *Server) handleAdjustMaster(_ context.Context, _ *mcpsdk.CallToolRequest, args AdjustMasterInput) (*mcpsdk.CallToolResult, AdjustMasterOutput, error) {
	if args.CountDelta == 0 && args.FactorDelta == 0 {
		return nil, AdjustMasterOutput{}, errors.New("count_delta or factor_delta must be non-zero")
	}
	if args.CountDelta < -1 || args.CountDelta > 1 {
		return nil, AdjustMasterOutput{}, fmt.Errorf("count_delta must be -1, 0 or +1, got %d", args.CountDelta)
	}
	if math.Abs(args.FactorDelta) > 0.8 {
		return nil, AdjustMasterOutput{}, fmt.Errorf("factor_delta %v out of range", args.FactorDelta)
	}

	if args.CountDelta != 0 {
		if err := s.daemon.AdjustMasterCount(args.CountDelta); err != nil {
			return nil, AdjustMasterOutput{}, err
		}
	}
	if args.FactorDelta != 0 {
		if err := s.daemon.AdjustMasterFactor(args.FactorDelta); err != nil {
			return nil, AdjustMasterOutput{}, err
		}
	}

	status, err := s.daemon.GetStatus()
	if err != nil {
		return nil, AdjustMasterOutput{}, err
	}
	return nil, AdjustMasterOutput{MasterCount: status.MasterCount, MasterFactor: status.MasterFactor}, nil
}

func (s *Server) handleSwitchWorkspace(_ context.Context, _ *mcpsdk.CallToolRequest, args SwitchWorkspaceInput) (*mcpsdk.CallToolResult, SwitchWorkspaceOutput, error) {
	if args.Workspace < 1 {
		return nil, SwitchWorkspaceOutput{}, fmt.Errorf("workspace must be at least 1, got %d", args.Workspace)
	}
	if err := s.daemon.SwitchWorkspace(args.Workspace); err != nil {
		return nil, SwitchWorkspaceOutput{}, err
	}
	return nil, SwitchWorkspaceOutput{Workspace: args.Workspace}, nil
}

func (s *Server) handleFocusWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args FocusWindowInput) (*mcpsdk.CallToolResult, ActionOutput, error) {
	target := strings.ToLower(strings.TrimSpace(args.Direction))
	if target != "next" && target != "prev" {
		if _, err := tiling.ParseDirection(target); err != nil {
			return nil, ActionOutput{}, err
		}
	}
	if err := s.daemon.Focus(target); err != nil {
		return nil, ActionOutput{}, err
	}
	return nil, ActionOutput{Done: true}, nil
}

func (s *Server) handleRetile(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, ActionOutput, error) {
	if err := s.daemon.Retile(); err != nil {
		return nil, ActionOutput{}, err
	}
	return nil, ActionOutput{Done: true}, nil
}

func (s *Server) handleBalance(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, ActionOutput, error) {
	if err := s.daemon.Balance(); err != nil {
		return nil, ActionOutput{}, err
	}
	return nil, ActionOutput{Done: true}, nil
}
