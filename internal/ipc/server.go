package ipc

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"

	"github.com/1broseidon/tilewm/internal/runtimepath"
	"github.com/1broseidon/tilewm/internal/tiling"
)

// Controller is the daemon side of every command.
type Controller interface {
	SetLayout(layout tiling.LayoutType) error
	AdjustMasterCount(delta int) error
	AdjustMasterFactor(delta float64) error
	SwitchWorkspace(workspace int) error
	// MoveToWorkspace and the toggles act on the active window when
	// window is 0.
	MoveToWorkspace(window uint32, workspace int, follow bool) error
	ToggleFloating(window uint32) (*FloatingData, error)
	ToggleFullscreen(window uint32) (*FloatingData, error)
	FocusDirection(dir tiling.Direction) error
	// FocusCycle moves focus delta steps through the tiled windows of the
	// active workspace.
	FocusCycle(delta int) error
	// Retile retiles the active workspace.
	Retile() error
	Balance() error
	Reload() error
	Status() (*StatusData, error)
	Windows() (*WindowsData, error)
}

// Dispatch runs req against ctrl. Commands that change layout parameters
// or the tiled set are followed by a retile of the active workspace.
func Dispatch(ctrl Controller, req *Request) *Response {
	if req == nil {
		return NewErrorResponse("empty request")
	}

	var (
		data   any
		err    error
		retile bool
	)

	switch req.Command {
	case CommandSetLayout:
		var p SetLayoutPayload
		if err = decodePayload(req, &p); err != nil {
			break
		}
		var layout tiling.LayoutType
		if layout, err = tiling.ParseLayoutType(p.Layout); err != nil {
			break
		}
		err = ctrl.SetLayout(layout)
		retile = true
	case CommandMasterCount:
		var p MasterCountPayload
		if err = decodePayload(req, &p); err != nil {
			break
		}
		if p.Delta == 0 {
			err = errors.New("delta must be non-zero")
			break
		}
		err = ctrl.AdjustMasterCount(p.Delta)
		retile = true
	case CommandMasterFactor:
		var p MasterFactorPayload
		if err = decodePayload(req, &p); err != nil {
			break
		}
		err = ctrl.AdjustMasterFactor(p.Delta)
		retile = true
	case CommandSwitchWorkspace:
		var p WorkspacePayload
		if err = decodePayload(req, &p); err != nil {
			break
		}
		err = ctrl.SwitchWorkspace(p.Workspace)
	case CommandMoveToWorkspace:
		var p WorkspacePayload
		if err = decodePayload(req, &p); err != nil {
			break
		}
		err = ctrl.MoveToWorkspace(p.Window, p.Workspace, p.Follow)
		retile = true
	case CommandToggleFloating:
		var p WindowPayload
		if err = decodeOptionalPayload(req, &p); err != nil {
			break
		}
		data, err = ctrl.ToggleFloating(p.Window)
		retile = true
	case CommandToggleFullscreen:
		var p WindowPayload
		if err = decodeOptionalPayload(req, &p); err != nil {
			break
		}
		data, err = ctrl.ToggleFullscreen(p.Window)
		retile = true
	case CommandFocus:
		var p FocusPayload
		if err = decodePayload(req, &p); err != nil {
			break
		}
		err = focus(ctrl, p.Direction)
	case CommandRetile:
		err = ctrl.Retile()
	case CommandBalance:
		err = ctrl.Balance()
	case CommandReload:
		err = ctrl.Reload()
		retile = true
	case CommandGetStatus:
		data, err = ctrl.Status()
	case CommandListWindows:
		data, err = ctrl.Windows()
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}

	if err == nil && retile {
		err = ctrl.Retile()
	}
	if err != nil {
		return NewErrorResponse(err.Error())
	}

	resp, err := NewOKResponse(data)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

func decodePayload(req *Request, out any) error {
	if len(req.Payload) == 0 {
		return fmt.Errorf("%s requires a payload", req.Command)
	}
	if err := json.Unmarshal(req.Payload, out); err != nil {
		return fmt.Errorf("invalid %s payload: %w", req.Command, err)
	}
	return nil
}

// decodeOptionalPayload accepts a missing payload and leaves out zeroed.
func decodeOptionalPayload(req *Request, out any) error {
	if len(req.Payload) == 0 {
		return nil
	}
	return decodePayload(req, out)
}

func focus(ctrl Controller, target string) error {
	switch target {
	case "next":
		return ctrl.FocusCycle(1)
	case "prev":
		return ctrl.FocusCycle(-1)
	}
	dir, err := tiling.ParseDirection(target)
	if err != nil {
		return err
	}
	return ctrl.FocusDirection(dir)
}

// Server handles IPC requests from clients
type Server struct {
	socketPath   string
	listener     net.Listener
	ctrl         Controller
	logger       *slog.Logger
	wg           sync.WaitGroup
	shuttingDown bool
	shutdownMu   sync.Mutex
}

// NewServer creates a server on the runtime socket path.
func NewServer(ctrl Controller, logger *slog.Logger) (*Server, error) {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
	}
	return NewServerAt(socketPath, ctrl, logger), nil
}

// NewServerAt creates a server listening on socketPath.
func NewServerAt(socketPath string, ctrl Controller, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		socketPath: socketPath,
		ctrl:       ctrl,
		logger:     logger,
	}
}

// SocketPath returns the path the server listens on.
func (s *Server) SocketPath() string {
	return s.socketPath
}

// Start begins listening for IPC connections
func (s *Server) Start() error {
	// Remove a stale socket left by a crashed daemon.
	os.Remove(s.socketPath)

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.logger.Info("ipc server listening", "socket", s.socketPath)

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.stopping() {
				return
			}
			s.logger.Warn("ipc accept failed", "error", err)
			continue
		}

		go s.handleConnection(conn)
	}
}

func (s *Server) stopping() bool {
	s.shutdownMu.Lock()
	defer s.shutdownMu.Unlock()
	return s.shuttingDown
}

// handleConnection serves one newline-terminated JSON request.
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	data, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.logger.Warn("ipc read failed", "error", err)
		return
	}

	var resp *Response
	req, err := ParseRequest(data)
	if err != nil {
		resp = NewErrorResponse(fmt.Sprintf("Invalid request: %v", err))
	} else {
		s.logger.Debug("ipc request", "command", req.Command)
		resp = Dispatch(s.ctrl, req)
		if resp.Status != "OK" {
			s.logger.Warn("ipc command failed", "command", req.Command, "error", resp.Error)
		}
	}

	respData, err := resp.Marshal()
	if err != nil {
		s.logger.Error("failed to marshal response", "error", err)
		return
	}
	if _, err := conn.Write(append(respData, '\n')); err != nil {
		s.logger.Warn("failed to send response", "error", err)
	}
}

// Stop gracefully shuts down the IPC server
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
		s.wg.Wait()
	}
	os.Remove(s.socketPath)
}
