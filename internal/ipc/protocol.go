package ipc

import (
	"encoding/json"
	"fmt"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandSetLayout        CommandType = "SET_LAYOUT"
	CommandMasterCount      CommandType = "MASTER_COUNT"
	CommandMasterFactor     CommandType = "MASTER_FACTOR"
	CommandSwitchWorkspace  CommandType = "SWITCH_WORKSPACE"
	CommandMoveToWorkspace  CommandType = "MOVE_TO_WORKSPACE"
	CommandToggleFloating   CommandType = "TOGGLE_FLOATING"
	CommandToggleFullscreen CommandType = "TOGGLE_FULLSCREEN"
	CommandFocus            CommandType = "FOCUS"
	CommandRetile           CommandType = "RETILE"
	CommandBalance          CommandType = "BALANCE"
	CommandReload           CommandType = "RELOAD"
	CommandGetStatus        CommandType = "GET_STATUS"
	CommandListWindows      CommandType = "LIST_WINDOWS"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

type SetLayoutPayload struct {
	Layout string `json:"layout"`
}

type MasterCountPayload struct {
	Delta int `json:"delta"`
}

type MasterFactorPayload struct {
	Delta float64 `json:"delta"`
}

// WorkspacePayload carries the target of SWITCH_WORKSPACE and
// MOVE_TO_WORKSPACE. Window 0 means the active window. Follow makes a move
// also switch to the target workspace.
type WorkspacePayload struct {
	Workspace int    `json:"workspace"`
	Window    uint32 `json:"window,omitempty"`
	Follow    bool   `json:"follow,omitempty"`
}

// FocusPayload is left, right, up, down, next or prev.
type FocusPayload struct {
	Direction string `json:"direction"`
}

// WindowPayload names the window a command acts on; 0 means the active window.
type WindowPayload struct {
	Window uint32 `json:"window,omitempty"`
}

// PlacementInfo is one positioned window.
type PlacementInfo struct {
	Window uint32 `json:"window"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// MonitorStatus describes the layout slot of one monitor.
type MonitorStatus struct {
	Index      int             `json:"index"`
	Name       string          `json:"name,omitempty"`
	Layout     string          `json:"layout"`
	X          int             `json:"x"`
	Y          int             `json:"y"`
	Width      int             `json:"width"`
	Height     int             `json:"height"`
	Placements []PlacementInfo `json:"placements"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	ActiveWorkspace int             `json:"active_workspace"`
	Workspaces      int             `json:"workspaces"`
	Layout          string          `json:"layout"`
	Tiling          bool            `json:"tiling"`
	WindowCount     int             `json:"window_count"`
	TiledCount      int             `json:"tiled_count"`
	GapsIn          int             `json:"gaps_in"`
	GapsOut         int             `json:"gaps_out"`
	MasterFactor    float64         `json:"master_factor"`
	MasterCount     int             `json:"master_count"`
	Monitors        []MonitorStatus `json:"monitors"`
	UptimeSeconds   int64           `json:"uptime_seconds"`
	DaemonRunning   bool            `json:"daemon_running"`
}

// WindowInfo describes one managed window.
type WindowInfo struct {
	ID        uint32 `json:"id"`
	State     string `json:"state"`
	Workspace int    `json:"workspace"`
	Monitor   int    `json:"monitor"`
	Title     string `json:"title,omitempty"`
	Class     string `json:"class,omitempty"`
}

// WindowsData represents the data returned by LIST_WINDOWS
type WindowsData struct {
	Windows []WindowInfo `json:"windows"`
}

// FloatingData is returned by TOGGLE_FLOATING and TOGGLE_FULLSCREEN.
type FloatingData struct {
	Window uint32 `json:"window"`
	State  string `json:"state"`
}

// NewRequest builds a request, encoding payload when it is non-nil.
func NewRequest(cmd CommandType, payload any) (*Request, error) {
	req := &Request{Command: cmd}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s payload: %w", cmd, err)
		}
		req.Payload = data
	}
	return req, nil
}

func mustRequest(cmd CommandType, payload any) *Request {
	req, err := NewRequest(cmd, payload)
	if err != nil {
		panic(err)
	}
	return req
}

// Workspace returns the target workspace of a workspace command.
func (r *Request) Workspace() (int, bool) {
	if r == nil || (r.Command != CommandSwitchWorkspace && r.Command != CommandMoveToWorkspace) {
		return 0, false
	}
	var p WorkspacePayload
	if err := json.Unmarshal(r.Payload, &p); err != nil {
		return 0, false
	}
	return p.Workspace, true
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data any) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	if req.Command == "" {
		return nil, fmt.Errorf("failed to parse request: command is required")
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
