package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/1broseidon/tilewm/internal/runtimepath"
)

// Client handles IPC communication with the daemon
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a client for the runtime socket path.
func NewClient() *Client {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		// Keep constructor non-failing; Do surfaces connection errors.
		socketPath = ""
	}
	return NewClientAt(socketPath)
}

// NewClientAt creates a client for socketPath.
func NewClientAt(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

// Do sends a request and waits for the response. An ERROR response is
// returned as an error.
func (c *Client) Do(req *Request) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	if _, err := conn.Write(append(reqData, '\n')); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	respData, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if resp.Status == "ERROR" {
		return nil, fmt.Errorf("daemon error: %s", resp.Error)
	}
	return &resp, nil
}

func (c *Client) send(cmd CommandType, payload any) (*Response, error) {
	req, err := NewRequest(cmd, payload)
	if err != nil {
		return nil, err
	}
	return c.Do(req)
}

func (c *Client) exec(cmd CommandType, payload any) error {
	_, err := c.send(cmd, payload)
	return err
}

// SetLayout switches the layout algorithm and retiles.
func (c *Client) SetLayout(layout string) error {
	return c.exec(CommandSetLayout, SetLayoutPayload{Layout: layout})
}

// AdjustMasterCount changes the number of master windows by delta.
func (c *Client) AdjustMasterCount(delta int) error {
	return c.exec(CommandMasterCount, MasterCountPayload{Delta: delta})
}

// AdjustMasterFactor changes the master area share by delta.
func (c *Client) AdjustMasterFactor(delta float64) error {
	return c.exec(CommandMasterFactor, MasterFactorPayload{Delta: delta})
}

// SwitchWorkspace makes workspace the active one.
func (c *Client) SwitchWorkspace(workspace int) error {
	return c.exec(CommandSwitchWorkspace, WorkspacePayload{Workspace: workspace})
}

// MoveToWorkspace sends window (0 for the active window) to workspace,
// switching there too when follow is set.
func (c *Client) MoveToWorkspace(window uint32, workspace int, follow bool) error {
	return c.exec(CommandMoveToWorkspace, WorkspacePayload{Workspace: workspace, Window: window, Follow: follow})
}

// ToggleFloating flips window (0 for the active window) between tiled and
// floating.
func (c *Client) ToggleFloating(window uint32) (*FloatingData, error) {
	return c.toggle(CommandToggleFloating, window)
}

// ToggleFullscreen flips window (0 for the active window) in and out of
// fullscreen.
func (c *Client) ToggleFullscreen(window uint32) (*FloatingData, error) {
	return c.toggle(CommandToggleFullscreen, window)
}

func (c *Client) toggle(cmd CommandType, window uint32) (*FloatingData, error) {
	resp, err := c.send(cmd, WindowPayload{Window: window})
	if err != nil {
		return nil, err
	}
	var data FloatingData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse window state: %w", err)
	}
	return &data, nil
}

// Focus moves focus left, right, up, down, next or prev.
func (c *Client) Focus(target string) error {
	return c.exec(CommandFocus, FocusPayload{Direction: target})
}

// Retile rebuilds the layout of the active workspace.
func (c *Client) Retile() error {
	return c.exec(CommandRetile, nil)
}

// Balance resets every split ratio on the active workspace.
func (c *Client) Balance() error {
	return c.exec(CommandBalance, nil)
}

// Reload sends a RELOAD command to the daemon
func (c *Client) Reload() error {
	return c.exec(CommandReload, nil)
}

// GetStatus retrieves daemon status
func (c *Client) GetStatus() (*StatusData, error) {
	resp, err := c.send(CommandGetStatus, nil)
	if err != nil {
		return nil, err
	}

	var status StatusData
	if err := json.Unmarshal(resp.Data, &status); err != nil {
		return nil, fmt.Errorf("failed to parse status data: %w", err)
	}
	return &status, nil
}

// ListWindows retrieves every managed window.
func (c *Client) ListWindows() (*WindowsData, error) {
	resp, err := c.send(CommandListWindows, nil)
	if err != nil {
		return nil, err
	}

	var windows WindowsData
	if err := json.Unmarshal(resp.Data, &windows); err != nil {
		return nil, fmt.Errorf("failed to parse windows data: %w", err)
	}
	return &windows, nil
}
