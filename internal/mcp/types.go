package mcp

// EmptyInput is the input for tools without arguments.
type EmptyInput struct{}

// SetLayoutInput is the input for the set_layout tool.
type SetLayoutInput struct {
	Layout string `json:"layout" jsonschema:"Layout algorithm: dwindle or master"`
}

// SetLayoutOutput is the output for the set_layout tool.
type SetLayoutOutput struct {
	Layout string `json:"layout"`
}

// AdjustMasterInput is the input for the adjust_master tool.
type AdjustMasterInput struct {
	CountDelta  int     `json:"count_delta,omitempty" jsonschema:"Change in master window count: +1, -1 or 0"`
	FactorDelta float64 `json:"factor_delta,omitempty" jsonschema:"Change in master width share, between -0.8 and 0.8"`
}

// AdjustMasterOutput is the output for the adjust_master tool.
type AdjustMasterOutput struct {
	MasterCount  int     `json:"master_count"`
	MasterFactor float64 `json:"master_factor"`
}

// SwitchWorkspaceInput is the input for the switch_workspace tool.
type SwitchWorkspaceInput struct {
	Workspace int `json:"workspace" jsonschema:"Workspace number, starting at 1"`
}

// SwitchWorkspaceOutput is the output for the switch_workspace tool.
type SwitchWorkspaceOutput struct {
	Workspace int `json:"workspace"`
}

// FocusWindowInput is the input for the focus_window tool.
type FocusWindowInput struct {
	Direction string `json:"direction" jsonschema:"One of left, right, up, down, next or prev"`
}

// ActionOutput is the output for tools that only report success.
type ActionOutput struct {
	Done bool `json:"done"`
}
