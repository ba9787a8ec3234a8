package mcp

// NoInput is the input of tools that take no arguments.
type NoInput struct{}

// SetHostPanelInput is the input for the set_host_panel tool.
type SetHostPanelInput struct {
	Action string `json:"action" jsonschema:"required,One of show, hide or restore. show and hide only change visibility; restore also puts back the host panel's original auto-hide and always-on-top state."`
}
