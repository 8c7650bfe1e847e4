package protocol

import (
	"encoding/json"

	"github.com/google/uuid"
)

// ToolKind names the behavior a tool definition dispatches to.
type ToolKind string

const (
	ToolKindFsRead    ToolKind = "fs_read"
	ToolKindFsWrite   ToolKind = "fs_write"
	ToolKindShellExec ToolKind = "shell_exec"
)

// ToolDefinition describes a registered tool: its name, the capabilities
// it always requires, and which kind of built-in handler executes it.
type ToolDefinition struct {
	Name                 string       `json:"name"`
	Description          string       `json:"description"`
	RequiredCapabilities []Capability `json:"required_capabilities"`
	Kind                 ToolKind     `json:"kind"`
}

// ToolCall is a tool invocation request carrying the caller-claimed
// capabilities in addition to whatever the registry's definition requires.
type ToolCall struct {
	CallID                  string          `json:"call_id"`
	ToolName                string          `json:"tool_name"`
	Input                   json.RawMessage `json:"input"`
	RequestedCapabilities   []Capability    `json:"requested_capabilities,omitempty"`
}

// NewToolCall mints a ToolCall with a random call id.
func NewToolCall(name string, input json.RawMessage, requested []Capability) ToolCall {
	return ToolCall{
		CallID:                uuid.NewString(),
		ToolName:              name,
		Input:                 input,
		RequestedCapabilities: requested,
	}
}

// ToolOutcome is the tagged result of a tool execution.
type ToolOutcome struct {
	Status string          `json:"status"` // "success" | "failure"
	Output json.RawMessage `json:"output,omitempty"`
	Error  string          `json:"error,omitempty"`
}

func SuccessOutcome(output json.RawMessage) ToolOutcome {
	return ToolOutcome{Status: "success", Output: output}
}

func FailureOutcome(errText string) ToolOutcome {
	return ToolOutcome{Status: "failure", Error: errText}
}
