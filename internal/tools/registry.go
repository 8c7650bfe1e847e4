// Package tools implements the tool registry and dispatcher: capability
// union of tool-required and caller-requested capabilities, policy
// evaluation, path-safety checks, and execution of the three built-in
// tools against the workspace and sandbox runner.
package tools

import (
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/broomva/aios/pkg/protocol"
)

// Registry holds tool definitions and their optional input schemas.
type Registry struct {
	mu      sync.RWMutex
	tools   map[string]protocol.ToolDefinition
	schemas map[string]*jsonschema.Schema
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tools:   make(map[string]protocol.ToolDefinition),
		schemas: make(map[string]*jsonschema.Schema),
	}
}

// Register adds a tool definition, optionally with a compiled input schema.
func (r *Registry) Register(def protocol.ToolDefinition, schema *jsonschema.Schema) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[def.Name] = def
	if schema != nil {
		r.schemas[def.Name] = schema
	}
}

// Get looks up a tool definition by name.
func (r *Registry) Get(name string) (protocol.ToolDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.tools[name]
	return def, ok
}

// Schema returns the compiled input schema for name, if one was registered.
func (r *Registry) Schema(name string) (*jsonschema.Schema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.schemas[name]
	return s, ok
}

// Definitions returns all registered tool definitions.
func (r *Registry) Definitions() []protocol.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]protocol.ToolDefinition, 0, len(r.tools))
	for _, d := range r.tools {
		out = append(out, d)
	}
	return out
}

const (
	ToolFsRead    = "fs.read"
	ToolFsWrite   = "fs.write"
	ToolShellExec = "shell.exec"
)

var builtinSchemas = map[string]string{
	ToolFsRead: `{
		"type": "object",
		"properties": {"path": {"type": "string"}},
		"required": ["path"]
	}`,
	ToolFsWrite: `{
		"type": "object",
		"properties": {"path": {"type": "string"}, "content": {"type": "string"}},
		"required": ["path", "content"]
	}`,
	ToolShellExec: `{
		"type": "object",
		"properties": {
			"command": {"type": "string"},
			"args": {"type": "array", "items": {"type": "string"}}
		},
		"required": ["command"]
	}`,
}

// WithCoreTools registers the three mandatory built-ins: fs.read, fs.write,
// shell.exec, each with its required capability and compiled input schema
// (spec §4.4, ambient addition §4.4a in SPEC_FULL.md).
func WithCoreTools(r *Registry) error {
	defs := []protocol.ToolDefinition{
		{
			Name:                 ToolFsRead,
			Description:          "Read a file from the session workspace.",
			RequiredCapabilities: []protocol.Capability{protocol.CapFsRead("/session/**")},
			Kind:                 protocol.ToolKindFsRead,
		},
		{
			Name:                 ToolFsWrite,
			Description:          "Write a file under the session workspace's artifacts directory.",
			RequiredCapabilities: []protocol.Capability{protocol.CapFsWrite("/session/artifacts/**")},
			Kind:                 protocol.ToolKindFsWrite,
		},
		{
			Name:                 ToolShellExec,
			Description:          "Execute a shell command inside the sandbox runner.",
			RequiredCapabilities: []protocol.Capability{protocol.Capability("exec:cmd:*")},
			Kind:                 protocol.ToolKindShellExec,
		},
	}

	for _, def := range defs {
		compiler := jsonschema.NewCompiler()
		raw := builtinSchemas[def.Name]
		if err := compiler.AddResource(def.Name+".json", strings.NewReader(raw)); err != nil {
			return fmt.Errorf("add schema resource for %s: %w", def.Name, err)
		}
		schema, err := compiler.Compile(def.Name + ".json")
		if err != nil {
			return fmt.Errorf("compile schema for %s: %w", def.Name, err)
		}
		r.Register(def, schema)
	}
	return nil
}
