package tools

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/broomva/aios/internal/policyengine"
	"github.com/broomva/aios/internal/sandbox"
	"github.com/broomva/aios/pkg/protocol"
)

// Context carries the per-dispatch environment: the workspace root every
// fs operation is confined to, and the current dynamic gating profile.
type Context struct {
	WorkspaceRoot string
	Gating        protocol.GatingProfile
}

// ExecutedResult is returned for a tool that ran to completion.
type ExecutedResult struct {
	ToolRunID  protocol.ToolRunID
	ExitStatus int
	Outcome    protocol.ToolOutcome
	FilePath   string // non-empty if a file was mutated
}

// NeedsApprovalResult is returned when policy gates at least one capability.
type NeedsApprovalResult struct {
	ToolName   string
	Evaluation protocol.PolicyEvaluation
}

// DispatchResult is exactly one of Executed or NeedsApproval.
type DispatchResult struct {
	Executed       *ExecutedResult
	NeedsApproval  *NeedsApprovalResult
}

// Dispatcher looks up tool definitions, merges capabilities, evaluates
// policy, and executes the tool kind (spec §4.4).
type Dispatcher struct {
	Registry *Registry
	Policy   *policyengine.Engine
	Sandbox  sandbox.Runner
}

// NewDispatcher wires a registry, policy engine, and sandbox runner.
func NewDispatcher(registry *Registry, policy *policyengine.Engine, runner sandbox.Runner) *Dispatcher {
	return &Dispatcher{Registry: registry, Policy: policy, Sandbox: runner}
}

// Dispatch runs the full algorithm of spec §4.4 plus the schema-validation
// and gating-profile additions of SPEC_FULL.md §4.4a/§4.4b.
func (d *Dispatcher) Dispatch(ctx context.Context, session protocol.SessionID, dctx Context, call protocol.ToolCall) (DispatchResult, error) {
	def, ok := d.Registry.Get(call.ToolName)
	if !ok {
		return DispatchResult{}, fmt.Errorf("%w: %s", protocol.ErrToolNotFound, call.ToolName)
	}

	if schema, ok := d.Registry.Schema(call.ToolName); ok {
		var v interface{}
		if err := json.Unmarshal(call.Input, &v); err != nil {
			return DispatchResult{}, fmt.Errorf("%w: %s: %v", protocol.ErrInvalidToolInput, call.ToolName, err)
		}
		if err := schema.Validate(v); err != nil {
			return DispatchResult{}, fmt.Errorf("%w: %s: %v", protocol.ErrInvalidToolInput, call.ToolName, err)
		}
	}

	requested := unionCapabilities(def.RequiredCapabilities, call.RequestedCapabilities)
	evaluation := d.Policy.Evaluate(session, requested)

	if len(evaluation.Denied) > 0 {
		return DispatchResult{}, fmt.Errorf("%w for tool %s: %v", protocol.ErrCapabilityDenied, call.ToolName, evaluation.Denied)
	}
	if len(evaluation.RequiresApproval) > 0 {
		return DispatchResult{NeedsApproval: &NeedsApprovalResult{ToolName: call.ToolName, Evaluation: evaluation}}, nil
	}

	if def.Kind == protocol.ToolKindShellExec && !dctx.Gating.AllowShell {
		return DispatchResult{}, fmt.Errorf("shell execution disabled by current operating mode")
	}
	for _, c := range requested {
		if strings.HasPrefix(string(c), "net:") && !dctx.Gating.AllowNetwork {
			return DispatchResult{}, fmt.Errorf("network capability disabled by current operating mode: %s", c)
		}
	}

	result, err := d.execute(ctx, dctx, def, call)
	if err != nil {
		return DispatchResult{}, err
	}
	return DispatchResult{Executed: &result}, nil
}

func unionCapabilities(a, b []protocol.Capability) []protocol.Capability {
	seen := make(map[protocol.Capability]bool)
	var out []protocol.Capability
	for _, c := range append(append([]protocol.Capability{}, a...), b...) {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

// canonicalSessionPath resolves path relative to root, requiring the
// candidate's PARENT directory to stay within root's canonical form. A
// non-existent parent is permitted — it is created only by fs.write.
func canonicalSessionPath(root, path string) (string, error) {
	cleanPath := strings.TrimPrefix(path, "/")
	candidate := filepath.Join(root, cleanPath)

	canonicalRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		canonicalRoot = root
	}

	parent := filepath.Dir(candidate)
	canonicalParent, err := filepath.EvalSymlinks(parent)
	if err != nil {
		// Parent does not exist yet: compare the lexical form instead.
		canonicalParent = filepath.Clean(parent)
	}

	if !strings.HasPrefix(canonicalParent, filepath.Clean(canonicalRoot)) {
		return "", fmt.Errorf("%w: %s", protocol.ErrPathEscapesRoot, path)
	}
	return candidate, nil
}

func (d *Dispatcher) execute(ctx context.Context, dctx Context, def protocol.ToolDefinition, call protocol.ToolCall) (ExecutedResult, error) {
	runID := protocol.NewToolRunID()

	switch def.Kind {
	case protocol.ToolKindFsRead:
		var input struct {
			Path string `json:"path"`
		}
		if err := json.Unmarshal(call.Input, &input); err != nil {
			return ExecutedResult{}, fmt.Errorf("decode fs.read input: %w", err)
		}
		full, err := canonicalSessionPath(dctx.WorkspaceRoot, input.Path)
		if err != nil {
			return ExecutedResult{}, err
		}
		content, err := os.ReadFile(full)
		if err != nil {
			return ExecutedResult{ToolRunID: runID, ExitStatus: 1, Outcome: protocol.FailureOutcome(err.Error())}, nil
		}
		out, _ := json.Marshal(map[string]string{"path": input.Path, "content": string(content)})
		return ExecutedResult{ToolRunID: runID, ExitStatus: 0, Outcome: protocol.SuccessOutcome(out)}, nil

	case protocol.ToolKindFsWrite:
		var input struct {
			Path    string `json:"path"`
			Content string `json:"content"`
		}
		if err := json.Unmarshal(call.Input, &input); err != nil {
			return ExecutedResult{}, fmt.Errorf("decode fs.write input: %w", err)
		}
		full, err := canonicalSessionPath(dctx.WorkspaceRoot, input.Path)
		if err != nil {
			return ExecutedResult{}, err
		}
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return ExecutedResult{}, fmt.Errorf("create parent dirs: %w", err)
		}
		if err := os.WriteFile(full, []byte(input.Content), 0o644); err != nil {
			return ExecutedResult{ToolRunID: runID, ExitStatus: 1, Outcome: protocol.FailureOutcome(err.Error())}, nil
		}
		out, _ := json.Marshal(map[string]any{"path": input.Path, "bytes": len(input.Content)})
		return ExecutedResult{
			ToolRunID: runID, ExitStatus: 0, Outcome: protocol.SuccessOutcome(out), FilePath: input.Path,
		}, nil

	case protocol.ToolKindShellExec:
		var input struct {
			Command string   `json:"command"`
			Args    []string `json:"args"`
		}
		if err := json.Unmarshal(call.Input, &input); err != nil {
			return ExecutedResult{}, fmt.Errorf("decode shell.exec input: %w", err)
		}
		execution, err := d.Sandbox.Run(ctx, sandbox.Request{
			Command: input.Command,
			Args:    input.Args,
			Cwd:     dctx.WorkspaceRoot,
			Env:     map[string]string{},
			Limits:  sandbox.DefaultLimits(),
		})
		if err != nil {
			return ExecutedResult{}, fmt.Errorf("sandbox run: %w", err)
		}
		if execution.ExitCode == 0 {
			out, _ := json.Marshal(map[string]any{
				"stdout": execution.Stdout, "stderr": execution.Stderr,
				"duration_ms": execution.DurationMs, "timed_out": execution.TimedOut,
			})
			return ExecutedResult{ToolRunID: runID, ExitStatus: 0, Outcome: protocol.SuccessOutcome(out)}, nil
		}
		return ExecutedResult{
			ToolRunID: runID, ExitStatus: execution.ExitCode,
			Outcome: protocol.FailureOutcome(execution.Stderr),
		}, nil

	default:
		return ExecutedResult{}, fmt.Errorf("unsupported tool kind: %s", def.Kind)
	}
}

// Sha256File hashes a file's current contents, used to build FileMutated
// events after a successful fs.write.
func Sha256File(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:]), nil
}
