package tools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/broomva/aios/internal/policyengine"
	"github.com/broomva/aios/internal/sandbox"
	"github.com/broomva/aios/pkg/protocol"
)

func newTestDispatcher(t *testing.T) (*Dispatcher, string) {
	t.Helper()
	root := t.TempDir()

	registry := NewRegistry()
	if err := WithCoreTools(registry); err != nil {
		t.Fatalf("WithCoreTools() error = %v", err)
	}
	policy := policyengine.NewEngine(protocol.DefaultPolicySet())
	runner := sandbox.NewLocalRunner(nil)
	return NewDispatcher(registry, policy, runner), root
}

func TestDispatchFsWriteThenRead(t *testing.T) {
	d, root := newTestDispatcher(t)
	ctx := context.Background()
	session := protocol.NewSessionID()
	dctx := Context{WorkspaceRoot: root, Gating: protocol.DefaultGatingProfile()}

	writeInput, _ := json.Marshal(map[string]string{"path": "artifacts/out.txt", "content": "hello"})
	writeCall := protocol.NewToolCall(ToolFsWrite, writeInput, nil)

	res, err := d.Dispatch(ctx, session, dctx, writeCall)
	if err != nil {
		t.Fatalf("Dispatch(fs.write) error = %v", err)
	}
	if res.Executed == nil {
		t.Fatal("Dispatch(fs.write) did not execute (unexpectedly gated)")
	}
	if res.Executed.Outcome.Status != "success" {
		t.Fatalf("fs.write outcome = %+v", res.Executed.Outcome)
	}
	if got, err := os.ReadFile(filepath.Join(root, "artifacts/out.txt")); err != nil || string(got) != "hello" {
		t.Fatalf("file contents = %q, %v", got, err)
	}

	readInput, _ := json.Marshal(map[string]string{"path": "artifacts/out.txt"})
	readCall := protocol.NewToolCall(ToolFsRead, readInput, nil)

	res, err = d.Dispatch(ctx, session, dctx, readCall)
	if err != nil {
		t.Fatalf("Dispatch(fs.read) error = %v", err)
	}
	if res.Executed == nil || res.Executed.Outcome.Status != "success" {
		t.Fatalf("fs.read outcome = %+v", res.Executed)
	}
}

func TestDispatchUnknownToolWrapsSentinel(t *testing.T) {
	d, root := newTestDispatcher(t)
	ctx := context.Background()
	session := protocol.NewSessionID()
	dctx := Context{WorkspaceRoot: root, Gating: protocol.DefaultGatingProfile()}

	call := protocol.NewToolCall("does.not.exist", json.RawMessage(`{}`), nil)
	_, err := d.Dispatch(ctx, session, dctx, call)
	if err == nil {
		t.Fatal("Dispatch() error = nil, want ErrToolNotFound")
	}
}

func TestDispatchPathEscapeRejected(t *testing.T) {
	d, root := newTestDispatcher(t)
	ctx := context.Background()
	session := protocol.NewSessionID()
	dctx := Context{WorkspaceRoot: root, Gating: protocol.DefaultGatingProfile()}

	input, _ := json.Marshal(map[string]string{"path": "../../etc/passwd"})
	call := protocol.NewToolCall(ToolFsRead, input, nil)

	_, err := d.Dispatch(ctx, session, dctx, call)
	if err == nil {
		t.Fatal("Dispatch(fs.read escaping root) error = nil, want path-escape error")
	}
}

func TestDispatchGatedCapabilityNeedsApproval(t *testing.T) {
	registry := NewRegistry()
	if err := WithCoreTools(registry); err != nil {
		t.Fatalf("WithCoreTools() error = %v", err)
	}
	policy := policyengine.NewEngine(protocol.PolicySet{
		GateCapabilities: []protocol.Capability{"exec:cmd:*"},
	})
	runner := sandbox.NewLocalRunner(nil)
	d := NewDispatcher(registry, policy, runner)

	ctx := context.Background()
	session := protocol.NewSessionID()
	root := t.TempDir()
	dctx := Context{WorkspaceRoot: root, Gating: protocol.DefaultGatingProfile()}

	input, _ := json.Marshal(map[string]any{"command": "echo", "args": []string{"hi"}})
	call := protocol.NewToolCall(ToolShellExec, input, nil)

	res, err := d.Dispatch(ctx, session, dctx, call)
	if err != nil {
		t.Fatalf("Dispatch(gated shell.exec) error = %v", err)
	}
	if res.NeedsApproval == nil {
		t.Fatal("Dispatch(gated shell.exec) did not return NeedsApproval")
	}
}

func TestDispatchDeniedCapability(t *testing.T) {
	registry := NewRegistry()
	if err := WithCoreTools(registry); err != nil {
		t.Fatalf("WithCoreTools() error = %v", err)
	}
	policy := policyengine.NewEngine(protocol.PolicySet{}) // empty: everything denied
	runner := sandbox.NewLocalRunner(nil)
	d := NewDispatcher(registry, policy, runner)

	ctx := context.Background()
	session := protocol.NewSessionID()
	root := t.TempDir()
	dctx := Context{WorkspaceRoot: root, Gating: protocol.DefaultGatingProfile()}

	input, _ := json.Marshal(map[string]string{"path": "foo.txt"})
	call := protocol.NewToolCall(ToolFsRead, input, nil)

	_, err := d.Dispatch(ctx, session, dctx, call)
	if err == nil {
		t.Fatal("Dispatch() with empty policy = nil error, want capability-denied")
	}
}

func TestDispatchShellDisabledByGatingProfile(t *testing.T) {
	d, root := newTestDispatcher(t)
	ctx := context.Background()
	session := protocol.NewSessionID()

	gating := protocol.DefaultGatingProfile()
	gating.AllowShell = false
	dctx := Context{WorkspaceRoot: root, Gating: gating}

	input, _ := json.Marshal(map[string]any{"command": "echo", "args": []string{"hi"}})
	call := protocol.NewToolCall(ToolShellExec, input, nil)

	_, err := d.Dispatch(ctx, session, dctx, call)
	if err == nil {
		t.Fatal("Dispatch(shell.exec with AllowShell=false) error = nil")
	}
}

func TestDispatchInvalidInputRejectedBySchema(t *testing.T) {
	d, root := newTestDispatcher(t)
	ctx := context.Background()
	session := protocol.NewSessionID()
	dctx := Context{WorkspaceRoot: root, Gating: protocol.DefaultGatingProfile()}

	call := protocol.NewToolCall(ToolFsRead, json.RawMessage(`{}`), nil)
	_, err := d.Dispatch(ctx, session, dctx, call)
	if err == nil {
		t.Fatal("Dispatch(fs.read missing path) error = nil, want schema validation error")
	}
}
