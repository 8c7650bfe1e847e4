package tools

import (
	"encoding/json"
	"testing"
)

func TestWithCoreToolsRegistersBuiltins(t *testing.T) {
	r := NewRegistry()
	if err := WithCoreTools(r); err != nil {
		t.Fatalf("WithCoreTools() error = %v", err)
	}

	for _, name := range []string{ToolFsRead, ToolFsWrite, ToolShellExec} {
		def, ok := r.Get(name)
		if !ok {
			t.Fatalf("Get(%q) missing after WithCoreTools", name)
		}
		if def.Name != name {
			t.Errorf("Get(%q).Name = %q", name, def.Name)
		}
		if _, ok := r.Schema(name); !ok {
			t.Errorf("Schema(%q) missing after WithCoreTools", name)
		}
	}

	if got := len(r.Definitions()); got != 3 {
		t.Errorf("Definitions() len = %d, want 3", got)
	}
}

func TestSchemaRejectsMissingRequiredField(t *testing.T) {
	r := NewRegistry()
	if err := WithCoreTools(r); err != nil {
		t.Fatalf("WithCoreTools() error = %v", err)
	}
	schema, ok := r.Schema(ToolFsRead)
	if !ok {
		t.Fatal("Schema(fs.read) missing")
	}

	var v interface{}
	if err := json.Unmarshal([]byte(`{}`), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if err := schema.Validate(v); err == nil {
		t.Error("Validate({}) = nil, want error for missing required \"path\"")
	}

	if err := json.Unmarshal([]byte(`{"path": "/foo.txt"}`), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if err := schema.Validate(v); err != nil {
		t.Errorf("Validate({path}) = %v, want nil", err)
	}
}

func TestGetUnknownTool(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.Get("nope"); ok {
		t.Error("Get(\"nope\") found a definition in an empty registry")
	}
}
