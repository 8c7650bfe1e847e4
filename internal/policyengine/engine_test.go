package policyengine

import (
	"reflect"
	"testing"

	"github.com/broomva/aios/pkg/protocol"
)

func TestEvaluateGateTakesPrecedenceOverAllow(t *testing.T) {
	cap := protocol.CapFsWrite("/etc/passwd")
	policy := protocol.PolicySet{
		AllowCapabilities: []protocol.Capability{cap},
		GateCapabilities:  []protocol.Capability{cap},
	}

	eval := Evaluate(policy, []protocol.Capability{cap})

	if !reflect.DeepEqual(eval.RequiresApproval, []protocol.Capability{cap}) {
		t.Errorf("RequiresApproval = %v, want [%v]", eval.RequiresApproval, cap)
	}
	if len(eval.Allowed) != 0 {
		t.Errorf("Allowed = %v, want empty", eval.Allowed)
	}
	if len(eval.Denied) != 0 {
		t.Errorf("Denied = %v, want empty", eval.Denied)
	}
}

func TestEvaluateAllowTakesPrecedenceOverDeny(t *testing.T) {
	cap := protocol.CapFsRead("/tmp/*")
	policy := protocol.PolicySet{
		AllowCapabilities: []protocol.Capability{cap},
	}

	eval := Evaluate(policy, []protocol.Capability{cap})

	if !reflect.DeepEqual(eval.Allowed, []protocol.Capability{cap}) {
		t.Errorf("Allowed = %v, want [%v]", eval.Allowed, cap)
	}
	if len(eval.RequiresApproval) != 0 || len(eval.Denied) != 0 {
		t.Errorf("RequiresApproval = %v, Denied = %v, want both empty", eval.RequiresApproval, eval.Denied)
	}
}

func TestEvaluateUnmatchedCapabilityIsDenied(t *testing.T) {
	policy := protocol.PolicySet{
		AllowCapabilities: []protocol.Capability{protocol.CapFsRead("/tmp/*")},
	}
	cap := protocol.CapNetEgress("evil.example.com")

	eval := Evaluate(policy, []protocol.Capability{cap})

	if !reflect.DeepEqual(eval.Denied, []protocol.Capability{cap}) {
		t.Errorf("Denied = %v, want [%v]", eval.Denied, cap)
	}
}

func TestEvaluateDeduplicatesByFirstOccurrence(t *testing.T) {
	policy := protocol.PolicySet{
		AllowCapabilities: []protocol.Capability{protocol.CapFsRead("/tmp/*")},
	}
	cap := protocol.CapFsRead("/tmp/a")

	eval := Evaluate(policy, []protocol.Capability{cap, cap, cap})

	if len(eval.Allowed) != 1 {
		t.Errorf("Allowed = %v, want exactly one entry", eval.Allowed)
	}
}

func TestMatchesTrailingGlobOnly(t *testing.T) {
	tests := []struct {
		name       string
		pattern    string
		capability string
		want       bool
	}{
		{"exact match", "fs:read:/tmp/a", "fs:read:/tmp/a", true},
		{"exact mismatch", "fs:read:/tmp/a", "fs:read:/tmp/b", false},
		{"trailing glob matches prefix", "fs:read:/tmp/*", "fs:read:/tmp/a/b.txt", true},
		{"trailing glob matches empty suffix", "fs:read:/tmp/*", "fs:read:/tmp/", true},
		{"trailing glob does not match outside prefix", "fs:read:/tmp/*", "fs:read:/etc/a", false},
		{"embedded star is literal, not a wildcard", "fs:read:/tmp/*/secret", "fs:read:/tmp/a/secret", false},
		{"bare star matches everything", "fs:read:*", "fs:read:/anywhere", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := matches(protocol.Capability(tt.pattern), protocol.Capability(tt.capability))
			if got != tt.want {
				t.Errorf("matches(%q, %q) = %v, want %v", tt.pattern, tt.capability, got, tt.want)
			}
		})
	}
}

func TestEnginePolicyForFallsBackToDefault(t *testing.T) {
	def := protocol.PolicySet{AllowCapabilities: []protocol.Capability{protocol.CapFsRead("/tmp/*")}}
	engine := NewEngine(def)
	session := protocol.NewSessionID()

	got := engine.PolicyFor(session)
	if !reflect.DeepEqual(got, def) {
		t.Errorf("PolicyFor(no override) = %+v, want default %+v", got, def)
	}
}

func TestEngineSetPolicyOverridesDefaultPerSession(t *testing.T) {
	def := protocol.PolicySet{AllowCapabilities: []protocol.Capability{protocol.CapFsRead("/tmp/*")}}
	override := protocol.PolicySet{GateCapabilities: []protocol.Capability{protocol.CapExec("*")}}
	engine := NewEngine(def)

	session := protocol.NewSessionID()
	other := protocol.NewSessionID()
	engine.SetPolicy(session, override)

	if !reflect.DeepEqual(engine.PolicyFor(session), override) {
		t.Errorf("PolicyFor(overridden session) = %+v, want override %+v", engine.PolicyFor(session), override)
	}
	if !reflect.DeepEqual(engine.PolicyFor(other), def) {
		t.Errorf("PolicyFor(other session) = %+v, want default %+v", engine.PolicyFor(other), def)
	}
}

func TestEngineEvaluateUsesSessionEffectivePolicy(t *testing.T) {
	engine := NewEngine(protocol.PolicySet{})
	session := protocol.NewSessionID()
	cap := protocol.CapExec("rm -rf /")
	engine.SetPolicy(session, protocol.PolicySet{GateCapabilities: []protocol.Capability{cap}})

	eval := engine.Evaluate(session, []protocol.Capability{cap})
	if !reflect.DeepEqual(eval.RequiresApproval, []protocol.Capability{cap}) {
		t.Errorf("RequiresApproval = %v, want [%v]", eval.RequiresApproval, cap)
	}
}
