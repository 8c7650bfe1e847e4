package protocol

import "fmt"

// Capability is a permission pattern string "<kind>:<op>:<pattern>",
// e.g. "fs:read:/session/**". Matching is suffix-glob on a trailing "*"
// only — no full glob/regex semantics.
type Capability string

func CapFsRead(glob string) Capability    { return Capability(fmt.Sprintf("fs:read:%s", glob)) }
func CapFsWrite(glob string) Capability   { return Capability(fmt.Sprintf("fs:write:%s", glob)) }
func CapNetEgress(host string) Capability { return Capability(fmt.Sprintf("net:egress:%s", host)) }
func CapExec(command string) Capability   { return Capability(fmt.Sprintf("exec:cmd:%s", command)) }
func CapSecrets(scope string) Capability  { return Capability(fmt.Sprintf("secrets:read:%s", scope)) }

// PolicySet holds the capability patterns governing a session, split into
// those always allowed and those that require human approval (gated).
// Anything matching neither is denied.
type PolicySet struct {
	AllowCapabilities  []Capability `json:"allow_capabilities"`
	GateCapabilities   []Capability `json:"gate_capabilities"`
	MaxToolRuntimeSecs uint64       `json:"max_tool_runtime_secs"`
	MaxEventsPerTurn   uint64       `json:"max_events_per_turn"`
}

// DefaultPolicySet matches the original source's conservative default.
func DefaultPolicySet() PolicySet {
	return PolicySet{
		AllowCapabilities: []Capability{
			CapFsRead("/session/**"),
			CapFsWrite("/session/artifacts/**"),
			CapExec("git"),
		},
		GateCapabilities:   []Capability{Capability("payments:initiate")},
		MaxToolRuntimeSecs: 30,
		MaxEventsPerTurn:   256,
	}
}

// PolicyEvaluation partitions a set of requested capabilities into the
// three disjoint outcomes of an evaluate() call.
type PolicyEvaluation struct {
	Allowed          []Capability `json:"allowed"`
	RequiresApproval []Capability `json:"requires_approval"`
	Denied           []Capability `json:"denied"`
}
