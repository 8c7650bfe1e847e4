// Package policyengine evaluates capability requests against a policy set:
// gate before allow before deny, with suffix-glob pattern matching.
package policyengine

import (
	"strings"
	"sync"

	"github.com/broomva/aios/pkg/protocol"
)

// matches reports whether pattern matches capability: exact equality, or
// pattern ends with "*" and capability has that prefix. Only a trailing
// "*" is a wildcard — no full glob/regex semantics (spec §4.3, §9).
func matches(pattern, capability protocol.Capability) bool {
	p, c := string(pattern), string(capability)
	if p == c {
		return true
	}
	if strings.HasSuffix(p, "*") {
		return strings.HasPrefix(c, strings.TrimSuffix(p, "*"))
	}
	return false
}

func anyMatches(patterns []protocol.Capability, capability protocol.Capability) bool {
	for _, p := range patterns {
		if matches(p, capability) {
			return true
		}
	}
	return false
}

// Evaluate partitions capabilities against policy in gate-before-allow-
// before-deny order: a capability matching any gate pattern routes to
// RequiresApproval even if it would also match an allow pattern. Output
// lists are deduplicated by first occurrence, and the three lists are
// disjoint and exhaustive over the input (as a set).
func Evaluate(policy protocol.PolicySet, capabilities []protocol.Capability) protocol.PolicyEvaluation {
	var eval protocol.PolicyEvaluation
	seen := make(map[protocol.Capability]bool)

	for _, cap := range capabilities {
		if seen[cap] {
			continue
		}
		seen[cap] = true

		switch {
		case anyMatches(policy.GateCapabilities, cap):
			eval.RequiresApproval = append(eval.RequiresApproval, cap)
		case anyMatches(policy.AllowCapabilities, cap):
			eval.Allowed = append(eval.Allowed, cap)
		default:
			eval.Denied = append(eval.Denied, cap)
		}
	}
	return eval
}

// Engine stores a default policy and a per-session override map, mirroring
// the original source's SessionPolicyEngine.
type Engine struct {
	mu        sync.RWMutex
	def       protocol.PolicySet
	overrides map[protocol.SessionID]protocol.PolicySet
}

// NewEngine creates an Engine with the given default policy.
func NewEngine(def protocol.PolicySet) *Engine {
	return &Engine{def: def, overrides: make(map[protocol.SessionID]protocol.PolicySet)}
}

// SetPolicy installs a per-session override, replacing any prior one.
func (e *Engine) SetPolicy(session protocol.SessionID, policy protocol.PolicySet) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.overrides[session] = policy
}

// PolicyFor returns the effective policy for session: its override if one
// was set, else the engine default.
func (e *Engine) PolicyFor(session protocol.SessionID) protocol.PolicySet {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if p, ok := e.overrides[session]; ok {
		return p
	}
	return e.def
}

// Evaluate evaluates capabilities against session's effective policy.
func (e *Engine) Evaluate(session protocol.SessionID, capabilities []protocol.Capability) protocol.PolicyEvaluation {
	return Evaluate(e.PolicyFor(session), capabilities)
}
