package kernel

import "github.com/broomva/aios/pkg/protocol"

// CircuitBreakerThreshold is the default error_streak at or above which the
// mode selector forces Recover.
const CircuitBreakerThreshold = 3

// CheckpointEveryTicks is the default tick-count modulus that triggers a
// checkpoint.
const CheckpointEveryTicks = 1

// SelectMode is the tick orchestrator's pure mode selector: a deterministic
// function of the agent state vector and the pending-approval count. The
// same inputs always yield the same mode.
func SelectMode(state protocol.AgentStateVector, pendingApprovals int) protocol.OperatingMode {
	switch {
	case pendingApprovals > 0:
		return protocol.ModeAskHuman
	case state.ErrorStreak >= CircuitBreakerThreshold:
		return protocol.ModeRecover
	case state.Progress >= 0.98:
		return protocol.ModeSleep
	case state.ContextPressure > 0.8 || state.Uncertainty > 0.65:
		return protocol.ModeExplore
	case state.SideEffectPressure > 0.6:
		return protocol.ModeVerify
	default:
		return protocol.ModeExecute
	}
}
