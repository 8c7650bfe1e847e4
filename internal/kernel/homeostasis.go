package kernel

import "github.com/broomva/aios/pkg/protocol"

// ApplyHomeostasis is the homeostasis controller: applied exactly once
// after a tool execution attempt, it returns the next agent state vector
// given the previous one and whether the tool exited cleanly (exit_status
// == 0). It never mutates its input.
func ApplyHomeostasis(prev protocol.AgentStateVector, exitStatus int) protocol.AgentStateVector {
	next := prev

	next.Budget.ToolCallsRemaining = protocol.SatSubUint32(prev.Budget.ToolCallsRemaining, 1)
	next.Budget.TokensRemaining = protocol.SatSubUint64(prev.Budget.TokensRemaining, 750)
	next.Budget.TimeRemainingMs = protocol.SatSubUint64(prev.Budget.TimeRemainingMs, 1200)

	if exitStatus == 0 {
		next.Progress = minF(prev.Progress+0.12, 1)
		next.Uncertainty = maxF(prev.Uncertainty*0.85, 0.05)
		next.ErrorStreak = 0
		next.SideEffectPressure = minF(prev.SideEffectPressure+0.2, 1)
	} else {
		next.ErrorStreak = prev.ErrorStreak + 1
		next.Uncertainty = minF(prev.Uncertainty+0.18, 1)
		next.Budget.ErrorBudgetRemaining = protocol.SatSubUint32(prev.Budget.ErrorBudgetRemaining, 1)
		next.SideEffectPressure = maxF(prev.SideEffectPressure*0.5, 0.1)
	}

	next.ContextPressure = minF(prev.ContextPressure+0.03, 1)
	if next.ErrorStreak >= 2 {
		next.HumanDependency = 0.6
	} else {
		next.HumanDependency = 0.0
	}

	switch {
	case next.Uncertainty > 0.75 || next.SideEffectPressure > 0.7:
		next.RiskLevel = protocol.RiskHigh
	case next.Uncertainty > 0.45 || next.SideEffectPressure > 0.4:
		next.RiskLevel = protocol.RiskMedium
	default:
		next.RiskLevel = protocol.RiskLow
	}

	return next
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
