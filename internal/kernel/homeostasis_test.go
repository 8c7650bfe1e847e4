package kernel

import (
	"testing"

	"github.com/broomva/aios/pkg/protocol"
)

func TestApplyHomeostasisSuccess(t *testing.T) {
	prev := protocol.DefaultAgentStateVector()
	prev.ErrorStreak = 2

	next := ApplyHomeostasis(prev, 0)

	if next.ErrorStreak != 0 {
		t.Errorf("ErrorStreak = %d, want 0 after success", next.ErrorStreak)
	}
	if next.Progress <= prev.Progress {
		t.Errorf("Progress = %v, want > %v after success", next.Progress, prev.Progress)
	}
	if next.Uncertainty >= prev.Uncertainty {
		t.Errorf("Uncertainty = %v, want < %v after success", next.Uncertainty, prev.Uncertainty)
	}
	if next.Budget.ToolCallsRemaining != prev.Budget.ToolCallsRemaining-1 {
		t.Errorf("ToolCallsRemaining = %d, want %d", next.Budget.ToolCallsRemaining, prev.Budget.ToolCallsRemaining-1)
	}
	if next.RiskLevel != protocol.RiskMedium {
		t.Errorf("RiskLevel = %v, want %v (uncertainty starts at 0.7*0.85=0.595 > 0.45)", next.RiskLevel, protocol.RiskMedium)
	}
}

func TestApplyHomeostasisFailure(t *testing.T) {
	prev := protocol.DefaultAgentStateVector()

	next := ApplyHomeostasis(prev, 1)

	if next.ErrorStreak != prev.ErrorStreak+1 {
		t.Errorf("ErrorStreak = %d, want %d after failure", next.ErrorStreak, prev.ErrorStreak+1)
	}
	if next.Uncertainty <= prev.Uncertainty {
		t.Errorf("Uncertainty = %v, want > %v after failure", next.Uncertainty, prev.Uncertainty)
	}
	if next.Budget.ErrorBudgetRemaining != prev.Budget.ErrorBudgetRemaining-1 {
		t.Errorf("ErrorBudgetRemaining = %d, want %d", next.Budget.ErrorBudgetRemaining, prev.Budget.ErrorBudgetRemaining-1)
	}
}

func TestApplyHomeostasisHumanDependencyKicksInAfterTwoErrors(t *testing.T) {
	state := protocol.DefaultAgentStateVector()
	state = ApplyHomeostasis(state, 1)
	if state.HumanDependency != 0 {
		t.Fatalf("HumanDependency = %v after one failure, want 0", state.HumanDependency)
	}
	state = ApplyHomeostasis(state, 1)
	if state.HumanDependency != 0.6 {
		t.Fatalf("HumanDependency = %v after two failures, want 0.6", state.HumanDependency)
	}
}

func TestApplyHomeostasisBudgetSaturatesAtZero(t *testing.T) {
	prev := protocol.AgentStateVector{
		Budget: protocol.BudgetState{ToolCallsRemaining: 0, TokensRemaining: 10, TimeRemainingMs: 10},
	}
	next := ApplyHomeostasis(prev, 0)
	if next.Budget.ToolCallsRemaining != 0 {
		t.Errorf("ToolCallsRemaining = %d, want 0 (saturating)", next.Budget.ToolCallsRemaining)
	}
	if next.Budget.TokensRemaining != 0 || next.Budget.TimeRemainingMs != 0 {
		t.Errorf("Budget = %+v, want tokens/time at 0", next.Budget)
	}
}

func TestApplyHomeostasisRiskLevelEscalatesToHigh(t *testing.T) {
	prev := protocol.AgentStateVector{Uncertainty: 0.9}
	next := ApplyHomeostasis(prev, 1)
	if next.RiskLevel != protocol.RiskHigh {
		t.Errorf("RiskLevel = %v, want %v", next.RiskLevel, protocol.RiskHigh)
	}
}
