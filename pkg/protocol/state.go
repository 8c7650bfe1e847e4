package protocol

// AgentStateVector is the agent's internal health and resource state,
// recomputed by the homeostasis controller at the end of every tick that
// executed a tool.
type AgentStateVector struct {
	Progress           float64     `json:"progress"`
	Uncertainty        float64     `json:"uncertainty"`
	RiskLevel          RiskLevel   `json:"risk_level"`
	Budget             BudgetState `json:"budget"`
	ErrorStreak        uint32      `json:"error_streak"`
	ContextPressure    float64     `json:"context_pressure"`
	SideEffectPressure float64     `json:"side_effect_pressure"`
	HumanDependency    float64     `json:"human_dependency"`
}

// DefaultAgentStateVector matches the original source's default vitals.
func DefaultAgentStateVector() AgentStateVector {
	return AgentStateVector{
		Progress:           0,
		Uncertainty:        0.7,
		RiskLevel:          RiskLow,
		Budget:             DefaultBudgetState(),
		ErrorStreak:        0,
		ContextPressure:    0.1,
		SideEffectPressure: 0,
		HumanDependency:    0,
	}
}

// BudgetState tracks the agent's remaining resource allowances. All fields
// are non-negative and decremented with saturating arithmetic.
type BudgetState struct {
	TokensRemaining        uint64  `json:"tokens_remaining"`
	TimeRemainingMs        uint64  `json:"time_remaining_ms"`
	CostRemainingUSD       float64 `json:"cost_remaining_usd"`
	ToolCallsRemaining     uint32  `json:"tool_calls_remaining"`
	ErrorBudgetRemaining   uint32  `json:"error_budget_remaining"`
}

// DefaultBudgetState matches the original source's default budget.
func DefaultBudgetState() BudgetState {
	return BudgetState{
		TokensRemaining:      120_000,
		TimeRemainingMs:      300_000,
		CostRemainingUSD:     5.0,
		ToolCallsRemaining:   48,
		ErrorBudgetRemaining: 8,
	}
}

// SatSubUint64 subtracts b from a, floored at zero.
func SatSubUint64(a, b uint64) uint64 {
	if b >= a {
		return 0
	}
	return a - b
}

// SatSubUint32 subtracts b from a, floored at zero.
func SatSubUint32(a, b uint32) uint32 {
	if b >= a {
		return 0
	}
	return a - b
}
