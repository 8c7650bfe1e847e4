package kernel

import (
	"testing"

	"github.com/broomva/aios/pkg/protocol"
)

func TestSelectMode(t *testing.T) {
	tests := []struct {
		name             string
		state            protocol.AgentStateVector
		pendingApprovals int
		want             protocol.OperatingMode
	}{
		{
			name:             "pending approval always wins",
			state:            protocol.AgentStateVector{ErrorStreak: 9, Progress: 1},
			pendingApprovals: 1,
			want:             protocol.ModeAskHuman,
		},
		{
			name:             "circuit breaker before sleep",
			state:            protocol.AgentStateVector{ErrorStreak: CircuitBreakerThreshold, Progress: 1},
			pendingApprovals: 0,
			want:             protocol.ModeRecover,
		},
		{
			name:             "progress complete sleeps",
			state:            protocol.AgentStateVector{Progress: 0.99},
			pendingApprovals: 0,
			want:             protocol.ModeSleep,
		},
		{
			name:             "high context pressure explores",
			state:            protocol.AgentStateVector{ContextPressure: 0.9},
			pendingApprovals: 0,
			want:             protocol.ModeExplore,
		},
		{
			name:             "high uncertainty explores",
			state:            protocol.AgentStateVector{Uncertainty: 0.7},
			pendingApprovals: 0,
			want:             protocol.ModeExplore,
		},
		{
			name:             "high side effect pressure verifies",
			state:            protocol.AgentStateVector{SideEffectPressure: 0.7},
			pendingApprovals: 0,
			want:             protocol.ModeVerify,
		},
		{
			name:             "default executes",
			state:            protocol.AgentStateVector{Progress: 0.2, Uncertainty: 0.3, ContextPressure: 0.2, SideEffectPressure: 0.1},
			pendingApprovals: 0,
			want:             protocol.ModeExecute,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SelectMode(tt.state, tt.pendingApprovals); got != tt.want {
				t.Errorf("SelectMode() = %v, want %v", got, tt.want)
			}
		})
	}
}
