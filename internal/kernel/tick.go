package kernel

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/broomva/aios/internal/tools"
	"github.com/broomva/aios/pkg/protocol"
)

// TickOutput is the result of one tick(session, branch, objective,
// proposed_tool?) invocation (spec §4.1).
type TickOutput struct {
	Mode          protocol.OperatingMode
	State         protocol.AgentStateVector
	EventsEmitted int
	LastSequence  protocol.SeqNo
}

// Tick runs the scripted deliberation-loop phase sequence of spec §4.1 once
// for (session, branch), optionally dispatching proposedTool.
func (k *Kernel) Tick(ctx context.Context, id protocol.SessionID, branch protocol.BranchID, objective string, proposedTool *protocol.ToolCall) (TickOutput, error) {
	session, err := k.Registry.Get(id)
	if err != nil {
		return TickOutput{}, err
	}
	if branch == "" {
		branch = protocol.MainBranch
	}

	session.Mu.Lock()
	b, err := session.branch(branch)
	if err != nil {
		session.Mu.Unlock()
		return TickOutput{}, err
	}
	if b.Info.MergedInto != nil {
		session.Mu.Unlock()
		return TickOutput{}, wrapf(protocol.ErrBranchReadOnly, "%s", branch)
	}
	priorHead := b.Info.HeadSequence
	state := session.State
	session.Mu.Unlock()

	started := time.Now()
	eventsEmitted := 0
	emit := func(kind protocol.EventKind) error {
		if _, err := k.emit(session, branch, kind); err != nil {
			return err
		}
		eventsEmitted++
		return nil
	}

	// 1-2: Perceive, Deliberate.
	if err := emit(protocol.PhaseEntered{Phase: protocol.PhasePerceive}); err != nil {
		return TickOutput{}, err
	}
	if err := emit(protocol.PhaseEntered{Phase: protocol.PhaseDeliberate}); err != nil {
		return TickOutput{}, err
	}

	// 3: DeliberationProposed.
	var proposedName *string
	if proposedTool != nil {
		name := proposedTool.ToolName
		proposedName = &name
	}
	if err := emit(protocol.DeliberationProposed{Summary: objective, ProposedTool: proposedName}); err != nil {
		return TickOutput{}, err
	}

	// 4: pending approvals.
	pendingApprovals := k.Approvals.PendingCount(id)

	// 5: StateEstimated (pre-controller).
	mode := SelectMode(state, pendingApprovals)
	if err := emit(protocol.StateEstimated{State: state, Mode: mode}); err != nil {
		return TickOutput{}, err
	}

	// 6: early exit.
	if mode != protocol.ModeAskHuman && mode != protocol.ModeSleep {
		// 7: dispatch a proposed tool, if any.
		if proposedTool != nil {
			var stepErr error
			state, mode, stepErr = k.runToolStep(ctx, emit, session, id, state, mode, *proposedTool)
			if stepErr != nil {
				return TickOutput{}, stepErr
			}
		}
	}

	// 8: circuit breaker.
	if state.ErrorStreak >= CircuitBreakerThreshold {
		mode = protocol.ModeRecover
		k.Metrics.CircuitBreakerTrips.Inc()
		if err := emit(protocol.CircuitBreakerTripped{Reason: "error streak exceeded threshold", ErrorStreak: state.ErrorStreak}); err != nil {
			return TickOutput{}, err
		}
	}

	// 9: Reflect.
	if err := emit(protocol.PhaseEntered{Phase: protocol.PhaseReflect}); err != nil {
		return TickOutput{}, err
	}
	if err := emit(protocol.BudgetUpdated{Budget: state.Budget, Reason: "tick accounting"}); err != nil {
		return TickOutput{}, err
	}
	if err := emit(protocol.StateEstimated{State: state, Mode: mode}); err != nil {
		return TickOutput{}, err
	}

	// 10: checkpoint test.
	session.Mu.Lock()
	tickCount := session.TickCount
	session.Mu.Unlock()

	var checkpointID *protocol.CheckpointID
	if tickCount%CheckpointEveryTicks == 0 {
		session.Mu.Lock()
		headSeq := session.Branches[branch].Info.HeadSequence
		session.Mu.Unlock()

		manifest, err := buildCheckpoint(session.Manifest.WorkspaceRoot, id, branch, headSeq, state, "scheduled checkpoint")
		if err != nil {
			return TickOutput{}, err
		}
		checkpointID = &manifest.CheckpointID
		if err := emit(protocol.CheckpointCreated{
			CheckpointID:  manifest.CheckpointID,
			EventSequence: manifest.EventSequence,
			StateHash:     manifest.StateHash,
		}); err != nil {
			return TickOutput{}, err
		}
	}
	session.Mu.Lock()
	session.TickCount++
	session.Mu.Unlock()

	// 11: heartbeat.
	if err := writeHeartbeat(session.Manifest.WorkspaceRoot, mode, checkpointID); err != nil {
		return TickOutput{}, err
	}
	if err := emit(protocol.Heartbeat{Summary: "tick complete", CheckpointID: checkpointID}); err != nil {
		return TickOutput{}, err
	}

	// 12: Sleep.
	if err := emit(protocol.PhaseEntered{Phase: protocol.PhaseSleep}); err != nil {
		return TickOutput{}, err
	}

	// 13: persist state + mode.
	session.Mu.Lock()
	session.State = state
	session.Mode = mode
	lastSeq := session.Branches[branch].Info.HeadSequence
	session.Mu.Unlock()

	k.Metrics.TicksTotal.Inc()
	k.Metrics.TickDuration.Observe(time.Since(started).Seconds())
	k.Metrics.observeMode(string(mode))

	if lastSeq-priorHead != protocol.SeqNo(eventsEmitted) {
		return TickOutput{}, fmt.Errorf("internal invariant violation: events_emitted=%d but sequence advanced by %d", eventsEmitted, lastSeq-priorHead)
	}

	return TickOutput{Mode: mode, State: state, EventsEmitted: eventsEmitted, LastSequence: lastSeq}, nil
}

// runToolStep implements step 7 of the tick algorithm: gate, dispatch, and
// branch on the three dispatch outcomes. It returns the (possibly updated)
// state and mode.
func (k *Kernel) runToolStep(ctx context.Context, emit func(protocol.EventKind) error, session *Session, id protocol.SessionID, state protocol.AgentStateVector, mode protocol.OperatingMode, call protocol.ToolCall) (protocol.AgentStateVector, protocol.OperatingMode, error) {
	if err := emit(protocol.PhaseEntered{Phase: protocol.PhaseGate}); err != nil {
		return state, mode, err
	}
	if err := emit(protocol.ToolCallRequested{
		CallID:    call.CallID,
		ToolName:  call.ToolName,
		Arguments: call.Input,
	}); err != nil {
		return state, mode, err
	}

	dctx := tools.Context{
		WorkspaceRoot: session.Manifest.WorkspaceRoot,
		Gating:        protocol.GatingProfileForMode(mode),
	}
	result, dispatchErr := k.Dispatcher.Dispatch(ctx, id, dctx, call)

	switch {
	case dispatchErr != nil:
		// Error outcome.
		k.Metrics.ToolCallsTotal.WithLabelValues("error").Inc()
		if err := emit(protocol.ErrorRaised{Message: dispatchErr.Error()}); err != nil {
			return state, mode, err
		}
		state.ErrorStreak++
		state.Uncertainty = minF(state.Uncertainty+0.15, 1)
		state.Budget.ErrorBudgetRemaining = protocol.SatSubUint32(state.Budget.ErrorBudgetRemaining, 1)
		mode = protocol.ModeRecover
		return state, mode, nil

	case result.NeedsApproval != nil:
		k.Metrics.ToolCallsTotal.WithLabelValues("needs_approval").Inc()
		for _, cap := range result.NeedsApproval.Evaluation.RequiresApproval {
			reason := fmt.Sprintf("tool %s requires approval for capability %s", call.ToolName, cap)
			approvalID := k.Approvals.Enqueue(id, cap, reason)
			if err := emit(protocol.ApprovalRequested{
				ApprovalID: approvalID,
				Capability: string(cap),
				Reason:     reason,
			}); err != nil {
				return state, mode, err
			}
		}
		mode = protocol.ModeAskHuman
		return state, mode, nil

	default:
		// Executed outcome.
		k.Metrics.ToolCallsTotal.WithLabelValues("executed").Inc()
		executed := result.Executed
		if err := emit(protocol.PhaseEntered{Phase: protocol.PhaseExecute}); err != nil {
			return state, mode, err
		}
		if err := emit(protocol.ToolCallStarted{ToolRunID: executed.ToolRunID, ToolName: call.ToolName}); err != nil {
			return state, mode, err
		}
		status := protocol.SpanOK
		if executed.ExitStatus != 0 {
			status = protocol.SpanError
		}
		resultJSON, _ := json.Marshal(executed.Outcome)
		if err := emit(protocol.ToolCallCompleted{
			ToolRunID:  executed.ToolRunID,
			ToolName:   call.ToolName,
			Result:     resultJSON,
			DurationMs: 0,
			Status:     status,
		}); err != nil {
			return state, mode, err
		}

		if executed.FilePath != "" {
			full := filepath.Join(session.Manifest.WorkspaceRoot, strings.TrimPrefix(executed.FilePath, "/"))
			if hash, err := tools.Sha256File(full); err == nil {
				if err := emit(protocol.FileMutated{Path: executed.FilePath, BlobHash: protocol.BlobHash(hash)}); err != nil {
					return state, mode, err
				}
			}
		}

		if err := persistToolRunReport(session.Manifest.WorkspaceRoot, executed); err != nil {
			return state, mode, err
		}

		state = ApplyHomeostasis(state, executed.ExitStatus)
		mode = SelectMode(state, 0)
		return state, mode, nil
	}
}

func persistToolRunReport(workspaceRoot string, executed *tools.ExecutedResult) error {
	dir := filepath.Join(workspaceRoot, "tools", "runs", string(executed.ToolRunID))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create tool run dir: %w", err)
	}
	content, err := json.MarshalIndent(map[string]any{
		"tool_run_id": executed.ToolRunID,
		"exit_status": executed.ExitStatus,
		"outcome":     executed.Outcome,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode tool run report: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, "report.json"), content, 0o644)
}

func writeHeartbeat(workspaceRoot string, mode protocol.OperatingMode, checkpointID *protocol.CheckpointID) error {
	content, err := json.MarshalIndent(map[string]any{
		"mode":          mode,
		"checkpoint_id": checkpointID,
		"written_at":    time.Now().UTC(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode heartbeat: %w", err)
	}
	return os.WriteFile(filepath.Join(workspaceRoot, "state", "heartbeat.json"), content, 0o644)
}
