package protocol

import (
	"encoding/json"
	"time"
)

// LoopPhase names a phase of the tick orchestrator's deliberation loop.
type LoopPhase string

const (
	PhasePerceive   LoopPhase = "perceive"
	PhaseDeliberate LoopPhase = "deliberate"
	PhaseGate       LoopPhase = "gate"
	PhaseExecute    LoopPhase = "execute"
	PhaseCommit     LoopPhase = "commit" // declared for forward-compat; never emitted, see DESIGN.md
	PhaseReflect    LoopPhase = "reflect"
	PhaseSleep      LoopPhase = "sleep"
)

// RiskLevel is the agent state vector's qualitative risk assessment.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// SpanStatus is the outcome of a tool execution span.
type SpanStatus string

const (
	SpanOK        SpanStatus = "ok"
	SpanError     SpanStatus = "error"
	SpanTimeout   SpanStatus = "timeout"
	SpanCancelled SpanStatus = "cancelled"
)

// ApprovalDecision is the human decision recorded against an approval ticket.
type ApprovalDecision string

const (
	ApprovalApproved ApprovalDecision = "approved"
	ApprovalDenied   ApprovalDecision = "denied"
	ApprovalTimeout  ApprovalDecision = "timeout"
)

// SnapshotType distinguishes full from incremental checkpoints.
type SnapshotType string

const (
	SnapshotFull        SnapshotType = "full"
	SnapshotIncremental SnapshotType = "incremental"
)

// PolicyDecisionKind names the outcome of evaluating one capability.
type PolicyDecisionKind string

const (
	PolicyAllow           PolicyDecisionKind = "allow"
	PolicyDeny            PolicyDecisionKind = "deny"
	PolicyRequireApproval PolicyDecisionKind = "require_approval"
)

// TokenUsage records token accounting for a model invocation.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// EventKind is implemented by every concrete event payload. Type returns
// the wire tag used in the "type" field of the serialized kind object.
type EventKind interface {
	Type() string
}

// --- Session / branch lifecycle -------------------------------------------------

type SessionCreated struct {
	Name   string          `json:"name"`
	Config json.RawMessage `json:"config"`
}

func (SessionCreated) Type() string { return "SessionCreated" }

type SessionResumed struct {
	FromSnapshot *CheckpointID `json:"from_snapshot,omitempty"`
}

func (SessionResumed) Type() string { return "SessionResumed" }

type SessionClosed struct {
	Reason string `json:"reason"`
}

func (SessionClosed) Type() string { return "SessionClosed" }

type BranchCreated struct {
	NewBranchID  BranchID `json:"new_branch_id"`
	ForkPointSeq SeqNo    `json:"fork_point_seq"`
	Name         string   `json:"name"`
}

func (BranchCreated) Type() string { return "BranchCreated" }

type BranchMerged struct {
	SourceBranchID BranchID `json:"source_branch_id"`
	MergeSeq       SeqNo    `json:"merge_seq"`
}

func (BranchMerged) Type() string { return "BranchMerged" }

// --- Loop phases -----------------------------------------------------------------

type PhaseEntered struct {
	Phase LoopPhase `json:"phase"`
}

func (PhaseEntered) Type() string { return "PhaseEntered" }

// --- Deliberation / run / step -----------------------------------------------------

type DeliberationProposed struct {
	Summary      string  `json:"summary"`
	ProposedTool *string `json:"proposed_tool,omitempty"`
}

func (DeliberationProposed) Type() string { return "DeliberationProposed" }

type RunStarted struct {
	Provider      string `json:"provider"`
	MaxIterations uint32 `json:"max_iterations"`
}

func (RunStarted) Type() string { return "RunStarted" }

type RunFinished struct {
	Reason          string      `json:"reason"`
	TotalIterations uint32      `json:"total_iterations"`
	FinalAnswer     *string     `json:"final_answer,omitempty"`
	Usage           *TokenUsage `json:"usage,omitempty"`
}

func (RunFinished) Type() string { return "RunFinished" }

type RunErrored struct {
	Error string `json:"error"`
}

func (RunErrored) Type() string { return "RunErrored" }

type StepStarted struct {
	Index uint32 `json:"index"`
}

func (StepStarted) Type() string { return "StepStarted" }

type StepFinished struct {
	Index          uint32 `json:"index"`
	StopReason     string `json:"stop_reason"`
	DirectiveCount int    `json:"directive_count"`
}

func (StepFinished) Type() string { return "StepFinished" }

type TextDelta struct {
	Delta string  `json:"delta"`
	Index *uint32 `json:"index,omitempty"`
}

func (TextDelta) Type() string { return "TextDelta" }

type Message struct {
	Role       string      `json:"role"`
	Content    string      `json:"content"`
	Model      *string     `json:"model,omitempty"`
	TokenUsage *TokenUsage `json:"token_usage,omitempty"`
}

func (Message) Type() string { return "Message" }

// --- Tool lifecycle ----------------------------------------------------------------

type ToolCallRequested struct {
	CallID    string          `json:"call_id"`
	ToolName  string          `json:"tool_name"`
	Arguments json.RawMessage `json:"arguments"`
	Category  *string         `json:"category,omitempty"`
}

func (ToolCallRequested) Type() string { return "ToolCallRequested" }

type ToolCallStarted struct {
	ToolRunID ToolRunID `json:"tool_run_id"`
	ToolName  string    `json:"tool_name"`
}

func (ToolCallStarted) Type() string { return "ToolCallStarted" }

type ToolCallCompleted struct {
	ToolRunID  ToolRunID       `json:"tool_run_id"`
	CallID     *string         `json:"call_id,omitempty"`
	ToolName   string          `json:"tool_name"`
	Result     json.RawMessage `json:"result"`
	DurationMs int64           `json:"duration_ms"`
	Status     SpanStatus      `json:"status"`
}

func (ToolCallCompleted) Type() string { return "ToolCallCompleted" }

type ToolCallFailed struct {
	CallID   string `json:"call_id"`
	ToolName string `json:"tool_name"`
	Error    string `json:"error"`
}

func (ToolCallFailed) Type() string { return "ToolCallFailed" }

// --- File operations -------------------------------------------------------------------

type FileWrite struct {
	Path        string   `json:"path"`
	BlobHash    BlobHash `json:"blob_hash"`
	SizeBytes   uint64   `json:"size_bytes"`
	ContentType *string  `json:"content_type,omitempty"`
}

func (FileWrite) Type() string { return "FileWrite" }

type FileDelete struct {
	Path string `json:"path"`
}

func (FileDelete) Type() string { return "FileDelete" }

type FileRename struct {
	OldPath string `json:"old_path"`
	NewPath string `json:"new_path"`
}

func (FileRename) Type() string { return "FileRename" }

type FileMutated struct {
	Path     string   `json:"path"`
	BlobHash BlobHash `json:"blob_hash"`
}

func (FileMutated) Type() string { return "FileMutated" }

// --- State / context management ---------------------------------------------------------

type StatePatched struct {
	Index    *uint32         `json:"index,omitempty"`
	Patch    json.RawMessage `json:"patch"`
	Revision uint64          `json:"revision"`
}

func (StatePatched) Type() string { return "StatePatched" }

type ContextCompacted struct {
	DroppedCount int `json:"dropped_count"`
	TokensBefore int `json:"tokens_before"`
	TokensAfter  int `json:"tokens_after"`
}

func (ContextCompacted) Type() string { return "ContextCompacted" }

// --- Policy ------------------------------------------------------------------------------

type PolicyEvaluated struct {
	ToolName    string             `json:"tool_name"`
	Decision    PolicyDecisionKind `json:"decision"`
	RuleID      *string            `json:"rule_id,omitempty"`
	Explanation *string            `json:"explanation,omitempty"`
}

func (PolicyEvaluated) Type() string { return "PolicyEvaluated" }

// --- Snapshots -----------------------------------------------------------------------------

type SnapshotCreated struct {
	SnapshotID       SnapshotID   `json:"snapshot_id"`
	SnapshotType     SnapshotType `json:"snapshot_type"`
	CoversThroughSeq SeqNo        `json:"covers_through_seq"`
	DataHash         BlobHash     `json:"data_hash"`
}

func (SnapshotCreated) Type() string { return "SnapshotCreated" }

// --- Sandbox lifecycle -----------------------------------------------------------------------

type SandboxCreated struct {
	SandboxID string          `json:"sandbox_id"`
	Tier      string          `json:"tier"`
	Config    json.RawMessage `json:"config"`
}

func (SandboxCreated) Type() string { return "SandboxCreated" }

type SandboxExecuted struct {
	SandboxID  string `json:"sandbox_id"`
	Command    string `json:"command"`
	ExitCode   int32  `json:"exit_code"`
	DurationMs int64  `json:"duration_ms"`
}

func (SandboxExecuted) Type() string { return "SandboxExecuted" }

type SandboxViolation struct {
	SandboxID     string `json:"sandbox_id"`
	ViolationType string `json:"violation_type"`
	Details       string `json:"details"`
}

func (SandboxViolation) Type() string { return "SandboxViolation" }

type SandboxDestroyed struct {
	SandboxID string `json:"sandbox_id"`
}

func (SandboxDestroyed) Type() string { return "SandboxDestroyed" }

// --- Memory lifecycle ------------------------------------------------------------------------

type ObservationAppended struct {
	Scope          MemoryScope `json:"scope"`
	ObservationRef BlobHash    `json:"observation_ref"`
	SourceRunID    *string     `json:"source_run_id,omitempty"`
}

func (ObservationAppended) Type() string { return "ObservationAppended" }

type ReflectionCompacted struct {
	Scope            MemoryScope `json:"scope"`
	SummaryRef       BlobHash    `json:"summary_ref"`
	CoversThroughSeq SeqNo       `json:"covers_through_seq"`
}

func (ReflectionCompacted) Type() string { return "ReflectionCompacted" }

type MemoryProposed struct {
	Scope       MemoryScope `json:"scope"`
	ProposalID  MemoryID    `json:"proposal_id"`
	EntriesRef  BlobHash    `json:"entries_ref"`
	SourceRunID *string     `json:"source_run_id,omitempty"`
}

func (MemoryProposed) Type() string { return "MemoryProposed" }

type MemoryCommitted struct {
	Scope        MemoryScope `json:"scope"`
	MemoryID     MemoryID    `json:"memory_id"`
	CommittedRef BlobHash    `json:"committed_ref"`
	Supersedes   *MemoryID   `json:"supersedes,omitempty"`
}

func (MemoryCommitted) Type() string { return "MemoryCommitted" }

type MemoryTombstoned struct {
	Scope    MemoryScope `json:"scope"`
	MemoryID MemoryID    `json:"memory_id"`
	Reason   string      `json:"reason"`
}

func (MemoryTombstoned) Type() string { return "MemoryTombstoned" }

// --- Approval ----------------------------------------------------------------------

type ApprovalRequested struct {
	ApprovalID ApprovalID `json:"approval_id"`
	Capability string     `json:"capability"`
	Reason     string     `json:"reason"`
}

func (ApprovalRequested) Type() string { return "ApprovalRequested" }

type ApprovalResolved struct {
	ApprovalID ApprovalID       `json:"approval_id"`
	Decision   ApprovalDecision `json:"decision"`
	Reason     string           `json:"reason"`
}

func (ApprovalResolved) Type() string { return "ApprovalResolved" }

// --- State / budget / circuit breaker ------------------------------------------------

type StateEstimated struct {
	State AgentStateVector `json:"state"`
	Mode  OperatingMode    `json:"mode"`
}

func (StateEstimated) Type() string { return "StateEstimated" }

type BudgetUpdated struct {
	Budget BudgetState `json:"budget"`
	Reason string      `json:"reason"`
}

func (BudgetUpdated) Type() string { return "BudgetUpdated" }

type CircuitBreakerTripped struct {
	Reason      string `json:"reason"`
	ErrorStreak uint32 `json:"error_streak"`
}

func (CircuitBreakerTripped) Type() string { return "CircuitBreakerTripped" }

type ModeChanged struct {
	From   OperatingMode `json:"from"`
	To     OperatingMode `json:"to"`
	Reason string        `json:"reason"`
}

func (ModeChanged) Type() string { return "ModeChanged" }

type GatesUpdated struct {
	Gates  json.RawMessage `json:"gates"`
	Reason string          `json:"reason"`
}

func (GatesUpdated) Type() string { return "GatesUpdated" }

// --- Checkpoint / heartbeat ------------------------------------------------------------

type CheckpointCreated struct {
	CheckpointID  CheckpointID `json:"checkpoint_id"`
	EventSequence SeqNo        `json:"event_sequence"`
	StateHash     string       `json:"state_hash"`
}

func (CheckpointCreated) Type() string { return "CheckpointCreated" }

type CheckpointRestored struct {
	CheckpointID  CheckpointID `json:"checkpoint_id"`
	RestoredToSeq SeqNo        `json:"restored_to_seq"`
}

func (CheckpointRestored) Type() string { return "CheckpointRestored" }

type Heartbeat struct {
	Summary      string        `json:"summary"`
	CheckpointID *CheckpointID `json:"checkpoint_id,omitempty"`
}

func (Heartbeat) Type() string { return "Heartbeat" }

// --- Voice (event kinds retained for forward-compat; adapter out of scope) ----------------

type VoiceChunk struct {
	SequenceInUtterance uint32 `json:"sequence_in_utterance"`
	Bytes               int    `json:"bytes"`
	Final               bool   `json:"final"`
}

func (VoiceChunk) Type() string { return "VoiceChunk" }

type VoiceSessionStarted struct {
	VoiceSessionID string `json:"voice_session_id"`
	Adapter        string `json:"adapter"`
	Model          string `json:"model"`
	SampleRateHz   uint32 `json:"sample_rate_hz"`
	Channels       uint8  `json:"channels"`
}

func (VoiceSessionStarted) Type() string { return "VoiceSessionStarted" }

type VoiceInputChunk struct {
	VoiceSessionID string `json:"voice_session_id"`
	ChunkIndex     uint64 `json:"chunk_index"`
	Bytes          int    `json:"bytes"`
	Format         string `json:"format"`
}

func (VoiceInputChunk) Type() string { return "VoiceInputChunk" }

type VoiceOutputChunk struct {
	VoiceSessionID string `json:"voice_session_id"`
	ChunkIndex     uint64 `json:"chunk_index"`
	Bytes          int    `json:"bytes"`
	Format         string `json:"format"`
}

func (VoiceOutputChunk) Type() string { return "VoiceOutputChunk" }

type VoiceSessionStopped struct {
	VoiceSessionID string `json:"voice_session_id"`
	Reason         string `json:"reason"`
}

func (VoiceSessionStopped) Type() string { return "VoiceSessionStopped" }

type VoiceAdapterError struct {
	VoiceSessionID string `json:"voice_session_id"`
	Message        string `json:"message"`
}

func (VoiceAdapterError) Type() string { return "VoiceAdapterError" }

// --- World model (forward-looking, no producer in this kernel yet) -----------------------

type WorldModelObserved struct {
	StateRef BlobHash        `json:"state_ref"`
	Meta     json.RawMessage `json:"meta"`
}

func (WorldModelObserved) Type() string { return "WorldModelObserved" }

type WorldModelRollout struct {
	TrajectoryRef BlobHash `json:"trajectory_ref"`
	Score         *float32 `json:"score,omitempty"`
}

func (WorldModelRollout) Type() string { return "WorldModelRollout" }

// --- Intent lifecycle (forward-looking, no producer in this kernel yet) ------------------

type IntentProposed struct {
	IntentID string     `json:"intent_id"`
	Kind     string     `json:"kind"`
	Risk     *RiskLevel `json:"risk,omitempty"`
}

func (IntentProposed) Type() string { return "IntentProposed" }

type IntentEvaluated struct {
	IntentID         string   `json:"intent_id"`
	Allowed          bool     `json:"allowed"`
	RequiresApproval bool     `json:"requires_approval"`
	Reasons          []string `json:"reasons"`
}

func (IntentEvaluated) Type() string { return "IntentEvaluated" }

// --- Generic error / forward-compat fallback ----------------------------------------------

type ErrorRaised struct {
	Message string `json:"message"`
}

func (ErrorRaised) Type() string { return "ErrorRaised" }

// Custom is the forward-compatible fallback for unknown event tags.
// Deserialization MUST NOT fail on an unrecognized "type"; it MUST
// project into Custom instead, preserving the original tag and payload.
type Custom struct {
	EventType string          `json:"event_type"`
	Data      json.RawMessage `json:"data"`
}

func (Custom) Type() string { return "Custom" }

var kindConstructors = map[string]func() EventKind{
	"SessionCreated":        func() EventKind { return &SessionCreated{} },
	"SessionResumed":        func() EventKind { return &SessionResumed{} },
	"SessionClosed":         func() EventKind { return &SessionClosed{} },
	"BranchCreated":         func() EventKind { return &BranchCreated{} },
	"BranchMerged":          func() EventKind { return &BranchMerged{} },
	"PhaseEntered":          func() EventKind { return &PhaseEntered{} },
	"DeliberationProposed":  func() EventKind { return &DeliberationProposed{} },
	"RunStarted":            func() EventKind { return &RunStarted{} },
	"RunFinished":           func() EventKind { return &RunFinished{} },
	"RunErrored":            func() EventKind { return &RunErrored{} },
	"StepStarted":           func() EventKind { return &StepStarted{} },
	"StepFinished":          func() EventKind { return &StepFinished{} },
	"TextDelta":             func() EventKind { return &TextDelta{} },
	"Message":               func() EventKind { return &Message{} },
	"ToolCallRequested":     func() EventKind { return &ToolCallRequested{} },
	"ToolCallStarted":       func() EventKind { return &ToolCallStarted{} },
	"ToolCallCompleted":     func() EventKind { return &ToolCallCompleted{} },
	"ToolCallFailed":        func() EventKind { return &ToolCallFailed{} },
	"FileWrite":             func() EventKind { return &FileWrite{} },
	"FileDelete":            func() EventKind { return &FileDelete{} },
	"FileRename":            func() EventKind { return &FileRename{} },
	"FileMutated":           func() EventKind { return &FileMutated{} },
	"StatePatched":          func() EventKind { return &StatePatched{} },
	"ContextCompacted":      func() EventKind { return &ContextCompacted{} },
	"PolicyEvaluated":       func() EventKind { return &PolicyEvaluated{} },
	"ApprovalRequested":     func() EventKind { return &ApprovalRequested{} },
	"ApprovalResolved":      func() EventKind { return &ApprovalResolved{} },
	"SnapshotCreated":       func() EventKind { return &SnapshotCreated{} },
	"SandboxCreated":        func() EventKind { return &SandboxCreated{} },
	"SandboxExecuted":       func() EventKind { return &SandboxExecuted{} },
	"SandboxViolation":      func() EventKind { return &SandboxViolation{} },
	"SandboxDestroyed":      func() EventKind { return &SandboxDestroyed{} },
	"ObservationAppended":   func() EventKind { return &ObservationAppended{} },
	"ReflectionCompacted":   func() EventKind { return &ReflectionCompacted{} },
	"MemoryProposed":        func() EventKind { return &MemoryProposed{} },
	"MemoryCommitted":       func() EventKind { return &MemoryCommitted{} },
	"MemoryTombstoned":      func() EventKind { return &MemoryTombstoned{} },
	"StateEstimated":        func() EventKind { return &StateEstimated{} },
	"BudgetUpdated":         func() EventKind { return &BudgetUpdated{} },
	"ModeChanged":           func() EventKind { return &ModeChanged{} },
	"GatesUpdated":          func() EventKind { return &GatesUpdated{} },
	"CircuitBreakerTripped": func() EventKind { return &CircuitBreakerTripped{} },
	"CheckpointCreated":     func() EventKind { return &CheckpointCreated{} },
	"CheckpointRestored":    func() EventKind { return &CheckpointRestored{} },
	"Heartbeat":             func() EventKind { return &Heartbeat{} },
	"VoiceChunk":            func() EventKind { return &VoiceChunk{} },
	"VoiceSessionStarted":   func() EventKind { return &VoiceSessionStarted{} },
	"VoiceInputChunk":       func() EventKind { return &VoiceInputChunk{} },
	"VoiceOutputChunk":      func() EventKind { return &VoiceOutputChunk{} },
	"VoiceSessionStopped":   func() EventKind { return &VoiceSessionStopped{} },
	"VoiceAdapterError":     func() EventKind { return &VoiceAdapterError{} },
	"WorldModelObserved":    func() EventKind { return &WorldModelObserved{} },
	"WorldModelRollout":     func() EventKind { return &WorldModelRollout{} },
	"IntentProposed":        func() EventKind { return &IntentProposed{} },
	"IntentEvaluated":       func() EventKind { return &IntentEvaluated{} },
	"ErrorRaised":           func() EventKind { return &ErrorRaised{} },
}

// decodeKind parses a tagged {"type": "...", ...} object into the matching
// EventKind, or into Custom{event_type, data} if the tag is unrecognized.
func decodeKind(raw json.RawMessage) (EventKind, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, err
	}
	ctor, ok := kindConstructors[probe.Type]
	if !ok {
		return Custom{EventType: probe.Type, Data: raw}, nil
	}
	kind := ctor()
	if err := json.Unmarshal(raw, kind); err != nil {
		return nil, err
	}
	// ctor returns a pointer; dereference to the value form for callers.
	switch v := kind.(type) {
	case *SessionCreated:
		return *v, nil
	case *SessionResumed:
		return *v, nil
	case *SessionClosed:
		return *v, nil
	case *BranchCreated:
		return *v, nil
	case *BranchMerged:
		return *v, nil
	case *PhaseEntered:
		return *v, nil
	case *DeliberationProposed:
		return *v, nil
	case *RunStarted:
		return *v, nil
	case *RunFinished:
		return *v, nil
	case *RunErrored:
		return *v, nil
	case *StepStarted:
		return *v, nil
	case *StepFinished:
		return *v, nil
	case *TextDelta:
		return *v, nil
	case *Message:
		return *v, nil
	case *ToolCallRequested:
		return *v, nil
	case *ToolCallStarted:
		return *v, nil
	case *ToolCallCompleted:
		return *v, nil
	case *ToolCallFailed:
		return *v, nil
	case *FileWrite:
		return *v, nil
	case *FileDelete:
		return *v, nil
	case *FileRename:
		return *v, nil
	case *FileMutated:
		return *v, nil
	case *StatePatched:
		return *v, nil
	case *ContextCompacted:
		return *v, nil
	case *PolicyEvaluated:
		return *v, nil
	case *ApprovalRequested:
		return *v, nil
	case *ApprovalResolved:
		return *v, nil
	case *SnapshotCreated:
		return *v, nil
	case *SandboxCreated:
		return *v, nil
	case *SandboxExecuted:
		return *v, nil
	case *SandboxViolation:
		return *v, nil
	case *SandboxDestroyed:
		return *v, nil
	case *ObservationAppended:
		return *v, nil
	case *ReflectionCompacted:
		return *v, nil
	case *MemoryProposed:
		return *v, nil
	case *MemoryCommitted:
		return *v, nil
	case *MemoryTombstoned:
		return *v, nil
	case *StateEstimated:
		return *v, nil
	case *BudgetUpdated:
		return *v, nil
	case *ModeChanged:
		return *v, nil
	case *GatesUpdated:
		return *v, nil
	case *CircuitBreakerTripped:
		return *v, nil
	case *CheckpointCreated:
		return *v, nil
	case *CheckpointRestored:
		return *v, nil
	case *Heartbeat:
		return *v, nil
	case *VoiceChunk:
		return *v, nil
	case *VoiceSessionStarted:
		return *v, nil
	case *VoiceInputChunk:
		return *v, nil
	case *VoiceOutputChunk:
		return *v, nil
	case *VoiceSessionStopped:
		return *v, nil
	case *VoiceAdapterError:
		return *v, nil
	case *WorldModelObserved:
		return *v, nil
	case *WorldModelRollout:
		return *v, nil
	case *IntentProposed:
		return *v, nil
	case *IntentEvaluated:
		return *v, nil
	case *ErrorRaised:
		return *v, nil
	default:
		return kind, nil
	}
}

// encodeKind serializes an EventKind to its tagged {"type": ..., ...} form.
func encodeKind(k EventKind) (json.RawMessage, error) {
	if c, ok := k.(Custom); ok {
		// Re-serialize preserving the original tag string exactly.
		var m map[string]json.RawMessage
		if len(c.Data) > 0 {
			if err := json.Unmarshal(c.Data, &m); err != nil {
				m = nil
			}
		}
		if m == nil {
			m = map[string]json.RawMessage{}
		}
		tag, err := json.Marshal(c.EventType)
		if err != nil {
			return nil, err
		}
		m["type"] = tag
		return json.Marshal(m)
	}

	body, err := json.Marshal(k)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	tag, err := json.Marshal(k.Type())
	if err != nil {
		return nil, err
	}
	fields["type"] = tag
	return json.Marshal(fields)
}

// EventRecord is one durable, sequenced event in the journal.
type EventRecord struct {
	EventID       EventID    `json:"event_id"`
	SessionID     SessionID  `json:"session_id"`
	BranchID      BranchID   `json:"branch_id"`
	Sequence      SeqNo      `json:"sequence"`
	Timestamp     time.Time  `json:"timestamp"`
	CausationID   *EventID   `json:"causation_id,omitempty"`
	CorrelationID *EventID   `json:"correlation_id,omitempty"`
	Kind          EventKind  `json:"kind"`
}

type eventRecordWire struct {
	EventID       EventID         `json:"event_id"`
	SessionID     SessionID       `json:"session_id"`
	BranchID      BranchID        `json:"branch_id"`
	Sequence      SeqNo           `json:"sequence"`
	Timestamp     time.Time       `json:"timestamp"`
	CausationID   *EventID        `json:"causation_id,omitempty"`
	CorrelationID *EventID        `json:"correlation_id,omitempty"`
	Kind          json.RawMessage `json:"kind"`
}

// MarshalJSON tags Kind with its wire type string.
func (e EventRecord) MarshalJSON() ([]byte, error) {
	kindRaw, err := encodeKind(e.Kind)
	if err != nil {
		return nil, err
	}
	wire := eventRecordWire{
		EventID:       e.EventID,
		SessionID:     e.SessionID,
		BranchID:      e.BranchID,
		Sequence:      e.Sequence,
		Timestamp:     e.Timestamp,
		CausationID:   e.CausationID,
		CorrelationID: e.CorrelationID,
		Kind:          kindRaw,
	}
	return json.Marshal(wire)
}

// UnmarshalJSON decodes Kind via decodeKind, falling back to Custom on an
// unrecognized type tag rather than failing.
func (e *EventRecord) UnmarshalJSON(data []byte) error {
	var wire eventRecordWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	kind, err := decodeKind(wire.Kind)
	if err != nil {
		return err
	}
	e.EventID = wire.EventID
	e.SessionID = wire.SessionID
	e.BranchID = wire.BranchID
	e.Sequence = wire.Sequence
	e.Timestamp = wire.Timestamp
	e.CausationID = wire.CausationID
	e.CorrelationID = wire.CorrelationID
	e.Kind = kind
	return nil
}
