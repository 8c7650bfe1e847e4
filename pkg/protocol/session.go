package protocol

import (
	"encoding/json"
	"time"
)

// ModelRouting is the session's LLM provider routing configuration.
// Carried through even though provider integration is out of core scope:
// it is persisted configuration the manifest must hold regardless.
type ModelRouting struct {
	PrimaryModel    string   `json:"primary_model"`
	FallbackModels  []string `json:"fallback_models"`
	Temperature     float32  `json:"temperature"`
}

// DefaultModelRouting matches the original source's default routing.
func DefaultModelRouting() ModelRouting {
	return ModelRouting{
		PrimaryModel:   "claude-sonnet-4-5",
		FallbackModels: []string{"gpt-4.1"},
		Temperature:    0.2,
	}
}

// SessionManifest describes a session's identity and configuration,
// persisted at <workspace_root>/manifest.json.
type SessionManifest struct {
	SessionID     SessionID       `json:"session_id"`
	Owner         string          `json:"owner"`
	CreatedAt     time.Time       `json:"created_at"`
	WorkspaceRoot string          `json:"workspace_root"`
	ModelRouting  ModelRouting    `json:"model_routing"`
	Policy        json.RawMessage `json:"policy"`
}

// BranchInfo is the externally-visible metadata for a branch.
type BranchInfo struct {
	BranchID     BranchID  `json:"branch_id"`
	ParentBranch *BranchID `json:"parent_branch,omitempty"`
	ForkSequence SeqNo     `json:"fork_sequence"`
	HeadSequence SeqNo     `json:"head_sequence"`
	MergedInto   *BranchID `json:"merged_into,omitempty"`
}

// BranchMergeResult is returned by merge_branch.
type BranchMergeResult struct {
	SourceBranch        BranchID `json:"source_branch"`
	TargetBranch         BranchID `json:"target_branch"`
	SourceHeadSequence   SeqNo    `json:"source_head_sequence"`
	TargetHeadSequence   SeqNo    `json:"target_head_sequence"`
}

// CheckpointManifest is a snapshot of state at a specific event sequence.
type CheckpointManifest struct {
	CheckpointID  CheckpointID `json:"checkpoint_id"`
	SessionID     SessionID    `json:"session_id"`
	BranchID      BranchID     `json:"branch_id"`
	CreatedAt     time.Time    `json:"created_at"`
	EventSequence SeqNo        `json:"event_sequence"`
	StateHash     string       `json:"state_hash"`
	Note          string       `json:"note"`
}
