// Package protocol defines the canonical types shared by every kernel
// component: ids, the event taxonomy, state vectors, policy, tools,
// memory, and session/checkpoint records.
package protocol

import "github.com/google/uuid"

// SessionID identifies a session. Opaque string, UUID in practice.
type SessionID string

// BranchID identifies a branch within a session. "main" always exists.
type BranchID string

// MainBranch is the well-known branch created with every session.
const MainBranch BranchID = "main"

// EventID identifies a single event record.
type EventID string

// ApprovalID identifies an approval ticket.
type ApprovalID string

// CheckpointID identifies a checkpoint manifest.
type CheckpointID string

// ToolRunID identifies a single tool execution.
type ToolRunID string

// MemoryID identifies a committed or proposed memory entry.
type MemoryID string

// SnapshotID identifies a full or incremental session snapshot.
type SnapshotID string

// BlobHash is a content hash (sha256 hex) of a file's bytes.
type BlobHash string

// SeqNo is a 1-indexed, gap-free sequence number within (session, branch).
type SeqNo uint64

// NewSessionID mints a random session id.
func NewSessionID() SessionID { return SessionID(uuid.NewString()) }

// NewEventID mints a random event id.
func NewEventID() EventID { return EventID(uuid.NewString()) }

// NewApprovalID mints a random approval id.
func NewApprovalID() ApprovalID { return ApprovalID(uuid.NewString()) }

// NewCheckpointID mints a random checkpoint id.
func NewCheckpointID() CheckpointID { return CheckpointID(uuid.NewString()) }

// NewToolRunID mints a random tool-run id.
func NewToolRunID() ToolRunID { return ToolRunID(uuid.NewString()) }
