package protocol

import "errors"

// Sentinel errors for the kernel's error taxonomy (spec §7). Wrapped with
// fmt.Errorf("%w: ...") by callers and checked with errors.Is by tests.
var (
	ErrSequenceConflict   = errors.New("sequence conflict")
	ErrCapabilityDenied   = errors.New("capabilities denied")
	ErrToolNotFound       = errors.New("unknown tool")
	ErrInvalidToolInput   = errors.New("invalid tool input")
	ErrBranchReadOnly     = errors.New("branch is read-only")
	ErrBranchNotFound     = errors.New("branch not found")
	ErrBranchExists       = errors.New("branch already exists")
	ErrSessionNotFound    = errors.New("session not found")
	ErrApprovalNotPending = errors.New("approval not pending")
	ErrForkPastHead       = errors.New("fork sequence exceeds source branch head")
	ErrMergeSourceIsMain  = errors.New("main branch cannot be a merge source")
	ErrMergeSameBranch    = errors.New("cannot merge a branch into itself")
	ErrAlreadyMerged      = errors.New("branch already merged")
	ErrPathEscapesRoot    = errors.New("path escapes workspace root")
)
