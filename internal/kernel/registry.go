// Package kernel implements the tick orchestrator: the deliberation loop,
// homeostasis controller, mode selector, session/branch registry, and
// checkpoint and heartbeat machinery that together drive a session forward
// one tick at a time.
package kernel

import (
	"sync"

	"github.com/broomva/aios/pkg/protocol"
)

// BranchState is the registry's in-memory view of one branch: its public
// metadata plus the next sequence number this process will allocate on it.
type BranchState struct {
	Info         protocol.BranchInfo
	NextSequence protocol.SeqNo
}

// Session is the in-memory entry for one session: its manifest, policy,
// branches, agent state vector, mode, and tick counter. Mutated only by
// the tick orchestrator and the lifecycle operations in kernel.go, always
// under Mu.
type Session struct {
	Mu sync.Mutex

	Manifest  protocol.SessionManifest
	Policy    protocol.PolicySet
	Branches  map[protocol.BranchID]*BranchState
	State     protocol.AgentStateVector
	Mode      protocol.OperatingMode
	TickCount uint64
}

// branch looks up a branch, returning protocol.ErrBranchNotFound if absent.
// Caller must hold s.Mu.
func (s *Session) branch(id protocol.BranchID) (*BranchState, error) {
	b, ok := s.Branches[id]
	if !ok {
		return nil, wrapf(protocol.ErrBranchNotFound, "%s", id)
	}
	return b, nil
}

// Registry holds every known session in memory, keyed by id.
type Registry struct {
	mu       sync.Mutex
	sessions map[protocol.SessionID]*Session
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[protocol.SessionID]*Session)}
}

func (r *Registry) put(id protocol.SessionID, s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[id] = s
}

// Get returns the session entry for id, or protocol.ErrSessionNotFound.
func (r *Registry) Get(id protocol.SessionID) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, wrapf(protocol.ErrSessionNotFound, "%s", id)
	}
	return s, nil
}

// ListBranches returns a snapshot of every branch's public metadata.
func (s *Session) ListBranches() []protocol.BranchInfo {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	out := make([]protocol.BranchInfo, 0, len(s.Branches))
	for _, b := range s.Branches {
		out = append(out, b.Info)
	}
	return out
}
