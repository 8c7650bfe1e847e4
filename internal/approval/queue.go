// Package approval implements the human-in-the-loop approval ticket
// lifecycle: Pending -> Resolved{approved, actor}, terminal, resolvable
// exactly once.
package approval

import (
	"fmt"
	"sync"
	"time"

	"github.com/broomva/aios/pkg/protocol"
)

// Ticket is a pending capability-gated request awaiting a human decision.
type Ticket struct {
	ApprovalID protocol.ApprovalID
	SessionID  protocol.SessionID
	Capability protocol.Capability
	Reason     string
	CreatedAt  time.Time
}

// Resolution is the terminal state of a resolved ticket.
type Resolution struct {
	ApprovalID protocol.ApprovalID
	Approved   bool
	Actor      string
	ResolvedAt time.Time
}

// Queue holds two maps (pending, resolved) protected by a single
// read-write lock, matching spec §4.6 exactly.
type Queue struct {
	mu       sync.RWMutex
	pending  map[protocol.ApprovalID]Ticket
	resolved map[protocol.ApprovalID]Resolution
}

// NewQueue creates an empty approval queue.
func NewQueue() *Queue {
	return &Queue{
		pending:  make(map[protocol.ApprovalID]Ticket),
		resolved: make(map[protocol.ApprovalID]Resolution),
	}
}

// Enqueue creates a new pending ticket and returns its id.
func (q *Queue) Enqueue(session protocol.SessionID, capability protocol.Capability, reason string) protocol.ApprovalID {
	id := protocol.NewApprovalID()
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending[id] = Ticket{
		ApprovalID: id,
		SessionID:  session,
		Capability: capability,
		Reason:     reason,
		CreatedAt:  time.Now().UTC(),
	}
	return id
}

// Resolve atomically moves id from pending to resolved. Returns an error
// wrapping protocol.ErrApprovalNotPending if id was never pending.
// Resolution never overwrites: calling Resolve twice for the same id
// fails the second time because the ticket no longer exists in pending.
func (q *Queue) Resolve(id protocol.ApprovalID, approved bool, actor string) (Resolution, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.pending[id]; !ok {
		return Resolution{}, fmt.Errorf("%w: %s", protocol.ErrApprovalNotPending, id)
	}

	delete(q.pending, id)
	res := Resolution{ApprovalID: id, Approved: approved, Actor: actor, ResolvedAt: time.Now().UTC()}
	q.resolved[id] = res
	return res, nil
}

// PendingForSession returns all currently-pending tickets for session.
func (q *Queue) PendingForSession(session protocol.SessionID) []Ticket {
	q.mu.RLock()
	defer q.mu.RUnlock()

	var out []Ticket
	for _, t := range q.pending {
		if t.SessionID == session {
			out = append(out, t)
		}
	}
	return out
}

// PendingCount returns the count of currently-pending tickets for session,
// used by the mode selector.
func (q *Queue) PendingCount(session protocol.SessionID) int {
	return len(q.PendingForSession(session))
}

// Resolution returns the resolution for id, if any.
func (q *Queue) Resolution(id protocol.ApprovalID) (Resolution, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	res, ok := q.resolved[id]
	return res, ok
}
