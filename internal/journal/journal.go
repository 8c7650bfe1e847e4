package journal

import (
	"github.com/broomva/aios/pkg/protocol"
)

// Journal composes a durable FileEventStore with a live Hub. Appends are
// published to the hub only after the durable write succeeds, so a
// subscriber never observes an event that a concurrent crash could have
// lost.
type Journal struct {
	Store *FileEventStore
	Hub   *Hub
}

// NewJournal creates a Journal rooted at dir with the default hub capacity.
func NewJournal(dir string) *Journal {
	return &Journal{
		Store: NewFileEventStore(dir),
		Hub:   NewHub(HubCapacity),
	}
}

// AppendAndPublish durably appends event, then (only on success) publishes
// it to the hub. Returns the store's error unchanged on failure.
func (j *Journal) AppendAndPublish(event protocol.EventRecord) error {
	if err := j.Store.Append(event); err != nil {
		return err
	}
	j.Hub.Publish(event)
	return nil
}

// Head delegates to the store.
func (j *Journal) Head(session protocol.SessionID, branch protocol.BranchID) (protocol.SeqNo, error) {
	return j.Store.Head(session, branch)
}

// Read delegates to the store, clamping limit to MaxReadLimit and
// fromSequence to at least 1, per the external read_events contract (§6).
func (j *Journal) Read(session protocol.SessionID, branch *protocol.BranchID, fromSequence protocol.SeqNo, limit int) ([]protocol.EventRecord, error) {
	if fromSequence < 1 {
		fromSequence = 1
	}
	if limit < 1 {
		limit = 1
	}
	if limit > MaxReadLimit {
		limit = MaxReadLimit
	}
	return j.Store.Read(session, branch, fromSequence, limit)
}
