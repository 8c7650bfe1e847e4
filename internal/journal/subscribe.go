package journal

import (
	"github.com/broomva/aios/pkg/protocol"
)

// LaggedSignal notifies a subscriber that frames were dropped by the hub
// under backpressure, before the automatic backfill below restores order.
type LaggedSignal struct {
	SkippedCount uint64
}

// SubscriptionItem is either a delivered EventRecord or a LaggedSignal.
// Exactly one of the two fields is set.
type SubscriptionItem struct {
	Event  *protocol.EventRecord
	Lagged *LaggedSignal
}

// Subscription is a live, gap-filling view of one (session, branch)'s
// events, starting just after afterSequence.
type Subscription struct {
	Items <-chan SubscriptionItem
	stop  chan struct{}
}

// Close stops the subscription's background goroutine and releases its hub
// slot.
func (s *Subscription) Close() { close(s.stop) }

// Subscribe implements the subscription protocol of spec §4.2: first
// replay a bounded prefix from the durable store, then tail the hub,
// filtering to (session, branch) and backfilling on any gap or lag signal.
func (j *Journal) Subscribe(session protocol.SessionID, branch protocol.BranchID, afterSequence protocol.SeqNo) (*Subscription, error) {
	items := make(chan SubscriptionItem, HubCapacity)
	stop := make(chan struct{})

	replay, err := j.Store.Read(session, &branch, afterSequence+1, SubscribeBoundedPrefix)
	if err != nil {
		return nil, err
	}

	expected := afterSequence + 1
	handle := j.Hub.subscribe()

	go func() {
		defer close(items)
		defer handle.unsubscribe()

		for i := range replay {
			ev := replay[i]
			select {
			case items <- SubscriptionItem{Event: &ev}:
			case <-stop:
				return
			}
			expected = ev.Sequence + 1
		}

		backfillTo := func(target protocol.SeqNo) bool {
			if target < expected {
				return true
			}
			events, err := j.Store.Read(session, &branch, expected, int(target-expected+1))
			if err != nil {
				return false
			}
			for i := range events {
				ev := events[i]
				if ev.Sequence < expected {
					continue
				}
				select {
				case items <- SubscriptionItem{Event: &ev}:
				case <-stop:
					return false
				}
				expected = ev.Sequence + 1
			}
			return true
		}

		for {
			select {
			case <-stop:
				return
			case ev, ok := <-handle.sub.ch:
				if !ok {
					return
				}

				if dropped := handle.takeDropped(); dropped > 0 {
					select {
					case items <- SubscriptionItem{Lagged: &LaggedSignal{SkippedCount: dropped}}:
					case <-stop:
						return
					}
					head, err := j.Store.Head(session, branch)
					if err == nil {
						if !backfillTo(head) {
							return
						}
					}
				}

				if ev.SessionID != session || ev.BranchID != branch {
					continue
				}
				if ev.Sequence < expected {
					continue
				}
				if ev.Sequence > expected {
					if !backfillTo(ev.Sequence) {
						return
					}
				}
				if ev.Sequence == expected {
					select {
					case items <- SubscriptionItem{Event: &ev}:
					case <-stop:
						return
					}
					expected = ev.Sequence + 1
				}
			}
		}
	}()

	return &Subscription{Items: items, stop: stop}, nil
}
