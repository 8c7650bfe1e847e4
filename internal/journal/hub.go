package journal

import (
	"sync"
	"sync/atomic"

	"github.com/broomva/aios/pkg/protocol"
)

// Hub is a bounded-capacity broadcast fan-out of appended events to live
// subscribers. A slow subscriber never blocks publication: frames that
// don't fit in its buffer are dropped and counted, surfaced to the
// subscriber as a Lagged signal on its next receive.
type Hub struct {
	mu       sync.Mutex
	subs     map[uint64]*hubSub
	nextID   uint64
	capacity int
}

type hubSub struct {
	ch      chan protocol.EventRecord
	dropped atomic.Uint64
}

// NewHub creates a broadcast hub with the given per-subscriber buffer size.
func NewHub(capacity int) *Hub {
	if capacity <= 0 {
		capacity = HubCapacity
	}
	return &Hub{subs: make(map[uint64]*hubSub), capacity: capacity}
}

// Publish fans event out to every live subscriber, non-blocking.
func (h *Hub) Publish(event protocol.EventRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, sub := range h.subs {
		select {
		case sub.ch <- event:
		default:
			sub.dropped.Add(1)
		}
	}
}

// hubHandle is an internal subscription handle.
type hubHandle struct {
	id  uint64
	hub *Hub
	sub *hubSub
}

func (h *Hub) subscribe() *hubHandle {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	sub := &hubSub{ch: make(chan protocol.EventRecord, h.capacity)}
	h.subs[h.nextID] = sub
	return &hubHandle{id: h.nextID, hub: h, sub: sub}
}

func (hh *hubHandle) unsubscribe() {
	hh.hub.mu.Lock()
	defer hh.hub.mu.Unlock()
	delete(hh.hub.subs, hh.id)
	close(hh.sub.ch)
}

// takeDropped atomically reads and resets the dropped-frame counter.
func (hh *hubHandle) takeDropped() uint64 {
	return hh.sub.dropped.Swap(0)
}
