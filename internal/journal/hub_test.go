package journal

import (
	"testing"
	"time"

	"github.com/broomva/aios/pkg/protocol"
)

func TestHubPublishFansOutToEverySubscriber(t *testing.T) {
	hub := NewHub(4)
	a := hub.subscribe()
	b := hub.subscribe()
	defer a.unsubscribe()
	defer b.unsubscribe()

	event := record(protocol.NewSessionID(), protocol.MainBranch, 1)
	hub.Publish(event)

	select {
	case got := <-a.sub.ch:
		if got.EventID != event.EventID {
			t.Errorf("subscriber a got %v, want %v", got.EventID, event.EventID)
		}
	default:
		t.Error("subscriber a received nothing")
	}
	select {
	case got := <-b.sub.ch:
		if got.EventID != event.EventID {
			t.Errorf("subscriber b got %v, want %v", got.EventID, event.EventID)
		}
	default:
		t.Error("subscriber b received nothing")
	}
}

func TestHubPublishDropsAndCountsOnFullBuffer(t *testing.T) {
	hub := NewHub(2)
	sub := hub.subscribe()
	defer sub.unsubscribe()

	session := protocol.NewSessionID()
	for i := protocol.SeqNo(1); i <= 5; i++ {
		hub.Publish(record(session, protocol.MainBranch, i))
	}

	// Capacity 2: the first two publishes fill the buffer, the remaining
	// three are dropped and counted rather than blocking the publisher.
	if dropped := sub.takeDropped(); dropped != 3 {
		t.Errorf("takeDropped() = %d, want 3", dropped)
	}
	if dropped := sub.takeDropped(); dropped != 0 {
		t.Errorf("takeDropped() after reset = %d, want 0", dropped)
	}

	drained := 0
	for {
		select {
		case <-sub.sub.ch:
			drained++
		default:
			if drained != 2 {
				t.Errorf("drained %d buffered events, want 2", drained)
			}
			return
		}
	}
}

func TestHubUnsubscribeClosesChannelAndStopsDelivery(t *testing.T) {
	hub := NewHub(4)
	sub := hub.subscribe()
	sub.unsubscribe()

	hub.Publish(record(protocol.NewSessionID(), protocol.MainBranch, 1))

	select {
	case _, ok := <-sub.sub.ch:
		if ok {
			t.Error("expected closed channel to yield no further events")
		}
	case <-time.After(time.Second):
		t.Error("channel did not close after unsubscribe")
	}
}
