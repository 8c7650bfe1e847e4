package memorystore

import (
	"testing"

	"github.com/broomva/aios/pkg/protocol"
)

func TestLoadSoulDefaultsWhenAbsent(t *testing.T) {
	store := NewStore(t.TempDir())

	soul, err := store.LoadSoul()
	if err != nil {
		t.Fatalf("LoadSoul() error = %v", err)
	}
	want := protocol.DefaultSoulProfile()
	if soul.Name != want.Name || soul.Mission != want.Mission {
		t.Errorf("LoadSoul() = %+v, want default %+v", soul, want)
	}
}

func TestSaveSoulThenLoadRoundTrips(t *testing.T) {
	store := NewStore(t.TempDir())

	soul := protocol.DefaultSoulProfile()
	soul.Name = "test-agent"
	soul.Preferences["tone"] = "terse"

	if err := store.SaveSoul(soul); err != nil {
		t.Fatalf("SaveSoul() error = %v", err)
	}

	got, err := store.LoadSoul()
	if err != nil {
		t.Fatalf("LoadSoul() error = %v", err)
	}
	if got.Name != "test-agent" || got.Preferences["tone"] != "terse" {
		t.Errorf("LoadSoul() = %+v, want round-tripped soul", got)
	}
}

func TestListObservationsEmptyWhenAbsent(t *testing.T) {
	store := NewStore(t.TempDir())

	obs, err := store.ListObservations(10)
	if err != nil {
		t.Fatalf("ListObservations() error = %v", err)
	}
	if len(obs) != 0 {
		t.Errorf("ListObservations() = %v, want empty", obs)
	}
}

func TestAppendAndListObservationsReturnsLastNInOrder(t *testing.T) {
	store := NewStore(t.TempDir())

	for i := 0; i < 5; i++ {
		obs := protocol.NewObservation("fact", nil, protocol.Provenance{})
		if err := store.AppendObservation(obs); err != nil {
			t.Fatalf("AppendObservation() error = %v", err)
		}
	}

	all, err := store.ListObservations(0)
	if err != nil {
		t.Fatalf("ListObservations(0) error = %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("ListObservations(0) len = %d, want 5", len(all))
	}

	last3, err := store.ListObservations(3)
	if err != nil {
		t.Fatalf("ListObservations(3) error = %v", err)
	}
	if len(last3) != 3 {
		t.Fatalf("ListObservations(3) len = %d, want 3", len(last3))
	}
	for i, obs := range last3 {
		if obs.ObservationID != all[len(all)-3+i].ObservationID {
			t.Errorf("ListObservations(3)[%d] = %s, want %s in original order", i, obs.ObservationID, all[len(all)-3+i].ObservationID)
		}
	}
}
