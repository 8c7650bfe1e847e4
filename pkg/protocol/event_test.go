package protocol

import (
	"encoding/json"
	"testing"
)

func roundtrip(t *testing.T, kind EventKind) EventKind {
	t.Helper()
	record := EventRecord{Kind: kind}
	data, err := json.Marshal(record)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var back EventRecord
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	return back.Kind
}

func TestErrorRaisedRoundtrip(t *testing.T) {
	back := roundtrip(t, ErrorRaised{Message: "boom"})
	got, ok := back.(ErrorRaised)
	if !ok || got.Message != "boom" {
		t.Errorf("roundtrip = %#v, want ErrorRaised{boom}", back)
	}
}

func TestMemoryEventsRoundtrip(t *testing.T) {
	back := roundtrip(t, MemoryProposed{
		Scope:      MemoryScopeAgent,
		ProposalID: MemoryID("PROP001"),
		EntriesRef: BlobHash("abc"),
	})
	if _, ok := back.(MemoryProposed); !ok {
		t.Errorf("roundtrip = %#v, want MemoryProposed", back)
	}
}

func TestModeChangedRoundtrip(t *testing.T) {
	back := roundtrip(t, ModeChanged{From: ModeExecute, To: ModeRecover, Reason: "error streak"})
	got, ok := back.(ModeChanged)
	if !ok || got.From != ModeExecute || got.To != ModeRecover {
		t.Errorf("roundtrip = %#v, want ModeChanged{Execute,Recover}", back)
	}
}

func TestVoiceEventsRoundtrip(t *testing.T) {
	back := roundtrip(t, VoiceSessionStarted{
		VoiceSessionID: "vs1",
		Adapter:        "openai-realtime",
		Model:          "gpt-4o-realtime",
		SampleRateHz:   24000,
		Channels:       1,
	})
	if _, ok := back.(VoiceSessionStarted); !ok {
		t.Errorf("roundtrip = %#v, want VoiceSessionStarted", back)
	}
}

func TestSandboxEventsRoundtrip(t *testing.T) {
	back := roundtrip(t, SandboxExecuted{SandboxID: "sb1", Command: "echo hi", ExitCode: 0, DurationMs: 12})
	got, ok := back.(SandboxExecuted)
	if !ok || got.Command != "echo hi" {
		t.Errorf("roundtrip = %#v, want SandboxExecuted{echo hi}", back)
	}
}

func TestIntentEventsRoundtrip(t *testing.T) {
	back := roundtrip(t, IntentEvaluated{IntentID: "i1", Allowed: true, RequiresApproval: false, Reasons: []string{"policy:allow"}})
	got, ok := back.(IntentEvaluated)
	if !ok || !got.Allowed || len(got.Reasons) != 1 {
		t.Errorf("roundtrip = %#v, want IntentEvaluated{Allowed:true}", back)
	}
}

func TestUnknownVariantBecomesCustom(t *testing.T) {
	raw := []byte(`{"event_id":"E1","session_id":"S1","branch_id":"main","sequence":1,"timestamp":"2026-01-01T00:00:00Z","kind":{"type":"FutureFeature","key":"value"}}`)
	var record EventRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	custom, ok := record.Kind.(Custom)
	if !ok || custom.EventType != "FutureFeature" {
		t.Errorf("Kind = %#v, want Custom{FutureFeature}", record.Kind)
	}
}

func TestWorldModelRolloutRoundtripWithoutScore(t *testing.T) {
	back := roundtrip(t, WorldModelRollout{TrajectoryRef: BlobHash("traj-1")})
	got, ok := back.(WorldModelRollout)
	if !ok || got.Score != nil {
		t.Errorf("roundtrip = %#v, want WorldModelRollout with nil Score", back)
	}
}
