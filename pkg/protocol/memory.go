package protocol

import (
	"time"

	"github.com/google/uuid"
)

// MemoryScope orders the scope a memory entry is stored/retrieved at.
type MemoryScope string

const (
	MemoryScopeSession MemoryScope = "session"
	MemoryScopeUser     MemoryScope = "user"
	MemoryScopeAgent    MemoryScope = "agent"
	MemoryScopeOrg      MemoryScope = "org"
)

var memoryScopeRank = map[MemoryScope]int{
	MemoryScopeSession: 0,
	MemoryScopeUser:    1,
	MemoryScopeAgent:   2,
	MemoryScopeOrg:     3,
}

// Less reports whether s sorts before other in scope order
// (session < user < agent < org).
func (s MemoryScope) Less(other MemoryScope) bool {
	return memoryScopeRank[s] < memoryScopeRank[other]
}

// SoulProfile is the agent's durable identity and preferences, persisted
// at memory/soul.json.
type SoulProfile struct {
	Name        string            `json:"name"`
	Mission     string            `json:"mission"`
	Preferences map[string]string `json:"preferences"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// DefaultSoulProfile is returned by load_soul when no file exists yet.
func DefaultSoulProfile() SoulProfile {
	return SoulProfile{
		Name:        "aiOS kernel agent",
		Mission:     "Run tool-mediated work safely and reproducibly",
		Preferences: map[string]string{},
		UpdatedAt:   time.Now().UTC(),
	}
}

// Observation is an extracted fact with provenance, appended to
// memory/observations.jsonl.
type Observation struct {
	ObservationID string      `json:"observation_id"`
	CreatedAt     time.Time   `json:"created_at"`
	Text          string      `json:"text"`
	Tags          []string    `json:"tags"`
	Provenance    Provenance  `json:"provenance"`
}

// NewObservation mints an Observation with a random id and current timestamp.
func NewObservation(text string, tags []string, prov Provenance) Observation {
	return Observation{
		ObservationID: uuid.NewString(),
		CreatedAt:     time.Now().UTC(),
		Text:          text,
		Tags:          tags,
		Provenance:    prov,
	}
}

// Provenance links an observation back to the event range and files that
// produced it.
type Provenance struct {
	EventStart SeqNo              `json:"event_start"`
	EventEnd   SeqNo              `json:"event_end"`
	Files      []FileProvenance   `json:"files"`
}

// FileProvenance is a file path plus its content hash at observation time.
type FileProvenance struct {
	Path   string `json:"path"`
	SHA256 string `json:"sha256"`
}
