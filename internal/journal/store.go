// Package journal implements the durable, per-(session,branch) monotonic
// event journal: a file-backed append-only store plus a bounded live
// fan-out hub with gap/lag-aware subscription.
package journal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/broomva/aios/pkg/protocol"
)

// Named configuration constants (spec §9 Open Question 2): these are
// three distinct knobs, never conflated.
const (
	// MaxReadLimit clamps the external read_events API's limit parameter.
	MaxReadLimit = 5000
	// HubCapacity is the broadcast hub's per-subscriber buffer size.
	HubCapacity = 1024
	// SubscribeBoundedPrefix bounds the initial replay a subscription performs
	// before tailing the hub.
	SubscribeBoundedPrefix = 10000
)

type cacheKey struct {
	session protocol.SessionID
	branch  protocol.BranchID
}

// FileEventStore is a durable, append-only, per-session JSONL event store.
// Each session owns exactly one file; branches share the file and are
// distinguished by the branch_id field on each record. A single per-session
// mutex serializes writers across all of that session's branches.
type FileEventStore struct {
	dir string

	locksMu sync.Mutex
	locks   map[protocol.SessionID]*sync.Mutex

	cacheMu sync.RWMutex
	cache   map[cacheKey]protocol.SeqNo
}

// NewFileEventStore creates a store rooted at dir. dir itself is created by
// the first Append if it does not exist yet.
func NewFileEventStore(dir string) *FileEventStore {
	return &FileEventStore{
		dir:   dir,
		locks: make(map[protocol.SessionID]*sync.Mutex),
		cache: make(map[cacheKey]protocol.SeqNo),
	}
}

func (s *FileEventStore) path(session protocol.SessionID) string {
	return filepath.Join(s.dir, string(session)+".jsonl")
}

func (s *FileEventStore) sessionLock(session protocol.SessionID) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l, ok := s.locks[session]
	if !ok {
		l = &sync.Mutex{}
		s.locks[session] = l
	}
	return l
}

// Append validates and durably writes one event, then updates the
// in-memory sequence cache. It does not publish to any hub; callers that
// need fan-out should use Journal.AppendAndPublish.
func (s *FileEventStore) Append(event protocol.EventRecord) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create journal dir: %w", err)
	}

	lock := s.sessionLock(event.SessionID)
	lock.Lock()
	defer lock.Unlock()

	key := cacheKey{event.SessionID, event.BranchID}
	latest, err := s.latestLocked(key)
	if err != nil {
		return err
	}

	if event.Sequence != latest+1 {
		return fmt.Errorf("%w for session %s branch %s: expected %d, got %d",
			protocol.ErrSequenceConflict, event.SessionID, event.BranchID, latest+1, event.Sequence)
	}

	line, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("serialize event: %w", err)
	}

	f, err := os.OpenFile(s.path(event.SessionID), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open journal file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("flush event: %w", err)
	}

	s.cacheMu.Lock()
	s.cache[key] = event.Sequence
	s.cacheMu.Unlock()

	slog.Debug("journal append", "session", event.SessionID, "branch", event.BranchID, "sequence", event.Sequence)
	return nil
}

// latestLocked returns the cached sequence for key, scanning the file on a
// cache miss. Caller must hold the relevant session lock.
func (s *FileEventStore) latestLocked(key cacheKey) (protocol.SeqNo, error) {
	s.cacheMu.RLock()
	v, ok := s.cache[key]
	s.cacheMu.RUnlock()
	if ok {
		return v, nil
	}

	seq, err := s.scanLatest(key.session, key.branch)
	if err != nil {
		return 0, err
	}
	s.cacheMu.Lock()
	s.cache[key] = seq
	s.cacheMu.Unlock()
	return seq, nil
}

func (s *FileEventStore) scanLatest(session protocol.SessionID, branch protocol.BranchID) (protocol.SeqNo, error) {
	f, err := os.Open(s.path(session))
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("open journal file: %w", err)
	}
	defer f.Close()

	var latest protocol.SeqNo
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		var rec protocol.EventRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			continue
		}
		if rec.BranchID == branch && rec.Sequence > latest {
			latest = rec.Sequence
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("scan journal file: %w", err)
	}
	return latest, nil
}

// Head returns the largest sequence successfully appended for
// (session, branch); 0 if the file or branch is empty.
func (s *FileEventStore) Head(session protocol.SessionID, branch protocol.BranchID) (protocol.SeqNo, error) {
	lock := s.sessionLock(session)
	lock.Lock()
	defer lock.Unlock()
	return s.latestLocked(cacheKey{session, branch})
}

// ResyncHead forces the in-memory cache for (session,branch) to be
// recomputed from disk, used after an append failure to guarantee the
// runtime's next-sequence counter cannot drift above the journal's true
// head (spec §5 "Sequence recovery").
func (s *FileEventStore) ResyncHead(session protocol.SessionID, branch protocol.BranchID) (protocol.SeqNo, error) {
	key := cacheKey{session, branch}
	s.cacheMu.Lock()
	delete(s.cache, key)
	s.cacheMu.Unlock()
	return s.Head(session, branch)
}

// Read returns events for session ordered by file appearance, optionally
// filtered to one branch, starting at fromSequence and collecting at most
// limit records. A missing file yields an empty result and a nil error.
func (s *FileEventStore) Read(session protocol.SessionID, branch *protocol.BranchID, fromSequence protocol.SeqNo, limit int) ([]protocol.EventRecord, error) {
	f, err := os.Open(s.path(session))
	if os.IsNotExist(err) {
		return []protocol.EventRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open journal file: %w", err)
	}
	defer f.Close()

	out := make([]protocol.EventRecord, 0, limit)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() && len(out) < limit {
		var rec protocol.EventRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			continue
		}
		if branch != nil && rec.BranchID != *branch {
			continue
		}
		if rec.Sequence < fromSequence {
			continue
		}
		out = append(out, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan journal file: %w", err)
	}
	return out, nil
}
