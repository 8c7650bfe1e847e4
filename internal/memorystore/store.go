// Package memorystore persists per-session soul profiles and append-only
// observation logs under a session's memory/ directory, and can optionally
// watch that directory for out-of-process edits.
package memorystore

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/broomva/aios/pkg/protocol"
)

const (
	soulFileName         = "soul.json"
	observationsFileName = "observations.jsonl"
)

// Store manages the memory/ directory for a single session.
type Store struct {
	mu  sync.Mutex
	dir string
}

// NewStore opens (without yet creating) the memory store rooted at dir,
// typically <session_root>/memory.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) soulPath() string {
	return filepath.Join(s.dir, soulFileName)
}

func (s *Store) observationsPath() string {
	return filepath.Join(s.dir, observationsFileName)
}

// LoadSoul reads soul.json, returning protocol.DefaultSoulProfile() if the
// file does not yet exist.
func (s *Store) LoadSoul() (protocol.SoulProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	content, err := os.ReadFile(s.soulPath())
	if os.IsNotExist(err) {
		return protocol.DefaultSoulProfile(), nil
	}
	if err != nil {
		return protocol.SoulProfile{}, fmt.Errorf("read soul profile: %w", err)
	}

	var soul protocol.SoulProfile
	if err := json.Unmarshal(content, &soul); err != nil {
		return protocol.SoulProfile{}, fmt.Errorf("decode soul profile: %w", err)
	}
	return soul, nil
}

// SaveSoul overwrites soul.json with a pretty-printed encoding of soul.
func (s *Store) SaveSoul(soul protocol.SoulProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create memory dir: %w", err)
	}
	content, err := json.MarshalIndent(soul, "", "  ")
	if err != nil {
		return fmt.Errorf("encode soul profile: %w", err)
	}
	if err := os.WriteFile(s.soulPath(), content, 0o644); err != nil {
		return fmt.Errorf("write soul profile: %w", err)
	}
	return nil
}

// AppendObservation appends obs as one JSON line to observations.jsonl.
func (s *Store) AppendObservation(obs protocol.Observation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create memory dir: %w", err)
	}
	f, err := os.OpenFile(s.observationsPath(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open observations log: %w", err)
	}
	defer f.Close()

	line, err := json.Marshal(obs)
	if err != nil {
		return fmt.Errorf("encode observation: %w", err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append observation: %w", err)
	}
	return nil
}

// ListObservations returns the last limit observations, in original
// (oldest-first) order. limit <= 0 returns every observation on file.
func (s *Store) ListObservations(limit int) ([]protocol.Observation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.observationsPath())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open observations log: %w", err)
	}
	defer f.Close()

	var all []protocol.Observation
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var obs protocol.Observation
		if err := json.Unmarshal(line, &obs); err != nil {
			return nil, fmt.Errorf("decode observation: %w", err)
		}
		all = append(all, obs)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan observations log: %w", err)
	}

	if limit <= 0 || limit >= len(all) {
		return all, nil
	}
	return all[len(all)-limit:], nil
}
