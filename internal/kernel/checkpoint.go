package kernel

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/broomva/aios/pkg/protocol"
)

// buildCheckpoint hashes state and persists a CheckpointManifest under
// <root>/checkpoints/<checkpoint_id>/manifest.json.
func buildCheckpoint(root string, session protocol.SessionID, branch protocol.BranchID, sequence protocol.SeqNo, state protocol.AgentStateVector, note string) (protocol.CheckpointManifest, error) {
	stateJSON, err := json.Marshal(state)
	if err != nil {
		return protocol.CheckpointManifest{}, fmt.Errorf("encode state for checkpoint: %w", err)
	}
	sum := sha256.Sum256(stateJSON)

	manifest := protocol.CheckpointManifest{
		CheckpointID:  protocol.NewCheckpointID(),
		SessionID:     session,
		BranchID:      branch,
		CreatedAt:     time.Now().UTC(),
		EventSequence: sequence,
		StateHash:     hex.EncodeToString(sum[:]),
		Note:          note,
	}

	dir := filepath.Join(root, "checkpoints", string(manifest.CheckpointID))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return protocol.CheckpointManifest{}, fmt.Errorf("create checkpoint dir: %w", err)
	}
	content, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return protocol.CheckpointManifest{}, fmt.Errorf("encode checkpoint manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "manifest.json"), content, 0o644); err != nil {
		return protocol.CheckpointManifest{}, fmt.Errorf("write checkpoint manifest: %w", err)
	}
	return manifest, nil
}
