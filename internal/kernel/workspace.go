package kernel

import (
	"fmt"
	"os"
	"path/filepath"
)

// workspaceDirs lists every directory create_session must ensure exists
// under a session's workspace root, relative to that root.
var workspaceDirs = []string{
	"events", // vestigial: the journal itself lives under <root>/events/<session_id>.jsonl, see DESIGN.md
	"checkpoints",
	"state",
	filepath.Join("tools", "runs"),
	filepath.Join("artifacts", "build"),
	filepath.Join("artifacts", "reports"),
	"memory",
	"inbox",
	"outbox",
}

// initWorkspace creates the full directory tree and seed files for a new
// session's workspace root (spec §4.1 "create_session", §6 persisted state
// layout), skipping any seed file that already exists.
func initWorkspace(root string) error {
	for _, d := range workspaceDirs {
		if err := os.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
			return fmt.Errorf("create workspace dir %s: %w", d, err)
		}
	}

	seeds := map[string]string{
		filepath.Join("state", "thread.md"):      "# Thread\n",
		filepath.Join("state", "plan.yaml"):       "steps: []\n",
		filepath.Join("state", "task_graph.json"): "{\"nodes\":[],\"edges\":[]}\n",
	}
	for relPath, content := range seeds {
		full := filepath.Join(root, relPath)
		if _, err := os.Stat(full); err == nil {
			continue
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			return fmt.Errorf("write seed file %s: %w", relPath, err)
		}
	}
	return nil
}
