package kernel

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/broomva/aios/internal/approval"
	"github.com/broomva/aios/internal/journal"
	"github.com/broomva/aios/internal/memorystore"
	"github.com/broomva/aios/internal/policyengine"
	"github.com/broomva/aios/internal/sandbox"
	"github.com/broomva/aios/internal/tools"
	"github.com/broomva/aios/pkg/protocol"
)

// Kernel wires the journal, policy engine, approval queue, and tool
// dispatcher together around a session registry, and exposes the
// runtime API of spec §6: create_session, tick, create_branch,
// merge_branch, record_external_event, resolve_approval.
type Kernel struct {
	Root       string
	Registry   *Registry
	Journal    *journal.Journal
	Policy     *policyengine.Engine
	Approvals  *approval.Queue
	Dispatcher *tools.Dispatcher
	Metrics    *Metrics
	Actors     *approval.ActorVerifier
}

// NewKernel wires a Kernel rooted at root (workspaces live under
// <root>/sessions/, the journal under <root>/events/), using toolRegistry
// and runner for dispatch.
func NewKernel(root string, toolRegistry *tools.Registry, runner sandbox.Runner) *Kernel {
	policyEngine := policyengine.NewEngine(protocol.DefaultPolicySet())
	return &Kernel{
		Root:       root,
		Registry:   NewRegistry(),
		Journal:    journal.NewJournal(filepath.Join(root, "events")),
		Policy:     policyEngine,
		Approvals:  approval.NewQueue(),
		Dispatcher: tools.NewDispatcher(toolRegistry, policyEngine, runner),
		Metrics:    NewMetrics(),
		Actors:     approval.NewActorVerifier(""),
	}
}

// WithActorSecret enables bearer-JWT actor verification for
// ResolveApproval: when actor resolves to a valid HS256 token signed with
// secret, the resolved approval actor is the token's subject claim rather
// than the raw string.
func (k *Kernel) WithActorSecret(secret string) *Kernel {
	k.Actors = approval.NewActorVerifier(secret)
	return k
}

func (k *Kernel) sessionWorkspaceRoot(id protocol.SessionID) string {
	return filepath.Join(k.Root, "sessions", string(id))
}

func (k *Kernel) memoryStore(id protocol.SessionID) *memorystore.Store {
	return memorystore.NewStore(filepath.Join(k.sessionWorkspaceRoot(id), "memory"))
}

// emit allocates the next sequence number on (session, branchID), appends
// and publishes kind through the journal, and updates the in-memory branch
// state. On append failure it resynchronizes the branch's next-sequence
// counter from the journal's true head (spec §5 "Sequence recovery") before
// returning the error.
func (k *Kernel) emit(session *Session, branchID protocol.BranchID, kind protocol.EventKind) (protocol.EventRecord, error) {
	session.Mu.Lock()
	defer session.Mu.Unlock()

	b, err := session.branch(branchID)
	if err != nil {
		return protocol.EventRecord{}, err
	}
	if b.Info.MergedInto != nil {
		return protocol.EventRecord{}, wrapf(protocol.ErrBranchReadOnly, "%s", branchID)
	}

	seq := b.NextSequence
	rec := protocol.EventRecord{
		EventID:   protocol.NewEventID(),
		SessionID: session.Manifest.SessionID,
		BranchID:  branchID,
		Sequence:  seq,
		Timestamp: time.Now().UTC(),
		Kind:      kind,
	}

	if err := k.Journal.AppendAndPublish(rec); err != nil {
		if head, resyncErr := k.Journal.Store.ResyncHead(session.Manifest.SessionID, branchID); resyncErr == nil {
			b.NextSequence = head + 1
			b.Info.HeadSequence = head
		}
		return protocol.EventRecord{}, err
	}

	b.NextSequence = seq + 1
	b.Info.HeadSequence = seq
	return rec, nil
}

// CreateSession allocates a session id, builds its workspace tree, installs
// a main branch at sequence 0, installs the policy override, and emits
// SessionCreated + PhaseEntered{Sleep} (spec §4.1 "create_session").
func (k *Kernel) CreateSession(owner string, policy protocol.PolicySet, routing protocol.ModelRouting) (protocol.SessionManifest, error) {
	id := protocol.NewSessionID()
	root := k.sessionWorkspaceRoot(id)

	if err := initWorkspace(root); err != nil {
		return protocol.SessionManifest{}, err
	}

	policyJSON, err := json.Marshal(policy)
	if err != nil {
		return protocol.SessionManifest{}, fmt.Errorf("encode policy: %w", err)
	}

	manifest := protocol.SessionManifest{
		SessionID:     id,
		Owner:         owner,
		CreatedAt:     time.Now().UTC(),
		WorkspaceRoot: root,
		ModelRouting:  routing,
		Policy:        policyJSON,
	}
	manifestJSON, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return protocol.SessionManifest{}, fmt.Errorf("encode manifest: %w", err)
	}
	if err := writeFile(filepath.Join(root, "manifest.json"), manifestJSON); err != nil {
		return protocol.SessionManifest{}, err
	}

	k.Policy.SetPolicy(id, policy)

	session := &Session{
		Manifest: manifest,
		Policy:   policy,
		Branches: map[protocol.BranchID]*BranchState{
			protocol.MainBranch: {
				Info:         protocol.BranchInfo{BranchID: protocol.MainBranch, HeadSequence: 0},
				NextSequence: 1,
			},
		},
		State: protocol.DefaultAgentStateVector(),
		Mode:  protocol.ModeSleep,
	}
	k.Registry.put(id, session)

	manifestHash := sha256Hex(manifestJSON)
	config, _ := json.Marshal(map[string]string{"manifest_hash": manifestHash})
	if _, err := k.emit(session, protocol.MainBranch, protocol.SessionCreated{Name: owner, Config: config}); err != nil {
		return protocol.SessionManifest{}, err
	}
	if _, err := k.emit(session, protocol.MainBranch, protocol.PhaseEntered{Phase: protocol.PhaseSleep}); err != nil {
		return protocol.SessionManifest{}, err
	}

	return manifest, nil
}

// ResolveApproval resolves a pending ticket and emits ApprovalResolved on
// main (spec §4.1 "resolve_approval").
func (k *Kernel) ResolveApproval(id protocol.SessionID, approvalID protocol.ApprovalID, approved bool, actor string) (approval.Resolution, error) {
	session, err := k.Registry.Get(id)
	if err != nil {
		return approval.Resolution{}, err
	}

	resolvedActor, err := k.Actors.ResolveActor(actor)
	if err != nil {
		return approval.Resolution{}, err
	}

	res, err := k.Approvals.Resolve(approvalID, approved, resolvedActor)
	if err != nil {
		return approval.Resolution{}, err
	}

	decision := protocol.ApprovalDenied
	if approved {
		decision = protocol.ApprovalApproved
	}
	if _, err := k.emit(session, protocol.MainBranch, protocol.ApprovalResolved{
		ApprovalID: approvalID,
		Decision:   decision,
		Reason:     resolvedActor,
	}); err != nil {
		return approval.Resolution{}, err
	}
	return res, nil
}

// RecordExternalEvent appends an externally-sourced event (e.g. from the
// voice/API surface) under the same sequencing invariants as a tick-driven
// event (spec §4.1 "record_external_event").
func (k *Kernel) RecordExternalEvent(id protocol.SessionID, branch protocol.BranchID, kind protocol.EventKind) (protocol.EventRecord, error) {
	session, err := k.Registry.Get(id)
	if err != nil {
		return protocol.EventRecord{}, err
	}
	return k.emit(session, branch, kind)
}

func writeFile(path string, content []byte) error {
	return os.WriteFile(path, content, 0o644)
}
