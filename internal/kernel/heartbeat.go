package kernel

import (
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/broomva/aios/pkg/protocol"
)

// HeartbeatScheduler emits a Heartbeat event on a session's main branch at a
// fixed cron cadence, independent of whatever heartbeat a tick itself writes
// (SPEC_FULL.md §4.1a). It exists so a session that is idle in Sleep/AskHuman
// mode between ticks still has a liveness signal in its journal.
type HeartbeatScheduler struct {
	kernel *Kernel
	cron   *cron.Cron
	mu     sync.Mutex
	jobs   map[protocol.SessionID]cron.EntryID
}

// NewHeartbeatScheduler builds a scheduler bound to k. Call Start to begin
// running.
func NewHeartbeatScheduler(k *Kernel) *HeartbeatScheduler {
	return &HeartbeatScheduler{
		kernel: k,
		cron:   cron.New(),
		jobs:   make(map[protocol.SessionID]cron.EntryID),
	}
}

// Start begins the underlying cron scheduler in its own goroutine.
func (h *HeartbeatScheduler) Start() {
	h.cron.Start()
}

// Stop halts the scheduler and waits for any in-flight job to finish.
func (h *HeartbeatScheduler) Stop() {
	<-h.cron.Stop().Done()
}

// Register adds a session to the heartbeat cadence. spec is parsed by
// cron.New()'s standard parser: a five-field cron expression (minute
// granularity) or a descriptor such as "@every 30s"; a six-field expression
// with a seconds column such as "*/30 * * * * *" is rejected.
func (h *HeartbeatScheduler) Register(id protocol.SessionID, spec string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.jobs[id]; exists {
		return nil
	}

	entryID, err := h.cron.AddFunc(spec, func() {
		if _, err := h.kernel.RecordExternalEvent(id, protocol.MainBranch, protocol.Heartbeat{
			Summary: "scheduled",
		}); err != nil {
			slog.Warn("heartbeat scheduler failed to record event", "session_id", id, "error", err)
		}
	})
	if err != nil {
		return err
	}
	h.jobs[id] = entryID
	return nil
}

// Unregister removes a session from the heartbeat cadence, e.g. once its
// session is closed.
func (h *HeartbeatScheduler) Unregister(id protocol.SessionID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	entryID, ok := h.jobs[id]
	if !ok {
		return
	}
	h.cron.Remove(entryID)
	delete(h.jobs, id)
}
