package task

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// StatusStore tracks task state for polling clients. Task state is
// process-lifetime only: it is never persisted and never evicted.
type StatusStore interface {
	// Create allocates a fresh task identifier and inserts a pending
	// record with a nil result. It never fails.
	Create() uuid.UUID

	// Get returns a consistent snapshot of the task's status and result.
	// The second return is false for identifiers that were never created.
	Get(id uuid.UUID) (Snapshot, bool)

	// Update atomically overwrites the status and result for an existing
	// identifier. Updates for unknown identifiers are dropped with a
	// warning rather than failing: the pipeline's failure-recovery path
	// must always be able to report, even against a store that raced with
	// external deletion.
	Update(id uuid.UUID, status Status, result any)
}

// MemoryStatusStore is the in-memory StatusStore implementation.
// All operations are safe for unboundedly many concurrent callers.
type MemoryStatusStore struct {
	mu     sync.RWMutex
	tasks  map[uuid.UUID]Snapshot
	logger *slog.Logger
}

// Ensure MemoryStatusStore implements StatusStore
var _ StatusStore = (*MemoryStatusStore)(nil)

// NewMemoryStatusStore creates an empty MemoryStatusStore.
func NewMemoryStatusStore(logger *slog.Logger) *MemoryStatusStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &MemoryStatusStore{
		tasks:  make(map[uuid.UUID]Snapshot),
		logger: logger,
	}
}

// Create implements StatusStore.Create.
func (s *MemoryStatusStore) Create() uuid.UUID {
	id := uuid.New()

	s.mu.Lock()
	s.tasks[id] = Snapshot{Status: StatusPending, Result: nil}
	s.mu.Unlock()

	return id
}

// Get implements StatusStore.Get. The returned snapshot is a copy; a poller
// can never observe a status and result written by different updates.
func (s *MemoryStatusStore) Get(id uuid.UUID) (Snapshot, bool) {
	s.mu.RLock()
	snapshot, ok := s.tasks[id]
	s.mu.RUnlock()

	return snapshot, ok
}

// Update implements StatusStore.Update.
func (s *MemoryStatusStore) Update(id uuid.UUID, status Status, result any) {
	s.mu.Lock()
	_, ok := s.tasks[id]
	if ok {
		s.tasks[id] = Snapshot{Status: status, Result: result}
	}
	s.mu.Unlock()

	if !ok {
		s.logger.Warn("dropping status update for unknown task",
			"task_id", id,
			"status", status)
	}
}
