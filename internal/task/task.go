package task

import (
	"context"

	"github.com/google/uuid"
)

// Status represents the current state of a tracked task.
type Status string

// Possible task status values. A task only ever advances
// pending -> processing -> completed|failed.
const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Task type constants
const (
	// TypeCreationGeneration is the task type for generating a creation
	// from a prompt and optional reference image.
	TypeCreationGeneration = "creation_generation"
)

// Task represents a unit of background work to be processed.
type Task interface {
	// ID returns the task's unique identifier.
	ID() uuid.UUID

	// Type returns the task type identifier.
	Type() string

	// Execute runs the task logic. Execute owns all status transitions for
	// its task and must never let a fault escape unrecorded: no caller is
	// waiting synchronously to observe an error.
	Execute(ctx context.Context) error
}

// Failure is the result payload of a failed task: the failure category,
// the captured error message, and a diagnostic trace.
type Failure struct {
	Category string `json:"category"`
	Error    string `json:"error"`
	Trace    string `json:"trace,omitempty"`
}

// Snapshot is a consistent point-in-time view of a task's state. Status and
// Result are always a pair written by the same update.
type Snapshot struct {
	Status Status `json:"status"`
	Result any    `json:"result"`
}
