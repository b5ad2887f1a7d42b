package task

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// funcTask runs a closure as a Task.
type funcTask struct {
	id uuid.UUID
	fn func(ctx context.Context) error
}

func (t *funcTask) ID() uuid.UUID { return t.id }

func (t *funcTask) Type() string { return "test_task" }

func (t *funcTask) Execute(ctx context.Context) error { return t.fn(ctx) }

func TestRunnerExecutesSubmittedTasks(t *testing.T) {
	t.Parallel()

	runner := NewRunner(RunnerConfig{WorkerCount: 2, QueueSize: 10}, nil)
	runner.Start()
	defer runner.Stop()

	const n = 8
	var wg sync.WaitGroup
	wg.Add(n)

	var mu sync.Mutex
	executed := make(map[uuid.UUID]bool)

	for i := 0; i < n; i++ {
		id := uuid.New()
		err := runner.Submit(context.Background(), &funcTask{
			id: id,
			fn: func(ctx context.Context) error {
				mu.Lock()
				executed[id] = true
				mu.Unlock()
				wg.Done()
				return nil
			},
		})
		require.NoError(t, err)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("tasks did not complete in time")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, executed, n)
}

func TestRunnerQueueFull(t *testing.T) {
	t.Parallel()

	// No workers started, so the queue never drains.
	runner := NewRunner(RunnerConfig{WorkerCount: 1, QueueSize: 1}, nil)

	blocker := &funcTask{id: uuid.New(), fn: func(ctx context.Context) error { return nil }}
	require.NoError(t, runner.Submit(context.Background(), blocker))

	err := runner.Submit(context.Background(), &funcTask{
		id: uuid.New(),
		fn: func(ctx context.Context) error { return nil },
	})
	assert.Error(t, err)
}
