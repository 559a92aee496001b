package task

import (
	"time"

	"github.com/google/uuid"
	"github.com/prxssh/foldcount/api"
)

// State tracks the lifecycle of a task within the coordinator.
type State uint8

const (
	// StateIdle means the task has been created but no worker has picked it
	// up yet.
	StateIdle State = iota

	// StateProgress means a worker goroutine is counting the chunk.
	StateProgress

	// StateCompleted means the task's counts were merged into the aggregate.
	StateCompleted

	// StateFailed means the worker reported an error or panicked; its counts
	// are absent from the aggregate.
	StateFailed

	// StateTimedOut means no result arrived before collection ended; its
	// counts are absent from the aggregate.
	StateTimedOut
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateProgress:
		return "in-progress"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateTimedOut:
		return "timed-out"
	default:
		return "unknown"
	}
}

// Done reports whether the task has reached a final state.
func (s State) Done() bool {
	return s == StateCompleted || s == StateFailed || s == StateTimedOut
}

// Task represents a single chunk handed to exactly one worker.
type Task struct {
	// ID is the unique identifier of this task within the run.
	ID uuid.UUID

	// Index is the position of the chunk in splitter emission order.
	Index int

	// Chunk is the word-aligned text this task counts. The task owns it
	// exclusively.
	Chunk string

	// State tracks if the task is Idle, In-Progress, or finalized.
	State State

	// StartTime, as the name itself suggests, is the time at which this task
	// was handed to a worker.
	StartTime time.Time
}

// New creates an idle task for the chunk at index.
func New(index int, chunk string) *Task {
	return &Task{
		ID:    uuid.New(),
		Index: index,
		Chunk: chunk,
		State: StateIdle,
	}
}

// Result is the single report a worker sends for its task.
type Result struct {
	TaskID uuid.UUID
	Index  int

	// Counts is the chunk's frequency map; nil when Err is set.
	Counts api.FrequencyMap
	Err    error

	Elapsed time.Duration
}
