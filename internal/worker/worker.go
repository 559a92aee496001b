package worker

import (
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prxssh/foldcount/api"
	"github.com/prxssh/foldcount/internal/task"
)

// Config holds the user-defined logic a Worker runs.
type Config struct {
	// Mapper is the function that counts the words of a chunk.
	// It is called exactly once per task.
	Mapper api.MapFunc
}

// Worker counts a single chunk and reports the outcome to the coordinator.
//
// It shares nothing with other workers: the chunk is owned by its task and
// the only output is one send on the results channel.
type Worker struct {
	cfg    *Config
	logger *slog.Logger

	// id is a unique identifier generated at creation, used in logs only.
	id uuid.UUID
}

func New(cfg *Config, logger *slog.Logger) (*Worker, error) {
	if cfg == nil {
		return nil, errors.New("worker: config can't be nil")
	}

	if cfg.Mapper == nil {
		return nil, errors.New("worker: mapper is required")
	}

	w := &Worker{
		cfg:    cfg,
		logger: logger,
		id:     uuid.New(),
	}
	if logger == nil {
		w.logger = slog.Default()
	}

	return w, nil
}

// ID returns the worker's identifier.
func (w *Worker) ID() uuid.UUID {
	return w.id
}

// Execute counts t.Chunk and sends exactly one Result on results.
//
// Mapper errors and panics are reported through Result.Err as
// api.WorkerFailure instead of escaping the goroutine.
func (w *Worker) Execute(t task.Task, results chan<- task.Result) {
	w.logger.Debug(
		"worker started task",
		"worker-id", w.id,
		"task-id", t.ID,
		"chunk-index", t.Index,
	)

	start := time.Now()
	counts, err := w.count(t.Chunk)

	res := task.Result{
		TaskID:  t.ID,
		Index:   t.Index,
		Counts:  counts,
		Err:     err,
		Elapsed: time.Since(start),
	}
	if err != nil {
		res.Counts = nil
	}

	w.logger.Debug(
		"worker finished task",
		"worker-id", w.id,
		"task-id", t.ID,
		"success", err == nil,
		"elapsed", res.Elapsed,
	)

	results <- res
}

func (w *Worker) count(chunk string) (counts api.FrequencyMap, err error) {
	defer func() {
		if r := recover(); r != nil {
			counts = nil
			err = api.WorkerFailure.New("mapper panicked: %v", r)
		}
	}()

	counts, err = w.cfg.Mapper(chunk)
	if err != nil {
		return nil, api.WorkerFailure.Wrap(err)
	}
	if counts == nil {
		counts = api.FrequencyMap{}
	}

	return counts, nil
}
