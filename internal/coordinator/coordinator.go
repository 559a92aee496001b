package coordinator

import (
	"errors"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/prxssh/foldcount/api"
	"github.com/prxssh/foldcount/internal/reducer"
	"github.com/prxssh/foldcount/internal/shuffle"
	"github.com/prxssh/foldcount/internal/splitter"
	"github.com/prxssh/foldcount/internal/task"
	"github.com/prxssh/foldcount/internal/worker"
	"golang.org/x/sync/errgroup"
	"storj.io/common/memory"
)

// Config holds the configuration parameters for a pipeline run.
type Config struct {
	// Folds is the target number of chunks the source is split into.
	Folds int

	// TopK is the number of ranked entries returned.
	TopK int

	// CollectTimeout bounds every single wait for a worker result.
	CollectTimeout time.Duration

	// Mapper counts the words of one chunk.
	Mapper api.MapFunc
}

// Coordinator drives one split → map → shuffle → reduce pipeline per call
// to Run.
//
// It is the only owner of the aggregate; workers talk to it through a single
// one-way results channel.
type Coordinator struct {
	cfg    *Config
	logger *slog.Logger
}

func New(cfg *Config, logger *slog.Logger) (*Coordinator, error) {
	if cfg == nil {
		return nil, errors.New("coordinator: config can't be nil")
	}

	if cfg.Folds < 1 {
		return nil, errors.New("coordinator: Folds must be at least 1")
	}

	if cfg.TopK < 0 {
		return nil, errors.New("coordinator: TopK can't be negative")
	}

	if cfg.CollectTimeout <= 0 {
		return nil, errors.New("coordinator: CollectTimeout must be greater than 0")
	}

	if cfg.Mapper == nil {
		return nil, errors.New("coordinator: Mapper function is required")
	}

	c := &Coordinator{
		cfg:    cfg,
		logger: logger,
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}

	return c, nil
}

// run is the state of a single pipeline invocation.
type run struct {
	id     uuid.UUID
	logger *slog.Logger

	// tasks holds one task per chunk, in chunk order.
	tasks []*task.Task
	byID  map[uuid.UUID]*task.Task

	aggregate api.FrequencyMap
	warnings  []api.Warning
	merged    int
}

// Run splits r, counts every chunk concurrently and returns the top-K words.
//
// size is the length of r in bytes, or negative if unknown. The only error
// returned is an api.SourceReadError; worker failures and collection
// timeouts degrade the report and are listed in Report.Warnings.
func (c *Coordinator) Run(r io.Reader, size int64) (*api.Report, error) {
	start := time.Now()

	rn := &run{
		id:        uuid.New(),
		byID:      make(map[uuid.UUID]*task.Task),
		aggregate: make(api.FrequencyMap),
	}
	rn.logger = c.logger.With("run-id", rn.id)

	if size >= 0 {
		rn.logger.Info(
			"splitting source",
			"size", memory.Size(size).String(),
			"folds", c.cfg.Folds,
			"block-size", memory.Size(splitter.BlockSize(size, c.cfg.Folds)).String(),
		)
	}

	chunks, err := splitter.Split(r, size, c.cfg.Folds)
	if err != nil {
		rn.logger.Error("failed to split source", "err", err)
		return nil, err
	}

	sourceBytes := size
	if sourceBytes < 0 {
		sourceBytes = 0
		for _, chunk := range chunks {
			sourceBytes += int64(len(chunk))
		}
	}

	for i, chunk := range chunks {
		t := task.New(i, chunk)
		rn.tasks = append(rn.tasks, t)
		rn.byID[t.ID] = t
	}
	rn.logger.Info("map tasks generated", "count", len(rn.tasks))

	grp, results, err := c.dispatch(rn)
	if err != nil {
		return nil, err
	}

	c.collect(rn, results)

	entries := reducer.TopK(rn.aggregate, c.cfg.TopK)

	// Timed-out workers are still running; nothing may outlive the run.
	_ = grp.Wait()

	report := &api.Report{
		RunID:         rn.id,
		Entries:       entries,
		Warnings:      rn.warnings,
		Chunks:        len(rn.tasks),
		Merged:        rn.merged,
		DistinctWords: len(rn.aggregate),
		TotalWords:    shuffle.Total(rn.aggregate),
		SourceBytes:   sourceBytes,
		Elapsed:       time.Since(start),
	}

	rn.logger.Info(
		"run finished",
		"chunks", report.Chunks,
		"merged", report.Merged,
		"distinct-words", report.DistinctWords,
		"warnings", len(report.Warnings),
		"elapsed", report.Elapsed,
	)

	return report, nil
}

// dispatch starts one worker goroutine per task. Workers are built up front
// so a construction error never leaves goroutines behind.
func (c *Coordinator) dispatch(rn *run) (*errgroup.Group, <-chan task.Result, error) {
	workers := make([]*worker.Worker, len(rn.tasks))
	for i := range rn.tasks {
		w, err := worker.New(&worker.Config{Mapper: c.cfg.Mapper}, rn.logger)
		if err != nil {
			return nil, nil, err
		}
		workers[i] = w
	}

	// Buffered to the task count: a worker whose result is no longer
	// awaited can still send and exit.
	results := make(chan task.Result, len(rn.tasks))

	grp := &errgroup.Group{}
	for i, t := range rn.tasks {
		t.State = task.StateProgress
		t.StartTime = time.Now()

		w, snapshot := workers[i], *t
		grp.Go(func() error {
			w.Execute(snapshot, results)
			return nil
		})
	}

	return grp, results, nil
}

// collect makes exactly one bounded wait per dispatched task. Tasks whose
// result never arrived are marked timed out afterwards.
func (c *Coordinator) collect(rn *run, results <-chan task.Result) {
	for attempt := range len(rn.tasks) {
		timer := time.NewTimer(c.cfg.CollectTimeout)

		select {
		case res := <-results:
			timer.Stop()
			rn.report(res)
		case <-timer.C:
			rn.logger.Warn(
				"timed out waiting for map result",
				"attempt", attempt+1,
				"attempts", len(rn.tasks),
				"timeout", c.cfg.CollectTimeout,
			)
		}
	}

	for _, t := range rn.tasks {
		if t.State.Done() {
			continue
		}

		t.State = task.StateTimedOut
		rn.warnings = append(rn.warnings, api.Warning{
			ChunkIndex: t.Index,
			TaskID:     t.ID,
			Err: api.CollectionTimeout.New(
				"chunk %d: no result within %s, its counts are dropped",
				t.Index, c.cfg.CollectTimeout,
			),
		})
		rn.logger.Warn(
			"dropping chunk without result",
			"task-id", t.ID,
			"chunk-index", t.Index,
			"running-for", time.Since(t.StartTime),
		)
	}

	slices.SortFunc(rn.warnings, func(a, b api.Warning) int {
		return a.ChunkIndex - b.ChunkIndex
	})
}
