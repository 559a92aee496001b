package coordinator

import (
	"github.com/prxssh/foldcount/api"
	"github.com/prxssh/foldcount/internal/shuffle"
	"github.com/prxssh/foldcount/internal/task"
)

// report applies one worker result to the run. A task is finalized at most
// once, so no chunk can be merged twice.
func (rn *run) report(res task.Result) {
	t, ok := rn.byID[res.TaskID]
	if !ok {
		rn.logger.Warn("received result for unknown task", "task-id", res.TaskID)
		return
	}

	if t.State.Done() {
		rn.logger.Warn(
			"ignoring result for finalized task",
			"task-id", t.ID,
			"state", t.State,
		)
		return
	}

	if res.Err != nil {
		t.State = task.StateFailed
		rn.warnings = append(rn.warnings, api.Warning{
			ChunkIndex: t.Index,
			TaskID:     t.ID,
			Err:        res.Err,
		})
		rn.logger.Warn(
			"map task failed, dropping chunk",
			"task-id", t.ID,
			"chunk-index", t.Index,
			"err", res.Err,
		)
		return
	}

	shuffle.Merge(rn.aggregate, res.Counts)
	t.State = task.StateCompleted
	rn.merged++

	rn.logger.Debug(
		"merged map result",
		"task-id", t.ID,
		"chunk-index", t.Index,
		"words", len(res.Counts),
		"elapsed", res.Elapsed,
	)
}
