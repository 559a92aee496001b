package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/errs"
)

var (
	// SourceReadError is the class of errors raised when the input cannot be
	// opened or read. It is the only failure that aborts a run.
	SourceReadError = errs.Class("source read")

	// CollectionTimeout is the class of warnings recorded for chunks whose
	// result did not arrive within the collection window.
	CollectionTimeout = errs.Class("collection timeout")

	// WorkerFailure is the class of warnings recorded for chunks whose worker
	// returned an error or panicked.
	WorkerFailure = errs.Class("worker failure")
)

// FrequencyMap maps a normalized word to its number of occurrences.
type FrequencyMap map[string]int

// MapFunc counts the words of a single chunk.
//
// Implementations must be safe to call from many goroutines at once; each
// call owns its chunk and its returned map.
type MapFunc func(chunk string) (FrequencyMap, error)

// Entry is a single ranked (word, count) pair.
type Entry struct {
	Word  string `yaml:"word" json:"word"`
	Count int    `yaml:"count" json:"count"`
}

// Warning describes a chunk whose counts are missing from the aggregate.
type Warning struct {
	ChunkIndex int
	TaskID     uuid.UUID
	Err        error
}

func (w Warning) Error() string {
	return w.Err.Error()
}

// Report is the outcome of one pipeline run. It is always complete unless
// Warnings is non-empty, in which case the listed chunks were dropped.
type Report struct {
	RunID uuid.UUID

	// Entries holds at most TopK words, by count descending then word
	// ascending.
	Entries []Entry

	Warnings []Warning

	// Chunks is the number of chunks dispatched; Merged is how many of them
	// made it into the aggregate.
	Chunks int
	Merged int

	DistinctWords int
	TotalWords    int
	SourceBytes   int64

	Elapsed time.Duration
}

// Complete reports whether every dispatched chunk was merged.
func (r *Report) Complete() bool {
	return len(r.Warnings) == 0
}
