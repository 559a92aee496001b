package history

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prxssh/foldcount/api"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	// Use in-memory database for tests
	database := &DB{path: ":memory:"}
	var err error
	database.DB, err = openDB(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := database.InitSchema(); err != nil {
		t.Fatalf("failed to initialize schema: %v", err)
	}

	return database
}

func testReport(entries ...api.Entry) *api.Report {
	return &api.Report{
		RunID:         uuid.New(),
		Entries:       entries,
		Chunks:        3,
		Merged:        2,
		DistinctWords: 42,
		TotalWords:    100,
		SourceBytes:   512,
		Warnings:      []api.Warning{{ChunkIndex: 2, Err: api.CollectionTimeout.New("late")}},
		Elapsed:       1500 * time.Millisecond,
	}
}

func TestRecordRun(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	entries := []api.Entry{{Word: "the", Count: 3}, {Word: "quick", Count: 2}}
	report := testReport(entries...)

	if err := db.RecordRun("input.txt", 5, 10, report); err != nil {
		t.Fatalf("RecordRun() error = %v", err)
	}

	run, err := db.GetRun(report.RunID)
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}

	if run.Input != "input.txt" {
		t.Errorf("run.Input = %q, want %q", run.Input, "input.txt")
	}
	if run.Folds != 5 || run.TopK != 10 {
		t.Errorf("run folds/topk = %d/%d, want 5/10", run.Folds, run.TopK)
	}
	if run.Chunks != 3 || run.Merged != 2 || run.Warnings != 1 {
		t.Errorf("run chunks/merged/warnings = %d/%d/%d, want 3/2/1", run.Chunks, run.Merged, run.Warnings)
	}
	if run.Elapsed != report.Elapsed {
		t.Errorf("run.Elapsed = %v, want %v", run.Elapsed, report.Elapsed)
	}

	got, err := db.RunEntries(report.RunID)
	if err != nil {
		t.Fatalf("RunEntries() error = %v", err)
	}
	if !slices.Equal(got, entries) {
		t.Errorf("RunEntries() = %v, want %v", got, entries)
	}
}

func TestRecordRun_Duplicate(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	report := testReport(api.Entry{Word: "a", Count: 1})
	if err := db.RecordRun("in", 1, 1, report); err != nil {
		t.Fatalf("RecordRun() first call error = %v", err)
	}
	if err := db.RecordRun("in", 1, 1, report); err == nil {
		t.Error("RecordRun() second call error = nil, want duplicate key error")
	}

	// The failed transaction must not leave extra entries behind.
	got, err := db.RunEntries(report.RunID)
	if err != nil {
		t.Fatalf("RunEntries() error = %v", err)
	}
	if len(got) != 1 {
		t.Errorf("RunEntries() returned %d entries, want 1", len(got))
	}
}

func TestRecentRuns(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		report := testReport()
		ids = append(ids, report.RunID)
		if err := db.RecordRun("in", 1, 1, report); err != nil {
			t.Fatalf("RecordRun() error = %v", err)
		}
	}

	runs, err := db.RecentRuns(2)
	if err != nil {
		t.Fatalf("RecentRuns() error = %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("RecentRuns() returned %d runs, want 2", len(runs))
	}
	if runs[0].ID != ids[2] || runs[1].ID != ids[1] {
		t.Errorf("RecentRuns() order = [%v %v], want [%v %v]", runs[0].ID, runs[1].ID, ids[2], ids[1])
	}
}

func TestGetRun_NotFound(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	_, err := db.GetRun(uuid.New())
	if !errors.Is(err, ErrRunNotFound) {
		t.Errorf("GetRun() error = %v, want %v", err, ErrRunNotFound)
	}
}

func TestRecordRun_NilReport(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	if err := db.RecordRun("in", 1, 1, nil); err == nil {
		t.Error("RecordRun(nil) error = nil, want error")
	}
}
