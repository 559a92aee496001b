package coordinator

import (
	"errors"
	"io"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync/atomic"
	"testing"
	"testing/iotest"
	"time"

	"github.com/prxssh/foldcount/api"
	"github.com/prxssh/foldcount/internal/mapper"
)

func newTestCoordinator(t *testing.T, folds, topK int, timeout time.Duration, fn api.MapFunc) *Coordinator {
	t.Helper()

	if fn == nil {
		fn = mapper.Count
	}
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	c, err := New(&Config{
		Folds:          folds,
		TopK:           topK,
		CollectTimeout: timeout,
		Mapper:         fn,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func runString(t *testing.T, c *Coordinator, input string) *api.Report {
	t.Helper()

	report, err := c.Run(strings.NewReader(input), int64(len(input)))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	return report
}

func TestRun_SingleFold(t *testing.T) {
	c := newTestCoordinator(t, 1, 2, 0, nil)

	report := runString(t, c, "the quick fox the quick the")

	want := []api.Entry{{Word: "the", Count: 3}, {Word: "quick", Count: 2}}
	if !slices.Equal(report.Entries, want) {
		t.Errorf("Run() entries = %v, want %v", report.Entries, want)
	}
	if !report.Complete() {
		t.Errorf("Run() warnings = %v, want none", report.Warnings)
	}
	if report.Chunks != 1 || report.Merged != 1 {
		t.Errorf("Run() chunks/merged = %d/%d, want 1/1", report.Chunks, report.Merged)
	}
	if report.TotalWords != 6 || report.DistinctWords != 3 {
		t.Errorf("Run() total/distinct = %d/%d, want 6/3", report.TotalWords, report.DistinctWords)
	}
}

func TestRun_WordStraddlesBlocks(t *testing.T) {
	// With 3 folds the long word spans all three 6-byte blocks.
	c := newTestCoordinator(t, 3, 10, 0, nil)

	report := runString(t, c, "aa bbbbbbbbbbbb cc")

	got := make(map[string]int)
	for _, e := range report.Entries {
		got[e.Word] = e.Count
	}
	want := map[string]int{"aa": 1, "bbbbbbbbbbbb": 1, "cc": 1}
	if !maps.Equal(got, want) {
		t.Errorf("Run() counts = %v, want %v", got, want)
	}
}

func TestRun_FoldsAgree(t *testing.T) {
	input := strings.Repeat("Lorem ipsum dolor sit amet consectetur adipiscing elit sed do ", 40) +
		"eiusmod tempor INCIDIDUNT ut labore et dolore magna aliqua"

	want := runString(t, newTestCoordinator(t, 1, 50, 0, nil), input).Entries

	for folds := 2; folds <= 16; folds++ {
		report := runString(t, newTestCoordinator(t, folds, 50, 0, nil), input)
		if !slices.Equal(report.Entries, want) {
			t.Errorf("folds=%d: entries = %v, want %v", folds, report.Entries, want)
		}
		if !report.Complete() {
			t.Errorf("folds=%d: warnings = %v, want none", folds, report.Warnings)
		}
	}
}

func TestRun_TimeoutDropsChunk(t *testing.T) {
	var finished atomic.Bool
	slow := func(chunk string) (api.FrequencyMap, error) {
		if strings.Contains(chunk, "bbbb") {
			defer finished.Store(true)
			time.Sleep(600 * time.Millisecond)
		}
		return mapper.Count(chunk)
	}

	// Two chunks: "aaaa " and "bbbb".
	c := newTestCoordinator(t, 2, 10, 200*time.Millisecond, slow)
	report := runString(t, c, "aaaa bbbb")

	want := []api.Entry{{Word: "aaaa", Count: 1}}
	if !slices.Equal(report.Entries, want) {
		t.Errorf("Run() entries = %v, want %v", report.Entries, want)
	}
	if len(report.Warnings) != 1 {
		t.Fatalf("Run() warnings = %v, want 1", report.Warnings)
	}
	if w := report.Warnings[0]; w.ChunkIndex != 1 || !api.CollectionTimeout.Has(w.Err) {
		t.Errorf("Run() warning = {chunk %d, %v}, want timeout for chunk 1", w.ChunkIndex, w.Err)
	}
	if report.Merged != 1 || report.Chunks != 2 {
		t.Errorf("Run() merged/chunks = %d/%d, want 1/2", report.Merged, report.Chunks)
	}
	if !finished.Load() {
		t.Error("Run() returned before the slow worker finished")
	}
}

func TestRun_WorkerPanic(t *testing.T) {
	panicky := func(chunk string) (api.FrequencyMap, error) {
		if strings.Contains(chunk, "bbbb") {
			panic("cannot count this")
		}
		return mapper.Count(chunk)
	}

	c := newTestCoordinator(t, 2, 10, 0, panicky)
	report := runString(t, c, "aaaa bbbb")

	want := []api.Entry{{Word: "aaaa", Count: 1}}
	if !slices.Equal(report.Entries, want) {
		t.Errorf("Run() entries = %v, want %v", report.Entries, want)
	}
	if len(report.Warnings) != 1 || !api.WorkerFailure.Has(report.Warnings[0].Err) {
		t.Errorf("Run() warnings = %v, want one worker failure", report.Warnings)
	}
}

func TestRun_WorkerError(t *testing.T) {
	boom := errors.New("boom")
	failing := func(chunk string) (api.FrequencyMap, error) {
		if strings.Contains(chunk, "aaaa") {
			return nil, boom
		}
		return mapper.Count(chunk)
	}

	c := newTestCoordinator(t, 2, 10, 0, failing)
	report := runString(t, c, "aaaa bbbb")

	if len(report.Warnings) != 1 {
		t.Fatalf("Run() warnings = %v, want 1", report.Warnings)
	}
	w := report.Warnings[0]
	if w.ChunkIndex != 0 || !errors.Is(w.Err, boom) {
		t.Errorf("Run() warning = {chunk %d, %v}, want chunk 0 wrapping %v", w.ChunkIndex, w.Err, boom)
	}

	want := []api.Entry{{Word: "bbbb", Count: 1}}
	if !slices.Equal(report.Entries, want) {
		t.Errorf("Run() entries = %v, want %v", report.Entries, want)
	}
}

func TestRun_SourceReadError(t *testing.T) {
	c := newTestCoordinator(t, 2, 10, 0, nil)

	_, err := c.Run(iotest.ErrReader(errors.New("unreadable")), 64)
	if !api.SourceReadError.Has(err) {
		t.Errorf("Run() error = %v, want source read error", err)
	}
}

func TestRun_EmptySource(t *testing.T) {
	c := newTestCoordinator(t, 3, 10, 0, nil)

	report := runString(t, c, "")
	if len(report.Entries) != 0 || report.Chunks != 0 {
		t.Errorf("Run() = %+v, want no entries and no chunks", report)
	}
}

func TestRun_ZeroTopK(t *testing.T) {
	c := newTestCoordinator(t, 2, 0, 0, nil)

	report := runString(t, c, "a b c a")
	if len(report.Entries) != 0 {
		t.Errorf("Run() entries = %v, want none", report.Entries)
	}
	if report.DistinctWords != 3 {
		t.Errorf("Run() distinct = %d, want 3", report.DistinctWords)
	}
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{"nil config", nil},
		{"zero folds", &Config{Folds: 0, TopK: 1, CollectTimeout: time.Second, Mapper: mapper.Count}},
		{"negative topk", &Config{Folds: 1, TopK: -1, CollectTimeout: time.Second, Mapper: mapper.Count}},
		{"zero timeout", &Config{Folds: 1, TopK: 1, Mapper: mapper.Count}},
		{"no mapper", &Config{Folds: 1, TopK: 1, CollectTimeout: time.Second}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg, nil); err == nil {
				t.Error("New() error = nil, want error")
			}
		})
	}
}
