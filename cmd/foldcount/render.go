package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/prxssh/foldcount/api"
	"github.com/prxssh/foldcount/internal/history"
	"gopkg.in/yaml.v3"
	"storj.io/common/memory"
)

const (
	formatText = "text"
	formatYAML = "yaml"
	formatJSON = "json"
)

func validFormat(format string) bool {
	switch format {
	case formatText, formatYAML, formatJSON:
		return true
	}
	return false
}

type reportView struct {
	RunID         string        `yaml:"run_id" json:"run_id"`
	Input         string        `yaml:"input" json:"input"`
	Entries       []api.Entry   `yaml:"entries" json:"entries"`
	Warnings      []warningView `yaml:"warnings,omitempty" json:"warnings,omitempty"`
	Chunks        int           `yaml:"chunks" json:"chunks"`
	Merged        int           `yaml:"merged" json:"merged"`
	DistinctWords int           `yaml:"distinct_words" json:"distinct_words"`
	TotalWords    int           `yaml:"total_words" json:"total_words"`
	SourceBytes   int64         `yaml:"source_bytes" json:"source_bytes"`
	Elapsed       string        `yaml:"elapsed" json:"elapsed"`
}

type warningView struct {
	ChunkIndex int    `yaml:"chunk_index" json:"chunk_index"`
	TaskID     string `yaml:"task_id" json:"task_id"`
	Message    string `yaml:"message" json:"message"`
}

func newReportView(input string, r *api.Report) reportView {
	v := reportView{
		RunID:         r.RunID.String(),
		Input:         input,
		Entries:       r.Entries,
		Chunks:        r.Chunks,
		Merged:        r.Merged,
		DistinctWords: r.DistinctWords,
		TotalWords:    r.TotalWords,
		SourceBytes:   r.SourceBytes,
		Elapsed:       r.Elapsed.String(),
	}
	for _, w := range r.Warnings {
		v.Warnings = append(v.Warnings, warningView{
			ChunkIndex: w.ChunkIndex,
			TaskID:     w.TaskID.String(),
			Message:    w.Err.Error(),
		})
	}
	return v
}

func renderReport(w io.Writer, format, input string, r *api.Report) error {
	switch format {
	case formatYAML:
		return encodeYAML(w, newReportView(input, r))
	case formatJSON:
		return encodeJSON(w, newReportView(input, r))
	case formatText:
		return renderReportText(w, r)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func renderReportText(w io.Writer, r *api.Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for i, e := range r.Entries {
		fmt.Fprintf(tw, "%d.\t%s\t%s\n", i+1, e.Word, humanize.Comma(int64(e.Count)))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w,
		"\n%s words, %s distinct, %s read, %d/%d chunks merged in %s\n",
		humanize.Comma(int64(r.TotalWords)),
		humanize.Comma(int64(r.DistinctWords)),
		memory.Size(r.SourceBytes),
		r.Merged, r.Chunks,
		r.Elapsed.Round(time.Microsecond),
	)
	if err != nil {
		return err
	}

	for _, warn := range r.Warnings {
		if _, err := fmt.Fprintf(w, "warning: %v\n", warn.Err); err != nil {
			return err
		}
	}

	return nil
}

type historyView struct {
	history.Run `yaml:",inline"`
	Entries     []api.Entry `yaml:"entries" json:"entries"`
}

func renderHistory(w io.Writer, format string, runs []history.Run, entries map[uuid.UUID][]api.Entry) error {
	views := make([]historyView, 0, len(runs))
	for _, run := range runs {
		views = append(views, historyView{Run: run, Entries: entries[run.ID]})
	}

	switch format {
	case formatYAML:
		return encodeYAML(w, views)
	case formatJSON:
		return encodeJSON(w, views)
	case formatText:
		return renderHistoryText(w, views)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func renderHistoryText(w io.Writer, views []historyView) error {
	if len(views) == 0 {
		_, err := fmt.Fprintln(w, "no runs recorded")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tRUN\tINPUT\tFOLDS\tMERGED\tWORDS\tTOP")
	for _, v := range views {
		top := make([]string, 0, 3)
		for _, e := range v.Entries[:min(3, len(v.Entries))] {
			top = append(top, fmt.Sprintf("%s(%d)", e.Word, e.Count))
		}

		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d/%d\t%s\t%s\n",
			humanize.Time(v.CreatedAt),
			v.ID.String()[:8],
			v.Input,
			v.Folds,
			v.Merged, v.Chunks,
			humanize.Comma(int64(v.TotalWords)),
			strings.Join(top, " "),
		)
	}

	return tw.Flush()
}

func encodeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
