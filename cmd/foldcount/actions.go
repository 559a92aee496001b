package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/prxssh/foldcount"
	"github.com/prxssh/foldcount/api"
	"github.com/prxssh/foldcount/internal/history"
	"github.com/prxssh/foldcount/pkg/fs"
	"github.com/urfave/cli/v2"
)

func CountAction(c *cli.Context) error {
	logger := newLogger(c)

	format := c.String("format")
	if !validFormat(format) {
		return fmt.Errorf("unknown format %q (want text, yaml or json)", format)
	}

	storer := fs.NewLocalStorage()
	opts := []foldcount.Option{
		foldcount.WithLogger(logger),
		foldcount.WithStorer(storer),
	}

	configPath := c.String("config")
	// Without a config file the flag defaults are the defaults; with one,
	// only flags given explicitly override the file.
	useFlag := func(name string) bool {
		return configPath == "" || c.IsSet(name)
	}

	input := c.String("input")
	if input == "" {
		input = c.Args().First()
	}
	if input != "" {
		opts = append(opts, foldcount.WithInput(input))
	}
	if useFlag("folds") {
		opts = append(opts, foldcount.WithFolds(c.Int("folds")))
	}
	if useFlag("top") {
		opts = append(opts, foldcount.WithTopK(c.Int("top")))
	}
	if useFlag("timeout") {
		opts = append(opts, foldcount.WithCollectTimeout(c.Duration("timeout")))
	}

	var cfg *foldcount.Config
	if configPath != "" {
		var err error
		if cfg, err = foldcount.LoadFile(configPath, opts...); err != nil {
			return err
		}
	} else {
		cfg = foldcount.NewConfig(opts...)
	}

	if cfg.Input == "" {
		return fmt.Errorf("no input given: pass a file path or --input")
	}

	report, err := foldcount.Run(cfg)
	if err != nil {
		return fmt.Errorf("count %s: %w", cfg.Input, err)
	}

	out, err := storer.OpenWrite(c.String("output"))
	if err != nil {
		return fmt.Errorf("open output: %w", err)
	}
	if err := renderReport(out, format, cfg.Input, report); err != nil {
		_ = out.Close()
		return fmt.Errorf("write output: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}

	if path := c.String("history"); path != "" {
		if err := recordRun(path, cfg, report); err != nil {
			return err
		}
		logger.Info("run recorded", "run-id", report.RunID, "db", path)
	}

	return nil
}

func recordRun(path string, cfg *foldcount.Config, report *api.Report) error {
	db, err := history.Open(path)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer db.Close()

	if err := db.RecordRun(cfg.Input, cfg.Folds, cfg.TopK, report); err != nil {
		return fmt.Errorf("record run: %w", err)
	}

	return nil
}

func HistoryAction(c *cli.Context) error {
	format := c.String("format")
	if !validFormat(format) {
		return fmt.Errorf("unknown format %q (want text, yaml or json)", format)
	}

	db, err := history.Open(c.String("db"))
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer db.Close()

	runs, err := db.RecentRuns(c.Int("limit"))
	if err != nil {
		return err
	}

	entries := make(map[uuid.UUID][]api.Entry, len(runs))
	for _, run := range runs {
		e, err := db.RunEntries(run.ID)
		if err != nil {
			return err
		}
		entries[run.ID] = e
	}

	return renderHistory(c.App.Writer, format, runs, entries)
}
