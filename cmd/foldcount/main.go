package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/prxssh/foldcount/internal/history"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		slog.Error("foldcount failed", "error", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:      "foldcount",
		Usage:     "rank the most frequent words of a text file with a parallel map-reduce",
		ArgsUsage: "[input]",
		Flags:     countFlags(),
		Action:    CountAction,
		Commands: []*cli.Command{
			{
				Name:      "count",
				Usage:     "split the input, count every chunk concurrently and print the top words",
				ArgsUsage: "[input]",
				Flags:     countFlags(),
				Action:    CountAction,
			},
			{
				Name:  "history",
				Usage: "list runs recorded with --history",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "db",
						Usage: "SQLite history file",
						Value: history.DefaultDBName,
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "number of runs to list, newest first",
						Value: 10,
					},
					&cli.StringFlag{
						Name:  "format",
						Usage: "output format: text, yaml or json",
						Value: formatText,
					},
				},
				Action: HistoryAction,
			},
		},
	}
}

func countFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "input",
			Aliases: []string{"i"},
			Usage:   "text file to count, - for stdin (or pass it as the first argument)",
		},
		&cli.IntFlag{
			Name:    "folds",
			Aliases: []string{"f"},
			Usage:   "number of chunks, one worker per chunk",
			Value:   5,
		},
		&cli.IntFlag{
			Name:    "top",
			Aliases: []string{"k"},
			Usage:   "number of words to print",
			Value:   10,
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "bound on each wait for a worker result",
			Value: 10 * time.Second,
		},
		&cli.StringFlag{
			Name:  "config",
			Usage: "YAML config file; flags override its values",
		},
		&cli.StringFlag{
			Name:  "format",
			Usage: "output format: text, yaml or json",
			Value: formatText,
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "where to write the ranking, - for stdout",
			Value:   "-",
		},
		&cli.StringFlag{
			Name:  "history",
			Usage: "SQLite file to record the run in",
		},
		&cli.BoolFlag{
			Name:  "quiet",
			Usage: "only log errors",
		},
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "log every task",
		},
	}
}

func newLogger(c *cli.Context) *slog.Logger {
	level := slog.LevelInfo
	switch {
	case c.Bool("quiet"):
		level = slog.LevelError
	case c.Bool("verbose"):
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
