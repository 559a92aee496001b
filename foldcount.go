package foldcount

import (
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/prxssh/foldcount/api"
	"github.com/prxssh/foldcount/internal/coordinator"
	"github.com/prxssh/foldcount/pkg/fs"
)

var errNilConfig = errors.New("foldcount: config can't be nil")

type (
	Entry   = api.Entry
	Report  = api.Report
	Warning = api.Warning
)

// Run opens cfg.Input through cfg.Storer and counts its words.
//
// The returned error is always of class api.SourceReadError or a
// configuration error. Chunks lost to worker failures or collection timeouts
// do not fail the run; they are listed in Report.Warnings.
func Run(cfg *Config) (*api.Report, error) {
	if cfg == nil {
		return nil, errNilConfig
	}
	logger := cfg.logger()

	if err := cfg.validate(); err != nil {
		logger.Error("Failed to validate config", "err", err)
		return nil, err
	}

	if cfg.Input == "" {
		err := errors.New("foldcount: Input cannot be empty")
		logger.Error("Failed to validate config", "err", err)
		return nil, err
	}

	storer := cfg.Storer
	if storer == nil {
		storer = fs.NewLocalStorage()
	}

	size, err := storer.Size(cfg.Input)
	if err != nil {
		logger.Error("Failed to stat input", "input", cfg.Input, "err", err)
		return nil, api.SourceReadError.Wrap(err)
	}

	src, err := storer.OpenRead(cfg.Input)
	if err != nil {
		logger.Error("Failed to open input", "input", cfg.Input, "err", err)
		return nil, api.SourceReadError.Wrap(err)
	}
	defer src.Close()

	logger.Info("Starting run", "input", cfg.Input)
	return run(cfg, logger, src, size)
}

// RunReader counts the words of an already open source. size is its length
// in bytes, or negative if unknown.
func RunReader(cfg *Config, r io.Reader, size int64) (*api.Report, error) {
	if cfg == nil {
		return nil, errNilConfig
	}
	logger := cfg.logger()

	if err := cfg.validate(); err != nil {
		logger.Error("Failed to validate config", "err", err)
		return nil, err
	}

	return run(cfg, logger, r, size)
}

func run(cfg *Config, logger *slog.Logger, r io.Reader, size int64) (*api.Report, error) {
	c, err := coordinator.New(
		&coordinator.Config{
			Folds:          cfg.Folds,
			TopK:           cfg.TopK,
			CollectTimeout: cfg.CollectTimeout,
			Mapper:         cfg.Mapper,
		},
		logger,
	)
	if err != nil {
		return nil, err
	}

	return c.Run(r, size)
}

func (cfg *Config) logger() *slog.Logger {
	if cfg.Logger != nil {
		return cfg.Logger
	}

	return slog.New(
		slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}),
	)
}
