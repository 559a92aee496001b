package foldcount

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/prxssh/foldcount/api"
	"github.com/prxssh/foldcount/internal/mapper"
	"gopkg.in/yaml.v3"
)

const (
	defaultFolds          = 5
	defaultTopK           = 10
	defaultCollectTimeout = 10 * time.Second
)

// Config holds the input and tuning knobs for a single word count run.
type Config struct {
	// Input is the path handed to Storer. "-" reads stdin when the default
	// local storage is used. Only Run needs it; RunReader ignores it.
	Input string

	// Folds is the target number of chunks the input is split into. One
	// worker goroutine is started per chunk.
	//
	// If 0, foldcount defaults to 5.
	Folds int

	// TopK is the number of most frequent words returned. Zero returns an
	// empty ranking.
	TopK int

	// CollectTimeout bounds each wait for a worker result. A chunk whose
	// result does not arrive in time is dropped and reported as a warning.
	//
	// If 0, foldcount defaults to 10 seconds.
	CollectTimeout time.Duration

	// Mapper is an optional replacement for the default word counter, which
	// splits on whitespace and lower-cases every word.
	Mapper api.MapFunc

	// Storer is the backend the input is read from. If nil, the local file
	// system is used.
	Storer api.Storer

	// Logger receives progress and warning logs. If nil, a text logger on
	// stderr is used.
	Logger *slog.Logger
}

type Option func(*Config)

// WithInput sets the input path.
func WithInput(path string) Option {
	return func(c *Config) {
		c.Input = path
	}
}

// WithFolds sets the target number of chunks.
func WithFolds(n int) Option {
	return func(c *Config) {
		c.Folds = n
	}
}

// WithTopK sets the number of ranked words returned.
func WithTopK(k int) Option {
	return func(c *Config) {
		c.TopK = k
	}
}

// WithCollectTimeout sets the per-result wait bound.
func WithCollectTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.CollectTimeout = d
	}
}

// WithMapper sets a custom chunk counting function.
func WithMapper(fn api.MapFunc) Option {
	return func(c *Config) {
		c.Mapper = fn
	}
}

// WithStorer sets the storage backend.
func WithStorer(s api.Storer) Option {
	return func(c *Config) {
		c.Storer = s
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

func defaultConfig() *Config {
	return &Config{
		Folds:          defaultFolds,
		TopK:           defaultTopK,
		CollectTimeout: defaultCollectTimeout,
		Mapper:         mapper.Count,
	}
}

func NewConfig(opts ...Option) *Config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return cfg
}

// fileConfig is the YAML layout accepted by LoadFile.
type fileConfig struct {
	Input          string `yaml:"input"`
	Folds          *int   `yaml:"folds"`
	TopK           *int   `yaml:"top_k"`
	CollectTimeout string `yaml:"collect_timeout"`
}

// LoadFile reads a YAML config file, layers it over the defaults and then
// applies opts, so explicit options win over the file.
//
//	input: corpus.txt
//	folds: 8
//	top_k: 25
//	collect_timeout: 30s
func LoadFile(path string, opts ...Option) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("foldcount: failed to read config %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("foldcount: failed to parse config %s: %w", path, err)
	}

	cfg := defaultConfig()
	if fc.Input != "" {
		cfg.Input = fc.Input
	}
	if fc.Folds != nil {
		cfg.Folds = *fc.Folds
	}
	if fc.TopK != nil {
		cfg.TopK = *fc.TopK
	}
	if fc.CollectTimeout != "" {
		d, err := time.ParseDuration(fc.CollectTimeout)
		if err != nil {
			return nil, fmt.Errorf("foldcount: invalid collect_timeout %q: %w", fc.CollectTimeout, err)
		}
		cfg.CollectTimeout = d
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return cfg, nil
}

func (cfg *Config) validate() error {
	if cfg.Folds < 1 {
		return errors.New("foldcount: Folds must be at least 1")
	}

	if cfg.TopK < 0 {
		return errors.New("foldcount: TopK can't be negative")
	}

	if cfg.CollectTimeout <= 0 {
		return errors.New("foldcount: CollectTimeout must be greater than 0")
	}

	if cfg.Mapper == nil {
		return errors.New("foldcount: Mapper function is required")
	}

	return nil
}
