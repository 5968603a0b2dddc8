package engine

import (
	"log/slog"
	"runtime"
)

// Option configures an Evaluator or a Check run.
type Option func(*config)

type config struct {
	policy  MatchPolicy
	logger  *slog.Logger
	workers int
	clock   *Clock
}

func newConfig(opts []Option) config {
	cfg := config{
		policy:  MatchFirst,
		workers: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.workers < 1 {
		cfg.workers = 1
	}
	return cfg
}

// WithMatchPolicy sets how overlapping location alternatives contribute.
//
// Default: MatchFirst.
func WithMatchPolicy(p MatchPolicy) Option {
	return func(c *config) {
		c.policy = p
	}
}

// WithLogger sets the logger. Evaluators default to a discarding logger;
// Check defaults to the logger carried by its context.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithWorkers bounds the number of goroutines Check resolves instances on.
//
// Default: runtime.NumCPU(). Values below 1 mean 1.
func WithWorkers(n int) Option {
	return func(c *config) {
		c.workers = n
	}
}

// WithClock sets the clock diagnostics are stamped from.
// Use NewClockAt to continue numbering across runs.
func WithClock(clock *Clock) Option {
	return func(c *config) {
		c.clock = clock
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
