package host

import (
	"io"
	"log/slog"

	"github.com/kaylienode/wasmabi/config"
)

// executorConfig holds configuration for the Executor.
type executorConfig struct {
	abi    config.Config
	logger *slog.Logger
	clock  func() int64 // curtime source; nil means time since creation
	stdout io.Writer
	stderr io.Writer
}

func defaultExecutorConfig() executorConfig {
	return executorConfig{
		abi:    config.Default(),
		logger: slog.Default(),
	}
}

// Option defines a functional option for configuring the Executor.
type Option func(*executorConfig)

// WithConfig applies a loaded host configuration.
func WithConfig(cfg config.Config) Option {
	return func(c *executorConfig) {
		c.abi = cfg
	}
}

// WithLogger sets the logger used for guest lifecycle events.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *executorConfig) {
		c.logger = logger
	}
}

// WithMemoryLimitPages caps guest memory in 64 KiB pages.
func WithMemoryLimitPages(pages uint32) Option {
	return func(c *executorConfig) {
		c.abi.MemoryLimitPages = pages
	}
}

// WithClock replaces the source of the curtime import.
func WithClock(clock func() int64) Option {
	return func(c *executorConfig) {
		c.clock = clock
	}
}

// WithOutput routes the guest's WASI stdout and stderr. Output is discarded
// by default.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(c *executorConfig) {
		c.stdout = stdout
		c.stderr = stderr
	}
}
