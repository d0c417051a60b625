// Package cli provides process setup helpers and the cobra commands of the
// ytearnings binary.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"ytearnings/internal/config"
	"ytearnings/internal/log"
)

// SetupLogger installs a text logger at the given level as the default
// logger. Unknown levels fall back to info with a warning.
func SetupLogger(level string, out io.Writer) *log.Logger {
	lvl, err := log.ParseLevel(level)
	cfg := log.DefaultConfig()
	cfg.Level = lvl
	if out != nil {
		cfg.Output = out
	}
	logger := log.New(cfg)
	log.SetDefault(logger)
	if err != nil {
		logger.WarnContext(context.Background(), "Invalid LOG_LEVEL, using info", log.FieldError, err)
	}
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration, lets adjust apply command line
// overrides, and validates the result.
func LoadAndValidateConfig(adjust func(*config.Config)) (*config.Config, error) {
	cfg := config.Load()
	if adjust != nil {
		adjust(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// Execute runs the root command and maps errors to an exit code.
func Execute(ctx context.Context) int {
	LoadEnvFile()
	ctx, stop := SignalContext(ctx)
	defer stop()
	if err := NewRootCmd(nil).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}
