package backend

import (
	"context"
	"errors"

	"ytearnings/internal/config"
	"ytearnings/internal/services"
	"ytearnings/internal/sheets"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Result holds the collaborators of one consolidation run. Store and Events
// are nil when the feature is disabled.
type Result struct {
	Source sheets.ReportSource
	Sink   sheets.TabWriter
	Store  services.LedgerStore
	Events services.EventPublisher

	cleanups []CleanupFunc
}

// EngineOptions returns the engine options wiring the optional collaborators.
func (r *Result) EngineOptions() []services.EngineOption {
	var opts []services.EngineOption
	if r.Store != nil {
		opts = append(opts, services.WithLedgerStore(r.Store))
	}
	if r.Events != nil {
		opts = append(opts, services.WithEvents(r.Events))
	}
	return opts
}

// Close releases resources in reverse creation order.
func (r *Result) Close() error {
	var errs []error
	for i := len(r.cleanups) - 1; i >= 0; i-- {
		if err := r.cleanups[i](); err != nil {
			errs = append(errs, err)
		}
	}
	r.cleanups = nil
	return errors.Join(errs...)
}

func (r *Result) onClose(fn CleanupFunc) {
	r.cleanups = append(r.cleanups, fn)
}

// Factory builds the collaborators selected by configuration.
type Factory interface {
	Build(ctx context.Context, cfg *config.Config, dryRun bool) (*Result, error)
}
