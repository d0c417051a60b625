package sheets

import (
	"context"
	"io"
	"time"

	"ytearnings/internal/core"
)

// TabHandle identifies a destination tab inside a workbook.
type TabHandle struct {
	ID    int64
	Label string
}

// SourceFile is one report listed by a ReportSource.
type SourceFile struct {
	// ID is the backend identifier (a path or a Drive file id).
	ID       string
	Name     string
	Size     int64
	Modified time.Time
}

// Ports for outbound adapters.
type (
	// TabWriter is the spreadsheet sink. WriteRows always overwrites the
	// whole tab: header at row 1, rows from row 2, in order.
	TabWriter interface {
		EnsureTab(ctx context.Context, label string) (TabHandle, error)
		ClearTab(ctx context.Context, tab TabHandle) error
		WriteRows(ctx context.Context, tab TabHandle, header []string, rows []core.OutputRow) error
	}

	// ReportSource lists and opens the monthly CSV exports.
	ReportSource interface {
		List(ctx context.Context) ([]SourceFile, error)
		Open(ctx context.Context, f SourceFile) (io.ReadCloser, error)
	}

	// Prefetcher is implemented by remote sources that can download the
	// listed files ahead of Open.
	Prefetcher interface {
		Prefetch(ctx context.Context, files []SourceFile) error
	}
)

// Publish replaces the content of the period tab with rows. The tab is
// cleared before the complete row set is written in one call.
func Publish(ctx context.Context, w TabWriter, period core.Period, rows []core.OutputRow) error {
	tab, err := w.EnsureTab(ctx, period.Label())
	if err != nil {
		return &core.SinkError{Period: period, Op: core.SinkEnsure, Err: err}
	}
	if err := w.ClearTab(ctx, tab); err != nil {
		return &core.SinkError{Period: period, Op: core.SinkClear, Err: err}
	}
	if err := w.WriteRows(ctx, tab, core.Header, rows); err != nil {
		return &core.SinkError{Period: period, Op: core.SinkWrite, Err: err}
	}
	return nil
}
