// Package services holds the consolidation engine.
package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"ytearnings/internal/amqp"
	"ytearnings/internal/core"
	"ytearnings/internal/extract"
	"ytearnings/internal/ledger"
	"ytearnings/internal/log"
	ports "ytearnings/internal/sheets"
)

// LedgerStore persists what each run published.
type LedgerStore interface {
	LoadDirectory(ctx context.Context, dir *ledger.Directory) error
	StartRun(ctx context.Context, testMode bool) (int64, error)
	ReplacePeriod(ctx context.Context, runID int64, period core.Period, entries []ledger.Entry) error
	SaveDirectory(ctx context.Context, dir *ledger.Directory) error
	FinishRun(ctx context.Context, runID int64, summary *core.RunSummary) error
}

// EventPublisher announces rewritten periods.
type EventPublisher interface {
	PublishPeriod(ctx context.Context, msg *amqp.PeriodPublishedMessage) error
}

// Options configures the engine. Zero values select the defaults.
type Options struct {
	Registry     *core.Registry
	Amounts      *core.AmountFormat
	Layout       ledger.Layout
	SkipPrefixes []string
	TestMode     bool
}

// Engine runs one consolidation: classify, extract, aggregate every file,
// then generate and publish one tab per period.
type Engine struct {
	source     ports.ReportSource
	sink       ports.TabWriter
	registry   *core.Registry
	classifier *core.Classifier
	extractor  *extract.Extractor
	generator  *ledger.Generator
	skip       []string
	testMode   bool

	store  LedgerStore
	events EventPublisher
	logger *log.Logger
}

// EngineOption wires optional collaborators.
type EngineOption func(*Engine)

func WithLedgerStore(s LedgerStore) EngineOption { return func(e *Engine) { e.store = s } }

func WithEvents(p EventPublisher) EngineOption { return func(e *Engine) { e.events = p } }

func WithLogger(l *log.Logger) EngineOption { return func(e *Engine) { e.logger = l } }

func NewEngine(source ports.ReportSource, sink ports.TabWriter, opts Options, extra ...EngineOption) *Engine {
	registry := opts.Registry
	if registry == nil {
		registry = core.DefaultRegistry()
	}
	amounts := core.DefaultAmountFormat()
	if opts.Amounts != nil {
		amounts = *opts.Amounts
	}
	layout := opts.Layout
	if layout.ReferenceTab == "" {
		layout = ledger.Layout{ReferenceTab: ledger.DefaultReferenceTab, NegativePayouts: layout.NegativePayouts}
	}
	e := &Engine{
		source:     source,
		sink:       sink,
		registry:   registry,
		classifier: core.NewClassifier(registry),
		extractor:  extract.New(registry, amounts),
		generator:  ledger.NewGenerator(registry, layout),
		testMode:   opts.TestMode,
	}
	for _, p := range opts.SkipPrefixes {
		if p = strings.TrimSpace(p); p != "" {
			e.skip = append(e.skip, strings.ToLower(p))
		}
	}
	for _, o := range extra {
		o(e)
	}
	if e.logger == nil {
		e.logger = log.FromContext(context.Background())
	}
	e.logger = e.logger.WithComponent(log.ComponentEngine)
	return e
}

type classified struct {
	src    ports.SourceFile
	report core.ReportFile
}

// Run executes a full consolidation. Per-file and per-period problems are
// recorded in the summary; the returned error is reserved for failures that
// stop the whole run (listing the source, cancellation).
func (e *Engine) Run(ctx context.Context) (*core.RunSummary, error) {
	start := time.Now()
	summary := &core.RunSummary{}

	files, err := e.source.List(ctx)
	if err != nil {
		return summary, fmt.Errorf("list reports: %w", err)
	}
	summary.FilesSeen = len(files)

	reports := e.classifyAll(ctx, files, summary)
	if p, ok := e.source.(ports.Prefetcher); ok && len(reports) > 0 {
		srcs := make([]ports.SourceFile, len(reports))
		for i, r := range reports {
			srcs[i] = r.src
		}
		if err := p.Prefetch(ctx, srcs); err != nil {
			return summary, fmt.Errorf("prefetch reports: %w", err)
		}
	}

	dir := ledger.NewDirectory()
	if e.store != nil {
		if err := e.store.LoadDirectory(ctx, dir); err != nil {
			e.logger.WarnContext(ctx, "Failed to load stored channel names", log.FieldError, err)
		}
	}
	agg := ledger.NewAggregator(dir)
	for _, r := range reports {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		e.extractOne(ctx, r, agg, summary)
	}
	e.logger.InfoContext(ctx, "Aggregated reports",
		log.FieldRecords, summary.RowsExtracted,
		"keys", agg.Len(),
		log.FieldChannels, agg.Directory().Len())

	var runID int64
	if e.store != nil {
		if runID, err = e.store.StartRun(ctx, e.testMode); err != nil {
			e.logger.ErrorContext(ctx, "Ledger unavailable, continuing without persistence", log.FieldError, err)
			runID = 0
		}
	}

	for _, period := range agg.Periods() {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		entries := agg.Entries(period)
		res := e.publishPeriod(ctx, period, entries, agg.Directory(), summary)
		if !res.Written {
			continue
		}
		e.persist(ctx, runID, period, entries)
		e.notify(ctx, res, runID)
	}

	if e.store != nil && runID != 0 {
		if err := e.store.SaveDirectory(ctx, agg.Directory()); err != nil {
			e.logger.ErrorContext(ctx, "Failed to store channel directory", log.FieldError, err)
		}
		if err := e.store.FinishRun(ctx, runID, summary); err != nil {
			e.logger.ErrorContext(ctx, "Failed to store run record", log.FieldRunID, runID, log.FieldError, err)
		}
	}

	e.logger.InfoContext(ctx, "Consolidation finished",
		"periods_written", summary.PeriodsWritten(),
		"periods", len(summary.Periods),
		"skips", summary.HasSkips(),
		log.FieldDuration, time.Since(start).Milliseconds())
	return summary, nil
}

func (e *Engine) ignored(name string) bool {
	lower := strings.ToLower(name)
	for _, p := range e.skip {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}

// classifyAll returns the usable files ordered by period, registry order and
// name, so a run is deterministic regardless of listing order.
func (e *Engine) classifyAll(ctx context.Context, files []ports.SourceFile, summary *core.RunSummary) []classified {
	var out []classified
	for _, f := range files {
		if e.ignored(f.Name) {
			summary.FilesIgnored = append(summary.FilesIgnored, f.Name)
			e.logger.InfoContext(ctx, "Ignoring file", log.FieldFile, f.Name)
			continue
		}
		rep, err := e.classifier.Classify(f.Name)
		if err != nil {
			var ce *core.ClassificationError
			if !errors.As(err, &ce) {
				ce = &core.ClassificationError{File: f.Name, Reason: core.UnrecognizedType, Detail: err.Error()}
			}
			summary.ClassificationErrors = append(summary.ClassificationErrors, ce)
			e.logger.WarnContext(ctx, "Skipping file",
				log.NewFields().WithFile(f.Name).WithOperation(log.OpClassify).WithError(err).
					ToSlice()...)
			continue
		}
		rep.Path = f.ID
		out = append(out, classified{src: f, report: rep})
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].report, out[j].report
		if a.Period != b.Period {
			return a.Period.Before(b.Period)
		}
		if ra, rb := e.registry.Rank(a.Type), e.registry.Rank(b.Type); ra != rb {
			return ra < rb
		}
		return a.Name < b.Name
	})
	return out
}

// extractOne feeds one file into the aggregator. A file that fails part way
// contributes nothing.
func (e *Engine) extractOne(ctx context.Context, c classified, agg *ledger.Aggregator, summary *core.RunSummary) {
	fields := log.NewFields().WithFile(c.report.Name).
		WithReport(string(c.report.Type), c.report.Period.Label()).WithOperation(log.OpExtract)

	fail := func(err error) {
		var xe *core.ExtractionError
		if !errors.As(err, &xe) {
			xe = &core.ExtractionError{File: c.report.Name, Err: err}
		}
		summary.ExtractionErrors = append(summary.ExtractionErrors, xe)
		e.logger.WarnContext(ctx, "Skipping file", fields.WithError(err).ToSlice()...)
	}

	rc, err := e.source.Open(ctx, c.src)
	if err != nil {
		fail(err)
		return
	}
	defer rc.Close()

	recs, err := e.extractor.Extract(c.report, rc)
	if err != nil {
		fail(err)
		return
	}
	var buf []core.RevenueRecord
	for rec := range recs.All() {
		buf = append(buf, rec)
	}
	for _, w := range recs.Warnings() {
		e.logger.WarnContext(ctx, "Skipping row",
			log.FieldFile, w.File, log.FieldLine, w.Line, log.FieldReason, string(w.Kind), "value", w.Value)
	}
	summary.RowWarnings = append(summary.RowWarnings, recs.Warnings()...)
	if err := recs.Err(); err != nil {
		fail(err)
		return
	}
	for _, rec := range buf {
		agg.Add(rec)
	}
	summary.FilesExtracted++
	summary.RowsExtracted += len(buf)
	e.logger.DebugContext(ctx, "Extracted file", append(fields.ToSlice(), log.FieldRecords, len(buf))...)
}

func (e *Engine) publishPeriod(ctx context.Context, period core.Period, entries []ledger.Entry, dir *ledger.Directory, summary *core.RunSummary) core.PeriodResult {
	rows := e.generator.Generate(period, entries, dir)
	res := core.PeriodResult{Period: period, RevenueTotal: ledger.RevenueTotal(rows)}
	for _, r := range rows {
		if r.Category == core.CategoryRevenue {
			res.RevenueRows++
		} else {
			res.ExpenseRows++
		}
	}

	if err := ports.Publish(ctx, e.sink, period, rows); err != nil {
		var se *core.SinkError
		if !errors.As(err, &se) {
			se = &core.SinkError{Period: period, Op: core.SinkWrite, Err: err}
		}
		summary.SinkErrors = append(summary.SinkErrors, se)
		e.logger.ErrorContext(ctx, "Failed to publish period",
			log.FieldTab, period.Label(), log.FieldOperation, string(se.Op), log.FieldError, se.Err)
	} else {
		res.Written = true
		e.logger.InfoContext(ctx, "Published period",
			log.FieldTab, period.Label(), log.FieldRows, len(rows), log.FieldTotal, res.RevenueTotal.String())
	}
	summary.Periods = append(summary.Periods, res)
	return res
}

func (e *Engine) persist(ctx context.Context, runID int64, period core.Period, entries []ledger.Entry) {
	if e.store == nil || runID == 0 {
		return
	}
	if err := e.store.ReplacePeriod(ctx, runID, period, entries); err != nil {
		e.logger.ErrorContext(ctx, "Failed to store period",
			log.FieldPeriod, period.String(), log.FieldOperation, log.OpPersist, log.FieldError, err)
	}
}

func (e *Engine) notify(ctx context.Context, res core.PeriodResult, runID int64) {
	if e.events == nil {
		return
	}
	if err := e.events.PublishPeriod(ctx, amqp.NewPeriodPublishedMessage(res, runID)); err != nil {
		e.logger.ErrorContext(ctx, "Failed to publish period event",
			log.FieldPeriod, res.Period.String(), log.FieldOperation, log.OpNotify, log.FieldError, err)
	}
}
