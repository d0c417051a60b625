package core

import (
	"github.com/shopspring/decimal"
)

// PeriodResult describes what happened to one destination tab.
type PeriodResult struct {
	Period       Period
	RevenueRows  int
	ExpenseRows  int
	RevenueTotal decimal.Decimal
	Written      bool
}

// RunSummary collects every skip decision of a run so nothing is dropped
// silently.
type RunSummary struct {
	FilesSeen      int
	FilesIgnored   []string
	FilesExtracted int
	RowsExtracted  int

	ClassificationErrors []*ClassificationError
	ExtractionErrors     []*ExtractionError
	RowWarnings          []RowParseWarning
	SinkErrors           []*SinkError

	Periods []PeriodResult
}

func (s *RunSummary) WarningCount(kind WarningKind) int {
	n := 0
	for _, w := range s.RowWarnings {
		if w.Kind == kind {
			n++
		}
	}
	return n
}

func (s *RunSummary) ClassificationCount(reason ClassificationReason) int {
	n := 0
	for _, e := range s.ClassificationErrors {
		if e.Reason == reason {
			n++
		}
	}
	return n
}

func (s *RunSummary) PeriodsWritten() int {
	n := 0
	for _, p := range s.Periods {
		if p.Written {
			n++
		}
	}
	return n
}

// HasSkips reports whether any file, row or period was skipped.
func (s *RunSummary) HasSkips() bool {
	return len(s.ClassificationErrors) > 0 || len(s.ExtractionErrors) > 0 ||
		len(s.RowWarnings) > 0 || len(s.SinkErrors) > 0
}

// SummaryCount is one line of the end-of-run report.
type SummaryCount struct {
	Name  string
	Count int
}

// Counts flattens the summary into per-category counts in a stable order.
func (s *RunSummary) Counts() []SummaryCount {
	out := []SummaryCount{
		{"files_seen", s.FilesSeen},
		{"files_ignored", len(s.FilesIgnored)},
		{"files_extracted", s.FilesExtracted},
		{"rows_extracted", s.RowsExtracted},
		{"classification_" + string(UnrecognizedType), s.ClassificationCount(UnrecognizedType)},
		{"classification_" + string(UnparsableDate), s.ClassificationCount(UnparsableDate)},
		{"extraction_errors", len(s.ExtractionErrors)},
	}
	for _, k := range WarningKinds {
		out = append(out, SummaryCount{"row_" + string(k), s.WarningCount(k)})
	}
	out = append(out,
		SummaryCount{"sink_errors", len(s.SinkErrors)},
		SummaryCount{"periods_written", s.PeriodsWritten()},
	)
	return out
}
