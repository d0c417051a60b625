package core

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidPeriod     = errors.New("invalid period")
	ErrUnrecognizedType  = errors.New("unrecognized report type")
	ErrUnparsableDate    = errors.New("unparsable date")
	ErrMissingColumn     = errors.New("missing column")
	ErrBlankAmount       = errors.New("blank amount")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrNegativeAmount    = errors.New("negative amount")
	ErrUnknownReportType = errors.New("report type not registered")
)

type ClassificationReason string

const (
	UnrecognizedType ClassificationReason = "unrecognized_type"
	UnparsableDate   ClassificationReason = "unparsable_date"
)

// ClassificationError means a file name could not be mapped to a report type
// and period. The file is skipped; the run continues.
type ClassificationError struct {
	File   string
	Reason ClassificationReason
	Detail string
}

func (e *ClassificationError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("classify %q: %s", e.File, e.Reason)
	}
	return fmt.Sprintf("classify %q: %s: %s", e.File, e.Reason, e.Detail)
}

func (e *ClassificationError) Unwrap() error {
	switch e.Reason {
	case UnrecognizedType:
		return ErrUnrecognizedType
	case UnparsableDate:
		return ErrUnparsableDate
	}
	return nil
}

// ExtractionError means a whole file was unusable, typically because an
// expected header column is missing.
type ExtractionError struct {
	File   string
	Column string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("extract %q: column %q: %v", e.File, e.Column, e.Err)
	}
	return fmt.Sprintf("extract %q: %v", e.File, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

type WarningKind string

const (
	BlankRevenue      WarningKind = "blank_revenue"
	NonNumericRevenue WarningKind = "non_numeric_revenue"
	NegativeRevenue   WarningKind = "negative_revenue"
	MissingChannelID  WarningKind = "missing_channel_id"
)

// WarningKinds lists every kind in reporting order.
var WarningKinds = []WarningKind{BlankRevenue, NonNumericRevenue, NegativeRevenue, MissingChannelID}

// RowParseWarning records a single skipped data row.
type RowParseWarning struct {
	File  string
	Line  int
	Kind  WarningKind
	Value string
}

func (w RowParseWarning) String() string {
	if w.Value == "" {
		return fmt.Sprintf("%s:%d: %s", w.File, w.Line, w.Kind)
	}
	return fmt.Sprintf("%s:%d: %s (%q)", w.File, w.Line, w.Kind, w.Value)
}

type SinkOp string

const (
	SinkEnsure SinkOp = "ensure"
	SinkClear  SinkOp = "clear"
	SinkWrite  SinkOp = "write"
)

// SinkError is fatal to one period only.
type SinkError struct {
	Period Period
	Op     SinkOp
	Err    error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("sink %s %s: %v", e.Op, e.Period.Label(), e.Err)
}

func (e *SinkError) Unwrap() error { return e.Err }
