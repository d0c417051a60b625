// Package extract reads platform CSV exports into normalized revenue records.
package extract

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"ytearnings/internal/core"
)

// headerScanLimit bounds how many leading rows are inspected for the header.
const headerScanLimit = 5

type Extractor struct {
	registry *core.Registry
	amounts  core.AmountFormat
}

func New(registry *core.Registry, amounts core.AmountFormat) *Extractor {
	if registry == nil {
		registry = core.DefaultRegistry()
	}
	return &Extractor{registry: registry, amounts: amounts}
}

// Records iterates the data rows of one file. Like bufio.Scanner, the caller
// ranges over All and checks Err afterwards; skipped rows are available from
// Warnings.
type Records struct {
	file     core.ReportFile
	reader   *csv.Reader
	offset   int
	line     int
	cols     columns
	amounts  core.AmountFormat
	warnings []core.RowParseWarning
	err      error
}

type columns struct {
	id      int
	name    int // -1 when the layout has no display name
	revenue int
}

// Extract resolves the header of r and returns a lazy record sequence. A
// missing channel id or revenue column is reported as *core.ExtractionError.
func (e *Extractor) Extract(file core.ReportFile, r io.Reader) (*Records, error) {
	schema, ok := e.registry.Lookup(file.Type)
	if !ok {
		return nil, &core.ExtractionError{File: file.Name, Err: fmt.Errorf("%w: %s", core.ErrUnknownReportType, file.Type)}
	}

	// Exports are UTF-8, sometimes with a byte order mark.
	br := bufio.NewReader(transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	line := 0
	if schema.SkipFirstRow {
		if _, err := br.ReadString('\n'); err != nil && !errors.Is(err, io.EOF) {
			return nil, &core.ExtractionError{File: file.Name, Err: fmt.Errorf("skip first row: %w", err)}
		}
		line++
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	rs := &Records{file: file, reader: cr, amounts: e.amounts, offset: line}
	var header []string
	for i := 0; i < headerScanLimit; i++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &core.ExtractionError{File: file.Name, Err: fmt.Errorf("read header: %w", err)}
		}
		if indexOf(rec, core.ChannelIDColumn) >= 0 {
			header = rec
			break
		}
	}
	if header == nil {
		return nil, &core.ExtractionError{File: file.Name, Column: core.ChannelIDColumn, Err: core.ErrMissingColumn}
	}
	pos, _ := cr.FieldPos(0)
	rs.line = rs.offset + pos

	rs.cols = columns{id: indexOf(header, core.ChannelIDColumn), name: -1, revenue: indexOf(header, schema.RevenueColumn)}
	if rs.cols.revenue < 0 {
		return nil, &core.ExtractionError{File: file.Name, Column: schema.RevenueColumn, Err: core.ErrMissingColumn}
	}
	for _, c := range core.ChannelNameColumns {
		if i := indexOf(header, c); i >= 0 {
			rs.cols.name = i
			break
		}
	}
	return rs, nil
}

// All yields one record per usable data row. Rows with a blank or
// non-numeric revenue cell or without a channel id are recorded as warnings.
func (rs *Records) All() iter.Seq[core.RevenueRecord] {
	return func(yield func(core.RevenueRecord) bool) {
		for {
			row, err := rs.reader.Read()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				rs.err = &core.ExtractionError{File: rs.file.Name, Err: err}
				return
			}
			pos, _ := rs.reader.FieldPos(0)
			rs.line = rs.offset + pos
			if isBlankRow(row) {
				continue
			}

			id := strings.TrimSpace(cell(row, rs.cols.id))
			if id == "" {
				rs.warn(core.MissingChannelID, "")
				continue
			}
			raw := cell(row, rs.cols.revenue)
			amount, err := rs.amounts.Parse(raw)
			if err != nil {
				rs.warn(warningKind(err), raw)
				continue
			}

			rec := core.RevenueRecord{
				ChannelID: id,
				Type:      rs.file.Type,
				Period:    rs.file.Period,
				Amount:    amount,
			}
			if rs.cols.name >= 0 {
				rec.ChannelName = strings.TrimSpace(cell(row, rs.cols.name))
			}
			if !yield(rec) {
				return
			}
		}
	}
}

func (rs *Records) Warnings() []core.RowParseWarning { return rs.warnings }

// Err returns the first read error hit while iterating.
func (rs *Records) Err() error { return rs.err }

func (rs *Records) warn(kind core.WarningKind, value string) {
	rs.warnings = append(rs.warnings, core.RowParseWarning{
		File:  rs.file.Name,
		Line:  rs.line,
		Kind:  kind,
		Value: value,
	})
}

func warningKind(err error) core.WarningKind {
	switch {
	case errors.Is(err, core.ErrBlankAmount):
		return core.BlankRevenue
	case errors.Is(err, core.ErrNegativeAmount):
		return core.NegativeRevenue
	default:
		return core.NonNumericRevenue
	}
}

// indexOf matches headers exactly after trimming surrounding whitespace.
func indexOf(headers []string, target string) int {
	for i, h := range headers {
		if strings.TrimSpace(h) == target {
			return i
		}
	}
	return -1
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func isBlankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
