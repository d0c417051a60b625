// Package xlsx publishes period tabs into a local workbook file.
package xlsx

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/xuri/excelize/v2"

	"ytearnings/internal/core"
	ports "ytearnings/internal/sheets"
)

var _ ports.TabWriter = (*Workbook)(nil)

// ReferenceHeader is written when the reference tab has to be created.
var ReferenceHeader = []any{"Channel", "Job Code", "Split"}

// Workbook is a TabWriter over an .xlsx file. The file is saved after every
// write so a failed period never leaves earlier periods unsaved. A failed
// clear or write reloads the last saved state, so a half-written tab is never
// persisted.
type Workbook struct {
	mu        sync.Mutex
	path      string
	reference string
	f         *excelize.File

	writeCell func(sheet, axis string, c core.Cell) error
}

// Open loads path or starts a new workbook. The reference tab is created
// with its header when missing so lookup formulas resolve.
func Open(path, referenceTab string) (*Workbook, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("missing workbook path")
	}
	w := &Workbook{path: path, reference: referenceTab}
	w.writeCell = w.setCell
	f, err := w.load()
	if err != nil {
		return nil, err
	}
	w.f = f
	return w, nil
}

// load reads the saved workbook, or starts a new one, with the reference tab
// in place.
func (w *Workbook) load() (*excelize.File, error) {
	var f *excelize.File
	if _, err := os.Stat(w.path); err == nil {
		if f, err = excelize.OpenFile(w.path); err != nil {
			return nil, fmt.Errorf("open workbook %s: %w", w.path, err)
		}
	} else if errors.Is(err, os.ErrNotExist) {
		f = excelize.NewFile()
	} else {
		return nil, fmt.Errorf("stat workbook %s: %w", w.path, err)
	}
	if err := ensureReference(f, w.reference); err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}

// discard drops unsaved changes after a failed operation.
func (w *Workbook) discard(cause error) error {
	f, err := w.load()
	if err != nil {
		return errors.Join(cause, fmt.Errorf("reload workbook: %w", err))
	}
	_ = w.f.Close()
	w.f = f
	return cause
}

func ensureReference(f *excelize.File, tab string) error {
	if tab == "" {
		return nil
	}
	idx, err := f.GetSheetIndex(tab)
	if err != nil {
		return fmt.Errorf("lookup reference tab: %w", err)
	}
	if idx >= 0 {
		return nil
	}
	if _, err := f.NewSheet(tab); err != nil {
		return fmt.Errorf("create reference tab: %w", err)
	}
	if err := f.SetSheetRow(tab, "A1", &ReferenceHeader); err != nil {
		return fmt.Errorf("write reference header: %w", err)
	}
	// A fresh workbook starts with Sheet1.
	if i, _ := f.GetSheetIndex("Sheet1"); i >= 0 && len(f.GetSheetList()) > 1 {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return fmt.Errorf("drop default sheet: %w", err)
		}
	}
	return nil
}

func (w *Workbook) EnsureTab(_ context.Context, label string) (ports.TabHandle, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	idx, err := w.f.GetSheetIndex(label)
	if err != nil {
		return ports.TabHandle{}, err
	}
	if idx < 0 {
		if idx, err = w.f.NewSheet(label); err != nil {
			return ports.TabHandle{}, fmt.Errorf("add tab %q: %w", label, err)
		}
	}
	return ports.TabHandle{ID: int64(idx), Label: label}, nil
}

// ClearTab empties every used cell of the tab. Cell styles, column widths
// and other sheet formatting are kept.
func (w *Workbook) ClearTab(_ context.Context, tab ports.TabHandle) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.clear(tab.Label); err != nil {
		return w.discard(err)
	}
	return nil
}

func (w *Workbook) clear(sheet string) error {
	rows, err := w.f.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("read tab %q: %w", sheet, err)
	}
	for r, row := range rows {
		for col := 1; col <= len(row); col++ {
			axis, err := excelize.CoordinatesToCellName(col, r+1)
			if err != nil {
				return err
			}
			if err := w.f.SetCellValue(sheet, axis, nil); err != nil {
				return fmt.Errorf("clear %s: %w", axis, err)
			}
		}
	}
	return nil
}

func (w *Workbook) WriteRows(_ context.Context, tab ports.TabHandle, header []string, rows []core.OutputRow) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.write(tab.Label, header, rows); err != nil {
		return w.discard(err)
	}
	if err := w.save(); err != nil {
		return w.discard(err)
	}
	return nil
}

func (w *Workbook) write(sheet string, header []string, rows []core.OutputRow) error {
	h := make([]any, len(header))
	for i, v := range header {
		h[i] = v
	}
	if err := w.f.SetSheetRow(sheet, "A1", &h); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, r := range rows {
		rowNum := i + 2 // row 1 holds the header
		for ci, c := range r.Cells() {
			axis, err := excelize.CoordinatesToCellName(ci+1, rowNum)
			if err != nil {
				return err
			}
			if err := w.writeCell(sheet, axis, c); err != nil {
				return fmt.Errorf("write %s: %w", axis, err)
			}
		}
	}
	return nil
}

func (w *Workbook) setCell(sheet, axis string, c core.Cell) error {
	switch c.Kind() {
	case core.FormulaCell:
		return w.f.SetCellFormula(sheet, axis, formulaText(c.Expr()))
	case core.NumberCell:
		n, _ := c.Number()
		return w.f.SetCellFloat(sheet, axis, n.InexactFloat64(), -1, 64)
	default:
		return w.f.SetCellStr(sheet, axis, c.String())
	}
}

// formulaText drops the leading "=" and adds the future-function prefix
// xlsx files need for XLOOKUP.
func formulaText(expr string) string {
	expr = strings.TrimPrefix(expr, "=")
	return strings.ReplaceAll(expr, "XLOOKUP(", "_xlfn.XLOOKUP(")
}

func (w *Workbook) save() error {
	if dir := filepath.Dir(w.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create workbook dir: %w", err)
		}
	}
	if err := w.f.SaveAs(w.path); err != nil {
		return fmt.Errorf("save workbook %s: %w", w.path, err)
	}
	return nil
}

// Close saves pending changes and releases the workbook.
func (w *Workbook) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	err := w.save()
	if cerr := w.f.Close(); err == nil {
		err = cerr
	}
	return err
}
