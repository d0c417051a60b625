package xlsx

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"ytearnings/internal/core"
	ports "ytearnings/internal/sheets"
)

func rows(labels ...string) []core.OutputRow {
	out := make([]core.OutputRow, 0, len(labels))
	for _, l := range labels {
		out = append(out, core.OutputRow{
			State:        core.StateActual,
			JobCode:      core.Formula("=XLOOKUP(C2,'JobCodeImport'!$A:$A,'JobCodeImport'!$B:$B)"),
			ChannelLabel: l,
			Category:     core.CategoryRevenue,
			Subcategory:  core.DefaultSubcategory,
			PeriodDate:   "2025-01-01",
			Specifier:    string(core.AdsRevenueVideoSummary),
			Value:        core.Number(decimal.RequireFromString("12.5")),
			SplitLookup:  core.Formula("=XLOOKUP(C2,'JobCodeImport'!$A:$A,'JobCodeImport'!$C:$C)"),
		})
	}
	return out
}

func TestWorkbook_PublishAndReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "consolidated.xlsx")
	wb, err := Open(path, "JobCodeImport")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	ctx := context.Background()
	jan := core.Period{Year: 2025, Month: time.January}
	if err := ports.Publish(ctx, wb, jan, rows("UC1 - Alpha", "UC2", "UC3")); err != nil {
		t.Fatalf("publish: %v", err)
	}
	// A second publish with fewer rows must not leave stale rows behind.
	if err := ports.Publish(ctx, wb, jan, rows("UC9")); err != nil {
		t.Fatalf("republish: %v", err)
	}
	if err := wb.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != "JobCodeImport" || sheets[1] != "Jan 25" {
		t.Fatalf("unexpected sheets %v", sheets)
	}
	got, err := f.GetRows("Jan 25")
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected header + 1 row, got %d: %v", len(got), got)
	}
	if got[0][0] != "State" || got[1][2] != "UC9" {
		t.Fatalf("unexpected content %v", got)
	}
	formula, err := f.GetCellFormula("Jan 25", "B2")
	if err != nil || !strings.Contains(formula, "XLOOKUP(C2,") {
		t.Fatalf("expected lookup formula in B2, got %q %v", formula, err)
	}
	ref, _ := f.GetCellValue("JobCodeImport", "B1")
	if ref != "Job Code" {
		t.Fatalf("reference header missing, got %q", ref)
	}
}

func TestWorkbook_FailedWriteKeepsSavedTab(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wb.xlsx")
	wb, err := Open(path, "JobCodeImport")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	ctx := context.Background()
	jan := core.Period{Year: 2025, Month: time.January}
	if err := ports.Publish(ctx, wb, jan, rows("UC1 - Alpha", "UC2")); err != nil {
		t.Fatalf("publish: %v", err)
	}

	boom := errors.New("disk full")
	wb.writeCell = func(sheet, axis string, c core.Cell) error {
		if axis == "C3" {
			return boom
		}
		return wb.setCell(sheet, axis, c)
	}
	err = ports.Publish(ctx, wb, jan, rows("UC7", "UC8", "UC9"))
	var se *core.SinkError
	if !errors.As(err, &se) || se.Op != core.SinkWrite || !errors.Is(err, boom) {
		t.Fatalf("expected write SinkError, got %v", err)
	}
	if err := wb.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer f.Close()
	got, err := f.GetRows("Jan 25")
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(got) != 3 || got[1][2] != "UC1 - Alpha" || got[2][2] != "UC2" {
		t.Fatalf("expected the previously saved tab, got %v", got)
	}
}

func TestWorkbook_ClearKeepsFormatting(t *testing.T) {
	wb, err := Open(filepath.Join(t.TempDir(), "wb.xlsx"), "JobCodeImport")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer wb.Close()
	ctx := context.Background()
	tab, err := wb.EnsureTab(ctx, "Jan 25")
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if err := wb.WriteRows(ctx, tab, core.Header, rows("UC1", "UC2")); err != nil {
		t.Fatalf("write: %v", err)
	}
	style, err := wb.f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		t.Fatalf("style: %v", err)
	}
	if err := wb.f.SetCellStyle("Jan 25", "A1", "I1", style); err != nil {
		t.Fatalf("set style: %v", err)
	}
	if err := wb.f.SetColWidth("Jan 25", "C", "C", 40); err != nil {
		t.Fatalf("set width: %v", err)
	}

	if err := wb.ClearTab(ctx, tab); err != nil {
		t.Fatalf("clear: %v", err)
	}

	got, err := wb.f.GetRows("Jan 25")
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no values after clear, got %v", got)
	}
	if f, _ := wb.f.GetCellFormula("Jan 25", "I2"); f != "" {
		t.Fatalf("formula left in I2: %q", f)
	}
	if s, _ := wb.f.GetCellStyle("Jan 25", "I1"); s != style {
		t.Fatalf("header style lost: got %d want %d", s, style)
	}
	if w, _ := wb.f.GetColWidth("Jan 25", "C"); w != 40 {
		t.Fatalf("column width lost: %v", w)
	}
}

func TestWorkbook_EnsureTabIdempotent(t *testing.T) {
	wb, err := Open(filepath.Join(t.TempDir(), "wb.xlsx"), "JobCodeImport")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer wb.Close()
	a, err := wb.EnsureTab(context.Background(), "Feb 25")
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	b, _ := wb.EnsureTab(context.Background(), "Feb 25")
	if a != b {
		t.Fatalf("expected same handle: %+v %+v", a, b)
	}
}

func TestFormulaText(t *testing.T) {
	got := formulaText("=XLOOKUP(C2,'T'!$A:$A,'T'!$B:$B)")
	if got != "_xlfn.XLOOKUP(C2,'T'!$A:$A,'T'!$B:$B)" {
		t.Fatalf("got %q", got)
	}
	if got := formulaText("=H2*I2"); got != "H2*I2" {
		t.Fatalf("got %q", got)
	}
}

func TestOpen_MissingPath(t *testing.T) {
	if _, err := Open(" ", "JobCodeImport"); err == nil {
		t.Fatal("expected error")
	}
}
