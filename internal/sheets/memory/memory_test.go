package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"ytearnings/internal/core"
	ports "ytearnings/internal/sheets"
)

func row(label string) core.OutputRow {
	return core.OutputRow{
		State:        core.StateActual,
		JobCode:      core.Formula("=XLOOKUP(C2,'JobCodeImport'!$A:$A,'JobCodeImport'!$B:$B)"),
		ChannelLabel: label,
		Category:     core.CategoryRevenue,
		Subcategory:  core.DefaultSubcategory,
		PeriodDate:   "2025-01-01",
		Specifier:    string(core.AdsRevenueVideoSummary),
		Value:        core.Number(decimal.NewFromInt(100)),
		SplitLookup:  core.Formula("=XLOOKUP(C2,'JobCodeImport'!$A:$A,'JobCodeImport'!$C:$C)"),
	}
}

func TestStoreEnsureIsIdempotent(t *testing.T) {
	s := New()
	a, err := s.EnsureTab(context.Background(), "Jan 25")
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	b, _ := s.EnsureTab(context.Background(), "Jan 25")
	if a != b {
		t.Fatalf("expected same handle, got %+v and %+v", a, b)
	}
	if _, err := s.EnsureTab(context.Background(), " "); err == nil {
		t.Fatalf("expected error for blank label")
	}
}

func TestPublishOverwrites(t *testing.T) {
	s := New()
	ctx := context.Background()
	p := core.Period{Year: 2025, Month: time.January}

	if err := ports.Publish(ctx, s, p, []core.OutputRow{row("A"), row("B")}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := ports.Publish(ctx, s, p, []core.OutputRow{row("C")}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	values, ok := s.Values("Jan 25")
	if !ok || len(values) != 2 {
		t.Fatalf("expected header + 1 row, got %v", values)
	}
	if values[0][0] != "State" || values[1][2] != "C" || values[1][7] != "100" {
		t.Fatalf("unexpected content %v", values)
	}
	if got := s.Tabs(); len(got) != 1 || got[0] != "Jan 25" {
		t.Fatalf("unexpected tabs %v", got)
	}
}

func TestPublishFailureIsSinkError(t *testing.T) {
	s := New()
	s.FailOn = map[string]core.SinkOp{"Feb 25": core.SinkWrite}
	p := core.Period{Year: 2025, Month: time.February}

	err := ports.Publish(context.Background(), s, p, []core.OutputRow{row("A")})
	var se *core.SinkError
	if !errors.As(err, &se) || se.Op != core.SinkWrite || se.Period != p {
		t.Fatalf("expected write SinkError, got %v", err)
	}
	values, _ := s.Values("Feb 25")
	if len(values) != 0 {
		t.Fatalf("failed write must leave a cleared tab, got %v", values)
	}
}
