package ledger

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"ytearnings/internal/core"
)

// DefaultReferenceTab supplies job codes (column B) and split percentages
// (column C) keyed by channel label (column A).
const DefaultReferenceTab = "JobCodeImport"

// Column letters of core.Header.
const (
	colJobCode = "B"
	colLabel   = "C"
	colValue   = "H"
	colSplit   = "I"

	// FirstDataRow is the sheet row of the first generated row; row 1 holds
	// the header.
	FirstDataRow = 2
)

// Layout controls the formula text of generated rows.
type Layout struct {
	ReferenceTab string
	// NegativePayouts writes expense values as -1*(value*split).
	NegativePayouts bool
}

func DefaultLayout() Layout {
	return Layout{ReferenceTab: DefaultReferenceTab}
}

type Generator struct {
	registry *core.Registry
	layout   Layout
}

func NewGenerator(registry *core.Registry, layout Layout) *Generator {
	if registry == nil {
		registry = core.DefaultRegistry()
	}
	if strings.TrimSpace(layout.ReferenceTab) == "" {
		layout.ReferenceTab = DefaultReferenceTab
	}
	return &Generator{registry: registry, layout: layout}
}

// Generate lays out the rows of one period tab. Every entry yields a revenue
// row immediately followed by its expense row. Ordering is by channel id,
// then report type in registry order, so identical input gives identical
// output.
func (g *Generator) Generate(period core.Period, entries []Entry, dir *Directory) []core.OutputRow {
	sorted := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.Key.Period == period {
			sorted = append(sorted, e)
		}
	}
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i].Key, sorted[j].Key
		if a.ChannelID != b.ChannelID {
			return a.ChannelID < b.ChannelID
		}
		if ra, rb := g.registry.Rank(a.Type), g.registry.Rank(b.Type); ra != rb {
			return ra < rb
		}
		return a.Type < b.Type
	})
	if dir == nil {
		dir = NewDirectory()
	}

	rows := make([]core.OutputRow, 0, 2*len(sorted))
	for i, e := range sorted {
		r := FirstDataRow + 2*i
		label := dir.Label(e.Key.ChannelID)
		subcategory := core.DefaultSubcategory
		if s, ok := g.registry.Lookup(e.Key.Type); ok {
			subcategory = s.RevenueSubcategory()
		}
		rows = append(rows,
			core.OutputRow{
				State:        core.StateActual,
				JobCode:      g.lookup(r, "B"),
				ChannelLabel: label,
				Category:     core.CategoryRevenue,
				Subcategory:  subcategory,
				PeriodDate:   period.ISODate(),
				Specifier:    string(e.Key.Type),
				Value:        core.Number(e.Amount),
				SplitLookup:  g.lookup(r, "C"),
			},
			g.expense(r, label, period, e.Key.Type),
		)
	}
	return rows
}

// lookup resolves the channel label of row r against a reference column.
// A channel missing from the reference tab evaluates to #N/A.
func (g *Generator) lookup(r int, refCol string) core.Cell {
	tab := quoteTab(g.layout.ReferenceTab)
	return core.Formula(
		fmt.Sprintf("=XLOOKUP(%s%d,%s!$A:$A,%s!$%s:$%s)", colLabel, r, tab, tab, refCol, refCol),
		core.CellRef{Column: colLabel, Row: r},
	)
}

// expense builds the payout row paired with the revenue row at sheet row r.
func (g *Generator) expense(r int, label string, period core.Period, typ core.ReportType) core.OutputRow {
	value := core.CellRef{Column: colValue, Row: r}
	split := core.CellRef{Column: colSplit, Row: r}
	expr := fmt.Sprintf("=%s*%s", value, split)
	if g.layout.NegativePayouts {
		expr = fmt.Sprintf("=-1*(%s*%s)", value, split)
	}
	jobCode := core.CellRef{Column: colJobCode, Row: r}
	return core.OutputRow{
		State:        core.StateActual,
		JobCode:      core.Formula("="+jobCode.String(), jobCode),
		ChannelLabel: label,
		Category:     core.CategoryExpense,
		Subcategory:  core.SubcategoryPayout,
		PeriodDate:   period.ISODate(),
		Specifier:    string(typ),
		Value:        core.Formula(expr, value, split),
		SplitLookup:  core.Formula("="+split.String(), split),
	}
}

// RevenueTotal sums the literal values of revenue rows.
func RevenueTotal(rows []core.OutputRow) decimal.Decimal {
	total := decimal.Zero
	for _, r := range rows {
		if r.Category != core.CategoryRevenue {
			continue
		}
		if v, ok := r.Value.Number(); ok {
			total = total.Add(v)
		}
	}
	return total
}

// quoteTab renders a tab name for use in a formula range.
func quoteTab(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
