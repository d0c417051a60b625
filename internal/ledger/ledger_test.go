package ledger

import (
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ytearnings/internal/core"
)

var (
	jan25 = core.Period{Year: 2025, Month: time.January}
	feb25 = core.Period{Year: 2025, Month: time.February}
)

func rec(id, name string, typ core.ReportType, p core.Period, amount string) core.RevenueRecord {
	return core.RevenueRecord{ChannelID: id, ChannelName: name, Type: typ, Period: p, Amount: decimal.RequireFromString(amount)}
}

func fixture() []core.RevenueRecord {
	return []core.RevenueRecord{
		rec("ChanB", "Bravo", core.AdsRevenueVideoSummary, jan25, "0.10"),
		rec("ChanA", "Alpha", core.AdsRevenueVideoSummary, jan25, "100.00"),
		rec("ChanA", "", core.AdsAdjustmentReport, jan25, "10.00"),
		rec("ChanB", "Bravo", core.AdsRevenueVideoSummary, jan25, "0.20"),
		rec("ChanA", "Alpha", core.ShortsAdsRevenue, jan25, "3.3333"),
		rec("ChanC", "", core.PaidFeaturesReport, jan25, "-1.5"),
		rec("ChanA", "Alpha", core.AdsRevenueVideoSummary, feb25, "7"),
		rec("ChanB", "Bravo", core.AdsRevenueVideoSummary, jan25, "0.30"),
	}
}

func TestDirectory_NeverBlanks(t *testing.T) {
	d := NewDirectory()
	d.Observe("A", "First")
	d.Observe("A", "")
	d.Observe("A", "   ")
	name, ok := d.Name("A")
	require.True(t, ok)
	assert.Equal(t, "First", name)

	d.Observe("A", "Second")
	name, _ = d.Name("A")
	assert.Equal(t, "Second", name, "latest non-empty name wins")

	d.Observe("B", "")
	_, ok = d.Name("B")
	assert.False(t, ok)
	assert.Equal(t, "B", d.Label("B"))
	assert.Equal(t, "A - Second", d.Label("A"))
	assert.Equal(t, []string{"A"}, d.IDs())
}

func TestDirectory_SeedOnlyFillsGaps(t *testing.T) {
	d := NewDirectory()
	d.Observe("A", "Fresh")
	d.Seed("A", "Stored")
	d.Seed("B", "Stored B")
	d.Seed("C", " ")

	assert.Equal(t, "A - Fresh", d.Label("A"))
	assert.Equal(t, "B - Stored B", d.Label("B"))
	assert.Equal(t, "C", d.Label("C"))

	d.Observe("B", "Renamed")
	assert.Equal(t, "B - Renamed", d.Label("B"), "an observed name replaces a seeded one")
}

func TestAggregator_Sums(t *testing.T) {
	a := NewAggregator(nil)
	n := a.Accumulate(func(yield func(core.RevenueRecord) bool) {
		for _, r := range fixture() {
			if !yield(r) {
				return
			}
		}
	})
	assert.Equal(t, 8, n)
	assert.Equal(t, 6, a.Len())

	sum, ok := a.Sum(core.AggregateKey{ChannelID: "ChanB", Period: jan25, Type: core.AdsRevenueVideoSummary})
	require.True(t, ok)
	assert.Equal(t, "0.6", sum.String(), "decimal sums are exact")

	sum, _ = a.Sum(core.AggregateKey{ChannelID: "ChanA", Period: jan25, Type: core.AdsAdjustmentReport})
	assert.Equal(t, "10", sum.String())

	_, ok = a.Sum(core.AggregateKey{ChannelID: "ChanA", Period: feb25, Type: core.AdsAdjustmentReport})
	assert.False(t, ok)

	assert.Equal(t, []core.Period{jan25, feb25}, a.Periods())
	assert.Len(t, a.Entries(jan25), 5)
	assert.Len(t, a.Entries(feb25), 1)

	name, _ := a.Directory().Name("ChanA")
	assert.Equal(t, "Alpha", name)
}

func TestAggregator_OrderIndependent(t *testing.T) {
	base := NewAggregator(nil)
	for _, r := range fixture() {
		base.Add(r)
	}

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 50; i++ {
		recs := fixture()
		rng.Shuffle(len(recs), func(i, j int) { recs[i], recs[j] = recs[j], recs[i] })
		a := NewAggregator(nil)
		for _, r := range recs {
			a.Add(r)
		}
		require.Equal(t, base.Len(), a.Len())
		for _, p := range base.Periods() {
			for _, e := range base.Entries(p) {
				got, ok := a.Sum(e.Key)
				require.True(t, ok)
				require.True(t, got.Equal(e.Amount), "key %+v: %s != %s", e.Key, got, e.Amount)
			}
		}
	}
}

func generate(records []core.RevenueRecord, p core.Period, layout Layout) []core.OutputRow {
	a := NewAggregator(nil)
	for _, r := range records {
		a.Add(r)
	}
	return NewGenerator(nil, layout).Generate(p, a.Entries(p), a.Directory())
}

func TestGenerate_PairsAndOrdering(t *testing.T) {
	rows := generate(fixture(), jan25, DefaultLayout())
	require.Len(t, rows, 10)

	type head struct {
		label string
		cat   core.Category
		kind  string
	}
	var got []head
	for _, r := range rows {
		got = append(got, head{r.ChannelLabel, r.Category, r.Specifier})
	}
	assert.Equal(t, []head{
		{"ChanA - Alpha", core.CategoryRevenue, "Shorts Ads Revenue"},
		{"ChanA - Alpha", core.CategoryExpense, "Shorts Ads Revenue"},
		{"ChanA - Alpha", core.CategoryRevenue, "Ads Revenue Video Summary"},
		{"ChanA - Alpha", core.CategoryExpense, "Ads Revenue Video Summary"},
		{"ChanA - Alpha", core.CategoryRevenue, "Ads Adjustment Report"},
		{"ChanA - Alpha", core.CategoryExpense, "Ads Adjustment Report"},
		{"ChanB - Bravo", core.CategoryRevenue, "Ads Revenue Video Summary"},
		{"ChanB - Bravo", core.CategoryExpense, "Ads Revenue Video Summary"},
		{"ChanC", core.CategoryRevenue, "Paid Features Report"},
		{"ChanC", core.CategoryExpense, "Paid Features Report"},
	}, got)
}

func TestGenerate_RevenueRow(t *testing.T) {
	rows := generate(fixture(), jan25, DefaultLayout())
	rev := rows[0]

	assert.Equal(t, "Actual", rev.State)
	assert.Equal(t, core.DefaultSubcategory, rev.Subcategory)
	assert.Equal(t, "2025-01-01", rev.PeriodDate)

	v, ok := rev.Value.Number()
	require.True(t, ok, "revenue value is a literal")
	assert.Equal(t, "3.3333", v.String())

	assert.Equal(t, "=XLOOKUP(C2,'JobCodeImport'!$A:$A,'JobCodeImport'!$B:$B)", rev.JobCode.Expr())
	assert.Equal(t, "=XLOOKUP(C2,'JobCodeImport'!$A:$A,'JobCodeImport'!$C:$C)", rev.SplitLookup.Expr())
	assert.Equal(t, []core.CellRef{{Column: "C", Row: 2}}, rev.SplitLookup.Refs())

	// The third pair starts at sheet row 6.
	assert.Equal(t, "=XLOOKUP(C6,'JobCodeImport'!$A:$A,'JobCodeImport'!$B:$B)", rows[4].JobCode.Expr())
}

func TestGenerate_ExpenseRowReferencesSibling(t *testing.T) {
	rows := generate(fixture(), jan25, DefaultLayout())
	for i := 0; i < len(rows); i += 2 {
		rev, exp := rows[i], rows[i+1]
		r := FirstDataRow + i

		assert.Equal(t, core.CategoryExpense, exp.Category)
		assert.Equal(t, core.SubcategoryPayout, exp.Subcategory)
		assert.Equal(t, rev.ChannelLabel, exp.ChannelLabel)
		assert.Equal(t, rev.PeriodDate, exp.PeriodDate)
		assert.Equal(t, rev.Specifier, exp.Specifier)

		require.True(t, exp.Value.IsFormula(), "expense value is never a precomputed literal")
		assert.Equal(t, []core.CellRef{{Column: "H", Row: r}, {Column: "I", Row: r}}, exp.Value.Refs())
		assert.Equal(t, "=H"+itoa(r)+"*I"+itoa(r), exp.Value.Expr())
		assert.Equal(t, "=B"+itoa(r), exp.JobCode.Expr())
		assert.Equal(t, "=I"+itoa(r), exp.SplitLookup.Expr())
	}
}

func TestGenerate_NegativePayoutsAndCustomTab(t *testing.T) {
	rows := generate(fixture(), feb25, Layout{ReferenceTab: "Payout Split's", NegativePayouts: true})
	require.Len(t, rows, 2)
	assert.Equal(t, "=-1*(H2*I2)", rows[1].Value.Expr())
	assert.Equal(t, "=XLOOKUP(C2,'Payout Split''s'!$A:$A,'Payout Split''s'!$B:$B)", rows[0].JobCode.Expr())
}

func TestGenerate_CardinalityAndDeterminism(t *testing.T) {
	first := generate(fixture(), jan25, DefaultLayout())

	revenue, expense := 0, 0
	for _, r := range first {
		switch r.Category {
		case core.CategoryRevenue:
			revenue++
		case core.CategoryExpense:
			expense++
		}
	}
	assert.Equal(t, revenue, expense)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		recs := fixture()
		rng.Shuffle(len(recs), func(i, j int) { recs[i], recs[j] = recs[j], recs[i] })
		again := generate(recs, jan25, DefaultLayout())
		require.Equal(t, len(first), len(again))
		for j := range first {
			require.Equal(t, first[j].Strings(), again[j].Strings())
		}
	}
}

func TestGenerate_EmptyAndForeignEntries(t *testing.T) {
	g := NewGenerator(nil, Layout{})
	assert.Empty(t, g.Generate(jan25, nil, nil))

	entries := []Entry{{Key: core.AggregateKey{ChannelID: "X", Period: feb25, Type: core.AdsRevenueVideoSummary}, Amount: decimal.NewFromInt(1)}}
	assert.Empty(t, g.Generate(jan25, entries, nil), "entries of other periods are ignored")
}

func TestRevenueTotal(t *testing.T) {
	rows := generate(fixture(), jan25, DefaultLayout())
	assert.Equal(t, "112.4333", RevenueTotal(rows).String())
}

func itoa(n int) string {
	return decimal.NewFromInt(int64(n)).String()
}
