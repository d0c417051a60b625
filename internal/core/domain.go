package core

import (
	"github.com/shopspring/decimal"
)

const StateActual = "Actual"

const (
	CategoryRevenue Category = "Revenue"
	CategoryExpense Category = "Expense"

	SubcategoryPayout = "Payout"
)

// Header is the fixed column order of every published tab.
var Header = []string{
	"State",
	"Job Code",
	"Channel ID & Name",
	"Category",
	"Subcategory",
	"Actual Date",
	"Specifier & Detail",
	"Value",
	"Current Split Lookup",
}

type (
	ReportType string

	Category string

	// ReportFile is a classified input file.
	ReportFile struct {
		Path   string
		Name   string
		Type   ReportType
		Period Period
	}

	// RevenueRecord is one normalized CSV data row.
	RevenueRecord struct {
		ChannelID   string
		ChannelName string
		Type        ReportType
		Period      Period
		Amount      decimal.Decimal
	}

	AggregateKey struct {
		ChannelID string
		Period    Period
		Type      ReportType
	}

	// OutputRow is one published spreadsheet row.
	OutputRow struct {
		State        string
		JobCode      Cell
		ChannelLabel string
		Category     Category
		Subcategory  string
		PeriodDate   string
		Specifier    string
		Value        Cell
		SplitLookup  Cell
	}
)

// Key returns the aggregation key of the record.
func (r RevenueRecord) Key() AggregateKey {
	return AggregateKey{ChannelID: r.ChannelID, Period: r.Period, Type: r.Type}
}

// Cells returns the row in Header order.
func (r OutputRow) Cells() []Cell {
	return []Cell{
		Text(r.State),
		r.JobCode,
		Text(r.ChannelLabel),
		Text(string(r.Category)),
		Text(r.Subcategory),
		Text(r.PeriodDate),
		Text(r.Specifier),
		r.Value,
		r.SplitLookup,
	}
}

// Strings renders the row as the text a spreadsheet would receive.
func (r OutputRow) Strings() []string {
	cells := r.Cells()
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = c.String()
	}
	return out
}
