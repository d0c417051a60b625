package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type CellKind int

const (
	TextCell CellKind = iota
	NumberCell
	FormulaCell
)

// CellRef addresses a cell on the same tab, e.g. H2.
type CellRef struct {
	Column string
	Row    int
}

func (r CellRef) String() string {
	return fmt.Sprintf("%s%d", r.Column, r.Row)
}

// Cell is either a literal (text or number) or a live formula. Formulas keep
// the same-tab cells they depend on so callers can check the layout.
type Cell struct {
	kind   CellKind
	text   string
	number decimal.Decimal
	refs   []CellRef
}

func Text(s string) Cell { return Cell{kind: TextCell, text: s} }

func Number(d decimal.Decimal) Cell { return Cell{kind: NumberCell, number: d} }

// Formula builds a formula cell. A leading "=" is added when missing.
func Formula(expr string, refs ...CellRef) Cell {
	if !strings.HasPrefix(expr, "=") {
		expr = "=" + expr
	}
	return Cell{kind: FormulaCell, text: expr, refs: append([]CellRef(nil), refs...)}
}

func (c Cell) Kind() CellKind { return c.kind }

func (c Cell) IsFormula() bool { return c.kind == FormulaCell }

// Number returns the literal amount of a number cell.
func (c Cell) Number() (decimal.Decimal, bool) {
	if c.kind != NumberCell {
		return decimal.Zero, false
	}
	return c.number, true
}

// Expr returns the formula text including the leading "=".
func (c Cell) Expr() string {
	if c.kind != FormulaCell {
		return ""
	}
	return c.text
}

func (c Cell) Refs() []CellRef {
	return append([]CellRef(nil), c.refs...)
}

func (c Cell) String() string {
	if c.kind == NumberCell {
		return c.number.String()
	}
	return c.text
}

// Value is the representation handed to spreadsheet APIs: float64 for
// numbers, strings for text and formulas.
func (c Cell) Value() any {
	if c.kind == NumberCell {
		return c.number.InexactFloat64()
	}
	return c.text
}
