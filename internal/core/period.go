package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Period is a calendar month used both as aggregation key and as the
// destination tab of the published ledger.
type Period struct {
	Year  int
	Month time.Month
}

// NewPeriod returns a validated period. Two-digit years are read as 20YY.
func NewPeriod(year int, month time.Month) (Period, error) {
	if year >= 0 && year < 100 {
		year += 2000
	}
	if month < time.January || month > time.December {
		return Period{}, fmt.Errorf("%w: month %d", ErrInvalidPeriod, month)
	}
	if year < 1900 || year > 2999 {
		return Period{}, fmt.Errorf("%w: year %d", ErrInvalidPeriod, year)
	}
	return Period{Year: year, Month: month}, nil
}

// Label renders the tab name, e.g. "Jan 25".
func (p Period) Label() string {
	return fmt.Sprintf("%s %02d", p.Month.String()[:3], p.Year%100)
}

// Date returns the first day of the period in UTC.
func (p Period) Date() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// ISODate is the value written to the "Actual Date" column.
func (p Period) ISODate() string {
	return p.Date().Format("2006-01-02")
}

// String returns the YYYY-MM form used in logs and storage.
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

func (p Period) IsZero() bool {
	return p.Year == 0 && p.Month == 0
}

func (p Period) Before(o Period) bool {
	if p.Year != o.Year {
		return p.Year < o.Year
	}
	return p.Month < o.Month
}

var monthNames = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// parseMonthName accepts "Jan", "January", "Sept" and so on.
func parseMonthName(s string) (time.Month, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) < 3 {
		return 0, false
	}
	m, ok := monthNames[s[:3]]
	if !ok {
		return 0, false
	}
	full := strings.ToLower(m.String())
	if s == "sept" || strings.HasPrefix(full, s) {
		return m, true
	}
	return 0, false
}

func parseMonth(s string) (time.Month, bool) {
	if n, err := strconv.Atoi(s); err == nil {
		if n < 1 || n > 12 {
			return 0, false
		}
		return time.Month(n), true
	}
	return parseMonthName(s)
}

// parseDateSegment handles "1-2025", "Jan-2025", "January-25" and "2025-01".
// "_", "/" and "." are accepted in place of "-".
func parseDateSegment(s string) (Period, error) {
	parts := strings.FieldsFunc(strings.TrimSpace(s), func(r rune) bool {
		return r == '-' || r == '_' || r == '/' || r == '.'
	})
	if len(parts) != 2 {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
	first, second := parts[0], parts[1]

	if len(first) == 4 && isDigits(first) && isDigits(second) {
		y, _ := strconv.Atoi(first)
		m, err := strconv.Atoi(second)
		if err != nil {
			return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
		}
		return NewPeriod(y, time.Month(m))
	}

	m, ok := parseMonth(first)
	if !ok {
		return Period{}, fmt.Errorf("%w: month %q", ErrInvalidPeriod, first)
	}
	if !isDigits(second) || (len(second) != 2 && len(second) != 4) {
		return Period{}, fmt.Errorf("%w: year %q", ErrInvalidPeriod, second)
	}
	y, _ := strconv.Atoi(second)
	return NewPeriod(y, m)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
