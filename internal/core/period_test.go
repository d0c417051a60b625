package core

import (
	"errors"
	"testing"
	"time"
)

func TestPeriodLabel(t *testing.T) {
	cases := []struct {
		p    Period
		want string
	}{
		{Period{Year: 2025, Month: time.January}, "Jan 25"},
		{Period{Year: 2024, Month: time.December}, "Dec 24"},
		{Period{Year: 2009, Month: time.September}, "Sep 09"},
	}
	for _, tc := range cases {
		if got := tc.p.Label(); got != tc.want {
			t.Fatalf("%v: expected %q, got %q", tc.p, tc.want, got)
		}
	}
}

func TestPeriodDates(t *testing.T) {
	p := Period{Year: 2025, Month: time.March}
	if p.ISODate() != "2025-03-01" {
		t.Fatalf("unexpected ISO date %q", p.ISODate())
	}
	if p.String() != "2025-03" {
		t.Fatalf("unexpected string %q", p.String())
	}
	if !p.Before(Period{Year: 2025, Month: time.April}) || !p.Before(Period{Year: 2026, Month: time.January}) {
		t.Fatalf("ordering broken")
	}
	if p.Before(p) {
		t.Fatalf("period must not be before itself")
	}
}

func TestParseDateSegment(t *testing.T) {
	cases := []struct {
		in   string
		want Period
		ok   bool
	}{
		{"Jan-2025", Period{2025, time.January}, true},
		{"january-2025", Period{2025, time.January}, true},
		{"2025-01", Period{2025, time.January}, true},
		{"1-2025", Period{2025, time.January}, true},
		{"Sept-24", Period{2024, time.September}, true},
		{"Foo-25", Period{}, false},
		{"13-2025", Period{}, false},
		{"Jan-225", Period{}, false},
		{"", Period{}, false},
	}
	for _, tc := range cases {
		got, err := parseDateSegment(tc.in)
		if !tc.ok {
			if !errors.Is(err, ErrInvalidPeriod) {
				t.Fatalf("%q expected ErrInvalidPeriod, got %v (%v)", tc.in, err, got)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("%q expected %v, got %v (err=%v)", tc.in, tc.want, got, err)
		}
	}
}

func TestPeriodEqualityIgnoresSourceFormat(t *testing.T) {
	a, _ := parseDateSegment("1-2025")
	b, _ := parseDateSegment("Jan-2025")
	c, _ := parseDateSegment("2025-01")
	d, _ := parseDateSegment("January-25")
	if a != b || b != c || c != d {
		t.Fatalf("periods differ: %v %v %v %v", a, b, c, d)
	}
}
