// Package ledger folds revenue records into per channel, period and report
// type sums and lays them out as paired revenue and expense rows.
package ledger

import (
	"iter"
	"sort"

	"github.com/shopspring/decimal"

	"ytearnings/internal/core"
)

// Entry is one aggregated sum.
type Entry struct {
	Key    core.AggregateKey
	Amount decimal.Decimal
}

// Aggregator is the aggregation context of a run. It is not safe for
// concurrent use; the pipeline is sequential.
type Aggregator struct {
	sums      map[core.AggregateKey]decimal.Decimal
	directory *Directory
}

// NewAggregator uses dir as the shared channel directory, creating one when
// nil.
func NewAggregator(dir *Directory) *Aggregator {
	if dir == nil {
		dir = NewDirectory()
	}
	return &Aggregator{
		sums:      make(map[core.AggregateKey]decimal.Decimal),
		directory: dir,
	}
}

// Add folds a single record. Decimal addition keeps the fold exact, so the
// final sums do not depend on arrival order.
func (a *Aggregator) Add(rec core.RevenueRecord) {
	key := rec.Key()
	a.sums[key] = a.sums[key].Add(rec.Amount)
	a.directory.Observe(rec.ChannelID, rec.ChannelName)
}

// Accumulate drains records and returns how many were folded.
func (a *Aggregator) Accumulate(records iter.Seq[core.RevenueRecord]) int {
	n := 0
	for rec := range records {
		a.Add(rec)
		n++
	}
	return n
}

func (a *Aggregator) Sum(key core.AggregateKey) (decimal.Decimal, bool) {
	v, ok := a.sums[key]
	return v, ok
}

func (a *Aggregator) Len() int { return len(a.sums) }

func (a *Aggregator) Directory() *Directory { return a.directory }

// Periods returns every period with at least one key, oldest first.
func (a *Aggregator) Periods() []core.Period {
	seen := make(map[core.Period]struct{})
	var out []core.Period
	for k := range a.sums {
		if _, ok := seen[k.Period]; ok {
			continue
		}
		seen[k.Period] = struct{}{}
		out = append(out, k.Period)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// Entries returns the sums of one period in no particular order.
func (a *Aggregator) Entries(p core.Period) []Entry {
	var out []Entry
	for k, v := range a.sums {
		if k.Period == p {
			out = append(out, Entry{Key: k, Amount: v})
		}
	}
	return out
}
