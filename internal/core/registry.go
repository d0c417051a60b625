package core

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// Known report types exported by the platform.
const (
	SubscriptionRevenueVideoReport ReportType = "Subscription Revenue Video Report"
	PaidFeaturesReport             ReportType = "Paid Features Report"
	NonMusicVideoSummaryPremium    ReportType = "Non Music Video Summary Premium"
	ShortsAdsRevenue               ReportType = "Shorts Ads Revenue"
	AdsRevenueVideoSummary         ReportType = "Ads Revenue Video Summary"
	AdsAdjustmentReport            ReportType = "Ads Adjustment Report"
	ShortsSubscriptionRevenue      ReportType = "Shorts Subscription Revenue"
)

// Columns shared by every report layout.
const (
	ChannelIDColumn = "Channel ID"
	// DefaultSubcategory labels revenue rows unless a schema overrides it.
	DefaultSubcategory = "Ad Revenue"
)

// ChannelNameColumns lists accepted display name headers, most preferred first.
var ChannelNameColumns = []string{"Channel Display Name", "Channel"}

// Schema describes the column layout of one report type.
type Schema struct {
	Type          ReportType
	RevenueColumn string
	SkipFirstRow  bool
	// Subcategory overrides DefaultSubcategory on revenue rows.
	Subcategory string
	// Aliases are file name prefixes that also identify this type.
	Aliases []string
}

func (s Schema) RevenueSubcategory() string {
	if s.Subcategory != "" {
		return s.Subcategory
	}
	return DefaultSubcategory
}

// Registry is the static table of supported report layouts. The declaration
// order is significant: generated rows are ordered by it.
type Registry struct {
	schemas []Schema
	order   map[ReportType]int
	names   map[string]ReportType
	aliases []alias
}

type alias struct {
	prefix string
	typ    ReportType
}

// DefaultSchemas is the authoritative layout table.
func DefaultSchemas() []Schema {
	return []Schema{
		{Type: SubscriptionRevenueVideoReport, RevenueColumn: "Partner Revenue"},
		{Type: PaidFeaturesReport, RevenueColumn: "Earnings (USD)"},
		{Type: NonMusicVideoSummaryPremium, RevenueColumn: "Partner Revenue", Aliases: []string{"Premium Non Music Asset"}},
		{Type: ShortsAdsRevenue, RevenueColumn: "Net Partner Revenue (Post revshare)", Aliases: []string{"Shorts Ads Revenue"}},
		{Type: AdsRevenueVideoSummary, RevenueColumn: "Partner Revenue"},
		{Type: AdsAdjustmentReport, RevenueColumn: "Partner Revenue", SkipFirstRow: true, Aliases: []string{"Ads Adjustment"}},
		{Type: ShortsSubscriptionRevenue, RevenueColumn: "Partner Revenue", SkipFirstRow: true, Aliases: []string{"Shorts Subscription Revenue"}},
	}
}

func DefaultRegistry() *Registry {
	r, err := NewRegistry(DefaultSchemas()...)
	if err != nil {
		panic(err)
	}
	return r
}

// NewRegistry builds a registry, rejecting duplicate or incomplete entries.
func NewRegistry(schemas ...Schema) (*Registry, error) {
	r := &Registry{
		order: make(map[ReportType]int, len(schemas)),
		names: make(map[string]ReportType, len(schemas)),
	}
	for i, s := range schemas {
		if strings.TrimSpace(string(s.Type)) == "" {
			return nil, fmt.Errorf("schema %d: empty report type", i)
		}
		if strings.TrimSpace(s.RevenueColumn) == "" {
			return nil, fmt.Errorf("schema %q: empty revenue column", s.Type)
		}
		if _, dup := r.order[s.Type]; dup {
			return nil, fmt.Errorf("schema %q: duplicate report type", s.Type)
		}
		r.order[s.Type] = i
		r.names[normalizeName(string(s.Type))] = s.Type
		for _, a := range s.Aliases {
			r.aliases = append(r.aliases, alias{prefix: normalizeName(a), typ: s.Type})
		}
		r.schemas = append(r.schemas, s)
	}
	// Longest prefix wins.
	sort.SliceStable(r.aliases, func(i, j int) bool {
		return len(r.aliases[i].prefix) > len(r.aliases[j].prefix)
	})
	return r, nil
}

// Lookup is an exact match on the classified type.
func (r *Registry) Lookup(t ReportType) (Schema, bool) {
	i, ok := r.order[t]
	if !ok {
		return Schema{}, false
	}
	return r.schemas[i], true
}

// Rank returns the declaration index of t, or len(schemas) when unknown.
func (r *Registry) Rank(t ReportType) int {
	if i, ok := r.order[t]; ok {
		return i
	}
	return len(r.schemas)
}

func (r *Registry) Types() []ReportType {
	out := make([]ReportType, len(r.schemas))
	for i, s := range r.schemas {
		out[i] = s.Type
	}
	return out
}

// Match resolves a free-form type segment taken from a file name. Matching
// ignores case, punctuation and repeated whitespace.
func (r *Registry) Match(segment string) (ReportType, bool) {
	n := normalizeName(segment)
	if n == "" {
		return "", false
	}
	if t, ok := r.names[n]; ok {
		return t, true
	}
	for _, a := range r.aliases {
		if n == a.prefix || strings.HasPrefix(n, a.prefix+" ") {
			return a.typ, true
		}
	}
	return "", false
}

func normalizeName(s string) string {
	s = cases.Fold().String(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(s), " ")
}
