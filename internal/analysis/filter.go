package analysis

import (
	"fmt"

	"github.com/KaramelBytes/talentflow-cli/internal/dataset"
)

// YearRange is an inclusive bound on phd_year_mean.
type YearRange struct {
	Min int `json:"min" yaml:"min"`
	Max int `json:"max" yaml:"max"`
}

// Filter selects a subset of routes. Every field is optional and set fields
// combine with AND. Empty region lists do not filter.
type Filter struct {
	OriginRegions  []string   `json:"origin_regions,omitempty" yaml:"origin_regions,omitempty"`
	DestRegions    []string   `json:"dest_regions,omitempty" yaml:"dest_regions,omitempty"`
	YearRange      *YearRange `json:"year_range,omitempty" yaml:"year_range,omitempty"`
	MinResearchers *int64     `json:"min_researchers,omitempty" yaml:"min_researchers,omitempty"`
}

// IsZero reports whether the filter selects every row.
func (f Filter) IsZero() bool {
	return len(f.OriginRegions) == 0 && len(f.DestRegions) == 0 && f.YearRange == nil && f.MinResearchers == nil
}

// Validate rejects unknown region labels, an inverted year range and a
// negative minimum.
func (f Filter) Validate() error {
	for _, r := range append(append([]string{}, f.OriginRegions...), f.DestRegions...) {
		if !dataset.IsRegion(r) {
			return fmt.Errorf("unknown region %q (known: %v)", r, dataset.Regions())
		}
	}
	if f.YearRange != nil && f.YearRange.Min > f.YearRange.Max {
		return fmt.Errorf("year range %d-%d is inverted", f.YearRange.Min, f.YearRange.Max)
	}
	if f.MinResearchers != nil && *f.MinResearchers < 0 {
		return fmt.Errorf("min researchers must be >= 0, got %d", *f.MinResearchers)
	}
	return nil
}

// ApplyFilters returns a new table holding the rows that pass f. The input
// is not modified. The year range applies only when the table carries a
// phd_year_mean column; within such a table a row with no value fails it.
func ApplyFilters(flows *dataset.FlowTable, f Filter) *dataset.FlowTable {
	origins := toSet(f.OriginRegions)
	dests := toSet(f.DestRegions)
	yr := f.YearRange
	if yr != nil && !flows.Columns.PhdYearMean {
		yr = nil
	}

	out := make([]dataset.FlowRecord, 0, len(flows.Records))
	for _, r := range flows.Records {
		if origins != nil && !origins[r.OriginRegion] {
			continue
		}
		if dests != nil && !dests[r.DestinationRegion] {
			continue
		}
		if yr != nil {
			if r.PhdYearMean == nil || *r.PhdYearMean < float64(yr.Min) || *r.PhdYearMean > float64(yr.Max) {
				continue
			}
		}
		if f.MinResearchers != nil && r.NResearchers < *f.MinResearchers {
			continue
		}
		out = append(out, r)
	}
	return flows.With(out)
}

func toSet(items []string) map[string]bool {
	if len(items) == 0 {
		return nil
	}
	s := make(map[string]bool, len(items))
	for _, it := range items {
		s[it] = true
	}
	return s
}
