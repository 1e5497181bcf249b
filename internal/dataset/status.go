package dataset

import "sort"

// TableStatus reports whether one source table loaded.
type TableStatus struct {
	Name     string `json:"name" yaml:"name"`
	Required bool   `json:"required" yaml:"required"`
	Present  bool   `json:"present" yaml:"present"`
	Rows     int    `json:"rows" yaml:"rows"`
	Reason   string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// Status lists the availability of every source table in display order.
// A nil bundle reports flows as missing and the rest as not attempted.
func Status(b *Bundle) []TableStatus {
	if b == nil {
		return []TableStatus{
			{Name: FlowsBase, Required: true, Reason: ErrFlowsMissing.Error()},
			{Name: MigrationsBase, Reason: "not loaded"},
			{Name: IndicatorsBase, Reason: "not loaded"},
			{Name: MappingBase, Reason: "not loaded"},
		}
	}
	return []TableStatus{
		{Name: FlowsBase, Required: true, Present: b.Flows != nil, Rows: b.Flows.Len()},
		optionalStatus(MigrationsBase, b.Migrations.Present, len(b.Migrations.Value), b.Migrations.Reason),
		optionalStatus(IndicatorsBase, b.Indicators.Present, len(b.Indicators.Value), b.Indicators.Reason),
		optionalStatus(MappingBase, b.Mapping.Present, len(b.Mapping.Value), b.Mapping.Reason),
	}
}

func optionalStatus(name string, present bool, rows int, reason string) TableStatus {
	return TableStatus{Name: name, Present: present, Rows: rows, Reason: reason}
}

// AvailableRegions returns the sorted set of origin regions present in the
// flows, the choices a region filter offers.
func AvailableRegions(t *FlowTable) []string {
	seen := map[string]bool{}
	for _, r := range t.Records {
		seen[r.OriginRegion] = true
	}
	out := make([]string, 0, len(seen))
	for r := range seen {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

// YearBounds returns the smallest phd_year_min and largest phd_year_max in
// the table. ok is false when either column is absent or empty.
func YearBounds(t *FlowTable) (lo, hi int, ok bool) {
	if !t.Columns.PhdYearMin || !t.Columns.PhdYearMax {
		return 0, 0, false
	}
	first := true
	var haveHi bool
	for _, r := range t.Records {
		if r.PhdYearMin != nil && (first || int(*r.PhdYearMin) < lo) {
			lo = int(*r.PhdYearMin)
			first = false
		}
		if r.PhdYearMax != nil && (!haveHi || int(*r.PhdYearMax) > hi) {
			hi = int(*r.PhdYearMax)
			haveHi = true
		}
	}
	return lo, hi, !first && haveHi
}
