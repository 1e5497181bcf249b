// Package analysis turns a flow table into the derived views of the
// dashboard: country balances, rankings, regional rollups, summary
// statistics, correlations, and clusters. Every function is pure and
// recomputes from its inputs.
package analysis

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"

	"github.com/KaramelBytes/talentflow-cli/internal/dataset"
)

// Country type labels.
const (
	TypeAttractor = "Atractor"
	TypeExporter  = "Exportador"
)

// Ratio is immigration over emigration. It is +Inf when emigration is zero,
// which JSON renders as null and markdown as "∞".
type Ratio float64

// IsInf reports whether the ratio is the zero-emigration sentinel.
func (r Ratio) IsInf() bool { return math.IsInf(float64(r), 1) }

// MarshalJSON encodes the sentinel as null.
func (r Ratio) MarshalJSON() ([]byte, error) {
	f := float64(r)
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return []byte("null"), nil
	}
	return json.Marshal(f)
}

// String formats the ratio for tables.
func (r Ratio) String() string {
	if r.IsInf() {
		return "∞"
	}
	return strconv.FormatFloat(float64(r), 'f', 2, 64)
}

// CountryBalance is the immigration/emigration position of one country.
type CountryBalance struct {
	Country        string `json:"country" yaml:"country"`
	Immigration    int64  `json:"immigration" yaml:"immigration"`
	Emigration     int64  `json:"emigration" yaml:"emigration"`
	NetBalance     int64  `json:"net_balance" yaml:"net_balance"`
	TotalFlow      int64  `json:"total_flow" yaml:"total_flow"`
	MigrationRatio Ratio  `json:"migration_ratio" yaml:"migration_ratio"`
	Type           string `json:"type" yaml:"type"`
}

// ComputeNetMigration sums researchers by destination (immigration) and by
// origin (emigration), outer-joins the two on country with absent sides as
// zero, and orders the result by net balance descending. Ties keep the
// join order, which is ascending by country. Self-loops count on both sides.
func ComputeNetMigration(flows *dataset.FlowTable) []CountryBalance {
	imm := map[string]int64{}
	emi := map[string]int64{}
	for _, r := range flows.Records {
		imm[r.Destination] += r.NResearchers
		emi[r.Origin] += r.NResearchers
	}
	countries := make([]string, 0, len(imm)+len(emi))
	for c := range imm {
		countries = append(countries, c)
	}
	for c := range emi {
		if _, ok := imm[c]; !ok {
			countries = append(countries, c)
		}
	}
	sort.Strings(countries)

	out := make([]CountryBalance, len(countries))
	for i, c := range countries {
		in, em := imm[c], emi[c]
		ratio := Ratio(math.Inf(1))
		if em > 0 {
			ratio = Ratio(float64(in) / float64(em))
		}
		typ := TypeExporter
		if in-em > 0 {
			typ = TypeAttractor
		}
		out[i] = CountryBalance{
			Country:        c,
			Immigration:    in,
			Emigration:     em,
			NetBalance:     in - em,
			TotalFlow:      in + em,
			MigrationRatio: ratio,
			Type:           typ,
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].NetBalance > out[j].NetBalance })
	return out
}
