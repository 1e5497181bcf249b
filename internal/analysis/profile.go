package analysis

import (
	"sort"
)

// HistogramBins is the bin count of the net-balance distribution.
const HistogramBins = 50

// Bin is one equal-width histogram bucket, closed on the left. The last bin
// is also closed on the right.
type Bin struct {
	Lo    float64 `json:"lo" yaml:"lo"`
	Hi    float64 `json:"hi" yaml:"hi"`
	Count int     `json:"count" yaml:"count"`
}

// BalanceProfile describes the distribution of country net balances.
// Balanced counts countries with a net balance of exactly zero.
type BalanceProfile struct {
	Countries  int              `json:"countries" yaml:"countries"`
	Attractors int              `json:"attractors" yaml:"attractors"`
	Exporters  int              `json:"exporters" yaml:"exporters"`
	Balanced   int              `json:"balanced" yaml:"balanced"`
	Histogram  []Bin            `json:"histogram" yaml:"histogram"`
	TopGain    []CountryBalance `json:"top_attractors" yaml:"top_attractors"`
	TopLoss    []CountryBalance `json:"top_exporters" yaml:"top_exporters"`
	ImmVsEmi   Correlation      `json:"immigration_vs_emigration" yaml:"immigration_vs_emigration"`
}

// ProfileBalances builds the distribution view from country balances.
func ProfileBalances(balances []CountryBalance) BalanceProfile {
	p := BalanceProfile{Countries: len(balances)}
	vals := make([]float64, len(balances))
	for i, b := range balances {
		switch {
		case b.NetBalance > 0:
			p.Attractors++
		case b.NetBalance < 0:
			p.Exporters++
		default:
			p.Balanced++
		}
		vals[i] = float64(b.NetBalance)
	}
	p.Histogram = histogram(vals, HistogramBins)

	byNet := append([]CountryBalance(nil), balances...)
	sort.SliceStable(byNet, func(i, j int) bool { return byNet[i].NetBalance > byNet[j].NetBalance })
	p.TopGain = append([]CountryBalance{}, head(byNet, 10)...)
	sort.SliceStable(byNet, func(i, j int) bool { return byNet[i].NetBalance < byNet[j].NetBalance })
	p.TopLoss = append([]CountryBalance{}, head(byNet, 10)...)

	p.ImmVsEmi, _ = Correlate(balances, ColImmigration, ColEmigration)
	return p
}

// histogram splits [min, max] into bins equal-width buckets. A constant
// input yields a single bucket holding every value.
func histogram(vals []float64, bins int) []Bin {
	if len(vals) == 0 || bins <= 0 {
		return []Bin{}
	}
	lo, hi := vals[0], vals[0]
	for _, v := range vals {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if lo == hi {
		return []Bin{{Lo: lo, Hi: hi, Count: len(vals)}}
	}
	width := (hi - lo) / float64(bins)
	out := make([]Bin, bins)
	for i := range out {
		out[i].Lo = lo + float64(i)*width
		out[i].Hi = lo + float64(i+1)*width
	}
	out[bins-1].Hi = hi
	for _, v := range vals {
		i := int((v - lo) / width)
		if i >= bins {
			i = bins - 1
		}
		out[i].Count++
	}
	return out
}
