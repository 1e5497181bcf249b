package analysis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/talentflow-cli/internal/dataset"
)

// Summary is the headline reduction of a flow table. Mean and median are nil
// for an empty table; the year range is nil when the year columns are absent.
type Summary struct {
	TotalRoutes        int      `json:"total_routes" yaml:"total_routes"`
	TotalResearchers   int64    `json:"total_researchers" yaml:"total_researchers"`
	UniqueOrigins      int      `json:"unique_origins" yaml:"unique_origins"`
	UniqueDestinations int      `json:"unique_destinations" yaml:"unique_destinations"`
	MeanPerRoute       *float64 `json:"mean_per_route" yaml:"mean_per_route"`
	MedianPerRoute     *float64 `json:"median_per_route" yaml:"median_per_route"`
	YearMin            *int     `json:"year_min" yaml:"year_min"`
	YearMax            *int     `json:"year_max" yaml:"year_max"`
}

// SummaryStats reduces a flow table to its headline numbers.
func SummaryStats(flows *dataset.FlowTable) Summary {
	s := Summary{TotalRoutes: flows.Len()}
	origins := map[string]struct{}{}
	dests := map[string]struct{}{}
	vals := make([]float64, 0, flows.Len())
	for _, r := range flows.Records {
		s.TotalResearchers += r.NResearchers
		origins[r.Origin] = struct{}{}
		dests[r.Destination] = struct{}{}
		vals = append(vals, float64(r.NResearchers))
	}
	s.UniqueOrigins = len(origins)
	s.UniqueDestinations = len(dests)
	if len(vals) > 0 {
		sort.Float64s(vals)
		mean := stat.Mean(vals, nil)
		median := quantile(vals, 0.5)
		s.MeanPerRoute, s.MedianPerRoute = &mean, &median
	}
	if flows.Columns.PhdYearMin {
		s.YearMin = extremeYear(flows.Records, func(r dataset.FlowRecord) *float64 { return r.PhdYearMin }, false)
	}
	if flows.Columns.PhdYearMax {
		s.YearMax = extremeYear(flows.Records, func(r dataset.FlowRecord) *float64 { return r.PhdYearMax }, true)
	}
	return s
}

func extremeYear(recs []dataset.FlowRecord, get func(dataset.FlowRecord) *float64, wantMax bool) *int {
	var best *float64
	for _, r := range recs {
		v := get(r)
		if v == nil {
			continue
		}
		if best == nil || (wantMax && *v > *best) || (!wantMax && *v < *best) {
			best = v
		}
	}
	if best == nil {
		return nil
	}
	y := int(*best)
	return &y
}

// Dispersion describes the spread of researchers per route. Std and
// Variance use the sample (n-1) estimator and are NaN-free: they stay nil
// below two routes.
type Dispersion struct {
	Std      *float64 `json:"std" yaml:"std"`
	Variance *float64 `json:"variance" yaml:"variance"`
	Min      int64    `json:"min" yaml:"min"`
	Max      int64    `json:"max" yaml:"max"`
	Range    int64    `json:"range" yaml:"range"`
	Q1       float64  `json:"q1" yaml:"q1"`
	Q3       float64  `json:"q3" yaml:"q3"`
	IQR      float64  `json:"iqr" yaml:"iqr"`
	Mode     *int64   `json:"mode" yaml:"mode"`
}

// Spread computes the dispersion view. ok is false for an empty table.
func Spread(flows *dataset.FlowTable) (d Dispersion, ok bool) {
	if flows.Len() == 0 {
		return Dispersion{}, false
	}
	vals := make([]float64, len(flows.Records))
	counts := map[int64]int{}
	for i, r := range flows.Records {
		vals[i] = float64(r.NResearchers)
		counts[r.NResearchers]++
	}
	sort.Float64s(vals)
	d.Min, d.Max = int64(vals[0]), int64(vals[len(vals)-1])
	d.Range = d.Max - d.Min
	d.Q1, d.Q3 = quantile(vals, 0.25), quantile(vals, 0.75)
	d.IQR = d.Q3 - d.Q1
	if len(vals) > 1 {
		v := stat.Variance(vals, nil)
		sd := math.Sqrt(v)
		d.Variance, d.Std = &v, &sd
	}
	// smallest of the most frequent values
	var mode int64
	best := 0
	for v, c := range counts {
		if c > best || (c == best && v < mode) {
			mode, best = v, c
		}
	}
	d.Mode = &mode
	return d, true
}
