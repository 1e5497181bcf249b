package analysis

import (
	"math"
	"sort"

	"github.com/KaramelBytes/talentflow-cli/internal/dataset"
)

// Timeline windows.
const (
	FirstDecade     = 1960
	MigrationYearLo = 1970
	MigrationYearHi = 2020
)

// DecadeTotal is the researcher volume for routes whose mean PhD year falls
// in a decade.
type DecadeTotal struct {
	Decade      int   `json:"decade" yaml:"decade"`
	Researchers int64 `json:"n_researchers" yaml:"n_researchers"`
}

// FlowsByDecade buckets routes by floor(phd_year_mean / 10) * 10 and keeps
// decades from FirstDecade on. ok is false when the column is absent.
func FlowsByDecade(flows *dataset.FlowTable) (out []DecadeTotal, ok bool) {
	if !flows.Columns.PhdYearMean {
		return nil, false
	}
	sums := map[int]int64{}
	for _, r := range flows.Records {
		if r.PhdYearMean == nil {
			continue
		}
		d := int(math.Floor(*r.PhdYearMean/10)) * 10
		if d < FirstDecade {
			continue
		}
		sums[d] += r.NResearchers
	}
	out = make([]DecadeTotal, 0, len(sums))
	for d, v := range sums {
		out = append(out, DecadeTotal{Decade: d, Researchers: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Decade < out[j].Decade })
	return out, true
}

// YearCount is the number of researchers whose first affiliation year is Year.
type YearCount struct {
	Year  int `json:"year" yaml:"year"`
	Count int `json:"count" yaml:"count"`
}

// YearSeries is the per-year migration count with its peak.
type YearSeries struct {
	Years []YearCount `json:"years" yaml:"years"`
	Peak  *YearCount  `json:"peak,omitempty" yaml:"peak,omitempty"`
}

// MigrationsByYear counts individual records per origin year within
// [MigrationYearLo, MigrationYearHi]. The peak is the earliest year with the
// highest count.
func MigrationsByYear(migrations []dataset.Migration) YearSeries {
	counts := map[int]int{}
	for _, m := range migrations {
		if m.OriginYear == nil || *m.OriginYear < MigrationYearLo || *m.OriginYear > MigrationYearHi {
			continue
		}
		counts[*m.OriginYear]++
	}
	s := YearSeries{Years: make([]YearCount, 0, len(counts))}
	for y, c := range counts {
		s.Years = append(s.Years, YearCount{Year: y, Count: c})
	}
	sort.Slice(s.Years, func(i, j int) bool { return s.Years[i].Year < s.Years[j].Year })
	for i := range s.Years {
		if s.Peak == nil || s.Years[i].Count > s.Peak.Count {
			p := s.Years[i]
			s.Peak = &p
		}
	}
	return s
}
