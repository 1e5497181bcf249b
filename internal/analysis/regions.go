package analysis

import (
	"sort"

	"github.com/KaramelBytes/talentflow-cli/internal/dataset"
)

// RegionFlow is the researcher volume between two distinct regions.
type RegionFlow struct {
	OriginRegion      string `json:"origin_region" yaml:"origin_region"`
	DestinationRegion string `json:"destination_region" yaml:"destination_region"`
	Researchers       int64  `json:"n_researchers" yaml:"n_researchers"`
}

// RegionalFlows sums researchers per (origin region, destination region),
// drops intra-region pairs, and sorts by volume descending.
func RegionalFlows(flows *dataset.FlowTable) []RegionFlow {
	type pair struct{ o, d string }
	sums := map[pair]int64{}
	for _, r := range flows.Records {
		if r.OriginRegion == r.DestinationRegion {
			continue
		}
		sums[pair{r.OriginRegion, r.DestinationRegion}] += r.NResearchers
	}
	out := make([]RegionFlow, 0, len(sums))
	for p, v := range sums {
		out = append(out, RegionFlow{OriginRegion: p.o, DestinationRegion: p.d, Researchers: v})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Researchers != b.Researchers {
			return a.Researchers > b.Researchers
		}
		if a.OriginRegion != b.OriginRegion {
			return a.OriginRegion < b.OriginRegion
		}
		return a.DestinationRegion < b.DestinationRegion
	})
	return out
}

// RegionTotal is one region's total in a single direction.
type RegionTotal struct {
	Region      string `json:"region" yaml:"region"`
	Researchers int64  `json:"n_researchers" yaml:"n_researchers"`
}

// RegionTotals is emigration grouped by origin region and immigration
// grouped by destination region, each sorted descending. Intra-region
// routes count here.
type RegionTotals struct {
	Emigration  []RegionTotal `json:"emigration" yaml:"emigration"`
	Immigration []RegionTotal `json:"immigration" yaml:"immigration"`
}

// ComputeRegionTotals builds both per-region rollups.
func ComputeRegionTotals(flows *dataset.FlowTable) RegionTotals {
	emi := map[string]int64{}
	imm := map[string]int64{}
	for _, r := range flows.Records {
		emi[r.OriginRegion] += r.NResearchers
		imm[r.DestinationRegion] += r.NResearchers
	}
	return RegionTotals{Emigration: sortedTotals(emi), Immigration: sortedTotals(imm)}
}

func sortedTotals(m map[string]int64) []RegionTotal {
	out := make([]RegionTotal, 0, len(m))
	for k, v := range m {
		out = append(out, RegionTotal{Region: k, Researchers: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Researchers != out[j].Researchers {
			return out[i].Researchers > out[j].Researchers
		}
		return out[i].Region < out[j].Region
	})
	return out
}
