package analysis

import (
	"sort"

	"github.com/KaramelBytes/talentflow-cli/internal/dataset"
)

// Ranked is one row of an emitter or receiver ranking. Rank is 1-based and
// contiguous: tied totals still get distinct consecutive ranks.
type Ranked struct {
	Rank    int    `json:"rank" yaml:"rank"`
	Country string `json:"country" yaml:"country"`
	Total   int64  `json:"total" yaml:"total"`
}

// TopEmitters ranks origins by researchers sent.
func TopEmitters(flows *dataset.FlowTable, n int) []Ranked {
	return topBy(flows, n, func(r dataset.FlowRecord) string { return r.Origin })
}

// TopReceivers ranks destinations by researchers received.
func TopReceivers(flows *dataset.FlowTable, n int) []Ranked {
	return topBy(flows, n, func(r dataset.FlowRecord) string { return r.Destination })
}

func topBy(flows *dataset.FlowTable, n int, key func(dataset.FlowRecord) string) []Ranked {
	sums := map[string]int64{}
	for _, r := range flows.Records {
		sums[key(r)] += r.NResearchers
	}
	out := make([]Ranked, 0, len(sums))
	for c, v := range sums {
		out = append(out, Ranked{Country: c, Total: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Country < out[j].Country
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return head(out, n)
}

// TopCorridors returns the n routes with the most researchers, straight from
// the flow table. Zero-volume routes are eligible.
func TopCorridors(flows *dataset.FlowTable, n int) []dataset.FlowRecord {
	out := make([]dataset.FlowRecord, len(flows.Records))
	copy(out, flows.Records)
	sort.SliceStable(out, func(i, j int) bool { return out[i].NResearchers > out[j].NResearchers })
	return head(out, n)
}

// head returns the first n items; n beyond len returns everything and n <= 0
// returns an empty slice.
func head[T any](s []T, n int) []T {
	if n <= 0 {
		return s[:0]
	}
	if n > len(s) {
		n = len(s)
	}
	return s[:n]
}
