package analysis

import (
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Clustering bounds and K-Means parameters.
const (
	MinClusters      = 2
	MaxClusters      = 7
	MinClusterRows   = 10
	clusterSeed      = 42
	clusterRestarts  = 10
	clusterMaxIter   = 300
	clusterTolerance = 1e-4
)

// ClusterFeatures are the standardized inputs to K-Means, in column order.
var ClusterFeatures = []string{ColImmigration, ColEmigration, ColNetBalance, ColTotalFlow}

// ClusterPoint is one country placed in a cluster and projected onto the
// first two principal components.
type ClusterPoint struct {
	Country     string  `json:"country" yaml:"country"`
	Cluster     int     `json:"cluster" yaml:"cluster"`
	PC1         float64 `json:"pc1" yaml:"pc1"`
	PC2         float64 `json:"pc2" yaml:"pc2"`
	Immigration int64   `json:"immigration" yaml:"immigration"`
	Emigration  int64   `json:"emigration" yaml:"emigration"`
	NetBalance  int64   `json:"net_balance" yaml:"net_balance"`
	TotalFlow   int64   `json:"total_flow" yaml:"total_flow"`
}

// FeatureStat is the mean and median of one feature within a cluster.
type FeatureStat struct {
	Feature string  `json:"feature" yaml:"feature"`
	Mean    float64 `json:"mean" yaml:"mean"`
	Median  float64 `json:"median" yaml:"median"`
}

// ClusterProfile summarizes one cluster. Label is Atractor when the mean net
// balance is positive.
type ClusterProfile struct {
	ID             int           `json:"id" yaml:"id"`
	Size           int           `json:"size" yaml:"size"`
	TopCountries   []string      `json:"top_countries" yaml:"top_countries"`
	MeanNetBalance float64       `json:"mean_net_balance" yaml:"mean_net_balance"`
	Label          string        `json:"label" yaml:"label"`
	Features       []FeatureStat `json:"features" yaml:"features"`
}

// Clustering is the result of K-Means plus a 2-component PCA.
type Clustering struct {
	K                 int              `json:"k" yaml:"k"`
	Points            []ClusterPoint   `json:"points" yaml:"points"`
	Profiles          []ClusterProfile `json:"profiles" yaml:"profiles"`
	ExplainedVariance [2]float64       `json:"explained_variance_ratio" yaml:"explained_variance_ratio"`
	Inertia           float64          `json:"inertia" yaml:"inertia"`
}

// Cluster groups countries by their standardized migration features. It
// needs k in [MinClusters, MaxClusters] and at least MinClusterRows
// countries; fewer rows yield ErrInsufficientData. Results are deterministic
// for a given input.
func Cluster(balances []CountryBalance, k int) (*Clustering, error) {
	if k < MinClusters || k > MaxClusters {
		return nil, ErrInvalidClusterCount
	}
	if len(balances) < MinClusterRows {
		return nil, insufficient("clustering needs at least %d countries with complete data, have %d", MinClusterRows, len(balances))
	}

	raw := make([][]float64, len(ClusterFeatures))
	for j, name := range ClusterFeatures {
		raw[j], _ = column(balances, name)
	}
	x := standardize(raw, len(balances))

	labels, inertia := kmeans(x, k, rand.New(rand.NewPCG(clusterSeed, clusterSeed)))
	pc1, pc2, ratio, ok := project2(x)
	if !ok {
		return nil, insufficient("principal components did not converge")
	}

	res := &Clustering{K: k, Inertia: inertia, ExplainedVariance: ratio}
	res.Points = make([]ClusterPoint, len(balances))
	for i, b := range balances {
		res.Points[i] = ClusterPoint{
			Country:     b.Country,
			Cluster:     labels[i],
			PC1:         pc1[i],
			PC2:         pc2[i],
			Immigration: b.Immigration,
			Emigration:  b.Emigration,
			NetBalance:  b.NetBalance,
			TotalFlow:   b.TotalFlow,
		}
	}
	res.Profiles = profiles(balances, raw, labels, k)
	return res, nil
}

// standardize centers each column and scales it to unit population
// variance. A constant column becomes all zeros. The result is n x d.
func standardize(cols [][]float64, n int) *mat.Dense {
	x := mat.NewDense(n, len(cols), nil)
	for j, c := range cols {
		mean, std := stat.PopMeanStdDev(c, nil)
		for i, v := range c {
			z := v - mean
			if std > 0 {
				z /= std
			}
			x.Set(i, j, z)
		}
	}
	return x
}

// kmeans runs Lloyd's algorithm from clusterRestarts k-means++ seedings and
// keeps the labelling with the lowest inertia.
func kmeans(x *mat.Dense, k int, rng *rand.Rand) (labels []int, inertia float64) {
	n, d := x.Dims()
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = x.RawRowView(i)
	}
	// tolerance is relative to the mean feature variance
	var varSum float64
	for j := 0; j < d; j++ {
		varSum += stat.PopVariance(mat.Col(nil, j, x), nil)
	}
	tol := clusterTolerance * varSum / float64(d)

	inertia = math.Inf(1)
	for run := 0; run < clusterRestarts; run++ {
		centers := seedPlusPlus(rows, k, rng)
		lab, in := lloyd(rows, centers, tol)
		if in < inertia {
			labels, inertia = lab, in
		}
	}
	return labels, inertia
}

func seedPlusPlus(rows [][]float64, k int, rng *rand.Rand) [][]float64 {
	n := len(rows)
	centers := make([][]float64, 0, k)
	centers = append(centers, append([]float64(nil), rows[rng.IntN(n)]...))
	dist := make([]float64, n)
	for len(centers) < k {
		var total float64
		for i, r := range rows {
			dist[i] = nearest(r, centers)
			total += dist[i]
		}
		pick := rng.IntN(n)
		if total > 0 {
			target := rng.Float64() * total
			for i, dv := range dist {
				target -= dv
				if target <= 0 {
					pick = i
					break
				}
			}
		}
		centers = append(centers, append([]float64(nil), rows[pick]...))
	}
	return centers
}

// nearest returns the squared distance from r to the closest center.
func nearest(r []float64, centers [][]float64) float64 {
	best := math.Inf(1)
	for _, c := range centers {
		if dd := sqDist(r, c); dd < best {
			best = dd
		}
	}
	return best
}

func sqDist(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return d * d
}

func lloyd(rows [][]float64, centers [][]float64, tol float64) ([]int, float64) {
	k, d := len(centers), len(rows[0])
	labels := make([]int, len(rows))
	for iter := 0; iter < clusterMaxIter; iter++ {
		for i, r := range rows {
			labels[i] = closest(r, centers)
		}
		next := make([][]float64, k)
		counts := make([]int, k)
		for c := range next {
			next[c] = make([]float64, d)
		}
		for i, r := range rows {
			floats.Add(next[labels[i]], r)
			counts[labels[i]]++
		}
		var shift float64
		for c := range next {
			if counts[c] == 0 {
				// empty cluster keeps its previous center
				copy(next[c], centers[c])
			} else {
				floats.Scale(1/float64(counts[c]), next[c])
			}
			shift += sqDist(next[c], centers[c])
		}
		centers = next
		if shift <= tol {
			break
		}
	}
	var inertia float64
	for i, r := range rows {
		labels[i] = closest(r, centers)
		inertia += sqDist(r, centers[labels[i]])
	}
	return labels, inertia
}

func closest(r []float64, centers [][]float64) int {
	best, bestD := 0, math.Inf(1)
	for c, ctr := range centers {
		if dd := sqDist(r, ctr); dd < bestD {
			best, bestD = c, dd
		}
	}
	return best
}

// project2 projects the centered rows of x onto the first two principal
// components and returns each component's share of total variance.
func project2(x *mat.Dense) (pc1, pc2 []float64, ratio [2]float64, ok bool) {
	var pc stat.PC
	if !pc.PrincipalComponents(x, nil) {
		return nil, nil, ratio, false
	}
	vars := pc.VarsTo(nil)
	var vecs mat.Dense
	pc.VectorsTo(&vecs)
	n, d := x.Dims()
	comps := 2
	if d < comps {
		comps = d
	}
	var proj mat.Dense
	proj.Mul(x, vecs.Slice(0, d, 0, comps))

	total := floats.Sum(vars)
	for i := 0; i < comps && i < len(vars); i++ {
		if total > 0 {
			ratio[i] = vars[i] / total
		}
	}
	pc1 = make([]float64, n)
	pc2 = make([]float64, n)
	for i := 0; i < n; i++ {
		pc1[i] = proj.At(i, 0)
		if comps > 1 {
			pc2[i] = proj.At(i, 1)
		}
	}
	return pc1, pc2, ratio, true
}

func profiles(balances []CountryBalance, raw [][]float64, labels []int, k int) []ClusterProfile {
	out := make([]ClusterProfile, k)
	members := make([][]int, k)
	for i, l := range labels {
		members[l] = append(members[l], i)
	}
	for c := 0; c < k; c++ {
		idx := members[c]
		p := ClusterProfile{ID: c, Size: len(idx), Label: TypeExporter, TopCountries: []string{}}

		byFlow := append([]int(nil), idx...)
		sort.SliceStable(byFlow, func(a, b int) bool {
			return balances[byFlow[a]].TotalFlow > balances[byFlow[b]].TotalFlow
		})
		for _, i := range head(byFlow, 5) {
			p.TopCountries = append(p.TopCountries, balances[i].Country)
		}

		for j, name := range ClusterFeatures {
			vals := make([]float64, len(idx))
			for a, i := range idx {
				vals[a] = raw[j][i]
			}
			fs := FeatureStat{Feature: name}
			if len(vals) > 0 {
				fs.Mean = stat.Mean(vals, nil)
				sort.Float64s(vals)
				fs.Median = quantile(vals, 0.5)
			}
			p.Features = append(p.Features, fs)
			if name == ColNetBalance {
				p.MeanNetBalance = fs.Mean
			}
		}
		if p.MeanNetBalance > 0 {
			p.Label = TypeAttractor
		}
		out[c] = p
	}
	return out
}
