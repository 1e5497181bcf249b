package analysis

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// quantile uses linear interpolation between closest ranks over a sorted
// slice, the same convention as numpy's default.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// pearson computes the correlation of x and y over pairs where both values
// are finite. It reports ErrInsufficientData for fewer than two pairs or a
// zero-variance side instead of returning NaN.
func pearson(x, y []float64) (r float64, n int, err error) {
	xs := make([]float64, 0, len(x))
	ys := make([]float64, 0, len(y))
	for i := range x {
		if i >= len(y) || !finite(x[i]) || !finite(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	n = len(xs)
	if n < 2 {
		return 0, n, insufficient("%d complete pairs", n)
	}
	if stat.Variance(xs, nil) == 0 || stat.Variance(ys, nil) == 0 {
		return 0, n, insufficient("zero variance")
	}
	r = stat.Correlation(xs, ys, nil)
	if math.IsNaN(r) {
		return 0, n, insufficient("correlation undefined")
	}
	return clamp(r, -1, 1), n, nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
