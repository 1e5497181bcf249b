package analysis

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sort"
)

// Numeric CountryBalance columns available to correlation.
const (
	ColImmigration    = "immigration"
	ColEmigration     = "emigration"
	ColNetBalance     = "net_balance"
	ColTotalFlow      = "total_flow"
	ColMigrationRatio = "migration_ratio"
)

// BalanceColumns lists the correlatable columns in display order.
var BalanceColumns = []string{ColImmigration, ColEmigration, ColNetBalance, ColTotalFlow, ColMigrationRatio}

// minValidShare is the fraction of rows a column must have finite values in
// to take part in the matrix.
const minValidShare = 0.3

// column extracts a numeric column; the infinite ratio sentinel becomes NaN.
func column(balances []CountryBalance, name string) ([]float64, error) {
	if !slices.Contains(BalanceColumns, name) {
		return nil, fmt.Errorf("%w %q (want one of %v)", ErrUnknownColumn, name, BalanceColumns)
	}
	out := make([]float64, len(balances))
	for i, b := range balances {
		switch name {
		case ColImmigration:
			out[i] = float64(b.Immigration)
		case ColEmigration:
			out[i] = float64(b.Emigration)
		case ColNetBalance:
			out[i] = float64(b.NetBalance)
		case ColTotalFlow:
			out[i] = float64(b.TotalFlow)
		case ColMigrationRatio:
			out[i] = float64(b.MigrationRatio)
			if math.IsInf(out[i], 0) {
				out[i] = math.NaN()
			}
		}
	}
	return out, nil
}

// Correlation is the Pearson coefficient of two columns. R is nil when the
// coefficient is undefined; Reason then says why.
type Correlation struct {
	A      string   `json:"a" yaml:"a"`
	B      string   `json:"b" yaml:"b"`
	R      *float64 `json:"r" yaml:"r"`
	N      int      `json:"n" yaml:"n"`
	Reason string   `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// Undefined reports whether the coefficient could not be computed.
func (c Correlation) Undefined() bool { return c.R == nil }

// Correlate computes the Pearson coefficient of two balance columns. Zero
// variance or too few rows yields an undefined result, not an error; only
// an unknown column name is an error.
func Correlate(balances []CountryBalance, a, b string) (Correlation, error) {
	x, err := column(balances, a)
	if err != nil {
		return Correlation{}, err
	}
	y, err := column(balances, b)
	if err != nil {
		return Correlation{}, err
	}
	return correlation(a, b, x, y), nil
}

func correlation(a, b string, x, y []float64) Correlation {
	c := Correlation{A: a, B: b}
	r, n, err := pearson(x, y)
	c.N = n
	if err != nil {
		c.Reason = err.Error()
		return c
	}
	c.R = &r
	return c
}

// CorrMatrix is a symmetric pairwise-complete correlation matrix. A nil
// cell is undefined.
type CorrMatrix struct {
	Columns  []string      `json:"columns" yaml:"columns"`
	Values   [][]*float64  `json:"values" yaml:"values"`
	Pairs    []Correlation `json:"pairs" yaml:"pairs"`
	Positive []Correlation `json:"strongest_positive" yaml:"strongest_positive"`
	Negative []Correlation `json:"strongest_negative" yaml:"strongest_negative"`
	Dropped  []string      `json:"dropped,omitempty" yaml:"dropped,omitempty"`
}

// CorrelationMatrix correlates every pair of balance columns that has finite
// values in more than 30% of rows. Pairs are ranked by |r|; the five
// strongest positive and negative pairs are listed separately.
func CorrelationMatrix(balances []CountryBalance) (*CorrMatrix, error) {
	var cols []string
	var data [][]float64
	var dropped []string
	for _, name := range BalanceColumns {
		v, _ := column(balances, name)
		valid := 0
		for _, x := range v {
			if finite(x) {
				valid++
			}
		}
		if float64(valid) > float64(len(balances))*minValidShare {
			cols = append(cols, name)
			data = append(data, v)
		} else {
			dropped = append(dropped, name)
		}
	}
	if len(cols) < 2 {
		return nil, insufficient("%d numeric column(s) with enough values", len(cols))
	}

	m := &CorrMatrix{Columns: cols, Values: make([][]*float64, len(cols)), Dropped: dropped}
	for i := range cols {
		m.Values[i] = make([]*float64, len(cols))
	}
	for i := range cols {
		for j := i; j < len(cols); j++ {
			if i == j {
				one := 1.0
				if _, _, err := pearson(data[i], data[i]); err != nil {
					m.Values[i][i] = nil
				} else {
					m.Values[i][i] = &one
				}
				continue
			}
			c := correlation(cols[i], cols[j], data[i], data[j])
			m.Values[i][j], m.Values[j][i] = c.R, c.R
			m.Pairs = append(m.Pairs, c)
		}
	}
	sort.SliceStable(m.Pairs, func(i, j int) bool { return absR(m.Pairs[i]) > absR(m.Pairs[j]) })
	for _, p := range m.Pairs {
		if p.R == nil {
			continue
		}
		if *p.R > 0 && len(m.Positive) < 5 {
			m.Positive = append(m.Positive, p)
		}
		if *p.R < 0 && len(m.Negative) < 5 {
			m.Negative = append(m.Negative, p)
		}
	}
	return m, nil
}

// undefined pairs sort last
func absR(c Correlation) float64 {
	if c.R == nil {
		return -1
	}
	return math.Abs(*c.R)
}

// IsInsufficient reports whether err marks degenerate input.
func IsInsufficient(err error) bool { return errors.Is(err, ErrInsufficientData) }
