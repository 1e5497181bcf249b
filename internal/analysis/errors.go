package analysis

import (
	"errors"
	"fmt"
)

// ErrInsufficientData marks a statistically degenerate input: too few rows,
// a zero-variance column, or a join that matched nothing. Views that hit it
// show a notice instead of failing.
var ErrInsufficientData = errors.New("insufficient data")

// ErrInvalidClusterCount is returned when k is outside [MinClusters, MaxClusters].
var ErrInvalidClusterCount = fmt.Errorf("cluster count must be between %d and %d", MinClusters, MaxClusters)

// ErrUnknownColumn is returned for a correlation column that is not numeric
// on CountryBalance.
var ErrUnknownColumn = errors.New("unknown column")

func insufficient(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInsufficientData, fmt.Sprintf(format, args...))
}
