package dataset

import (
	"errors"
	"fmt"
)

// ErrFlowsMissing means the required flows table is absent from the data
// directory. Pages that depend on flows must stop rendering.
var ErrFlowsMissing = errors.New("migration_flows not found")

// LoadError describes a table that exists but could not be read or decoded.
type LoadError struct {
	Dataset string
	Path    string
	Err     error
}

func (e *LoadError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("load %s (%s): %v", e.Dataset, e.Path, e.Err)
	}
	return fmt.Sprintf("load %s: %v", e.Dataset, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
