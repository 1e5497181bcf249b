// Package dataset holds the typed source tables of the dashboard and the
// loader that reads them from a data directory.
package dataset

import "time"

// Source table base names inside the data directory.
const (
	FlowsBase      = "migration_flows"
	MigrationsBase = "migrations_clean"
	IndicatorsBase = "wdi_indicators"
	MappingBase    = "country_mapping"
)

// FlowRecord is one observed origin->destination route.
type FlowRecord struct {
	Origin            string   `json:"origin" yaml:"origin"`
	Destination       string   `json:"destination" yaml:"destination"`
	OriginISO3        string   `json:"origin_iso3" yaml:"origin_iso3"`
	DestinationISO3   string   `json:"destination_iso3" yaml:"destination_iso3"`
	NResearchers      int64    `json:"n_researchers" yaml:"n_researchers"`
	PhdYearMean       *float64 `json:"phd_year_mean,omitempty" yaml:"phd_year_mean,omitempty"`
	PhdYearMin        *float64 `json:"phd_year_min,omitempty" yaml:"phd_year_min,omitempty"`
	PhdYearMax        *float64 `json:"phd_year_max,omitempty" yaml:"phd_year_max,omitempty"`
	OriginYearMean    *float64 `json:"origin_year_mean,omitempty" yaml:"origin_year_mean,omitempty"`
	OriginRegion      string   `json:"origin_region" yaml:"origin_region"`
	DestinationRegion string   `json:"destination_region" yaml:"destination_region"`
}

// FlowColumns records which optional columns the source table carried.
type FlowColumns struct {
	PhdYearMean    bool `json:"phd_year_mean"`
	PhdYearMin     bool `json:"phd_year_min"`
	PhdYearMax     bool `json:"phd_year_max"`
	OriginYearMean bool `json:"origin_year_mean"`
}

// FlowTable is an immutable set of flow records. Filtering produces a new
// table; Records is never modified in place.
type FlowTable struct {
	Records []FlowRecord
	Columns FlowColumns
}

// Len returns the number of routes.
func (t *FlowTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// With returns a table sharing t's column set but holding records.
func (t *FlowTable) With(records []FlowRecord) *FlowTable {
	return &FlowTable{Records: records, Columns: t.Columns}
}

// Migration is one individual researcher record.
type Migration struct {
	OriginYear  *int   `json:"origin_year,omitempty"`
	Origin      string `json:"origin,omitempty"`
	Destination string `json:"destination,omitempty"`
}

// IndicatorRow is one long-format WDI observation.
type IndicatorRow struct {
	Year  int     `json:"year"`
	Code  string  `json:"indicator_code"`
	Value float64 `json:"value"`
	ISO3  string  `json:"iso3"`
}

// CountryCode is one ISO2/ISO3 cross-reference row.
type CountryCode struct {
	ISO2 string `json:"iso2"`
	ISO3 string `json:"iso3"`
	Name string `json:"name,omitempty"`
}

// Optional wraps a table that may legitimately be absent. Reason explains
// absence for notices; Present is false whenever Reason is set.
type Optional[T any] struct {
	Value   T
	Present bool
	Reason  string
}

// Some marks a present value.
func Some[T any](v T) Optional[T] { return Optional[T]{Value: v, Present: true} }

// None marks an absent value with a human-readable reason.
func None[T any](reason string) Optional[T] { return Optional[T]{Reason: reason} }

// Bundle is one cached load of every source table.
type Bundle struct {
	SnapshotID string
	LoadedAt   time.Time
	Dir        string
	Flows      *FlowTable
	Migrations Optional[[]Migration]
	Indicators Optional[[]IndicatorRow]
	Mapping    Optional[[]CountryCode]
	// Notices names each optional table that is absent and why.
	Notices []string
}
