package analysis

import (
	"errors"
	"time"

	"github.com/KaramelBytes/talentflow-cli/internal/dataset"
)

// Options controls the sizes and windows used when building a dashboard.
type Options struct {
	// TopN is the length of the emitter and receiver rankings.
	TopN int
	// TopCorridors is the number of routes listed as corridors.
	TopCorridors int
	// ClusterK is the K-Means cluster count.
	ClusterK int
	// WDIYearMin and WDIYearMax bound the indicator averaging window.
	WDIYearMin, WDIYearMax int
}

// DefaultOptions mirrors the dashboard defaults.
func DefaultOptions() Options {
	return Options{TopN: 15, TopCorridors: 20, ClusterK: 4, WDIYearMin: 2014, WDIYearMax: 2016}
}

// Notice explains why a view is empty or degraded.
type Notice struct {
	View    string `json:"view" yaml:"view"`
	Message string `json:"message" yaml:"message"`
}

// Dashboard holds every derived view for one filter. Exploratory views use
// the filtered routes; correlations, clusters and the balance profile use
// every route, as the model views do not take filters.
type Dashboard struct {
	SnapshotID    string                `json:"snapshot_id" yaml:"snapshot_id"`
	GeneratedAt   time.Time             `json:"generated_at" yaml:"generated_at"`
	Filter        Filter                `json:"filter" yaml:"filter"`
	Status        []dataset.TableStatus `json:"status" yaml:"status"`
	Summary       Summary               `json:"summary" yaml:"summary"`
	Dispersion    *Dispersion           `json:"dispersion,omitempty" yaml:"dispersion,omitempty"`
	Balances      []CountryBalance      `json:"balances" yaml:"balances"`
	TopEmitters   []Ranked              `json:"top_emitters" yaml:"top_emitters"`
	TopReceivers  []Ranked              `json:"top_receivers" yaml:"top_receivers"`
	TopCorridors  []dataset.FlowRecord  `json:"top_corridors" yaml:"top_corridors"`
	RegionalFlows []RegionFlow          `json:"regional_flows" yaml:"regional_flows"`
	RegionTotals  RegionTotals          `json:"region_totals" yaml:"region_totals"`
	Economy       *Economy              `json:"economy,omitempty" yaml:"economy,omitempty"`
	Decades       []DecadeTotal         `json:"decades,omitempty" yaml:"decades,omitempty"`
	Migrations    *YearSeries           `json:"migrations_by_year,omitempty" yaml:"migrations_by_year,omitempty"`
	Profile       BalanceProfile        `json:"balance_profile" yaml:"balance_profile"`
	Correlations  *CorrMatrix           `json:"correlations,omitempty" yaml:"correlations,omitempty"`
	Clusters      *Clustering           `json:"clusters,omitempty" yaml:"clusters,omitempty"`
	Notices       []Notice              `json:"notices" yaml:"notices"`
}

// BuildDashboard computes every view from a loaded bundle. Degenerate or
// missing optional inputs add a notice and leave that view empty; the only
// error is an invalid cluster count.
func BuildDashboard(b *dataset.Bundle, f Filter, opt Options) (*Dashboard, error) {
	if opt.ClusterK < MinClusters || opt.ClusterK > MaxClusters {
		return nil, ErrInvalidClusterCount
	}
	filtered := ApplyFilters(b.Flows, f)
	d := &Dashboard{
		SnapshotID:    b.SnapshotID,
		GeneratedAt:   time.Now().UTC(),
		Filter:        f,
		Status:        dataset.Status(b),
		Summary:       SummaryStats(filtered),
		Balances:      ComputeNetMigration(filtered),
		TopEmitters:   TopEmitters(filtered, opt.TopN),
		TopReceivers:  TopReceivers(filtered, opt.TopN),
		TopCorridors:  TopCorridors(filtered, opt.TopCorridors),
		RegionalFlows: RegionalFlows(filtered),
		RegionTotals:  ComputeRegionTotals(filtered),
		Notices:       []Notice{},
	}
	if filtered.Len() == 0 {
		d.notice("filters", "no routes match the current filters")
	}
	if sp, ok := Spread(filtered); ok {
		d.Dispersion = &sp
	}

	if eco, err := EconomyFor(b, filtered, d.Balances, opt); err != nil {
		d.notice("economy", err.Error())
	} else {
		d.Economy = eco
	}

	if dec, ok := FlowsByDecade(filtered); ok {
		d.Decades = dec
	} else {
		d.notice("decades", "phd_year_mean column not available")
	}
	if b.Migrations.Present {
		ys := MigrationsByYear(b.Migrations.Value)
		d.Migrations = &ys
	} else {
		d.notice("migrations_by_year", b.Migrations.Reason)
	}

	all := ComputeNetMigration(b.Flows)
	d.Profile = ProfileBalances(all)
	if m, err := CorrelationMatrix(all); err != nil {
		d.notice("correlations", err.Error())
	} else {
		d.Correlations = m
	}
	if c, err := Cluster(all, opt.ClusterK); err != nil {
		d.notice("clusters", err.Error())
	} else {
		d.Clusters = c
	}
	return d, nil
}

// EconomyFor pivots the bundle's indicators over the configured window and
// correlates them with balances. Absent indicators are ErrInsufficientData.
func EconomyFor(b *dataset.Bundle, flows *dataset.FlowTable, balances []CountryBalance, opt Options) (*Economy, error) {
	if !b.Indicators.Present {
		return nil, insufficient("%s", b.Indicators.Reason)
	}
	wide := dataset.PivotIndicators(b.Indicators.Value, opt.WDIYearMin, opt.WDIYearMax)
	return EconomicCorrelation(flows, balances, wide)
}

func (d *Dashboard) notice(view, msg string) {
	d.Notices = append(d.Notices, Notice{View: view, Message: msg})
}

// NoticeFor returns the notice text for err when it marks degenerate input,
// and the empty string for any other error.
func NoticeFor(err error) string {
	if errors.Is(err, ErrInsufficientData) {
		return err.Error()
	}
	return ""
}
