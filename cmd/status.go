package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/talentflow-cli/internal/analysis"
	"github.com/KaramelBytes/talentflow-cli/internal/dataset"
)

// statusReport is the machine-readable form of the status command.
type statusReport struct {
	DataDir    string                `json:"data_dir" yaml:"data_dir"`
	SnapshotID string                `json:"snapshot_id,omitempty" yaml:"snapshot_id,omitempty"`
	Tables     []dataset.TableStatus `json:"tables" yaml:"tables"`
	Regions    []string              `json:"regions,omitempty" yaml:"regions,omitempty"`
	Years      *analysis.YearRange   `json:"years,omitempty" yaml:"years,omitempty"`
	CacheTTL   string                `json:"cache_ttl" yaml:"cache_ttl"`
	Error      string                `json:"error,omitempty" yaml:"error,omitempty"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which source tables are available",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		l := newLoader()
		rep := statusReport{DataDir: l.Dir(), CacheTTL: l.Store().TTL().String()}
		b, err := l.LoadAll(cmd.Context())
		var le *dataset.LoadError
		switch {
		case err == nil:
			rep.SnapshotID = b.SnapshotID
			rep.Tables = dataset.Status(b)
			rep.Regions = dataset.AvailableRegions(b.Flows)
			if lo, hi, ok := dataset.YearBounds(b.Flows); ok {
				rep.Years = &analysis.YearRange{Min: lo, Max: hi}
			}
		case errors.Is(err, dataset.ErrFlowsMissing), errors.As(err, &le):
			rep.Tables = dataset.Status(nil)
			rep.Tables[0].Reason = err.Error()
			rep.Error = err.Error()
		default:
			return err
		}

		var md strings.Builder
		md.WriteString(fmt.Sprintf("Data directory: %s\n", rep.DataDir))
		md.WriteString(fmt.Sprintf("Cache window: %s\n", rep.CacheTTL))
		md.WriteString(analysis.StatusMarkdown(rep.Tables))
		if len(rep.Regions) > 0 {
			md.WriteString(fmt.Sprintf("Regions: %s\n", strings.Join(rep.Regions, ", ")))
		}
		if rep.Years != nil {
			md.WriteString(fmt.Sprintf("PhD years: %d to %d\n", rep.Years.Min, rep.Years.Max))
		}
		return emit(cmd, rep, md.String())
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
