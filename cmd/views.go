package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/talentflow-cli/internal/analysis"
)

var (
	balLimit int
	topN     int
	clusterK int
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Headline totals and spread of the filtered routes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, flows, err := filteredFlows(cmd)
		if err != nil {
			return err
		}
		s := analysis.SummaryStats(flows)
		var d *analysis.Dispersion
		if sp, ok := analysis.Spread(flows); ok {
			d = &sp
		}
		out := struct {
			Summary    analysis.Summary     `json:"summary" yaml:"summary"`
			Dispersion *analysis.Dispersion `json:"dispersion,omitempty" yaml:"dispersion,omitempty"`
		}{s, d}
		return emit(cmd, out, analysis.SummaryMarkdown(s, d))
	},
}

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Per-country immigration, emigration and net balance",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, flows, err := filteredFlows(cmd)
		if err != nil {
			return err
		}
		rows := analysis.ComputeNetMigration(flows)
		return emit(cmd, rows, analysis.BalancesMarkdown(rows, balLimit))
	},
}

var topCmd = &cobra.Command{
	Use:   "top",
	Short: "Rankings of emitters, receivers and corridors",
}

var topEmittersCmd = &cobra.Command{
	Use:   "emitters",
	Short: "Countries sending the most researchers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, flows, err := filteredFlows(cmd)
		if err != nil {
			return err
		}
		rows := analysis.TopEmitters(flows, rankSize(cmd, settings().TopN))
		return emit(cmd, rows, analysis.RankedMarkdown("TOP EMITTERS", rows))
	},
}

var topReceiversCmd = &cobra.Command{
	Use:   "receivers",
	Short: "Countries receiving the most researchers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, flows, err := filteredFlows(cmd)
		if err != nil {
			return err
		}
		rows := analysis.TopReceivers(flows, rankSize(cmd, settings().TopN))
		return emit(cmd, rows, analysis.RankedMarkdown("TOP RECEIVERS", rows))
	},
}

var topCorridorsCmd = &cobra.Command{
	Use:   "corridors",
	Short: "Largest origin->destination routes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, flows, err := filteredFlows(cmd)
		if err != nil {
			return err
		}
		rows := analysis.TopCorridors(flows, rankSize(cmd, settings().TopCorridors))
		return emit(cmd, rows, analysis.CorridorsMarkdown(rows))
	},
}

func rankSize(cmd *cobra.Command, def int) int {
	if cmd.Flags().Changed("n") {
		return topN
	}
	return def
}

var regionsCmd = &cobra.Command{
	Use:   "regions",
	Short: "Region-to-region flows and per-region totals",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, flows, err := filteredFlows(cmd)
		if err != nil {
			return err
		}
		rf := analysis.RegionalFlows(flows)
		totals := analysis.ComputeRegionTotals(flows)
		out := struct {
			Flows  []analysis.RegionFlow `json:"flows" yaml:"flows"`
			Totals analysis.RegionTotals `json:"totals" yaml:"totals"`
		}{rf, totals}
		return emit(cmd, out, analysis.RegionsMarkdown(rf, totals))
	},
}

var correlateCmd = &cobra.Command{
	Use:   "correlate [colA colB]",
	Short: "Pearson correlation of balance columns over every route",
	Long: fmt.Sprintf(`Without arguments, prints the correlation matrix of %v.
With two column names, prints that single coefficient.`, analysis.BalanceColumns),
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 0 && len(args) != 2 {
			return fmt.Errorf("want zero or two column names, got %d", len(args))
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := loadBundle(cmd)
		if err != nil {
			return err
		}
		balances := analysis.ComputeNetMigration(b.Flows)
		if len(args) == 2 {
			c, err := analysis.Correlate(balances, args[0], args[1])
			if err != nil {
				return err
			}
			return emit(cmd, c, fmt.Sprintf("%s vs %s: %s", c.A, c.B, analysis.CorrelationPairMarkdown(c)))
		}
		m, err := analysis.CorrelationMatrix(balances)
		if err != nil {
			return emitNotice(cmd, "correlations", err)
		}
		return emit(cmd, m, analysis.CorrelationMarkdown(m))
	},
}

var clusterCmd = &cobra.Command{
	Use:   "cluster",
	Short: "K-Means segmentation of countries by migration profile",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		k := settings().ClusterK
		if cmd.Flags().Changed("k") {
			k = clusterK
		}
		if k < analysis.MinClusters || k > analysis.MaxClusters {
			return analysis.ErrInvalidClusterCount
		}
		b, err := loadBundle(cmd)
		if err != nil {
			return err
		}
		c, err := analysis.Cluster(analysis.ComputeNetMigration(b.Flows), k)
		if err != nil {
			return emitNotice(cmd, "clusters", err)
		}
		return emit(cmd, c, analysis.ClustersMarkdown(c))
	},
}

var economyCmd = &cobra.Command{
	Use:   "economy",
	Short: "Net balance against GDP per capita and R&D spending",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		b, flows, err := filteredFlows(cmd)
		if err != nil {
			return err
		}
		eco, err := analysis.EconomyFor(b, flows, analysis.ComputeNetMigration(flows), analysisOptions())
		if err != nil {
			return emitNotice(cmd, "economy", err)
		}
		return emit(cmd, eco, analysis.EconomyMarkdown(eco))
	},
}

var timelineCmd = &cobra.Command{
	Use:   "timeline",
	Short: "Researcher volume by PhD decade and migrations per year",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		b, flows, err := filteredFlows(cmd)
		if err != nil {
			return err
		}
		decades, ok := analysis.FlowsByDecade(flows)
		if !ok {
			warnf(cmd, "phd_year_mean column not available; decades skipped")
		}
		var years *analysis.YearSeries
		if b.Migrations.Present {
			ys := analysis.MigrationsByYear(b.Migrations.Value)
			years = &ys
		} else {
			warnf(cmd, "%s", b.Migrations.Reason)
		}
		out := struct {
			Decades    []analysis.DecadeTotal `json:"decades,omitempty" yaml:"decades,omitempty"`
			Migrations *analysis.YearSeries   `json:"migrations_by_year,omitempty" yaml:"migrations_by_year,omitempty"`
		}{decades, years}
		return emit(cmd, out, analysis.TimelineMarkdown(decades, years))
	},
}

func init() {
	rootCmd.AddCommand(summaryCmd, balanceCmd, topCmd, regionsCmd, correlateCmd, clusterCmd, economyCmd, timelineCmd)
	topCmd.AddCommand(topEmittersCmd, topReceiversCmd, topCorridorsCmd)

	balanceCmd.Flags().IntVar(&balLimit, "limit", 0, "rows to print in Markdown (0 = all)")
	topCmd.PersistentFlags().IntVar(&topN, "n", 0, "number of rows (default from config)")
	clusterCmd.Flags().IntVar(&clusterK, "k", 4, fmt.Sprintf("number of clusters (%d-%d, default from config)", analysis.MinClusters, analysis.MaxClusters))
}
