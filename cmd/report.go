package cmd

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/talentflow-cli/internal/analysis"
	"github.com/KaramelBytes/talentflow-cli/internal/utils"
)

var (
	repOutputPath string
	repClusterK   int
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Build every dashboard view and print or save the report",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := currentFilter(cmd)
		if err != nil {
			return err
		}
		opt := analysisOptions()
		if cmd.Flags().Changed("k") {
			opt.ClusterK = repClusterK
		}
		b, err := loadBundle(cmd)
		if err != nil {
			return err
		}
		d, err := analysis.BuildDashboard(b, f, opt)
		if err != nil {
			return err
		}
		for _, n := range d.Notices {
			logger.Debug("view degraded", "view", n.View, "reason", n.Message)
		}

		// Decide where to write: --output path or stdout
		if repOutputPath == "" {
			return emit(cmd, d, d.Markdown())
		}
		var buf bytes.Buffer
		if err := write(&buf, d, d.Markdown()); err != nil {
			return err
		}
		if err := utils.SafeWriteFile(repOutputPath, buf.Bytes()); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote report to %s\n", repOutputPath)
		if len(d.Notices) > 0 {
			warnf(cmd, "%d view(s) degraded, see [NOTES]", len(d.Notices))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringVarP(&repOutputPath, "output", "o", "", "optional path to write the report")
	reportCmd.Flags().IntVar(&repClusterK, "k", 4, "number of clusters (default from config)")
}
