package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/talentflow-cli/internal/parser"
)

var convertCmd = &cobra.Command{
	Use:   "convert <in> <out.parquet>",
	Short: "Convert a CSV/TSV/XLSX table to parquet",
	Long: `Reads a delimited or spreadsheet table and writes it as parquet so that
later loads take the binary path. Column types are inferred per column.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		in, out := args[0], args[1]
		if !strings.EqualFold(filepath.Ext(out), ".parquet") {
			return fmt.Errorf("output must end in .parquet: %s", out)
		}
		t, err := parser.ReadFile(in)
		if err != nil {
			return fmt.Errorf("read %s: %w", in, err)
		}
		if err := parser.WriteParquet(t, out); err != nil {
			return err
		}
		logger.Debug("converted", "in", in, "out", out, "columns", len(t.Header))
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %d rows to %s\n", t.Len(), out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)
}
