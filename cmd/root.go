package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	cfgpkg "github.com/KaramelBytes/talentflow-cli/internal/config"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile   string
	debug     bool
	flagData  string
	outFormat string

	// Filter flags (override config if set)
	flagOriginRegions  []string
	flagDestRegions    []string
	flagYearMin        int
	flagYearMax        int
	flagMinResearchers int64
	flagNoFilters      bool

	// Loaded configuration
	cfg    *cfgpkg.Global
	logger = slog.Default()
)

var rootCmd = &cobra.Command{
	Use:   "talentflow",
	Short: "TalentFlow CLI: researcher migration flows, aggregated",
	Long: `TalentFlow loads processed researcher-migration tables and derives the views of the
flows dashboard: net balances, rankings, corridors, regional flows, correlations,
clusters, economic context and timelines. Views are printed as Markdown, JSON or
YAML, or served over HTTP.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Initialize configuration before executing commands
	cobra.OnInitialize(loadConfig)

	f := rootCmd.PersistentFlags()
	f.StringVar(&cfgFile, "config", "", "config file (default is ~/.talentflow/config.yaml)")
	f.BoolVar(&debug, "debug", false, "enable debug logging")
	f.StringVar(&flagData, "data-dir", "", "directory holding the processed tables (overrides config)")
	f.StringVarP(&outFormat, "format", "f", "markdown", "output format: markdown | json | yaml")
	f.StringSliceVar(&flagOriginRegions, "origin-region", nil, "keep routes whose origin is in these regions (repeatable)")
	f.StringSliceVar(&flagDestRegions, "dest-region", nil, "keep routes whose destination is in these regions (repeatable)")
	f.IntVar(&flagYearMin, "year-min", 0, "lower bound on the mean PhD year (overrides config)")
	f.IntVar(&flagYearMax, "year-max", 0, "upper bound on the mean PhD year (overrides config)")
	f.Int64Var(&flagMinResearchers, "min-researchers", 0, "minimum researchers per route (overrides config)")
	f.BoolVar(&flagNoFilters, "no-filters", false, "ignore configured default filters")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: fall back to built-in defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = cfgpkg.Defaults()
	}
	cfg = c
	if rootCmd.PersistentFlags().Changed("data-dir") && flagData != "" {
		cfg.DataDir = flagData
	}
	logger = newLogger(cfg.LogLevel, cfg.LogFormat, debug)
	slog.SetDefault(logger)
}

func newLogger(level, format string, debug bool) *slog.Logger {
	var lv slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lv = slog.LevelDebug
	case "warn":
		lv = slog.LevelWarn
	case "error":
		lv = slog.LevelError
	default:
		lv = slog.LevelInfo
	}
	if debug {
		lv = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: lv}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
