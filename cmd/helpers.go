package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/talentflow-cli/internal/analysis"
	"github.com/KaramelBytes/talentflow-cli/internal/cache"
	cfgpkg "github.com/KaramelBytes/talentflow-cli/internal/config"
	"github.com/KaramelBytes/talentflow-cli/internal/dataset"
	"github.com/KaramelBytes/talentflow-cli/internal/utils"
)

// store is shared by every loader in the process.
var store *cache.Store

func settings() *cfgpkg.Global {
	if cfg == nil {
		cfg = cfgpkg.Defaults()
	}
	return cfg
}

func newLoader() *dataset.Loader {
	c := settings()
	if store == nil {
		store = cache.New(cache.WithTTL(time.Duration(c.CacheTTLSec)*time.Second), cache.WithLogger(logger))
	}
	return dataset.NewLoader(c.DataDir, store, logger)
}

func loadBundle(cmd *cobra.Command) (*dataset.Bundle, error) {
	b, err := newLoader().LoadAll(cmd.Context())
	if err != nil {
		return nil, err
	}
	logger.Debug("bundle ready", "snapshot", b.SnapshotID, "routes", b.Flows.Len())
	return b, nil
}

// currentFilter starts from the configured defaults and applies flag overrides.
func currentFilter(cmd *cobra.Command) (analysis.Filter, error) {
	c := settings()
	var f analysis.Filter
	if !flagNoFilters {
		f = analysis.Filter{
			OriginRegions: c.OriginRegions,
			DestRegions:   c.DestRegions,
			YearRange:     &analysis.YearRange{Min: c.YearMin, Max: c.YearMax},
		}
		if c.MinResearchers > 0 {
			mr := c.MinResearchers
			f.MinResearchers = &mr
		}
	}
	flags := cmd.Flags()
	if flags.Changed("origin-region") {
		f.OriginRegions = flagOriginRegions
	}
	if flags.Changed("dest-region") {
		f.DestRegions = flagDestRegions
	}
	if flags.Changed("year-min") || flags.Changed("year-max") {
		yr := analysis.YearRange{Min: c.YearMin, Max: c.YearMax}
		if f.YearRange != nil {
			yr = *f.YearRange
		}
		if flags.Changed("year-min") {
			yr.Min = flagYearMin
		}
		if flags.Changed("year-max") {
			yr.Max = flagYearMax
		}
		f.YearRange = &yr
	}
	if flags.Changed("min-researchers") {
		mr := flagMinResearchers
		f.MinResearchers = &mr
	}
	return f, f.Validate()
}

func analysisOptions() analysis.Options {
	c := settings()
	return analysis.Options{
		TopN:         c.TopN,
		TopCorridors: c.TopCorridors,
		ClusterK:     c.ClusterK,
		WDIYearMin:   c.WDIYearMin,
		WDIYearMax:   c.WDIYearMax,
	}
}

// filteredFlows loads the bundle and applies the current filter.
func filteredFlows(cmd *cobra.Command) (*dataset.Bundle, *dataset.FlowTable, error) {
	f, err := currentFilter(cmd)
	if err != nil {
		return nil, nil, err
	}
	b, err := loadBundle(cmd)
	if err != nil {
		return nil, nil, err
	}
	flows := analysis.ApplyFilters(b.Flows, f)
	if flows.Len() == 0 {
		warnf(cmd, "no routes match the current filters")
	}
	return b, flows, nil
}

// emit writes v in the selected format; md is the Markdown rendering.
func emit(cmd *cobra.Command, v any, md string) error {
	return write(cmd.OutOrStdout(), v, md)
}

func write(w io.Writer, v any, md string) error {
	switch strings.ToLower(outFormat) {
	case "", "markdown", "md":
		_, err := fmt.Fprintln(w, md)
		return err
	case "json":
		b, err := utils.PrettyJSON(v)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	case "yaml", "yml":
		b, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal yaml: %w", err)
		}
		_, err = w.Write(b)
		return err
	default:
		return fmt.Errorf("unsupported --format: %s (use markdown, json or yaml)", outFormat)
	}
}

// emitNotice reports a view that the data could not support. It is not an
// error: the command still exits zero.
func emitNotice(cmd *cobra.Command, view string, err error) error {
	msg := analysis.NoticeFor(err)
	if msg == "" {
		return err
	}
	notice := analysis.Notice{View: view, Message: msg}
	return emit(cmd, notice, fmt.Sprintf("⚠ %s: %s", view, msg))
}

func warnf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: "+format+"\n", args...)
}
