package analysis

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/talentflow-cli/internal/dataset"
)

// Markdown renders the whole dashboard as one report.
func (d *Dashboard) Markdown() string {
	var b strings.Builder
	b.WriteString("[DASHBOARD]\n")
	if d.SnapshotID != "" {
		b.WriteString(fmt.Sprintf("Snapshot: %s\n", d.SnapshotID))
	}
	b.WriteString(fmt.Sprintf("Generated: %s\n", d.GeneratedAt.Format("2006-01-02 15:04:05 MST")))
	b.WriteString(fmt.Sprintf("Filters: %s\n\n", describeFilter(d.Filter)))

	b.WriteString(StatusMarkdown(d.Status))
	b.WriteString("\n")
	b.WriteString(SummaryMarkdown(d.Summary, d.Dispersion))
	b.WriteString("\n")
	b.WriteString(BalancesMarkdown(d.Balances, 15))
	b.WriteString("\n")
	b.WriteString(RankedMarkdown("TOP EMITTERS", d.TopEmitters))
	b.WriteString("\n")
	b.WriteString(RankedMarkdown("TOP RECEIVERS", d.TopReceivers))
	b.WriteString("\n")
	b.WriteString(CorridorsMarkdown(d.TopCorridors))
	b.WriteString("\n")
	b.WriteString(RegionsMarkdown(d.RegionalFlows, d.RegionTotals))
	if d.Economy != nil {
		b.WriteString("\n")
		b.WriteString(EconomyMarkdown(d.Economy))
	}
	if d.Decades != nil || d.Migrations != nil {
		b.WriteString("\n")
		b.WriteString(TimelineMarkdown(d.Decades, d.Migrations))
	}
	b.WriteString("\n")
	b.WriteString(ProfileMarkdown(d.Profile))
	if d.Correlations != nil {
		b.WriteString("\n")
		b.WriteString(CorrelationMarkdown(d.Correlations))
	}
	if d.Clusters != nil {
		b.WriteString("\n")
		b.WriteString(ClustersMarkdown(d.Clusters))
	}
	if len(d.Notices) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, n := range d.Notices {
			b.WriteString(fmt.Sprintf("- %s: %s\n", n.View, n.Message))
		}
	}
	return b.String()
}

func describeFilter(f Filter) string {
	if f.IsZero() {
		return "none"
	}
	var parts []string
	if len(f.OriginRegions) > 0 {
		parts = append(parts, "origin in "+strings.Join(f.OriginRegions, ", "))
	}
	if len(f.DestRegions) > 0 {
		parts = append(parts, "destination in "+strings.Join(f.DestRegions, ", "))
	}
	if f.YearRange != nil {
		parts = append(parts, fmt.Sprintf("phd year %d-%d", f.YearRange.Min, f.YearRange.Max))
	}
	if f.MinResearchers != nil {
		parts = append(parts, fmt.Sprintf("at least %d researchers", *f.MinResearchers))
	}
	return strings.Join(parts, "; ")
}

// StatusMarkdown lists source table availability.
func StatusMarkdown(st []dataset.TableStatus) string {
	var b strings.Builder
	b.WriteString("[DATA STATUS]\n")
	for _, s := range st {
		mark := "✓"
		if !s.Present {
			mark = "✗"
			if !s.Required {
				mark = "⚠"
			}
		}
		b.WriteString(fmt.Sprintf("- %s %s", mark, s.Name))
		if s.Present {
			b.WriteString(fmt.Sprintf(": %d rows", s.Rows))
		} else if s.Reason != "" {
			b.WriteString(": " + s.Reason)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// SummaryMarkdown renders the headline numbers and, when present, the spread.
func SummaryMarkdown(s Summary, d *Dispersion) string {
	var b strings.Builder
	b.WriteString("[SUMMARY]\n")
	b.WriteString(fmt.Sprintf("Routes: %d\n", s.TotalRoutes))
	b.WriteString(fmt.Sprintf("Researchers: %d\n", s.TotalResearchers))
	b.WriteString(fmt.Sprintf("Origins: %d, destinations: %d\n", s.UniqueOrigins, s.UniqueDestinations))
	b.WriteString(fmt.Sprintf("Per route: mean %s, median %s\n", optNum(s.MeanPerRoute, "%.2f"), optNum(s.MedianPerRoute, "%.0f")))
	b.WriteString(fmt.Sprintf("PhD years: %s to %s\n", optInt(s.YearMin), optInt(s.YearMax)))
	if d != nil {
		b.WriteString(fmt.Sprintf("Spread: std %s, variance %s, min %d, max %d, range %d, IQR %.0f",
			optNum(d.Std, "%.2f"), optNum(d.Variance, "%.2f"), d.Min, d.Max, d.Range, d.IQR))
		if d.Mode != nil {
			b.WriteString(fmt.Sprintf(", mode %d", *d.Mode))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func optNum(v *float64, format string) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf(format, *v)
}

func optInt(v *int) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%d", *v)
}

// BalancesMarkdown renders up to limit country balances; limit <= 0 renders all.
func BalancesMarkdown(rows []CountryBalance, limit int) string {
	var b strings.Builder
	b.WriteString("[NET MIGRATION]\n")
	if len(rows) == 0 {
		b.WriteString("(no countries)\n")
		return b.String()
	}
	if limit > 0 && limit < len(rows) {
		b.WriteString(fmt.Sprintf("Showing %d of %d countries\n", limit, len(rows)))
		rows = rows[:limit]
	}
	table(&b, []string{"Country", "Immigration", "Emigration", "Net", "Total", "Ratio", "Type"}, len(rows), func(i int) []string {
		r := rows[i]
		return []string{r.Country, itoa(r.Immigration), itoa(r.Emigration), itoa(r.NetBalance), itoa(r.TotalFlow), r.MigrationRatio.String(), r.Type}
	})
	return b.String()
}

// RankedMarkdown renders an emitter or receiver ranking under title.
func RankedMarkdown(title string, rows []Ranked) string {
	var b strings.Builder
	b.WriteString("[" + title + "]\n")
	if len(rows) == 0 {
		b.WriteString("(none)\n")
		return b.String()
	}
	table(&b, []string{"Rank", "Country", "Researchers"}, len(rows), func(i int) []string {
		return []string{fmt.Sprintf("%d", rows[i].Rank), rows[i].Country, itoa(rows[i].Total)}
	})
	return b.String()
}

// CorridorsMarkdown renders the largest routes.
func CorridorsMarkdown(rows []dataset.FlowRecord) string {
	var b strings.Builder
	b.WriteString("[TOP CORRIDORS]\n")
	if len(rows) == 0 {
		b.WriteString("(none)\n")
		return b.String()
	}
	table(&b, []string{"#", "Origin", "Destination", "Researchers", "Regions"}, len(rows), func(i int) []string {
		r := rows[i]
		return []string{fmt.Sprintf("%d", i+1), r.Origin, r.Destination, itoa(r.NResearchers), r.OriginRegion + " → " + r.DestinationRegion}
	})
	return b.String()
}

// RegionsMarkdown renders inter-regional flows followed by per-region totals.
func RegionsMarkdown(flows []RegionFlow, totals RegionTotals) string {
	var b strings.Builder
	b.WriteString("[REGIONAL FLOWS]\n")
	if len(flows) == 0 {
		b.WriteString("(no inter-regional routes)\n")
	}
	for _, f := range flows {
		b.WriteString(fmt.Sprintf("- %s → %s: %d\n", f.OriginRegion, f.DestinationRegion, f.Researchers))
	}
	b.WriteString("\n[REGION TOTALS]\n")
	for _, t := range totals.Emigration {
		b.WriteString(fmt.Sprintf("- emigration from %s: %d\n", t.Region, t.Researchers))
	}
	for _, t := range totals.Immigration {
		b.WriteString(fmt.Sprintf("- immigration to %s: %d\n", t.Region, t.Researchers))
	}
	return b.String()
}

// CorrelationPairMarkdown renders a single coefficient.
func CorrelationPairMarkdown(c Correlation) string {
	if c.Undefined() {
		return fmt.Sprintf("- %s ~ %s: undefined (%s)\n", c.A, c.B, c.Reason)
	}
	return fmt.Sprintf("- %s ~ %s: r=%.3f (n=%d, %s)\n", c.A, c.B, *c.R, c.N, strength(*c.R))
}

func strength(r float64) string {
	a := r
	if a < 0 {
		a = -a
	}
	switch {
	case a > 0.7:
		return "strong"
	case a >= 0.3:
		return "moderate"
	default:
		return "weak"
	}
}

// CorrelationMarkdown renders the matrix's ranked pairs.
func CorrelationMarkdown(m *CorrMatrix) string {
	var b strings.Builder
	b.WriteString("[CORRELATIONS]\n")
	b.WriteString(fmt.Sprintf("Columns: %s\n", strings.Join(m.Columns, ", ")))
	if len(m.Dropped) > 0 {
		b.WriteString(fmt.Sprintf("Dropped (too few values): %s\n", strings.Join(m.Dropped, ", ")))
	}
	for _, p := range m.Pairs {
		b.WriteString(CorrelationPairMarkdown(p))
	}
	return b.String()
}

// ClustersMarkdown renders cluster profiles.
func ClustersMarkdown(c *Clustering) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[CLUSTERS k=%d]\n", c.K))
	b.WriteString(fmt.Sprintf("PCA explained variance: PC1 %.1f%%, PC2 %.1f%%\n", c.ExplainedVariance[0]*100, c.ExplainedVariance[1]*100))
	for _, p := range c.Profiles {
		b.WriteString(fmt.Sprintf("- Cluster %d (%d countries, %s, mean net %.0f): %s\n",
			p.ID, p.Size, p.Label, p.MeanNetBalance, strings.Join(p.TopCountries, ", ")))
		for _, f := range p.Features {
			b.WriteString(fmt.Sprintf("  • %s: mean %.0f, median %.0f\n", f.Feature, f.Mean, f.Median))
		}
	}
	return b.String()
}

// EconomyMarkdown renders the indicator correlations.
func EconomyMarkdown(e *Economy) string {
	var b strings.Builder
	b.WriteString("[ECONOMIC CORRELATION]\n")
	b.WriteString(fmt.Sprintf("Countries matched: %d\n", len(e.Points)))
	b.WriteString(CorrelationPairMarkdown(e.GDP))
	b.WriteString(CorrelationPairMarkdown(e.RD))
	return b.String()
}

// TimelineMarkdown renders decade totals and the per-year series.
func TimelineMarkdown(decades []DecadeTotal, years *YearSeries) string {
	var b strings.Builder
	b.WriteString("[TIMELINE]\n")
	for _, d := range decades {
		b.WriteString(fmt.Sprintf("- %ds: %d\n", d.Decade, d.Researchers))
	}
	if years != nil {
		if years.Peak != nil {
			b.WriteString(fmt.Sprintf("Peak year: %d (%d researchers)\n", years.Peak.Year, years.Peak.Count))
		}
		for _, y := range years.Years {
			b.WriteString(fmt.Sprintf("- %d: %d\n", y.Year, y.Count))
		}
	}
	return b.String()
}

// ProfileMarkdown renders the net-balance distribution summary.
func ProfileMarkdown(p BalanceProfile) string {
	var b strings.Builder
	b.WriteString("[BALANCE DISTRIBUTION]\n")
	b.WriteString(fmt.Sprintf("Countries: %d (attractors %d, exporters %d, balanced %d)\n", p.Countries, p.Attractors, p.Exporters, p.Balanced))
	if len(p.TopGain) > 0 {
		b.WriteString("Top attractors: " + joinBalances(p.TopGain) + "\n")
	}
	if len(p.TopLoss) > 0 {
		b.WriteString("Top exporters: " + joinBalances(p.TopLoss) + "\n")
	}
	b.WriteString(CorrelationPairMarkdown(p.ImmVsEmi))
	return b.String()
}

func joinBalances(rows []CountryBalance) string {
	parts := make([]string, len(rows))
	for i, r := range rows {
		parts[i] = fmt.Sprintf("%s(%+d)", r.Country, r.NetBalance)
	}
	return strings.Join(parts, ", ")
}

func table(b *strings.Builder, header []string, n int, row func(i int) []string) {
	b.WriteString("| " + strings.Join(header, " | ") + " |\n")
	seps := make([]string, len(header))
	for i := range seps {
		seps[i] = "---"
	}
	b.WriteString("| " + strings.Join(seps, " | ") + " |\n")
	for i := 0; i < n; i++ {
		cells := row(i)
		for j := range cells {
			cells[j] = safeVal(cells[j])
		}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }

func itoa(v int64) string { return fmt.Sprintf("%d", v) }
