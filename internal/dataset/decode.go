package dataset

import (
	"fmt"
	"math"
	"strings"

	"github.com/KaramelBytes/talentflow-cli/internal/parser"
)

// DecodeFlows converts a raw table into flow records and enriches each with
// origin and destination regions.
func DecodeFlows(t *parser.Table) (*FlowTable, error) {
	idx := map[string]int{}
	for _, name := range []string{"origin", "destination", "origin_iso3", "destination_iso3", "n_researchers"} {
		i := t.Index(name)
		if i < 0 {
			return nil, fmt.Errorf("missing required column %q", name)
		}
		idx[name] = i
	}
	cols := FlowColumns{
		PhdYearMean:    t.Has("phd_year_mean"),
		PhdYearMin:     t.Has("phd_year_min"),
		PhdYearMax:     t.Has("phd_year_max"),
		OriginYearMean: t.Has("origin_year_mean"),
	}
	iMean, iMin, iMax, iOrig := t.Index("phd_year_mean"), t.Index("phd_year_min"), t.Index("phd_year_max"), t.Index("origin_year_mean")

	out := &FlowTable{Records: make([]FlowRecord, 0, t.Len()), Columns: cols}
	for r := range t.Rows {
		var n int64
		if raw := t.Value(r, idx["n_researchers"]); !parser.IsNull(raw) {
			f, ok := parser.ParseNumber(raw)
			if !ok {
				return nil, fmt.Errorf("row %d: n_researchers %q is not a number", r+2, raw)
			}
			if f < 0 {
				return nil, fmt.Errorf("row %d: n_researchers %v is negative", r+2, f)
			}
			n = int64(math.Round(f))
		}
		oISO := strings.ToUpper(t.Value(r, idx["origin_iso3"]))
		dISO := strings.ToUpper(t.Value(r, idx["destination_iso3"]))
		out.Records = append(out.Records, FlowRecord{
			Origin:            t.Value(r, idx["origin"]),
			Destination:       t.Value(r, idx["destination"]),
			OriginISO3:        oISO,
			DestinationISO3:   dISO,
			NResearchers:      n,
			PhdYearMean:       optFloat(t, r, iMean),
			PhdYearMin:        optFloat(t, r, iMin),
			PhdYearMax:        optFloat(t, r, iMax),
			OriginYearMean:    optFloat(t, r, iOrig),
			OriginRegion:      RegionOf(oISO),
			DestinationRegion: RegionOf(dISO),
		})
	}
	return out, nil
}

func optFloat(t *parser.Table, row, col int) *float64 {
	if col < 0 {
		return nil
	}
	f, ok := parser.ParseNumber(t.Value(row, col))
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// DecodeMigrations reads individual researcher records. Only origin_year is
// needed downstream; a table without it decodes to records with nil years.
func DecodeMigrations(t *parser.Table) []Migration {
	iYear := t.Index("origin_year")
	iOrig := firstIndex(t, "origin_country", "origin")
	iDest := firstIndex(t, "destination_country", "destination")
	out := make([]Migration, 0, t.Len())
	for r := range t.Rows {
		m := Migration{Origin: t.Value(r, iOrig), Destination: t.Value(r, iDest)}
		if f := optFloat(t, r, iYear); f != nil {
			y := int(*f)
			m.OriginYear = &y
		}
		out = append(out, m)
	}
	return out
}

// DecodeIndicators reads the long-format WDI table. Rows whose year does not
// parse or whose value is not a finite number are skipped.
func DecodeIndicators(t *parser.Table) ([]IndicatorRow, error) {
	iYear, iCode, iVal, iISO := t.Index("Year"), t.Index("IndicatorCode"), t.Index("Value"), t.Index("iso3")
	if iYear < 0 || iCode < 0 || iVal < 0 || iISO < 0 {
		return nil, fmt.Errorf("expected columns Year, IndicatorCode, Value, iso3; got %s", strings.Join(t.Header, ", "))
	}
	out := make([]IndicatorRow, 0, t.Len())
	for r := range t.Rows {
		y, ok := parser.ParseNumber(t.Value(r, iYear))
		if !ok {
			continue
		}
		v, ok := parser.ParseNumber(t.Value(r, iVal))
		if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out = append(out, IndicatorRow{
			Year:  int(y),
			Code:  t.Value(r, iCode),
			Value: v,
			ISO3:  strings.ToUpper(t.Value(r, iISO)),
		})
	}
	return out, nil
}

// DecodeMapping reads the ISO2/ISO3 cross-reference.
func DecodeMapping(t *parser.Table) ([]CountryCode, error) {
	i2, i3 := firstIndex(t, "iso2", "alpha2", "iso_a2"), firstIndex(t, "iso3", "alpha3", "iso_a3")
	if i2 < 0 || i3 < 0 {
		return nil, fmt.Errorf("expected iso2 and iso3 columns; got %s", strings.Join(t.Header, ", "))
	}
	iName := firstIndex(t, "name", "country", "country_name")
	out := make([]CountryCode, 0, t.Len())
	for r := range t.Rows {
		out = append(out, CountryCode{
			ISO2: strings.ToUpper(t.Value(r, i2)),
			ISO3: strings.ToUpper(t.Value(r, i3)),
			Name: t.Value(r, iName),
		})
	}
	return out, nil
}

func firstIndex(t *parser.Table, names ...string) int {
	for _, n := range names {
		if i := t.Index(n); i >= 0 {
			return i
		}
	}
	return -1
}
