package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegionOf(t *testing.T) {
	cases := map[string]string{
		"USA": Norteamerica,
		"chn": Asia,
		"DEU": Europa,
		"BRA": Sudamerica,
		"NZL": Oceania,
		"ZAF": Africa,
		"XKX": Otros,
		"":    Otros,
	}
	for iso, want := range cases {
		assert.Equal(t, want, RegionOf(iso), iso)
	}
	assert.Equal(t, []string{Europa, Norteamerica, Asia, Sudamerica, Oceania, Africa, Otros}, Regions())
	assert.True(t, IsRegion(Oceania))
	assert.False(t, IsRegion("Antarctica"))
}

func TestPivotIndicators(t *testing.T) {
	rows := []IndicatorRow{
		{Year: 2014, Code: CodeGDPPerCapita, Value: 100, ISO3: "USA"},
		{Year: 2016, Code: CodeGDPPerCapita, Value: 200, ISO3: "USA"},
		{Year: 2013, Code: CodeGDPPerCapita, Value: 9999, ISO3: "USA"},
		{Year: 2015, Code: CodeRDExpenditurePct, Value: 2.5, ISO3: "USA"},
		{Year: 2015, Code: CodePopulation, Value: 1e9, ISO3: "CHN"},
		{Year: 2015, Code: CodeResearchersPerMillion, Value: 1200, ISO3: "CHN"},
		{Year: 2015, Code: "OTHER.CODE", Value: 1, ISO3: "CHN"},
	}
	got := PivotIndicators(rows, 2014, 2016)
	require.Len(t, got, 2)

	chn, usa := got[0], got[1]
	assert.Equal(t, "CHN", chn.ISO3)
	assert.Nil(t, chn.GDPPerCapita)
	require.NotNil(t, chn.Population)
	assert.Equal(t, 1e9, *chn.Population)
	require.NotNil(t, chn.ResearchersPerMillion)
	assert.Equal(t, 1200.0, *chn.ResearchersPerMillion)

	assert.Equal(t, "USA", usa.ISO3)
	require.NotNil(t, usa.GDPPerCapita)
	assert.Equal(t, 150.0, *usa.GDPPerCapita, "2013 is outside the window")
	require.NotNil(t, usa.RDExpenditurePct)
	assert.Equal(t, 2.5, *usa.RDExpenditurePct)
	assert.Nil(t, usa.Population)
}

func TestPivotIndicatorsEmptyWindow(t *testing.T) {
	rows := []IndicatorRow{{Year: 2000, Code: CodeGDPPerCapita, Value: 1, ISO3: "USA"}}
	assert.Empty(t, PivotIndicators(rows, 2014, 2016))
}

func TestStatus(t *testing.T) {
	flows := &FlowTable{Records: []FlowRecord{{Origin: "China", Destination: "USA"}}}
	b := &Bundle{
		Flows:      flows,
		Migrations: None[[]Migration]("migrations_clean not found (optional)"),
		Indicators: Some([]IndicatorRow{{Year: 2015}, {Year: 2016}}),
		Mapping:    None[[]CountryCode]("country_mapping not found (optional)"),
	}
	st := Status(b)
	require.Len(t, st, 4)
	assert.Equal(t, TableStatus{Name: FlowsBase, Required: true, Present: true, Rows: 1}, st[0])
	assert.False(t, st[1].Present)
	assert.NotEmpty(t, st[1].Reason)
	assert.Equal(t, TableStatus{Name: IndicatorsBase, Present: true, Rows: 2}, st[2])

	missing := Status(nil)
	assert.False(t, missing[0].Present)
	assert.True(t, missing[0].Required)
}

func TestAvailableRegionsAndYearBounds(t *testing.T) {
	f := func(v float64) *float64 { return &v }
	tbl := &FlowTable{
		Columns: FlowColumns{PhdYearMin: true, PhdYearMax: true},
		Records: []FlowRecord{
			{OriginRegion: Europa, PhdYearMin: f(1995), PhdYearMax: f(2010)},
			{OriginRegion: Asia, PhdYearMin: f(1988), PhdYearMax: f(2016)},
			{OriginRegion: Europa},
		},
	}
	assert.Equal(t, []string{Asia, Europa}, AvailableRegions(tbl))

	lo, hi, ok := YearBounds(tbl)
	require.True(t, ok)
	assert.Equal(t, 1988, lo)
	assert.Equal(t, 2016, hi)

	_, _, ok = YearBounds(&FlowTable{})
	assert.False(t, ok)
}
