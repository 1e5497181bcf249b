package dataset

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/talentflow-cli/internal/cache"
	"github.com/KaramelBytes/talentflow-cli/internal/parser"
)

const flowsCSV = "origin,destination,origin_iso3,destination_iso3,n_researchers,phd_year_mean\n" +
	"China,USA,CHN,USA,1000,2008\n" +
	"India,USA,IND,USA,800,\n" +
	"USA,China,usa,CHN,50,2011\n"

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeData(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func newTestLoader(t *testing.T, dir string) *Loader {
	t.Helper()
	store := cache.New(cache.WithTTL(time.Hour), cache.WithLogger(quietLogger()))
	return NewLoader(dir, store, quietLogger())
}

func TestLoaderFlowsEnrichesRegions(t *testing.T) {
	dir := t.TempDir()
	writeData(t, dir, "migration_flows.csv", flowsCSV)

	flows, err := newTestLoader(t, dir).Flows(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, flows.Len())
	assert.True(t, flows.Columns.PhdYearMean)
	assert.False(t, flows.Columns.PhdYearMin)

	first := flows.Records[0]
	assert.Equal(t, "China", first.Origin)
	assert.Equal(t, int64(1000), first.NResearchers)
	assert.Equal(t, Asia, first.OriginRegion)
	assert.Equal(t, Norteamerica, first.DestinationRegion)
	require.NotNil(t, first.PhdYearMean)
	assert.Equal(t, 2008.0, *first.PhdYearMean)

	assert.Nil(t, flows.Records[1].PhdYearMean)
	assert.Equal(t, "USA", flows.Records[2].OriginISO3, "iso3 is upper-cased")
}

func TestLoaderFlowsMissing(t *testing.T) {
	l := newTestLoader(t, t.TempDir())
	_, err := l.Flows(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFlowsMissing))

	_, err = l.LoadAll(context.Background())
	assert.True(t, errors.Is(err, ErrFlowsMissing))
}

func TestLoaderFailureIsNotRetriedInsideWindow(t *testing.T) {
	dir := t.TempDir()
	l := newTestLoader(t, dir)

	_, err := l.Flows(context.Background())
	require.ErrorIs(t, err, ErrFlowsMissing)

	writeData(t, dir, "migration_flows.csv", flowsCSV)
	_, err = l.Flows(context.Background())
	var lf *cache.ErrLoadFailed
	require.ErrorAs(t, err, &lf, "cached failure served until expiry")

	l.Store().Purge()
	flows, err := l.Flows(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, flows.Len())
}

func TestLoaderMalformedFlows(t *testing.T) {
	dir := t.TempDir()
	writeData(t, dir, "migration_flows.csv", "origin,destination\nChina,USA\n")
	_, err := newTestLoader(t, dir).Flows(context.Background())
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, FlowsBase, le.Dataset)
	assert.Contains(t, le.Error(), "origin_iso3")
}

func TestLoaderNegativeCountRejected(t *testing.T) {
	dir := t.TempDir()
	writeData(t, dir, "migration_flows.csv",
		"origin,destination,origin_iso3,destination_iso3,n_researchers\nChina,USA,CHN,USA,-3\n")
	_, err := newTestLoader(t, dir).Flows(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "negative")
}

func TestLoaderNullCountIsZero(t *testing.T) {
	dir := t.TempDir()
	writeData(t, dir, "migration_flows.csv",
		"origin,destination,origin_iso3,destination_iso3,n_researchers\n"+
			"China,USA,CHN,USA,NA\nIndia,USA,IND,USA,nan\nUSA,China,USA,CHN,7\n")
	flows, err := newTestLoader(t, dir).Flows(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, flows.Len())
	assert.Equal(t, int64(0), flows.Records[0].NResearchers)
	assert.Equal(t, int64(0), flows.Records[1].NResearchers)
	assert.Equal(t, int64(7), flows.Records[2].NResearchers)
}

func TestLoaderOptionalTablesAbsent(t *testing.T) {
	dir := t.TempDir()
	writeData(t, dir, "migration_flows.csv", flowsCSV)

	b, err := newTestLoader(t, dir).LoadAll(context.Background())
	require.NoError(t, err)
	assert.False(t, b.Migrations.Present)
	assert.Contains(t, b.Migrations.Reason, MigrationsBase)
	assert.False(t, b.Indicators.Present)
	assert.False(t, b.Mapping.Present)
	assert.NotEmpty(t, b.SnapshotID)
	require.Len(t, b.Notices, 3)
	assert.Contains(t, b.Notices[1], IndicatorsBase+": ")
}

func TestLoaderOptionalTablesPresent(t *testing.T) {
	dir := t.TempDir()
	writeData(t, dir, "migration_flows.csv", flowsCSV)
	writeData(t, dir, "migrations_clean.csv", "origin_year,origin_country\n1999,China\n,India\n2004.0,USA\n")
	writeData(t, dir, "wdi_indicators.csv",
		"Year,IndicatorCode,Value,iso3\n2015,NY.GDP.PCAP.CD,100,usa\n2016,NY.GDP.PCAP.CD,n/a,USA\n"+
			"2016,GB.XPD.RSDV.GD.ZS,inf,USA\n2014,GB.XPD.RSDV.GD.ZS,-Inf,USA\n")
	writeData(t, dir, "country_mapping.csv", "iso2,iso3\nus,usa\n")

	b, err := newTestLoader(t, dir).LoadAll(context.Background())
	require.NoError(t, err)

	require.True(t, b.Migrations.Present)
	require.Len(t, b.Migrations.Value, 3)
	require.NotNil(t, b.Migrations.Value[0].OriginYear)
	assert.Equal(t, 1999, *b.Migrations.Value[0].OriginYear)
	assert.Nil(t, b.Migrations.Value[1].OriginYear)

	require.True(t, b.Indicators.Present)
	require.Len(t, b.Indicators.Value, 1, "unparseable and infinite values skipped")
	assert.Equal(t, "USA", b.Indicators.Value[0].ISO3)

	require.True(t, b.Mapping.Present)
	assert.Equal(t, CountryCode{ISO2: "US", ISO3: "USA"}, b.Mapping.Value[0])
	assert.Empty(t, b.Notices)
}

func TestLoaderMalformedOptionalDegrades(t *testing.T) {
	dir := t.TempDir()
	writeData(t, dir, "migration_flows.csv", flowsCSV)
	writeData(t, dir, "wdi_indicators.csv", "year,code\n2015,X\n")

	b, err := newTestLoader(t, dir).LoadAll(context.Background())
	require.NoError(t, err)
	assert.False(t, b.Indicators.Present)
	assert.Contains(t, b.Indicators.Reason, "IndicatorCode")
}

func TestLoaderPrefersParquet(t *testing.T) {
	dir := t.TempDir()
	writeData(t, dir, "migration_flows.csv", flowsCSV)
	pq := &parser.Table{
		Header: []string{"origin", "destination", "origin_iso3", "destination_iso3", "n_researchers"},
		Rows:   [][]string{{"Brazil", "Spain", "BRA", "ESP", "7"}},
	}
	require.NoError(t, parser.WriteParquet(pq, filepath.Join(dir, "migration_flows.parquet")))

	flows, err := newTestLoader(t, dir).Flows(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, flows.Len())
	assert.Equal(t, Sudamerica, flows.Records[0].OriginRegion)
	assert.Equal(t, Europa, flows.Records[0].DestinationRegion)
}

func TestLoadAllSharesSnapshotAcrossCallers(t *testing.T) {
	dir := t.TempDir()
	writeData(t, dir, "migration_flows.csv", flowsCSV)
	l := newTestLoader(t, dir)

	var wg sync.WaitGroup
	ids := make([]string, 16)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b, err := l.LoadAll(context.Background())
			if err == nil {
				ids[i] = b.SnapshotID
			}
		}(i)
	}
	wg.Wait()
	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	assert.NotEmpty(t, ids[0])
	// one load for the bundle plus one per table
	assert.Equal(t, int64(5), l.Store().Stats().Loads)
}

func TestLoadersShareStoreByDirectory(t *testing.T) {
	dir := t.TempDir()
	writeData(t, dir, "migration_flows.csv", flowsCSV)
	store := cache.New(cache.WithLogger(quietLogger()))

	a := NewLoader(dir, store, quietLogger())
	b := NewLoader(dir+string(filepath.Separator), store, quietLogger())
	_, err := a.Flows(context.Background())
	require.NoError(t, err)
	_, err = b.Flows(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), store.Stats().Loads)
	assert.Equal(t, int64(1), store.Stats().Hits)
}
