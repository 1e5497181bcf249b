package server

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/talentflow-cli/internal/cache"
	"github.com/KaramelBytes/talentflow-cli/internal/dataset"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var fixtureCountries = []struct{ name, iso string }{
	{"USA", "USA"}, {"United Kingdom", "GBR"}, {"Germany", "DEU"}, {"France", "FRA"},
	{"China", "CHN"}, {"India", "IND"}, {"Japan", "JPN"}, {"Brazil", "BRA"},
	{"Australia", "AUS"}, {"Canada", "CAN"}, {"Spain", "ESP"}, {"Italy", "ITA"},
}

// writeFlows writes a dense route table over fixtureCountries with uneven
// volumes so that balances and clusters are non-degenerate.
func writeFlows(t *testing.T, dir string) {
	t.Helper()
	var b strings.Builder
	b.WriteString("origin,destination,origin_iso3,destination_iso3,n_researchers,phd_year_mean,phd_year_min,phd_year_max\n")
	for i, o := range fixtureCountries {
		for j, d := range fixtureCountries {
			if i == j {
				continue
			}
			n := (i+1)*(j*j+3)%97 + 1
			if j < 2 {
				n *= 10
			}
			mean := 1990 + (i*7+j*3)%25
			fmt.Fprintf(&b, "%s,%s,%s,%s,%d,%d,%d,%d\n", o.name, d.name, o.iso, d.iso, n, mean, mean-4, mean+4)
		}
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "migration_flows.csv"), []byte(b.String()), 0o644))
}

func newTestServer(t *testing.T, withData bool) *Server {
	t.Helper()
	dir := t.TempDir()
	if withData {
		writeFlows(t, dir)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := cache.New(cache.WithTTL(time.Hour), cache.WithLogger(logger))
	return New(dataset.NewLoader(dir, store, logger), Options{Logger: logger})
}

func do(t *testing.T, s *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req, err := http.NewRequest(method, target, nil)
	require.NoError(t, err)
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m), w.Body.String())
	return m
}

func TestHealth(t *testing.T) {
	w := do(t, newTestServer(t, false), "GET", "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])
}

func TestMissingFlowsIsServiceUnavailable(t *testing.T) {
	s := newTestServer(t, false)
	for _, path := range []string{"/api/v1/summary", "/api/v1/dashboard", "/api/v1/top/emitters"} {
		w := do(t, s, "GET", path)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code, path)
		assert.Contains(t, decode(t, w)["error"], "migration_flows")
	}
}

func TestStatusWithoutData(t *testing.T) {
	w := do(t, newTestServer(t, false), "GET", "/api/v1/status")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	tables := body["tables"].([]any)
	require.Len(t, tables, 4)
	assert.Equal(t, false, tables[0].(map[string]any)["present"])
	assert.NotEmpty(t, body["error"])
}

func TestStatusWithData(t *testing.T) {
	w := do(t, newTestServer(t, true), "GET", "/api/v1/status")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.NotEmpty(t, body["snapshot_id"])
	assert.Contains(t, body["regions"], dataset.Europa)
	years, ok := body["years"].(map[string]any)
	require.True(t, ok, "years missing from %v", body)
	assert.Equal(t, 1986.0, years["min"])
	assert.Equal(t, 2018.0, years["max"])
	cache, ok := body["cache"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 3600.0, cache["ttl_sec"])
}

func TestSnapshotHeaderIsStable(t *testing.T) {
	s := newTestServer(t, true)
	first := do(t, s, "GET", "/api/v1/summary")
	second := do(t, s, "GET", "/api/v1/balance")
	require.Equal(t, http.StatusOK, first.Code)
	id := first.Header().Get(SnapshotHeader)
	assert.NotEmpty(t, id)
	assert.Equal(t, id, second.Header().Get(SnapshotHeader))
}

func TestPurgeStartsNewSnapshot(t *testing.T) {
	s := newTestServer(t, true)
	before := do(t, s, "GET", "/api/v1/summary").Header().Get(SnapshotHeader)

	w := do(t, s, "POST", "/api/v1/cache/purge")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Greater(t, decode(t, w)["purged"].(float64), 0.0)

	after := do(t, s, "GET", "/api/v1/summary").Header().Get(SnapshotHeader)
	assert.NotEqual(t, before, after)
}

func TestTopEmittersHonoursN(t *testing.T) {
	w := do(t, newTestServer(t, true), "GET", "/api/v1/top/emitters?n=3")
	require.Equal(t, http.StatusOK, w.Code)
	rows := decode(t, w)["rows"].([]any)
	require.Len(t, rows, 3)
	first := rows[0].(map[string]any)
	second := rows[1].(map[string]any)
	assert.Equal(t, 1.0, first["rank"])
	assert.GreaterOrEqual(t, first["total"].(float64), second["total"].(float64))
}

func TestRegionFilterFromQuery(t *testing.T) {
	s := newTestServer(t, true)
	w := do(t, s, "GET", "/api/v1/top/corridors?origin_region=Asia&n=500")
	require.Equal(t, http.StatusOK, w.Code)
	rows := decode(t, w)["rows"].([]any)
	require.NotEmpty(t, rows)
	for _, r := range rows {
		assert.Equal(t, dataset.Asia, r.(map[string]any)["origin_region"])
	}
}

func TestBadQueriesAreRejected(t *testing.T) {
	s := newTestServer(t, true)
	for _, target := range []string{
		"/api/v1/balance?origin_region=Atlantis",
		"/api/v1/summary?year_min=2010&year_max=2000",
		"/api/v1/top/emitters?n=-1",
		"/api/v1/top/emitters?n=many",
		"/api/v1/clusters?k=9",
		"/api/v1/correlations?a=net_balance&b=gdp",
	} {
		w := do(t, s, "GET", target)
		assert.Equal(t, http.StatusBadRequest, w.Code, target)
		assert.NotEmpty(t, decode(t, w)["error"], target)
	}
}

func TestClustersAndCorrelations(t *testing.T) {
	s := newTestServer(t, true)

	w := do(t, s, "GET", "/api/v1/clusters?k=3")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, 3.0, body["k"])
	assert.Len(t, body["points"], len(fixtureCountries))

	w = do(t, s, "GET", "/api/v1/correlations")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decode(t, w)["columns"])

	w = do(t, s, "GET", "/api/v1/correlations?a=immigration&b=emigration")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(len(fixtureCountries)), decode(t, w)["n"])
}

func TestInsufficientDataIsANotice(t *testing.T) {
	s := newTestServer(t, true)

	w := do(t, s, "GET", "/api/v1/economy")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "economy", body["view"])
	assert.Contains(t, body["notice"], "insufficient data")

	w = do(t, s, "GET", "/api/v1/timeline")
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.NotEmpty(t, body["decades"])
	assert.Len(t, body["notices"], 1)
}

func TestDashboardEndpoint(t *testing.T) {
	w := do(t, newTestServer(t, true), "GET", "/api/v1/dashboard?dest_region=Europa&min_researchers=10")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.NotEmpty(t, body["snapshot_id"])
	filter := body["filter"].(map[string]any)
	assert.Equal(t, []any{dataset.Europa}, filter["dest_regions"])
	assert.Equal(t, 10.0, filter["min_researchers"])
	assert.NotNil(t, body["clusters"])
}

func TestMetricsExposeRequestCounter(t *testing.T) {
	s := newTestServer(t, false)
	do(t, s, "GET", "/health")
	w := do(t, s, "GET", "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `talentflow_http_requests_total{route="/health",status="200"}`)
}
