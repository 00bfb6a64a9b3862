package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/huangsam/riskboard/core"
	"github.com/huangsam/riskboard/internal/contract"
	"github.com/huangsam/riskboard/internal/metrics"
	"github.com/huangsam/riskboard/schema"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) (*gin.Engine, *contract.Config) {
	t.Helper()
	input, err := filepath.Abs(filepath.Join("..", "..", "core", "testdata", "accounts_basic.json"))
	require.NoError(t, err)
	cfg := &contract.Config{
		InputPath:     input,
		OutputDir:     t.TempDir(),
		MinSupport:    schema.DefaultMinSupport,
		FocusCountry:  schema.DefaultFocusCountry,
		Workers:       2,
		ExportBackend: schema.NoneBackend,
	}
	result, err := core.Run(context.Background(), cfg)
	require.NoError(t, err)

	router, err := NewServer(cfg, result).Router()
	require.NoError(t, err)
	return router, cfg
}

func get(router *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	router, _ := newTestRouter(t)
	w := get(router, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "ok", response["status"])
	assert.NotEmpty(t, response["run_id"])
}

func TestIndexPage(t *testing.T) {
	router, cfg := newTestRouter(t)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.OutputDir, "ts_state.json"), []byte("{}"), 0o600))

	w := get(router, "/")
	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	for _, title := range schema.DatasetTitles {
		assert.Contains(t, body, title)
	}
	assert.Contains(t, body, "/api/state-counts")
	assert.Contains(t, body, "/artifacts/ts_state.json")
	assert.NotContains(t, body, "/artifacts/ts_risk.json")
}

func TestArtifacts(t *testing.T) {
	router, cfg := newTestRouter(t)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.OutputDir, "country_risk.csv"), []byte("rank,key\n"), 0o600))

	w := get(router, "/artifacts/country_risk.csv")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "rank,key\n", w.Body.String())

	assert.Equal(t, http.StatusNotFound, get(router, "/artifacts/missing.csv").Code)
}

func TestStateCountsAPI(t *testing.T) {
	router, _ := newTestRouter(t)
	w := get(router, "/api/state-counts")
	require.Equal(t, http.StatusOK, w.Code)

	var chart schema.TimeSeriesChart
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &chart))
	assert.Equal(t, schema.StateCountsDataset, chart.Name)
	assert.Equal(t, [][]int{{1, 0, 2}, {1, 5, 1}}, chart.Series)
}

func TestRiskCountsAPI(t *testing.T) {
	router, _ := newTestRouter(t)
	w := get(router, "/api/risk-counts")
	require.Equal(t, http.StatusOK, w.Code)

	var chart schema.TimeSeriesChart
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &chart))
	assert.Equal(t, [][]int{{1, 3, 0}, {0, 2, 2}, {1, 0, 1}}, chart.Series)
}

func TestGroupRiskAPI(t *testing.T) {
	router, _ := newTestRouter(t)

	t.Run("region uses configured support", func(t *testing.T) {
		w := get(router, "/api/region-risk")
		require.Equal(t, http.StatusOK, w.Code)
		var table schema.GroupRiskTable
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &table))
		assert.Equal(t, []string{"Texas", "Ohio"}, table.Keys())
	})

	t.Run("country default drops small groups", func(t *testing.T) {
		w := get(router, "/api/country-risk")
		require.Equal(t, http.StatusOK, w.Code)
		var table schema.GroupRiskTable
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &table))
		assert.Equal(t, []string{"United States"}, table.Keys())
	})

	t.Run("country with min_support override", func(t *testing.T) {
		w := get(router, "/api/country-risk?min_support=0")
		require.Equal(t, http.StatusOK, w.Code)
		var table schema.GroupRiskTable
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &table))
		assert.Equal(t, []string{"UAE", "Canada", "United States"}, table.Keys())
	})

	t.Run("invalid min_support", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, get(router, "/api/region-risk?min_support=-2").Code)
		assert.Equal(t, http.StatusBadRequest, get(router, "/api/region-risk?min_support=abc").Code)
	})
}

func TestSummaryAPI(t *testing.T) {
	router, _ := newTestRouter(t)
	w := get(router, "/api/summary")
	require.Equal(t, http.StatusOK, w.Code)

	var summary schema.RunSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, 6, summary.Accounts)
	assert.Equal(t, 10, summary.Rows)
}

func TestMetricsEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)
	w := get(router, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "riskboard_runs_total")
}

func TestMinSupportQueryLeavesMetricsAlone(t *testing.T) {
	router, _ := newTestRouter(t)
	country := metrics.GroupsRetained.WithLabelValues(string(schema.CountryRiskDataset))
	region := metrics.GroupsRetained.WithLabelValues(string(schema.RegionRiskDataset))
	require.Equal(t, 1.0, testutil.ToFloat64(country))
	require.Equal(t, 2.0, testutil.ToFloat64(region))
	before := get(router, "/metrics").Body.String()
	assert.Contains(t, before, `riskboard_groups_retained{dataset="country_risk"} 1`)

	w := get(router, "/api/country-risk?min_support=0")
	require.Equal(t, http.StatusOK, w.Code)
	var table schema.GroupRiskTable
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &table))
	require.Len(t, table.Rows, 3)
	require.Equal(t, http.StatusOK, get(router, "/api/region-risk?min_support=0").Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(country))
	assert.Equal(t, 2.0, testutil.ToFloat64(region))
	assert.Contains(t, get(router, "/metrics").Body.String(), `riskboard_groups_retained{dataset="country_risk"} 1`)
}

func TestRebuild(t *testing.T) {
	_, cfg := newTestRouter(t)
	cfg.Outputs = []schema.OutputMode{schema.JSONOut}
	result, err := core.Run(context.Background(), cfg)
	require.NoError(t, err)

	server := NewServer(cfg, result)
	router, err := server.Router()
	require.NoError(t, err)

	require.NoError(t, server.Rebuild(context.Background()))
	assert.NotEqual(t, result.Summary.RunID, server.current().Summary.RunID)
	assert.FileExists(t, filepath.Join(cfg.OutputDir, "country_risk.json"))

	var response map[string]string
	require.NoError(t, json.Unmarshal(get(router, "/healthz").Body.Bytes(), &response))
	assert.Equal(t, server.current().Summary.RunID, response["run_id"])

	t.Run("keeps previous result on error", func(t *testing.T) {
		previous := server.current()
		cfg.InputPath = filepath.Join(t.TempDir(), "missing.json")
		assert.Error(t, server.Rebuild(context.Background()))
		assert.Same(t, previous, server.current())
	})
}

func TestServeShutsDownOnCancel(t *testing.T) {
	_, cfg := newTestRouter(t)
	cfg.Addr = "127.0.0.1:0"
	result, err := core.Run(context.Background(), cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewServer(cfg, result).Serve(ctx) }()
	cancel()
	assert.NoError(t, <-done)
}
