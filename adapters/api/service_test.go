package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adlens/domain/campaign"
	"adlens/domain/causal"
	"adlens/domain/core"
	"adlens/internal/engine"
	"adlens/ports"
)

// memRepo is an in-memory ResultRepository for handler tests.
type memRepo struct {
	mu    sync.Mutex
	items map[core.AnalysisID]*ports.StoredAnalysis
}

func newMemRepo() *memRepo {
	return &memRepo{items: map[core.AnalysisID]*ports.StoredAnalysis{}}
}

func (r *memRepo) Save(_ context.Context, analysis *ports.StoredAnalysis) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[analysis.ID] = analysis
	return nil
}

func (r *memRepo) Get(_ context.Context, id core.AnalysisID) (*ports.StoredAnalysis, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[id]
	if !ok {
		return nil, core.NewNotFoundError("analysis", id.String())
	}
	return stored, nil
}

func (r *memRepo) ListRecent(_ context.Context, limit int) ([]*ports.StoredAnalysis, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*ports.StoredAnalysis, 0, len(r.items))
	for _, stored := range r.items {
		out = append(out, stored)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// campaignRows builds n daily JSON rows with a revenue jump at the midpoint.
func campaignRows(n int) []map[string]interface{} {
	rows := make([]map[string]interface{}, n)
	for i := 0; i < n; i++ {
		revenue := 500.0
		if i >= n/2 {
			revenue = 1000.0
		}
		rows[i] = map[string]interface{}{
			"Date":     fmt.Sprintf("2025-01-%02d", i+1),
			"Platform": []string{"Google", "Meta"}[i%2],
			"Spend":    100.0,
			"Revenue":  revenue,
		}
	}
	return rows
}

func postJSON(t *testing.T, router http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandleHealth(t *testing.T) {
	router := NewService(engine.New(nil), nil).Router()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHandleAnalyze(t *testing.T) {
	router := NewService(engine.New(nil), nil).Router()

	rec := postJSON(t, router, "/api/analyze", AnalyzeRequest{
		Rows:   campaignRows(20),
		Metric: "roas",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp AnalyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Result)
	assert.Empty(t, resp.ID, "no repository configured")
	assert.Equal(t, campaign.MetricROAS, resp.Result.Metric)
	assert.InDelta(t, 5.0, resp.Result.BeforeValue, 1e-9)
	assert.InDelta(t, 10.0, resp.Result.AfterValue, 1e-9)
	assert.Greater(t, resp.Result.Confidence, 0.0)
}

func TestHandleAnalyze_Validation(t *testing.T) {
	router := NewService(engine.New(nil), nil).Router()

	t.Run("missing metric", func(t *testing.T) {
		rec := postJSON(t, router, "/api/analyze", AnalyzeRequest{Rows: campaignRows(4)})
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var errResp ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
		assert.Equal(t, "INVALID_INPUT", errResp.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader("{not json"))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandleAnalyze_FailSoftOnUnusableData(t *testing.T) {
	router := NewService(engine.New(nil), nil).Router()

	// label-only rows: no dates, no metric columns
	rec := postJSON(t, router, "/api/analyze", AnalyzeRequest{
		Rows:   []map[string]interface{}{{"Note": "hello"}, {"Note": "world"}},
		Metric: "ROAS",
	})
	require.Equal(t, http.StatusOK, rec.Code, "the engine absorbs unusable data")

	var resp AnalyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 0.0, resp.Result.Confidence)
	assert.Equal(t, []string{engine.InsufficientDataInsight}, resp.Result.Insights)
}

func TestHandleDrivers(t *testing.T) {
	router := NewService(engine.New(nil), nil).Router()

	rec := postJSON(t, router, "/api/drivers", DriversRequest{
		Rows:               campaignRows(8),
		Metric:             "ROAS",
		CategoricalColumns: []string{"Platform"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var analysis causal.DriverAnalysis
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &analysis))
	assert.Equal(t, campaign.MetricROAS, analysis.TargetMetric)
	// 8 rows is below the training floor: correlation fallback, no model
	assert.Equal(t, 0.0, analysis.ModelScore)
	assert.Nil(t, analysis.SHAPValues)
}

func TestPersistenceEndpoints(t *testing.T) {
	repo := newMemRepo()
	router := NewService(engine.New(nil), repo).Router()

	rec := postJSON(t, router, "/api/analyze", AnalyzeRequest{
		Rows:   campaignRows(20),
		Metric: "ROAS",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp AnalyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.ID)

	t.Run("get by id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/analyses/"+resp.ID, nil)
		getRec := httptest.NewRecorder()
		router.ServeHTTP(getRec, req)
		require.Equal(t, http.StatusOK, getRec.Code)

		var stored ports.StoredAnalysis
		require.NoError(t, json.Unmarshal(getRec.Body.Bytes(), &stored))
		assert.Equal(t, "ROAS", stored.Metric)
	})

	t.Run("list", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/analyses?limit=10", nil)
		listRec := httptest.NewRecorder()
		router.ServeHTTP(listRec, req)
		require.Equal(t, http.StatusOK, listRec.Code)

		var analyses []*ports.StoredAnalysis
		require.NoError(t, json.Unmarshal(listRec.Body.Bytes(), &analyses))
		assert.Len(t, analyses, 1)
	})

	t.Run("html report", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/analyses/"+resp.ID+"/report", nil)
		repRec := httptest.NewRecorder()
		router.ServeHTTP(repRec, req)
		require.Equal(t, http.StatusOK, repRec.Code)
		assert.Contains(t, repRec.Header().Get("Content-Type"), "text/html")
		assert.Contains(t, repRec.Body.String(), "Change Analysis")
	})

	t.Run("unknown id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/analyses/does-not-exist", nil)
		missRec := httptest.NewRecorder()
		router.ServeHTTP(missRec, req)
		assert.Equal(t, http.StatusNotFound, missRec.Code)
	})
}

func TestRepositoryEndpointsWithoutRepo(t *testing.T) {
	router := NewService(engine.New(nil), nil).Router()

	req := httptest.NewRequest(http.MethodGet, "/api/analyses", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestTableFromRows_Typing(t *testing.T) {
	table, err := tableFromRows(campaignRows(4))
	require.NoError(t, err)

	ct, _ := table.Type("Date")
	assert.Equal(t, campaign.ColumnTime, ct)
	ct, _ = table.Type("Platform")
	assert.Equal(t, campaign.ColumnLabel, ct)
	ct, _ = table.Type("Spend")
	assert.Equal(t, campaign.ColumnNumeric, ct)
	assert.Equal(t, 4, table.Rows())
}
