package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/chargeboard/core/agent"
	"github.com/kilianp07/chargeboard/core/agent/agenttest"
	"github.com/kilianp07/chargeboard/core/dashboard"
	"github.com/kilianp07/chargeboard/core/journal"
	"github.com/kilianp07/chargeboard/core/model"
)

type fixture struct {
	fake    *agenttest.Fake
	session *dashboard.Session
	handler http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fake := &agenttest.Fake{
		OptimizeFunc: func(_ context.Context, cfg model.OptimizeConfig) (model.OptimizationResult, error) {
			h := 4
			if cfg.Horizon != nil {
				h = *cfg.Horizon
			}
			return agenttest.Result(h, model.ObjectiveCost, model.BackendGreedy), nil
		},
		CompareFunc: func(context.Context, *int) (string, error) { return agenttest.CompareText, nil },
		SitePeakFunc: func(_ context.Context, o model.SitePeak) (string, error) {
			return "Set site peak for " + o.Depot + " to 40kW", nil
		},
		BlackoutFunc: func(_ context.Context, o model.Blackout) (string, error) {
			return "Added blackout for " + o.Depot + " 18-22h", nil
		},
	}
	store, err := journal.NewJSONLStore(filepath.Join(t.TempDir(), "journal.jsonl"), 1, 1, 1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	s := dashboard.New(fake, dashboard.Options{Journal: store})
	return &fixture{fake: fake, session: s, handler: Handler(s, Options{Gatherer: prometheus.NewRegistry()})}
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &m), rr.Body.String())
	return m
}

func TestHealthAndMetrics(t *testing.T) {
	f := newFixture(t)
	rr := f.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())

	rr = f.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestNothingToRenderBeforeFirstRun(t *testing.T) {
	f := newFixture(t)
	for _, p := range []string{
		"/api/charts/depots", "/api/charts/vehicles", "/api/charts/comparison",
		"/api/summary", "/api/export/schedule", "/charts/depots.html", "/charts/vehicles.html", "/charts/comparison.html",
	} {
		rr := f.do(t, http.MethodGet, p, "")
		assert.Equal(t, http.StatusNoContent, rr.Code, p)
	}

	rr := f.do(t, http.MethodGet, "/api/state", "")
	require.Equal(t, http.StatusOK, rr.Code)
	st := decodeBody(t, rr)
	assert.Equal(t, false, st["busy"])
	assert.Nil(t, st["run"])
	assert.Equal(t, false, st["status"].(map[string]any)["known"])
}

func TestOptimizeAndCharts(t *testing.T) {
	f := newFixture(t)
	rr := f.do(t, http.MethodPost, "/api/optimize", `{"horizon":"6","objective":"cost","backend":""}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	res := decodeBody(t, rr)
	assert.Equal(t, "success", res["outcome"])
	kpis := res["value"].(map[string]any)["kpis"].(map[string]any)
	assert.Equal(t, 12.4, kpis["total_cost"])

	sent := f.fake.Optimized()
	require.Len(t, sent, 1)
	require.NotNil(t, sent[0].Horizon)
	assert.Equal(t, 6, *sent[0].Horizon)
	assert.Nil(t, sent[0].Backend)
	assert.Equal(t, 1, f.fake.Calls(agent.EndpointStatus), "a successful run refreshes status")

	rr = f.do(t, http.MethodGet, "/api/charts/depots", "")
	require.Equal(t, http.StatusOK, rr.Code)
	depots := decodeBody(t, rr)
	assert.Len(t, depots["points"], 6)
	assert.Equal(t, []any{"D1", "D2"}, depots["depots"])

	rr = f.do(t, http.MethodGet, "/api/charts/vehicles?scale=22", "")
	require.Equal(t, http.StatusOK, rr.Code)
	hm := decodeBody(t, rr)
	assert.Equal(t, 22.0, hm["scale"])
	assert.Equal(t, 0.5, hm["intensity"].([]any)[0].([]any)[0])

	rr = f.do(t, http.MethodGet, "/api/charts/vehicles?scale=-1", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = f.do(t, http.MethodGet, "/api/summary", "")
	require.Equal(t, http.StatusOK, rr.Code)
	sum := decodeBody(t, rr)
	assert.Equal(t, []any{"- V1: h0:11kW, h2:11kW", "- V2: h0:11kW, h1:8kW"}, sum["preview"])

	rr = f.do(t, http.MethodGet, "/api/export/schedule?format=csv", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "vehicle_id,hour,power_kw\nV1,0,11\nV1,2,11\nV2,0,11\nV2,1,7.5\n", rr.Body.String())
	rr = f.do(t, http.MethodGet, "/api/export/schedule?format=xml", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = f.do(t, http.MethodGet, "/charts/vehicles.html?scale=10", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rr.Body.String(), "Vehicle load")
}

func TestOptimize_NumbersAndRejections(t *testing.T) {
	f := newFixture(t)
	rr := f.do(t, http.MethodPost, "/api/optimize", `{"horizon":12}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 12, *f.fake.Optimized()[0].Horizon)

	rr = f.do(t, http.MethodPost, "/api/optimize", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, f.fake.Optimized()[1].IsEmpty(), "an empty body sends an empty config")

	for _, body := range []string{`{"horizon":"abc"}`, `{"horizon":0}`, `{"objective":"carbon"}`, `{"horizon":[1]}`, `not json`} {
		rr = f.do(t, http.MethodPost, "/api/optimize", body)
		assert.Equal(t, http.StatusBadRequest, rr.Code, body)
	}
	assert.Equal(t, 2, f.fake.Calls(agent.EndpointOptimize))

	rr = f.do(t, http.MethodGet, "/api/optimize", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestAPI_WrongMethodIsNotAllowed(t *testing.T) {
	f := newFixture(t)
	cases := []struct{ method, path string }{
		{http.MethodGet, "/api/compare"},
		{http.MethodGet, "/api/whatif/site_peak"},
		{http.MethodGet, "/api/status/refresh"},
		{http.MethodPost, "/api/state"},
		{http.MethodDelete, "/api/history"},
		{http.MethodPost, "/healthz"},
	}
	for _, c := range cases {
		rr := f.do(t, c.method, c.path, "")
		assert.Equal(t, http.StatusMethodNotAllowed, rr.Code, "%s %s", c.method, c.path)
	}
	rr := f.do(t, http.MethodGet, "/api/unknown", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestOptimize_TransportFailure(t *testing.T) {
	f := newFixture(t)
	f.fake.OptimizeFunc = func(context.Context, model.OptimizeConfig) (model.OptimizationResult, error) {
		return model.OptimizationResult{}, &agent.TransportError{Endpoint: agent.EndpointOptimize, StatusCode: 500, Message: "solver crashed"}
	}
	rr := f.do(t, http.MethodPost, "/api/optimize", `{}`)
	require.Equal(t, http.StatusBadGateway, rr.Code)
	res := decodeBody(t, rr)
	assert.Equal(t, "failure", res["outcome"])
	assert.Contains(t, res["error"], "solver crashed")

	note := f.session.Note()
	require.NotNil(t, note)
	assert.Equal(t, "solver crashed", note.Text)
}

func TestCompare(t *testing.T) {
	f := newFixture(t)
	rr := f.do(t, http.MethodPost, "/api/compare", `{"horizon":6}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "success", decodeBody(t, rr)["outcome"])
	got := f.fake.Compared()
	require.Len(t, got, 1)
	assert.Equal(t, 6, *got[0])

	rr = f.do(t, http.MethodGet, "/api/charts/comparison", "")
	require.Equal(t, http.StatusOK, rr.Code)
	view := decodeBody(t, rr)
	rows := view["rows"].([]any)
	require.Len(t, rows, 2)
	assert.Equal(t, "Cost", rows[0].(map[string]any)["strategy"])
	assert.InDelta(t, 29.5, view["deltas"].(map[string]any)["cost"], 1e-9)

	rr = f.do(t, http.MethodGet, "/charts/comparison.html", "")
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = f.do(t, http.MethodPost, "/api/compare", `{"horizon":"soon"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	rr = f.do(t, http.MethodPost, "/api/compare", `{"horizon":-2}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, 1, f.fake.Calls(agent.EndpointCompare))
}

func TestWhatIf(t *testing.T) {
	f := newFixture(t)
	rr := f.do(t, http.MethodPost, "/api/whatif/site_peak", `{"depot":"D1","kw":40}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	res := decodeBody(t, rr)
	assert.Equal(t, "Set site peak for D1 to 40kW", res["value"])

	rr = f.do(t, http.MethodPost, "/api/whatif/blackout", `{"depot":"","start":"18","end":"22"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "Added blackout for D2 18-22h", decodeBody(t, rr)["value"])

	rr = f.do(t, http.MethodPost, "/api/whatif/site_peak", `{"depot":"D1","kw":"lots"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	rr = f.do(t, http.MethodPost, "/api/whatif/blackout", `{"depot":"D2","start":"18"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	assert.Equal(t, 1, f.fake.Calls(agent.EndpointSitePeak))
	assert.Equal(t, 1, f.fake.Calls(agent.EndpointBlackout))
}

func TestHistory(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/api/status/refresh", "").Code)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/api/optimize", `{}`).Code)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/api/compare", `{}`).Code)

	rr := f.do(t, http.MethodGet, "/api/history", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var recs []journal.Record
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &recs))
	require.Len(t, recs, 3)
	assert.Equal(t, journal.KindStatus, recs[0].Kind)

	rr = f.do(t, http.MethodGet, "/api/history?kind=optimize&limit=5", "")
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &recs))
	require.Len(t, recs, 1)
	assert.Equal(t, "success", recs[0].Outcome)

	rr = f.do(t, http.MethodGet, "/api/history?kind=blackout", "")
	assert.JSONEq(t, `[]`, rr.Body.String())

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/history?start=yesterday", "").Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/history?limit=-1", "").Code)
}

func TestField_UnmarshalJSON(t *testing.T) {
	var v struct {
		A Field `json:"a"`
		B Field `json:"b"`
		C Field `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":" 12 ","b":40.5,"c":null}`), &v))
	assert.Equal(t, Field(" 12 "), v.A)
	assert.Equal(t, Field("40.5"), v.B)
	assert.Equal(t, Field(""), v.C)
	assert.Error(t, json.Unmarshal([]byte(`{"a":true}`), &v))
}
