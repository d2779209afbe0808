package app

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/chargeboard/config"
	"github.com/kilianp07/chargeboard/core/factory"
	"github.com/kilianp07/chargeboard/core/journal"
	coremetrics "github.com/kilianp07/chargeboard/core/metrics"
	"github.com/kilianp07/chargeboard/infra/mqtt"
)

func fakeAgent(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/status", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"horizon_default":24,"objective_default":"cost","backend":"greedy","metta":"stub","private_mode":true,"has_last_run":false}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T, agentURL string) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.Agent.BaseURL = agentURL
	cfg.Journal = journal.Config{Backend: journal.BackendJSONL, Path: filepath.Join(t.TempDir(), "journal.jsonl")}
	cfg.Metrics.Sinks = []factory.ModuleConfig{{Type: "nop"}}
	cfg.SetDefaults()
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestService_ServeAndShutdown(t *testing.T) {
	agentSrv := fakeAgent(t)
	svc, err := New(testConfig(t, agentSrv.URL))
	require.NoError(t, err)
	defer func() { assert.NoError(t, svc.Close()) }()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx, ln) }()

	base := "http://" + ln.Addr().String()
	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/api/status")
		if err != nil {
			return false
		}
		defer func() { _ = resp.Body.Close() }()
		var snap struct {
			Known  bool `json:"known"`
			Status struct {
				PrivateMode bool `json:"private_mode"`
			} `json:"status"`
		}
		if json.NewDecoder(resp.Body).Decode(&snap) != nil {
			return false
		}
		return snap.Known && snap.Status.PrivateMode
	}, 5*time.Second, 20*time.Millisecond, "initial status load reaches the dashboard")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancel")
	}

	recs, err := svc.Session.History(context.Background(), journal.Query{Kind: journal.KindStatus})
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestService_PrometheusGatherer(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1")
	cfg.Metrics.Sinks = []factory.ModuleConfig{{Type: "prometheus"}}
	svc, err := New(cfg)
	require.NoError(t, err)
	defer func() { _ = svc.Close() }()

	rr := httptest.NewRecorder()
	svc.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "chargeboard_optimize_in_flight")
}

func TestService_UnknownSink(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1")
	cfg.Metrics.Sinks = []factory.ModuleConfig{{Type: "statsd"}}
	_, err := New(cfg)
	assert.Error(t, err)
}

var sinkCloses atomic.Int32

type closableSink struct{ coremetrics.NopSink }

func (closableSink) Close() { sinkCloses.Add(1) }

func init() {
	_ = coremetrics.RegisterMetricsSink("closable", func(map[string]any) (coremetrics.MetricsSink, error) {
		return closableSink{}, nil
	})
}

func TestService_FailedJournalClosesSink(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1")
	cfg.Metrics.Sinks = []factory.ModuleConfig{{Type: "closable"}}
	cfg.Journal.Backend = "tape"
	before := sinkCloses.Load()
	_, err := New(cfg)
	require.Error(t, err)
	assert.Equal(t, before+1, sinkCloses.Load())
}

func TestService_FailedNotifierClosesSink(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1")
	cfg.Metrics.Sinks = []factory.ModuleConfig{{Type: "closable"}}
	cfg.MQTT = mqtt.Config{
		Broker:     "tcp://127.0.0.1:1",
		UseTLS:     true,
		ClientCert: filepath.Join(t.TempDir(), "missing.crt"),
		ClientKey:  filepath.Join(t.TempDir(), "missing.key"),
		CABundle:   filepath.Join(t.TempDir(), "missing.pem"),
	}
	before := sinkCloses.Load()
	_, err := New(cfg)
	require.Error(t, err)
	assert.Equal(t, before+1, sinkCloses.Load())
}
