// Package web exposes an operator session over HTTP.
package web

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kilianp07/chargeboard/core/chart"
	"github.com/kilianp07/chargeboard/core/dashboard"
	"github.com/kilianp07/chargeboard/core/logger"
)

// Options configures the router. Zero values disable the matching feature.
type Options struct {
	Logger logger.Logger
	// Gatherer serves /metrics when set.
	Gatherer prometheus.Gatherer
	// AccessLog receives Apache combined log lines when set.
	AccessLog io.Writer
	// HeatmapScale is used when a request does not pass ?scale=.
	HeatmapScale    float64
	PreviewVehicles int
	PreviewHours    int
}

type server struct {
	session *dashboard.Session
	log     logger.Logger
	opts    Options
}

// NewRouter returns the dashboard routes.
func NewRouter(s *dashboard.Session, opts Options) *mux.Router {
	if opts.HeatmapScale <= 0 {
		opts.HeatmapScale = chart.DefaultHeatmapScale
	}
	if opts.PreviewVehicles <= 0 {
		opts.PreviewVehicles = 5
	}
	if opts.PreviewHours <= 0 {
		opts.PreviewHours = 12
	}
	srv := &server{session: s, log: logger.OrNop(opts.Logger), opts: opts}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", healthz).Methods(http.MethodGet)

	// Routes stay on the root router: a mux subrouter answers a wrong
	// method with 404 instead of 405.
	r.HandleFunc("/api/state", srv.state).Methods(http.MethodGet)
	r.HandleFunc("/api/status", srv.status).Methods(http.MethodGet)
	r.HandleFunc("/api/status/refresh", srv.refreshStatus).Methods(http.MethodPost)
	r.HandleFunc("/api/optimize", srv.optimize).Methods(http.MethodPost)
	r.HandleFunc("/api/compare", srv.compare).Methods(http.MethodPost)
	r.HandleFunc("/api/whatif/site_peak", srv.sitePeak).Methods(http.MethodPost)
	r.HandleFunc("/api/whatif/blackout", srv.blackout).Methods(http.MethodPost)
	r.HandleFunc("/api/history", srv.history).Methods(http.MethodGet)
	r.HandleFunc("/api/summary", srv.summary).Methods(http.MethodGet)
	r.HandleFunc("/api/charts/depots", srv.depotChart).Methods(http.MethodGet)
	r.HandleFunc("/api/charts/vehicles", srv.vehicleChart).Methods(http.MethodGet)
	r.HandleFunc("/api/charts/comparison", srv.comparisonChart).Methods(http.MethodGet)
	r.HandleFunc("/api/export/schedule", srv.exportSchedule).Methods(http.MethodGet)

	r.HandleFunc("/charts/{name:depots|vehicles|comparison}.html", srv.chartPage).Methods(http.MethodGet)

	if opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}
	return r
}

// Handler wraps the router with panic recovery and the optional access log.
func Handler(s *dashboard.Session, opts Options) http.Handler {
	var h http.Handler = NewRouter(s, opts)
	h = handlers.RecoveryHandler(handlers.PrintRecoveryStack(false))(h)
	if opts.AccessLog != nil {
		h = handlers.CombinedLoggingHandler(opts.AccessLog, h)
	}
	return h
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) state(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.session.State())
}

func (s *server) status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Status())
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorBody{Error: msg})
}
