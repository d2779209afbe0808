package metrics

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/chargeboard/core/metrics"
)

// PromSink exposes agent calls and workflow outcomes as Prometheus metrics.
type PromSink struct {
	calls       *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	inFlight    prometheus.Gauge
	runs        *prometheus.CounterVec
	lastCost    prometheus.Gauge
	lastPeak    prometheus.Gauge
	lastOnTime  prometheus.Gauge
	comparisons *prometheus.CounterVec
	overrides   *prometheus.CounterVec
}

// NewPromSink registers the metrics on the default Prometheus registerer.
// The /metrics endpoint is served by the HTTP API.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on reg. A nil registerer
// defaults to the global one. Collectors already registered are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{}
	var err error
	if s.calls, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chargeboard_agent_calls_total",
		Help: "Requests sent to the optimization agent",
	}, []string{"endpoint", "outcome", "status_code"})); err != nil {
		return nil, err
	}
	if s.latency, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "chargeboard_agent_call_duration_seconds",
		Help:    "Duration of requests to the optimization agent",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"endpoint"})); err != nil {
		return nil, err
	}
	if s.inFlight, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chargeboard_optimize_in_flight",
		Help: "Optimize calls currently outstanding",
	})); err != nil {
		return nil, err
	}
	if s.runs, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chargeboard_optimize_runs_total",
		Help: "Completed optimization runs",
	}, []string{"objective", "backend", "advisory"})); err != nil {
		return nil, err
	}
	if s.lastCost, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chargeboard_last_run_total_cost",
		Help: "Total cost of the last completed run",
	})); err != nil {
		return nil, err
	}
	if s.lastPeak, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chargeboard_last_run_peak_kw",
		Help: "Peak power of the last completed run",
	})); err != nil {
		return nil, err
	}
	if s.lastOnTime, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chargeboard_last_run_on_time_pct",
		Help: "On-time percentage of the last completed run",
	})); err != nil {
		return nil, err
	}
	if s.comparisons, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chargeboard_comparisons_total",
		Help: "Completed strategy comparisons",
	}, []string{"parsed"})); err != nil {
		return nil, err
	}
	if s.overrides, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chargeboard_whatif_overrides_total",
		Help: "What-if overrides sent to the agent",
	}, []string{"kind", "accepted"})); err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordCall counts the call and observes its duration.
func (s *PromSink) RecordCall(ev coremetrics.CallEvent) error {
	code := ""
	if ev.StatusCode != 0 {
		code = strconv.Itoa(ev.StatusCode)
	}
	s.calls.WithLabelValues(ev.Endpoint, ev.Outcome, code).Inc()
	s.latency.WithLabelValues(ev.Endpoint).Observe(ev.Duration.Seconds())
	return nil
}

// RecordRun counts the run and exposes its KPIs.
func (s *PromSink) RecordRun(ev coremetrics.RunEvent) error {
	s.runs.WithLabelValues(ev.Objective, ev.Backend, strconv.FormatBool(ev.Advisory)).Inc()
	s.lastCost.Set(ev.KPIs.TotalCost)
	s.lastPeak.Set(ev.KPIs.PeakKW)
	s.lastOnTime.Set(ev.KPIs.OnTimePct)
	return nil
}

// RecordComparison counts comparisons by parse result.
func (s *PromSink) RecordComparison(ev coremetrics.ComparisonEvent) error {
	s.comparisons.WithLabelValues(strconv.FormatBool(ev.Parsed)).Inc()
	return nil
}

// RecordOverride counts what-if overrides.
func (s *PromSink) RecordOverride(ev coremetrics.OverrideEvent) error {
	s.overrides.WithLabelValues(ev.Kind, strconv.FormatBool(ev.Accepted)).Inc()
	return nil
}

// RecordInFlight sets the outstanding optimize gauge.
func (s *PromSink) RecordInFlight(n int) error {
	s.inFlight.Set(float64(n))
	return nil
}
