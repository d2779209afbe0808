// Package metrics defines the events emitted while operating the dashboard
// (agent calls, optimization runs, comparisons, what-if overrides) and the
// sink interfaces that record them. Concrete sinks live in infra/metrics and
// register themselves with RegisterMetricsSink; NewMetricsSink builds a
// MultiSink when several are configured.
package metrics
