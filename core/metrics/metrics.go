package metrics

import (
	"time"

	"github.com/kilianp07/chargeboard/core/model"
)

// Outcome labels used on call events.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// CallEvent describes one request to the optimization agent.
type CallEvent struct {
	Endpoint   string
	Outcome    string
	StatusCode int
	Duration   time.Duration
	Time       time.Time
}

// MetricsSink records agent calls. Sinks may implement the optional recorder
// interfaces below for richer events.
type MetricsSink interface {
	RecordCall(ev CallEvent) error
}

// RunEvent captures a completed optimization run.
type RunEvent struct {
	Horizon   int
	Objective string
	Backend   string
	KPIs      model.KPIs
	Depots    int
	Vehicles  int
	Advisory  bool
	Duration  time.Duration
	Time      time.Time
}

// RunRecorder records optimization runs.
type RunRecorder interface {
	RecordRun(ev RunEvent) error
}

// ComparisonEvent captures a completed compare call.
type ComparisonEvent struct {
	Parsed bool
	Table  model.ComparisonTable
	Time   time.Time
}

// ComparisonRecorder records strategy comparisons.
type ComparisonRecorder interface {
	RecordComparison(ev ComparisonEvent) error
}

// OverrideEvent captures an accepted or rejected what-if override.
type OverrideEvent struct {
	Kind     string
	Depot    string
	Accepted bool
	Time     time.Time
}

// OverrideRecorder records what-if overrides.
type OverrideRecorder interface {
	RecordOverride(ev OverrideEvent) error
}

// InFlightRecorder tracks the number of outstanding optimize calls.
type InFlightRecorder interface {
	RecordInFlight(n int) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordCall(CallEvent) error             { return nil }
func (NopSink) RecordRun(RunEvent) error               { return nil }
func (NopSink) RecordComparison(ComparisonEvent) error { return nil }
func (NopSink) RecordOverride(OverrideEvent) error     { return nil }
func (NopSink) RecordInFlight(int) error               { return nil }

// OrNop returns s, or NopSink when s is nil.
func OrNop(s MetricsSink) MetricsSink {
	if s == nil {
		return NopSink{}
	}
	return s
}

// RecordRun forwards ev when s supports runs.
func RecordRun(s MetricsSink, ev RunEvent) error {
	if r, ok := s.(RunRecorder); ok {
		return r.RecordRun(ev)
	}
	return nil
}

// RecordComparison forwards ev when s supports comparisons.
func RecordComparison(s MetricsSink, ev ComparisonEvent) error {
	if r, ok := s.(ComparisonRecorder); ok {
		return r.RecordComparison(ev)
	}
	return nil
}

// RecordOverride forwards ev when s supports overrides.
func RecordOverride(s MetricsSink, ev OverrideEvent) error {
	if r, ok := s.(OverrideRecorder); ok {
		return r.RecordOverride(ev)
	}
	return nil
}

// RecordInFlight forwards n when s tracks in-flight calls.
func RecordInFlight(s MetricsSink, n int) error {
	if r, ok := s.(InFlightRecorder); ok {
		return r.RecordInFlight(n)
	}
	return nil
}
