package metrics

// MultiSink fans events out to several sinks. Each method returns the first
// error encountered but still forwards to the remaining sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// Close releases every sink that holds a connection.
func (m *MultiSink) Close() {
	for _, s := range m.Sinks {
		Close(s)
	}
}

func (m *MultiSink) each(fn func(MetricsSink) error) error {
	var first error
	for _, s := range m.Sinks {
		if err := fn(s); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (m *MultiSink) RecordCall(ev CallEvent) error {
	return m.each(func(s MetricsSink) error { return s.RecordCall(ev) })
}

func (m *MultiSink) RecordRun(ev RunEvent) error {
	return m.each(func(s MetricsSink) error { return RecordRun(s, ev) })
}

func (m *MultiSink) RecordComparison(ev ComparisonEvent) error {
	return m.each(func(s MetricsSink) error { return RecordComparison(s, ev) })
}

func (m *MultiSink) RecordOverride(ev OverrideEvent) error {
	return m.each(func(s MetricsSink) error { return RecordOverride(s, ev) })
}

func (m *MultiSink) RecordInFlight(n int) error {
	return m.each(func(s MetricsSink) error { return RecordInFlight(s, n) })
}
