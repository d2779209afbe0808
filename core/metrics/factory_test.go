package metrics

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/chargeboard/core/factory"
)

type recordSink struct {
	calls, runs, overrides int
	err                    error
}

func (r *recordSink) RecordCall(CallEvent) error { r.calls++; return r.err }
func (r *recordSink) RecordRun(RunEvent) error   { r.runs++; return r.err }

// callOnly implements only the mandatory interface.
type callOnly struct{ calls int }

func (c *callOnly) RecordCall(CallEvent) error { c.calls++; return nil }

func TestNewMetricsSink(t *testing.T) {
	s, err := NewMetricsSink(nil)
	require.NoError(t, err)
	assert.IsType(t, NopSink{}, s)

	s, err = NewMetricsSink([]factory.ModuleConfig{{Type: "nop"}, {Type: "nop"}})
	require.NoError(t, err)
	m, ok := s.(*MultiSink)
	require.True(t, ok)
	assert.Len(t, m.Sinks, 2)

	_, err = NewMetricsSink([]factory.ModuleConfig{{Type: "missing"}})
	assert.Error(t, err)
}

func TestMultiSink_ForwardsOptionalEvents(t *testing.T) {
	full := &recordSink{}
	basic := &callOnly{}
	m := NewMultiSink(full, basic)
	require.NoError(t, m.RecordCall(CallEvent{Endpoint: "status"}))
	require.NoError(t, m.RecordRun(RunEvent{Horizon: 24}))
	require.NoError(t, m.RecordOverride(OverrideEvent{Kind: "blackout"}))
	assert.Equal(t, 1, full.calls)
	assert.Equal(t, 1, full.runs)
	assert.Equal(t, 0, full.overrides)
	assert.Equal(t, 1, basic.calls)
}

func TestMultiSink_FirstErrorKeepsForwarding(t *testing.T) {
	failing := &recordSink{err: errors.New("down")}
	ok := &recordSink{}
	m := NewMultiSink(failing, ok)
	assert.EqualError(t, m.RecordCall(CallEvent{}), "down")
	assert.Equal(t, 1, ok.calls)
}

func TestOrNop(t *testing.T) {
	assert.IsType(t, NopSink{}, OrNop(nil))
	s := &callOnly{}
	assert.Same(t, s, OrNop(s))
	assert.NoError(t, RecordRun(s, RunEvent{}))
}

type closingSink struct {
	callOnly
	closed int
}

func (c *closingSink) Close() { c.closed++ }

func TestMultiSink_CloseReachesClosableSinks(t *testing.T) {
	c := &closingSink{}
	m := NewMultiSink(c, &callOnly{})
	m.Close()
	assert.Equal(t, 1, c.closed)
	Close(NopSink{})
}

func TestNewMetricsSink_ClosesBuiltSinksOnError(t *testing.T) {
	built := &closingSink{}
	require.NoError(t, RegisterMetricsSink("closing_factory_test", func(map[string]any) (MetricsSink, error) {
		return built, nil
	}))
	_, err := NewMetricsSink([]factory.ModuleConfig{{Type: "closing_factory_test"}, {Type: "missing"}})
	require.Error(t, err)
	assert.Equal(t, 1, built.closed)
}
