package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/chargeboard/core/agent/agenttest"
	"github.com/kilianp07/chargeboard/core/dashboard"
	"github.com/kilianp07/chargeboard/core/model"
	coremon "github.com/kilianp07/chargeboard/core/monitoring"
	"github.com/kilianp07/chargeboard/core/optimize"
	"github.com/kilianp07/chargeboard/internal/eventbus"
)

type fixedState struct{ st dashboard.State }

func (f fixedState) State() dashboard.State { return f.st }

func withMock(t *testing.T, mc *mockClient) {
	t.Helper()
	newMQTTClient = func(o *paho.ClientOptions) pahoClient { mc.opts = o; return mc }
	t.Cleanup(func() { newMQTTClient = func(opts *paho.ClientOptions) pahoClient { return paho.NewClient(opts) } })
}

func TestNotifier_PublishesRunSummary(t *testing.T) {
	mc := &mockClient{}
	withMock(t, mc)
	msg := "used greedy"
	res := agenttest.Result(24, model.ObjectiveCost, model.BackendGreedy)
	res.Message = &msg
	src := fixedState{dashboard.State{Run: &optimize.Snapshot{Result: res}}}

	n, err := NewNotifier(Config{Broker: "tcp://localhost:1883", ClientID: "id", TopicPrefix: "cb", QoS: 1}, src)
	require.NoError(t, err)
	n.Notify(dashboard.Change{Kind: dashboard.ChangeResult, Time: time.Unix(100, 0).UTC()})

	got := mc.messages()
	require.Len(t, got, 2)
	assert.Equal(t, "cb/online", got[0].topic)
	assert.True(t, got[0].retained)
	assert.Equal(t, "cb/result", got[1].topic)
	assert.Equal(t, byte(1), got[1].qos)

	var body struct {
		Kind string     `json:"kind"`
		Data RunSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(got[1].payload, &body))
	assert.Equal(t, "result", body.Kind)
	assert.Equal(t, 24, body.Data.Horizon)
	assert.Equal(t, 22.0, body.Data.PeakKW)
	assert.Equal(t, msg, body.Data.Message)
}

func TestNotifier_RunForwardsBus(t *testing.T) {
	mc := &mockClient{}
	withMock(t, mc)
	n, err := NewNotifier(Config{Broker: "tcp://localhost:1883", TopicPrefix: "cb"}, fixedState{dashboard.State{Busy: true}})
	require.NoError(t, err)

	bus := eventbus.New[dashboard.Change]()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { n.Run(ctx, bus); close(done) }()
	require.Eventually(t, func() bool { return bus.Subscribers() == 1 }, time.Second, 5*time.Millisecond)

	bus.Publish(dashboard.Change{Kind: dashboard.ChangeBusy})
	require.Eventually(t, func() bool { return len(mc.messages()) == 2 }, time.Second, 5*time.Millisecond)
	last := mc.messages()[1]
	assert.Equal(t, "cb/busy", last.topic)
	assert.JSONEq(t, `{"busy":true}`, string(mustData(t, last.payload)))

	cancel()
	<-done
	assert.Zero(t, bus.Subscribers())
}

type recordMonitor struct {
	err  error
	tags map[string]string
}

func (r *recordMonitor) CaptureException(err error, tags map[string]string) {
	r.err = err
	r.tags = tags
}
func (r *recordMonitor) Flush(time.Duration) {}

func TestNotifier_PublishErrorCaptured(t *testing.T) {
	mc := &mockClient{publishErrs: []error{nil, errors.New("net fail")}}
	withMock(t, mc)
	mon := &recordMonitor{}
	coremon.Init(mon)
	defer coremon.Init(coremon.NopMonitor{})

	n, err := NewNotifier(Config{Broker: "tcp://localhost:1883", TopicPrefix: "cb"}, fixedState{})
	require.NoError(t, err)
	n.Notify(dashboard.Change{Kind: dashboard.ChangeNote})
	require.Error(t, mon.err)
	assert.Equal(t, "cb/note", mon.tags["topic"])
	assert.Equal(t, "mqtt", mon.tags["module"])
	assert.Len(t, mc.messages(), 2, "no retry")
}

func mustData(t *testing.T, payload []byte) json.RawMessage {
	t.Helper()
	var m struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(payload, &m))
	return m.Data
}
