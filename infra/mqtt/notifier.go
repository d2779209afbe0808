package mqtt

import (
	"context"
	"encoding/json"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/chargeboard/core/dashboard"
	"github.com/kilianp07/chargeboard/core/monitoring"
	"github.com/kilianp07/chargeboard/infra/logger"
	"github.com/kilianp07/chargeboard/internal/eventbus"
)

const publishTimeout = 5 * time.Second

// StateSource provides the state published with each change.
type StateSource interface {
	State() dashboard.State
}

// Message is the JSON payload published on <prefix>/<kind>.
type Message struct {
	Kind dashboard.ChangeKind `json:"kind"`
	Time time.Time            `json:"time"`
	Data any                  `json:"data,omitempty"`
}

// RunSummary is published for result changes instead of the full schedule.
type RunSummary struct {
	Horizon   int     `json:"horizon"`
	Objective string  `json:"objective"`
	Backend   string  `json:"backend"`
	TotalCost float64 `json:"total_cost"`
	PeakKW    float64 `json:"peak_kw"`
	OnTimePct float64 `json:"on_time_pct"`
	Message   string  `json:"message,omitempty"`
}

// Notifier forwards dashboard changes to MQTT. Publishing is best effort:
// failures are logged and reported, never retried.
type Notifier struct {
	cli    pahoClient
	cfg    Config
	source StateSource
	log    logger.Logger
}

// NewNotifier connects to the broker.
func NewNotifier(cfg Config, source StateSource) (*Notifier, error) {
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	log := logger.New("mqtt_notifier")
	n := &Notifier{cfg: cfg, source: source, log: log}
	opts.OnConnect = func(paho.Client) {
		log.Infof("MQTT connected to %s", cfg.Broker)
		n.publish(cfg.TopicPrefix+"/online", []byte("online"), true)
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	c := newMQTTClient(opts)
	n.cli = c
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return n, nil
}

// Run publishes every change received from bus until ctx ends.
func (n *Notifier) Run(ctx context.Context, bus *eventbus.Bus[dashboard.Change]) {
	sub := bus.Subscribe()
	defer bus.Unsubscribe(sub)
	for {
		select {
		case <-ctx.Done():
			return
		case ch, ok := <-sub:
			if !ok {
				return
			}
			n.Notify(ch)
		}
	}
}

// Notify publishes one change.
func (n *Notifier) Notify(ch dashboard.Change) {
	msg := Message{Kind: ch.Kind, Time: ch.Time, Data: payload(ch.Kind, n.source.State())}
	b, err := json.Marshal(msg)
	if err != nil {
		n.log.Errorf("encode %s change: %v", ch.Kind, err)
		return
	}
	n.publish(n.cfg.TopicPrefix+"/"+string(ch.Kind), b, n.cfg.Retain)
}

func (n *Notifier) publish(topic string, b []byte, retain bool) {
	token := n.cli.Publish(topic, n.cfg.QoS, retain, b)
	if !token.WaitTimeout(publishTimeout) {
		n.log.Warnf("publish to %s timed out", topic)
		return
	}
	if err := token.Error(); err != nil {
		n.log.Errorf("publish to %s: %v", topic, err)
		monitoring.CaptureException(err, map[string]string{"module": "mqtt", "topic": topic})
		return
	}
	n.log.Debugf("published %d bytes to %s", len(b), topic)
}

func payload(kind dashboard.ChangeKind, st dashboard.State) any {
	switch kind {
	case dashboard.ChangeStatus:
		return st.Status
	case dashboard.ChangeResult:
		if st.Run == nil {
			return nil
		}
		r := st.Run.Result
		sum := RunSummary{
			Horizon:   r.Horizon,
			Objective: string(r.Objective),
			Backend:   string(r.Backend),
			TotalCost: r.KPIs.TotalCost,
			PeakKW:    r.KPIs.PeakKW,
			OnTimePct: r.KPIs.OnTimePct,
		}
		sum.Message, _ = r.Advisory()
		return sum
	case dashboard.ChangeComparison:
		return st.Comparison
	case dashboard.ChangeWhatIf:
		return st.WhatIf
	case dashboard.ChangeNote:
		return st.Note
	case dashboard.ChangeBusy:
		return map[string]bool{"busy": st.Busy}
	default:
		return nil
	}
}

// Close publishes the offline marker and disconnects.
func (n *Notifier) Close() {
	if n.cli != nil && n.cli.IsConnected() {
		n.publish(n.cfg.TopicPrefix+"/online", []byte("offline"), true)
		n.cli.Disconnect(250)
	}
}
