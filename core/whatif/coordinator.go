// Package whatif applies transient constraints on the agent. Overrides are
// not kept locally; only the agent's last confirmation message is.
package whatif

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/kilianp07/chargeboard/core/agent"
	"github.com/kilianp07/chargeboard/core/logger"
	"github.com/kilianp07/chargeboard/core/metrics"
	"github.com/kilianp07/chargeboard/core/model"
	"github.com/kilianp07/chargeboard/core/status"
	"github.com/kilianp07/chargeboard/internal/task"
)

// ErrorPrefix marks agent replies that report a rejected override while
// still answering with a success status.
const ErrorPrefix = "error:"

// Message is the last confirmation received from the agent.
type Message struct {
	Kind       model.OverrideKind `json:"-"`
	KindName   string             `json:"kind"`
	Text       string             `json:"text"`
	Override   string             `json:"override"`
	ReceivedAt time.Time          `json:"received_at"`
}

// Defaults holds the depots used when the operator leaves the depot blank.
type Defaults struct {
	SitePeakDepot string
	BlackoutDepot string
}

// Coordinator sends what-if overrides.
type Coordinator struct {
	client   agent.Client
	status   status.Refresher
	defaults Defaults
	log      logger.Logger
	sink     metrics.MetricsSink
	now      func() time.Time
	last     atomic.Pointer[Message]
}

// NewCoordinator creates a Coordinator. Blank defaults fall back to
// model.DefaultSitePeakDepot and model.DefaultBlackoutDepot.
func NewCoordinator(client agent.Client, refresher status.Refresher, defaults Defaults, log logger.Logger, sink metrics.MetricsSink) *Coordinator {
	if defaults.SitePeakDepot == "" {
		defaults.SitePeakDepot = model.DefaultSitePeakDepot
	}
	if defaults.BlackoutDepot == "" {
		defaults.BlackoutDepot = model.DefaultBlackoutDepot
	}
	return &Coordinator{
		client:   client,
		status:   refresher,
		defaults: defaults,
		log:      logger.OrNop(log),
		sink:     metrics.OrNop(sink),
		now:      time.Now,
	}
}

// ApplySitePeak parses form input and applies a site peak cap.
func (c *Coordinator) ApplySitePeak(ctx context.Context, depot, kw string) *task.Task[string] {
	v, err := parseNumber("kw", kw)
	if err != nil {
		return task.Done(task.Failed[string](err))
	}
	return c.Apply(ctx, model.SitePeak{Depot: c.depot(depot, c.defaults.SitePeakDepot), KW: v})
}

// AddBlackout parses form input and adds a blackout window. The window is
// not range checked.
func (c *Coordinator) AddBlackout(ctx context.Context, depot, start, end string) *task.Task[string] {
	s, err := parseNumber("start", start)
	if err != nil {
		return task.Done(task.Failed[string](err))
	}
	e, err := parseNumber("end", end)
	if err != nil {
		return task.Done(task.Failed[string](err))
	}
	return c.Apply(ctx, model.Blackout{Depot: c.depot(depot, c.defaults.BlackoutDepot), Start: s, End: e})
}

func (c *Coordinator) depot(v, fallback string) string {
	if d := strings.TrimSpace(v); d != "" {
		return d
	}
	return fallback
}

func parseNumber(field, v string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, &model.ValidationError{Field: field, Reason: "must be a number"}
	}
	return f, nil
}

// Apply validates ov and sends it. On success the reply replaces the stored
// message; overrides that declare it then trigger a status refresh before
// the task completes. Failures leave the message untouched.
func (c *Coordinator) Apply(ctx context.Context, ov model.WhatIfOverride) *task.Task[string] {
	if err := ov.Validate(); err != nil {
		return task.Done(task.Failed[string](err))
	}
	return task.Go(func() task.Outcome[string] {
		reply, err := c.send(ctx, ov)
		c.record(ov, err == nil)
		if err != nil {
			return task.Failed[string](err)
		}
		c.last.Store(&Message{
			Kind:       ov.Kind(),
			KindName:   ov.Kind().String(),
			Text:       reply,
			Override:   fmt.Sprint(ov),
			ReceivedAt: c.now(),
		})
		c.log.Infow("what-if applied", map[string]any{"kind": ov.Kind().String(), "override": fmt.Sprint(ov)})

		out := task.Succeeded(reply)
		if strings.HasPrefix(strings.TrimSpace(reply), ErrorPrefix) {
			out = out.WithWarning(reply)
		}
		if ov.RefreshesStatus() && c.status != nil {
			if err := c.status.Refresh(ctx); err != nil {
				c.log.Warnf("status refresh after %s: %v", ov.Kind(), err)
				out = out.WithWarning(agent.Describe(err, "status refresh failed"))
			}
		}
		return out
	})
}

func (c *Coordinator) send(ctx context.Context, ov model.WhatIfOverride) (string, error) {
	switch o := ov.(type) {
	case model.SitePeak:
		return c.client.SitePeak(ctx, o)
	case model.Blackout:
		return c.client.Blackout(ctx, o)
	default:
		return "", fmt.Errorf("unsupported override %T", ov)
	}
}

func (c *Coordinator) record(ov model.WhatIfOverride, accepted bool) {
	ev := metrics.OverrideEvent{Kind: ov.Kind().String(), Accepted: accepted, Time: c.now()}
	switch o := ov.(type) {
	case model.SitePeak:
		ev.Depot = o.Depot
	case model.Blackout:
		ev.Depot = o.Depot
	}
	if err := metrics.RecordOverride(c.sink, ev); err != nil {
		c.log.Errorf("record override: %v", err)
	}
}

// Latest returns the last confirmation message, if any.
func (c *Coordinator) Latest() (Message, bool) {
	m := c.last.Load()
	if m == nil {
		return Message{}, false
	}
	return *m, true
}
