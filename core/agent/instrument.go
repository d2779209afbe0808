package agent

import (
	"context"
	"errors"
	"time"

	"github.com/kilianp07/chargeboard/core/logger"
	"github.com/kilianp07/chargeboard/core/metrics"
	"github.com/kilianp07/chargeboard/core/model"
	"github.com/kilianp07/chargeboard/core/monitoring"
)

// Instrumented decorates a Client with call logging, metrics and error
// monitoring. It never changes results.
type Instrumented struct {
	next Client
	sink metrics.MetricsSink
	log  logger.Logger
	now  func() time.Time
}

// NewInstrumented wraps next. Nil sink and logger are replaced by no-ops.
func NewInstrumented(next Client, sink metrics.MetricsSink, log logger.Logger) *Instrumented {
	return &Instrumented{next: next, sink: metrics.OrNop(sink), log: logger.OrNop(log), now: time.Now}
}

func (c *Instrumented) observe(endpoint string, start time.Time, err error) {
	ev := metrics.CallEvent{
		Endpoint: endpoint,
		Outcome:  metrics.OutcomeOK,
		Duration: c.now().Sub(start),
		Time:     start,
	}
	if err != nil {
		ev.Outcome = metrics.OutcomeError
		var te *TransportError
		if errors.As(err, &te) {
			ev.StatusCode = te.StatusCode
		}
		c.log.Warnf("agent %s failed after %s: %v", endpoint, ev.Duration, err)
		monitoring.CaptureException(err, map[string]string{"endpoint": endpoint})
	} else {
		c.log.Debugw("agent call", map[string]any{"endpoint": endpoint, "duration_ms": ev.Duration.Milliseconds()})
	}
	if rerr := c.sink.RecordCall(ev); rerr != nil {
		c.log.Errorf("record call metric: %v", rerr)
	}
}

func (c *Instrumented) Status(ctx context.Context) (model.AgentStatus, error) {
	start := c.now()
	st, err := c.next.Status(ctx)
	c.observe(EndpointStatus, start, err)
	return st, err
}

func (c *Instrumented) Optimize(ctx context.Context, cfg model.OptimizeConfig) (model.OptimizationResult, error) {
	start := c.now()
	res, err := c.next.Optimize(ctx, cfg)
	c.observe(EndpointOptimize, start, err)
	return res, err
}

func (c *Instrumented) Compare(ctx context.Context, horizon *int) (string, error) {
	start := c.now()
	text, err := c.next.Compare(ctx, horizon)
	c.observe(EndpointCompare, start, err)
	return text, err
}

func (c *Instrumented) SitePeak(ctx context.Context, o model.SitePeak) (string, error) {
	start := c.now()
	msg, err := c.next.SitePeak(ctx, o)
	c.observe(EndpointSitePeak, start, err)
	return msg, err
}

func (c *Instrumented) Blackout(ctx context.Context, o model.Blackout) (string, error) {
	start := c.now()
	msg, err := c.next.Blackout(ctx, o)
	c.observe(EndpointBlackout, start, err)
	return msg, err
}
