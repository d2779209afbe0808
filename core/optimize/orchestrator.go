// Package optimize runs optimization requests against the agent and keeps
// the latest result.
//
// Overlapping runs are allowed. The stored result is the one whose call
// completed last, whichever was issued first.
package optimize

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/kilianp07/chargeboard/core/agent"
	"github.com/kilianp07/chargeboard/core/chart"
	"github.com/kilianp07/chargeboard/core/logger"
	"github.com/kilianp07/chargeboard/core/metrics"
	"github.com/kilianp07/chargeboard/core/model"
	"github.com/kilianp07/chargeboard/core/status"
	"github.com/kilianp07/chargeboard/internal/task"
)

// Snapshot is the last successful run. Schedule is the dense form of Result,
// built once when the result arrives.
type Snapshot struct {
	Result     model.OptimizationResult `json:"result"`
	Schedule   *chart.Schedule          `json:"-"`
	Request    model.OptimizeConfig     `json:"request"`
	ReceivedAt time.Time                `json:"received_at"`
}

// Orchestrator issues optimize calls.
type Orchestrator struct {
	client   agent.Client
	status   status.Refresher
	log      logger.Logger
	sink     metrics.MetricsSink
	now      func() time.Time
	inFlight atomic.Int64
	last     atomic.Pointer[Snapshot]
}

// New creates an Orchestrator. refresher may be nil, in which case no status
// refresh follows a run.
func New(client agent.Client, refresher status.Refresher, log logger.Logger, sink metrics.MetricsSink) *Orchestrator {
	return &Orchestrator{
		client: client,
		status: refresher,
		log:    logger.OrNop(log),
		sink:   metrics.OrNop(sink),
		now:    time.Now,
	}
}

// Run validates cfg and starts an optimize call. Only the fields set in cfg
// are sent. An invalid cfg yields a failed task without any request.
//
// On success the result replaces the stored one and the status store is
// refreshed before the task completes. A refresh failure or an advisory
// message on the result turns the outcome into a Warning; the result is kept
// either way. On failure the stored result is untouched.
func (o *Orchestrator) Run(ctx context.Context, cfg model.OptimizeConfig) *task.Task[model.OptimizationResult] {
	if err := cfg.Validate(); err != nil {
		return task.Done(task.Failed[model.OptimizationResult](err))
	}
	o.track(1)
	return task.Go(func() task.Outcome[model.OptimizationResult] {
		start := o.now()
		res, err := o.client.Optimize(ctx, cfg)
		if err != nil {
			o.track(-1)
			return task.Failed[model.OptimizationResult](err)
		}
		o.last.Store(&Snapshot{Result: res, Schedule: chart.NewSchedule(res), Request: cfg, ReceivedAt: o.now()})
		o.track(-1)

		out := task.Succeeded(res)
		msg, advisory := res.Advisory()
		if advisory {
			o.log.Warnf("optimize advisory: %s", msg)
			out = out.WithWarning(msg)
		}
		o.record(res, advisory, o.now().Sub(start))

		if o.status != nil {
			if err := o.status.Refresh(ctx); err != nil {
				o.log.Warnf("status refresh after optimize: %v", err)
				out = out.WithWarning(agent.Describe(err, "status refresh failed"))
			}
		}
		return out
	})
}

func (o *Orchestrator) track(delta int64) {
	n := o.inFlight.Add(delta)
	if err := metrics.RecordInFlight(o.sink, int(n)); err != nil {
		o.log.Errorf("record in-flight: %v", err)
	}
}

func (o *Orchestrator) record(res model.OptimizationResult, advisory bool, d time.Duration) {
	ev := metrics.RunEvent{
		Horizon:   res.Horizon,
		Objective: string(res.Objective),
		Backend:   string(res.Backend),
		KPIs:      res.KPIs,
		Depots:    res.PerDepot.Len(),
		Vehicles:  res.PerVehicle.Len(),
		Advisory:  advisory,
		Duration:  d,
		Time:      o.now(),
	}
	o.log.Infow("optimize completed", map[string]any{
		"horizon":    ev.Horizon,
		"objective":  ev.Objective,
		"backend":    ev.Backend,
		"total_cost": ev.KPIs.TotalCost,
		"peak_kw":    ev.KPIs.PeakKW,
	})
	if err := metrics.RecordRun(o.sink, ev); err != nil {
		o.log.Errorf("record run: %v", err)
	}
}

// Busy reports whether at least one optimize call is outstanding.
func (o *Orchestrator) Busy() bool { return o.inFlight.Load() > 0 }

// InFlight returns the number of outstanding optimize calls.
func (o *Orchestrator) InFlight() int { return int(o.inFlight.Load()) }

// Latest returns the stored run, if any.
func (o *Orchestrator) Latest() (Snapshot, bool) {
	s := o.last.Load()
	if s == nil {
		return Snapshot{}, false
	}
	return *s, true
}
