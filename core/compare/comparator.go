package compare

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/kilianp07/chargeboard/core/agent"
	"github.com/kilianp07/chargeboard/core/logger"
	"github.com/kilianp07/chargeboard/core/metrics"
	"github.com/kilianp07/chargeboard/core/model"
	"github.com/kilianp07/chargeboard/internal/task"
)

// NoDataWarning is attached to compare outcomes whose report did not parse.
const NoDataWarning = "comparison report contained no data"

// Report is the last comparison received. Table is nil when Text did not
// parse.
type Report struct {
	Text       string                 `json:"text"`
	Table      *model.ComparisonTable `json:"table"`
	Horizon    *int                   `json:"horizon,omitempty"`
	ReceivedAt time.Time              `json:"received_at"`
}

// Comparator issues compare calls and keeps the latest report.
type Comparator struct {
	client agent.Client
	parser Parser
	sink   metrics.MetricsSink
	log    logger.Logger
	now    func() time.Time
	last   atomic.Pointer[Report]
}

// NewComparator creates a Comparator. A nil parser selects TextParser.
func NewComparator(client agent.Client, parser Parser, sink metrics.MetricsSink, log logger.Logger) *Comparator {
	if parser == nil {
		parser = TextParser{}
	}
	return &Comparator{client: client, parser: parser, sink: metrics.OrNop(sink), log: logger.OrNop(log), now: time.Now}
}

// Compare requests a comparison over horizon (nil lets the agent choose).
// On success the report replaces the stored one, even when it does not
// parse; failures leave it untouched.
func (c *Comparator) Compare(ctx context.Context, horizon *int) *task.Task[*model.ComparisonTable] {
	if horizon != nil && *horizon <= 0 {
		return task.Done(task.Failed[*model.ComparisonTable](
			&model.ValidationError{Field: "horizon", Reason: "must be a positive number of hours"}))
	}
	return task.Go(func() task.Outcome[*model.ComparisonTable] {
		text, err := c.client.Compare(ctx, horizon)
		if err != nil {
			return task.Failed[*model.ComparisonTable](err)
		}
		tbl := c.parser.Parse(text)
		c.last.Store(&Report{Text: text, Table: tbl, Horizon: horizon, ReceivedAt: c.now()})
		ev := metrics.ComparisonEvent{Parsed: tbl != nil, Time: c.now()}
		if tbl != nil {
			ev.Table = *tbl
		}
		if err := metrics.RecordComparison(c.sink, ev); err != nil {
			c.log.Errorf("record comparison: %v", err)
		}
		if tbl == nil {
			c.log.Warnf("comparison report not parsed: %q", text)
			return task.Warned(tbl, NoDataWarning)
		}
		return task.Succeeded(tbl)
	})
}

// Latest returns the last report, if any.
func (c *Comparator) Latest() (Report, bool) {
	r := c.last.Load()
	if r == nil {
		return Report{}, false
	}
	return *r, true
}
