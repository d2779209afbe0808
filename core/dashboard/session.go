// Package dashboard composes the workflow stores behind one operator
// session: status, optimization result, comparison and what-if message,
// plus the shared note slot where failures and advisories are shown.
package dashboard

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/chargeboard/core/agent"
	"github.com/kilianp07/chargeboard/core/compare"
	"github.com/kilianp07/chargeboard/core/journal"
	"github.com/kilianp07/chargeboard/core/logger"
	"github.com/kilianp07/chargeboard/core/metrics"
	"github.com/kilianp07/chargeboard/core/model"
	"github.com/kilianp07/chargeboard/core/optimize"
	"github.com/kilianp07/chargeboard/core/status"
	"github.com/kilianp07/chargeboard/core/whatif"
	"github.com/kilianp07/chargeboard/internal/eventbus"
	"github.com/kilianp07/chargeboard/internal/task"
)

// Fallback texts shown when a failure carries no agent message.
const (
	StatusFailed   = "Failed to load status"
	OptimizeFailed = "Optimization failed"
	CompareFailed  = "Compare failed"
	SitePeakFailed = "Set site peak failed"
	BlackoutFailed = "Add blackout failed"
)

// Options configures a Session. Zero values select no-op collaborators and
// the default depots.
type Options struct {
	Logger   logger.Logger
	Metrics  metrics.MetricsSink
	Journal  journal.Store
	Bus      *eventbus.Bus[Change]
	Parser   compare.Parser
	Defaults whatif.Defaults
}

// Session is safe for concurrent use.
type Session struct {
	status  *status.Store
	runs    *optimize.Orchestrator
	compare *compare.Comparator
	whatif  *whatif.Coordinator
	journal journal.Store
	bus     *eventbus.Bus[Change]
	log     logger.Logger
	now     func() time.Time
	note    atomic.Pointer[Note]
}

// New wires a session around client.
func New(client agent.Client, opts Options) *Session {
	log := logger.OrNop(opts.Logger)
	sink := metrics.OrNop(opts.Metrics)
	st := status.NewStore(client, log)
	s := &Session{
		status:  st,
		runs:    optimize.New(client, st, log, sink),
		compare: compare.NewComparator(client, opts.Parser, sink, log),
		whatif:  whatif.NewCoordinator(client, st, opts.Defaults, log, sink),
		journal: opts.Journal,
		bus:     opts.Bus,
		log:     log,
		now:     time.Now,
	}
	if s.journal == nil {
		s.journal = journal.NopStore{}
	}
	if s.bus == nil {
		s.bus = eventbus.New[Change]()
	}
	return s
}

// Bus returns the change feed.
func (s *Session) Bus() *eventbus.Bus[Change] { return s.bus }

// Init performs the initial status load.
func (s *Session) Init(ctx context.Context) *task.Task[status.Snapshot] {
	return s.RefreshStatus(ctx)
}

// RefreshStatus reloads the agent status. A failure is written to the note
// and the previous snapshot kept.
func (s *Session) RefreshStatus(ctx context.Context) *task.Task[status.Snapshot] {
	start := s.now()
	return task.Go(func() task.Outcome[status.Snapshot] {
		var out task.Outcome[status.Snapshot]
		if err := s.status.Refresh(ctx); err != nil {
			out = task.Failed[status.Snapshot](err)
			s.setNote(NoteError, journal.KindStatus, agent.Describe(err, StatusFailed))
		} else {
			out = task.Succeeded(s.status.Snapshot())
			s.publish(ChangeStatus)
		}
		s.record(ctx, entry{kind: journal.KindStatus, start: start, kindOut: out.Kind, err: out.Err})
		return out
	})
}

// Optimize starts a run. The note is cleared when the run is issued.
func (s *Session) Optimize(ctx context.Context, cfg model.OptimizeConfig) *task.Task[model.OptimizationResult] {
	s.clearNote()
	start := s.now()
	version := s.status.Version()
	s.publish(ChangeBusy)
	t := s.runs.Run(ctx, cfg)
	return task.Then(t, func(out task.Outcome[model.OptimizationResult]) task.Outcome[model.OptimizationResult] {
		s.publish(ChangeBusy)
		e := entry{kind: journal.KindOptimize, start: start, kindOut: out.Kind, warning: out.Warning, err: out.Err, request: configFields(cfg)}
		switch out.Kind {
		case task.Failure:
			s.setNote(NoteError, journal.KindOptimize, agent.Describe(out.Err, OptimizeFailed))
		case task.Warning:
			s.setNote(NoteWarning, journal.KindOptimize, out.Warning)
		}
		if out.OK() {
			kpis := out.Value.KPIs
			e.kpis = &kpis
			s.publish(ChangeResult)
			s.publishStatusSince(version)
		}
		s.record(ctx, e)
		return out
	})
}

// Compare requests a strategy comparison over horizon, nil for the agent
// default.
func (s *Session) Compare(ctx context.Context, horizon *int) *task.Task[*model.ComparisonTable] {
	start := s.now()
	t := s.compare.Compare(ctx, horizon)
	return task.Then(t, func(out task.Outcome[*model.ComparisonTable]) task.Outcome[*model.ComparisonTable] {
		e := entry{kind: journal.KindCompare, start: start, kindOut: out.Kind, warning: out.Warning, err: out.Err, table: out.Value}
		if horizon != nil {
			e.request = map[string]any{"horizon": *horizon}
		}
		if out.OK() {
			s.publish(ChangeComparison)
		} else {
			s.setNote(NoteError, journal.KindCompare, agent.Describe(out.Err, CompareFailed))
		}
		s.record(ctx, e)
		return out
	})
}

// ApplySitePeak caps a depot from form input.
func (s *Session) ApplySitePeak(ctx context.Context, depot, kw string) *task.Task[string] {
	start := s.now()
	req := map[string]any{"depot": depot, "kw": kw}
	version := s.status.Version()
	return s.afterWhatIf(ctx, journal.KindSitePeak, SitePeakFailed, start, version, req, s.whatif.ApplySitePeak(ctx, depot, kw))
}

// AddBlackout adds a blackout window from form input.
func (s *Session) AddBlackout(ctx context.Context, depot, start, end string) *task.Task[string] {
	began := s.now()
	req := map[string]any{"depot": depot, "start": start, "end": end}
	version := s.status.Version()
	return s.afterWhatIf(ctx, journal.KindBlackout, BlackoutFailed, began, version, req, s.whatif.AddBlackout(ctx, depot, start, end))
}

// Apply sends a typed override.
func (s *Session) Apply(ctx context.Context, ov model.WhatIfOverride) *task.Task[string] {
	kind, fallback := journal.KindBlackout, BlackoutFailed
	if ov.Kind() == model.OverrideSitePeak {
		kind, fallback = journal.KindSitePeak, SitePeakFailed
	}
	version := s.status.Version()
	return s.afterWhatIf(ctx, kind, fallback, s.now(), version, map[string]any{"override": ov}, s.whatif.Apply(ctx, ov))
}

func (s *Session) afterWhatIf(ctx context.Context, kind, fallback string, start time.Time, version uint64, req map[string]any, t *task.Task[string]) *task.Task[string] {
	return task.Then(t, func(out task.Outcome[string]) task.Outcome[string] {
		e := entry{kind: kind, start: start, kindOut: out.Kind, warning: out.Warning, err: out.Err, request: req, message: out.Value}
		switch out.Kind {
		case task.Failure:
			s.setNote(NoteError, kind, agent.Describe(out.Err, fallback))
		case task.Warning:
			s.setNote(NoteWarning, kind, out.Warning)
		}
		if out.OK() {
			s.publish(ChangeWhatIf)
			if kind == journal.KindSitePeak {
				s.publishStatusSince(version)
			}
		}
		s.record(ctx, e)
		return out
	})
}

// State returns a consistent-per-store view of the session. Each field is
// read from its own store; fields may come from different moments.
func (s *Session) State() State {
	st := State{Status: s.status.Snapshot(), Busy: s.runs.Busy()}
	if run, ok := s.runs.Latest(); ok {
		st.Run = &run
	}
	if rep, ok := s.compare.Latest(); ok {
		st.Comparison = &rep
	}
	if msg, ok := s.whatif.Latest(); ok {
		st.WhatIf = &msg
	}
	st.Note = s.Note()
	return st
}

// Status returns the status snapshot.
func (s *Session) Status() status.Snapshot { return s.status.Snapshot() }

// Busy reports whether an optimize call is outstanding.
func (s *Session) Busy() bool { return s.runs.Busy() }

// Run returns the last optimization run.
func (s *Session) Run() (optimize.Snapshot, bool) { return s.runs.Latest() }

// Comparison returns the last comparison report.
func (s *Session) Comparison() (compare.Report, bool) { return s.compare.Latest() }

// WhatIf returns the last what-if confirmation.
func (s *Session) WhatIf() (whatif.Message, bool) { return s.whatif.Latest() }

// Note returns the current note, nil when none is shown.
func (s *Session) Note() *Note {
	n := s.note.Load()
	if n == nil {
		return nil
	}
	cp := *n
	return &cp
}

// History queries the journal.
func (s *Session) History(ctx context.Context, q journal.Query) ([]journal.Record, error) {
	return s.journal.Query(ctx, q)
}

func (s *Session) setNote(level NoteLevel, source, text string) {
	s.note.Store(&Note{Level: level, Source: source, Text: text, At: s.now()})
	s.publish(ChangeNote)
}

func (s *Session) clearNote() {
	if s.note.Swap(nil) != nil {
		s.publish(ChangeNote)
	}
}

func (s *Session) publish(kind ChangeKind) {
	s.bus.Publish(Change{Kind: kind, Time: s.now()})
}

// publishStatusSince announces a status change only when a refresh replaced
// the snapshot seen at version.
func (s *Session) publishStatusSince(version uint64) {
	if s.status.Version() != version {
		s.publish(ChangeStatus)
	}
}

type entry struct {
	kind    string
	start   time.Time
	kindOut task.Kind
	warning string
	err     error
	request map[string]any
	kpis    *model.KPIs
	table   *model.ComparisonTable
	message string
}

func (s *Session) record(ctx context.Context, e entry) {
	rec := journal.Record{
		ID:        uuid.NewString(),
		Timestamp: e.start,
		Kind:      e.kind,
		Outcome:   e.kindOut.String(),
		Request:   e.request,
		KPIs:      e.kpis,
		Table:     e.table,
		Message:   e.message,
		Warning:   e.warning,
		Duration:  s.now().Sub(e.start),
	}
	if e.err != nil {
		rec.Error = e.err.Error()
	}
	// The caller's context may already be done once the task completes.
	if err := s.journal.Append(context.WithoutCancel(ctx), rec); err != nil {
		s.log.Errorf("journal append %s: %v", e.kind, err)
	}
}

func configFields(cfg model.OptimizeConfig) map[string]any {
	if cfg.IsEmpty() {
		return nil
	}
	m := map[string]any{}
	if cfg.Horizon != nil {
		m["horizon"] = *cfg.Horizon
	}
	if cfg.Objective != nil {
		m["objective"] = string(*cfg.Objective)
	}
	if cfg.Backend != nil {
		m["backend"] = string(*cfg.Backend)
	}
	return m
}
