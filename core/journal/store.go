// Package journal keeps a history of operator actions and their outcomes.
package journal

import (
	"context"
	"time"

	"github.com/kilianp07/chargeboard/core/model"
)

// Action kinds recorded in the journal.
const (
	KindStatus   = "status"
	KindOptimize = "optimize"
	KindCompare  = "compare"
	KindSitePeak = "site_peak"
	KindBlackout = "blackout"
)

// Record captures one operator action and how it ended.
type Record struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Kind      string    `json:"kind"`
	// Outcome is the task kind: success, warning or failure.
	Outcome  string                 `json:"outcome"`
	Request  map[string]any         `json:"request,omitempty"`
	KPIs     *model.KPIs            `json:"kpis,omitempty"`
	Table    *model.ComparisonTable `json:"table,omitempty"`
	Message  string                 `json:"message,omitempty"`
	Warning  string                 `json:"warning,omitempty"`
	Error    string                 `json:"error,omitempty"`
	Duration time.Duration          `json:"duration_ns"`
}

// Query filters records. Zero fields match everything. Limit keeps the most
// recent records when positive.
type Query struct {
	Start   time.Time
	End     time.Time
	Kind    string
	Outcome string
	Limit   int
}

func (q Query) match(r Record) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.Kind != "" && r.Kind != q.Kind {
		return false
	}
	if q.Outcome != "" && r.Outcome != q.Outcome {
		return false
	}
	return true
}

func (q Query) limit(recs []Record) []Record {
	if q.Limit > 0 && len(recs) > q.Limit {
		return recs[len(recs)-q.Limit:]
	}
	return recs
}

// Store persists Records and supports querying. Records are returned oldest
// first.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

// NopStore discards records.
type NopStore struct{}

func (NopStore) Append(context.Context, Record) error           { return nil }
func (NopStore) Query(context.Context, Query) ([]Record, error) { return nil, nil }
func (NopStore) Close() error                                   { return nil }
