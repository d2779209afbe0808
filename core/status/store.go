// Package status keeps the latest known agent status.
package status

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/kilianp07/chargeboard/core/agent"
	"github.com/kilianp07/chargeboard/core/logger"
	"github.com/kilianp07/chargeboard/core/model"
)

// Snapshot is an immutable view of the agent status. Known is false until
// the first successful refresh.
type Snapshot struct {
	Known     bool              `json:"known"`
	Status    model.AgentStatus `json:"status"`
	UpdatedAt time.Time         `json:"updated_at"`
	// Version increases with every successful refresh.
	Version uint64 `json:"version"`
}

// Refresher is the part of Store needed by components that trigger a
// refresh after mutating the agent.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Store holds the latest snapshot. Refreshes replace the whole snapshot so
// readers never observe a partial update.
type Store struct {
	client agent.Client
	log    logger.Logger
	now    func() time.Time
	snap   atomic.Pointer[Snapshot]
	seq    atomic.Uint64
}

// NewStore creates a store in the unknown state.
func NewStore(client agent.Client, log logger.Logger) *Store {
	s := &Store{client: client, log: logger.OrNop(log), now: time.Now}
	s.snap.Store(&Snapshot{})
	return s
}

// Refresh fetches the status and replaces the snapshot on success. On
// failure the previous snapshot is kept and the error is returned.
func (s *Store) Refresh(ctx context.Context) error {
	st, err := s.client.Status(ctx)
	if err != nil {
		return fmt.Errorf("refresh status: %w", err)
	}
	s.snap.Store(&Snapshot{Known: true, Status: st, UpdatedAt: s.now(), Version: s.seq.Add(1)})
	s.log.Debugw("status refreshed", map[string]any{
		"backend":           st.Backend,
		"horizon_default":   st.HorizonDefault,
		"objective_default": st.ObjectiveDefault,
		"has_last_run":      st.HasLastRun,
	})
	return nil
}

// Snapshot returns the current snapshot.
func (s *Store) Snapshot() Snapshot { return *s.snap.Load() }

// Version returns the version of the current snapshot, 0 while unknown.
func (s *Store) Version() uint64 { return s.snap.Load().Version }
