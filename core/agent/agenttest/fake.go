// Package agenttest provides a scriptable in-memory agent.Client.
package agenttest

import (
	"context"
	"sync"

	"github.com/kilianp07/chargeboard/core/agent"
	"github.com/kilianp07/chargeboard/core/model"
)

// Fake records every request and answers with the configured functions.
// Unset functions return zero values without error.
type Fake struct {
	StatusFunc   func(ctx context.Context) (model.AgentStatus, error)
	OptimizeFunc func(ctx context.Context, cfg model.OptimizeConfig) (model.OptimizationResult, error)
	CompareFunc  func(ctx context.Context, horizon *int) (string, error)
	SitePeakFunc func(ctx context.Context, o model.SitePeak) (string, error)
	BlackoutFunc func(ctx context.Context, o model.Blackout) (string, error)

	mu        sync.Mutex
	calls     map[string]int
	optimized []model.OptimizeConfig
	compared  []*int
	sitePeaks []model.SitePeak
	blackouts []model.Blackout
}

var _ agent.Client = (*Fake)(nil)

func (f *Fake) count(endpoint string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[endpoint]++
}

// Calls returns how many requests reached endpoint.
func (f *Fake) Calls(endpoint string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[endpoint]
}

// Optimized returns the optimize requests in arrival order.
func (f *Fake) Optimized() []model.OptimizeConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.OptimizeConfig(nil), f.optimized...)
}

// Compared returns the horizons sent with compare requests.
func (f *Fake) Compared() []*int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*int(nil), f.compared...)
}

// SitePeaks returns the site-peak overrides received.
func (f *Fake) SitePeaks() []model.SitePeak {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.SitePeak(nil), f.sitePeaks...)
}

// Blackouts returns the blackout overrides received.
func (f *Fake) Blackouts() []model.Blackout {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Blackout(nil), f.blackouts...)
}

func (f *Fake) Status(ctx context.Context) (model.AgentStatus, error) {
	f.count(agent.EndpointStatus)
	if f.StatusFunc == nil {
		return model.AgentStatus{}, nil
	}
	return f.StatusFunc(ctx)
}

func (f *Fake) Optimize(ctx context.Context, cfg model.OptimizeConfig) (model.OptimizationResult, error) {
	f.count(agent.EndpointOptimize)
	f.mu.Lock()
	f.optimized = append(f.optimized, cfg)
	f.mu.Unlock()
	if f.OptimizeFunc == nil {
		return model.OptimizationResult{}, nil
	}
	return f.OptimizeFunc(ctx, cfg)
}

func (f *Fake) Compare(ctx context.Context, horizon *int) (string, error) {
	f.count(agent.EndpointCompare)
	f.mu.Lock()
	f.compared = append(f.compared, horizon)
	f.mu.Unlock()
	if f.CompareFunc == nil {
		return "", nil
	}
	return f.CompareFunc(ctx, horizon)
}

func (f *Fake) SitePeak(ctx context.Context, o model.SitePeak) (string, error) {
	f.count(agent.EndpointSitePeak)
	f.mu.Lock()
	f.sitePeaks = append(f.sitePeaks, o)
	f.mu.Unlock()
	if f.SitePeakFunc == nil {
		return "", nil
	}
	return f.SitePeakFunc(ctx, o)
}

func (f *Fake) Blackout(ctx context.Context, o model.Blackout) (string, error) {
	f.count(agent.EndpointBlackout)
	f.mu.Lock()
	f.blackouts = append(f.blackouts, o)
	f.mu.Unlock()
	if f.BlackoutFunc == nil {
		return "", nil
	}
	return f.BlackoutFunc(ctx, o)
}
