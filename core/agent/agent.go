// Package agent defines the contract of the remote fleet-charging
// optimization agent. The HTTP implementation lives in infra/agent.
package agent

import (
	"context"

	"github.com/kilianp07/chargeboard/core/model"
)

// Endpoint names used for logging and metrics.
const (
	EndpointStatus   = "status"
	EndpointOptimize = "optimize"
	EndpointCompare  = "compare"
	EndpointSitePeak = "whatif_site_peak"
	EndpointBlackout = "whatif_blackout"
)

// Client issues requests to the agent. Implementations must be safe for
// concurrent use and must not retry on their own.
type Client interface {
	Status(ctx context.Context) (model.AgentStatus, error)
	Optimize(ctx context.Context, cfg model.OptimizeConfig) (model.OptimizationResult, error)
	// Compare returns the agent's free-text cost versus peak report.
	Compare(ctx context.Context, horizon *int) (string, error)
	SitePeak(ctx context.Context, o model.SitePeak) (string, error)
	Blackout(ctx context.Context, o model.Blackout) (string, error)
}
