package model

import (
	"strconv"
	"strings"
)

// Objective is the optimization goal of a run.
type Objective string

const (
	ObjectiveCost Objective = "cost"
	ObjectivePeak Objective = "peak"
)

// Valid reports whether o is a known objective.
func (o Objective) Valid() bool { return o == ObjectiveCost || o == ObjectivePeak }

// Backend selects the strategy used by the agent to produce a schedule.
type Backend string

const (
	BackendGreedy Backend = "greedy"
	BackendMILP   Backend = "milp"
)

// Valid reports whether b is a known backend.
func (b Backend) Valid() bool { return b == BackendGreedy || b == BackendMILP }

// OptimizeConfig is a sparse optimize request. Nil fields are not sent so the
// agent applies its own defaults.
type OptimizeConfig struct {
	Horizon   *int       `json:"horizon,omitempty"`
	Objective *Objective `json:"objective,omitempty"`
	Backend   *Backend   `json:"backend,omitempty"`
}

// Validate checks the fields that are set.
func (c OptimizeConfig) Validate() error {
	if c.Horizon != nil && *c.Horizon <= 0 {
		return &ValidationError{Field: "horizon", Reason: "must be a positive number of hours"}
	}
	if c.Objective != nil && !c.Objective.Valid() {
		return &ValidationError{Field: "objective", Reason: "must be cost or peak"}
	}
	if c.Backend != nil && !c.Backend.Valid() {
		return &ValidationError{Field: "backend", Reason: "must be greedy or milp"}
	}
	return nil
}

// IsEmpty reports whether no field is set.
func (c OptimizeConfig) IsEmpty() bool {
	return c.Horizon == nil && c.Objective == nil && c.Backend == nil
}

// ParseOptimizeConfig builds a config from operator form input. Blank values
// are left unset.
func ParseOptimizeConfig(horizon, objective, backend string) (OptimizeConfig, error) {
	var cfg OptimizeConfig
	if h := strings.TrimSpace(horizon); h != "" {
		n, err := ParseHorizon(h)
		if err != nil {
			return OptimizeConfig{}, err
		}
		cfg.Horizon = &n
	}
	if o := strings.TrimSpace(objective); o != "" {
		obj := Objective(strings.ToLower(o))
		cfg.Objective = &obj
	}
	if b := strings.TrimSpace(backend); b != "" {
		be := Backend(strings.ToLower(b))
		cfg.Backend = &be
	}
	return cfg, cfg.Validate()
}

// ParseHorizon parses a positive number of hours.
func ParseHorizon(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return 0, &ValidationError{Field: "horizon", Reason: "must be a positive number of hours"}
	}
	return n, nil
}
