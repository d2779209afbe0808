package model

import (
	"fmt"
	"math"
)

// Depots used when the operator leaves the depot field blank.
const (
	DefaultSitePeakDepot = "D1"
	DefaultBlackoutDepot = "D2"
)

// OverrideKind identifies a what-if variant.
type OverrideKind int

const (
	OverrideSitePeak OverrideKind = iota
	OverrideBlackout
)

// String returns the wire name of the override kind.
func (k OverrideKind) String() string {
	switch k {
	case OverrideSitePeak:
		return "site_peak"
	case OverrideBlackout:
		return "blackout"
	default:
		return "unknown"
	}
}

// WhatIfOverride is a transient constraint applied on the agent ahead of a
// future optimize call. The set of implementations is closed: SitePeak and
// Blackout.
type WhatIfOverride interface {
	Kind() OverrideKind
	// RefreshesStatus reports whether the agent's status must be fetched
	// again once the override is accepted.
	RefreshesStatus() bool
	Validate() error
	override()
}

// SitePeak caps the aggregate power drawn at a depot.
type SitePeak struct {
	Depot string  `json:"depot"`
	KW    float64 `json:"kw"`
}

func (SitePeak) Kind() OverrideKind { return OverrideSitePeak }

// RefreshesStatus is true: a site cap can change the defaults the agent reports.
func (SitePeak) RefreshesStatus() bool { return true }

func (s SitePeak) Validate() error {
	if s.Depot == "" {
		return &ValidationError{Field: "depot", Reason: "required"}
	}
	if math.IsNaN(s.KW) || math.IsInf(s.KW, 0) || s.KW <= 0 {
		return &ValidationError{Field: "kw", Reason: "must be a positive number"}
	}
	return nil
}

func (s SitePeak) String() string { return fmt.Sprintf("site peak %s %gkW", s.Depot, s.KW) }

func (SitePeak) override() {}

// Blackout forbids charging at a depot between two hours. The window is
// forwarded as given; the agent decides how to treat out-of-range hours.
type Blackout struct {
	Depot string  `json:"depot"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

func (Blackout) Kind() OverrideKind { return OverrideBlackout }

// RefreshesStatus is false: blackouts only affect later optimize calls.
func (Blackout) RefreshesStatus() bool { return false }

func (b Blackout) Validate() error {
	if b.Depot == "" {
		return &ValidationError{Field: "depot", Reason: "required"}
	}
	if !finite(b.Start) {
		return &ValidationError{Field: "start", Reason: "must be a number"}
	}
	if !finite(b.End) {
		return &ValidationError{Field: "end", Reason: "must be a number"}
	}
	return nil
}

func (b Blackout) String() string {
	return fmt.Sprintf("blackout %s %g-%gh", b.Depot, b.Start, b.End)
}

func (Blackout) override() {}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
