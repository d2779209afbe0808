package dashboard

import (
	"time"

	"github.com/kilianp07/chargeboard/core/compare"
	"github.com/kilianp07/chargeboard/core/optimize"
	"github.com/kilianp07/chargeboard/core/status"
	"github.com/kilianp07/chargeboard/core/whatif"
)

// NoteLevel tells whether a note reports a failure or an advisory.
type NoteLevel string

const (
	NoteError   NoteLevel = "error"
	NoteWarning NoteLevel = "warning"
)

// Note is the single text slot shown above the dashboard.
type Note struct {
	Level  NoteLevel `json:"level"`
	Source string    `json:"source"`
	Text   string    `json:"text"`
	At     time.Time `json:"at"`
}

// ChangeKind names the store that changed.
type ChangeKind string

const (
	ChangeStatus     ChangeKind = "status"
	ChangeResult     ChangeKind = "result"
	ChangeComparison ChangeKind = "comparison"
	ChangeWhatIf     ChangeKind = "whatif"
	ChangeNote       ChangeKind = "note"
	ChangeBusy       ChangeKind = "busy"
)

// Change is published after a store is replaced.
type Change struct {
	Kind ChangeKind `json:"kind"`
	Time time.Time  `json:"time"`
}

// State is what a presentation layer reads.
type State struct {
	Status     status.Snapshot    `json:"status"`
	Busy       bool               `json:"busy"`
	Run        *optimize.Snapshot `json:"run,omitempty"`
	Comparison *compare.Report    `json:"comparison,omitempty"`
	WhatIf     *whatif.Message    `json:"whatif,omitempty"`
	Note       *Note              `json:"note,omitempty"`
}
