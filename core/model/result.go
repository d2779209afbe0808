package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// KPIs summarises one optimization run.
type KPIs struct {
	TotalCost float64 `json:"total_cost"`
	PeakKW    float64 `json:"peak_kw"`
	OnTimePct float64 `json:"on_time_pct"`
}

// OptimizationResult is the payload returned by the agent for an optimize
// call. Horizon, Objective and Backend are the effective values the agent
// applied, which may differ from what was requested.
type OptimizationResult struct {
	Horizon      int                `json:"horizon"`
	Objective    Objective          `json:"objective"`
	Backend      Backend            `json:"backend"`
	KPIs         KPIs               `json:"kpis"`
	Preview      []string           `json:"preview"`
	Explanations []string           `json:"explanations"`
	PerDepot     HourlyLoad         `json:"per_depot"`
	PerVehicle   HourlyLoad         `json:"per_vehicle"`
	PriceCurve   []float64          `json:"price_curve"`
	RemainingKWh map[string]float64 `json:"remaining_kwh"`
	Message      *string            `json:"message,omitempty"`
}

// Hours returns the length of the hour axis. The price curve is authoritative.
func (r OptimizationResult) Hours() int { return len(r.PriceCurve) }

// Advisory returns the non-fatal note attached to the result, if any.
func (r OptimizationResult) Advisory() (string, bool) {
	if r.Message == nil || *r.Message == "" {
		return "", false
	}
	return *r.Message, true
}

// HourlyLoad maps an entity id (depot or vehicle) to its power in kW per
// hour. Hours are keyed by their index as a decimal string, as sent by the
// agent. Keys holds the entity ids in the order they first appeared in the
// payload so that consumers can iterate deterministically.
type HourlyLoad struct {
	Keys  []string
	Hours map[string]map[string]float64
}

// Len returns the number of entities.
func (h HourlyLoad) Len() int { return len(h.Keys) }

// Get returns the hour map for id.
func (h HourlyLoad) Get(id string) (map[string]float64, bool) {
	m, ok := h.Hours[id]
	return m, ok
}

// Set stores the hour map for id, appending id to Keys when it is new.
func (h *HourlyLoad) Set(id string, hours map[string]float64) {
	if h.Hours == nil {
		h.Hours = make(map[string]map[string]float64)
	}
	if _, ok := h.Hours[id]; !ok {
		h.Keys = append(h.Keys, id)
	}
	h.Hours[id] = hours
}

// MarshalJSON encodes the entities in Keys order.
func (h HourlyLoad) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range h.Keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(h.Hours[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object of objects, recording key order.
// A repeated key keeps its first position and its last value.
func (h *HourlyLoad) UnmarshalJSON(data []byte) error {
	*h = HourlyLoad{}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("hourly load: expected object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("hourly load: expected key, got %v", tok)
		}
		var hours map[string]float64
		if err := dec.Decode(&hours); err != nil {
			return fmt.Errorf("hourly load %s: %w", key, err)
		}
		h.Set(key, hours)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}
