// Package chart turns agent results into dense, chart-ready structures.
//
// A Schedule is built once per received result: the sparse string-keyed hour
// maps are copied into fixed-size slices indexed by hour so that rendering
// never parses hour keys again. The hour axis is the price curve; every hour
// an entity does not mention is zero.
package chart

import (
	"fmt"
	"strconv"

	"github.com/kilianp07/chargeboard/core/model"
)

// DefaultHeatmapScale is the kW value rendered at full heatmap intensity.
// It is a display constant, not a power limit.
const DefaultHeatmapScale = 40.0

// Series is the dense hourly load of one depot or vehicle.
type Series struct {
	ID string    `json:"id"`
	KW []float64 `json:"kw"`
}

// Schedule is the dense form of an OptimizationResult.
type Schedule struct {
	hours    int
	price    []float64
	depots   []Series
	vehicles []Series
}

// NewSchedule densifies r. Hour keys that are not integers in
// [0, len(price_curve)) are ignored.
func NewSchedule(r model.OptimizationResult) *Schedule {
	h := r.Hours()
	return &Schedule{
		hours:    h,
		price:    append([]float64(nil), r.PriceCurve...),
		depots:   densify(r.PerDepot, h),
		vehicles: densify(r.PerVehicle, h),
	}
}

func densify(load model.HourlyLoad, hours int) []Series {
	out := make([]Series, 0, load.Len())
	for _, id := range load.Keys {
		kw := make([]float64, hours)
		for key, v := range load.Hours[id] {
			idx, err := strconv.Atoi(key)
			if err != nil || idx < 0 || idx >= hours {
				continue
			}
			kw[idx] = v
		}
		out = append(out, Series{ID: id, KW: kw})
	}
	return out
}

// Hours returns the number of hours on the axis.
func (s *Schedule) Hours() int { return s.hours }

// Depots returns depot ids in payload order.
func (s *Schedule) Depots() []string { return ids(s.depots) }

// Vehicles returns vehicle ids in payload order.
func (s *Schedule) Vehicles() []string { return ids(s.vehicles) }

func ids(series []Series) []string {
	out := make([]string, len(series))
	for i, se := range series {
		out[i] = se.ID
	}
	return out
}

// DepotKW returns the load of depot at hour, 0 when either is unknown.
func (s *Schedule) DepotKW(depot string, hour int) float64 { return lookup(s.depots, depot, hour) }

// VehicleKW returns the load of vehicle at hour, 0 when either is unknown.
func (s *Schedule) VehicleKW(vehicle string, hour int) float64 {
	return lookup(s.vehicles, vehicle, hour)
}

func lookup(series []Series, id string, hour int) float64 {
	if hour < 0 {
		return 0
	}
	for _, se := range series {
		if se.ID == id {
			if hour >= len(se.KW) {
				return 0
			}
			return se.KW[hour]
		}
	}
	return 0
}

// Price returns a copy of the price curve.
func (s *Schedule) Price() []float64 { return append([]float64(nil), s.price...) }

// HourLabel formats an hour index the way the charts label it.
func HourLabel(h int) string { return fmt.Sprintf("h%d", h) }

// HourLabels returns labels for every hour of the axis.
func (s *Schedule) HourLabels() []string {
	out := make([]string, s.hours)
	for i := range out {
		out[i] = HourLabel(i)
	}
	return out
}
