package chart

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// DepotPoint carries every depot's load for one hour. Values is aligned with
// DepotChart.Depots.
type DepotPoint struct {
	Hour   int       `json:"hour"`
	Label  string    `json:"label"`
	Values []float64 `json:"values"`
}

// DepotChart is the per-hour depot load line chart.
type DepotChart struct {
	Depots []string     `json:"depots"`
	Points []DepotPoint `json:"points"`
}

// KW returns the value of depot in p, 0 when the depot is unknown.
func (c DepotChart) KW(p DepotPoint, depot string) float64 {
	for i, d := range c.Depots {
		if d == depot && i < len(p.Values) {
			return p.Values[i]
		}
	}
	return 0
}

// DepotSeries returns exactly Hours() points, whatever the sparsity of the
// depot maps.
func (s *Schedule) DepotSeries() DepotChart {
	c := DepotChart{Depots: s.Depots(), Points: make([]DepotPoint, s.hours)}
	for h := 0; h < s.hours; h++ {
		vals := make([]float64, len(s.depots))
		for i, d := range s.depots {
			vals[i] = d.KW[h]
		}
		c.Points[h] = DepotPoint{Hour: h, Label: HourLabel(h), Values: vals}
	}
	return c
}

// Matrix is the vehicle by hour load matrix.
type Matrix struct {
	Rows  []string    `json:"rows"`
	Hours int         `json:"hours"`
	Cells [][]float64 `json:"cells"`
}

// VehicleMatrix returns a len(Vehicles()) x Hours() matrix. ok is false when
// there is nothing to render: no hours or no vehicles.
func (s *Schedule) VehicleMatrix() (m *Matrix, ok bool) {
	if s.hours == 0 || len(s.vehicles) == 0 {
		return nil, false
	}
	m = &Matrix{Rows: s.Vehicles(), Hours: s.hours, Cells: make([][]float64, len(s.vehicles))}
	for i, v := range s.vehicles {
		m.Cells[i] = append([]float64(nil), v.KW...)
	}
	return m, true
}

// Intensity maps kw to [0,1] as min(1, kw/scale). A non-positive scale
// falls back to DefaultHeatmapScale.
func Intensity(kw, scale float64) float64 {
	if scale <= 0 || math.IsNaN(scale) {
		scale = DefaultHeatmapScale
	}
	v := kw / scale
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// Heatmap pairs the vehicle matrix with display intensities.
type Heatmap struct {
	Matrix
	Scale     float64     `json:"scale"`
	Intensity [][]float64 `json:"intensity"`
}

// Heatmap derives intensities for the vehicle matrix at the given scale.
// The matrix cells keep their kW values.
func (s *Schedule) Heatmap(scale float64) (*Heatmap, bool) {
	m, ok := s.VehicleMatrix()
	if !ok {
		return nil, false
	}
	if scale <= 0 || math.IsNaN(scale) {
		scale = DefaultHeatmapScale
	}
	hm := &Heatmap{Matrix: *m, Scale: scale, Intensity: make([][]float64, len(m.Cells))}
	for i, row := range m.Cells {
		hm.Intensity[i] = make([]float64, len(row))
		for j, kw := range row {
			hm.Intensity[i][j] = Intensity(kw, scale)
		}
	}
	return hm, true
}

// DepotSummary aggregates one depot over the horizon.
type DepotSummary struct {
	Depot    string  `json:"depot"`
	PeakKW   float64 `json:"peak_kw"`
	PeakHour int     `json:"peak_hour"`
	// EnergyKWh assumes one-hour slots.
	EnergyKWh float64 `json:"energy_kwh"`
}

// Summary gives headline figures derived from the dense schedule.
type Summary struct {
	Hours        int            `json:"hours"`
	Depots       []DepotSummary `json:"depots"`
	CheapestHour int            `json:"cheapest_hour"`
	PriciestHour int            `json:"priciest_hour"`
	MinPrice     float64        `json:"min_price"`
	MaxPrice     float64        `json:"max_price"`
}

// Summary computes per-depot peaks and the price extremes. Price fields are
// -1/0 when the horizon is empty.
func (s *Schedule) Summary() Summary {
	sum := Summary{Hours: s.hours, CheapestHour: -1, PriciestHour: -1}
	if len(s.price) > 0 {
		sum.CheapestHour = floats.MinIdx(s.price)
		sum.PriciestHour = floats.MaxIdx(s.price)
		sum.MinPrice = s.price[sum.CheapestHour]
		sum.MaxPrice = s.price[sum.PriciestHour]
	}
	for _, d := range s.depots {
		ds := DepotSummary{Depot: d.ID, PeakHour: -1}
		if len(d.KW) > 0 {
			ds.PeakHour = floats.MaxIdx(d.KW)
			ds.PeakKW = d.KW[ds.PeakHour]
			ds.EnergyKWh = floats.Sum(d.KW)
		}
		sum.Depots = append(sum.Depots, ds)
	}
	return sum
}

// Preview renders compact per-vehicle lines such as "- V1: h0:11kW, h2:11kW"
// for the first maxVehicles vehicles and maxHours hours. Vehicles with no
// load in the window are skipped but still count towards maxVehicles.
func (s *Schedule) Preview(maxVehicles, maxHours int) []string {
	var lines []string
	for i, v := range s.vehicles {
		if i >= maxVehicles {
			break
		}
		var entries []string
		for h := 0; h < maxHours && h < len(v.KW); h++ {
			if v.KW[h] > 0 {
				entries = append(entries, fmt.Sprintf("%s:%.0fkW", HourLabel(h), v.KW[h]))
			}
		}
		if len(entries) > 0 {
			lines = append(lines, fmt.Sprintf("- %s: %s", v.ID, strings.Join(entries, ", ")))
		}
	}
	return lines
}
