package agenttest

import "github.com/kilianp07/chargeboard/core/model"

// Result builds a small result with two depots and two vehicles over the
// given horizon. Only a few hours carry load so the maps stay sparse.
func Result(horizon int, objective model.Objective, backend model.Backend) model.OptimizationResult {
	price := make([]float64, horizon)
	for i := range price {
		price[i] = 0.1 + float64(i%6)*0.05
	}
	var depots, vehicles model.HourlyLoad
	depots.Set("D1", map[string]float64{"0": 22, "2": 11})
	depots.Set("D2", map[string]float64{"1": 7.5})
	vehicles.Set("V1", map[string]float64{"0": 11, "2": 11})
	vehicles.Set("V2", map[string]float64{"0": 11, "1": 7.5})
	return model.OptimizationResult{
		Horizon:      horizon,
		Objective:    objective,
		Backend:      backend,
		KPIs:         model.KPIs{TotalCost: 12.4, PeakKW: 22, OnTimePct: 100},
		Preview:      []string{"- V1: h0:11kW, h2:11kW"},
		Explanations: []string{"V1 charged at cheapest hours"},
		PerDepot:     depots,
		PerVehicle:   vehicles,
		PriceCurve:   price,
		RemainingKWh: map[string]float64{"V1": 0, "V2": 0},
	}
}

// CompareText is a report in the agent's comparison format.
const CompareText = "Comparison: cost vs peak\n" +
	"- Cost objective: $120.50, peak 42.3kW, on-time 97.2%\n" +
	"- Peak objective: $150.00, peak 30.0kW, on-time 95.0%\n" +
	"Δ Cost: $+29.50\n" +
	"Δ Peak: -12.3kW"
