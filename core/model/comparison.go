package model

// StrategyKPIs holds the figures reported for one strategy in a comparison.
type StrategyKPIs struct {
	Cost   float64 `json:"cost"`
	Peak   float64 `json:"peak"`
	OnTime float64 `json:"onTime"`
}

// ComparisonTable contrasts a cost-optimized run with a peak-optimized run
// over the same horizon.
type ComparisonTable struct {
	CostStrategy StrategyKPIs `json:"cost-strategy"`
	PeakStrategy StrategyKPIs `json:"peak-strategy"`
}

// ComparisonRow is one row of the table, labelled by strategy.
type ComparisonRow struct {
	Strategy string `json:"strategy"`
	StrategyKPIs
}

// Rows returns the table as chart rows, cost strategy first.
func (t ComparisonTable) Rows() []ComparisonRow {
	return []ComparisonRow{
		{Strategy: "Cost", StrategyKPIs: t.CostStrategy},
		{Strategy: "Peak", StrategyKPIs: t.PeakStrategy},
	}
}

// Deltas returns peak strategy minus cost strategy for every figure.
func (t ComparisonTable) Deltas() StrategyKPIs {
	return StrategyKPIs{
		Cost:   t.PeakStrategy.Cost - t.CostStrategy.Cost,
		Peak:   t.PeakStrategy.Peak - t.CostStrategy.Peak,
		OnTime: t.PeakStrategy.OnTime - t.CostStrategy.OnTime,
	}
}
