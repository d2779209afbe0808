package compare

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/chargeboard/core/agent/agenttest"
	"github.com/kilianp07/chargeboard/core/model"
)

func TestTextParser_Example(t *testing.T) {
	text := "Comparison: cost vs peak\n" +
		"Cost objective: $120.50, peak 42.30kW, on-time 97.20%\n" +
		"Peak objective: $150.00, peak 30.00kW, on-time 95.00%"
	got := TextParser{}.Parse(text)
	require.NotNil(t, got)
	assert.Equal(t, model.ComparisonTable{
		CostStrategy: model.StrategyKPIs{Cost: 120.5, Peak: 42.3, OnTime: 97.2},
		PeakStrategy: model.StrategyKPIs{Cost: 150.0, Peak: 30.0, OnTime: 95.0},
	}, *got)
}

func TestTextParser_AgentReport(t *testing.T) {
	got := TextParser{}.Parse(agenttest.CompareText)
	require.NotNil(t, got)
	assert.Equal(t, 120.5, got.CostStrategy.Cost)
	assert.Equal(t, 30.0, got.PeakStrategy.Peak)
	assert.Equal(t, 95.0, got.PeakStrategy.OnTime)
}

func TestTextParser_NoData(t *testing.T) {
	cases := map[string]string{
		"empty":        "",
		"error reply":  "error: solver failed",
		"two lines":    "Cost objective: $1.00\nPeak objective: $2.00",
		"blank filler": "Cost objective: $1.00\n\n   \nPeak objective: $2.00\n",
		"missing peak": "header\nCost objective: $1.00, peak 2.0kW, on-time 3.0%\nfooter",
		"missing cost": "header\nfooter\nPeak objective: $1.00, peak 2.0kW, on-time 3.0%",
	}
	for name, text := range cases {
		assert.Nil(t, TextParser{}.Parse(text), name)
	}
}

func TestTextParser_OrderIndependentAndBestEffort(t *testing.T) {
	text := "Peak objective: peak 30.5kW\n" +
		"something else\n" +
		"Cost objective: $99.99 with on-time 88.0%"
	got := TextParser{}.Parse(text)
	require.NotNil(t, got)
	assert.Equal(t, model.StrategyKPIs{Cost: 99.99, Peak: 0, OnTime: 88}, got.CostStrategy)
	assert.Equal(t, model.StrategyKPIs{Cost: 0, Peak: 30.5, OnTime: 0}, got.PeakStrategy)
}

func TestTextParser_IntegersDoNotMatch(t *testing.T) {
	text := "x\nCost objective: $120, peak 42kW, on-time 97%\nPeak objective: $1.5"
	got := TextParser{}.Parse(text)
	require.NotNil(t, got)
	assert.Equal(t, model.StrategyKPIs{}, got.CostStrategy)
	assert.Equal(t, 1.5, got.PeakStrategy.Cost)
}

func TestTextParser_Idempotent(t *testing.T) {
	p := TextParser{}
	first := p.Parse(agenttest.CompareText)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, p.Parse(agenttest.CompareText))
	}
	assert.Nil(t, p.Parse(""))
	assert.Nil(t, p.Parse(""))
}
