package render

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/chargeboard/core/agent/agenttest"
	"github.com/kilianp07/chargeboard/core/chart"
	"github.com/kilianp07/chargeboard/core/model"
)

func TestDepotLines(t *testing.T) {
	s := chart.NewSchedule(agenttest.Result(4, model.ObjectiveCost, model.BackendGreedy))
	html, err := HTML(DepotLines(s.DepotSeries()))
	require.NoError(t, err)
	out := string(html)
	assert.Contains(t, out, "<html")
	assert.Contains(t, out, "Depot load")
	assert.Contains(t, out, `"D1"`)
	assert.Contains(t, out, `"h3"`)
}

func TestVehicleHeatmap(t *testing.T) {
	s := chart.NewSchedule(agenttest.Result(4, model.ObjectiveCost, model.BackendGreedy))
	hm, ok := s.Heatmap(25)
	require.True(t, ok)
	html, err := HTML(VehicleHeatmap(hm))
	require.NoError(t, err)
	out := string(html)
	assert.Contains(t, out, "Vehicle load")
	assert.Contains(t, out, "full intensity at 25kW")
	assert.Contains(t, out, `"V1"`)
}

func TestComparisonBars(t *testing.T) {
	tbl := model.ComparisonTable{
		CostStrategy: model.StrategyKPIs{Cost: 120.5, Peak: 42.3, OnTime: 97.2},
		PeakStrategy: model.StrategyKPIs{Cost: 150, Peak: 30, OnTime: 95},
	}
	html, err := HTML(ComparisonBars(tbl))
	require.NoError(t, err)
	out := string(html)
	assert.Contains(t, out, "Strategy comparison")
	assert.Contains(t, out, "120.5")
	assert.Contains(t, out, "42.3")
}

type failing struct{}

func (failing) Render(io.Writer) error { return errors.New("boom") }

func TestHTML_Error(t *testing.T) {
	_, err := HTML(failing{})
	assert.ErrorContains(t, err, "boom")
}
