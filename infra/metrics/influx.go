package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/chargeboard/core/metrics"
	"github.com/kilianp07/chargeboard/infra/logger"
)

// InfluxSink writes workflow events to InfluxDB so run KPIs can be charted
// over time.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a sink for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and returns a
// NopSink when the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

func (s *InfluxSink) write(p *write.Point) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordCall writes one agent request.
func (s *InfluxSink) RecordCall(ev coremetrics.CallEvent) error {
	p := write.NewPointWithMeasurement("agent_call").
		AddTag("endpoint", ev.Endpoint).
		AddTag("outcome", ev.Outcome).
		AddField("status_code", ev.StatusCode).
		AddField("duration_ms", round3(ev.Duration.Seconds()*1000)).
		SetTime(ev.Time)
	return s.write(p)
}

// RecordRun writes the KPIs of a completed run.
func (s *InfluxSink) RecordRun(ev coremetrics.RunEvent) error {
	p := write.NewPointWithMeasurement("optimize_run").
		AddTag("objective", ev.Objective).
		AddTag("backend", ev.Backend).
		AddTag("advisory", strconv.FormatBool(ev.Advisory)).
		AddField("horizon", ev.Horizon).
		AddField("total_cost", round3(ev.KPIs.TotalCost)).
		AddField("peak_kw", round3(ev.KPIs.PeakKW)).
		AddField("on_time_pct", round3(ev.KPIs.OnTimePct)).
		AddField("depots", ev.Depots).
		AddField("vehicles", ev.Vehicles).
		AddField("duration_ms", round3(ev.Duration.Seconds()*1000)).
		SetTime(ev.Time)
	return s.write(p)
}

// RecordComparison writes both strategy rows of a parsed comparison.
// Unparsed reports are skipped.
func (s *InfluxSink) RecordComparison(ev coremetrics.ComparisonEvent) error {
	if !ev.Parsed {
		return nil
	}
	for _, row := range ev.Table.Rows() {
		p := write.NewPointWithMeasurement("strategy_comparison").
			AddTag("strategy", strings.ToLower(row.Strategy)).
			AddField("cost", round3(row.Cost)).
			AddField("peak_kw", round3(row.Peak)).
			AddField("on_time_pct", round3(row.OnTime)).
			SetTime(ev.Time)
		if err := s.write(p); err != nil {
			return err
		}
	}
	return nil
}

// RecordOverride writes a what-if override.
func (s *InfluxSink) RecordOverride(ev coremetrics.OverrideEvent) error {
	p := write.NewPointWithMeasurement("whatif_override").
		AddTag("kind", ev.Kind).
		AddTag("depot", ev.Depot).
		AddField("accepted", ev.Accepted).
		SetTime(ev.Time)
	return s.write(p)
}

// Close releases the client.
func (s *InfluxSink) Close() { s.client.Close() }

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
