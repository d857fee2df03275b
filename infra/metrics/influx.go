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

	coremetrics "github.com/kilianp07/telematics/core/metrics"
	"github.com/kilianp07/telematics/core/model"
	"github.com/kilianp07/telematics/infra/logger"
)

// InfluxSink writes ingest activity to an InfluxDB bucket. It serves as the
// external event log of the service.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
	timeout  time.Duration
}

// InfluxConfig locates the InfluxDB bucket.
type InfluxConfig struct {
	URL     string        `json:"url"`
	Token   string        `json:"token"`
	Org     string        `json:"org"`
	Bucket  string        `json:"bucket"`
	Timeout time.Duration `json:"timeout"`
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(cfg InfluxConfig) *InfluxSink {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: cfg.Timeout}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		log:      logger.New("influx-sink"),
		timeout:  cfg.Timeout,
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(cfg InfluxConfig) coremetrics.MetricsSink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), sink.timeout)
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

// Close releases the underlying client.
func (s *InfluxSink) Close() { s.client.Close() }

func (s *InfluxSink) write(p *write.Point) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordEvent writes one telemetry_event point per processed payload.
func (s *InfluxSink) RecordEvent(ev coremetrics.EventRecord) error {
	p := write.NewPointWithMeasurement("telemetry_event").
		AddTag("vehicle_id", ev.VehicleID.String()).
		AddTag("type", typeLabel(ev.Type)).
		AddTag("accepted", strconv.FormatBool(ev.Accepted)).
		AddField("warnings", ev.Warnings).
		AddField("latency_ms", round3(ev.Latency.Seconds()*1000))
	if ev.Reason != "" {
		p = p.AddField("reason", ev.Reason)
	}
	return s.write(p.SetTime(ev.Time))
}

// RecordAlert writes the alert with its triggering value.
func (s *InfluxSink) RecordAlert(a model.Alert) error {
	p := write.NewPointWithMeasurement("alert").
		AddTag("vehicle_id", a.VehicleID.String()).
		AddTag("kind", string(a.Kind)).
		AddTag("severity", string(a.Severity)).
		AddField("value", round3(a.Value)).
		AddField("limit", round3(a.Limit)).
		AddField("forwarded", a.Forward).
		AddField("message", a.Message).
		SetTime(a.RaisedAt)
	return s.write(p)
}

// RecordTrip writes completed trips. Trip starts are not logged.
func (s *InfluxSink) RecordTrip(tr coremetrics.TripRecord) error {
	if tr.Completed == nil {
		return nil
	}
	t := tr.Completed
	p := write.NewPointWithMeasurement("trip_completed").
		AddTag("vehicle_id", t.VehicleID.String()).
		AddField("duration_ms", t.DurationMs).
		AddField("distance_km", t.DistanceKm).
		AddField("avg_speed_kmh", round3(t.AvgSpeedKmh)).
		AddField("max_speed_kmh", round3(t.MaxSpeedKmh)).
		AddField("samples", t.Samples).
		AddField("alerts", t.AlertCount).
		SetTime(t.EndTime)
	return s.write(p)
}

// RecordDelivery writes the outcome of a notification.
func (s *InfluxSink) RecordDelivery(d coremetrics.DeliveryRecord) error {
	p := write.NewPointWithMeasurement("notification").
		AddTag("vehicle_id", d.VehicleID.String()).
		AddTag("kind", string(d.Kind)).
		AddTag("delivered", strconv.FormatBool(d.Delivered)).
		AddField("latency_ms", round3(d.Latency.Seconds()*1000)).
		AddField("dropped", d.Dropped)
	if d.Error != "" {
		p = p.AddField("error", d.Error)
	}
	return s.write(p.SetTime(d.Time))
}

// RecordSweep writes the number of events removed by a sweep.
func (s *InfluxSink) RecordSweep(sw coremetrics.SweepRecord) error {
	p := write.NewPointWithMeasurement("retention_sweep").
		AddField("removed", sw.Removed).
		AddField("cutoff", sw.Cutoff.UTC().Format(time.RFC3339)).
		SetTime(sw.Time)
	return s.write(p)
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
