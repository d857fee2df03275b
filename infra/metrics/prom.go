package metrics

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/telematics/core/metrics"
	"github.com/kilianp07/telematics/core/model"
)

// PromSink records ingest activity in Prometheus metrics.
type PromSink struct {
	events        *prometheus.CounterVec
	warnings      prometheus.Counter
	processing    *prometheus.HistogramVec
	alerts        *prometheus.CounterVec
	trips         *prometheus.CounterVec
	tripDistance  prometheus.Histogram
	notifications *prometheus.CounterVec
	notifyLatency prometheus.Histogram
	swept         prometheus.Counter
}

// NewPromSink registers the metrics on the default Prometheus registerer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Collectors
// already registered by a previous sink are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "telematics_events_total",
			Help: "Telemetry payloads processed, by type and outcome",
		}, []string{"type", "accepted"}),
		warnings: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "telematics_event_warnings_total",
			Help: "Validation warnings attached to accepted events",
		}),
		processing: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "telematics_processing_seconds",
			Help:    "Time spent processing a payload",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1},
		}, []string{"type"}),
		alerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "telematics_alerts_total",
			Help: "Alerts raised by kind and severity",
		}, []string{"kind", "severity", "forwarded"}),
		trips: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "telematics_trips_total",
			Help: "Trip transitions",
		}, []string{"transition"}),
		tripDistance: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "telematics_trip_distance_km",
			Help:    "Straight-line distance of completed trips",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
		}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "telematics_notifications_total",
			Help: "Notification deliveries by alert kind and result",
		}, []string{"kind", "result"}),
		notifyLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "telematics_notification_latency_seconds",
			Help:    "Time spent delivering a notification",
			Buckets: prometheus.DefBuckets,
		}),
		swept: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "telematics_events_swept_total",
			Help: "Events removed by retention sweeps",
		}),
	}
	var err error
	if s.events, err = register(reg, s.events); err != nil {
		return nil, err
	}
	if s.warnings, err = register(reg, s.warnings); err != nil {
		return nil, err
	}
	if s.processing, err = register(reg, s.processing); err != nil {
		return nil, err
	}
	if s.alerts, err = register(reg, s.alerts); err != nil {
		return nil, err
	}
	if s.trips, err = register(reg, s.trips); err != nil {
		return nil, err
	}
	if s.tripDistance, err = register(reg, s.tripDistance); err != nil {
		return nil, err
	}
	if s.notifications, err = register(reg, s.notifications); err != nil {
		return nil, err
	}
	if s.notifyLatency, err = register(reg, s.notifyLatency); err != nil {
		return nil, err
	}
	if s.swept, err = register(reg, s.swept); err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// typeLabel maps anything but the known event types to "unknown".
func typeLabel(t model.EventType) string {
	switch t {
	case model.EventData, model.EventIgnitionOn, model.EventIgnitionOff:
		return string(t)
	}
	return "unknown"
}

// RecordEvent counts the payload and observes its processing time.
func (s *PromSink) RecordEvent(ev coremetrics.EventRecord) error {
	typ := typeLabel(ev.Type)
	s.events.WithLabelValues(typ, strconv.FormatBool(ev.Accepted)).Inc()
	s.warnings.Add(float64(ev.Warnings))
	if ev.Latency > 0 {
		s.processing.WithLabelValues(typ).Observe(ev.Latency.Seconds())
	}
	return nil
}

func (s *PromSink) RecordAlert(a model.Alert) error {
	s.alerts.WithLabelValues(string(a.Kind), string(a.Severity), strconv.FormatBool(a.Forward)).Inc()
	return nil
}

func (s *PromSink) RecordTrip(tr coremetrics.TripRecord) error {
	if tr.Completed != nil {
		s.trips.WithLabelValues("completed").Inc()
		s.tripDistance.Observe(tr.Completed.DistanceKm)
		return nil
	}
	s.trips.WithLabelValues("started").Inc()
	return nil
}

func (s *PromSink) RecordDelivery(d coremetrics.DeliveryRecord) error {
	result := "delivered"
	switch {
	case d.Dropped:
		result = "dropped"
	case !d.Delivered:
		result = "failed"
	}
	s.notifications.WithLabelValues(string(d.Kind), result).Inc()
	if d.Latency > 0 {
		s.notifyLatency.Observe(d.Latency.Seconds())
	}
	return nil
}

func (s *PromSink) RecordSweep(sw coremetrics.SweepRecord) error {
	s.swept.Add(float64(sw.Removed))
	return nil
}
