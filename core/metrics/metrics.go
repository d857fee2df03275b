package metrics

import (
	"time"

	"github.com/kilianp07/telematics/core/model"
)

// EventRecord describes one payload handed to the processor.
type EventRecord struct {
	VehicleID model.VehicleID
	Type      model.EventType
	Accepted  bool
	Reason    string
	Warnings  int
	Latency   time.Duration
	Time      time.Time
}

// MetricsSink records processed events.
type MetricsSink interface {
	RecordEvent(ev EventRecord) error
}

// AlertRecorder records raised alerts.
type AlertRecorder interface {
	RecordAlert(a model.Alert) error
}

// TripRecord is a trip lifecycle transition. Completed is nil for started
// trips.
type TripRecord struct {
	VehicleID model.VehicleID
	Started   bool
	Completed *model.CompletedTrip
	Time      time.Time
}

// TripRecorder records trip transitions.
type TripRecorder interface {
	RecordTrip(tr TripRecord) error
}

// DeliveryRecord captures the outcome of a notification delivery.
type DeliveryRecord struct {
	VehicleID model.VehicleID
	Kind      model.AlertKind
	Delivered bool
	Dropped   bool
	Error     string
	Latency   time.Duration
	Time      time.Time
}

// DeliveryRecorder records notification deliveries.
type DeliveryRecorder interface {
	RecordDelivery(d DeliveryRecord) error
}

// SweepRecord captures a retention sweep.
type SweepRecord struct {
	Cutoff  time.Time
	Removed int
	Time    time.Time
}

// SweepRecorder records retention sweeps.
type SweepRecorder interface {
	RecordSweep(s SweepRecord) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordEvent(EventRecord) error       { return nil }
func (NopSink) RecordAlert(model.Alert) error       { return nil }
func (NopSink) RecordTrip(TripRecord) error         { return nil }
func (NopSink) RecordDelivery(DeliveryRecord) error { return nil }
func (NopSink) RecordSweep(SweepRecord) error       { return nil }
