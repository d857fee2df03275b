package events

import (
	"time"

	"github.com/kilianp07/telematics/core/model"
)

// EventProcessed is published for every payload handed to the processor.
// Reason is empty for accepted events.
type EventProcessed struct {
	VehicleID model.VehicleID
	Type      model.EventType
	Accepted  bool
	Reason    string
	Warnings  int
	Latency   time.Duration
}

// AlertRaised is published for every alert, forwarded or not.
type AlertRaised struct {
	Alert model.Alert
}

// TripStarted is published when an ignition on opens a trip.
type TripStarted struct {
	Trip model.ActiveTrip
}

// TripCompleted is published when an ignition off closes a trip.
type TripCompleted struct {
	Trip model.CompletedTrip
}

// DeliveryResult reports the outcome of a notification delivery.
type DeliveryResult struct {
	VehicleID model.VehicleID
	Kind      model.AlertKind
	Delivered bool
	Dropped   bool
	Err       error
	Latency   time.Duration
}

// SweepCompleted is published after a retention sweep.
type SweepCompleted struct {
	Cutoff  time.Time
	Removed int
}
