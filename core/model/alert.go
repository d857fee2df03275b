package model

import "time"

// AlertKind identifies the rule that raised an alert.
type AlertKind string

const (
	AlertSpeeding    AlertKind = "speeding"
	AlertLowFuel     AlertKind = "low_fuel"
	AlertOverheating AlertKind = "overheating"
)

// Severity ranks alerts for logging and delivery.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Alert is raised by the alert engine for a single data event. Alerts are not
// persisted; they are returned to the submitter and, when Forward is set,
// handed to the notification sink.
type Alert struct {
	ID        string    `json:"id"`
	VehicleID VehicleID `json:"vehicleId"`
	Kind      AlertKind `json:"kind"`
	Severity  Severity  `json:"severity"`
	Message   string    `json:"message"`
	Value     float64   `json:"triggeringValue"`
	Limit     float64   `json:"limit"`
	Forward   bool      `json:"forwarded"`
	RaisedAt  time.Time `json:"raisedAt"`
}
