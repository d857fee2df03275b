package model

import "time"

// ActiveTrip is the open trip of a vehicle between ignition on and off.
type ActiveTrip struct {
	VehicleID         VehicleID   `json:"vehicleId"`
	StartTime         time.Time   `json:"startTime"`
	StartPosition     *Position   `json:"startPosition"`
	LastKnownPosition *Position   `json:"lastKnownPosition"`
	LastUpdate        time.Time   `json:"lastUpdate"`
	Alerts            []AlertKind `json:"alerts"`
	Speeds            []float64   `json:"-"`
}

// CompletedTrip summarises a closed trip. DurationMs is EndTime minus
// StartTime and is negative when the ignition off predates the ignition on.
type CompletedTrip struct {
	VehicleID     VehicleID `json:"vehicleId"`
	StartTime     time.Time `json:"startTime"`
	EndTime       time.Time `json:"endTime"`
	DurationMs    int64     `json:"durationMs"`
	DistanceKm    float64   `json:"distanceKm"`
	StartPosition *Position `json:"startPosition,omitempty"`
	EndPosition   *Position `json:"endPosition,omitempty"`
	AvgSpeedKmh   float64   `json:"avgSpeedKmh"`
	MaxSpeedKmh   float64   `json:"maxSpeedKmh"`
	Samples       int       `json:"samples"`
	AlertCount    int       `json:"alertCount"`
}

// DurationMinutes returns the duration in minutes.
func (t CompletedTrip) DurationMinutes() float64 {
	return float64(t.DurationMs) / 60000
}
