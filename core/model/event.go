package model

import (
	"fmt"
	"time"
)

// EventType is the declared kind of a telemetry event.
type EventType string

const (
	EventData        EventType = "data"
	EventIgnitionOn  EventType = "ignition_on"
	EventIgnitionOff EventType = "ignition_off"
)

// ParseEventType maps the declared type of a payload to an EventType. An empty
// string defaults to EventData.
func ParseEventType(s string) (EventType, error) {
	switch EventType(s) {
	case "":
		return EventData, nil
	case EventData, EventIgnitionOn, EventIgnitionOff:
		return EventType(s), nil
	default:
		return "", fmt.Errorf("unknown event type %q", s)
	}
}

func (t EventType) String() string { return string(t) }

// Position is a WGS84 fix in decimal degrees.
type Position struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// InRange reports whether the coordinates are within [-90,90] and [-180,180].
func (p Position) InRange() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// Reading holds the sensor values carried by a data event.
type Reading struct {
	Speed       float64 `json:"speed"`
	FuelLevel   float64 `json:"fuelLevel"`
	EngineTemp  float64 `json:"engineTemp"`
	IsUrbanArea bool    `json:"isUrbanArea"`
}

// Event is a validated telemetry event. Reading is only set for data events
// and Position is nil when the vehicle did not report one.
type Event struct {
	ID         string    `json:"id,omitempty"`
	Type       EventType `json:"type"`
	VehicleID  VehicleID `json:"vehicleId"`
	Timestamp  time.Time `json:"timestamp"`
	ReceivedAt time.Time `json:"receivedAt"`
	Position   *Position `json:"position,omitempty"`
	Reading    *Reading  `json:"reading,omitempty"`
}

// RetentionTime is the instant used by retention sweeps: the event timestamp,
// or the receipt instant when no timestamp is known.
func (e Event) RetentionTime() time.Time {
	if !e.Timestamp.IsZero() {
		return e.Timestamp
	}
	return e.ReceivedAt
}
