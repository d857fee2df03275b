// Package validation checks inbound telemetry payloads before they are allowed
// to affect vehicle state.
package validation

import (
	"encoding/json"
	"math"
	"time"

	"github.com/kilianp07/telematics/core/model"
)

// Payload is an inbound event as decoded from JSON. Fields are untyped so that
// missing values and wrong JSON types can be told apart.
type Payload struct {
	Type        any `json:"type"`
	VehicleID   any `json:"vehicleId"`
	Timestamp   any `json:"timestamp"`
	Lat         any `json:"lat"`
	Lon         any `json:"lon"`
	Latitude    any `json:"latitude"`
	Longitude   any `json:"longitude"`
	Speed       any `json:"speed"`
	FuelLevel   any `json:"fuelLevel"`
	EngineTemp  any `json:"engineTemp"`
	IsUrbanArea any `json:"isUrbanArea"`
}

// DeclaredType returns the declared event type as a string, "data" when absent.
func (p Payload) DeclaredType() string {
	if s, ok := p.Type.(string); ok && s != "" {
		return s
	}
	if p.Type == nil {
		return string(model.EventData)
	}
	return ""
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// Validate checks p and converts it to a model.Event. It has no side effects.
// Out-of-range coordinates and implausible readings are reported as warnings;
// the event is still accepted.
func Validate(p Payload) (model.Event, []Warning, error) {
	var ev model.Event

	typ, ok := p.Type.(string)
	if p.Type != nil && !ok {
		return ev, nil, invalid("type", ErrWrongType, "expected string")
	}
	et, err := model.ParseEventType(typ)
	if err != nil {
		return ev, nil, invalid("type", ErrUnknownType, "%q", typ)
	}
	ev.Type = et

	if p.VehicleID == nil {
		return ev, nil, invalid("vehicleId", ErrMissingField, "vehicleId is required")
	}
	rawID, ok := p.VehicleID.(string)
	if !ok {
		return ev, nil, invalid("vehicleId", ErrWrongType, "expected string")
	}
	if rawID == "" {
		return ev, nil, invalid("vehicleId", ErrMissingField, "vehicleId is required")
	}
	id, err := model.ParseVehicleID(rawID)
	if err != nil {
		return ev, nil, invalid("vehicleId", ErrInvalidVehicleID, "%q does not match AAA-9999", rawID)
	}
	ev.VehicleID = id

	ts, verr := parseTimestamp(p.Timestamp)
	if verr != nil {
		return ev, nil, verr
	}
	ev.Timestamp = ts

	var warnings []Warning
	switch et {
	case model.EventData:
		warnings, verr = validateData(p, &ev)
		if verr != nil {
			return model.Event{}, nil, verr
		}
	case model.EventIgnitionOn, model.EventIgnitionOff:
		ev.Position, warnings = optionalPosition(p)
	}
	return ev, warnings, nil
}

func validateData(p Payload, ev *model.Event) ([]Warning, error) {
	lat, err := requireNumber("lat", pick(p.Lat, p.Latitude))
	if err != nil {
		return nil, err
	}
	lon, err := requireNumber("lon", pick(p.Lon, p.Longitude))
	if err != nil {
		return nil, err
	}
	speed, err := requireNumber("speed", p.Speed)
	if err != nil {
		return nil, err
	}
	fuel, err := requireNumber("fuelLevel", p.FuelLevel)
	if err != nil {
		return nil, err
	}
	temp, err := requireNumber("engineTemp", p.EngineTemp)
	if err != nil {
		return nil, err
	}
	urban := false
	if p.IsUrbanArea != nil {
		b, ok := p.IsUrbanArea.(bool)
		if !ok {
			return nil, invalid("isUrbanArea", ErrWrongType, "expected boolean")
		}
		urban = b
	}

	pos := model.Position{Lat: lat, Lon: lon}
	ev.Position = &pos
	ev.Reading = &model.Reading{Speed: speed, FuelLevel: fuel, EngineTemp: temp, IsUrbanArea: urban}

	var warnings []Warning
	if !pos.InRange() {
		warnings = append(warnings, Warning{Field: "position", Message: "GPS coordinates out of range"})
	}
	if speed < 0 {
		warnings = append(warnings, Warning{Field: "speed", Message: "negative speed"})
	}
	if fuel < 0 || fuel > 100 {
		warnings = append(warnings, Warning{Field: "fuelLevel", Message: "fuel level outside 0-100"})
	}
	return warnings, nil
}

// optionalPosition extracts the position of an ignition event. Incomplete or
// non-numeric coordinates are dropped with a warning.
func optionalPosition(p Payload) (*model.Position, []Warning) {
	rawLat, rawLon := pick(p.Lat, p.Latitude), pick(p.Lon, p.Longitude)
	if rawLat == nil && rawLon == nil {
		return nil, nil
	}
	lat, okLat := number(rawLat)
	lon, okLon := number(rawLon)
	if !okLat || !okLon {
		return nil, []Warning{{Field: "position", Message: "incomplete or non-numeric position ignored"}}
	}
	pos := &model.Position{Lat: lat, Lon: lon}
	if !pos.InRange() {
		return pos, []Warning{{Field: "position", Message: "GPS coordinates out of range"}}
	}
	return pos, nil
}

func parseTimestamp(v any) (time.Time, error) {
	switch ts := v.(type) {
	case nil:
		return time.Time{}, invalid("timestamp", ErrMissingField, "timestamp is required")
	case string:
		if ts == "" {
			return time.Time{}, invalid("timestamp", ErrMissingField, "timestamp is required")
		}
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, ts); err == nil {
				return t.UTC(), nil
			}
		}
		return time.Time{}, invalid("timestamp", ErrInvalidTimestamp, "cannot parse %q", ts)
	case time.Time:
		return ts.UTC(), nil
	case float64, float32, int, int64, uint64, json.Number:
		ms, ok := number(ts)
		if !ok {
			return time.Time{}, invalid("timestamp", ErrInvalidTimestamp, "not a finite number")
		}
		return time.UnixMilli(int64(ms)).UTC(), nil
	default:
		return time.Time{}, invalid("timestamp", ErrWrongType, "expected ISO-8601 string or epoch milliseconds")
	}
}

func requireNumber(field string, v any) (float64, error) {
	if v == nil {
		return 0, invalid(field, ErrMissingField, "%s is required", field)
	}
	f, ok := number(v)
	if !ok {
		return 0, invalid(field, ErrWrongType, "expected number")
	}
	return f, nil
}

// number accepts the numeric types produced by the JSON and YAML decoders.
func number(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		var err error
		if f, err = n.Float64(); err != nil {
			return 0, false
		}
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func pick(primary, alias any) any {
	if primary != nil {
		return primary
	}
	return alias
}
