package model

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrInvalidVehicleID is returned when an identifier does not match the
// AAA-9999 format.
var ErrInvalidVehicleID = errors.New("invalid vehicle id")

var vehicleIDPattern = regexp.MustCompile(`^[A-Z0-9]{3}-[0-9]{4}$`)

// VehicleID identifies a vehicle: three uppercase alphanumerics, a hyphen and
// four digits (e.g. CAR-1234).
type VehicleID string

// ParseVehicleID validates s and returns it as a VehicleID.
func ParseVehicleID(s string) (VehicleID, error) {
	if !vehicleIDPattern.MatchString(s) {
		return "", fmt.Errorf("%w: %q", ErrInvalidVehicleID, s)
	}
	return VehicleID(s), nil
}

// ValidVehicleID reports whether s is a well-formed vehicle identifier.
func ValidVehicleID(s string) bool { return vehicleIDPattern.MatchString(s) }

func (id VehicleID) String() string { return string(id) }
