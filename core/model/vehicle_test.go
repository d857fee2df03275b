package model

import (
	"errors"
	"testing"
)

func TestParseVehicleID(t *testing.T) {
	valid := []string{"CAR-1234", "ABC-0000", "123-9999", "A1B-0001"}
	for _, s := range valid {
		id, err := ParseVehicleID(s)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", s, err)
		}
		if id.String() != s {
			t.Fatalf("expected %s got %s", s, id)
		}
	}
	invalid := []string{"", "INVALIDID", "car-1234", "CAR-123", "CAR-12345", "CARS-1234", "CA-1234", "CAR_1234", " CAR-1234", "CAR-1234\n", "FAIL-0000"}
	for _, s := range invalid {
		if _, err := ParseVehicleID(s); !errors.Is(err, ErrInvalidVehicleID) {
			t.Fatalf("%q: expected ErrInvalidVehicleID got %v", s, err)
		}
		if ValidVehicleID(s) {
			t.Fatalf("%q reported valid", s)
		}
	}
}
