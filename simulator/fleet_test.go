package main

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/telematics/core/model"
)

func TestGenerateFleetIDs(t *testing.T) {
	vs := GenerateFleet(5, rand.New(rand.NewSource(1)))
	require.Len(t, vs, 5)
	assert.Equal(t, "SIM-0001", vs[0].ID)
	assert.Equal(t, "SIM-0005", vs[4].ID)
	for _, v := range vs {
		assert.True(t, model.ValidVehicleID(v.ID), v.ID)
		assert.GreaterOrEqual(t, v.CruiseKmh, 40.0)
	}
	assert.Nil(t, GenerateFleet(0, rand.New(rand.NewSource(1))))
}

func TestLoadFleetFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fleet.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`vehicles:
  - id: VAN-0001
    home: {lat: 45.76, lon: 4.83}
    cruise_kmh: 90
    urban: 0.5
  - home: {lat: 43.3, lon: 5.37}
`), 0o600))

	vs, err := LoadFleetFile(path)
	require.NoError(t, err)
	require.Len(t, vs, 2)
	assert.Equal(t, "VAN-0001", vs[0].ID)
	assert.Equal(t, 90.0, vs[0].CruiseKmh)
	assert.Equal(t, 80.0, vs[0].Fuel)
	assert.Equal(t, "SIM-0002", vs[1].ID)
	assert.Equal(t, 50.0, vs[1].CruiseKmh)
}

func TestLoadFleetFileErrors(t *testing.T) {
	_, err := LoadFleetFile("missing.yaml")
	assert.Error(t, err)

	empty := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("vehicles: []\n"), 0o600))
	_, err = LoadFleetFile(empty)
	assert.ErrorContains(t, err, "no vehicles")
}

func TestConfigValidate(t *testing.T) {
	ok := Config{Mode: ModeMQTT, Broker: "tcp://b:1883", FleetSize: 1, Samples: 1, Interval: 1}
	assert.NoError(t, ok.Validate())

	bad := ok
	bad.Mode = "carrier-pigeon"
	assert.Error(t, bad.Validate())

	bad = ok
	bad.Mode = ModeHTTP
	bad.Server = ""
	assert.Error(t, bad.Validate())

	bad = ok
	bad.FleetSize = 0
	assert.Error(t, bad.Validate())
}
