package main

import (
	"fmt"
	"math/rand"
	"os"

	"gopkg.in/yaml.v3"
)

// Home is the position a vehicle starts from.
type Home struct {
	Lat float64 `yaml:"lat"`
	Lon float64 `yaml:"lon"`
}

// Profile describes how a simulated vehicle drives.
type Profile struct {
	ID        string  `yaml:"id"`
	Home      Home    `yaml:"home"`
	CruiseKmh float64 `yaml:"cruise_kmh"`
	// Urban is the share of samples reported inside an urban area.
	Urban float64 `yaml:"urban"`
	// Fuel is the starting fuel level in percent.
	Fuel float64 `yaml:"fuel"`
}

type fleetFile struct {
	Vehicles []Profile `yaml:"vehicles"`
}

// GenerateFleet creates size profiles with IDs SIM-0001..SIM-NNNN scattered
// around Paris.
func GenerateFleet(size int, rng *rand.Rand) []Profile {
	if size <= 0 {
		return nil
	}
	out := make([]Profile, size)
	for i := range out {
		out[i] = Profile{
			ID:        fmt.Sprintf("SIM-%04d", i+1),
			Home:      Home{Lat: 48.8566 + (rng.Float64()-0.5)*0.2, Lon: 2.3522 + (rng.Float64()-0.5)*0.3},
			CruiseKmh: 40 + rng.Float64()*80,
			Urban:     rng.Float64(),
			Fuel:      30 + rng.Float64()*70,
		}
	}
	return out
}

// LoadFleetFile reads vehicle profiles from YAML. Missing cruise speeds and
// fuel levels get defaults.
func LoadFleetFile(path string) ([]Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f fleetFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if len(f.Vehicles) == 0 {
		return nil, fmt.Errorf("%s: no vehicles", path)
	}
	for i := range f.Vehicles {
		p := &f.Vehicles[i]
		if p.ID == "" {
			p.ID = fmt.Sprintf("SIM-%04d", i+1)
		}
		if p.CruiseKmh == 0 {
			p.CruiseKmh = 50
		}
		if p.Fuel == 0 {
			p.Fuel = 80
		}
	}
	return f.Vehicles, nil
}
