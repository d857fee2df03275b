package main

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/kilianp07/telematics/core/logger"
)

// Event is the JSON payload published for one telemetry event.
type Event struct {
	Type        string    `json:"type"`
	VehicleID   string    `json:"vehicleId"`
	Timestamp   time.Time `json:"timestamp"`
	Lat         float64   `json:"lat"`
	Lon         float64   `json:"lon"`
	Speed       *float64  `json:"speed,omitempty"`
	FuelLevel   *float64  `json:"fuelLevel,omitempty"`
	EngineTemp  *float64  `json:"engineTemp,omitempty"`
	IsUrbanArea *bool     `json:"isUrbanArea,omitempty"`
}

// Publisher delivers events to the service.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// SimulatedVehicle drives ignition on, data, ignition off cycles.
type SimulatedVehicle struct {
	Profile  Profile
	Samples  int
	Interval time.Duration
	Pause    time.Duration
	// Trips bounds the number of trips; 0 runs until canceled.
	Trips int

	pub  Publisher
	log  logger.Logger
	rng  *rand.Rand
	lat  float64
	lon  float64
	fuel float64
}

// NewSimulatedVehicle creates a vehicle parked at its home position.
func NewSimulatedVehicle(p Profile, pub Publisher, rng *rand.Rand, log logger.Logger) *SimulatedVehicle {
	return &SimulatedVehicle{
		Profile: p,
		pub:     pub,
		log:     log,
		rng:     rng,
		lat:     p.Home.Lat,
		lon:     p.Home.Lon,
		fuel:    p.Fuel,
	}
}

// PlanTrip returns the events of the next trip starting at start and moves
// the vehicle to the trip's last position.
func (v *SimulatedVehicle) PlanTrip(start time.Time) []Event {
	id := v.Profile.ID
	events := make([]Event, 0, v.Samples+2)
	events = append(events, Event{Type: "ignition_on", VehicleID: id, Timestamp: start.UTC(), Lat: v.lat, Lon: v.lon})

	heading := v.rng.Float64() * 2 * math.Pi
	at := start
	for i := 0; i < v.Samples; i++ {
		at = at.Add(v.Interval)
		speed := math.Max(0, math.Round(v.Profile.CruiseKmh+(v.rng.Float64()-0.5)*30))
		km := speed * v.Interval.Hours()
		heading += (v.rng.Float64() - 0.5) * 0.6
		v.lat += km / 111.32 * math.Cos(heading)
		v.lon += km / (111.32 * math.Cos(v.lat*math.Pi/180)) * math.Sin(heading)
		v.fuel = math.Max(0, v.fuel-km*0.08)
		if v.fuel < 5 {
			v.fuel = 95
		}
		fuel := math.Round(v.fuel*10) / 10
		temp := math.Round((85+v.rng.Float64()*13)*10) / 10
		urban := v.rng.Float64() < v.Profile.Urban
		events = append(events, Event{
			Type:        "data",
			VehicleID:   id,
			Timestamp:   at.UTC(),
			Lat:         v.lat,
			Lon:         v.lon,
			Speed:       &speed,
			FuelLevel:   &fuel,
			EngineTemp:  &temp,
			IsUrbanArea: &urban,
		})
	}
	at = at.Add(v.Interval)
	events = append(events, Event{Type: "ignition_off", VehicleID: id, Timestamp: at.UTC(), Lat: v.lat, Lon: v.lon})
	return events
}

// Run publishes trips in real time until ctx is done or Trips is reached.
func (v *SimulatedVehicle) Run(ctx context.Context) error {
	for n := 0; v.Trips == 0 || n < v.Trips; n++ {
		for i, ev := range v.PlanTrip(time.Now()) {
			if i > 0 && !sleep(ctx, v.Interval) {
				return nil
			}
			if err := v.pub.Publish(ctx, ev); err != nil {
				v.log.Warnf("%s: publish %s: %v", v.Profile.ID, ev.Type, err)
			}
		}
		v.log.Debugf("%s: trip %d done", v.Profile.ID, n+1)
		if !sleep(ctx, v.Pause) {
			return nil
		}
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
