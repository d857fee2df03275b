package main

import (
	"fmt"
	"time"
)

const (
	ModeMQTT = "mqtt"
	ModeHTTP = "http"
)

// Config holds parameters for the simulator.
type Config struct {
	Mode      string
	Broker    string
	Topic     string
	Server    string
	APIKey    string
	FleetSize int
	FleetFile string
	// Interval separates two data samples of a trip.
	Interval time.Duration
	// Samples is the number of data events per trip.
	Samples int
	// Pause separates two trips of a vehicle.
	Pause   time.Duration
	Trips   int
	Seed    int64
	Verbose bool
}

// Validate checks the transport settings and fleet size.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeMQTT:
		if c.Broker == "" {
			return fmt.Errorf("broker is required in mqtt mode")
		}
	case ModeHTTP:
		if c.Server == "" {
			return fmt.Errorf("server is required in http mode")
		}
	default:
		return fmt.Errorf("unknown mode %q", c.Mode)
	}
	if c.FleetFile == "" && c.FleetSize <= 0 {
		return fmt.Errorf("fleet-size must be positive without a fleet file")
	}
	if c.Samples <= 0 {
		return fmt.Errorf("samples must be positive")
	}
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be positive")
	}
	return nil
}
