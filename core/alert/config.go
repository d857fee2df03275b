package alert

import "fmt"

const (
	DefaultSpeedLimitKmh      = 120.0
	DefaultUrbanSpeedLimitKmh = 60.0
	DefaultMinFuelPercent     = 10.0
	DefaultMaxEngineTempC     = 95.0
)

// Config holds the alert thresholds. Zero values fall back to the defaults.
type Config struct {
	SpeedLimitKmh      float64 `json:"speed_limit_kmh"`
	UrbanSpeedLimitKmh float64 `json:"urban_speed_limit_kmh"`
	MinFuelPercent     float64 `json:"min_fuel_percent"`
	MaxEngineTempC     float64 `json:"max_engine_temp_c"`
	// ForwardOverheating sends overheating alerts to the notification sink.
	ForwardOverheating bool `json:"forward_overheating"`
}

// SetDefaults fills zero thresholds.
func (c *Config) SetDefaults() {
	if c.SpeedLimitKmh == 0 {
		c.SpeedLimitKmh = DefaultSpeedLimitKmh
	}
	if c.UrbanSpeedLimitKmh == 0 {
		c.UrbanSpeedLimitKmh = DefaultUrbanSpeedLimitKmh
	}
	if c.MinFuelPercent == 0 {
		c.MinFuelPercent = DefaultMinFuelPercent
	}
	if c.MaxEngineTempC == 0 {
		c.MaxEngineTempC = DefaultMaxEngineTempC
	}
}

// Validate checks the thresholds are coherent.
func (c Config) Validate() error {
	if c.SpeedLimitKmh <= 0 || c.UrbanSpeedLimitKmh <= 0 {
		return fmt.Errorf("alerts: speed limits must be positive")
	}
	if c.UrbanSpeedLimitKmh > c.SpeedLimitKmh {
		return fmt.Errorf("alerts: urban speed limit %.1f exceeds speed limit %.1f", c.UrbanSpeedLimitKmh, c.SpeedLimitKmh)
	}
	if c.MinFuelPercent < 0 || c.MinFuelPercent > 100 {
		return fmt.Errorf("alerts: min fuel percent must be within 0-100")
	}
	if c.MaxEngineTempC <= 0 {
		return fmt.Errorf("alerts: max engine temperature must be positive")
	}
	return nil
}
