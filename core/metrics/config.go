package metrics

import "github.com/kilianp07/telematics/core/factory"

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
	// Path serves the Prometheus exposition on the API server. Empty
	// disables it.
	Path string `json:"path"`
	// Addr serves the exposition on a dedicated listener as well.
	Addr string `json:"addr"`
}

// SetDefaults serves /metrics.
func (c *Config) SetDefaults() {
	if c.Path == "" {
		c.Path = "/metrics"
	}
}
