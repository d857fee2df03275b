package notify

import (
	"fmt"
	"time"

	"github.com/kilianp07/telematics/core/factory"
)

// Config configures the notification sinks and the dispatcher.
type Config struct {
	Sinks     []factory.ModuleConfig `json:"sinks"`
	QueueSize int                    `json:"queue_size"`
	Workers   int                    `json:"workers"`
	TimeoutMS int                    `json:"timeout_ms"`
}

// SetDefaults applies a 256 entry queue, 4 workers and a 2s send timeout.
func (c *Config) SetDefaults() {
	if c.QueueSize == 0 {
		c.QueueSize = 256
	}
	if c.Workers == 0 {
		c.Workers = 4
	}
	if c.TimeoutMS == 0 {
		c.TimeoutMS = 2000
	}
}

// Validate rejects negative sizes.
func (c Config) Validate() error {
	if c.QueueSize < 0 || c.Workers < 0 || c.TimeoutMS < 0 {
		return fmt.Errorf("notify: queue_size, workers and timeout_ms must not be negative")
	}
	return nil
}

// Timeout returns the per-send timeout.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}
