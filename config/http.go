package config

import "fmt"

// HTTPConfig configures the REST API.
type HTTPConfig struct {
	Addr string `json:"addr"`
	// APIKey, when set, must be sent in the X-API-Key header.
	APIKey            string `json:"api_key"`
	RecentLimit       int    `json:"recent_limit"`
	MaxRecentLimit    int    `json:"max_recent_limit"`
	MaxBodyBytes      int64  `json:"max_body_bytes"`
	ShutdownTimeoutMS int    `json:"shutdown_timeout_ms"`
}

// SetDefaults listens on :3000 and returns the last 10 events.
func (c *HTTPConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.RecentLimit == 0 {
		c.RecentLimit = 10
	}
	if c.MaxRecentLimit == 0 {
		c.MaxRecentLimit = 100
	}
	if c.MaxBodyBytes == 0 {
		c.MaxBodyBytes = 1 << 20
	}
	if c.ShutdownTimeoutMS == 0 {
		c.ShutdownTimeoutMS = 5000
	}
}

func (c HTTPConfig) Validate() error {
	if c.RecentLimit <= 0 || c.MaxRecentLimit < c.RecentLimit {
		return fmt.Errorf("http: recent_limit must be positive and not exceed max_recent_limit")
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("http: max_body_bytes must be positive")
	}
	return nil
}

// StoreConfig sizes the in-memory vehicle store.
type StoreConfig struct {
	Shards int `json:"shards"`
}

func (c *StoreConfig) SetDefaults() {
	if c.Shards == 0 {
		c.Shards = 32
	}
}

func (c StoreConfig) Validate() error {
	if c.Shards < 0 {
		return fmt.Errorf("store: shards must not be negative")
	}
	return nil
}
