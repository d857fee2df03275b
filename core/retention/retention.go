// Package retention removes old events from the vehicle store.
package retention

import (
	"context"
	"fmt"
	"time"

	"github.com/kilianp07/telematics/core/events"
	"github.com/kilianp07/telematics/core/logger"
	"github.com/kilianp07/telematics/internal/eventbus"
)

// Config bounds how long events are kept.
type Config struct {
	MaxAgeDays      int `json:"max_age_days"`
	IntervalMinutes int `json:"interval_minutes"`
}

// SetDefaults keeps 30 days and sweeps hourly.
func (c *Config) SetDefaults() {
	if c.MaxAgeDays == 0 {
		c.MaxAgeDays = 30
	}
	if c.IntervalMinutes == 0 {
		c.IntervalMinutes = 60
	}
}

// Validate rejects a negative max age. A non-positive interval disables the
// periodic sweep.
func (c Config) Validate() error {
	if c.MaxAgeDays < 0 {
		return fmt.Errorf("retention: max_age_days must not be negative")
	}
	return nil
}

// MaxAge returns the retention window.
func (c Config) MaxAge() time.Duration {
	return time.Duration(c.MaxAgeDays) * 24 * time.Hour
}

// Store is the part of the vehicle store the sweeper needs.
type Store interface {
	SweepOlderThan(cutoff time.Time) int
}

// Sweeper removes events older than the retention window.
type Sweeper struct {
	store    Store
	maxAge   time.Duration
	interval time.Duration
	bus      eventbus.EventBus
	log      logger.Logger
	now      func() time.Time
}

// NewSweeper returns a sweeper for store. bus may be nil.
func NewSweeper(store Store, cfg Config, bus eventbus.EventBus, log logger.Logger) *Sweeper {
	cfg.SetDefaults()
	if bus == nil {
		bus = eventbus.Nop{}
	}
	return &Sweeper{
		store:    store,
		maxAge:   cfg.MaxAge(),
		interval: time.Duration(cfg.IntervalMinutes) * time.Minute,
		bus:      bus,
		log:      log,
		now:      time.Now,
	}
}

// Cutoff returns the instant before which events are removed.
func (s *Sweeper) Cutoff() time.Time {
	return s.now().UTC().Add(-s.maxAge)
}

// Sweep removes events older than the retention window.
func (s *Sweeper) Sweep() int {
	return s.SweepBefore(s.Cutoff())
}

// SweepBefore removes events older than cutoff.
func (s *Sweeper) SweepBefore(cutoff time.Time) int {
	removed := s.store.SweepOlderThan(cutoff)
	s.log.Infof("retention sweep removed %d events older than %s", removed, cutoff.Format(time.RFC3339))
	s.bus.Publish(events.SweepCompleted{Cutoff: cutoff, Removed: removed})
	return removed
}

// Run sweeps every interval until ctx is done. It returns immediately when
// the interval is not positive.
func (s *Sweeper) Run(ctx context.Context) error {
	if s.interval <= 0 {
		return nil
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Sweep()
		}
	}
}
