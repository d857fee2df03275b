package retention

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/telematics/core/events"
	"github.com/kilianp07/telematics/infra/logger"
	"github.com/kilianp07/telematics/internal/eventbus"
)

type fakeStore struct {
	mu      sync.Mutex
	cutoffs []time.Time
}

func (f *fakeStore) SweepOlderThan(c time.Time) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cutoffs = append(f.cutoffs, c)
	return 2
}

func (f *fakeStore) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.cutoffs)
}

func TestSweeper_Cutoff(t *testing.T) {
	store := &fakeStore{}
	bus := eventbus.New()
	sub := bus.Subscribe()
	s := NewSweeper(store, Config{}, bus, logger.NopLogger{})
	now := time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	assert.Equal(t, 2, s.Sweep())
	require.Len(t, store.cutoffs, 1)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), store.cutoffs[0])

	ev := (<-sub).(events.SweepCompleted)
	assert.Equal(t, 2, ev.Removed)
}

func TestSweeper_RunTicks(t *testing.T) {
	store := &fakeStore{}
	s := NewSweeper(store, Config{}, nil, logger.NopLogger{})
	s.interval = 5 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	require.Eventually(t, func() bool { return store.calls() >= 2 }, time.Second, time.Millisecond)
	cancel()
	assert.NoError(t, <-done)
}

func TestSweeper_DisabledInterval(t *testing.T) {
	s := NewSweeper(&fakeStore{}, Config{IntervalMinutes: -1}, nil, logger.NopLogger{})
	assert.NoError(t, s.Run(context.Background()))
}

func TestConfig(t *testing.T) {
	var c Config
	c.SetDefaults()
	assert.Equal(t, 30*24*time.Hour, c.MaxAge())
	assert.NoError(t, c.Validate())
	assert.Error(t, Config{MaxAgeDays: -1}.Validate())
}
