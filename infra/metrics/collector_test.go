package metrics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/telematics/core/events"
	coremetrics "github.com/kilianp07/telematics/core/metrics"
	"github.com/kilianp07/telematics/core/model"
	"github.com/kilianp07/telematics/internal/eventbus"
)

type memSink struct {
	coremetrics.NopSink
	mu         sync.Mutex
	events     []coremetrics.EventRecord
	trips      []coremetrics.TripRecord
	deliveries []coremetrics.DeliveryRecord
	swept      int
}

func (m *memSink) RecordEvent(ev coremetrics.EventRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

func (m *memSink) RecordTrip(tr coremetrics.TripRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trips = append(m.trips, tr)
	return nil
}

func (m *memSink) RecordDelivery(d coremetrics.DeliveryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deliveries = append(m.deliveries, d)
	return nil
}

func (m *memSink) RecordSweep(s coremetrics.SweepRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.swept += s.Removed
	return nil
}

func TestStartEventCollector(t *testing.T) {
	bus := eventbus.New()
	sink := &memSink{}
	ctx, cancel := context.WithCancel(context.Background())
	done := StartEventCollector(ctx, bus, sink, nil)

	bus.Publish(events.EventProcessed{VehicleID: "CAR-1234", Type: model.EventData, Accepted: true})
	bus.Publish(events.TripStarted{Trip: model.ActiveTrip{VehicleID: "CAR-1234"}})
	bus.Publish(events.TripCompleted{Trip: model.CompletedTrip{VehicleID: "CAR-1234", DistanceKm: 4.2}})
	bus.Publish(events.DeliveryResult{VehicleID: "CAR-1234", Kind: model.AlertLowFuel, Err: errors.New("timeout")})
	bus.Publish(events.SweepCompleted{Removed: 3})

	require.Eventually(t, func() bool {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		return sink.swept == 3
	}, time.Second, 10*time.Millisecond)

	cancel()
	<-done

	sink.mu.Lock()
	defer sink.mu.Unlock()
	require.Len(t, sink.events, 1)
	assert.True(t, sink.events[0].Accepted)
	require.Len(t, sink.trips, 2)
	assert.True(t, sink.trips[0].Started)
	assert.Equal(t, 4.2, sink.trips[1].Completed.DistanceKm)
	require.Len(t, sink.deliveries, 1)
	assert.Equal(t, "timeout", sink.deliveries[0].Error)
}

func TestStartEventCollector_StopsOnBusClose(t *testing.T) {
	bus := eventbus.New()
	done := StartEventCollector(context.Background(), bus, coremetrics.NopSink{}, nil)
	bus.Close()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("collector did not stop")
	}
}
