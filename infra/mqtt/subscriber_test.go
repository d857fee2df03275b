package mqtt

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/telematics/core/processor"
	"github.com/kilianp07/telematics/core/validation"
)

type captureIngestor struct {
	mu       sync.Mutex
	payloads []validation.Payload
}

func (c *captureIngestor) Process(_ context.Context, p validation.Payload) processor.Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.payloads = append(c.payloads, p)
	return processor.Outcome{Accepted: p.VehicleID != nil}
}

func TestSubscriber_FillsVehicleFromTopic(t *testing.T) {
	mc := &mockClient{}
	withMock(t, mc)
	cli, err := Dial(Config{Broker: "tcp://localhost:1883", QoS: map[string]byte{"ingest": 1}}, "ingest")
	require.NoError(t, err)

	ing := &captureIngestor{}
	s := NewSubscriber(cli, IngestConfig{Enabled: true}, ing)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return mc.subscriptions() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, DefaultIngestTopic, mc.subscribed[0].topic)
	assert.Equal(t, byte(1), mc.subscribed[0].qos)

	mc.handler(nil, mockMessage{topic: "telemetry/CAR-1234/events", p: []byte(`{"type":"ignition_on","timestamp":"2024-05-01T10:00:00Z"}`)})
	mc.handler(nil, mockMessage{topic: "telemetry/CAR-1234/events", p: []byte(`{"vehicleId":"BUS-0001","timestamp":"2024-05-01T10:00:00Z"}`)})
	mc.handler(nil, mockMessage{topic: "telemetry/CAR-1234/events", p: []byte(`not json`)})

	cancel()
	require.NoError(t, <-done)

	ing.mu.Lock()
	defer ing.mu.Unlock()
	require.Len(t, ing.payloads, 2, "malformed payloads are discarded")
	assert.Equal(t, "CAR-1234", ing.payloads[0].VehicleID)
	assert.Equal(t, "BUS-0001", ing.payloads[1].VehicleID, "payload id wins over topic")
}

func TestVehicleFromTopic(t *testing.T) {
	assert.Equal(t, "CAR-1234", vehicleFromTopic("telemetry/CAR-1234/events"))
	assert.Equal(t, "", vehicleFromTopic("telemetry"))
}
