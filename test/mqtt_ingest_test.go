package test

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/telematics/core/alert"
	"github.com/kilianp07/telematics/core/model"
	"github.com/kilianp07/telematics/core/notify"
	"github.com/kilianp07/telematics/core/processor"
	"github.com/kilianp07/telematics/core/trip"
	"github.com/kilianp07/telematics/core/vehiclestate"
	"github.com/kilianp07/telematics/infra/logger"
	"github.com/kilianp07/telematics/infra/mqtt"
	"github.com/kilianp07/telematics/test/util"
)

func startBroker(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("docker"); err != nil {
		t.Skip("docker not available")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	broker, cleanup, err := util.StartMosquitto(ctx)
	if err != nil {
		t.Skipf("mosquitto: %v", err)
	}
	t.Cleanup(cleanup)
	return broker
}

func stamp() string {
	return time.Now().UTC().Add(-time.Second).Format(time.RFC3339)
}

func TestMQTTIngestPublishesAlerts(t *testing.T) {
	broker := startBroker(t)
	cfg := mqtt.Config{Broker: broker, ClientID: "it", QoS: map[string]byte{"ingest": 1, "notify": 1}}

	ingest, err := mqtt.Dial(cfg, "ingest")
	require.NoError(t, err)
	defer ingest.Close()
	notifyCli, err := mqtt.Dial(cfg, "notify")
	require.NoError(t, err)
	defer notifyCli.Close()

	alerts := make(chan mqtt.Notification, 4)
	watcher, err := mqtt.Dial(cfg, "watcher")
	require.NoError(t, err)
	defer watcher.Close()
	require.NoError(t, watcher.Subscribe("vehicles/+/alerts", 1, func(_ paho.Client, msg paho.Message) {
		var n mqtt.Notification
		if json.Unmarshal(msg.Payload(), &n) != nil {
			return
		}
		select {
		case alerts <- n:
		default:
		}
	}))

	engine, err := alert.NewEngine(alert.Config{})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	dispatcher := notify.NewDispatcher(mqtt.NewNotifier(notifyCli, ""), notify.Config{}, logger.NopLogger{}, nil)
	dispatcher.Start(ctx)
	defer dispatcher.Stop()

	store := vehiclestate.NewMemoryStore(4)
	tracker := trip.NewTracker()
	proc := processor.New(store, engine, tracker, dispatcher, logger.NopLogger{})

	sub := mqtt.NewSubscriber(ingest, mqtt.IngestConfig{}, proc)
	done := make(chan error, 1)
	go func() { done <- sub.Run(ctx) }()

	// The vehicle id comes from the topic.
	payload := []byte(fmt.Sprintf(`{"type":"data","timestamp":%q,"lat":48.85,"lon":2.35,"speed":30,"fuelLevel":5,"engineTemp":90}`, stamp()))
	require.Eventually(t, func() bool {
		if err := watcher.Publish(ctx, "telemetry/LOW-0001/events", 1, payload); err != nil {
			return false
		}
		select {
		case n := <-alerts:
			assert.Equal(t, model.VehicleID("LOW-0001"), n.VehicleID)
			assert.Equal(t, model.AlertLowFuel, n.Kind)
			return true
		case <-time.After(500 * time.Millisecond):
			return false
		}
	}, 10*time.Second, 50*time.Millisecond)

	assert.GreaterOrEqual(t, store.Count("LOW-0001"), 1)

	cancel()
	require.NoError(t, <-done)
}

func TestMQTTIngestDropsMalformedPayloads(t *testing.T) {
	broker := startBroker(t)
	cfg := mqtt.Config{Broker: broker, ClientID: "it-malformed"}

	ingest, err := mqtt.Dial(cfg, "ingest")
	require.NoError(t, err)
	defer ingest.Close()
	pub, err := mqtt.Dial(cfg, "pub")
	require.NoError(t, err)
	defer pub.Close()

	engine, err := alert.NewEngine(alert.Config{})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	dispatcher := notify.NewDispatcher(notify.NopNotifier{}, notify.Config{}, logger.NopLogger{}, nil)
	dispatcher.Start(ctx)
	defer dispatcher.Stop()
	store := vehiclestate.NewMemoryStore(4)
	proc := processor.New(store, engine, trip.NewTracker(), dispatcher, logger.NopLogger{})

	go func() { _ = mqtt.NewSubscriber(ingest, mqtt.IngestConfig{}, proc).Run(ctx) }()

	bad := fmt.Sprintf(`{"type":"data","timestamp":%q,"lat":1,"lon":1,"speed":"fast","fuelLevel":1,"engineTemp":1}`, stamp())
	good := fmt.Sprintf(`{"type":"ignition_on","timestamp":%q,"lat":1,"lon":1}`, stamp())
	require.Eventually(t, func() bool {
		_ = pub.Publish(ctx, "telemetry/BAD-0001/events", 0, []byte(`{not json`))
		_ = pub.Publish(ctx, "telemetry/BAD-0001/events", 0, []byte(bad))
		_ = pub.Publish(ctx, "telemetry/OK-0001/events", 0, []byte(good))
		return store.Exists("OK-0001")
	}, 10*time.Second, 100*time.Millisecond)
	assert.False(t, store.Exists("BAD-0001"))
}
