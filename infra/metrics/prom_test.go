package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/kilianp07/telematics/core/metrics"
	"github.com/kilianp07/telematics/core/model"
)

func TestPromSink_Records(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	require.NoError(t, sink.RecordEvent(coremetrics.EventRecord{Type: model.EventData, Accepted: true, Warnings: 1, Latency: time.Millisecond}))
	require.NoError(t, sink.RecordEvent(coremetrics.EventRecord{Accepted: false}))
	require.NoError(t, sink.RecordAlert(model.Alert{Kind: model.AlertOverheating, Severity: model.SeverityCritical}))
	require.NoError(t, sink.RecordTrip(coremetrics.TripRecord{Started: true}))
	require.NoError(t, sink.RecordTrip(coremetrics.TripRecord{Completed: &model.CompletedTrip{DistanceKm: 3}}))
	require.NoError(t, sink.RecordDelivery(coremetrics.DeliveryRecord{Kind: model.AlertSpeeding, Delivered: true}))
	require.NoError(t, sink.RecordDelivery(coremetrics.DeliveryRecord{Kind: model.AlertSpeeding, Dropped: true}))
	require.NoError(t, sink.RecordSweep(coremetrics.SweepRecord{Removed: 4}))

	assert.Equal(t, 1.0, testutil.ToFloat64(sink.events.WithLabelValues("data", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.events.WithLabelValues("unknown", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.warnings))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.alerts.WithLabelValues("overheating", "critical", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.trips.WithLabelValues("started")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.trips.WithLabelValues("completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.notifications.WithLabelValues("speeding", "delivered")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.notifications.WithLabelValues("speeding", "dropped")))
	assert.Equal(t, 4.0, testutil.ToFloat64(sink.swept))
}

func TestPromSink_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)
	second, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	require.NoError(t, first.RecordSweep(coremetrics.SweepRecord{Removed: 2}))
	assert.Equal(t, 2.0, testutil.ToFloat64(second.swept))
}

func TestPromSink_UnknownTypesShareOneSeries(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	require.NoError(t, sink.RecordEvent(coremetrics.EventRecord{Type: "foo1", Latency: time.Millisecond}))
	require.NoError(t, sink.RecordEvent(coremetrics.EventRecord{Type: "foo2", Latency: time.Millisecond}))

	assert.Equal(t, 1, testutil.CollectAndCount(sink.events))
	assert.Equal(t, 2.0, testutil.ToFloat64(sink.events.WithLabelValues("unknown", "false")))
	assert.Equal(t, 1, testutil.CollectAndCount(sink.processing))
}
