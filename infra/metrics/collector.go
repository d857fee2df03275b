package metrics

import (
	"context"
	"time"

	"github.com/kilianp07/telematics/core/events"
	coremetrics "github.com/kilianp07/telematics/core/metrics"
	"github.com/kilianp07/telematics/infra/logger"
	"github.com/kilianp07/telematics/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and records the events
// into sink. It stops when the context is canceled or the bus is closed. The
// returned channel is closed once the collector has exited.
func StartEventCollector(ctx context.Context, bus eventbus.EventBus, sink coremetrics.MetricsSink, log logger.Logger) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || sink == nil {
		close(done)
		return done
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if err := record(sink, ev); err != nil {
					log.Warnf("record %T: %v", ev, err)
				}
			}
		}
	}()
	return done
}

func record(sink coremetrics.MetricsSink, ev eventbus.Event) error {
	now := time.Now().UTC()
	switch e := ev.(type) {
	case events.EventProcessed:
		return sink.RecordEvent(coremetrics.EventRecord{
			VehicleID: e.VehicleID,
			Type:      e.Type,
			Accepted:  e.Accepted,
			Reason:    e.Reason,
			Warnings:  e.Warnings,
			Latency:   e.Latency,
			Time:      now,
		})
	case events.AlertRaised:
		if r, ok := sink.(coremetrics.AlertRecorder); ok {
			return r.RecordAlert(e.Alert)
		}
	case events.TripStarted:
		if r, ok := sink.(coremetrics.TripRecorder); ok {
			return r.RecordTrip(coremetrics.TripRecord{VehicleID: e.Trip.VehicleID, Started: true, Time: now})
		}
	case events.TripCompleted:
		if r, ok := sink.(coremetrics.TripRecorder); ok {
			trip := e.Trip
			return r.RecordTrip(coremetrics.TripRecord{VehicleID: trip.VehicleID, Completed: &trip, Time: now})
		}
	case events.DeliveryResult:
		if r, ok := sink.(coremetrics.DeliveryRecorder); ok {
			errStr := ""
			if e.Err != nil {
				errStr = e.Err.Error()
			}
			return r.RecordDelivery(coremetrics.DeliveryRecord{
				VehicleID: e.VehicleID,
				Kind:      e.Kind,
				Delivered: e.Delivered,
				Dropped:   e.Dropped,
				Error:     errStr,
				Latency:   e.Latency,
				Time:      now,
			})
		}
	case events.SweepCompleted:
		if r, ok := sink.(coremetrics.SweepRecorder); ok {
			return r.RecordSweep(coremetrics.SweepRecord{Cutoff: e.Cutoff, Removed: e.Removed, Time: now})
		}
	}
	return nil
}
