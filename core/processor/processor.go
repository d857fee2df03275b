// Package processor runs accepted telemetry through the store, the alert
// engine and the trip tracker.
package processor

import (
	"context"
	"errors"
	"time"

	"github.com/kilianp07/telematics/core/events"
	"github.com/kilianp07/telematics/core/logger"
	"github.com/kilianp07/telematics/core/model"
	"github.com/kilianp07/telematics/core/trip"
	"github.com/kilianp07/telematics/core/validation"
	"github.com/kilianp07/telematics/core/vehiclestate"
	"github.com/kilianp07/telematics/internal/eventbus"
	"github.com/kilianp07/telematics/internal/keylock"
)

// Evaluator raises alerts for an event.
type Evaluator interface {
	Evaluate(ev model.Event) []model.Alert
}

// TripApplier folds events into trip state.
type TripApplier interface {
	Apply(ctx context.Context, ev model.Event, alerts []model.Alert) (trip.Transition, error)
}

// AlertDispatcher hands alerts to the notification sink without blocking.
type AlertDispatcher interface {
	Dispatch(alerts []model.Alert)
}

// Outcome is the result of processing one payload.
type Outcome struct {
	Accepted  bool
	VehicleID model.VehicleID
	Type      model.EventType
	Event     model.Event
	Alerts    []model.Alert
	Warnings  []validation.Warning
	// Reason and Err describe a rejection.
	Reason string
	Err    error
	Trip   trip.Transition
}

// Processor is safe for concurrent use. Events of one vehicle are applied
// one at a time; events of different vehicles proceed in parallel.
type Processor struct {
	store    vehiclestate.Store
	alerts   Evaluator
	trips    TripApplier
	dispatch AlertDispatcher
	locks    *keylock.Striped
	bus      eventbus.EventBus
	log      logger.Logger
}

// Option customises a Processor.
type Option func(*Processor)

// WithBus publishes pipeline events on bus.
func WithBus(bus eventbus.EventBus) Option {
	return func(p *Processor) { p.bus = bus }
}

// WithLocks sets the number of lock stripes.
func WithLocks(n int) Option {
	return func(p *Processor) { p.locks = keylock.New(n) }
}

// New wires a processor. log must not be nil.
func New(store vehiclestate.Store, alerts Evaluator, trips TripApplier, dispatch AlertDispatcher, log logger.Logger, opts ...Option) *Processor {
	p := &Processor{
		store:    store,
		alerts:   alerts,
		trips:    trips,
		dispatch: dispatch,
		locks:    keylock.New(keylock.DefaultStripes),
		bus:      eventbus.Nop{},
		log:      log,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Process validates payload and, when accepted, records it and updates
// alerts and trips. A rejected payload leaves all state untouched.
func (p *Processor) Process(ctx context.Context, payload validation.Payload) Outcome {
	start := time.Now()
	ev, warnings, err := validation.Validate(payload)
	if err != nil {
		out := Outcome{Reason: err.Error(), Err: err}
		// only known types reach metric labels
		if declared := payload.DeclaredType(); declared != "" {
			if typ, perr := model.ParseEventType(declared); perr == nil {
				out.Type = typ
			}
		}
		if id, ok := payload.VehicleID.(string); ok {
			out.VehicleID = model.VehicleID(id)
		}
		p.log.Warnf("rejected %s event for %q: %v", out.Type, out.VehicleID, err)
		p.bus.Publish(events.EventProcessed{VehicleID: out.VehicleID, Type: out.Type, Reason: out.Reason, Latency: time.Since(start)})
		return out
	}
	for _, w := range warnings {
		p.log.Warnf("vehicle %s: %s", ev.VehicleID, w)
	}

	unlock := p.locks.Lock(string(ev.VehicleID))
	stored := p.store.Append(ev)
	var alerts []model.Alert
	if stored.Type == model.EventData {
		alerts = p.alerts.Evaluate(stored)
	}
	tr, trErr := p.trips.Apply(ctx, stored, alerts)
	unlock()

	if trErr != nil && !errors.Is(trErr, context.Canceled) {
		p.log.Errorf("trip update for %s: %v", stored.VehicleID, trErr)
	}
	p.logAlerts(alerts)
	p.logTrip(tr)
	p.dispatch.Dispatch(alerts)

	p.bus.Publish(events.EventProcessed{
		VehicleID: stored.VehicleID,
		Type:      stored.Type,
		Accepted:  true,
		Warnings:  len(warnings),
		Latency:   time.Since(start),
	})
	for _, a := range alerts {
		p.bus.Publish(events.AlertRaised{Alert: a})
	}
	switch tr.Kind {
	case trip.TransitionStarted:
		p.bus.Publish(events.TripStarted{Trip: *tr.Active})
	case trip.TransitionCompleted:
		p.bus.Publish(events.TripCompleted{Trip: *tr.Completed})
	}

	return Outcome{
		Accepted:  true,
		VehicleID: stored.VehicleID,
		Type:      stored.Type,
		Event:     stored,
		Alerts:    alerts,
		Warnings:  warnings,
		Trip:      tr,
	}
}

func (p *Processor) logAlerts(alerts []model.Alert) {
	for _, a := range alerts {
		if a.Severity == model.SeverityCritical {
			p.log.Errorf("ALERT: %s", a.Message)
			continue
		}
		p.log.Warnf("ALERT: %s", a.Message)
	}
}

func (p *Processor) logTrip(tr trip.Transition) {
	switch tr.Kind {
	case trip.TransitionStarted:
		p.log.Infof("trip started for %s", tr.Active.VehicleID)
	case trip.TransitionCompleted:
		t := tr.Completed
		p.log.Infof("trip ended for %s. Duration: %.3fs, Distance: %.2fkm", t.VehicleID, float64(t.DurationMs)/1000, t.DistanceKm)
	}
}
