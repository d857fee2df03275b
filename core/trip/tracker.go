// Package trip derives trips from ignition events and keeps per-vehicle trip
// history.
package trip

import (
	"context"
	"errors"
	"sync"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/telematics/core/model"
)

// ErrNotFound is returned for vehicles the tracker has never seen.
var ErrNotFound = errors.New("no trip data for vehicle")

// TransitionKind describes what an applied event did to the trip state.
type TransitionKind int

const (
	TransitionNone TransitionKind = iota
	TransitionStarted
	TransitionUpdated
	TransitionCompleted
)

func (k TransitionKind) String() string {
	switch k {
	case TransitionStarted:
		return "started"
	case TransitionUpdated:
		return "updated"
	case TransitionCompleted:
		return "completed"
	default:
		return "none"
	}
}

// Transition is the result of Apply. Active is set for started and updated
// trips, Completed for closed ones.
type Transition struct {
	Kind      TransitionKind
	Active    *model.ActiveTrip
	Completed *model.CompletedTrip
}

// Summary is the trip view of a vehicle.
type Summary struct {
	VehicleID model.VehicleID
	History   []model.CompletedTrip
	Active    *model.ActiveTrip
}

type vehicle struct {
	mu      sync.Mutex
	machine *machine
	active  *model.ActiveTrip
	history []model.CompletedTrip
	last    *model.CompletedTrip
}

// Tracker keeps one trip state machine per vehicle.
type Tracker struct {
	mu       sync.RWMutex
	vehicles map[model.VehicleID]*vehicle
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{vehicles: make(map[model.VehicleID]*vehicle)}
}

func (t *Tracker) get(id model.VehicleID) (*vehicle, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.vehicles[id]
	return v, ok
}

func (t *Tracker) getOrCreate(id model.VehicleID) *vehicle {
	if v, ok := t.get(id); ok {
		return v
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if v, ok := t.vehicles[id]; ok {
		return v
	}
	v := &vehicle{}
	v.machine = newMachine(v)
	t.vehicles[id] = v
	return v
}

// Apply folds an accepted event into the trip state of its vehicle. alerts
// are the alerts raised for ev and are attributed to the active trip.
func (t *Tracker) Apply(ctx context.Context, ev model.Event, alerts []model.Alert) (Transition, error) {
	v := t.getOrCreate(ev.VehicleID)
	v.mu.Lock()
	defer v.mu.Unlock()

	switch ev.Type {
	case model.EventIgnitionOn:
		ok, err := v.machine.fire(ctx, string(model.EventIgnitionOn), ev)
		if err != nil || !ok {
			return Transition{}, err
		}
		a := cloneActive(v.active)
		return Transition{Kind: TransitionStarted, Active: a}, nil
	case model.EventIgnitionOff:
		ok, err := v.machine.fire(ctx, string(model.EventIgnitionOff), ev)
		if err != nil || !ok {
			return Transition{}, err
		}
		done := *v.last
		v.last = nil
		return Transition{Kind: TransitionCompleted, Completed: &done}, nil
	default:
		if v.active == nil {
			return Transition{}, nil
		}
		if ev.Position != nil {
			v.active.LastKnownPosition = clonePosition(ev.Position)
		}
		v.active.LastUpdate = ev.Timestamp
		if ev.Reading != nil {
			v.active.Speeds = append(v.active.Speeds, ev.Reading.Speed)
		}
		for _, a := range alerts {
			v.active.Alerts = append(v.active.Alerts, a.Kind)
		}
		return Transition{Kind: TransitionUpdated, Active: cloneActive(v.active)}, nil
	}
}

// TripsFor returns the history and active trip of id.
func (t *Tracker) TripsFor(id model.VehicleID) (Summary, error) {
	v, ok := t.get(id)
	if !ok {
		return Summary{}, ErrNotFound
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	history := make([]model.CompletedTrip, len(v.history))
	copy(history, v.history)
	return Summary{VehicleID: id, History: history, Active: cloneActive(v.active)}, nil
}

// State returns the state machine state of id, or StateNoTrip when unknown.
func (t *Tracker) State(id model.VehicleID) string {
	v, ok := t.get(id)
	if !ok {
		return StateNoTrip
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.machine.Current()
}

// ActiveCount returns the number of vehicles with an open trip.
func (t *Tracker) ActiveCount() int {
	t.mu.RLock()
	vehicles := make([]*vehicle, 0, len(t.vehicles))
	for _, v := range t.vehicles {
		vehicles = append(vehicles, v)
	}
	t.mu.RUnlock()
	n := 0
	for _, v := range vehicles {
		v.mu.Lock()
		if v.active != nil {
			n++
		}
		v.mu.Unlock()
	}
	return n
}

// Known returns the number of vehicles the tracker has seen.
func (t *Tracker) Known() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.vehicles)
}

func complete(a model.ActiveTrip, end time.Time) model.CompletedTrip {
	done := model.CompletedTrip{
		VehicleID:     a.VehicleID,
		StartTime:     a.StartTime,
		EndTime:       end,
		DurationMs:    end.Sub(a.StartTime).Milliseconds(),
		DistanceKm:    Distance(a.StartPosition, a.LastKnownPosition),
		StartPosition: a.StartPosition,
		EndPosition:   a.LastKnownPosition,
		Samples:       len(a.Speeds),
		AlertCount:    len(a.Alerts),
	}
	if len(a.Speeds) > 0 {
		done.AvgSpeedKmh = scalar.Round(stat.Mean(a.Speeds, nil), 2)
		done.MaxSpeedKmh = floats.Max(a.Speeds)
	}
	return done
}

func cloneActive(a *model.ActiveTrip) *model.ActiveTrip {
	if a == nil {
		return nil
	}
	c := *a
	c.StartPosition = clonePosition(a.StartPosition)
	c.LastKnownPosition = clonePosition(a.LastKnownPosition)
	c.Alerts = append([]model.AlertKind{}, a.Alerts...)
	c.Speeds = append([]float64(nil), a.Speeds...)
	return &c
}
