package trip

import (
	"context"
	"errors"

	"github.com/looplab/fsm"

	"github.com/kilianp07/telematics/core/model"
)

const (
	StateNoTrip = "no_trip"
	StateActive = "active"
)

// machine drives the trip lifecycle of one vehicle.
type machine struct {
	*fsm.FSM
	v *vehicle
}

func newMachine(v *vehicle) *machine {
	m := &machine{v: v}
	events := fsm.Events{
		{Name: string(model.EventIgnitionOn), Src: []string{StateNoTrip}, Dst: StateActive},
		{Name: string(model.EventIgnitionOff), Src: []string{StateActive}, Dst: StateNoTrip},
	}
	callbacks := fsm.Callbacks{
		"enter_" + StateActive: m.open,
		"leave_" + StateActive: m.close,
	}
	m.FSM = fsm.NewFSM(StateNoTrip, events, callbacks)
	return m
}

func (m *machine) open(_ context.Context, e *fsm.Event) {
	ev := e.Args[0].(model.Event)
	m.v.active = &model.ActiveTrip{
		VehicleID:     ev.VehicleID,
		StartTime:     ev.Timestamp,
		StartPosition: clonePosition(ev.Position),
		LastUpdate:    ev.Timestamp,
		Alerts:        []model.AlertKind{},
	}
}

func (m *machine) close(_ context.Context, e *fsm.Event) {
	ev := e.Args[0].(model.Event)
	if m.v.active == nil {
		return
	}
	done := complete(*m.v.active, ev.Timestamp)
	m.v.history = append(m.v.history, done)
	m.v.active = nil
	m.v.last = &done
}

// fire runs the named event. Events that are not allowed from the current
// state report false without error.
func (m *machine) fire(ctx context.Context, name string, ev model.Event) (bool, error) {
	err := m.Event(ctx, name, ev)
	if err == nil {
		return true, nil
	}
	var invalid fsm.InvalidEventError
	var noTransition fsm.NoTransitionError
	if errors.As(err, &invalid) || errors.As(err, &noTransition) {
		return false, nil
	}
	return false, err
}

func clonePosition(p *model.Position) *model.Position {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}
