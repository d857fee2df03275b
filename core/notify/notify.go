// Package notify forwards alerts to external notification sinks without
// blocking the ingest path.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/kilianp07/telematics/core/factory"
	"github.com/kilianp07/telematics/core/model"
)

// Notifier delivers a human readable alert message for a vehicle.
type Notifier interface {
	Send(ctx context.Context, vehicleID model.VehicleID, message string) error
}

// AlertNotifier is implemented by notifiers able to deliver the full alert.
// The dispatcher prefers it over Send.
type AlertNotifier interface {
	SendAlert(ctx context.Context, a model.Alert) error
}

// NopNotifier discards every message.
type NopNotifier struct{}

func (NopNotifier) Send(context.Context, model.VehicleID, string) error { return nil }

// MultiNotifier delivers to every notifier and joins their errors.
type MultiNotifier struct {
	Notifiers []Notifier
}

// NewMultiNotifier creates a MultiNotifier with the provided notifiers.
func NewMultiNotifier(n ...Notifier) *MultiNotifier {
	return &MultiNotifier{Notifiers: n}
}

// Close releases every notifier that holds a connection.
func (m *MultiNotifier) Close() {
	for _, n := range m.Notifiers {
		if c, ok := n.(interface{ Close() }); ok {
			c.Close()
		}
	}
}

func (m *MultiNotifier) Send(ctx context.Context, id model.VehicleID, msg string) error {
	var errs []error
	for _, n := range m.Notifiers {
		errs = append(errs, n.Send(ctx, id, msg))
	}
	return errors.Join(errs...)
}

func (m *MultiNotifier) SendAlert(ctx context.Context, a model.Alert) error {
	var errs []error
	for _, n := range m.Notifiers {
		errs = append(errs, deliver(ctx, n, a))
	}
	return errors.Join(errs...)
}

func deliver(ctx context.Context, n Notifier, a model.Alert) error {
	if an, ok := n.(AlertNotifier); ok {
		return an.SendAlert(ctx, a)
	}
	return n.Send(ctx, a.VehicleID, a.Message)
}

// DeliveryError reports a failed notification. It is logged and published
// but never returned to the submitter of the event.
type DeliveryError struct {
	VehicleID model.VehicleID
	Kind      model.AlertKind
	Err       error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver %s alert for %s: %v", e.Kind, e.VehicleID, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

var notifierRegistry = factory.NewRegistry[Notifier]()

// RegisterNotifier adds a notifier factory identified by name.
func RegisterNotifier(name string, f factory.Factory[Notifier]) error {
	return notifierRegistry.Register(name, f)
}

// NewNotifier creates a Notifier from the provided configuration.
func NewNotifier(cfgs []factory.ModuleConfig) (Notifier, error) {
	switch len(cfgs) {
	case 0:
		return NopNotifier{}, nil
	case 1:
		return notifierRegistry.Create(cfgs[0])
	}
	ns, err := notifierRegistry.CreateAll(cfgs)
	if err != nil {
		return nil, err
	}
	return NewMultiNotifier(ns...), nil
}
