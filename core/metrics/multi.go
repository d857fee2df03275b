package metrics

import (
	"errors"

	"github.com/kilianp07/telematics/core/model"
)

// MultiSink fans records out to multiple sinks. Sinks that do not implement
// an optional recorder are skipped for that record.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordEvent forwards to every sink and joins the errors.
func (m *MultiSink) RecordEvent(ev EventRecord) error {
	var errs []error
	for _, s := range m.Sinks {
		errs = append(errs, s.RecordEvent(ev))
	}
	return errors.Join(errs...)
}

func (m *MultiSink) RecordAlert(a model.Alert) error {
	var errs []error
	for _, s := range m.Sinks {
		if r, ok := s.(AlertRecorder); ok {
			errs = append(errs, r.RecordAlert(a))
		}
	}
	return errors.Join(errs...)
}

func (m *MultiSink) RecordTrip(tr TripRecord) error {
	var errs []error
	for _, s := range m.Sinks {
		if r, ok := s.(TripRecorder); ok {
			errs = append(errs, r.RecordTrip(tr))
		}
	}
	return errors.Join(errs...)
}

func (m *MultiSink) RecordDelivery(d DeliveryRecord) error {
	var errs []error
	for _, s := range m.Sinks {
		if r, ok := s.(DeliveryRecorder); ok {
			errs = append(errs, r.RecordDelivery(d))
		}
	}
	return errors.Join(errs...)
}

func (m *MultiSink) RecordSweep(sw SweepRecord) error {
	var errs []error
	for _, s := range m.Sinks {
		if r, ok := s.(SweepRecorder); ok {
			errs = append(errs, r.RecordSweep(sw))
		}
	}
	return errors.Join(errs...)
}

// Close releases every sink that holds resources.
func (m *MultiSink) Close() {
	for _, s := range m.Sinks {
		if c, ok := s.(interface{ Close() }); ok {
			c.Close()
		}
	}
}
