// Package events defines the events published on the event bus by the
// ingest pipeline.
//
// Available event types:
//   - EventProcessed: a payload was accepted or rejected
//   - AlertRaised: the alert engine raised an alert
//   - TripStarted, TripCompleted: trip lifecycle transitions
//   - DeliveryResult: outcome of a notification delivery
//   - SweepCompleted: a retention sweep finished
package events
