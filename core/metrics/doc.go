// Package metrics defines the sinks that record ingest activity. Sinks like
// PromSink and InfluxSink record processed events, alerts, trips and
// notification deliveries and can be combined with NewMultiSink. The factory
// helpers return a MultiSink automatically when multiple sinks are
// configured.
package metrics
