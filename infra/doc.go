// Package infra holds the adapters behind core interfaces: MQTT transport,
// metrics sinks, notifiers and the zerolog backed logger.
package infra
