// Package infra holds the adapters behind the core interfaces: the zerolog
// logger, metrics sinks, the MQTT publisher, result stores and Sentry.
// Nothing under core imports these packages.
package infra
