package metrics

import "github.com/kilianp07/rehearsal/core/factory"

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
	// PrometheusAddr exposes /metrics on its own listener when set. The
	// serve command mounts /metrics on the API router instead.
	PrometheusAddr string `json:"prometheus_addr"`
}
