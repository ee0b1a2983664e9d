// Package metrics defines the sink contract for scheduling metrics. Sinks
// such as PromSink and InfluxSink record finished runs and search outcomes
// and can be combined with NewMultiSink. NewMetricsSink returns a MultiSink
// automatically when several sinks are configured.
package metrics
