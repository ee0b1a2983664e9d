// Package factory provides a small generic registry used to instantiate
// modules from configuration. A module is a type string plus a map of raw
// settings; the factory registered for that type decodes the settings into
// a typed struct and returns the implementation.
//
// Metrics sinks are built this way:
//
//	metrics:
//	  sinks:
//	    - type: influx
//	      conf: {url: "http://influx:8086", org: theatre, bucket: rehearsals}
package factory
