// Package otel publishes goSeal Engine metrics through an OpenTelemetry Meter.
//
// Counters become Int64ObservableCounter instruments. The verification
// latency histogram becomes a cumulative bucket gauge with an "le" attribute
// plus a count gauge. One callback reads the Engine snapshot per collection.
// The caller owns the MeterProvider.
package otel
