// Package otel binds goAuthClient engine metrics to an OpenTelemetry meter.
//
// Each counter becomes an Int64ObservableCounter and each histogram bucket an
// Int64ObservableGauge. One callback reads the engine snapshot per
// collection. Callers own the MeterProvider.
package otel
