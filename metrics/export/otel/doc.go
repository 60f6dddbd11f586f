// Package otel bridges accountlink metrics into an OpenTelemetry meter.
//
// [NewOTelExporter] registers observable instruments mirroring the Prometheus
// metric set; the callback snapshots the engine on each collection. Bucket
// counts are exported as cumulative gauges because core snapshots carry raw
// bucket counters, not OTel histogram points.
//
// # What this package must NOT do
//
//   - Own the meter provider lifecycle — callers create and shut it down.
//   - Mutate engine state.
package otel
