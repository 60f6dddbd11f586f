// Package prometheus provides Prometheus collectors for accountlink metrics.
//
// [NewPrometheusExporter] accepts an [accountlink.Engine] and exposes an [http.Handler]
// that renders all accountlink counters and histograms in Prometheus text exposition format.
// Counter names are prefixed accountlink_*_total; histograms are
// accountlink_initiate_latency_seconds and accountlink_approval_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry — callers mount the Handler.
//   - Mutate engine state.
package prometheus
