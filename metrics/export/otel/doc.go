// Package otel bridges goSession counters into an OpenTelemetry meter as
// observable instruments fed from snapshots on each collection.
//
// # What this package must NOT do
//
//   - Own an SDK or exporter pipeline; callers bring their own meter.
//   - Push metrics; collection is pull-only via the registered callback.
package otel
