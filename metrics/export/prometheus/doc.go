// Package prometheus renders goSession counters in Prometheus text
// exposition format. Counter names are prefixed gosession_*_total.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry — callers mount the
//     Handler.
//   - Mutate engine state.
package prometheus
