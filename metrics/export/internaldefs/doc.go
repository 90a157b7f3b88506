// Package internaldefs holds the shared counter definitions consumed by the
// Prometheus and OTel exporters.
//
// # What this package must NOT do
//
//   - Be imported outside metrics/export.
//   - Read engine state; it is a pure name table.
package internaldefs
