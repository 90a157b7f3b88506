// Package session owns the persisted token record: its model, a versioned
// binary codec, and a store over the injected key-value boundary.
//
// # Atomicity
//
// The record is persisted as one base64 blob under a single key, so a reader
// can never observe a half-written record. A legacy multi-key layout from an
// earlier storage format is migrated to the blob on first load and its keys
// removed.
//
// # Failure posture
//
// The store fails closed: any field that does not validate discards the
// entire record, and storage faults are downgraded to "no record" rather
// than propagated raw.
//
// # What this package must NOT do
//
//   - Decide token freshness (expiry buffer and age ceiling are Engine
//     policy).
//   - Emit events or touch security state.
package session
