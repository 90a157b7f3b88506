// Package goSession provides the client-side session token lifecycle and
// security-monitoring core for storefront applications: token persistence with
// structural validation, single-flight refresh coordination, device-fingerprint
// binding with breach detection, and advisory login-attempt lockout.
//
// The package is designed for concurrent callers inside one client process:
// Engine methods are safe to call from multiple goroutines after
// initialization through [Builder.Build].
//
// # Architecture boundaries
//
// goSession is the public surface. It exposes [Engine], [Builder], [Config],
// and value types (Event, MetricsSnapshot, RefreshResponse, etc.). Token
// encoding and persistence live in session/, structural token parsing in
// token/, and hashing helpers under internal/. Storage backends and the
// refresh transport are injected; goSession never issues tokens itself.
//
// # What this package must NOT do
//
//   - Talk to the network outside of the injected [RefreshTransport].
//   - Read or write the [PersistentStore] outside of session.Store and the
//     security/lockout marker keys it owns.
//   - Surface breach conditions as errors to callers — a declared breach
//     manifests as "no session" plus an out-of-band
//     [EventSuspiciousActivity] event.
//
// # Failure posture
//
// The core degrades to forced re-authentication, never to silent failure:
// fatal refresh errors clear the store and notify the injected [Navigator];
// storage faults downgrade to "no persisted session" instead of propagating.
package goSession
