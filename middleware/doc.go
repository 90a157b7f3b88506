// Package middleware provides the outgoing-request side of the session
// core: an http.RoundTripper that attaches the current access token and
// retries once after a forced refresh when the server rejects it.
//
// # What this package must NOT do
//
//   - Retry non-401 failures, or retry more than once.
//   - Replay requests whose body cannot be rewound.
package middleware
