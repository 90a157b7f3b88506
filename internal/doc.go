// Package internal provides hashing primitives shared by the goSession root
// package (fingerprint digests, canonical signal joins).
//
// # What this package must NOT do
//
//   - Hold state or perform I/O.
//   - Be imported outside the goSession module.
package internal
