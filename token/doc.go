// Package token performs structural validation of access tokens: three
// dot-separated base64url segments, a header decoding to {alg, typ}, and a
// payload carrying at minimum {id, email, exp, iat}. No other wire format is
// accepted.
//
// # What this package must NOT do
//
//   - Verify signatures. Cryptographic verification is the server's job; the
//     client core only needs to reject garbage and read expiry metadata.
//   - Trust the decoded claims for authorization decisions.
package token
