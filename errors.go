package goSession

import "errors"

var (
	// ErrEngineNotReady is returned when a method is invoked on a nil or
	// partially constructed Engine.
	ErrEngineNotReady = errors.New("engine not ready")
	// ErrNoSession is returned when no structurally valid session record is
	// available. Breach lockouts also surface as ErrNoSession.
	ErrNoSession = errors.New("no valid session")
	// ErrInvalidTokenFormat is returned when an access token fails structural
	// validation (three base64url segments with decodable header and payload).
	ErrInvalidTokenFormat = errors.New("invalid token format")
	// ErrRefreshRateLimited is returned when a refresh is attempted within the
	// minimum interval after the previous completed attempt.
	ErrRefreshRateLimited = errors.New("refresh rate limited")
	// ErrRefreshTimeout is returned when a single refresh attempt exceeds the
	// attempt timeout. The condition is retryable up to the attempt cap.
	ErrRefreshTimeout = errors.New("refresh timed out")
	// ErrQueueTimeout is returned to an individual queued caller whose wait
	// exceeded the queue timeout. Other waiters are unaffected.
	ErrQueueTimeout = errors.New("refresh queue wait timed out")
	// ErrUnauthorized is returned when the transport rejects the refresh token
	// with 401 or 403. Fatal: the store is cleared and re-auth is forced.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrMalformedResponse is returned when the refresh transport produces a
	// structurally unusable payload. Fatal, no retry.
	ErrMalformedResponse = errors.New("malformed refresh response")
	// ErrSecurityLockout is returned when a refresh is attempted while a
	// declared breach cooldown is active.
	ErrSecurityLockout = errors.New("security lockout active")
	// ErrLoginLocked is returned when the advisory login guard has locked an
	// identifier.
	ErrLoginLocked = errors.New("login temporarily locked")
)
