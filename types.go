package goSession

import (
	"context"
	"fmt"

	"github.com/MrEthical07/goSession/session"
)

// PersistentStore is the injected key-value persistence boundary. It is
// string-keyed and string-valued, synchronous, and scoped to the client
// origin (browser local storage, a Redis database for kiosk frontends, an
// in-memory map for tests). Implementations may fail on quota or
// availability errors; every call site tolerates that.
type PersistentStore = session.PersistentStore

// SecurityLevel mirrors [session.SecurityLevel] for configuration.
type SecurityLevel = session.SecurityLevel

const (
	// SecurityBasic marks a session issued through the standard login flow.
	SecurityBasic = session.SecurityBasic
	// SecurityEnhanced marks a session issued through a step-up flow.
	SecurityEnhanced = session.SecurityEnhanced
)

// RefreshRequest carries the inputs of one refresh transport call.
type RefreshRequest struct {
	RefreshToken string
	Fingerprint  string
	SessionID    string
}

// RefreshResponse is the transport's successful refresh payload.
// RefreshToken is optional: an empty value keeps the previous refresh token.
type RefreshResponse struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken,omitempty"`
	ExpiresIn    int64     `json:"expiresIn"`
	SessionID    string    `json:"sessionId"`
	User         *UserInfo `json:"user,omitempty"`
}

// UserInfo is the optional user summary the refresh endpoint may return.
type UserInfo struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// RefreshTransport is the injected network boundary. The core treats
// transport failures and status >= 500 as retryable, 401/403 and malformed
// payloads as fatal.
type RefreshTransport interface {
	PostRefresh(ctx context.Context, req RefreshRequest) (*RefreshResponse, error)
}

// TransportError carries an HTTP-like status code for refresh failures.
// A zero StatusCode means the request never produced a response
// (connection failure, DNS, etc.) and is treated as retryable.
type TransportError struct {
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transport status %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("transport status %d", e.StatusCode)
}

func (e *TransportError) Unwrap() error { return e.Err }

// LogoutReason is carried on the forced re-authentication signal.
type LogoutReason string

const (
	// ReasonSessionExpired indicates the refresh token itself was rejected.
	ReasonSessionExpired LogoutReason = "session_expired"
	// ReasonRefreshFailed indicates refresh retries were exhausted.
	ReasonRefreshFailed LogoutReason = "refresh_failed"
	// ReasonSecurityBreach indicates a declared fingerprint breach.
	ReasonSecurityBreach LogoutReason = "security_breach"
)

// Navigator is the injected navigation collaborator. On fatal refresh
// failure or breach declaration the core calls ForceReauth exactly once per
// incident; the host redirects to its re-authentication entry point.
type Navigator interface {
	ForceReauth(reason LogoutReason)
}

type noopNavigator struct{}

func (noopNavigator) ForceReauth(LogoutReason) {}
