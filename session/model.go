package session

import (
	"errors"

	"github.com/MrEthical07/goSession/token"
)

// PersistentStore is the string-keyed, string-valued, synchronous storage
// boundary the record is persisted through. The second return of Get reports
// key presence; errors indicate storage faults (quota, availability), not
// missing keys.
type PersistentStore interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
}

// SecurityLevel classifies how a session was established.
type SecurityLevel uint8

const (
	// SecurityBasic marks a session from the standard login flow.
	SecurityBasic SecurityLevel = iota
	// SecurityEnhanced marks a session from a step-up flow.
	SecurityEnhanced
)

// Record is the token pair plus issuance metadata. A Record is either fully
// present or fully absent; partial state is treated as corrupt and
// discarded by the store.
type Record struct {
	AccessToken  string
	RefreshToken string

	// IssuedAt and ExpiresAt are unix seconds. ExpiresAt is authoritative
	// for staleness; IssuedAt bounds absolute age.
	IssuedAt  int64
	ExpiresAt int64

	SessionID string

	// Fingerprint is the environment digest bound at issuance time.
	Fingerprint string

	SecurityLevel SecurityLevel
}

var errInvalidRecord = errors.New("invalid session record")

// Validate checks structural integrity of every field. The access token must
// parse; everything else must be present and internally consistent.
func (r *Record) Validate() error {
	if r == nil {
		return errInvalidRecord
	}
	if err := token.Validate(r.AccessToken); err != nil {
		return err
	}
	if r.RefreshToken == "" {
		return errInvalidRecord
	}
	if r.IssuedAt <= 0 || r.ExpiresAt <= 0 || r.ExpiresAt < r.IssuedAt {
		return errInvalidRecord
	}
	if r.SessionID == "" || r.Fingerprint == "" {
		return errInvalidRecord
	}
	if r.SecurityLevel > SecurityEnhanced {
		return errInvalidRecord
	}
	return nil
}

// Clone returns an independent copy so callers cannot mutate store state.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := *r
	return &out
}
