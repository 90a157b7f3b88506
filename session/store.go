package session

import (
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"
)

var (
	// ErrNoRecord indicates no session record is persisted. Storage faults
	// are downgraded to ErrNoRecord after logging.
	ErrNoRecord = errors.New("no session record")
	// ErrRecordCorrupt indicates a persisted record failed structural
	// validation and was discarded.
	ErrRecordCorrupt = errors.New("corrupt session record")
	// ErrStoreWrite wraps persistence faults on save.
	ErrStoreWrite = errors.New("session store write failed")
)

const recordKeySuffix = ".record"

// Legacy multi-key layout from the pre-blob storage format. Load migrates it
// once; Clear always removes these keys so stale fragments cannot survive a
// logout.
var legacyKeys = []string{
	"auth_access_token",
	"auth_refresh_token",
	"auth_token_issued",
	"auth_token_expiry",
	"auth_session_id",
	"auth_fingerprint",
	"auth_security_level",
}

// Store owns Record lifecycle over a PersistentStore. It keeps the last
// loaded record in memory; reads outside Reload never touch storage twice
// for the same state.
type Store struct {
	kv        PersistentStore
	recordKey string

	mu     sync.Mutex
	cached *Record
	loaded bool
}

// NewStore creates a Store namespaced by prefix.
func NewStore(kv PersistentStore, prefix string) *Store {
	return &Store{
		kv:        kv,
		recordKey: prefix + recordKeySuffix,
	}
}

// Current returns the in-memory record, loading from storage on first use.
func (s *Store) Current() (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded {
		if s.cached == nil {
			return nil, ErrNoRecord
		}
		return s.cached.Clone(), nil
	}
	return s.loadLocked()
}

// Reload discards the in-memory copy and re-reads storage. The periodic
// validation task uses it to catch external tampering between ticks.
func (s *Store) Reload() (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loaded = false
	s.cached = nil
	return s.loadLocked()
}

func (s *Store) loadLocked() (*Record, error) {
	s.loaded = true

	raw, ok, err := s.kv.Get(s.recordKey)
	if err != nil {
		log.Print("goSession: session store read failed")
		return nil, ErrNoRecord
	}
	if !ok {
		return s.migrateLegacyLocked()
	}

	blob, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		s.discardLocked()
		return nil, ErrRecordCorrupt
	}
	rec, err := Decode(blob)
	if err != nil {
		s.discardLocked()
		return nil, ErrRecordCorrupt
	}
	if err := rec.Validate(); err != nil {
		s.discardLocked()
		return nil, ErrRecordCorrupt
	}

	s.cached = rec
	return rec.Clone(), nil
}

// migrateLegacyLocked performs the one-time migration from the multi-key
// layout. A complete legacy record is re-saved as a blob; a partial one is
// discarded whole.
func (s *Store) migrateLegacyLocked() (*Record, error) {
	access, okAccess, err := s.kv.Get(legacyKeys[0])
	if err != nil || !okAccess {
		return nil, ErrNoRecord
	}

	rec := &Record{AccessToken: access}
	complete := true

	read := func(key string) string {
		v, ok, err := s.kv.Get(key)
		if err != nil || !ok {
			complete = false
			return ""
		}
		return v
	}

	rec.RefreshToken = read("auth_refresh_token")
	rec.SessionID = read("auth_session_id")
	rec.Fingerprint = read("auth_fingerprint")

	if v := read("auth_token_issued"); complete {
		if rec.IssuedAt, err = strconv.ParseInt(v, 10, 64); err != nil {
			complete = false
		}
	}
	if v := read("auth_token_expiry"); complete {
		if rec.ExpiresAt, err = strconv.ParseInt(v, 10, 64); err != nil {
			complete = false
		}
	}
	if v := read("auth_security_level"); complete && v == "enhanced" {
		rec.SecurityLevel = SecurityEnhanced
	}

	if !complete || rec.Validate() != nil {
		s.removeLegacyLocked()
		return nil, ErrRecordCorrupt
	}

	if err := s.persistLocked(rec); err != nil {
		log.Print("goSession: legacy record migration write failed")
	}
	s.removeLegacyLocked()

	s.cached = rec
	return rec.Clone(), nil
}

// Save validates and persists a record. The in-memory copy is installed even
// when the write fails, so a quota error degrades to a session that does not
// survive reload instead of no session at all.
func (s *Store) Save(rec *Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.loaded = true
	s.cached = rec.Clone()

	if err := s.persistLocked(rec); err != nil {
		log.Print("goSession: session store write failed")
		return fmt.Errorf("%w: %v", ErrStoreWrite, err)
	}
	return nil
}

func (s *Store) persistLocked(rec *Record) error {
	blob, err := Encode(rec)
	if err != nil {
		return err
	}
	return s.kv.Set(s.recordKey, base64.StdEncoding.EncodeToString(blob))
}

// Clear removes the record and every legacy key, and resets in-memory state.
// Idempotent; storage faults are logged, not propagated.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loaded = true
	s.cached = nil

	if err := s.kv.Remove(s.recordKey); err != nil {
		log.Print("goSession: session store clear failed")
	}
	s.removeLegacyLocked()
}

// HasValidSession reports whether both tokens are structurally present,
// independent of expiry: refresh can repair an access-expired session.
func (s *Store) HasValidSession() bool {
	rec, err := s.Current()
	return err == nil && rec.RefreshToken != ""
}

// SessionID returns the current record's session id, or "".
func (s *Store) SessionID() string {
	rec, err := s.Current()
	if err != nil {
		return ""
	}
	return rec.SessionID
}

func (s *Store) discardLocked() {
	s.cached = nil
	if err := s.kv.Remove(s.recordKey); err != nil {
		log.Print("goSession: corrupt record removal failed")
	}
}

func (s *Store) removeLegacyLocked() {
	for _, key := range legacyKeys {
		if err := s.kv.Remove(key); err != nil {
			log.Print("goSession: legacy key removal failed")
		}
	}
}
