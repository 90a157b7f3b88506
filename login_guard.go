package goSession

import (
	"encoding/json"
	"log"
	"strings"
	"sync"
	"time"
)

const loginAttemptKeyPrefix = ".login_attempts."

// attemptRecord is the persisted per-identifier failure state. Attempts
// reset only on success; lock expiry alone leaves them in place.
type attemptRecord struct {
	Attempts    int   `json:"attempts"`
	LockedUntil int64 `json:"locked_until,omitempty"`
}

// loginGuard tracks failed login attempts per identifier and applies a
// timed lockout. It is advisory only: fast local feedback that saves
// pointless network calls. Server-side rate limiting stays authoritative.
type loginGuard struct {
	cfg     LockoutConfig
	kv      PersistentStore
	prefix  string
	metrics *Metrics
	now     func() time.Time

	mu      sync.Mutex
	records map[string]*attemptRecord
}

func newLoginGuard(cfg LockoutConfig, kv PersistentStore, prefix string, metrics *Metrics, now func() time.Time) *loginGuard {
	return &loginGuard{
		cfg:     cfg,
		kv:      kv,
		prefix:  prefix,
		metrics: metrics,
		now:     now,
		records: make(map[string]*attemptRecord),
	}
}

func (g *loginGuard) key(identifier string) string {
	return g.prefix + loginAttemptKeyPrefix + normalizeIdentifier(identifier)
}

func normalizeIdentifier(identifier string) string {
	return strings.ToLower(strings.TrimSpace(identifier))
}

// RecordFailure counts one failed attempt and reports whether the
// identifier is now locked. Attempts arriving while already locked are
// rejected without further incrementing.
func (g *loginGuard) RecordFailure(identifier string) bool {
	if !g.cfg.Enabled || identifier == "" {
		return false
	}
	g.metrics.Inc(MetricLoginFailure)

	now := g.now()

	g.mu.Lock()
	defer g.mu.Unlock()

	rec := g.loadLocked(identifier)
	if rec.lockedAt(now) {
		return true
	}

	rec.Attempts++
	if rec.Attempts >= g.cfg.MaxLoginAttempts {
		rec.LockedUntil = now.Add(g.cfg.LockoutDuration).Unix()
		g.metrics.Inc(MetricLoginLockout)
	}
	g.persistLocked(identifier, rec)

	return rec.lockedAt(now)
}

// RecordSuccess resets the identifier: the only transition that zeroes the
// attempt counter.
func (g *loginGuard) RecordSuccess(identifier string) {
	if !g.cfg.Enabled || identifier == "" {
		return
	}
	g.metrics.Inc(MetricLoginSuccess)

	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.records, normalizeIdentifier(identifier))
	if g.cfg.PersistAttempts {
		if err := g.kv.Remove(g.key(identifier)); err != nil {
			log.Print("goSession: login attempt reset failed")
		}
	}
}

// IsLocked reports the lock state and remaining duration for user
// messaging.
func (g *loginGuard) IsLocked(identifier string) (bool, time.Duration) {
	if !g.cfg.Enabled || identifier == "" {
		return false, 0
	}

	now := g.now()

	g.mu.Lock()
	defer g.mu.Unlock()

	rec := g.loadLocked(identifier)
	if !rec.lockedAt(now) {
		return false, 0
	}
	return true, time.Unix(rec.LockedUntil, 0).Sub(now)
}

// Attempts returns the current failure count for an identifier.
func (g *loginGuard) Attempts(identifier string) int {
	if !g.cfg.Enabled || identifier == "" {
		return 0
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	return g.loadLocked(identifier).Attempts
}

func (r *attemptRecord) lockedAt(now time.Time) bool {
	return r.LockedUntil != 0 && now.Before(time.Unix(r.LockedUntil, 0))
}

func (g *loginGuard) loadLocked(identifier string) *attemptRecord {
	id := normalizeIdentifier(identifier)
	if rec, ok := g.records[id]; ok {
		return rec
	}

	rec := &attemptRecord{}
	if g.cfg.PersistAttempts {
		if raw, ok, err := g.kv.Get(g.key(identifier)); err == nil && ok {
			if jerr := json.Unmarshal([]byte(raw), rec); jerr != nil {
				rec = &attemptRecord{}
			}
		}
	}
	g.records[id] = rec
	return rec
}

// persistLocked writes through to storage; a fault degrades the guard to
// in-memory-only for this identifier.
func (g *loginGuard) persistLocked(identifier string, rec *attemptRecord) {
	if !g.cfg.PersistAttempts {
		return
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return
	}
	if err := g.kv.Set(g.key(identifier), string(raw)); err != nil {
		log.Print("goSession: login attempt write failed")
		g.metrics.Inc(MetricStorageError)
	}
}
