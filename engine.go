package goSession

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goSession/session"
	"github.com/MrEthical07/goSession/token"
)

// Engine is the long-lived session core. Construct exactly one per client
// process through [Builder.Build]; all methods are safe for concurrent use
// afterwards. External callers interact exclusively through Engine — never
// by touching the persistent store directly.
type Engine struct {
	config    Config
	store     *session.Store
	refresher *refreshCoordinator
	monitor   *securityMonitor
	guard     *loginGuard
	events    *eventDispatcher
	metrics   *Metrics
	fp        *Fingerprinter
	navigator Navigator
	now       func() time.Time
}

// AccessToken returns a usable access token: structurally valid, outside
// the expiry buffer and age ceiling, and fingerprint-consistent. A stale
// token transparently drives a refresh; a missing, corrupt, or
// breach-locked session yields [ErrNoSession].
func (e *Engine) AccessToken(ctx context.Context) (string, error) {
	if e == nil {
		return "", ErrEngineNotReady
	}

	if e.monitor.BreachActive() {
		return "", ErrNoSession
	}

	rec, err := e.store.Current()
	if err != nil {
		if errors.Is(err, session.ErrRecordCorrupt) {
			e.clearWithEvent(ctx, "", "corrupt_record")
		}
		return "", ErrNoSession
	}

	if !e.checkFingerprint(ctx, rec) {
		return "", ErrNoSession
	}

	now := e.now()
	fresh := now.Before(time.Unix(rec.ExpiresAt, 0).Add(-e.config.Token.ExpiryBuffer)) &&
		now.Sub(time.Unix(rec.IssuedAt, 0)) < e.config.Token.MaxTokenAge
	if fresh {
		e.metrics.Inc(MetricTokenServed)
		return rec.AccessToken, nil
	}

	return e.refresher.Refresh(ctx, false)
}

// checkFingerprint compares the bound fingerprint with the current
// environment. Below the threshold a mismatch is tolerated (counted and
// reported); at the threshold the monitor declares a breach.
func (e *Engine) checkFingerprint(ctx context.Context, rec *session.Record) bool {
	current := e.fp.Generate()
	if current == rec.Fingerprint {
		e.monitor.ResetMismatch()
		return true
	}

	count := e.monitor.OnMismatch(ctx, rec.SessionID)
	if e.monitor.BreachActive() {
		return false
	}
	return count < e.config.Security.MismatchThreshold
}

// Refresh forces a pass through the refresh coordinator. force bypasses the
// rate-limit window and the staleness check, never a declared breach.
func (e *Engine) Refresh(ctx context.Context, force bool) (string, error) {
	if e == nil {
		return "", ErrEngineNotReady
	}
	return e.refresher.Refresh(ctx, force)
}

// StoreSession installs the token pair returned by the host's login call,
// binding the current environment fingerprint at issuance time.
func (e *Engine) StoreSession(ctx context.Context, resp *RefreshResponse) error {
	if e == nil {
		return ErrEngineNotReady
	}
	if err := validateRefreshResponse(resp); err != nil {
		if errors.Is(err, token.ErrMalformed) || errors.Is(err, ErrMalformedResponse) {
			return ErrInvalidTokenFormat
		}
		return err
	}
	if resp.RefreshToken == "" || resp.SessionID == "" {
		return ErrMalformedResponse
	}

	now := e.now()
	rec := &session.Record{
		AccessToken:   resp.AccessToken,
		RefreshToken:  resp.RefreshToken,
		IssuedAt:      now.Unix(),
		ExpiresAt:     now.Unix() + resp.ExpiresIn,
		SessionID:     resp.SessionID,
		Fingerprint:   e.fp.Generate(),
		SecurityLevel: e.config.Token.DefaultSecurityLevel,
	}

	if err := e.store.Save(rec); err != nil {
		if errors.Is(err, session.ErrStoreWrite) {
			e.metrics.Inc(MetricStorageError)
		} else {
			return ErrInvalidTokenFormat
		}
	}

	e.monitor.ResetMismatch()
	e.metrics.Inc(MetricTokenStored)
	e.events.Publish(ctx, Event{
		Timestamp: now,
		Type:      EventTokenStored,
		SessionID: rec.SessionID,
	})
	return nil
}

// ClearSession wipes the persisted record and in-memory state.
func (e *Engine) ClearSession(ctx context.Context) {
	if e == nil {
		return
	}
	e.clearWithEvent(ctx, e.store.SessionID(), "explicit_clear")
}

func (e *Engine) clearWithEvent(ctx context.Context, sessionID, reason string) {
	e.store.Clear()
	e.metrics.Inc(MetricTokensCleared)
	e.events.Publish(ctx, Event{
		Timestamp: e.now(),
		Type:      EventTokensCleared,
		SessionID: sessionID,
		Reason:    reason,
	})
}

// HasValidSession reports structural presence of both tokens, independent
// of expiry: an access-expired but refresh-valid session is repairable.
func (e *Engine) HasValidSession() bool {
	if e == nil {
		return false
	}
	return e.store.HasValidSession()
}

// SessionID returns the current session id, or "".
func (e *Engine) SessionID() string {
	if e == nil {
		return ""
	}
	return e.store.SessionID()
}

// Fingerprint returns the current environment digest.
func (e *Engine) Fingerprint() string {
	if e == nil {
		return ""
	}
	return e.fp.Generate()
}

// CheckLogin rejects a login attempt for a locked identifier before any
// network call is made.
func (e *Engine) CheckLogin(identifier string) error {
	if e == nil {
		return ErrEngineNotReady
	}
	if e.monitor.BreachActive() {
		return ErrSecurityLockout
	}
	if locked, _ := e.guard.IsLocked(identifier); locked {
		return ErrLoginLocked
	}
	return nil
}

// RecordLoginFailure counts a failed login for the identifier and reports
// whether it is now locked.
func (e *Engine) RecordLoginFailure(identifier string) bool {
	if e == nil {
		return false
	}
	return e.guard.RecordFailure(identifier)
}

// RecordLoginSuccess resets the identifier's failure state.
func (e *Engine) RecordLoginSuccess(identifier string) {
	if e == nil {
		return
	}
	e.guard.RecordSuccess(identifier)
}

// LoginLocked reports the advisory lock state and the remaining lockout for
// user messaging.
func (e *Engine) LoginLocked(identifier string) (bool, time.Duration) {
	if e == nil {
		return false, 0
	}
	return e.guard.IsLocked(identifier)
}

// LoginAttempts returns the current failure count for an identifier.
func (e *Engine) LoginAttempts(identifier string) int {
	if e == nil {
		return 0
	}
	return e.guard.Attempts(identifier)
}

// Subscribe registers an event handler and returns its unsubscribe
// function. Handlers run in subscription order; a panicking handler never
// blocks the others.
func (e *Engine) Subscribe(fn func(Event)) func() {
	if e == nil {
		return func() {}
	}
	return e.events.Subscribe(fn)
}

// ValidateNow re-validates the persisted record immediately. Hosts call it
// on visibility regain in addition to the periodic task.
func (e *Engine) ValidateNow(ctx context.Context) {
	if e == nil {
		return
	}
	e.monitor.ValidateNow(ctx)
}

// BreachActive reports whether a declared breach cooldown is in effect.
func (e *Engine) BreachActive() bool {
	if e == nil {
		return false
	}
	return e.monitor.BreachActive()
}

// MetricsSnapshot copies all counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Snapshot()
}

// EventsDropped reports events discarded by dispatcher backpressure.
func (e *Engine) EventsDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.events.Dropped()
}

// Close cancels the periodic validation task and drains the event
// dispatcher. The Engine must not be used afterwards.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.monitor.Close()
	e.events.Close()
}
