package goSession

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/MrEthical07/goSession/session"
	"github.com/MrEthical07/goSession/token"
)

// refreshOutcome is the single result of one refresh cycle, observed by the
// leader and every queued waiter alike.
type refreshOutcome struct {
	accessToken string
	err         error
}

type refreshWaiter chan refreshOutcome

// refreshCoordinator enforces the single-flight invariant: at most one
// network refresh call is outstanding at any time, via explicit state flags
// rather than assumptions about the caller's scheduling.
type refreshCoordinator struct {
	cfg       RefreshConfig
	transport RefreshTransport
	store     *session.Store
	monitor   *securityMonitor
	fp        *Fingerprinter
	navigator Navigator
	events    *eventDispatcher
	metrics   *Metrics
	now       func() time.Time
	sleep     func(time.Duration)

	mu            sync.Mutex
	inFlight      bool
	waiters       []refreshWaiter
	lastCompleted time.Time
}

func newRefreshCoordinator(
	cfg RefreshConfig,
	transport RefreshTransport,
	store *session.Store,
	monitor *securityMonitor,
	fp *Fingerprinter,
	navigator Navigator,
	events *eventDispatcher,
	metrics *Metrics,
	now func() time.Time,
) *refreshCoordinator {
	return &refreshCoordinator{
		cfg:       cfg,
		transport: transport,
		store:     store,
		monitor:   monitor,
		fp:        fp,
		navigator: navigator,
		events:    events,
		metrics:   metrics,
		now:       now,
		sleep:     time.Sleep,
	}
}

// Refresh obtains a fresh access token. Callers arriving while a cycle is
// in flight join it and observe that cycle's outcome. force bypasses the
// rate-limit window but never a declared breach.
func (c *refreshCoordinator) Refresh(ctx context.Context, force bool) (string, error) {
	if c.monitor.BreachActive() {
		return "", ErrSecurityLockout
	}

	c.mu.Lock()
	if c.inFlight {
		w := make(refreshWaiter, 1)
		c.waiters = append(c.waiters, w)
		c.mu.Unlock()
		return c.wait(ctx, w)
	}
	if !force && !c.lastCompleted.IsZero() && c.now().Sub(c.lastCompleted) < c.cfg.MinInterval {
		c.mu.Unlock()
		c.metrics.Inc(MetricRefreshRateLimited)
		return "", ErrRefreshRateLimited
	}
	c.inFlight = true
	c.mu.Unlock()

	outcome := c.execute(ctx)

	c.mu.Lock()
	c.inFlight = false
	c.lastCompleted = c.now()
	waiters := c.waiters
	c.waiters = nil
	c.mu.Unlock()

	// Buffered channels: a waiter that already timed out simply never
	// drains its outcome.
	for _, w := range waiters {
		w <- outcome
	}

	return outcome.accessToken, outcome.err
}

// wait blocks a queued caller on the in-flight cycle. Its timeout or
// cancellation releases only this caller; the underlying refresh continues
// for the others.
func (c *refreshCoordinator) wait(ctx context.Context, w refreshWaiter) (string, error) {
	c.metrics.Inc(MetricRefreshJoined)

	timer := time.NewTimer(c.cfg.QueueTimeout)
	defer timer.Stop()

	select {
	case outcome := <-w:
		return outcome.accessToken, outcome.err
	case <-timer.C:
		c.removeWaiter(w)
		c.metrics.Inc(MetricQueueTimeout)
		return "", ErrQueueTimeout
	case <-ctx.Done():
		c.removeWaiter(w)
		return "", ctx.Err()
	}
}

func (c *refreshCoordinator) removeWaiter(w refreshWaiter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, candidate := range c.waiters {
		if candidate == w {
			c.waiters = append(c.waiters[:i], c.waiters[i+1:]...)
			return
		}
	}
}

// execute runs one refresh cycle: attempt loop with bounded retries, then
// either installs the new record or fails fatally.
func (c *refreshCoordinator) execute(ctx context.Context) refreshOutcome {
	rec, err := c.store.Current()
	if err != nil || rec.RefreshToken == "" {
		return refreshOutcome{err: ErrNoSession}
	}

	fingerprint := c.fp.Generate()
	req := RefreshRequest{
		RefreshToken: rec.RefreshToken,
		Fingerprint:  fingerprint,
		SessionID:    rec.SessionID,
	}

	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxRetryAttempts; attempt++ {
		if attempt > 1 {
			c.metrics.Inc(MetricRefreshRetry)
			c.sleep(c.backoffDelay(attempt - 1))
		}

		attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.AttemptTimeout)
		resp, err := c.transport.PostRefresh(attemptCtx, req)
		cancel()

		if err == nil {
			if verr := validateRefreshResponse(resp); verr != nil {
				lastErr = verr
				break
			}
			return c.install(ctx, rec, resp, fingerprint)
		}

		if ctx.Err() != nil {
			// Caller-level cancellation: not a server verdict, leave the
			// stored session alone.
			return refreshOutcome{err: ctx.Err()}
		}
		if errors.Is(err, context.DeadlineExceeded) {
			lastErr = fmt.Errorf("%w: %v", ErrRefreshTimeout, err)
			continue
		}
		if retryableTransportError(err) {
			lastErr = err
			continue
		}

		lastErr = classifyFatal(err)
		break
	}

	return c.failFatal(ctx, rec.SessionID, lastErr)
}

// install persists the refreshed record. An omitted rotated refresh token
// keeps the previous one; an omitted session id keeps the current session.
func (c *refreshCoordinator) install(ctx context.Context, prev *session.Record, resp *RefreshResponse, fingerprint string) refreshOutcome {
	now := c.now()

	next := &session.Record{
		AccessToken:   resp.AccessToken,
		RefreshToken:  resp.RefreshToken,
		IssuedAt:      now.Unix(),
		ExpiresAt:     now.Unix() + resp.ExpiresIn,
		SessionID:     resp.SessionID,
		Fingerprint:   fingerprint,
		SecurityLevel: prev.SecurityLevel,
	}
	if next.RefreshToken == "" {
		next.RefreshToken = prev.RefreshToken
	}
	if next.SessionID == "" {
		next.SessionID = prev.SessionID
	}

	if err := next.Validate(); err != nil {
		return c.failFatal(ctx, prev.SessionID, fmt.Errorf("%w: %v", ErrMalformedResponse, err))
	}

	if err := c.store.Save(next); err != nil {
		// The record is installed in memory; a persistence fault only costs
		// reload durability.
		c.metrics.Inc(MetricStorageError)
	}

	c.monitor.ResetMismatch()
	c.metrics.Inc(MetricRefreshSuccess)
	c.events.Publish(ctx, Event{
		Timestamp: now,
		Type:      EventTokenRefreshed,
		SessionID: next.SessionID,
	})

	return refreshOutcome{accessToken: next.AccessToken}
}

// failFatal clears the store, notifies every observer, and forces
// re-authentication.
func (c *refreshCoordinator) failFatal(ctx context.Context, sessionID string, cause error) refreshOutcome {
	if cause == nil {
		cause = ErrMalformedResponse
	}

	c.store.Clear()
	c.metrics.Inc(MetricRefreshFailure)
	c.metrics.Inc(MetricTokensCleared)

	reason := ReasonRefreshFailed
	if errors.Is(cause, ErrUnauthorized) {
		reason = ReasonSessionExpired
	}

	c.events.Publish(ctx, Event{
		Timestamp: c.now(),
		Type:      EventTokenRefreshFailed,
		SessionID: sessionID,
		Reason:    string(reason),
		Metadata:  map[string]string{"error": cause.Error()},
	})
	c.events.Publish(ctx, Event{
		Timestamp: c.now(),
		Type:      EventTokensCleared,
		SessionID: sessionID,
		Reason:    string(reason),
	})
	c.navigator.ForceReauth(reason)

	return refreshOutcome{err: cause}
}

func (c *refreshCoordinator) backoffDelay(retry int) time.Duration {
	mult := math.Pow(c.cfg.BackoffMultiplier, float64(retry-1))
	return time.Duration(float64(c.cfg.BackoffBase) * mult)
}

// validateRefreshResponse rejects structurally unusable payloads before any
// state is touched. Payload errors are fatal, never retried.
func validateRefreshResponse(resp *RefreshResponse) error {
	if resp == nil {
		return ErrMalformedResponse
	}
	if resp.ExpiresIn <= 0 {
		return fmt.Errorf("%w: non-positive expiresIn", ErrMalformedResponse)
	}
	if err := token.Validate(resp.AccessToken); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

// retryableTransportError: transport-level failures without a response and
// 5xx statuses are retryable; everything with a definitive 4xx verdict is
// not.
func retryableTransportError(err error) bool {
	var terr *TransportError
	if errors.As(err, &terr) {
		return terr.StatusCode == 0 || terr.StatusCode >= 500
	}
	// No HTTP-shaped verdict at all: connection-level failure.
	return true
}

func classifyFatal(err error) error {
	var terr *TransportError
	if errors.As(err, &terr) {
		switch terr.StatusCode {
		case 401, 403:
			return fmt.Errorf("%w: %v", ErrUnauthorized, err)
		}
	}
	return err
}
