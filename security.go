package goSession

import (
	"context"
	"errors"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/MrEthical07/goSession/session"
)

const breachMarkerKeySuffix = ".breach_until"

// securityMonitor owns fingerprint-mismatch accounting, breach declaration
// with a persisted cooldown marker, and the periodic structural
// re-validation task.
//
// Invariant: a declared breach clears the store in the same critical
// section, so breach=true implies no record is retrievable.
type securityMonitor struct {
	cfg       SecurityConfig
	store     *session.Store
	kv        PersistentStore
	markerKey string
	events    *eventDispatcher
	metrics   *Metrics
	navigator Navigator
	now       func() time.Time

	mu         sync.Mutex
	mismatches int
	breach     bool
	breachAt   time.Time

	taskOnce sync.Once
	taskDone chan struct{}
	taskWG   sync.WaitGroup
}

func newSecurityMonitor(
	cfg SecurityConfig,
	store *session.Store,
	kv PersistentStore,
	prefix string,
	events *eventDispatcher,
	metrics *Metrics,
	navigator Navigator,
	now func() time.Time,
) *securityMonitor {
	m := &securityMonitor{
		cfg:       cfg,
		store:     store,
		kv:        kv,
		markerKey: prefix + breachMarkerKeySuffix,
		events:    events,
		metrics:   metrics,
		navigator: navigator,
		now:       now,
		taskDone:  make(chan struct{}),
	}
	m.restoreMarker()
	return m
}

// restoreMarker resumes a persisted cooldown after a reload. An expired
// marker is removed rather than honored.
func (m *securityMonitor) restoreMarker() {
	raw, ok, err := m.kv.Get(m.markerKey)
	if err != nil || !ok {
		return
	}
	until, perr := strconv.ParseInt(raw, 10, 64)
	if perr != nil || !m.now().Before(time.Unix(until, 0)) {
		if rerr := m.kv.Remove(m.markerKey); rerr != nil {
			log.Print("goSession: breach marker removal failed")
		}
		return
	}

	m.mu.Lock()
	m.breach = true
	m.breachAt = time.Unix(until, 0).Add(-m.cfg.CooldownDuration)
	m.mu.Unlock()

	// Tokens were wiped at declaration time; re-clear in case storage was
	// edited while the cooldown marker survived.
	m.store.Clear()
}

// OnMismatch records one fingerprint mismatch and returns the running count.
// At the threshold it declares a breach.
func (m *securityMonitor) OnMismatch(ctx context.Context, sessionID string) int {
	m.metrics.Inc(MetricFingerprintMismatch)

	m.mu.Lock()
	m.mismatches++
	count := m.mismatches
	m.mu.Unlock()

	m.events.Publish(ctx, Event{
		Timestamp: m.now(),
		Type:      EventFingerprintMismatch,
		SessionID: sessionID,
		Metadata:  map[string]string{"count": strconv.Itoa(count)},
	})

	if count >= m.cfg.MismatchThreshold {
		m.DeclareBreach(ctx, sessionID)
	}
	return count
}

// ResetMismatch clears the counter after a successful match or new
// issuance.
func (m *securityMonitor) ResetMismatch() {
	m.mu.Lock()
	m.mismatches = 0
	m.mu.Unlock()
}

// DeclareBreach wipes the store, persists the cooldown marker, and signals
// forced re-authentication. Idempotent while a breach is active.
func (m *securityMonitor) DeclareBreach(ctx context.Context, sessionID string) {
	now := m.now()

	m.mu.Lock()
	if m.breach {
		m.mu.Unlock()
		return
	}
	m.breach = true
	m.breachAt = now
	m.mismatches = 0
	m.mu.Unlock()

	m.store.Clear()
	until := now.Add(m.cfg.CooldownDuration).Unix()
	if err := m.kv.Set(m.markerKey, strconv.FormatInt(until, 10)); err != nil {
		log.Print("goSession: breach marker write failed")
		m.metrics.Inc(MetricStorageError)
	}

	m.metrics.Inc(MetricBreachDeclared)
	m.events.Publish(ctx, Event{
		Timestamp: now,
		Type:      EventSuspiciousActivity,
		SessionID: sessionID,
		Reason:    string(ReasonSecurityBreach),
	})
	m.navigator.ForceReauth(ReasonSecurityBreach)
}

// BreachActive reports whether the cooldown window is still blocking
// refresh and login attempts, lifting the block lazily on expiry.
func (m *securityMonitor) BreachActive() bool {
	m.mu.Lock()
	if !m.breach {
		m.mu.Unlock()
		return false
	}
	expired := m.now().Sub(m.breachAt) >= m.cfg.CooldownDuration
	if expired {
		m.breach = false
	}
	m.mu.Unlock()

	if expired {
		// The session still has to re-authenticate: only the attempt block
		// is lifted, the tokens stay wiped.
		if err := m.kv.Remove(m.markerKey); err != nil {
			log.Print("goSession: breach marker removal failed")
		}
		return false
	}
	return true
}

// CheckBreachExpiry is the opportunistic tick entry point.
func (m *securityMonitor) CheckBreachExpiry() {
	m.BreachActive()
}

// ValidateNow re-reads the persisted record and clears it when structurally
// corrupt — catches external tampering (manual storage edits) between
// ticks. Also advances breach expiry.
func (m *securityMonitor) ValidateNow(ctx context.Context) {
	m.metrics.Inc(MetricValidateSweep)
	m.CheckBreachExpiry()

	if _, err := m.store.Reload(); errors.Is(err, session.ErrRecordCorrupt) {
		m.store.Clear()
		m.metrics.Inc(MetricTokensCleared)
		m.events.Publish(ctx, Event{
			Timestamp: m.now(),
			Type:      EventTokensCleared,
			Reason:    "periodic_validation",
		})
	}
}

// startTask launches the periodic validation goroutine. No-op for a zero
// interval.
func (m *securityMonitor) startTask(interval time.Duration) {
	if interval <= 0 {
		return
	}
	m.taskWG.Add(1)
	go func() {
		defer m.taskWG.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.ValidateNow(context.Background())
			case <-m.taskDone:
				return
			}
		}
	}()
}

// Close cancels the periodic task. Safe to call more than once.
func (m *securityMonitor) Close() {
	m.taskOnce.Do(func() {
		close(m.taskDone)
	})
	m.taskWG.Wait()
}
