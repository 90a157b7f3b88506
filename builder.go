package goSession

import (
	"errors"
	"time"

	"github.com/MrEthical07/goSession/session"
)

// Builder assembles an [Engine] from its injected collaborators. A Builder
// is single-use: Build wires everything once and refuses reuse.
type Builder struct {
	config Config

	kv        PersistentStore
	transport RefreshTransport
	navigator Navigator
	probe     EnvironmentProbe
	sink      EventSink
	now       func() time.Time

	built bool
}

// New creates a Builder preloaded with the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the configuration. Zero fields keep their defaults.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = normalizeConfig(cfg)
	return b
}

// WithStore injects the persistent key-value store. Required.
func (b *Builder) WithStore(kv PersistentStore) *Builder {
	b.kv = kv
	return b
}

// WithTransport injects the refresh network transport. Required.
func (b *Builder) WithTransport(t RefreshTransport) *Builder {
	b.transport = t
	return b
}

// WithNavigator injects the forced re-authentication collaborator.
// Optional; a no-op navigator is used when absent.
func (b *Builder) WithNavigator(n Navigator) *Builder {
	b.navigator = n
	return b
}

// WithProbe injects the environment signal source for fingerprinting.
// Optional; without one the coarse fallback fingerprint is used.
func (b *Builder) WithProbe(p EnvironmentProbe) *Builder {
	b.probe = p
	return b
}

// WithEventSink injects the asynchronous event sink. Optional.
func (b *Builder) WithEventSink(sink EventSink) *Builder {
	b.sink = sink
	return b
}

// WithClock overrides the time source. Intended for tests; production
// wiring leaves it unset.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// WithMetricsEnabled toggles the counter set.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration, wires every component, restores any
// persisted breach cooldown, and starts the periodic validation task.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := normalizeConfig(b.config)
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	if b.kv == nil {
		return nil, errors.New("persistent store is required")
	}
	if b.transport == nil {
		return nil, errors.New("refresh transport is required")
	}

	now := b.now
	if now == nil {
		now = time.Now
	}
	navigator := b.navigator
	if navigator == nil {
		navigator = noopNavigator{}
	}

	metrics := newMetrics(cfg.Metrics)
	events := newEventDispatcher(cfg.Events, b.sink)
	store := session.NewStore(b.kv, cfg.Storage.KeyPrefix)
	fp := newFingerprinter(b.probe, installIDLoader(b.kv, cfg.Storage.KeyPrefix))

	monitor := newSecurityMonitor(
		cfg.Security, store, b.kv, cfg.Storage.KeyPrefix,
		events, metrics, navigator, now,
	)
	refresher := newRefreshCoordinator(
		cfg.Refresh, b.transport, store, monitor, fp,
		navigator, events, metrics, now,
	)
	guard := newLoginGuard(cfg.Lockout, b.kv, cfg.Storage.KeyPrefix, metrics, now)

	monitor.startTask(cfg.Security.ValidateInterval)

	b.built = true
	return &Engine{
		config:    cfg,
		store:     store,
		refresher: refresher,
		monitor:   monitor,
		guard:     guard,
		events:    events,
		metrics:   metrics,
		fp:        fp,
		navigator: navigator,
		now:       now,
	}, nil
}
