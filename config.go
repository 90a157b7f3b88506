package goSession

import (
	"errors"
	"time"
)

// Config defines the tuning surface of the session core. Zero values are
// replaced with the documented defaults during [Builder.Build]; invalid
// combinations fail the build.
type Config struct {
	Token    TokenConfig
	Refresh  RefreshConfig
	Security SecurityConfig
	Lockout  LockoutConfig
	Events   EventConfig
	Metrics  MetricsConfig
	Storage  StorageConfig
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig controls access-token freshness decisions.
type TokenConfig struct {
	// ExpiryBuffer is subtracted from the server-declared expiry: a token
	// inside the buffer is treated as stale and refreshed. Default 5m.
	ExpiryBuffer time.Duration
	// MaxTokenAge is a hard ceiling on absolute token age measured from
	// issuance, independent of the server-declared expiry. Default 24h.
	MaxTokenAge time.Duration
	// DefaultSecurityLevel is bound to records installed via
	// [Engine.StoreSession]. Default [SecurityBasic].
	DefaultSecurityLevel SecurityLevel
}

/*
====================================
REFRESH CONFIG
====================================
*/

// RefreshConfig controls the single-flight refresh coordinator.
type RefreshConfig struct {
	// MinInterval rejects a refresh started within this window after the
	// previous completed attempt, without contacting the network. Default 5s.
	MinInterval time.Duration
	// AttemptTimeout bounds one network refresh call. Default 30s.
	AttemptTimeout time.Duration
	// QueueTimeout bounds how long a joined caller waits for the in-flight
	// cycle's outcome. Default 60s.
	QueueTimeout time.Duration
	// MaxRetryAttempts is the total number of network calls for one cycle,
	// retries included. Default 3.
	MaxRetryAttempts int
	// BackoffBase and BackoffMultiplier shape the delay before retry n:
	// BackoffBase * BackoffMultiplier^(n-1). Defaults 500ms and 2.
	BackoffBase       time.Duration
	BackoffMultiplier float64
}

/*
====================================
SECURITY CONFIG
====================================
*/

// SecurityConfig controls fingerprint-mismatch accounting and breach
// handling.
type SecurityConfig struct {
	// MismatchThreshold is the consecutive-mismatch count at which a breach
	// is declared. Default 3.
	MismatchThreshold int
	// CooldownDuration blocks refresh and login retry after a breach.
	// Default 15m.
	CooldownDuration time.Duration
	// ValidateInterval drives the periodic structural re-validation task.
	// 0 disables the task; [Engine.ValidateNow] remains available. Default 60s
	// when left zero in defaultConfig, explicit 0 via DisableValidateTask.
	ValidateInterval time.Duration
	// DisableValidateTask turns the periodic task off without ambiguity
	// against the zero value of ValidateInterval.
	DisableValidateTask bool
}

/*
====================================
LOCKOUT CONFIG
====================================
*/

// LockoutConfig controls the advisory per-identifier login guard.
// The guard is UX-only; server-side rate limiting stays authoritative.
type LockoutConfig struct {
	Enabled bool
	// MaxLoginAttempts locks the identifier when reached. Default 5.
	MaxLoginAttempts int
	// LockoutDuration is the lock lifetime. Attempts are NOT auto-reset when
	// the lock expires; only a recorded success resets them. Default 15m.
	LockoutDuration time.Duration
	// PersistAttempts writes attempt records through the persistent store so
	// a page reload does not reset the lock. Default true.
	PersistAttempts bool
}

// EventConfig controls the asynchronous event dispatcher.
type EventConfig struct {
	BufferSize int
	DropIfFull bool
}

// MetricsConfig toggles the atomic counter set.
type MetricsConfig struct {
	Enabled bool
}

// StorageConfig controls the persistent key schema.
type StorageConfig struct {
	// KeyPrefix namespaces every key the core owns. Default "gosession".
	KeyPrefix string
}

func defaultConfig() Config {
	return Config{
		Token: TokenConfig{
			ExpiryBuffer:         5 * time.Minute,
			MaxTokenAge:          24 * time.Hour,
			DefaultSecurityLevel: SecurityBasic,
		},
		Refresh: RefreshConfig{
			MinInterval:       5 * time.Second,
			AttemptTimeout:    30 * time.Second,
			QueueTimeout:      60 * time.Second,
			MaxRetryAttempts:  3,
			BackoffBase:       500 * time.Millisecond,
			BackoffMultiplier: 2,
		},
		Security: SecurityConfig{
			MismatchThreshold: 3,
			CooldownDuration:  15 * time.Minute,
			ValidateInterval:  60 * time.Second,
		},
		Lockout: LockoutConfig{
			Enabled:          true,
			MaxLoginAttempts: 5,
			LockoutDuration:  15 * time.Minute,
			PersistAttempts:  true,
		},
		Events: EventConfig{
			BufferSize: 64,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		Storage: StorageConfig{
			KeyPrefix: "gosession",
		},
	}
}

// normalizeConfig fills zero values with defaults so a partially populated
// Config keeps the documented behavior.
func normalizeConfig(cfg Config) Config {
	def := defaultConfig()

	if cfg.Token.ExpiryBuffer == 0 {
		cfg.Token.ExpiryBuffer = def.Token.ExpiryBuffer
	}
	if cfg.Token.MaxTokenAge == 0 {
		cfg.Token.MaxTokenAge = def.Token.MaxTokenAge
	}

	if cfg.Refresh.MinInterval == 0 {
		cfg.Refresh.MinInterval = def.Refresh.MinInterval
	}
	if cfg.Refresh.AttemptTimeout == 0 {
		cfg.Refresh.AttemptTimeout = def.Refresh.AttemptTimeout
	}
	if cfg.Refresh.QueueTimeout == 0 {
		cfg.Refresh.QueueTimeout = def.Refresh.QueueTimeout
	}
	if cfg.Refresh.MaxRetryAttempts == 0 {
		cfg.Refresh.MaxRetryAttempts = def.Refresh.MaxRetryAttempts
	}
	if cfg.Refresh.BackoffBase == 0 {
		cfg.Refresh.BackoffBase = def.Refresh.BackoffBase
	}
	if cfg.Refresh.BackoffMultiplier == 0 {
		cfg.Refresh.BackoffMultiplier = def.Refresh.BackoffMultiplier
	}

	if cfg.Security.MismatchThreshold == 0 {
		cfg.Security.MismatchThreshold = def.Security.MismatchThreshold
	}
	if cfg.Security.CooldownDuration == 0 {
		cfg.Security.CooldownDuration = def.Security.CooldownDuration
	}
	if cfg.Security.ValidateInterval == 0 && !cfg.Security.DisableValidateTask {
		cfg.Security.ValidateInterval = def.Security.ValidateInterval
	}
	if cfg.Security.DisableValidateTask {
		cfg.Security.ValidateInterval = 0
	}

	if cfg.Lockout.MaxLoginAttempts == 0 {
		cfg.Lockout.MaxLoginAttempts = def.Lockout.MaxLoginAttempts
	}
	if cfg.Lockout.LockoutDuration == 0 {
		cfg.Lockout.LockoutDuration = def.Lockout.LockoutDuration
	}

	if cfg.Events.BufferSize <= 0 {
		cfg.Events.BufferSize = def.Events.BufferSize
	}

	if cfg.Storage.KeyPrefix == "" {
		cfg.Storage.KeyPrefix = def.Storage.KeyPrefix
	}

	return cfg
}

func validateConfig(cfg Config) error {
	if cfg.Token.ExpiryBuffer < 0 {
		return errors.New("token expiry buffer must not be negative")
	}
	if cfg.Token.MaxTokenAge <= 0 {
		return errors.New("max token age must be positive")
	}
	if cfg.Token.MaxTokenAge < cfg.Token.ExpiryBuffer {
		return errors.New("max token age must exceed the expiry buffer")
	}
	if cfg.Token.DefaultSecurityLevel > SecurityEnhanced {
		return errors.New("unknown default security level")
	}
	if cfg.Refresh.MinInterval < 0 {
		return errors.New("refresh min interval must not be negative")
	}
	if cfg.Refresh.AttemptTimeout <= 0 {
		return errors.New("refresh attempt timeout must be positive")
	}
	if cfg.Refresh.QueueTimeout <= 0 {
		return errors.New("refresh queue timeout must be positive")
	}
	if cfg.Refresh.MaxRetryAttempts < 1 {
		return errors.New("refresh retry attempts must be at least 1")
	}
	if cfg.Refresh.BackoffBase <= 0 {
		return errors.New("refresh backoff base must be positive")
	}
	if cfg.Refresh.BackoffMultiplier < 1 {
		return errors.New("refresh backoff multiplier must be at least 1")
	}
	if cfg.Security.MismatchThreshold < 1 {
		return errors.New("mismatch threshold must be at least 1")
	}
	if cfg.Security.CooldownDuration <= 0 {
		return errors.New("breach cooldown must be positive")
	}
	if cfg.Security.ValidateInterval < 0 {
		return errors.New("validate interval must not be negative")
	}
	if cfg.Lockout.Enabled {
		if cfg.Lockout.MaxLoginAttempts < 1 {
			return errors.New("max login attempts must be at least 1")
		}
		if cfg.Lockout.LockoutDuration <= 0 {
			return errors.New("lockout duration must be positive")
		}
	}
	return nil
}
