package goSession

import (
	"errors"
	"log"

	"github.com/MrEthical07/goSession/internal"
	"github.com/google/uuid"
)

var errProbePanic = errors.New("environment probe panicked")

// Signals are the environment-derived inputs to the fingerprint digest.
// Changes to any signal change the digest; that is intentional (a resize or
// locale change is supposed to look like a different environment).
type Signals struct {
	UserAgent string
	Language  string
	Timezone  string
	Platform  string

	ScreenWidth  int
	ScreenHeight int
	ColorDepth   int

	HardwareConcurrency int
	DeviceMemoryGB      int

	// RendererSignature identifies the rendering backend (GPU / canvas
	// signature on browser hosts).
	RendererSignature string
}

// EnvironmentProbe collects Signals from the host environment. Probes may
// fail on restricted hosts; the fingerprinter falls back to a coarse digest
// and never propagates the failure.
type EnvironmentProbe interface {
	Signals() (Signals, error)
}

// Fingerprinter derives a stable environment digest. Generate is pure with
// respect to the probe output: identical signals yield identical digests.
type Fingerprinter struct {
	probe     EnvironmentProbe
	installID func() string
}

func newFingerprinter(probe EnvironmentProbe, installID func() string) *Fingerprinter {
	return &Fingerprinter{probe: probe, installID: installID}
}

// Generate returns the environment digest, or the coarse fallback digest
// when signal collection fails or panics. It never returns an error.
func (f *Fingerprinter) Generate() string {
	if f == nil || f.probe == nil {
		return f.fallback(Signals{})
	}

	sig, err := f.collect()
	if err != nil {
		return f.fallback(sig)
	}

	return internal.DigestPairs([]string{
		internal.Pair("ua", sig.UserAgent),
		internal.Pair("lang", sig.Language),
		internal.Pair("tz", sig.Timezone),
		internal.Pair("platform", sig.Platform),
		internal.PairInt("sw", sig.ScreenWidth),
		internal.PairInt("sh", sig.ScreenHeight),
		internal.PairInt("depth", sig.ColorDepth),
		internal.PairInt("cores", sig.HardwareConcurrency),
		internal.PairInt("mem", sig.DeviceMemoryGB),
		internal.Pair("renderer", sig.RendererSignature),
	})
}

// collect shields the digest from a misbehaving probe: a panic is treated
// the same as a collection error.
func (f *Fingerprinter) collect() (sig Signals, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Print("goSession: environment probe panicked")
			err = errProbePanic
		}
	}()
	return f.probe.Signals()
}

// fallback builds the coarse fingerprint: user agent plus screen dimensions
// plus the per-install identifier. Deliberately weaker than the full digest
// so degraded hosts still get mismatch detection against gross changes.
func (f *Fingerprinter) fallback(sig Signals) string {
	install := ""
	if f != nil && f.installID != nil {
		install = f.installID()
	}
	return internal.DigestPairs([]string{
		internal.Pair("ua", sig.UserAgent),
		internal.PairInt("sw", sig.ScreenWidth),
		internal.PairInt("sh", sig.ScreenHeight),
		internal.Pair("install", install),
	})
}

const installIDKeySuffix = ".install_id"

// installIDLoader mints a stable per-install identifier on first use and
// persists it. A storage fault yields an ephemeral id for this process.
func installIDLoader(kv PersistentStore, prefix string) func() string {
	key := prefix + installIDKeySuffix
	return func() string {
		if v, ok, err := kv.Get(key); err == nil && ok && v != "" {
			return v
		}
		id := uuid.NewString()
		if err := kv.Set(key, id); err != nil {
			log.Print("goSession: install id write failed")
		}
		return id
	}
}
