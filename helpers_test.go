package goSession

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrEthical07/goSession/store/memstore"
)

// testClock is a manually advanced time source.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// fakeTransport counts calls and answers via the configured respond func.
type fakeTransport struct {
	calls   atomic.Int64
	mu      sync.Mutex
	respond func(req RefreshRequest) (*RefreshResponse, error)
	block   chan struct{}
}

func (t *fakeTransport) PostRefresh(ctx context.Context, req RefreshRequest) (*RefreshResponse, error) {
	t.calls.Add(1)

	t.mu.Lock()
	block := t.block
	respond := t.respond
	t.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if respond != nil {
		return respond(req)
	}
	return &RefreshResponse{
		AccessToken:  testToken("refreshed", 3600),
		RefreshToken: "rotated-refresh",
		ExpiresIn:    3600,
		SessionID:    req.SessionID,
	}, nil
}

func (t *fakeTransport) setRespond(fn func(req RefreshRequest) (*RefreshResponse, error)) {
	t.mu.Lock()
	t.respond = fn
	t.mu.Unlock()
}

// fakeProbe serves mutable signals so tests can simulate environment
// changes.
type fakeProbe struct {
	mu      sync.Mutex
	signals Signals
	fail    bool
}

func newFakeProbe() *fakeProbe {
	return &fakeProbe{signals: Signals{
		UserAgent:    "test-agent/1.0",
		Language:     "en",
		Timezone:     "UTC",
		ScreenWidth:  1280,
		ScreenHeight: 800,
	}}
}

func (p *fakeProbe) Signals() (Signals, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return p.signals, context.DeadlineExceeded
	}
	return p.signals, nil
}

func (p *fakeProbe) mutate(fn func(*Signals)) {
	p.mu.Lock()
	fn(&p.signals)
	p.mu.Unlock()
}

// fakeNavigator records forced re-authentication signals.
type fakeNavigator struct {
	mu      sync.Mutex
	reasons []LogoutReason
}

func (n *fakeNavigator) ForceReauth(reason LogoutReason) {
	n.mu.Lock()
	n.reasons = append(n.reasons, reason)
	n.mu.Unlock()
}

func (n *fakeNavigator) last() (LogoutReason, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.reasons) == 0 {
		return "", false
	}
	return n.reasons[len(n.reasons)-1], true
}

type testHarness struct {
	engine    *Engine
	kv        *memstore.Store
	transport *fakeTransport
	probe     *fakeProbe
	navigator *fakeNavigator
	clock     *testClock
}

func testConfig() Config {
	cfg := defaultConfig()
	cfg.Security.DisableValidateTask = true
	cfg.Refresh.BackoffBase = time.Millisecond
	return cfg
}

// newHarness builds an engine over fresh fakes. mutate may adjust the
// config before Build.
func newHarness(t *testing.T, mutate func(*Config)) *testHarness {
	t.Helper()
	h := &testHarness{
		kv:        memstore.New(),
		transport: &fakeTransport{},
		probe:     newFakeProbe(),
		navigator: &fakeNavigator{},
		clock:     newTestClock(),
	}
	h.rebuild(t, mutate)
	return h
}

// rebuild constructs a new engine over the harness's existing storage,
// simulating a page reload.
func (h *testHarness) rebuild(t *testing.T, mutate func(*Config)) {
	t.Helper()
	if h.engine != nil {
		h.engine.Close()
	}

	cfg := testConfig()
	if mutate != nil {
		mutate(&cfg)
	}

	engine, err := New().
		WithConfig(cfg).
		WithStore(h.kv).
		WithTransport(h.transport).
		WithProbe(h.probe).
		WithNavigator(h.navigator).
		WithClock(h.clock.Now).
		Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	h.engine = engine
	t.Cleanup(engine.Close)
}

// login installs a fresh session the way a host login flow would.
func (h *testHarness) login(t *testing.T, expiresIn int64) {
	t.Helper()
	err := h.engine.StoreSession(context.Background(), &RefreshResponse{
		AccessToken:  testToken("login", expiresIn),
		RefreshToken: "initial-refresh",
		ExpiresIn:    expiresIn,
		SessionID:    "sess-1",
	})
	if err != nil {
		t.Fatalf("store session failed: %v", err)
	}
}

// testToken builds a structurally valid unsigned access token.
func testToken(marker string, expiresIn int64) string {
	seg := func(v any) string {
		raw, _ := json.Marshal(v)
		return base64.RawURLEncoding.EncodeToString(raw)
	}
	now := time.Unix(1_700_000_000, 0).Unix()
	header := seg(map[string]string{"alg": "none", "typ": "JWT"})
	payload := seg(map[string]any{
		"id":    "user-1",
		"email": "user@example.com",
		"iat":   now,
		"exp":   now + expiresIn,
		"mark":  marker,
	})
	return header + "." + payload + "." + base64.RawURLEncoding.EncodeToString([]byte("sig"))
}
