package goSession

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrEthical07/goSession/store/memstore"
)

func TestBuildRequiresStoreAndTransport(t *testing.T) {
	if _, err := New().WithTransport(&fakeTransport{}).Build(); err == nil {
		t.Fatal("expected an error without a store")
	}
	if _, err := New().WithStore(memstore.New()).Build(); err == nil {
		t.Fatal("expected an error without a transport")
	}
}

func TestBuildRejectsReuse(t *testing.T) {
	b := New().
		WithConfig(testConfig()).
		WithStore(memstore.New()).
		WithTransport(&fakeTransport{})

	engine, err := b.Build()
	if err != nil {
		t.Fatalf("first build failed: %v", err)
	}
	defer engine.Close()

	if _, err := b.Build(); err == nil {
		t.Fatal("expected an error on builder reuse")
	}
}

func TestBuildRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Token.ExpiryBuffer = 48 * time.Hour // exceeds MaxTokenAge

	_, err := New().
		WithConfig(cfg).
		WithStore(memstore.New()).
		WithTransport(&fakeTransport{}).
		Build()
	if err == nil {
		t.Fatal("expected a config validation error")
	}
}

func TestBuildAppliesDefaultsToZeroConfig(t *testing.T) {
	engine, err := New().
		WithConfig(Config{}).
		WithStore(memstore.New()).
		WithTransport(&fakeTransport{}).
		Build()
	if err != nil {
		t.Fatalf("zero config should build with defaults: %v", err)
	}
	defer engine.Close()

	if engine.config.Token.ExpiryBuffer != 5*time.Minute {
		t.Fatalf("expected default expiry buffer, got %v", engine.config.Token.ExpiryBuffer)
	}
	if engine.config.Security.MismatchThreshold != 3 {
		t.Fatalf("expected default mismatch threshold, got %d", engine.config.Security.MismatchThreshold)
	}
	if engine.config.Storage.KeyPrefix != "gosession" {
		t.Fatalf("expected default key prefix, got %q", engine.config.Storage.KeyPrefix)
	}
}

func TestBuildWithoutProbeUsesFallbackFingerprint(t *testing.T) {
	kv := memstore.New()
	engine, err := New().
		WithConfig(testConfig()).
		WithStore(kv).
		WithTransport(&fakeTransport{}).
		Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	defer engine.Close()

	fp := engine.Fingerprint()
	if fp == "" {
		t.Fatal("expected a fallback fingerprint without a probe")
	}
	if fp != engine.Fingerprint() {
		t.Fatal("fallback fingerprint should be stable within an install")
	}
}

func TestEngineMethodsNilSafe(t *testing.T) {
	var engine *Engine

	if _, err := engine.AccessToken(context.Background()); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}
	if _, err := engine.Refresh(context.Background(), false); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}
	if engine.HasValidSession() {
		t.Fatal("nil engine should report no session")
	}
	if engine.SessionID() != "" {
		t.Fatal("nil engine should report no session id")
	}
	engine.ClearSession(context.Background())
	engine.Close()
	if engine.EventsDropped() != 0 {
		t.Fatal("nil engine should report zero dropped events")
	}
	if snapshot := engine.MetricsSnapshot(); snapshot.Counters == nil {
		t.Fatal("nil engine should return an empty snapshot")
	}
}
