package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

type fakeSource struct {
	token       atomic.Value
	tokenErr    error
	refreshed   atomic.Int64
	refreshErr  error
	refreshedTo string
}

func newFakeSource(token string) *fakeSource {
	s := &fakeSource{refreshedTo: "refreshed-token"}
	s.token.Store(token)
	return s
}

func (s *fakeSource) AccessToken(context.Context) (string, error) {
	if s.tokenErr != nil {
		return "", s.tokenErr
	}
	return s.token.Load().(string), nil
}

func (s *fakeSource) Refresh(context.Context, bool) (string, error) {
	s.refreshed.Add(1)
	if s.refreshErr != nil {
		return "", s.refreshErr
	}
	s.token.Store(s.refreshedTo)
	return s.refreshedTo, nil
}

func newClient(server *httptest.Server, source TokenSource) *http.Client {
	return &http.Client{Transport: NewTransport(server.Client().Transport, source)}
}

func TestTransportAttachesBearerToken(t *testing.T) {
	var got string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
	}))
	defer server.Close()

	resp, err := newClient(server, newFakeSource("token-1")).Get(server.URL)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	if got != "Bearer token-1" {
		t.Fatalf("unexpected authorization header %q", got)
	}
}

func TestTransportRefreshesOnceOn401(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.Header.Get("Authorization") != "Bearer refreshed-token" {
			t.Errorf("replay used the stale token: %q", r.Header.Get("Authorization"))
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	source := newFakeSource("stale-token")
	resp, err := newClient(server, source).Get(server.URL)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 after replay, got %d", resp.StatusCode)
	}
	if source.refreshed.Load() != 1 {
		t.Fatalf("expected exactly one refresh, got %d", source.refreshed.Load())
	}
	if calls.Load() != 2 {
		t.Fatalf("expected exactly two upstream calls, got %d", calls.Load())
	}
}

func TestTransportReturnsSecond401(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	source := newFakeSource("stale-token")
	resp, err := newClient(server, source).Get(server.URL)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected the second 401 to surface, got %d", resp.StatusCode)
	}
	if source.refreshed.Load() != 1 {
		t.Fatalf("expected exactly one refresh, got %d", source.refreshed.Load())
	}
}

func TestTransportReplaysRequestBody(t *testing.T) {
	var calls atomic.Int64
	var replayedBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		replayedBody = string(body)
	}))
	defer server.Close()

	source := newFakeSource("stale-token")
	resp, err := newClient(server, source).Post(server.URL, "application/json", strings.NewReader(`{"sku":"A-1"}`))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	if replayedBody != `{"sku":"A-1"}` {
		t.Fatalf("replay lost the body: %q", replayedBody)
	}
}

func TestTransportPassesThroughWithoutSession(t *testing.T) {
	var got string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	source := newFakeSource("")
	source.tokenErr = errors.New("no session")

	resp, err := newClient(server, source).Get(server.URL)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	if got != "" {
		t.Fatalf("unauthenticated request should carry no header, got %q", got)
	}
	if source.refreshed.Load() != 0 {
		t.Fatal("no refresh expected without a session")
	}
}

func TestTransportDoesNotRefreshOnOtherStatuses(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	source := newFakeSource("token-1")
	resp, err := newClient(server, source).Get(server.URL)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 passthrough, got %d", resp.StatusCode)
	}
	if source.refreshed.Load() != 0 {
		t.Fatal("403 must not trigger a refresh")
	}
}
