package middleware

import (
	"context"
	"net/http"
)

// TokenSource is the subset of the engine the transport needs.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
	Refresh(ctx context.Context, force bool) (string, error)
}

// Transport attaches a bearer token to every request. A 401 response
// triggers one refresh and one replay; a second 401 is returned as-is so
// the host's error handling takes over.
type Transport struct {
	Base   http.RoundTripper
	Source TokenSource
}

// NewTransport creates a Transport over base (http.DefaultTransport when
// nil).
func NewTransport(base http.RoundTripper, source TokenSource) *Transport {
	return &Transport{Base: base, Source: source}
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	tok, err := t.Source.AccessToken(req.Context())
	if err != nil {
		// No usable session: send unauthenticated and let the server decide.
		return base.RoundTrip(req)
	}

	resp, err := base.RoundTrip(authorized(req, tok))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	if req.Body != nil && req.GetBody == nil {
		return resp, nil
	}

	tok, rerr := t.Source.Refresh(req.Context(), false)
	if rerr != nil {
		return resp, nil
	}

	retry := req
	if req.GetBody != nil {
		body, berr := req.GetBody()
		if berr != nil {
			return resp, nil
		}
		retry = req.Clone(req.Context())
		retry.Body = body
	}

	resp.Body.Close()
	return base.RoundTrip(authorized(retry, tok))
}

// authorized clones req with the bearer header set; the caller's request is
// never mutated, per the RoundTripper contract.
func authorized(req *http.Request, tok string) *http.Request {
	out := req.Clone(req.Context())
	out.Header.Set("Authorization", "Bearer "+tok)
	return out
}
