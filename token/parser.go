package token

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMalformed is returned for any token that fails structural
	// validation. Callers treat the whole session record as corrupt.
	ErrMalformed = errors.New("malformed access token")
)

// Claims is the structural subset of the access-token payload the client
// core relies on. All fields are required on the wire.
type Claims struct {
	ID        string
	Email     string
	IssuedAt  int64
	ExpiresAt int64
}

// maxTokenLength bounds parser input so a tampered storage value cannot
// force a pathological decode.
const maxTokenLength = 8192

var parser = jwt.NewParser(jwt.WithoutClaimsValidation())

// Parse validates the structure of raw and extracts its claims. The
// signature segment must be present but is not verified.
func Parse(raw string) (*Claims, error) {
	if raw == "" || len(raw) > maxTokenLength {
		return nil, ErrMalformed
	}
	if strings.Count(raw, ".") != 2 {
		return nil, ErrMalformed
	}

	tok, _, err := parser.ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if _, ok := tok.Header["alg"].(string); !ok {
		return nil, fmt.Errorf("%w: header missing alg", ErrMalformed)
	}
	if _, ok := tok.Header["typ"].(string); !ok {
		return nil, fmt.Errorf("%w: header missing typ", ErrMalformed)
	}

	mc, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrMalformed
	}

	claims := &Claims{}
	if claims.ID, ok = stringClaim(mc, "id"); !ok {
		return nil, fmt.Errorf("%w: payload missing id", ErrMalformed)
	}
	if claims.Email, ok = stringClaim(mc, "email"); !ok {
		return nil, fmt.Errorf("%w: payload missing email", ErrMalformed)
	}
	if claims.ExpiresAt, ok = unixClaim(mc, "exp"); !ok {
		return nil, fmt.Errorf("%w: payload missing exp", ErrMalformed)
	}
	if claims.IssuedAt, ok = unixClaim(mc, "iat"); !ok {
		return nil, fmt.Errorf("%w: payload missing iat", ErrMalformed)
	}

	return claims, nil
}

// Validate reports whether raw is a structurally acceptable access token.
func Validate(raw string) error {
	_, err := Parse(raw)
	return err
}

func stringClaim(mc jwt.MapClaims, key string) (string, bool) {
	v, ok := mc[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

func unixClaim(mc jwt.MapClaims, key string) (int64, bool) {
	v, ok := mc[key]
	if !ok {
		return 0, false
	}
	// encoding/json decodes JSON numbers into float64 inside MapClaims.
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int64:
		return n, true
	default:
		return 0, false
	}
}
