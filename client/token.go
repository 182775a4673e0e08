package client

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the subset of the backend token payload this client cares about.
// Tokens are decoded without signature verification: the backend is the only
// verifier, the frontend just needs to read the expiry.
type Claims struct {
	jwt.RegisteredClaims
}

// DecodeClaims parses the payload segment of a bearer token. It fails softly:
// wrong segment count, bad base64url, or invalid JSON all yield nil, never an
// error. Callers treat nil claims as an expired token.
func DecodeClaims(token string) *Claims {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil
	}
	return claims
}

// IsExpired reports whether token is unusable at the given instant. A token
// that cannot be decoded, or that carries no exp claim, counts as expired; a
// token whose expiry is at or before now is expired (inclusive boundary).
func IsExpired(token string, now time.Time) bool {
	claims := DecodeClaims(token)
	if claims == nil || claims.ExpiresAt == nil {
		return true
	}
	return !claims.ExpiresAt.After(now)
}

// ExpiresAt returns the token expiry instant, or the zero time when the
// token has no usable expiry.
func ExpiresAt(token string) time.Time {
	claims := DecodeClaims(token)
	if claims == nil || claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
