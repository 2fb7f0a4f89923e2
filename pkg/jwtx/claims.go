package jwtx

import (
	"slices"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the access-token claims issued by the auth service. Only the
// fields the share service relies on are decoded.
type Claims struct {
	jwt.RegisteredClaims

	// Permission scopes, e.g. "share:read", "admin:write".
	Scopes []string `json:"scopes,omitempty"`

	Username string `json:"username,omitempty"`
}

// HasScope reports whether the token carries scope.
func (c *Claims) HasScope(scope string) bool {
	return slices.Contains(c.Scopes, scope)
}

// ValidateIssuer checks iss when expected is non-empty.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected != "" && c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// ValidateAudience requires at least one of expected to be present in aud.
func (c *Claims) ValidateAudience(expected []string) error {
	if len(expected) == 0 {
		return nil
	}
	for _, want := range expected {
		if slices.Contains(c.Audience, want) {
			return nil
		}
	}
	return ErrAudience
}
