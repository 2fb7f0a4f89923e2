package jwtx

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier validates a JWT and returns its claims.
type Verifier interface {
	Verify(token string) (Claims, error)
}

var (
	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrAlgMismatch = errors.New("jwtx: algorithm does not match key type")
	ErrUnknownKID  = errors.New("jwtx: unknown kid")
	ErrIssuer      = errors.New("jwtx: issuer mismatch")
	ErrAudience    = errors.New("jwtx: audience mismatch")
)

// KeySetVerifier checks RS256, ES256 and EdDSA tokens against a KeySet.
// exp and nbf are enforced by the parser with Leeway of clock skew.
type KeySetVerifier struct {
	Keys     *KeySet
	Issuer   string
	Audience []string
	Leeway   time.Duration
	Now      func() time.Time
}

func NewVerifier(keys *KeySet, issuer string, audience []string) *KeySetVerifier {
	return &KeySetVerifier{Keys: keys, Issuer: issuer, Audience: audience, Leeway: 30 * time.Second}
}

func (v *KeySetVerifier) Verify(tokenStr string) (Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"RS256", "ES256", "EdDSA"}),
		jwt.WithLeeway(v.Leeway),
		jwt.WithExpirationRequired(),
	}
	if v.Now != nil {
		opts = append(opts, jwt.WithTimeFunc(v.Now))
	}

	var claims Claims
	token, err := jwt.NewParser(opts...).ParseWithClaims(tokenStr, &claims, v.keyFor)
	if err != nil {
		return Claims{}, fmt.Errorf("jwtx: parse or verify: %w", err)
	}
	if !token.Valid {
		return Claims{}, ErrMalformed
	}

	if err := claims.ValidateIssuer(v.Issuer); err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateAudience(v.Audience); err != nil {
		return Claims{}, err
	}
	return claims, nil
}

func (v *KeySetVerifier) keyFor(t *jwt.Token) (any, error) {
	kid, _ := t.Header["kid"].(string)
	if kid == "" {
		return nil, fmt.Errorf("%w: missing kid", ErrUnknownKID)
	}
	pub, err := v.Keys.Get(kid)
	if err != nil {
		return nil, fmt.Errorf("%w %q", ErrUnknownKID, kid)
	}

	// A key may only verify the algorithm family it belongs to.
	ok := false
	switch t.Method.Alg() {
	case "RS256":
		_, ok = pub.(*rsa.PublicKey)
	case "ES256":
		_, ok = pub.(*ecdsa.PublicKey)
	case "EdDSA":
		_, ok = pub.(ed25519.PublicKey)
	}
	if !ok {
		return nil, ErrAlgMismatch
	}
	return pub, nil
}
