package handler

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Identity verifies learner tokens issued by the identity provider. Tokens
// are HS256-signed JWTs whose subject is the learner's user id.
type Identity struct {
	key      []byte
	issuer   string
	audience string
}

// NewIdentity returns a verifier for tokens signed with key. Empty issuer
// or audience disables that check.
func NewIdentity(key []byte, issuer, audience string) (*Identity, error) {
	if len(key) < 32 {
		return nil, errors.New("token signing key must be at least 32 bytes")
	}
	return &Identity{key: key, issuer: issuer, audience: audience}, nil
}

// Verify checks the token signature and claims and returns the subject.
func (id *Identity) Verify(token string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(30 * time.Second),
	}
	if id.issuer != "" {
		opts = append(opts, jwt.WithIssuer(id.issuer))
	}
	if id.audience != "" {
		opts = append(opts, jwt.WithAudience(id.audience))
	}

	var claims jwt.RegisteredClaims
	if _, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return id.key, nil
	}, opts...); err != nil {
		return "", fmt.Errorf("parse token: %w", err)
	}
	if claims.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}

// Issue signs a token for userID valid for ttl. Used by the CLI for local
// testing and by tests; production tokens come from the identity provider.
func (id *Identity) Issue(userID string, ttl time.Duration, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    id.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	if id.audience != "" {
		claims.Audience = jwt.ClaimStrings{id.audience}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(id.key)
}
