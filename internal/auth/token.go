// Package auth verifies session tokens issued by the external identity
// provider. The service never mints credentials of its own; it only checks
// a presented token and extracts the identity descriptor it carries.
package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Nazifamoh/artifyAI/internal/model"
)

var (
	// ErrInvalidToken covers malformed, expired or badly signed tokens.
	ErrInvalidToken = errors.New("invalid session token")
	// ErrMissingSubject is returned when a token has no identity reference.
	ErrMissingSubject = errors.New("session token missing subject")
)

// Verifier validates session tokens against the provider's shared secret.
type Verifier struct {
	secret []byte
	issuer string
}

// NewVerifier creates a Verifier for the given shared secret and expected issuer.
func NewVerifier(secret, issuer string) *Verifier {
	return &Verifier{secret: []byte(secret), issuer: issuer}
}

// sessionClaims mirrors the profile claims the identity provider embeds in
// its session tokens.
type sessionClaims struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	PhotoURL  string `json:"image_url"`
	jwt.RegisteredClaims
}

// Verify parses and validates a session token, returning the identity
// descriptor it carries. All failures collapse to ErrInvalidToken so
// callers cannot distinguish (and leak) the reason.
func (v *Verifier) Verify(token string) (*model.Principal, error) {
	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithIssuer(v.issuer), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	if claims.Subject == "" {
		return nil, ErrMissingSubject
	}

	return &model.Principal{
		IdentityID: claims.Subject,
		Email:      claims.Email,
		Username:   claims.Username,
		FirstName:  claims.FirstName,
		LastName:   claims.LastName,
		PhotoURL:   claims.PhotoURL,
	}, nil
}

// TokenCacheKey derives a cache key from a raw token. The token itself is
// never used as a Redis key.
func TokenCacheKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
