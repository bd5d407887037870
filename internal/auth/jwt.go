// Package auth provides JWT tokens, password hashing, the GitHub OAuth flow
// and the authentication middleware.
//
// Login flow: the server authenticates the user (password check or OAuth
// callback), issues a signed JWT carrying the user ID in the Subject claim,
// and stores it in an HttpOnly cookie. Middleware validates the cookie on
// later requests and puts the user ID in the request context.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenService handles JWT creation and validation. It holds the HMAC
// secret used for both signing and verifying.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given secret.
// The secret should be at least 32 bytes of random data in production.
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// claims embeds jwt.RegisteredClaims; the internal user ID travels in the
// standard "sub" claim.
type claims struct {
	jwt.RegisteredClaims
}

// tokenTTL is the access token lifetime. The cookie shares it.
const tokenTTL = 24 * time.Hour

// Generate creates and signs a new access token for the given userID.
func (s *TokenService) Generate(userID string) (string, error) {
	return s.GenerateWithDuration(userID, tokenTTL)
}

// GenerateWithDuration creates a token with a custom expiry. Used in tests.
func (s *TokenService) GenerateWithDuration(userID string, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    "snipet",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a JWT string, returning the userID from the
// "sub" claim. Expired, tampered or otherwise invalid tokens error.
func (s *TokenService) Validate(tokenStr string) (string, error) {
	var c claims

	token, err := jwt.ParseWithClaims(tokenStr, &c, func(t *jwt.Token) (any, error) {
		// Only accept the algorithm we sign with.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("auth: unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("auth: parsing token: %w", err)
	}
	if !token.Valid || c.Subject == "" {
		return "", errors.New("auth: invalid token")
	}

	return c.Subject, nil
}

// TokenTTL exposes the access token lifetime so handlers can align the
// cookie Max-Age with it.
func TokenTTL() time.Duration { return tokenTTL }
