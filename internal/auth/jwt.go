// Package auth issues and verifies session tokens, talks to Discord's OAuth
// endpoints, and resolves the caller of every request.
//
// AUTHENTICATION FLOW OVERVIEW:
//  1. Client visits /v1/auth/discord/{web|app} → redirected to Discord
//  2. Discord calls back /v1/auth/discord/{web|app}/callback with a code
//  3. Server exchanges the code, fetches the Discord identity, and either
//     finds the local account or checks guild membership and creates one
//  4. Server signs a JWT carrying the local user id and redirects the client
//     to its registered callback with ?token=...&state=...
//  5. On later API calls the client sends "Authorization: Bearer <jwt>";
//     Authenticate verifies it and attaches an Identity to the request context
//
// JWT STRUCTURE (three base64-encoded parts separated by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header: {"alg":"HS256","typ":"JWT"}
//	- Payload: {"userId":42,"iat":1700000000,"exp":1700003600}
//	- Signature: HMAC-SHA256(header+"."+payload, secretKey)
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultSessionTTL is how long an issued session token stays valid.
const DefaultSessionTTL = time.Hour

// TokenService handles JWT creation and validation with one HMAC secret.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService. A ttl of zero or less means
// DefaultSessionTTL.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// claims is the JWT payload. The local numeric user id is the only
// application claim; iat and exp come from RegisteredClaims.
type claims struct {
	UserID int64 `json:"userId"`
	jwt.RegisteredClaims
}

// Generate signs a session token for userID valid for the configured TTL.
func (s *TokenService) Generate(userID int64) (string, error) {
	return s.GenerateWithDuration(userID, s.ttl)
}

// GenerateWithDuration signs a token with a custom lifetime. Tests use a
// negative duration to produce an already-expired token.
func (s *TokenService) GenerateWithDuration(userID int64, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// ErrTokenExpired is returned by Validate for a well-signed token past its exp.
var ErrTokenExpired = errors.New("auth: token expired")

// Validate verifies the signature and expiry of tokenStr and returns the user
// id it carries.
//
// ALGORITHM CONFUSION ATTACK:
// Without pinning the algorithm, a token signed with "none" (or with the
// secret used as an RSA public key) could be accepted. WithValidMethods
// rejects everything but HS256.
func (s *TokenService) Validate(tokenStr string) (int64, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, ErrTokenExpired
		}
		return 0, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return 0, errors.New("auth: invalid token claims")
	}
	if c.UserID <= 0 {
		return 0, errors.New("auth: token has no user id")
	}
	return c.UserID, nil
}
