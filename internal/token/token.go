// Package token issues and verifies the signed credential carried in the
// auth cookie.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"authapi/internal/models"
)

var (
	// ErrInvalidToken covers expired, malformed and badly signed tokens.
	// Callers treat all three identically: reject.
	ErrInvalidToken = errors.New("invalid token")

	ErrSigning = errors.New("error signing token")
)

// TTL is the fixed lifetime of an issued token.
const TTL = 24 * time.Hour

// Issuer signs and verifies HS256 tokens with a server-held secret.
type Issuer struct {
	secret []byte
}

// NewIssuer rejects an empty secret outright; there is no fallback key.
func NewIssuer(secret string) (*Issuer, error) {
	if secret == "" {
		return nil, errors.New("token issuer requires a non-empty secret")
	}
	return &Issuer{secret: []byte(secret)}, nil
}

// Sign produces a token over {id, email, role} expiring TTL from now.
func (i *Issuer) Sign(userID int64, email, role string) (string, error) {
	now := time.Now()
	claims := &models.Claims{
		UserID: userID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(TTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSigning, err)
	}
	return tokenString, nil
}

// Verify validates signature and expiry and returns the embedded claims.
func (i *Issuer) Verify(tokenString string) (*models.Claims, error) {
	claims := &models.Claims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
