// Package jwt signs and verifies the ES256 tokens that guard the ops routes.
package jwt

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	ClaimSubject = "sub"
	ClaimRole    = "role"
)

var ErrMissingClaim = errors.New("missing claim")

type TokenOption func(claims jwt.MapClaims)

func WithClaim(key string, value any) TokenOption {
	return func(claims jwt.MapClaims) {
		claims[key] = value
	}
}

// Operator is the identity carried by an ops token.
type Operator struct {
	ID   string
	Role string
}

func LoadECDSAPrivateKey(path string) (*ecdsa.PrivateKey, error) {
	return loadPEM(path, "private", jwt.ParseECPrivateKeyFromPEM)
}

func LoadECDSAPublicKey(path string) (*ecdsa.PublicKey, error) {
	return loadPEM(path, "public", jwt.ParseECPublicKeyFromPEM)
}

func loadPEM[K any](path, kind string, parse func([]byte) (K, error)) (K, error) {
	var zero K

	data, err := os.ReadFile(path)
	if err != nil {
		return zero, fmt.Errorf("failed to read %s key %s: %w", kind, path, err)
	}

	key, err := parse(data)
	if err != nil {
		return zero, fmt.Errorf("failed to parse EC %s key %s: %w", kind, path, err)
	}

	return key, nil
}

// NewToken signs a token that expires after duration.
func NewToken(privateKey *ecdsa.PrivateKey, duration time.Duration, opts ...TokenOption) (string, error) {
	now := time.Now().UTC()

	claims := jwt.MapClaims{
		"iat": now.Unix(),
		"exp": now.Add(duration).Unix(),
	}

	for _, opt := range opts {
		opt(claims)
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodES256, claims).SignedString(privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

func NewOperatorToken(privateKey *ecdsa.PrivateKey, duration time.Duration, op Operator) (string, error) {
	return NewToken(privateKey, duration, WithClaim(ClaimSubject, op.ID), WithClaim(ClaimRole, op.Role))
}

// ValidateToken verifies signature and expiry. Tokens without exp are rejected.
func ValidateToken(tokenString string, publicKey *ecdsa.PublicKey) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}

	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return publicKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodES256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}

	return claims, nil
}

// ValidateOperatorToken is ValidateToken plus extraction of the operator identity.
func ValidateOperatorToken(tokenString string, publicKey *ecdsa.PublicKey) (Operator, error) {
	claims, err := ValidateToken(tokenString, publicKey)
	if err != nil {
		return Operator{}, err
	}

	id, err := claims.GetSubject()
	if err != nil {
		return Operator{}, err
	}

	role, _ := claims[ClaimRole].(string)

	if id == "" {
		return Operator{}, fmt.Errorf("%w: %s", ErrMissingClaim, ClaimSubject)
	}

	if role == "" {
		return Operator{}, fmt.Errorf("%w: %s", ErrMissingClaim, ClaimRole)
	}

	return Operator{ID: id, Role: role}, nil
}
