package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophchat/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrInvalidSignature is returned for tokens that are malformed, signed
	// with another key or with an unexpected algorithm.
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrSign is returned when a token cannot be signed.
	ErrSign = errors.New("token signing failed")
)

// Claims carries the user id next to the standard claims.
type Claims struct {
	jwt.RegisteredClaims
	UserID int64 `json:"id"`
}

// GenerateToken signs an HS256 token for userID. A non-positive validity
// produces a token without an expiration claim.
func GenerateToken(userID int64, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       uuid.NewString(),
			IssuedAt: jwt.NewNumericDate(now),
		},
		UserID: userID,
	}
	if validityDuration > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(validityDuration))
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secretKey)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSign, err)
	}

	return tokenString, nil
}

// GetUserIDFromToken checks the signature and expiry of tokenString and
// returns the user id it carries.
func GetUserIDFromToken(tokenString string, secretKey []byte) (int64, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, common.ErrTokenExpired
		}
		return 0, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	if !token.Valid {
		return 0, ErrInvalidSignature
	}

	return claims.UserID, nil
}

// TokenIssuer issues and verifies tokens with a process-wide secret.
type TokenIssuer struct {
	secret   []byte
	validity time.Duration
}

// NewTokenIssuer returns an issuer for secret. The secret must not be empty.
func NewTokenIssuer(secret string, validity time.Duration) (*TokenIssuer, error) {
	if secret == "" {
		return nil, fmt.Errorf("%w: empty secret key", ErrSign)
	}
	return &TokenIssuer{secret: []byte(secret), validity: validity}, nil
}

func (i *TokenIssuer) Issue(userID int64) (string, error) {
	return GenerateToken(userID, i.secret, i.validity)
}

func (i *TokenIssuer) Verify(token string) (int64, error) {
	return GetUserIDFromToken(token, i.secret)
}
