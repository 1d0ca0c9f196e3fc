package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Zhima-Mochi/storefront/internal/domain/identity"
)

var ErrInvalidToken = errors.New("auth: invalid token")

type Claims struct {
	UserID string        `json:"user_id"`
	Role   identity.Role `json:"role"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies HS256 bearer tokens.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (t *Tokens) Issue(c identity.Caller) (string, error) {
	if !c.Authenticated() {
		return "", fmt.Errorf("auth: user id is required")
	}
	role := c.Role
	if role == "" {
		role = identity.RoleUser
	}
	now := t.now()
	claims := Claims{
		UserID: c.UserID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   c.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Verify parses a token and returns the caller it identifies.
func (t *Tokens) Verify(raw string) (identity.Caller, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return identity.Caller{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid || claims.UserID == "" {
		return identity.Caller{}, ErrInvalidToken
	}

	role := claims.Role
	if role != identity.RoleAdmin {
		role = identity.RoleUser
	}
	return identity.Caller{UserID: claims.UserID, Role: role}, nil
}
