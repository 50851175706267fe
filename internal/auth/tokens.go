package auth

import (
	"errors"
	"fmt"
	"time"

	"trivia-quiz-service/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the JWT payload issued to players.
type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies HS256 bearer tokens.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokens(secret string, ttl time.Duration) (*Tokens, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// NewTokensWithClock is test-only for deterministic expiry.
func NewTokensWithClock(secret string, ttl time.Duration, now func() time.Time) (*Tokens, error) {
	t, err := NewTokens(secret, ttl)
	if err != nil {
		return nil, err
	}
	t.now = now
	return t, nil
}

// Issue signs a token for the user with a fresh token id.
func (t *Tokens) Issue(user domain.User) (string, error) {
	now := t.now()
	claims := Claims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies the signature and expiry and returns the caller identity.
func (t *Tokens) Parse(raw string) (domain.Identity, error) {
	if raw == "" {
		return domain.Identity{}, domain.ErrAuthRequired
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now))
	switch {
	case err == nil && token.Valid:
	case errors.Is(err, jwt.ErrTokenMalformed):
		return domain.Identity{}, fmt.Errorf("%w: malformed", domain.ErrAuthInvalid)
	case errors.Is(err, jwt.ErrTokenExpired):
		return domain.Identity{}, fmt.Errorf("%w: expired", domain.ErrAuthInvalid)
	default:
		return domain.Identity{}, fmt.Errorf("%w: %v", domain.ErrAuthInvalid, err)
	}
	if claims.UserID == "" {
		return domain.Identity{}, fmt.Errorf("%w: missing user", domain.ErrAuthInvalid)
	}

	identity := domain.Identity{
		UserID:  claims.UserID,
		Email:   claims.Email,
		TokenID: claims.ID,
	}
	if claims.ExpiresAt != nil {
		identity.ExpiresAt = claims.ExpiresAt.Time
	}
	return identity, nil
}
