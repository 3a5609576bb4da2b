package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/harentsoaR/medico-api/internal/models"
)

// ErrInvalidToken covers malformed, tampered and expired tokens alike.
var ErrInvalidToken = errors.New("invalid or expired token")

var tokenTTLs = map[models.Role]time.Duration{
	models.RoleUser:       7 * 24 * time.Hour,
	models.RoleHospital:   24 * time.Hour,
	models.RoleClinic:     24 * time.Hour,
	models.RoleConsultant: 24 * time.Hour,
	models.RoleDoctor:     7 * 24 * time.Hour,
}

// TokenTTL is the login token lifetime for a role.
func TokenTTL(role models.Role) time.Duration {
	if ttl, ok := tokenTTLs[role]; ok {
		return ttl
	}
	return 24 * time.Hour
}

type Claims struct {
	UserID string      `json:"userId"`
	Role   models.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 tokens with one process-wide secret.
type TokenIssuer struct {
	secret []byte
	now    func() time.Time
}

func NewTokenIssuer(secret string) (*TokenIssuer, error) {
	if secret == "" {
		return nil, errors.New("JWT_SECRET is not configured")
	}
	return &TokenIssuer{secret: []byte(secret), now: time.Now}, nil
}

// WithClock returns a copy of the issuer reading time from now.
func (t *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	return &TokenIssuer{secret: t.secret, now: now}
}

// Issue creates a token for subjectID valid for ttl.
func (t *TokenIssuer) Issue(subjectID string, role models.Role, ttl time.Duration) (string, error) {
	now := t.now()
	claims := &Claims{
		UserID: subjectID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Verify validates a given token string.
func (t *TokenIssuer) Verify(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
