package auth

import (
	"errors"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/triage-service/internal/domain"
)

// TokenManager handles issuing and validating JWT tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string, ttlMinutes int) *TokenManager {
	if ttlMinutes <= 0 {
		ttlMinutes = 60
	}
	return &TokenManager{secret: []byte(secret), ttl: time.Duration(ttlMinutes) * time.Minute, now: time.Now}
}

// Claims describes JWT payload. The subject is the member id.
type Claims struct {
	Email          string `json:"email"`
	Name           string `json:"name,omitempty"`
	OrganizationID string `json:"org"`
	jwt.RegisteredClaims
}

// Actor returns the caller identity carried by the claims.
func (c *Claims) Actor() domain.Actor {
	return domain.Actor{
		ID:             c.Subject,
		Name:           c.Name,
		Email:          c.Email,
		OrganizationID: c.OrganizationID,
	}
}

// GenerateToken builds and signs a JWT for the member.
func (tm *TokenManager) GenerateToken(actor domain.Actor) (string, time.Time, error) {
	if strings.TrimSpace(actor.ID) == "" || strings.TrimSpace(actor.Email) == "" {
		return "", time.Time{}, errors.New("member id and email are required")
	}
	now := tm.now()
	expiresAt := now.Add(tm.ttl)
	claims := &Claims{
		Email:          actor.Email,
		Name:           actor.Name,
		OrganizationID: actor.OrganizationID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseToken validates and returns claims.
func (tm *TokenManager) ParseToken(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	}, jwt.WithTimeFunc(tm.now))
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.Subject == "" || claims.Email == "" {
		return nil, errors.New("token lacks member identity")
	}
	return claims, nil
}
