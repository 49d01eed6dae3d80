package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/inkblog/inkblog/config"
)

// SessionClaims defines the JWT claims carried by an authenticated session.
type SessionClaims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// SessionDuration returns the token lifetime, longer when the user asked to
// be remembered.
func SessionDuration(remember bool) time.Duration {
	cfg := config.Get()
	if remember {
		return time.Duration(cfg.RememberDays) * 24 * time.Hour
	}
	return time.Duration(cfg.SessionHours) * time.Hour
}

// GenerateSessionToken issues a session JWT for the given identity.
func GenerateSessionToken(userID uint, username string, remember bool) (string, error) {
	cfg := config.Get()
	claims := SessionClaims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(SessionDuration(remember))),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString([]byte(cfg.SecretKey))
}

// ParseSessionToken validates a session JWT and returns its claims.
func ParseSessionToken(tokenStr string) (*SessionClaims, error) {
	cfg := config.Get()
	parsed, err := jwt.ParseWithClaims(tokenStr, &SessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(cfg.SecretKey), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*SessionClaims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
