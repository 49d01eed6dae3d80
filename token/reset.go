// Package token implements the password-reset token codec: a compact signed
// credential that lets its holder reset one account's password until it
// expires. No server-side state backs these tokens, so a redeemed token stays
// valid until its expiry lapses, and rotating the signing secret invalidates
// every outstanding token at once.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL is how long an issued reset token stays redeemable.
const DefaultTTL = 30 * time.Minute

// ErrInvalid is the only failure Redeem reports. Malformed tokens, bad
// signatures and expired tokens are deliberately indistinguishable to callers.
var ErrInvalid = errors.New("invalid or expired token")

// Internal taxonomy, collapsed to ErrInvalid at the Redeem boundary.
var (
	errMalformed    = errors.New("reset token: malformed")
	errBadSignature = errors.New("reset token: bad signature")
	errExpired      = errors.New("reset token: expired")
)

type resetClaims struct {
	UserID uint `json:"user_id"`
	jwt.RegisteredClaims
}

// Codec signs and validates reset tokens with an explicitly injected secret.
type Codec struct {
	secret []byte
	now    func() time.Time
}

// NewCodec builds a Codec around the process-wide secret key.
func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret), now: time.Now}
}

// NewCodecAt builds a Codec with a custom clock, used by tests to simulate
// the passage of time.
func NewCodecAt(secret string, now func() time.Time) *Codec {
	return &Codec{secret: []byte(secret), now: now}
}

// Issue serializes the user id with the issue time, signs it, and returns an
// opaque token string. A non-positive ttl falls back to DefaultTTL.
func (c *Codec) Issue(userID uint, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := c.now()
	claims := resetClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(c.secret)
}

// Redeem verifies the signature and expiry and returns the embedded user id.
// Any failure surfaces as ErrInvalid; the caller must re-resolve the id to a
// live account and treat a missing account as a separate failure.
func (c *Codec) Redeem(tokenStr string) (uint, error) {
	userID, err := c.redeem(tokenStr)
	if err != nil {
		return 0, ErrInvalid
	}
	return userID, nil
}

func (c *Codec) redeem(tokenStr string) (uint, error) {
	claims := &resetClaims{}
	parsed, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errBadSignature
		}
		return c.secret, nil
	}, jwt.WithTimeFunc(c.now))
	if err != nil {
		return 0, classify(err)
	}
	if !parsed.Valid || claims.UserID == 0 {
		return 0, errMalformed
	}
	return claims.UserID, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return errExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, errBadSignature):
		return errBadSignature
	default:
		return errMalformed
	}
}
