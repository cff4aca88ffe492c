// Package tokenx inspects bearer tokens without verifying their signature.
// The client only needs the expiry and identity claims to schedule refreshes;
// verification is the backend's job. Every helper fails closed: a token whose
// payload cannot be parsed, or which carries no expiry, is treated as expired.
package tokenx

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/catusdev/catus-client/internal/common"
)

// Payload is the decoded claim set of an access token. It is derived on
// demand and never persisted.
type Payload struct {
	Subject   string
	UserID    int64
	HasUserID bool
	IssuedAt  time.Time
	ExpiresAt time.Time
	HasExpiry bool
	Claims    map[string]any
}

var parser = jwt.NewParser()

// Decode parses the token payload without signature verification.
// Returns common.ErrInvalidToken wrapped around the parse failure for
// malformed input (wrong segment count, bad encoding, invalid JSON).
func Decode(token string) (*Payload, error) {
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidToken, err)
	}

	p := &Payload{Claims: claims}

	if sub, err := claims.GetSubject(); err == nil {
		p.Subject = sub
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		p.IssuedAt = iat.Time
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		p.ExpiresAt = exp.Time
		p.HasExpiry = true
	}

	// The backend is inconsistent about where the numeric user id lives:
	// "userId", "id", or a numeric "sub" have all been observed.
	for _, key := range []string{"userId", "id"} {
		if v, ok := claims[key].(float64); ok {
			p.UserID = int64(v)
			p.HasUserID = true
			break
		}
	}
	if !p.HasUserID && p.Subject != "" {
		if id, err := strconv.ParseInt(p.Subject, 10, 64); err == nil {
			p.UserID = id
			p.HasUserID = true
		}
	}

	return p, nil
}

// UserID extracts the numeric user id from the token, reporting whether one
// was found.
func UserID(token string) (int64, bool) {
	p, err := Decode(token)
	if err != nil || !p.HasUserID {
		return 0, false
	}
	return p.UserID, true
}

// IsExpired reports whether the token's expiry has passed. Tokens without a
// parseable payload or expiry claim count as expired.
func IsExpired(token string) bool {
	p, err := Decode(token)
	if err != nil || !p.HasExpiry {
		return true
	}
	return !time.Now().Before(p.ExpiresAt)
}

// IsExpiringSoon reports whether the token expires within threshold.
// Fails closed like IsExpired.
func IsExpiringSoon(token string, threshold time.Duration) bool {
	p, err := Decode(token)
	if err != nil || !p.HasExpiry {
		return true
	}
	return !time.Now().Before(p.ExpiresAt.Add(-threshold))
}

// RemainingSeconds returns the number of seconds until expiry, clamped to 0.
func RemainingSeconds(token string) int64 {
	p, err := Decode(token)
	if err != nil || !p.HasExpiry {
		return 0
	}
	remaining := int64(time.Until(p.ExpiresAt).Seconds())
	if remaining < 0 {
		return 0
	}
	return remaining
}
