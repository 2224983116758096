package token

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"
)

// Claims is the decoded, UNVERIFIED view of a bearer token's payload.
// Decoding is a structural operation only; nothing here checks the
// signature. Use the authoritative validator for trust decisions.
type Claims struct {
	Subject   string `json:"sub"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	ExpiresAt int64  `json:"exp"`
	IssuedAt  int64  `json:"iat"`
	TokenID   string `json:"jti,omitempty"`
}

// Decode parses a token's payload segment without verification.
// It returns nil on any structural failure and never errors: these helpers
// exist to skip backend round-trips for obviously-fresh tokens, and a
// malformed string is simply "not a token".
func Decode(tok string) *Claims {
	parts := strings.Split(tok, ".")
	if len(parts) != 3 {
		return nil
	}

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		// Tolerate padded encoders.
		payload, err = base64.URLEncoding.DecodeString(parts[1])
		if err != nil {
			return nil
		}
	}

	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil
	}
	return &claims
}

// IsExpired reports whether the token is expired at now+buffer.
// Undecodable tokens and tokens without an exp claim are treated as
// expired (fail closed).
func IsExpired(tok string, buffer time.Duration, now time.Time) bool {
	claims := Decode(tok)
	if claims == nil || claims.ExpiresAt == 0 {
		return true
	}
	return !now.Add(buffer).Before(time.Unix(claims.ExpiresAt, 0))
}

// TTL returns the remaining lifetime of the token, floor-clamped at zero.
func TTL(tok string, now time.Time) time.Duration {
	claims := Decode(tok)
	if claims == nil || claims.ExpiresAt == 0 {
		return 0
	}
	ttl := time.Unix(claims.ExpiresAt, 0).Sub(now)
	if ttl < 0 {
		return 0
	}
	return ttl
}

// ShouldRefresh reports whether the token is alive but within the proactive
// refresh threshold: true iff 0 < ttl <= threshold. Already-expired tokens
// return false; they need the refresh-token path, not a proactive refresh.
func ShouldRefresh(tok string, threshold time.Duration, now time.Time) bool {
	ttl := TTL(tok, now)
	return ttl > 0 && ttl <= threshold
}
