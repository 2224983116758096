package session

import (
	"context"
	"net/http"
	"strings"

	"scoutpulse-platform/internal/autherr"
)

const (
	authorizationHeader = "Authorization"
	bearerPrefix        = "Bearer "

	// DefaultCookieName is the cookie consulted when no bearer header is set.
	DefaultCookieName = "access_token"
)

// ExtractBearer returns the bearer token from an Authorization header, or
// "" when absent or malformed. Pure; no framework coupling.
func ExtractBearer(h http.Header) string {
	raw := strings.TrimSpace(h.Get(authorizationHeader))
	if raw == "" || !strings.HasPrefix(raw, bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(raw, bearerPrefix))
}

// ExtractCookie returns the named cookie's value from a Cookie header, or
// "" when absent. An empty name means DefaultCookieName.
func ExtractCookie(h http.Header, name string) string {
	if name == "" {
		name = DefaultCookieName
	}
	raw := h.Get("Cookie")
	if raw == "" {
		return ""
	}
	for _, part := range strings.Split(raw, ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if ok && k == name {
			return v
		}
	}
	return ""
}

// ExtractToken returns the bearer token, falling back to the access-token
// cookie.
func ExtractToken(h http.Header) string {
	if tok := ExtractBearer(h); tok != "" {
		return tok
	}
	return ExtractCookie(h, DefaultCookieName)
}

// RequireSession is the single entry point middleware should call: it
// extracts the credential from generic request headers, validates it, and
// returns either the resolved session+user or a normalized taxonomy error.
// Raw backend errors never leak through it.
func RequireSession(ctx context.Context, h http.Header, v Validator, cfg Config) (*Session, *User, *autherr.Error) {
	tok := ExtractToken(h)

	result := Validate(ctx, tok, v, cfg)
	if !result.Valid || result.Session == nil || result.User == nil {
		err := result.Err
		if err == nil {
			err = autherr.New(autherr.KindTokenMissing)
		}
		return nil, nil, err
	}
	return result.Session, result.User, nil
}
