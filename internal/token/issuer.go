package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Type string

const (
	TypeAccess  Type = "access"
	TypeRefresh Type = "refresh"
)

// SignedClaims is the only supported JWT claims shape for this service.
// Refresh tokens deliberately omit email and role; they exist solely to
// mint new access tokens.
type SignedClaims struct {
	jwt.RegisteredClaims

	Email     string `json:"email,omitempty"`
	Role      string `json:"role,omitempty"`
	TokenType Type   `json:"token_type"`
}

// Issuer signs and verifies HS256 token pairs for the identity backend.
type Issuer struct {
	secret     []byte
	issuer     string
	audience   string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

type IssuerConfig struct {
	Secret     string
	Issuer     string
	Audience   string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func NewIssuer(cfg IssuerConfig) (*Issuer, error) {
	if cfg.Secret == "" {
		return nil, errors.New("token secret is required")
	}
	return &Issuer{
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		audience:   cfg.Audience,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
	}, nil
}

type Pair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// IssuePair mints an access/refresh token pair for a user with a fresh jti.
func (i *Issuer) IssuePair(now time.Time, userID, email, role string) (Pair, error) {
	return i.IssuePairForSession(now, uuid.NewString(), userID, email, role)
}

// IssuePairForSession mints a pair whose jti is the backing session id, so a
// token and its session row resolve to each other.
func (i *Issuer) IssuePairForSession(now time.Time, sessionID, userID, email, role string) (Pair, error) {
	accessExp := now.Add(i.accessTTL)
	access, err := i.sign(now, accessExp, sessionID, TypeAccess, userID, email, role)
	if err != nil {
		return Pair{}, err
	}

	refreshExp := now.Add(i.refreshTTL)
	refresh, err := i.sign(now, refreshExp, sessionID, TypeRefresh, userID, "", "")
	if err != nil {
		return Pair{}, err
	}

	return Pair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Verify parses and validates a signed token, checking signature, expiry,
// issuer/audience when configured, and the expected token type.
func (i *Issuer) Verify(tokenString string, expected Type, now time.Time) (SignedClaims, error) {
	var claims SignedClaims

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithLeeway(30*time.Second), // clock skew tolerance
	)

	_, err := parser.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	})
	if err != nil {
		return SignedClaims{}, err
	}

	opts := []jwt.ParserOption{
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithLeeway(30 * time.Second),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	}
	if i.issuer != "" {
		opts = append(opts, jwt.WithIssuer(i.issuer))
	}
	if i.audience != "" {
		opts = append(opts, jwt.WithAudience(i.audience))
	}
	if err := jwt.NewValidator(opts...).Validate(claims.RegisteredClaims); err != nil {
		return SignedClaims{}, err
	}

	if claims.TokenType != expected {
		return SignedClaims{}, errors.New("token_type mismatch")
	}
	if claims.Subject == "" {
		return SignedClaims{}, errors.New("sub missing")
	}
	if expected == TypeAccess && claims.Role == "" {
		return SignedClaims{}, errors.New("role missing in access token")
	}
	return claims, nil
}

func (i *Issuer) sign(now, expiresAt time.Time, jti string, tokenType Type, userID, email, role string) (string, error) {
	claims := SignedClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   userID,
			Audience:  audienceOrNil(i.audience),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        jti,
		},
		Email:     email,
		Role:      role,
		TokenType: tokenType,
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(i.secret)
}

func audienceOrNil(aud string) jwt.ClaimStrings {
	if aud == "" {
		return nil
	}
	return jwt.ClaimStrings{aud}
}
