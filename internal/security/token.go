package security

import (
	"errors"
	"fmt"
	"time"

	"imgstore/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for tokens that are malformed, carry a bad
// signature or have expired.
var ErrInvalidToken = errors.New("invalid token")

// RoleUser is the role granted to every authenticated user.
const RoleUser = "USER"

// Claims is the claim set carried by every issued token.
type Claims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// TokenValidator verifies tokens. The auth middleware depends on it.
type TokenValidator interface {
	Validate(token string) (*Principal, error)
}

// TokenIssuer signs and verifies HS256 tokens with a shared secret.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// TokenOption customizes a TokenIssuer.
type TokenOption func(*TokenIssuer)

// WithClock replaces time.Now, used for issuance and expiry checks.
func WithClock(now func() time.Time) TokenOption {
	return func(i *TokenIssuer) {
		i.now = now
	}
}

// NewTokenIssuer returns a *config.ConfigurationError when the secret is too
// short for HS256 or the ttl is not positive.
func NewTokenIssuer(secret string, ttl time.Duration, issuer string, opts ...TokenOption) (*TokenIssuer, error) {
	if len(secret) < config.MinSecretLength {
		return nil, &config.ConfigurationError{
			Key:    "JWT_SECRET",
			Reason: fmt.Sprintf("HS256 requires at least %d bytes, got %d", config.MinSecretLength, len(secret)),
		}
	}
	if ttl <= 0 {
		return nil, &config.ConfigurationError{Key: "JWT_EXPIRATION", Reason: "must be a positive duration"}
	}

	i := &TokenIssuer{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: issuer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// TTL returns the default token lifetime.
func (i *TokenIssuer) TTL() time.Duration {
	return i.ttl
}

// Issue creates a token for subject that expires after the configured ttl.
func (i *TokenIssuer) Issue(subject string, roles []string) (string, error) {
	return i.IssueWithTTL(subject, roles, i.ttl)
}

// IssueWithTTL creates a token for subject whose expiry is now + ttl.
func (i *TokenIssuer) IssueWithTTL(subject string, roles []string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", errors.New("token subject must not be empty")
	}
	now := i.now()
	claims := Claims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

// Validate checks signature, algorithm and expiry and returns the principal
// named by the token. It never consults a store.
func (i *TokenIssuer) Validate(tokenString string) (*Principal, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(i.issuer),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	return &Principal{Subject: claims.Subject, Roles: claims.Roles}, nil
}
