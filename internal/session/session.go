// Package session issues and resolves the signed bearer credential that
// identifies a logged-in user, and carries the resolved username through the
// request context.
package session

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/R3E-Network/book_catalog/internal/logging"
)

// CookieName is the cookie set at login that carries the credential.
const CookieName = "access_token"

var (
	// ErrInvalidToken is returned for any credential that cannot be trusted.
	ErrInvalidToken = stderrors.New("invalid session token")
	// ErrMissingUsername is returned by Issue for a blank username.
	ErrMissingUsername = stderrors.New("username is required")
)

// Claims are the JWT claims of a session credential.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Config configures an Issuer.
type Config struct {
	Secret string
	TTL    time.Duration
	Issuer string
}

// Issuer signs and verifies HS256 session tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// NewIssuer creates an issuer. A zero TTL means one hour.
func NewIssuer(cfg Config) (*Issuer, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("session: signing secret is required")
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Issuer{secret: []byte(cfg.Secret), ttl: ttl, issuer: cfg.Issuer, now: time.Now}, nil
}

// TTL returns the lifetime of issued tokens.
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// Issue signs a token for username.
func (i *Issuer) Issue(username string) (string, time.Time, error) {
	if strings.TrimSpace(username) == "" {
		return "", time.Time{}, ErrMissingUsername
	}

	now := i.now()
	expiresAt := now.Add(i.ttl)
	claims := Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    i.issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}
	return signed, expiresAt, nil
}

// Resolve verifies a token and returns its username. Every failure wraps
// ErrInvalidToken.
func (i *Issuer) Resolve(tokenString string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	}
	if i.issuer != "" {
		opts = append(opts, jwt.WithIssuer(i.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.secret, nil
	}, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || strings.TrimSpace(claims.Username) == "" {
		return "", ErrInvalidToken
	}
	return claims.Username, nil
}

type contextKey struct{}

// WithUsername attaches the authenticated username to ctx. The username is
// also recorded for logging.
func WithUsername(ctx context.Context, username string) context.Context {
	ctx = context.WithValue(ctx, contextKey{}, username)
	return logging.WithUserID(ctx, username)
}

// Username returns the authenticated username, if any.
func Username(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(contextKey{}).(string)
	if !ok || username == "" {
		return "", false
	}
	return username, true
}
