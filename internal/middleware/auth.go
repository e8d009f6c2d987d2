// Package middleware provides HTTP middleware for the book catalog
package middleware

import (
	"net/http"
	"strings"

	"github.com/R3E-Network/book_catalog/internal/errors"
	internalhttputil "github.com/R3E-Network/book_catalog/internal/httputil"
	"github.com/R3E-Network/book_catalog/internal/logging"
	"github.com/R3E-Network/book_catalog/internal/session"
)

// TokenResolver turns a session credential into a username.
type TokenResolver interface {
	Resolve(token string) (string, error)
}

// AuthMiddleware requires a valid session credential and attaches the
// resolved username to the request context.
type AuthMiddleware struct {
	resolver TokenResolver
	logger   *logging.Logger
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(resolver TokenResolver, logger *logging.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		resolver: resolver,
		logger:   logger,
	}
}

// Handler returns the middleware handler
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			m.respondError(w, r, errors.Unauthenticated("User not logged in"), nil)
			return
		}

		username, err := m.resolver.Resolve(token)
		if err != nil {
			m.respondError(w, r, errors.Unauthenticated("User not authenticated"), err)
			return
		}

		ctx := session.WithUsername(r.Context(), username)
		m.logger.WithContext(ctx).Debug("Authentication successful")

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractToken reads a Bearer Authorization header, falling back to the
// session cookie.
func extractToken(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if cookie, err := r.Cookie(session.CookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// respondError sends an error response
func (m *AuthMiddleware) respondError(w http.ResponseWriter, r *http.Request, serviceErr *errors.ServiceError, cause error) {
	internalhttputil.WriteServiceError(w, r, serviceErr)

	entry := m.logger.WithContext(r.Context())
	if cause != nil {
		entry = entry.WithError(cause)
	}
	entry.WithFields(map[string]interface{}{
		"path":   r.URL.Path,
		"method": r.Method,
		"status": serviceErr.HTTPStatus,
	}).Warn("Authentication failed")
}
