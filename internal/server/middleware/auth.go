// Package middleware provides HTTP middleware for authentication and authorization.
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"
)

// ContextKey is a typed key for context values to avoid collisions.
type ContextKey string

// principalKey is the context key for storing the authenticated principal.
const principalKey ContextKey = "principal"

// TokenValidator is an interface for validating bearer tokens.
// This allows the middleware to work with any JWT service implementation.
type TokenValidator interface {
	ValidateToken(tokenString string) (Principal, error)
}

// Principal is the authenticated caller extracted from token claims.
type Principal interface {
	GetPrincipalID() string
	GetRole() string
}

// BearerToken returns the token from an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) (string, bool) {
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// AuthMiddleware validates bearer tokens and adds the principal to the request
// context. When roles are given, principals with any other role get 403.
func AuthMiddleware(validator TokenValidator, roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			principal, err := validator.ValidateToken(token)
			if err != nil || principal == nil || principal.GetPrincipalID() == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if len(roles) > 0 && !slices.Contains(roles, principal.GetRole()) {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), principalKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetPrincipal extracts the authenticated principal from the request context.
func GetPrincipal(r *http.Request) (Principal, error) {
	p, ok := r.Context().Value(principalKey).(Principal)
	if !ok {
		return nil, fmt.Errorf("principal not found in request context")
	}
	return p, nil
}

// GetSubject returns the subject of the authenticated principal.
func GetSubject(r *http.Request) (string, error) {
	p, err := GetPrincipal(r)
	if err != nil {
		return "", err
	}
	return p.GetPrincipalID(), nil
}

// WithPrincipal returns ctx carrying p, for handlers invoked without the middleware.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}
