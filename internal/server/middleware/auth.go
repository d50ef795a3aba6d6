// Package middleware provides HTTP middleware for bearer token authentication.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

// ContextKey is a typed key for context values to avoid collisions.
type ContextKey string

// clientKey is the context key for the authenticated API client.
const clientKey ContextKey = "client"

// TokenValidator validates a bearer token and returns the client it was issued to.
type TokenValidator interface {
	ValidateToken(tokenString string) (ClientGetter, error)
}

// ClientGetter exposes the client name carried by token claims.
type ClientGetter interface {
	GetClient() string
}

// safeMethods are never authenticated.
var safeMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodHead:    true,
	http.MethodOptions: true,
}

// RequireAuth validates the bearer token on every request.
func RequireAuth(v TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				unauthorized(w, "missing bearer token")
				return
			}
			claims, err := v.ValidateToken(token)
			if err != nil {
				unauthorized(w, "invalid token")
				return
			}
			ctx := context.WithValue(r.Context(), clientKey, claims.GetClient())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuthForWrites authenticates only requests that change state
// (POST, PATCH, PUT, DELETE); reads pass through.
func RequireAuthForWrites(v TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		authed := RequireAuth(v)(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if safeMethods[r.Method] {
				next.ServeHTTP(w, r)
				return
			}
			authed.ServeHTTP(w, r)
		})
	}
}

// Client returns the authenticated client name, or "" for anonymous requests.
func Client(r *http.Request) string {
	c, _ := r.Context().Value(clientKey).(string)
	return c
}

// bearerToken parses "Bearer <token>", case-insensitive on the scheme.
func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="brandos"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
