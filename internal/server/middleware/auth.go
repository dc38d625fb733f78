// Package middleware provides HTTP middleware for agency authentication.
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// ContextKey is a typed key for context values to avoid collisions.
type ContextKey string

// agencyIDKey is the context key for storing the authenticated agency ID.
const agencyIDKey ContextKey = "agencyID"

// TokenValidator validates bearer tokens issued by the identity provider.
type TokenValidator interface {
	ValidateToken(tokenString string) (AgencyIDGetter, error)
}

// AgencyIDGetter extracts the tenant from validated token claims.
type AgencyIDGetter interface {
	GetAgencyID() uuid.UUID
}

// AuthMiddleware creates middleware that validates bearer tokens and adds the agency ID to the request context.
func AuthMiddleware(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				unauthorized(w)
				return
			}

			// Handle case-insensitive "Bearer" prefix
			parts := strings.Fields(authHeader)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				unauthorized(w)
				return
			}

			claims, err := validator.ValidateToken(parts[1])
			if err != nil {
				unauthorized(w)
				return
			}

			agencyID := claims.GetAgencyID()
			if agencyID == uuid.Nil {
				unauthorized(w)
				return
			}

			ctx := WithAgencyID(r.Context(), agencyID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized"}` + "\n"))
}

// WithAgencyID returns a copy of ctx carrying agencyID.
func WithAgencyID(ctx context.Context, agencyID uuid.UUID) context.Context {
	return context.WithValue(ctx, agencyIDKey, agencyID)
}

// GetAgencyID extracts the authenticated agency ID from the request context.
func GetAgencyID(r *http.Request) (uuid.UUID, error) {
	agencyID, ok := r.Context().Value(agencyIDKey).(uuid.UUID)
	if !ok {
		return uuid.Nil, fmt.Errorf("agency ID not found in request context")
	}
	return agencyID, nil
}
