package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/hasnain-a7/nextProjectFlow/logging"
	"github.com/hasnain-a7/nextProjectFlow/utils"
)

type contextKey string

const claimsKey contextKey = "claims"

// JWTAuth rejects requests without a valid bearer token and stores the
// parsed claims in the request context.
func JWTAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			logging.Logger.Warnf("Event ID: JWT_AUTH_MISSING_HEADER, Description: Authorization header missing for request to %s %s", r.Method, r.URL.Path)
			http.Error(w, "Authorization header missing", http.StatusUnauthorized)
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

		claims, err := utils.ValidateToken(tokenStr)
		if err != nil {
			logging.Logger.Warnf("Event ID: JWT_AUTH_INVALID_TOKEN, Description: Invalid token provided for request to %s %s: %v", r.Method, r.URL.Path, err)
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClaimsFrom returns the token claims stored by JWTAuth, or nil when the
// request skipped the middleware.
func ClaimsFrom(r *http.Request) *utils.Claims {
	claims, _ := r.Context().Value(claimsKey).(*utils.Claims)
	return claims
}
