package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
)

type contextKey string

const sellerIDKey contextKey = "sellerID"

// SellerFromContext returns the authenticated seller id, empty when the
// request was not authenticated. Ownership checks fail closed on empty.
func SellerFromContext(ctx context.Context) string {
	id, _ := ctx.Value(sellerIDKey).(string)
	return id
}

// TokenVerifier resolves a bearer credential to a seller id.
type TokenVerifier interface {
	VerifyToken(token string) (string, error)
}

// Authenticate rejects requests without a valid bearer token and stashes the
// resolved seller id plus a request-scoped logger in the context.
func Authenticate(verifier TokenVerifier, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if token == "" || token == r.Header.Get("Authorization") {
				writeError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			sellerID, err := verifier.VerifyToken(token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			reqLogger := logger.With().Str("seller_id", sellerID).Logger()
			ctx := context.WithValue(r.Context(), sellerIDKey, sellerID)
			ctx = reqLogger.WithContext(ctx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
