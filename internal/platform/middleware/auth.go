package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"raisegate/pkg/requestcontext"
)

// OperatorValidator validates operator bearer tokens.
type OperatorValidator interface {
	ValidateToken(tokenString string) (*OperatorClaims, error)
}

// OperatorClaims represents the claims expected from the token validator.
type OperatorClaims struct {
	OperatorID string
}

// RequireOperator guards routes that only authenticated operators may call.
func RequireOperator(validator OperatorValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				unauthorized(w, r, logger, "missing or invalid Authorization header")
				return
			}
			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(r.Context(), "unauthorized access - invalid token",
					"error", err,
					"request_id", GetRequestID(r.Context()),
				)
				unauthorized(w, r, logger, "invalid or expired token")
				return
			}
			ctx := requestcontext.WithOperatorID(r.Context(), claims.OperatorID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SweepTrigger admits either the scheduled trigger (shared secret header) or
// an authenticated operator. Both paths reach the same handler so the report
// shape cannot drift between them.
func SweepTrigger(secret string, validator OperatorValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if provided := r.Header.Get("X-Sweep-Secret"); provided != "" {
				if subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) == 1 {
					next.ServeHTTP(w, r)
					return
				}
				unauthorized(w, r, logger, "invalid sweep secret")
				return
			}
			RequireOperator(validator, logger)(next).ServeHTTP(w, r)
		})
	}
}

func unauthorized(w http.ResponseWriter, r *http.Request, logger *slog.Logger, description string) {
	logger.WarnContext(r.Context(), "unauthorized access",
		"request_id", GetRequestID(r.Context()),
		"reason", description,
	)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}
