package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	id "trustgrid/pkg/domain"
	"trustgrid/pkg/requestcontext"
)

const apiKeyHeader = "X-API-Key"

// OrgAuthenticator resolves an API key secret to the owning organization.
// Implemented by the credential service; the middleware never sees hashes.
type OrgAuthenticator interface {
	ResolveAPIKey(ctx context.Context, secret string) (id.OrgID, error)
}

// SessionValidator validates a citizen session token.
type SessionValidator interface {
	ValidateToken(tokenString string) (id.UserID, error)
}

// RequireOrgKey authenticates the organization via the X-API-Key header and
// injects its OrgID into the request context. Revoked or unknown keys get a
// uniform 401 so callers cannot enumerate accounts.
func RequireOrgKey(auth OrgAuthenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			secret := r.Header.Get(apiKeyHeader)
			if secret == "" {
				unauthorized(w, "Missing API key")
				return
			}
			orgID, err := auth.ResolveAPIKey(ctx, secret)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized org access",
					"request_id", requestcontext.RequestID(ctx),
				)
				unauthorized(w, "Invalid or expired API key")
				return
			}
			next.ServeHTTP(w, r.WithContext(requestcontext.WithOrgID(ctx, orgID)))
		})
	}
}

// RequireCitizen authenticates a citizen via a Bearer session token and
// injects the UserID into the request context.
func RequireCitizen(validator SessionValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || token == "" {
				unauthorized(w, "Missing or invalid Authorization header")
				return
			}
			userID, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized citizen access",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				unauthorized(w, "Invalid or expired token")
				return
			}
			next.ServeHTTP(w, r.WithContext(requestcontext.WithUserID(ctx, userID)))
		})
	}
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":{"code":"invalid_credential","message":"` + message + `"}}`))
}
