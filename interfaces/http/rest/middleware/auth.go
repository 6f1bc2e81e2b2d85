package middleware

import (
	"net/http"
	"strings"

	"journal-insights/pkg/auth"
	apperrors "journal-insights/pkg/errors"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Authenticate resolves the bearer token to a user and stores it in the
// request context. A missing token is AUTH_REQUIRED, an unresolvable one
// AUTH_FAILED.
func Authenticate(resolver auth.IdentityResolver, errorHandler *apperrors.ErrorHandler, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				errorHandler.Handle(w, r, apperrors.NewUnauthorizedError(apperrors.CodeAuthRequired, "Authentication required"))
				return
			}

			user, err := resolver.Resolve(r.Context(), token)
			if err != nil {
				logger.Warn("Invalid token",
					zap.Error(err),
					zap.String("path", r.URL.Path),
					zap.String("request_id", middleware.GetReqID(r.Context())),
				)
				errorHandler.Handle(w, r, apperrors.NewUnauthorizedError(apperrors.CodeAuthFailed, "Invalid or expired session").WithCause(err))
				return
			}

			logger.Debug("Request authenticated",
				zap.String("user_id", user.UserID),
				zap.String("path", r.URL.Path),
			)

			next.ServeHTTP(w, r.WithContext(auth.SetUserInContext(r.Context(), user)))
		})
	}
}

// extractToken reads the bearer token from the Authorization header
func extractToken(r *http.Request) string {
	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	if authHeader == "" {
		return ""
	}

	// Scheme with nothing after it
	if strings.EqualFold(authHeader, "bearer") {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	// Token without Bearer prefix
	return authHeader
}
