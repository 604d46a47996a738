package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/iudanet/fieldsync/internal/server/handlers"
	"github.com/iudanet/fieldsync/internal/server/jwt"
)

// AuthMiddleware создает middleware для проверки JWT токена координатора.
// Кладет в контекст внутренний ID координатора и признак elevated токена.
func AuthMiddleware(logger *slog.Logger, jwtService *jwt.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Warn("Missing Authorization header")
				http.Error(w, "Unauthorized: missing token", http.StatusUnauthorized)
				return
			}

			// Ожидаем формат: "Bearer <token>"
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				logger.Warn("Invalid Authorization header format")
				http.Error(w, "Unauthorized: invalid token format", http.StatusUnauthorized)
				return
			}

			claims, err := jwtService.ValidateAccessToken(parts[1])
			if err != nil {
				logger.Warn("Invalid access token", "error", err)
				http.Error(w, "Unauthorized: invalid token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), handlers.CoordinatorIDKey, claims.CoordinatorID)
			ctx = context.WithValue(ctx, handlers.CoordinatorSubjectKey, claims.Subject)
			ctx = context.WithValue(ctx, handlers.ElevatedKey, claims.Elevated)

			logger.Debug("Coordinator authenticated",
				"coordinator_id", claims.Subject,
				"elevated", claims.Elevated)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
