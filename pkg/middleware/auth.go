package middleware

import (
	"net/http"
	"strings"

	"yamdb/internal/authz"
	"yamdb/internal/data/repository"
	"yamdb/pkg/token"
	"yamdb/pkg/utils"

	"go.uber.org/zap"
)

// Authenticate resolves an optional bearer token into the request's user.
// Requests without a token continue as anonymous. A token that fails to
// verify, or names a missing or inactive user, is rejected with 401.
func Authenticate(tokens *token.Manager, userRepo repository.UserRepository, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}

			scheme, raw, found := strings.Cut(authHeader, " ")
			if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(raw) == "" {
				utils.ResponseUnauthorized(w, "Invalid token format. Use: Bearer <token>")
				return
			}

			claims, err := tokens.Parse(strings.TrimSpace(raw))
			if err != nil {
				logger.Warn("Invalid bearer token", zap.Error(err), zap.String("path", r.URL.Path))
				utils.ResponseUnauthorized(w, "Invalid or expired token")
				return
			}

			// Role comes from the database so promotions and demotions apply immediately.
			user, err := userRepo.FindByID(r.Context(), claims.UserID)
			if err != nil {
				logger.Error("Failed to load token user", zap.Error(err), zap.Int64("user_id", claims.UserID))
				utils.ResponseInternalError(w, "Internal server error")
				return
			}
			if user == nil || !user.IsActive {
				logger.Warn("Token user missing or inactive", zap.Int64("user_id", claims.UserID))
				utils.ResponseUnauthorized(w, "User not found or inactive")
				return
			}

			if entry := entryFromContext(r.Context()); entry != nil {
				entry.username = user.Username
			}

			ctx := utils.SetUserContext(r.Context(), user.ID, user.Username, string(user.Role))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects anonymous requests with 401.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := utils.GetUserIDFromContext(r.Context()); !ok {
			utils.ResponseUnauthorized(w, "Authentication credentials were not provided")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequirePermission answers 401 to anonymous callers and 403 to roles the
// enforcer does not allow to perform act on obj.
func RequirePermission(enforcer *authz.Enforcer, obj, act string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := utils.GetRoleFromContext(r.Context())
			if enforcer.Allowed(role, obj, act) {
				next.ServeHTTP(w, r)
				return
			}

			if _, ok := utils.GetUserIDFromContext(r.Context()); !ok {
				utils.ResponseUnauthorized(w, "Authentication credentials were not provided")
				return
			}

			logger.Warn("Permission denied",
				zap.String("role", role),
				zap.String("object", obj),
				zap.String("action", act),
				zap.String("path", r.URL.Path),
			)
			utils.ResponseForbidden(w, "You do not have permission to perform this action")
		})
	}
}
