package auth

import (
	"context"
	"net/http"

	"ms-events/internal/logger"
	"ms-events/internal/models"
	"ms-events/internal/utils"
)

type contextKey string

const userIDKey contextKey = "user_id"

// Verifier turns a raw bearer token into a user id.
type Verifier interface {
	Verify(ctx context.Context, raw string) (string, error)
}

// Middleware rejects requests without a bearer token that one of verifiers
// accepts, and stores the verified user id in the request context.
func Middleware(log *logger.Logger, verifiers ...Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rawToken, err := ExtractTokenFromRequest(r)
			if err != nil {
				utils.WriteMessage(w, http.StatusUnauthorized, "No token, authorization denied")
				return
			}

			for _, v := range verifiers {
				userID, err := v.Verify(r.Context(), rawToken)
				if err == nil {
					next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
					return
				}
			}

			log.LogSecurity("INVALID_TOKEN", r.Method+" "+r.URL.Path)
			utils.WriteError(w, models.ErrUnauthorized)
		})
	}
}

// WithUserID returns a copy of ctx carrying userID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// Helper to extract user ID in handlers
func UserID(ctx context.Context) string {
	if uid, ok := ctx.Value(userIDKey).(string); ok {
		return uid
	}
	return ""
}
