package middleware

import (
	"context"
	"net/http"

	"github.com/classtrack/classtrack-backend-go/internal/domain/user"
	"github.com/classtrack/classtrack-backend-go/internal/handler/http/response"
	"github.com/go-chi/jwtauth/v5"
)

type ctxKey string

const (
	userIDKey ctxKey = "user_id"
	roleKey   ctxKey = "user_role"
)

// AuthRequired rejects requests without a valid access token and copies
// the subject and role claims into the request context.
func AuthRequired(ja *jwtauth.JWTAuth) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			token, claims, err := jwtauth.FromContext(r.Context())
			if err != nil {
				response.Unauthorized(w, err.Error())
				return
			}

			if token == nil {
				response.HandleError(w, user.ErrInvalidToken)
				return
			}

			sub, ok := claims["sub"].(string)
			if !ok || sub == "" {
				response.HandleError(w, user.ErrInvalidToken)
				return
			}

			role, ok := claims["role"].(string)
			if !ok {
				response.HandleError(w, user.ErrInvalidToken)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, sub)
			ctx = context.WithValue(ctx, roleKey, user.Role(role))

			next.ServeHTTP(w, r.WithContext(ctx))
		}
		return http.HandlerFunc(hfn)
	}
}

// UserID returns the authenticated subject from the request context.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// RoleFromContext returns the authenticated role from the request context.
func RoleFromContext(ctx context.Context) user.Role {
	role, _ := ctx.Value(roleKey).(user.Role)
	return role
}
