package middleware

import (
	"net/http"

	"github.com/classtrack/classtrack-backend-go/internal/domain/user"
	"github.com/classtrack/classtrack-backend-go/internal/handler/http/response"
)

// RequireTeacher requires teacher or admin role
func RequireTeacher(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !user.CanModerate(RoleFromContext(r.Context())) {
			response.HandleError(w, user.ErrTeacherAccessRequired)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequireAdmin requires admin role
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if RoleFromContext(r.Context()) != user.RoleAdmin {
			response.HandleError(w, user.ErrAdminAccessRequired)
			return
		}

		next.ServeHTTP(w, r)
	})
}
