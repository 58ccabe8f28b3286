package http

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/classtrack/classtrack-backend-go/internal/handler/http/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

func NewRouter(
	ja *jwtauth.JWTAuth,
	env string,
	allowedOrigins []string,
	sessionHandler SessionHandler,
	attendanceHandler AttendanceHandler,
	leaveHandler LeaveHandler,
	verificationHandler VerificationHandler,
) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(false)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "classtrack"),
		slog.String("version", "v1.0.0"),
		slog.String("env", env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {
		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(ja))
			r.Use(middleware.AuthRequired(ja))

			r.Route("/sessions", func(r chi.Router) {
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireTeacher)
					r.Post("/", sessionHandler.Create)
				})

				r.Route("/{sessionID}", func(r chi.Router) {
					r.Get("/", sessionHandler.Get)

					r.Group(func(r chi.Router) {
						r.Use(middleware.RequireTeacher)
						r.Put("/policy", sessionHandler.UpdatePolicy)
						r.Post("/open", sessionHandler.Open)
						r.Post("/close", sessionHandler.Close)
						r.Get("/records", attendanceHandler.ListSessionRecords)
					})

					r.Route("/verification", func(r chi.Router) {
						r.Get("/", verificationHandler.GetOpen)
						r.Post("/answer", verificationHandler.Answer)

						r.Group(func(r chi.Router) {
							r.Use(middleware.RequireTeacher)
							r.Post("/", verificationHandler.Open)
						})
					})
				})
			})

			r.Route("/attendance", func(r chi.Router) {
				r.Post("/checkin", attendanceHandler.Checkin)
				r.Post("/photo-checkin", attendanceHandler.PhotoCheckin)
				r.Get("/my", attendanceHandler.GetMyAttendance)
				r.Get("/records/{recordID}", attendanceHandler.Get)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireTeacher)
					r.Post("/manual", attendanceHandler.ManualCheckin)
					r.Post("/records/{recordID}/photo-decision", attendanceHandler.DecidePhoto)
				})
			})

			r.Route("/leave", func(r chi.Router) {
				r.Post("/applications", leaveHandler.Apply)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireTeacher)
					r.Get("/applications/overdue", leaveHandler.ListOverdue)
					r.Post("/applications/{applicationID}/decide", leaveHandler.Decide)
				})

				r.Get("/applications/{applicationID}", leaveHandler.Get)
			})
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok\n"))
	})

	return r
}
