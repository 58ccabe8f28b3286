package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/classtrack/classtrack-backend-go/internal/config"
	appHTTP "github.com/classtrack/classtrack-backend-go/internal/handler/http"
	"github.com/classtrack/classtrack-backend-go/internal/pkg/clock"
	"github.com/classtrack/classtrack-backend-go/internal/pkg/cron"
	"github.com/classtrack/classtrack-backend-go/internal/pkg/database"
	"github.com/classtrack/classtrack-backend-go/internal/pkg/timer"
	"github.com/classtrack/classtrack-backend-go/internal/repository/postgresql"
	attendanceService "github.com/classtrack/classtrack-backend-go/internal/service/attendance"
	leaveService "github.com/classtrack/classtrack-backend-go/internal/service/leave"
	sessionService "github.com/classtrack/classtrack-backend-go/internal/service/session"
	verificationService "github.com/classtrack/classtrack-backend-go/internal/service/verification"
	"github.com/go-chi/jwtauth/v5"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	db, err := database.NewPostgreSQLDB(cfg.DatabaseURL())
	if err != nil {
		fmt.Println("Error connecting to database:", err)
		return
	}
	defer db.Close()

	clk := clock.New()

	recordRepo := postgresql.NewRecordRepository(db)
	sessionRepo := postgresql.NewSessionRepository(db)
	leaveRepo := postgresql.NewLeaveRepository(db)

	scheduler := timer.NewScheduler(clk, time.Duration(cfg.Attendance.TimerRetrySeconds)*time.Second)
	scheduler.Start()
	defer scheduler.Stop()

	coordinator := leaveService.NewCoordinator(db, leaveRepo, clk)
	attendanceSvc := attendanceService.NewService(
		db,
		clk,
		recordRepo,
		sessionRepo,
		coordinator,
		cfg.Attendance.MaxAccuracyAllowanceMeters,
	)
	sessionSvc := sessionService.NewService(db, clk, scheduler, sessionRepo, recordRepo, attendanceSvc)
	verificationSvc := verificationService.NewService(
		clk,
		scheduler,
		sessionRepo,
		recordRepo,
		attendanceSvc,
		cfg.Attendance.DefaultVerificationMinutes,
	)

	cronScheduler := cron.NewScheduler()
	cron.RegisterOverdueLeaveJob(
		cronScheduler,
		coordinator,
		time.Duration(cfg.Attendance.OverdueScanIntervalMinutes)*time.Minute,
		time.Duration(cfg.Attendance.OverdueLeaveThresholdHours)*time.Hour,
	)
	cronScheduler.Start()
	defer cronScheduler.Stop()

	ja := jwtauth.New("HS256", []byte(cfg.JWT.Secret), nil)

	sessionHandler := appHTTP.NewSessionHandler(sessionSvc)
	attendanceHandler := appHTTP.NewAttendanceHandler(attendanceSvc)
	leaveHandler := appHTTP.NewLeaveHandler(
		attendanceSvc,
		coordinator,
		time.Duration(cfg.Attendance.OverdueLeaveThresholdHours)*time.Hour,
	)
	verificationHandler := appHTTP.NewVerificationHandler(verificationSvc)

	router := appHTTP.NewRouter(
		ja,
		cfg.App.Env,
		cfg.App.AllowedOrigins,
		sessionHandler,
		attendanceHandler,
		leaveHandler,
		verificationHandler,
	)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	fmt.Printf("Server running at http://localhost%s\n", port)
	if err := http.ListenAndServe(port, router); err != nil {
		fmt.Println("Server error:", err)
	}
}
