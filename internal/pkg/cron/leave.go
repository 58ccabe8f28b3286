package cron

import (
	"context"
	"log/slog"
	"time"

	"github.com/classtrack/classtrack-backend-go/internal/domain/leave"
)

// RegisterOverdueLeaveJob flags leave applications that have been waiting
// on approvers longer than threshold. Applications never auto-expire; the
// job only surfaces them for operators.
func RegisterOverdueLeaveJob(s *Scheduler, coordinator leave.Coordinator, interval, threshold time.Duration) {
	s.AddJob("overdue_leave_applications", interval, func(ctx context.Context) error {
		overdue, err := coordinator.GetOverdue(ctx, threshold)
		if err != nil {
			return err
		}

		for _, app := range overdue {
			slog.Warn("leave application overdue",
				"application_id", app.ID,
				"session_id", app.SessionID,
				"student_id", app.StudentID,
				"applied_at", app.ApplicationTime,
			)
		}

		if len(overdue) > 0 {
			slog.Info("overdue leave scan completed", "count", len(overdue))
		}
		return nil
	})
}
