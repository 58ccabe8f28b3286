package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/classtrack/classtrack-backend-go/internal/domain/attendance"
	"github.com/classtrack/classtrack-backend-go/internal/domain/session"
	"github.com/classtrack/classtrack-backend-go/internal/pkg/clock"
	"github.com/classtrack/classtrack-backend-go/internal/pkg/database"
	"github.com/classtrack/classtrack-backend-go/internal/pkg/timer"
	"github.com/classtrack/classtrack-backend-go/internal/repository/postgresql"
)

type ServiceImpl struct {
	db        *database.DB
	clk       clock.Clock
	scheduler *timer.Scheduler

	sessions   session.SessionRepository
	records    attendance.RecordRepository
	attendance attendance.AttendanceService
}

func NewService(
	db *database.DB,
	clk clock.Clock,
	scheduler *timer.Scheduler,
	sessions session.SessionRepository,
	records attendance.RecordRepository,
	attendanceService attendance.AttendanceService,
) session.SessionService {
	return &ServiceImpl{
		db:         db,
		clk:        clk,
		scheduler:  scheduler,
		sessions:   sessions,
		records:    records,
		attendance: attendanceService,
	}
}

// timerGroup scopes a session's scheduled events so closing the session
// cancels them all at once.
func timerGroup(sessionID string) string {
	return "session:" + sessionID
}

// CreateSession implements session.SessionService.
func (s *ServiceImpl) CreateSession(ctx context.Context, req session.CreateSessionRequest) (session.SessionResponse, error) {
	if err := req.Validate(); err != nil {
		return session.SessionResponse{}, err
	}

	classStart, _ := time.Parse(time.RFC3339, req.ClassStart)
	classEnd, _ := time.Parse(time.RFC3339, req.ClassEnd)

	sess := session.Session{
		CourseID:   req.CourseID,
		Title:      req.Title,
		State:      session.StateScheduled,
		TeacherIDs: req.TeacherIDs,
		Policy: session.Policy{
			ClassStart:                classStart,
			ClassEnd:                  classEnd,
			Latitude:                  req.Latitude,
			Longitude:                 req.Longitude,
			RadiusMeters:              req.RadiusM,
			CheckinStartOffsetMinutes: req.CheckinStartOffsetMinutes,
			CheckinEndOffsetMinutes:   req.CheckinEndOffsetMinutes,
			LateThresholdMinutes:      req.LateThresholdMinutes,
			AutoAbsentAfterMinutes:    req.AutoAbsentAfterMinutes,
		},
	}

	created, err := s.sessions.Create(ctx, sess)
	if err != nil {
		return session.SessionResponse{}, err
	}

	slog.Info("session created", "session_id", created.ID, "course_id", created.CourseID)

	return toSessionResponse(created), nil
}

// GetSession implements session.SessionService.
func (s *ServiceImpl) GetSession(ctx context.Context, id string) (session.SessionResponse, error) {
	sess, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return session.SessionResponse{}, err
	}
	return toSessionResponse(sess), nil
}

// UpdatePolicy implements session.SessionService. The policy is frozen
// once the check-in window opens so students who already checked in were
// judged by the same rules as everyone after them.
func (s *ServiceImpl) UpdatePolicy(ctx context.Context, req session.UpdatePolicyRequest) (session.SessionResponse, error) {
	if err := req.Validate(); err != nil {
		return session.SessionResponse{}, err
	}

	sess, err := s.sessions.GetByID(ctx, req.ID)
	if err != nil {
		return session.SessionResponse{}, err
	}

	if sess.State != session.StateScheduled {
		return session.SessionResponse{}, session.ErrPolicyLocked
	}
	if !s.clk.Now().Before(attendance.WindowStart(sess.Policy)) {
		return session.SessionResponse{}, session.ErrPolicyLocked
	}

	classStart, _ := time.Parse(time.RFC3339, req.ClassStart)
	classEnd, _ := time.Parse(time.RFC3339, req.ClassEnd)

	policy := session.Policy{
		ClassStart:                classStart,
		ClassEnd:                  classEnd,
		Latitude:                  req.Latitude,
		Longitude:                 req.Longitude,
		RadiusMeters:              req.RadiusM,
		CheckinStartOffsetMinutes: req.CheckinStartOffsetMinutes,
		CheckinEndOffsetMinutes:   req.CheckinEndOffsetMinutes,
		LateThresholdMinutes:      req.LateThresholdMinutes,
		AutoAbsentAfterMinutes:    req.AutoAbsentAfterMinutes,
	}

	if err := s.sessions.UpdatePolicy(ctx, req.ID, policy); err != nil {
		return session.SessionResponse{}, err
	}

	sess.Policy = policy
	return toSessionResponse(sess), nil
}

// OpenSession implements session.SessionService. Opening seeds one
// not_started record per enrolled student and schedules the window-expiry
// sweep. Seeding is idempotent, so re-opening after a crash between the
// insert and the state flip is safe.
func (s *ServiceImpl) OpenSession(ctx context.Context, id string) (session.SessionResponse, error) {
	sess, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return session.SessionResponse{}, err
	}

	switch sess.State {
	case session.StateOpen:
		return session.SessionResponse{}, session.ErrSessionAlreadyOpen
	case session.StateClosed:
		return session.SessionResponse{}, session.ErrSessionClosed
	}

	studentIDs, err := s.sessions.ListEnrolledStudents(ctx, id)
	if err != nil {
		return session.SessionResponse{}, err
	}

	err = postgresql.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		recs := make([]attendance.Record, 0, len(studentIDs))
		for _, studentID := range studentIDs {
			recs = append(recs, attendance.Record{
				SessionID: id,
				StudentID: studentID,
				Status:    attendance.StatusNotStarted,
			})
		}
		if err := s.records.BulkCreate(txCtx, recs); err != nil {
			return err
		}

		return s.sessions.SetState(txCtx, id, session.StateOpen)
	})
	if err != nil {
		return session.SessionResponse{}, err
	}

	deadline := attendance.ExpiryDeadline(sess.Policy)
	s.scheduler.Schedule(deadline, timerGroup(id), "window_expiry", func(timerCtx context.Context) error {
		return s.attendance.ExpireWindow(timerCtx, id)
	})

	slog.Info("session opened",
		"session_id", id,
		"students", len(studentIDs),
		"expiry_at", deadline,
	)

	sess.State = session.StateOpen
	return toSessionResponse(sess), nil
}

// CloseSession implements session.SessionService. Closing early cancels
// the session's scheduled events; records already final stay as they are,
// and records still not_started are swept to absent immediately.
func (s *ServiceImpl) CloseSession(ctx context.Context, id string) (session.SessionResponse, error) {
	sess, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return session.SessionResponse{}, err
	}

	switch sess.State {
	case session.StateScheduled:
		return session.SessionResponse{}, session.ErrSessionNotOpen
	case session.StateClosed:
		return session.SessionResponse{}, session.ErrSessionClosed
	}

	if err := s.sessions.SetState(ctx, id, session.StateClosed); err != nil {
		return session.SessionResponse{}, err
	}

	cancelled := s.scheduler.CancelGroup(timerGroup(id))

	if err := s.attendance.ExpireWindow(ctx, id); err != nil {
		return session.SessionResponse{}, err
	}

	slog.Info("session closed", "session_id", id, "cancelled_timers", cancelled)

	sess.State = session.StateClosed
	return toSessionResponse(sess), nil
}

func toSessionResponse(sess session.Session) session.SessionResponse {
	return session.SessionResponse{
		ID:                        sess.ID,
		CourseID:                  sess.CourseID,
		Title:                     sess.Title,
		State:                     string(sess.State),
		ClassStart:                sess.Policy.ClassStart.Format(time.RFC3339),
		ClassEnd:                  sess.Policy.ClassEnd.Format(time.RFC3339),
		Latitude:                  sess.Policy.Latitude,
		Longitude:                 sess.Policy.Longitude,
		RadiusM:                   sess.Policy.RadiusMeters,
		TeacherIDs:                sess.TeacherIDs,
		CheckinStartOffsetMinutes: sess.Policy.CheckinStartOffsetMinutes,
		CheckinEndOffsetMinutes:   sess.Policy.CheckinEndOffsetMinutes,
		LateThresholdMinutes:      sess.Policy.LateThresholdMinutes,
		AutoAbsentAfterMinutes:    sess.Policy.AutoAbsentAfterMinutes,
		WindowStart:               attendance.WindowStart(sess.Policy).Format(time.RFC3339),
		WindowEnd:                 attendance.WindowEnd(sess.Policy).Format(time.RFC3339),
	}
}
