package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/classtrack/classtrack-backend-go/internal/domain/attendance"
	"github.com/classtrack/classtrack-backend-go/internal/domain/leave"
	"github.com/classtrack/classtrack-backend-go/internal/domain/session"
	"github.com/classtrack/classtrack-backend-go/internal/domain/user"
	"github.com/classtrack/classtrack-backend-go/internal/domain/verification"
	"github.com/classtrack/classtrack-backend-go/internal/pkg/clock"
	"github.com/classtrack/classtrack-backend-go/internal/pkg/database"
	"github.com/classtrack/classtrack-backend-go/internal/repository/postgresql"
)

type ServiceImpl struct {
	db  *database.DB
	clk clock.Clock

	records     attendance.RecordRepository
	sessions    session.SessionRepository
	coordinator leave.Coordinator

	// Widening cap for reported GPS accuracy when validating the geofence.
	maxAccuracyAllowanceMeters float64

	locks *keyedMutex
}

func NewService(
	db *database.DB,
	clk clock.Clock,
	records attendance.RecordRepository,
	sessions session.SessionRepository,
	coordinator leave.Coordinator,
	maxAccuracyAllowanceMeters float64,
) *ServiceImpl {
	return &ServiceImpl{
		db:                         db,
		clk:                        clk,
		records:                    records,
		sessions:                   sessions,
		coordinator:                coordinator,
		maxAccuracyAllowanceMeters: maxAccuracyAllowanceMeters,
		locks:                      newKeyedMutex(),
	}
}

var _ attendance.AttendanceService = (*ServiceImpl)(nil)

// Checkin implements attendance.AttendanceService.
func (s *ServiceImpl) Checkin(ctx context.Context, req attendance.CheckinRequest) (attendance.RecordResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.RecordResponse{}, err
	}

	sess, err := s.openSession(ctx, req.SessionID)
	if err != nil {
		return attendance.RecordResponse{}, err
	}

	unlock := s.locks.Lock(req.SessionID + ":" + req.StudentID)
	defer unlock()

	rec, err := s.records.GetBySessionAndStudent(ctx, req.SessionID, req.StudentID)
	if err != nil {
		return attendance.RecordResponse{}, err
	}

	now := s.clk.Now()
	ev := attendance.Checkin{
		Time:      now,
		Timing:    attendance.ClassifyTime(sess.Policy, now),
		Geofence:  attendance.ClassifyGeofence(req.Latitude, req.Longitude, req.Accuracy, sess.Policy, s.maxAccuracyAllowanceMeters),
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Accuracy:  req.Accuracy,
	}

	updated, _, err := s.apply(ctx, rec, ev)
	if err != nil {
		return attendance.RecordResponse{}, err
	}

	slog.Info("check-in accepted",
		"session_id", req.SessionID,
		"student_id", req.StudentID,
		"status", updated.Status,
		"distance_meters", ev.Geofence.DistanceMeters,
	)

	return toRecordResponse(updated), nil
}

// PhotoCheckin implements attendance.AttendanceService.
func (s *ServiceImpl) PhotoCheckin(ctx context.Context, req attendance.PhotoCheckinRequest) (attendance.RecordResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.RecordResponse{}, err
	}

	sess, err := s.openSession(ctx, req.SessionID)
	if err != nil {
		return attendance.RecordResponse{}, err
	}
	if len(sess.TeacherIDs) == 0 {
		return attendance.RecordResponse{}, session.ErrNoTeachersAssigned
	}

	unlock := s.locks.Lock(req.SessionID + ":" + req.StudentID)
	defer unlock()

	rec, err := s.records.GetBySessionAndStudent(ctx, req.SessionID, req.StudentID)
	if err != nil {
		return attendance.RecordResponse{}, err
	}

	now := s.clk.Now()
	ev := attendance.PhotoCheckin{
		Time:      now,
		Timing:    attendance.ClassifyTime(sess.Policy, now),
		Geofence:  attendance.ClassifyGeofence(req.Latitude, req.Longitude, req.Accuracy, sess.Policy, s.maxAccuracyAllowanceMeters),
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Accuracy:  req.Accuracy,
		PhotoRef:  req.PhotoRef,
	}

	var updated attendance.Record
	err = postgresql.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		var effects []attendance.Effect
		updated, effects, err = s.apply(txCtx, rec, ev)
		if err != nil {
			return err
		}

		for _, effect := range effects {
			if _, ok := effect.(attendance.OpenPhotoApproval); ok {
				// The primary teacher is the sole approver for photo evidence.
				if err := s.coordinator.OpenPhotoApproval(txCtx, updated.ID, sess.TeacherIDs[0]); err != nil {
					return err
				}
			}
		}

		return nil
	})
	if err != nil {
		return attendance.RecordResponse{}, err
	}

	slog.Info("photo check-in pending approval",
		"session_id", req.SessionID,
		"student_id", req.StudentID,
		"approver_id", sess.TeacherIDs[0],
	)

	return toRecordResponse(updated), nil
}

// DecidePhoto implements attendance.AttendanceService.
func (s *ServiceImpl) DecidePhoto(ctx context.Context, req attendance.DecidePhotoRequest) (attendance.RecordResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.RecordResponse{}, err
	}

	rec, err := s.records.GetByID(ctx, req.RecordID)
	if err != nil {
		return attendance.RecordResponse{}, err
	}

	unlock := s.locks.Lock(rec.Key())
	defer unlock()

	// Re-read under the lock; the record may have moved.
	rec, err = s.records.GetByID(ctx, req.RecordID)
	if err != nil {
		return attendance.RecordResponse{}, err
	}

	var updated attendance.Record
	err = postgresql.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		outcome, err := s.coordinator.DecidePhoto(txCtx, rec.ID, req.ApproverID, req.Approve, req.Comment)
		if err != nil {
			return err
		}
		if outcome.Status == leave.ApplicationStatusPending {
			updated = rec
			return nil
		}

		ev := attendance.PhotoDecision{
			Approve: outcome.Status == leave.ApplicationStatusApproved,
			Comment: req.Comment,
		}
		updated, _, err = s.apply(txCtx, rec, ev)
		return err
	})
	if err != nil {
		return attendance.RecordResponse{}, err
	}

	return toRecordResponse(updated), nil
}

// ApplyLeave implements attendance.AttendanceService.
func (s *ServiceImpl) ApplyLeave(ctx context.Context, req leave.ApplyRequest) (leave.ApplicationResponse, error) {
	if err := req.Validate(); err != nil {
		return leave.ApplicationResponse{}, err
	}

	sess, err := s.openSession(ctx, req.SessionID)
	if err != nil {
		return leave.ApplicationResponse{}, err
	}
	if len(sess.TeacherIDs) == 0 {
		return leave.ApplicationResponse{}, session.ErrNoTeachersAssigned
	}

	unlock := s.locks.Lock(req.SessionID + ":" + req.StudentID)
	defer unlock()

	rec, err := s.records.GetBySessionAndStudent(ctx, req.SessionID, req.StudentID)
	if err != nil {
		return leave.ApplicationResponse{}, err
	}

	active, err := s.coordinator.HasActiveApplication(ctx, rec.ID)
	if err != nil {
		return leave.ApplicationResponse{}, err
	}
	if active {
		return leave.ApplicationResponse{}, leave.ErrActiveApplicationExists
	}

	now := s.clk.Now()
	ev := attendance.LeaveApply{Time: now, LeaveType: req.LeaveType, Reason: req.Reason}

	var created leave.Application
	err = postgresql.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		updated, effects, err := s.apply(txCtx, rec, ev)
		if err != nil {
			return err
		}

		for _, effect := range effects {
			if open, ok := effect.(attendance.OpenLeaveApplication); ok {
				created, err = s.coordinator.OpenLeaveApplication(txCtx, leave.Application{
					AttendanceRecordID: updated.ID,
					SessionID:          updated.SessionID,
					StudentID:          updated.StudentID,
					LeaveType:          leave.LeaveType(open.LeaveType),
					Reason:             open.Reason,
					ApplicationTime:    now,
					Status:             leave.ApplicationStatusPending,
				}, sess.TeacherIDs)
				if err != nil {
					return err
				}
			}
		}

		return nil
	})
	if err != nil {
		return leave.ApplicationResponse{}, err
	}

	return s.coordinator.GetApplication(ctx, created.ID)
}

// DecideLeave implements attendance.AttendanceService. The approver's
// decision is recorded first; only a terminal aggregate outcome moves the
// attendance record.
func (s *ServiceImpl) DecideLeave(ctx context.Context, req leave.DecideRequest) (attendance.RecordResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.RecordResponse{}, err
	}

	app, err := s.coordinator.GetApplication(ctx, req.ApplicationID)
	if err != nil {
		return attendance.RecordResponse{}, err
	}

	unlock := s.locks.Lock(app.SessionID + ":" + app.StudentID)
	defer unlock()

	var updated attendance.Record
	err = postgresql.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		outcome, err := s.coordinator.DecideLeave(txCtx, req)
		if err != nil {
			return err
		}

		rec, err := s.records.GetByID(txCtx, outcome.AttendanceRecordID)
		if err != nil {
			return err
		}
		if outcome.Status == leave.ApplicationStatusPending {
			updated = rec
			return nil
		}

		ev := attendance.LeaveDecision{Approve: outcome.Status == leave.ApplicationStatusApproved}
		updated, _, err = s.apply(txCtx, rec, ev)
		if errors.Is(err, attendance.ErrInvalidTransition) {
			// The record was moved out of leave_pending (e.g. a manual
			// backfill) before the decision landed. The application's own
			// status still changed; the record stays as it is.
			slog.Warn("leave decision had no effect on record",
				"application_id", req.ApplicationID,
				"record_id", rec.ID,
				"record_status", rec.Status,
			)
			updated = rec
			return nil
		}
		return err
	})
	if err != nil {
		return attendance.RecordResponse{}, err
	}

	return toRecordResponse(updated), nil
}

// ManualCheckin implements attendance.AttendanceService.
func (s *ServiceImpl) ManualCheckin(ctx context.Context, req attendance.ManualCheckinRequest) (attendance.RecordResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.RecordResponse{}, err
	}

	sess, err := s.sessions.GetByID(ctx, req.SessionID)
	if err != nil {
		return attendance.RecordResponse{}, err
	}
	if !assignedTeacher(sess, req.TeacherID) {
		return attendance.RecordResponse{}, user.ErrTeacherAccessRequired
	}

	unlock := s.locks.Lock(req.SessionID + ":" + req.StudentID)
	defer unlock()

	rec, err := s.records.GetBySessionAndStudent(ctx, req.SessionID, req.StudentID)
	if err != nil {
		return attendance.RecordResponse{}, err
	}

	ev := attendance.ManualCheckin{Time: s.clk.Now(), Reason: req.Reason}
	updated, _, err := s.apply(ctx, rec, ev)
	if err != nil {
		return attendance.RecordResponse{}, err
	}

	slog.Info("manual check-in recorded",
		"session_id", req.SessionID,
		"student_id", req.StudentID,
		"teacher_id", req.TeacherID,
	)

	return toRecordResponse(updated), nil
}

// ExpireWindow implements attendance.AttendanceService. Invoked by the
// timer scheduler; it must stay idempotent because delivery is
// at-least-once.
func (s *ServiceImpl) ExpireWindow(ctx context.Context, sessionID string) error {
	recs, err := s.records.ListBySessionAndStatuses(ctx, sessionID, []attendance.Status{attendance.StatusNotStarted})
	if err != nil {
		return err
	}

	var failed int
	for _, rec := range recs {
		if err := s.expireRecord(ctx, rec); err != nil {
			slog.Error("window expiry failed for record",
				"session_id", sessionID, "student_id", rec.StudentID, "error", err)
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("window expiry incomplete for session %s: %d of %d records failed", sessionID, failed, len(recs))
	}

	slog.Info("check-in window expired", "session_id", sessionID, "absented", len(recs))
	return nil
}

func (s *ServiceImpl) expireRecord(ctx context.Context, rec attendance.Record) error {
	unlock := s.locks.Lock(rec.Key())
	defer unlock()

	rec, err := s.records.GetBySessionAndStudent(ctx, rec.SessionID, rec.StudentID)
	if err != nil {
		return err
	}

	_, _, err = s.apply(ctx, rec, attendance.WindowExpired{})
	if errors.Is(err, attendance.ErrInvalidTransition) {
		// Checked in (or applied for leave) between the sweep's snapshot
		// and this lock. Nothing to expire.
		return nil
	}
	return err
}

// ApplyVerificationOpened implements attendance.AttendanceService.
func (s *ServiceImpl) ApplyVerificationOpened(ctx context.Context, sessionID, studentID, windowID string) error {
	unlock := s.locks.Lock(sessionID + ":" + studentID)
	defer unlock()

	rec, err := s.records.GetBySessionAndStudent(ctx, sessionID, studentID)
	if err != nil {
		return err
	}

	_, _, err = s.apply(ctx, rec, attendance.VerificationOpened{WindowID: windowID})
	if errors.Is(err, attendance.ErrInvalidTransition) {
		// No longer present/late; the challenge does not apply to it.
		return nil
	}
	return err
}

// ApplyVerificationCheckin implements attendance.AttendanceService.
func (s *ServiceImpl) ApplyVerificationCheckin(ctx context.Context, sessionID, studentID, windowID string) (attendance.RecordResponse, error) {
	unlock := s.locks.Lock(sessionID + ":" + studentID)
	defer unlock()

	rec, err := s.records.GetBySessionAndStudent(ctx, sessionID, studentID)
	if err != nil {
		return attendance.RecordResponse{}, err
	}

	if rec.VerificationWindowID == nil {
		if rec.Status == attendance.StatusAbsent && rec.CheckinSource != nil && *rec.CheckinSource == attendance.SourceVerification {
			// The expiry sweep already absented this record; a late
			// answer must not read as success.
			return attendance.RecordResponse{}, verification.ErrChallengeExpired
		}
		// Already answered; confirming twice is a no-op.
		return toRecordResponse(rec), nil
	}

	updated, _, err := s.apply(ctx, rec, attendance.VerificationCheckin{WindowID: windowID})
	if err != nil {
		return attendance.RecordResponse{}, err
	}

	return toRecordResponse(updated), nil
}

// ApplyVerificationExpired implements attendance.AttendanceService.
func (s *ServiceImpl) ApplyVerificationExpired(ctx context.Context, sessionID, studentID, windowID string) error {
	unlock := s.locks.Lock(sessionID + ":" + studentID)
	defer unlock()

	rec, err := s.records.GetBySessionAndStudent(ctx, sessionID, studentID)
	if err != nil {
		return err
	}

	_, _, err = s.apply(ctx, rec, attendance.VerificationExpired{WindowID: windowID})
	if errors.Is(err, attendance.ErrInvalidTransition) {
		// Answered in time, or the tag was cleared by a backfill.
		return nil
	}
	return err
}

// GetRecord implements attendance.AttendanceService.
func (s *ServiceImpl) GetRecord(ctx context.Context, id string) (attendance.RecordResponse, error) {
	rec, err := s.records.GetByID(ctx, id)
	if err != nil {
		return attendance.RecordResponse{}, err
	}
	return toRecordResponse(rec), nil
}

// GetMyAttendance implements attendance.AttendanceService.
func (s *ServiceImpl) GetMyAttendance(ctx context.Context, studentID string, filter attendance.RecordFilter) (attendance.ListRecordsResponse, error) {
	if err := filter.Validate(); err != nil {
		return attendance.ListRecordsResponse{}, err
	}

	recs, total, err := s.records.ListByStudent(ctx, studentID, filter)
	if err != nil {
		return attendance.ListRecordsResponse{}, err
	}

	return toListResponse(recs, total, filter), nil
}

// ListSessionRecords implements attendance.AttendanceService.
func (s *ServiceImpl) ListSessionRecords(ctx context.Context, sessionID string, filter attendance.RecordFilter) (attendance.ListRecordsResponse, error) {
	if err := filter.Validate(); err != nil {
		return attendance.ListRecordsResponse{}, err
	}

	if _, err := s.sessions.GetByID(ctx, sessionID); err != nil {
		return attendance.ListRecordsResponse{}, err
	}

	recs, total, err := s.records.ListBySession(ctx, sessionID, filter)
	if err != nil {
		return attendance.ListRecordsResponse{}, err
	}

	return toListResponse(recs, total, filter), nil
}

// apply runs one event through the state machine and persists the result.
// Caller must hold the record's lock.
func (s *ServiceImpl) apply(ctx context.Context, rec attendance.Record, ev attendance.Event) (attendance.Record, []attendance.Effect, error) {
	next, effects, err := attendance.Reduce(rec, ev)
	if err != nil {
		return rec, nil, err
	}

	updated, err := s.records.Update(ctx, next)
	if err != nil {
		return rec, nil, err
	}

	return updated, effects, nil
}

func (s *ServiceImpl) openSession(ctx context.Context, sessionID string) (session.Session, error) {
	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return session.Session{}, err
	}
	if sess.State != session.StateOpen {
		return session.Session{}, session.ErrSessionNotOpen
	}
	return sess, nil
}

func assignedTeacher(sess session.Session, teacherID string) bool {
	for _, id := range sess.TeacherIDs {
		if id == teacherID {
			return true
		}
	}
	return false
}

func toRecordResponse(rec attendance.Record) attendance.RecordResponse {
	resp := attendance.RecordResponse{
		ID:                   rec.ID,
		SessionID:            rec.SessionID,
		StudentID:            rec.StudentID,
		StudentName:          rec.StudentName,
		Status:               string(rec.Status),
		CheckinLatitude:      rec.CheckinLatitude,
		CheckinLongitude:     rec.CheckinLongitude,
		OffsetDistanceMeters: rec.OffsetDistanceMeters,
		PhotoRef:             rec.PhotoRef,
		VerificationWindowID: rec.VerificationWindowID,
		Remark:               rec.Remark,
	}
	if rec.CheckinTime != nil {
		t := rec.CheckinTime.Format(time.RFC3339)
		resp.CheckinTime = &t
	}
	if rec.CheckinSource != nil {
		src := string(*rec.CheckinSource)
		resp.CheckinSource = &src
	}
	return resp
}

func toListResponse(recs []attendance.Record, total int64, filter attendance.RecordFilter) attendance.ListRecordsResponse {
	responses := make([]attendance.RecordResponse, 0, len(recs))
	for _, rec := range recs {
		responses = append(responses, toRecordResponse(rec))
	}

	totalPages := int((total + int64(filter.Limit) - 1) / int64(filter.Limit))

	return attendance.ListRecordsResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages,
		Records:    responses,
	}
}
