package verification

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/classtrack/classtrack-backend-go/internal/domain/attendance"
	"github.com/classtrack/classtrack-backend-go/internal/domain/session"
	"github.com/classtrack/classtrack-backend-go/internal/domain/user"
	"github.com/classtrack/classtrack-backend-go/internal/domain/verification"
	"github.com/classtrack/classtrack-backend-go/internal/pkg/clock"
	"github.com/classtrack/classtrack-backend-go/internal/pkg/timer"
	"github.com/google/uuid"
)

// Challenges are ephemeral: they live only for their window, so they are
// held in memory rather than persisted. A restart drops open challenges;
// affected records keep their tag and a teacher can simply open a new one.
type ServiceImpl struct {
	clk       clock.Clock
	scheduler *timer.Scheduler

	sessions   session.SessionRepository
	records    attendance.RecordRepository
	attendance attendance.AttendanceService

	defaultDurationMinutes int

	mu   sync.Mutex
	open map[string]*verification.Challenge // sessionID -> open challenge
}

func NewService(
	clk clock.Clock,
	scheduler *timer.Scheduler,
	sessions session.SessionRepository,
	records attendance.RecordRepository,
	attendanceService attendance.AttendanceService,
	defaultDurationMinutes int,
) verification.VerificationService {
	return &ServiceImpl{
		clk:                    clk,
		scheduler:              scheduler,
		sessions:               sessions,
		records:                records,
		attendance:             attendanceService,
		defaultDurationMinutes: defaultDurationMinutes,
		open:                   make(map[string]*verification.Challenge),
	}
}

// OpenChallenge implements verification.VerificationService.
func (s *ServiceImpl) OpenChallenge(ctx context.Context, req verification.OpenChallengeRequest) (verification.ChallengeResponse, error) {
	if err := req.Validate(); err != nil {
		return verification.ChallengeResponse{}, err
	}

	sess, err := s.sessions.GetByID(ctx, req.SessionID)
	if err != nil {
		return verification.ChallengeResponse{}, err
	}
	if sess.State != session.StateOpen {
		return verification.ChallengeResponse{}, session.ErrSessionNotOpen
	}
	if !assignedTeacher(sess, req.TeacherID) {
		return verification.ChallengeResponse{}, user.ErrTeacherAccessRequired
	}

	duration := time.Duration(req.DurationMinutes) * time.Minute
	if req.DurationMinutes == 0 {
		duration = time.Duration(s.defaultDurationMinutes) * time.Minute
	}

	// Claim the session's challenge slot before releasing the mutex, so a
	// concurrent open cannot pass the check while this one is still
	// tagging records. An entry stays in the map until its expiry sweep
	// has completed, so a new challenge cannot slip in ahead of the old
	// one's outcome either.
	s.mu.Lock()
	if _, ok := s.open[req.SessionID]; ok {
		s.mu.Unlock()
		return verification.ChallengeResponse{}, verification.ErrAlreadyOpen
	}
	now := s.clk.Now()
	challenge := &verification.Challenge{
		WindowID:  uuid.NewString(),
		SessionID: req.SessionID,
		OpenedAt:  now,
		ExpiresAt: now.Add(duration),
	}
	s.open[req.SessionID] = challenge
	s.mu.Unlock()

	recs, err := s.records.ListBySessionAndStatuses(ctx, req.SessionID,
		[]attendance.Status{attendance.StatusPresent, attendance.StatusLate})
	if err != nil {
		return s.abortOpen(challenge, err)
	}
	if len(recs) == 0 {
		return s.abortOpen(challenge, verification.ErrNoAffectedRecords)
	}

	affected := make([]string, 0, len(recs))
	for _, rec := range recs {
		if err := s.attendance.ApplyVerificationOpened(ctx, rec.SessionID, rec.StudentID, challenge.WindowID); err != nil {
			return s.abortOpen(challenge, fmt.Errorf("failed to tag record for verification: %w", err))
		}
		affected = append(affected, rec.StudentID)
	}

	s.mu.Lock()
	challenge.AffectedStudentIDs = affected
	s.mu.Unlock()

	s.scheduler.Schedule(challenge.ExpiresAt, "session:"+req.SessionID, "verification_expiry",
		func(timerCtx context.Context) error {
			return s.expire(timerCtx, challenge)
		})

	slog.Info("verification challenge opened",
		"session_id", req.SessionID,
		"window_id", challenge.WindowID,
		"affected", len(challenge.AffectedStudentIDs),
		"expires_at", challenge.ExpiresAt,
	)

	return toChallengeResponse(challenge), nil
}

// abortOpen releases the session's challenge claim when the open sequence
// does not complete. Only the claiming challenge may release it.
func (s *ServiceImpl) abortOpen(challenge *verification.Challenge, err error) (verification.ChallengeResponse, error) {
	s.mu.Lock()
	if current, ok := s.open[challenge.SessionID]; ok && current.WindowID == challenge.WindowID {
		delete(s.open, challenge.SessionID)
	}
	s.mu.Unlock()
	return verification.ChallengeResponse{}, err
}

// AnswerChallenge implements verification.VerificationService.
func (s *ServiceImpl) AnswerChallenge(ctx context.Context, req verification.AnswerChallengeRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	challenge, ok := s.open[req.SessionID]
	s.mu.Unlock()

	if !ok || challenge.WindowID != req.WindowID {
		return verification.ErrChallengeNotFound
	}
	if !s.clk.Now().Before(challenge.ExpiresAt) {
		// Too late: the expiry sweep owns the record now.
		return verification.ErrChallengeExpired
	}

	if _, err := s.attendance.ApplyVerificationCheckin(ctx, req.SessionID, req.StudentID, req.WindowID); err != nil {
		return err
	}

	return nil
}

// GetOpenChallenge implements verification.VerificationService.
func (s *ServiceImpl) GetOpenChallenge(ctx context.Context, sessionID string) (verification.ChallengeResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	challenge, ok := s.open[sessionID]
	if !ok || !s.clk.Now().Before(challenge.ExpiresAt) {
		return verification.ChallengeResponse{}, verification.ErrChallengeNotFound
	}

	return toChallengeResponse(challenge), nil
}

// expire marks every still-tagged record absent. Runs on the timer
// scheduler, so it must tolerate re-delivery: records that answered (or
// were backfilled) in time are skipped inside the attendance service.
func (s *ServiceImpl) expire(ctx context.Context, challenge *verification.Challenge) error {
	var failed int
	for _, studentID := range challenge.AffectedStudentIDs {
		if err := s.attendance.ApplyVerificationExpired(ctx, challenge.SessionID, studentID, challenge.WindowID); err != nil {
			slog.Error("verification expiry failed for record",
				"session_id", challenge.SessionID, "student_id", studentID, "error", err)
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("verification expiry incomplete for window %s: %d records failed", challenge.WindowID, failed)
	}

	s.mu.Lock()
	if current, ok := s.open[challenge.SessionID]; ok && current.WindowID == challenge.WindowID {
		delete(s.open, challenge.SessionID)
	}
	s.mu.Unlock()

	slog.Info("verification challenge expired",
		"session_id", challenge.SessionID, "window_id", challenge.WindowID)
	return nil
}

func assignedTeacher(sess session.Session, teacherID string) bool {
	for _, id := range sess.TeacherIDs {
		if id == teacherID {
			return true
		}
	}
	return false
}

func toChallengeResponse(c *verification.Challenge) verification.ChallengeResponse {
	return verification.ChallengeResponse{
		WindowID:           c.WindowID,
		SessionID:          c.SessionID,
		OpenedAt:           c.OpenedAt.Format(time.RFC3339),
		ExpiresAt:          c.ExpiresAt.Format(time.RFC3339),
		AffectedStudentIDs: c.AffectedStudentIDs,
	}
}
