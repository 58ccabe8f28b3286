package verification

import (
	"github.com/classtrack/classtrack-backend-go/internal/pkg/validator"
)

type OpenChallengeRequest struct {
	SessionID       string `json:"session_id"`
	DurationMinutes int    `json:"duration_minutes"`
	TeacherID       string `json:"-"`
}

func (r *OpenChallengeRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.SessionID) {
		errs = append(errs, validator.ValidationError{
			Field:   "session_id",
			Message: "session_id is required",
		})
	}

	if r.DurationMinutes < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "duration_minutes",
			Message: "duration_minutes must not be negative",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type AnswerChallengeRequest struct {
	SessionID string `json:"session_id"`
	WindowID  string `json:"window_id"`
	StudentID string `json:"-"`
}

func (r *AnswerChallengeRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.SessionID) {
		errs = append(errs, validator.ValidationError{
			Field:   "session_id",
			Message: "session_id is required",
		})
	}

	if validator.IsEmpty(r.WindowID) {
		errs = append(errs, validator.ValidationError{
			Field:   "window_id",
			Message: "window_id is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type ChallengeResponse struct {
	WindowID           string   `json:"window_id"`
	SessionID          string   `json:"session_id"`
	OpenedAt           string   `json:"opened_at"`
	ExpiresAt          string   `json:"expires_at"`
	AffectedStudentIDs []string `json:"affected_student_ids"`
}
