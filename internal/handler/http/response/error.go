package response

import (
	"errors"
	"net/http"

	"github.com/classtrack/classtrack-backend-go/internal/domain/attendance"
	"github.com/classtrack/classtrack-backend-go/internal/domain/leave"
	"github.com/classtrack/classtrack-backend-go/internal/domain/session"
	"github.com/classtrack/classtrack-backend-go/internal/domain/user"
	"github.com/classtrack/classtrack-backend-go/internal/domain/verification"
	"github.com/classtrack/classtrack-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// User / access errors
	case errors.Is(err, user.ErrInvalidToken):
		Unauthorized(w, err.Error())
	case errors.Is(err, user.ErrTeacherAccessRequired),
		errors.Is(err, user.ErrAdminAccessRequired):
		Forbidden(w, err.Error())

	// Session domain errors
	case errors.Is(err, session.ErrSessionNotFound):
		NotFound(w, "Session not found")
	case errors.Is(err, session.ErrSessionNotOpen),
		errors.Is(err, session.ErrSessionAlreadyOpen),
		errors.Is(err, session.ErrSessionClosed),
		errors.Is(err, session.ErrPolicyLocked),
		errors.Is(err, session.ErrNoTeachersAssigned):
		Conflict(w, err.Error())

	// Attendance domain errors
	case errors.Is(err, attendance.ErrRecordNotFound):
		NotFound(w, "Attendance record not found")
	case errors.Is(err, attendance.ErrTooEarly),
		errors.Is(err, attendance.ErrWindowClosed),
		errors.Is(err, attendance.ErrGeofenceMismatch):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, attendance.ErrInvalidTransition),
		errors.Is(err, attendance.ErrConcurrentModification):
		Conflict(w, err.Error())

	// Leave domain errors
	case errors.Is(err, leave.ErrApplicationNotFound):
		NotFound(w, "Leave application not found")
	case errors.Is(err, leave.ErrApprovalNotFound):
		Forbidden(w, err.Error())
	case errors.Is(err, leave.ErrAlreadyDecided),
		errors.Is(err, leave.ErrActiveApplicationExists),
		errors.Is(err, leave.ErrApplicationAlreadyClosed):
		Conflict(w, err.Error())

	// Verification domain errors
	case errors.Is(err, verification.ErrChallengeNotFound):
		NotFound(w, "No open verification challenge")
	case errors.Is(err, verification.ErrChallengeExpired):
		Gone(w, err.Error())
	case errors.Is(err, verification.ErrAlreadyOpen),
		errors.Is(err, verification.ErrNoAffectedRecords):
		Conflict(w, err.Error())

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
