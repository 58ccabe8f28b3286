package leave

import (
	"github.com/classtrack/classtrack-backend-go/internal/pkg/validator"
)

type ApplyRequest struct {
	SessionID string `json:"session_id"`
	StudentID string `json:"-"`
	LeaveType string `json:"leave_type"`
	Reason    string `json:"reason"`
}

func (r *ApplyRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.SessionID) {
		errs = append(errs, validator.ValidationError{
			Field:   "session_id",
			Message: "session_id is required",
		})
	}

	if !LeaveType(r.LeaveType).Valid() {
		errs = append(errs, validator.ValidationError{
			Field:   "leave_type",
			Message: "leave_type must be one of: sick, personal, emergency, other",
		})
	}

	if validator.IsEmpty(r.Reason) {
		errs = append(errs, validator.ValidationError{
			Field:   "reason",
			Message: "a reason is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type DecideRequest struct {
	ApplicationID string  `json:"-"`
	ApproverID    string  `json:"-"`
	Approve       bool    `json:"approve"`
	Comment       *string `json:"comment,omitempty"`
}

func (r *DecideRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.ApplicationID) {
		errs = append(errs, validator.ValidationError{
			Field:   "application_id",
			Message: "application_id is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type ApplicationResponse struct {
	ID                 string             `json:"id"`
	AttendanceRecordID string             `json:"attendance_record_id"`
	SessionID          string             `json:"session_id"`
	StudentID          string             `json:"student_id"`
	LeaveType          string             `json:"leave_type"`
	Reason             string             `json:"reason"`
	ApplicationTime    string             `json:"application_time"`
	Status             string             `json:"status"`
	Approvals          []ApprovalResponse `json:"approvals,omitempty"`
}

type ApprovalResponse struct {
	ID           string  `json:"id"`
	ApproverID   string  `json:"approver_id"`
	Result       string  `json:"result"`
	Comment      *string `json:"comment,omitempty"`
	DecisionTime *string `json:"decision_time,omitempty"`
	Order        int     `json:"order"`
	IsFinal      bool    `json:"is_final_approver"`
}
