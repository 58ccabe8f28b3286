package leave

import (
	"time"
)

type LeaveType string

const (
	LeaveTypeSick      LeaveType = "sick"
	LeaveTypePersonal  LeaveType = "personal"
	LeaveTypeEmergency LeaveType = "emergency"
	LeaveTypeOther     LeaveType = "other"
)

func (t LeaveType) Valid() bool {
	switch t {
	case LeaveTypeSick, LeaveTypePersonal, LeaveTypeEmergency, LeaveTypeOther:
		return true
	}
	return false
}

type ApplicationStatus string

const (
	ApplicationStatusPending  ApplicationStatus = "pending"
	ApplicationStatusApproved ApplicationStatus = "approved"
	ApplicationStatusRejected ApplicationStatus = "rejected"
)

// Application is one leave request; at most one non-terminal application
// per attendance record at a time. Terminal once approved or rejected.
type Application struct {
	ID                 string
	AttendanceRecordID string
	SessionID          string
	StudentID          string
	LeaveType          LeaveType
	Reason             string
	ApplicationTime    time.Time
	Status             ApplicationStatus

	CreatedAt time.Time
	UpdatedAt time.Time
}

type ApprovalResult string

const (
	ApprovalPending   ApprovalResult = "pending"
	ApprovalApproved  ApprovalResult = "approved"
	ApprovalRejected  ApprovalResult = "rejected"
	ApprovalCancelled ApprovalResult = "cancelled"
)

// ApprovalKind distinguishes the two uses of the fan-out mechanism: leave
// applications (one row per approver) and photo check-ins (exactly one
// row, the session's primary teacher).
type ApprovalKind string

const (
	ApprovalKindLeave ApprovalKind = "leave"
	ApprovalKindPhoto ApprovalKind = "photo"
)

// Approval is one approver's row in a fan-out. Exactly one of
// LeaveApplicationID and AttendanceRecordID is set, matching Kind.
type Approval struct {
	ID                 string
	Kind               ApprovalKind
	LeaveApplicationID *string
	AttendanceRecordID *string
	ApproverID         string
	Result             ApprovalResult
	Comment            *string
	DecisionTime       *time.Time
	Order              int
	IsFinalApprover    bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// AggregateOutcome is the one place the fan-out aggregation rule lives:
// rejected if any row is rejected; approved once every required
// (non-cancelled) row is approved; pending otherwise.
func AggregateOutcome(rows []Approval) ApplicationStatus {
	required := 0
	approved := 0
	for _, row := range rows {
		switch row.Result {
		case ApprovalRejected:
			return ApplicationStatusRejected
		case ApprovalCancelled:
			continue
		case ApprovalApproved:
			approved++
		}
		required++
	}
	if required > 0 && approved == required {
		return ApplicationStatusApproved
	}
	return ApplicationStatusPending
}
