package attendance

import (
	"time"
)

// Status is the closed set of attendance states. Transitions between them
// are decided exclusively by Reduce; nothing else writes Status.
type Status string

const (
	StatusNotStarted      Status = "not_started"
	StatusPresent         Status = "present"
	StatusLate            Status = "late"
	StatusPendingApproval Status = "pending_approval"
	StatusLeavePending    Status = "leave_pending"
	StatusLeave           Status = "leave"
	// StatusLeaveRejected is transient: a rejected leave application
	// finalizes the record as absent in the same transition.
	StatusLeaveRejected Status = "leave_rejected"
	StatusAbsent        Status = "absent"
)

// SessionFinal reports whether the status counts toward attendance-rate
// computation once the session's window and any challenge have closed.
func (s Status) SessionFinal() bool {
	switch s {
	case StatusPresent, StatusLate, StatusLeave, StatusAbsent:
		return true
	}
	return false
}

func (s Status) Valid() bool {
	switch s {
	case StatusNotStarted, StatusPresent, StatusLate, StatusPendingApproval,
		StatusLeavePending, StatusLeave, StatusLeaveRejected, StatusAbsent:
		return true
	}
	return false
}

// Source records which evidence channel produced the check-in.
type Source string

const (
	SourceGPS          Source = "gps"
	SourcePhoto        Source = "photo"
	SourceManual       Source = "manual"
	SourceVerification Source = "verification"
)

// Record is one student's attendance for one class session. Created when
// the session opens; mutated only through the state machine; never deleted.
//
// Invariant: CheckinTime is non-nil iff Status is present, late, or
// pending_approval.
type Record struct {
	ID        string
	SessionID string
	StudentID string
	Status    Status

	CheckinTime      *time.Time
	CheckinSource    *Source
	CheckinLatitude  *float64
	CheckinLongitude *float64
	CheckinAccuracy  *float64

	OffsetDistanceMeters *float64
	PhotoRef             *string

	// Set while a mid-class re-verification challenge is open for this
	// record; cleared by a matching verification check-in or expiry.
	VerificationWindowID *string

	Remark *string

	// Optimistic concurrency token for the store layer.
	Version int64

	CreatedAt time.Time
	UpdatedAt time.Time

	// DTO
	StudentName *string
}

// Key identifies the record's serialization scope.
func (r Record) Key() string {
	return r.SessionID + ":" + r.StudentID
}
