package attendance

import (
	"context"

	"github.com/classtrack/classtrack-backend-go/internal/domain/leave"
)

// AttendanceService is the single entry point for attendance events. Every
// status transition for a record goes through here, one event at a time
// per record.
type AttendanceService interface {
	// Checkin processes a geofenced GPS check-in
	Checkin(ctx context.Context, req CheckinRequest) (RecordResponse, error)

	// PhotoCheckin records photo evidence and opens a teacher approval task
	PhotoCheckin(ctx context.Context, req PhotoCheckinRequest) (RecordResponse, error)

	// DecidePhoto resolves a pending photo check-in
	DecidePhoto(ctx context.Context, req DecidePhotoRequest) (RecordResponse, error)

	// ApplyLeave opens a leave application and fans it out to approvers
	ApplyLeave(ctx context.Context, req leave.ApplyRequest) (leave.ApplicationResponse, error)

	// DecideLeave records one approver's decision; when the aggregate
	// outcome turns terminal the record transitions accordingly
	DecideLeave(ctx context.Context, req leave.DecideRequest) (RecordResponse, error)

	// ManualCheckin is the teacher backfill; it overrides any current state
	ManualCheckin(ctx context.Context, req ManualCheckinRequest) (RecordResponse, error)

	// ExpireWindow sweeps every record still not_started to absent; invoked
	// by the timer service when a session's check-in window closes
	ExpireWindow(ctx context.Context, sessionID string) error

	// Verification events, applied on behalf of the verification scheduler
	ApplyVerificationOpened(ctx context.Context, sessionID, studentID, windowID string) error
	ApplyVerificationCheckin(ctx context.Context, sessionID, studentID, windowID string) (RecordResponse, error)
	ApplyVerificationExpired(ctx context.Context, sessionID, studentID, windowID string) error

	// Snapshot reads (no per-record lock)
	GetRecord(ctx context.Context, id string) (RecordResponse, error)
	GetMyAttendance(ctx context.Context, studentID string, filter RecordFilter) (ListRecordsResponse, error)
	ListSessionRecords(ctx context.Context, sessionID string, filter RecordFilter) (ListRecordsResponse, error)
}
