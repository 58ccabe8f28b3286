package leave

import (
	"context"
	"time"
)

// Outcome is the aggregate state of a fan-out after a decision.
type Outcome struct {
	Kind               ApprovalKind
	Status             ApplicationStatus
	ApplicationID      *string
	AttendanceRecordID string
}

// Coordinator manages approval fan-out and aggregation for leave
// applications and photo check-ins. It owns the approval rows; the
// attendance state machine owns the record transitions the outcomes
// trigger.
type Coordinator interface {
	// OpenLeaveApplication creates the application plus one pending
	// approval row per approver, in the given order, atomically.
	OpenLeaveApplication(ctx context.Context, app Application, approverIDs []string) (Application, error)

	// OpenPhotoApproval creates the single-approver task for a photo
	// check-in (the session's primary teacher).
	OpenPhotoApproval(ctx context.Context, recordID, approverID string) error

	// DecideLeave records one approver's decision idempotently and
	// returns the recomputed aggregate outcome.
	DecideLeave(ctx context.Context, req DecideRequest) (Outcome, error)

	// DecidePhoto resolves the photo approval task for a record.
	DecidePhoto(ctx context.Context, recordID, approverID string, approve bool, comment *string) (Outcome, error)

	// HasActiveApplication guards the at-most-one-active-application rule.
	HasActiveApplication(ctx context.Context, recordID string) (bool, error)

	GetApplication(ctx context.Context, id string) (ApplicationResponse, error)

	// GetOverdue surfaces applications pending longer than threshold.
	// Leave requests never auto-expire; this is for operators.
	GetOverdue(ctx context.Context, threshold time.Duration) ([]ApplicationResponse, error)
}
