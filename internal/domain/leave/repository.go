package leave

import (
	"context"
	"time"
)

// Repository - interface for leave_applications and approvals tables
type Repository interface {
	CreateApplication(ctx context.Context, app Application) (Application, error)
	GetApplicationByID(ctx context.Context, id string) (Application, error)

	// GetActiveApplicationByRecord returns the record's pending
	// application, or nil when none exists.
	GetActiveApplicationByRecord(ctx context.Context, recordID string) (*Application, error)

	UpdateApplicationStatus(ctx context.Context, id string, status ApplicationStatus) error

	CreateApprovals(ctx context.Context, rows []Approval) error

	// ListApprovalsByApplication reads all fan-out rows; inside a
	// transaction the rows are locked so the aggregate is computed over a
	// consistent snapshot.
	ListApprovalsByApplication(ctx context.Context, applicationID string, forUpdate bool) ([]Approval, error)
	ListApprovalsByRecord(ctx context.Context, recordID string, forUpdate bool) ([]Approval, error)

	// Decide flips a pending row to its result atomically; returns
	// ErrAlreadyDecided when the row is no longer pending.
	Decide(ctx context.Context, approvalID string, result ApprovalResult, comment *string, decisionTime time.Time) error

	// ListOverdueApplications returns applications with no terminal
	// decision submitted before the cutoff.
	ListOverdueApplications(ctx context.Context, cutoff time.Time) ([]Application, error)
}
