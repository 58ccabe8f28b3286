package leave

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/classtrack/classtrack-backend-go/internal/domain/leave"
	"github.com/classtrack/classtrack-backend-go/internal/pkg/clock"
	"github.com/classtrack/classtrack-backend-go/internal/pkg/database"
	"github.com/classtrack/classtrack-backend-go/internal/repository/postgresql"
)

type CoordinatorImpl struct {
	tx  postgresql.Transactor
	clk clock.Clock
	leave.Repository
}

func NewCoordinator(db *database.DB, repo leave.Repository, clk clock.Clock) leave.Coordinator {
	return &CoordinatorImpl{
		tx:         postgresql.NewTransactor(db),
		clk:        clk,
		Repository: repo,
	}
}

// OpenLeaveApplication implements leave.Coordinator.
func (c *CoordinatorImpl) OpenLeaveApplication(ctx context.Context, app leave.Application, approverIDs []string) (leave.Application, error) {
	if len(approverIDs) == 0 {
		return leave.Application{}, fmt.Errorf("leave application needs at least one approver")
	}

	var created leave.Application
	err := c.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		var err error
		created, err = c.Repository.CreateApplication(txCtx, app)
		if err != nil {
			return err
		}

		rows := make([]leave.Approval, 0, len(approverIDs))
		for i, approverID := range approverIDs {
			rows = append(rows, leave.Approval{
				Kind:               leave.ApprovalKindLeave,
				LeaveApplicationID: &created.ID,
				ApproverID:         approverID,
				Result:             leave.ApprovalPending,
				Order:              i + 1,
				IsFinalApprover:    i == len(approverIDs)-1,
			})
		}

		return c.Repository.CreateApprovals(txCtx, rows)
	})
	if err != nil {
		return leave.Application{}, err
	}

	slog.Info("leave application opened",
		"application_id", created.ID,
		"record_id", created.AttendanceRecordID,
		"approvers", len(approverIDs),
	)

	return created, nil
}

// OpenPhotoApproval implements leave.Coordinator.
func (c *CoordinatorImpl) OpenPhotoApproval(ctx context.Context, recordID, approverID string) error {
	row := leave.Approval{
		Kind:               leave.ApprovalKindPhoto,
		AttendanceRecordID: &recordID,
		ApproverID:         approverID,
		Result:             leave.ApprovalPending,
		Order:              1,
		IsFinalApprover:    true,
	}

	if err := c.Repository.CreateApprovals(ctx, []leave.Approval{row}); err != nil {
		return fmt.Errorf("failed to open photo approval: %w", err)
	}

	return nil
}

// DecideLeave implements leave.Coordinator. Re-submitting a decision an
// approver already made is a no-op returning the current aggregate; a
// conflicting re-submission fails with ErrAlreadyDecided.
func (c *CoordinatorImpl) DecideLeave(ctx context.Context, req leave.DecideRequest) (leave.Outcome, error) {
	if err := req.Validate(); err != nil {
		return leave.Outcome{}, err
	}

	result := leave.ApprovalRejected
	if req.Approve {
		result = leave.ApprovalApproved
	}

	var outcome leave.Outcome
	err := c.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		app, err := c.Repository.GetApplicationByID(txCtx, req.ApplicationID)
		if err != nil {
			return err
		}
		if app.Status != leave.ApplicationStatusPending {
			return leave.ErrApplicationAlreadyClosed
		}

		rows, err := c.Repository.ListApprovalsByApplication(txCtx, req.ApplicationID, true)
		if err != nil {
			return err
		}

		var own *leave.Approval
		for i := range rows {
			if rows[i].ApproverID == req.ApproverID {
				own = &rows[i]
				break
			}
		}
		if own == nil {
			return leave.ErrApprovalNotFound
		}

		now := c.clk.Now()

		if own.Result != leave.ApprovalPending {
			if own.Result == result {
				outcome = c.aggregateLeave(rows, app)
				return nil
			}
			return leave.ErrAlreadyDecided
		}

		if err := c.Repository.Decide(txCtx, own.ID, result, req.Comment, now); err != nil {
			return err
		}
		own.Result = result
		own.Comment = req.Comment
		own.DecisionTime = &now

		// A rejection closes the fan-out; release the other approvers.
		if result == leave.ApprovalRejected {
			for i := range rows {
				if rows[i].ID != own.ID && rows[i].Result == leave.ApprovalPending {
					if err := c.Repository.Decide(txCtx, rows[i].ID, leave.ApprovalCancelled, nil, now); err != nil {
						return err
					}
					rows[i].Result = leave.ApprovalCancelled
				}
			}
		}

		outcome = c.aggregateLeave(rows, app)
		if outcome.Status != leave.ApplicationStatusPending {
			if err := c.Repository.UpdateApplicationStatus(txCtx, app.ID, outcome.Status); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return leave.Outcome{}, err
	}

	return outcome, nil
}

func (c *CoordinatorImpl) aggregateLeave(rows []leave.Approval, app leave.Application) leave.Outcome {
	return leave.Outcome{
		Kind:               leave.ApprovalKindLeave,
		Status:             leave.AggregateOutcome(rows),
		ApplicationID:      &app.ID,
		AttendanceRecordID: app.AttendanceRecordID,
	}
}

// DecidePhoto implements leave.Coordinator.
func (c *CoordinatorImpl) DecidePhoto(ctx context.Context, recordID, approverID string, approve bool, comment *string) (leave.Outcome, error) {
	result := leave.ApprovalRejected
	if approve {
		result = leave.ApprovalApproved
	}

	var outcome leave.Outcome
	err := c.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		rows, err := c.Repository.ListApprovalsByRecord(txCtx, recordID, true)
		if err != nil {
			return err
		}

		var own *leave.Approval
		for i := range rows {
			if rows[i].Kind == leave.ApprovalKindPhoto && rows[i].ApproverID == approverID {
				own = &rows[i]
				break
			}
		}
		if own == nil {
			return leave.ErrApprovalNotFound
		}

		if own.Result != leave.ApprovalPending {
			if own.Result == result {
				outcome = aggregatePhoto(rows, recordID)
				return nil
			}
			return leave.ErrAlreadyDecided
		}

		if err := c.Repository.Decide(txCtx, own.ID, result, comment, c.clk.Now()); err != nil {
			return err
		}
		own.Result = result

		outcome = aggregatePhoto(rows, recordID)
		return nil
	})
	if err != nil {
		return leave.Outcome{}, err
	}

	return outcome, nil
}

func aggregatePhoto(rows []leave.Approval, recordID string) leave.Outcome {
	photoRows := make([]leave.Approval, 0, len(rows))
	for _, row := range rows {
		if row.Kind == leave.ApprovalKindPhoto {
			photoRows = append(photoRows, row)
		}
	}
	return leave.Outcome{
		Kind:               leave.ApprovalKindPhoto,
		Status:             leave.AggregateOutcome(photoRows),
		AttendanceRecordID: recordID,
	}
}

// HasActiveApplication implements leave.Coordinator.
func (c *CoordinatorImpl) HasActiveApplication(ctx context.Context, recordID string) (bool, error) {
	app, err := c.Repository.GetActiveApplicationByRecord(ctx, recordID)
	if err != nil {
		return false, err
	}
	return app != nil, nil
}

// GetApplication implements leave.Coordinator.
func (c *CoordinatorImpl) GetApplication(ctx context.Context, id string) (leave.ApplicationResponse, error) {
	app, err := c.Repository.GetApplicationByID(ctx, id)
	if err != nil {
		return leave.ApplicationResponse{}, err
	}

	rows, err := c.Repository.ListApprovalsByApplication(ctx, id, false)
	if err != nil {
		return leave.ApplicationResponse{}, err
	}

	return toApplicationResponse(app, rows), nil
}

// GetOverdue implements leave.Coordinator.
func (c *CoordinatorImpl) GetOverdue(ctx context.Context, threshold time.Duration) ([]leave.ApplicationResponse, error) {
	cutoff := c.clk.Now().Add(-threshold)

	apps, err := c.Repository.ListOverdueApplications(ctx, cutoff)
	if err != nil {
		return nil, err
	}

	responses := make([]leave.ApplicationResponse, 0, len(apps))
	for _, app := range apps {
		responses = append(responses, toApplicationResponse(app, nil))
	}

	return responses, nil
}

func toApplicationResponse(app leave.Application, rows []leave.Approval) leave.ApplicationResponse {
	resp := leave.ApplicationResponse{
		ID:                 app.ID,
		AttendanceRecordID: app.AttendanceRecordID,
		SessionID:          app.SessionID,
		StudentID:          app.StudentID,
		LeaveType:          string(app.LeaveType),
		Reason:             app.Reason,
		ApplicationTime:    app.ApplicationTime.Format(time.RFC3339),
		Status:             string(app.Status),
	}

	for _, row := range rows {
		ar := leave.ApprovalResponse{
			ID:         row.ID,
			ApproverID: row.ApproverID,
			Result:     string(row.Result),
			Comment:    row.Comment,
			Order:      row.Order,
			IsFinal:    row.IsFinalApprover,
		}
		if row.DecisionTime != nil {
			t := row.DecisionTime.Format(time.RFC3339)
			ar.DecisionTime = &t
		}
		resp.Approvals = append(resp.Approvals, ar)
	}

	return resp
}
