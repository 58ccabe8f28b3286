package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/classtrack/classtrack-backend-go/internal/domain/leave"
	"github.com/classtrack/classtrack-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type leaveRepository struct {
	db *database.DB
}

func NewLeaveRepository(db *database.DB) leave.Repository {
	return &leaveRepository{db: db}
}

const applicationColumns = `
	id, attendance_record_id, session_id, student_id,
	leave_type, reason, application_time, status,
	created_at, updated_at
`

func scanApplication(row pgx.Row) (leave.Application, error) {
	var app leave.Application
	err := row.Scan(
		&app.ID, &app.AttendanceRecordID, &app.SessionID, &app.StudentID,
		&app.LeaveType, &app.Reason, &app.ApplicationTime, &app.Status,
		&app.CreatedAt, &app.UpdatedAt,
	)
	return app, err
}

// CreateApplication implements leave.Repository.
func (r *leaveRepository) CreateApplication(ctx context.Context, app leave.Application) (leave.Application, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO leave_applications (
			attendance_record_id, session_id, student_id,
			leave_type, reason, application_time, status
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		) RETURNING id, created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		app.AttendanceRecordID,
		app.SessionID,
		app.StudentID,
		app.LeaveType,
		app.Reason,
		app.ApplicationTime,
		app.Status,
	).Scan(&app.ID, &app.CreatedAt, &app.UpdatedAt)

	if err != nil {
		return leave.Application{}, fmt.Errorf("failed to create leave application: %w", err)
	}

	return app, nil
}

// GetApplicationByID implements leave.Repository.
func (r *leaveRepository) GetApplicationByID(ctx context.Context, id string) (leave.Application, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + applicationColumns + ` FROM leave_applications WHERE id = $1`

	app, err := scanApplication(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.Application{}, leave.ErrApplicationNotFound
		}
		return leave.Application{}, fmt.Errorf("failed to get leave application by ID: %w", err)
	}

	return app, nil
}

// GetActiveApplicationByRecord implements leave.Repository.
func (r *leaveRepository) GetActiveApplicationByRecord(ctx context.Context, recordID string) (*leave.Application, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + applicationColumns + `
		FROM leave_applications
		WHERE attendance_record_id = $1 AND status = $2
		ORDER BY created_at DESC
		LIMIT 1
	`

	app, err := scanApplication(q.QueryRow(ctx, query, recordID, leave.ApplicationStatusPending))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active leave application: %w", err)
	}

	return &app, nil
}

// UpdateApplicationStatus implements leave.Repository.
func (r *leaveRepository) UpdateApplicationStatus(ctx context.Context, id string, status leave.ApplicationStatus) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		UPDATE leave_applications SET status = $1, updated_at = NOW() WHERE id = $2
	`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update leave application status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return leave.ErrApplicationNotFound
	}

	return nil
}

// CreateApprovals implements leave.Repository.
func (r *leaveRepository) CreateApprovals(ctx context.Context, rows []leave.Approval) error {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO approvals (
			kind, leave_application_id, attendance_record_id,
			approver_id, result, comment, decision_time,
			approver_order, is_final_approver
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)
	`

	for _, row := range rows {
		_, err := q.Exec(ctx, query,
			row.Kind,
			row.LeaveApplicationID,
			row.AttendanceRecordID,
			row.ApproverID,
			row.Result,
			row.Comment,
			row.DecisionTime,
			row.Order,
			row.IsFinalApprover,
		)
		if err != nil {
			return fmt.Errorf("failed to create approval row: %w", err)
		}
	}

	return nil
}

const approvalColumns = `
	id, kind, leave_application_id, attendance_record_id,
	approver_id, result, comment, decision_time,
	approver_order, is_final_approver,
	created_at, updated_at
`

func (r *leaveRepository) listApprovals(ctx context.Context, where string, arg interface{}, forUpdate bool) ([]leave.Approval, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + approvalColumns + `
		FROM approvals
		` + where + `
		ORDER BY approver_order ASC
	`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	rows, err := q.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list approvals: %w", err)
	}
	defer rows.Close()

	var result []leave.Approval
	for rows.Next() {
		var row leave.Approval
		if err := rows.Scan(
			&row.ID, &row.Kind, &row.LeaveApplicationID, &row.AttendanceRecordID,
			&row.ApproverID, &row.Result, &row.Comment, &row.DecisionTime,
			&row.Order, &row.IsFinalApprover,
			&row.CreatedAt, &row.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan approval row: %w", err)
		}
		result = append(result, row)
	}

	return result, rows.Err()
}

// ListApprovalsByApplication implements leave.Repository.
func (r *leaveRepository) ListApprovalsByApplication(ctx context.Context, applicationID string, forUpdate bool) ([]leave.Approval, error) {
	return r.listApprovals(ctx, `WHERE leave_application_id = $1`, applicationID, forUpdate)
}

// ListApprovalsByRecord implements leave.Repository.
func (r *leaveRepository) ListApprovalsByRecord(ctx context.Context, recordID string, forUpdate bool) ([]leave.Approval, error) {
	return r.listApprovals(ctx, `WHERE attendance_record_id = $1`, recordID, forUpdate)
}

// Decide implements leave.Repository. The result predicate makes the flip
// atomic: a row that is no longer pending updates zero rows and surfaces
// ErrAlreadyDecided to the caller.
func (r *leaveRepository) Decide(ctx context.Context, approvalID string, result leave.ApprovalResult, comment *string, decisionTime time.Time) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		UPDATE approvals SET
			result = $1,
			comment = $2,
			decision_time = $3,
			updated_at = NOW()
		WHERE id = $4 AND result = $5
	`, result, comment, decisionTime, approvalID, leave.ApprovalPending)
	if err != nil {
		return fmt.Errorf("failed to decide approval: %w", err)
	}

	if tag.RowsAffected() == 0 {
		var exists bool
		if checkErr := q.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM approvals WHERE id = $1)`, approvalID,
		).Scan(&exists); checkErr == nil && !exists {
			return leave.ErrApprovalNotFound
		}
		return leave.ErrAlreadyDecided
	}

	return nil
}

// ListOverdueApplications implements leave.Repository.
func (r *leaveRepository) ListOverdueApplications(ctx context.Context, cutoff time.Time) ([]leave.Application, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + applicationColumns + `
		FROM leave_applications
		WHERE status = $1 AND application_time < $2
		ORDER BY application_time ASC
	`

	rows, err := q.Query(ctx, query, leave.ApplicationStatusPending, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue leave applications: %w", err)
	}
	defer rows.Close()

	var apps []leave.Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leave application: %w", err)
		}
		apps = append(apps, app)
	}

	return apps, rows.Err()
}
