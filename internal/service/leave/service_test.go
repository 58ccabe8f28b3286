package leave

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/classtrack/classtrack-backend-go/internal/domain/leave"
	"github.com/classtrack/classtrack-backend-go/internal/pkg/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// passthroughTx runs the function directly; the fakes below are not
// transactional.
type passthroughTx struct{}

func (passthroughTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeLeaveRepo struct {
	apps      map[string]leave.Application
	approvals map[string]*leave.Approval
	nextID    int
}

func newFakeLeaveRepo() *fakeLeaveRepo {
	return &fakeLeaveRepo{
		apps:      make(map[string]leave.Application),
		approvals: make(map[string]*leave.Approval),
	}
}

func (f *fakeLeaveRepo) CreateApplication(ctx context.Context, app leave.Application) (leave.Application, error) {
	f.nextID++
	app.ID = fmt.Sprintf("app-%d", f.nextID)
	f.apps[app.ID] = app
	return app, nil
}

func (f *fakeLeaveRepo) GetApplicationByID(ctx context.Context, id string) (leave.Application, error) {
	app, ok := f.apps[id]
	if !ok {
		return leave.Application{}, leave.ErrApplicationNotFound
	}
	return app, nil
}

func (f *fakeLeaveRepo) GetActiveApplicationByRecord(ctx context.Context, recordID string) (*leave.Application, error) {
	for _, app := range f.apps {
		if app.AttendanceRecordID == recordID && app.Status == leave.ApplicationStatusPending {
			found := app
			return &found, nil
		}
	}
	return nil, nil
}

func (f *fakeLeaveRepo) UpdateApplicationStatus(ctx context.Context, id string, status leave.ApplicationStatus) error {
	app, ok := f.apps[id]
	if !ok {
		return leave.ErrApplicationNotFound
	}
	app.Status = status
	f.apps[id] = app
	return nil
}

func (f *fakeLeaveRepo) CreateApprovals(ctx context.Context, rows []leave.Approval) error {
	for _, row := range rows {
		f.nextID++
		row.ID = fmt.Sprintf("appr-%d", f.nextID)
		stored := row
		f.approvals[stored.ID] = &stored
	}
	return nil
}

func (f *fakeLeaveRepo) list(match func(*leave.Approval) bool) []leave.Approval {
	var rows []leave.Approval
	for _, row := range f.approvals {
		if match(row) {
			rows = append(rows, *row)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Order < rows[j].Order })
	return rows
}

func (f *fakeLeaveRepo) ListApprovalsByApplication(ctx context.Context, applicationID string, forUpdate bool) ([]leave.Approval, error) {
	return f.list(func(row *leave.Approval) bool {
		return row.LeaveApplicationID != nil && *row.LeaveApplicationID == applicationID
	}), nil
}

func (f *fakeLeaveRepo) ListApprovalsByRecord(ctx context.Context, recordID string, forUpdate bool) ([]leave.Approval, error) {
	return f.list(func(row *leave.Approval) bool {
		return row.AttendanceRecordID != nil && *row.AttendanceRecordID == recordID
	}), nil
}

func (f *fakeLeaveRepo) Decide(ctx context.Context, approvalID string, result leave.ApprovalResult, comment *string, decisionTime time.Time) error {
	row, ok := f.approvals[approvalID]
	if !ok {
		return leave.ErrApprovalNotFound
	}
	if row.Result != leave.ApprovalPending {
		return leave.ErrAlreadyDecided
	}
	row.Result = result
	row.Comment = comment
	t := decisionTime
	row.DecisionTime = &t
	return nil
}

func (f *fakeLeaveRepo) ListOverdueApplications(ctx context.Context, cutoff time.Time) ([]leave.Application, error) {
	var apps []leave.Application
	for _, app := range f.apps {
		if app.Status == leave.ApplicationStatusPending && app.ApplicationTime.Before(cutoff) {
			apps = append(apps, app)
		}
	}
	return apps, nil
}

var decisionTime = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

type testEnv struct {
	coordinator *CoordinatorImpl
	repo        *fakeLeaveRepo
	clk         *clock.Mock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	repo := newFakeLeaveRepo()
	clk := clock.NewMock(decisionTime)
	coordinator := &CoordinatorImpl{
		tx:         passthroughTx{},
		clk:        clk,
		Repository: repo,
	}
	return &testEnv{coordinator: coordinator, repo: repo, clk: clk}
}

// openApplication fans an application out to teach-1 and teach-2.
func openApplication(t *testing.T, env *testEnv) leave.Application {
	t.Helper()

	app, err := env.coordinator.OpenLeaveApplication(context.Background(), leave.Application{
		AttendanceRecordID: "rec-1",
		SessionID:          "sess-1",
		StudentID:          "stud-1",
		LeaveType:          leave.LeaveTypeSick,
		Reason:             "flu",
		ApplicationTime:    decisionTime.Add(-time.Hour),
		Status:             leave.ApplicationStatusPending,
	}, []string{"teach-1", "teach-2"})
	require.NoError(t, err)
	return app
}

func decide(env *testEnv, appID, approverID string, approve bool) (leave.Outcome, error) {
	return env.coordinator.DecideLeave(context.Background(), leave.DecideRequest{
		ApplicationID: appID,
		ApproverID:    approverID,
		Approve:       approve,
	})
}

func TestOpenLeaveApplication_FansOutInOrder(t *testing.T) {
	env := newTestEnv(t)
	app := openApplication(t, env)

	rows, err := env.repo.ListApprovalsByApplication(context.Background(), app.ID, false)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "teach-1", rows[0].ApproverID)
	assert.Equal(t, 1, rows[0].Order)
	assert.False(t, rows[0].IsFinalApprover)
	assert.Equal(t, "teach-2", rows[1].ApproverID)
	assert.True(t, rows[1].IsFinalApprover)
}

func TestDecideLeave_PartialApprovalStaysPending(t *testing.T) {
	env := newTestEnv(t)
	app := openApplication(t, env)

	outcome, err := decide(env, app.ID, "teach-1", true)

	require.NoError(t, err)
	assert.Equal(t, leave.ApplicationStatusPending, outcome.Status)
	assert.Equal(t, leave.ApplicationStatusPending, env.repo.apps[app.ID].Status)
}

func TestDecideLeave_AllApprove(t *testing.T) {
	env := newTestEnv(t)
	app := openApplication(t, env)

	_, err := decide(env, app.ID, "teach-1", true)
	require.NoError(t, err)

	outcome, err := decide(env, app.ID, "teach-2", true)

	require.NoError(t, err)
	assert.Equal(t, leave.ApplicationStatusApproved, outcome.Status)
	assert.Equal(t, leave.ApplicationStatusApproved, env.repo.apps[app.ID].Status)
	assert.Equal(t, "rec-1", outcome.AttendanceRecordID)
}

func TestDecideLeave_RejectionCancelsSiblings(t *testing.T) {
	env := newTestEnv(t)
	app := openApplication(t, env)

	outcome, err := decide(env, app.ID, "teach-1", false)

	require.NoError(t, err)
	assert.Equal(t, leave.ApplicationStatusRejected, outcome.Status)
	assert.Equal(t, leave.ApplicationStatusRejected, env.repo.apps[app.ID].Status)

	rows, err := env.repo.ListApprovalsByApplication(context.Background(), app.ID, false)
	require.NoError(t, err)
	assert.Equal(t, leave.ApprovalRejected, rows[0].Result)
	assert.Equal(t, leave.ApprovalCancelled, rows[1].Result)
}

func TestDecideLeave_SameDecisionIsNoOp(t *testing.T) {
	env := newTestEnv(t)
	app := openApplication(t, env)

	first, err := decide(env, app.ID, "teach-1", true)
	require.NoError(t, err)

	// Re-submitting the same decision reports the aggregate without
	// touching any row again.
	second, err := decide(env, app.ID, "teach-1", true)

	require.NoError(t, err)
	assert.Equal(t, first.Status, second.Status)

	rows, err := env.repo.ListApprovalsByApplication(context.Background(), app.ID, false)
	require.NoError(t, err)
	assert.Equal(t, leave.ApprovalApproved, rows[0].Result)
	assert.Equal(t, leave.ApprovalPending, rows[1].Result)
}

func TestDecideLeave_ConflictingRedecision(t *testing.T) {
	env := newTestEnv(t)
	app := openApplication(t, env)

	_, err := decide(env, app.ID, "teach-1", true)
	require.NoError(t, err)

	_, err = decide(env, app.ID, "teach-1", false)

	assert.ErrorIs(t, err, leave.ErrAlreadyDecided)

	rows, listErr := env.repo.ListApprovalsByApplication(context.Background(), app.ID, false)
	require.NoError(t, listErr)
	assert.Equal(t, leave.ApprovalApproved, rows[0].Result)
}

func TestDecideLeave_ClosedApplication(t *testing.T) {
	env := newTestEnv(t)
	app := openApplication(t, env)

	_, err := decide(env, app.ID, "teach-1", false)
	require.NoError(t, err)

	_, err = decide(env, app.ID, "teach-2", true)

	assert.ErrorIs(t, err, leave.ErrApplicationAlreadyClosed)
}

func TestDecideLeave_UnknownApprover(t *testing.T) {
	env := newTestEnv(t)
	app := openApplication(t, env)

	_, err := decide(env, app.ID, "teach-elsewhere", true)

	assert.ErrorIs(t, err, leave.ErrApprovalNotFound)
}

func TestDecidePhoto_Idempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.coordinator.OpenPhotoApproval(ctx, "rec-2", "teach-1"))

	outcome, err := env.coordinator.DecidePhoto(ctx, "rec-2", "teach-1", true, nil)
	require.NoError(t, err)
	assert.Equal(t, leave.ApplicationStatusApproved, outcome.Status)
	assert.Equal(t, leave.ApprovalKindPhoto, outcome.Kind)

	// Same decision again: no error, same aggregate.
	outcome, err = env.coordinator.DecidePhoto(ctx, "rec-2", "teach-1", true, nil)
	require.NoError(t, err)
	assert.Equal(t, leave.ApplicationStatusApproved, outcome.Status)

	// Conflicting re-decision is refused.
	_, err = env.coordinator.DecidePhoto(ctx, "rec-2", "teach-1", false, nil)
	assert.ErrorIs(t, err, leave.ErrAlreadyDecided)
}

func TestGetOverdue(t *testing.T) {
	env := newTestEnv(t)
	openApplication(t, env)

	// An hour old is not overdue against a 48h threshold.
	overdue, err := env.coordinator.GetOverdue(context.Background(), 48*time.Hour)
	require.NoError(t, err)
	assert.Empty(t, overdue)

	env.clk.Advance(72 * time.Hour)

	overdue, err = env.coordinator.GetOverdue(context.Background(), 48*time.Hour)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, "stud-1", overdue[0].StudentID)
}
