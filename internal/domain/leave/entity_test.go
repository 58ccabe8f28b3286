package leave

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func approvalRows(results ...ApprovalResult) []Approval {
	rows := make([]Approval, 0, len(results))
	for i, r := range results {
		rows = append(rows, Approval{
			ID:         string(rune('a' + i)),
			ApproverID: string(rune('A' + i)),
			Result:     r,
			Order:      i + 1,
		})
	}
	return rows
}

func TestAggregateOutcome(t *testing.T) {
	tests := []struct {
		name string
		rows []Approval
		want ApplicationStatus
	}{
		{
			name: "all pending",
			rows: approvalRows(ApprovalPending, ApprovalPending),
			want: ApplicationStatusPending,
		},
		{
			name: "partially approved",
			rows: approvalRows(ApprovalApproved, ApprovalPending),
			want: ApplicationStatusPending,
		},
		{
			name: "all approved",
			rows: approvalRows(ApprovalApproved, ApprovalApproved, ApprovalApproved),
			want: ApplicationStatusApproved,
		},
		{
			name: "single approver approved",
			rows: approvalRows(ApprovalApproved),
			want: ApplicationStatusApproved,
		},
		{
			name: "any rejection wins",
			rows: approvalRows(ApprovalApproved, ApprovalRejected, ApprovalPending),
			want: ApplicationStatusRejected,
		},
		{
			name: "cancelled rows are not required",
			rows: approvalRows(ApprovalApproved, ApprovalCancelled, ApprovalApproved),
			want: ApplicationStatusApproved,
		},
		{
			name: "all cancelled stays pending",
			rows: approvalRows(ApprovalCancelled, ApprovalCancelled),
			want: ApplicationStatusPending,
		},
		{
			name: "no rows stays pending",
			rows: nil,
			want: ApplicationStatusPending,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AggregateOutcome(tt.rows))
		})
	}
}

func TestLeaveTypeValid(t *testing.T) {
	for _, lt := range []LeaveType{LeaveTypeSick, LeaveTypePersonal, LeaveTypeEmergency, LeaveTypeOther} {
		assert.True(t, lt.Valid())
	}
	assert.False(t, LeaveType("vacation").Valid())
	assert.False(t, LeaveType("").Valid())
}
