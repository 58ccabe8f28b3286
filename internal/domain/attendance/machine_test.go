package attendance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCheckinTime = time.Date(2026, 3, 2, 9, 5, 0, 0, time.UTC)

func newTestRecord(status Status) Record {
	return Record{
		ID:        "rec-1",
		SessionID: "sess-1",
		StudentID: "stud-1",
		Status:    status,
	}
}

func inRangeCheckin(timing Timing) Checkin {
	return Checkin{
		Time:      testCheckinTime,
		Timing:    timing,
		Geofence:  GeofenceResult{InRange: true, DistanceMeters: 12.5},
		Latitude:  -6.2,
		Longitude: 106.8,
		Accuracy:  8,
	}
}

func TestReduce_Checkin_OnTime(t *testing.T) {
	rec, effects, err := Reduce(newTestRecord(StatusNotStarted), inRangeCheckin(TimingOnTime))

	require.NoError(t, err)
	assert.Empty(t, effects)
	assert.Equal(t, StatusPresent, rec.Status)
	require.NotNil(t, rec.CheckinTime)
	assert.Equal(t, testCheckinTime, *rec.CheckinTime)
	require.NotNil(t, rec.CheckinSource)
	assert.Equal(t, SourceGPS, *rec.CheckinSource)
	require.NotNil(t, rec.OffsetDistanceMeters)
	assert.Equal(t, 12.5, *rec.OffsetDistanceMeters)
}

func TestReduce_Checkin_Late(t *testing.T) {
	rec, _, err := Reduce(newTestRecord(StatusNotStarted), inRangeCheckin(TimingLate))

	require.NoError(t, err)
	assert.Equal(t, StatusLate, rec.Status)
	require.NotNil(t, rec.CheckinTime)
}

func TestReduce_Checkin_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		event   Checkin
		wantErr error
	}{
		{
			name: "too early",
			event: Checkin{
				Time:     testCheckinTime,
				Timing:   TimingTooEarly,
				Geofence: GeofenceResult{InRange: true},
			},
			wantErr: ErrTooEarly,
		},
		{
			name: "window closed",
			event: Checkin{
				Time:     testCheckinTime,
				Timing:   TimingClosed,
				Geofence: GeofenceResult{InRange: true},
			},
			wantErr: ErrWindowClosed,
		},
		{
			name: "outside geofence",
			event: Checkin{
				Time:     testCheckinTime,
				Timing:   TimingOnTime,
				Geofence: GeofenceResult{InRange: false, DistanceMeters: 900},
			},
			wantErr: ErrGeofenceMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, effects, err := Reduce(newTestRecord(StatusNotStarted), tt.event)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, effects)
			// Rejection leaves the record untouched.
			assert.Equal(t, StatusNotStarted, rec.Status)
			assert.Nil(t, rec.CheckinTime)
		})
	}
}

func TestReduce_Checkin_OnlyFromNotStarted(t *testing.T) {
	for _, status := range []Status{StatusPresent, StatusLate, StatusPendingApproval, StatusLeavePending, StatusLeave, StatusAbsent} {
		_, _, err := Reduce(newTestRecord(status), inRangeCheckin(TimingOnTime))
		assert.ErrorIs(t, err, ErrInvalidTransition, "status %s", status)
	}
}

func TestReduce_PhotoCheckin_OpensApproval(t *testing.T) {
	ev := PhotoCheckin{
		Time:      testCheckinTime,
		Timing:    TimingOnTime,
		Geofence:  GeofenceResult{InRange: false, DistanceMeters: 420},
		Latitude:  -6.2,
		Longitude: 106.8,
		Accuracy:  15,
		PhotoRef:  "photos/abc123.jpg",
	}

	rec, effects, err := Reduce(newTestRecord(StatusNotStarted), ev)

	require.NoError(t, err)
	require.Len(t, effects, 1)
	assert.IsType(t, OpenPhotoApproval{}, effects[0])
	assert.Equal(t, StatusPendingApproval, rec.Status)
	require.NotNil(t, rec.PhotoRef)
	assert.Equal(t, "photos/abc123.jpg", *rec.PhotoRef)
	// Distance is kept even though the geofence did not gate the attempt.
	require.NotNil(t, rec.OffsetDistanceMeters)
	assert.Equal(t, 420.0, *rec.OffsetDistanceMeters)
}

func TestReduce_PhotoCheckin_RespectsWindow(t *testing.T) {
	_, _, err := Reduce(newTestRecord(StatusNotStarted), PhotoCheckin{Time: testCheckinTime, Timing: TimingTooEarly})
	assert.ErrorIs(t, err, ErrTooEarly)

	_, _, err = Reduce(newTestRecord(StatusNotStarted), PhotoCheckin{Time: testCheckinTime, Timing: TimingClosed})
	assert.ErrorIs(t, err, ErrWindowClosed)
}

func TestReduce_PhotoDecision_Approve(t *testing.T) {
	rec := newTestRecord(StatusPendingApproval)
	rec.CheckinTime = &testCheckinTime

	rec, effects, err := Reduce(rec, PhotoDecision{Approve: true})

	require.NoError(t, err)
	assert.Empty(t, effects)
	assert.Equal(t, StatusPresent, rec.Status)
	// Approval keeps the original attempt time.
	require.NotNil(t, rec.CheckinTime)
	assert.Equal(t, testCheckinTime, *rec.CheckinTime)
}

func TestReduce_PhotoDecision_Reject(t *testing.T) {
	rec := newTestRecord(StatusPendingApproval)
	rec.CheckinTime = &testCheckinTime
	comment := "photo does not show the classroom"

	rec, _, err := Reduce(rec, PhotoDecision{Approve: false, Comment: &comment})

	require.NoError(t, err)
	assert.Equal(t, StatusAbsent, rec.Status)
	assert.Nil(t, rec.CheckinTime)
	require.NotNil(t, rec.Remark)
	assert.Equal(t, comment, *rec.Remark)
}

func TestReduce_PhotoDecision_OnlyFromPendingApproval(t *testing.T) {
	_, _, err := Reduce(newTestRecord(StatusPresent), PhotoDecision{Approve: true})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestReduce_LeaveApply(t *testing.T) {
	for _, status := range []Status{StatusNotStarted, StatusAbsent} {
		rec, effects, err := Reduce(newTestRecord(status), LeaveApply{Time: testCheckinTime, LeaveType: "sick", Reason: "flu"})

		require.NoError(t, err, "status %s", status)
		assert.Equal(t, StatusLeavePending, rec.Status)
		require.Len(t, effects, 1)
		open, ok := effects[0].(OpenLeaveApplication)
		require.True(t, ok)
		assert.Equal(t, "sick", open.LeaveType)
		assert.Equal(t, "flu", open.Reason)
	}

	for _, status := range []Status{StatusPresent, StatusLate, StatusPendingApproval, StatusLeavePending, StatusLeave} {
		_, _, err := Reduce(newTestRecord(status), LeaveApply{Time: testCheckinTime, LeaveType: "sick", Reason: "flu"})
		assert.ErrorIs(t, err, ErrInvalidTransition, "status %s", status)
	}
}

func TestReduce_LeaveDecision(t *testing.T) {
	rec, _, err := Reduce(newTestRecord(StatusLeavePending), LeaveDecision{Approve: true})
	require.NoError(t, err)
	assert.Equal(t, StatusLeave, rec.Status)

	rec, _, err = Reduce(newTestRecord(StatusLeavePending), LeaveDecision{Approve: false})
	require.NoError(t, err)
	assert.Equal(t, StatusAbsent, rec.Status)
	require.NotNil(t, rec.Remark)

	_, _, err = Reduce(newTestRecord(StatusPresent), LeaveDecision{Approve: true})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestReduce_ManualCheckin_OverridesAnyState(t *testing.T) {
	for _, status := range []Status{StatusNotStarted, StatusLate, StatusPendingApproval, StatusLeavePending, StatusLeave, StatusAbsent} {
		rec := newTestRecord(status)
		lat := -6.2
		rec.CheckinLatitude = &lat
		windowID := "win-1"
		rec.VerificationWindowID = &windowID

		rec, effects, err := Reduce(rec, ManualCheckin{Time: testCheckinTime, Reason: "device broken"})

		require.NoError(t, err, "status %s", status)
		assert.Empty(t, effects)
		assert.Equal(t, StatusPresent, rec.Status)
		require.NotNil(t, rec.CheckinSource)
		assert.Equal(t, SourceManual, *rec.CheckinSource)
		assert.Nil(t, rec.CheckinLatitude)
		assert.Nil(t, rec.VerificationWindowID)
		require.NotNil(t, rec.Remark)
		assert.Equal(t, "device broken", *rec.Remark)
	}
}

func TestReduce_ManualCheckin_Idempotent(t *testing.T) {
	rec, _, err := Reduce(newTestRecord(StatusNotStarted), ManualCheckin{Time: testCheckinTime, Reason: "device broken"})
	require.NoError(t, err)

	again, effects, err := Reduce(rec, ManualCheckin{Time: testCheckinTime.Add(time.Hour), Reason: "second attempt"})

	require.NoError(t, err)
	assert.Empty(t, effects)
	assert.Equal(t, rec, again)
}

func TestReduce_WindowExpired(t *testing.T) {
	rec, _, err := Reduce(newTestRecord(StatusNotStarted), WindowExpired{})
	require.NoError(t, err)
	assert.Equal(t, StatusAbsent, rec.Status)

	for _, status := range []Status{StatusPresent, StatusLate, StatusPendingApproval, StatusLeavePending, StatusLeave, StatusAbsent} {
		_, _, err := Reduce(newTestRecord(status), WindowExpired{})
		assert.ErrorIs(t, err, ErrInvalidTransition, "status %s", status)
	}
}

func TestReduce_VerificationLifecycle(t *testing.T) {
	rec := newTestRecord(StatusPresent)
	rec.CheckinTime = &testCheckinTime

	rec, _, err := Reduce(rec, VerificationOpened{WindowID: "win-1"})
	require.NoError(t, err)
	require.NotNil(t, rec.VerificationWindowID)
	assert.Equal(t, "win-1", *rec.VerificationWindowID)

	rec, _, err = Reduce(rec, VerificationCheckin{WindowID: "win-1"})
	require.NoError(t, err)
	assert.Nil(t, rec.VerificationWindowID)
	assert.Equal(t, StatusPresent, rec.Status)
}

func TestReduce_VerificationOpened_OnlyPresentOrLate(t *testing.T) {
	for _, status := range []Status{StatusNotStarted, StatusPendingApproval, StatusLeavePending, StatusLeave, StatusAbsent} {
		_, _, err := Reduce(newTestRecord(status), VerificationOpened{WindowID: "win-1"})
		assert.ErrorIs(t, err, ErrInvalidTransition, "status %s", status)
	}

	_, _, err := Reduce(newTestRecord(StatusLate), VerificationOpened{WindowID: "win-1"})
	assert.NoError(t, err)
}

func TestReduce_VerificationCheckin_WrongWindow(t *testing.T) {
	rec := newTestRecord(StatusPresent)
	windowID := "win-1"
	rec.VerificationWindowID = &windowID

	_, _, err := Reduce(rec, VerificationCheckin{WindowID: "win-2"})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, _, err = Reduce(newTestRecord(StatusPresent), VerificationCheckin{WindowID: "win-1"})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestReduce_VerificationExpired(t *testing.T) {
	rec := newTestRecord(StatusPresent)
	rec.CheckinTime = &testCheckinTime
	windowID := "win-1"
	rec.VerificationWindowID = &windowID

	rec, _, err := Reduce(rec, VerificationExpired{WindowID: "win-1"})

	require.NoError(t, err)
	assert.Equal(t, StatusAbsent, rec.Status)
	assert.Nil(t, rec.VerificationWindowID)
	assert.Nil(t, rec.CheckinTime)
	require.NotNil(t, rec.CheckinSource)
	assert.Equal(t, SourceVerification, *rec.CheckinSource)

	// Expiry for a window the record is no longer tagged with is invalid.
	_, _, err = Reduce(rec, VerificationExpired{WindowID: "win-1"})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}
