package attendance

import (
	"time"
)

// Event is one input to the state machine. Classification that needs the
// session policy (window timing, geofence) happens before the event is
// built, so Reduce stays a pure function of (record, event).
type Event interface {
	Kind() string
}

// Checkin is a geofenced GPS check-in attempt.
type Checkin struct {
	Time      time.Time
	Timing    Timing
	Geofence  GeofenceResult
	Latitude  float64
	Longitude float64
	Accuracy  float64
}

func (Checkin) Kind() string { return "checkin" }

// PhotoCheckin is a photo-evidence check-in attempt; it parks the record
// in pending_approval until the primary teacher decides.
type PhotoCheckin struct {
	Time      time.Time
	Timing    Timing
	Geofence  GeofenceResult
	Latitude  float64
	Longitude float64
	Accuracy  float64
	PhotoRef  string
}

func (PhotoCheckin) Kind() string { return "photo_checkin" }

// PhotoDecision resolves a pending photo check-in.
type PhotoDecision struct {
	Approve bool
	Comment *string
}

func (PhotoDecision) Kind() string { return "photo_decision" }

// LeaveApply opens a leave application for the record.
type LeaveApply struct {
	Time      time.Time
	LeaveType string
	Reason    string
}

func (LeaveApply) Kind() string { return "leave_apply" }

// LeaveDecision is the aggregate outcome of a leave application's
// approval fan-out.
type LeaveDecision struct {
	Approve bool
}

func (LeaveDecision) Kind() string { return "leave_decision" }

// ManualCheckin is a teacher-issued backfill; it overrides any pending
// approval, leave, or verification state.
type ManualCheckin struct {
	Time   time.Time
	Reason string
}

func (ManualCheckin) Kind() string { return "manual_checkin" }

// WindowExpired fires when the check-in window closes with the record
// still not_started.
type WindowExpired struct{}

func (WindowExpired) Kind() string { return "window_expired" }

// VerificationOpened tags the record with an open re-check challenge.
type VerificationOpened struct {
	WindowID string
}

func (VerificationOpened) Kind() string { return "verification_opened" }

// VerificationCheckin confirms continued presence during a challenge.
type VerificationCheckin struct {
	WindowID string
}

func (VerificationCheckin) Kind() string { return "verification_checkin" }

// VerificationExpired fires when a challenge closes with the record still
// tagged.
type VerificationExpired struct {
	WindowID string
}

func (VerificationExpired) Kind() string { return "verification_expired" }

// Effect is a follow-on side effect the orchestrator must execute after a
// successful transition.
type Effect interface {
	Effect() string
}

// OpenPhotoApproval asks the coordinator to create the single-approver
// task for a photo check-in.
type OpenPhotoApproval struct{}

func (OpenPhotoApproval) Effect() string { return "open_photo_approval" }

// OpenLeaveApplication asks the coordinator to create the application and
// fan it out to the session's teachers.
type OpenLeaveApplication struct {
	LeaveType string
	Reason    string
}

func (OpenLeaveApplication) Effect() string { return "open_leave_application" }
