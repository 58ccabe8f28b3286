package session

import (
	"time"
)

// State tracks the lifecycle of a scheduled class session.
type State string

const (
	StateScheduled State = "scheduled"
	StateOpen      State = "open"
	StateClosed    State = "closed"
)

// Policy holds the check-in rules for one scheduled class session.
// Offsets are relative: the check-in window runs from
// classStart+checkinStartOffset to classEnd+checkinEndOffset (offsets may
// be negative, allowing check-in before class starts).
type Policy struct {
	ClassStart time.Time
	ClassEnd   time.Time

	// Registered geofence
	Latitude     float64
	Longitude    float64
	RadiusMeters float64

	CheckinStartOffsetMinutes int
	CheckinEndOffsetMinutes   int
	LateThresholdMinutes      int

	// If set and shorter than the window, records still not_started are
	// auto-absented this many minutes after class start instead of at
	// window end.
	AutoAbsentAfterMinutes *int
}

type Session struct {
	ID       string
	CourseID string
	Title    string
	State    State
	Policy   Policy

	TeacherIDs []string // ordered, first is primary

	CreatedAt time.Time
	UpdatedAt time.Time
}
