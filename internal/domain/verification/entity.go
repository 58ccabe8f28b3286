package verification

import (
	"time"
)

// Challenge is an open mid-class re-verification window. It is ephemeral:
// held in memory while open and destroyed at expiry, with the outcome
// written back into each affected attendance record.
type Challenge struct {
	WindowID  string
	SessionID string
	OpenedAt  time.Time
	ExpiresAt time.Time

	// Snapshot of students who were present/late when the challenge
	// opened.
	AffectedStudentIDs []string
}
