package attendance

import "errors"

// Attendance domain errors
var (
	// Check-in rejections (recoverable, no state change)
	ErrGeofenceMismatch = errors.New("you are outside the session's check-in area")
	ErrTooEarly         = errors.New("too early to check in")
	ErrWindowClosed     = errors.New("the check-in window has closed")

	// Programming/race guard: the (status, event) pair is not in the
	// transition table. Never silently applied.
	ErrInvalidTransition = errors.New("event is not valid for the record's current status")

	// Store layer
	ErrRecordNotFound         = errors.New("attendance record not found")
	ErrConcurrentModification = errors.New("attendance record changed since it was loaded")
)
